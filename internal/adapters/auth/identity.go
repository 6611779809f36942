package auth

import (
	"context"

	"eventmanager/internal/domain"
)

type contextKey string

const userIDKey contextKey = "userID"

// WithUserID returns a context carrying the authenticated user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user ID from the context, if present.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

type contextIdentity struct{}

// NewContextIdentity returns an IdentityProvider that reads the user set by WithUserID.
func NewContextIdentity() domain.IdentityProvider {
	return contextIdentity{}
}

func (contextIdentity) UserID(ctx context.Context) (string, error) {
	id, ok := UserIDFromContext(ctx)
	if !ok {
		return "", domain.ErrUnauthorized
	}
	return id, nil
}
