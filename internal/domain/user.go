package domain

import (
	"context"
	"time"
)

// User is the read-only view of an account owned by the identity subsystem.
// swagger:model User
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	DateOfBirth time.Time `json:"date_of_birth"`
}

// TokenIssuer mints bearer tokens for a user. Production tokens come from the identity
// subsystem; the issuer exists for local tooling and tests.
type TokenIssuer interface {
	Issue(userID, email string, ttl time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated user ID.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// IdentityProvider resolves the acting user of the current request.
type IdentityProvider interface {
	UserID(ctx context.Context) (string, error)
}

// UserRepository reads user snapshots.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
}
