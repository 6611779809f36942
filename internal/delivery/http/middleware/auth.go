package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"eventmanager/internal/adapters/auth"
	h "eventmanager/internal/delivery/http/helpers"
	"eventmanager/internal/domain"
)

var (
	errNoAuthHeader  = errors.New("missing authorization header")
	errNotBearer     = errors.New("invalid authorization format")
	errEmptyBearer   = errors.New("missing token")
	errTokenRejected = errors.New("invalid or expired token")
)

// bearerToken extracts the credential of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errNoAuthHeader
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", errNotBearer
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", errEmptyBearer
	}
	return token, nil
}

// RequireAuth rejects requests without a valid bearer token with 401. Otherwise the verified
// user ID is put in the request context, where auth.NewContextIdentity resolves it.
func RequireAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, err.Error())
				return
			}
			userID, err := verifier.Verify(token)
			if err != nil {
				logger.DebugContext(r.Context(), "token rejected", "path", r.URL.Path, "error", err)
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, errTokenRejected.Error())
				return
			}
			recordUser(r.Context(), userID)
			next(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		}
	}
}
