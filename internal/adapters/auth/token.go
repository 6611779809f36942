package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"eventmanager/internal/domain"
)

// TokenIssuerName is the iss claim written and required on every token.
const TokenIssuerName = "eventmanager"

var errNoSubject = errors.New("token has no subject")

type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// hmacKey is an HS256 signing secret shared by the issuer and the verifier.
type hmacKey []byte

func (k hmacKey) keyFunc(*jwt.Token) (any, error) { return []byte(k), nil }

// NewJWTIssuer returns a TokenIssuer signing HS256 tokens with secret.
func NewJWTIssuer(secret string) domain.TokenIssuer {
	return hmacKey(secret)
}

func (k hmacKey) Issue(userID, email string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", domain.Invalidf("user id is required")
	}
	issuedAt := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuerName,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
		Email: email,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(k))
	if err != nil {
		return "", fmt.Errorf("sign token for %s: %w", userID, err)
	}
	return signed, nil
}

type jwtVerifier struct {
	key    hmacKey
	parser *jwt.Parser
}

// NewJWTVerifier returns a TokenVerifier accepting only unexpired HS256 tokens issued by
// TokenIssuerName and signed with secret.
func NewJWTVerifier(secret string) domain.TokenVerifier {
	return &jwtVerifier{
		key: hmacKey(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(TokenIssuerName),
			jwt.WithExpirationRequired(),
		),
	}
}

// Verify returns the subject of a valid token. Every failure wraps domain.ErrUnauthorized.
func (v *jwtVerifier) Verify(token string) (string, error) {
	var c claims
	if _, err := v.parser.ParseWithClaims(token, &c, v.key.keyFunc); err != nil {
		return "", errors.Join(domain.ErrUnauthorized, err)
	}
	if c.Subject == "" {
		return "", errors.Join(domain.ErrUnauthorized, errNoSubject)
	}
	return c.Subject, nil
}
