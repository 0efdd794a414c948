package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenService issues and verifies HS256 access tokens.
type TokenService struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
}

// tokenClaims carries the account email next to the registered claims.
type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// NewTokenService creates a token service. The key should be at least 32
// bytes; ttl defaults to 24h when zero.
func NewTokenService(signingKey string, ttl time.Duration) (*TokenService, error) {
	if signingKey == "" {
		return nil, ErrMissingSigningKey
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{
		signingKey: []byte(signingKey),
		ttl:        ttl,
		issuer:     "filebox",
	}, nil
}

// Issue signs a fresh access token for u.
func (s *TokenService) Issue(u User) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify parses and validates a token, returning the caller's identity.
// All failure modes (bad signature, expiry, malformed subject) collapse into
// ErrUnauthorized.
func (s *TokenService) Verify(token string) (Identity, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return Identity{}, ErrUnauthorized
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, ErrUnauthorized
	}

	return Identity{UserID: userID, Email: claims.Email}, nil
}
