package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is the only error Verify returns. Malformed tokens,
// bad signatures, expired tokens and broken subjects are deliberately
// indistinguishable to the caller.
var ErrInvalidToken = errors.New("invalid token")

// TokenService issues and verifies HS256 access tokens.
//
// The signing key comes from startup configuration; there is no
// built-in fallback, and tests construct the service with their
// own key.
type TokenService struct {
	issuer     string
	signingKey []byte
	ttl        time.Duration
}

func NewTokenService(issuer string, signingKey []byte, ttl time.Duration) *TokenService {
	return &TokenService{
		issuer:     issuer,
		signingKey: signingKey,
		ttl:        ttl,
	}
}

// Issue signs a token with subject userID expiring after the
// configured validity window.
func (s *TokenService) Issue(userID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature, then the expiry, then the subject, and
// returns the user ID carried by the token. Expiry is evaluated on
// every call, never cached.
func (s *TokenService) Verify(tokenString string) (string, error) {
	t, err := jwt.ParseWithClaims(
		tokenString,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := t.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	if _, err = uuid.Parse(claims.Subject); err != nil {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
