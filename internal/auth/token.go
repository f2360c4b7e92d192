package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/spendwise/spendwise/internal/model"
)

// ErrInvalidToken indicates the session token is missing, malformed, expired
// or carries the wrong signature. Callers must treat it as unauthenticated,
// never as an anonymous principal.
var ErrInvalidToken = errors.New("invalid session token")

// SessionClaims are the JWT claims carried by a session token.
type SessionClaims struct {
	Email     string `json:"email,omitempty"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a TokenIssuer with the given signing secret and
// session lifetime.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured session lifetime.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Mint signs a session token for a user. sessionID identifies the
// server-side session entry so logout can revoke the token before expiry.
func (t *TokenIssuer) Mint(user *model.User, sessionID string) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(t.ttl)

	claims := SessionClaims{
		Email:     user.Email,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}

	return signed, expiresAt, nil
}

// Verify parses a session token and returns the principal it carries.
// Returns ErrInvalidToken for any malformed, expired or mis-signed token.
func (t *TokenIssuer) Verify(tokenString string) (*model.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(tk *jwt.Token) (any, error) {
		// Pin the algorithm to prevent confusion attacks
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tk.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}

	return &model.Principal{
		UserID:    claims.Subject,
		Email:     claims.Email,
		SessionID: claims.SessionID,
	}, nil
}
