package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errMissingSubject = errors.New("token missing subject claim")

// hs256Verifier validates JWTs signed with a shared HMAC secret.
type hs256Verifier struct {
	secret []byte
}

func newHS256Verifier(cfg Config) (Verifier, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("hs256 secret is required")
	}
	return &hs256Verifier{secret: []byte(cfg.Secret)}, nil
}

func (v *hs256Verifier) Verify(_ context.Context, token string) (AuthenticatedUser, error) {
	t, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithLeeway(5*time.Second))
	if err != nil {
		return AuthenticatedUser{}, fmt.Errorf("token verification failed: %w", err)
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return AuthenticatedUser{}, errors.New("unexpected claims type")
	}

	subject, ok := claims["sub"].(string)
	if !ok || subject == "" {
		return AuthenticatedUser{}, errMissingSubject
	}

	expiresAt := int64(0)
	if expRaw, ok := claims["exp"].(float64); ok {
		expiresAt = int64(expRaw)
	}

	return AuthenticatedUser{UserID: subject, ExpiresAt: expiresAt, Token: token}, nil
}

// IssueToken signs an HS256 JWT for the given user ID.
func IssueToken(secret string, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
