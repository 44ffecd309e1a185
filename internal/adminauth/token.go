package adminauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	Subject  = "admin"
	audience = "taxibooking-admin"
)

var (
	ErrNotConfigured = errors.New("admin login is not configured")
	ErrBadPassword   = errors.New("invalid password")
)

type Claims struct {
	jwt.RegisteredClaims
}

// Issue signs an HS256 session token for the admin dashboard.
func Issue(secret string, now time.Time, ttl time.Duration) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, ErrNotConfigured
	}
	exp := now.Add(ttl)
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   Subject,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign admin token: %w", err)
	}
	return s, exp, nil
}

type Session struct {
	Subject   string
	ExpiresAt time.Time
}

// Verify checks signature, audience and expiry at now.
func Verify(tokenString, secret string, now time.Time) (*Session, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}
	if secret == "" {
		return nil, ErrNotConfigured
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	claims := &Claims{}
	tok, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Subject != Subject {
		return nil, fmt.Errorf("unexpected subject %q", claims.Subject)
	}
	return &Session{Subject: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}, nil
}
