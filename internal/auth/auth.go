// Package auth issues and verifies the access tokens of the admin dashboard.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const RoleAdmin = "admin"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AccessToken is a signed JWT with its expiry.
type AccessToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Authenticator struct {
	secret       []byte
	user         string
	passwordHash []byte
	ttl          time.Duration
	now          func() time.Time
}

type Option func(*Authenticator)

func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		a.now = now
	}
}

// NewAuthenticator checks logins against a single admin account whose
// password is stored as a bcrypt hash.
func NewAuthenticator(secret, user, passwordHash string, ttl time.Duration, opts ...Option) *Authenticator {
	a := &Authenticator{
		secret:       []byte(secret),
		user:         user,
		passwordHash: []byte(passwordHash),
		ttl:          ttl,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Authenticator) Login(user, password string) (AccessToken, error) {
	if len(a.passwordHash) == 0 || user != a.user {
		return AccessToken{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		return AccessToken{}, ErrInvalidCredentials
	}
	return a.Issue(user, RoleAdmin)
}

func (a *Authenticator) Issue(subject, role string) (AccessToken, error) {
	if len(a.secret) == 0 {
		return AccessToken{}, errors.New("jwt secret is not configured")
	}
	now := a.now().UTC()
	exp := now.Add(a.ttl)
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return AccessToken{}, fmt.Errorf("sign token: %w", err)
	}
	return AccessToken{Token: signed, ExpiresAt: exp}, nil
}

// Verify parses raw and returns its claims. Only HMAC signed tokens are accepted.
func (a *Authenticator) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
