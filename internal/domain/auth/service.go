// Package auth authenticates users and issues bearer tokens.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront-backoffice/internal/domain/user"
)

// Sentinel errors for authentication.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveUser       = errors.New("user is not active")
)

// UserLookup finds users by email.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// PasswordVerifier checks a password against its stored hash.
type PasswordVerifier interface {
	Compare(hash, password string) bool
}

// Session is the result of a successful authentication.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *user.User
}

// Service authenticates users.
type Service struct {
	users     UserLookup
	passwords PasswordVerifier
	tokens    *Tokens
}

// NewService creates an auth Service.
func NewService(users UserLookup, passwords PasswordVerifier, tokens *Tokens) *Service {
	return &Service{users: users, passwords: passwords, tokens: tokens}
}

// Authenticate checks credentials and issues a token for an active user.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "lookup user")
	}

	if !s.passwords.Compare(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if u.Status != user.StatusActive {
		return nil, ErrInactiveUser
	}

	token, exp, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp, User: u}, nil
}

// Verify validates a bearer token.
func (s *Service) Verify(token string) (*Claims, error) {
	return s.tokens.Verify(token)
}
