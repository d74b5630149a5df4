package ports

import (
	"context"

	"github.com/contactbook/contacts-gateway/internal/core/domain"
)

// RegisterInput carries a signup request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// SessionService authenticates users against the backend and issues the
// signed session tokens carried by browsers.
type SessionService interface {
	// Authenticate returns domain.ErrInvalidCredentials for every failure
	// kind; the cause is only logged.
	Authenticate(ctx context.Context, identifier, password string) (*domain.Session, error)
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Issue(s *domain.Session) (string, error)
	Parse(token string) (*domain.Session, error)
}
