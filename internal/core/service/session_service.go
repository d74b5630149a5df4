package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/contactbook/contacts-gateway/internal/core/domain"
	"github.com/contactbook/contacts-gateway/internal/core/ports"
)

const defaultSessionTTL = 30 * 24 * time.Hour

// sessionClaims is the payload of the browser session token. The backend
// bearer credential and role travel inside so later requests never need to
// re-query the backend to know who the user is.
type sessionClaims struct {
	jwt.RegisteredClaims
	Name   string `json:"name"`
	Email  string `json:"email"`
	Bearer string `json:"jwt"`
	Role   string `json:"role"`
}

// SessionService implements login, signup and session token handling.
type SessionService struct {
	backend  ports.Backend
	secret   []byte
	tokenTTL time.Duration
	logger   zerolog.Logger
}

func NewSessionService(backend ports.Backend, secret string, tokenTTL time.Duration, logger zerolog.Logger) *SessionService {
	if tokenTTL <= 0 {
		tokenTTL = defaultSessionTTL
	}
	return &SessionService{backend: backend, secret: []byte(secret), tokenTTL: tokenTTL, logger: logger}
}

// Authenticate exchanges credentials with the backend and builds a Session
// from the user's profile. Any failure yields ErrInvalidCredentials.
func (s *SessionService) Authenticate(ctx context.Context, identifier, password string) (*domain.Session, error) {
	if identifier == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	bearer, err := s.backend.Login(ctx, identifier, password)
	if err != nil || bearer == "" {
		s.logger.Info().Err(err).Str("identifier", identifier).Msg("backend login rejected")
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.backend.Me(ctx, bearer)
	if err != nil || user == nil {
		s.logger.Warn().Err(err).Str("identifier", identifier).Msg("profile lookup after login failed")
		return nil, domain.ErrInvalidCredentials
	}

	role := user.Role
	if role == "" {
		role = domain.RoleAuthenticated
	}

	return &domain.Session{
		UserID: user.ID,
		Name:   user.Username,
		Email:  user.Email,
		Bearer: bearer,
		Role:   role,
	}, nil
}

// Register creates an account on the backend. Upstream rejections (taken
// username, weak password) are returned as *domain.UpstreamError.
func (s *SessionService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, domain.ValidationError("username, email and password are required")
	}
	user, err := s.backend.Register(ctx, in.Username, in.Email, in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	s.logger.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return user, nil
}

// Issue signs a session token for the browser.
func (s *SessionService) Issue(sess *domain.Session) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.Subject(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		Name:   sess.Name,
		Email:  sess.Email,
		Bearer: sess.Bearer,
		Role:   string(sess.Role),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Parse verifies a session token and returns the session it carries.
func (s *SessionService) Parse(token string) (*domain.Session, error) {
	claims := &sessionClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("%w: invalid session token", domain.ErrUnauthorized)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || claims.Bearer == "" {
		return nil, fmt.Errorf("%w: malformed session token", domain.ErrUnauthorized)
	}

	return &domain.Session{
		UserID: id,
		Name:   claims.Name,
		Email:  claims.Email,
		Bearer: claims.Bearer,
		Role:   domain.Role(claims.Role),
	}, nil
}

// ErrAdminRoleUnknown is returned by VerifyRoleLiterals when the backend does
// not define a role named domain.RoleSuperAdmin.
var ErrAdminRoleUnknown = errors.New("administrator role literal not defined by backend")

// VerifyRoleLiterals compares the role names hard-coded in the domain package
// with the ones the backend reports.
func (s *SessionService) VerifyRoleLiterals(ctx context.Context) error {
	roles, err := s.backend.ListRoles(ctx)
	if err != nil {
		return fmt.Errorf("list roles: %w", err)
	}
	for _, r := range roles {
		if r == domain.RoleSuperAdmin {
			return nil
		}
	}
	s.logger.Warn().
		Str("expected", string(domain.RoleSuperAdmin)).
		Interface("backend_roles", roles).
		Msg("administrator role literal not found on backend; admin checks will never match")
	return ErrAdminRoleUnknown
}
