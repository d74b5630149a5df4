package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/contactbook/contacts-gateway/internal/core/domain"
	"github.com/contactbook/contacts-gateway/internal/core/ports"
)

// DirectoryService backs the administrator's user directory pages.
type DirectoryService struct {
	backend ports.Backend
	logger  zerolog.Logger
}

func NewDirectoryService(backend ports.Backend, logger zerolog.Logger) *DirectoryService {
	return &DirectoryService{backend: backend, logger: logger}
}

// ListMembers returns the users holding the Member role.
func (s *DirectoryService) ListMembers(ctx context.Context, bearer string) ([]domain.User, error) {
	if _, err := s.requireAdmin(ctx, bearer); err != nil {
		return nil, err
	}

	users, err := s.backend.ListUsers(ctx, bearer)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	members := make([]domain.User, 0, len(users))
	for _, u := range users {
		if u.Role == domain.RoleMember {
			members = append(members, u)
		}
	}
	return members, nil
}

// GetMember returns a user and every contact they own.
func (s *DirectoryService) GetMember(ctx context.Context, bearer string, id int64) (*ports.MemberDetail, error) {
	if id <= 0 {
		return nil, domain.ValidationError("user id required")
	}
	if _, err := s.requireAdmin(ctx, bearer); err != nil {
		return nil, err
	}

	user, err := s.backend.GetUser(ctx, id, bearer)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}

	contacts, err := s.backend.ListContacts(ctx, ports.ContactFilter{OwnerID: id})
	if err != nil {
		return nil, fmt.Errorf("list contacts of user %d: %w", id, err)
	}

	return &ports.MemberDetail{User: *user, Contacts: contacts}, nil
}

func (s *DirectoryService) requireAdmin(ctx context.Context, bearer string) (domain.Caller, error) {
	caller, err := resolveCaller(ctx, s.backend, bearer, s.logger)
	if err != nil {
		return domain.Caller{}, err
	}
	if !caller.IsAdmin() {
		return domain.Caller{}, domain.ErrForbidden
	}
	return caller, nil
}
