package ports

import (
	"context"

	"github.com/contactbook/contacts-gateway/internal/core/domain"
)

// MemberDetail is a member profile together with the contacts they own.
type MemberDetail struct {
	User     domain.User
	Contacts []domain.Contact
}

// DirectoryService is the administrator's user directory.
type DirectoryService interface {
	ListMembers(ctx context.Context, bearer string) ([]domain.User, error)
	GetMember(ctx context.Context, bearer string, id int64) (*MemberDetail, error)
}

// DiagnosticsReport describes backend reachability.
type DiagnosticsReport struct {
	BackendURL string
	Reachable  bool
	Status     string
	Detail     string
}

// DiagnosticsService probes the backend.
type DiagnosticsService interface {
	Check(ctx context.Context) DiagnosticsReport
}
