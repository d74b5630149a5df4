package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/contactbook/contacts-gateway/internal/core/domain"
)

func TestDirectoryService_ListMembers_OnlyMembers(t *testing.T) {
	svc := NewDirectoryService(newFakeBackend(), zerolog.Nop())

	members, err := svc.ListMembers(context.Background(), "root-jwt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	for _, m := range members {
		if m.Role != domain.RoleMember {
			t.Errorf("non-member %q listed", m.Username)
		}
	}
}

func TestDirectoryService_RequiresAdmin(t *testing.T) {
	svc := NewDirectoryService(newFakeBackend(), zerolog.Nop())

	if _, err := svc.ListMembers(context.Background(), "alice-jwt"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("list: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.GetMember(context.Background(), "alice-jwt", bob.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("get: expected ErrForbidden, got %v", err)
	}
}

func TestDirectoryService_GetMember_WithContacts(t *testing.T) {
	be := newFakeBackend()
	be.seed("Ann", alice.ID)
	be.seed("Bea", bob.ID)
	svc := NewDirectoryService(be, zerolog.Nop())

	detail, err := svc.GetMember(context.Background(), "root-jwt", alice.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.User.ID != alice.ID || len(detail.Contacts) != 1 || detail.Contacts[0].Name != "Ann" {
		t.Fatalf("unexpected detail: %+v", detail)
	}
}

func TestDirectoryService_GetMember_InvalidID(t *testing.T) {
	svc := NewDirectoryService(newFakeBackend(), zerolog.Nop())
	if _, err := svc.GetMember(context.Background(), "root-jwt", 0); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
