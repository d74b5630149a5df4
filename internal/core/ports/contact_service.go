package ports

import (
	"context"

	"github.com/contactbook/contacts-gateway/internal/core/domain"
)

// CreateContactInput is a contact creation request. Age is the raw submitted
// value; it is dropped when it does not parse as a number.
type CreateContactInput struct {
	Name  string
	Email string
	Phone string
	Age   string
	Image *Upload
}

// UpdateContactInput is a partial update request. Empty strings mean "not
// supplied".
type UpdateContactInput struct {
	Name  string
	Email string
	Phone string
	Age   string
	Image *Upload
}

// ContactService is the resource gateway for contacts. Every method takes the
// caller's bearer credential and resolves it before touching any record.
type ContactService interface {
	Create(ctx context.Context, bearer string, in CreateContactInput) (*domain.Contact, error)
	List(ctx context.Context, bearer string) ([]domain.Contact, error)
	Get(ctx context.Context, bearer, id string) (*domain.Contact, error)
	Update(ctx context.Context, bearer, id string, in UpdateContactInput) (*domain.Contact, error)
	Delete(ctx context.Context, bearer, id string) error
}
