package ports

import (
	"context"
	"io"

	"github.com/contactbook/contacts-gateway/internal/core/domain"
)

// Upload is a file submitted by a browser, forwarded to the backend's media
// endpoint.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ContactFilter narrows a contact listing. OwnerID == 0 means no filter.
type ContactFilter struct {
	OwnerID int64
}

// Backend is the external headless content/identity service. Every method is
// a single sequential round-trip; none of them retry.
type Backend interface {
	// Login exchanges credentials for a bearer credential.
	Login(ctx context.Context, identifier, password string) (string, error)
	// Me resolves a bearer credential to the user profile, role included.
	Me(ctx context.Context, bearer string) (*domain.User, error)
	Register(ctx context.Context, username, email, password string) (*domain.User, error)

	// UploadMedia stores a file. A 2xx answer that carries no usable id is
	// reported as domain.ErrNoMediaID.
	UploadMedia(ctx context.Context, file Upload) (domain.MediaRef, error)

	ListContacts(ctx context.Context, filter ContactFilter) ([]domain.Contact, error)
	// GetContact fetches a contact with its owner relation populated, using
	// the caller's bearer credential.
	GetContact(ctx context.Context, id, bearer string) (*domain.Contact, error)
	CreateContact(ctx context.Context, in domain.ContactInput) (*domain.Contact, error)
	UpdateContact(ctx context.Context, id string, patch domain.ContactPatch) (*domain.Contact, error)
	DeleteContact(ctx context.Context, id string) error
	// VerifyDeleted reads the contact with the server credential. It returns
	// nil only when the backend answers 404, and a
	// *domain.DeleteNotVerifiedError when the contact is still served.
	VerifyDeleted(ctx context.Context, id string) error

	ListUsers(ctx context.Context, bearer string) ([]domain.User, error)
	GetUser(ctx context.Context, id int64, bearer string) (*domain.User, error)
	ListRoles(ctx context.Context) ([]domain.Role, error)

	// Ping issues an unauthenticated read and returns the HTTP status.
	Ping(ctx context.Context) (int, error)
	BaseURL() string
}
