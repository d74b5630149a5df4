package service

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"github.com/contactbook/contacts-gateway/internal/core/domain"
	"github.com/contactbook/contacts-gateway/internal/core/ports"
)

var (
	alice = domain.User{ID: 1, Username: "alice", Email: "alice@example.com", Role: domain.RoleMember}
	bob   = domain.User{ID: 2, Username: "bob", Email: "bob@example.com", Role: domain.RoleMember}
	root  = domain.User{ID: 3, Username: "root", Email: "root@example.com", Role: domain.RoleSuperAdmin}
)

// fakeBackend is an in-memory backend. Users are looked up by bearer
// credential; the *Fn fields override individual calls.
type fakeBackend struct {
	users    map[string]domain.User
	contacts map[string]*domain.Contact
	nextID   int64
	calls    int

	loginFn    func(identifier, password string) (string, error)
	meFn       func(bearer string) (*domain.User, error)
	registerFn func(username, email, password string) (*domain.User, error)
	uploadFn   func(file ports.Upload) (domain.MediaRef, error)
	createFn   func(in domain.ContactInput) (*domain.Contact, error)
	deleteFn   func(id string) error
	verifyFn   func(id string) error
	rolesFn    func() ([]domain.Role, error)
	pingFn     func() (int, error)

	updates []domain.ContactPatch
	deleted []string
	filters []ports.ContactFilter
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		users: map[string]domain.User{
			"alice-jwt": alice,
			"bob-jwt":   bob,
			"root-jwt":  root,
		},
		contacts: map[string]*domain.Contact{},
	}
}

// seed stores a contact owned by owner and returns its id.
func (f *fakeBackend) seed(name string, owner int64) string {
	f.nextID++
	id := "doc-" + strconv.FormatInt(f.nextID, 10)
	f.contacts[id] = &domain.Contact{ID: id, NumericID: f.nextID, Name: name, Email: name + "@example.com", Phone: "555", OwnerID: owner}
	return id
}

func (f *fakeBackend) Login(_ context.Context, identifier, password string) (string, error) {
	f.calls++
	if f.loginFn != nil {
		return f.loginFn(identifier, password)
	}
	return identifier + "-jwt", nil
}

func (f *fakeBackend) Me(_ context.Context, bearer string) (*domain.User, error) {
	f.calls++
	if f.meFn != nil {
		return f.meFn(bearer)
	}
	u, ok := f.users[bearer]
	if !ok {
		return nil, &domain.UpstreamError{Op: "me", Status: 401}
	}
	return &u, nil
}

func (f *fakeBackend) Register(_ context.Context, username, email, password string) (*domain.User, error) {
	f.calls++
	if f.registerFn != nil {
		return f.registerFn(username, email, password)
	}
	return &domain.User{ID: 99, Username: username, Email: email}, nil
}

func (f *fakeBackend) UploadMedia(_ context.Context, file ports.Upload) (domain.MediaRef, error) {
	f.calls++
	if f.uploadFn != nil {
		return f.uploadFn(file)
	}
	return domain.MediaRef{ID: 42, URL: "/uploads/" + file.Filename}, nil
}

func (f *fakeBackend) ListContacts(_ context.Context, filter ports.ContactFilter) ([]domain.Contact, error) {
	f.calls++
	f.filters = append(f.filters, filter)
	var out []domain.Contact
	for _, c := range f.contacts {
		if filter.OwnerID != 0 && c.OwnerID != filter.OwnerID {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeBackend) GetContact(_ context.Context, id, bearer string) (*domain.Contact, error) {
	f.calls++
	if _, ok := f.users[bearer]; !ok {
		return nil, &domain.UpstreamError{Op: "get_contact", Status: 401}
	}
	c, ok := f.contacts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeBackend) CreateContact(_ context.Context, in domain.ContactInput) (*domain.Contact, error) {
	f.calls++
	if f.createFn != nil {
		return f.createFn(in)
	}
	id := f.seed(in.Name, in.OwnerID)
	c := f.contacts[id]
	c.Email, c.Phone, c.Age = in.Email, in.Phone, in.Age
	if in.MediaID != nil {
		c.ProfileImage = &domain.MediaRef{ID: *in.MediaID}
	}
	cp := *c
	return &cp, nil
}

func (f *fakeBackend) UpdateContact(_ context.Context, id string, patch domain.ContactPatch) (*domain.Contact, error) {
	f.calls++
	f.updates = append(f.updates, patch)
	c, ok := f.contacts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Email != nil {
		c.Email = *patch.Email
	}
	if patch.Phone != nil {
		c.Phone = *patch.Phone
	}
	if patch.Age != nil {
		c.Age = patch.Age
	}
	if patch.MediaID != nil {
		c.ProfileImage = &domain.MediaRef{ID: *patch.MediaID}
	}
	cp := *c
	return &cp, nil
}

func (f *fakeBackend) DeleteContact(_ context.Context, id string) error {
	f.calls++
	if f.deleteFn != nil {
		return f.deleteFn(id)
	}
	f.deleted = append(f.deleted, id)
	delete(f.contacts, id)
	return nil
}

func (f *fakeBackend) VerifyDeleted(_ context.Context, id string) error {
	f.calls++
	if f.verifyFn != nil {
		return f.verifyFn(id)
	}
	if c, ok := f.contacts[id]; ok {
		return &domain.DeleteNotVerifiedError{ID: id, Status: 200, Body: `{"data":{"name":"` + c.Name + `"}}`}
	}
	return nil
}

func (f *fakeBackend) ListUsers(_ context.Context, _ string) ([]domain.User, error) {
	f.calls++
	out := make([]domain.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeBackend) GetUser(_ context.Context, id int64, _ string) (*domain.User, error) {
	f.calls++
	for _, u := range f.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeBackend) ListRoles(context.Context) ([]domain.Role, error) {
	f.calls++
	if f.rolesFn != nil {
		return f.rolesFn()
	}
	return []domain.Role{domain.RoleAuthenticated, domain.RoleMember, domain.RoleSuperAdmin}, nil
}

func (f *fakeBackend) Ping(context.Context) (int, error) {
	f.calls++
	if f.pingFn != nil {
		return f.pingFn()
	}
	return 403, nil
}

func (f *fakeBackend) BaseURL() string { return "http://cms.test" }

// stubCache records invalidations.
type stubCache struct {
	invalidated   []string
	invalidateErr error
}

func (c *stubCache) Get(context.Context, string, string) ([]byte, bool, error) { return nil, false, nil }
func (c *stubCache) Set(context.Context, string, string, []byte) error         { return nil }
func (c *stubCache) Invalidate(_ context.Context, paths ...string) error {
	c.invalidated = append(c.invalidated, paths...)
	return c.invalidateErr
}

var errBoom = errors.New("boom")
