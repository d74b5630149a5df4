package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/contactbook/contacts-gateway/internal/core/domain"
	"github.com/contactbook/contacts-gateway/internal/core/ports"
)

var _ ports.Backend = (*Client)(nil)

const contactsPath = "/api/contacts"

// ownerFilterKey restricts a contact listing to a single owning user.
const ownerFilterKey = "filters[users_permissions_user][id][$eq]"

var contactFields = []string{"name", "email", "phone", "age"}

// contactAttrs are the scalar and relation fields of a contact entry.
type contactAttrs struct {
	DocumentID   string          `json:"documentId"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	Age          *int            `json:"age"`
	ProfileImage json.RawMessage `json:"profile_image"`
	Owner        json.RawMessage `json:"users_permissions_user"`
}

// contactDoc accepts both the flat entry shape and the older
// {"id": 1, "attributes": {...}} shape.
type contactDoc struct {
	ID int64
	contactAttrs
}

func (d *contactDoc) UnmarshalJSON(b []byte) error {
	var flat struct {
		ID         int64           `json:"id"`
		Attributes json.RawMessage `json:"attributes"`
		contactAttrs
	}
	if err := json.Unmarshal(b, &flat); err != nil {
		return err
	}
	d.ID = flat.ID
	d.contactAttrs = flat.contactAttrs
	if len(flat.Attributes) > 0 && !isNull(flat.Attributes) {
		if err := json.Unmarshal(flat.Attributes, &d.contactAttrs); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) toContact(d contactDoc) domain.Contact {
	out := domain.Contact{
		ID:        d.DocumentID,
		NumericID: d.ID,
		Name:      d.Name,
		Email:     d.Email,
		Phone:     d.Phone,
		Age:       d.Age,
		OwnerID:   relationID(d.Owner),
	}
	if out.ID == "" {
		out.ID = strconv.FormatInt(d.ID, 10)
	}
	if len(d.ProfileImage) > 0 && !isNull(d.ProfileImage) {
		if ref, err := ParseMediaRef(d.ProfileImage); err == nil {
			ref.URL = c.resolveURL(ref.URL)
			out.ProfileImage = &ref
		}
	}
	return out
}

// resolveURL prefixes relative upload paths with the backend base URL.
func (c *Client) resolveURL(u string) string {
	if u == "" || strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	if !strings.HasPrefix(u, "/") {
		u = "/" + u
	}
	return c.cfg.BaseURL + u
}

type contactList struct {
	Data []contactDoc `json:"data"`
}

type contactEnvelope struct {
	Data *contactDoc `json:"data"`
}

// ListContacts returns contacts sorted by name, restricted to one owner when
// filter.OwnerID is set. The listing is not paginated by this client.
func (c *Client) ListContacts(ctx context.Context, filter ports.ContactFilter) ([]domain.Contact, error) {
	q := url.Values{}
	for i, f := range contactFields {
		q.Set(fmt.Sprintf("fields[%d]", i), f)
	}
	q.Set("populate[0]", "profile_image")
	q.Set("populate[1]", "users_permissions_user")
	q.Set("sort", "name:asc")
	if filter.OwnerID != 0 {
		q.Set(ownerFilterKey, strconv.FormatInt(filter.OwnerID, 10))
	}

	var resp contactList
	if err := c.call(ctx, request{
		op:     "list_contacts",
		method: http.MethodGet,
		path:   contactsPath,
		query:  q,
	}, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.Contact, 0, len(resp.Data))
	for _, d := range resp.Data {
		out = append(out, c.toContact(d))
	}
	return out, nil
}

// GetContact reads one contact with its owner populated, on behalf of the
// bearer's owner.
func (c *Client) GetContact(ctx context.Context, id, bearer string) (*domain.Contact, error) {
	var resp contactEnvelope
	err := c.call(ctx, request{
		op:     "get_contact",
		method: http.MethodGet,
		path:   contactsPath + "/" + url.PathEscape(id),
		query:  url.Values{"populate[0]": {"users_permissions_user"}, "populate[1]": {"profile_image"}},
		bearer: bearer,
	}, &resp)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("contact %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("contact %s: %w", id, domain.ErrNotFound)
	}
	contact := c.toContact(*resp.Data)
	return &contact, nil
}

type ownerRef struct {
	ID int64 `json:"id"`
}

type contactPayload struct {
	Name         *string   `json:"name,omitempty"`
	Email        *string   `json:"email,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	Age          *int      `json:"age,omitempty"`
	ProfileImage *int64    `json:"profile_image,omitempty"`
	Owner        *ownerRef `json:"users_permissions_user,omitempty"`
}

type contactWrite struct {
	Data contactPayload `json:"data"`
}

// CreateContact stores a new contact with the server credential.
func (c *Client) CreateContact(ctx context.Context, in domain.ContactInput) (*domain.Contact, error) {
	payload := contactPayload{
		Name:         &in.Name,
		Email:        &in.Email,
		Phone:        &in.Phone,
		Age:          in.Age,
		ProfileImage: in.MediaID,
		Owner:        &ownerRef{ID: in.OwnerID},
	}
	return c.writeContact(ctx, "create_contact", http.MethodPost, contactsPath, payload)
}

// UpdateContact applies a partial update; nil patch fields are not sent.
func (c *Client) UpdateContact(ctx context.Context, id string, patch domain.ContactPatch) (*domain.Contact, error) {
	payload := contactPayload{
		Name:         patch.Name,
		Email:        patch.Email,
		Phone:        patch.Phone,
		Age:          patch.Age,
		ProfileImage: patch.MediaID,
	}
	contact, err := c.writeContact(ctx, "update_contact", http.MethodPut, contactsPath+"/"+url.PathEscape(id), payload)
	if err != nil && isStatus(err, http.StatusNotFound) {
		return nil, fmt.Errorf("contact %s: %w", id, domain.ErrNotFound)
	}
	return contact, err
}

func (c *Client) writeContact(ctx context.Context, op, method, path string, payload contactPayload) (*domain.Contact, error) {
	b, err := json.Marshal(contactWrite{Data: payload})
	if err != nil {
		return nil, fmt.Errorf("%s: encode: %w", op, err)
	}

	var resp contactEnvelope
	if err := c.call(ctx, request{
		op:          op,
		method:      method,
		path:        path,
		body:        bytes.NewReader(b),
		contentType: "application/json",
	}, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("%s: empty response data", op)
	}
	contact := c.toContact(*resp.Data)
	return &contact, nil
}

// DeleteContact removes a contact with the server credential.
func (c *Client) DeleteContact(ctx context.Context, id string) error {
	err := c.call(ctx, request{
		op:     "delete_contact",
		method: http.MethodDelete,
		path:   contactsPath + "/" + url.PathEscape(id),
	}, nil)
	if err != nil && isStatus(err, http.StatusNotFound) {
		return fmt.Errorf("contact %s: %w", id, domain.ErrNotFound)
	}
	return err
}

// VerifyDeleted reads the contact with the server credential. Only a 404
// answer confirms the delete; a 2xx answer yields a
// *domain.DeleteNotVerifiedError carrying the read's body.
func (c *Client) VerifyDeleted(ctx context.Context, id string) error {
	status, body, err := c.do(ctx, request{
		op:     "verify_contact",
		method: http.MethodGet,
		path:   contactsPath + "/" + url.PathEscape(id),
	})
	if err != nil {
		return err
	}
	switch {
	case status == http.StatusNotFound:
		return nil
	case status >= 200 && status <= 299:
		return &domain.DeleteNotVerifiedError{ID: id, Status: status, Body: string(body)}
	default:
		return upstreamError("verify_contact", status, body)
	}
}
