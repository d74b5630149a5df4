package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/contactbook/contacts-gateway/internal/core/domain"
)

type roleDoc struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type userDoc struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Role     *roleDoc `json:"role"`
}

func (d userDoc) toDomain() domain.User {
	u := domain.User{ID: d.ID, Username: d.Username, Email: d.Email}
	if d.Role != nil {
		u.Role = domain.Role(d.Role.Name)
	}
	return u
}

// ListUsers returns every user with their role, read with the caller's
// credential.
func (c *Client) ListUsers(ctx context.Context, bearer string) ([]domain.User, error) {
	var docs []userDoc
	err := c.call(ctx, request{
		op:     "list_users",
		method: http.MethodGet,
		path:   "/api/users",
		query:  url.Values{"populate": {"role"}},
		bearer: bearer,
	}, &docs)
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, len(docs))
	for i, d := range docs {
		users[i] = d.toDomain()
	}
	return users, nil
}

// GetUser returns a single user with their role.
func (c *Client) GetUser(ctx context.Context, id int64, bearer string) (*domain.User, error) {
	var doc userDoc
	err := c.call(ctx, request{
		op:     "get_user",
		method: http.MethodGet,
		path:   "/api/users/" + strconv.FormatInt(id, 10),
		query:  url.Values{"populate": {"role"}},
		bearer: bearer,
	}, &doc)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	u := doc.toDomain()
	return &u, nil
}
