package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/contactbook/contacts-gateway/internal/core/domain"
)

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	JWT  string  `json:"jwt"`
	User userDoc `json:"user"`
}

// Login exchanges identifier and password for a bearer credential.
func (c *Client) Login(ctx context.Context, identifier, password string) (string, error) {
	body, err := jsonBody(loginRequest{Identifier: identifier, Password: password})
	if err != nil {
		return "", err
	}

	var resp authResponse
	err = c.call(ctx, request{
		op:          "login",
		method:      http.MethodPost,
		path:        "/api/auth/local",
		body:        body,
		contentType: "application/json",
		anonymous:   true,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.JWT == "" {
		return "", fmt.Errorf("login: %w", domain.ErrInvalidCredentials)
	}
	return resp.JWT, nil
}

// Me returns the profile, role included, of the bearer's owner.
func (c *Client) Me(ctx context.Context, bearer string) (*domain.User, error) {
	var doc userDoc
	err := c.call(ctx, request{
		op:     "me",
		method: http.MethodGet,
		path:   "/api/users/me",
		query:  url.Values{"populate[0]": {"role"}},
		bearer: bearer,
	}, &doc)
	if err != nil {
		return nil, err
	}
	u := doc.toDomain()
	return &u, nil
}

// Register creates a user account.
func (c *Client) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	body, err := jsonBody(registerRequest{Username: username, Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var resp authResponse
	err = c.call(ctx, request{
		op:          "register",
		method:      http.MethodPost,
		path:        "/api/auth/local/register",
		body:        body,
		contentType: "application/json",
		anonymous:   true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	u := resp.User.toDomain()
	return &u, nil
}

type rolesResponse struct {
	Roles []roleDoc `json:"roles"`
}

// ListRoles returns the role names defined by the backend.
func (c *Client) ListRoles(ctx context.Context) ([]domain.Role, error) {
	var resp rolesResponse
	err := c.call(ctx, request{
		op:     "list_roles",
		method: http.MethodGet,
		path:   "/api/users-permissions/roles",
	}, &resp)
	if err != nil {
		return nil, err
	}
	roles := make([]domain.Role, 0, len(resp.Roles))
	for _, r := range resp.Roles {
		roles = append(roles, domain.Role(r.Name))
	}
	return roles, nil
}

// Ping reads the contacts collection without any credential.
func (c *Client) Ping(ctx context.Context) (int, error) {
	status, _, err := c.do(ctx, request{
		op:        "ping",
		method:    http.MethodGet,
		path:      "/api/contacts",
		anonymous: true,
	})
	return status, err
}
