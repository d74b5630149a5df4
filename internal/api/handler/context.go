package handler

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/contactbook/contacts-gateway/internal/api/middleware"
	"github.com/contactbook/contacts-gateway/internal/core/domain"
)

// requireBearer returns the caller's backend credential and fails fast,
// before any backend call, when the request carries none.
func requireBearer(c echo.Context) (string, error) {
	bearer := middleware.BearerFrom(c)
	if bearer == "" {
		return "", fmt.Errorf("%w: missing bearer credential", domain.ErrUnauthorized)
	}
	return bearer, nil
}
