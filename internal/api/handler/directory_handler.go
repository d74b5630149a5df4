package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/contactbook/contacts-gateway/internal/core/domain"
	"github.com/contactbook/contacts-gateway/internal/core/ports"
)

// DirectoryHandler exposes the administrator's user directory as JSON.
type DirectoryHandler struct {
	service ports.DirectoryService
}

func NewDirectoryHandler(service ports.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{service: service}
}

type memberListResponse struct {
	Data []domain.User `json:"data"`
}

type memberDetailResponse struct {
	User     domain.User       `json:"user"`
	Contacts []contactResponse `json:"contacts"`
}

// ListMembers handles GET /api/users.
//
// @Summary      List members
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  memberListResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /api/users [get]
func (h *DirectoryHandler) ListMembers(c echo.Context) error {
	bearer, err := requireBearer(c)
	if err != nil {
		return err
	}
	members, err := h.service.ListMembers(c.Request().Context(), bearer)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, memberListResponse{Data: members})
}

// GetMember handles GET /api/users/:id.
//
// @Summary      Get a member and their contacts
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  memberDetailResponse
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/users/{id} [get]
func (h *DirectoryHandler) GetMember(c echo.Context) error {
	bearer, err := requireBearer(c)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return domain.ValidationError("invalid user id")
	}

	detail, err := h.service.GetMember(c.Request().Context(), bearer, id)
	if err != nil {
		return err
	}

	contacts := make([]contactResponse, 0, len(detail.Contacts))
	for i := range detail.Contacts {
		contacts = append(contacts, toContactResponse(&detail.Contacts[i]))
	}
	return c.JSON(http.StatusOK, memberDetailResponse{User: detail.User, Contacts: contacts})
}
