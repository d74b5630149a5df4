package handler

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/contactbook/contacts-gateway/internal/api/middleware"
	"github.com/contactbook/contacts-gateway/internal/core/domain"
	"github.com/contactbook/contacts-gateway/internal/core/ports"
)

// PageHandler renders the browser pages. Pages that list or show contacts
// are cached per viewer and dropped by the contact service on mutation.
type PageHandler struct {
	contacts    ports.ContactService
	directory   ports.DirectoryService
	diagnostics ports.DiagnosticsService
	cache       ports.ViewCache
	logger      zerolog.Logger
}

func NewPageHandler(
	contacts ports.ContactService,
	directory ports.DirectoryService,
	diagnostics ports.DiagnosticsService,
	cache ports.ViewCache,
	logger zerolog.Logger,
) *PageHandler {
	return &PageHandler{
		contacts:    contacts,
		directory:   directory,
		diagnostics: diagnostics,
		cache:       cache,
		logger:      logger,
	}
}

type pageData struct {
	Title    string
	Session  *domain.Session
	Error    string
	Notice   string
	Contacts []domain.Contact
	Contact  *domain.Contact
	Members  []domain.User
	Member   *ports.MemberDetail
	Report   *ports.DiagnosticsReport
}

func (h *PageHandler) data(c echo.Context, title string) pageData {
	d := pageData{
		Title:   title,
		Session: middleware.SessionFrom(c),
		Error:   c.QueryParam("error"),
	}
	if c.QueryParam("registered") != "" {
		d.Notice = "Account created. You can sign in now."
	}
	return d
}

// Root sends visitors to the landing page.
func (h *PageHandler) Root(c echo.Context) error {
	return c.Redirect(http.StatusFound, middleware.HomePath)
}

func (h *PageHandler) Login(c echo.Context) error {
	return h.render(c, http.StatusOK, "login", h.data(c, "Sign in"))
}

func (h *PageHandler) Signup(c echo.Context) error {
	return h.render(c, http.StatusOK, "signup", h.data(c, "Sign up"))
}

// Home lists the viewer's contacts, or every contact for the administrator.
func (h *PageHandler) Home(c echo.Context) error {
	return h.cached(c, middleware.HomePath, func(d *pageData) (string, error) {
		contacts, err := h.contacts.List(c.Request().Context(), d.Session.Bearer)
		if err != nil {
			return "home", err
		}
		d.Contacts = contacts
		return "home", nil
	}, "Contacts")
}

func (h *PageHandler) NewContact(c echo.Context) error {
	return h.render(c, http.StatusOK, "contact_form", h.data(c, "New contact"))
}

func (h *PageHandler) ContactDetail(c echo.Context) error {
	id := c.Param("id")
	return h.cached(c, middleware.HomePath+"/"+id, func(d *pageData) (string, error) {
		contact, err := h.contacts.Get(c.Request().Context(), d.Session.Bearer, id)
		if err != nil {
			return "contact_detail", err
		}
		d.Contact = contact
		d.Title = contact.Name
		return "contact_detail", nil
	}, "Contact")
}

func (h *PageHandler) EditContact(c echo.Context) error {
	d := h.data(c, "Edit contact")
	contact, err := h.contacts.Get(c.Request().Context(), d.Session.Bearer, c.Param("id"))
	if err != nil {
		return h.renderFailure(c, "contact_form", d, err)
	}
	d.Contact = contact
	return h.render(c, http.StatusOK, "contact_form", d)
}

// CreateContact handles the new-contact form: POST /home/new.
func (h *PageHandler) CreateContact(c echo.Context) error {
	sess := middleware.SessionFrom(c)
	image, closeImage, err := formUpload(c)
	if err != nil {
		return redirectWithError(c, "/home/new", userMessage(err))
	}
	defer closeImage()

	if c.FormValue("name") == "" {
		return redirectWithError(c, "/home/new", "Name is required.")
	}

	created, err := h.contacts.Create(c.Request().Context(), sess.Bearer, ports.CreateContactInput{
		Name:  c.FormValue("name"),
		Email: c.FormValue("email"),
		Phone: c.FormValue("phone"),
		Age:   c.FormValue("age"),
		Image: image,
	})
	record("create", err)
	if err != nil {
		return redirectWithError(c, "/home/new", userMessage(err))
	}
	return c.Redirect(http.StatusSeeOther, middleware.HomePath+"/"+created.ID)
}

// UpdateContact handles the edit form: POST /home/:id/edit.
func (h *PageHandler) UpdateContact(c echo.Context) error {
	sess := middleware.SessionFrom(c)
	id := c.Param("id")
	editPath := middleware.HomePath + "/" + id + "/edit"

	image, closeImage, err := formUpload(c)
	if err != nil {
		return redirectWithError(c, editPath, userMessage(err))
	}
	defer closeImage()

	_, err = h.contacts.Update(c.Request().Context(), sess.Bearer, id, ports.UpdateContactInput{
		Name:  c.FormValue("name"),
		Email: c.FormValue("email"),
		Phone: c.FormValue("phone"),
		Age:   c.FormValue("age"),
		Image: image,
	})
	record("update", err)
	if err != nil {
		return redirectWithError(c, editPath, userMessage(err))
	}
	return c.Redirect(http.StatusSeeOther, middleware.HomePath+"/"+id)
}

// DeleteContact handles POST /home/:id/delete.
func (h *PageHandler) DeleteContact(c echo.Context) error {
	sess := middleware.SessionFrom(c)
	id := c.Param("id")

	err := h.contacts.Delete(c.Request().Context(), sess.Bearer, id)
	record("delete", err)
	if err != nil {
		return redirectWithError(c, middleware.HomePath+"/"+id, userMessage(err))
	}
	return c.Redirect(http.StatusSeeOther, middleware.HomePath)
}

func (h *PageHandler) Users(c echo.Context) error {
	d := h.data(c, "Members")
	members, err := h.directory.ListMembers(c.Request().Context(), d.Session.Bearer)
	if err != nil {
		return h.renderFailure(c, "users", d, err)
	}
	d.Members = members
	return h.render(c, http.StatusOK, "users", d)
}

func (h *PageHandler) UserDetail(c echo.Context) error {
	d := h.data(c, "Member")
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return h.renderFailure(c, "user_detail", d, domain.ValidationError("invalid user id"))
	}
	member, err := h.directory.GetMember(c.Request().Context(), d.Session.Bearer, id)
	if err != nil {
		return h.renderFailure(c, "user_detail", d, err)
	}
	d.Member = member
	d.Title = member.User.Username
	return h.render(c, http.StatusOK, "user_detail", d)
}

func (h *PageHandler) Debug(c echo.Context) error {
	d := h.data(c, "Diagnostics")
	report := h.diagnostics.Check(c.Request().Context())
	d.Report = &report
	return h.render(c, http.StatusOK, "debug", d)
}

// cached serves path from the view cache for the current viewer, or runs
// load, renders and stores the result. Failed loads are rendered with an
// inline error and never cached. A hit is served on the signed session alone,
// without asking the backend again; the view TTL bounds that window.
func (h *PageHandler) cached(c echo.Context, path string, load func(*pageData) (string, error), title string) error {
	ctx := c.Request().Context()
	d := h.data(c, title)
	viewer := d.Session.Subject()
	flash := d.Error != "" || d.Notice != ""

	if !flash {
		body, ok, err := h.cache.Get(ctx, path, viewer)
		if err != nil {
			h.logger.Warn().Err(err).Str("path", path).Msg("view cache read failed")
		}
		if ok {
			return c.HTMLBlob(http.StatusOK, body)
		}
	}

	page, err := load(&d)
	if err != nil {
		return h.renderFailure(c, page, d, err)
	}

	body, err := h.renderBytes(c, page, d)
	if err != nil {
		return err
	}
	if !flash {
		if err := h.cache.Set(ctx, path, viewer, body); err != nil {
			h.logger.Warn().Err(err).Str("path", path).Msg("view cache write failed")
		}
	}
	return c.HTMLBlob(http.StatusOK, body)
}

// renderFailure shows err inline on the page with a matching status.
func (h *PageHandler) renderFailure(c echo.Context, page string, d pageData, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", c.Path()).Msg("page load failed")
	}
	d.Error = userMessage(err)
	return h.render(c, status, page, d)
}

func (h *PageHandler) render(c echo.Context, status int, page string, d pageData) error {
	body, err := h.renderBytes(c, page, d)
	if err != nil {
		return err
	}
	return c.HTMLBlob(status, body)
}

func (h *PageHandler) renderBytes(c echo.Context, page string, d pageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Echo().Renderer.Render(&buf, page, d, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func statusFor(err error) int {
	var ue *domain.UpstreamError
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &ue):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// userMessage is the inline text shown for a failed page action.
func userMessage(err error) string {
	var ue *domain.UpstreamError
	switch {
	case errors.Is(err, domain.ErrValidation):
		return err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, domain.ErrForbidden):
		return "You are not allowed to do that."
	case errors.Is(err, domain.ErrNotFound):
		return "Contact not found."
	case errors.Is(err, domain.ErrDeleteNotVerified):
		return "The contact may not have been deleted. Please refresh and try again."
	case errors.As(err, &ue) && ue.Message != "":
		return ue.Message
	default:
		return "Something went wrong. Please try again."
	}
}
