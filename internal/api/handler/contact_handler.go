package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/contactbook/contacts-gateway/internal/api/metrics"
	"github.com/contactbook/contacts-gateway/internal/core/domain"
	"github.com/contactbook/contacts-gateway/internal/core/ports"
)

// profileImageField is the multipart field carrying the contact picture.
const profileImageField = "profile_image"

// ContactHandler handles the contact gateway routes.
type ContactHandler struct {
	service ports.ContactService
}

func NewContactHandler(service ports.ContactService) *ContactHandler {
	return &ContactHandler{service: service}
}

// Create handles POST /api/contacts.
//
// @Summary      Create a contact
// @Tags         contacts
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        name           formData  string  true   "Name"
// @Param        email          formData  string  false  "Email"
// @Param        phone          formData  string  false  "Phone"
// @Param        age            formData  string  false  "Age"
// @Param        profile_image  formData  file    false  "Profile picture"
// @Success      201            {object}  contactEnvelope
// @Failure      400            {object}  map[string]string
// @Failure      401            {object}  map[string]string
// @Failure      415            {object}  map[string]string
// @Failure      500            {object}  map[string]string
// @Router       /api/contacts [post]
func (h *ContactHandler) Create(c echo.Context) error {
	bearer, err := requireBearer(c)
	if err != nil {
		return err
	}
	if !isForm(c) {
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, "create expects multipart/form-data")
	}

	var req createContactRequest
	if err := c.Bind(&req); err != nil {
		return domain.ValidationError("invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return domain.ValidationError(err.Error())
	}

	image, closeImage, err := formUpload(c)
	if err != nil {
		return err
	}
	defer closeImage()

	contact, err := h.service.Create(c.Request().Context(), bearer, ports.CreateContactInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Age:   string(req.Age),
		Image: image,
	})
	record("create", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, contactEnvelope{Data: toContactResponse(contact)})
}

// List handles GET /api/contacts.
//
// @Summary      List contacts
// @Description  Members see their own contacts; the administrator sees all of them.
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  contactListEnvelope
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/contacts [get]
func (h *ContactHandler) List(c echo.Context) error {
	bearer, err := requireBearer(c)
	if err != nil {
		return err
	}

	contacts, err := h.service.List(c.Request().Context(), bearer)
	record("list", err)
	if err != nil {
		return err
	}

	out := make([]contactResponse, 0, len(contacts))
	for i := range contacts {
		out = append(out, toContactResponse(&contacts[i]))
	}
	return c.JSON(http.StatusOK, contactListEnvelope{Data: out, Meta: listMeta{Total: len(out)}})
}

// Get handles GET /api/contacts/:id.
//
// @Summary      Get a contact
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Contact id"
// @Success      200  {object}  contactEnvelope
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/contacts/{id} [get]
func (h *ContactHandler) Get(c echo.Context) error {
	id, bearer, err := idAndBearer(c)
	if err != nil {
		return err
	}

	contact, err := h.service.Get(c.Request().Context(), bearer, id)
	record("get", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contactEnvelope{Data: toContactResponse(contact)})
}

// Update handles PUT /api/contacts/:id. The body may be JSON or multipart;
// only non-empty fields are applied.
//
// @Summary      Update a contact
// @Tags         contacts
// @Accept       json,multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true   "Contact id"
// @Param        body  body      updateContactRequest  false  "Fields to change"
// @Success      200   {object}  contactEnvelope
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/contacts/{id} [put]
func (h *ContactHandler) Update(c echo.Context) error {
	id, bearer, err := idAndBearer(c)
	if err != nil {
		return err
	}

	var req updateContactRequest
	if err := c.Bind(&req); err != nil {
		return domain.ValidationError("invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return domain.ValidationError(err.Error())
	}

	var image *ports.Upload
	if isForm(c) {
		var closeImage func()
		image, closeImage, err = formUpload(c)
		if err != nil {
			return err
		}
		defer closeImage()
	}

	contact, err := h.service.Update(c.Request().Context(), bearer, id, ports.UpdateContactInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Age:   string(req.Age),
		Image: image,
	})
	record("update", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contactEnvelope{Data: toContactResponse(contact)})
}

// Delete handles DELETE /api/contacts/:id.
//
// @Summary      Delete a contact
// @Description  Succeeds only when a read after the delete no longer finds the contact.
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Contact id"
// @Success      200  {object}  deleteResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/contacts/{id} [delete]
func (h *ContactHandler) Delete(c echo.Context) error {
	id, bearer, err := idAndBearer(c)
	if err != nil {
		return err
	}

	err = h.service.Delete(c.Request().Context(), bearer, id)
	record("delete", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deleteResponse{OK: true})
}

func idAndBearer(c echo.Context) (string, string, error) {
	bearer, err := requireBearer(c)
	if err != nil {
		return "", "", err
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return "", "", domain.ValidationError("id required")
	}
	return id, bearer, nil
}

func isForm(c echo.Context) bool {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	return strings.HasPrefix(ct, echo.MIMEMultipartForm) || strings.HasPrefix(ct, echo.MIMEApplicationForm)
}

// formUpload opens the optional profile image. The returned func closes it.
func formUpload(c echo.Context) (*ports.Upload, func(), error) {
	noop := func() {}
	fh, err := c.FormFile(profileImageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, noop, nil
		}
		return nil, noop, domain.ValidationError(fmt.Sprintf("read %s: %v", profileImageField, err))
	}
	return openUpload(fh)
}

func openUpload(fh *multipart.FileHeader) (*ports.Upload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, fmt.Errorf("open upload: %w", err)
	}
	return &ports.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}

func record(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.ContactOperationsTotal.WithLabelValues(op, result).Inc()
}
