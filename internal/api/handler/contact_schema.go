package handler

import (
	"bytes"
	"encoding/json"

	"github.com/contactbook/contacts-gateway/internal/core/domain"
)

// formValue accepts a JSON string or number and keeps its text. Multipart
// forms bind into it as a plain string.
type formValue string

func (v *formValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = formValue(s)
		return nil
	}
	*v = formValue(b)
	return nil
}

type createContactRequest struct {
	Name  string    `json:"name"  form:"name"  validate:"required"`
	Email string    `json:"email" form:"email" validate:"omitempty,email"`
	Phone string    `json:"phone" form:"phone"`
	Age   formValue `json:"age"   form:"age"`
}

type updateContactRequest struct {
	Name  string    `json:"name"  form:"name"`
	Email string    `json:"email" form:"email" validate:"omitempty,email"`
	Phone string    `json:"phone" form:"phone"`
	Age   formValue `json:"age"   form:"age"`
}

type mediaResponse struct {
	ID  int64  `json:"id"`
	URL string `json:"url,omitempty"`
}

type contactResponse struct {
	ID           string         `json:"id"`
	NumericID    int64          `json:"numeric_id,omitempty"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone"`
	Age          *int           `json:"age,omitempty"`
	ProfileImage *mediaResponse `json:"profile_image,omitempty"`
	OwnerID      int64          `json:"owner_id"`
}

type contactEnvelope struct {
	Data contactResponse `json:"data"`
}

type contactListEnvelope struct {
	Data []contactResponse `json:"data"`
	Meta listMeta          `json:"meta"`
}

type listMeta struct {
	Total int `json:"total"`
}

type deleteResponse struct {
	OK bool `json:"ok"`
}

func toContactResponse(c *domain.Contact) contactResponse {
	out := contactResponse{
		ID:        c.ID,
		NumericID: c.NumericID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Age:       c.Age,
		OwnerID:   c.OwnerID,
	}
	if c.ProfileImage != nil {
		out.ProfileImage = &mediaResponse{ID: c.ProfileImage.ID, URL: c.ProfileImage.URL}
	}
	return out
}
