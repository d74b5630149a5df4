package domain

// MediaRef is the normalized reference to a file stored by the backend.
type MediaRef struct {
	ID  int64  `json:"id"`
	URL string `json:"url,omitempty"`
}

// Contact is a contact record as stored by the backend.
//
// ID is the identifier used on the backend's REST routes (the document id
// when the backend exposes one).
type Contact struct {
	ID           string    `json:"id"`
	NumericID    int64     `json:"numeric_id,omitempty"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Age          *int      `json:"age,omitempty"`
	ProfileImage *MediaRef `json:"profile_image,omitempty"`
	OwnerID      int64     `json:"owner_id"`
}

// ContactInput carries the fields of a contact to create.
type ContactInput struct {
	Name    string
	Email   string
	Phone   string
	Age     *int
	MediaID *int64
	OwnerID int64
}

// ContactPatch is a partial update: nil fields are left untouched.
type ContactPatch struct {
	Name    *string
	Email   *string
	Phone   *string
	Age     *int
	MediaID *int64
}

// IsEmpty reports whether the patch carries no field at all.
func (p ContactPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.Age == nil && p.MediaID == nil
}

// CanModify reports whether caller may read, update or delete contact.
func CanModify(contact *Contact, caller Caller) bool {
	if contact == nil {
		return false
	}
	return contact.OwnerID == caller.ID || caller.IsAdmin()
}
