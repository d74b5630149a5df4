package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDeleteNotVerified is returned when the backend acknowledged a delete
	// but still serves the resource afterwards.
	ErrDeleteNotVerified = errors.New("deletion may not have completed: resource still present after delete")
	// ErrNoMediaID is returned when an upload succeeded but the response
	// carries no usable file id.
	ErrNoMediaID = errors.New("media response carries no id")
)

// UpstreamError is returned when the backend answers with a non-success
// status. Body is kept verbatim so it can be forwarded to the caller;
// Message is the backend's own error message when it sent one.
type UpstreamError struct {
	Op      string
	Status  int
	Body    string
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: backend returned %d", e.Op, e.Status)
}

// ValidationError wraps ErrValidation with a human readable reason.
func ValidationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// DeleteNotVerifiedError carries the verification read that still found the
// resource after a delete.
type DeleteNotVerifiedError struct {
	ID     string
	Status int
	Body   string
}

func (e *DeleteNotVerifiedError) Error() string {
	return fmt.Sprintf("contact %s: %s (verify read returned %d)", e.ID, ErrDeleteNotVerified, e.Status)
}

func (e *DeleteNotVerifiedError) Unwrap() error {
	return ErrDeleteNotVerified
}
