package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/contactbook/contacts-gateway/internal/core/domain"
	"github.com/contactbook/contacts-gateway/internal/core/ports"
)

// Rendered pages affected by contact mutations.
const (
	listViewPath   = "/home"
	detailViewPath = "/home/"
)

// ContactService is the resource gateway for contacts: authenticate the
// caller, check ownership, mutate through the backend, invalidate views.
type ContactService struct {
	backend ports.Backend
	cache   ports.ViewCache
	logger  zerolog.Logger
}

func NewContactService(backend ports.Backend, cache ports.ViewCache, logger zerolog.Logger) *ContactService {
	return &ContactService{backend: backend, cache: cache, logger: logger}
}

// Create uploads the optional profile image, then creates the contact owned
// by the caller. A failed upload aborts before any record is created.
func (s *ContactService) Create(ctx context.Context, bearer string, in ports.CreateContactInput) (*domain.Contact, error) {
	caller, err := resolveCaller(ctx, s.backend, bearer, s.logger)
	if err != nil {
		return nil, err
	}

	input := domain.ContactInput{
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Age:     parseAge(in.Age),
		OwnerID: caller.ID,
	}

	if hasFile(in.Image) {
		mediaID, err := s.upload(ctx, *in.Image)
		if err != nil {
			return nil, err
		}
		input.MediaID = mediaID
	}

	created, err := s.backend.CreateContact(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}

	s.logger.Info().Str("contact_id", created.ID).Int64("owner_id", caller.ID).Msg("contact created")
	s.invalidate(ctx, listViewPath)
	return created, nil
}

// List returns every contact visible to the caller: their own, or all of
// them for the administrator.
func (s *ContactService) List(ctx context.Context, bearer string) ([]domain.Contact, error) {
	caller, err := resolveCaller(ctx, s.backend, bearer, s.logger)
	if err != nil {
		return nil, err
	}

	filter := ports.ContactFilter{}
	if !caller.IsAdmin() {
		filter.OwnerID = caller.ID
	}

	contacts, err := s.backend.ListContacts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

// Get returns a single contact the caller is allowed to see.
func (s *ContactService) Get(ctx context.Context, bearer, id string) (*domain.Contact, error) {
	if id == "" {
		return nil, domain.ValidationError("id required")
	}
	caller, err := resolveCaller(ctx, s.backend, bearer, s.logger)
	if err != nil {
		return nil, err
	}
	return s.authorize(ctx, caller, id)
}

// Update applies only the supplied fields.
func (s *ContactService) Update(ctx context.Context, bearer, id string, in ports.UpdateContactInput) (*domain.Contact, error) {
	if id == "" {
		return nil, domain.ValidationError("id required")
	}
	caller, err := resolveCaller(ctx, s.backend, bearer, s.logger)
	if err != nil {
		return nil, err
	}
	current, err := s.authorize(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	var mediaID *int64
	if hasFile(in.Image) {
		if mediaID, err = s.upload(ctx, *in.Image); err != nil {
			return nil, err
		}
	}

	patch := buildPatch(in, mediaID)
	if patch.IsEmpty() {
		return current, nil
	}

	updated, err := s.backend.UpdateContact(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update contact %s: %w", id, err)
	}

	s.logger.Info().Str("contact_id", id).Int64("caller_id", caller.ID).Msg("contact updated")
	s.invalidate(ctx, listViewPath, detailViewPath+id)
	return updated, nil
}

// Delete removes the contact and then confirms with a second read that the
// backend no longer serves it.
//
// TODO: drop the verification read once the backend's delete is confirmed
// to be immediately consistent.
func (s *ContactService) Delete(ctx context.Context, bearer, id string) error {
	if id == "" {
		return domain.ValidationError("id required")
	}
	caller, err := resolveCaller(ctx, s.backend, bearer, s.logger)
	if err != nil {
		return err
	}
	if _, err := s.authorize(ctx, caller, id); err != nil {
		return err
	}

	if err := s.backend.DeleteContact(ctx, id); err != nil {
		return fmt.Errorf("delete contact %s: %w", id, err)
	}

	if err := s.backend.VerifyDeleted(ctx, id); err != nil {
		if errors.Is(err, domain.ErrDeleteNotVerified) {
			s.logger.Warn().Str("contact_id", id).Msg("contact still present after delete")
			return err
		}
		return fmt.Errorf("verify delete of %s: %w", id, err)
	}

	s.logger.Info().Str("contact_id", id).Int64("caller_id", caller.ID).Msg("contact deleted")
	s.invalidate(ctx, listViewPath, detailViewPath+id)
	return nil
}

// upload stores the profile image and returns its media id. A successful
// upload without a usable id leaves the contact without an image.
func (s *ContactService) upload(ctx context.Context, file ports.Upload) (*int64, error) {
	ref, err := s.backend.UploadMedia(ctx, file)
	if errors.Is(err, domain.ErrNoMediaID) {
		s.logger.Warn().Str("filename", file.Filename).Msg("upload returned no media id; continuing without image")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("upload profile image: %w", err)
	}
	return &ref.ID, nil
}

// authorize fetches the contact with its owner and applies domain.CanModify.
func (s *ContactService) authorize(ctx context.Context, caller domain.Caller, id string) (*domain.Contact, error) {
	contact, err := s.backend.GetContact(ctx, id, caller.Bearer)
	if err != nil {
		s.logger.Debug().Err(err).Str("contact_id", id).Msg("ownership fetch failed")
		return nil, fmt.Errorf("contact %s: %w", id, domain.ErrNotFound)
	}
	if !domain.CanModify(contact, caller) {
		s.logger.Info().
			Str("contact_id", id).
			Int64("caller_id", caller.ID).
			Int64("owner_id", contact.OwnerID).
			Msg("ownership check denied")
		return nil, domain.ErrForbidden
	}
	return contact, nil
}

// invalidate never fails the operation; errors are only logged.
func (s *ContactService) invalidate(ctx context.Context, paths ...string) {
	if err := s.cache.Invalidate(ctx, paths...); err != nil {
		s.logger.Warn().Err(err).Strs("paths", paths).Msg("view invalidation failed")
	}
}

func buildPatch(in ports.UpdateContactInput, mediaID *int64) domain.ContactPatch {
	var p domain.ContactPatch
	if in.Name != "" {
		p.Name = &in.Name
	}
	if in.Email != "" {
		p.Email = &in.Email
	}
	if in.Phone != "" {
		p.Phone = &in.Phone
	}
	p.Age = parseAge(in.Age)
	p.MediaID = mediaID
	return p
}

// parseAge returns nil unless raw is a finite whole number.
func parseAge(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return nil
	}
	age := int(f)
	return &age
}

func hasFile(u *ports.Upload) bool {
	return u != nil && u.Body != nil && u.Size > 0
}
