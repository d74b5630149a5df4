package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/contactbook/contacts-gateway/internal/core/domain"
	"github.com/contactbook/contacts-gateway/internal/core/ports"
)

// resolveCaller turns a bearer credential into a Caller by asking the
// backend who it belongs to. Any lookup failure is Unauthorized: an
// operation never proceeds with an unknown caller.
func resolveCaller(ctx context.Context, backend ports.Backend, bearer string, log zerolog.Logger) (domain.Caller, error) {
	if bearer == "" {
		return domain.Caller{}, domain.ErrUnauthorized
	}

	user, err := backend.Me(ctx, bearer)
	if err != nil {
		log.Warn().Err(err).Msg("identity lookup failed")
		return domain.Caller{}, fmt.Errorf("%w: identity lookup failed", domain.ErrUnauthorized)
	}
	if user == nil || user.ID == 0 {
		return domain.Caller{}, fmt.Errorf("%w: backend returned no identity", domain.ErrUnauthorized)
	}

	return domain.Caller{
		ID:     user.ID,
		Name:   user.Username,
		Role:   user.Role,
		Bearer: bearer,
	}, nil
}
