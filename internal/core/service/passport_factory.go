package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/simnova/sharethrift/internal/core/domain"
	"github.com/simnova/sharethrift/internal/core/domain/passport"
	"github.com/simnova/sharethrift/internal/core/ports"
)

// PassportFactory resolves the role snapshot of the calling user once per
// request.
type PassportFactory struct {
	users ports.PersonalUserRepository
	roles ports.RoleRepository
	log   zerolog.Logger
}

func NewPassportFactory(users ports.PersonalUserRepository, roles ports.RoleRepository, log zerolog.Logger) *PassportFactory {
	return &PassportFactory{users: users, roles: roles, log: log}
}

func (f *PassportFactory) ForIdentity(ctx context.Context, userID string) (passport.Passport, error) {
	if userID == "" {
		return passport.Guest(), nil
	}

	// identity lookups are trusted reads
	u, err := f.users.Get(ctx, userID, passport.System())
	if errors.Is(err, domain.ErrNotFound) {
		f.log.Debug().Str("user_id", userID).Msg("unknown identity, using guest passport")
		return passport.Guest(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve passport: %w", err)
	}
	if u.IsBlocked() {
		f.log.Info().Str("user_id", userID).Msg("blocked user, using guest passport")
		return passport.Guest(), nil
	}

	role, err := f.roles.Get(ctx, u.RoleID(), passport.System())
	if err != nil {
		return nil, fmt.Errorf("resolve passport: role %s: %w", u.RoleID(), err)
	}

	return passport.ForPrincipal(passport.Principal{
		ID:          u.ID(),
		Permissions: role.Permissions(),
	}), nil
}
