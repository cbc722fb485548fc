package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/simnova/sharethrift/internal/core/domain"
	"github.com/simnova/sharethrift/internal/core/domain/passport"
	"github.com/simnova/sharethrift/internal/core/domain/user"
	"github.com/simnova/sharethrift/internal/core/ports"
)

type UserService struct {
	users  ports.PersonalUserRepository
	roles  ports.RoleRepository
	creds  ports.CredentialRepository
	events ports.EventPublisher
	logger zerolog.Logger
}

func NewUserService(
	users ports.PersonalUserRepository,
	roles ports.RoleRepository,
	creds ports.CredentialRepository,
	events ports.EventPublisher,
	logger zerolog.Logger,
) *UserService {
	return &UserService{users: users, roles: roles, creds: creds, events: events, logger: logger}
}

// Get returns the user to themselves and to principals allowed to view all
// users.
func (s *UserService) Get(ctx context.Context, p passport.Passport, id string) (ref *user.Reference, err error) {
	ctx, span := startSpan(ctx, "UserService.Get", attribute.String("user.id", id))
	defer func() { endSpan(span, err) }()

	visa := p.ForUser(passport.UserSubject{UserID: id})
	if !passport.AnyOf(visa, passport.CanEditOwnAccount, passport.CanViewAllUsers) {
		return nil, fmt.Errorf("get user: %w", domain.NotFoundError("user not found"))
	}
	u, err := s.users.Get(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	out := u.Reference()
	return &out, nil
}

// UpdateProfile edits the name and email of a user. A new email is moved onto
// the login credential before the user is saved, so both stores agree on the
// address the user signs in with.
func (s *UserService) UpdateProfile(ctx context.Context, p passport.Passport, id string, in ports.UpdateProfileInput) (ref *user.Reference, err error) {
	ctx, span := startSpan(ctx, "UserService.update profile", attribute.String("user.id", id))
	defer func() { endSpan(span, err) }()

	u, err := s.users.Get(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	oldEmail := u.Email()
	if err := applyProfile(u, in); err != nil {
		s.logger.Info().Err(err).Str("user_id", id).Str("principal_id", p.PrincipalID()).Msg("update profile rejected")
		return nil, fmt.Errorf("update profile: %w", err)
	}

	emailChanged := u.Email() != oldEmail
	if emailChanged {
		if err := s.creds.UpdateEmail(ctx, id, u.Email()); err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
	}
	if err := s.users.Save(ctx, u); err != nil {
		if emailChanged {
			if rerr := s.creds.UpdateEmail(ctx, id, oldEmail); rerr != nil {
				s.logger.Error().Err(rerr).Str("user_id", id).Msg("credential email out of sync with user")
			}
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	publish(ctx, s.events, u)

	s.logger.Info().Str("user_id", id).Bool("email_changed", emailChanged).Msg("update profile")
	out := u.Reference()
	return &out, nil
}

func applyProfile(u *user.PersonalUser, in ports.UpdateProfileInput) error {
	if in.FirstName != nil {
		if err := u.SetFirstName(*in.FirstName); err != nil {
			return err
		}
	}
	if in.LastName != nil {
		if err := u.SetLastName(*in.LastName); err != nil {
			return err
		}
	}
	if in.Email != nil {
		if err := u.SetEmail(*in.Email); err != nil {
			return err
		}
	}
	return nil
}

func (s *UserService) Block(ctx context.Context, p passport.Passport, id string) (*user.Reference, error) {
	return s.mutate(ctx, p, id, "block", (*user.PersonalUser).Block)
}

func (s *UserService) Unblock(ctx context.Context, p passport.Passport, id string) (*user.Reference, error) {
	return s.mutate(ctx, p, id, "unblock", (*user.PersonalUser).Unblock)
}

// AssignRole moves the user to an existing role.
func (s *UserService) AssignRole(ctx context.Context, p passport.Passport, id, roleID string) (*user.Reference, error) {
	return s.mutate(ctx, p, id, "assign role", func(u *user.PersonalUser) error {
		if err := u.AssignRole(roleID); err != nil {
			return err
		}
		if _, err := s.roles.Get(ctx, roleID, passport.System()); err != nil {
			return err
		}
		return nil
	})
}

func (s *UserService) mutate(ctx context.Context, p passport.Passport, id, op string, apply func(*user.PersonalUser) error) (ref *user.Reference, err error) {
	ctx, span := startSpan(ctx, "UserService."+op, attribute.String("user.id", id))
	defer func() { endSpan(span, err) }()

	u, err := s.users.Get(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := apply(u); err != nil {
		s.logger.Info().Err(err).Str("user_id", id).Str("principal_id", p.PrincipalID()).Msgf("%s rejected", op)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.Save(ctx, u); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	publish(ctx, s.events, u)

	s.logger.Info().Str("user_id", id).Msg(op)
	out := u.Reference()
	return &out, nil
}
