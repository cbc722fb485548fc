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

type RoleService struct {
	repo   ports.RoleRepository
	events ports.EventPublisher
	clock  domain.Clock
	logger zerolog.Logger
}

func NewRoleService(repo ports.RoleRepository, events ports.EventPublisher, clock domain.Clock, logger zerolog.Logger) *RoleService {
	return &RoleService{repo: repo, events: events, clock: clock, logger: logger}
}

func (s *RoleService) Create(ctx context.Context, p passport.Passport, in ports.CreateRoleInput) (ref *user.RoleReference, err error) {
	ctx, span := startSpan(ctx, "RoleService.Create")
	defer func() { endSpan(span, err) }()

	r, err := user.NewRole(p, user.RoleDraft{Name: in.Name, Permissions: in.Permissions, IsDefault: in.IsDefault}, s.clock)
	if err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}
	if err := s.repo.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}
	publish(ctx, s.events, r)

	s.logger.Info().Str("role_id", r.ID()).Str("name", r.Name()).Msg("role created")
	out := r.Reference()
	return &out, nil
}

// Get is limited to principals that manage roles or assign them.
func (s *RoleService) Get(ctx context.Context, p passport.Passport, id string) (ref *user.RoleReference, err error) {
	ctx, span := startSpan(ctx, "RoleService.Get", attribute.String("role.id", id))
	defer func() { endSpan(span, err) }()

	if !passport.AnyOf(p.ForUser(passport.UserSubject{}), passport.CanManageRoles, passport.CanManageUserRoles) {
		return nil, fmt.Errorf("get role: %w", domain.PermissionError("You do not have permission to view this role"))
	}
	r, err := s.repo.Get(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("get role: %w", err)
	}
	out := r.Reference()
	return &out, nil
}

func (s *RoleService) Update(ctx context.Context, p passport.Passport, id string, in ports.UpdateRoleInput) (ref *user.RoleReference, err error) {
	ctx, span := startSpan(ctx, "RoleService.Update", attribute.String("role.id", id))
	defer func() { endSpan(span, err) }()

	r, err := s.repo.Get(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	if in.Name != nil {
		if err := r.Rename(*in.Name); err != nil {
			return nil, fmt.Errorf("update role: %w", err)
		}
	}
	if in.Permissions != nil {
		if err := r.SetPermissions(*in.Permissions); err != nil {
			return nil, fmt.Errorf("update role: %w", err)
		}
	}
	if err := s.repo.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	publish(ctx, s.events, r)

	s.logger.Info().Str("role_id", id).Msg("role updated")
	out := r.Reference()
	return &out, nil
}
