package user

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/simnova/sharethrift/internal/core/domain"
	"github.com/simnova/sharethrift/internal/core/domain/passport"
)

const maxRoleNameLength = 50

const (
	EventRoleCreated            = "role.created"
	EventRolePermissionsChanged = "role.permissions_changed"
)

// RoleDraft carries the fields of a role under construction.
type RoleDraft struct {
	Name        string
	Permissions passport.Permissions
	IsDefault   bool
}

// Role owns the permission snapshot handed to every user assigned to it.
type Role struct {
	base        domain.Base
	name        string
	permissions passport.Permissions
	isDefault   bool

	visa   passport.Visa
	clock  domain.Clock
	events domain.Events
}

// RoleReference is an immutable projection of a Role.
type RoleReference struct {
	ID            string
	Name          string
	Permissions   passport.Permissions
	IsDefault     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	SchemaVersion string
	Version       int64
}

func roleName(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", domain.InvariantError("role name is required")
	}
	if utf8.RuneCountInString(v) > maxRoleNameLength {
		return "", domain.InvariantError("role name must be at most 50 characters")
	}
	return v, nil
}

// NewRole creates a role. Only role managers may do so.
func NewRole(p passport.Passport, d RoleDraft, clock domain.Clock) (*Role, error) {
	if !p.ForUser(passport.UserSubject{}).HasCapability(passport.CanManageRoles) {
		return nil, domain.PermissionError("You do not have permission to create this role")
	}
	r, err := d.Build(p, clock)
	if err != nil {
		return nil, err
	}
	r.events.Record(EventRoleCreated, r.base.ID, r.base.CreatedAt, map[string]string{"name": r.name})
	return r, nil
}

// Build validates the draft without consulting a visa.
func (d RoleDraft) Build(p passport.Passport, clock domain.Clock) (*Role, error) {
	name, err := roleName(d.Name)
	if err != nil {
		return nil, err
	}
	return &Role{
		base:        domain.NewBase(clock.Now()),
		name:        name,
		permissions: d.Permissions,
		isDefault:   d.IsDefault,
		visa:        p.ForUser(passport.UserSubject{}),
		clock:       clock,
	}, nil
}

// RoleFromReference rehydrates a persisted role.
func RoleFromReference(ref RoleReference, p passport.Passport, clock domain.Clock) (*Role, error) {
	base := domain.Base{
		ID:            ref.ID,
		CreatedAt:     ref.CreatedAt,
		UpdatedAt:     ref.UpdatedAt,
		SchemaVersion: ref.SchemaVersion,
		Version:       ref.Version,
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	r, err := RoleDraft{Name: ref.Name, Permissions: ref.Permissions, IsDefault: ref.IsDefault}.Build(p, clock)
	if err != nil {
		return nil, err
	}
	r.base = base
	return r, nil
}

func (r *Role) guard() error {
	if !r.visa.HasCapability(passport.CanManageRoles) {
		return domain.PermissionError("You do not have permission to update this role")
	}
	return nil
}

func (r *Role) Rename(name string) error {
	if err := r.guard(); err != nil {
		return err
	}
	v, err := roleName(name)
	if err != nil {
		return err
	}
	r.name = v
	r.base.Touch(r.clock.Now())
	return nil
}

// SetPermissions replaces the snapshot. Passports already minted from the old
// snapshot keep their answers until the next request.
func (r *Role) SetPermissions(perms passport.Permissions) error {
	if err := r.guard(); err != nil {
		return err
	}
	r.permissions = perms
	r.base.Touch(r.clock.Now())
	r.events.Record(EventRolePermissionsChanged, r.base.ID, r.base.UpdatedAt, nil)
	return nil
}

func (r *Role) ID() string { return r.base.ID }
func (r *Role) Name() string { return r.name }
func (r *Role) IsDefault() bool { return r.isDefault }
func (r *Role) Version() int64 { return r.base.Version }
func (r *Role) UpdatedAt() time.Time { return r.base.UpdatedAt }

// Permissions returns a copy of the snapshot.
func (r *Role) Permissions() passport.Permissions { return r.permissions }

func (r *Role) MarkPersisted(version int64) { r.base.Version = version }
func (r *Role) PendingEvents() []domain.Event { return r.events.Pending() }
func (r *Role) ClearEvents() { r.events.Clear() }

func (r *Role) Reference() RoleReference {
	return RoleReference{
		ID:            r.base.ID,
		Name:          r.name,
		Permissions:   r.permissions,
		IsDefault:     r.isDefault,
		CreatedAt:     r.base.CreatedAt,
		UpdatedAt:     r.base.UpdatedAt,
		SchemaVersion: r.base.SchemaVersion,
		Version:       r.base.Version,
	}
}
