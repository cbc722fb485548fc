// Package user holds the PersonalUser and Role aggregates. A role carries the
// permission snapshot that the passport factory resolves for every request a
// user makes.
package user

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/simnova/sharethrift/internal/core/domain"
	"github.com/simnova/sharethrift/internal/core/domain/passport"
)

const (
	maxNameLength  = 100
	maxEmailLength = 254
)

const (
	EventCreated      = "personal_user.created"
	EventBlocked      = "personal_user.blocked"
	EventUnblocked    = "personal_user.unblocked"
	EventRoleAssigned = "personal_user.role_assigned"
)

// AccountState is the lifecycle state of a personal user account.
type AccountState string

const (
	AccountActive  AccountState = "Active"
	AccountBlocked AccountState = "Blocked"
)

var validTransitions = map[AccountState][]AccountState{
	AccountActive:  {AccountBlocked},
	AccountBlocked: {AccountActive},
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s AccountState) CanTransitionTo(next AccountState) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Draft carries the fields of a user under construction.
type Draft struct {
	Email     string
	FirstName string
	LastName  string
	RoleID    string
}

type PersonalUser struct {
	base      domain.Base
	email     string
	firstName string
	lastName  string
	roleID    string
	state     AccountState

	visa   passport.Visa
	clock  domain.Clock
	events domain.Events
}

// Reference is an immutable projection of a PersonalUser.
type Reference struct {
	ID            string
	Email         string
	FirstName     string
	LastName      string
	RoleID        string
	State         AccountState
	CreatedAt     time.Time
	UpdatedAt     time.Time
	SchemaVersion string
	Version       int64
}

func normalizeEmail(raw string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return "", domain.InvariantError("email is required")
	}
	if len(v) > maxEmailLength {
		return "", domain.InvariantError("email must be at most 254 characters")
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return "", domain.InvariantError("email is not a valid address")
	}
	return v, nil
}

func personName(field, raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", domain.InvariantError(field + " is required")
	}
	if utf8.RuneCountInString(v) > maxNameLength {
		return "", domain.InvariantError(fmt.Sprintf("%s must be at most %d characters", field, maxNameLength))
	}
	return v, nil
}

// NewInstance creates an active user. Sign-up runs under the system passport.
func NewInstance(p passport.Passport, d Draft, clock domain.Clock) (*PersonalUser, error) {
	if !p.ForUser(passport.UserSubject{}).HasCapability(passport.CanManageUsers) {
		return nil, domain.PermissionError("You do not have permission to create this user")
	}
	u, err := d.Build(p, clock)
	if err != nil {
		return nil, err
	}
	u.events.Record(EventCreated, u.base.ID, u.base.CreatedAt, map[string]string{"role_id": u.roleID})
	return u, nil
}

// Build validates the draft without consulting a visa. The visa is minted for
// the new id so the user can edit their own account later in the same request.
func (d Draft) Build(p passport.Passport, clock domain.Clock) (*PersonalUser, error) {
	email, err := normalizeEmail(d.Email)
	if err != nil {
		return nil, err
	}
	first, err := personName("first name", d.FirstName)
	if err != nil {
		return nil, err
	}
	last, err := personName("last name", d.LastName)
	if err != nil {
		return nil, err
	}
	if d.RoleID == "" {
		return nil, domain.InvariantError("role is required")
	}
	u := &PersonalUser{
		base:      domain.NewBase(clock.Now()),
		email:     email,
		firstName: first,
		lastName:  last,
		roleID:    d.RoleID,
		state:     AccountActive,
		clock:     clock,
	}
	u.visa = p.ForUser(passport.UserSubject{UserID: u.base.ID})
	return u, nil
}

// FromReference rehydrates a persisted user.
func FromReference(ref Reference, p passport.Passport, clock domain.Clock) (*PersonalUser, error) {
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
	if ref.State != AccountActive && ref.State != AccountBlocked {
		return nil, domain.InvariantError(fmt.Sprintf("unknown account state %q", ref.State))
	}
	u, err := Draft{
		Email:     ref.Email,
		FirstName: ref.FirstName,
		LastName:  ref.LastName,
		RoleID:    ref.RoleID,
	}.Build(p, clock)
	if err != nil {
		return nil, err
	}
	u.base = base
	u.state = ref.State
	u.visa = p.ForUser(passport.UserSubject{UserID: ref.ID})
	return u, nil
}

func (u *PersonalUser) edit(apply func() error) error {
	if !passport.AnyOf(u.visa, passport.CanEditOwnAccount, passport.CanManageUsers) {
		return domain.PermissionError("You do not have permission to update this account")
	}
	if err := apply(); err != nil {
		return err
	}
	u.base.Touch(u.clock.Now())
	return nil
}

func (u *PersonalUser) SetEmail(s string) error {
	return u.edit(func() error {
		v, err := normalizeEmail(s)
		if err == nil {
			u.email = v
		}
		return err
	})
}

func (u *PersonalUser) SetFirstName(s string) error {
	return u.edit(func() error {
		v, err := personName("first name", s)
		if err == nil {
			u.firstName = v
		}
		return err
	})
}

func (u *PersonalUser) SetLastName(s string) error {
	return u.edit(func() error {
		v, err := personName("last name", s)
		if err == nil {
			u.lastName = v
		}
		return err
	})
}

func (u *PersonalUser) moveTo(action string, next AccountState, event string) error {
	if !u.visa.HasCapability(passport.CanBlockUsers) {
		return domain.PermissionError(fmt.Sprintf("You do not have permission to %s this user", action))
	}
	if !u.state.CanTransitionTo(next) {
		return domain.TransitionError(fmt.Sprintf("Cannot %s a user in state %s", action, u.state))
	}
	u.state = next
	u.base.Touch(u.clock.Now())
	u.events.Record(event, u.base.ID, u.base.UpdatedAt, nil)
	return nil
}

// Block suspends the account. A blocked user is treated as a guest.
func (u *PersonalUser) Block() error {
	return u.moveTo("block", AccountBlocked, EventBlocked)
}

func (u *PersonalUser) Unblock() error {
	return u.moveTo("unblock", AccountActive, EventUnblocked)
}

// AssignRole points the user at another role.
func (u *PersonalUser) AssignRole(roleID string) error {
	if !u.visa.HasCapability(passport.CanManageUserRoles) {
		return domain.PermissionError("You do not have permission to change the role of this user")
	}
	if roleID == "" {
		return domain.InvariantError("role is required")
	}
	u.roleID = roleID
	u.base.Touch(u.clock.Now())
	u.events.Record(EventRoleAssigned, u.base.ID, u.base.UpdatedAt, map[string]string{"role_id": roleID})
	return nil
}

func (u *PersonalUser) ID() string { return u.base.ID }
func (u *PersonalUser) Email() string { return u.email }
func (u *PersonalUser) FirstName() string { return u.firstName }
func (u *PersonalUser) LastName() string { return u.lastName }
func (u *PersonalUser) RoleID() string { return u.roleID }
func (u *PersonalUser) State() AccountState { return u.state }
func (u *PersonalUser) IsBlocked() bool { return u.state == AccountBlocked }
func (u *PersonalUser) UpdatedAt() time.Time { return u.base.UpdatedAt }
func (u *PersonalUser) Version() int64 { return u.base.Version }
func (u *PersonalUser) MarkPersisted(version int64) { u.base.Version = version }
func (u *PersonalUser) PendingEvents() []domain.Event { return u.events.Pending() }
func (u *PersonalUser) ClearEvents() { u.events.Clear() }

// Reference returns an immutable projection of the current state.
func (u *PersonalUser) Reference() Reference {
	return Reference{
		ID:            u.base.ID,
		Email:         u.email,
		FirstName:     u.firstName,
		LastName:      u.lastName,
		RoleID:        u.roleID,
		State:         u.state,
		CreatedAt:     u.base.CreatedAt,
		UpdatedAt:     u.base.UpdatedAt,
		SchemaVersion: u.base.SchemaVersion,
		Version:       u.base.Version,
	}
}
