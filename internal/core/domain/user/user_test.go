package user

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simnova/sharethrift/internal/core/domain"
	"github.com/simnova/sharethrift/internal/core/domain/passport"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() domain.Clock {
	return func() time.Time { return t0 }
}

func validDraft() Draft {
	return Draft{Email: " Ada@Example.com ", FirstName: "Ada", LastName: "Lovelace", RoleID: "role-member"}
}

func principal(id string, perms passport.Permissions) passport.Passport {
	return passport.ForPrincipal(passport.Principal{ID: id, Permissions: perms})
}

func existing(t *testing.T) Reference {
	t.Helper()
	u, err := NewInstance(passport.System(), validDraft(), clock())
	require.NoError(t, err)
	return u.Reference()
}

func TestNewInstance(t *testing.T) {
	_, err := NewInstance(principal("u1", passport.MemberPermissions()), validDraft(), clock())
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))

	u, err := NewInstance(passport.System(), validDraft(), clock())
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email())
	assert.Equal(t, AccountActive, u.State())
	require.Len(t, u.PendingEvents(), 1)
	assert.Equal(t, EventCreated, u.PendingEvents()[0].Name)
}

func TestDraftBuild_Invariants(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Draft)
		msg    string
	}{
		{"missing email", func(d *Draft) { d.Email = "" }, "email is required"},
		{"bad email", func(d *Draft) { d.Email = "not-an-email" }, "email is not a valid address"},
		{"missing first name", func(d *Draft) { d.FirstName = " " }, "first name is required"},
		{"missing last name", func(d *Draft) { d.LastName = "" }, "last name is required"},
		{"missing role", func(d *Draft) { d.RoleID = "" }, "role is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)
			_, err := d.Build(passport.Guest(), clock())
			assert.True(t, errors.Is(err, domain.ErrInvariantViolation))
			assert.Equal(t, tt.msg, err.Error())
		})
	}
}

func TestReference_RoundTrip(t *testing.T) {
	ref := existing(t)
	u, err := FromReference(ref, passport.Guest(), clock())
	require.NoError(t, err)
	assert.Equal(t, ref, u.Reference())
}

func TestSetters_OwnAccountOrManager(t *testing.T) {
	ref := existing(t)

	self, err := FromReference(ref, principal(ref.ID, passport.MemberPermissions()), clock())
	require.NoError(t, err)
	require.NoError(t, self.SetFirstName("Augusta"))
	assert.Equal(t, "Augusta", self.FirstName())

	other, err := FromReference(ref, principal("someone", passport.MemberPermissions()), clock())
	require.NoError(t, err)
	err = other.SetLastName("King")
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))
	assert.Equal(t, "You do not have permission to update this account", err.Error())

	admin, err := FromReference(ref, principal("admin", passport.AdminPermissions()), clock())
	require.NoError(t, err)
	require.NoError(t, admin.SetEmail("ada@lovelace.dev"))
	assert.True(t, errors.Is(admin.SetEmail("bad"), domain.ErrInvariantViolation))
	assert.Equal(t, "ada@lovelace.dev", admin.Email())
}

func TestBlockUnblock(t *testing.T) {
	ref := existing(t)

	self, err := FromReference(ref, principal(ref.ID, passport.MemberPermissions()), clock())
	require.NoError(t, err)
	assert.True(t, errors.Is(self.Block(), domain.ErrPermissionDenied))

	admin, err := FromReference(ref, principal("admin", passport.AdminPermissions()), clock())
	require.NoError(t, err)
	require.NoError(t, admin.Block())
	assert.True(t, admin.IsBlocked())

	err = admin.Block()
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	assert.Equal(t, "Cannot block a user in state Blocked", err.Error())

	require.NoError(t, admin.Unblock())
	assert.Equal(t, AccountActive, admin.State())
}

func TestAssignRole(t *testing.T) {
	ref := existing(t)

	self, err := FromReference(ref, principal(ref.ID, passport.MemberPermissions()), clock())
	require.NoError(t, err)
	err = self.AssignRole("role-admin")
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))
	assert.Equal(t, "role-member", self.RoleID())

	admin, err := FromReference(ref, principal("admin", passport.AdminPermissions()), clock())
	require.NoError(t, err)
	require.NoError(t, admin.AssignRole("role-admin"))
	assert.Equal(t, "role-admin", admin.RoleID())
	assert.True(t, errors.Is(admin.AssignRole(""), domain.ErrInvariantViolation))
}

func TestRole(t *testing.T) {
	_, err := NewRole(principal("u1", passport.MemberPermissions()), RoleDraft{Name: "Moderator"}, clock())
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))

	_, err = NewRole(passport.System(), RoleDraft{Name: "  "}, clock())
	assert.True(t, errors.Is(err, domain.ErrInvariantViolation))

	r, err := NewRole(passport.System(), RoleDraft{Name: "Member", Permissions: passport.MemberPermissions(), IsDefault: true}, clock())
	require.NoError(t, err)
	assert.True(t, r.IsDefault())

	snapshot := r.Permissions()
	snapshot.Listing.CanCreateItemListing = false
	assert.True(t, r.Permissions().Listing.CanCreateItemListing)

	require.NoError(t, r.SetPermissions(passport.AdminPermissions()))
	require.NoError(t, r.Rename("Everyone"))
	assert.Equal(t, "Everyone", r.Name())
	assert.True(t, r.Permissions().User.CanManageRoles)

	guestView, err := RoleFromReference(r.Reference(), passport.Guest(), clock())
	require.NoError(t, err)
	err = guestView.Rename("Nobody")
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))
	assert.Equal(t, "You do not have permission to update this role", err.Error())
	assert.Equal(t, r.Reference(), guestView.Reference())
}
