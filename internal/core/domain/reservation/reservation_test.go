package reservation

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

// tickingClock advances one second per call so every mutation observes a
// later instant.
func tickingClock() domain.Clock {
	now := t0
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func validDraft() Draft {
	return Draft{
		ListingID:       "listing-1",
		ListingSharerID: "sharer-1",
		ReserverID:      "reserver-1",
		PeriodStart:     t0.Add(48 * time.Hour),
		PeriodEnd:       t0.Add(72 * time.Hour),
	}
}

type onlyVisa map[passport.Capability]bool

func (v onlyVisa) HasCapability(c passport.Capability) bool { return v[c] }

type visaPassport struct {
	passport.Passport
	visa passport.Visa
}

func (p visaPassport) ForReservationRequest(passport.ReservationRequestSubject) passport.Visa {
	return p.visa
}

func build(t *testing.T, v passport.Visa, policy Policy) *ReservationRequest {
	t.Helper()
	r, err := validDraft().Build(visaPassport{Passport: passport.Guest(), visa: v}, policy, tickingClock())
	require.NoError(t, err)
	return r
}

func accepted(t *testing.T, v passport.Visa, policy Policy) *ReservationRequest {
	t.Helper()
	r := build(t, passport.AllowAll(), policy)
	require.NoError(t, r.Accept())
	again, err := FromReference(r.Reference(), visaPassport{Passport: passport.Guest(), visa: v}, policy, tickingClock())
	require.NoError(t, err)
	return again
}

func member(id string) passport.Passport {
	return passport.ForPrincipal(passport.Principal{ID: id, Permissions: passport.MemberPermissions()})
}

func TestDraftBuild_DoesNotConsultVisa(t *testing.T) {
	r, err := validDraft().Build(passport.Guest(), Policy{}, tickingClock())
	require.NoError(t, err)
	assert.Equal(t, StateRequested, r.State())

	err = r.Accept()
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))
	assert.Equal(t, StateRequested, r.State())
}

func TestNewInstance(t *testing.T) {
	t.Run("guest is denied", func(t *testing.T) {
		_, err := NewInstance(passport.Guest(), validDraft(), Policy{}, tickingClock())
		assert.True(t, errors.Is(err, domain.ErrPermissionDenied))
		assert.Equal(t, "You do not have permission to create this reservation request", err.Error())
	})

	t.Run("period in the past", func(t *testing.T) {
		d := validDraft()
		d.PeriodStart = t0.Add(-time.Hour)
		_, err := NewInstance(member("reserver-1"), d, Policy{}, tickingClock())
		assert.True(t, errors.Is(err, domain.ErrInvariantViolation))
		assert.Equal(t, "reservation period start cannot be in the past", err.Error())
	})

	t.Run("member reserves someone else's listing", func(t *testing.T) {
		r, err := NewInstance(member("reserver-1"), validDraft(), Policy{}, tickingClock())
		require.NoError(t, err)
		events := r.PendingEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventCreated, events[0].Name)
		assert.Equal(t, "listing-1", events[0].Attributes["listing_id"])
	})
}

func TestDraftBuild_Invariants(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Draft)
		msg    string
	}{
		{"missing listing", func(d *Draft) { d.ListingID = "" }, "listing is required"},
		{"missing reserver", func(d *Draft) { d.ReserverID = "" }, "reserver is required"},
		{"own listing", func(d *Draft) { d.ReserverID = d.ListingSharerID }, "reserver cannot reserve their own listing"},
		{"end before start", func(d *Draft) { d.PeriodEnd = d.PeriodStart.Add(-time.Minute) }, "reservation period start must be before end"},
		{"zero period", func(d *Draft) { d.PeriodStart = time.Time{} }, "reservation period start and end are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)
			_, err := d.Build(passport.System(), Policy{}, tickingClock())
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvariantViolation))
			assert.Equal(t, tt.msg, err.Error())
		})
	}
}

func TestReference_RoundTripsDraftFields(t *testing.T) {
	d := validDraft()
	r := build(t, passport.AllowAll(), Policy{})
	ref := r.Reference()

	assert.Equal(t, d.ListingID, ref.ListingID)
	assert.Equal(t, d.ListingSharerID, ref.ListingSharerID)
	assert.Equal(t, d.ReserverID, ref.ReserverID)
	assert.Equal(t, d.PeriodStart, ref.ReservationPeriodStart)
	assert.Equal(t, d.PeriodEnd, ref.ReservationPeriodEnd)
	assert.Equal(t, StateRequested, ref.State)
	assert.False(t, ref.CloseRequestedBySharer)
	assert.False(t, ref.CloseRequestedByReserver)

	again, err := FromReference(ref, passport.System(), Policy{}, tickingClock())
	require.NoError(t, err)
	assert.Equal(t, ref, again.Reference())
}

func TestAccept_RefreshesUpdatedAt(t *testing.T) {
	r := build(t, passport.AllowAll(), Policy{})
	before := r.UpdatedAt()

	require.NoError(t, r.Accept())
	assert.Equal(t, StateAccepted, r.State())
	assert.True(t, r.UpdatedAt().After(before))
}

func TestAccept_Twice(t *testing.T) {
	r := build(t, passport.AllowAll(), Policy{})
	require.NoError(t, r.Accept())

	err := r.Accept()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	assert.Equal(t, "Cannot accept a reservation request in state Accepted", err.Error())
	assert.Equal(t, StateAccepted, r.State())
}

func TestAccept_DeniedLeavesStateUnchanged(t *testing.T) {
	r := build(t, onlyVisa{passport.CanRejectRequest: true}, Policy{})
	before := r.UpdatedAt()

	err := r.Accept()
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))
	assert.Equal(t, "You do not have permission to accept this reservation request", err.Error())
	assert.Equal(t, StateRequested, r.State())
	assert.Equal(t, before, r.UpdatedAt())
	assert.Empty(t, r.PendingEvents())
}

func TestReject_ThenCancel(t *testing.T) {
	r := build(t, passport.AllowAll(), Policy{})
	require.NoError(t, r.Reject())
	assert.Equal(t, StateRejected, r.State())

	assert.True(t, errors.Is(r.Accept(), domain.ErrInvalidTransition))
	require.NoError(t, r.Cancel())
	assert.Equal(t, StateCancelled, r.State())
}

func TestCancel_FromAcceptedFollowsPolicy(t *testing.T) {
	strict := accepted(t, passport.AllowAll(), Policy{})
	err := strict.Cancel()
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	assert.Equal(t, "Cannot cancel a reservation request in state Accepted", err.Error())

	lenient := accepted(t, passport.AllowAll(), Policy{AllowCancelAccepted: true})
	require.NoError(t, lenient.Cancel())
	assert.Equal(t, StateCancelled, lenient.State())
}

func TestClose_RequiresCloseRequest(t *testing.T) {
	r := accepted(t, passport.AllowAll(), Policy{})

	err := r.Close()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	assert.Equal(t, StateAccepted, r.State())

	require.NoError(t, r.RequestClose(PartyReserver))
	assert.True(t, r.CloseRequestedByReserver())
	assert.False(t, r.CloseRequestedBySharer())
	assert.Equal(t, StateAccepted, r.State())

	require.NoError(t, r.Close())
	assert.Equal(t, StateClosed, r.State())
}

func TestRequestClose(t *testing.T) {
	t.Run("only from accepted", func(t *testing.T) {
		r := build(t, passport.AllowAll(), Policy{})
		err := r.RequestClose(PartySharer)
		assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	})

	t.Run("unknown party", func(t *testing.T) {
		r := accepted(t, passport.AllowAll(), Policy{})
		err := r.RequestClose(Party("bystander"))
		assert.True(t, errors.Is(err, domain.ErrInvariantViolation))
	})

	t.Run("requires close capability", func(t *testing.T) {
		r := accepted(t, onlyVisa{passport.CanAcceptRequest: true}, Policy{})
		err := r.RequestClose(PartySharer)
		assert.True(t, errors.Is(err, domain.ErrPermissionDenied))
		assert.False(t, r.CloseRequestedBySharer())
	})
}

func TestTerminalState_CheckedBeforeCapability(t *testing.T) {
	r := build(t, passport.AllowAll(), Policy{})
	require.NoError(t, r.Cancel())

	denied, err := FromReference(r.Reference(), passport.Guest(), Policy{}, tickingClock())
	require.NoError(t, err)

	for name, op := range map[string]func() error{
		"accept":       denied.Accept,
		"reject":       denied.Reject,
		"cancel":       denied.Cancel,
		"close":        denied.Close,
		"requestClose": func() error { return denied.RequestClose(PartySharer) },
	} {
		assert.True(t, errors.Is(op(), domain.ErrInvalidTransition), name)
	}
}

func TestOwnershipGrants(t *testing.T) {
	ref := build(t, passport.AllowAll(), Policy{}).Reference()

	sharer, err := FromReference(ref, member("sharer-1"), Policy{}, tickingClock())
	require.NoError(t, err)
	reserver, err := FromReference(ref, member("reserver-1"), Policy{}, tickingClock())
	require.NoError(t, err)
	stranger, err := FromReference(ref, member("someone-else"), Policy{}, tickingClock())
	require.NoError(t, err)

	assert.True(t, errors.Is(reserver.Accept(), domain.ErrPermissionDenied))
	assert.True(t, errors.Is(stranger.Reject(), domain.ErrPermissionDenied))
	require.NoError(t, sharer.Accept())

	party, ok := reserver.PartyOf("reserver-1")
	assert.True(t, ok)
	assert.Equal(t, PartyReserver, party)
	_, ok = reserver.PartyOf("someone-else")
	assert.False(t, ok)
}

func TestFromReference_RejectsUnknownState(t *testing.T) {
	ref := build(t, passport.AllowAll(), Policy{}).Reference()
	ref.State = "ReservationPeriod"
	_, err := FromReference(ref, passport.System(), Policy{}, tickingClock())
	assert.True(t, errors.Is(err, domain.ErrInvariantViolation))
}
