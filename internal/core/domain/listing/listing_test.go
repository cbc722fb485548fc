package listing

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simnova/sharethrift/internal/core/domain"
	"github.com/simnova/sharethrift/internal/core/domain/passport"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() domain.Clock {
	return func() time.Time { return t0 }
}

func validDraft() Draft {
	return Draft{
		SharerID:           "sharer-1",
		Title:              "Cordless drill",
		Description:        "18V drill with two batteries",
		Category:           "Tools & Equipment",
		Location:           "Philadelphia, PA",
		SharingPeriodStart: t0.Add(24 * time.Hour),
		SharingPeriodEnd:   t0.Add(30 * 24 * time.Hour),
		Images:             []string{"https://img.example.com/drill.png"},
	}
}

// onlyVisa grants the listed capabilities on listings and nothing else.
type onlyVisa map[passport.Capability]bool

func (v onlyVisa) HasCapability(c passport.Capability) bool { return v[c] }

type visaPassport struct {
	passport.Passport
	visa passport.Visa
}

func (p visaPassport) ForListing(passport.ListingSubject) passport.Visa { return p.visa }

func withVisa(v passport.Visa) passport.Passport {
	return visaPassport{Passport: passport.Guest(), visa: v}
}

func newListing(t *testing.T, v passport.Visa) *ItemListing {
	t.Helper()
	l, err := validDraft().Build(withVisa(v), fixedClock())
	require.NoError(t, err)
	return l
}

func TestDraftBuild_DoesNotConsultVisa(t *testing.T) {
	l, err := validDraft().Build(passport.Guest(), fixedClock())
	require.NoError(t, err)
	assert.Equal(t, StatePublished, l.State())

	err = l.SetTitle("New title")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))
	assert.Equal(t, "Cordless drill", l.Title())
}

func TestNewInstance_RequiresCreateCapability(t *testing.T) {
	t.Run("guest is denied", func(t *testing.T) {
		_, err := NewInstance(passport.Guest(), validDraft(), fixedClock())
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrPermissionDenied))
		assert.Equal(t, "You do not have permission to create this listing", err.Error())
	})

	t.Run("member may create and an event is recorded", func(t *testing.T) {
		p := passport.ForPrincipal(passport.Principal{ID: "sharer-1", Permissions: passport.MemberPermissions()})
		l, err := NewInstance(p, validDraft(), fixedClock())
		require.NoError(t, err)
		events := l.PendingEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventCreated, events[0].Name)
		assert.Equal(t, l.ID(), events[0].AggregateID)
	})
}

func TestReference_RoundTripsDraftFields(t *testing.T) {
	d := validDraft()
	l := newListing(t, passport.AllowAll())
	ref := l.Reference()

	assert.NotEmpty(t, ref.ID)
	assert.Equal(t, d.SharerID, ref.SharerID)
	assert.Equal(t, d.Title, ref.Title)
	assert.Equal(t, d.Description, ref.Description)
	assert.Equal(t, d.Category, ref.Category)
	assert.Equal(t, d.Location, ref.Location)
	assert.Equal(t, d.SharingPeriodStart, ref.SharingPeriodStart)
	assert.Equal(t, d.SharingPeriodEnd, ref.SharingPeriodEnd)
	assert.Equal(t, d.Images, ref.Images)
	assert.Equal(t, StatePublished, ref.State)
	assert.Equal(t, t0, ref.CreatedAt)
	assert.Equal(t, t0, ref.UpdatedAt)
	assert.Equal(t, domain.SchemaVersion, ref.SchemaVersion)
	assert.Empty(t, ref.SharingHistory)

	again, err := FromReference(ref, passport.System(), fixedClock())
	require.NoError(t, err)
	assert.Equal(t, ref, again.Reference())
}

func TestReference_ReturnsNormalizedValues(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	d := validDraft()
	d.Title = "  Drill "
	d.Description = "\t18V drill\n"
	d.Category = " Tools"
	d.Location = "Philadelphia, PA  "
	d.Images = []string{" https://img.example.com/drill.png "}
	d.SharingPeriodStart = time.Date(2026, 3, 2, 7, 0, 0, 0, est)

	l, err := d.Build(passport.System(), fixedClock())
	require.NoError(t, err)
	ref := l.Reference()

	assert.Equal(t, "Drill", ref.Title)
	assert.Equal(t, "18V drill", ref.Description)
	assert.Equal(t, "Tools", ref.Category)
	assert.Equal(t, "Philadelphia, PA", ref.Location)
	assert.Equal(t, []string{"https://img.example.com/drill.png"}, ref.Images)
	assert.Equal(t, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC), ref.SharingPeriodStart)

	again, err := FromReference(ref, passport.System(), fixedClock())
	require.NoError(t, err)
	assert.Equal(t, ref, again.Reference(), "normalized values are a fixed point")
}

func TestReference_IsACopy(t *testing.T) {
	l := newListing(t, passport.AllowAll())
	ref := l.Reference()
	ref.Images[0] = "mutated"
	assert.Equal(t, "https://img.example.com/drill.png", l.Images()[0])
}

func TestDraftBuild_Invariants(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Draft)
		msg    string
	}{
		{"missing sharer", func(d *Draft) { d.SharerID = "" }, "sharer is required"},
		{"blank title", func(d *Draft) { d.Title = "   " }, "title is required"},
		{"long title", func(d *Draft) { d.Title = strings.Repeat("x", 201) }, "title must be at most 200 characters"},
		{"period reversed", func(d *Draft) { d.SharingPeriodEnd = d.SharingPeriodStart.Add(-time.Hour) }, "sharing period start must be before end"},
		{"empty image", func(d *Draft) { d.Images = []string{""} }, "image url cannot be empty"},
		{"too many images", func(d *Draft) { d.Images = make([]string, 11) }, "a listing can have at most 10 images"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)
			_, err := d.Build(passport.System(), fixedClock())
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvariantViolation))
			assert.Equal(t, tt.msg, err.Error())
		})
	}
}

func TestPause_DeniedLeavesStatePublished(t *testing.T) {
	l := newListing(t, onlyVisa{passport.CanPublishItemListing: true})
	before := l.UpdatedAt()

	err := l.Pause()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))
	assert.Equal(t, "You do not have permission to pause this listing", err.Error())
	assert.Equal(t, StatePublished, l.State())
	assert.Equal(t, before, l.UpdatedAt())
}

func TestLifecycle_PausePublishCancel(t *testing.T) {
	l := newListing(t, passport.AllowAll())

	require.NoError(t, l.Pause())
	assert.Equal(t, StatePaused, l.State())

	err := l.Pause()
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	assert.Equal(t, "Cannot pause a listing in state Paused", err.Error())

	require.NoError(t, l.Publish())
	assert.Equal(t, StatePublished, l.State())

	err = l.Publish()
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	require.NoError(t, l.Cancel())
	assert.Equal(t, StateCancelled, l.State())
	assert.True(t, l.UpdatedAt().After(t0))
}

func TestCancelled_IsTerminalBeforeCapability(t *testing.T) {
	l := newListing(t, passport.AllowAll())
	require.NoError(t, l.Cancel())

	ref := l.Reference()
	denied, err := FromReference(ref, passport.Guest(), fixedClock())
	require.NoError(t, err)

	for name, op := range map[string]func() error{
		"publish": denied.Publish,
		"pause":   denied.Pause,
		"cancel":  denied.Cancel,
		"update":  func() error { return denied.SetTitle("x") },
	} {
		err := op()
		assert.True(t, errors.Is(err, domain.ErrInvalidTransition), name)
	}
}

func TestSetters_RefreshUpdatedAt(t *testing.T) {
	l := newListing(t, onlyVisa{passport.CanUpdateItemListing: true})
	before := l.UpdatedAt()

	require.NoError(t, l.SetTitle("Impact driver"))
	require.NoError(t, l.SetDescription("Compact impact driver"))
	require.NoError(t, l.SetCategory("Tools"))
	require.NoError(t, l.SetLocation("Camden, NJ"))
	require.NoError(t, l.SetSharingPeriod(t0, t0.Add(time.Hour)))
	require.NoError(t, l.SetImages(nil))

	assert.Equal(t, "Impact driver", l.Title())
	assert.Empty(t, l.Images())
	assert.True(t, l.UpdatedAt().After(before))
}

func TestSetters_InvalidValueLeavesFieldUnchanged(t *testing.T) {
	l := newListing(t, passport.AllowAll())
	before := l.UpdatedAt()

	err := l.SetTitle("")
	assert.True(t, errors.Is(err, domain.ErrInvariantViolation))
	assert.Equal(t, "Cordless drill", l.Title())
	assert.Equal(t, before, l.UpdatedAt())
}

func TestAddToSharingHistory_AppendOnly(t *testing.T) {
	l := newListing(t, passport.AllowAll())

	require.NoError(t, l.AddToSharingHistory("rr-1"))
	require.NoError(t, l.AddToSharingHistory("rr-2"))
	require.NoError(t, l.AddToSharingHistory("rr-1"))
	assert.Equal(t, []string{"rr-1", "rr-2"}, l.SharingHistory())

	err := l.AddToSharingHistory("")
	assert.True(t, errors.Is(err, domain.ErrInvariantViolation))
}

func TestReport_OwnerCannotReport(t *testing.T) {
	owner := passport.ForPrincipal(passport.Principal{ID: "sharer-1", Permissions: passport.MemberPermissions()})
	other := passport.ForPrincipal(passport.Principal{ID: "someone", Permissions: passport.MemberPermissions()})

	l, err := validDraft().Build(owner, fixedClock())
	require.NoError(t, err)
	assert.True(t, errors.Is(l.Report(), domain.ErrPermissionDenied))

	l2, err := FromReference(l.Reference(), other, fixedClock())
	require.NoError(t, err)
	require.NoError(t, l2.Report())
	assert.Equal(t, 1, l2.ReportCount())
}

func TestFromReference_RejectsUnknownState(t *testing.T) {
	ref := newListing(t, passport.AllowAll()).Reference()
	ref.State = "Drafted"
	_, err := FromReference(ref, passport.System(), fixedClock())
	assert.True(t, errors.Is(err, domain.ErrInvariantViolation))
}
