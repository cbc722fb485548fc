// Package listing holds the ItemListing aggregate: an item a sharer offers to
// lend, with a Published ⇄ Paused → Cancelled lifecycle.
package listing

import (
	"fmt"
	"slices"
	"time"

	"github.com/simnova/sharethrift/internal/core/domain"
	"github.com/simnova/sharethrift/internal/core/domain/passport"
)

// Event names recorded by ItemListing.
const (
	EventCreated   = "item_listing.created"
	EventPublished = "item_listing.published"
	EventPaused    = "item_listing.paused"
	EventCancelled = "item_listing.cancelled"
	EventReported  = "item_listing.reported"
)

// Draft carries the fields of a listing under construction. Building a draft
// never consults a visa. Text fields and image URLs are stored with
// surrounding whitespace trimmed and period bounds in UTC; Reference returns
// those normalized values.
type Draft struct {
	SharerID           string
	Title              string
	Description        string
	Category           string
	Location           string
	SharingPeriodStart time.Time
	SharingPeriodEnd   time.Time
	Images             []string
}

// ItemListing is the listing aggregate root. All mutation goes through its
// methods, each of which is gated by the visa minted for it.
type ItemListing struct {
	base           domain.Base
	sharerID       string
	title          Title
	description    Description
	category       Category
	location       Location
	period         SharingPeriod
	state          State
	reportCount    int
	sharingHistory []string
	images         Images

	visa   passport.Visa
	clock  domain.Clock
	events domain.Events
}

// Reference is an immutable projection of an ItemListing.
type Reference struct {
	ID                 string
	SharerID           string
	Title              string
	Description        string
	Category           string
	Location           string
	SharingPeriodStart time.Time
	SharingPeriodEnd   time.Time
	State              State
	ReportCount        int
	SharingHistory     []string
	Images             []string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	SchemaVersion      string
	Version            int64
}

// NewInstance creates a listing after checking the create capability once.
func NewInstance(p passport.Passport, d Draft, clock domain.Clock) (*ItemListing, error) {
	visa := p.ForListing(passport.ListingSubject{SharerID: d.SharerID})
	if !visa.HasCapability(passport.CanCreateItemListing) {
		return nil, domain.PermissionError("You do not have permission to create this listing")
	}
	l, err := d.Build(p, clock)
	if err != nil {
		return nil, err
	}
	l.events.Record(EventCreated, l.base.ID, l.base.CreatedAt, map[string]string{"sharer_id": l.sharerID})
	return l, nil
}

// Build validates the draft and returns a listing in state Published bound to
// a visa from p.
func (d Draft) Build(p passport.Passport, clock domain.Clock) (*ItemListing, error) {
	if d.SharerID == "" {
		return nil, domain.InvariantError("sharer is required")
	}
	title, err := NewTitle(d.Title)
	if err != nil {
		return nil, err
	}
	description, err := NewDescription(d.Description)
	if err != nil {
		return nil, err
	}
	category, err := NewCategory(d.Category)
	if err != nil {
		return nil, err
	}
	location, err := NewLocation(d.Location)
	if err != nil {
		return nil, err
	}
	period, err := NewSharingPeriod(d.SharingPeriodStart, d.SharingPeriodEnd)
	if err != nil {
		return nil, err
	}
	images, err := NewImages(d.Images)
	if err != nil {
		return nil, err
	}

	l := &ItemListing{
		base:           domain.NewBase(clock.Now()),
		sharerID:       d.SharerID,
		title:          title,
		description:    description,
		category:       category,
		location:       location,
		period:         period,
		state:          StatePublished,
		sharingHistory: []string{},
		images:         images,
		clock:          clock,
	}
	l.visa = p.ForListing(l.subject())
	return l, nil
}

// FromReference rehydrates a persisted listing.
func FromReference(ref Reference, p passport.Passport, clock domain.Clock) (*ItemListing, error) {
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
	if !ref.State.IsValid() {
		return nil, domain.InvariantError(fmt.Sprintf("unknown listing state %q", ref.State))
	}
	l, err := Draft{
		SharerID:           ref.SharerID,
		Title:              ref.Title,
		Description:        ref.Description,
		Category:           ref.Category,
		Location:           ref.Location,
		SharingPeriodStart: ref.SharingPeriodStart,
		SharingPeriodEnd:   ref.SharingPeriodEnd,
		Images:             ref.Images,
	}.Build(p, clock)
	if err != nil {
		return nil, err
	}
	l.base = base
	l.state = ref.State
	l.reportCount = ref.ReportCount
	l.sharingHistory = slices.Clone(ref.SharingHistory)
	if l.sharingHistory == nil {
		l.sharingHistory = []string{}
	}
	return l, nil
}

func (l *ItemListing) subject() passport.ListingSubject {
	return passport.ListingSubject{SharerID: l.sharerID}
}

// guard checks terminality first, then the capability.
func (l *ItemListing) guard(c passport.Capability, action string) error {
	if l.state.IsTerminal() {
		return domain.TransitionError(fmt.Sprintf("Cannot %s a listing in state %s", action, l.state))
	}
	if !l.visa.HasCapability(c) {
		return domain.PermissionError(fmt.Sprintf("You do not have permission to %s this listing", action))
	}
	return nil
}

func (l *ItemListing) transition(c passport.Capability, action string, next State, event string) error {
	if err := l.guard(c, action); err != nil {
		return err
	}
	if !l.state.CanTransitionTo(next) {
		return domain.TransitionError(fmt.Sprintf("Cannot %s a listing in state %s", action, l.state))
	}
	l.state = next
	l.base.Touch(l.clock.Now())
	l.events.Record(event, l.base.ID, l.base.UpdatedAt, nil)
	return nil
}

// Publish moves a paused listing back to Published.
func (l *ItemListing) Publish() error {
	return l.transition(passport.CanPublishItemListing, "publish", StatePublished, EventPublished)
}

// Pause hides a published listing without cancelling it.
func (l *ItemListing) Pause() error {
	return l.transition(passport.CanUnpublishItemListing, "pause", StatePaused, EventPaused)
}

// Cancel withdraws the listing for good.
func (l *ItemListing) Cancel() error {
	return l.transition(passport.CanDeleteItemListing, "cancel", StateCancelled, EventCancelled)
}

func (l *ItemListing) update(apply func() error) error {
	if err := l.guard(passport.CanUpdateItemListing, "update"); err != nil {
		return err
	}
	if err := apply(); err != nil {
		return err
	}
	l.base.Touch(l.clock.Now())
	return nil
}

func (l *ItemListing) SetTitle(s string) error {
	return l.update(func() error {
		v, err := NewTitle(s)
		if err == nil {
			l.title = v
		}
		return err
	})
}

func (l *ItemListing) SetDescription(s string) error {
	return l.update(func() error {
		v, err := NewDescription(s)
		if err == nil {
			l.description = v
		}
		return err
	})
}

func (l *ItemListing) SetCategory(s string) error {
	return l.update(func() error {
		v, err := NewCategory(s)
		if err == nil {
			l.category = v
		}
		return err
	})
}

func (l *ItemListing) SetLocation(s string) error {
	return l.update(func() error {
		v, err := NewLocation(s)
		if err == nil {
			l.location = v
		}
		return err
	})
}

func (l *ItemListing) SetSharingPeriod(start, end time.Time) error {
	return l.update(func() error {
		v, err := NewSharingPeriod(start, end)
		if err == nil {
			l.period = v
		}
		return err
	})
}

func (l *ItemListing) SetImages(urls []string) error {
	return l.update(func() error {
		v, err := NewImages(urls)
		if err == nil {
			l.images = v
		}
		return err
	})
}

// Report increments the moderation report count.
func (l *ItemListing) Report() error {
	if err := l.guard(passport.CanReportItemListing, "report"); err != nil {
		return err
	}
	l.reportCount++
	l.base.Touch(l.clock.Now())
	l.events.Record(EventReported, l.base.ID, l.base.UpdatedAt, map[string]string{
		"report_count": fmt.Sprint(l.reportCount),
	})
	return nil
}

// AddToSharingHistory appends a reservation id. The history is append-only
// and a repeated id is a no-op. Cancelled listings still accept history so
// late reservation events are not lost.
func (l *ItemListing) AddToSharingHistory(reservationID string) error {
	if !l.visa.HasCapability(passport.CanUpdateItemListing) {
		return domain.PermissionError("You do not have permission to update this listing")
	}
	if reservationID == "" {
		return domain.InvariantError("reservation id is required")
	}
	if slices.Contains(l.sharingHistory, reservationID) {
		return nil
	}
	l.sharingHistory = append(l.sharingHistory, reservationID)
	l.base.Touch(l.clock.Now())
	return nil
}

func (l *ItemListing) ID() string { return l.base.ID }
func (l *ItemListing) SharerID() string { return l.sharerID }
func (l *ItemListing) Title() string { return string(l.title) }
func (l *ItemListing) Description() string { return string(l.description) }
func (l *ItemListing) Category() string { return string(l.category) }
func (l *ItemListing) Location() string { return string(l.location) }
func (l *ItemListing) SharingPeriod() SharingPeriod { return l.period }
func (l *ItemListing) State() State { return l.state }
func (l *ItemListing) ReportCount() int { return l.reportCount }
func (l *ItemListing) SharingHistory() []string { return slices.Clone(l.sharingHistory) }
func (l *ItemListing) Images() []string { return slices.Clone([]string(l.images)) }
func (l *ItemListing) CreatedAt() time.Time { return l.base.CreatedAt }
func (l *ItemListing) UpdatedAt() time.Time { return l.base.UpdatedAt }
func (l *ItemListing) Version() int64 { return l.base.Version }

// MarkPersisted records the revision number assigned by the repository.
func (l *ItemListing) MarkPersisted(version int64) { l.base.Version = version }

// PendingEvents returns events recorded since the last ClearEvents.
func (l *ItemListing) PendingEvents() []domain.Event { return l.events.Pending() }

// ClearEvents drops recorded events after they were published.
func (l *ItemListing) ClearEvents() { l.events.Clear() }

// Reference returns an immutable projection of the current state.
func (l *ItemListing) Reference() Reference {
	return Reference{
		ID:                 l.base.ID,
		SharerID:           l.sharerID,
		Title:              string(l.title),
		Description:        string(l.description),
		Category:           string(l.category),
		Location:           string(l.location),
		SharingPeriodStart: l.period.Start,
		SharingPeriodEnd:   l.period.End,
		State:              l.state,
		ReportCount:        l.reportCount,
		SharingHistory:     slices.Clone(l.sharingHistory),
		Images:             slices.Clone([]string(l.images)),
		CreatedAt:          l.base.CreatedAt,
		UpdatedAt:          l.base.UpdatedAt,
		SchemaVersion:      l.base.SchemaVersion,
		Version:            l.base.Version,
	}
}
