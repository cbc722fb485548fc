// Package reservation holds the ReservationRequest aggregate.
//
// A request starts in Requested. The listing sharer accepts or rejects it. A
// rejected request can still be cancelled. An accepted request is closed once
// at least one party has asked for it to be closed. Cancelled and Closed are
// terminal: every operation on a terminal request fails with an invalid
// transition before any capability is checked.
package reservation

import (
	"fmt"
	"time"

	"github.com/simnova/sharethrift/internal/core/domain"
	"github.com/simnova/sharethrift/internal/core/domain/passport"
)

// Event names recorded by ReservationRequest.
const (
	EventCreated        = "reservation_request.created"
	EventAccepted       = "reservation_request.accepted"
	EventRejected       = "reservation_request.rejected"
	EventCancelled      = "reservation_request.cancelled"
	EventCloseRequested = "reservation_request.close_requested"
	EventClosed         = "reservation_request.closed"
)

// Draft carries the fields of a request under construction.
type Draft struct {
	ListingID       string
	ListingSharerID string
	ReserverID      string
	PeriodStart     time.Time
	PeriodEnd       time.Time
}

// ReservationRequest is the reservation aggregate root.
type ReservationRequest struct {
	base                     domain.Base
	listingID                string
	listingSharerID          string
	reserverID               string
	period                   Period
	state                    State
	closeRequestedBySharer   bool
	closeRequestedByReserver bool

	policy Policy
	visa   passport.Visa
	clock  domain.Clock
	events domain.Events
}

// Reference is an immutable projection of a ReservationRequest.
type Reference struct {
	ID                       string
	ListingID                string
	ListingSharerID          string
	ReserverID               string
	ReservationPeriodStart   time.Time
	ReservationPeriodEnd     time.Time
	State                    State
	CloseRequestedBySharer   bool
	CloseRequestedByReserver bool
	CreatedAt                time.Time
	UpdatedAt                time.Time
	SchemaVersion            string
	Version                  int64
}

// NewInstance creates a request in state Requested. The create capability is
// checked once here, and the period must not start in the past.
func NewInstance(p passport.Passport, d Draft, policy Policy, clock domain.Clock) (*ReservationRequest, error) {
	visa := p.ForReservationRequest(passport.ReservationRequestSubject{
		ReserverID:      d.ReserverID,
		ListingSharerID: d.ListingSharerID,
	})
	if !visa.HasCapability(passport.CanCreateReservationRequest) {
		return nil, domain.PermissionError("You do not have permission to create this reservation request")
	}
	r, err := d.Build(p, policy, clock)
	if err != nil {
		return nil, err
	}
	if r.period.Start.Before(r.base.CreatedAt) {
		return nil, domain.InvariantError("reservation period start cannot be in the past")
	}
	r.events.Record(EventCreated, r.base.ID, r.base.CreatedAt, map[string]string{
		"listing_id":  r.listingID,
		"reserver_id": r.reserverID,
	})
	return r, nil
}

// Build validates the draft without consulting a visa.
func (d Draft) Build(p passport.Passport, policy Policy, clock domain.Clock) (*ReservationRequest, error) {
	if d.ListingID == "" {
		return nil, domain.InvariantError("listing is required")
	}
	if d.ListingSharerID == "" {
		return nil, domain.InvariantError("listing sharer is required")
	}
	if d.ReserverID == "" {
		return nil, domain.InvariantError("reserver is required")
	}
	if d.ReserverID == d.ListingSharerID {
		return nil, domain.InvariantError("reserver cannot reserve their own listing")
	}
	period, err := NewPeriod(d.PeriodStart, d.PeriodEnd)
	if err != nil {
		return nil, err
	}

	r := &ReservationRequest{
		base:            domain.NewBase(clock.Now()),
		listingID:       d.ListingID,
		listingSharerID: d.ListingSharerID,
		reserverID:      d.ReserverID,
		period:          period,
		state:           StateRequested,
		policy:          policy,
		clock:           clock,
	}
	r.visa = p.ForReservationRequest(r.subject())
	return r, nil
}

// FromReference rehydrates a persisted request.
func FromReference(ref Reference, p passport.Passport, policy Policy, clock domain.Clock) (*ReservationRequest, error) {
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
		return nil, domain.InvariantError(fmt.Sprintf("unknown reservation request state %q", ref.State))
	}
	r, err := Draft{
		ListingID:       ref.ListingID,
		ListingSharerID: ref.ListingSharerID,
		ReserverID:      ref.ReserverID,
		PeriodStart:     ref.ReservationPeriodStart,
		PeriodEnd:       ref.ReservationPeriodEnd,
	}.Build(p, policy, clock)
	if err != nil {
		return nil, err
	}
	r.base = base
	r.state = ref.State
	r.closeRequestedBySharer = ref.CloseRequestedBySharer
	r.closeRequestedByReserver = ref.CloseRequestedByReserver
	return r, nil
}

func (r *ReservationRequest) subject() passport.ReservationRequestSubject {
	return passport.ReservationRequestSubject{
		ReserverID:      r.reserverID,
		ListingSharerID: r.listingSharerID,
	}
}

func (r *ReservationRequest) invalid(action string) error {
	return domain.TransitionError(fmt.Sprintf("Cannot %s a reservation request in state %s", action, r.state))
}

// guard checks terminality first so a terminal request answers the same way
// whoever asks.
func (r *ReservationRequest) guard(c passport.Capability, action string) error {
	if r.state.IsTerminal() {
		return r.invalid(action)
	}
	if !r.visa.HasCapability(c) {
		return domain.PermissionError(fmt.Sprintf("You do not have permission to %s this reservation request", action))
	}
	return nil
}

func (r *ReservationRequest) moveTo(next State, event string, attrs map[string]string) {
	r.state = next
	r.base.Touch(r.clock.Now())
	r.events.Record(event, r.base.ID, r.base.UpdatedAt, attrs)
}

// Accept confirms a Requested reservation.
func (r *ReservationRequest) Accept() error {
	if err := r.guard(passport.CanAcceptRequest, "accept"); err != nil {
		return err
	}
	if r.state != StateRequested {
		return r.invalid("accept")
	}
	r.moveTo(StateAccepted, EventAccepted, map[string]string{
		"listing_id":  r.listingID,
		"reserver_id": r.reserverID,
	})
	return nil
}

// Reject declines a Requested reservation.
func (r *ReservationRequest) Reject() error {
	if err := r.guard(passport.CanRejectRequest, "reject"); err != nil {
		return err
	}
	if r.state != StateRequested {
		return r.invalid("reject")
	}
	r.moveTo(StateRejected, EventRejected, nil)
	return nil
}

// Cancel withdraws the request. Whether an Accepted request may be cancelled
// is decided by Policy.
func (r *ReservationRequest) Cancel() error {
	if err := r.guard(passport.CanCancelRequest, "cancel"); err != nil {
		return err
	}
	if !r.policy.canCancelFrom(r.state) {
		return r.invalid("cancel")
	}
	r.moveTo(StateCancelled, EventCancelled, nil)
	return nil
}

// RequestClose records that one party wants the accepted reservation closed.
// It does not change the state.
func (r *ReservationRequest) RequestClose(by Party) error {
	if err := r.guard(passport.CanCloseRequest, "close"); err != nil {
		return err
	}
	if r.state != StateAccepted {
		return r.invalid("request close of")
	}
	switch by {
	case PartySharer:
		r.closeRequestedBySharer = true
	case PartyReserver:
		r.closeRequestedByReserver = true
	default:
		return domain.InvariantError("only the sharer or the reserver can request to close a reservation request")
	}
	r.base.Touch(r.clock.Now())
	r.events.Record(EventCloseRequested, r.base.ID, r.base.UpdatedAt, map[string]string{"by": string(by)})
	return nil
}

// Close ends an accepted reservation once a close has been requested.
func (r *ReservationRequest) Close() error {
	if err := r.guard(passport.CanCloseRequest, "close"); err != nil {
		return err
	}
	if r.state != StateAccepted {
		return r.invalid("close")
	}
	if !r.closeRequestedBySharer && !r.closeRequestedByReserver {
		return domain.TransitionError("Cannot close a reservation request before either party has requested it to be closed")
	}
	r.moveTo(StateClosed, EventClosed, nil)
	return nil
}

// PartyOf reports which side principalID is on, if any.
func (r *ReservationRequest) PartyOf(principalID string) (Party, bool) {
	switch {
	case principalID == "":
		return "", false
	case principalID == r.listingSharerID:
		return PartySharer, true
	case principalID == r.reserverID:
		return PartyReserver, true
	}
	return "", false
}

func (r *ReservationRequest) ID() string { return r.base.ID }
func (r *ReservationRequest) ListingID() string { return r.listingID }
func (r *ReservationRequest) ListingSharerID() string { return r.listingSharerID }
func (r *ReservationRequest) ReserverID() string { return r.reserverID }
func (r *ReservationRequest) Period() Period { return r.period }
func (r *ReservationRequest) State() State { return r.state }
func (r *ReservationRequest) CloseRequestedBySharer() bool { return r.closeRequestedBySharer }
func (r *ReservationRequest) CloseRequestedByReserver() bool { return r.closeRequestedByReserver }
func (r *ReservationRequest) CreatedAt() time.Time { return r.base.CreatedAt }
func (r *ReservationRequest) UpdatedAt() time.Time { return r.base.UpdatedAt }
func (r *ReservationRequest) Version() int64 { return r.base.Version }

// MarkPersisted records the revision number assigned by the repository.
func (r *ReservationRequest) MarkPersisted(version int64) { r.base.Version = version }

func (r *ReservationRequest) PendingEvents() []domain.Event { return r.events.Pending() }
func (r *ReservationRequest) ClearEvents() { r.events.Clear() }

// Reference returns an immutable projection of the current state.
func (r *ReservationRequest) Reference() Reference {
	return Reference{
		ID:                       r.base.ID,
		ListingID:                r.listingID,
		ListingSharerID:          r.listingSharerID,
		ReserverID:               r.reserverID,
		ReservationPeriodStart:   r.period.Start,
		ReservationPeriodEnd:     r.period.End,
		State:                    r.state,
		CloseRequestedBySharer:   r.closeRequestedBySharer,
		CloseRequestedByReserver: r.closeRequestedByReserver,
		CreatedAt:                r.base.CreatedAt,
		UpdatedAt:                r.base.UpdatedAt,
		SchemaVersion:            r.base.SchemaVersion,
		Version:                  r.base.Version,
	}
}
