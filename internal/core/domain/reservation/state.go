package reservation

import (
	"time"

	"github.com/simnova/sharethrift/internal/core/domain"
)

// State is the lifecycle state of a reservation request.
type State string

const (
	StateRequested State = "Requested"
	StateAccepted  State = "Accepted"
	StateRejected  State = "Rejected"
	StateCancelled State = "Cancelled"
	StateClosed    State = "Closed"
)

// validTransitions defines the allowed state machine transitions. Cancelling
// an accepted request is added by Policy.
var validTransitions = map[State][]State{
	StateRequested: {StateAccepted, StateRejected, StateCancelled},
	StateRejected:  {StateCancelled},
	StateAccepted:  {StateClosed},
}

// CanTransitionTo reports whether a transition from s to next is valid under
// the default policy.
func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s is absorbing.
func (s State) IsTerminal() bool {
	return s == StateCancelled || s == StateClosed
}

// IsValid reports whether s is one of the enumerated states.
func (s State) IsValid() bool {
	switch s {
	case StateRequested, StateAccepted, StateRejected, StateCancelled, StateClosed:
		return true
	}
	return false
}

// Policy holds the business rules that differ between deployments.
type Policy struct {
	// AllowCancelAccepted lets the reserver cancel after the sharer accepted.
	AllowCancelAccepted bool
}

func (p Policy) canCancelFrom(s State) bool {
	if s == StateAccepted {
		return p.AllowCancelAccepted
	}
	return s.CanTransitionTo(StateCancelled)
}

// Party identifies which side of the reservation is acting.
type Party string

const (
	PartySharer   Party = "sharer"
	PartyReserver Party = "reserver"
)

// Period is the time window the reserver wants the item for.
type Period struct {
	Start time.Time
	End   time.Time
}

// NewPeriod validates ordering only; the not-in-the-past rule applies at
// creation time and is checked by NewInstance.
func NewPeriod(start, end time.Time) (Period, error) {
	if start.IsZero() || end.IsZero() {
		return Period{}, domain.InvariantError("reservation period start and end are required")
	}
	if !start.Before(end) {
		return Period{}, domain.InvariantError("reservation period start must be before end")
	}
	return Period{Start: start.UTC(), End: end.UTC()}, nil
}
