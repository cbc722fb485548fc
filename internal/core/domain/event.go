package domain

import "time"

// Event is a fact emitted by an aggregate after a successful mutation.
type Event struct {
	Name        string
	AggregateID string
	OccurredAt  time.Time
	Attributes  map[string]string // optional
}

// Events buffers events until the caller has persisted the aggregate.
type Events struct {
	pending []Event
}

// Record appends an event.
func (e *Events) Record(name, aggregateID string, at time.Time, attrs map[string]string) {
	e.pending = append(e.pending, Event{
		Name:        name,
		AggregateID: aggregateID,
		OccurredAt:  at,
		Attributes:  attrs,
	})
}

// Pending returns a copy of the buffered events.
func (e *Events) Pending() []Event {
	out := make([]Event, len(e.pending))
	copy(out, e.pending)
	return out
}

// Clear drops buffered events once they have been published.
func (e *Events) Clear() {
	e.pending = nil
}
