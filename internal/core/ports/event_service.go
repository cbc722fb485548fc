package ports

import (
	"context"

	"github.com/simnova/sharethrift/internal/core/domain"
)

// EventPublisher hands domain events to asynchronous subscribers once the
// aggregate that raised them has been saved.
type EventPublisher interface {
	Publish(ctx context.Context, events []domain.Event)
}

// EventService reacts to a single published domain event.
type EventService interface {
	Process(ctx context.Context, event domain.Event) error
}

// DedupStore remembers which events were already handled.
type DedupStore interface {
	IsDuplicate(ctx context.Context, event domain.Event) (bool, error)
	Mark(ctx context.Context, event domain.Event) error
}

// EventLog keeps an append-only record of processed events.
type EventLog interface {
	Append(ctx context.Context, event domain.Event) error
}
