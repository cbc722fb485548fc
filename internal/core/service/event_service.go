package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/simnova/sharethrift/internal/core/domain"
	"github.com/simnova/sharethrift/internal/core/domain/passport"
	"github.com/simnova/sharethrift/internal/core/domain/reservation"
	"github.com/simnova/sharethrift/internal/core/ports"
)

type eventService struct {
	listings ports.ListingRepository
	dedup    ports.DedupStore
	audit    ports.EventLog
	log      zerolog.Logger
}

// NewEventService returns the subscriber that reacts to published domain
// events. dedup and audit may be nil.
func NewEventService(listings ports.ListingRepository, dedup ports.DedupStore, audit ports.EventLog, log zerolog.Logger) ports.EventService {
	return &eventService{listings: listings, dedup: dedup, audit: audit, log: log}
}

// Process handles one event at most once. Events without a reaction are
// only written to the audit log.
func (s *eventService) Process(ctx context.Context, ev domain.Event) (err error) {
	ctx, span := startSpan(ctx, "EventService.Process",
		attribute.String("event.name", ev.Name),
		attribute.String("event.aggregate_id", ev.AggregateID))
	defer func() { endSpan(span, err) }()

	if s.dedup != nil {
		isDup, err := s.dedup.IsDuplicate(ctx, ev)
		if err != nil {
			s.log.Warn().Err(err).Str("event", ev.Name).Str("aggregate_id", ev.AggregateID).Msg("dedup check failed, processing anyway")
		} else if isDup {
			s.log.Debug().Str("event", ev.Name).Str("aggregate_id", ev.AggregateID).Msg("duplicate event skipped")
			return nil
		}
	}

	switch ev.Name {
	case reservation.EventAccepted:
		err = s.recordSharing(ctx, ev)
	default:
		s.log.Debug().Str("event", ev.Name).Msg("no handler for event")
	}
	if err != nil {
		return err
	}

	if s.audit != nil {
		if auditErr := s.audit.Append(ctx, ev); auditErr != nil {
			s.log.Warn().Err(auditErr).Str("event", ev.Name).Str("aggregate_id", ev.AggregateID).Msg("failed to append event to audit log")
		}
	}

	if s.dedup != nil {
		if markErr := s.dedup.Mark(ctx, ev); markErr != nil {
			s.log.Warn().Err(markErr).Str("event", ev.Name).Str("aggregate_id", ev.AggregateID).Msg("failed to set dedup key")
		}
	}
	s.log.Info().Str("event", ev.Name).Str("aggregate_id", ev.AggregateID).Msg("event processed")
	return nil
}

// recordSharing appends an accepted reservation to the listing's sharing
// history. A concurrent writer causes a reload and another attempt.
func (s *eventService) recordSharing(ctx context.Context, ev domain.Event) error {
	listingID := ev.Attributes["listing_id"]
	if listingID == "" {
		return fmt.Errorf("process event: %w", domain.InvariantError("event is missing listing_id"))
	}

	var err error
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		err = s.appendHistory(ctx, listingID, ev.AggregateID)
		if !errors.Is(err, domain.ErrConcurrentModification) {
			break
		}
		s.log.Debug().Str("listing_id", listingID).Int("attempt", attempt).Msg("listing changed concurrently, retrying")
	}
	if err != nil {
		return fmt.Errorf("process event: %w", err)
	}
	return nil
}

func (s *eventService) appendHistory(ctx context.Context, listingID, reservationID string) error {
	l, err := s.listings.Get(ctx, listingID, passport.System())
	if err != nil {
		return err
	}
	if err := l.AddToSharingHistory(reservationID); err != nil {
		return err
	}
	return s.listings.Save(ctx, l)
}
