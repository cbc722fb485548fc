package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/simnova/sharethrift/internal/core/domain"
	"github.com/simnova/sharethrift/internal/core/domain/listing"
	"github.com/simnova/sharethrift/internal/core/domain/passport"
	"github.com/simnova/sharethrift/internal/core/domain/reservation"
	"github.com/simnova/sharethrift/internal/core/ports"
)

type ReservationService struct {
	repo     ports.ReservationRequestRepository
	listings ports.ListingRepository
	events   ports.EventPublisher
	policy   reservation.Policy
	clock    domain.Clock
	logger   zerolog.Logger
}

func NewReservationService(
	repo ports.ReservationRequestRepository,
	listings ports.ListingRepository,
	events ports.EventPublisher,
	policy reservation.Policy,
	clock domain.Clock,
	logger zerolog.Logger,
) *ReservationService {
	return &ReservationService{
		repo:     repo,
		listings: listings,
		events:   events,
		policy:   policy,
		clock:    clock,
		logger:   logger,
	}
}

// Request asks to borrow a published listing during the given period. The
// period has to fit inside the listing's sharing period.
func (s *ReservationService) Request(ctx context.Context, p passport.Passport, in ports.RequestReservationInput) (ref *reservation.Reference, err error) {
	ctx, span := startSpan(ctx, "ReservationService.Request", attribute.String("listing.id", in.ListingID))
	defer func() { endSpan(span, err) }()

	l, err := s.listings.Get(ctx, in.ListingID, p)
	if err != nil {
		return nil, fmt.Errorf("request reservation: %w", err)
	}
	if l.State() != listing.StatePublished {
		return nil, fmt.Errorf("request reservation: %w",
			domain.TransitionError(fmt.Sprintf("Cannot reserve a listing in state %s", l.State())))
	}
	sharing := l.SharingPeriod()
	if in.PeriodStart.Before(sharing.Start) || in.PeriodEnd.After(sharing.End) {
		return nil, fmt.Errorf("request reservation: %w",
			domain.InvariantError("reservation period must fall within the listing sharing period"))
	}

	r, err := reservation.NewInstance(p, reservation.Draft{
		ListingID:       l.ID(),
		ListingSharerID: l.SharerID(),
		ReserverID:      p.PrincipalID(),
		PeriodStart:     in.PeriodStart,
		PeriodEnd:       in.PeriodEnd,
	}, s.policy, s.clock)
	if err != nil {
		return nil, fmt.Errorf("request reservation: %w", err)
	}
	if err := s.repo.Save(ctx, r); err != nil {
		s.logger.Error().Err(err).Msg("failed to save reservation request")
		return nil, fmt.Errorf("request reservation: %w", err)
	}
	publish(ctx, s.events, r)

	s.logger.Info().
		Str("reservation_id", r.ID()).
		Str("listing_id", l.ID()).
		Str("reserver_id", r.ReserverID()).
		Msg("reservation requested")
	out := r.Reference()
	return &out, nil
}

func (s *ReservationService) canView(p passport.Passport, ref reservation.Reference) bool {
	return p.ForReservationRequest(passport.ReservationRequestSubject{
		ReserverID:      ref.ReserverID,
		ListingSharerID: ref.ListingSharerID,
	}).HasCapability(passport.CanViewReservationRequest)
}

// Get returns a reservation request to its parties and to principals allowed
// to view any request. Everyone else gets not found.
func (s *ReservationService) Get(ctx context.Context, p passport.Passport, id string) (ref *reservation.Reference, err error) {
	ctx, span := startSpan(ctx, "ReservationService.Get", attribute.String("reservation.id", id))
	defer func() { endSpan(span, err) }()

	r, err := s.repo.Get(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	out := r.Reference()
	if !s.canView(p, out) {
		return nil, fmt.Errorf("get reservation: %w", domain.NotFoundError("reservation request not found"))
	}
	return &out, nil
}

// ListForListing returns the requests on a listing that p may view.
func (s *ReservationService) ListForListing(ctx context.Context, p passport.Passport, listingID string) (refs []reservation.Reference, err error) {
	ctx, span := startSpan(ctx, "ReservationService.ListForListing", attribute.String("listing.id", listingID))
	defer func() { endSpan(span, err) }()

	all, err := s.repo.ListByListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	refs = make([]reservation.Reference, 0, len(all))
	for _, ref := range all {
		if s.canView(p, ref) {
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

func (s *ReservationService) Accept(ctx context.Context, p passport.Passport, id string) (*reservation.Reference, error) {
	return s.mutate(ctx, p, id, "accept", (*reservation.ReservationRequest).Accept)
}

func (s *ReservationService) Reject(ctx context.Context, p passport.Passport, id string) (*reservation.Reference, error) {
	return s.mutate(ctx, p, id, "reject", (*reservation.ReservationRequest).Reject)
}

func (s *ReservationService) Cancel(ctx context.Context, p passport.Passport, id string) (*reservation.Reference, error) {
	return s.mutate(ctx, p, id, "cancel", (*reservation.ReservationRequest).Cancel)
}

// RequestClose records the caller's side of the close request.
func (s *ReservationService) RequestClose(ctx context.Context, p passport.Passport, id string) (*reservation.Reference, error) {
	return s.mutate(ctx, p, id, "request close", func(r *reservation.ReservationRequest) error {
		party, _ := r.PartyOf(p.PrincipalID())
		return r.RequestClose(party)
	})
}

func (s *ReservationService) Close(ctx context.Context, p passport.Passport, id string) (*reservation.Reference, error) {
	return s.mutate(ctx, p, id, "close", (*reservation.ReservationRequest).Close)
}

func (s *ReservationService) mutate(ctx context.Context, p passport.Passport, id, op string, apply func(*reservation.ReservationRequest) error) (ref *reservation.Reference, err error) {
	ctx, span := startSpan(ctx, "ReservationService."+op, attribute.String("reservation.id", id))
	defer func() { endSpan(span, err) }()

	r, err := s.repo.Get(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("%s reservation: %w", op, err)
	}
	if err := apply(r); err != nil {
		s.logger.Info().Err(err).Str("reservation_id", id).Str("principal_id", p.PrincipalID()).Msgf("%s rejected", op)
		return nil, fmt.Errorf("%s reservation: %w", op, err)
	}
	if err := s.repo.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("%s reservation: %w", op, err)
	}
	publish(ctx, s.events, r)

	s.logger.Info().Str("reservation_id", id).Str("state", string(r.State())).Msgf("reservation %s", op)
	out := r.Reference()
	return &out, nil
}
