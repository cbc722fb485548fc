package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/simnova/sharethrift/internal/core/domain"
	"github.com/simnova/sharethrift/internal/core/domain/listing"
	"github.com/simnova/sharethrift/internal/core/domain/passport"
	"github.com/simnova/sharethrift/internal/core/ports"
)

type ListingService struct {
	repo   ports.ListingRepository
	events ports.EventPublisher
	clock  domain.Clock
	logger zerolog.Logger
}

func NewListingService(repo ports.ListingRepository, events ports.EventPublisher, clock domain.Clock, logger zerolog.Logger) *ListingService {
	return &ListingService{repo: repo, events: events, clock: clock, logger: logger}
}

// Create lists a new item for the calling principal.
func (s *ListingService) Create(ctx context.Context, p passport.Passport, in ports.CreateListingInput) (ref *listing.Reference, err error) {
	ctx, span := startSpan(ctx, "ListingService.Create")
	defer func() { endSpan(span, err) }()

	l, err := listing.NewInstance(p, listing.Draft{
		SharerID:           p.PrincipalID(),
		Title:              in.Title,
		Description:        in.Description,
		Category:           in.Category,
		Location:           in.Location,
		SharingPeriodStart: in.SharingPeriodStart,
		SharingPeriodEnd:   in.SharingPeriodEnd,
		Images:             in.Images,
	}, s.clock)
	if err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	if err := s.repo.Save(ctx, l); err != nil {
		s.logger.Error().Err(err).Msg("failed to save listing")
		return nil, fmt.Errorf("create listing: %w", err)
	}
	publish(ctx, s.events, l)

	s.logger.Info().Str("listing_id", l.ID()).Str("sharer_id", l.SharerID()).Msg("listing created")
	out := l.Reference()
	return &out, nil
}

// Get returns a listing. Listings that are not published are only visible to
// principals allowed to view them.
func (s *ListingService) Get(ctx context.Context, p passport.Passport, id string) (ref *listing.Reference, err error) {
	ctx, span := startSpan(ctx, "ListingService.Get", attribute.String("listing.id", id))
	defer func() { endSpan(span, err) }()

	l, err := s.repo.Get(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	if l.State() != listing.StatePublished {
		visa := p.ForListing(passport.ListingSubject{SharerID: l.SharerID()})
		if !visa.HasCapability(passport.CanViewItemListing) {
			return nil, fmt.Errorf("get listing: %w", domain.NotFoundError("listing not found"))
		}
	}
	out := l.Reference()
	return &out, nil
}

// List searches listings. Callers only see published listings unless they
// ask for their own.
func (s *ListingService) List(ctx context.Context, p passport.Passport, filter ports.ListingFilter) (page *ports.ListingPage, err error) {
	ctx, span := startSpan(ctx, "ListingService.List")
	defer func() { endSpan(span, err) }()

	filter.Page, filter.Limit = pageBounds(filter.Page, filter.Limit)
	own := filter.SharerID != "" && filter.SharerID == p.PrincipalID()
	if !own && !p.IsSystem() {
		filter.State = string(listing.StatePublished)
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	if items == nil {
		items = []listing.Reference{}
	}

	totalPages := int(total) / filter.Limit
	if int(total)%filter.Limit != 0 {
		totalPages++
	}
	return &ports.ListingPage{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

// Update applies every non-nil field. The first rejected field aborts the
// whole update and nothing is saved.
func (s *ListingService) Update(ctx context.Context, p passport.Passport, id string, in ports.UpdateListingInput) (*listing.Reference, error) {
	return s.mutate(ctx, p, id, "update", func(l *listing.ItemListing) error {
		if in.Title != nil {
			if err := l.SetTitle(*in.Title); err != nil {
				return err
			}
		}
		if in.Description != nil {
			if err := l.SetDescription(*in.Description); err != nil {
				return err
			}
		}
		if in.Category != nil {
			if err := l.SetCategory(*in.Category); err != nil {
				return err
			}
		}
		if in.Location != nil {
			if err := l.SetLocation(*in.Location); err != nil {
				return err
			}
		}
		if in.SharingPeriodStart != nil || in.SharingPeriodEnd != nil {
			if in.SharingPeriodStart == nil || in.SharingPeriodEnd == nil {
				return domain.InvariantError("sharing period start and end are required")
			}
			if err := l.SetSharingPeriod(*in.SharingPeriodStart, *in.SharingPeriodEnd); err != nil {
				return err
			}
		}
		if in.Images != nil {
			if err := l.SetImages(in.Images); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *ListingService) Publish(ctx context.Context, p passport.Passport, id string) (*listing.Reference, error) {
	return s.mutate(ctx, p, id, "publish", (*listing.ItemListing).Publish)
}

func (s *ListingService) Pause(ctx context.Context, p passport.Passport, id string) (*listing.Reference, error) {
	return s.mutate(ctx, p, id, "pause", (*listing.ItemListing).Pause)
}

func (s *ListingService) Cancel(ctx context.Context, p passport.Passport, id string) (*listing.Reference, error) {
	return s.mutate(ctx, p, id, "cancel", (*listing.ItemListing).Cancel)
}

func (s *ListingService) Report(ctx context.Context, p passport.Passport, id string) (*listing.Reference, error) {
	return s.mutate(ctx, p, id, "report", (*listing.ItemListing).Report)
}

// mutate loads the listing with the caller's visa, runs one aggregate
// operation and persists the result.
func (s *ListingService) mutate(ctx context.Context, p passport.Passport, id, op string, apply func(*listing.ItemListing) error) (ref *listing.Reference, err error) {
	ctx, span := startSpan(ctx, "ListingService."+op, attribute.String("listing.id", id))
	defer func() { endSpan(span, err) }()

	l, err := s.repo.Get(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("%s listing: %w", op, err)
	}
	if err := apply(l); err != nil {
		s.logger.Info().Err(err).Str("listing_id", id).Str("principal_id", p.PrincipalID()).Msgf("%s rejected", op)
		return nil, fmt.Errorf("%s listing: %w", op, err)
	}
	if err := s.repo.Save(ctx, l); err != nil {
		return nil, fmt.Errorf("%s listing: %w", op, err)
	}
	publish(ctx, s.events, l)

	s.logger.Info().Str("listing_id", id).Str("state", string(l.State())).Msgf("listing %s", op)
	out := l.Reference()
	return &out, nil
}
