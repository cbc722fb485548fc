package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/simnova/sharethrift/internal/core/domain"
	"github.com/simnova/sharethrift/internal/core/domain/conversation"
	"github.com/simnova/sharethrift/internal/core/domain/listing"
	"github.com/simnova/sharethrift/internal/core/domain/passport"
	"github.com/simnova/sharethrift/internal/core/ports"
)

type ConversationService struct {
	repo     ports.ConversationRepository
	listings ports.ListingRepository
	events   ports.EventPublisher
	clock    domain.Clock
	logger   zerolog.Logger
}

func NewConversationService(
	repo ports.ConversationRepository,
	listings ports.ListingRepository,
	events ports.EventPublisher,
	clock domain.Clock,
	logger zerolog.Logger,
) *ConversationService {
	return &ConversationService{repo: repo, listings: listings, events: events, clock: clock, logger: logger}
}

// Start opens a conversation between the caller and the sharer of a published
// listing.
func (s *ConversationService) Start(ctx context.Context, p passport.Passport, in ports.StartConversationInput) (ref *conversation.Reference, err error) {
	ctx, span := startSpan(ctx, "ConversationService.Start", attribute.String("listing.id", in.ListingID))
	defer func() { endSpan(span, err) }()

	l, err := s.listings.Get(ctx, in.ListingID, p)
	if err != nil {
		return nil, fmt.Errorf("start conversation: %w", err)
	}
	if l.State() != listing.StatePublished {
		return nil, fmt.Errorf("start conversation: %w",
			domain.TransitionError(fmt.Sprintf("Cannot start a conversation on a listing in state %s", l.State())))
	}
	c, err := conversation.NewInstance(p, conversation.Draft{
		SharerID:                l.SharerID(),
		ReserverID:              p.PrincipalID(),
		ListingID:               l.ID(),
		MessagingConversationID: in.MessagingConversationID,
	}, s.clock)
	if err != nil {
		return nil, fmt.Errorf("start conversation: %w", err)
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("start conversation: %w", err)
	}
	publish(ctx, s.events, c)

	s.logger.Info().Str("conversation_id", c.ID()).Str("listing_id", l.ID()).Msg("conversation started")
	out := c.Reference()
	return &out, nil
}

func (s *ConversationService) Get(ctx context.Context, p passport.Passport, id string) (ref *conversation.Reference, err error) {
	ctx, span := startSpan(ctx, "ConversationService.Get", attribute.String("conversation.id", id))
	defer func() { endSpan(span, err) }()

	c, err := s.repo.Get(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	visa := p.ForConversation(passport.ConversationSubject{SharerID: c.SharerID(), ReserverID: c.ReserverID()})
	if !passport.AnyOf(visa, passport.CanViewConversation, passport.CanManageConversation) {
		return nil, fmt.Errorf("get conversation: %w", domain.NotFoundError("conversation not found"))
	}
	out := c.Reference()
	return &out, nil
}

// Reassign changes the references of a conversation. Only principals that
// manage conversations get past the aggregate's checks.
func (s *ConversationService) Reassign(ctx context.Context, p passport.Passport, id string, in ports.ReassignConversationInput) (*conversation.Reference, error) {
	return s.mutate(ctx, p, id, "reassign", func(c *conversation.Conversation) error {
		if in.SharerID != nil {
			if err := c.SetSharer(*in.SharerID); err != nil {
				return err
			}
		}
		if in.ReserverID != nil {
			if err := c.SetReserver(*in.ReserverID); err != nil {
				return err
			}
		}
		if in.ListingID != nil {
			if err := c.SetListing(*in.ListingID); err != nil {
				return err
			}
		}
		if in.MessagingConversationID != nil {
			if err := c.SetMessagingConversationID(*in.MessagingConversationID); err != nil {
				return err
			}
		}
		return nil
	})
}

// Touch records activity on the conversation.
func (s *ConversationService) Touch(ctx context.Context, p passport.Passport, id string) (*conversation.Reference, error) {
	return s.mutate(ctx, p, id, "touch", (*conversation.Conversation).UpdateLastActivity)
}

func (s *ConversationService) mutate(ctx context.Context, p passport.Passport, id, op string, apply func(*conversation.Conversation) error) (ref *conversation.Reference, err error) {
	ctx, span := startSpan(ctx, "ConversationService."+op, attribute.String("conversation.id", id))
	defer func() { endSpan(span, err) }()

	c, err := s.repo.Get(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("%s conversation: %w", op, err)
	}
	if err := apply(c); err != nil {
		s.logger.Info().Err(err).Str("conversation_id", id).Str("principal_id", p.PrincipalID()).Msgf("%s rejected", op)
		return nil, fmt.Errorf("%s conversation: %w", op, err)
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("%s conversation: %w", op, err)
	}
	publish(ctx, s.events, c)

	out := c.Reference()
	return &out, nil
}
