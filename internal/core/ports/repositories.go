package ports

import (
	"context"

	"github.com/simnova/sharethrift/internal/core/domain/conversation"
	"github.com/simnova/sharethrift/internal/core/domain/listing"
	"github.com/simnova/sharethrift/internal/core/domain/passport"
	"github.com/simnova/sharethrift/internal/core/domain/reservation"
	"github.com/simnova/sharethrift/internal/core/domain/user"
)

// Repositories load aggregates with a visa minted from the caller's passport
// and persist them with optimistic concurrency: Save fails with
// domain.ErrConcurrentModification when the stored version moved since the
// aggregate was loaded. A successful Save calls MarkPersisted.

// ListingFilter carries the query parameters for listing search.
type ListingFilter struct {
	SharerID string // optional
	State    string // optional: Published, Paused or Cancelled
	Search   string // optional: partial match on title or category
	Page     int    // 1-based
	Limit    int    // capped at 100 by the service
}

type ListingRepository interface {
	Get(ctx context.Context, id string, p passport.Passport) (*listing.ItemListing, error)
	Save(ctx context.Context, l *listing.ItemListing) error
	// List returns a page of listing references and the total match count.
	List(ctx context.Context, filter ListingFilter) ([]listing.Reference, int64, error)
}

type ReservationRequestRepository interface {
	Get(ctx context.Context, id string, p passport.Passport) (*reservation.ReservationRequest, error)
	Save(ctx context.Context, r *reservation.ReservationRequest) error
	ListByListing(ctx context.Context, listingID string) ([]reservation.Reference, error)
}

type ConversationRepository interface {
	Get(ctx context.Context, id string, p passport.Passport) (*conversation.Conversation, error)
	Save(ctx context.Context, c *conversation.Conversation) error
}

type PersonalUserRepository interface {
	Get(ctx context.Context, id string, p passport.Passport) (*user.PersonalUser, error)
	Save(ctx context.Context, u *user.PersonalUser) error
}

type RoleRepository interface {
	Get(ctx context.Context, id string, p passport.Passport) (*user.Role, error)
	// GetDefault returns the role assigned to newly registered users.
	GetDefault(ctx context.Context, p passport.Passport) (*user.Role, error)
	Save(ctx context.Context, r *user.Role) error
}
