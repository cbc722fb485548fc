package ports

import (
	"context"
	"time"

	"github.com/simnova/sharethrift/internal/core/domain/conversation"
	"github.com/simnova/sharethrift/internal/core/domain/listing"
	"github.com/simnova/sharethrift/internal/core/domain/passport"
	"github.com/simnova/sharethrift/internal/core/domain/reservation"
	"github.com/simnova/sharethrift/internal/core/domain/user"
)

// Every use case takes the request passport explicitly and returns entity
// references, never aggregates.

// CreateListingInput carries the data needed to create a listing. The sharer
// is the calling principal.
type CreateListingInput struct {
	Title              string
	Description        string
	Category           string
	Location           string
	SharingPeriodStart time.Time
	SharingPeriodEnd   time.Time
	Images             []string
}

// UpdateListingInput holds optional field updates; nil means unchanged. Both
// sharing period bounds must be given together.
type UpdateListingInput struct {
	Title              *string
	Description        *string
	Category           *string
	Location           *string
	SharingPeriodStart *time.Time
	SharingPeriodEnd   *time.Time
	Images             []string
}

// ListingPage is returned by ListingService.List.
type ListingPage struct {
	Items      []listing.Reference
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

type ListingService interface {
	Create(ctx context.Context, p passport.Passport, in CreateListingInput) (*listing.Reference, error)
	Get(ctx context.Context, p passport.Passport, id string) (*listing.Reference, error)
	List(ctx context.Context, p passport.Passport, filter ListingFilter) (*ListingPage, error)
	Update(ctx context.Context, p passport.Passport, id string, in UpdateListingInput) (*listing.Reference, error)
	Publish(ctx context.Context, p passport.Passport, id string) (*listing.Reference, error)
	Pause(ctx context.Context, p passport.Passport, id string) (*listing.Reference, error)
	Cancel(ctx context.Context, p passport.Passport, id string) (*listing.Reference, error)
	Report(ctx context.Context, p passport.Passport, id string) (*listing.Reference, error)
}

// RequestReservationInput carries a reservation request; the reserver is the
// calling principal.
type RequestReservationInput struct {
	ListingID   string
	PeriodStart time.Time
	PeriodEnd   time.Time
}

type ReservationService interface {
	Request(ctx context.Context, p passport.Passport, in RequestReservationInput) (*reservation.Reference, error)
	Get(ctx context.Context, p passport.Passport, id string) (*reservation.Reference, error)
	ListForListing(ctx context.Context, p passport.Passport, listingID string) ([]reservation.Reference, error)
	Accept(ctx context.Context, p passport.Passport, id string) (*reservation.Reference, error)
	Reject(ctx context.Context, p passport.Passport, id string) (*reservation.Reference, error)
	Cancel(ctx context.Context, p passport.Passport, id string) (*reservation.Reference, error)
	RequestClose(ctx context.Context, p passport.Passport, id string) (*reservation.Reference, error)
	Close(ctx context.Context, p passport.Passport, id string) (*reservation.Reference, error)
}

// StartConversationInput opens a conversation between the caller, as
// reserver, and the sharer of the listing.
type StartConversationInput struct {
	ListingID               string
	MessagingConversationID string
}

// ReassignConversationInput holds optional reference updates; nil means
// unchanged.
type ReassignConversationInput struct {
	SharerID                *string
	ReserverID              *string
	ListingID               *string
	MessagingConversationID *string
}

type ConversationService interface {
	Start(ctx context.Context, p passport.Passport, in StartConversationInput) (*conversation.Reference, error)
	Get(ctx context.Context, p passport.Passport, id string) (*conversation.Reference, error)
	Reassign(ctx context.Context, p passport.Passport, id string, in ReassignConversationInput) (*conversation.Reference, error)
	Touch(ctx context.Context, p passport.Passport, id string) (*conversation.Reference, error)
}

// UpdateProfileInput holds optional profile updates; nil means unchanged.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Email     *string
}

type UserService interface {
	Get(ctx context.Context, p passport.Passport, id string) (*user.Reference, error)
	UpdateProfile(ctx context.Context, p passport.Passport, id string, in UpdateProfileInput) (*user.Reference, error)
	Block(ctx context.Context, p passport.Passport, id string) (*user.Reference, error)
	Unblock(ctx context.Context, p passport.Passport, id string) (*user.Reference, error)
	AssignRole(ctx context.Context, p passport.Passport, id, roleID string) (*user.Reference, error)
}

type CreateRoleInput struct {
	Name        string
	Permissions passport.Permissions
	IsDefault   bool
}

// UpdateRoleInput holds optional role updates; nil means unchanged.
type UpdateRoleInput struct {
	Name        *string
	Permissions *passport.Permissions
}

type RoleService interface {
	Create(ctx context.Context, p passport.Passport, in CreateRoleInput) (*user.RoleReference, error)
	Get(ctx context.Context, p passport.Passport, id string) (*user.RoleReference, error)
	Update(ctx context.Context, p passport.Passport, id string, in UpdateRoleInput) (*user.RoleReference, error)
}
