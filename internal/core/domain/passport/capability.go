// Package passport implements capability-based authorization.
//
// A Passport is built once per request for the calling principal. For each
// aggregate it authorizes, it mints a Visa: an immutable handle whose only
// operation is HasCapability. Minting never fails; denial shows up as
// HasCapability returning false.
//
// The capability set is a closed enum per bounded context. Aggregates ask for
// one capability at a time and compose several with AllOf / AnyOf.
package passport

// Context names a bounded context that owns a group of capabilities.
type Context string

const (
	ContextListing            Context = "listing"
	ContextConversation       Context = "conversation"
	ContextReservationRequest Context = "reservation_request"
	ContextUser               Context = "user"
)

// Capability is a named permission flag inside a permission snapshot.
type Capability string

// Listing capabilities.
const (
	CanCreateItemListing    Capability = "canCreateItemListing"
	CanUpdateItemListing    Capability = "canUpdateItemListing"
	CanPublishItemListing   Capability = "canPublishItemListing"
	CanUnpublishItemListing Capability = "canUnpublishItemListing"
	CanDeleteItemListing    Capability = "canDeleteItemListing"
	CanViewItemListing      Capability = "canViewItemListing"
	CanReportItemListing    Capability = "canReportItemListing"
)

// Conversation capabilities.
const (
	CanCreateConversation Capability = "canCreateConversation"
	CanManageConversation Capability = "canManageConversation"
	CanViewConversation   Capability = "canViewConversation"
)

// Reservation request capabilities.
const (
	CanCreateReservationRequest Capability = "canCreateReservationRequest"
	CanAcceptRequest            Capability = "canAcceptRequest"
	CanRejectRequest            Capability = "canRejectRequest"
	CanCancelRequest            Capability = "canCancelRequest"
	CanCloseRequest             Capability = "canCloseRequest"
	CanViewReservationRequest   Capability = "canViewReservationRequest"
)

// User and role capabilities.
const (
	CanEditOwnAccount  Capability = "canEditOwnAccount"
	CanManageUsers     Capability = "canManageUsers"
	CanBlockUsers      Capability = "canBlockUsers"
	CanManageUserRoles Capability = "canManageUserRoles"
	CanManageRoles     Capability = "canManageRoles"
	CanViewAllUsers    Capability = "canViewAllUsers"
)

var capabilityContexts = map[Capability]Context{
	CanCreateItemListing:    ContextListing,
	CanUpdateItemListing:    ContextListing,
	CanPublishItemListing:   ContextListing,
	CanUnpublishItemListing: ContextListing,
	CanDeleteItemListing:    ContextListing,
	CanViewItemListing:      ContextListing,
	CanReportItemListing:    ContextListing,

	CanCreateConversation: ContextConversation,
	CanManageConversation: ContextConversation,
	CanViewConversation:   ContextConversation,

	CanCreateReservationRequest: ContextReservationRequest,
	CanAcceptRequest:            ContextReservationRequest,
	CanRejectRequest:            ContextReservationRequest,
	CanCancelRequest:            ContextReservationRequest,
	CanCloseRequest:             ContextReservationRequest,
	CanViewReservationRequest:   ContextReservationRequest,

	CanEditOwnAccount:  ContextUser,
	CanManageUsers:     ContextUser,
	CanBlockUsers:      ContextUser,
	CanManageUserRoles: ContextUser,
	CanManageRoles:     ContextUser,
	CanViewAllUsers:    ContextUser,
}

// Context reports the bounded context a capability belongs to, or "" when the
// capability is unknown.
func (c Capability) Context() Context {
	return capabilityContexts[c]
}

// IsKnown reports whether c is part of the enumerated capability set.
func (c Capability) IsKnown() bool {
	_, ok := capabilityContexts[c]
	return ok
}

func (c Capability) String() string {
	return string(c)
}
