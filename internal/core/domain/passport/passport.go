package passport

// ListingSubject is the read-only shape of a listing used for ownership checks.
type ListingSubject struct {
	SharerID string
}

// ReservationRequestSubject is the read-only shape of a reservation request.
type ReservationRequestSubject struct {
	ReserverID      string
	ListingSharerID string
}

// ConversationSubject is the read-only shape of a conversation.
type ConversationSubject struct {
	SharerID   string
	ReserverID string
}

// UserSubject is the read-only shape of a personal user or role.
type UserSubject struct {
	UserID string
}

// Passport mints visas for the principal it was built for.
type Passport interface {
	// PrincipalID is the id of the authenticated user, or "" for the system
	// and guest passports.
	PrincipalID() string
	IsSystem() bool

	ForListing(s ListingSubject) Visa
	ForReservationRequest(s ReservationRequestSubject) Visa
	ForConversation(s ConversationSubject) Visa
	ForUser(s UserSubject) Visa
}

// Principal is an authenticated identity plus the permission snapshot of its
// role, resolved once for the request.
type Principal struct {
	ID          string
	Permissions Permissions
}

type systemPassport struct{}

// System returns a passport for trusted internal automation. Every visa it
// mints grants every capability.
func System() Passport { return systemPassport{} }

func (systemPassport) PrincipalID() string { return "" }
func (systemPassport) IsSystem() bool { return true }
func (systemPassport) ForListing(ListingSubject) Visa { return allowAll{} }
func (systemPassport) ForReservationRequest(ReservationRequestSubject) Visa { return allowAll{} }
func (systemPassport) ForConversation(ConversationSubject) Visa { return allowAll{} }
func (systemPassport) ForUser(UserSubject) Visa { return allowAll{} }

type guestPassport struct{}

// Guest returns the passport of an unauthenticated caller. Every visa it mints
// denies every capability.
func Guest() Passport { return guestPassport{} }

func (guestPassport) PrincipalID() string { return "" }
func (guestPassport) IsSystem() bool { return false }
func (guestPassport) ForListing(ListingSubject) Visa { return denyAll{} }
func (guestPassport) ForReservationRequest(ReservationRequestSubject) Visa { return denyAll{} }
func (guestPassport) ForConversation(ConversationSubject) Visa { return denyAll{} }
func (guestPassport) ForUser(UserSubject) Visa { return denyAll{} }

type principalPassport struct {
	principal Principal
}

// ForPrincipal returns a passport whose visas combine the role snapshot with
// grants that follow from owning or taking part in the subject.
func ForPrincipal(p Principal) Passport {
	return principalPassport{principal: p}
}

func (p principalPassport) PrincipalID() string { return p.principal.ID }
func (p principalPassport) IsSystem() bool { return false }

func (p principalPassport) is(id string) bool {
	return p.principal.ID != "" && id == p.principal.ID
}

func (p principalPassport) ForListing(s ListingSubject) Visa {
	perms := p.principal.Permissions.Listing
	if p.is(s.SharerID) {
		perms.CanUpdateItemListing = true
		perms.CanPublishItemListing = true
		perms.CanUnpublishItemListing = true
		perms.CanDeleteItemListing = true
		perms.CanViewItemListing = true
		// sharers cannot report their own listing
		perms.CanReportItemListing = false
	}
	return resolved{set: perms}
}

func (p principalPassport) ForReservationRequest(s ReservationRequestSubject) Visa {
	perms := p.principal.Permissions.ReservationRequest
	if p.is(s.ListingSharerID) {
		perms.CanAcceptRequest = true
		perms.CanRejectRequest = true
		perms.CanCloseRequest = true
		perms.CanViewReservationRequest = true
	}
	if p.is(s.ReserverID) {
		perms.CanCancelRequest = true
		perms.CanCloseRequest = true
		perms.CanViewReservationRequest = true
	}
	return resolved{set: perms}
}

func (p principalPassport) ForConversation(s ConversationSubject) Visa {
	perms := p.principal.Permissions.Conversation
	if p.is(s.SharerID) || p.is(s.ReserverID) {
		perms.CanViewConversation = true
	}
	return resolved{set: perms}
}

func (p principalPassport) ForUser(s UserSubject) Visa {
	perms := p.principal.Permissions.User
	if p.is(s.UserID) {
		perms.CanEditOwnAccount = true
	}
	return resolved{set: perms}
}
