package passport

// ListingPermissions is the listing slice of a permission snapshot.
type ListingPermissions struct {
	CanCreateItemListing    bool `json:"canCreateItemListing" bson:"can_create_item_listing"`
	CanUpdateItemListing    bool `json:"canUpdateItemListing" bson:"can_update_item_listing"`
	CanPublishItemListing   bool `json:"canPublishItemListing" bson:"can_publish_item_listing"`
	CanUnpublishItemListing bool `json:"canUnpublishItemListing" bson:"can_unpublish_item_listing"`
	CanDeleteItemListing    bool `json:"canDeleteItemListing" bson:"can_delete_item_listing"`
	CanViewItemListing      bool `json:"canViewItemListing" bson:"can_view_item_listing"`
	CanReportItemListing    bool `json:"canReportItemListing" bson:"can_report_item_listing"`
}

// Grants reports whether the snapshot holds c.
func (p ListingPermissions) Grants(c Capability) bool {
	switch c {
	case CanCreateItemListing:
		return p.CanCreateItemListing
	case CanUpdateItemListing:
		return p.CanUpdateItemListing
	case CanPublishItemListing:
		return p.CanPublishItemListing
	case CanUnpublishItemListing:
		return p.CanUnpublishItemListing
	case CanDeleteItemListing:
		return p.CanDeleteItemListing
	case CanViewItemListing:
		return p.CanViewItemListing
	case CanReportItemListing:
		return p.CanReportItemListing
	}
	return false
}

// ConversationPermissions is the conversation slice of a permission snapshot.
type ConversationPermissions struct {
	CanCreateConversation bool `json:"canCreateConversation" bson:"can_create_conversation"`
	CanManageConversation bool `json:"canManageConversation" bson:"can_manage_conversation"`
	CanViewConversation   bool `json:"canViewConversation" bson:"can_view_conversation"`
}

// Grants reports whether the snapshot holds c.
func (p ConversationPermissions) Grants(c Capability) bool {
	switch c {
	case CanCreateConversation:
		return p.CanCreateConversation
	case CanManageConversation:
		return p.CanManageConversation
	case CanViewConversation:
		return p.CanViewConversation
	}
	return false
}

// ReservationRequestPermissions is the reservation request slice of a
// permission snapshot.
type ReservationRequestPermissions struct {
	CanCreateReservationRequest bool `json:"canCreateReservationRequest" bson:"can_create_reservation_request"`
	CanAcceptRequest            bool `json:"canAcceptRequest" bson:"can_accept_request"`
	CanRejectRequest            bool `json:"canRejectRequest" bson:"can_reject_request"`
	CanCancelRequest            bool `json:"canCancelRequest" bson:"can_cancel_request"`
	CanCloseRequest             bool `json:"canCloseRequest" bson:"can_close_request"`
	CanViewReservationRequest   bool `json:"canViewReservationRequest" bson:"can_view_reservation_request"`
}

// Grants reports whether the snapshot holds c.
func (p ReservationRequestPermissions) Grants(c Capability) bool {
	switch c {
	case CanCreateReservationRequest:
		return p.CanCreateReservationRequest
	case CanAcceptRequest:
		return p.CanAcceptRequest
	case CanRejectRequest:
		return p.CanRejectRequest
	case CanCancelRequest:
		return p.CanCancelRequest
	case CanCloseRequest:
		return p.CanCloseRequest
	case CanViewReservationRequest:
		return p.CanViewReservationRequest
	}
	return false
}

// UserPermissions is the user and role administration slice of a permission
// snapshot.
type UserPermissions struct {
	CanEditOwnAccount  bool `json:"canEditOwnAccount" bson:"can_edit_own_account"`
	CanManageUsers     bool `json:"canManageUsers" bson:"can_manage_users"`
	CanBlockUsers      bool `json:"canBlockUsers" bson:"can_block_users"`
	CanManageUserRoles bool `json:"canManageUserRoles" bson:"can_manage_user_roles"`
	CanManageRoles     bool `json:"canManageRoles" bson:"can_manage_roles"`
	CanViewAllUsers    bool `json:"canViewAllUsers" bson:"can_view_all_users"`
}

// Grants reports whether the snapshot holds c.
func (p UserPermissions) Grants(c Capability) bool {
	switch c {
	case CanEditOwnAccount:
		return p.CanEditOwnAccount
	case CanManageUsers:
		return p.CanManageUsers
	case CanBlockUsers:
		return p.CanBlockUsers
	case CanManageUserRoles:
		return p.CanManageUserRoles
	case CanManageRoles:
		return p.CanManageRoles
	case CanViewAllUsers:
		return p.CanViewAllUsers
	}
	return false
}

// Permissions is the full permission snapshot owned by a role, organized per
// bounded context. It is a plain value: copying it yields an independent
// snapshot, so a passport can never observe later edits to the role.
type Permissions struct {
	Listing            ListingPermissions            `json:"listingPermissions" bson:"listing"`
	Conversation       ConversationPermissions       `json:"conversationPermissions" bson:"conversation"`
	ReservationRequest ReservationRequestPermissions `json:"reservationRequestPermissions" bson:"reservation_request"`
	User               UserPermissions               `json:"userPermissions" bson:"user"`
}

// Grants looks c up in the slice of the snapshot that owns it.
func (p Permissions) Grants(c Capability) bool {
	switch c.Context() {
	case ContextListing:
		return p.Listing.Grants(c)
	case ContextConversation:
		return p.Conversation.Grants(c)
	case ContextReservationRequest:
		return p.ReservationRequest.Grants(c)
	case ContextUser:
		return p.User.Grants(c)
	}
	return false
}

// MemberPermissions is the snapshot given to the default role every new
// personal user receives.
func MemberPermissions() Permissions {
	return Permissions{
		Listing: ListingPermissions{
			CanCreateItemListing: true,
			CanViewItemListing:   true,
			CanReportItemListing: true,
		},
		Conversation: ConversationPermissions{
			CanCreateConversation: true,
		},
		ReservationRequest: ReservationRequestPermissions{
			CanCreateReservationRequest: true,
		},
	}
}

// AdminPermissions grants every capability.
func AdminPermissions() Permissions {
	var p Permissions
	p.Listing = ListingPermissions{true, true, true, true, true, true, true}
	p.Conversation = ConversationPermissions{true, true, true}
	p.ReservationRequest = ReservationRequestPermissions{true, true, true, true, true, true}
	p.User = UserPermissions{true, true, true, true, true, true}
	return p
}
