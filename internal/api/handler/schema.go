package handler

import (
	"time"

	"github.com/simnova/sharethrift/internal/core/domain/passport"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type registerRequest struct {
	Email     string `json:"email"      validate:"required,email"`
	Password  string `json:"password"   validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"  validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string        `json:"token,omitempty"`
	User  *userResponse `json:"user,omitempty"`
}

// --- Listings ---

type createListingRequest struct {
	Title              string    `json:"title"                validate:"required"`
	Description        string    `json:"description"          validate:"required"`
	Category           string    `json:"category"             validate:"required"`
	Location           string    `json:"location"             validate:"required"`
	SharingPeriodStart time.Time `json:"sharing_period_start" validate:"required"`
	SharingPeriodEnd   time.Time `json:"sharing_period_end"   validate:"required,gtfield=SharingPeriodStart"`
	Images             []string  `json:"images"               validate:"max=10,dive,url"`
}

type updateListingRequest struct {
	Title              *string    `json:"title"`
	Description        *string    `json:"description"`
	Category           *string    `json:"category"`
	Location           *string    `json:"location"`
	SharingPeriodStart *time.Time `json:"sharing_period_start"`
	SharingPeriodEnd   *time.Time `json:"sharing_period_end"`
	Images             []string   `json:"images" validate:"omitempty,max=10,dive,url"`
}

type listListingsQuery struct {
	SharerID string `query:"sharer_id"`
	State    string `query:"state" validate:"omitempty,oneof=Published Paused Cancelled"`
	Search   string `query:"q"`
	Page     int    `query:"page"  validate:"min=0"`
	Limit    int    `query:"limit" validate:"min=0"`
}

type listingLinks struct {
	Self         string `json:"self"`
	Reservations string `json:"reservation_requests"`
}

type listingResponse struct {
	ID                 string       `json:"id"`
	SharerID           string       `json:"sharer_id"`
	Title              string       `json:"title"`
	Description        string       `json:"description"`
	Category           string       `json:"category"`
	Location           string       `json:"location"`
	SharingPeriodStart time.Time    `json:"sharing_period_start"`
	SharingPeriodEnd   time.Time    `json:"sharing_period_end"`
	State              string       `json:"state"`
	ReportCount        int          `json:"report_count"`
	SharingHistory     []string     `json:"sharing_history"`
	Images             []string     `json:"images"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
	Version            int64        `json:"version"`
	Links              listingLinks `json:"_links"`
}

type listingPageResponse struct {
	Items      []listingResponse `json:"items"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

// --- Reservation requests ---

type requestReservationRequest struct {
	ListingID   string    `json:"listing_id"   validate:"required"`
	PeriodStart time.Time `json:"period_start" validate:"required"`
	PeriodEnd   time.Time `json:"period_end"   validate:"required,gtfield=PeriodStart"`
}

type reservationResponse struct {
	ID                       string    `json:"id"`
	ListingID                string    `json:"listing_id"`
	ListingSharerID          string    `json:"listing_sharer_id"`
	ReserverID               string    `json:"reserver_id"`
	PeriodStart              time.Time `json:"period_start"`
	PeriodEnd                time.Time `json:"period_end"`
	State                    string    `json:"state"`
	CloseRequestedBySharer   bool      `json:"close_requested_by_sharer"`
	CloseRequestedByReserver bool      `json:"close_requested_by_reserver"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
	Version                  int64     `json:"version"`
}

// --- Conversations ---

type startConversationRequest struct {
	ListingID               string `json:"listing_id" validate:"required"`
	MessagingConversationID string `json:"messaging_conversation_id"`
}

type reassignConversationRequest struct {
	SharerID                *string `json:"sharer_id"`
	ReserverID              *string `json:"reserver_id"`
	ListingID               *string `json:"listing_id"`
	MessagingConversationID *string `json:"messaging_conversation_id"`
}

type conversationResponse struct {
	ID                      string    `json:"id"`
	SharerID                string    `json:"sharer_id"`
	ReserverID              string    `json:"reserver_id"`
	ListingID               string    `json:"listing_id"`
	MessagingConversationID string    `json:"messaging_conversation_id,omitempty"`
	LastActivityAt          time.Time `json:"last_activity_at"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
	Version                 int64     `json:"version"`
}

// --- Users and roles ---

type updateProfileRequest struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type assignRoleRequest struct {
	RoleID string `json:"role_id" validate:"required"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	RoleID    string    `json:"role_id"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type createRoleRequest struct {
	Name        string               `json:"name" validate:"required,max=50"`
	Permissions passport.Permissions `json:"permissions"`
	IsDefault   bool                 `json:"is_default"`
}

type updateRoleRequest struct {
	Name        *string               `json:"name" validate:"omitempty,max=50"`
	Permissions *passport.Permissions `json:"permissions"`
}

type roleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Permissions passport.Permissions `json:"permissions"`
	IsDefault   bool                 `json:"is_default"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}
