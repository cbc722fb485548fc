package handler

import (
	"github.com/simnova/sharethrift/internal/core/domain/conversation"
	"github.com/simnova/sharethrift/internal/core/domain/listing"
	"github.com/simnova/sharethrift/internal/core/domain/reservation"
	"github.com/simnova/sharethrift/internal/core/domain/user"
	"github.com/simnova/sharethrift/internal/core/ports"
)

// --- Request → Service input ---

func toCreateListingInput(r createListingRequest) ports.CreateListingInput {
	return ports.CreateListingInput{
		Title:              r.Title,
		Description:        r.Description,
		Category:           r.Category,
		Location:           r.Location,
		SharingPeriodStart: r.SharingPeriodStart,
		SharingPeriodEnd:   r.SharingPeriodEnd,
		Images:             r.Images,
	}
}

func toUpdateListingInput(r updateListingRequest) ports.UpdateListingInput {
	return ports.UpdateListingInput{
		Title:              r.Title,
		Description:        r.Description,
		Category:           r.Category,
		Location:           r.Location,
		SharingPeriodStart: r.SharingPeriodStart,
		SharingPeriodEnd:   r.SharingPeriodEnd,
		Images:             r.Images,
	}
}

// --- Service result → HTTP response ---

func toListingResponse(r listing.Reference) listingResponse {
	history := r.SharingHistory
	if history == nil {
		history = []string{}
	}
	images := r.Images
	if images == nil {
		images = []string{}
	}
	return listingResponse{
		ID:                 r.ID,
		SharerID:           r.SharerID,
		Title:              r.Title,
		Description:        r.Description,
		Category:           r.Category,
		Location:           r.Location,
		SharingPeriodStart: r.SharingPeriodStart,
		SharingPeriodEnd:   r.SharingPeriodEnd,
		State:              string(r.State),
		ReportCount:        r.ReportCount,
		SharingHistory:     history,
		Images:             images,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
		Version:            r.Version,
		Links: listingLinks{
			Self:         "/v1/listings/" + r.ID,
			Reservations: "/v1/listings/" + r.ID + "/reservation-requests",
		},
	}
}

func toListingPageResponse(p *ports.ListingPage) listingPageResponse {
	items := make([]listingResponse, 0, len(p.Items))
	for _, ref := range p.Items {
		items = append(items, toListingResponse(ref))
	}
	return listingPageResponse{
		Items:      items,
		Total:      p.Total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages,
	}
}

func toReservationResponse(r reservation.Reference) reservationResponse {
	return reservationResponse{
		ID:                       r.ID,
		ListingID:                r.ListingID,
		ListingSharerID:          r.ListingSharerID,
		ReserverID:               r.ReserverID,
		PeriodStart:              r.ReservationPeriodStart,
		PeriodEnd:                r.ReservationPeriodEnd,
		State:                    string(r.State),
		CloseRequestedBySharer:   r.CloseRequestedBySharer,
		CloseRequestedByReserver: r.CloseRequestedByReserver,
		CreatedAt:                r.CreatedAt,
		UpdatedAt:                r.UpdatedAt,
		Version:                  r.Version,
	}
}

func toConversationResponse(r conversation.Reference) conversationResponse {
	return conversationResponse{
		ID:                      r.ID,
		SharerID:                r.SharerID,
		ReserverID:              r.ReserverID,
		ListingID:               r.ListingID,
		MessagingConversationID: r.MessagingConversationID,
		LastActivityAt:          r.LastActivityAt,
		CreatedAt:               r.CreatedAt,
		UpdatedAt:               r.UpdatedAt,
		Version:                 r.Version,
	}
}

func toUserResponse(r user.Reference) *userResponse {
	return &userResponse{
		ID:        r.ID,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		RoleID:    r.RoleID,
		State:     string(r.State),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toRoleResponse(r user.RoleReference) roleResponse {
	return roleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Permissions: r.Permissions,
		IsDefault:   r.IsDefault,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
