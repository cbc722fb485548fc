package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/simnova/sharethrift/internal/core/domain/passport"
	"github.com/simnova/sharethrift/internal/core/domain/reservation"
	"github.com/simnova/sharethrift/internal/core/ports"
)

// ReservationHandler handles HTTP requests for reservation requests.
type ReservationHandler struct {
	service ports.ReservationService
}

func NewReservationHandler(service ports.ReservationService) *ReservationHandler {
	return &ReservationHandler{service: service}
}

// Request handles POST /v1/reservation-requests.
//
// @Summary      Request to reserve a listing
// @Tags         reservation-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      requestReservationRequest  true  "Listing and period"
// @Success      201   {object}  reservationResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/reservation-requests [post]
func (h *ReservationHandler) Request(c echo.Context) error {
	var req requestReservationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ref, err := h.service.Request(c.Request().Context(), ctxPassport(c), ports.RequestReservationInput{
		ListingID:   req.ListingID,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toReservationResponse(*ref))
}

// Get handles GET /v1/reservation-requests/:id.
//
// @Summary      Get a reservation request
// @Tags         reservation-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Reservation request id"
// @Success      200  {object}  reservationResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/reservation-requests/{id} [get]
func (h *ReservationHandler) Get(c echo.Context) error {
	ref, err := h.service.Get(c.Request().Context(), ctxPassport(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReservationResponse(*ref))
}

// ListForListing handles GET /v1/listings/:id/reservation-requests.
//
// @Summary      List the reservation requests of a listing visible to the caller
// @Tags         reservation-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Listing id"
// @Success      200  {array}   reservationResponse
// @Router       /v1/listings/{id}/reservation-requests [get]
func (h *ReservationHandler) ListForListing(c echo.Context) error {
	refs, err := h.service.ListForListing(c.Request().Context(), ctxPassport(c), c.Param("id"))
	if err != nil {
		return err
	}
	out := make([]reservationResponse, 0, len(refs))
	for _, ref := range refs {
		out = append(out, toReservationResponse(ref))
	}
	return c.JSON(http.StatusOK, out)
}

type reservationAction func(ctx context.Context, p passport.Passport, id string) (*reservation.Reference, error)

func (h *ReservationHandler) act(c echo.Context, action reservationAction) error {
	ref, err := action(c.Request().Context(), ctxPassport(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReservationResponse(*ref))
}

// Accept handles POST /v1/reservation-requests/:id/accept.
//
// @Summary      Accept a reservation request
// @Tags         reservation-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Reservation request id"
// @Success      200  {object}  reservationResponse
// @Failure      403  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/reservation-requests/{id}/accept [post]
func (h *ReservationHandler) Accept(c echo.Context) error {
	return h.act(c, h.service.Accept)
}

// Reject handles POST /v1/reservation-requests/:id/reject.
//
// @Summary      Reject a reservation request
// @Tags         reservation-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Reservation request id"
// @Success      200  {object}  reservationResponse
// @Failure      403  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/reservation-requests/{id}/reject [post]
func (h *ReservationHandler) Reject(c echo.Context) error {
	return h.act(c, h.service.Reject)
}

// Cancel handles POST /v1/reservation-requests/:id/cancel.
//
// @Summary      Cancel a reservation request
// @Tags         reservation-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Reservation request id"
// @Success      200  {object}  reservationResponse
// @Failure      403  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/reservation-requests/{id}/cancel [post]
func (h *ReservationHandler) Cancel(c echo.Context) error {
	return h.act(c, h.service.Cancel)
}

// RequestClose handles POST /v1/reservation-requests/:id/request-close.
//
// @Summary      Ask to close an accepted reservation
// @Tags         reservation-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Reservation request id"
// @Success      200  {object}  reservationResponse
// @Failure      403  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/reservation-requests/{id}/request-close [post]
func (h *ReservationHandler) RequestClose(c echo.Context) error {
	return h.act(c, h.service.RequestClose)
}

// Close handles POST /v1/reservation-requests/:id/close.
//
// @Summary      Close an accepted reservation
// @Tags         reservation-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Reservation request id"
// @Success      200  {object}  reservationResponse
// @Failure      403  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/reservation-requests/{id}/close [post]
func (h *ReservationHandler) Close(c echo.Context) error {
	return h.act(c, h.service.Close)
}
