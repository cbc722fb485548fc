package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/simnova/sharethrift/internal/core/domain/listing"
	"github.com/simnova/sharethrift/internal/core/domain/passport"
	"github.com/simnova/sharethrift/internal/core/ports"
)

// ListingHandler handles HTTP requests for item listings.
type ListingHandler struct {
	service ports.ListingService
}

func NewListingHandler(service ports.ListingService) *ListingHandler {
	return &ListingHandler{service: service}
}

// Create handles POST /v1/listings.
//
// @Summary      Create an item listing
// @Tags         listings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createListingRequest  true  "Listing details"
// @Success      201   {object}  listingResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/listings [post]
func (h *ListingHandler) Create(c echo.Context) error {
	var req createListingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ref, err := h.service.Create(c.Request().Context(), ctxPassport(c), toCreateListingInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toListingResponse(*ref))
}

// List handles GET /v1/listings.
//
// @Summary      Search listings
// @Description  Only published listings are returned unless sharer_id is the caller.
// @Tags         listings
// @Produce      json
// @Param        sharer_id  query     string  false  "Filter by sharer"
// @Param        state      query     string  false  "Published, Paused or Cancelled"
// @Param        q          query     string  false  "Partial match on title or category"
// @Param        page       query     int     false  "Page number (1-based)"
// @Param        limit      query     int     false  "Page size (max 100)"
// @Success      200        {object}  listingPageResponse
// @Failure      422        {object}  errorResponse
// @Router       /v1/listings [get]
func (h *ListingHandler) List(c echo.Context) error {
	var q listListingsQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	page, err := h.service.List(c.Request().Context(), ctxPassport(c), ports.ListingFilter{
		SharerID: q.SharerID,
		State:    q.State,
		Search:   q.Search,
		Page:     q.Page,
		Limit:    q.Limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListingPageResponse(page))
}

// Get handles GET /v1/listings/:id.
//
// @Summary      Get a listing
// @Tags         listings
// @Produce      json
// @Param        id   path      string  true  "Listing id"
// @Success      200  {object}  listingResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/listings/{id} [get]
func (h *ListingHandler) Get(c echo.Context) error {
	ref, err := h.service.Get(c.Request().Context(), ctxPassport(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListingResponse(*ref))
}

// Update handles PATCH /v1/listings/:id.
//
// @Summary      Update listing fields
// @Tags         listings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Listing id"
// @Param        body  body      updateListingRequest  true  "Fields to change"
// @Success      200   {object}  listingResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/listings/{id} [patch]
func (h *ListingHandler) Update(c echo.Context) error {
	var req updateListingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ref, err := h.service.Update(c.Request().Context(), ctxPassport(c), c.Param("id"), toUpdateListingInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListingResponse(*ref))
}

type listingAction func(ctx context.Context, p passport.Passport, id string) (*listing.Reference, error)

// act runs a body-less state change on the listing named in the path.
func (h *ListingHandler) act(c echo.Context, action listingAction) error {
	ref, err := action(c.Request().Context(), ctxPassport(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListingResponse(*ref))
}

// Publish handles POST /v1/listings/:id/publish.
//
// @Summary      Publish a paused listing
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Listing id"
// @Success      200  {object}  listingResponse
// @Failure      403  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/listings/{id}/publish [post]
func (h *ListingHandler) Publish(c echo.Context) error {
	return h.act(c, h.service.Publish)
}

// Pause handles POST /v1/listings/:id/pause.
//
// @Summary      Pause a published listing
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Listing id"
// @Success      200  {object}  listingResponse
// @Failure      403  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/listings/{id}/pause [post]
func (h *ListingHandler) Pause(c echo.Context) error {
	return h.act(c, h.service.Pause)
}

// Cancel handles POST /v1/listings/:id/cancel.
//
// @Summary      Cancel a listing for good
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Listing id"
// @Success      200  {object}  listingResponse
// @Failure      403  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/listings/{id}/cancel [post]
func (h *ListingHandler) Cancel(c echo.Context) error {
	return h.act(c, h.service.Cancel)
}

// Report handles POST /v1/listings/:id/report.
//
// @Summary      Report a listing for moderation
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Listing id"
// @Success      200  {object}  listingResponse
// @Failure      403  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/listings/{id}/report [post]
func (h *ListingHandler) Report(c echo.Context) error {
	return h.act(c, h.service.Report)
}
