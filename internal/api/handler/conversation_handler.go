package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/simnova/sharethrift/internal/core/ports"
)

type ConversationHandler struct {
	service ports.ConversationService
}

func NewConversationHandler(service ports.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// Start handles POST /v1/conversations.
//
// @Summary      Start a conversation about a listing
// @Tags         conversations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      startConversationRequest  true  "Listing to talk about"
// @Success      201   {object}  conversationResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/conversations [post]
func (h *ConversationHandler) Start(c echo.Context) error {
	var req startConversationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ref, err := h.service.Start(c.Request().Context(), ctxPassport(c), ports.StartConversationInput{
		ListingID:               req.ListingID,
		MessagingConversationID: req.MessagingConversationID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toConversationResponse(*ref))
}

// Get handles GET /v1/conversations/:id.
//
// @Summary      Get a conversation
// @Tags         conversations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Conversation id"
// @Success      200  {object}  conversationResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/conversations/{id} [get]
func (h *ConversationHandler) Get(c echo.Context) error {
	ref, err := h.service.Get(c.Request().Context(), ctxPassport(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toConversationResponse(*ref))
}

// Reassign handles PATCH /v1/conversations/:id.
//
// @Summary      Change the references of a conversation
// @Tags         conversations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                       true  "Conversation id"
// @Param        body  body      reassignConversationRequest  true  "References to change"
// @Success      200   {object}  conversationResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /v1/conversations/{id} [patch]
func (h *ConversationHandler) Reassign(c echo.Context) error {
	var req reassignConversationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ref, err := h.service.Reassign(c.Request().Context(), ctxPassport(c), c.Param("id"), ports.ReassignConversationInput{
		SharerID:                req.SharerID,
		ReserverID:              req.ReserverID,
		ListingID:               req.ListingID,
		MessagingConversationID: req.MessagingConversationID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toConversationResponse(*ref))
}

// Touch handles POST /v1/conversations/:id/activity.
//
// @Summary      Record activity on a conversation
// @Tags         conversations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Conversation id"
// @Success      200  {object}  conversationResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/conversations/{id}/activity [post]
func (h *ConversationHandler) Touch(c echo.Context) error {
	ref, err := h.service.Touch(c.Request().Context(), ctxPassport(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toConversationResponse(*ref))
}
