package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"ticket-marketplace/internal/services"
)

type ResaleHandler struct {
	app           *pocketbase.PocketBase
	resaleService *services.ResaleService
}

func NewResaleHandler(app *pocketbase.PocketBase, resaleService *services.ResaleService) *ResaleHandler {
	return &ResaleHandler{
		app:           app,
		resaleService: resaleService,
	}
}

// ListForEvent - Unsold listings for an event
func (h *ResaleHandler) ListForEvent(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")

	listings, err := h.resaleService.ListingsForEvent(e.Request.Context(), eventID)
	if err != nil {
		return apis.NewBadRequestError("Failed to get listings", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"listings": listings,
		"total":    len(listings),
	})
}

// Create - List the caller's ticket for resale
func (h *ResaleHandler) Create(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		EventID string `json:"event_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	listing, err := h.resaleService.List(e.Request.Context(), e.Auth.Id, req.EventID)
	if err != nil {
		return toAPIError(err)
	}

	return e.JSON(http.StatusOK, listing)
}

// Cancel - Remove the caller's own unsold listing
func (h *ResaleHandler) Cancel(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		EventID string `json:"event_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if err := h.resaleService.Cancel(e.Request.Context(), e.Auth.Id, req.EventID); err != nil {
		return toAPIError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"message": "Listing cancelled"})
}

// Buy - Purchase a listed ticket
func (h *ResaleHandler) Buy(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		ListingID string `json:"listing_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.ListingID == "" {
		return apis.NewBadRequestError("Listing ID required", nil)
	}

	ticket, err := h.resaleService.Buy(e.Request.Context(), e.Auth.Id, req.ListingID)
	if err != nil {
		return toAPIError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"ticket": ticket})
}
