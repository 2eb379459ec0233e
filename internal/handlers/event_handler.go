package handlers

import (
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"ticket-marketplace/internal/services"
	"ticket-marketplace/internal/store"
	"ticket-marketplace/models"
)

type EventHandler struct {
	app       *pocketbase.PocketBase
	store     store.Store
	organizer *services.OrganizerService
}

func NewEventHandler(app *pocketbase.PocketBase, st store.Store, organizer *services.OrganizerService) *EventHandler {
	return &EventHandler{
		app:       app,
		store:     st,
		organizer: organizer,
	}
}

// ListEvents - Browse all events
func (h *EventHandler) ListEvents(e *core.RequestEvent) error {
	events, err := h.store.Events(e.Request.Context())
	if err != nil {
		return apis.NewBadRequestError("Failed to get events", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"events": events,
		"total":  len(events),
	})
}

// GetEvent - Get one event
func (h *EventHandler) GetEvent(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")

	event, err := h.store.Event(e.Request.Context(), eventID)
	if err != nil {
		return apis.NewNotFoundError("Event not found", err)
	}

	return e.JSON(http.StatusOK, event)
}

// CreateEvent - Create a new event owned by the authenticated user
func (h *EventHandler) CreateEvent(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		Name          string `json:"name"`
		Description   string `json:"description"`
		Location      string `json:"location"`
		Date          string `json:"date"`
		Price         int64  `json:"price"`
		MaxTicket     int    `json:"max_ticket"`
		ReputationReq int    `json:"reputation_req"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return apis.NewBadRequestError("Invalid date, expected RFC3339", err)
	}

	event := &models.Event{
		Name:          req.Name,
		Description:   req.Description,
		Location:      req.Location,
		Date:          date,
		Price:         req.Price,
		MaxTicket:     req.MaxTicket,
		ReputationReq: req.ReputationReq,
	}

	if err := h.organizer.CreateEvent(e.Request.Context(), e.Auth.Id, event); err != nil {
		return toAPIError(err)
	}

	return e.JSON(http.StatusOK, event)
}
