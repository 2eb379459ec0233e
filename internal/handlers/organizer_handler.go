package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"ticket-marketplace/internal/services"
)

type OrganizerHandler struct {
	app              *pocketbase.PocketBase
	organizerService *services.OrganizerService
}

func NewOrganizerHandler(app *pocketbase.PocketBase, organizerService *services.OrganizerService) *OrganizerHandler {
	return &OrganizerHandler{
		app:              app,
		organizerService: organizerService,
	}
}

// MarkAttendance - Organizer confirms an attendee at the door
func (h *OrganizerHandler) MarkAttendance(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		EventID    string `json:"event_id"`
		AttendeeID string `json:"attendee_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.EventID == "" || req.AttendeeID == "" {
		return apis.NewBadRequestError("Event ID and attendee ID required", nil)
	}

	if err := h.organizerService.MarkAttendance(e.Request.Context(), e.Auth.Id, req.EventID, req.AttendeeID); err != nil {
		return toAPIError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"message": "Attendance confirmed"})
}

// CancelEvent - Organizer cancels their own upcoming event
func (h *OrganizerHandler) CancelEvent(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	eventID := e.Request.PathValue("eventId")
	if eventID == "" {
		return apis.NewBadRequestError("Event ID required", nil)
	}

	if err := h.organizerService.CancelEvent(e.Request.Context(), e.Auth.Id, eventID); err != nil {
		return toAPIError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"message": "Event cancelled"})
}
