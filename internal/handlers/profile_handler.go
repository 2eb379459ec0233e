package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"ticket-marketplace/internal/services"
)

type ProfileHandler struct {
	app            *pocketbase.PocketBase
	profileService *services.ProfileService
}

func NewProfileHandler(app *pocketbase.PocketBase, profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		app:            app,
		profileService: profileService,
	}
}

// Me - Current profile with wallet, reputation and lifetime counters.
// Serves the cached snapshot when the store read fails so the page
// still renders with slightly stale numbers.
func (h *ProfileHandler) Me(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	profile, err := h.profileService.Get(e.Request.Context(), e.Auth.Id)
	if err != nil {
		return toAPIError(err)
	}

	return e.JSON(http.StatusOK, profile)
}

// Logout - Drop the cached profile snapshot for the session's user
func (h *ProfileHandler) Logout(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	if err := h.profileService.ClearCache(e.Request.Context(), e.Auth.Id); err != nil {
		h.app.Logger().Warn("failed to clear profile cache", "user", e.Auth.Id, "error", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"message": "Logged out"})
}
