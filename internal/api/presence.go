package api

import (
	"errors"
	"net/http"

	httperrors "github.com/svanleeuwen/hearth/internal/http/errors"
	"github.com/svanleeuwen/hearth/internal/presence"
)

// ReportLocation handles POST /api/location. Phones post their position
// here; the response tells them whether they count as home.
func (h *Handler) ReportLocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Latitude  float64  `json:"latitude"`
		Longitude float64  `json:"longitude"`
		Accuracy  *float64 `json:"accuracy"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid request body")
		return
	}

	user := currentUser(r)
	update, err := h.presence.Report(r.Context(), user.ID, req.Latitude, req.Longitude, req.Accuracy)
	if errors.Is(err, presence.ErrInvalidCoordinates) {
		httperrors.Error(w, http.StatusBadRequest, "invalid coordinates")
		return
	}
	if errors.Is(err, presence.ErrHomeNotConfigured) {
		httperrors.Error(w, http.StatusConflict, "home location is not configured")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "report location")
		return
	}

	httperrors.JSON(w, http.StatusOK, map[string]any{
		"status":          update.Status,
		"distance_meters": update.DistanceMeters,
		"home":            update.HomeName,
	})
}

// ListLocations handles GET /api/location, the who-is-home view.
func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.presence.Everyone(r.Context())
	if err != nil {
		httperrors.InternalError(w, r, err, "list locations")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"locations": locations})
}
