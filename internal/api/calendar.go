package api

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httperrors "github.com/svanleeuwen/hearth/internal/http/errors"
	"github.com/svanleeuwen/hearth/internal/store"
	"github.com/svanleeuwen/hearth/internal/tokens"
)

const googleStateCookie = "hearth_google_state"

// ConnectCalendar handles GET /api/calendar/connect: it hands the client the
// Google consent URL together with a state cookie for the callback.
func (h *Handler) ConnectCalendar(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.GoogleEnabled() {
		httperrors.Error(w, http.StatusConflict, "google calendar integration is not configured")
		return
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		httperrors.InternalError(w, r, err, "generate oauth state")
		return
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     googleStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	httperrors.JSON(w, http.StatusOK, map[string]any{
		"auth_url": h.googleAuth.AuthCodeURL(state),
	})
}

// CalendarCallback handles GET /api/calendar/callback, the OAuth redirect
// target. On success the browser is sent back to the dashboard.
func (h *Handler) CalendarCallback(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.GoogleEnabled() {
		httperrors.Error(w, http.StatusConflict, "google calendar integration is not configured")
		return
	}

	cookie, err := r.Cookie(googleStateCookie)
	if err != nil || cookie.Value == "" ||
		subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(r.URL.Query().Get("state"))) != 1 {
		httperrors.Error(w, http.StatusBadRequest, "oauth state mismatch")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: googleStateCookie, Value: "", Path: "/", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		httperrors.Error(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	user := currentUser(r)
	if err := h.connections.Connect(r.Context(), user.ID, code); err != nil {
		httperrors.LogError(r, "google connect failed", err)
		httperrors.Error(w, http.StatusBadGateway, "could not complete the google connection")
		return
	}
	http.Redirect(w, r, h.cfg.BaseURL, http.StatusFound)
}

// CalendarStatus handles GET /api/calendar/status.
func (h *Handler) CalendarStatus(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	connected, err := h.connections.Connected(r.Context(), user.ID)
	if err != nil {
		httperrors.InternalError(w, r, err, "calendar status")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{
		"enabled":   h.cfg.GoogleEnabled(),
		"connected": connected,
	})
}

// DisconnectCalendar handles DELETE /api/calendar/connection, dropping the
// user's stored Google credentials.
func (h *Handler) DisconnectCalendar(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if err := h.connections.Disconnect(r.Context(), user.ID); err != nil {
		httperrors.InternalError(w, r, err, "disconnect calendar")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CalendarEvents handles GET /api/calendar/events: upcoming events from the
// user's assigned calendars, defaulting to the next 7 days. Calendars that
// fail individually are reported alongside the merged events.
func (h *Handler) CalendarEvents(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseTimeRange(r, 7)
	if err != nil {
		httperrors.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	user := currentUser(r)
	assignments, err := h.store.CalendarAssignments.ListByUser(r.Context(), user.ID)
	if err != nil {
		httperrors.InternalError(w, r, err, "list calendar assignments")
		return
	}
	calendarIDs := make([]string, 0, len(assignments))
	for _, a := range assignments {
		calendarIDs = append(calendarIDs, a.CalendarID)
	}
	if len(calendarIDs) == 0 {
		calendarIDs = []string{"primary"}
	}

	result, err := h.fetcher.Events(r.Context(), user.ID, calendarIDs, from, to)
	if errors.Is(err, tokens.ErrNotConnected) {
		httperrors.JSON(w, http.StatusOK, map[string]any{
			"events":    []any{},
			"connected": false,
		})
		return
	}
	if err != nil {
		respondGoogleError(w, r, err)
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{
		"events":           result.Events,
		"connected":        true,
		"failed_calendars": result.Failed,
	})
}

// ListGoogleCalendars handles GET /api/calendar/calendars, listing the
// calendars the user's Google account can see.
func (h *Handler) ListGoogleCalendars(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	accessToken, err := h.connections.AccessToken(r.Context(), user.ID)
	if err != nil {
		respondGoogleError(w, r, err)
		return
	}
	calendars, err := h.googleDir.ListCalendars(r.Context(), accessToken)
	if err != nil {
		respondGoogleError(w, r, err)
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"calendars": calendars})
}

// ListCalendarAssignments handles GET /api/calendar/assignments.
func (h *Handler) ListCalendarAssignments(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	assignments, err := h.store.CalendarAssignments.ListByUser(r.Context(), user.ID)
	if err != nil {
		httperrors.InternalError(w, r, err, "list calendar assignments")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"assignments": assignments})
}

// CreateCalendarAssignment handles POST /api/calendar/assignments.
func (h *Handler) CreateCalendarAssignment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CalendarID   string  `json:"calendar_id"`
		CalendarName *string `json:"calendar_name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid request body")
		return
	}
	if req.CalendarID == "" {
		httperrors.Error(w, http.StatusBadRequest, "calendar_id is required")
		return
	}

	user := currentUser(r)
	assignment, err := h.store.CalendarAssignments.Create(r.Context(), store.CalendarAssignment{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		CalendarID:   req.CalendarID,
		CalendarName: req.CalendarName,
	})
	if err != nil {
		httperrors.InternalError(w, r, err, "create calendar assignment")
		return
	}
	httperrors.JSON(w, http.StatusCreated, map[string]any{"assignment": assignment})
}

// DeleteCalendarAssignment handles DELETE /api/calendar/assignments/{id}.
// Users can only remove their own assignments.
func (h *Handler) DeleteCalendarAssignment(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	err := h.store.CalendarAssignments.Delete(r.Context(), user.ID, chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFound(w, "calendar assignment not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "delete calendar assignment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
