// Package api implements the JSON API consumed by the dashboard frontend.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/svanleeuwen/hearth/internal/auth"
	"github.com/svanleeuwen/hearth/internal/automation"
	"github.com/svanleeuwen/hearth/internal/calendarsync"
	"github.com/svanleeuwen/hearth/internal/config"
	"github.com/svanleeuwen/hearth/internal/google"
	httperrors "github.com/svanleeuwen/hearth/internal/http/errors"
	"github.com/svanleeuwen/hearth/internal/presence"
	"github.com/svanleeuwen/hearth/internal/store"
)

// todoMirror is the slice of the calendar reconciler the handlers use.
type todoMirror interface {
	CreateEvent(ctx context.Context, todo *store.Todo) (string, error)
	DeleteEvent(ctx context.Context, todo *store.Todo) error
}

// eventFetcher reads calendar events for the dashboard.
type eventFetcher interface {
	Events(ctx context.Context, userID string, calendarIDs []string, from, to time.Time) (*calendarsync.CalendarEvents, error)
}

// googleConnection manages a user's Google link.
type googleConnection interface {
	Connect(ctx context.Context, userID, code string) error
	Disconnect(ctx context.Context, userID string) error
	Connected(ctx context.Context, userID string) (bool, error)
	AccessToken(ctx context.Context, userID string) (string, error)
}

// calendarDirectory lists the calendars visible to an access token.
type calendarDirectory interface {
	ListCalendars(ctx context.Context, accessToken string) ([]google.CalendarListEntry, error)
}

// Handler carries the services behind the JSON API.
type Handler struct {
	cfg   *config.Config
	store *store.Store
	auth  *auth.Service

	googleAuth   *google.TokenClient
	googleDir    calendarDirectory
	connections  googleConnection
	mirror       todoMirror
	fetcher      eventFetcher
	presence     *presence.Service
	todoAuto     *automation.TodoAutomation
	shoppingAuto *automation.ShoppingAutomation
	mealAuto     *automation.MealAutomation
}

func NewHandler(
	cfg *config.Config,
	st *store.Store,
	authService *auth.Service,
	googleAuth *google.TokenClient,
	googleDir calendarDirectory,
	connections googleConnection,
	mirror todoMirror,
	fetcher eventFetcher,
	presenceService *presence.Service,
	todoAuto *automation.TodoAutomation,
	shoppingAuto *automation.ShoppingAutomation,
	mealAuto *automation.MealAutomation,
) *Handler {
	return &Handler{
		cfg:          cfg,
		store:        st,
		auth:         authService,
		googleAuth:   googleAuth,
		googleDir:    googleDir,
		connections:  connections,
		mirror:       mirror,
		fetcher:      fetcher,
		presence:     presenceService,
		todoAuto:     todoAuto,
		shoppingAuto: shoppingAuto,
		mealAuto:     mealAuto,
	}
}

// decodeJSON parses a request body into dst, limited to 1 MiB.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// currentUser returns the authenticated user; RequireSession guarantees it
// is present on API routes.
func currentUser(r *http.Request) *store.User {
	user, _ := auth.UserFromContext(r.Context())
	return user
}

// respondGoogleError maps the calendar integration's error taxonomy onto
// HTTP statuses: missing configuration is the operator's problem (409), a
// dead Google connection asks the client to reconnect (401 with a flag),
// anything else is a 502 towards Google.
func respondGoogleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, calendarsync.ErrSyncNotConfigured),
		errors.Is(err, calendarsync.ErrSyncAccountUnknown):
		httperrors.Error(w, http.StatusConflict, err.Error())
	case calendarsync.ReauthRequired(err):
		httperrors.JSON(w, http.StatusUnauthorized, map[string]any{
			"error":           "google connection needs to be re-established",
			"reauth_required": true,
		})
	default:
		httperrors.LogError(r, "google calendar request failed", err)
		httperrors.Error(w, http.StatusBadGateway, "google calendar request failed")
	}
}

func parseTimeRange(r *http.Request, defaultDays int) (time.Time, time.Time, error) {
	now := time.Now()
	from := now
	to := now.AddDate(0, 0, defaultDays)

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			parsed, err = time.Parse("2006-01-02", v)
		}
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from: %q", v)
		}
		from = parsed
		to = from.AddDate(0, 0, defaultDays)
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			parsed, err = time.Parse("2006-01-02", v)
		}
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to: %q", v)
		}
		to = parsed
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("empty range")
	}
	return from, to, nil
}
