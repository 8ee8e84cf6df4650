package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/svanleeuwen/hearth/internal/calendarsync"
	"github.com/svanleeuwen/hearth/internal/google"
	"github.com/svanleeuwen/hearth/internal/store"
	"github.com/svanleeuwen/hearth/internal/tokens"
)

func TestCalendarEventsDefaultsToPrimary(t *testing.T) {
	env := newTestEnv()
	env.fetcher.result = &calendarsync.CalendarEvents{
		Events: []google.Event{{ID: "e1", Summary: "Dentist"}},
	}

	rec, body := env.do(t, http.MethodGet, "/api/calendar/events", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(env.fetcher.calendarIDs) != 1 || env.fetcher.calendarIDs[0] != "primary" {
		t.Fatalf("expected fallback to primary, got %v", env.fetcher.calendarIDs)
	}
	if body["connected"] != true {
		t.Fatalf("expected connected=true, got %v", body["connected"])
	}
	events := body["events"].([]any)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
}

func TestCalendarEventsUsesAssignedCalendars(t *testing.T) {
	env := newTestEnv()
	env.assignments.assignments = []store.CalendarAssignment{
		{ID: "a1", UserID: testUser.ID, CalendarID: "family@group.calendar.google.com"},
		{ID: "a2", UserID: testUser.ID, CalendarID: "work@example.com"},
		{ID: "a3", UserID: "someone-else", CalendarID: "other@example.com"},
	}

	rec, _ := env.do(t, http.MethodGet, "/api/calendar/events", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(env.fetcher.calendarIDs) != 2 {
		t.Fatalf("expected the user's two calendars, got %v", env.fetcher.calendarIDs)
	}
}

func TestCalendarEventsNotConnected(t *testing.T) {
	env := newTestEnv()
	env.fetcher.err = tokens.ErrNotConnected

	rec, body := env.do(t, http.MethodGet, "/api/calendar/events", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("a missing connection is not an error, got %d", rec.Code)
	}
	if body["connected"] != false {
		t.Fatalf("expected connected=false, got %v", body["connected"])
	}
}

func TestCalendarEventsReauthRequired(t *testing.T) {
	env := newTestEnv()
	env.fetcher.err = tokens.ErrReauthRequired

	rec, body := env.do(t, http.MethodGet, "/api/calendar/events", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if body["reauth_required"] != true {
		t.Fatalf("expected reauth_required flag, got %v", body)
	}
}

func TestCalendarEventsUpstreamFailure(t *testing.T) {
	env := newTestEnv()
	env.fetcher.err = errors.New("google 500")

	rec, _ := env.do(t, http.MethodGet, "/api/calendar/events", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestCalendarEventsRejectsEmptyRange(t *testing.T) {
	env := newTestEnv()
	rec, _ := env.do(t, http.MethodGet, "/api/calendar/events?from=2026-03-08&to=2026-03-01", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListGoogleCalendarsReauth(t *testing.T) {
	env := newTestEnv()
	env.connections.tokenErr = tokens.ErrReauthRequired

	rec, body := env.do(t, http.MethodGet, "/api/calendar/calendars", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if body["reauth_required"] != true {
		t.Fatalf("expected reauth_required flag, got %v", body)
	}
}
