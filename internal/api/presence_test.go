package api

import (
	"net/http"
	"testing"

	"github.com/svanleeuwen/hearth/internal/store"
)

func TestReportLocationInsideFence(t *testing.T) {
	env := newTestEnv()
	env.home.home = &store.HomeLocation{
		DisplayName:  "Home",
		Latitude:     52.3676,
		Longitude:    4.9041,
		RadiusMeters: 150,
	}

	rec, body := env.do(t, http.MethodPost, "/api/location", map[string]any{
		"latitude":  52.3676,
		"longitude": 4.9041,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body["status"] != "home" {
		t.Fatalf("expected status home, got %v", body["status"])
	}
	if body["home"] != "Home" {
		t.Fatalf("expected home name echoed back, got %v", body["home"])
	}
}

func TestReportLocationWithoutHomeConfigured(t *testing.T) {
	env := newTestEnv()

	rec, _ := env.do(t, http.MethodPost, "/api/location", map[string]any{
		"latitude":  52.0,
		"longitude": 4.0,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 when no geofence is set, got %d", rec.Code)
	}
}

func TestReportLocationInvalidCoordinates(t *testing.T) {
	env := newTestEnv()
	env.home.home = &store.HomeLocation{Latitude: 52, Longitude: 4, RadiusMeters: 100}

	rec, _ := env.do(t, http.MethodPost, "/api/location", map[string]any{
		"latitude":  123.0,
		"longitude": 4.0,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListLocationsShowsEveryone(t *testing.T) {
	env := newTestEnv()
	env.home.home = &store.HomeLocation{Latitude: 52, Longitude: 4, RadiusMeters: 100}

	if rec, _ := env.do(t, http.MethodPost, "/api/location", map[string]any{
		"latitude":  52.0,
		"longitude": 4.0,
	}); rec.Code != http.StatusOK {
		t.Fatalf("report failed with %d", rec.Code)
	}

	rec, body := env.do(t, http.MethodGet, "/api/location", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	locations := body["locations"].([]any)
	if len(locations) != 1 {
		t.Fatalf("expected 1 location, got %d", len(locations))
	}
	loc := locations[0].(map[string]any)
	if loc["user_id"] != testUser.ID || loc["status"] != "home" {
		t.Fatalf("unexpected location payload: %v", loc)
	}
}
