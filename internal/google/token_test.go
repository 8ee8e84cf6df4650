package google

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/svanleeuwen/hearth/internal/config"
)

func testTokenClient(t *testing.T, handler http.Handler) (*TokenClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{BaseURL: "https://hearth.example"}
	cfg.Google.ClientID = "client-id"
	cfg.Google.ClientSecret = "client-secret"
	cfg.Google.RedirectPath = "/api/calendar/callback"
	cfg.Google.AuthURL = srv.URL + "/auth"
	cfg.Google.TokenURL = srv.URL + "/token"

	return NewTokenClient(cfg), srv
}

func TestAuthCodeURLRequestsOfflineConsent(t *testing.T) {
	client, _ := testTokenClient(t, http.NotFoundHandler())

	u := client.AuthCodeURL("state-abc")
	for _, fragment := range []string{
		"access_type=offline",
		"prompt=consent",
		"state=state-abc",
		"redirect_uri=https%3A%2F%2Fhearth.example%2Fapi%2Fcalendar%2Fcallback",
	} {
		if !strings.Contains(u, fragment) {
			t.Errorf("auth URL missing %q: %s", fragment, u)
		}
	}
}

func TestRefreshSuccess(t *testing.T) {
	client, _ := testTokenClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("grant_type") != "refresh_token" {
			t.Errorf("unexpected grant_type: %q", r.PostForm.Get("grant_type"))
		}
		if r.PostForm.Get("refresh_token") != "refresh-1" {
			t.Errorf("unexpected refresh_token: %q", r.PostForm.Get("refresh_token"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh-access","expires_in":3600,"token_type":"Bearer"}`))
	}))

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	client.now = func() time.Time { return fixed }

	tok, err := client.Refresh(context.Background(), "refresh-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.AccessToken != "fresh-access" {
		t.Fatalf("unexpected access token: %q", tok.AccessToken)
	}
	if tok.RefreshToken != "" {
		t.Fatalf("expected no rotated refresh token, got %q", tok.RefreshToken)
	}
	if tok.ExpiresAt == nil || !tok.ExpiresAt.Equal(fixed.Add(time.Hour)) {
		t.Fatalf("unexpected expiry: %v", tok.ExpiresAt)
	}
}

func TestRefreshRejectedGrant(t *testing.T) {
	client, _ := testTokenClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`))
	}))

	_, err := client.Refresh(context.Background(), "revoked")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for invalid_grant, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid_grant") {
		t.Fatalf("expected grant error detail, got %v", err)
	}
}

func TestRefreshServerErrorIsNotUnauthorized(t *testing.T) {
	client, _ := testTokenClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.Refresh(context.Background(), "refresh-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Fatalf("transient server error must not look like a rejected grant: %v", err)
	}
}

func TestExchangeCode(t *testing.T) {
	client, _ := testTokenClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("code") != "auth-code" {
			t.Errorf("unexpected code: %q", r.PostForm.Get("code"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-1","refresh_token":"refresh-1","expires_in":3599,"token_type":"Bearer"}`))
	}))

	tok, err := client.ExchangeCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.AccessToken != "access-1" || tok.RefreshToken != "refresh-1" {
		t.Fatalf("unexpected token: %+v", tok)
	}
	if tok.ExpiresAt == nil {
		t.Fatal("expected expiry to be set")
	}
}
