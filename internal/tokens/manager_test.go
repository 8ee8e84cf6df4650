package tokens

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/svanleeuwen/hearth/internal/google"
	"github.com/svanleeuwen/hearth/internal/store"
)

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]store.GoogleToken

	upserts int
	updates int
	deletes int
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]store.GoogleToken)}
}

func (f *fakeTokenRepo) Upsert(ctx context.Context, token store.GoogleToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	f.tokens[token.UserID] = token
	return nil
}

func (f *fakeTokenRepo) GetByUser(ctx context.Context, userID string) (*store.GoogleToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok, ok := f.tokens[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	copy := tok
	return &copy, nil
}

func (f *fakeTokenRepo) UpdateAccess(ctx context.Context, userID, accessToken string, expiresAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok, ok := f.tokens[userID]
	if !ok {
		return store.ErrNotFound
	}
	f.updates++
	tok.AccessToken = accessToken
	tok.ExpiresAt = expiresAt
	f.tokens[userID] = tok
	return nil
}

func (f *fakeTokenRepo) Delete(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	delete(f.tokens, userID)
	return nil
}

type fakeExchanger struct {
	mu        sync.Mutex
	refreshes int

	exchangeToken *google.Token
	exchangeErr   error
	refreshToken  *google.Token
	refreshErr    error
}

func (f *fakeExchanger) ExchangeCode(ctx context.Context, code string) (*google.Token, error) {
	return f.exchangeToken, f.exchangeErr
}

func (f *fakeExchanger) Refresh(ctx context.Context, refreshToken string) (*google.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	copy := *f.refreshToken
	return &copy, nil
}

func strptr(s string) *string { return &s }

func timeptr(t time.Time) *time.Time { return &t }

func newTestManager(repo *fakeTokenRepo, oauth *fakeExchanger, now time.Time) *Manager {
	m := NewManager(repo, oauth)
	m.now = func() time.Time { return now }
	return m
}

func TestAccessTokenValidTokenSkipsRefresh(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := newFakeTokenRepo()
	repo.tokens["u1"] = store.GoogleToken{
		UserID:       "u1",
		AccessToken:  "valid-access",
		RefreshToken: strptr("refresh-1"),
		ExpiresAt:    timeptr(now.Add(30 * time.Minute)),
	}
	oauth := &fakeExchanger{}
	m := newTestManager(repo, oauth, now)

	got, err := m.AccessToken(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "valid-access" {
		t.Fatalf("unexpected token: %q", got)
	}
	if oauth.refreshes != 0 {
		t.Fatalf("expected no refresh, got %d", oauth.refreshes)
	}
}

func TestAccessTokenRefreshesExpiredAndPersists(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := newFakeTokenRepo()
	repo.tokens["u1"] = store.GoogleToken{
		UserID:       "u1",
		AccessToken:  "stale-access",
		RefreshToken: strptr("refresh-1"),
		ExpiresAt:    timeptr(now.Add(-time.Minute)),
	}
	oauth := &fakeExchanger{refreshToken: &google.Token{
		AccessToken: "fresh-access",
		ExpiresAt:   timeptr(now.Add(time.Hour)),
	}}
	m := newTestManager(repo, oauth, now)

	got, err := m.AccessToken(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "fresh-access" {
		t.Fatalf("unexpected token: %q", got)
	}
	if oauth.refreshes != 1 {
		t.Fatalf("expected one refresh, got %d", oauth.refreshes)
	}
	if repo.updates != 1 {
		t.Fatalf("expected refreshed token to be persisted, got %d updates", repo.updates)
	}
	stored := repo.tokens["u1"]
	if stored.AccessToken != "fresh-access" {
		t.Fatalf("store still carries %q", stored.AccessToken)
	}
	if stored.RefreshToken == nil || *stored.RefreshToken != "refresh-1" {
		t.Fatalf("refresh token must survive an access refresh, got %v", stored.RefreshToken)
	}
}

func TestAccessTokenNoExpiryIsUsable(t *testing.T) {
	// A token with no recorded expiry is treated as usable; only a recorded
	// past expiry triggers the refresh path.
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := newFakeTokenRepo()
	repo.tokens["u1"] = store.GoogleToken{
		UserID:       "u1",
		AccessToken:  "no-expiry-access",
		RefreshToken: strptr("refresh-1"),
	}
	oauth := &fakeExchanger{}
	m := newTestManager(repo, oauth, now)

	got, err := m.AccessToken(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "no-expiry-access" || oauth.refreshes != 0 {
		t.Fatalf("expected stored token without refresh, got %q after %d refreshes", got, oauth.refreshes)
	}
}

func TestForceRefreshRotatesRejectedUnexpiredToken(t *testing.T) {
	// A revoked grant (or clock skew) makes the API reject a token the store
	// still considers valid. ForceRefresh must rotate it anyway instead of
	// handing the rejected token straight back.
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := newFakeTokenRepo()
	repo.tokens["u1"] = store.GoogleToken{
		UserID:       "u1",
		AccessToken:  "stale-rejected",
		RefreshToken: strptr("refresh-1"),
		ExpiresAt:    timeptr(now.Add(30 * time.Minute)),
	}
	oauth := &fakeExchanger{refreshToken: &google.Token{
		AccessToken: "fresh-access",
		ExpiresAt:   timeptr(now.Add(time.Hour)),
	}}
	m := newTestManager(repo, oauth, now)

	got, err := m.ForceRefresh(context.Background(), "u1", "stale-rejected")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == "stale-rejected" {
		t.Fatal("ForceRefresh handed back the rejected access token")
	}
	if got != "fresh-access" {
		t.Fatalf("unexpected token: %q", got)
	}
	if oauth.refreshes != 1 {
		t.Fatalf("expected one refresh, got %d", oauth.refreshes)
	}
	if repo.tokens["u1"].AccessToken != "fresh-access" {
		t.Fatalf("rotation not persisted, store carries %q", repo.tokens["u1"].AccessToken)
	}
}

func TestForceRefreshRotatesRejectedTokenWithoutExpiry(t *testing.T) {
	// No recorded expiry never blocks rotation of a token the API refused.
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := newFakeTokenRepo()
	repo.tokens["u1"] = store.GoogleToken{
		UserID:       "u1",
		AccessToken:  "stale-rejected",
		RefreshToken: strptr("refresh-1"),
	}
	oauth := &fakeExchanger{refreshToken: &google.Token{
		AccessToken: "fresh-access",
		ExpiresAt:   timeptr(now.Add(time.Hour)),
	}}
	m := newTestManager(repo, oauth, now)

	got, err := m.ForceRefresh(context.Background(), "u1", "stale-rejected")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "fresh-access" || oauth.refreshes != 1 {
		t.Fatalf("expected rotation, got %q after %d refreshes", got, oauth.refreshes)
	}
}

func TestForceRefreshReusesConcurrentRotation(t *testing.T) {
	// When another caller already rotated the token while we waited for the
	// lock, the stored token differs from the rejected one and is reused
	// without a second round-trip.
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := newFakeTokenRepo()
	repo.tokens["u1"] = store.GoogleToken{
		UserID:       "u1",
		AccessToken:  "already-rotated",
		RefreshToken: strptr("refresh-1"),
		ExpiresAt:    timeptr(now.Add(30 * time.Minute)),
	}
	oauth := &fakeExchanger{}
	m := newTestManager(repo, oauth, now)

	got, err := m.ForceRefresh(context.Background(), "u1", "stale-rejected")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "already-rotated" {
		t.Fatalf("expected the concurrently rotated token, got %q", got)
	}
	if oauth.refreshes != 0 {
		t.Fatalf("expected no refresh, got %d", oauth.refreshes)
	}
}

func TestAccessTokenRejectedRefreshClearsCredentials(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := newFakeTokenRepo()
	repo.tokens["u1"] = store.GoogleToken{
		UserID:       "u1",
		AccessToken:  "stale-access",
		RefreshToken: strptr("revoked"),
		ExpiresAt:    timeptr(now.Add(-time.Minute)),
	}
	oauth := &fakeExchanger{refreshErr: fmt.Errorf("invalid_grant: %w", google.ErrUnauthorized)}
	m := newTestManager(repo, oauth, now)

	_, err := m.AccessToken(context.Background(), "u1")
	if !errors.Is(err, ErrReauthRequired) {
		t.Fatalf("expected ErrReauthRequired, got %v", err)
	}
	if _, ok := repo.tokens["u1"]; ok {
		t.Fatal("expected rejected credentials to be deleted")
	}
}

func TestAccessTokenTransientRefreshFailureKeepsCredentials(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := newFakeTokenRepo()
	repo.tokens["u1"] = store.GoogleToken{
		UserID:       "u1",
		AccessToken:  "stale-access",
		RefreshToken: strptr("refresh-1"),
		ExpiresAt:    timeptr(now.Add(-time.Minute)),
	}
	oauth := &fakeExchanger{refreshErr: errors.New("connection reset")}
	m := newTestManager(repo, oauth, now)

	_, err := m.AccessToken(context.Background(), "u1")
	if err == nil || errors.Is(err, ErrReauthRequired) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if _, ok := repo.tokens["u1"]; !ok {
		t.Fatal("credentials must survive a transient refresh failure")
	}
}

func TestAccessTokenMissingRefreshTokenClearsCredentials(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := newFakeTokenRepo()
	repo.tokens["u1"] = store.GoogleToken{
		UserID:      "u1",
		AccessToken: "stale-access",
		ExpiresAt:   timeptr(now.Add(-time.Minute)),
	}
	m := newTestManager(repo, &fakeExchanger{}, now)

	_, err := m.AccessToken(context.Background(), "u1")
	if !errors.Is(err, ErrReauthRequired) {
		t.Fatalf("expected ErrReauthRequired, got %v", err)
	}
	if repo.deletes != 1 {
		t.Fatalf("expected credentials to be cleared, got %d deletes", repo.deletes)
	}
}

func TestAccessTokenNotConnected(t *testing.T) {
	m := newTestManager(newFakeTokenRepo(), &fakeExchanger{}, time.Now())

	_, err := m.AccessToken(context.Background(), "stranger")
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestConcurrentCallersRefreshOnce(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := newFakeTokenRepo()
	repo.tokens["u1"] = store.GoogleToken{
		UserID:       "u1",
		AccessToken:  "stale-access",
		RefreshToken: strptr("refresh-1"),
		ExpiresAt:    timeptr(now.Add(-time.Minute)),
	}
	oauth := &fakeExchanger{refreshToken: &google.Token{
		AccessToken: "fresh-access",
		ExpiresAt:   timeptr(now.Add(time.Hour)),
	}}
	m := newTestManager(repo, oauth, now)

	var wg sync.WaitGroup
	results := make([]string, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = m.AccessToken(context.Background(), "u1")
		}(i)
	}
	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		if results[i] != "fresh-access" {
			t.Fatalf("caller %d got %q", i, results[i])
		}
	}
	if oauth.refreshes != 1 {
		t.Fatalf("expected a single refresh across concurrent callers, got %d", oauth.refreshes)
	}
}

func TestConnectRequiresRefreshToken(t *testing.T) {
	repo := newFakeTokenRepo()
	oauth := &fakeExchanger{exchangeToken: &google.Token{AccessToken: "access-only"}}
	m := newTestManager(repo, oauth, time.Now())

	if err := m.Connect(context.Background(), "u1", "code"); err == nil {
		t.Fatal("expected error when google returns no refresh token")
	}
	if repo.upserts != 0 {
		t.Fatal("no credentials may be stored without a refresh token")
	}
}

func TestConnectStoresCredentials(t *testing.T) {
	now := time.Now()
	repo := newFakeTokenRepo()
	oauth := &fakeExchanger{exchangeToken: &google.Token{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    timeptr(now.Add(time.Hour)),
	}}
	m := newTestManager(repo, oauth, now)

	if err := m.Connect(context.Background(), "u1", "code"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored := repo.tokens["u1"]
	if stored.AccessToken != "access-1" || stored.RefreshToken == nil || *stored.RefreshToken != "refresh-1" {
		t.Fatalf("unexpected stored token: %+v", stored)
	}

	connected, err := m.Connected(context.Background(), "u1")
	if err != nil || !connected {
		t.Fatalf("expected connected, got %v / %v", connected, err)
	}

	if err := m.Disconnect(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	connected, err = m.Connected(context.Background(), "u1")
	if err != nil || connected {
		t.Fatalf("expected disconnected, got %v / %v", connected, err)
	}
}
