// Package tokens owns the Google OAuth credential lifecycle: storing tokens
// on connect, serving fresh access tokens, and dropping credentials the
// moment a refresh grant is rejected.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/svanleeuwen/hearth/internal/google"
	"github.com/svanleeuwen/hearth/internal/metrics"
	"github.com/svanleeuwen/hearth/internal/store"
)

var (
	// ErrNotConnected means the user never linked a Google account (or it
	// was disconnected).
	ErrNotConnected = errors.New("tokens: google account not connected")

	// ErrReauthRequired means stored credentials were rejected and removed;
	// the user must run the consent flow again.
	ErrReauthRequired = errors.New("tokens: google reauthorization required")
)

// exchanger is the slice of the Google token client the manager needs.
type exchanger interface {
	ExchangeCode(ctx context.Context, code string) (*google.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*google.Token, error)
}

// Manager hands out valid access tokens, refreshing expired ones at most
// once per identity at a time.
type Manager struct {
	repo  store.GoogleTokenRepository
	oauth exchanger
	now   func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewManager(repo store.GoogleTokenRepository, oauth exchanger) *Manager {
	return &Manager{
		repo:  repo,
		oauth: oauth,
		now:   time.Now,
		locks: make(map[string]*sync.Mutex),
	}
}

// Connect stores the credentials obtained from an authorization-code
// exchange. A connect without a refresh token is rejected: without one the
// integration would silently die when the first access token expires.
func (m *Manager) Connect(ctx context.Context, userID, code string) error {
	tok, err := m.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return err
	}
	if tok.RefreshToken == "" {
		return fmt.Errorf("google returned no refresh token; revoke access at https://myaccount.google.com/permissions and reconnect")
	}

	refresh := tok.RefreshToken
	return m.repo.Upsert(ctx, store.GoogleToken{
		UserID:       userID,
		AccessToken:  tok.AccessToken,
		RefreshToken: &refresh,
		ExpiresAt:    tok.ExpiresAt,
	})
}

// Disconnect removes stored credentials for the user.
func (m *Manager) Disconnect(ctx context.Context, userID string) error {
	return m.repo.Delete(ctx, userID)
}

// Connected reports whether the user has stored Google credentials.
func (m *Manager) Connected(ctx context.Context, userID string) (bool, error) {
	_, err := m.repo.GetByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AccessToken returns a currently valid access token for the user,
// refreshing it first when the stored one has expired. The refreshed token
// is persisted before it is handed out, so a crash mid-request never loses
// a rotation. Refresh rejections clear the stored credentials and surface
// ErrReauthRequired.
func (m *Manager) AccessToken(ctx context.Context, userID string) (string, error) {
	tok, err := m.repo.GetByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNotConnected
	}
	if err != nil {
		return "", err
	}
	if !tok.Expired(m.now()) {
		return tok.AccessToken, nil
	}
	return m.refresh(ctx, userID, tok.AccessToken)
}

// ForceRefresh refreshes after the API rejected an access token the store
// still considered valid (revoked grant, clock skew). rejected is the token
// the API refused; it is never handed back, no matter what the stored expiry
// says.
func (m *Manager) ForceRefresh(ctx context.Context, userID, rejected string) (string, error) {
	return m.refresh(ctx, userID, rejected)
}

func (m *Manager) refresh(ctx context.Context, userID, rejected string) (string, error) {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock: a concurrent caller may have refreshed while
	// we waited. Only a token that differs from the rejected one counts —
	// an unexpired stored token the API already refused must still be
	// rotated, not served again.
	tok, err := m.repo.GetByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNotConnected
	}
	if err != nil {
		return "", err
	}
	if tok.AccessToken != rejected && !tok.Expired(m.now()) {
		return tok.AccessToken, nil
	}

	if tok.RefreshToken == nil || *tok.RefreshToken == "" {
		metrics.ObserveTokenRefresh("reauth_required")
		if err := m.repo.Delete(ctx, userID); err != nil {
			return "", fmt.Errorf("clear credentials without refresh token: %w", err)
		}
		return "", ErrReauthRequired
	}

	fresh, err := m.oauth.Refresh(ctx, *tok.RefreshToken)
	if err != nil {
		if errors.Is(err, google.ErrUnauthorized) {
			metrics.ObserveTokenRefresh("reauth_required")
			if delErr := m.repo.Delete(ctx, userID); delErr != nil {
				return "", fmt.Errorf("clear rejected credentials: %w", delErr)
			}
			return "", fmt.Errorf("%w: %v", ErrReauthRequired, err)
		}
		metrics.ObserveTokenRefresh("failure")
		return "", err
	}

	if err := m.repo.UpdateAccess(ctx, userID, fresh.AccessToken, fresh.ExpiresAt); err != nil {
		return "", fmt.Errorf("persist refreshed token: %w", err)
	}
	metrics.ObserveTokenRefresh("success")
	return fresh.AccessToken, nil
}

func (m *Manager) userLock(userID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[userID] = lock
	}
	return lock
}
