package auth

import (
	"crypto/sha256"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/svanleeuwen/hearth/internal/config"
)

// SessionTTL is how long a login session stays valid. The cookie and the
// database row expire together.
const SessionTTL = 30 * 24 * time.Hour

// SessionManager encodes the session ID into a tamper-proof cookie. The
// session itself lives in the database so logins survive restarts and can be
// revoked server-side.
type SessionManager struct {
	cookieName string
	codec      *securecookie.SecureCookie
	secure     bool
}

func NewSessionManager(cfg *config.Config) *SessionManager {
	hash := sha256.Sum256([]byte(cfg.Session.Secret))
	hashKey := hash[:]

	// Derive an AES-256 sized block key to avoid invalid key length errors.
	blockKey := hash[:]
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(SessionTTL / time.Second))
	sc.SetSerializer(securecookie.JSONEncoder{})

	secure := true
	if base, err := url.Parse(cfg.BaseURL); err == nil && base.Scheme != "https" {
		secure = false
	}

	return &SessionManager{
		cookieName: "hearth_session",
		codec:      sc,
		secure:     secure,
	}
}

// Issue writes the session cookie for a stored session row.
func (m *SessionManager) Issue(w http.ResponseWriter, sessionID string, expiresAt time.Time) error {
	value := map[string]any{
		"sid": sessionID,
		"exp": expiresAt.Unix(),
	}

	encoded, err := m.codec.Encode(m.cookieName, value)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    encoded,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear removes the session cookie.
func (m *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
	})
}

// SessionID extracts the session ID from the request cookie if present and
// not yet expired.
func (m *SessionManager) SessionID(r *http.Request) (string, bool) {
	c, err := r.Cookie(m.cookieName)
	if err != nil {
		return "", false
	}

	var value map[string]any
	if err := m.codec.Decode(m.cookieName, c.Value, &value); err != nil {
		return "", false
	}

	exp, ok := value["exp"].(float64)
	if !ok || time.Unix(int64(exp), 0).Before(time.Now()) {
		return "", false
	}

	sid, ok := value["sid"].(string)
	if !ok || sid == "" {
		return "", false
	}
	return sid, true
}
