package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"github.com/svanleeuwen/hearth/internal/config"
	"github.com/svanleeuwen/hearth/internal/store"
)

var (
	// ErrInvalidCredentials covers unknown emails, wrong passwords, and
	// deactivated accounts alike, so responses never reveal which it was.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrNoPassword means the account only has SSO login.
	ErrNoPassword = errors.New("auth: account has no password login")
)

const ssoStateCookie = "hearth_sso_state"

// Service owns login (password and optional OIDC SSO) and session lifecycle.
type Service struct {
	cfg      *config.Config
	store    *store.Store
	sessions *SessionManager

	oidcProvider *oidc.Provider
	oidcVerifier *oidc.IDTokenVerifier
	oidcOAuth    *oauth2.Config
}

func NewService(ctx context.Context, cfg *config.Config, st *store.Store, sessions *SessionManager) (*Service, error) {
	s := &Service{cfg: cfg, store: st, sessions: sessions}

	if cfg.OIDCEnabled() {
		provider, err := oidc.NewProvider(ctx, cfg.OIDC.IssuerURL)
		if err != nil {
			return nil, fmt.Errorf("discover OIDC issuer: %w", err)
		}
		s.oidcProvider = provider
		s.oidcVerifier = provider.Verifier(&oidc.Config{ClientID: cfg.OIDC.ClientID})
		s.oidcOAuth = &oauth2.Config{
			ClientID:     cfg.OIDC.ClientID,
			ClientSecret: cfg.OIDC.ClientSecret,
			RedirectURL:  strings.TrimRight(cfg.BaseURL, "/") + cfg.OIDC.RedirectPath,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		}
	}

	return s, nil
}

// SSOEnabled reports whether OIDC login is available.
func (s *Service) SSOEnabled() bool { return s.oidcOAuth != nil }

// LoginPassword checks email/password credentials against the local account.
func (s *Service) LoginPassword(ctx context.Context, email, password string) (*store.User, error) {
	user, err := s.store.Users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		// Burn roughly the same time as a real comparison.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$000000000000000000000uGZLKNmLYsrkON3zAgE3Lxl3lAW9mO2u"), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if user.PasswordHash == nil {
		return nil, ErrNoPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.store.Users.TouchLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// HashPassword produces the bcrypt hash stored on local accounts.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CreateSession persists a session row and sets the session cookie.
func (s *Service) CreateSession(ctx context.Context, w http.ResponseWriter, r *http.Request, user *store.User) error {
	session := store.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(SessionTTL),
	}
	if ua := r.UserAgent(); ua != "" {
		session.UserAgent = &ua
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		session.IPAddress = &host
	}

	if err := s.store.Sessions.Create(ctx, session); err != nil {
		return err
	}
	return s.sessions.Issue(w, session.ID, session.ExpiresAt)
}

// Logout deletes the session row and clears the cookie.
func (s *Service) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if sid, ok := s.sessions.SessionID(r); ok {
		_ = s.store.Sessions.Delete(ctx, sid)
	}
	s.sessions.Clear(w)
}

// PurgeExpiredSessions removes stale session rows. Called periodically from
// the server loop.
func (s *Service) PurgeExpiredSessions(ctx context.Context) error {
	return s.store.Sessions.DeleteExpired(ctx)
}

// BeginSSO redirects to the identity provider with a state nonce bound to a
// short-lived cookie.
func (s *Service) BeginSSO(w http.ResponseWriter, r *http.Request) {
	if s.oidcOAuth == nil {
		http.Error(w, "sso login is not configured", http.StatusNotFound)
		return
	}

	state := randomState()
	http.SetCookie(w, &http.Cookie{
		Name:     ssoStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   s.sessions.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.oidcOAuth.AuthCodeURL(state), http.StatusFound)
}

// HandleSSOCallback completes the OIDC flow: verifies state and ID token,
// maps the identity onto a household account, and starts a session. Unknown
// identities are rejected; accounts are provisioned by an admin, not on
// first login.
func (s *Service) HandleSSOCallback(w http.ResponseWriter, r *http.Request) (*store.User, error) {
	if s.oidcOAuth == nil {
		return nil, errors.New("sso login is not configured")
	}

	stateCookie, err := r.Cookie(ssoStateCookie)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		return nil, errors.New("state mismatch")
	}
	http.SetCookie(w, &http.Cookie{Name: ssoStateCookie, Value: "", Path: "/", MaxAge: -1})

	ctx := r.Context()
	token, err := s.oidcOAuth.Exchange(ctx, r.URL.Query().Get("code"))
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, errors.New("token response carried no id_token")
	}
	idToken, err := s.oidcVerifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}

	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}

	user, err := s.userForIdentity(ctx, idToken.Subject, claims.Email)
	if err != nil {
		return nil, err
	}
	if err := s.store.Users.TouchLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}
	if err := s.CreateSession(ctx, w, r, user); err != nil {
		return nil, err
	}
	return user, nil
}

// userForIdentity finds the account for an OIDC identity, linking the
// subject to an email-matched account on first SSO login.
func (s *Service) userForIdentity(ctx context.Context, subject, email string) (*store.User, error) {
	user, err := s.store.Users.GetByOIDCSubject(ctx, subject)
	if err == nil {
		if !user.IsActive {
			return nil, ErrInvalidCredentials
		}
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if email == "" {
		return nil, ErrInvalidCredentials
	}
	user, err = s.store.Users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	linked := *user
	linked.OIDCSubject = &subject
	if err := s.store.Users.Update(ctx, linked); err != nil {
		return nil, err
	}
	return &linked, nil
}

// Authenticate resolves the request's session to a user, or nil when the
// request carries no valid session.
func (s *Service) Authenticate(r *http.Request) (*store.User, string) {
	sid, ok := s.sessions.SessionID(r)
	if !ok {
		return nil, ""
	}

	ctx := r.Context()
	session, err := s.store.Sessions.GetByID(ctx, sid)
	if err != nil || session.ExpiresAt.Before(time.Now()) {
		return nil, ""
	}

	user, err := s.store.Users.GetByID(ctx, session.UserID)
	if err != nil || !user.IsActive {
		return nil, ""
	}

	// Best effort; a failed touch must not fail the request.
	_ = s.store.Sessions.TouchLastSeen(ctx, sid)
	return user, sid
}

// RequireSession rejects requests without a valid session and puts the user
// on the context.
func (s *Service) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, sid := s.Authenticate(r)
		if user == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"authentication required"}`))
			return
		}

		ctx := WithUser(r.Context(), user)
		ctx = WithSessionID(ctx, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects non-admin users. Must run after RequireSession.
func (s *Service) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok || !user.IsAdmin() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"admin access required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func randomState() string {
	b := make([]byte, 24)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
