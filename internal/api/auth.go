package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/svanleeuwen/hearth/internal/auth"
	httperrors "github.com/svanleeuwen/hearth/internal/http/errors"
	"github.com/svanleeuwen/hearth/internal/store"
)

type userResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Name      *string `json:"name,omitempty"`
	Role      string  `json:"role"`
	IsActive  bool    `json:"is_active"`
	SSOLinked bool    `json:"sso_linked"`
}

func toUserResponse(u *store.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		IsActive:  u.IsActive,
		SSOLinked: u.OIDCSubject != nil,
	}
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httperrors.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.auth.LoginPassword(r.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrNoPassword) {
		httperrors.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "login failed")
		return
	}

	if err := h.auth.CreateSession(r.Context(), w, r, user); err != nil {
		httperrors.InternalError(w, r, err, "create session")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"user": toUserResponse(user)})
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout(r.Context(), w, r)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	httperrors.JSON(w, http.StatusOK, map[string]any{
		"user":        toUserResponse(user),
		"sso_enabled": h.auth.SSOEnabled(),
	})
}

// ListSessions handles GET /auth/sessions, listing the caller's active
// logins. The session ID itself is the cookie secret, so only metadata is
// returned.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	sessions, err := h.store.Sessions.ListByUser(r.Context(), user.ID)
	if err != nil {
		httperrors.InternalError(w, r, err, "list sessions")
		return
	}

	type sessionResponse struct {
		ID         string  `json:"id"`
		UserAgent  *string `json:"user_agent,omitempty"`
		IPAddress  *string `json:"ip_address,omitempty"`
		CreatedAt  string  `json:"created_at"`
		LastSeenAt string  `json:"last_seen_at"`
		Current    bool    `json:"current"`
	}
	currentID := auth.SessionIDFromContext(r.Context())
	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionResponse{
			ID:         s.ID,
			UserAgent:  s.UserAgent,
			IPAddress:  s.IPAddress,
			CreatedAt:  s.CreatedAt.Format(time.RFC3339),
			LastSeenAt: s.LastSeenAt.Format(time.RFC3339),
			Current:    s.ID == currentID,
		})
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"sessions": out})
}

// RevokeSession handles DELETE /auth/sessions/{id}. Users can only revoke
// their own sessions.
func (h *Handler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	id := chi.URLParam(r, "id")

	session, err := h.store.Sessions.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFound(w, "session not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "get session")
		return
	}
	if session.UserID != user.ID {
		httperrors.NotFound(w, "session not found")
		return
	}

	if err := h.store.Sessions.Delete(r.Context(), id); err != nil {
		httperrors.InternalError(w, r, err, "revoke session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BeginSSO handles GET /auth/sso/login.
func (h *Handler) BeginSSO(w http.ResponseWriter, r *http.Request) {
	h.auth.BeginSSO(w, r)
}

// SSOCallback handles GET /auth/sso/callback and redirects back to the app.
func (h *Handler) SSOCallback(w http.ResponseWriter, r *http.Request) {
	if _, err := h.auth.HandleSSOCallback(w, r); err != nil {
		httperrors.LogWarn(r, "sso login rejected", err)
		httperrors.Error(w, http.StatusUnauthorized, "sso login failed")
		return
	}
	http.Redirect(w, r, h.cfg.BaseURL, http.StatusFound)
}
