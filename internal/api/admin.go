package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/svanleeuwen/hearth/internal/auth"
	"github.com/svanleeuwen/hearth/internal/geo"
	httperrors "github.com/svanleeuwen/hearth/internal/http/errors"
	"github.com/svanleeuwen/hearth/internal/store"
)

type adminUserRequest struct {
	Email    string  `json:"email"`
	Name     *string `json:"name"`
	Password *string `json:"password"`
	Role     string  `json:"role"`
	IsActive *bool   `json:"is_active"`
}

// ListUsers handles GET /api/admin/users. Deactivated accounts are included
// so an admin can find and reactivate them.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.Users.List(r.Context())
	if err != nil {
		httperrors.InternalError(w, r, err, "list users")
		return
	}
	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"users": out})
}

// CreateUser handles POST /api/admin/users. Accounts created without a
// password can only log in through SSO.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req adminUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid request body")
		return
	}
	if req.Email == "" {
		httperrors.Error(w, http.StatusBadRequest, "email is required")
		return
	}
	if req.Role == "" {
		req.Role = store.RoleMember
	}
	if req.Role != store.RoleAdmin && req.Role != store.RoleMember {
		httperrors.Error(w, http.StatusBadRequest, "role must be admin or member")
		return
	}
	if existing, err := h.store.Users.GetByEmail(r.Context(), req.Email); err == nil && existing != nil {
		httperrors.Conflict(w, "a user with that email already exists")
		return
	}

	user := store.User{
		ID:       uuid.NewString(),
		Email:    req.Email,
		Name:     req.Name,
		Role:     req.Role,
		IsActive: true,
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			httperrors.InternalError(w, r, err, "hash password")
			return
		}
		user.PasswordHash = &hash
	}

	created, err := h.store.Users.Create(r.Context(), user)
	if err != nil {
		httperrors.InternalError(w, r, err, "create user")
		return
	}
	httperrors.JSON(w, http.StatusCreated, map[string]any{"user": toUserResponse(created)})
}

// UpdateUser handles PUT /api/admin/users/{id}.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.Users.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFound(w, "user not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "get user")
		return
	}

	var req adminUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid request body")
		return
	}
	if req.Email == "" {
		httperrors.Error(w, http.StatusBadRequest, "email is required")
		return
	}
	if req.Role != "" && req.Role != store.RoleAdmin && req.Role != store.RoleMember {
		httperrors.Error(w, http.StatusBadRequest, "role must be admin or member")
		return
	}

	user.Email = req.Email
	user.Name = req.Name
	if req.Role != "" {
		user.Role = req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			httperrors.InternalError(w, r, err, "hash password")
			return
		}
		user.PasswordHash = &hash
	}

	if err := h.store.Users.Update(r.Context(), *user); err != nil {
		httperrors.InternalError(w, r, err, "update user")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"user": toUserResponse(user)})
}

// DeleteUser handles DELETE /api/admin/users/{id}. Admins cannot delete
// their own account.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == currentUser(r).ID {
		httperrors.Conflict(w, "you cannot delete your own account")
		return
	}
	err := h.store.Users.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFound(w, "user not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHomeLocation handles GET /api/admin/home-location.
func (h *Handler) GetHomeLocation(w http.ResponseWriter, r *http.Request) {
	home, err := h.store.HomeLocation.Get(r.Context())
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFound(w, "home location is not configured")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "get home location")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"home": home})
}

// PutHomeLocation handles PUT /api/admin/home-location, setting the
// geofence center and radius.
func (h *Handler) PutHomeLocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName  string  `json:"display_name"`
		Latitude     float64 `json:"latitude"`
		Longitude    float64 `json:"longitude"`
		RadiusMeters float64 `json:"radius_meters"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid request body")
		return
	}
	if !geo.Valid(req.Latitude, req.Longitude) {
		httperrors.Error(w, http.StatusBadRequest, "invalid coordinates")
		return
	}
	if req.RadiusMeters <= 0 {
		httperrors.Error(w, http.StatusBadRequest, "radius_meters must be positive")
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = "Home"
	}

	home := store.HomeLocation{
		DisplayName:  req.DisplayName,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		RadiusMeters: req.RadiusMeters,
		UpdatedAt:    time.Now(),
	}
	if err := h.store.HomeLocation.Put(r.Context(), home); err != nil {
		httperrors.InternalError(w, r, err, "save home location")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"home": home})
}

// ListCalendarConfigs handles GET /api/admin/calendar-configs.
func (h *Handler) ListCalendarConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := h.store.CalendarConfigs.List(r.Context())
	if err != nil {
		httperrors.InternalError(w, r, err, "list calendar configs")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"configs": configs})
}

// ActivateCalendarConfig handles POST /api/admin/calendar-configs: it makes
// the given calendar the mirror target, deactivating any previous one.
func (h *Handler) ActivateCalendarConfig(w http.ResponseWriter, r *http.Request) {
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

	cfg, err := h.store.CalendarConfigs.Activate(r.Context(), store.CalendarConfig{
		ID:           uuid.NewString(),
		CalendarID:   req.CalendarID,
		CalendarName: req.CalendarName,
	})
	if err != nil {
		httperrors.InternalError(w, r, err, "activate calendar config")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"config": cfg})
}

// DeactivateCalendarConfig handles POST /api/admin/calendar-configs/{id}/deactivate.
func (h *Handler) DeactivateCalendarConfig(w http.ResponseWriter, r *http.Request) {
	err := h.store.CalendarConfigs.Deactivate(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFound(w, "calendar config not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "deactivate calendar config")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCalendarConfig handles DELETE /api/admin/calendar-configs/{id}.
func (h *Handler) DeleteCalendarConfig(w http.ResponseWriter, r *http.Request) {
	err := h.store.CalendarConfigs.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFound(w, "calendar config not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "delete calendar config")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type todoTemplateRequest struct {
	Title             string  `json:"title"`
	Description       *string `json:"description"`
	Category          *string `json:"category"`
	DefaultAssignedTo *string `json:"default_assigned_to"`
	EstimatedMinutes  *int    `json:"estimated_minutes"`
	IsActive          *bool   `json:"is_active"`
}

// ListTodoTemplates handles GET /api/admin/todo-templates.
func (h *Handler) ListTodoTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.store.TodoTemplates.List(r.Context())
	if err != nil {
		httperrors.InternalError(w, r, err, "list todo templates")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"templates": templates})
}

// CreateTodoTemplate handles POST /api/admin/todo-templates.
func (h *Handler) CreateTodoTemplate(w http.ResponseWriter, r *http.Request) {
	var req todoTemplateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid request body")
		return
	}
	if req.Title == "" {
		httperrors.Error(w, http.StatusBadRequest, "title is required")
		return
	}

	tpl, err := h.store.TodoTemplates.Create(r.Context(), store.TodoTemplate{
		ID:                uuid.NewString(),
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		DefaultAssignedTo: req.DefaultAssignedTo,
		EstimatedMinutes:  req.EstimatedMinutes,
		IsActive:          true,
	})
	if err != nil {
		httperrors.InternalError(w, r, err, "create todo template")
		return
	}
	httperrors.JSON(w, http.StatusCreated, map[string]any{"template": tpl})
}

// UpdateTodoTemplate handles PUT /api/admin/todo-templates/{id}.
func (h *Handler) UpdateTodoTemplate(w http.ResponseWriter, r *http.Request) {
	var req todoTemplateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid request body")
		return
	}
	if req.Title == "" {
		httperrors.Error(w, http.StatusBadRequest, "title is required")
		return
	}

	tpl := store.TodoTemplate{
		ID:                chi.URLParam(r, "id"),
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		DefaultAssignedTo: req.DefaultAssignedTo,
		EstimatedMinutes:  req.EstimatedMinutes,
		IsActive:          req.IsActive == nil || *req.IsActive,
	}
	if err := h.store.TodoTemplates.Update(r.Context(), tpl); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httperrors.NotFound(w, "todo template not found")
			return
		}
		httperrors.InternalError(w, r, err, "update todo template")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"template": tpl})
}

// DeleteTodoTemplate handles DELETE /api/admin/todo-templates/{id}.
func (h *Handler) DeleteTodoTemplate(w http.ResponseWriter, r *http.Request) {
	err := h.store.TodoTemplates.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFound(w, "todo template not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "delete todo template")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RunAutomation handles POST /api/admin/automation/{job}, triggering one of
// the household automation jobs on demand.
func (h *Handler) RunAutomation(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "job") {
	case "todos-generate":
		created, err := h.todoAuto.GenerateFromTemplates(r.Context())
		if err != nil {
			httperrors.InternalError(w, r, err, "generate todos")
			return
		}
		httperrors.JSON(w, http.StatusOK, map[string]any{"created": created})
	case "todos-escalate":
		escalated, err := h.todoAuto.EscalateOverdue(r.Context())
		if err != nil {
			httperrors.InternalError(w, r, err, "escalate todos")
			return
		}
		httperrors.JSON(w, http.StatusOK, map[string]any{"escalated": len(escalated)})
	case "todos-assign":
		assigned, err := h.todoAuto.AssignUnassigned(r.Context())
		if err != nil {
			httperrors.InternalError(w, r, err, "assign todos")
			return
		}
		httperrors.JSON(w, http.StatusOK, map[string]any{"assigned": assigned})
	case "shopping-restock":
		restocked, err := h.shoppingAuto.RestockDueItems(r.Context())
		if err != nil {
			httperrors.InternalError(w, r, err, "restock shopping list")
			return
		}
		httperrors.JSON(w, http.StatusOK, map[string]any{"restocked": restocked})
	case "shopping-clear-checked":
		if err := h.shoppingAuto.ClearChecked(r.Context()); err != nil {
			httperrors.InternalError(w, r, err, "clear checked items")
			return
		}
		httperrors.JSON(w, http.StatusOK, map[string]any{"cleared": true})
	default:
		httperrors.NotFound(w, "unknown automation job")
	}
}

// TodoStats handles GET /api/admin/todo-stats.
func (h *Handler) TodoStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.todoAuto.Stats(r.Context())
	if err != nil {
		httperrors.InternalError(w, r, err, "todo stats")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"stats": stats})
}
