package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httperrors "github.com/svanleeuwen/hearth/internal/http/errors"
	"github.com/svanleeuwen/hearth/internal/store"
)

type todoRequest struct {
	Title          string     `json:"title"`
	Description    *string    `json:"description"`
	Category       *string    `json:"category"`
	Priority       string     `json:"priority"`
	DueDate        *time.Time `json:"due_date"`
	AssignedTo     *string    `json:"assigned_to"`
	Notes          *string    `json:"notes"`
	SyncToCalendar bool       `json:"sync_to_calendar"`
}

var validPriorities = map[string]bool{"low": true, "medium": true, "high": true}

// ListTodos handles GET /api/todos.
func (h *Handler) ListTodos(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = store.TodoOpen
	}
	if status != store.TodoOpen && status != store.TodoCompleted {
		httperrors.Error(w, http.StatusBadRequest, "status must be open or completed")
		return
	}

	todos, err := h.store.Todos.List(r.Context(), status)
	if err != nil {
		httperrors.InternalError(w, r, err, "list todos")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"todos": todos})
}

// CreateTodo handles POST /api/todos. With sync_to_calendar set, the todo is
// mirrored onto the shared Google calendar; a mirror failure does not fail
// the create.
func (h *Handler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	var req todoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid request body")
		return
	}
	if req.Title == "" {
		httperrors.Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Priority == "" {
		req.Priority = "medium"
	}
	if !validPriorities[req.Priority] {
		httperrors.Error(w, http.StatusBadRequest, "priority must be low, medium, or high")
		return
	}

	user := currentUser(r)
	todo, err := h.store.Todos.Create(r.Context(), store.Todo{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Status:      store.TodoOpen,
		DueDate:     req.DueDate,
		AssignedTo:  req.AssignedTo,
		CreatedBy:   &user.ID,
		Notes:       req.Notes,
	})
	if err != nil {
		httperrors.InternalError(w, r, err, "create todo")
		return
	}

	response := map[string]any{"todo": todo}
	if req.SyncToCalendar {
		eventID, err := h.mirror.CreateEvent(r.Context(), todo)
		if err != nil {
			httperrors.LogWarn(r, "todo created but calendar mirror failed", err)
			response["sync_warning"] = "todo created but could not be added to the calendar"
		} else {
			todo.ExternalCalendarEventID = &eventID
			response["todo"] = todo
		}
	}
	httperrors.JSON(w, http.StatusCreated, response)
}

// GetTodo handles GET /api/todos/{id}.
func (h *Handler) GetTodo(w http.ResponseWriter, r *http.Request) {
	todo, err := h.store.Todos.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFound(w, "todo not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "get todo")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"todo": todo})
}

// UpdateTodo handles PUT /api/todos/{id}.
func (h *Handler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	todo, err := h.store.Todos.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFound(w, "todo not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "get todo")
		return
	}

	var req todoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid request body")
		return
	}
	if req.Title == "" {
		httperrors.Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Priority != "" && !validPriorities[req.Priority] {
		httperrors.Error(w, http.StatusBadRequest, "priority must be low, medium, or high")
		return
	}

	todo.Title = req.Title
	todo.Description = req.Description
	todo.Category = req.Category
	if req.Priority != "" {
		todo.Priority = req.Priority
	}
	todo.DueDate = req.DueDate
	todo.AssignedTo = req.AssignedTo
	todo.Notes = req.Notes

	if err := h.store.Todos.Update(r.Context(), *todo); err != nil {
		httperrors.InternalError(w, r, err, "update todo")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"todo": todo})
}

// CompleteTodo handles POST /api/todos/{id}/complete. The mirrored calendar
// event is removed best-effort: a remote failure is reported as a warning
// and never blocks completion.
func (h *Handler) CompleteTodo(w http.ResponseWriter, r *http.Request) {
	todo, err := h.store.Todos.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFound(w, "todo not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "get todo")
		return
	}

	user := currentUser(r)
	if err := h.store.Todos.Complete(r.Context(), todo.ID, user.ID, time.Now()); err != nil {
		httperrors.InternalError(w, r, err, "complete todo")
		return
	}

	response := map[string]any{"completed": true}
	if err := h.mirror.DeleteEvent(r.Context(), todo); err != nil {
		httperrors.LogWarn(r, "todo completed but calendar cleanup failed", err)
		response["sync_warning"] = "todo completed but its calendar event could not be removed"
	}
	httperrors.JSON(w, http.StatusOK, response)
}

// DeleteTodo handles DELETE /api/todos/{id}, removing the mirrored event
// best-effort first.
func (h *Handler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	todo, err := h.store.Todos.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFound(w, "todo not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "get todo")
		return
	}

	if err := h.mirror.DeleteEvent(r.Context(), todo); err != nil {
		httperrors.LogWarn(r, "calendar cleanup failed before todo delete", err)
	}
	if err := h.store.Todos.Delete(r.Context(), todo.ID); err != nil {
		httperrors.InternalError(w, r, err, "delete todo")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
