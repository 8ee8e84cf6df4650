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

type shoppingItemRequest struct {
	Name     string  `json:"name"`
	Quantity *string `json:"quantity"`
	Category *string `json:"category"`
	Notes    *string `json:"notes"`
}

// ListShoppingItems handles GET /api/shopping.
func (h *Handler) ListShoppingItems(w http.ResponseWriter, r *http.Request) {
	includeChecked := r.URL.Query().Get("include_checked") == "true"
	items, err := h.store.Shopping.List(r.Context(), includeChecked)
	if err != nil {
		httperrors.InternalError(w, r, err, "list shopping items")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"items": items})
}

// CreateShoppingItem handles POST /api/shopping.
func (h *Handler) CreateShoppingItem(w http.ResponseWriter, r *http.Request) {
	var req shoppingItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid request body")
		return
	}
	if req.Name == "" {
		httperrors.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	user := currentUser(r)
	item, err := h.store.Shopping.Create(r.Context(), store.ShoppingItem{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Quantity: req.Quantity,
		Category: req.Category,
		Notes:    req.Notes,
		AddedBy:  &user.ID,
	})
	if err != nil {
		httperrors.InternalError(w, r, err, "create shopping item")
		return
	}
	httperrors.JSON(w, http.StatusCreated, map[string]any{"item": item})
}

// UpdateShoppingItem handles PUT /api/shopping/{id}.
func (h *Handler) UpdateShoppingItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.store.Shopping.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFound(w, "shopping item not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "get shopping item")
		return
	}

	var req shoppingItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid request body")
		return
	}
	if req.Name == "" {
		httperrors.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	item.Name = req.Name
	item.Quantity = req.Quantity
	item.Category = req.Category
	item.Notes = req.Notes
	if err := h.store.Shopping.Update(r.Context(), *item); err != nil {
		httperrors.InternalError(w, r, err, "update shopping item")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"item": item})
}

// CheckShoppingItem handles POST /api/shopping/{id}/check.
func (h *Handler) CheckShoppingItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Checked bool `json:"checked"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid request body")
		return
	}

	user := currentUser(r)
	var checkedBy *string
	if req.Checked {
		checkedBy = &user.ID
	}
	err := h.store.Shopping.SetChecked(r.Context(), chi.URLParam(r, "id"), req.Checked, checkedBy, time.Now())
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFound(w, "shopping item not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "check shopping item")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"checked": req.Checked})
}

// DeleteShoppingItem handles DELETE /api/shopping/{id}.
func (h *Handler) DeleteShoppingItem(w http.ResponseWriter, r *http.Request) {
	err := h.store.Shopping.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFound(w, "shopping item not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "delete shopping item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearCheckedShoppingItems handles DELETE /api/shopping/checked.
func (h *Handler) ClearCheckedShoppingItems(w http.ResponseWriter, r *http.Request) {
	if err := h.shoppingAuto.ClearChecked(r.Context()); err != nil {
		httperrors.InternalError(w, r, err, "clear checked items")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type recurringItemRequest struct {
	Name          string  `json:"name"`
	Quantity      *string `json:"quantity"`
	Category      *string `json:"category"`
	FrequencyDays int     `json:"frequency_days"`
	IsActive      *bool   `json:"is_active"`
}

// ListRecurringItems handles GET /api/shopping/recurring.
func (h *Handler) ListRecurringItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ShoppingRecurring.List(r.Context())
	if err != nil {
		httperrors.InternalError(w, r, err, "list recurring items")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"items": items})
}

// CreateRecurringItem handles POST /api/shopping/recurring.
func (h *Handler) CreateRecurringItem(w http.ResponseWriter, r *http.Request) {
	var req recurringItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid request body")
		return
	}
	if req.Name == "" {
		httperrors.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.FrequencyDays <= 0 {
		req.FrequencyDays = 7
	}

	item, err := h.store.ShoppingRecurring.Create(r.Context(), store.ShoppingRecurringItem{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Quantity:      req.Quantity,
		Category:      req.Category,
		FrequencyDays: req.FrequencyDays,
		IsActive:      true,
	})
	if err != nil {
		httperrors.InternalError(w, r, err, "create recurring item")
		return
	}
	httperrors.JSON(w, http.StatusCreated, map[string]any{"item": item})
}

// UpdateRecurringItem handles PUT /api/shopping/recurring/{id}.
func (h *Handler) UpdateRecurringItem(w http.ResponseWriter, r *http.Request) {
	var req recurringItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid request body")
		return
	}
	if req.Name == "" {
		httperrors.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.FrequencyDays <= 0 {
		httperrors.Error(w, http.StatusBadRequest, "frequency_days must be positive")
		return
	}

	item := store.ShoppingRecurringItem{
		ID:            chi.URLParam(r, "id"),
		Name:          req.Name,
		Quantity:      req.Quantity,
		Category:      req.Category,
		FrequencyDays: req.FrequencyDays,
		IsActive:      req.IsActive == nil || *req.IsActive,
	}
	if err := h.store.ShoppingRecurring.Update(r.Context(), item); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httperrors.NotFound(w, "recurring item not found")
			return
		}
		httperrors.InternalError(w, r, err, "update recurring item")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"item": item})
}

// DeleteRecurringItem handles DELETE /api/shopping/recurring/{id}.
func (h *Handler) DeleteRecurringItem(w http.ResponseWriter, r *http.Request) {
	err := h.store.ShoppingRecurring.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFound(w, "recurring item not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "delete recurring item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
