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

type recipeRequest struct {
	Name            string              `json:"name"`
	Description     *string             `json:"description"`
	Category        *string             `json:"category"`
	Instructions    *string             `json:"instructions"`
	PrepTimeMinutes *int                `json:"prep_time_minutes"`
	CookTimeMinutes *int                `json:"cook_time_minutes"`
	Servings        *int                `json:"servings"`
	IsFavorite      bool                `json:"is_favorite"`
	Ingredients     []ingredientRequest `json:"ingredients"`
}

type ingredientRequest struct {
	Name     string  `json:"name"`
	Quantity *string `json:"quantity"`
	Unit     *string `json:"unit"`
	Notes    *string `json:"notes"`
}

func (req *recipeRequest) ingredients(recipeID string) []store.RecipeIngredient {
	out := make([]store.RecipeIngredient, 0, len(req.Ingredients))
	for _, ing := range req.Ingredients {
		out = append(out, store.RecipeIngredient{
			ID:             uuid.NewString(),
			RecipeID:       recipeID,
			IngredientName: ing.Name,
			Quantity:       ing.Quantity,
			Unit:           ing.Unit,
			Notes:          ing.Notes,
		})
	}
	return out
}

// ListRecipes handles GET /api/meals/recipes.
func (h *Handler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.store.Recipes.List(r.Context())
	if err != nil {
		httperrors.InternalError(w, r, err, "list recipes")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"recipes": recipes})
}

// CreateRecipe handles POST /api/meals/recipes.
func (h *Handler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var req recipeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid request body")
		return
	}
	if req.Name == "" {
		httperrors.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	for _, ing := range req.Ingredients {
		if ing.Name == "" {
			httperrors.Error(w, http.StatusBadRequest, "ingredient name is required")
			return
		}
	}

	user := currentUser(r)
	id := uuid.NewString()
	recipe, err := h.store.Recipes.Create(r.Context(), store.Recipe{
		ID:              id,
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		Instructions:    req.Instructions,
		PrepTimeMinutes: req.PrepTimeMinutes,
		CookTimeMinutes: req.CookTimeMinutes,
		Servings:        req.Servings,
		IsFavorite:      req.IsFavorite,
		CreatedBy:       &user.ID,
		Ingredients:     req.ingredients(id),
	})
	if err != nil {
		httperrors.InternalError(w, r, err, "create recipe")
		return
	}
	httperrors.JSON(w, http.StatusCreated, map[string]any{"recipe": recipe})
}

// GetRecipe handles GET /api/meals/recipes/{id}.
func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.store.Recipes.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFound(w, "recipe not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "get recipe")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"recipe": recipe})
}

// UpdateRecipe handles PUT /api/meals/recipes/{id}. The ingredient list is
// replaced wholesale.
func (h *Handler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.store.Recipes.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFound(w, "recipe not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "get recipe")
		return
	}

	var req recipeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid request body")
		return
	}
	if req.Name == "" {
		httperrors.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	for _, ing := range req.Ingredients {
		if ing.Name == "" {
			httperrors.Error(w, http.StatusBadRequest, "ingredient name is required")
			return
		}
	}

	recipe.Name = req.Name
	recipe.Description = req.Description
	recipe.Category = req.Category
	recipe.Instructions = req.Instructions
	recipe.PrepTimeMinutes = req.PrepTimeMinutes
	recipe.CookTimeMinutes = req.CookTimeMinutes
	recipe.Servings = req.Servings
	recipe.IsFavorite = req.IsFavorite
	recipe.Ingredients = req.ingredients(recipe.ID)

	if err := h.store.Recipes.Update(r.Context(), *recipe); err != nil {
		httperrors.InternalError(w, r, err, "update recipe")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"recipe": recipe})
}

// DeleteRecipe handles DELETE /api/meals/recipes/{id}.
func (h *Handler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	err := h.store.Recipes.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFound(w, "recipe not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "delete recipe")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var validMealTypes = map[string]bool{"breakfast": true, "lunch": true, "dinner": true, "snack": true}

type mealPlanRequest struct {
	MealDate       string  `json:"meal_date"`
	MealType       string  `json:"meal_type"`
	RecipeID       *string `json:"recipe_id"`
	CustomMealName *string `json:"custom_meal_name"`
	AssignedTo     *string `json:"assigned_to"`
	IsCompleted    bool    `json:"is_completed"`
	Notes          *string `json:"notes"`
}

func (req *mealPlanRequest) validate() (time.Time, string) {
	if !validMealTypes[req.MealType] {
		return time.Time{}, "meal_type must be breakfast, lunch, dinner, or snack"
	}
	if req.RecipeID == nil && req.CustomMealName == nil {
		return time.Time{}, "recipe_id or custom_meal_name is required"
	}
	date, err := time.Parse("2006-01-02", req.MealDate)
	if err != nil {
		return time.Time{}, "meal_date must be YYYY-MM-DD"
	}
	return date, ""
}

// ListMealPlans handles GET /api/meals/plans, defaulting to the next 7 days.
func (h *Handler) ListMealPlans(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseTimeRange(r, 7)
	if err != nil {
		httperrors.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	plans, err := h.store.MealPlans.ListRange(r.Context(), from, to)
	if err != nil {
		httperrors.InternalError(w, r, err, "list meal plans")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"plans": plans})
}

// CreateMealPlan handles POST /api/meals/plans.
func (h *Handler) CreateMealPlan(w http.ResponseWriter, r *http.Request) {
	var req mealPlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid request body")
		return
	}
	date, msg := req.validate()
	if msg != "" {
		httperrors.Error(w, http.StatusBadRequest, msg)
		return
	}
	if req.RecipeID != nil {
		if _, err := h.store.Recipes.GetByID(r.Context(), *req.RecipeID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				httperrors.Error(w, http.StatusBadRequest, "recipe does not exist")
				return
			}
			httperrors.InternalError(w, r, err, "check recipe")
			return
		}
	}

	plan, err := h.store.MealPlans.Create(r.Context(), store.MealPlan{
		ID:             uuid.NewString(),
		MealDate:       date,
		MealType:       req.MealType,
		RecipeID:       req.RecipeID,
		CustomMealName: req.CustomMealName,
		AssignedTo:     req.AssignedTo,
		Notes:          req.Notes,
	})
	if err != nil {
		httperrors.InternalError(w, r, err, "create meal plan")
		return
	}
	httperrors.JSON(w, http.StatusCreated, map[string]any{"plan": plan})
}

// UpdateMealPlan handles PUT /api/meals/plans/{id}.
func (h *Handler) UpdateMealPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.store.MealPlans.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFound(w, "meal plan not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "get meal plan")
		return
	}

	var req mealPlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid request body")
		return
	}
	date, msg := req.validate()
	if msg != "" {
		httperrors.Error(w, http.StatusBadRequest, msg)
		return
	}

	plan.MealDate = date
	plan.MealType = req.MealType
	plan.RecipeID = req.RecipeID
	plan.CustomMealName = req.CustomMealName
	plan.AssignedTo = req.AssignedTo
	plan.IsCompleted = req.IsCompleted
	plan.Notes = req.Notes

	if err := h.store.MealPlans.Update(r.Context(), *plan); err != nil {
		httperrors.InternalError(w, r, err, "update meal plan")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"plan": plan})
}

// DeleteMealPlan handles DELETE /api/meals/plans/{id}.
func (h *Handler) DeleteMealPlan(w http.ResponseWriter, r *http.Request) {
	err := h.store.MealPlans.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFound(w, "meal plan not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "delete meal plan")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GenerateMealShoppingList handles POST /api/meals/shopping-list, adding the
// ingredients of the coming week's planned meals to the shopping list.
func (h *Handler) GenerateMealShoppingList(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseTimeRange(r, 7)
	if err != nil {
		httperrors.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	added, err := h.mealAuto.GenerateShoppingList(r.Context(), from, to)
	if err != nil {
		httperrors.InternalError(w, r, err, "generate shopping list")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"items_added": added})
}

// CookingReminders handles GET /api/meals/reminders.
func (h *Handler) CookingReminders(w http.ResponseWriter, r *http.Request) {
	reminders, err := h.mealAuto.CookingReminders(r.Context())
	if err != nil {
		httperrors.InternalError(w, r, err, "cooking reminders")
		return
	}
	httperrors.JSON(w, http.StatusOK, map[string]any{"reminders": reminders})
}
