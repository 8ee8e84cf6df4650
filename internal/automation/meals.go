package automation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/svanleeuwen/hearth/internal/store"
)

// MealAutomation bridges the meal calendar and the shopping list.
type MealAutomation struct {
	meals    store.MealPlanRepository
	recipes  store.RecipeRepository
	shopping store.ShoppingRepository

	now func() time.Time
}

func NewMealAutomation(meals store.MealPlanRepository, recipes store.RecipeRepository, shopping store.ShoppingRepository) *MealAutomation {
	return &MealAutomation{meals: meals, recipes: recipes, shopping: shopping, now: time.Now}
}

// GenerateShoppingList collects the ingredients of every recipe planned in
// [from, to], merges duplicates by name, skips ingredients already on the
// unchecked list, and adds the rest in one batch. Returns how many items
// were added.
func (a *MealAutomation) GenerateShoppingList(ctx context.Context, from, to time.Time) (int, error) {
	plans, err := a.meals.ListRange(ctx, from, to)
	if err != nil {
		return 0, err
	}
	unchecked, err := a.shopping.List(ctx, false)
	if err != nil {
		return 0, err
	}

	onList := make(map[string]bool, len(unchecked))
	for _, item := range unchecked {
		onList[strings.ToLower(item.Name)] = true
	}

	type merged struct {
		item  store.ShoppingItem
		count int
	}
	var order []string
	byName := make(map[string]*merged)

	for _, plan := range plans {
		if plan.RecipeID == nil {
			continue
		}
		recipe, err := a.recipes.GetByID(ctx, *plan.RecipeID)
		if err != nil {
			return 0, fmt.Errorf("load recipe for meal plan %s: %w", plan.ID, err)
		}
		for _, ing := range recipe.Ingredients {
			key := strings.ToLower(ing.IngredientName)
			if onList[key] {
				continue
			}
			if entry, ok := byName[key]; ok {
				entry.count++
				continue
			}
			notes := fmt.Sprintf("For %s on %s", recipe.Name, plan.MealDate.Format("Mon 2 Jan"))
			byName[key] = &merged{
				count: 1,
				item: store.ShoppingItem{
					ID:       uuid.NewString(),
					Name:     ing.IngredientName,
					Quantity: mergeQuantity(ing),
					Category: recipe.Category,
					Notes:    &notes,
				},
			}
			order = append(order, key)
		}
	}

	if len(order) == 0 {
		return 0, nil
	}

	items := make([]store.ShoppingItem, 0, len(order))
	for _, key := range order {
		entry := byName[key]
		if entry.count > 1 {
			multi := fmt.Sprintf("needed for %d meals", entry.count)
			if entry.item.Quantity != nil {
				multi = fmt.Sprintf("%s, needed for %d meals", *entry.item.Quantity, entry.count)
			}
			entry.item.Quantity = &multi
		}
		items = append(items, entry.item)
	}

	if err := a.shopping.CreateBatch(ctx, items); err != nil {
		return 0, err
	}
	return len(items), nil
}

// CookingReminder tells whoever is cooking when to start.
type CookingReminder struct {
	MealPlanID string     `json:"meal_plan_id"`
	MealType   string     `json:"meal_type"`
	MealName   string     `json:"meal_name"`
	AssignedTo *string    `json:"assigned_to,omitempty"`
	StartBy    *time.Time `json:"start_by,omitempty"`
}

// CookingReminders returns a reminder for every uncompleted meal planned
// today. When the recipe carries prep and cook times, StartBy is the latest
// moment to start and still eat at 18:00.
func (a *MealAutomation) CookingReminders(ctx context.Context) ([]CookingReminder, error) {
	now := a.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	plans, err := a.meals.ListRange(ctx, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	var reminders []CookingReminder
	for _, plan := range plans {
		if plan.IsCompleted {
			continue
		}
		reminder := CookingReminder{
			MealPlanID: plan.ID,
			MealType:   plan.MealType,
			AssignedTo: plan.AssignedTo,
		}
		if plan.CustomMealName != nil {
			reminder.MealName = *plan.CustomMealName
		}
		if plan.RecipeID != nil {
			recipe, err := a.recipes.GetByID(ctx, *plan.RecipeID)
			if err != nil {
				return nil, fmt.Errorf("load recipe for meal plan %s: %w", plan.ID, err)
			}
			reminder.MealName = recipe.Name
			if minutes := totalMinutes(recipe); minutes > 0 {
				dinner := time.Date(now.Year(), now.Month(), now.Day(), 18, 0, 0, 0, now.Location())
				startBy := dinner.Add(-time.Duration(minutes) * time.Minute)
				reminder.StartBy = &startBy
			}
		}
		reminders = append(reminders, reminder)
	}
	return reminders, nil
}

func totalMinutes(recipe *store.Recipe) int {
	minutes := 0
	if recipe.PrepTimeMinutes != nil {
		minutes += *recipe.PrepTimeMinutes
	}
	if recipe.CookTimeMinutes != nil {
		minutes += *recipe.CookTimeMinutes
	}
	return minutes
}

func mergeQuantity(ing store.RecipeIngredient) *string {
	if ing.Quantity == nil {
		return nil
	}
	if ing.Unit == nil || *ing.Unit == "" {
		q := *ing.Quantity
		return &q
	}
	q := fmt.Sprintf("%s %s", *ing.Quantity, *ing.Unit)
	return &q
}
