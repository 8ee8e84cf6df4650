package automation

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/svanleeuwen/hearth/internal/store"
)

// In-memory repositories shared by the automation tests.

type memTodos struct {
	todos map[string]store.Todo
}

func newMemTodos() *memTodos { return &memTodos{todos: make(map[string]store.Todo)} }

func (m *memTodos) Create(ctx context.Context, todo store.Todo) (*store.Todo, error) {
	if todo.Status == "" {
		todo.Status = store.TodoOpen
	}
	m.todos[todo.ID] = todo
	copy := todo
	return &copy, nil
}

func (m *memTodos) GetByID(ctx context.Context, id string) (*store.Todo, error) {
	todo, ok := m.todos[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &todo, nil
}

func (m *memTodos) List(ctx context.Context, status string) ([]store.Todo, error) {
	var out []store.Todo
	for _, todo := range m.todos {
		if todo.Status == status {
			out = append(out, todo)
		}
	}
	return out, nil
}

func (m *memTodos) ListOverdue(ctx context.Context, before time.Time) ([]store.Todo, error) {
	var out []store.Todo
	for _, todo := range m.todos {
		if todo.Status == store.TodoOpen && todo.DueDate != nil && todo.DueDate.Before(before) {
			out = append(out, todo)
		}
	}
	return out, nil
}

func (m *memTodos) ListByAssignee(ctx context.Context, userID string) ([]store.Todo, error) {
	var out []store.Todo
	for _, todo := range m.todos {
		if todo.AssignedTo != nil && *todo.AssignedTo == userID {
			out = append(out, todo)
		}
	}
	return out, nil
}

func (m *memTodos) Update(ctx context.Context, todo store.Todo) error {
	if _, ok := m.todos[todo.ID]; !ok {
		return store.ErrNotFound
	}
	m.todos[todo.ID] = todo
	return nil
}

func (m *memTodos) SetExternalEventID(ctx context.Context, id string, eventID *string) error {
	todo, ok := m.todos[id]
	if !ok {
		return store.ErrNotFound
	}
	todo.ExternalCalendarEventID = eventID
	m.todos[id] = todo
	return nil
}

func (m *memTodos) Complete(ctx context.Context, id, completedBy string, at time.Time) error {
	todo, ok := m.todos[id]
	if !ok {
		return store.ErrNotFound
	}
	todo.Status = store.TodoCompleted
	todo.CompletedBy = &completedBy
	todo.CompletedAt = &at
	m.todos[id] = todo
	return nil
}

func (m *memTodos) Delete(ctx context.Context, id string) error {
	delete(m.todos, id)
	return nil
}

type memTemplates struct {
	templates []store.TodoTemplate
}

func (m *memTemplates) Create(ctx context.Context, tpl store.TodoTemplate) (*store.TodoTemplate, error) {
	m.templates = append(m.templates, tpl)
	return &tpl, nil
}

func (m *memTemplates) ListActive(ctx context.Context) ([]store.TodoTemplate, error) {
	var out []store.TodoTemplate
	for _, tpl := range m.templates {
		if tpl.IsActive {
			out = append(out, tpl)
		}
	}
	return out, nil
}

func (m *memTemplates) List(ctx context.Context) ([]store.TodoTemplate, error) {
	return m.templates, nil
}

func (m *memTemplates) Update(ctx context.Context, tpl store.TodoTemplate) error { return nil }
func (m *memTemplates) Delete(ctx context.Context, id string) error              { return nil }

type memUsers struct {
	users []store.User
}

func (m *memUsers) Create(ctx context.Context, user store.User) (*store.User, error) {
	m.users = append(m.users, user)
	return &user, nil
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*store.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*store.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memUsers) GetByOIDCSubject(ctx context.Context, subject string) (*store.User, error) {
	return nil, store.ErrNotFound
}

func (m *memUsers) List(ctx context.Context) ([]store.User, error) {
	return m.users, nil
}

func (m *memUsers) ListActive(ctx context.Context) ([]store.User, error) {
	var out []store.User
	for _, u := range m.users {
		if u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUsers) Update(ctx context.Context, user store.User) error   { return nil }
func (m *memUsers) TouchLastLogin(ctx context.Context, id string) error { return nil }
func (m *memUsers) Delete(ctx context.Context, id string) error         { return nil }

type memShopping struct {
	items map[string]store.ShoppingItem
}

func newMemShopping() *memShopping { return &memShopping{items: make(map[string]store.ShoppingItem)} }

func (m *memShopping) Create(ctx context.Context, item store.ShoppingItem) (*store.ShoppingItem, error) {
	m.items[item.ID] = item
	copy := item
	return &copy, nil
}

func (m *memShopping) CreateBatch(ctx context.Context, items []store.ShoppingItem) error {
	for _, item := range items {
		m.items[item.ID] = item
	}
	return nil
}

func (m *memShopping) GetByID(ctx context.Context, id string) (*store.ShoppingItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &item, nil
}

func (m *memShopping) List(ctx context.Context, includeChecked bool) ([]store.ShoppingItem, error) {
	var out []store.ShoppingItem
	for _, item := range m.items {
		if !includeChecked && item.IsChecked {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (m *memShopping) Update(ctx context.Context, item store.ShoppingItem) error {
	m.items[item.ID] = item
	return nil
}

func (m *memShopping) SetChecked(ctx context.Context, id string, checked bool, checkedBy *string, at time.Time) error {
	item, ok := m.items[id]
	if !ok {
		return store.ErrNotFound
	}
	item.IsChecked = checked
	item.CheckedBy = checkedBy
	if checked {
		item.CheckedAt = &at
	} else {
		item.CheckedAt = nil
	}
	m.items[id] = item
	return nil
}

func (m *memShopping) Delete(ctx context.Context, id string) error {
	delete(m.items, id)
	return nil
}

func (m *memShopping) DeleteChecked(ctx context.Context) error {
	for id, item := range m.items {
		if item.IsChecked {
			delete(m.items, id)
		}
	}
	return nil
}

type memRecurring struct {
	items map[string]store.ShoppingRecurringItem
}

func newMemRecurring() *memRecurring {
	return &memRecurring{items: make(map[string]store.ShoppingRecurringItem)}
}

func (m *memRecurring) Create(ctx context.Context, item store.ShoppingRecurringItem) (*store.ShoppingRecurringItem, error) {
	m.items[item.ID] = item
	copy := item
	return &copy, nil
}

func (m *memRecurring) ListActive(ctx context.Context) ([]store.ShoppingRecurringItem, error) {
	var out []store.ShoppingRecurringItem
	for _, item := range m.items {
		if item.IsActive {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memRecurring) List(ctx context.Context) ([]store.ShoppingRecurringItem, error) {
	var out []store.ShoppingRecurringItem
	for _, item := range m.items {
		out = append(out, item)
	}
	return out, nil
}

func (m *memRecurring) MarkAdded(ctx context.Context, id string, at time.Time) error {
	item, ok := m.items[id]
	if !ok {
		return store.ErrNotFound
	}
	item.LastAdded = &at
	m.items[id] = item
	return nil
}

func (m *memRecurring) Update(ctx context.Context, item store.ShoppingRecurringItem) error {
	m.items[item.ID] = item
	return nil
}

func (m *memRecurring) Delete(ctx context.Context, id string) error {
	delete(m.items, id)
	return nil
}

type memRecipes struct {
	recipes map[string]store.Recipe
}

func newMemRecipes() *memRecipes { return &memRecipes{recipes: make(map[string]store.Recipe)} }

func (m *memRecipes) Create(ctx context.Context, recipe store.Recipe) (*store.Recipe, error) {
	m.recipes[recipe.ID] = recipe
	copy := recipe
	return &copy, nil
}

func (m *memRecipes) GetByID(ctx context.Context, id string) (*store.Recipe, error) {
	recipe, ok := m.recipes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &recipe, nil
}

func (m *memRecipes) List(ctx context.Context) ([]store.Recipe, error) {
	var out []store.Recipe
	for _, recipe := range m.recipes {
		out = append(out, recipe)
	}
	return out, nil
}

func (m *memRecipes) Update(ctx context.Context, recipe store.Recipe) error { return nil }
func (m *memRecipes) Delete(ctx context.Context, id string) error           { return nil }

type memMealPlans struct {
	plans map[string]store.MealPlan
}

func newMemMealPlans() *memMealPlans { return &memMealPlans{plans: make(map[string]store.MealPlan)} }

func (m *memMealPlans) Create(ctx context.Context, plan store.MealPlan) (*store.MealPlan, error) {
	m.plans[plan.ID] = plan
	copy := plan
	return &copy, nil
}

func (m *memMealPlans) GetByID(ctx context.Context, id string) (*store.MealPlan, error) {
	plan, ok := m.plans[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &plan, nil
}

func (m *memMealPlans) ListRange(ctx context.Context, from, to time.Time) ([]store.MealPlan, error) {
	var out []store.MealPlan
	for _, plan := range m.plans {
		if !plan.MealDate.Before(from) && plan.MealDate.Before(to) {
			out = append(out, plan)
		}
	}
	// Match the real repository's ORDER BY meal_date, meal_type.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].MealDate.Equal(out[j].MealDate) {
			return out[i].MealDate.Before(out[j].MealDate)
		}
		return out[i].MealType < out[j].MealType
	})
	return out, nil
}

func (m *memMealPlans) Update(ctx context.Context, plan store.MealPlan) error { return nil }
func (m *memMealPlans) Delete(ctx context.Context, id string) error           { return nil }
