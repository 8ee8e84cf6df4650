// Package automation holds the household chores that run on a schedule or
// on demand from the admin panel: seeding recurring todos, nagging about
// overdue ones, restocking the shopping list, and turning meal plans into
// groceries.
package automation

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/svanleeuwen/hearth/internal/store"
)

// TodoAutomation seeds and grooms the household todo list.
type TodoAutomation struct {
	todos     store.TodoRepository
	templates store.TodoTemplateRepository
	users     store.UserRepository

	now     func() time.Time
	randInt func(n int) int
}

func NewTodoAutomation(todos store.TodoRepository, templates store.TodoTemplateRepository, users store.UserRepository) *TodoAutomation {
	return &TodoAutomation{
		todos:     todos,
		templates: templates,
		users:     users,
		now:       time.Now,
		randInt:   rand.Intn,
	}
}

// GenerateFromTemplates creates a todo for every active template that has no
// open todo with the same title yet. Returns how many were created.
func (a *TodoAutomation) GenerateFromTemplates(ctx context.Context) (int, error) {
	templates, err := a.templates.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	open, err := a.todos.List(ctx, store.TodoOpen)
	if err != nil {
		return 0, err
	}

	openTitles := make(map[string]bool, len(open))
	for _, todo := range open {
		openTitles[strings.ToLower(todo.Title)] = true
	}

	created := 0
	for _, tpl := range templates {
		if openTitles[strings.ToLower(tpl.Title)] {
			continue
		}
		due := a.now().Add(24 * time.Hour)
		_, err := a.todos.Create(ctx, store.Todo{
			ID:          uuid.NewString(),
			Title:       tpl.Title,
			Description: tpl.Description,
			Category:    tpl.Category,
			Priority:    "medium",
			Status:      store.TodoOpen,
			DueDate:     &due,
			AssignedTo:  tpl.DefaultAssignedTo,
		})
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// EscalateOverdue bumps every overdue open todo to high priority and returns
// the escalated todos so callers can surface them.
func (a *TodoAutomation) EscalateOverdue(ctx context.Context) ([]store.Todo, error) {
	overdue, err := a.todos.ListOverdue(ctx, a.now())
	if err != nil {
		return nil, err
	}

	var escalated []store.Todo
	for _, todo := range overdue {
		if todo.Priority == "high" {
			escalated = append(escalated, todo)
			continue
		}
		todo.Priority = "high"
		if err := a.todos.Update(ctx, todo); err != nil {
			return escalated, err
		}
		escalated = append(escalated, todo)
	}
	return escalated, nil
}

// AssignUnassigned hands every unassigned open todo to a random active
// household member. Returns how many were assigned.
func (a *TodoAutomation) AssignUnassigned(ctx context.Context) (int, error) {
	open, err := a.todos.List(ctx, store.TodoOpen)
	if err != nil {
		return 0, err
	}
	users, err := a.users.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	if len(users) == 0 {
		return 0, nil
	}

	assigned := 0
	for _, todo := range open {
		if todo.AssignedTo != nil {
			continue
		}
		pick := users[a.randInt(len(users))].ID
		todo.AssignedTo = &pick
		if err := a.todos.Update(ctx, todo); err != nil {
			return assigned, err
		}
		assigned++
	}
	return assigned, nil
}

// TodoStats summarizes the state of the list.
type TodoStats struct {
	Open       int            `json:"open"`
	Completed  int            `json:"completed"`
	Overdue    int            `json:"overdue"`
	Unassigned int            `json:"unassigned"`
	ByAssignee map[string]int `json:"by_assignee"`
}

// Stats counts open, completed, overdue, and unassigned todos, and the open
// workload per assignee.
func (a *TodoAutomation) Stats(ctx context.Context) (*TodoStats, error) {
	open, err := a.todos.List(ctx, store.TodoOpen)
	if err != nil {
		return nil, err
	}
	completed, err := a.todos.List(ctx, store.TodoCompleted)
	if err != nil {
		return nil, err
	}

	stats := &TodoStats{
		Open:       len(open),
		Completed:  len(completed),
		ByAssignee: make(map[string]int),
	}
	now := a.now()
	for _, todo := range open {
		if todo.DueDate != nil && todo.DueDate.Before(now) {
			stats.Overdue++
		}
		if todo.AssignedTo == nil {
			stats.Unassigned++
			continue
		}
		stats.ByAssignee[*todo.AssignedTo]++
	}
	return stats, nil
}
