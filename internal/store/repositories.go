package store

import (
	"context"
	"time"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByOIDCSubject(ctx context.Context, subject string) (*User, error)
	List(ctx context.Context) ([]User, error)
	ListActive(ctx context.Context) ([]User, error)
	Update(ctx context.Context, user User) error
	TouchLastLogin(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// SessionRepository manages DB-backed login sessions.
type SessionRepository interface {
	Create(ctx context.Context, session Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	ListByUser(ctx context.Context, userID string) ([]Session, error)
	TouchLastSeen(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) error
}

// GoogleTokenRepository stores one OAuth token pair per user.
type GoogleTokenRepository interface {
	Upsert(ctx context.Context, token GoogleToken) error
	GetByUser(ctx context.Context, userID string) (*GoogleToken, error)
	UpdateAccess(ctx context.Context, userID, accessToken string, expiresAt *time.Time) error
	Delete(ctx context.Context, userID string) error
}

// HomeLocationRepository manages the single geofence row.
type HomeLocationRepository interface {
	Get(ctx context.Context) (*HomeLocation, error)
	Put(ctx context.Context, loc HomeLocation) error
}

// UserLocationRepository keeps the latest position per user.
type UserLocationRepository interface {
	Upsert(ctx context.Context, loc UserLocation) error
	GetByUser(ctx context.Context, userID string) (*UserLocation, error)
	ListAll(ctx context.Context) ([]UserLocation, error)
}

// TodoRepository handles household tasks.
type TodoRepository interface {
	Create(ctx context.Context, todo Todo) (*Todo, error)
	GetByID(ctx context.Context, id string) (*Todo, error)
	List(ctx context.Context, status string) ([]Todo, error)
	ListOverdue(ctx context.Context, before time.Time) ([]Todo, error)
	ListByAssignee(ctx context.Context, userID string) ([]Todo, error)
	Update(ctx context.Context, todo Todo) error
	SetExternalEventID(ctx context.Context, id string, eventID *string) error
	Complete(ctx context.Context, id, completedBy string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// TodoTemplateRepository manages recurring-todo templates.
type TodoTemplateRepository interface {
	Create(ctx context.Context, tpl TodoTemplate) (*TodoTemplate, error)
	ListActive(ctx context.Context) ([]TodoTemplate, error)
	List(ctx context.Context) ([]TodoTemplate, error)
	Update(ctx context.Context, tpl TodoTemplate) error
	Delete(ctx context.Context, id string) error
}

// ShoppingRepository handles the shared shopping list.
type ShoppingRepository interface {
	Create(ctx context.Context, item ShoppingItem) (*ShoppingItem, error)
	CreateBatch(ctx context.Context, items []ShoppingItem) error
	GetByID(ctx context.Context, id string) (*ShoppingItem, error)
	List(ctx context.Context, includeChecked bool) ([]ShoppingItem, error)
	Update(ctx context.Context, item ShoppingItem) error
	SetChecked(ctx context.Context, id string, checked bool, checkedBy *string, at time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteChecked(ctx context.Context) error
}

// ShoppingRecurringRepository manages auto-readded staples.
type ShoppingRecurringRepository interface {
	Create(ctx context.Context, item ShoppingRecurringItem) (*ShoppingRecurringItem, error)
	ListActive(ctx context.Context) ([]ShoppingRecurringItem, error)
	List(ctx context.Context) ([]ShoppingRecurringItem, error)
	MarkAdded(ctx context.Context, id string, at time.Time) error
	Update(ctx context.Context, item ShoppingRecurringItem) error
	Delete(ctx context.Context, id string) error
}

// RecipeRepository handles recipes and their ingredients.
type RecipeRepository interface {
	Create(ctx context.Context, recipe Recipe) (*Recipe, error)
	GetByID(ctx context.Context, id string) (*Recipe, error)
	List(ctx context.Context) ([]Recipe, error)
	Update(ctx context.Context, recipe Recipe) error
	Delete(ctx context.Context, id string) error
}

// MealPlanRepository handles the meal calendar.
type MealPlanRepository interface {
	Create(ctx context.Context, plan MealPlan) (*MealPlan, error)
	GetByID(ctx context.Context, id string) (*MealPlan, error)
	ListRange(ctx context.Context, from, to time.Time) ([]MealPlan, error)
	Update(ctx context.Context, plan MealPlan) error
	Delete(ctx context.Context, id string) error
}

// CalendarAssignmentRepository maps Google calendars onto user dashboards.
type CalendarAssignmentRepository interface {
	Create(ctx context.Context, a CalendarAssignment) (*CalendarAssignment, error)
	ListByUser(ctx context.Context, userID string) ([]CalendarAssignment, error)
	Delete(ctx context.Context, userID, id string) error
	DeleteByUser(ctx context.Context, userID string) error
}

// CalendarConfigRepository selects the mirror target calendar.
type CalendarConfigRepository interface {
	List(ctx context.Context) ([]CalendarConfig, error)
	GetActive(ctx context.Context) (*CalendarConfig, error)
	// Activate inserts the config if needed and makes it the single active
	// row, deactivating any previous one.
	Activate(ctx context.Context, cfg CalendarConfig) (*CalendarConfig, error)
	Deactivate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
