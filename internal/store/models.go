package store

import "time"

// Role values stored on User.Role.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User is a household member account.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         *string    `json:"name,omitempty"`
	PasswordHash *string    `json:"-"`
	OIDCSubject  *string    `json:"-"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// Session is a web login session backed by a cookie.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	UserAgent  *string   `json:"user_agent,omitempty"`
	IPAddress  *string   `json:"ip_address,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// GoogleToken is the persisted OAuth token pair for one user's Google
// connection. At most one row per user; refreshes mutate it in place.
type GoogleToken struct {
	UserID       string
	AccessToken  string
	RefreshToken *string
	ExpiresAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Expired reports whether the access token's expiry has passed.
func (t *GoogleToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}

// HomeLocation is the household's geofence center. Single row.
type HomeLocation struct {
	DisplayName  string    `json:"display_name"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	RadiusMeters float64   `json:"radius_meters"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserLocation is the latest reported position per user.
type UserLocation struct {
	UserID      string    `json:"user_id"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Accuracy    *float64  `json:"accuracy,omitempty"`
	Status      string    `json:"status"`
	LastUpdated time.Time `json:"last_updated"`
}

// Todo status values.
const (
	TodoOpen      = "open"
	TodoCompleted = "completed"
)

// Todo is a household task. ExternalCalendarEventID links the mirrored
// Google Calendar event when the todo has been synced.
type Todo struct {
	ID                      string     `json:"id"`
	Title                   string     `json:"title"`
	Description             *string    `json:"description,omitempty"`
	Category                *string    `json:"category,omitempty"`
	Priority                string     `json:"priority"`
	Status                  string     `json:"status"`
	DueDate                 *time.Time `json:"due_date,omitempty"`
	AssignedTo              *string    `json:"assigned_to,omitempty"`
	CreatedBy               *string    `json:"created_by,omitempty"`
	CompletedAt             *time.Time `json:"completed_at,omitempty"`
	CompletedBy             *string    `json:"completed_by,omitempty"`
	Notes                   *string    `json:"notes,omitempty"`
	ExternalCalendarEventID *string    `json:"external_calendar_event_id,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

// TodoTemplate seeds recurring todos.
type TodoTemplate struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       *string   `json:"description,omitempty"`
	Category          *string   `json:"category,omitempty"`
	DefaultAssignedTo *string   `json:"default_assigned_to,omitempty"`
	EstimatedMinutes  *int      `json:"estimated_minutes,omitempty"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
}

// ShoppingItem is an entry on the shared shopping list.
type ShoppingItem struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Quantity  *string    `json:"quantity,omitempty"`
	Category  *string    `json:"category,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	IsChecked bool       `json:"is_checked"`
	CheckedAt *time.Time `json:"checked_at,omitempty"`
	CheckedBy *string    `json:"checked_by,omitempty"`
	AddedBy   *string    `json:"added_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ShoppingRecurringItem is re-added to the list every FrequencyDays.
type ShoppingRecurringItem struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Quantity      *string    `json:"quantity,omitempty"`
	Category      *string    `json:"category,omitempty"`
	FrequencyDays int        `json:"frequency_days"`
	LastAdded     *time.Time `json:"last_added,omitempty"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Recipe with its ingredient list.
type Recipe struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	Category        *string   `json:"category,omitempty"`
	Instructions    *string   `json:"instructions,omitempty"`
	PrepTimeMinutes *int      `json:"prep_time_minutes,omitempty"`
	CookTimeMinutes *int      `json:"cook_time_minutes,omitempty"`
	Servings        *int      `json:"servings,omitempty"`
	IsFavorite      bool      `json:"is_favorite"`
	CreatedBy       *string   `json:"created_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Ingredients []RecipeIngredient `json:"ingredients"`
}

type RecipeIngredient struct {
	ID             string  `json:"id"`
	RecipeID       string  `json:"recipe_id"`
	IngredientName string  `json:"name"`
	Quantity       *string `json:"quantity,omitempty"`
	Unit           *string `json:"unit,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

// MealPlan is one planned meal slot on the family calendar.
type MealPlan struct {
	ID             string    `json:"id"`
	MealDate       time.Time `json:"meal_date"`
	MealType       string    `json:"meal_type"`
	RecipeID       *string   `json:"recipe_id,omitempty"`
	CustomMealName *string   `json:"custom_meal_name,omitempty"`
	AssignedTo     *string   `json:"assigned_to,omitempty"`
	IsCompleted    bool      `json:"is_completed"`
	Notes          *string   `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CalendarAssignment maps a Google calendar onto a user's dashboard view.
type CalendarAssignment struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	CalendarID   string    `json:"calendar_id"`
	CalendarName *string   `json:"calendar_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CalendarConfig selects the Google calendar that mirrored todos land on.
// At most one row is active; activating one deactivates the rest.
type CalendarConfig struct {
	ID           string    `json:"id"`
	CalendarID   string    `json:"calendar_id"`
	CalendarName *string   `json:"calendar_name,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}
