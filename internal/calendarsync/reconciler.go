// Package calendarsync mirrors household todos onto a shared Google
// Calendar and fetches calendar events for the dashboard.
package calendarsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/svanleeuwen/hearth/internal/google"
	"github.com/svanleeuwen/hearth/internal/metrics"
	"github.com/svanleeuwen/hearth/internal/store"
	"github.com/svanleeuwen/hearth/internal/tokens"
)

var (
	// ErrSyncNotConfigured means no household sync account is set, so
	// todos cannot be mirrored.
	ErrSyncNotConfigured = errors.New("calendarsync: no sync account configured")

	// ErrSyncAccountUnknown means the configured sync account email does
	// not match any user.
	ErrSyncAccountUnknown = errors.New("calendarsync: sync account does not match a user")
)

// tokenSource is the slice of the token manager the sync layer needs.
type tokenSource interface {
	AccessToken(ctx context.Context, userID string) (string, error)
	ForceRefresh(ctx context.Context, userID, rejected string) (string, error)
}

// calendarAPI is the slice of the Google client the sync layer needs.
type calendarAPI interface {
	ListEvents(ctx context.Context, accessToken, calendarID string, from, to time.Time) ([]google.Event, error)
	CreateEvent(ctx context.Context, accessToken, calendarID string, event google.Event) (*google.Event, error)
	DeleteEvent(ctx context.Context, accessToken, calendarID, eventID string) error
}

// userDirectory resolves the sync account and assignee display names.
type userDirectory interface {
	GetByID(ctx context.Context, id string) (*store.User, error)
	GetByEmail(ctx context.Context, email string) (*store.User, error)
}

// todoEventLinker records which remote event mirrors a todo.
type todoEventLinker interface {
	SetExternalEventID(ctx context.Context, todoID string, eventID *string) error
}

// targetSource selects the calendar mirrored todos land on.
type targetSource interface {
	GetActive(ctx context.Context) (*store.CalendarConfig, error)
}

// Reconciler keeps the mirrored calendar in step with the todo list. All
// remote calls run under the household sync account, not the acting user.
type Reconciler struct {
	users   userDirectory
	todos   todoEventLinker
	configs targetSource
	tokens  tokenSource
	api     calendarAPI

	syncAccount string
	location    *time.Location
	now         func() time.Time
}

func NewReconciler(
	users userDirectory,
	todos todoEventLinker,
	configs targetSource,
	tokens tokenSource,
	api calendarAPI,
	syncAccount string,
	location *time.Location,
) *Reconciler {
	if location == nil {
		location = time.Local
	}
	return &Reconciler{
		users:       users,
		todos:       todos,
		configs:     configs,
		tokens:      tokens,
		api:         api,
		syncAccount: syncAccount,
		location:    location,
		now:         time.Now,
	}
}

// CreateEvent mirrors a todo as a calendar event and records the created
// event's ID on the todo. Todos without a due date land in a one-hour slot
// starting 24 hours from now.
func (r *Reconciler) CreateEvent(ctx context.Context, todo *store.Todo) (string, error) {
	userID, err := r.syncUserID(ctx)
	if err != nil {
		return "", err
	}
	calendarID, err := r.calendarID(ctx)
	if err != nil {
		return "", err
	}

	start := r.now().Add(24 * time.Hour)
	if todo.DueDate != nil {
		start = *todo.DueDate
	}
	start = start.In(r.location)
	end := start.Add(time.Hour)

	event := google.Event{
		Summary:     todo.Title,
		Description: r.describe(ctx, todo),
		Start:       &google.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: r.location.String()},
		End:         &google.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: r.location.String()},
	}

	var created *google.Event
	err = r.withAuthRetry(ctx, userID, func(accessToken string) error {
		var apiErr error
		created, apiErr = r.api.CreateEvent(ctx, accessToken, calendarID, event)
		return apiErr
	})
	if err != nil {
		metrics.ObserveCalendarSync("create_event", "failure")
		return "", fmt.Errorf("mirror todo %s: %w", todo.ID, err)
	}

	if err := r.todos.SetExternalEventID(ctx, todo.ID, &created.ID); err != nil {
		metrics.ObserveCalendarSync("create_event", "failure")
		return "", fmt.Errorf("record event id for todo %s: %w", todo.ID, err)
	}
	metrics.ObserveCalendarSync("create_event", "success")
	return created.ID, nil
}

// DeleteEvent removes the mirrored event for a todo, if any. A todo without
// a recorded event ID is a successful no-op, and an event that is already
// gone remotely counts as deleted. The event ID is cleared from the todo in
// both cases.
func (r *Reconciler) DeleteEvent(ctx context.Context, todo *store.Todo) error {
	if todo.ExternalCalendarEventID == nil || *todo.ExternalCalendarEventID == "" {
		return nil
	}
	eventID := *todo.ExternalCalendarEventID

	userID, err := r.syncUserID(ctx)
	if err != nil {
		return err
	}
	calendarID, err := r.calendarID(ctx)
	if err != nil {
		return err
	}

	err = r.withAuthRetry(ctx, userID, func(accessToken string) error {
		return r.api.DeleteEvent(ctx, accessToken, calendarID, eventID)
	})
	if err != nil && !errors.Is(err, google.ErrNotFound) {
		metrics.ObserveCalendarSync("delete_event", "failure")
		return fmt.Errorf("delete mirrored event for todo %s: %w", todo.ID, err)
	}

	if err := r.todos.SetExternalEventID(ctx, todo.ID, nil); err != nil {
		return fmt.Errorf("clear event id for todo %s: %w", todo.ID, err)
	}
	metrics.ObserveCalendarSync("delete_event", "success")
	return nil
}

// withAuthRetry runs fn with a valid access token, forcing one refresh and
// one retry when the API rejects a token the store still considered valid.
func (r *Reconciler) withAuthRetry(ctx context.Context, userID string, fn func(accessToken string) error) error {
	accessToken, err := r.tokens.AccessToken(ctx, userID)
	if err != nil {
		return err
	}

	err = fn(accessToken)
	if !errors.Is(err, google.ErrUnauthorized) {
		return err
	}

	accessToken, refreshErr := r.tokens.ForceRefresh(ctx, userID, accessToken)
	if refreshErr != nil {
		return refreshErr
	}
	return fn(accessToken)
}

func (r *Reconciler) syncUserID(ctx context.Context) (string, error) {
	if r.syncAccount == "" {
		return "", ErrSyncNotConfigured
	}
	user, err := r.users.GetByEmail(ctx, r.syncAccount)
	if errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("%w: %s", ErrSyncAccountUnknown, r.syncAccount)
	}
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

func (r *Reconciler) calendarID(ctx context.Context) (string, error) {
	cfg, err := r.configs.GetActive(ctx)
	if errors.Is(err, store.ErrNotFound) {
		// No explicit target configured; the sync account's primary
		// calendar is the default.
		return "primary", nil
	}
	if err != nil {
		return "", err
	}
	return cfg.CalendarID, nil
}

func (r *Reconciler) describe(ctx context.Context, todo *store.Todo) string {
	var b strings.Builder
	if todo.Description != nil && *todo.Description != "" {
		b.WriteString(*todo.Description)
		b.WriteString("\n\n")
	}
	if todo.Category != nil && *todo.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", *todo.Category)
	}
	fmt.Fprintf(&b, "Priority: %s\n", todo.Priority)
	if todo.AssignedTo != nil {
		if assignee, err := r.users.GetByID(ctx, *todo.AssignedTo); err == nil && assignee.Name != nil {
			fmt.Fprintf(&b, "Assigned to: %s\n", *assignee.Name)
		}
	}
	b.WriteString("\nAdded from the Hearth todo list.")
	return b.String()
}

// ReauthRequired reports whether an error means the stored Google
// connection is gone and the user has to reconnect.
func ReauthRequired(err error) bool {
	return errors.Is(err, tokens.ErrReauthRequired) || errors.Is(err, tokens.ErrNotConnected)
}
