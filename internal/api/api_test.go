package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/svanleeuwen/hearth/internal/auth"
	"github.com/svanleeuwen/hearth/internal/calendarsync"
	"github.com/svanleeuwen/hearth/internal/config"
	"github.com/svanleeuwen/hearth/internal/google"
	"github.com/svanleeuwen/hearth/internal/presence"
	"github.com/svanleeuwen/hearth/internal/store"
)

type fakeTodoRepo struct {
	todos map[string]store.Todo

	linked  map[string]*string
	deleted []string
}

func newFakeTodoRepo() *fakeTodoRepo {
	return &fakeTodoRepo{todos: make(map[string]store.Todo), linked: make(map[string]*string)}
}

func (r *fakeTodoRepo) Create(_ context.Context, todo store.Todo) (*store.Todo, error) {
	r.todos[todo.ID] = todo
	return &todo, nil
}

func (r *fakeTodoRepo) GetByID(_ context.Context, id string) (*store.Todo, error) {
	todo, ok := r.todos[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &todo, nil
}

func (r *fakeTodoRepo) List(_ context.Context, status string) ([]store.Todo, error) {
	var out []store.Todo
	for _, todo := range r.todos {
		if todo.Status == status {
			out = append(out, todo)
		}
	}
	return out, nil
}

func (r *fakeTodoRepo) ListOverdue(context.Context, time.Time) ([]store.Todo, error) { return nil, nil }
func (r *fakeTodoRepo) ListByAssignee(context.Context, string) ([]store.Todo, error) {
	return nil, nil
}

func (r *fakeTodoRepo) Update(_ context.Context, todo store.Todo) error {
	if _, ok := r.todos[todo.ID]; !ok {
		return store.ErrNotFound
	}
	r.todos[todo.ID] = todo
	return nil
}

func (r *fakeTodoRepo) SetExternalEventID(_ context.Context, id string, eventID *string) error {
	r.linked[id] = eventID
	return nil
}

func (r *fakeTodoRepo) Complete(_ context.Context, id, completedBy string, at time.Time) error {
	todo, ok := r.todos[id]
	if !ok {
		return store.ErrNotFound
	}
	todo.Status = store.TodoCompleted
	todo.CompletedBy = &completedBy
	todo.CompletedAt = &at
	r.todos[id] = todo
	return nil
}

func (r *fakeTodoRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.todos[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.todos, id)
	r.deleted = append(r.deleted, id)
	return nil
}

type fakeUserRepo struct {
	users []store.User
}

func (r *fakeUserRepo) Create(_ context.Context, user store.User) (*store.User, error) {
	r.users = append(r.users, user)
	return &user, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*store.User, error) {
	for i := range r.users {
		if r.users[i].ID == id {
			copy := r.users[i]
			return &copy, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*store.User, error) {
	for i := range r.users {
		if r.users[i].Email == email {
			copy := r.users[i]
			return &copy, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *fakeUserRepo) GetByOIDCSubject(context.Context, string) (*store.User, error) {
	return nil, store.ErrNotFound
}

func (r *fakeUserRepo) List(context.Context) ([]store.User, error) { return r.users, nil }

func (r *fakeUserRepo) ListActive(context.Context) ([]store.User, error) {
	var out []store.User
	for _, u := range r.users {
		if u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user store.User) error {
	for i := range r.users {
		if r.users[i].ID == user.ID {
			r.users[i] = user
			return nil
		}
	}
	return store.ErrNotFound
}

func (r *fakeUserRepo) TouchLastLogin(context.Context, string) error { return nil }

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	for i := range r.users {
		if r.users[i].ID == id {
			r.users = append(r.users[:i], r.users[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type fakeMirror struct {
	createErr error
	deleteErr error

	created []string
	removed []string
}

func (m *fakeMirror) CreateEvent(_ context.Context, todo *store.Todo) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.created = append(m.created, todo.ID)
	return "evt-" + todo.ID, nil
}

func (m *fakeMirror) DeleteEvent(_ context.Context, todo *store.Todo) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.removed = append(m.removed, todo.ID)
	return nil
}

type fakeFetcher struct {
	result *calendarsync.CalendarEvents
	err    error

	calendarIDs []string
}

func (f *fakeFetcher) Events(_ context.Context, _ string, calendarIDs []string, _, _ time.Time) (*calendarsync.CalendarEvents, error) {
	f.calendarIDs = calendarIDs
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeConnections struct {
	connected bool
	tokenErr  error
}

func (c *fakeConnections) Connect(context.Context, string, string) error { return nil }
func (c *fakeConnections) Disconnect(context.Context, string) error      { return nil }
func (c *fakeConnections) Connected(context.Context, string) (bool, error) {
	return c.connected, nil
}

func (c *fakeConnections) AccessToken(context.Context, string) (string, error) {
	if c.tokenErr != nil {
		return "", c.tokenErr
	}
	return "token", nil
}

type fakeDirectory struct {
	calendars []google.CalendarListEntry
}

func (d *fakeDirectory) ListCalendars(context.Context, string) ([]google.CalendarListEntry, error) {
	return d.calendars, nil
}

type fakeAssignmentRepo struct {
	assignments []store.CalendarAssignment
}

func (r *fakeAssignmentRepo) Create(_ context.Context, a store.CalendarAssignment) (*store.CalendarAssignment, error) {
	r.assignments = append(r.assignments, a)
	return &a, nil
}

func (r *fakeAssignmentRepo) ListByUser(_ context.Context, userID string) ([]store.CalendarAssignment, error) {
	var out []store.CalendarAssignment
	for _, a := range r.assignments {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAssignmentRepo) Delete(_ context.Context, userID, id string) error {
	for i, a := range r.assignments {
		if a.UserID == userID && a.ID == id {
			r.assignments = append(r.assignments[:i], r.assignments[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (r *fakeAssignmentRepo) DeleteByUser(_ context.Context, userID string) error { return nil }

type fakeHomeRepo struct {
	home *store.HomeLocation
}

func (r *fakeHomeRepo) Get(context.Context) (*store.HomeLocation, error) {
	if r.home == nil {
		return nil, store.ErrNotFound
	}
	return r.home, nil
}

func (r *fakeHomeRepo) Put(_ context.Context, loc store.HomeLocation) error {
	r.home = &loc
	return nil
}

type fakeLocationRepo struct {
	locations map[string]store.UserLocation
}

func (r *fakeLocationRepo) Upsert(_ context.Context, loc store.UserLocation) error {
	if r.locations == nil {
		r.locations = make(map[string]store.UserLocation)
	}
	r.locations[loc.UserID] = loc
	return nil
}

func (r *fakeLocationRepo) GetByUser(_ context.Context, userID string) (*store.UserLocation, error) {
	loc, ok := r.locations[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &loc, nil
}

func (r *fakeLocationRepo) ListAll(context.Context) ([]store.UserLocation, error) {
	var out []store.UserLocation
	for _, loc := range r.locations {
		out = append(out, loc)
	}
	return out, nil
}

type testEnv struct {
	handler     *Handler
	users       *fakeUserRepo
	todos       *fakeTodoRepo
	mirror      *fakeMirror
	fetcher     *fakeFetcher
	connections *fakeConnections
	assignments *fakeAssignmentRepo
	home        *fakeHomeRepo
	router      chi.Router
}

var testUser = &store.User{ID: "u1", Email: "sam@example.com", Role: store.RoleMember, IsActive: true}

func newTestEnv() *testEnv {
	env := &testEnv{
		users:       &fakeUserRepo{},
		todos:       newFakeTodoRepo(),
		mirror:      &fakeMirror{},
		fetcher:     &fakeFetcher{result: &calendarsync.CalendarEvents{}},
		connections: &fakeConnections{connected: true},
		assignments: &fakeAssignmentRepo{},
		home:        &fakeHomeRepo{},
	}
	locations := &fakeLocationRepo{}

	cfg := &config.Config{BaseURL: "http://localhost:8080"}
	st := &store.Store{
		Users:               env.users,
		Todos:               env.todos,
		CalendarAssignments: env.assignments,
		HomeLocation:        env.home,
		UserLocations:       locations,
	}
	env.handler = NewHandler(cfg, st, nil, nil, &fakeDirectory{}, env.connections,
		env.mirror, env.fetcher, presence.NewService(env.home, locations), nil, nil, nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithUser(req.Context(), testUser)))
		})
	})
	r.Get("/api/todos", env.handler.ListTodos)
	r.Post("/api/todos", env.handler.CreateTodo)
	r.Get("/api/todos/{id}", env.handler.GetTodo)
	r.Put("/api/todos/{id}", env.handler.UpdateTodo)
	r.Post("/api/todos/{id}/complete", env.handler.CompleteTodo)
	r.Delete("/api/todos/{id}", env.handler.DeleteTodo)
	r.Get("/api/calendar/events", env.handler.CalendarEvents)
	r.Get("/api/calendar/calendars", env.handler.ListGoogleCalendars)
	r.Post("/api/location", env.handler.ReportLocation)
	r.Get("/api/location", env.handler.ListLocations)
	r.Get("/api/admin/users", env.handler.ListUsers)
	env.router = r
	return env
}

func (env *testEnv) do(t testingT, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, decoded
}

// testingT is the slice of *testing.T the helpers use.
type testingT interface {
	Helper()
	Fatalf(format string, args ...any)
}
