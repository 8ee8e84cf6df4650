package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/svanleeuwen/hearth/internal/api"
	"github.com/svanleeuwen/hearth/internal/auth"
	"github.com/svanleeuwen/hearth/internal/config"
	"github.com/svanleeuwen/hearth/internal/http/csrf"
	"github.com/svanleeuwen/hearth/internal/http/ratelimit"
	"github.com/svanleeuwen/hearth/internal/metrics"
	"github.com/svanleeuwen/hearth/internal/store"
)

// NewRouter wires all HTTP routes for the dashboard API.
func NewRouter(cfg *config.Config, store *store.Store, authService *auth.Service, handler *api.Handler) http.Handler {
	r := chi.NewRouter()

	// Auth endpoints: 5 requests per second, burst of 10
	authRateLimiter := ratelimit.NewIPRateLimiter(rate.Limit(5), 10, 5*time.Minute, cfg.TrustedProxies)
	// Location reports come from phones on a timer: 20 rps, burst of 50
	apiRateLimiter := ratelimit.NewIPRateLimiter(rate.Limit(20), 50, 5*time.Minute, cfg.TrustedProxies)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.HealthCheck(ctx); err != nil {
			http.Error(w, "unready", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.PrometheusEnabled {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metrics.Handler().ServeHTTP(w, r)
		})
	}

	r.Route("/auth", func(r chi.Router) {
		r.Use(authRateLimiter.Middleware())
		r.Post("/login", handler.Login)
		r.Get("/sso/login", handler.BeginSSO)
		r.Get("/sso/callback", handler.SSOCallback)

		r.Group(func(r chi.Router) {
			r.Use(authService.RequireSession)
			r.Get("/me", handler.Me)
			r.Get("/sessions", handler.ListSessions)
			r.With(csrf.Middleware(cfg)).Post("/logout", handler.Logout)
			r.With(csrf.Middleware(cfg)).Delete("/sessions/{id}", handler.RevokeSession)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(apiRateLimiter.Middleware())
		r.Use(authService.RequireSession)

		// The OAuth redirect arrives as a plain browser GET; it sits outside
		// the CSRF middleware so Google's redirect is not rejected.
		r.Get("/calendar/callback", handler.CalendarCallback)

		r.Group(func(r chi.Router) {
			r.Use(csrf.Middleware(cfg))

			r.Get("/todos", handler.ListTodos)
			r.Post("/todos", handler.CreateTodo)
			r.Get("/todos/{id}", handler.GetTodo)
			r.Put("/todos/{id}", handler.UpdateTodo)
			r.Post("/todos/{id}/complete", handler.CompleteTodo)
			r.Delete("/todos/{id}", handler.DeleteTodo)

			r.Get("/shopping", handler.ListShoppingItems)
			r.Post("/shopping", handler.CreateShoppingItem)
			r.Delete("/shopping/checked", handler.ClearCheckedShoppingItems)
			r.Get("/shopping/recurring", handler.ListRecurringItems)
			r.Post("/shopping/recurring", handler.CreateRecurringItem)
			r.Put("/shopping/recurring/{id}", handler.UpdateRecurringItem)
			r.Delete("/shopping/recurring/{id}", handler.DeleteRecurringItem)
			r.Put("/shopping/{id}", handler.UpdateShoppingItem)
			r.Post("/shopping/{id}/check", handler.CheckShoppingItem)
			r.Delete("/shopping/{id}", handler.DeleteShoppingItem)

			r.Get("/meals/recipes", handler.ListRecipes)
			r.Post("/meals/recipes", handler.CreateRecipe)
			r.Get("/meals/recipes/{id}", handler.GetRecipe)
			r.Put("/meals/recipes/{id}", handler.UpdateRecipe)
			r.Delete("/meals/recipes/{id}", handler.DeleteRecipe)
			r.Get("/meals/plans", handler.ListMealPlans)
			r.Post("/meals/plans", handler.CreateMealPlan)
			r.Put("/meals/plans/{id}", handler.UpdateMealPlan)
			r.Delete("/meals/plans/{id}", handler.DeleteMealPlan)
			r.Post("/meals/shopping-list", handler.GenerateMealShoppingList)
			r.Get("/meals/reminders", handler.CookingReminders)

			r.Post("/location", handler.ReportLocation)
			r.Get("/location", handler.ListLocations)

			r.Get("/calendar/connect", handler.ConnectCalendar)
			r.Get("/calendar/status", handler.CalendarStatus)
			r.Delete("/calendar/connection", handler.DisconnectCalendar)
			r.Get("/calendar/events", handler.CalendarEvents)
			r.Get("/calendar/calendars", handler.ListGoogleCalendars)
			r.Get("/calendar/assignments", handler.ListCalendarAssignments)
			r.Post("/calendar/assignments", handler.CreateCalendarAssignment)
			r.Delete("/calendar/assignments/{id}", handler.DeleteCalendarAssignment)

			r.Route("/admin", func(r chi.Router) {
				r.Use(authService.RequireAdmin)

				r.Get("/users", handler.ListUsers)
				r.Post("/users", handler.CreateUser)
				r.Put("/users/{id}", handler.UpdateUser)
				r.Delete("/users/{id}", handler.DeleteUser)

				r.Get("/home-location", handler.GetHomeLocation)
				r.Put("/home-location", handler.PutHomeLocation)

				r.Get("/calendar-configs", handler.ListCalendarConfigs)
				r.Post("/calendar-configs", handler.ActivateCalendarConfig)
				r.Post("/calendar-configs/{id}/deactivate", handler.DeactivateCalendarConfig)
				r.Delete("/calendar-configs/{id}", handler.DeleteCalendarConfig)

				r.Get("/todo-templates", handler.ListTodoTemplates)
				r.Post("/todo-templates", handler.CreateTodoTemplate)
				r.Put("/todo-templates/{id}", handler.UpdateTodoTemplate)
				r.Delete("/todo-templates/{id}", handler.DeleteTodoTemplate)

				r.Post("/automation/{job}", handler.RunAutomation)
				r.Get("/todo-stats", handler.TodoStats)
			})
		})
	})

	return r
}
