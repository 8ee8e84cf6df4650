package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store aggregates repositories backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool

	Users               UserRepository
	Sessions            SessionRepository
	GoogleTokens        GoogleTokenRepository
	HomeLocation        HomeLocationRepository
	UserLocations       UserLocationRepository
	Todos               TodoRepository
	TodoTemplates       TodoTemplateRepository
	Shopping            ShoppingRepository
	ShoppingRecurring   ShoppingRecurringRepository
	Recipes             RecipeRepository
	MealPlans           MealPlanRepository
	CalendarAssignments CalendarAssignmentRepository
	CalendarConfigs     CalendarConfigRepository
}

// New wires concrete repository implementations with a shared connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:                pool,
		Users:               &userRepo{pool: pool},
		Sessions:            &sessionRepo{pool: pool},
		GoogleTokens:        &googleTokenRepo{pool: pool},
		HomeLocation:        &homeLocationRepo{pool: pool},
		UserLocations:       &userLocationRepo{pool: pool},
		Todos:               &todoRepo{pool: pool},
		TodoTemplates:       &todoTemplateRepo{pool: pool},
		Shopping:            &shoppingRepo{pool: pool},
		ShoppingRecurring:   &shoppingRecurringRepo{pool: pool},
		Recipes:             &recipeRepo{pool: pool},
		MealPlans:           &mealPlanRepo{pool: pool},
		CalendarAssignments: &calendarAssignmentRepo{pool: pool},
		CalendarConfigs:     &calendarConfigRepo{pool: pool},
	}
}

// HealthCheck verifies that the underlying database is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	defer observeDB(ctx, "db.healthcheck")()
	return s.pool.Ping(ctx)
}
