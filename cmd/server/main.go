package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/svanleeuwen/hearth/internal/api"
	appauth "github.com/svanleeuwen/hearth/internal/auth"
	"github.com/svanleeuwen/hearth/internal/automation"
	"github.com/svanleeuwen/hearth/internal/calendarsync"
	"github.com/svanleeuwen/hearth/internal/config"
	"github.com/svanleeuwen/hearth/internal/google"
	httpserver "github.com/svanleeuwen/hearth/internal/http"
	"github.com/svanleeuwen/hearth/internal/presence"
	"github.com/svanleeuwen/hearth/internal/store"
	"github.com/svanleeuwen/hearth/internal/tokens"
)

func main() {
	log.Println("Starting Hearth server...")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("failed to create db pool: %v", err)
	}
	defer pool.Close()

	if err := store.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	stor := store.New(pool)
	sessionManager := appauth.NewSessionManager(cfg)
	authService, err := appauth.NewService(ctx, cfg, stor, sessionManager)
	if err != nil {
		log.Fatalf("failed to initialize auth service: %v", err)
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("invalid timezone %q: %v", cfg.Timezone, err)
	}

	googleAuth := google.NewTokenClient(cfg)
	googleAPI := google.NewClient(cfg.Google.APIBaseURL)
	tokenManager := tokens.NewManager(stor.GoogleTokens, googleAuth)
	mirror := calendarsync.NewReconciler(stor.Users, stor.Todos, stor.CalendarConfigs,
		tokenManager, googleAPI, cfg.Google.SyncAccount, location)
	fetcher := calendarsync.NewFetcher(tokenManager, googleAPI)

	presenceService := presence.NewService(stor.HomeLocation, stor.UserLocations)
	todoAuto := automation.NewTodoAutomation(stor.Todos, stor.TodoTemplates, stor.Users)
	shoppingAuto := automation.NewShoppingAutomation(stor.Shopping, stor.ShoppingRecurring)
	mealAuto := automation.NewMealAutomation(stor.MealPlans, stor.Recipes, stor.Shopping)

	handler := api.NewHandler(cfg, stor, authService, googleAuth, googleAPI, tokenManager,
		mirror, fetcher, presenceService, todoAuto, shoppingAuto, mealAuto)

	r := httpserver.NewRouter(cfg, stor, authService, handler)

	// Expired session rows pile up silently; sweep them in the background.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := authService.PurgeExpiredSessions(ctx); err != nil {
					log.Printf("[WARN] purging expired sessions: %v", err)
				}
			}
		}
	}()

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
