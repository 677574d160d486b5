// Coach Finder server: holds the client session and coach/request caches and
// serves them to the UI.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/coach-finder/internal/api"
	"github.com/ashureev/coach-finder/internal/app"
	"github.com/ashureev/coach-finder/internal/clock"
	"github.com/ashureev/coach-finder/internal/coaches"
	"github.com/ashureev/coach-finder/internal/config"
	"github.com/ashureev/coach-finder/internal/docstore"
	"github.com/ashureev/coach-finder/internal/events"
	"github.com/ashureev/coach-finder/internal/identity"
	"github.com/ashureev/coach-finder/internal/metrics"
	"github.com/ashureev/coach-finder/internal/middleware"
	"github.com/ashureev/coach-finder/internal/requests"
	"github.com/ashureev/coach-finder/internal/session"
	"github.com/ashureev/coach-finder/internal/store"
	"github.com/ashureev/coach-finder/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "persistence", cfg.Persistence)

	// Initialize persistence.
	persist, pinger, err := openSessionStore(cfg)
	if err != nil {
		slog.Error("Failed to initialize session store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := persist.Close(); closeErr != nil {
			slog.Error("Failed to close session store", "error", closeErr)
		}
	}()

	if pinger != nil {
		if err := pinger.Ping(context.Background()); err != nil {
			slog.Error("Session store health check failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Session store connected")
	}

	// Initialize services.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	clk := clock.Real()

	auth := identity.NewClient(cfg.IdentityURL, cfg.IdentityAPIKey, httpClient)
	docs := docstore.NewClient(cfg.DocstoreURL, httpClient)

	mgr := session.NewManager(auth, persist, session.NewScheduler(clk), clk, logger)
	hub := events.NewHub()
	hub.Attach(mgr)

	st := app.New(
		mgr,
		coaches.NewDirectory(docs, cfg.CoachesStaleAfter, clk, logger),
		requests.NewInbox(docs, logger),
		logger,
	)
	if err := st.Init(context.Background()); err != nil {
		slog.Warn("Failed to restore session, starting anonymous", "error", err)
	}

	// Initialize handlers.
	apiHandler := api.NewHandler(st)
	healthHandler := api.NewHealthHandler(pinger)

	var origins []string
	if cfg.FrontendURL != "" {
		origins = []string{cfg.FrontendURL}
	}
	if cfg.IsDevelopment() {
		origins = []string{"*"}
	}
	wsHandler := events.NewHandler(hub, mgr, origins)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(origins))
	if cfg.MetricsEnabled {
		r.Use(middleware.Metrics)
		r.Handle("/metrics", metrics.Handler())
	}

	// Public routes.
	healthHandler.RegisterHealth(r)
	apiHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/session", wsHandler.ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// WebSocket streams need WriteTimeout disabled.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

// openSessionStore opens the configured backend. The returned pinger is nil
// for the in-memory store.
func openSessionStore(cfg *config.Config) (store.SessionStore, api.Pinger, error) {
	switch cfg.Persistence {
	case config.PersistenceSQLite:
		s, err := store.NewSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case config.PersistenceRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s := store.NewRedis(client, cfg.Redis.Prefix)
		return s, s, nil
	case config.PersistenceMemory:
		return store.NewMemory(), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown persistence %q", cfg.Persistence)
}
