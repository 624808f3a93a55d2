package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expense-api/internal/auth"
	"expense-api/internal/config"
	"expense-api/internal/handlers"
	"expense-api/internal/service"
	"expense-api/internal/storage"
)

func main() {
	cfg := config.Load(".env")

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to open database", "error", err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer db.Close()

	tokens := auth.NewTokenManager(cfg.SecretKey, cfg.TokenIssuer, cfg.TokenTTL)
	authSvc, err := service.NewAuthService(db, tokens, cfg.BcryptCost)
	if err != nil {
		logger.Error("Failed to initialize auth service", "error", err)
		os.Exit(1)
	}

	created, err := authSvc.EnsureAdmin(context.Background(), cfg.AdminUser, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		logger.Error("Failed to create admin user", "error", err, "username", cfg.AdminUser)
		os.Exit(1)
	}
	if created {
		logger.Info("Created admin user", "username", cfg.AdminUser)
	}

	h := handlers.NewHandlers(authSvc, service.NewExpenseService(db), service.NewCategoryService(db), db)

	srv := &http.Server{
		Addr:           cfg.Addr(),
		Handler:        setupRouter(h, cfg.CORSOrigin),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting expense API", "addr", srv.Addr, "db", cfg.DBPath)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "addr", srv.Addr)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func setupRouter(h *handlers.Handlers, corsOrigin string) http.Handler {
	mux := http.NewServeMux()
	protected := func(fn http.HandlerFunc) http.Handler {
		return h.AuthMiddleware(fn)
	}

	// Public routes
	mux.HandleFunc("GET /api/healthz", h.Health)
	mux.HandleFunc("GET /api/hello", h.Hello)
	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("GET /api/categories", h.ListCategories)
	mux.HandleFunc("POST /api/categories", h.CreateCategory)

	// Protected routes
	mux.Handle("GET /api/auth/me", protected(h.Me))
	mux.Handle("GET /api/expenses", protected(h.ListExpenses))
	mux.Handle("POST /api/expenses", protected(h.CreateExpense))
	mux.Handle("GET /api/expenses/filter", protected(h.FilterExpenses))
	mux.Handle("GET /api/expenses/summary", protected(h.Summary))
	mux.Handle("GET /api/expenses/chart-data", protected(h.ChartData))
	mux.Handle("PUT /api/expenses/{id}", protected(h.UpdateExpense))
	mux.Handle("DELETE /api/expenses/{id}", protected(h.DeleteExpense))

	return handlers.Chain(mux,
		handlers.RequestLogger,
		handlers.Recoverer,
		handlers.CORS(corsOrigin),
	)
}
