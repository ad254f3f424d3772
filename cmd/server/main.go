// Package main is the entry point for the stocktally API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appctx "stocktally/internal/core/context"
	"stocktally/internal/domain/auth"
	"stocktally/internal/domain/catalogs/stockitem"
	"stocktally/internal/domain/counting"
	v1 "stocktally/internal/infrastructure/http/v1"
	"stocktally/internal/infrastructure/numerator"
	"stocktally/internal/infrastructure/storage/postgres"
	"stocktally/internal/infrastructure/storage/postgres/auth_repo"
	"stocktally/internal/infrastructure/storage/postgres/catalog_repo"
	"stocktally/internal/infrastructure/storage/postgres/counting_repo"
	"stocktally/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Info("starting stocktally server")

	// --- Database ---
	dsn := mustEnv("DATABASE_URL")
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Audit ---
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- JWT and Auth ---
	jwtSecret := getEnv("JWT_SECRET", "change-me-in-production")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))

	authService := auth.NewService(
		auth_repo.NewUserRepo(txManager),
		auth_repo.NewTokenRepo(txManager),
		txManager,
		jwtService,
		auth.DefaultServiceConfig(),
	)

	// --- Stock catalog ---
	stockService := stockitem.NewService(catalog_repo.NewStockItemRepo(txManager), txManager)

	// --- Counting ---
	numeratorService := numerator.New(pool)

	countingService := counting.NewService(
		counting_repo.NewEventRepo(txManager),
		counting_repo.NewAdjustmentRepo(txManager),
		stockitem.NewSnapshotAdapter(stockService),
		numeratorService,
		txManager,
	)

	// Audit trail of event creation and updates goes through hooks so the
	// domain service stays storage-agnostic.
	countingService.Hooks().OnAfterCreate(func(ctx context.Context, event *counting.CountingEvent) error {
		return auditService.LogChange(ctx, "counting_event", event.ID, postgres.AuditActionCreate,
			map[string]any{"event_code": event.EventCode, "event_type": event.EventType})
	})
	countingService.Hooks().OnAfterUpdate(func(ctx context.Context, event *counting.CountingEvent) error {
		return auditService.LogChange(ctx, "counting_event", event.ID, postgres.AuditActionUpdate,
			map[string]any{"status": event.Status, "version": event.Version})
	})

	scheduleService := counting.NewScheduleService(
		counting_repo.NewScheduleRepo(txManager),
		countingService,
		txManager,
	)

	// --- Schedule ticker ---
	tickerCtx, stopTicker := context.WithCancel(ctx)
	defer stopTicker()
	go runScheduleTicker(tickerCtx, scheduleService, getEnvDuration("SCHEDULE_INTERVAL", time.Hour))

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:            pool,
		Logger:          log,
		JWTValidator:    jwtService,
		AuthService:     authService,
		CountingService: countingService,
		ScheduleService: scheduleService,
		StockService:    stockService,
	})

	// --- HTTP server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	stopTicker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// runScheduleTicker periodically generates planned events for due schedules.
func runScheduleTicker(ctx context.Context, schedules *counting.ScheduleService, interval time.Duration) {
	// Scheduled runs act as the system user.
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "scheduler", FullName: "Schedule Runner"})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := schedules.RunDue(ctx, now.UTC()); err != nil {
				logger.Error(ctx, "schedule run failed", "error", err)
			}
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
