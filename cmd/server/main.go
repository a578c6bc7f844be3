// Package main is the entry point for the partsledger API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"partsledger/internal/core/capability"
	"partsledger/internal/domain/analytics"
	"partsledger/internal/domain/auth"
	"partsledger/internal/domain/catalogs/job"
	"partsledger/internal/domain/catalogs/part"
	"partsledger/internal/domain/catalogs/supplier"
	"partsledger/internal/domain/catalogs/truck"
	"partsledger/internal/domain/documents/order"
	"partsledger/internal/domain/documents/returns"
	"partsledger/internal/domain/ledger"
	"partsledger/internal/domain/lineage"
	"partsledger/internal/domain/movements"
	"partsledger/internal/domain/partslist"
	v1 "partsledger/internal/infrastructure/http/v1"
	"partsledger/internal/infrastructure/storage/postgres"
	"partsledger/internal/infrastructure/storage/postgres/auth_repo"
	"partsledger/internal/infrastructure/storage/postgres/catalog_repo"
	"partsledger/internal/infrastructure/storage/postgres/document_repo"
	"partsledger/internal/infrastructure/storage/postgres/ledger_repo"
	"partsledger/pkg/logger"
	"partsledger/pkg/numerator"
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
	log.Info("starting partsledger server")

	// --- Database ---
	dsn := mustEnv("DATABASE_URL")
	if err := postgres.Migrate(ctx, dsn); err != nil {
		log.Fatalw("migrations failed", "error", err)
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)
	numbers := numerator.New(pool)

	// --- Repositories ---
	ledgerRepo := ledger_repo.New(txManager)
	partRepo := catalog_repo.NewPartRepo(txManager)
	supplierRepo := catalog_repo.NewSupplierRepo(txManager)
	truckRepo := catalog_repo.NewTruckRepo(txManager)
	jobRepo := catalog_repo.NewJobRepo(txManager)
	jobPartRepo := catalog_repo.NewJobPartRepo(txManager)
	listRepo := catalog_repo.NewPartsListRepo(txManager)
	orderRepo := document_repo.NewOrderRepo(txManager)
	returnRepo := document_repo.NewReturnRepo(txManager)
	userRepo := auth_repo.NewUserRepo(txManager)

	activityLog, err := postgres.NewActivityLog(txManager)
	if err != nil {
		log.Fatalw("failed to create activity log", "error", err)
	}

	// --- Domain services ---
	store := ledger.NewStore(ledgerRepo)
	tracker := lineage.NewTracker(jobPartRepo, store)

	partService := part.NewService(partRepo, txManager)
	supplierService := supplier.NewService(supplierRepo, txManager)
	truckService := truck.NewService(truckRepo, txManager)
	jobService := job.NewService(jobRepo, jobPartRepo, txManager, numbers)
	listService := partslist.NewService(listRepo, txManager)
	orderService := order.NewService(orderRepo, store, tracker, jobPartRepo, txManager, numbers)
	returnService := returns.NewService(returnRepo, store, txManager, numbers)
	movementService := movements.NewService(store, tracker, partRepo, jobPartRepo, txManager)
	analyticsService := analytics.NewService(store, jobPartRepo, partRepo, supplierRepo, listRepo, txManager)

	authService := auth.NewService(userRepo, txManager, auth.Config{
		Secret:   []byte(mustEnv("JWT_SECRET")),
		TokenTTL: getEnvDuration("JWT_TTL", 12*time.Hour),
	})

	gate, err := capability.NewPolicyGate(capability.DefaultPolicyExpr)
	if err != nil {
		log.Fatalw("failed to compile policy", "error", err)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:             pool,
		Logger:           log,
		Gate:             gate,
		AuthService:      authService,
		PartService:      partService,
		SupplierService:  supplierService,
		TruckService:     truckService,
		JobService:       jobService,
		PartsListService: listService,
		OrderService:     orderService,
		ReturnService:    returnService,
		MovementService:  movementService,
		AnalyticsService: analyticsService,
		ActivityLog:      activityLog,
	})

	// --- HTTP Server ---
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
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
