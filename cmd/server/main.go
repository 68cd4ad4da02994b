package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/django102/routelink-capricorn/internal/capricorn"
	"github.com/django102/routelink-capricorn/internal/config"
	"github.com/django102/routelink-capricorn/internal/handler"
	"github.com/django102/routelink-capricorn/internal/middleware"
	"github.com/django102/routelink-capricorn/internal/repository"
	"github.com/django102/routelink-capricorn/internal/service"
	authpkg "github.com/django102/routelink-capricorn/pkg/auth"
	"github.com/django102/routelink-capricorn/pkg/helpers"
	"github.com/django102/routelink-capricorn/pkg/logger"
	"github.com/django102/routelink-capricorn/pkg/metrics"
)

func main() {
	// Load environment variables from config.env, falling back to .env
	if err := godotenv.Load("config.env"); err != nil {
		if err2 := godotenv.Load(); err2 != nil {
			log.Printf("Warning: config.env and .env files not found, using environment variables only")
		}
	}

	cfg := config.Load()
	appLogger := logger.NewLogger("transaction-service")

	// Database connection
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBDatabase)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(ctx); err != nil {
		cancel()
		log.Fatalf("Failed to ping database: %v", err)
	}
	cancel()
	appLogger.Info("Successfully connected to database")

	// Redis connection
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(redisOpts)
	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		cancel()
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	cancel()
	appLogger.Info("Successfully connected to Redis")

	serviceMetrics := metrics.NewMetrics("transaction_service")

	// Initialize repositories
	txRepo := repository.NewTransactionRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	// Initialize provider client
	capricornClient := capricorn.NewClient(capricorn.Config{
		BaseURL:        cfg.CapricornBaseURL,
		APIKey:         cfg.CapricornAPIKey,
		MaxRetries:     cfg.ProviderMaxRetries,
		BackoffBase:    cfg.ProviderBackoffBase,
		RequestTimeout: cfg.ProviderRequestTimeout,
	}, appLogger, serviceMetrics)

	// Initialize services
	fraudConfig := service.DefaultFraudConfig()
	fraudConfig.BlockThreshold = cfg.FraudBlockThreshold
	fraudConfig.PatternTTL = cfg.PatternTTL
	fraudService := service.NewFraudService(txRepo, cacheRepo, appLogger, fraudConfig)
	transactionService := service.NewTransactionService(txRepo, fraudService, capricornClient, serviceMetrics, appLogger)

	// Initialize handlers
	validator := helpers.NewCustomValidator()
	transactionHandler := handler.NewTransactionHandler(transactionService, validator, appLogger)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	tokenValidator := authpkg.NewAccountServiceTokenValidator(cfg.AccountsServiceURL)

	apiMux := http.NewServeMux()
	transactionHandler.RegisterRoutes(apiMux)

	// Middleware chain: logging -> metrics -> auth -> idempotency -> handlers
	var apiHandler http.Handler = apiMux
	apiHandler = middleware.IdempotencyMiddleware(cacheRepo, cfg.IdempotencyTTL, appLogger)(apiHandler)
	apiHandler = middleware.AuthMiddleware(tokenValidator)(apiHandler)
	apiHandler = middleware.MetricsMiddleware(serviceMetrics)(apiHandler)
	apiHandler = middleware.LoggingMiddleware(appLogger)(apiHandler)

	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: mux,
	}

	// Report DB pool stats periodically
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			stats := db.Stats()
			serviceMetrics.RecordDBPoolStats(stats.OpenConnections, stats.InUse, stats.Idle, stats.WaitCount, stats.WaitDuration)
		}
	}()

	go func() {
		appLogger.Infof("Transaction service listening on :%s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	appLogger.Info("Server exited")
}
