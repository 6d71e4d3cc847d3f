// Package main is the entry point for the fuelstock API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"fuelstock/internal/config"
	"fuelstock/internal/domain/auth"
	"fuelstock/internal/domain/reports"
	"fuelstock/internal/infrastructure/cache"
	v1 "fuelstock/internal/infrastructure/http/v1"
	"fuelstock/internal/infrastructure/storage/postgres"
	"fuelstock/pkg/logger"
	"fuelstock/pkg/numerator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.LogDevelopment,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()
	log.Info("starting fuelstock server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.PGDSN)
	poolCfg.MaxConns = cfg.PGMaxConns
	poolCfg.MaxConnLifetime = cfg.PGConnLifetime

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Redis (report cache) ---
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	var reportCache *cache.ReportCache
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warnw("redis unavailable, report caching disabled", "error", err)
	} else {
		reportCache = cache.NewReportCache(redisClient, cfg.ReportCacheTTL, log)
		log.Info("report cache enabled")
	}

	// --- Stock level classifier ---
	classifier, err := reports.NewClassifier(cfg.CriticalStockExpr, cfg.LowStockExpr)
	if err != nil {
		log.Fatalw("failed to compile stock level rules", "error", err)
	}

	// --- Auditing ---
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- JWT ---
	jwtService := auth.NewJWTService(auth.JWTConfig{
		Secret: cfg.JWTSecret,
		Issuer: "fuelstock",
	})

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:         pool,
		TxManager:    txManager,
		Redis:        redisClient,
		Logger:       log,
		JWTValidator: jwtService,
		Numerator:    numerator.New(pool),
		Auditor:      auditService,
		ReportCache:  reportCache,
		Classifier:   classifier,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
