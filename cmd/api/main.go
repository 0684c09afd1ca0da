package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/wellbot/wellbot-api/internal/app/bootstrap"
	appconfig "github.com/wellbot/wellbot-api/internal/config"
	"github.com/wellbot/wellbot-api/internal/database"
	"github.com/wellbot/wellbot-api/internal/observability/metrics"
	"github.com/wellbot/wellbot-api/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting wellbot api", "env", cfg.Env, "port", cfg.Port)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	dsn, err := cfg.MySQLDSN()
	if err != nil {
		logger.Error("invalid database configuration", "error", err)
		os.Exit(1)
	}
	db, err := database.Open(ctx, database.PoolConfig{
		DSN:             dsn,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	providerMetrics := metrics.NewProviderMetrics(registry)

	llm, err := bootstrap.BuildLLMClient(ctx, cfg, providerMetrics, logger)
	if err != nil {
		logger.Error("failed to initialize llm client", "error", err)
		os.Exit(1)
	}

	handler, err := buildHandler(ctx, cfg, appDeps{
		DB:              db,
		Redis:           redisClient,
		LLM:             llm.Client,
		Registry:        registry,
		ProviderMetrics: providerMetrics,
	}, logger)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if err := llm.Close(); err != nil {
		logger.Warn("llm client close failed", "error", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close failed", "error", err)
		}
	}
	if err := db.Close(); err != nil {
		logger.Warn("database close failed", "error", err)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
