package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wellbot/wellbot-api/internal/api/router"
	"github.com/wellbot/wellbot-api/internal/app/bootstrap"
	"github.com/wellbot/wellbot-api/internal/auth"
	"github.com/wellbot/wellbot-api/internal/bookings"
	"github.com/wellbot/wellbot-api/internal/clinic"
	"github.com/wellbot/wellbot-api/internal/compliance"
	appconfig "github.com/wellbot/wellbot-api/internal/config"
	"github.com/wellbot/wellbot-api/internal/conversation"
	httpmiddleware "github.com/wellbot/wellbot-api/internal/http/middleware"
	"github.com/wellbot/wellbot-api/internal/notify"
	"github.com/wellbot/wellbot-api/internal/observability/metrics"
	"github.com/wellbot/wellbot-api/internal/speech"
	"github.com/wellbot/wellbot-api/internal/users"
	"github.com/wellbot/wellbot-api/pkg/logging"
)

// appDeps are the long-lived connections main opens and later closes.
type appDeps struct {
	DB              *sql.DB
	Redis           *redis.Client
	LLM             conversation.LLMClient
	Registry        *prometheus.Registry
	ProviderMetrics *metrics.ProviderMetrics
}

// buildHandler wires every component onto the router.
func buildHandler(ctx context.Context, cfg *appconfig.Config, deps appDeps, logger *logging.Logger) (http.Handler, error) {
	if deps.DB == nil {
		return nil, errors.New("api: database required")
	}
	if deps.LLM == nil {
		return nil, bootstrap.ErrNoLLMProvider
	}
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}

	tokens, err := auth.NewTokens(auth.TokenConfig{
		UserSecret:   cfg.UserJWTSecret,
		ClinicSecret: cfg.ClinicJWTSecret,
		UserTTL:      cfg.UserTokenTTL,
		ClinicTTL:    cfg.ClinicTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("api: tokens: %w", err)
	}

	transitions, err := bookings.ParseTransitions(cfg.BookingTransitions)
	if err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}

	directory := clinic.DefaultDirectory()

	userStore := users.NewStore(deps.DB)
	userService := users.NewService(userStore, tokens, logger)

	notifier := notify.NewService(bootstrap.BuildEmailSender(cfg, logger), logger)
	bookingService := bookings.NewService(
		bookings.NewRepository(deps.DB),
		directory,
		transitions,
		logger,
		bookings.WithAuditor(compliance.NewAuditService(deps.DB)),
		bookings.WithNotifier(notifier),
		bookings.WithObserver(metrics.NewBookingMetrics(deps.Registry)),
	)

	sessions := conversation.NewSessionStore(deps.DB)
	assembler := conversation.NewAssembler(sessions, bookingService, userService, logger)
	orchestrator := conversation.NewOrchestrator(deps.LLM, directory, logger,
		conversation.WithSampling(cfg.LLMTemperature, cfg.LLMMaxOutputTokens),
		conversation.WithTimeout(cfg.LLMTimeout),
	)

	var speechHandler *speech.Handler
	speechService, err := bootstrap.BuildSpeechService(ctx, cfg, deps.Redis, deps.ProviderMetrics, logger)
	if err != nil {
		return nil, fmt.Errorf("api: speech: %w", err)
	}
	if speechService != nil {
		speechHandler = speech.NewHandler(speechService, logger)
	} else {
		logger.Warn("GOOGLE_TTS_API_KEY not set, /tts disabled")
	}

	var limiter *httpmiddleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = httpmiddleware.NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	return router.New(&router.Config{
		Logger:             logger,
		UserAuth:           tokens,
		ClinicAuth:         tokens,
		UsersHandler:       users.NewHandler(userService, logger),
		ClinicHandler:      clinic.NewHandler(directory),
		ClinicStatsHandler: clinic.NewStatsHandler(clinic.NewStatsRepository(deps.DB), logger),
		BookingsHandler:    bookings.NewHandler(bookingService, logger),
		ChatHandler:        conversation.NewHandler(sessions, assembler, orchestrator, logger),
		GoodThoughts:       conversation.NewGoodThoughts(),
		SpeechHandler:      speechHandler,
		MetricsHandler:     promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		ProviderLimiter:    limiter,
		DB:                 deps.DB,
		MaxBodyBytes:       cfg.MaxBodyBytes,
	}), nil
}
