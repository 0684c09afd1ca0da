// Package bootstrap builds the optional runtime collaborators shared by the
// API binary and its smoke-test tools.
package bootstrap

import (
	"context"
	"crypto/tls"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wellbot/wellbot-api/internal/config"
	"github.com/wellbot/wellbot-api/internal/conversation"
	"github.com/wellbot/wellbot-api/internal/notify"
	"github.com/wellbot/wellbot-api/internal/observability/metrics"
	"github.com/wellbot/wellbot-api/internal/speech"
	"github.com/wellbot/wellbot-api/pkg/logging"
)

// ErrNoLLMProvider is returned when neither Gemini nor OpenAI is configured.
var ErrNoLLMProvider = errors.New("bootstrap: no LLM provider configured")

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, speech cache disabled", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// LLMRuntime is the generation client plus the hook that releases it.
type LLMRuntime struct {
	Client conversation.LLMClient
	close  func() error
}

// Close releases provider connections. Safe on a nil runtime.
func (r *LLMRuntime) Close() error {
	if r == nil || r.close == nil {
		return nil
	}
	return r.close()
}

// BuildLLMClient wires Gemini as the primary provider and OpenAI as the
// fallback when its key is present. Every provider is wrapped so its calls
// land in the provider metrics.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, observer conversation.ProviderObserver, logger *logging.Logger) (*LLMRuntime, error) {
	if cfg == nil {
		return nil, ErrNoLLMProvider
	}
	if logger == nil {
		logger = logging.Default()
	}

	var primary, fallback conversation.LLMClient
	var closer func() error

	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		gemini, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, err
		}
		primary = conversation.NewObservedLLMClient(gemini, "gemini", observer)
		closer = gemini.Close
	}
	if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
		openai, err := conversation.NewOpenAILLMClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, err
		}
		fallback = conversation.NewObservedLLMClient(openai, "openai", observer)
	}

	switch {
	case primary != nil && fallback != nil:
		logger.Info("llm configured", "primary", "gemini", "model", cfg.GeminiModelID, "fallback", "openai")
		return &LLMRuntime{Client: conversation.NewFallbackLLMClient(primary, fallback, logger), close: closer}, nil
	case primary != nil:
		logger.Info("llm configured", "primary", "gemini", "model", cfg.GeminiModelID)
		return &LLMRuntime{Client: primary, close: closer}, nil
	case fallback != nil:
		logger.Warn("GEMINI_API_KEY not set, using openai only", "model", cfg.OpenAIModel)
		return &LLMRuntime{Client: fallback}, nil
	default:
		return nil, ErrNoLLMProvider
	}
}

// BuildEmailSender returns the SendGrid sender, or a logging stub when
// SendGrid is not configured. Outside production SendGrid runs in sandbox mode.
func BuildEmailSender(cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	if cfg != nil {
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
			Sandbox:   cfg.Env != "production",
		}, logger)
		if sender != nil {
			return sender
		}
	}
	return notify.NewStubEmailSender(logger)
}

// BuildSpeechService wires Google TTS with an optional Redis cache. It
// returns nil when no TTS key is configured.
func BuildSpeechService(ctx context.Context, cfg *appconfig.Config, redisClient *redis.Client, providerMetrics *metrics.ProviderMetrics, logger *logging.Logger) (*speech.Service, error) {
	if cfg == nil || strings.TrimSpace(cfg.TTSAPIKey) == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	synth, err := speech.NewGoogleSynthesizer(ctx, cfg.TTSAPIKey)
	if err != nil {
		return nil, err
	}
	opts := []speech.ServiceOption{
		speech.WithMaxChars(cfg.TTSMaxChars),
		speech.WithObserver(providerMetrics),
	}
	if redisClient != nil {
		opts = append(opts, speech.WithCache(speech.NewRedisCache(redisClient, cfg.TTSCacheTTL)))
		logger.Info("speech cache enabled", "ttl", cfg.TTSCacheTTL.String())
	}
	return speech.NewService(synth, logger, opts...), nil
}
