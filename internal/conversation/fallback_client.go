package conversation

import (
	"context"
	"time"

	"github.com/wellbot/wellbot-api/pkg/logging"
)

// FallbackLLMClient wraps a primary LLM client with a fallback provider.
// If the primary fails, it retries once with the fallback.
type FallbackLLMClient struct {
	primary  LLMClient
	fallback LLMClient
	logger   *logging.Logger
}

// NewFallbackLLMClient creates a new fallback-enabled LLM client.
// If fallback is nil, the client will only use the primary provider.
func NewFallbackLLMClient(primary, fallback LLMClient, logger *logging.Logger) *FallbackLLMClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackLLMClient{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Complete sends a completion request to the primary LLM.
// If it fails and a fallback is configured, retries with the fallback.
func (c *FallbackLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	resp, err := c.primary.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}

	c.logger.Warn("primary LLM failed, attempting fallback",
		"error", err.Error(),
		"fallback_available", c.fallback != nil,
	)
	if c.fallback == nil || ctx.Err() != nil {
		return LLMResponse{}, err
	}

	fallbackResp, fallbackErr := c.fallback.Complete(ctx, req)
	if fallbackErr != nil {
		c.logger.Error("fallback LLM also failed",
			"primary_error", err.Error(),
			"fallback_error", fallbackErr.Error(),
		)
		return LLMResponse{}, fallbackErr
	}

	c.logger.Info("fallback LLM succeeded after primary failure")
	return fallbackResp, nil
}

// ProviderObserver records the outcome and latency of a provider call.
type ProviderObserver interface {
	ObserveRequest(provider, outcome string, seconds float64)
}

// ObservedLLMClient reports every completion to a ProviderObserver.
type ObservedLLMClient struct {
	inner    LLMClient
	provider string
	observer ProviderObserver
	now      func() time.Time
}

// NewObservedLLMClient labels calls through inner with provider.
func NewObservedLLMClient(inner LLMClient, provider string, observer ProviderObserver) *ObservedLLMClient {
	return &ObservedLLMClient{inner: inner, provider: provider, observer: observer, now: time.Now}
}

func (c *ObservedLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	start := c.now()
	resp, err := c.inner.Complete(ctx, req)
	if c.observer != nil {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		c.observer.ObserveRequest(c.provider, outcome, c.now().Sub(start).Seconds())
	}
	return resp, err
}
