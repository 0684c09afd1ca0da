// Package speech synthesizes Vietnamese voice replies for the mobile client.
package speech

import (
	"context"
	"time"

	"github.com/wellbot/wellbot-api/pkg/logging"
)

const (
	DefaultMaxChars = 5000
	providerName    = "google_tts"
)

// Observer records provider call outcomes.
type Observer interface {
	ObserveRequest(provider, outcome string, seconds float64)
}

// Service synthesizes speech, consulting an optional cache first.
type Service struct {
	synth    Synthesizer
	cache    Cache
	observer Observer
	maxChars int
	logger   *logging.Logger
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

func WithCache(cache Cache) ServiceOption {
	return func(s *Service) { s.cache = cache }
}

func WithObserver(observer Observer) ServiceOption {
	return func(s *Service) { s.observer = observer }
}

// WithMaxChars caps the input length in runes.
func WithMaxChars(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.maxChars = n
		}
	}
}

func NewService(synth Synthesizer, logger *logging.Logger, opts ...ServiceOption) *Service {
	if synth == nil {
		panic("speech: synthesizer required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{synth: synth, maxChars: DefaultMaxChars, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Speak returns base64 MP3 audio for text in the requested voice preset.
// Cache failures are logged and bypassed.
func (s *Service) Speak(ctx context.Context, text, voiceType string) (string, error) {
	voice := VoiceFor(voiceType)
	text = truncateRunes(text, s.maxChars)

	if s.cache != nil {
		audio, ok, err := s.cache.Get(ctx, voice.Type, text)
		if err != nil {
			s.logger.Warn("tts cache read failed", "error", err)
		} else if ok {
			return audio, nil
		}
	}

	start := time.Now()
	audio, err := s.synth.Synthesize(ctx, text, voice)
	if s.observer != nil {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		s.observer.ObserveRequest(providerName, outcome, time.Since(start).Seconds())
	}
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, voice.Type, text, audio); err != nil {
			s.logger.Warn("tts cache write failed", "error", err)
		}
	}
	return audio, nil
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
