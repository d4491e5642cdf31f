package ai

import (
	"context"
	stderrors "errors"
	"fmt"

	"fluxcareer/internal/config"
	"fluxcareer/internal/errors"
	"fluxcareer/internal/types"

	"github.com/sony/gobreaker/v2"
)

// sendResult carries a provider reply through the breaker
type sendResult struct {
	text  string
	usage *TokenUsage
}

// ProviderCircuitBreaker stops calling a provider that keeps failing. It
// fails fast while open and never retries.
type ProviderCircuitBreaker struct {
	provider types.Provider
	cb       *gobreaker.CircuitBreaker[*sendResult]
}

// NewProviderCircuitBreaker creates a breaker for one provider within one
// operation. It returns nil when the breaker is disabled.
func NewProviderCircuitBreaker(operation string, provider types.Provider, cfg config.CircuitBreakerConfig, logger *errors.Logger) *ProviderCircuitBreaker {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = errors.NewNopLogger()
	}

	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("AI-%s-%s", operation, provider),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		// Missing keys and canceled requests say nothing about provider health
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			if stderrors.Is(err, context.Canceled) {
				return true
			}
			return !errors.IsType(err, errors.ErrorTypeProvider)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"operation", operation,
				"provider", provider,
				"from", from.String(),
				"to", to.String(),
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &ProviderCircuitBreaker{
		provider: provider,
		cb:       gobreaker.NewCircuitBreaker[*sendResult](settings),
	}
}

// Execute runs fn with circuit breaker protection. A nil breaker runs fn directly.
func (b *ProviderCircuitBreaker) Execute(fn func() (string, *TokenUsage, error)) (string, *TokenUsage, error) {
	if b == nil || b.cb == nil {
		return fn()
	}

	res, err := b.cb.Execute(func() (*sendResult, error) {
		text, usage, err := fn()
		if err != nil {
			return nil, err
		}
		return &sendResult{text: text, usage: usage}, nil
	})
	if err != nil {
		if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", nil, errors.NewProviderError(string(b.provider),
				providerDisplayName(b.provider)+" Error: service temporarily unavailable, try again shortly", err)
		}
		return "", nil, err
	}
	return res.text, res.usage, nil
}

// GetStats returns circuit breaker statistics
func (b *ProviderCircuitBreaker) GetStats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is in closed state
func (b *ProviderCircuitBreaker) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}

func providerDisplayName(p types.Provider) string {
	switch p {
	case types.ProviderGemini:
		return "Gemini"
	case types.ProviderOpenAI:
		return "OpenAI"
	case types.ProviderOpenRouter:
		return "OpenRouter"
	}
	return string(p)
}
