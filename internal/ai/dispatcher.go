package ai

import (
	"context"

	"fluxcareer/internal/config"
	"fluxcareer/internal/errors"
	"fluxcareer/internal/types"
)

// Dispatcher routes a request to the adapter named by its provider. It holds
// no per-request state and is safe for concurrent use.
type Dispatcher struct {
	providers map[types.Provider]Provider
	breakers  map[types.Provider]*ProviderCircuitBreaker
	logger    *errors.Logger
}

// NewDispatcher creates a dispatcher over the given adapters. Breakers are
// optional and may be nil.
func NewDispatcher(providers []Provider, breakers map[types.Provider]*ProviderCircuitBreaker, logger *errors.Logger) *Dispatcher {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	d := &Dispatcher{
		providers: make(map[types.Provider]Provider, len(providers)),
		breakers:  breakers,
		logger:    logger,
	}
	for _, p := range providers {
		d.providers[p.Name()] = p
	}
	return d
}

// NewDefaultDispatcher wires the three built-in adapters for one operation
func NewDefaultDispatcher(cfg *config.Config, operation string, logger *errors.Logger) *Dispatcher {
	base := ProviderOptions{Strict: cfg.AI.StrictResponses, Logger: logger}

	gemini, openAI, openRouter := base, base, base
	gemini.BaseURL = cfg.AI.Endpoints.Gemini
	openAI.BaseURL = cfg.AI.Endpoints.OpenAI
	openRouter.BaseURL = cfg.AI.Endpoints.OpenRouter

	breakers := make(map[types.Provider]*ProviderCircuitBreaker)
	if opCfg, err := cfg.GetOperationConfig(operation); err == nil {
		for _, p := range types.KnownProviders {
			breakers[p] = NewProviderCircuitBreaker(operation, p, opCfg.CircuitBreaker, logger)
		}
	}

	return NewDispatcher([]Provider{
		NewGeminiProvider(gemini),
		NewOpenAIProvider(openAI),
		NewOpenRouterProvider(openRouter),
	}, breakers, logger)
}

// Generate sends req through the adapter selected by req.Config.Provider.
//
// An unrecognized provider is routed to Gemini when a legacy key is present,
// using that key as the Gemini credential. Configurations saved before
// multi-provider support keep working this way without a migration.
func (d *Dispatcher) Generate(ctx context.Context, req types.Request) (string, *TokenUsage, error) {
	provider := req.Config.Provider
	if !provider.Known() {
		if req.Config.LegacyAPIKey == "" {
			return "", nil, errors.NewUnsupportedProviderError(string(provider))
		}
		d.logger.Debug("Routing unrecognized provider to Gemini with legacy key",
			"configured_provider", provider)
		req.Config = legacyGeminiConfig(req.Config)
		provider = types.ProviderGemini
	}

	adapter, ok := d.providers[provider]
	if !ok {
		return "", nil, errors.NewUnsupportedProviderError(string(provider))
	}

	return d.breakers[provider].Execute(func() (string, *TokenUsage, error) {
		return adapter.Send(ctx, req)
	})
}

// legacyGeminiConfig rewrites cfg so the legacy key acts as the Gemini key.
// The caller's map is copied, never mutated.
func legacyGeminiConfig(cfg types.ProviderConfig) types.ProviderConfig {
	keys := make(map[types.Provider]string, len(cfg.APIKeys)+1)
	for k, v := range cfg.APIKeys {
		keys[k] = v
	}
	keys[types.ProviderGemini] = cfg.LegacyAPIKey

	out := cfg
	out.Provider = types.ProviderGemini
	out.APIKeys = keys
	return out
}

// BreakerStats reports circuit breaker state per provider
func (d *Dispatcher) BreakerStats() map[string]any {
	stats := make(map[string]any, len(d.breakers))
	for p, b := range d.breakers {
		stats[string(p)] = b.GetStats()
	}
	return stats
}

// Healthy reports whether every breaker is closed
func (d *Dispatcher) Healthy() bool {
	for _, b := range d.breakers {
		if !b.IsHealthy() {
			return false
		}
	}
	return true
}
