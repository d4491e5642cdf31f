package config

import (
	"fmt"
	"time"

	"fluxcareer/internal/types"
)

// applyOperationDefaults applies global defaults to operation-specific configuration.
// The global model belongs to the global provider, so an operation that
// switches provider without naming a model gets the provider default.
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" && types.ParseProvider(opCfg.Provider) == types.ParseProvider(c.AI.Provider) {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		timeout := c.AI.Timeout
		opCfg.Timeout = &timeout
	}
}

// GetOperationConfig returns the AI configuration for op with fallback to global config
func (c *Config) GetOperationConfig(op string) (OperationAIConfig, error) {
	var config OperationAIConfig
	switch op {
	case OperationCoverLetter:
		config = c.AI.CoverLetter
	case OperationInterview:
		config = c.AI.Interview
	case OperationTailor:
		config = c.AI.Tailor
	case OperationChat:
		config = c.AI.Chat
	default:
		return OperationAIConfig{}, fmt.Errorf("unknown AI operation: %s", op)
	}

	c.applyOperationDefaults(&config)
	return config, nil
}

// OperationTimeout returns the resolved timeout for op
func (c *Config) OperationTimeout(op string) time.Duration {
	opCfg, err := c.GetOperationConfig(op)
	if err != nil || opCfg.Timeout == nil {
		return c.AI.Timeout
	}
	return *opCfg.Timeout
}

// ProviderConfig builds the read-only provider configuration for op.
// Credentials are copied, so later config reloads never mutate it.
func (c *Config) ProviderConfig(op string) types.ProviderConfig {
	provider, model := c.AI.Provider, c.AI.Model
	if opCfg, err := c.GetOperationConfig(op); err == nil {
		provider, model = opCfg.Provider, opCfg.Model
	}

	return types.ProviderConfig{
		Provider: types.ParseProvider(provider),
		Model:    model,
		APIKeys: map[types.Provider]string{
			types.ProviderGemini:     c.AI.GeminiAPIKey,
			types.ProviderOpenAI:     c.AI.OpenAIAPIKey,
			types.ProviderOpenRouter: c.AI.OpenRouterAPIKey,
		},
		LegacyAPIKey: c.AI.APIKey,
		Referer:      c.AI.OpenRouterReferer,
	}
}

// SetProviderKeys replaces the provider credentials. Empty values leave the
// current key in place.
func (c *Config) SetProviderKeys(keys map[types.Provider]string, legacy string) {
	if k := keys[types.ProviderGemini]; k != "" {
		c.AI.GeminiAPIKey = k
	}
	if k := keys[types.ProviderOpenAI]; k != "" {
		c.AI.OpenAIAPIKey = k
	}
	if k := keys[types.ProviderOpenRouter]; k != "" {
		c.AI.OpenRouterAPIKey = k
	}
	if legacy != "" {
		c.AI.APIKey = legacy
	}
}
