package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"fluxcareer/internal/errors"
	"fluxcareer/internal/types"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	// Secret paths
	Secrets VaultSecrets `mapstructure:"secrets"`

	Watch VaultWatchConfig `mapstructure:"watch"`
}

// VaultSecrets defines where to find secrets in Vault
type VaultSecrets struct {
	// APIKeys is a comma separated list under the "keys" field
	APIKeys string `mapstructure:"apiKeys"`
	// ProviderKeys holds gemini_api_key, openai_api_key, openrouter_api_key
	// and the legacy api_key field
	ProviderKeys string `mapstructure:"providerKeys"`
	// Sheets holds the spreadsheet webhook access_token
	Sheets string `mapstructure:"sheets"`
}

// VaultWatchConfig controls polling of the provider keys secret
type VaultWatchConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	PollInterval time.Duration `mapstructure:"pollInterval"`
}

// Field names inside the provider keys secret
const (
	VaultFieldGemini     = "gemini_api_key"
	VaultFieldOpenAI     = "openai_api_key"
	VaultFieldOpenRouter = "openrouter_api_key"
	VaultFieldLegacy     = "api_key"
)

// VaultSecret represents a secret read from Vault's KVv2 engine.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// SecretReader is the subset of VaultClient used by watchers
type SecretReader interface {
	GetSecretV2(path string) (*VaultSecret, error)
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	logger *errors.Logger
}

// NewVaultClient connects to Vault. It returns nil, nil when Vault is disabled.
func NewVaultClient(cfg VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !cfg.Enabled {
		logger.Debug("Vault integration disabled")
		return nil, nil
	}

	apiCfg := api.DefaultConfig()
	if cfg.Address != "" {
		apiCfg.Address = cfg.Address
	}
	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	token, err := resolveVaultToken(cfg)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		logger.LogError(err, "Failed to connect to Vault", "address", cfg.Address)
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}
	logger.Info("Successfully connected to Vault",
		"address", cfg.Address,
		"version", health.Version,
		"sealed", health.Sealed)

	return &VaultClient{client: client, logger: logger}, nil
}

// resolveVaultToken resolves the Vault token from config or file
func resolveVaultToken(cfg VaultConfig) (string, error) {
	token := cfg.Token
	if token == "" && cfg.TokenFile != "" {
		raw, err := os.ReadFile(cfg.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}
	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// GetSecretV2 retrieves a secret from a Vault KVv2 store.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}
	return decodeKVv2(secret, path)
}

// decodeKVv2 unpacks the data and metadata.version envelope of a KVv2 read
func decodeKVv2(secret *api.Secret, path string) (*VaultSecret, error) {
	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	metadata, ok := secret.Data["metadata"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	versionRaw, ok := metadata["version"]
	if !ok {
		return nil, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}
	version, err := parseVersionValue(versionRaw, path)
	if err != nil {
		return nil, err
	}
	return &VaultSecret{Data: data, Version: version}, nil
}

// parseVersionValue parses version value from various types
func parseVersionValue(versionRaw any, path string) (int64, error) {
	switch v := versionRaw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, versionRaw)
	}
}

// String returns a string field of the secret, empty when absent
func (s *VaultSecret) String(key string) string {
	if s == nil {
		return ""
	}
	v, _ := s.Data[key].(string)
	return strings.TrimSpace(v)
}

// ProviderKeys extracts the provider credentials stored in s
func (s *VaultSecret) ProviderKeys() (map[types.Provider]string, string) {
	return map[types.Provider]string{
		types.ProviderGemini:     s.String(VaultFieldGemini),
		types.ProviderOpenAI:     s.String(VaultFieldOpenAI),
		types.ProviderOpenRouter: s.String(VaultFieldOpenRouter),
	}, s.String(VaultFieldLegacy)
}

// ApplyVaultSecrets loads secrets from Vault and applies them to the config.
// The returned client is nil when Vault is disabled.
func ApplyVaultSecrets(cfg *Config, logger *errors.Logger) (*VaultClient, error) {
	if !cfg.Vault.Enabled {
		return nil, nil
	}

	logger.Info("Loading secrets from Vault",
		"api_keys_path", cfg.Vault.Secrets.APIKeys,
		"provider_keys_path", cfg.Vault.Secrets.ProviderKeys,
		"sheets_path", cfg.Vault.Secrets.Sheets)

	client, err := NewVaultClient(cfg.Vault, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vault client: %w", err)
	}

	if err := applySecrets(client, cfg, logger); err != nil {
		return nil, err
	}
	return client, nil
}

// ReapplyVaultSecrets copies the Vault secrets into a freshly reloaded
// config using an existing client
func ReapplyVaultSecrets(reader SecretReader, cfg *Config, logger *errors.Logger) error {
	if reader == nil || !cfg.Vault.Enabled {
		return nil
	}
	return applySecrets(reader, cfg, logger)
}

// applySecrets copies every configured secret into cfg
func applySecrets(reader SecretReader, cfg *Config, logger *errors.Logger) error {
	paths := cfg.Vault.Secrets

	if paths.APIKeys != "" {
		secret, err := reader.GetSecretV2(paths.APIKeys)
		if err != nil {
			return fmt.Errorf("failed to load API keys from vault: %w", err)
		}
		if keys := splitAndTrim(secret.String("keys")); len(keys) > 0 {
			cfg.Server.APIKeys = keys
			logger.Info("API keys loaded from Vault", "count", len(keys))
		} else {
			logger.Warn("No API keys found in Vault", "path", paths.APIKeys)
		}
	}

	if paths.ProviderKeys != "" {
		secret, err := reader.GetSecretV2(paths.ProviderKeys)
		if err != nil {
			return fmt.Errorf("failed to load provider keys from vault: %w", err)
		}
		keys, legacy := secret.ProviderKeys()
		cfg.SetProviderKeys(keys, legacy)
		logger.Info("Provider keys loaded from Vault", "version", secret.Version)
	}

	if paths.Sheets != "" {
		secret, err := reader.GetSecretV2(paths.Sheets)
		if err != nil {
			return fmt.Errorf("failed to load sheets token from vault: %w", err)
		}
		if token := secret.String("access_token"); token != "" {
			cfg.Sheets.AccessToken = token
			logger.Info("Sheets access token loaded from Vault")
		}
	}

	return nil
}
