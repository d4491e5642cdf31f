package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for every environment variable read by the config layer
const EnvPrefix = "FLUXCAREER"

// Config holds all application configuration
// API Key Precedence Order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (FLUXCAREER_AI_GEMINIAPIKEY, etc.), including a .env file
// 4. Default values - Lowest priority
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	User          UserConfig          `mapstructure:"user"`
	History       HistoryConfig       `mapstructure:"history"`
	Sheets        SheetsConfig        `mapstructure:"sheets"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`

	v *viper.Viper
}

// AIConfig holds AI provider configuration
type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`

	// APIKey is the single key used before multi-provider support. It is still
	// read and routed to Gemini when the Gemini key is absent.
	APIKey           string `mapstructure:"apiKey"`
	GeminiAPIKey     string `mapstructure:"geminiApiKey"`
	OpenAIAPIKey     string `mapstructure:"openAiApiKey"`
	OpenRouterAPIKey string `mapstructure:"openRouterApiKey"`

	// OpenRouterReferer is sent as HTTP-Referer on OpenRouter requests
	OpenRouterReferer string `mapstructure:"openRouterReferer"`

	// StrictResponses turns a 2xx reply without usable text into an error
	StrictResponses bool `mapstructure:"strictResponses"`

	Endpoints EndpointsConfig `mapstructure:"endpoints"`

	// Operation-specific configurations
	CoverLetter OperationAIConfig `mapstructure:"coverLetter"`
	Interview   OperationAIConfig `mapstructure:"interview"`
	Tailor      OperationAIConfig `mapstructure:"tailor"`
	Chat        OperationAIConfig `mapstructure:"chat"`
}

// EndpointsConfig overrides provider base URLs, mostly for proxies and tests
type EndpointsConfig struct {
	Gemini     string `mapstructure:"gemini"`
	OpenAI     string `mapstructure:"openai"`
	OpenRouter string `mapstructure:"openrouter"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// OperationAIConfig holds AI configuration for specific operations
type OperationAIConfig struct {
	Provider       string               `mapstructure:"provider"`
	Model          string               `mapstructure:"model"`
	Timeout        *time.Duration       `mapstructure:"timeout"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`

	// MaxRequestSize bounds JSON request bodies in bytes
	MaxRequestSize int64 `mapstructure:"maxRequestSize"`

	// API Authentication
	APIKeys []string `mapstructure:"apiKeys"` // Valid API keys for authentication

	// Rate Limiting Configuration
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`

	// WatchConfig reloads AI settings when the config file changes
	WatchConfig bool `mapstructure:"watchConfig"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool `mapstructure:"enabled"`        // Enable/disable rate limiting
	RequestsPerMin int  `mapstructure:"requestsPerMin"` // Requests allowed per minute
	BurstCapacity  int  `mapstructure:"burstCapacity"`  // Burst capacity for token bucket
	ByIP           bool `mapstructure:"byIP"`           // Enable per-IP rate limiting
	ByAPIKey       bool `mapstructure:"byAPIKey"`       // Enable per-API-key rate limiting
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// UserConfig holds the candidate profile used when generating documents
type UserConfig struct {
	Name     string `mapstructure:"name"`
	Email    string `mapstructure:"email"`
	Tone     string `mapstructure:"tone"`
	Length   string `mapstructure:"length"`
	Language string `mapstructure:"language"`
}

// HistoryConfig selects where generated artifacts and chat sessions live
type HistoryConfig struct {
	Backend     string        `mapstructure:"backend"` // memory or redis
	RedisURL    string        `mapstructure:"redisUrl"`
	KeyPrefix   string        `mapstructure:"keyPrefix"`
	MaxItems    int           `mapstructure:"maxItems"`
	MaxMessages int           `mapstructure:"maxMessages"`
	SessionTTL  time.Duration `mapstructure:"sessionTtl"`
}

// SheetsConfig holds the spreadsheet webhook settings
type SheetsConfig struct {
	ScriptURL   string        `mapstructure:"scriptUrl"`
	SheetName   string        `mapstructure:"sheetName"`
	AccessToken string        `mapstructure:"accessToken"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	ConsoleOutput   bool                `mapstructure:"consoleOutput"`
	SampleRate      float64             `mapstructure:"sampleRate"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Console         ConsoleConfig       `mapstructure:"console"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// CustomMetricsConfig holds fine-grained custom metrics configuration
type CustomMetricsConfig struct {
	AIOperations    AIOperationsMetricsConfig `mapstructure:"aiOperations"`
	BusinessMetrics BusinessMetricsConfig     `mapstructure:"businessMetrics"`
	Infrastructure  InfraMetricsConfig        `mapstructure:"infrastructure"`
}

// AIOperationsMetricsConfig holds AI operation metrics configuration
type AIOperationsMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackDuration   bool `mapstructure:"trackDuration"`
	TrackTokenUsage bool `mapstructure:"trackTokenUsage"`
}

// BusinessMetricsConfig holds business metrics configuration
type BusinessMetricsConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	TrackSuccessRates bool `mapstructure:"trackSuccessRates"`
	TrackContentSizes bool `mapstructure:"trackContentSizes"`
}

// InfraMetricsConfig holds infrastructure metrics configuration
type InfraMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackRateLimits bool `mapstructure:"trackRateLimits"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig loads configuration from environment variables and a config file
func LoadConfig() (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	v := newViper()

	// Read the config file
	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	config, err := decode(v)
	if err != nil {
		return nil, err
	}

	config.logConfigurationSources(configFileUsed)

	log.Println("[CONFIG] Configuration loading completed successfully")
	return config, nil
}

// newViper builds a viper instance with defaults, env handling and search paths
func newViper() *viper.Viper {
	v := viper.New()

	setDefaults(v)
	log.Println("[CONFIG] Applied default configuration values")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	log.Printf("[CONFIG] Configured environment variable handling with prefix '%s'", EnvPrefix)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/fluxcareer/")
	v.AddConfigPath("$HOME/.fluxcareer")
	v.AddConfigPath(".")
	log.Println("[CONFIG] Configured config file search paths: /etc/fluxcareer/, $HOME/.fluxcareer, .")

	return v
}

// decode unmarshals, applies fallbacks and validates
func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.v = v

	config.applyFallbacks()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	switch c.History.Backend {
	case "memory":
	case "redis":
		if c.History.RedisURL == "" {
			return fmt.Errorf("history.redisUrl is required when history.backend is redis")
		}
	default:
		return fmt.Errorf("invalid history backend: %s (must be 'memory' or 'redis')", c.History.Backend)
	}

	if c.History.MaxItems <= 0 {
		return fmt.Errorf("history.maxItems must be positive")
	}

	return nil
}
