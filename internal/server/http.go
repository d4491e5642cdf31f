package server

import (
	"sync"
	"sync/atomic"
	"time"

	"fluxcareer/internal/ai"
	"fluxcareer/internal/config"
	"fluxcareer/internal/errors"
	"fluxcareer/internal/history"
	"fluxcareer/internal/observability"
	"fluxcareer/internal/sheets"
	"fluxcareer/internal/types"
)

// CoverLetterRequest represents the request body for the cover letter endpoint
type CoverLetterRequest struct {
	JobDescription string `json:"jobDescription"`
	ResumeText     string `json:"resumeText"`
	UserName       string `json:"userName"`
	Tone           string `json:"tone"`
	Length         string `json:"length"`
	Language       string `json:"language"`
	ai.Selection
}

// InterviewRequest represents the request body for the interview endpoint
type InterviewRequest struct {
	JobDescription string `json:"jobDescription"`
	ai.Selection
}

// TailorRequest represents the request body for the tailor endpoint
type TailorRequest struct {
	JobDescription string `json:"jobDescription"`
	ResumeText     string `json:"resumeText"`
	UserName       string `json:"userName"`
	ai.Selection
}

// ChatRequest represents the request body for the chat endpoint. Either
// SessionID or Messages carries the earlier turns.
type ChatRequest struct {
	SessionID       string              `json:"sessionId"`
	Messages        []types.ChatMessage `json:"messages"`
	Message         string              `json:"message"`
	JobDescription  string              `json:"jobDescription"`
	ResumeText      string              `json:"resumeText"`
	CurrentDocument string              `json:"currentDocument"`
	DocumentType    string              `json:"documentType"`
	ai.Selection
}

// SheetsRequest represents the request body for the sheets endpoint
type SheetsRequest struct {
	JobDescription string `json:"jobDescription"`
	CoverLetter    string `json:"coverLetter"`
	SenderName     string `json:"senderName"`
	SenderEmail    string `json:"senderEmail"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// state is the part of the server replaced when configuration or provider
// keys change
type state struct {
	cfg     *config.Config
	service *ai.Service
	apiKeys map[string]bool
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Logger
	Logger *errors.Logger

	current     atomic.Pointer[state]
	swapMu      sync.Mutex // serializes config reloads and key rotations
	stores      *history.Stores
	sheets      *sheets.Client
	obs         *observability.Manager
	metrics     *observability.Metrics
	vault       config.SecretReader
	keyWatcher  *KeyWatcher
	serviceOpts []ai.ServiceOption
	now         func() time.Time
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// ServerConfigFromConfig derives the listener settings from cfg
func ServerConfigFromConfig(cfg *config.Config, version string) ServerConfig {
	return ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.Server.MaxRequestSize,
		RateLimit:      &cfg.Server.RateLimit,
	}
}

// Option configures a Server
type Option func(*Server)

// WithObservability reports traces and metrics through om
func WithObservability(om *observability.Manager) Option {
	return func(s *Server) { s.obs = om }
}

// WithVault re-reads secrets from reader on config reload and enables the
// provider key watcher
func WithVault(reader config.SecretReader) Option {
	return func(s *Server) { s.vault = reader }
}

// WithServiceOptions passes extra options to every AI service the server builds
func WithServiceOptions(opts ...ai.ServiceOption) Option {
	return func(s *Server) { s.serviceOpts = append(s.serviceOpts, opts...) }
}

// WithClock sets the time source for history and sheet timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, stores *history.Stores, logger *errors.Logger, opts ...Option) *Server {
	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstCapacity, logger)
	}

	s := &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Logger:         logger,
		stores:         stores,
		sheets:         sheets.NewClient(appCfg.Sheets.Timeout, logger),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics = s.obs.Metrics()
	s.applyConfig(appCfg)
	return s
}

// applyConfig builds a new AI service for cfg and swaps it in. Requests
// already running finish on the previous one.
func (s *Server) applyConfig(cfg *config.Config) {
	// Convert API keys slice to map for O(1) lookup
	apiKeys := make(map[string]bool)
	for _, key := range cfg.Server.APIKeys {
		if key != "" {
			apiKeys[key] = true
		}
	}

	opts := []ai.ServiceOption{
		ai.WithHistory(s.stores.Artifacts),
		ai.WithMetrics(s.metrics),
		ai.WithClock(func() time.Time { return s.now() }),
	}
	opts = append(opts, s.serviceOpts...)

	s.current.Store(&state{
		cfg:     cfg,
		service: ai.NewService(cfg, s.Logger, opts...),
		apiKeys: apiKeys,
	})
}

func (s *Server) snapshot() *state { return s.current.Load() }

// reloadConfig applies a configuration reloaded from disk. Vault secrets
// are layered on top again since the file does not carry them.
func (s *Server) reloadConfig(next *config.Config) {
	s.swapMu.Lock()
	defer s.swapMu.Unlock()

	if err := config.ReapplyVaultSecrets(s.vault, next, s.Logger); err != nil {
		s.Logger.LogError(err, "Keeping previous configuration, Vault secrets unavailable")
		return
	}
	s.applyConfig(next)
	s.Logger.Info("Configuration applied",
		"ai_provider", next.AI.Provider,
		"api_keys", len(next.Server.APIKeys))
}

// rotateProviderKeys applies provider credentials fetched by the key watcher
func (s *Server) rotateProviderKeys(keys map[types.Provider]string, legacy string, err error) {
	if err != nil {
		s.Logger.LogError(err, "Provider key rotation failed, keeping current keys")
		return
	}

	s.swapMu.Lock()
	defer s.swapMu.Unlock()

	next := *s.snapshot().cfg
	next.SetProviderKeys(keys, legacy)
	s.applyConfig(&next)
	s.Logger.Info("Provider keys rotated from Vault")
}
