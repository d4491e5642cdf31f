package ai

import (
	"context"
	"strings"
	"time"

	"fluxcareer/internal/config"
	"fluxcareer/internal/errors"
	"fluxcareer/internal/history"
	"fluxcareer/internal/observability"
	"fluxcareer/internal/types"
	"fluxcareer/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// InterviewFallback replaces interview output when generation fails
const InterviewFallback = "Failed to generate questions."

// HistoryRecorder receives every generated cover letter
type HistoryRecorder interface {
	Add(ctx context.Context, item types.HistoryItem) error
}

// Generator sends one request to a provider. *Dispatcher implements it.
type Generator interface {
	Generate(ctx context.Context, req types.Request) (string, *TokenUsage, error)
}

// Selection overrides the configured provider and model for one call
type Selection struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// Service turns builder inputs into finished documents. It is safe for
// concurrent use.
type Service struct {
	cfg        *config.Config
	generators map[string]Generator
	history    HistoryRecorder
	metrics    *observability.Metrics
	logger     *errors.Logger
	now        func() time.Time
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithHistory records generated cover letters in h
func WithHistory(h HistoryRecorder) ServiceOption {
	return func(s *Service) { s.history = h }
}

// WithMetrics reports AI and business metrics to m
func WithMetrics(m *observability.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithGenerator replaces the dispatcher used for operation
func WithGenerator(operation string, g Generator) ServiceOption {
	return func(s *Service) { s.generators[operation] = g }
}

// WithClock sets the time source used for history timestamps
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a service with one dispatcher per operation, each with
// its own circuit breakers
func NewService(cfg *config.Config, logger *errors.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	s := &Service{
		cfg:        cfg,
		generators: make(map[string]Generator),
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, op := range []string{config.OperationCoverLetter, config.OperationInterview, config.OperationTailor, config.OperationChat} {
		if _, ok := s.generators[op]; !ok {
			s.generators[op] = NewDefaultDispatcher(cfg, op, logger)
		}
	}
	return s
}

// ProviderConfig resolves the provider configuration for operation
func (s *Service) ProviderConfig(operation string, sel Selection) types.ProviderConfig {
	pc := s.cfg.ProviderConfig(operation)
	if sel.Provider != "" {
		pc.Provider = types.ParseProvider(sel.Provider)
		// The configured model belongs to the configured provider
		pc.Model = ""
	}
	if sel.Model != "" {
		pc.Model = sel.Model
	}
	return pc
}

// generate sends prompt for operation under its timeout and records metrics
func (s *Service) generate(ctx context.Context, operation string, prompt types.Prompt, sel Selection) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout(operation))
	defer cancel()

	req := types.Request{
		SystemPrompt: prompt.System,
		UserPrompt:   prompt.User,
		Config:       s.ProviderConfig(operation, sel),
	}

	s.logger.Debug("Sending AI request",
		"operation", operation,
		"provider", req.Config.Provider,
		"model", req.Config.Model,
		"system_prompt_length", len(req.SystemPrompt),
		"user_prompt_length", len(req.UserPrompt))

	var text string
	err := s.metrics.TrackAIOperation(ctx, operation, func(ctx context.Context) *observability.AIOperationResult {
		var usage *TokenUsage
		var err error
		text, usage, err = s.generators[operation].Generate(ctx, req)
		result := &observability.AIOperationResult{Error: err, Provider: string(req.Config.Provider)}
		if usage != nil {
			result.TokenUsage = &observability.TokenUsage{
				InputTokens:  usage.InputTokens,
				OutputTokens: usage.OutputTokens,
				TotalTokens:  usage.TotalTokens,
			}
		}
		return result
	})
	if err != nil {
		s.logger.LogError(err, "AI request failed", "operation", operation)
		return "", err
	}
	return text, nil
}

func (s *Service) record(ctx context.Context, metricType, operation string, err error, content string) {
	s.metrics.RecordBusinessMetric(ctx, metricType, err == nil, attribute.String("operation", operation))
	if err == nil {
		s.metrics.RecordContentSize(ctx, operation, len(content))
	}
}

// GenerateCoverLetter writes a cover letter and records it in history
func (s *Service) GenerateCoverLetter(ctx context.Context, in types.CoverLetterInput, sel Selection) (types.CoverLetterOutput, error) {
	if strings.TrimSpace(in.JobDescription) == "" {
		return types.CoverLetterOutput{}, missingJobDescription()
	}

	text, err := s.generate(ctx, config.OperationCoverLetter, BuildCoverLetterPrompt(in), sel)
	text = strings.TrimSpace(text)
	s.record(ctx, observability.MetricCoverLetterGenerated, config.OperationCoverLetter, err, text)
	if err != nil {
		return types.CoverLetterOutput{}, err
	}

	if s.history != nil && text != "" {
		if herr := s.history.Add(ctx, history.NewItem(in.JobDescription, text, s.now())); herr != nil {
			s.logger.LogError(herr, "Failed to record cover letter in history")
		}
	}

	return types.CoverLetterOutput{
		Content:  text,
		Filename: utils.DocumentFilename(in.UserName, in.JobDescription, types.DocumentCoverLetter),
	}, nil
}

// GenerateInterviewQuestions returns five questions with answer tips. A
// successful reply without text becomes InterviewFallback; errors are
// returned unchanged.
func (s *Service) GenerateInterviewQuestions(ctx context.Context, in types.InterviewInput, sel Selection) (types.InterviewOutput, error) {
	if strings.TrimSpace(in.JobDescription) == "" {
		return types.InterviewOutput{}, missingJobDescription()
	}

	text, err := s.generate(ctx, config.OperationInterview, BuildInterviewPrompt(in), sel)
	s.record(ctx, observability.MetricInterviewGenerated, config.OperationInterview, err, text)
	if err != nil {
		return types.InterviewOutput{}, err
	}
	if strings.TrimSpace(text) == "" {
		return types.InterviewOutput{Content: InterviewFallback}, nil
	}
	return types.InterviewOutput{Content: text}, nil
}

// GenerateTailoredResume rewrites the resume as constrained HTML. userName
// only affects the export filename.
func (s *Service) GenerateTailoredResume(ctx context.Context, in types.TailorInput, userName string, sel Selection) (types.TailorOutput, error) {
	prompt, err := BuildTailorPrompt(in)
	if err != nil {
		return types.TailorOutput{}, err
	}

	text, err := s.generate(ctx, config.OperationTailor, prompt, sel)
	text = StripCodeFences(text)
	s.record(ctx, observability.MetricResumeTailored, config.OperationTailor, err, text)
	if err != nil {
		return types.TailorOutput{}, err
	}

	return types.TailorOutput{
		Content:  text,
		Filename: utils.DocumentFilename(userName, in.JobDescription, types.DocumentTailoredResume),
	}, nil
}

// Chat answers the newest message in history. The reply is returned raw
// along with its parsed form; the caller decides whether to apply the
// document.
func (s *Service) Chat(ctx context.Context, msgs []types.ChatMessage, chatCtx types.ChatContext, sel Selection) (types.ChatMessage, types.ParsedReply, error) {
	if len(msgs) == 0 {
		return types.ChatMessage{}, types.ParsedReply{},
			errors.NewValidationError(errors.ErrCodeMissingInput, "chat history is empty", nil)
	}
	if chatCtx.DocumentType == "" {
		chatCtx.DocumentType = types.DocumentCoverLetter
	}

	text, err := s.generate(ctx, config.OperationChat, BuildChatPrompt(msgs, chatCtx), sel)
	s.record(ctx, observability.MetricChatTurn, config.OperationChat, err, text)
	if err != nil {
		return types.ChatMessage{}, types.ParsedReply{}, err
	}

	reply := history.NewMessage(types.RoleAssistant, text, s.now())
	return reply, ParseChatReply(text), nil
}

// Healthy reports whether no provider breaker is open
func (s *Service) Healthy() bool {
	for _, g := range s.generators {
		if d, ok := g.(*Dispatcher); ok && !d.Healthy() {
			return false
		}
	}
	return true
}

// BreakerStats reports breaker state per operation and provider
func (s *Service) BreakerStats() map[string]any {
	stats := make(map[string]any, len(s.generators))
	for op, g := range s.generators {
		if d, ok := g.(*Dispatcher); ok {
			stats[op] = d.BreakerStats()
		}
	}
	return stats
}

func missingJobDescription() error {
	return errors.NewValidationError(errors.ErrCodeMissingInput, "Job description is required.", nil)
}
