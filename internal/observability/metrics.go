package observability

import (
	"context"
	"fmt"
	"time"

	"fluxcareer/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Business metric types accepted by RecordBusinessMetric
const (
	MetricCoverLetterGenerated = "cover_letter_generated"
	MetricInterviewGenerated   = "interview_generated"
	MetricResumeTailored       = "resume_tailored"
	MetricChatTurn             = "chat_turn"
	MetricSheetLogged          = "sheet_logged"
	MetricRateLimitHit         = "rate_limit_hit"
)

// Metrics holds the custom instruments. Every method is safe on a zero
// value, which records nothing.
type Metrics struct {
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	CoverLettersGenerated metric.Int64Counter
	InterviewsGenerated   metric.Int64Counter
	ResumesTailored       metric.Int64Counter
	ChatTurns             metric.Int64Counter
	SheetsLogged          metric.Int64Counter
	ContentSize           metric.Int64Histogram

	RateLimitHits metric.Int64Counter

	cfg *config.Config
}

// TokenUsage is the token count reported by a provider
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// AIOperationResult is what an instrumented AI call reports back
type AIOperationResult struct {
	Error      error
	TokenUsage *TokenUsage
	Provider   string
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.AIRequestCount, "fluxcareer_ai_requests_total", "Total number of AI requests"},
		{&m.AIErrorCount, "fluxcareer_ai_errors_total", "Total number of failed AI requests"},
		{&m.CoverLettersGenerated, "fluxcareer_cover_letters_generated_total", "Cover letters generated"},
		{&m.InterviewsGenerated, "fluxcareer_interview_sets_generated_total", "Interview question sets generated"},
		{&m.ResumesTailored, "fluxcareer_resumes_tailored_total", "Resumes tailored"},
		{&m.ChatTurns, "fluxcareer_chat_turns_total", "Chat edit turns answered"},
		{&m.SheetsLogged, "fluxcareer_sheet_rows_logged_total", "Submissions logged to the spreadsheet webhook"},
		{&m.RateLimitHits, "fluxcareer_rate_limit_hits_total", "Requests rejected by the rate limiter"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", c.name, err)
		}
	}

	m.AIProcessingTime, err = meter.Float64Histogram(
		"fluxcareer_ai_processing_duration_seconds",
		metric.WithDescription("Time spent waiting on AI providers"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI processing time metric: %w", err)
	}

	m.AITokenUsage, err = meter.Int64Histogram(
		"fluxcareer_ai_token_usage",
		metric.WithDescription("Token usage per AI request by token type"),
		metric.WithUnit("tokens"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	m.ContentSize, err = meter.Int64Histogram(
		"fluxcareer_generated_content_size_bytes",
		metric.WithDescription("Size of generated documents"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create content size metric: %w", err)
	}

	return m, nil
}

// TrackAIOperation runs fn inside an "ai.<operation>" span and records
// duration, request, error and token metrics for it
func (m *Metrics) TrackAIOperation(ctx context.Context, operation string, fn func(context.Context) *AIOperationResult) error {
	ctx, span := otel.Tracer("fluxcareer.ai").Start(ctx, "ai."+operation)
	defer span.End()

	start := time.Now()
	result := fn(ctx)
	duration := time.Since(start).Seconds()

	var err error
	if result != nil {
		err = result.Error
	}
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("error", true))
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	}
	if result != nil && result.Provider != "" {
		attrs = append(attrs, attribute.String("provider", result.Provider))
	}
	span.SetAttributes(attrs...)

	if result != nil && result.TokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", result.TokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", result.TokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", result.TokenUsage.TotalTokens),
		)
	}

	if m == nil || m.AIRequestCount == nil || !m.aiEnabled() {
		return err
	}

	opts := metric.WithAttributes(attrs...)
	m.AIRequestCount.Add(ctx, 1, opts)
	if err != nil {
		m.AIErrorCount.Add(ctx, 1, opts)
	}
	if m.cfg == nil || m.cfg.Observability.CustomMetrics.AIOperations.TrackDuration {
		m.AIProcessingTime.Record(ctx, duration, opts)
	}
	if result != nil && result.TokenUsage != nil &&
		(m.cfg == nil || m.cfg.Observability.CustomMetrics.AIOperations.TrackTokenUsage) {
		m.recordTokens(ctx, result.TokenUsage, attrs)
	}
	return err
}

func (m *Metrics) recordTokens(ctx context.Context, usage *TokenUsage, attrs []attribute.KeyValue) {
	for _, tt := range []struct {
		kind  string
		value int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	} {
		tokenAttrs := append(append([]attribute.KeyValue{}, attrs...), attribute.String("token_type", tt.kind))
		m.AITokenUsage.Record(ctx, tt.value, metric.WithAttributes(tokenAttrs...))
	}
}

// RecordBusinessMetric counts one business event of metricType. Unknown
// types are ignored.
func (m *Metrics) RecordBusinessMetric(ctx context.Context, metricType string, success bool, attributes ...attribute.KeyValue) {
	if m == nil {
		return
	}

	var counter metric.Int64Counter
	switch metricType {
	case MetricCoverLetterGenerated:
		counter = m.CoverLettersGenerated
	case MetricInterviewGenerated:
		counter = m.InterviewsGenerated
	case MetricResumeTailored:
		counter = m.ResumesTailored
	case MetricChatTurn:
		counter = m.ChatTurns
	case MetricSheetLogged:
		counter = m.SheetsLogged
	case MetricRateLimitHit:
		// Rate limiting is an infrastructure metric
		if m.cfg != nil && !m.cfg.Observability.CustomMetrics.Infrastructure.TrackRateLimits {
			return
		}
		counter = m.RateLimitHits
	}
	if counter == nil {
		return
	}
	if metricType != MetricRateLimitHit && m.cfg != nil && !m.cfg.Observability.CustomMetrics.BusinessMetrics.Enabled {
		return
	}

	attrs := append([]attribute.KeyValue{attribute.Bool("success", success)}, attributes...)
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordContentSize records the size of a generated document
func (m *Metrics) RecordContentSize(ctx context.Context, operation string, size int) {
	if m == nil || m.ContentSize == nil {
		return
	}
	if m.cfg != nil && !m.cfg.Observability.CustomMetrics.BusinessMetrics.TrackContentSizes {
		return
	}
	m.ContentSize.Record(ctx, int64(size), metric.WithAttributes(attribute.String("operation", operation)))
}

func (m *Metrics) aiEnabled() bool {
	return m.cfg == nil || m.cfg.Observability.CustomMetrics.AIOperations.Enabled
}
