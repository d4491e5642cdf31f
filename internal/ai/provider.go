package ai

import (
	"context"
	stderrors "errors"
	"net/http"

	"fluxcareer/internal/errors"
	"fluxcareer/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Provider sends one prompt to an AI backend and returns the reply text.
// Implementations never retry and never read credentials from anywhere but
// the request's ProviderConfig.
type Provider interface {
	Name() types.Provider
	Send(ctx context.Context, req types.Request) (string, *TokenUsage, error)
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ProviderOptions holds the settings shared by every adapter
type ProviderOptions struct {
	// BaseURL overrides the provider endpoint. Empty means the provider default.
	BaseURL string
	// HTTPClient is used for outbound calls. Nil means a client without timeout;
	// callers bound the call through the context.
	HTTPClient *http.Client
	// Strict turns a 2xx reply without usable text into a ProviderError
	Strict bool
	Logger *errors.Logger
}

func (o ProviderOptions) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{}
}

func (o ProviderOptions) logger() *errors.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return errors.NewNopLogger()
}

var degradedCounter metric.Int64Counter

func init() {
	degradedCounter, _ = otel.Meter("fluxcareer.ai").Int64Counter(
		"fluxcareer_ai_degraded_responses_total",
		metric.WithDescription("Successful provider responses that carried no usable text"),
	)
}

// degradeEmpty applies the empty-response policy. By default a 2xx reply
// without text becomes an empty success; strict mode reports it.
func degradeEmpty(ctx context.Context, opts ProviderOptions, provider types.Provider, prefix, reason string) (string, error) {
	if degradedCounter != nil {
		degradedCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("provider", string(provider)),
			attribute.Bool("strict", opts.Strict),
		))
	}
	if opts.Strict {
		err := errors.NewProviderError(string(provider), prefix+"empty or malformed response", nil).
			WithContext("reason", reason)
		err.Code = errors.ErrCodeEmptyResponse
		return "", err
	}
	opts.logger().Warn("Provider returned no usable text, degrading to empty response",
		"provider", provider,
		"reason", reason)
	return "", nil
}

// transportError reports a failed call that produced no HTTP response.
// The credential is scrubbed from both the message and the cause.
func transportError(provider types.Provider, prefix string, err error, apiKey string) error {
	safe := errors.RedactError(err, apiKey)
	if stderrors.Is(err, context.DeadlineExceeded) {
		appErr := errors.NewProviderError(string(provider), prefix+"request timed out", safe)
		appErr.Code = errors.ErrCodeNetworkTimeout
		return appErr
	}
	msg := errors.Redact(err.Error(), apiKey)
	if stderrors.Is(err, context.Canceled) {
		msg = "request canceled"
	}
	return errors.NewProviderError(string(provider), prefix+msg, safe)
}

// missingKeyError is returned before any network call when a credential is absent
func missingKeyError(displayName string, provider types.Provider) error {
	return errors.NewConfigError(errors.ErrCodeMissingAPIKey, displayName+" API Key is missing.", nil).
		WithContext("provider", string(provider))
}
