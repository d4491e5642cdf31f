package ai

import (
	"context"
	stderrors "errors"

	"fluxcareer/internal/errors"
	"fluxcareer/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

const (
	geminiDefaultModel = "gemini-2.5-flash"
	geminiErrorPrefix  = "Gemini Error: "
)

// GeminiProvider talks to the Gemini API. Gemini has no system role in this
// integration, so system and user prompts travel as one combined text.
type GeminiProvider struct {
	opts ProviderOptions
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini adapter
func NewGeminiProvider(opts ProviderOptions) *GeminiProvider {
	return &GeminiProvider{opts: opts}
}

func (g *GeminiProvider) Name() types.Provider { return types.ProviderGemini }

// CombinedPrompt joins system and user prompts in precedence order
func CombinedPrompt(system, user string) string {
	return system + "\n\nUSER REQUEST:\n" + user
}

// geminiKey returns the Gemini credential, falling back to the legacy key
func geminiKey(cfg types.ProviderConfig) string {
	if key := cfg.Key(types.ProviderGemini); key != "" {
		return key
	}
	return cfg.LegacyAPIKey
}

// Send implements Provider
func (g *GeminiProvider) Send(ctx context.Context, req types.Request) (string, *TokenUsage, error) {
	apiKey := geminiKey(req.Config)
	if apiKey == "" {
		return "", nil, missingKeyError("Gemini", types.ProviderGemini)
	}

	model := req.Config.Model
	if model == "" {
		model = geminiDefaultModel
	}

	ctx, span := otel.Tracer("fluxcareer.ai.gemini").Start(ctx, "provider.gemini.send")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", model),
		attribute.Int("input.system_length", len(req.SystemPrompt)),
		attribute.Int("input.user_length", len(req.UserPrompt)),
	)

	clientCfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.opts.httpClient(),
	}
	if g.opts.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: g.opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		span.RecordError(err)
		return "", nil, transportError(types.ProviderGemini, geminiErrorPrefix, err, apiKey)
	}

	prompt := CombinedPrompt(req.SystemPrompt, req.UserPrompt)
	result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		if msg, ok := geminiAPIMessage(err); ok {
			return "", nil, errors.NewProviderError("gemini",
				geminiErrorPrefix+errors.Redact(msg, apiKey),
				errors.RedactError(err, apiKey))
		}
		return "", nil, transportError(types.ProviderGemini, geminiErrorPrefix, err, apiKey)
	}

	usage := extractGeminiUsage(result)
	if usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}

	text := ""
	if result != nil {
		text = result.Text()
	}
	if text == "" {
		text, err = degradeEmpty(ctx, g.opts, types.ProviderGemini, geminiErrorPrefix, "no text in candidates")
		if err != nil {
			span.RecordError(err)
			return "", usage, err
		}
	}

	span.SetAttributes(attribute.Bool("success", true))
	return text, usage, nil
}

// geminiAPIMessage pulls the server supplied message out of a genai error
func geminiAPIMessage(err error) (string, bool) {
	var apiErr genai.APIError
	if stderrors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message, true
		}
		return err.Error(), true
	}
	var apiErrPtr *genai.APIError
	if stderrors.As(err, &apiErrPtr) && apiErrPtr != nil {
		if apiErrPtr.Message != "" {
			return apiErrPtr.Message, true
		}
		return err.Error(), true
	}
	return "", false
}

// extractGeminiUsage extracts token usage information from a Gemini response
func extractGeminiUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
