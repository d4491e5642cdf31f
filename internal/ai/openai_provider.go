package ai

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"fluxcareer/internal/errors"
	"fluxcareer/internal/types"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	openAIDefaultBaseURL     = "https://api.openai.com/v1/"
	openRouterDefaultBaseURL = "https://openrouter.ai/api/v1/"

	openAIDefaultModel     = "gpt-4o"
	openRouterDefaultModel = "deepseek/deepseek-r1"

	openAITemperature = 0.7

	// OpenRouterTitle identifies this application to OpenRouter
	OpenRouterTitle = "Flux Career"
)

// ChatCompletionsProvider speaks the chat-completions wire format. OpenAI and
// OpenRouter share it and differ only in endpoint, defaults and headers.
type ChatCompletionsProvider struct {
	provider       types.Provider
	displayName    string
	defaultModel   string
	defaultBaseURL string
	temperature    *float64
	extraHeaders   func(cfg types.ProviderConfig) map[string]string
	opts           ProviderOptions
}

var _ Provider = (*ChatCompletionsProvider)(nil)

// NewOpenAIProvider creates the OpenAI adapter
func NewOpenAIProvider(opts ProviderOptions) *ChatCompletionsProvider {
	temperature := openAITemperature
	return &ChatCompletionsProvider{
		provider:       types.ProviderOpenAI,
		displayName:    "OpenAI",
		defaultModel:   openAIDefaultModel,
		defaultBaseURL: openAIDefaultBaseURL,
		temperature:    &temperature,
		opts:           opts,
	}
}

// NewOpenRouterProvider creates the OpenRouter adapter. OpenRouter requires a
// referer and a client title on every request.
func NewOpenRouterProvider(opts ProviderOptions) *ChatCompletionsProvider {
	return &ChatCompletionsProvider{
		provider:       types.ProviderOpenRouter,
		displayName:    "OpenRouter",
		defaultModel:   openRouterDefaultModel,
		defaultBaseURL: openRouterDefaultBaseURL,
		extraHeaders: func(cfg types.ProviderConfig) map[string]string {
			return map[string]string{
				"HTTP-Referer": cfg.Referer,
				"X-Title":      OpenRouterTitle,
			}
		},
		opts: opts,
	}
}

func (p *ChatCompletionsProvider) Name() types.Provider { return p.provider }

func (p *ChatCompletionsProvider) errorPrefix() string { return p.displayName + " Error: " }

func (p *ChatCompletionsProvider) baseURL() string {
	if p.opts.BaseURL != "" {
		return p.opts.BaseURL
	}
	return p.defaultBaseURL
}

// Send implements Provider
func (p *ChatCompletionsProvider) Send(ctx context.Context, req types.Request) (string, *TokenUsage, error) {
	apiKey := req.Config.Key(p.provider)
	if apiKey == "" {
		return "", nil, missingKeyError(p.displayName, p.provider)
	}

	model := req.Config.Model
	if model == "" {
		model = p.defaultModel
	}

	ctx, span := otel.Tracer("fluxcareer.ai."+string(p.provider)).Start(ctx, "provider."+string(p.provider)+".send")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", string(p.provider)),
		attribute.String("ai.model", model),
		attribute.Int("input.system_length", len(req.SystemPrompt)),
		attribute.Int("input.user_length", len(req.UserPrompt)),
	)

	// Base URL is always explicit so OPENAI_BASE_URL in the environment is ignored
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(p.baseURL()),
		option.WithHTTPClient(p.opts.httpClient()),
		option.WithMaxRetries(0),
	}
	if p.extraHeaders != nil {
		for k, v := range p.extraHeaders(req.Config) {
			if v != "" {
				opts = append(opts, option.WithHeader(k, v))
			}
		}
	}
	client := openai.NewClient(opts...)

	params := openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserPrompt),
		},
	}
	if p.temperature != nil {
		params.Temperature = openai.Float(*p.temperature)
		span.SetAttributes(attribute.Float64("ai.temperature", *p.temperature))
	}

	var httpResp *http.Response
	resp, err := client.Chat.Completions.New(ctx, params, option.WithResponseInto(&httpResp))
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return p.handleError(ctx, err, httpResp, apiKey)
	}

	var usage *TokenUsage
	if resp.Usage.TotalTokens > 0 {
		usage = &TokenUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		}
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		text, err := degradeEmpty(ctx, p.opts, p.provider, p.errorPrefix(), "no message content in choices")
		return text, usage, err
	}

	span.SetAttributes(attribute.Bool("success", true))
	return resp.Choices[0].Message.Content, usage, nil
}

// handleError maps an SDK failure onto the provider error policy
func (p *ChatCompletionsProvider) handleError(ctx context.Context, err error, httpResp *http.Response, apiKey string) (string, *TokenUsage, error) {
	var apiErr *openai.Error
	if stderrors.As(err, &apiErr) {
		msg := apiErrorMessage(apiErr)
		if msg == "" {
			msg = p.displayName + " Request Failed"
		}
		return "", nil, errors.NewProviderError(string(p.provider),
			p.errorPrefix()+errors.Redact(msg, apiKey),
			errors.RedactError(err, apiKey)).
			WithContext("status_code", apiErr.StatusCode)
	}

	// Error status with a body the SDK could not decode
	if httpResp != nil && httpResp.StatusCode >= 400 {
		return "", nil, errors.NewProviderError(string(p.provider),
			p.errorPrefix()+p.displayName+" Request Failed",
			errors.RedactError(err, apiKey)).
			WithContext("status_code", httpResp.StatusCode)
	}

	// A 2xx whose body could not be decoded
	if httpResp != nil && httpResp.StatusCode >= 200 && httpResp.StatusCode < 300 {
		p.opts.logger().Debug("Undecodable provider response",
			"provider", p.provider,
			"error", errors.Redact(err.Error(), apiKey))
		text, derr := degradeEmpty(ctx, p.opts, p.provider, p.errorPrefix(), "response body could not be decoded")
		return text, nil, derr
	}

	return "", nil, transportError(p.provider, p.errorPrefix(), err, apiKey)
}

// apiErrorMessage returns error.message from the provider's error body
func apiErrorMessage(apiErr *openai.Error) string {
	if apiErr.Message != "" {
		return apiErr.Message
	}
	if apiErr.Response == nil || apiErr.Response.Body == nil {
		return ""
	}
	body, err := io.ReadAll(apiErr.Response.Body)
	if err != nil {
		return ""
	}
	return parseErrorBody(body)
}

// parseErrorBody reads {"error":{"message":...}} and tolerates anything else
func parseErrorBody(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.Error.Message
}
