package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"fluxcareer/internal/errors"
	"fluxcareer/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "sk-test-secret-123"

type chatRequestBody struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Temperature *float64 `json:"temperature"`
}

func providerRequest(p types.Provider, key string) types.Request {
	return types.Request{
		SystemPrompt: "You are helpful.",
		UserPrompt:   "Write something.",
		Config: types.ProviderConfig{
			Provider: p,
			APIKeys:  map[types.Provider]string{p: key},
			Referer:  "https://app.example",
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

const chatCompletionOK = `{"id":"cmpl-1","object":"chat.completion","created":1,"model":"gpt-4o",
"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Dear Hiring Manager"}}],
"usage":{"prompt_tokens":12,"completion_tokens":3,"total_tokens":15}}`

func TestOpenAIProviderSuccess(t *testing.T) {
	var body chatRequestBody
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusOK, chatCompletionOK)
	}))
	defer srv.Close()

	p := NewOpenAIProvider(ProviderOptions{BaseURL: srv.URL + "/"})
	text, usage, err := p.Send(context.Background(), providerRequest(types.ProviderOpenAI, testAPIKey))
	require.NoError(t, err)
	assert.Equal(t, "Dear Hiring Manager", text)
	require.NotNil(t, usage)
	assert.Equal(t, int64(15), usage.TotalTokens)

	assert.Equal(t, "Bearer "+testAPIKey, auth)
	assert.Equal(t, "gpt-4o", body.Model)
	require.Len(t, body.Messages, 2)
	assert.Equal(t, "system", body.Messages[0].Role)
	assert.Equal(t, "You are helpful.", body.Messages[0].Content)
	assert.Equal(t, "user", body.Messages[1].Role)
	assert.Equal(t, "Write something.", body.Messages[1].Content)
	require.NotNil(t, body.Temperature)
	assert.InDelta(t, 0.7, *body.Temperature, 1e-9)
}

func TestOpenRouterProviderHeaders(t *testing.T) {
	var body chatRequestBody
	var referer, title string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		referer = r.Header.Get("HTTP-Referer")
		title = r.Header.Get("X-Title")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusOK, chatCompletionOK)
	}))
	defer srv.Close()

	p := NewOpenRouterProvider(ProviderOptions{BaseURL: srv.URL + "/"})
	_, _, err := p.Send(context.Background(), providerRequest(types.ProviderOpenRouter, testAPIKey))
	require.NoError(t, err)

	assert.Equal(t, "https://app.example", referer)
	assert.Equal(t, OpenRouterTitle, title)
	assert.Equal(t, "deepseek/deepseek-r1", body.Model)
	assert.Nil(t, body.Temperature)
}

func TestChatCompletionsProviderErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"structured error", http.StatusUnauthorized, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`, "OpenAI Error: Incorrect API key provided"},
		{"no error message", http.StatusInternalServerError, `{"unexpected":true}`, "OpenAI Error: OpenAI Request Failed"},
		{"key echoed", http.StatusBadRequest, `{"error":{"message":"bad key ` + testAPIKey + `"}}`, "OpenAI Error: bad key [REDACTED]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				writeJSON(w, tt.status, tt.body)
			}))
			defer srv.Close()

			p := NewOpenAIProvider(ProviderOptions{BaseURL: srv.URL + "/"})
			_, _, err := p.Send(context.Background(), providerRequest(types.ProviderOpenAI, testAPIKey))
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeProvider))
			assert.Equal(t, tt.message, errors.UserMessage(err))
			assert.NotContains(t, err.Error(), testAPIKey)
			assert.Equal(t, int32(1), calls.Load(), "no retries")
		})
	}
}

func TestChatCompletionsProviderMissingKey(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	p := NewOpenRouterProvider(ProviderOptions{BaseURL: srv.URL + "/"})
	_, _, err := p.Send(context.Background(), providerRequest(types.ProviderOpenRouter, ""))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.Equal(t, "OpenRouter API Key is missing.", errors.UserMessage(err))
	assert.Zero(t, calls.Load())
}

func TestChatCompletionsProviderEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":"cmpl-2","object":"chat.completion","created":1,"model":"gpt-4o","choices":[]}`)
	}))
	defer srv.Close()

	lenient := NewOpenAIProvider(ProviderOptions{BaseURL: srv.URL + "/"})
	text, _, err := lenient.Send(context.Background(), providerRequest(types.ProviderOpenAI, testAPIKey))
	require.NoError(t, err)
	assert.Equal(t, "", text)

	strict := NewOpenAIProvider(ProviderOptions{BaseURL: srv.URL + "/", Strict: true})
	_, _, err = strict.Send(context.Background(), providerRequest(types.ProviderOpenAI, testAPIKey))
	require.Error(t, err)
	assert.Equal(t, "OpenAI Error: empty or malformed response", errors.UserMessage(err))
	assert.True(t, errors.HasCode(err, errors.ErrCodeEmptyResponse))
	assert.True(t, errors.IsType(err, errors.ErrorTypeProvider))
}

func TestChatCompletionsProviderTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := NewOpenAIProvider(ProviderOptions{BaseURL: url + "/"})
	_, _, err := p.Send(context.Background(), providerRequest(types.ProviderOpenAI, testAPIKey))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeProvider))
	assert.True(t, strings.HasPrefix(errors.UserMessage(err), "OpenAI Error: "))
	assert.NotContains(t, err.Error(), testAPIKey)
}

const geminiOK = `{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello from Gemini"}]},"finishReason":"STOP"}],
"usageMetadata":{"promptTokenCount":7,"candidatesTokenCount":4,"totalTokenCount":11}}`

func TestTransportErrorTimeout(t *testing.T) {
	err := transportError(types.ProviderOpenAI, "OpenAI Error: ",
		fmt.Errorf("post https://api.openai.com?key=%s: %w", testAPIKey, context.DeadlineExceeded), testAPIKey)

	assert.Equal(t, "OpenAI Error: request timed out", errors.UserMessage(err))
	assert.True(t, errors.HasCode(err, errors.ErrCodeNetworkTimeout))
	assert.True(t, errors.IsType(err, errors.ErrorTypeProvider))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotContains(t, err.Error(), testAPIKey)

	err = transportError(types.ProviderOpenAI, "OpenAI Error: ", fmt.Errorf("dial: connection refused"), testAPIKey)
	assert.True(t, errors.HasCode(err, errors.ErrCodeProviderFailed))
	assert.Equal(t, "OpenAI Error: dial: connection refused", errors.UserMessage(err))
}

func TestGeminiProviderSuccess(t *testing.T) {
	var path, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		writeJSON(w, http.StatusOK, geminiOK)
	}))
	defer srv.Close()

	p := NewGeminiProvider(ProviderOptions{BaseURL: srv.URL + "/"})
	text, usage, err := p.Send(context.Background(), providerRequest(types.ProviderGemini, testAPIKey))
	require.NoError(t, err)
	assert.Equal(t, "Hello from Gemini", text)
	require.NotNil(t, usage)
	assert.Equal(t, int64(11), usage.TotalTokens)

	assert.True(t, strings.HasSuffix(path, "gemini-2.5-flash:generateContent"), path)
	assert.Contains(t, body, "You are helpful.")
	assert.Contains(t, body, "USER REQUEST:")
	assert.Contains(t, body, "Write something.")
}

func TestGeminiProviderLegacyKey(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, geminiOK)
	}))
	defer srv.Close()

	req := providerRequest(types.ProviderGemini, "")
	req.Config.LegacyAPIKey = testAPIKey

	p := NewGeminiProvider(ProviderOptions{BaseURL: srv.URL + "/"})
	_, _, err := p.Send(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeminiProviderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`)
	}))
	defer srv.Close()

	p := NewGeminiProvider(ProviderOptions{BaseURL: srv.URL + "/"})
	_, _, err := p.Send(context.Background(), providerRequest(types.ProviderGemini, testAPIKey))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeProvider))
	assert.True(t, strings.HasPrefix(errors.UserMessage(err), "Gemini Error: "))
	assert.Contains(t, errors.UserMessage(err), "API key not valid")
	assert.NotContains(t, err.Error(), testAPIKey)

	_, _, err = p.Send(context.Background(), providerRequest(types.ProviderGemini, ""))
	assert.Equal(t, "Gemini API Key is missing.", errors.UserMessage(err))
}

func TestGeminiProviderEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"candidates":[]}`)
	}))
	defer srv.Close()

	text, _, err := NewGeminiProvider(ProviderOptions{BaseURL: srv.URL + "/"}).
		Send(context.Background(), providerRequest(types.ProviderGemini, testAPIKey))
	require.NoError(t, err)
	assert.Equal(t, "", text)

	_, _, err = NewGeminiProvider(ProviderOptions{BaseURL: srv.URL + "/", Strict: true}).
		Send(context.Background(), providerRequest(types.ProviderGemini, testAPIKey))
	assert.Equal(t, "Gemini Error: empty or malformed response", errors.UserMessage(err))
	assert.True(t, errors.HasCode(err, errors.ErrCodeEmptyResponse))
}

func TestCombinedPrompt(t *testing.T) {
	assert.Equal(t, "sys\n\nUSER REQUEST:\nuser", CombinedPrompt("sys", "user"))
}
