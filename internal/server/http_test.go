package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"fluxcareer/internal/ai"
	"fluxcareer/internal/config"
	"fluxcareer/internal/errors"
	"fluxcareer/internal/history"
	"fluxcareer/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	mu   sync.Mutex
	text string
	err  error
	reqs []types.Request
}

func (g *stubGenerator) Generate(_ context.Context, req types.Request) (string, *ai.TokenUsage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reqs = append(g.reqs, req)
	return g.text, nil, g.err
}

type testGenerators map[string]*stubGenerator

func newGenerators() testGenerators {
	return testGenerators{
		config.OperationCoverLetter: {text: "Dear Hiring Manager,\nI am a fit.\nBest regards, Jane"},
		config.OperationInterview:   {text: "1. Why Go?"},
		config.OperationTailor:      {text: "```html\n<h3>Summary</h3>\n```"},
		config.OperationChat:        {text: "Done. <DOCUMENT_CONTENT>Shorter letter</DOCUMENT_CONTENT>"},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		AI: config.AIConfig{Provider: "gemini", Timeout: 5 * time.Second, GeminiAPIKey: "g-key"},
		Server: config.ServerConfig{
			Host:           "localhost",
			Port:           "0",
			MaxRequestSize: 1 << 20,
		},
		User: config.UserConfig{
			Name:     "Jane Doe",
			Email:    "jane@example.com",
			Tone:     "Professional",
			Length:   "Medium",
			Language: "English",
		},
		History: config.HistoryConfig{Backend: "memory", MaxItems: 20, MaxMessages: 50},
		Sheets:  config.SheetsConfig{SheetName: "Sheet1", Timeout: 5 * time.Second},
	}
}

var testNow = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func newTestServer(t *testing.T, cfg *config.Config, gens testGenerators) *Server {
	t.Helper()
	stores, err := history.Open(context.Background(), cfg.History)
	require.NoError(t, err)

	var svcOpts []ai.ServiceOption
	for op, g := range gens {
		svcOpts = append(svcOpts, ai.WithGenerator(op, g))
	}

	srv := NewServer(cfg, ServerConfigFromConfig(cfg, "test"), stores, errors.NewNopLogger(),
		WithServiceOptions(svcOpts...),
		WithClock(func() time.Time { return testNow }))
	t.Cleanup(srv.cleanup)
	return srv
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestCoverLetterAndHistoryEndpoints(t *testing.T) {
	gens := newGenerators()
	h := newTestServer(t, testConfig(), gens).Handler()

	rec := doJSON(t, h, http.MethodPost, "/cover-letter", map[string]string{
		"jobDescription": "Senior Go Engineer\nBuild services",
		"resumeText":     "Go for 8 years",
		"tone":           "confident",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode[types.CoverLetterOutput](t, rec)
	assert.Equal(t, "Dear Hiring Manager,\nI am a fit.\nBest regards, Jane", out.Content)
	assert.Equal(t, "Jane_Doe_Senior_Go_Engineer_Cover_Letter.pdf", out.Filename)

	system := gens[config.OperationCoverLetter].reqs[0].SystemPrompt
	assert.Contains(t, system, "Write a Confident cover letter in English.")
	assert.Contains(t, system, `"Best regards, Jane Doe"`)

	rec = doJSON(t, h, http.MethodGet, "/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]types.HistoryItem](t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, "Senior Go Engineer", items[0].JobTitle)
	assert.Equal(t, testNow.Format(time.RFC3339), items[0].Timestamp)

	rec = doJSON(t, h, http.MethodGet, "/history/"+items[0].ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, out.Content, decode[types.HistoryItem](t, rec).Content)

	rec = doJSON(t, h, http.MethodDelete, "/history/"+items[0].ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/history/"+items[0].ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.ErrCodeHistoryNotFound, decode[ErrorResponse](t, rec).Code)
}

func TestEmptyHistoryIsArray(t *testing.T) {
	h := newTestServer(t, testConfig(), newGenerators()).Handler()
	rec := doJSON(t, h, http.MethodGet, "/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestCoverLetterValidation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]string
		code string
	}{
		{name: "missing job description", body: map[string]string{"jobDescription": "  "}, code: errors.ErrCodeMissingInput},
		{name: "unknown tone", body: map[string]string{"jobDescription": "Role", "tone": "Sarcastic"}, code: errors.ErrCodeInvalidRequest},
		{name: "unknown language", body: map[string]string{"jobDescription": "Role", "language": "Latin"}, code: errors.ErrCodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gens := newGenerators()
			h := newTestServer(t, testConfig(), gens).Handler()

			rec := doJSON(t, h, http.MethodPost, "/cover-letter", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Code)
			assert.Empty(t, gens[config.OperationCoverLetter].reqs)
		})
	}
}

func TestProviderFailureIsBadGateway(t *testing.T) {
	gens := newGenerators()
	gens[config.OperationTailor].err = errors.NewProviderError("gemini", "Gemini Error: quota exceeded", nil)
	h := newTestServer(t, testConfig(), gens).Handler()

	rec := doJSON(t, h, http.MethodPost, "/tailor", map[string]string{
		"jobDescription": "Role", "resumeText": "Resume",
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "Gemini Error: quota exceeded", resp.Message)
	assert.Equal(t, errors.ErrCodeProviderFailed, resp.Code)
}

func TestTailorEndpoint(t *testing.T) {
	gens := newGenerators()
	h := newTestServer(t, testConfig(), gens).Handler()

	rec := doJSON(t, h, http.MethodPost, "/tailor", map[string]string{
		"jobDescription": "Platform Engineer", "resumeText": "Resume", "provider": "openai", "model": "gpt-4o-mini",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[types.TailorOutput](t, rec)
	assert.Equal(t, "<h3>Summary</h3>", out.Content)
	assert.Equal(t, "Jane_Doe_Platform_Engineer_Resume.pdf", out.Filename)

	req := gens[config.OperationTailor].reqs[0]
	assert.Equal(t, types.ProviderOpenAI, req.Config.Provider)
	assert.Equal(t, "gpt-4o-mini", req.Config.Model)

	rec = doJSON(t, h, http.MethodPost, "/tailor", map[string]string{"jobDescription": "Role"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Resume text required.", decode[ErrorResponse](t, rec).Message)
}

func TestInterviewFallback(t *testing.T) {
	gens := newGenerators()
	gens[config.OperationInterview].text = ""
	h := newTestServer(t, testConfig(), gens).Handler()

	rec := doJSON(t, h, http.MethodPost, "/interview", map[string]string{"jobDescription": "Role"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ai.InterviewFallback, decode[types.InterviewOutput](t, rec).Content)
}

func TestInterviewProviderErrorIsReported(t *testing.T) {
	gens := newGenerators()
	gens[config.OperationInterview].err = errors.NewProviderError("gemini", "Gemini Error: boom", nil)
	h := newTestServer(t, testConfig(), gens).Handler()

	rec := doJSON(t, h, http.MethodPost, "/interview", map[string]string{"jobDescription": "Role"})
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Gemini Error: boom", decode[ErrorResponse](t, rec).Message)
}

func TestChatEndpointKeepsSession(t *testing.T) {
	gens := newGenerators()
	h := newTestServer(t, testConfig(), gens).Handler()

	rec := doJSON(t, h, http.MethodPost, "/chat", map[string]any{
		"message":         "Make it shorter",
		"currentDocument": "Long letter",
		"documentType":    "Cover Letter",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[types.ChatOutput](t, rec)
	require.NotEmpty(t, first.SessionID)
	assert.True(t, first.Parsed.HasDocument)
	require.NotNil(t, first.Parsed.DocumentContent)
	assert.Equal(t, "Shorter letter", *first.Parsed.DocumentContent)
	assert.Equal(t, "Done.", first.Parsed.DisplayMessage)

	rec = doJSON(t, h, http.MethodPost, "/chat", map[string]any{
		"sessionId":       first.SessionID,
		"message":         "Add a closing line",
		"currentDocument": "Shorter letter",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode[types.ChatOutput](t, rec)
	assert.Len(t, second.Messages, 4)

	user := gens[config.OperationChat].reqs[1].UserPrompt
	assert.Contains(t, user, "USER: Make it shorter")
	assert.Contains(t, user, "USER: Add a closing line")
}

func TestChatRejectsUnknownDocumentType(t *testing.T) {
	h := newTestServer(t, testConfig(), newGenerators()).Handler()
	rec := doJSON(t, h, http.MethodPost, "/chat", map[string]any{"message": "x", "documentType": "Poem"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSheetsEndpoint(t *testing.T) {
	var got types.SheetPayload
	var auth string
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"ok"}`))
	}))
	defer webhook.Close()

	cfg := testConfig()
	cfg.Sheets.ScriptURL = webhook.URL
	cfg.Sheets.AccessToken = "sheet-token"
	h := newTestServer(t, cfg, newGenerators()).Handler()

	rec := doJSON(t, h, http.MethodPost, "/sheets", map[string]string{
		"jobDescription": "Apply at Jobs@Example.com",
		"coverLetter":    "Dear team",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.Equal(t, "Bearer sheet-token", auth)
	assert.Equal(t, "jobs@example.com", got.ExtractedEmail)
	assert.Equal(t, "Jane Doe", got.SenderName)
	assert.Equal(t, "Sheet1", got.SheetName)
}

func TestSheetsEndpointWithoutURL(t *testing.T) {
	h := newTestServer(t, testConfig(), newGenerators()).Handler()
	rec := doJSON(t, h, http.MethodPost, "/sheets", map[string]string{"jobDescription": "x", "coverLetter": "y"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please configure Google Apps Script URL in settings", decode[ErrorResponse](t, rec).Message)
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testConfig()
	cfg.Server.APIKeys = []string{"secret-key-123"}
	h := newTestServer(t, cfg, newGenerators()).Handler()
	body := map[string]string{"jobDescription": "Role"}

	tests := []struct {
		name    string
		headers []string
		want    int
	}{
		{name: "missing key", want: http.StatusUnauthorized},
		{name: "wrong key", headers: []string{"X-API-Key", "nope"}, want: http.StatusUnauthorized},
		{name: "header key", headers: []string{"X-API-Key", "secret-key-123"}, want: http.StatusOK},
		{name: "bearer key", headers: []string{"Authorization", "Bearer secret-key-123"}, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/interview", body, tt.headers...)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstCapacity: 1, ByIP: true}
	h := newTestServer(t, cfg, newGenerators()).Handler()
	body := map[string]string{"jobDescription": "Role"}

	assert.Equal(t, http.StatusOK, doJSON(t, h, http.MethodPost, "/interview", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, doJSON(t, h, http.MethodPost, "/interview", body).Code)
	assert.Equal(t, http.StatusOK,
		doJSON(t, h, http.MethodPost, "/interview", body, "X-Forwarded-For", "198.51.100.7").Code)
}

func TestRequestParsing(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxRequestSize = 64
	h := newTestServer(t, cfg, newGenerators()).Handler()

	req := httptest.NewRequest(http.MethodPost, "/interview", strings.NewReader(`{"jobDescription":"x"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/interview", map[string]string{"jobDescription": strings.Repeat("x", 200)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Message, "request body too large")

	rec = doJSON(t, h, http.MethodGet, "/interview", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthAndStats(t *testing.T) {
	h := newTestServer(t, testConfig(), newGenerators()).Handler()

	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[map[string]any](t, rec)
	assert.Equal(t, "healthy", health["status"])
	models := health["ai_models"].(map[string]any)
	cover := models[config.OperationCoverLetter].(map[string]any)
	assert.Equal(t, "gemini", cover["provider"])
	assert.Equal(t, true, cover["configured"])

	rec = doJSON(t, h, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[map[string]any](t, rec)
	assert.Equal(t, "fluxcareer", stats["service"])
	assert.Equal(t, map[string]any{"enabled": false}, stats["rate_limiting"])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.NewValidationError(errors.ErrCodeMissingInput, "x", nil), http.StatusBadRequest},
		{errors.NewConfigError(errors.ErrCodeMissingAPIKey, "Gemini API Key is missing.", nil), http.StatusBadRequest},
		{errors.NewUnsupportedProviderError("claude"), http.StatusBadRequest},
		{errors.NewNotFoundError(errors.ErrCodeHistoryNotFound, "gone"), http.StatusNotFound},
		{errors.NewProviderError("openai", "OpenAI Request Failed", nil), http.StatusBadGateway},
		{errors.NewNetworkError(errors.ErrCodeSheetsFailed, "down", nil), http.StatusBadGateway},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestConfigSwaps(t *testing.T) {
	cfg := testConfig()
	srv := newTestServer(t, cfg, newGenerators())

	srv.rotateProviderKeys(map[types.Provider]string{types.ProviderOpenAI: "o-new"}, "", nil)
	assert.Equal(t, "o-new", srv.snapshot().cfg.AI.OpenAIAPIKey)
	assert.Equal(t, "g-key", srv.snapshot().cfg.AI.GeminiAPIKey)
	assert.Empty(t, cfg.AI.OpenAIAPIKey)

	srv.rotateProviderKeys(nil, "", fmt.Errorf("vault down"))
	assert.Equal(t, "o-new", srv.snapshot().cfg.AI.OpenAIAPIKey)

	next := testConfig()
	next.Server.APIKeys = []string{"k1"}
	srv.reloadConfig(next)
	assert.True(t, srv.snapshot().apiKeys["k1"])
	assert.Equal(t, http.StatusUnauthorized,
		doJSON(t, srv.Handler(), http.MethodPost, "/interview", map[string]string{"jobDescription": "x"}).Code)
}

func TestConcurrentReloadAndRotationKeepLatestConfig(t *testing.T) {
	srv := newTestServer(t, testConfig(), newGenerators())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			next := testConfig()
			next.AI.Provider = "openai"
			srv.reloadConfig(next)
		}()
		go func(i int) {
			defer wg.Done()
			srv.rotateProviderKeys(map[types.Provider]string{types.ProviderOpenRouter: fmt.Sprintf("r-%d", i)}, "", nil)
		}(i)
	}
	wg.Wait()

	// Every rotation that follows a reload copies the reloaded config, so
	// the provider from the reloads always survives
	assert.Equal(t, "openai", srv.snapshot().cfg.AI.Provider)
}
