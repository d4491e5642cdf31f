package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"

	"fluxcareer/internal/config"
	"fluxcareer/internal/errors"
	"fluxcareer/internal/types"
)

var operations = []string{config.OperationCoverLetter, config.OperationInterview, config.OperationTailor, config.OperationChat}

// healthHandler reports provider wiring and breaker state. It answers 503
// while any provider breaker is open.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	st := s.snapshot()

	response := map[string]any{
		"status":           "healthy",
		"service":          "fluxcareer",
		"version":          s.Version,
		"ai_models":        s.providerStatus(st),
		"circuit_breakers": st.service.BreakerStats(),
		"history_backend":  st.cfg.History.Backend,
	}

	status := http.StatusOK
	if !st.service.Healthy() {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// providerStatus lists the resolved provider and model per operation and
// whether a credential is present for it
func (s *Server) providerStatus(st *state) map[string]any {
	out := make(map[string]any, len(operations))
	for _, op := range operations {
		pc := st.cfg.ProviderConfig(op)
		configured := pc.APIKeys[pc.Provider] != ""
		if pc.Provider == types.ProviderGemini && pc.LegacyAPIKey != "" {
			configured = true
		}
		out[op] = map[string]any{
			"provider":   pc.Provider,
			"model":      pc.Model,
			"configured": configured,
		}
	}
	return out
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "fluxcareer",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"auth_enabled":           len(s.snapshot().apiKeys) > 0,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	if s.keyWatcher != nil {
		response["vault_key_watcher"] = s.keyWatcher.Status()
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

// statusFor maps an error to the HTTP status reported for it
func statusFor(err error) int {
	var appErr *errors.AppError
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case stderrors.As(err, &appErr):
		switch appErr.Type {
		case errors.ErrorTypeValidation, errors.ErrorTypeConfig:
			return http.StatusBadRequest
		case errors.ErrorTypeNotFound:
			return http.StatusNotFound
		case errors.ErrorTypeProvider, errors.ErrorTypeNetwork:
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}

// writeAppError writes err with the status and code its type implies
func writeAppError(w http.ResponseWriter, title string, err error) {
	status := statusFor(err)
	response := ErrorResponse{Error: title, Message: errors.UserMessage(err)}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		response.Code = appErr.Code
	}
	if status == http.StatusInternalServerError && appErr == nil {
		response.Message = "Internal server error"
	}
	writeJSON(w, status, response)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, title, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Error: title, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
