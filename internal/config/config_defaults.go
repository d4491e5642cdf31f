package config

import (
	"time"

	"github.com/spf13/viper"
)

// Operation names used for per-operation AI overrides
const (
	OperationCoverLetter = "coverLetter"
	OperationInterview   = "interview"
	OperationTailor      = "tailor"
	OperationChat        = "chat"
)

var operations = []string{OperationCoverLetter, OperationInterview, OperationTailor, OperationChat}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	setAIDefaults(v)
	setServerDefaults(v)
	setAppDefaults(v)
	setVaultDefaults(v)
	setObservabilityDefaults(v)
}

// setAIDefaults sets AI-related default configuration values
func setAIDefaults(v *viper.Viper) {
	// Model stays empty so each adapter applies its own default
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.geminiApiKey", "")
	v.SetDefault("ai.openAiApiKey", "")
	v.SetDefault("ai.openRouterApiKey", "")
	v.SetDefault("ai.openRouterReferer", "http://localhost:8080")
	v.SetDefault("ai.strictResponses", false)
	v.SetDefault("ai.endpoints.gemini", "")
	v.SetDefault("ai.endpoints.openai", "https://api.openai.com/v1/")
	v.SetDefault("ai.endpoints.openrouter", "https://openrouter.ai/api/v1/")

	for _, op := range operations {
		prefix := "ai." + op
		v.SetDefault(prefix+".provider", "")
		v.SetDefault(prefix+".model", "")
		v.SetDefault(prefix+".circuitBreaker.enabled", true)
		v.SetDefault(prefix+".circuitBreaker.maxRequests", 3)
		v.SetDefault(prefix+".circuitBreaker.interval", 60*time.Second)
		v.SetDefault(prefix+".circuitBreaker.timeout", 60*time.Second)
		v.SetDefault(prefix+".circuitBreaker.minRequests", 3)
		v.SetDefault(prefix+".circuitBreaker.failureThreshold", 0.6)
	}

	// Tailoring rewrites the whole resume
	v.SetDefault("ai.tailor.timeout", 90*time.Second)
}

// setServerDefaults sets server-related default configuration values
func setServerDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 120*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 1024*1024)
	v.SetDefault("server.watchConfig", true)

	v.SetDefault("server.apiKeys", []string{})

	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
}

// setAppDefaults sets application, user, history and sheets defaults
func setAppDefaults(v *viper.Viper) {
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "text")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown", "html"})
	v.SetDefault("app.maxFileSize", 1024*1024) // 1MB

	v.SetDefault("user.name", "")
	v.SetDefault("user.email", "")
	v.SetDefault("user.tone", "Professional")
	v.SetDefault("user.length", "Medium")
	v.SetDefault("user.language", "English")

	v.SetDefault("history.backend", "memory")
	v.SetDefault("history.redisUrl", "")
	v.SetDefault("history.keyPrefix", "fluxcareer")
	v.SetDefault("history.maxItems", 20)
	v.SetDefault("history.maxMessages", 50)
	v.SetDefault("history.sessionTtl", 24*time.Hour)

	v.SetDefault("sheets.scriptUrl", "")
	v.SetDefault("sheets.sheetName", "Sheet1")
	v.SetDefault("sheets.accessToken", "")
	v.SetDefault("sheets.timeout", 30*time.Second)
}

// setVaultDefaults sets Vault-related default configuration values
func setVaultDefaults(v *viper.Viper) {
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.providerKeys", "")
	v.SetDefault("vault.secrets.sheets", "")
	v.SetDefault("vault.watch.enabled", false)
	v.SetDefault("vault.watch.pollInterval", 5*time.Minute)
}

// setObservabilityDefaults sets observability-related default configuration values
func setObservabilityDefaults(v *viper.Viper) {
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "fluxcareer")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)

	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	v.SetDefault("observability.customMetrics.aiOperations.enabled", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackTokenUsage", true)
	v.SetDefault("observability.customMetrics.businessMetrics.enabled", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackSuccessRates", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackContentSizes", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)

	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)

	v.SetDefault("observability.prometheus.enabled", false)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}
