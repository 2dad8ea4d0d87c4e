/*
Package core provides configuration management and logging initialization
for the Deskagent application.

This file handles:
- Loading configuration from environment variables with sensible defaults
- Structured logging setup with configurable levels and formats
- Backend connectivity and confirmation-policy parameters
- Session and memory management configuration

The configuration system follows the twelve-factor app methodology by
prioritizing environment variables for deployment flexibility while
providing reasonable defaults for development. A .env file is honored when
present so local setups do not need to export variables by hand.
*/
package core

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all configurable values for the Deskagent application.
// The struct is built once at startup and treated as immutable afterwards;
// every component receives it by injection rather than reading globals.
type Config struct {
	// Server configuration
	Port string // HTTP server port number (default: "8080")

	// ITSM backend configuration
	APIURL                string        // Base URL of the ticketing backend (default: "http://localhost:8080")
	BackendTimeout        time.Duration // Timeout for individual backend calls (default: 30s)
	TLSInsecureSkipVerify bool          // Disable TLS certificate verification, explicit opt-in only (default: false)

	// Enrichment and confirmation policy
	AutoSearch          bool // Run searches automatically on matching intents (default: true)
	RequireConfirmation bool // Stage writes for confirmation instead of executing directly (default: true)
	MaxSimilarIncidents int  // Similar incidents surfaced before a create, 1-10 (default: 3)
	KBSuggestions       bool // Include knowledge suggestions alongside create enrichment (default: true)
	DefaultImpact       int  // Impact applied when the user gives none, 1-4 (default: 3)
	DefaultUrgency      int  // Urgency applied when the user gives none, 1-4 (default: 3)
	MaxResults          int  // Result cap for explicit searches, 1-20 (default: 5)

	// LLM Provider configuration
	LLMProvider string // LLM provider to use: "ollama" or "gemini" (default: "gemini")

	// Ollama LLM configuration
	OllamaEndpoint string // Base URL for the Ollama API service (default: "http://localhost:11434")
	OllamaModel    string // Name of the Ollama model to use for inference (default: "qwen3")

	// Gemini LLM configuration
	GeminiAPIKey string // API key for Google Gemini (required when using gemini provider)
	GeminiModel  string // Name of the Gemini model to use for inference (default: "gemini-2.0-flash")

	// Agent execution configuration
	MaxIterations int           // Maximum number of iterations for agent reasoning loops (default: 100)
	AgentTimeout  time.Duration // Timeout for a full agent execution (default: 300s)
	ContextLimit  int           // Maximum number of messages to include in conversation context (default: 10)

	// Memory store configuration for session management
	SessionMaxAge   time.Duration // How long to keep sessions in memory before expiring (default: 24h)
	CleanupInterval time.Duration // How often to run cleanup of expired sessions (default: 1h)

	// Logging and debugging configuration
	LogLevel          string // Minimum log level: debug, info, warn, error (default: "info")
	LogTruncateLength int    // Maximum length for log message truncation (default: 500)
	DebugMode         bool   // Enable debug mode for detailed internal logging (default: false)
}

// LoadConfig loads configuration from a .env file (when present) and the
// process environment, starting from sensible defaults. Numeric settings
// with a documented range are clamped rather than rejected so a bad value
// degrades gracefully instead of failing startup.
//
// Environment Variables:
//   - PORT: Server port (string)
//   - REMEDY_API_URL: Ticketing backend base URL (string)
//   - BACKEND_TIMEOUT: Backend call timeout in seconds (integer)
//   - TLS_INSECURE_SKIP_VERIFY: Disable TLS verification (boolean, off by default)
//   - AUTO_SEARCH: Automatic enrichment searches (boolean)
//   - REQUIRE_CONFIRMATION: Stage writes for confirmation (boolean)
//   - MAX_SIMILAR_INCIDENTS: Similar incidents before create, 1-10 (integer)
//   - KB_SUGGESTIONS: Knowledge suggestions on create (boolean)
//   - DEFAULT_IMPACT / DEFAULT_URGENCY: Defaults for new incidents, 1-4 (integer)
//   - MAX_RESULTS: Search result cap, 1-20 (integer)
//   - LLM_PROVIDER: "ollama" or "gemini" (string)
//   - OLLAMA_ENDPOINT / OLLAMA_MODEL: Ollama connection (string)
//   - GEMINI_API_KEY / GEMINI_MODEL: Gemini connection (string)
//   - MAX_ITERATIONS: Maximum agent iterations (integer)
//   - AGENT_TIMEOUT: Agent execution timeout in seconds (integer)
//   - CONTEXT_LIMIT: Maximum context messages (integer)
//   - SESSION_MAX_AGE_HOURS: Session expiry in hours (integer)
//   - CLEANUP_INTERVAL_MINUTES: Cleanup frequency in minutes (integer)
//   - LOG_LEVEL: Logging level (string)
//   - LOG_TRUNCATE_LENGTH: Log truncation length (integer)
//   - DEBUG_MODE: Enable debug mode (boolean: "true"/"1")
func LoadConfig() *Config {
	// Best effort; absence of a .env file is the normal production case.
	_ = godotenv.Load()

	config := &Config{
		Port: "8080",

		APIURL:                "http://localhost:8080",
		BackendTimeout:        30 * time.Second,
		TLSInsecureSkipVerify: false,

		AutoSearch:          true,
		RequireConfirmation: true,
		MaxSimilarIncidents: 3,
		KBSuggestions:       true,
		DefaultImpact:       3,
		DefaultUrgency:      3,
		MaxResults:          5,

		LLMProvider: "gemini",

		OllamaEndpoint: "http://localhost:11434",
		OllamaModel:    "qwen3",

		GeminiAPIKey: "", // Must be provided via environment variable
		GeminiModel:  "gemini-2.0-flash",

		MaxIterations: 100,
		AgentTimeout:  300 * time.Second,
		ContextLimit:  10,

		SessionMaxAge:   24 * time.Hour,
		CleanupInterval: 1 * time.Hour,

		LogLevel:          "info",
		LogTruncateLength: 500,
		DebugMode:         false,
	}

	// Server configuration
	if port := os.Getenv("PORT"); port != "" {
		config.Port = port
	}

	// Backend configuration
	if apiURL := os.Getenv("REMEDY_API_URL"); apiURL != "" {
		config.APIURL = strings.TrimRight(apiURL, "/")
	}

	if timeout := os.Getenv("BACKEND_TIMEOUT"); timeout != "" {
		if val, err := strconv.Atoi(timeout); err == nil && val > 0 {
			config.BackendTimeout = time.Duration(val) * time.Second
		}
	}

	config.TLSInsecureSkipVerify = envBool("TLS_INSECURE_SKIP_VERIFY", config.TLSInsecureSkipVerify)

	// Enrichment and confirmation policy
	config.AutoSearch = envBool("AUTO_SEARCH", config.AutoSearch)
	config.RequireConfirmation = envBool("REQUIRE_CONFIRMATION", config.RequireConfirmation)
	config.KBSuggestions = envBool("KB_SUGGESTIONS", config.KBSuggestions)
	config.MaxSimilarIncidents = envIntClamped("MAX_SIMILAR_INCIDENTS", config.MaxSimilarIncidents, 1, 10)
	config.DefaultImpact = envIntClamped("DEFAULT_IMPACT", config.DefaultImpact, 1, 4)
	config.DefaultUrgency = envIntClamped("DEFAULT_URGENCY", config.DefaultUrgency, 1, 4)
	config.MaxResults = envIntClamped("MAX_RESULTS", config.MaxResults, 1, 20)

	// LLM Provider configuration
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		if provider == "ollama" || provider == "gemini" {
			config.LLMProvider = provider
		}
	}

	if endpoint := os.Getenv("OLLAMA_ENDPOINT"); endpoint != "" {
		config.OllamaEndpoint = endpoint
	}

	if model := os.Getenv("OLLAMA_MODEL"); model != "" {
		config.OllamaModel = model
	}

	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.GeminiAPIKey = apiKey
	}

	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		config.GeminiModel = model
	}

	// Agent execution parameters with validation
	if maxIter := os.Getenv("MAX_ITERATIONS"); maxIter != "" {
		if val, err := strconv.Atoi(maxIter); err == nil && val > 0 {
			config.MaxIterations = val
		}
	}

	if timeout := os.Getenv("AGENT_TIMEOUT"); timeout != "" {
		if val, err := strconv.Atoi(timeout); err == nil && val > 0 {
			config.AgentTimeout = time.Duration(val) * time.Second
		}
	}

	if contextLimit := os.Getenv("CONTEXT_LIMIT"); contextLimit != "" {
		if val, err := strconv.Atoi(contextLimit); err == nil && val > 0 {
			config.ContextLimit = val
		}
	}

	// Session management parameters with validation
	if sessionMaxAge := os.Getenv("SESSION_MAX_AGE_HOURS"); sessionMaxAge != "" {
		if val, err := strconv.Atoi(sessionMaxAge); err == nil && val > 0 {
			config.SessionMaxAge = time.Duration(val) * time.Hour
		}
	}

	if cleanupInterval := os.Getenv("CLEANUP_INTERVAL_MINUTES"); cleanupInterval != "" {
		if val, err := strconv.Atoi(cleanupInterval); err == nil && val > 0 {
			config.CleanupInterval = time.Duration(val) * time.Minute
		}
	}

	// Logging configuration
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.LogLevel = logLevel
	}

	if truncateLen := os.Getenv("LOG_TRUNCATE_LENGTH"); truncateLen != "" {
		if val, err := strconv.Atoi(truncateLen); err == nil && val > 0 {
			config.LogTruncateLength = val
		}
	}

	config.DebugMode = envBool("DEBUG_MODE", config.DebugMode)

	// Fall back to ollama when the gemini provider is selected without a key,
	// so the server still comes up for local development.
	if config.LLMProvider == "gemini" && config.GeminiAPIKey == "" {
		config.LLMProvider = "ollama"
	}

	return config
}

// envBool reads a boolean environment variable accepting "true"/"1"
// (case-insensitive). Anything else present is treated as false.
func envBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return strings.ToLower(val) == "true" || val == "1"
}

// envIntClamped reads an integer environment variable and clamps it into
// [min, max]. Unparseable values keep the fallback.
func envIntClamped(key string, fallback, min, max int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// InitializeLogger configures and returns a structured logger based on the
// provided configuration. The logger uses JSON formatting for structured
// logging, which is ideal for production environments, log aggregation, and
// automated log processing.
//
// Features:
// - JSON formatted output for structured logging
// - Configurable log levels (debug, info, warn, error)
// - RFC3339 timestamp format for precise timing
// - Output to stdout for container-friendly logging
// - Configuration value logging for operational visibility
func InitializeLogger(config *Config) *logrus.Logger {
	logger := logrus.New()

	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})

	switch strings.ToLower(config.LogLevel) {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	logger.SetOutput(os.Stdout)

	// Log the loaded configuration for operational visibility. The Gemini
	// API key is deliberately omitted.
	logger.WithFields(logrus.Fields{
		"apiURL":                config.APIURL,
		"backendTimeout":        config.BackendTimeout,
		"tlsInsecureSkipVerify": config.TLSInsecureSkipVerify,
		"autoSearch":            config.AutoSearch,
		"requireConfirmation":   config.RequireConfirmation,
		"maxSimilarIncidents":   config.MaxSimilarIncidents,
		"kbSuggestions":         config.KBSuggestions,
		"maxResults":            config.MaxResults,
		"llmProvider":           config.LLMProvider,
		"ollamaEndpoint":        config.OllamaEndpoint,
		"ollamaModel":           config.OllamaModel,
		"geminiModel":           config.GeminiModel,
		"maxIterations":         config.MaxIterations,
		"agentTimeout":          config.AgentTimeout,
		"contextLimit":          config.ContextLimit,
		"sessionMaxAge":         config.SessionMaxAge,
		"cleanupInterval":       config.CleanupInterval,
		"logTruncateLength":     config.LogTruncateLength,
		"debugMode":             config.DebugMode,
	}).Info("Configuration loaded")

	return logger
}
