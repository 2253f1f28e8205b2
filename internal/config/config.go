// Package config provides environment configuration for the API server.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/counsel-ai/memory-engine/internal/memory"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// NATS settings
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// JWT settings
	JWTSecret string

	// LLM settings
	AnthropicAPIKey   string
	OpenAIAPIKey      string
	DefaultLLM        string
	SummarizerModel   string
	SummarizerTimeout time.Duration

	// Memory thresholds
	Memory memory.Thresholds

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	defaults := memory.DefaultThresholds()

	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// NATS
		NATSURL:      getEnv("NATS_URL", "nats://localhost:4222"),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "development-secret-change-in-production"),

		// LLM
		AnthropicAPIKey:   getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		DefaultLLM:        getEnv("DEFAULT_LLM", "anthropic"),
		SummarizerModel:   getEnv("SUMMARIZER_MODEL", ""),
		SummarizerTimeout: getDurationEnv("SUMMARIZER_TIMEOUT", 20*time.Second),

		// Memory thresholds
		Memory: memory.Thresholds{
			SingleConversationTokenLimit:   getIntEnv("MEMORY_SINGLE_TOKEN_LIMIT", defaults.SingleConversationTokenLimit),
			SingleConversationMessageLimit: getIntEnv("MEMORY_SINGLE_MESSAGE_LIMIT", defaults.SingleConversationMessageLimit),
			SingleSummaryTargetTokens:      getIntEnv("MEMORY_SINGLE_SUMMARY_TARGET", defaults.SingleSummaryTargetTokens),
			TotalMemoryTokenLimit:          getIntEnv("MEMORY_TOTAL_TOKEN_LIMIT", defaults.TotalMemoryTokenLimit),
			TotalMemorySummaryTargetTokens: getIntEnv("MEMORY_TOTAL_SUMMARY_TARGET", defaults.TotalMemorySummaryTargetTokens),
			RecentWindowCount:              getIntEnv("MEMORY_RECENT_WINDOW", defaults.RecentWindowCount),
			LookbackDays:                   getIntEnv("MEMORY_LOOKBACK_DAYS", defaults.LookbackDays),
			MaxCandidates:                  getIntEnv("MEMORY_MAX_CANDIDATES", defaults.MaxCandidates),
		},

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
