// Package config builds the process configuration once at startup. The struct
// is passed by reference into the engine, retry manager and handlers; nothing
// reads the environment after FromEnv returns.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Defaults used when the corresponding environment variable is unset or invalid.
const (
	DefaultMaxRetries      = 3
	DefaultRuleTimeout     = 5 * time.Second
	DefaultGenerateTimeout = 30 * time.Second
	DefaultModel           = "gemini-2.5-flash"
	DefaultPersonaCount    = 3
	DefaultDailyLimit      = 200
)

// Config holds everything the service reads from the environment.
type Config struct {
	Env           string
	Port          string
	CloudRunURL   string
	ExtraOrigins  string
	ClientAPIKey  string // optional; empty disables client auth
	GeminiAPIKey  string
	GeminiModel   string
	QlooAPIURL    string
	QlooAPIKey    string
	DailyLimit    int64
	Validation    ValidationConfig
	GenerateLimit time.Duration // wall clock budget for one generation request
}

// ValidationConfig configures the validation engine and retry manager.
type ValidationConfig struct {
	Enabled         bool
	MaxRetries      int
	RuleTimeout     time.Duration
	FallbackEnabled bool
}

// FromEnv reads the environment into a Config. Invalid numeric values fall
// back to defaults with a warning rather than failing startup.
func FromEnv() *Config {
	cfg := &Config{
		Env:          os.Getenv("ENV"),
		Port:         envOr("PORT", "8080"),
		CloudRunURL:  os.Getenv("CLOUD_RUN_URL"),
		ExtraOrigins: os.Getenv("ALLOWED_ORIGINS"),
		ClientAPIKey: os.Getenv("API_KEY"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  envOr("GEMINI_MODEL", DefaultModel),
		QlooAPIURL:   os.Getenv("QLOO_API_URL"),
		QlooAPIKey:   os.Getenv("QLOO_API_KEY"),
		DailyLimit:   int64(envInt("DAILY_PERSONA_LIMIT", DefaultDailyLimit)),
		Validation: ValidationConfig{
			Enabled:         envBool("VALIDATION_ENABLED", true),
			MaxRetries:      envInt("MAX_VALIDATION_RETRIES", DefaultMaxRetries),
			RuleTimeout:     envDuration("VALIDATION_TIMEOUT_MS", DefaultRuleTimeout),
			FallbackEnabled: envBool("FALLBACK_ENABLED", true),
		},
		GenerateLimit: DefaultGenerateTimeout,
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[CONFIG] Invalid bool for %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return parsed
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed < 0 {
		log.Printf("[CONFIG] Invalid int for %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return parsed
}

// envDuration parses a millisecond count into a Duration.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		log.Printf("[CONFIG] Invalid duration for %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
