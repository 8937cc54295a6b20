package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"ENV", "PORT", "GEMINI_MODEL", "VALIDATION_ENABLED", "MAX_VALIDATION_RETRIES",
		"VALIDATION_TIMEOUT_MS", "FALLBACK_ENABLED", "DAILY_PERSONA_LIMIT",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DefaultModel, cfg.GeminiModel)
	assert.Equal(t, int64(DefaultDailyLimit), cfg.DailyLimit)
	assert.True(t, cfg.Validation.Enabled)
	assert.Equal(t, DefaultMaxRetries, cfg.Validation.MaxRetries)
	assert.Equal(t, DefaultRuleTimeout, cfg.Validation.RuleTimeout)
	assert.True(t, cfg.Validation.FallbackEnabled)
	assert.Equal(t, DefaultGenerateTimeout, cfg.GenerateLimit)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("VALIDATION_ENABLED", "false")
	t.Setenv("MAX_VALIDATION_RETRIES", "5")
	t.Setenv("VALIDATION_TIMEOUT_MS", "250")
	t.Setenv("DAILY_PERSONA_LIMIT", "42")

	cfg := FromEnv()

	assert.Equal(t, "9090", cfg.Port)
	assert.False(t, cfg.Validation.Enabled)
	assert.Equal(t, 5, cfg.Validation.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Validation.RuleTimeout)
	assert.Equal(t, int64(42), cfg.DailyLimit)
}

func TestFromEnvInvalidValuesFallBack(t *testing.T) {
	t.Setenv("VALIDATION_ENABLED", "banana")
	t.Setenv("MAX_VALIDATION_RETRIES", "-1")
	t.Setenv("VALIDATION_TIMEOUT_MS", "zero")

	cfg := FromEnv()

	assert.True(t, cfg.Validation.Enabled)
	assert.Equal(t, DefaultMaxRetries, cfg.Validation.MaxRetries)
	assert.Equal(t, DefaultRuleTimeout, cfg.Validation.RuleTimeout)
}
