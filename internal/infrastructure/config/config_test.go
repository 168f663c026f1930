package config_test

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ingredient-extractor/internal/infrastructure/config"
	"ingredient-extractor/internal/pkg/common"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, "openai/gpt-4o-mini", cfg.OpenRouter.Model)
	assert.Equal(t, 60*time.Second, cfg.OpenRouter.Timeout)
	assert.Equal(t, "memory", cfg.Cache.Type)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 0.3, cfg.Extraction.MinConfidence)
	assert.Equal(t, 0.8, cfg.Extraction.FallbackConfidenceScale)
	assert.True(t, cfg.Extraction.ValidationReview)
	assert.Equal(t, 3, cfg.Batch.Workers)
	assert.Equal(t, 500*time.Millisecond, cfg.Batch.Delay)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-abcdefgh12345678")
	t.Setenv("OPENROUTER_MODEL", "anthropic/claude-3-haiku")
	t.Setenv("APP_BATCH_WORKERS", "7")
	t.Setenv("APP_EXTRACTION_MIN_CONFIDENCE", "0.45")

	cfg, err := config.LoadConfig(nil)
	require.NoError(t, err)

	assert.True(t, cfg.OpenRouter.Enabled)
	assert.Equal(t, "anthropic/claude-3-haiku", cfg.OpenRouter.Model)
	assert.Equal(t, 7, cfg.Batch.Workers)
	assert.Equal(t, 0.45, cfg.Extraction.MinConfidence)
	assert.Equal(t, "sk-a...5678", cfg.MaskedAPIKey())
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("APP_BATCH_WORKERS", "7")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("workers", 0, "")
	fs.String("log-level", "", "")
	require.NoError(t, fs.Parse([]string{"--workers", "5", "--log-level", "debug"}))

	cfg, err := config.LoadConfig(fs)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Batch.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_DisablesOpenRouterWithoutKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")

	cfg, err := config.LoadConfig(nil)
	require.NoError(t, err)
	assert.False(t, cfg.OpenRouter.Enabled)
	assert.Equal(t, "****", cfg.MaskedAPIKey())
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unknown cache type", key: "CACHE_TYPE", val: "memcached"},
		{name: "confidence out of range", key: "APP_EXTRACTION_MIN_CONFIDENCE", val: "1.5"},
		{name: "no workers", key: "APP_BATCH_WORKERS", val: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := config.LoadConfig(nil)
			require.Error(t, err)
			assert.True(t, common.IsValidationError(err))
		})
	}
}
