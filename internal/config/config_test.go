package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/smartcare?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.False(t, cfg.Production())
	assert.Equal(t, 1000, cfg.RateLimitMax)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, DefaultAIBaseURL, cfg.AIBaseURL)
	assert.True(t, cfg.SeedDoctors)
	assert.Equal(t, "sensor_readings", cfg.NotifyChannel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/smartcare")
	t.Setenv("APP_ENV", "production")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RATE_LIMIT_MAX", "50")
	t.Setenv("RATE_LIMIT_WINDOW", "1m")
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("SEED_DOCTORS", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Production())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 50, cfg.RateLimitMax)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, "gem-key", cfg.AIAPIKey)
	assert.False(t, cfg.SeedDoctors)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	assert.EqualError(t, err, "DATABASE_URL must be set")

	t.Setenv("DATABASE_URL", "postgres://db/smartcare")
	t.Setenv("RATE_LIMIT_MAX", "lots")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("RATE_LIMIT_MAX", "0")
	_, err = Load()
	assert.Error(t, err)
}
