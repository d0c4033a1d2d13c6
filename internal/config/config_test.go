package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.Model)
	assert.Equal(t, time.Minute, cfg.AI.Timeout)
	assert.Equal(t, 3, cfg.AI.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.AI.InitialDelay)
	assert.Equal(t, "https://api.abacatepay.com/v1", cfg.AbacatePay.APIURL)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FINGLOW_SERVER_PORT", "9090")
	t.Setenv("FINGLOW_DATABASE_DSN", "postgres://env-host/finglow")
	t.Setenv("FINGLOW_JWT_SECRET", "env-secret")
	t.Setenv("FINGLOW_AI_API_KEY", "env-ai-key")
	t.Setenv("FINGLOW_AI_BASE_URL", "https://llm.example.com/v1")
	t.Setenv("FINGLOW_ABACATEPAY_API_KEY", "env-abacate-key")
	t.Setenv("FINGLOW_ABACATEPAY_WEBHOOK_SECRET", "env-webhook-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "postgres://env-host/finglow", cfg.Database.DSN)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, "env-ai-key", cfg.AI.APIKey)
	assert.Equal(t, "https://llm.example.com/v1", cfg.AI.BaseURL)
	assert.Equal(t, "env-abacate-key", cfg.AbacatePay.APIKey)
	assert.Equal(t, "env-webhook-secret", cfg.AbacatePay.WebhookSecret)
}
