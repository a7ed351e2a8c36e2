package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stockgpt/internal/entity"
)

func TestValidateAI(t *testing.T) {
	cfg := &Config{AI: AI{Provider: ProviderOpenAI}}
	assert.ErrorIs(t, cfg.ValidateAI(), entity.ErrConfiguration, "missing key must fail")

	cfg.OpenAI.APIKey = "sk-test"
	assert.NoError(t, cfg.ValidateAI())

	cfg.AI.Provider = "llama"
	assert.ErrorIs(t, cfg.ValidateAI(), entity.ErrConfiguration, "unknown provider must fail")

	cfg.AI.Provider = ProviderGemini
	assert.ErrorIs(t, cfg.ValidateAI(), entity.ErrConfiguration, "key check is per provider")
	cfg.Gemini.APIKey = "g-test"
	assert.NoError(t, cfg.ValidateAI())
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTLIntraday)
	assert.Equal(t, 6*time.Hour, cfg.Cache.TTLDaily)
	assert.Equal(t, "https://query1.finance.yahoo.com", cfg.YahooFinance.BaseURL)
	assert.Equal(t, ProviderOpenAI, cfg.AI.Provider)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.NotEmpty(t, cfg.Watch.Schedule)
}

func TestTTLForTimeframe(t *testing.T) {
	c := Cache{TTLIntraday: time.Minute, TTLDaily: time.Hour}
	assert.Equal(t, time.Minute, c.TTLFor(entity.Timeframe1D))
	assert.Equal(t, time.Hour, c.TTLFor(entity.Timeframe1M))
	assert.Equal(t, time.Hour, c.TTLFor(entity.Timeframe1Y))
}
