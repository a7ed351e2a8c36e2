package config

import (
	"fmt"
	"time"

	"stockgpt/internal/entity"
	"stockgpt/pkg/config"
)

// Supported LLM providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Cache holds cache store configuration. Intraday series go stale fast,
// so the 1d timeframe gets its own shorter TTL.
type Cache struct {
	Backend      string        `mapstructure:"backend"` // "memory" or "redis"
	SnapshotPath string        `mapstructure:"snapshot_path"`
	TTLIntraday  time.Duration `mapstructure:"ttl_intraday"`
	TTLDaily     time.Duration `mapstructure:"ttl_daily"`
}

// TTLFor returns the time-to-live for entries of the given timeframe.
func (c Cache) TTLFor(tf entity.Timeframe) time.Duration {
	if tf == entity.Timeframe1D {
		return c.TTLIntraday
	}
	return c.TTLDaily
}

// YahooFinance holds the configuration for the Yahoo Finance chart API.
type YahooFinance struct {
	BaseURL             string        `mapstructure:"base_url"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	MaxRetries          int           `mapstructure:"max_retries"`
}

// News holds news aggregation configuration.
type News struct {
	MaxArticles    int           `mapstructure:"max_articles"`
	FetchContent   bool          `mapstructure:"fetch_content"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// OpenAI holds the configuration for the OpenAI chat completions API.
type OpenAI struct {
	APIKey              string `mapstructure:"api_key"`
	BaseURL             string `mapstructure:"base_url"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int    `mapstructure:"max_token_per_minute"`
}

// Anthropic holds the configuration for the Anthropic messages API.
type Anthropic struct {
	APIKey              string `mapstructure:"api_key"`
	BaseURL             string `mapstructure:"base_url"`
	Model               string `mapstructure:"model"`
	MaxTokens           int    `mapstructure:"max_tokens"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int    `mapstructure:"max_token_per_minute"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int    `mapstructure:"max_token_per_minute"`
}

// AI selects the LLM provider.
type AI struct {
	Provider string `mapstructure:"provider"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Server holds HTTP API configuration for the serve command.
type Server struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Watch holds configuration for the watch command.
type Watch struct {
	Schedule string `mapstructure:"schedule"` // cron expression
}

// Analyzer holds pipeline tuning knobs.
type Analyzer struct {
	MaxConcurrentFetch int  `mapstructure:"max_concurrent_fetch"`
	PersistHistory     bool `mapstructure:"persist_history"`
}

// Config holds the full application configuration.
type Config struct {
	App          config.App      `mapstructure:"app"`
	Logger       config.Logger   `mapstructure:"logger"`
	Database     config.Database `mapstructure:"database"`
	Redis        config.Redis    `mapstructure:"redis"`
	Cache        Cache           `mapstructure:"cache"`
	YahooFinance YahooFinance    `mapstructure:"yahoo_finance"`
	News         News            `mapstructure:"news"`
	OpenAI       OpenAI          `mapstructure:"openai"`
	Anthropic    Anthropic       `mapstructure:"anthropic"`
	Gemini       Gemini          `mapstructure:"gemini"`
	AI           AI              `mapstructure:"ai"`
	Telegram     Telegram        `mapstructure:"telegram"`
	Server       Server          `mapstructure:"server"`
	Watch        Watch           `mapstructure:"watch"`
	Analyzer     Analyzer        `mapstructure:"analyzer"`
}

// Load loads the configuration from the given path and applies defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Encoding == "" {
		c.Logger.Encoding = "console"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TTLIntraday == 0 {
		c.Cache.TTLIntraday = 15 * time.Minute
	}
	if c.Cache.TTLDaily == 0 {
		c.Cache.TTLDaily = 6 * time.Hour
	}
	if c.YahooFinance.BaseURL == "" {
		c.YahooFinance.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.YahooFinance.MaxRequestPerMinute == 0 {
		c.YahooFinance.MaxRequestPerMinute = 30
	}
	if c.YahooFinance.RequestTimeout == 0 {
		c.YahooFinance.RequestTimeout = 10 * time.Second
	}
	if c.News.MaxArticles == 0 {
		c.News.MaxArticles = 10
	}
	if c.News.RequestTimeout == 0 {
		c.News.RequestTimeout = 15 * time.Second
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com/v1/chat/completions"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o"
	}
	if c.OpenAI.MaxRequestPerMinute == 0 {
		c.OpenAI.MaxRequestPerMinute = 10
	}
	if c.OpenAI.MaxTokenPerMinute == 0 {
		c.OpenAI.MaxTokenPerMinute = 100000
	}
	if c.Anthropic.BaseURL == "" {
		c.Anthropic.BaseURL = "https://api.anthropic.com/v1/messages"
	}
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = "claude-3-5-sonnet-20240620"
	}
	if c.Anthropic.MaxTokens == 0 {
		c.Anthropic.MaxTokens = 4096
	}
	if c.Anthropic.MaxRequestPerMinute == 0 {
		c.Anthropic.MaxRequestPerMinute = 10
	}
	if c.Anthropic.MaxTokenPerMinute == 0 {
		c.Anthropic.MaxTokenPerMinute = 100000
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.0-flash"
	}
	if c.Gemini.MaxRequestPerMinute == 0 {
		c.Gemini.MaxRequestPerMinute = 10
	}
	if c.Gemini.MaxTokenPerMinute == 0 {
		c.Gemini.MaxTokenPerMinute = 100000
	}
	if c.AI.Provider == "" {
		c.AI.Provider = ProviderOpenAI
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Watch.Schedule == "" {
		c.Watch.Schedule = "*/30 * * * *"
	}
	if c.Analyzer.MaxConcurrentFetch == 0 {
		c.Analyzer.MaxConcurrentFetch = 4
	}
}

// ValidateAI checks that the selected provider is known and has an API
// key, before any network call is attempted.
func (c *Config) ValidateAI() error {
	var key string
	switch c.AI.Provider {
	case ProviderOpenAI:
		key = c.OpenAI.APIKey
	case ProviderAnthropic:
		key = c.Anthropic.APIKey
	case ProviderGemini:
		key = c.Gemini.APIKey
	default:
		return fmt.Errorf("%w: unknown provider %q (valid: openai, anthropic, gemini)", entity.ErrConfiguration, c.AI.Provider)
	}
	if key == "" {
		return fmt.Errorf("%w: missing API key for provider %q", entity.ErrConfiguration, c.AI.Provider)
	}
	return nil
}
