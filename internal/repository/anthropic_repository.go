package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"stockgpt/internal/config"
	"stockgpt/internal/dto"
	"stockgpt/internal/entity"
	"stockgpt/pkg/logger"
	"stockgpt/pkg/ratelimit"
)

const anthropicAPIVersion = "2023-06-01"

type anthropicRepository struct {
	client         *http.Client
	cfg            *config.Config
	logger         *logger.Logger
	tokenLimiter   *ratelimit.TokenLimiter
	requestLimiter *rate.Limiter
}

// NewAnthropicRepository creates an AIRepository backed by the Anthropic
// messages API.
func NewAnthropicRepository(cfg *config.Config, log *logger.Logger) AIRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.Anthropic.MaxRequestPerMinute)
	return &anthropicRepository{
		client: &http.Client{
			Timeout: 90 * time.Second,
		},
		cfg:            cfg,
		logger:         log,
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
		tokenLimiter:   ratelimit.NewTokenLimiter(cfg.Anthropic.MaxTokenPerMinute),
	}
}

func (r *anthropicRepository) GenerateInsight(ctx context.Context, prompt string) (string, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("failed to wait for request limit: %w", err)
	}

	payload := dto.AnthropicRequest{
		Model:     r.cfg.Anthropic.Model,
		MaxTokens: r.cfg.Anthropic.MaxTokens,
		Messages: []dto.Message{
			{Role: "user", Content: prompt},
		},
		Temperature: 0,
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	r.logger.Debug("Sending request to Anthropic API", logger.StringField("url", r.cfg.Anthropic.BaseURL), logger.StringField("model", r.cfg.Anthropic.Model))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Anthropic.BaseURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return "", fmt.Errorf("failed to create new http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", r.cfg.Anthropic.APIKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: anthropic: %v", entity.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: anthropic: %d - %s", entity.ErrExternalService, resp.StatusCode, string(body))
	}

	var anthropicResp dto.AnthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&anthropicResp); err != nil {
		return "", fmt.Errorf("%w: anthropic: failed to decode response: %v", entity.ErrExternalService, err)
	}
	if anthropicResp.Error != nil {
		return "", fmt.Errorf("%w: anthropic: %s: %s", entity.ErrExternalService, anthropicResp.Error.Type, anthropicResp.Error.Message)
	}

	total := anthropicResp.Usage.InputTokens + anthropicResp.Usage.OutputTokens
	if err := r.tokenLimiter.Wait(ctx, total); err != nil {
		return "", fmt.Errorf("failed to wait for token limit: %w", err)
	}

	var text strings.Builder
	for _, block := range anthropicResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("%w: anthropic: no content in response", entity.ErrExternalService)
	}

	return text.String(), nil
}
