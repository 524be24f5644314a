package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/common"
	"github.com/ternarybob/studium/internal/interfaces"
	"golang.org/x/time/rate"
)

// ClaudeService implements the Generator interface using the Anthropic Claude API.
type ClaudeService struct {
	config    *common.ClaudeConfig
	logger    arbor.ILogger
	client    anthropic.Client
	timeout   time.Duration
	maxTokens int
	limiter   *rate.Limiter
	retry     *RetryConfig
}

// NewClaudeService creates a new Claude generator.
//
// API key resolution order: ANTHROPIC_API_KEY or STUDIUM_CLAUDE_API_KEY env
// vars, KV store ("anthropic_api_key" or "claude_api_key"), then
// claude.api_key in config.
func NewClaudeService(config *common.ClaudeConfig, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (*ClaudeService, error) {
	ctx := context.Background()
	apiKey, err := common.ResolveAPIKey(ctx, kvStorage, "anthropic_api_key", config.APIKey)
	if err != nil {
		return nil, fmt.Errorf("Anthropic API key is required (set via ANTHROPIC_API_KEY, STUDIUM_CLAUDE_API_KEY, or claude.api_key in config): %w", err)
	}

	// Set default model name if not specified
	if config.Model == "" {
		config.Model = "claude-haiku-3-5-20241022"
	}

	// Parse timeout duration
	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	// Parse request pacing interval
	interval, err := time.ParseDuration(config.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit duration '%s': %w", config.RateLimit, err)
	}

	// Set default max tokens
	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	service := &ClaudeService{
		config:    config,
		logger:    logger,
		client:    client,
		timeout:   timeout,
		maxTokens: maxTokens,
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
		retry:     NewDefaultRetryConfig(),
	}

	logger.Debug().
		Str("model", config.Model).
		Dur("timeout", timeout).
		Int("max_tokens", maxTokens).
		Float32("temperature", config.Temperature).
		Msg("Claude service initialized")

	return service, nil
}

// Name returns the provider name.
func (s *ClaudeService) Name() string {
	return "claude"
}

// Generate sends a single-turn prompt to Claude and returns the response text.
// Requests are paced by the configured rate limit.
func (s *ClaudeService) Generate(ctx context.Context, systemInstruction, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.config.Model),
		MaxTokens: int64(s.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if s.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(s.config.Temperature))
	}
	if systemInstruction != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemInstruction},
		}
	}

	var resp *anthropic.Message
	var apiErr error

	for attempt := 0; attempt <= s.retry.MaxRetries; attempt++ {
		if err := s.limiter.Wait(timeoutCtx); err != nil {
			return "", err
		}

		resp, apiErr = s.client.Messages.New(timeoutCtx, params)
		if apiErr == nil {
			break
		}

		if attempt == s.retry.MaxRetries {
			break
		}

		// Calculate backoff
		backoff := time.Duration(attempt+1) * 2 * time.Second
		if IsRateLimitError(apiErr) {
			backoff = s.retry.CalculateBackoff(attempt, 0)
		}

		s.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying Claude API call")

		select {
		case <-timeoutCtx.Done():
			return "", timeoutCtx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return "", fmt.Errorf("Claude API call failed after %d retries: %w", s.retry.MaxRetries, apiErr)
	}

	// Extract text from response
	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from Claude API")
	}

	return text.String(), nil
}
