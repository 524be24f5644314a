package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/common"
	"github.com/ternarybob/studium/internal/interfaces"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// GeminiService implements the Generator interface using the Google Gemini API.
type GeminiService struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	timeout time.Duration
	limiter *rate.Limiter
	retry   *RetryConfig
}

// NewGeminiService creates a new Gemini generator.
//
// API key resolution order: STUDIUM_GEMINI_API_KEY env var, KV store
// ("gemini_api_key" or legacy "google_api_key"), then gemini.api_key in config.
func NewGeminiService(config *common.GeminiConfig, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (*GeminiService, error) {
	ctx := context.Background()
	apiKey, err := common.ResolveAPIKey(ctx, kvStorage, "gemini_api_key", config.APIKey)
	if err != nil {
		return nil, fmt.Errorf("Gemini API key is required (set via STUDIUM_GEMINI_API_KEY, KV store, or gemini.api_key in config): %w", err)
	}

	// Set default model name if not specified
	if config.Model == "" {
		config.Model = "gemini-3-flash-preview"
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

	// Initialize genai client
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	service := &GeminiService{
		config:  config,
		logger:  logger,
		client:  client,
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		retry:   NewDefaultRetryConfig(),
	}

	logger.Debug().
		Str("model", config.Model).
		Dur("timeout", timeout).
		Dur("rate_limit", interval).
		Float32("temperature", config.Temperature).
		Msg("Gemini service initialized")

	return service, nil
}

// Name returns the provider name.
func (s *GeminiService) Name() string {
	return "gemini"
}

// Generate sends a single-turn prompt to Gemini and returns the response text.
// Requests are paced by the configured rate limit; rate limit errors back off
// using the API-suggested delay when present.
func (s *GeminiService) Generate(ctx context.Context, systemInstruction, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(s.config.Temperature),
	}
	if systemInstruction != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(systemInstruction, genai.RoleUser)
	}
	if level := parseThinkingLevel(s.config.Thinking); level != "" {
		genConfig.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingLevel: level,
		}
	}

	var resp *genai.GenerateContentResponse
	var apiErr error

	for attempt := 0; attempt <= s.retry.MaxRetries; attempt++ {
		if err := s.limiter.Wait(timeoutCtx); err != nil {
			return "", err
		}

		resp, apiErr = s.client.Models.GenerateContent(timeoutCtx, s.config.Model, contents, genConfig)
		if apiErr == nil {
			break
		}

		if attempt == s.retry.MaxRetries {
			break
		}

		// Calculate backoff
		var backoff time.Duration
		if IsRateLimitError(apiErr) {
			apiDelay := ExtractRetryDelay(apiErr)
			backoff = s.retry.CalculateBackoff(attempt, apiDelay)
		} else {
			backoff = time.Duration(attempt+1) * 2 * time.Second
		}

		s.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying Gemini API call")

		select {
		case <-timeoutCtx.Done():
			return "", timeoutCtx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return "", fmt.Errorf("Gemini API call failed after %d retries: %w", s.retry.MaxRetries, apiErr)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini API")
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty text in Gemini response")
	}

	return text, nil
}

// parseThinkingLevel converts a config thinking level to genai.ThinkingLevel.
// NONE and NORMAL fall through to the provider default.
func parseThinkingLevel(level string) genai.ThinkingLevel {
	switch strings.ToUpper(level) {
	case "MINIMAL":
		return genai.ThinkingLevelMinimal
	case "LOW":
		return genai.ThinkingLevelLow
	case "MEDIUM":
		return genai.ThinkingLevelMedium
	case "HIGH":
		return genai.ThinkingLevelHigh
	default:
		return ""
	}
}
