package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/common"
	"github.com/ternarybob/studium/internal/interfaces"
)

// NewGenerator creates the configured LLM generator.
// The provider is selected by llm.default_provider ("gemini" or "claude").
// API keys resolve env-first, then KV store, then config.
func NewGenerator(cfg *common.Config, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (interfaces.Generator, error) {
	provider := cfg.LLM.DefaultProvider
	if provider == "" {
		provider = common.LLMProviderGemini
	}

	logger.Info().Str("provider", string(provider)).Msg("Initializing LLM generator")

	switch provider {
	case common.LLMProviderGemini:
		return NewGeminiService(&cfg.Gemini, kvStorage, logger)
	case common.LLMProviderClaude:
		return NewClaudeService(&cfg.Claude, kvStorage, logger)
	default:
		return nil, fmt.Errorf("invalid LLM provider '%s': must be 'gemini' or 'claude'", provider)
	}
}
