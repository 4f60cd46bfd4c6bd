package ai

import (
	"fmt"

	"github.com/amo-ladoja/neriah/pkg/claude"
)

// Config holds AI provider configuration
type Config struct {
	Provider ProviderType // "claude", "openai" or "auto"

	AnthropicAPIKey string
	ClaudeModel     string

	OpenAIAPIKey string
	OpenAIModel  string
}

// NewExtractor creates an Extractor based on the config.
// This is the factory function - switch AI provider by changing config.Provider
func NewExtractor(cfg Config) (Extractor, error) {
	switch cfg.Provider {
	case ProviderClaude:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for Claude provider")
		}
		return NewClaudeExtractor(claude.NewClaudeService(cfg.AnthropicAPIKey, cfg.ClaudeModel)), nil

	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI provider")
		}
		return NewOpenAIExtractor(cfg.OpenAIAPIKey, cfg.OpenAIModel), nil

	default:
		// Auto: fall back between whatever providers have keys
		var primary, secondary Extractor
		if cfg.AnthropicAPIKey != "" {
			primary = NewClaudeExtractor(claude.NewClaudeService(cfg.AnthropicAPIKey, cfg.ClaudeModel))
		}
		if cfg.OpenAIAPIKey != "" {
			secondary = NewOpenAIExtractor(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		}
		if primary == nil && secondary == nil {
			return nil, fmt.Errorf("no AI provider configured")
		}
		if primary == nil {
			return secondary, nil
		}
		if secondary == nil {
			return primary, nil
		}
		return NewFallbackExtractor(primary, secondary), nil
	}
}
