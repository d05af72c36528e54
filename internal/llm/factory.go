package llm

import (
	"fmt"
	"strings"
)

// NewProvider creates a language-analysis provider by name
func NewProvider(name string, config Config) (Provider, error) {
	switch strings.ToLower(name) {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: openai, anthropic, ollama)", name)
	}
}
