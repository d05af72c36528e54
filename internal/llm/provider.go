package llm

import (
	"context"
	"time"

	"github.com/ppiankov/finfact/internal/model"
)

// Provider defines the interface for language-analysis providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Analyze extracts financial claims from text and returns the raw
	// JSON payload. The caller owns timeout enforcement via ctx and
	// validates the payload against the claim schema.
	Analyze(ctx context.Context, text string) ([]byte, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Config holds per-provider configuration
type Config struct {
	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// ConfigFrom converts the typed provider section of the runtime config
func ConfigFrom(pc model.ProviderConfig, http model.HTTPConfig) Config {
	return Config{
		Model:      pc.Model,
		APIKey:     pc.APIKey,
		BaseURL:    pc.BaseURL,
		Timeout:    pc.Timeout,
		MaxTokens:  pc.MaxTokens,
		HTTPProxy:  http.HTTPProxy,
		HTTPSProxy: http.HTTPSProxy,
		NoProxy:    http.NoProxy,
	}
}

const systemPrompt = "You extract financial claims from text. " +
	"Respond with JSON only, no prose and no markdown fences."

// BuildPrompt constructs the extraction prompt. Every provider sends
// the same prompt so their payloads stay interchangeable.
func BuildPrompt(text string) string {
	return `Extract every verifiable financial claim from the text below.

Return a JSON object with this exact shape:
{
  "claims": [
    {
      "raw_text": "the sentence fragment the claim came from",
      "entity": "company or institution name as written",
      "type": "market_cap|stock_price|revenue|interest_rate|percentage|other",
      "value": 123.4,
      "unit": "currency|percent|count",
      "currency": "USD"
    }
  ]
}

Rules:
- "value" must be the fully expanded number ($3 trillion -> 3000000000000).
- "currency" only when the text states one; omit otherwise.
- Skip vague statements with no numeric value.
- Return {"claims": []} when there is nothing to extract.

Text:
` + text
}
