package model

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration surface
type Config struct {
	Providers   ProvidersConfig   `yaml:"providers" mapstructure:"providers"`
	Breaker     BreakerConfig     `yaml:"breaker" mapstructure:"breaker"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Verdict     VerdictConfig     `yaml:"verdict" mapstructure:"verdict"`
	Resolver    ResolverConfig    `yaml:"resolver" mapstructure:"resolver"`
	Market      MarketConfig      `yaml:"market" mapstructure:"market"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// ProvidersConfig configures the language-analysis providers
type ProvidersConfig struct {
	// Order overrides the health-ranked provider order when non-empty
	// (e.g., ["ollama", "openai", "anthropic"]).
	Order []string `yaml:"order,omitempty" mapstructure:"order"`

	Ollama    ProviderConfig `yaml:"ollama" mapstructure:"ollama"`
	OpenAI    ProviderConfig `yaml:"openai" mapstructure:"openai"`
	Anthropic ProviderConfig `yaml:"anthropic" mapstructure:"anthropic"`
}

// ProviderConfig configures a single provider
type ProviderConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Model     string        `yaml:"model,omitempty" mapstructure:"model"`
	APIKey    string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens int           `yaml:"max_tokens,omitempty" mapstructure:"max_tokens"`
}

// BreakerConfig configures the per-provider circuit breaker
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold" mapstructure:"failure_threshold"` // Consecutive failures before opening
	Cooldown         time.Duration `yaml:"cooldown" mapstructure:"cooldown"`                   // Open -> half-open delay
}

// CacheConfig configures the TTL caches
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled" mapstructure:"enabled"`
	ResolutionTTL time.Duration `yaml:"resolution_ttl" mapstructure:"resolution_ttl"` // Positive entity resolutions
	NegativeTTL   time.Duration `yaml:"negative_ttl" mapstructure:"negative_ttl"`     // Failed resolutions, allows retry
	PriceTTL      time.Duration `yaml:"price_ttl" mapstructure:"price_ttl"`           // Market snapshots for price claims
	MarketCapTTL  time.Duration `yaml:"market_cap_ttl" mapstructure:"market_cap_ttl"` // Market snapshots for cap claims
	Dir           string        `yaml:"dir,omitempty" mapstructure:"dir"`             // Non-empty layers resolution cache over disk
}

// VerdictConfig holds the deviation bands and confidence floor
type VerdictConfig struct {
	AccurateMaxDeviation float64 `yaml:"accurate_max_deviation" mapstructure:"accurate_max_deviation"` // d <= this -> accurate
	PartialMaxDeviation  float64 `yaml:"partial_max_deviation" mapstructure:"partial_max_deviation"`   // d <= this -> partially accurate
	MinMatchConfidence   float64 `yaml:"min_match_confidence" mapstructure:"min_match_confidence"`     // Below this, verification is skipped
}

// ResolverConfig configures entity resolution
type ResolverConfig struct {
	FuzzyMinSimilarity float64 `yaml:"fuzzy_min_similarity" mapstructure:"fuzzy_min_similarity"`
}

// MarketConfig configures the market-data client
type MarketConfig struct {
	BaseURL           string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
}

// ConcurrencyConfig bounds per-request fan-out and batch workers
type ConcurrencyConfig struct {
	ClaimWorkers    int           `yaml:"claim_workers" mapstructure:"claim_workers"`
	BatchWorkers    int           `yaml:"batch_workers" mapstructure:"batch_workers"`
	RequestDeadline time.Duration `yaml:"request_deadline" mapstructure:"request_deadline"`
}

// HTTPConfig holds shared HTTP client settings
type HTTPConfig struct {
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// OutputConfig controls CLI output
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the reference defaults
func DefaultConfig() *Config {
	return &Config{
		Providers: ProvidersConfig{
			Ollama: ProviderConfig{
				Enabled:   true,
				Model:     "llama3.1:8b",
				BaseURL:   "http://localhost:11434",
				Timeout:   30 * time.Second, // Local models are slower
				MaxTokens: 1500,
			},
			OpenAI: ProviderConfig{
				Enabled:   true,
				Model:     "gpt-4o-mini",
				Timeout:   10 * time.Second,
				MaxTokens: 1500,
			},
			Anthropic: ProviderConfig{
				Enabled:   true,
				Model:     "claude-3-5-haiku-20241022",
				Timeout:   10 * time.Second,
				MaxTokens: 1500,
			},
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			Cooldown:         60 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:       true,
			ResolutionTTL: 7 * 24 * time.Hour,
			NegativeTTL:   time.Hour,
			PriceTTL:      5 * time.Minute,
			MarketCapTTL:  time.Hour,
		},
		Verdict: VerdictConfig{
			AccurateMaxDeviation: 0.05,
			PartialMaxDeviation:  0.20,
			MinMatchConfidence:   0.70,
		},
		Resolver: ResolverConfig{
			FuzzyMinSimilarity: 0.80,
		},
		Market: MarketConfig{
			Timeout:           10 * time.Second,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Concurrency: ConcurrencyConfig{
			ClaimWorkers:    8,
			BatchWorkers:    4,
			RequestDeadline: 20 * time.Second,
		},
		Output: OutputConfig{},
	}
}

// LoadConfig overlays viper-managed settings (config file + FINFACT_*
// environment variables) on top of the defaults.
func LoadConfig(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
