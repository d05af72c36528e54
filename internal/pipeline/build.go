package pipeline

import (
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/finfact/internal/cache"
	"github.com/ppiankov/finfact/internal/extract"
	"github.com/ppiankov/finfact/internal/health"
	"github.com/ppiankov/finfact/internal/llm"
	"github.com/ppiankov/finfact/internal/market"
	"github.com/ppiankov/finfact/internal/model"
	"github.com/ppiankov/finfact/internal/resolve"
	"github.com/ppiankov/finfact/internal/verify"
)

// Build assembles a full pipeline from runtime configuration:
// shared health tracker, providers, caches, resolver, market source
// and verifier. Providers that fail to construct (e.g., missing API
// key) are skipped with a warning; the pattern fallback guarantees the
// pipeline still works with zero providers.
func Build(cfg *model.Config) *Pipeline {
	tracker := health.NewTracker(cfg.Breaker.FailureThreshold, cfg.Breaker.Cooldown)
	orchestrator := llm.NewOrchestrator(tracker, extract.NewPatternExtractor())

	type providerSpec struct {
		name string
		pc   model.ProviderConfig
	}
	// Registration order doubles as the initial attempt order:
	// local model first, then the cloud providers.
	specs := []providerSpec{
		{"ollama", cfg.Providers.Ollama},
		{"openai", cfg.Providers.OpenAI},
		{"anthropic", cfg.Providers.Anthropic},
	}

	for _, spec := range specs {
		if !spec.pc.Enabled {
			continue
		}
		provider, err := llm.NewProvider(spec.name, llm.ConfigFrom(spec.pc, cfg.HTTP))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipping provider %s: %v\n", spec.name, err)
			continue
		}
		orchestrator.AddProvider(provider, spec.pc.Timeout)
	}
	orchestrator.SetOrder(cfg.Providers.Order)

	resolver := resolve.NewResolver(
		buildResolutionCache(cfg.Cache),
		resolve.WithFuzzyFloor(cfg.Resolver.FuzzyMinSimilarity),
		resolve.WithTTLs(cfg.Cache.ResolutionTTL, cfg.Cache.NegativeTTL),
	)

	verifier := verify.NewVerifier(buildMarketSource(cfg), cfg.Verdict)

	return NewPipeline(orchestrator, resolver, verifier, cfg.Concurrency)
}

func buildResolutionCache(cc model.CacheConfig) cache.Cache {
	if !cc.Enabled {
		return nil
	}
	if cc.Dir != "" {
		return cache.NewLayeredCache(cc.ResolutionTTL, cc.Dir, cc.ResolutionTTL)
	}
	return cache.NewMemoryCache(cc.ResolutionTTL, 10*time.Minute)
}

func buildMarketSource(cfg *model.Config) market.Source {
	if cfg.Market.BaseURL == "" {
		return market.Unavailable{}
	}

	source, err := market.NewHTTPSource(market.HTTPConfig{
		BaseURL:           cfg.Market.BaseURL,
		Timeout:           cfg.Market.Timeout,
		RequestsPerSecond: cfg.Market.RequestsPerSecond,
		Burst:             cfg.Market.Burst,
		HTTPProxy:         cfg.HTTP.HTTPProxy,
		HTTPSProxy:        cfg.HTTP.HTTPSProxy,
		NoProxy:           cfg.HTTP.NoProxy,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: market data disabled: %v\n", err)
		return market.Unavailable{}
	}

	if !cfg.Cache.Enabled {
		return source
	}
	snapshotCache := cache.NewMemoryCache(cfg.Cache.MarketCapTTL, 10*time.Minute)
	return market.NewCachedSource(source, snapshotCache, cfg.Cache.PriceTTL, cfg.Cache.MarketCapTTL)
}
