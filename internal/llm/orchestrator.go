package llm

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/finfact/internal/extract"
	"github.com/ppiankov/finfact/internal/health"
	"github.com/ppiankov/finfact/internal/model"
)

// Orchestrator tries language-analysis providers in health-ranked
// order with per-attempt timeouts and falls back to the pattern
// extractor when every provider fails. Exactly one provider's output
// is used per request; outputs are never merged.
type Orchestrator struct {
	providers map[health.ProviderID]Provider
	timeouts  map[health.ProviderID]time.Duration
	override  []health.ProviderID // Non-empty replaces health ranking
	tracker   *health.Tracker
	fallback  *extract.PatternExtractor
}

// NewOrchestrator creates an orchestrator around the shared health
// tracker and the always-available pattern fallback.
func NewOrchestrator(tracker *health.Tracker, fallback *extract.PatternExtractor) *Orchestrator {
	return &Orchestrator{
		providers: make(map[health.ProviderID]Provider),
		timeouts:  make(map[health.ProviderID]time.Duration),
		tracker:   tracker,
		fallback:  fallback,
	}
}

// AddProvider registers a provider with its per-attempt timeout
func (o *Orchestrator) AddProvider(p Provider, timeout time.Duration) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	id := health.ProviderID(p.Name())
	o.providers[id] = p
	o.timeouts[id] = timeout
	o.tracker.Register(id)
}

// SetOrder overrides health ranking with a fixed provider order.
// Unknown names are ignored; an empty list restores ranking.
func (o *Orchestrator) SetOrder(names []string) {
	o.override = nil
	for _, name := range names {
		id := health.ProviderID(name)
		if _, ok := o.providers[id]; ok {
			o.override = append(o.override, id)
		}
	}
}

// Providers returns the registered providers, for diagnostics
func (o *Orchestrator) Providers() []Provider {
	out := make([]Provider, 0, len(o.providers))
	for _, id := range o.ranked() {
		out = append(out, o.providers[id])
	}
	return out
}

func (o *Orchestrator) ranked() []health.ProviderID {
	if len(o.override) > 0 {
		// A fixed order still honors open circuits.
		return o.tracker.Filter(o.override)
	}
	return o.tracker.Rank()
}

// ExtractClaims extracts claims from text. It returns the claims, the
// name of the provider whose output was used, and whether the result
// is degraded (pattern fallback). It never fails: the fallback cannot.
func (o *Orchestrator) ExtractClaims(ctx context.Context, text string) ([]model.Claim, string, bool) {
	for _, id := range o.ranked() {
		if ctx.Err() != nil {
			break
		}

		provider := o.providers[id]

		attemptCtx, cancel := context.WithTimeout(ctx, o.timeouts[id])
		start := time.Now()
		raw, err := provider.Analyze(attemptCtx, text)
		latency := time.Since(start)
		cancel()

		if err != nil {
			o.tracker.RecordOutcome(id, false, latency)
			fmt.Fprintf(os.Stderr, "Warning: provider %s failed: %v\n", id, err)
			continue
		}

		claims, err := ParseClaims(raw)
		if err != nil {
			// Schema violations count against provider health too.
			o.tracker.RecordOutcome(id, false, latency)
			fmt.Fprintf(os.Stderr, "Warning: provider %s returned invalid payload: %v\n", id, err)
			continue
		}

		o.tracker.RecordOutcome(id, true, latency)
		return claims, provider.Name(), false
	}

	// Terminal fallback: deterministic pattern extraction.
	return o.fallback.Extract(text), o.fallback.Name(), true
}
