package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/ppiankov/finfact/internal/extract"
	"github.com/ppiankov/finfact/internal/llm"
	"github.com/ppiankov/finfact/internal/model"
	"github.com/ppiankov/finfact/internal/resolve"
	"github.com/ppiankov/finfact/internal/verify"
)

// Pipeline runs the complete claim extraction and verification flow:
// text -> orchestrated extraction -> per-claim resolution and
// verification (fan-out) -> joined result. Requests are independent;
// the only shared state lives behind the health tracker and caches.
type Pipeline struct {
	orchestrator *llm.Orchestrator
	resolver     *resolve.Resolver
	verifier     *verify.Verifier
	claimWorkers int
	deadline     time.Duration
}

// NewPipeline wires the pipeline stages together
func NewPipeline(orchestrator *llm.Orchestrator, resolver *resolve.Resolver, verifier *verify.Verifier, cfg model.ConcurrencyConfig) *Pipeline {
	workers := cfg.ClaimWorkers
	if workers <= 0 {
		workers = 8
	}
	deadline := cfg.RequestDeadline
	if deadline <= 0 {
		deadline = 20 * time.Second
	}
	return &Pipeline{
		orchestrator: orchestrator,
		resolver:     resolver,
		verifier:     verifier,
		claimWorkers: workers,
		deadline:     deadline,
	}
}

// Providers exposes the registered analysis providers, for diagnostics
func (p *Pipeline) Providers() []llm.Provider {
	return p.orchestrator.Providers()
}

// ProcessText extracts, resolves and verifies every claim in the given
// text. It never fails: extraction falls back to patterns, and
// per-claim problems become Unverifiable results. Claims not completed
// by the request deadline are marked Unverifiable with a timeout
// explanation rather than blocking the response.
func (p *Pipeline) ProcessText(ctx context.Context, text string) *model.PipelineResult {
	ctx, cancel := context.WithTimeout(ctx, p.deadline)
	defer cancel()

	normalized := extract.NormalizeInput(text)
	claims, providerUsed, degraded := p.orchestrator.ExtractClaims(ctx, normalized)

	results := make([]model.ClaimResult, len(claims))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, p.claimWorkers)

	for i, claim := range claims {
		wg.Add(1)
		go func(idx int, c model.Claim) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = timedOut(c)
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			entity := p.resolver.Resolve(ctx, c.EntityMention)

			if ctx.Err() != nil {
				results[idx] = timedOut(c)
				return
			}

			results[idx] = model.ClaimResult{
				Claim:        c,
				Entity:       entity,
				Verification: p.verifier.Verify(ctx, c, entity),
			}
		}(i, claim)
	}

	wg.Wait()

	return &model.PipelineResult{
		Claims:       results,
		Degraded:     degraded,
		ProviderUsed: providerUsed,
		ProcessedAt:  time.Now().UTC(),
	}
}

// timedOut is the result for a claim the deadline cut off
func timedOut(c model.Claim) model.ClaimResult {
	return model.ClaimResult{
		Claim: c,
		Verification: model.VerificationResult{
			Verdict:     model.VerdictUnverifiable,
			Explanation: "timeout: request deadline reached before verification completed",
		},
	}
}
