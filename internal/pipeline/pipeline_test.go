package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/finfact/internal/extract"
	"github.com/ppiankov/finfact/internal/health"
	"github.com/ppiankov/finfact/internal/llm"
	"github.com/ppiankov/finfact/internal/model"
	"github.com/ppiankov/finfact/internal/resolve"
	"github.com/ppiankov/finfact/internal/verify"
)

// cannedProvider returns one fixed payload
type cannedProvider struct {
	name    string
	payload []byte
	err     error
}

func (p *cannedProvider) Name() string { return p.name }

func (p *cannedProvider) Analyze(ctx context.Context, text string) ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.payload, nil
}

func (p *cannedProvider) IsAvailable(ctx context.Context) bool { return true }

// fixedSource serves per-ticker snapshots
type fixedSource struct {
	snapshots map[string]model.MarketSnapshot
}

func (s *fixedSource) Name() string { return "fixture" }

func (s *fixedSource) GetSnapshot(ctx context.Context, ticker string) (*model.MarketSnapshot, error) {
	snapshot, ok := s.snapshots[ticker]
	if !ok {
		return nil, errors.New("no market data")
	}
	return &snapshot, nil
}

func newTestPipeline(provider llm.Provider, source *fixedSource) *Pipeline {
	tracker := health.NewTracker(5, time.Minute)
	orchestrator := llm.NewOrchestrator(tracker, extract.NewPatternExtractor())
	if provider != nil {
		orchestrator.AddProvider(provider, time.Second)
	}
	resolver := resolve.NewResolver(nil)
	verifier := verify.NewVerifier(source, model.VerdictConfig{})
	return NewPipeline(orchestrator, resolver, verifier, model.ConcurrencyConfig{})
}

func TestPipeline_EndToEnd(t *testing.T) {
	provider := &cannedProvider{
		name:    "ollama",
		payload: []byte(`{"claims":[{"raw_text":"Apple's market cap is $3 trillion","entity":"Apple","type":"market_cap","value":3000000000000,"unit":"currency","currency":"USD"}]}`),
	}
	source := &fixedSource{snapshots: map[string]model.MarketSnapshot{
		"AAPL": {Price: 195.2, MarketCap: 2.98e12, Currency: "USD"},
	}}
	p := newTestPipeline(provider, source)

	result := p.ProcessText(context.Background(), "Apple's market cap is $3 trillion.")
	if result.Degraded {
		t.Error("Expected non-degraded result")
	}
	if result.ProviderUsed != "ollama" {
		t.Errorf("Expected ollama, got %s", result.ProviderUsed)
	}
	if len(result.Claims) != 1 {
		t.Fatalf("Expected 1 claim, got %d", len(result.Claims))
	}

	cr := result.Claims[0]
	if cr.Claim.ClaimedValue != 3e12 {
		t.Errorf("Expected claimed value 3e12, got %g", cr.Claim.ClaimedValue)
	}
	if cr.Entity.Ticker != "AAPL" {
		t.Errorf("Expected AAPL, got %q", cr.Entity.Ticker)
	}
	if cr.Entity.MatchConfidence < 0.9 {
		t.Errorf("Expected high match confidence, got %g", cr.Entity.MatchConfidence)
	}
	if cr.Verification.Verdict != model.VerdictAccurate {
		t.Errorf("Expected accurate verdict, got %s (%s)", cr.Verification.Verdict, cr.Verification.Explanation)
	}
	// d ~ 0.0067: confidence 0.95 - d ~ 0.943.
	if cr.Verification.Confidence < 0.94 || cr.Verification.Confidence > 0.945 {
		t.Errorf("Expected confidence near 0.943, got %g", cr.Verification.Confidence)
	}
}

func TestPipeline_DegradedFallback(t *testing.T) {
	provider := &cannedProvider{name: "ollama", err: errors.New("connection refused")}
	source := &fixedSource{snapshots: map[string]model.MarketSnapshot{
		"TSLA": {Price: 198.5, Currency: "USD"},
	}}
	p := newTestPipeline(provider, source)

	result := p.ProcessText(context.Background(), "Tesla stock is trading at $200.")
	if !result.Degraded {
		t.Error("Expected degraded result")
	}
	if result.ProviderUsed != "pattern" {
		t.Errorf("Expected pattern fallback, got %s", result.ProviderUsed)
	}
	if len(result.Claims) != 1 {
		t.Fatalf("Expected 1 pattern-extracted claim, got %d", len(result.Claims))
	}

	cr := result.Claims[0]
	if cr.Claim.EntityMention != "Tesla" || cr.Claim.ClaimedValue != 200 {
		t.Errorf("Expected Tesla $200 claim, got %+v", cr.Claim)
	}
	// 200 vs 198.5: d ~ 0.0076, still accurate.
	if cr.Verification.Verdict != model.VerdictAccurate {
		t.Errorf("Expected accurate verdict, got %s (%s)", cr.Verification.Verdict, cr.Verification.Explanation)
	}
}

func TestPipeline_UnresolvableEntity(t *testing.T) {
	provider := &cannedProvider{
		name:    "ollama",
		payload: []byte(`{"claims":[{"raw_text":"t","entity":"Zorblax Industries","type":"stock_price","value":10,"unit":"currency"}]}`),
	}
	p := newTestPipeline(provider, &fixedSource{})

	result := p.ProcessText(context.Background(), "whatever")
	if len(result.Claims) != 1 {
		t.Fatalf("Expected 1 claim, got %d", len(result.Claims))
	}
	if result.Claims[0].Verification.Verdict != model.VerdictUnverifiable {
		t.Errorf("Expected unverifiable for unknown entity, got %s", result.Claims[0].Verification.Verdict)
	}
}

func TestPipeline_NoClaims(t *testing.T) {
	provider := &cannedProvider{name: "ollama", payload: []byte(`{"claims":[]}`)}
	p := newTestPipeline(provider, &fixedSource{})

	result := p.ProcessText(context.Background(), "The weather was pleasant.")
	if len(result.Claims) != 0 {
		t.Errorf("Expected no claims, got %d", len(result.Claims))
	}
	if result.Degraded {
		t.Error("Expected non-degraded empty result")
	}
	if result.ProcessedAt.IsZero() {
		t.Error("Expected a processing timestamp")
	}
}

func TestPipeline_HTMLInput(t *testing.T) {
	provider := &cannedProvider{name: "ollama", err: errors.New("down")}
	source := &fixedSource{snapshots: map[string]model.MarketSnapshot{
		"TSLA": {Price: 200, Currency: "USD"},
	}}
	p := newTestPipeline(provider, source)

	html := `<html><body><p>Tesla stock is trading at $200.</p><script>ignore()</script></body></html>`
	result := p.ProcessText(context.Background(), html)
	if len(result.Claims) != 1 {
		t.Fatalf("Expected claim from HTML text, got %d", len(result.Claims))
	}
	if result.Claims[0].Claim.EntityMention != "Tesla" {
		t.Errorf("Expected Tesla claim, got %+v", result.Claims[0].Claim)
	}
}

func TestPipeline_MultipleClaimsFanOut(t *testing.T) {
	provider := &cannedProvider{
		name: "ollama",
		payload: []byte(`{"claims":[` +
			`{"raw_text":"a","entity":"Apple","type":"stock_price","value":195,"unit":"currency"},` +
			`{"raw_text":"b","entity":"Tesla","type":"stock_price","value":200,"unit":"currency"},` +
			`{"raw_text":"c","entity":"Microsoft","type":"stock_price","value":410,"unit":"currency"}]}`),
	}
	source := &fixedSource{snapshots: map[string]model.MarketSnapshot{
		"AAPL": {Price: 195, Currency: "USD"},
		"TSLA": {Price: 400, Currency: "USD"},
		"MSFT": {Price: 410, Currency: "USD"},
	}}
	p := newTestPipeline(provider, source)

	result := p.ProcessText(context.Background(), "three claims")
	if len(result.Claims) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(result.Claims))
	}

	// Results keep claim order regardless of goroutine scheduling.
	verdicts := []model.Verdict{
		result.Claims[0].Verification.Verdict,
		result.Claims[1].Verification.Verdict,
		result.Claims[2].Verification.Verdict,
	}
	want := []model.Verdict{model.VerdictAccurate, model.VerdictInaccurate, model.VerdictAccurate}
	for i := range want {
		if verdicts[i] != want[i] {
			t.Errorf("Claim %d: expected %s, got %s", i, want[i], verdicts[i])
		}
	}
	if result.Claims[1].Claim.EntityMention != "Tesla" {
		t.Errorf("Expected Tesla second, got %s", result.Claims[1].Claim.EntityMention)
	}
}

func TestPipeline_DeadlineMarksClaimsTimedOut(t *testing.T) {
	provider := &cannedProvider{
		name:    "ollama",
		payload: []byte(`{"claims":[{"raw_text":"t","entity":"Apple","type":"stock_price","value":195,"unit":"currency"}]}`),
	}
	source := &fixedSource{snapshots: map[string]model.MarketSnapshot{
		"AAPL": {Price: 195, Currency: "USD"},
	}}

	tracker := health.NewTracker(5, time.Minute)
	orchestrator := llm.NewOrchestrator(tracker, extract.NewPatternExtractor())
	orchestrator.AddProvider(provider, time.Second)
	resolver := resolve.NewResolver(nil)
	verifier := verify.NewVerifier(source, model.VerdictConfig{})
	p := NewPipeline(orchestrator, resolver, verifier, model.ConcurrencyConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := p.ProcessText(ctx, "Apple stock price is $195.")
	if len(result.Claims) != 1 {
		t.Fatalf("Expected 1 claim, got %d", len(result.Claims))
	}
	v := result.Claims[0].Verification
	if v.Verdict != model.VerdictUnverifiable {
		t.Errorf("Expected unverifiable on expired context, got %s", v.Verdict)
	}
}
