package verify

import (
	"context"
	"fmt"
	"math"

	"github.com/ppiankov/finfact/internal/market"
	"github.com/ppiankov/finfact/internal/model"
)

// Magnitude rescalings tried when a claimed figure and the actual one
// disagree by orders of magnitude (e.g., the claim was stated in
// billions but parsed as a plain number).
var magnitudeFactors = []float64{1, 1e3, 1e6, 1e9, 1e12}

// staleSource is implemented by sources that can serve older snapshots
// for slow-moving figures like market cap.
type staleSource interface {
	GetSnapshotStale(ctx context.Context, ticker string) (*model.MarketSnapshot, error)
}

// Verifier compares claimed values against fetched market data and
// derives a verdict plus confidence. All formulas are transparent:
// every verdict's explanation carries the numbers that produced it.
type Verifier struct {
	source      market.Source
	accurateMax float64 // d <= this -> accurate
	partialMax  float64 // d <= this -> partially accurate
	minMatch    float64 // Resolution confidence floor
}

// NewVerifier creates a verifier over the given market-data source
func NewVerifier(source market.Source, cfg model.VerdictConfig) *Verifier {
	v := &Verifier{
		source:      source,
		accurateMax: cfg.AccurateMaxDeviation,
		partialMax:  cfg.PartialMaxDeviation,
		minMatch:    cfg.MinMatchConfidence,
	}
	if v.accurateMax <= 0 {
		v.accurateMax = 0.05
	}
	if v.partialMax <= v.accurateMax {
		v.partialMax = 0.20
	}
	if v.minMatch <= 0 {
		v.minMatch = 0.70
	}
	return v
}

// Verify checks one claim against market data. Entities below the
// confidence floor short-circuit to Unverifiable without any market
// call. Verify itself never fails; failures become verdicts.
func (v *Verifier) Verify(ctx context.Context, claim model.Claim, entity model.ResolvedEntity) model.VerificationResult {
	if entity.MatchConfidence < v.minMatch || !entity.Resolved() {
		return model.VerificationResult{
			Verdict:     model.VerdictUnverifiable,
			Confidence:  entity.MatchConfidence,
			Explanation: fmt.Sprintf("entity %q could not be resolved confidently (match confidence %.2f, floor %.2f)", claim.EntityMention, entity.MatchConfidence, v.minMatch),
		}
	}

	switch claim.Type {
	case model.ClaimTypeMarketCap, model.ClaimTypeStockPrice:
	default:
		return model.VerificationResult{
			Verdict:     model.VerdictUnverifiable,
			Explanation: fmt.Sprintf("no reference data for %s claims", claim.Type),
		}
	}

	if claim.Unit != model.UnitCurrency {
		return model.VerificationResult{
			Verdict:     model.VerdictUnverifiable,
			Explanation: fmt.Sprintf("cannot reconcile %s unit with a monetary figure", claim.Unit),
		}
	}

	snapshot, err := v.fetch(ctx, claim.Type, entity.Ticker)
	if err != nil {
		return model.VerificationResult{
			Verdict:     model.VerdictUnverifiable,
			Explanation: fmt.Sprintf("market data unavailable for %s: %v", entity.Ticker, err),
		}
	}

	if claim.CurrencyCode != "" && snapshot.Currency != "" && claim.CurrencyCode != snapshot.Currency {
		return model.VerificationResult{
			Verdict:     model.VerdictUnverifiable,
			Explanation: fmt.Sprintf("claim stated in %s but market data is %s", claim.CurrencyCode, snapshot.Currency),
			DataSource:  v.source.Name(),
		}
	}

	actual := snapshot.Price
	figure := "price"
	if claim.Type == model.ClaimTypeMarketCap {
		actual = snapshot.MarketCap
		figure = "market cap"
	}
	if actual <= 0 || math.IsNaN(actual) {
		return model.VerificationResult{
			Verdict:     model.VerdictUnverifiable,
			Explanation: fmt.Sprintf("no %s figure available for %s", figure, entity.Ticker),
			DataSource:  v.source.Name(),
		}
	}

	claimed, ok := normalizeMagnitude(claim, actual)
	if !ok {
		return model.VerificationResult{
			Verdict:     model.VerdictUnverifiable,
			Explanation: fmt.Sprintf("claimed value %g is ambiguous against actual %g; cannot determine intended magnitude", claim.ClaimedValue, actual),
			DataSource:  v.source.Name(),
		}
	}

	d := math.Abs(claimed-actual) / actual
	result := v.verdictFor(d)
	result.AccuracyPercent = math.Max(0, (1-d)*100)
	result.DataSource = v.source.Name()
	result.Explanation = fmt.Sprintf("claimed %s %s vs actual %s for %s: deviation %.2f%%",
		figure, formatMoney(claimed), formatMoney(actual), entity.Ticker, d*100)
	return result
}

// verdictFor applies the deviation bands. Both band edges are
// inclusive: d = 0.05 is still accurate, d = 0.20 still partial.
func (v *Verifier) verdictFor(d float64) model.VerificationResult {
	switch {
	case d <= v.accurateMax:
		return model.VerificationResult{
			Verdict:    model.VerdictAccurate,
			Confidence: clamp01(0.95 - d),
		}
	case d <= v.partialMax:
		return model.VerificationResult{
			Verdict:    model.VerdictPartiallyAccurate,
			Confidence: clamp01(0.7 - d),
		}
	default:
		// High deviation is high certainty the claim is wrong.
		return model.VerificationResult{
			Verdict:    model.VerdictInaccurate,
			Confidence: clamp01(math.Max(0.5, 1-d)),
		}
	}
}

// fetch picks snapshot freshness by claim type: prices want the
// 5-minute cache, market cap tolerates the 1-hour one.
func (v *Verifier) fetch(ctx context.Context, claimType model.ClaimType, ticker string) (*model.MarketSnapshot, error) {
	if claimType == model.ClaimTypeMarketCap {
		if s, ok := v.source.(staleSource); ok {
			return s.GetSnapshotStale(ctx, ticker)
		}
	}
	return v.source.GetSnapshot(ctx, ticker)
}

// normalizeMagnitude reconciles thousand/million/billion/trillion
// mismatches between the claimed and actual value. Market cap claims
// that are orders of magnitude off are rescaled when exactly one
// factor lands within 50% of the actual figure; competing candidates
// mean the intended unit is ambiguous.
func normalizeMagnitude(claim model.Claim, actual float64) (float64, bool) {
	claimed := claim.ClaimedValue
	if claim.Type != model.ClaimTypeMarketCap || claimed == 0 {
		return claimed, true
	}

	// Already in range: no rescaling.
	if math.Abs(claimed-actual)/actual <= 0.5 {
		return claimed, true
	}

	var candidates []float64
	for _, f := range magnitudeFactors[1:] {
		scaled := claimed * f
		if math.Abs(scaled-actual)/actual <= 0.5 {
			candidates = append(candidates, scaled)
		}
	}

	switch len(candidates) {
	case 0:
		return claimed, true // Genuinely off, let the verdict say so
	case 1:
		return candidates[0], true
	default:
		return 0, false
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// formatMoney renders large monetary values readably in explanations
func formatMoney(v float64) string {
	switch {
	case v >= 1e12:
		return fmt.Sprintf("$%.2f trillion", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("$%.2f billion", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.2f million", v/1e6)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}
