package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/ppiankov/finfact/internal/model"
)

// Regex building blocks shared by the rule table. The entity group is
// always the first capture, the number the second, the optional
// magnitude word the third.
const (
	entityPat = `([A-Z][\w&.-]*(?:\s+(?:[A-Z][\w&.-]*|of|the|&)){0,3})`
	moneyPat  = `\$\s?([0-9][0-9,]*(?:\.[0-9]+)?)`
	numberPat = `([0-9][0-9,]*(?:\.[0-9]+)?)`
	scalePat  = `(?:\s*(thousand|million|billion|trillion|[KMBT]))?`
	pctPat    = `\s*(?:%|percent)`
)

// rule is one extraction template: a compiled pattern plus the claim
// type and unit it produces. Kept as a static ordered table so the
// rules can be enumerated and fuzzed independently of the pipeline.
type rule struct {
	name string
	re   *regexp.Regexp
	typ  model.ClaimType
	unit model.Unit
}

var rules = []rule{
	{
		name: "market_cap",
		re: regexp.MustCompile(entityPat + `(?:'s)?\s+market\s+cap(?:italization)?\s+` +
			`(?:is|was|of|reached|hit|stands\s+at|exceeds?|tops?|now\s+exceeds?)\s+` + moneyPat + scalePat),
		typ:  model.ClaimTypeMarketCap,
		unit: model.UnitCurrency,
	},
	{
		name: "market_cap_of",
		re: regexp.MustCompile(`[Tt]he\s+market\s+cap(?:italization)?\s+of\s+` + entityPat +
			`\s+(?:is|was|reached|hit)\s+` + moneyPat + scalePat),
		typ:  model.ClaimTypeMarketCap,
		unit: model.UnitCurrency,
	},
	{
		name: "stock_trading_at",
		re: regexp.MustCompile(entityPat + `(?:'s)?\s+(?:stock|shares?)\s+(?:is|are|was|were)\s+` +
			`(?:currently\s+)?trading\s+at\s+` + moneyPat + scalePat),
		typ:  model.ClaimTypeStockPrice,
		unit: model.UnitCurrency,
	},
	{
		name: "stock_price",
		re: regexp.MustCompile(entityPat + `(?:'s)?\s+(?:stock|share)\s+price\s+` +
			`(?:is|was|reached|hit|closed\s+at)\s+` + moneyPat + scalePat),
		typ:  model.ClaimTypeStockPrice,
		unit: model.UnitCurrency,
	},
	{
		name: "shares_of",
		re: regexp.MustCompile(`[Ss]hares\s+of\s+` + entityPat +
			`\s+(?:rose|fell|climbed|closed|dropped)\s+to\s+` + moneyPat + scalePat),
		typ:  model.ClaimTypeStockPrice,
		unit: model.UnitCurrency,
	},
	{
		name: "revenue_reported",
		re: regexp.MustCompile(entityPat + `\s+(?:reported|posted|generated|announced)\s+` +
			`(?:annual\s+|quarterly\s+)?revenue\s+of\s+` + moneyPat + scalePat),
		typ:  model.ClaimTypeRevenue,
		unit: model.UnitCurrency,
	},
	{
		name: "revenue_is",
		re: regexp.MustCompile(entityPat + `(?:'s)?\s+(?:annual\s+|quarterly\s+)?revenue\s+` +
			`(?:is|was|reached|hit|grew\s+to)\s+` + moneyPat + scalePat),
		typ:  model.ClaimTypeRevenue,
		unit: model.UnitCurrency,
	},
	{
		name: "interest_rate",
		re: regexp.MustCompile(entityPat + `\s+(?:raised|cut|lowered|held|kept|set)\s+` +
			`(?:its\s+)?(?:benchmark\s+|key\s+)?interest\s+rates?\s+(?:to|at)\s+` + numberPat + pctPat),
		typ:  model.ClaimTypeInterestRate,
		unit: model.UnitPercent,
	},
	{
		name: "stock_percent_move",
		re: regexp.MustCompile(entityPat + `(?:'s)?\s+(?:stock|shares?)\s+` +
			`(?:rose|fell|gained|dropped|jumped|declined|surged|plunged)\s+(?:by\s+)?` + numberPat + pctPat),
		typ:  model.ClaimTypePercentage,
		unit: model.UnitPercent,
	},
	{
		name: "percent_move",
		re: regexp.MustCompile(entityPat +
			`\s+(?:rose|fell|gained|dropped|jumped|declined|surged|plunged)\s+(?:by\s+)?` + numberPat + pctPat),
		typ:  model.ClaimTypePercentage,
		unit: model.UnitPercent,
	},
}

// PatternExtractor extracts claims using the static rule table. It is
// deterministic, never fails, and is the terminal fallback when every
// language-analysis provider is unavailable.
type PatternExtractor struct{}

// NewPatternExtractor creates a new pattern extractor
func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{}
}

// Name returns the provider-style name used in pipeline results
func (e *PatternExtractor) Name() string {
	return "pattern"
}

type candidate struct {
	start, end int
	ruleIdx    int
	claim      model.Claim
}

// Extract extracts claims from plain text. It returns an empty list
// when nothing matches.
func (e *PatternExtractor) Extract(text string) []model.Claim {
	var candidates []candidate

	for idx, r := range rules {
		for _, m := range r.re.FindAllStringSubmatchIndex(text, -1) {
			claim, ok := buildClaim(text, r, m)
			if !ok {
				continue
			}
			candidates = append(candidates, candidate{
				start:   m[0],
				end:     m[1],
				ruleIdx: idx,
				claim:   claim,
			})
		}
	}

	// Overlapping spans: prefer the longest match, then earlier rules.
	sort.Slice(candidates, func(i, j int) bool {
		li, lj := candidates[i].end-candidates[i].start, candidates[j].end-candidates[j].start
		if li != lj {
			return li > lj
		}
		if candidates[i].ruleIdx != candidates[j].ruleIdx {
			return candidates[i].ruleIdx < candidates[j].ruleIdx
		}
		return candidates[i].start < candidates[j].start
	})

	var accepted []candidate
	for _, c := range candidates {
		overlaps := false
		for _, a := range accepted {
			if c.start < a.end && a.start < c.end {
				overlaps = true
				break
			}
		}
		if !overlaps {
			accepted = append(accepted, c)
		}
	}

	// Restore document order for a stable, readable claim list.
	sort.Slice(accepted, func(i, j int) bool {
		return accepted[i].start < accepted[j].start
	})

	claims := make([]model.Claim, 0, len(accepted))
	for _, c := range accepted {
		claims = append(claims, c.claim)
	}
	return claims
}

// buildClaim converts one regex match into a claim, applying the value
// and entity heuristics.
func buildClaim(text string, r rule, m []int) (model.Claim, bool) {
	group := func(n int) string {
		lo, hi := 2*n, 2*n+1
		if hi >= len(m) || m[lo] < 0 {
			return ""
		}
		return text[m[lo]:m[hi]]
	}

	entity := strings.TrimSpace(group(1))
	if !plausibleEntity(entity) {
		return model.Claim{}, false
	}

	value, ok := ParseAmount(group(2), group(3))
	if !ok {
		return model.Claim{}, false
	}

	claim := model.Claim{
		RawText:       text[m[0]:m[1]],
		EntityMention: entity,
		Type:          r.typ,
		ClaimedValue:  value,
		Unit:          r.unit,
		Heuristic:     "pattern:" + r.name,
	}
	if r.unit == model.UnitCurrency {
		// All money templates anchor on the dollar sign.
		claim.CurrencyCode = "USD"
	}
	if !claim.Valid() {
		return model.Claim{}, false
	}
	return claim, true
}

// plausibleEntity suppresses spurious entity captures: too short,
// mostly non-alphabetic, or a bare stopword.
func plausibleEntity(s string) bool {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < 2 {
		return false
	}

	letters := 0
	for _, r := range trimmed {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters < 2 || float64(letters) < float64(len(trimmed))/2 {
		return false
	}

	switch strings.ToLower(trimmed) {
	case "the", "it", "its", "this", "that", "a", "an":
		return false
	}
	return true
}

// Rules exposes the rule names in evaluation order, for tests and
// diagnostics.
func Rules() []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.name
	}
	return names
}
