package model

import (
	"math"
	"time"
)

// Claim represents a single financial assertion extracted from the source text
type Claim struct {
	RawText       string    `json:"raw_text"`                // Original substring the claim was extracted from
	EntityMention string    `json:"entity_mention"`          // Company/instrument name as written
	Type          ClaimType `json:"type"`                    // Kind of financial assertion
	ClaimedValue  float64   `json:"claimed_value"`           // Numeric value as asserted (normalized, e.g., 3e12)
	Unit          Unit      `json:"unit"`                    // Value unit
	CurrencyCode  string    `json:"currency_code,omitempty"` // ISO code when the claim states one
	Heuristic     string    `json:"heuristic,omitempty"`     // Which extraction rule matched (e.g., "pattern:market_cap")
}

// ClaimType categorizes the nature of the claim
type ClaimType string

const (
	ClaimTypeMarketCap    ClaimType = "market_cap"
	ClaimTypeStockPrice   ClaimType = "stock_price"
	ClaimTypeRevenue      ClaimType = "revenue"
	ClaimTypeInterestRate ClaimType = "interest_rate"
	ClaimTypePercentage   ClaimType = "percentage"
	ClaimTypeOther        ClaimType = "other"
)

// ValidClaimType reports whether t is one of the known claim types
func ValidClaimType(t ClaimType) bool {
	switch t {
	case ClaimTypeMarketCap, ClaimTypeStockPrice, ClaimTypeRevenue,
		ClaimTypeInterestRate, ClaimTypePercentage, ClaimTypeOther:
		return true
	}
	return false
}

// Unit classifies the claimed value
type Unit string

const (
	UnitCurrency Unit = "currency"
	UnitPercent  Unit = "percent"
	UnitCount    Unit = "count"
)

// Valid checks the claim value invariants: finite, and non-negative for
// monetary claim types. Invalid claims are dropped, never verified.
func (c Claim) Valid() bool {
	if math.IsNaN(c.ClaimedValue) || math.IsInf(c.ClaimedValue, 0) {
		return false
	}
	switch c.Type {
	case ClaimTypeMarketCap, ClaimTypeStockPrice, ClaimTypeRevenue:
		return c.ClaimedValue >= 0
	}
	return true
}

// MatchSource classifies how a mention was resolved to a ticker
type MatchSource string

const (
	MatchExact    MatchSource = "exact"
	MatchAlias    MatchSource = "alias"
	MatchFuzzy    MatchSource = "fuzzy"
	MatchExternal MatchSource = "external"
)

// ResolvedEntity is attached to a claim after entity resolution
type ResolvedEntity struct {
	Ticker          string      `json:"ticker"`           // Empty when unresolved
	MatchConfidence float64     `json:"match_confidence"` // 0..1, monotonic in match source quality
	MatchSource     MatchSource `json:"match_source,omitempty"`
}

// Resolved reports whether the mention mapped to a ticker at all
func (e ResolvedEntity) Resolved() bool {
	return e.Ticker != ""
}

// MarketSnapshot is the market-data collaborator output, read-only here
type MarketSnapshot struct {
	Ticker    string    `json:"ticker"`
	Price     float64   `json:"price"`
	MarketCap float64   `json:"market_cap"`
	Currency  string    `json:"currency"`
	AsOf      time.Time `json:"as_of"`
}
