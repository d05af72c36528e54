package model

import "time"

// Verdict is the categorical accuracy judgment for a claim
type Verdict string

const (
	VerdictAccurate          Verdict = "accurate"
	VerdictPartiallyAccurate Verdict = "partially_accurate"
	VerdictInaccurate        Verdict = "inaccurate"
	VerdictUnverifiable      Verdict = "unverifiable"
)

// VerificationResult is the per-claim verification output
type VerificationResult struct {
	Verdict         Verdict `json:"verdict"`
	Confidence      float64 `json:"confidence"`       // 0..1
	AccuracyPercent float64 `json:"accuracy_percent"` // 100 * (1 - deviation), floored at 0
	Explanation     string  `json:"explanation"`      // Human-readable reasoning with the numbers used
	DataSource      string  `json:"data_source,omitempty"`
}

// ClaimResult binds a claim to its resolution and verification.
// The claim itself is immutable; later stages attach, never mutate.
type ClaimResult struct {
	Claim        Claim              `json:"claim"`
	Entity       ResolvedEntity     `json:"entity"`
	Verification VerificationResult `json:"verification"`
}

// PipelineResult is the complete output for one inbound text
type PipelineResult struct {
	Claims       []ClaimResult `json:"claims"`
	Degraded     bool          `json:"degraded"`      // True when the pattern fallback produced the claims
	ProviderUsed string        `json:"provider_used"` // Provider that supplied the claim list
	ProcessedAt  time.Time     `json:"processed_at"`
}
