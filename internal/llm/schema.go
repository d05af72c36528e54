package llm

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ppiankov/finfact/internal/model"
)

// claimsPayload is the strict wire schema every provider must produce
type claimsPayload struct {
	Claims []claimPayload `json:"claims"`
}

type claimPayload struct {
	RawText  string      `json:"raw_text"`
	Entity   string      `json:"entity"`
	Type     string      `json:"type"`
	Value    interface{} `json:"value"`
	Unit     string      `json:"unit"`
	Currency string      `json:"currency"`
}

// ParseClaims validates a provider payload against the claim schema.
// A malformed payload, unknown claim type, or unparseable value is a
// schema violation and fails the whole attempt; a claim that parses
// but breaks the value invariants is dropped with a warning.
func ParseClaims(raw []byte) ([]model.Claim, error) {
	cleaned := stripFences(raw)

	var payload claimsPayload
	decoder := json.NewDecoder(strings.NewReader(cleaned))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("schema violation: %w", err)
	}

	claims := make([]model.Claim, 0, len(payload.Claims))
	for i, pc := range payload.Claims {
		claimType := model.ClaimType(strings.ToLower(strings.TrimSpace(pc.Type)))
		if !model.ValidClaimType(claimType) {
			return nil, fmt.Errorf("schema violation: unknown claim type %q", pc.Type)
		}

		value, err := coerceValue(pc.Value)
		if err != nil {
			return nil, fmt.Errorf("schema violation: claim %d: %w", i, err)
		}

		unit := model.Unit(strings.ToLower(strings.TrimSpace(pc.Unit)))
		switch unit {
		case model.UnitCurrency, model.UnitPercent, model.UnitCount:
		case "":
			unit = model.UnitCurrency
		default:
			return nil, fmt.Errorf("schema violation: unknown unit %q", pc.Unit)
		}

		claim := model.Claim{
			RawText:       strings.TrimSpace(pc.RawText),
			EntityMention: strings.TrimSpace(pc.Entity),
			Type:          claimType,
			ClaimedValue:  value,
			Unit:          unit,
			CurrencyCode:  strings.ToUpper(strings.TrimSpace(pc.Currency)),
			Heuristic:     "llm",
		}

		if claim.EntityMention == "" {
			fmt.Fprintf(os.Stderr, "Warning: dropping claim with empty entity: %q\n", claim.RawText)
			continue
		}
		if !claim.Valid() {
			fmt.Fprintf(os.Stderr, "Warning: dropping claim with invalid value %v: %q\n", claim.ClaimedValue, claim.RawText)
			continue
		}

		claims = append(claims, claim)
	}

	return claims, nil
}

// coerceValue accepts JSON numbers and numeric strings
func coerceValue(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case string:
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(n), ",", ""), 64)
		if err != nil {
			return 0, fmt.Errorf("value %q not numeric", n)
		}
		return parsed, nil
	case nil:
		return 0, fmt.Errorf("value missing")
	default:
		return 0, fmt.Errorf("value has unsupported type %T", v)
	}
}

// stripFences removes markdown code fences some models wrap around JSON
func stripFences(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
