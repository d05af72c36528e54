package resolve

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ppiankov/finfact/internal/cache"
	"github.com/ppiankov/finfact/internal/model"
)

func TestResolver_ExactMatch(t *testing.T) {
	r := NewResolver(nil)

	entity := r.Resolve(context.Background(), "Apple")
	if entity.Ticker != "AAPL" {
		t.Errorf("Expected AAPL, got %q", entity.Ticker)
	}
	if entity.MatchConfidence != 0.99 {
		t.Errorf("Expected confidence 0.99, got %g", entity.MatchConfidence)
	}
	if entity.MatchSource != model.MatchExact {
		t.Errorf("Expected exact match, got %s", entity.MatchSource)
	}
}

func TestResolver_ExactMatchCaseInsensitive(t *testing.T) {
	r := NewResolver(nil)

	entity := r.Resolve(context.Background(), "MICROSOFT")
	if entity.Ticker != "MSFT" || entity.MatchSource != model.MatchExact {
		t.Errorf("Expected exact MSFT match, got %+v", entity)
	}
}

func TestResolver_LegalSuffixNormalization(t *testing.T) {
	r := NewResolver(nil)

	// "Apple Inc." is not in the exact table verbatim; normalization
	// strips the suffix and lands on the alias stage.
	entity := r.Resolve(context.Background(), "Apple Inc.")
	if entity.Ticker != "AAPL" {
		t.Errorf("Expected AAPL, got %q", entity.Ticker)
	}
	if entity.MatchSource != model.MatchAlias {
		t.Errorf("Expected alias match, got %s", entity.MatchSource)
	}
	if entity.MatchConfidence != 0.90 {
		t.Errorf("Expected confidence 0.90, got %g", entity.MatchConfidence)
	}
}

func TestResolver_AliasMatch(t *testing.T) {
	r := NewResolver(nil)

	tests := []struct {
		mention string
		ticker  string
	}{
		{"Google", "GOOGL"},
		{"Facebook", "META"},
		{"The Walt Disney Company", "DIS"},
	}
	for _, tt := range tests {
		entity := r.Resolve(context.Background(), tt.mention)
		if entity.Ticker != tt.ticker {
			t.Errorf("Resolve(%q): expected %s, got %q", tt.mention, tt.ticker, entity.Ticker)
		}
		if entity.MatchConfidence != 0.90 {
			t.Errorf("Resolve(%q): expected alias confidence 0.90, got %g", tt.mention, entity.MatchConfidence)
		}
	}
}

func TestResolver_FuzzyMatch(t *testing.T) {
	r := NewResolver(nil)

	entity := r.Resolve(context.Background(), "Microsof")
	if entity.Ticker != "MSFT" {
		t.Errorf("Expected fuzzy MSFT match, got %q", entity.Ticker)
	}
	if entity.MatchSource != model.MatchFuzzy {
		t.Errorf("Expected fuzzy match, got %s", entity.MatchSource)
	}
	// Fuzzy confidence stays below the alias tier.
	if entity.MatchConfidence <= 0 || entity.MatchConfidence >= 0.90 {
		t.Errorf("Expected fuzzy confidence in (0, 0.90), got %g", entity.MatchConfidence)
	}
}

func TestResolver_Unresolved(t *testing.T) {
	r := NewResolver(nil)

	entity := r.Resolve(context.Background(), "Xqzvk Blorptech")
	if entity.Resolved() {
		t.Errorf("Expected unresolved entity, got %+v", entity)
	}
	if entity.MatchConfidence != 0 {
		t.Errorf("Expected zero confidence, got %g", entity.MatchConfidence)
	}
}

func TestResolver_ConfidenceOrdering(t *testing.T) {
	r := NewResolver(nil)
	ctx := context.Background()

	exact := r.Resolve(ctx, "Apple").MatchConfidence
	alias := r.Resolve(ctx, "Google").MatchConfidence
	fuzzy := r.Resolve(ctx, "Microsof").MatchConfidence

	if !(exact >= alias && alias >= fuzzy) {
		t.Errorf("Expected exact >= alias >= fuzzy, got %g / %g / %g", exact, alias, fuzzy)
	}
}

// countingDirectory records lookups and returns canned matches
type countingDirectory struct {
	matches []DirectoryMatch
	err     error
	lookups int
}

func (d *countingDirectory) Lookup(ctx context.Context, name string) ([]DirectoryMatch, error) {
	d.lookups++
	if d.err != nil {
		return nil, d.err
	}
	return d.matches, nil
}

func TestResolver_ExternalDirectory(t *testing.T) {
	dir := &countingDirectory{matches: []DirectoryMatch{
		{Ticker: "SHOP", Confidence: 0.97},
		{Ticker: "SQ", Confidence: 0.40},
	}}
	r := NewResolver(nil, WithDirectory(dir))

	entity := r.Resolve(context.Background(), "Shopify")
	if entity.Ticker != "SHOP" {
		t.Errorf("Expected SHOP from directory, got %q", entity.Ticker)
	}
	if entity.MatchSource != model.MatchExternal {
		t.Errorf("Expected external match, got %s", entity.MatchSource)
	}
	// Directory confidence is capped below the static tiers.
	if entity.MatchConfidence != 0.85 {
		t.Errorf("Expected capped confidence 0.85, got %g", entity.MatchConfidence)
	}
}

func TestResolver_ExternalDirectoryErrorIsMiss(t *testing.T) {
	dir := &countingDirectory{err: errors.New("directory unavailable")}
	r := NewResolver(nil, WithDirectory(dir))

	entity := r.Resolve(context.Background(), "Shopify")
	if entity.Resolved() {
		t.Errorf("Expected miss on directory error, got %+v", entity)
	}
}

func TestResolver_DirectoryNotConsultedForKnownNames(t *testing.T) {
	dir := &countingDirectory{matches: []DirectoryMatch{{Ticker: "WRONG", Confidence: 0.99}}}
	r := NewResolver(nil, WithDirectory(dir))

	entity := r.Resolve(context.Background(), "Apple")
	if entity.Ticker != "AAPL" {
		t.Errorf("Expected static table to win, got %q", entity.Ticker)
	}
	if dir.lookups != 0 {
		t.Errorf("Expected no directory lookups, got %d", dir.lookups)
	}
}

func TestResolver_CachesPositiveResults(t *testing.T) {
	dir := &countingDirectory{matches: []DirectoryMatch{{Ticker: "SHOP", Confidence: 0.97}}}
	r := NewResolver(cache.NewMemoryCache(time.Minute, 0), WithDirectory(dir))
	ctx := context.Background()

	first := r.Resolve(ctx, "Shopify")
	second := r.Resolve(ctx, "Shopify")

	if dir.lookups != 1 {
		t.Errorf("Expected 1 directory lookup, got %d", dir.lookups)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical cached result, got %+v vs %+v", first, second)
	}
}

func TestResolver_CachesNegativeResults(t *testing.T) {
	dir := &countingDirectory{err: errors.New("directory unavailable")}
	r := NewResolver(cache.NewMemoryCache(time.Minute, 0), WithDirectory(dir))
	ctx := context.Background()

	r.Resolve(ctx, "Xqzvk Blorptech")
	r.Resolve(ctx, "Xqzvk Blorptech")

	if dir.lookups != 1 {
		t.Errorf("Expected the miss to be cached, got %d lookups", dir.lookups)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Apple Inc.", "apple"},
		{"The Walt Disney Company", "walt disney"},
		{"Johnson & Johnson", "johnson johnson"},
		{"  Tesla,   Inc  ", "tesla"},
		{"NVIDIA Corporation", "nvidia"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if got := similarity("apple", "apple"); got != 1.0 {
		t.Errorf("Expected identical strings to score 1.0, got %g", got)
	}
	if got := similarity("microsof", "microsoft"); got < 0.80 {
		t.Errorf("Expected one-edit similarity above the floor, got %g", got)
	}
	if got := similarity("apple", "zzzzz"); got != 0 {
		t.Errorf("Expected disjoint strings to score 0, got %g", got)
	}
}
