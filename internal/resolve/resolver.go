package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/finfact/internal/cache"
	"github.com/ppiankov/finfact/internal/model"
)

// Confidence assigned per stage. The ordering invariant
// exact >= alias >= fuzzy is load-bearing: the verifier's confidence
// floor keys off these values.
const (
	aliasConfidence    = 0.90
	fuzzyScale         = 0.88 // Fuzzy confidence = similarity * fuzzyScale
	externalCap        = 0.85
	defaultFuzzyFloor  = 0.80
	defaultPositiveTTL = 7 * 24 * time.Hour
	defaultNegativeTTL = time.Hour
)

// DirectoryMatch is one candidate from an external ticker directory
type DirectoryMatch struct {
	Ticker     string  `json:"ticker"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source,omitempty"`
}

// TickerDirectory is an optional external lookup consulted when the
// static tables and fuzzy matching both miss.
type TickerDirectory interface {
	Lookup(ctx context.Context, name string) ([]DirectoryMatch, error)
}

// Resolver maps free-text entity mentions to ticker symbols. Results
// are cached: hits for a week, misses for an hour so transient
// directory failures can retry without hammering.
type Resolver struct {
	cache       cache.Cache
	directory   TickerDirectory // Nil disables the external stage
	names       map[string]string
	fuzzyFloor  float64
	positiveTTL time.Duration
	negativeTTL time.Duration
}

// Option customizes a Resolver
type Option func(*Resolver)

// WithDirectory installs an external ticker directory
func WithDirectory(d TickerDirectory) Option {
	return func(r *Resolver) { r.directory = d }
}

// WithFuzzyFloor overrides the minimum fuzzy similarity
func WithFuzzyFloor(floor float64) Option {
	return func(r *Resolver) {
		if floor > 0 {
			r.fuzzyFloor = floor
		}
	}
}

// WithTTLs overrides the positive/negative cache TTLs
func WithTTLs(positive, negative time.Duration) Option {
	return func(r *Resolver) {
		if positive > 0 {
			r.positiveTTL = positive
		}
		if negative > 0 {
			r.negativeTTL = negative
		}
	}
}

// NewResolver creates a resolver backed by the given result cache
func NewResolver(c cache.Cache, opts ...Option) *Resolver {
	r := &Resolver{
		cache:       c,
		names:       knownNames(),
		fuzzyFloor:  defaultFuzzyFloor,
		positiveTTL: defaultPositiveTTL,
		negativeTTL: defaultNegativeTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps a mention to a ticker. It never fails: an unresolvable
// mention yields an empty ticker with zero confidence. Within the TTL
// window the cached result is returned verbatim and no lookup runs.
func (r *Resolver) Resolve(ctx context.Context, mention string) model.ResolvedEntity {
	key := cache.Key("resolve", Normalize(mention))

	if r.cache != nil {
		if data, found := r.cache.Get(key); found {
			var cached model.ResolvedEntity
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached
			}
		}
	}

	entity := r.resolve(ctx, mention)

	if r.cache != nil {
		ttl := r.positiveTTL
		if !entity.Resolved() {
			ttl = r.negativeTTL
		}
		if data, err := json.Marshal(entity); err == nil {
			_ = r.cache.Set(key, data, ttl)
		}
	}

	return entity
}

// resolve runs the match stages in order, terminating on first hit
func (r *Resolver) resolve(ctx context.Context, mention string) model.ResolvedEntity {
	// Stage 1: exact lookup, casing-insensitive but otherwise literal.
	if entry, ok := exactTable[strings.ToLower(strings.TrimSpace(mention))]; ok {
		return model.ResolvedEntity{
			Ticker:          entry.Ticker,
			MatchConfidence: entry.Confidence,
			MatchSource:     model.MatchExact,
		}
	}

	normalized := Normalize(mention)
	if normalized == "" {
		return model.ResolvedEntity{}
	}

	// Stage 2: alias lookup over the normalized form.
	if entry, ok := exactTable[normalized]; ok {
		return model.ResolvedEntity{
			Ticker:          entry.Ticker,
			MatchConfidence: aliasConfidence,
			MatchSource:     model.MatchAlias,
		}
	}
	if ticker, ok := aliasTable[normalized]; ok {
		return model.ResolvedEntity{
			Ticker:          ticker,
			MatchConfidence: aliasConfidence,
			MatchSource:     model.MatchAlias,
		}
	}

	// Stage 3: fuzzy match against the known-entity set.
	if entity, ok := r.fuzzyMatch(normalized); ok {
		return entity
	}

	// Stage 4: external directory, when configured.
	if r.directory != nil {
		if entity, ok := r.externalLookup(ctx, mention); ok {
			return entity
		}
	}

	return model.ResolvedEntity{}
}

func (r *Resolver) fuzzyMatch(normalized string) (model.ResolvedEntity, bool) {
	bestScore := 0.0
	bestTicker := ""
	bestName := ""

	for name, ticker := range r.names {
		score := similarity(normalized, name)
		if score > bestScore || (score == bestScore && name < bestName) {
			bestScore = score
			bestTicker = ticker
			bestName = name
		}
	}

	if bestScore < r.fuzzyFloor {
		return model.ResolvedEntity{}, false
	}

	return model.ResolvedEntity{
		Ticker:          bestTicker,
		MatchConfidence: bestScore * fuzzyScale,
		MatchSource:     model.MatchFuzzy,
	}, true
}

func (r *Resolver) externalLookup(ctx context.Context, mention string) (model.ResolvedEntity, bool) {
	matches, err := r.directory.Lookup(ctx, mention)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: ticker directory lookup failed for %q: %v\n", mention, err)
		return model.ResolvedEntity{}, false
	}

	best := DirectoryMatch{}
	for _, m := range matches {
		if m.Ticker != "" && m.Confidence > best.Confidence {
			best = m
		}
	}
	if best.Ticker == "" {
		return model.ResolvedEntity{}, false
	}

	confidence := best.Confidence
	if confidence > externalCap {
		confidence = externalCap
	}
	return model.ResolvedEntity{
		Ticker:          best.Ticker,
		MatchConfidence: confidence,
		MatchSource:     model.MatchExternal,
	}, true
}
