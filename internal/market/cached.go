package market

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ppiankov/finfact/internal/cache"
	"github.com/ppiankov/finfact/internal/model"
)

// CachedSource fronts a Source with a TTL cache. Price checks want a
// snapshot at most five minutes old; market-cap checks tolerate an
// hour, so one stored snapshot serves both with age-based reads.
type CachedSource struct {
	inner    Source
	cache    cache.Cache
	priceTTL time.Duration
	capTTL   time.Duration
}

type cachedSnapshot struct {
	Snapshot  model.MarketSnapshot `json:"snapshot"`
	FetchedAt time.Time            `json:"fetched_at"`
}

// NewCachedSource wraps a source with snapshot caching
func NewCachedSource(inner Source, c cache.Cache, priceTTL, capTTL time.Duration) *CachedSource {
	if priceTTL <= 0 {
		priceTTL = 5 * time.Minute
	}
	if capTTL <= 0 {
		capTTL = time.Hour
	}
	if capTTL < priceTTL {
		capTTL = priceTTL
	}
	return &CachedSource{
		inner:    inner,
		cache:    c,
		priceTTL: priceTTL,
		capTTL:   capTTL,
	}
}

// Name returns the underlying feed name
func (s *CachedSource) Name() string {
	return s.inner.Name()
}

// GetSnapshot fetches a snapshot fresh enough for price verification
func (s *CachedSource) GetSnapshot(ctx context.Context, ticker string) (*model.MarketSnapshot, error) {
	return s.GetSnapshotAged(ctx, ticker, s.priceTTL)
}

// GetSnapshotStale fetches a snapshot fresh enough for market-cap
// verification (slower-moving figure, longer tolerated age).
func (s *CachedSource) GetSnapshotStale(ctx context.Context, ticker string) (*model.MarketSnapshot, error) {
	return s.GetSnapshotAged(ctx, ticker, s.capTTL)
}

// GetSnapshotAged returns a cached snapshot no older than maxAge,
// fetching from the underlying source on a miss.
func (s *CachedSource) GetSnapshotAged(ctx context.Context, ticker string, maxAge time.Duration) (*model.MarketSnapshot, error) {
	key := cache.Key("snapshot", ticker)

	if s.cache != nil {
		if data, found := s.cache.Get(key); found {
			var entry cachedSnapshot
			if err := json.Unmarshal(data, &entry); err == nil && time.Since(entry.FetchedAt) <= maxAge {
				snapshot := entry.Snapshot
				return &snapshot, nil
			}
		}
	}

	snapshot, err := s.inner.GetSnapshot(ctx, ticker)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		entry := cachedSnapshot{Snapshot: *snapshot, FetchedAt: time.Now()}
		if data, err := json.Marshal(entry); err == nil {
			// Longest tolerated age bounds the stored TTL.
			_ = s.cache.Set(key, data, s.capTTL)
		}
	}

	return snapshot, nil
}
