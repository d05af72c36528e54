package health

import (
	"sort"
	"sync"
	"time"
)

// ProviderID identifies one language-analysis provider
type ProviderID string

// CircuitState is the breaker state for one provider
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Stats is a read-only snapshot of one provider's health
type Stats struct {
	SuccessCount        uint64
	FailureCount        uint64
	ConsecutiveFailures int
	State               CircuitState
	LastFailureAt       time.Time
	TotalLatency        time.Duration
}

// SuccessRate returns the fraction of successful attempts, optimistic
// (1.0) when nothing has been recorded yet.
func (s Stats) SuccessRate() float64 {
	total := s.SuccessCount + s.FailureCount
	if total == 0 {
		return 1.0
	}
	return float64(s.SuccessCount) / float64(total)
}

type providerState struct {
	stats Stats
}

// Tracker maintains rolling success/failure state per provider and the
// circuit breaker that drives failover ordering. It is shared
// process-wide; all access goes through one mutex and critical
// sections never perform I/O.
type Tracker struct {
	mu               sync.Mutex
	providers        map[ProviderID]*providerState
	order            []ProviderID // Registration order, used as ranking tiebreak
	failureThreshold int
	cooldown         time.Duration
	now              func() time.Time // Injectable clock for tests
}

// NewTracker creates a tracker with the given breaker thresholds
func NewTracker(failureThreshold int, cooldown time.Duration) *Tracker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}
	return &Tracker{
		providers:        make(map[ProviderID]*providerState),
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
		now:              time.Now,
	}
}

// Register adds a provider to the tracker. Registering an existing
// provider is a no-op; providers are never removed.
func (t *Tracker) Register(id ProviderID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.providers[id]; ok {
		return
	}
	t.providers[id] = &providerState{}
	t.order = append(t.order, id)
}

// RecordOutcome updates a provider's stats after an attempt. The
// breaker opens after N consecutive failures, and a half-open probe
// closes it on success or reopens it on failure.
func (t *Tracker) RecordOutcome(id ProviderID, success bool, latency time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.providers[id]
	if !ok {
		p = &providerState{}
		t.providers[id] = p
		t.order = append(t.order, id)
	}

	p.stats.TotalLatency += latency

	if success {
		p.stats.SuccessCount++
		p.stats.ConsecutiveFailures = 0
		p.stats.State = StateClosed
		return
	}

	p.stats.FailureCount++
	p.stats.ConsecutiveFailures++
	p.stats.LastFailureAt = t.now()

	switch p.stats.State {
	case StateHalfOpen:
		// Failed probe: back to open, restart the cooldown.
		p.stats.State = StateOpen
	default:
		if p.stats.ConsecutiveFailures >= t.failureThreshold {
			p.stats.State = StateOpen
		}
	}
}

// Rank returns providers in attempt order: closed providers first
// (best success rate wins), then half-open ones. Open providers are
// excluded unless every provider is open, in which case the least
// recently failed one is returned alone so requests keep making
// forward progress.
func (t *Tracker) Rank() []ProviderID {
	t.mu.Lock()
	defer t.mu.Unlock()

	closed, halfOpen, open := t.categorize(t.order)

	sort.SliceStable(closed, func(i, j int) bool {
		return t.providers[closed[i]].stats.SuccessRate() > t.providers[closed[j]].stats.SuccessRate()
	})

	return t.assemble(closed, halfOpen, open)
}

// Filter applies circuit-breaker state to a fixed provider order:
// open providers drop out, but the given order is otherwise kept.
func (t *Tracker) Filter(ids []ProviderID) []ProviderID {
	t.mu.Lock()
	defer t.mu.Unlock()

	var known []ProviderID
	for _, id := range ids {
		if _, ok := t.providers[id]; ok {
			known = append(known, id)
		}
	}

	closed, halfOpen, open := t.categorize(known)
	return t.assemble(closed, halfOpen, open)
}

// categorize buckets providers by breaker state, promoting cooled-down
// open circuits to half-open. Callers hold the lock.
func (t *Tracker) categorize(ids []ProviderID) (closed, halfOpen, open []ProviderID) {
	now := t.now()
	for _, id := range ids {
		p := t.providers[id]

		// Cooldown elapsed: open circuits become probe-able.
		if p.stats.State == StateOpen && now.Sub(p.stats.LastFailureAt) >= t.cooldown {
			p.stats.State = StateHalfOpen
		}

		switch p.stats.State {
		case StateClosed:
			closed = append(closed, id)
		case StateHalfOpen:
			halfOpen = append(halfOpen, id)
		default:
			open = append(open, id)
		}
	}
	return closed, halfOpen, open
}

// assemble joins the buckets into an attempt order, applying the
// all-open forward-progress rule. Callers hold the lock.
func (t *Tracker) assemble(closed, halfOpen, open []ProviderID) []ProviderID {
	ranked := append(closed, halfOpen...)
	if len(ranked) > 0 {
		return ranked
	}

	if len(open) == 0 {
		return nil
	}

	// All circuits open: try the least recently failed provider.
	best := open[0]
	for _, id := range open[1:] {
		if t.providers[id].stats.LastFailureAt.Before(t.providers[best].stats.LastFailureAt) {
			best = id
		}
	}
	return []ProviderID{best}
}

// Snapshot returns a copy of one provider's stats
func (t *Tracker) Snapshot(id ProviderID) (Stats, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.providers[id]
	if !ok {
		return Stats{}, false
	}
	return p.stats, true
}

// SetClock overrides the tracker clock. Tests only.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}
