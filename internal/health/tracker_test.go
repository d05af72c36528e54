package health

import (
	"testing"
	"time"
)

func TestTracker_OpensAfterConsecutiveFailures(t *testing.T) {
	tracker := NewTracker(5, time.Minute)
	tracker.Register("openai")

	for i := 0; i < 4; i++ {
		tracker.RecordOutcome("openai", false, 10*time.Millisecond)
	}
	stats, ok := tracker.Snapshot("openai")
	if !ok {
		t.Fatal("Expected stats for registered provider")
	}
	if stats.State != StateClosed {
		t.Errorf("Expected circuit closed after 4 failures, got %s", stats.State)
	}

	tracker.RecordOutcome("openai", false, 10*time.Millisecond)
	stats, _ = tracker.Snapshot("openai")
	if stats.State != StateOpen {
		t.Errorf("Expected circuit open after 5 consecutive failures, got %s", stats.State)
	}
}

func TestTracker_SuccessResetsConsecutiveFailures(t *testing.T) {
	tracker := NewTracker(5, time.Minute)
	tracker.Register("openai")

	for i := 0; i < 4; i++ {
		tracker.RecordOutcome("openai", false, 0)
	}
	tracker.RecordOutcome("openai", true, 0)
	for i := 0; i < 4; i++ {
		tracker.RecordOutcome("openai", false, 0)
	}

	stats, _ := tracker.Snapshot("openai")
	if stats.State != StateClosed {
		t.Errorf("Expected circuit closed (failures not consecutive), got %s", stats.State)
	}
}

func TestTracker_CooldownHalfOpenThenCloses(t *testing.T) {
	now := time.Now()
	tracker := NewTracker(5, 60*time.Second)
	tracker.SetClock(func() time.Time { return now })
	tracker.Register("openai")

	for i := 0; i < 5; i++ {
		tracker.RecordOutcome("openai", false, 0)
	}

	// Before the cooldown the provider stays excluded entirely
	// (single provider: the forward-progress rule still returns it).
	stats, _ := tracker.Snapshot("openai")
	if stats.State != StateOpen {
		t.Fatalf("Expected open circuit, got %s", stats.State)
	}

	// Advance past the cooldown: ranking promotes to half-open.
	now = now.Add(61 * time.Second)
	ranked := tracker.Rank()
	if len(ranked) != 1 || ranked[0] != "openai" {
		t.Fatalf("Expected half-open provider to be ranked, got %v", ranked)
	}
	stats, _ = tracker.Snapshot("openai")
	if stats.State != StateHalfOpen {
		t.Errorf("Expected half-open after cooldown, got %s", stats.State)
	}

	// First success in half-open closes the circuit.
	tracker.RecordOutcome("openai", true, 0)
	stats, _ = tracker.Snapshot("openai")
	if stats.State != StateClosed {
		t.Errorf("Expected closed after half-open success, got %s", stats.State)
	}
}

func TestTracker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	tracker := NewTracker(5, 60*time.Second)
	tracker.SetClock(func() time.Time { return now })
	tracker.Register("openai")

	for i := 0; i < 5; i++ {
		tracker.RecordOutcome("openai", false, 0)
	}
	now = now.Add(61 * time.Second)
	tracker.Rank() // Promotes to half-open

	tracker.RecordOutcome("openai", false, 0)
	stats, _ := tracker.Snapshot("openai")
	if stats.State != StateOpen {
		t.Errorf("Expected reopened circuit after half-open failure, got %s", stats.State)
	}
}

func TestTracker_RankPrefersHealthyProviders(t *testing.T) {
	tracker := NewTracker(5, time.Minute)
	tracker.Register("ollama")
	tracker.Register("openai")
	tracker.Register("anthropic")

	// ollama: 1/3 success rate. openai: 3/3. anthropic untouched (1.0).
	tracker.RecordOutcome("ollama", true, 0)
	tracker.RecordOutcome("ollama", false, 0)
	tracker.RecordOutcome("ollama", false, 0)
	for i := 0; i < 3; i++ {
		tracker.RecordOutcome("openai", true, 0)
	}

	ranked := tracker.Rank()
	if len(ranked) != 3 {
		t.Fatalf("Expected 3 ranked providers, got %v", ranked)
	}
	if ranked[2] != "ollama" {
		t.Errorf("Expected worst provider last, got %v", ranked)
	}
	if ranked[0] != "anthropic" && ranked[0] != "openai" {
		t.Errorf("Expected a fully healthy provider first, got %v", ranked)
	}
}

func TestTracker_OpenProvidersExcluded(t *testing.T) {
	tracker := NewTracker(5, time.Minute)
	tracker.Register("ollama")
	tracker.Register("openai")

	for i := 0; i < 5; i++ {
		tracker.RecordOutcome("ollama", false, 0)
	}

	ranked := tracker.Rank()
	if len(ranked) != 1 || ranked[0] != "openai" {
		t.Errorf("Expected only the healthy provider, got %v", ranked)
	}
}

func TestTracker_AllOpenReturnsLeastRecentlyFailed(t *testing.T) {
	now := time.Now()
	tracker := NewTracker(5, time.Hour)
	tracker.SetClock(func() time.Time { return now })
	tracker.Register("ollama")
	tracker.Register("openai")

	for i := 0; i < 5; i++ {
		tracker.RecordOutcome("ollama", false, 0)
	}
	now = now.Add(10 * time.Second)
	for i := 0; i < 5; i++ {
		tracker.RecordOutcome("openai", false, 0)
	}

	ranked := tracker.Rank()
	if len(ranked) != 1 || ranked[0] != "ollama" {
		t.Errorf("Expected the least recently failed provider, got %v", ranked)
	}
}

func TestTracker_FilterKeepsOrderButDropsOpen(t *testing.T) {
	tracker := NewTracker(5, time.Hour)
	tracker.Register("ollama")
	tracker.Register("openai")
	tracker.Register("anthropic")

	// Make openai the best by success rate; Filter must still keep
	// the caller's order.
	tracker.RecordOutcome("openai", true, 0)
	tracker.RecordOutcome("ollama", false, 0)

	order := []ProviderID{"ollama", "openai", "anthropic"}
	got := tracker.Filter(order)
	if len(got) != 3 || got[0] != "ollama" || got[1] != "openai" || got[2] != "anthropic" {
		t.Errorf("Expected caller order preserved, got %v", got)
	}

	for i := 0; i < 5; i++ {
		tracker.RecordOutcome("ollama", false, 0)
	}
	got = tracker.Filter(order)
	if len(got) != 2 || got[0] != "openai" || got[1] != "anthropic" {
		t.Errorf("Expected open provider dropped from fixed order, got %v", got)
	}
}
