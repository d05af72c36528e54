package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/ppiankov/finfact/internal/model"
)

// testJob increments a counter and returns a canned result
type testJob struct {
	counter *atomic.Int64
	err     error
}

func (j *testJob) Execute(ctx context.Context) Result {
	j.counter.Add(1)
	return &CheckResult{Err: j.err}
}

func TestPool_ExecutesAllJobs(t *testing.T) {
	pool := NewPool(4)
	pool.Start()

	var counter atomic.Int64
	for i := 0; i < 20; i++ {
		pool.Submit(&testJob{counter: &counter})
	}

	results := pool.Wait()
	if len(results) != 20 {
		t.Errorf("Expected 20 results, got %d", len(results))
	}
	if counter.Load() != 20 {
		t.Errorf("Expected 20 executions, got %d", counter.Load())
	}
}

func TestPool_CollectsErrors(t *testing.T) {
	pool := NewPool(2)
	pool.Start()

	var counter atomic.Int64
	pool.Submit(&testJob{counter: &counter})
	pool.Submit(&testJob{counter: &counter, err: errors.New("boom")})

	results := pool.Wait()
	failures := 0
	for _, r := range results {
		if r.GetError() != nil {
			failures++
		}
	}
	if failures != 1 {
		t.Errorf("Expected 1 failed job, got %d", failures)
	}
}

func TestPool_MinimumOneWorker(t *testing.T) {
	pool := NewPool(0)
	pool.Start()

	var counter atomic.Int64
	pool.Submit(&testJob{counter: &counter})

	results := pool.Wait()
	if len(results) != 1 {
		t.Errorf("Expected 1 result, got %d", len(results))
	}
}

// fixedRunner returns a canned pipeline result
type fixedRunner struct {
	result *model.PipelineResult
}

func (r *fixedRunner) ProcessText(ctx context.Context, text string) *model.PipelineResult {
	return r.result
}

func TestCheckJob_Execute(t *testing.T) {
	runner := &fixedRunner{result: &model.PipelineResult{ProviderUsed: "pattern", Degraded: true}}
	job := &CheckJob{Line: 3, Text: "some claim", Runner: runner}

	result := job.Execute(context.Background())
	cr, ok := result.(*CheckResult)
	if !ok {
		t.Fatalf("Expected CheckResult, got %T", result)
	}
	if cr.GetError() != nil {
		t.Errorf("Expected no error, got %v", cr.GetError())
	}
	if cr.Line != 3 || cr.Result == nil || cr.Result.ProviderUsed != "pattern" {
		t.Errorf("Unexpected result %+v", cr)
	}
}

func TestCheckJob_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := &CheckJob{Line: 1, Text: "t", Runner: &fixedRunner{}}
	result := job.Execute(ctx)
	if result.GetError() == nil {
		t.Error("Expected context error")
	}
}

func TestReadTexts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	content := "Apple's market cap is $3 trillion.\n" +
		"\n" +
		"# comment line\n" +
		"  Tesla stock is trading at $200.  \n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	texts, err := ReadTexts(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(texts) != 2 {
		t.Fatalf("Expected 2 texts, got %d: %v", len(texts), texts)
	}
	if texts[1] != "Tesla stock is trading at $200." {
		t.Errorf("Expected trimmed line, got %q", texts[1])
	}
}

func TestReadTexts_MissingFile(t *testing.T) {
	if _, err := ReadTexts("/nonexistent/input.txt"); err == nil {
		t.Error("Expected error for missing file")
	}
}
