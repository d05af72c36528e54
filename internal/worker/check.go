package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/finfact/internal/model"
)

// Runner processes one text through the verification pipeline
type Runner interface {
	ProcessText(ctx context.Context, text string) *model.PipelineResult
}

// CheckJob verifies one input text
type CheckJob struct {
	Line   int
	Text   string
	Runner Runner
}

// Execute runs the check job
func (j *CheckJob) Execute(ctx context.Context) Result {
	if ctx.Err() != nil {
		return &CheckResult{
			Line: j.Line,
			Text: j.Text,
			Err:  ctx.Err(),
		}
	}
	return &CheckResult{
		Line:   j.Line,
		Text:   j.Text,
		Result: j.Runner.ProcessText(ctx, j.Text),
	}
}

// CheckResult is the outcome of one check job
type CheckResult struct {
	Line   int
	Text   string
	Result *model.PipelineResult
	Err    error
}

// GetError returns the job error, if any
func (r *CheckResult) GetError() error {
	return r.Err
}

// ReadTexts loads batch inputs from a file, one text per line.
// Blank lines and lines starting with # are skipped.
func ReadTexts(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var texts []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		texts = append(texts, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}

	return texts, nil
}
