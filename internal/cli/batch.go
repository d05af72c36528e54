package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/ppiankov/finfact/internal/pipeline"
	"github.com/ppiankov/finfact/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify claims in multiple texts from a file in parallel",
	Long: `Batch processes multiple inputs concurrently:
- Read texts from the input file (one per line, # comments skipped)
- Process texts in parallel with configurable worker count
- Each text runs the full extract/resolve/verify pipeline
- Write one JSON result per input

Example:
  finfact batch headlines.txt
  finfact batch headlines.txt --concurrency 10 --output-dir ./results
  finfact batch headlines.txt --market-url https://quotes.internal`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./finfact-results", "output directory for results")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")

	// Shared pipeline flags (same variables as check)
	batchCmd.Flags().DurationVar(&deadline, "deadline", 20*time.Second, "per-text deadline")
	batchCmd.Flags().StringVar(&marketURL, "market-url", "", "market data quote service base URL")
	batchCmd.Flags().StringSliceVar(&providerOrder, "providers", nil, "override provider order")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable result caching")
	batchCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	batchCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	texts, err := worker.ReadTexts(file)
	if err != nil {
		return err
	}
	if len(texts) == 0 {
		return fmt.Errorf("no inputs found in %s", file)
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.BatchWorkers = concurrency
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  finfact Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Inputs:       %d\n", len(texts))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.BatchWorkers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p := pipeline.Build(cfg)

	pool := worker.NewPool(cfg.Concurrency.BatchWorkers)
	pool.Start()

	// Hard stop for the whole batch; jobs cut off by it surface as
	// context errors in their results.
	timer := time.AfterFunc(batchTimeout, pool.Shutdown)
	defer timer.Stop()

	start := time.Now()
	for i, text := range texts {
		pool.Submit(&worker.CheckJob{
			Line:   i + 1,
			Text:   text,
			Runner: p,
		})
	}

	results := pool.Wait()

	sort.Slice(results, func(i, j int) bool {
		return results[i].(*worker.CheckResult).Line < results[j].(*worker.CheckResult).Line
	})

	var failed int
	for _, r := range results {
		cr := r.(*worker.CheckResult)
		if cr.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ line %d: %v\n", cr.Line, cr.Err)
			continue
		}

		path := filepath.Join(outputDir, fmt.Sprintf("result-%04d.json", cr.Line))
		data, err := json.MarshalIndent(cr.Result, "", "  ")
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ line %d: marshal result: %v\n", cr.Line, err)
			continue
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ line %d: %v\n", cr.Line, err)
			continue
		}

		if verbose {
			fmt.Fprintf(os.Stderr, "✓ line %d: %d claims (provider: %s) -> %s\n",
				cr.Line, len(cr.Result.Claims), cr.Result.ProviderUsed, path)
		}
	}

	fmt.Fprintf(os.Stderr, "\nProcessed %d inputs in %v (%d failed)\n",
		len(results), time.Since(start).Round(time.Millisecond), failed)

	if failed > 0 {
		return fmt.Errorf("%d of %d inputs failed", failed, len(results))
	}
	return nil
}
