package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/finfact/internal/model"
	"github.com/ppiankov/finfact/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	outJSON       string
	deadline      time.Duration
	marketURL     string
	providerOrder []string
	noCache       bool
	httpProxy     string
	httpsProxy    string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check [text]",
	Short: "Extract and verify financial claims in a text",
	Long: `Check runs the full verification pipeline on one input:
- Extract financial claims (LLM providers with pattern fallback)
- Resolve company mentions to ticker symbols
- Fetch market data and score each claim

Reads from stdin when no text argument is given.

Example:
  finfact check "Apple's market cap is $3 trillion"
  finfact check --json result.json "Tesla stock is trading at $200"
  cat article.txt | finfact check --market-url https://quotes.internal`,
	Args: cobra.ArbitraryArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&outJSON, "json", "", "write result JSON to this path (default: stdout)")
	checkCmd.Flags().DurationVar(&deadline, "deadline", 20*time.Second, "per-request deadline")
	checkCmd.Flags().StringVar(&marketURL, "market-url", "", "market data quote service base URL")
	checkCmd.Flags().StringSliceVar(&providerOrder, "providers", nil, "override provider order (e.g., ollama,openai,anthropic)")
	checkCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable result caching")
	checkCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	checkCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = strings.TrimSpace(string(data))
	}
	if text == "" {
		return fmt.Errorf("no input text (pass it as an argument or on stdin)")
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Input: %d bytes\n", len(text))
		fmt.Fprintf(os.Stderr, "Deadline: %v\n", cfg.Concurrency.RequestDeadline)
		fmt.Fprintln(os.Stderr)
	}

	p := pipeline.Build(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Concurrency.RequestDeadline+5*time.Second)
	defer cancel()

	if verbose {
		for _, provider := range p.Providers() {
			status := "unavailable"
			if provider.IsAvailable(ctx) {
				status = "ok"
			}
			fmt.Fprintf(os.Stderr, "Provider %s: %s\n", provider.Name(), status)
		}
	}

	result := p.ProcessText(ctx, text)

	if err := writeResult(result, outJSON); err != nil {
		return err
	}

	printSummary(result)
	return nil
}

// buildConfig merges defaults, config file / env vars, CLI flags, and
// provider API keys from the environment.
func buildConfig() (*model.Config, error) {
	cfg, err := model.LoadConfig(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if deadline > 0 {
		cfg.Concurrency.RequestDeadline = deadline
	}
	if marketURL != "" {
		cfg.Market.BaseURL = marketURL
	}
	if len(providerOrder) > 0 {
		cfg.Providers.Order = providerOrder
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if httpProxy != "" {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if httpsProxy != "" {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
	cfg.Output.Verbose = verbose

	// API keys come from the environment, never from flags.
	if cfg.Providers.OpenAI.APIKey == "" {
		cfg.Providers.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Providers.Anthropic.APIKey == "" {
		cfg.Providers.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && cfg.Providers.Ollama.BaseURL == "http://localhost:11434" {
		cfg.Providers.Ollama.BaseURL = baseURL
	}

	return cfg, nil
}

// writeResult renders the pipeline result as JSON
func writeResult(result *model.PipelineResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	if path == "" {
		fmt.Println(string(data))
		return nil
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", path)
	}
	return nil
}

// printSummary prints a one-line-per-claim digest to stderr
func printSummary(result *model.PipelineResult) {
	fmt.Fprintf(os.Stderr, "\nClaims: %d (provider: %s", len(result.Claims), result.ProviderUsed)
	if result.Degraded {
		fmt.Fprintf(os.Stderr, ", degraded")
	}
	fmt.Fprintf(os.Stderr, ")\n")

	for _, cr := range result.Claims {
		ticker := cr.Entity.Ticker
		if ticker == "" {
			ticker = "?"
		}
		fmt.Fprintf(os.Stderr, "  [%s] %s (%s) confidence %.2f - %s\n",
			cr.Verification.Verdict, cr.Claim.EntityMention, ticker,
			cr.Verification.Confidence, cr.Verification.Explanation)
	}
}
