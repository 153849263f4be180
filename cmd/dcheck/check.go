package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dcheck/dcheck/internal/config"
	"github.com/dcheck/dcheck/internal/executor"
	"github.com/dcheck/dcheck/internal/prober"
	"github.com/dcheck/dcheck/internal/ratelimit"
	"github.com/dcheck/dcheck/internal/report"
	"github.com/dcheck/dcheck/internal/status"
	"github.com/dcheck/dcheck/internal/wordlist"
)

// exitInterrupted is the conventional status for a run stopped by SIGINT
const exitInterrupted = 130

var checkCmd = &cobra.Command{
	Use:   "check [pattern]",
	Short: "Check domain availability",
	Long: `Check which candidate domains are unregistered.

Candidates come from a pattern or a wordlist:
  dcheck check 'ab*' --max 4           # ab + 2 charset characters
  dcheck check 'ab*' --min 3 --max 5   # ab + 1..3 characters
  dcheck check hello --max 5           # exactly hello.com
  dcheck check --wordlist words.txt --max 8

Each candidate is looked up via RDAP: 404 means available, 200 registered.
Progress is checkpointed so an interrupted run can continue with --resume.

Settings are read from .dcheck.yaml (or --config), then DCHECK_* environment
variables (a .env file is loaded first), then flags.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadCheckConfig(cmd, args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		// Set up context with cancellation
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Handle signals for graceful shutdown
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case <-sigCh:
				fmt.Fprintf(os.Stderr, "\n%s Stopping, waiting for workers...\n", yellow("→"))
				cancel()
			case <-ctx.Done():
			}
		}()

		summary, err := runCheck(ctx, cfg, os.Stdout, os.Stderr)
		signal.Stop(sigCh)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if summary.Interrupted {
			os.Exit(exitInterrupted)
		}
	},
}

func init() {
	addCheckFlags(checkCmd)
	rootCmd.AddCommand(checkCmd)
}

func addCheckFlags(cmd *cobra.Command) {
	d := config.DefaultCheckConfig()
	f := cmd.Flags()
	f.String("wordlist", "", "Path to wordlist file (one word per line) instead of a pattern")
	f.String("tld", d.TLD, "Top-level domain to check, e.g. 'com'")
	f.Int("max", 0, "Maximum length of the second-level label (inclusive)")
	f.Int("min", 0, "Minimum label length (default: --max for patterns, 1 for wordlists)")
	f.String("charset", d.Charset, "Characters used for wildcard expansion")
	f.Float64("rate", d.Rate, "Maximum lookups per second (0 disables throttling)")
	f.Int("concurrency", d.Concurrency, "Number of concurrent lookup workers")
	f.Float64("timeout", d.Timeout.Seconds(), "HTTP timeout per RDAP request in seconds")
	f.Int("retries", d.Retries, "Number of retries for failed requests")
	f.StringP("output", "o", d.Output, "File receiving available domains (empty disables)")
	f.Bool("resume", false, "Resume from the last checkpoint if one exists")
	f.String("progress-file", d.ProgressFile, "Checkpoint location: JSON file, .db/.sqlite journal or redis:// URL")
	f.Bool("shuffle", false, "Check domains in random order")
	f.Uint64("seed", 0, "Shuffle seed for a reproducible order (0 = random)")
	f.Bool("no-progress", false, "Disable the periodic progress line")
	f.String("endpoint", d.Endpoint, "RDAP service base URL")
	f.Bool("insecure", false, "Skip TLS certificate verification")
	f.String("status-addr", "", "Serve live status on this address (e.g. 127.0.0.1:8080)")
	f.String("xlsx", "", "Also write an XLSX report to this path")
	f.String("config", "", "Config file (default: "+config.DefaultFileName+" if present)")
	f.String("env-file", ".env", "Environment file loaded before reading DCHECK_* variables")
}

// loadCheckConfig layers defaults, the config file, the environment and the
// flags that were set explicitly, then validates the result.
func loadCheckConfig(cmd *cobra.Command, args []string) (config.CheckConfig, error) {
	f := cmd.Flags()
	cfg := config.DefaultCheckConfig()

	envFile, _ := f.GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return cfg, err
	}

	path, _ := f.GetString("config")
	explicit := path != ""
	if !explicit {
		path = config.DefaultFileName
	}
	fc, err := config.LoadFile(path, explicit)
	if err != nil {
		return cfg, err
	}
	if err := fc.Apply(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}

	if len(args) > 0 {
		cfg.Pattern = args[0]
	}
	if f.Changed("wordlist") {
		cfg.Wordlist, _ = f.GetString("wordlist")
	}
	if f.Changed("tld") {
		cfg.TLD, _ = f.GetString("tld")
	}
	if f.Changed("max") {
		cfg.MaxLen, _ = f.GetInt("max")
	}
	if f.Changed("min") {
		cfg.MinLen, _ = f.GetInt("min")
	}
	if f.Changed("charset") {
		cfg.Charset, _ = f.GetString("charset")
	}
	if f.Changed("rate") {
		cfg.Rate, _ = f.GetFloat64("rate")
	}
	if f.Changed("concurrency") {
		cfg.Concurrency, _ = f.GetInt("concurrency")
	}
	if f.Changed("timeout") {
		secs, _ := f.GetFloat64("timeout")
		cfg.Timeout = time.Duration(secs * float64(time.Second))
	}
	if f.Changed("retries") {
		cfg.Retries, _ = f.GetInt("retries")
	}
	if f.Changed("output") {
		cfg.Output, _ = f.GetString("output")
	}
	if f.Changed("resume") {
		cfg.Resume, _ = f.GetBool("resume")
	}
	if f.Changed("progress-file") {
		cfg.ProgressFile, _ = f.GetString("progress-file")
	}
	if f.Changed("shuffle") {
		cfg.Shuffle, _ = f.GetBool("shuffle")
	}
	if f.Changed("seed") {
		cfg.Seed, _ = f.GetUint64("seed")
	}
	if f.Changed("no-progress") {
		cfg.NoProgress, _ = f.GetBool("no-progress")
	}
	if f.Changed("endpoint") {
		cfg.Endpoint, _ = f.GetString("endpoint")
	}
	if f.Changed("insecure") {
		cfg.Insecure, _ = f.GetBool("insecure")
	}
	if f.Changed("status-addr") {
		cfg.StatusAddr, _ = f.GetString("status-addr")
	}
	if f.Changed("xlsx") {
		cfg.XLSX, _ = f.GetString("xlsx")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// runCheck builds the candidate space and lookup stack for cfg and runs it.
// Setup failures are returned before any lookup is made.
func runCheck(ctx context.Context, cfg config.CheckConfig, stdout, stderr io.Writer) (*executor.Summary, error) {
	diag := executor.SyncWriter(stderr)

	if w := cfg.SuffixWarning(); w != "" {
		printWarning(diag, "%s", w)
	}
	if cfg.Insecure {
		printWarning(diag, "TLS certificate verification is disabled")
	}

	var words []string
	if cfg.WordlistMode() {
		var err error
		words, err = wordlist.Load(cfg.Wordlist, cfg.MaxLen, diag)
		if err != nil {
			return nil, err
		}
	}
	space, err := cfg.Candidates(words)
	if err != nil {
		return nil, err
	}
	if cfg.WordlistMode() {
		fmt.Fprintf(diag, "Loaded %d words from wordlist, %d match length criteria\n", len(words), space.Len())
	}

	limiter, err := ratelimit.New(cfg.Rate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	pc := cfg.ProberConfig()
	pc.Diagnostics = diag
	checker, err := prober.New(pc, prober.NewHTTPClient(cfg.Concurrency, cfg.Insecure))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	ecfg := executor.DefaultConfig()
	ecfg.Candidates = space
	ecfg.Suffix = cfg.Suffix()
	ecfg.Concurrency = cfg.Concurrency
	ecfg.Checker = checker
	ecfg.Limiter = limiter
	ecfg.Resume = cfg.Resume
	ecfg.Checkpoint = cfg.ProgressFile
	ecfg.Shuffle = cfg.Shuffle
	ecfg.Seed = cfg.Seed
	ecfg.SinkPath = cfg.Output
	ecfg.Out = stdout
	ecfg.Diagnostics = diag
	if cfg.NoProgress {
		ecfg.Progress = 0
	}

	exec, err := executor.New(ecfg)
	if err != nil {
		return nil, err
	}

	if cfg.StatusAddr != "" {
		statusCtx, stopStatus := context.WithCancel(ctx)
		defer stopStatus()
		status.Quiet(diag)
		addr, err := status.NewServer(exec).Start(statusCtx, cfg.StatusAddr, nil)
		if err != nil {
			printWarning(diag, "%v", err)
		} else {
			fmt.Fprintf(diag, "%s Status available at http://%s/status\n", cyan("→"), addr)
		}
	}

	summary, err := exec.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("run failed: %w", err)
	}

	if cfg.XLSX != "" {
		if err := report.WriteXLSX(cfg.XLSX, exec.Stats().Available(), summary); err != nil {
			printWarning(diag, "could not write report: %v", err)
		} else {
			fmt.Fprintf(diag, "%s Report written to %s\n", green("✓"), cfg.XLSX)
		}
	}

	printSummary(diag, summary, cfg.ProgressFile)
	return summary, nil
}
