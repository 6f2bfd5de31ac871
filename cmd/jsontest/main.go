package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ormasoftchile/jsontest/pkg/config"
	"github.com/ormasoftchile/jsontest/pkg/fetch"
	"github.com/ormasoftchile/jsontest/pkg/report"
	"github.com/ormasoftchile/jsontest/pkg/runner"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// errTestsFailed signals a completed run with failures; it is not printed.
var errTestsFailed = errors.New("tests failed")

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to read .env: %v\n", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errTestsFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

type runFlags struct {
	timeout     time.Duration
	concurrency int
	noColor     bool
	verbose     bool
	diff        string
	html        string
	json        bool
}

func newRootCmd() *cobra.Command {
	var f runFlags
	root := &cobra.Command{
		Use:   "jsontest <file|folder>",
		Short: "Declarative JSON API test runner",
		Long: `Run the test documents in a file or folder. Each test issues a GET for
request.url and compares the response with the expected response section.

A folder runs every file below it, sorted by name. Files starting with "."
and *.eval sidecars are not tests. When <test>.eval exists the resolved test
document is compared with it and no request is made.

A path that matches a subcommand name (schema, fixture, version) runs that
subcommand; write it as ./version to run a test folder of that name.

Exit codes:
  0 - every test passed or was skipped
  1 - at least one test failed or could not run`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runTests(cmd, args[0], &f)
		},
	}

	fl := root.Flags()
	fl.DurationVar(&f.timeout, "timeout", 0, "Per-request timeout (0 means none)")
	fl.IntVar(&f.concurrency, "concurrency", 1, "Leaf tests run at once within a folder")
	fl.BoolVar(&f.noColor, "no-color", false, "Disable coloured output")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "Print every test as it starts and enable debug logs")
	fl.StringVar(&f.diff, "diff", "ndiff", "Diff format for failures: ndiff or unified")
	fl.StringVar(&f.html, "html", "", "Also write an HTML failure report to this file")
	fl.BoolVar(&f.json, "json", false, "Print results as JSON instead of console lines")

	root.AddCommand(newSchemaCmd())
	root.AddCommand(newFixtureCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "jsontest %s (build: %s)\n", version, commit)
		},
	})
	return root
}

// overlay applies the flags the user set explicitly on top of cfg.
func (f *runFlags) overlay(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if changed("no-color") {
		cfg.NoColor = f.noColor
	}
	if changed("verbose") {
		cfg.Verbose = f.verbose
	}
	if changed("diff") {
		cfg.Diff = f.diff
	}
	if changed("html") {
		cfg.HTML = f.html
	}
}

// newLogger logs at level, or at debug level when verbose.
func newLogger(w io.Writer, level slog.Level, verbose bool) *slog.Logger {
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func runTests(cmd *cobra.Command, path string, f *runFlags) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	f.overlay(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	diff, err := report.ParseDiffFormat(cfg.Diff)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	logger := newLogger(cmd.ErrOrStderr(), slog.LevelWarn, cfg.Verbose).With("run_id", runID)
	r := &runner.Runner{
		Fetcher:     fetch.New(cfg.Timeout),
		Concurrency: cfg.Concurrency,
		Logger:      logger,
	}
	node, err := r.Create(path)
	if err != nil {
		return fmt.Errorf("cannot run %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	var rep runner.Reporter = runner.NopReporter{}
	var console *report.Console
	if !f.json {
		console = report.NewConsole(out, report.Options{NoColor: cfg.NoColor, Verbose: cfg.Verbose, Diff: diff})
		rep = console
	}

	start := time.Now()
	logger.Debug("run started", "path", path, "concurrency", cfg.Concurrency, "timeout", cfg.Timeout)
	res := node.Run(cmd.Context(), rep)
	logger.Debug("run finished", "elapsed", time.Since(start), "passed", res.Passed())

	if f.json {
		if err := writeJSON(out, runID, res); err != nil {
			return err
		}
	} else {
		console.Summary(res)
	}
	if cfg.HTML != "" {
		if err := writeHTMLFile(cfg.HTML, path, res); err != nil {
			return err
		}
	}
	if !res.Passed() {
		return errTestsFailed
	}
	return nil
}

func writeJSON(w io.Writer, runID string, res runner.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	err := enc.Encode(struct {
		RunID   string         `json:"run_id"`
		Passed  bool           `json:"passed"`
		Summary runner.Summary `json:"summary"`
		Result  runner.Result  `json:"result"`
	}{runID, res.Passed(), runner.Tally(res), res})
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return nil
}

func writeHTMLFile(file, title string, res runner.Result) error {
	fh, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("create html report: %w", err)
	}
	if err := report.WriteHTML(fh, title, res); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}
