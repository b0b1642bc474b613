package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/uxaudit/internal/artifact"
	"github.com/nao1215/uxaudit/internal/config"
	"github.com/nao1215/uxaudit/internal/log"
	"github.com/nao1215/uxaudit/internal/model"
	"github.com/nao1215/uxaudit/internal/pipeline"
	"github.com/nao1215/uxaudit/internal/report"
	"github.com/nao1215/uxaudit/internal/server"
	"github.com/nao1215/uxaudit/internal/stream"
)

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit <url>...",
		Short: "Audit one or more web pages from the terminal",
		Long: `Audit runs the full pipeline for each URL: capture a full-page screenshot,
analyze it with the vision model, annotate the findings and write the
report into the output directory.

Several URLs are audited concurrently.

Examples:
  # Audit a single page
  uxaudit audit https://example.com/pricing

  # Markdown reports for several pages into ./reports
  uxaudit audit -f markdown -o reports example.com example.org

  # Use a local headless Chrome instead of Firecrawl
  uxaudit audit --capture chrome https://example.com`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAuditCmd,
	}

	cmd.Flags().StringP("output", "o", "", "Directory for reports (default: current directory)")
	cmd.Flags().StringP("format", "f", "", "Report format: pdf, markdown or json")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency, "Number of audits run at once")
	cmd.Flags().String("capture", "", "Capture backend: firecrawl or chrome")
	cmd.Flags().StringP("audience", "a", "", "Audience the audit is written for")

	return cmd
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildAuditConfig(cmd)
	if err != nil {
		return err
	}

	targets := make([]string, len(args))
	for i, arg := range args {
		u, err := server.NormalizeURL(arg)
		if err != nil {
			return fmt.Errorf("invalid target %q: %w", arg, err)
		}
		targets[i] = u
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.CheckCredentials(); err != nil {
		return err
	}

	logger := log.NewSecureLogger(os.Stderr, log.LevelFor(cfg.Verbose, slog.LevelWarn))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	p, err := newPipeline(ctx, cfg, store, logger)
	if err != nil {
		return err
	}

	a := &auditor{
		runner:  p,
		store:   store,
		outDir:  cfg.OutputDir,
		out:     cmd.OutOrStdout(),
		logger:  logger,
		verbose: cfg.Verbose,
	}
	if len(targets) == 1 {
		return a.runSingle(ctx, targets[0])
	}
	return a.runBatch(ctx, targets, cfg.Concurrency)
}

// buildAuditConfig applies the audit flags on top of the loaded config.
func buildAuditConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.OutputDir, _ = flags.GetString("output")
	}
	if flags.Changed("format") {
		cfg.ReportFormat, _ = flags.GetString("format")
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("capture") {
		cfg.CaptureBackend, _ = flags.GetString("capture")
	}
	if flags.Changed("audience") {
		cfg.Audience, _ = flags.GetString("audience")
	}
	return cfg, nil
}

// auditor runs audits from the terminal and saves their reports.
type auditor struct {
	runner  pipeline.Runner
	store   artifact.Store
	outDir  string
	out     io.Writer
	logger  *slog.Logger
	verbose bool

	// mu serializes terminal output of concurrent audits.
	mu sync.Mutex
}

// runSingle streams progress of one audit as it happens.
func (a *auditor) runSingle(ctx context.Context, target string) error {
	fmt.Fprintf(a.out, "Auditing %s...\n", target)
	start := time.Now()

	run := stream.Start(ctx, a.runner, target)
	err := run.Stream(ctx, func(ev stream.Event) error {
		if ev.Type == stream.EventProgress {
			fmt.Fprintf(a.out, "  %s\n", ev.Message)
		}
		return nil
	})
	audit := run.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	fmt.Fprintf(a.out, "Audit finished in %s\n\n", time.Since(start).Round(time.Millisecond))
	if !a.finish(ctx, audit) {
		return fmt.Errorf("audit of %s failed: %s", target, audit.Outcome.Reason())
	}
	return nil
}

// runBatch audits targets concurrently.
func (a *auditor) runBatch(ctx context.Context, targets []string, concurrency int) error {
	fmt.Fprintf(a.out, "Starting %d audits (concurrency: %d)...\n\n", len(targets), concurrency)
	start := time.Now()

	batch := pipeline.NewBatchRunner(a.runner,
		pipeline.WithConcurrency(concurrency),
		pipeline.WithBatchLogger(a.logger),
		pipeline.WithProgress(func(index int, targetURL string, ev model.ProgressEvent) {
			a.mu.Lock()
			defer a.mu.Unlock()
			fmt.Fprintf(a.out, "[%d/%d] %s: %s\n", index+1, len(targets), targetURL, ev.Message)
		}),
	)
	audits, err := batch.Run(ctx, targets)

	fmt.Fprintf(a.out, "\nBatch finished in %s\n\n", time.Since(start).Round(time.Millisecond))

	failed := 0
	for _, audit := range audits {
		if !a.finish(ctx, audit) {
			failed++
		}
	}
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d audits failed", failed, len(audits))
	}
	return nil
}

// finish saves the report of a successful audit and prints its summary.
// It reports whether the audit succeeded.
func (a *auditor) finish(ctx context.Context, audit *model.Audit) bool {
	location := ""
	ok := audit.Outcome != nil && audit.Outcome.Succeeded()
	if ok {
		path, err := a.save(ctx, audit.Artifact)
		if err != nil {
			a.logger.Error("failed to save report", "url", audit.TargetURL, "error", err)
			ok = false
		}
		location = path
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := report.NewSimpleWriter(a.out, report.WithVerbose(a.verbose)).Write(audit, location); err != nil {
		a.logger.Error("failed to print summary", "url", audit.TargetURL, "error", err)
	}
	return ok
}

// save copies the stored report into the output directory and removes it
// from the store.
func (a *auditor) save(ctx context.Context, ref model.ArtifactRef) (string, error) {
	art, err := a.store.Get(ctx, ref)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(a.outDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := uniquePath(filepath.Join(a.outDir, art.Name), ref)
	if err := os.WriteFile(path, art.Data, 0600); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := a.store.Delete(ctx, ref); err != nil {
		a.logger.Warn("failed to remove saved report from store", "ref", ref, "error", err)
	}
	return path, nil
}

// uniquePath appends a short form of ref when path already exists. Reports
// generated in the same second share a name.
func uniquePath(path string, ref model.ArtifactRef) string {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return path
	}
	ext := filepath.Ext(path)
	short := strings.SplitN(ref.String(), "-", 2)[0]
	return strings.TrimSuffix(path, ext) + "_" + short + ext
}
