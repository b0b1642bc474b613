package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/uxaudit/internal/artifact"
	"github.com/nao1215/uxaudit/internal/config"
	"github.com/nao1215/uxaudit/internal/log"
	"github.com/nao1215/uxaudit/internal/pipeline"
	"github.com/nao1215/uxaudit/internal/server"
)

// janitorInterval is how often expired reports are swept while serving.
const janitorInterval = time.Minute

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web front end",
		Long: `Serve starts an HTTP server with a small web page. Audits started from the
page stream their progress as server-sent events, and the finished report
is offered for download.

Endpoints:
  GET /                     web page
  GET /api/stream?url=...   progress events of a new audit
  GET /api/download/:ref    finished report
  GET /health               liveness

Examples:
  uxaudit serve
  uxaudit serve -l 127.0.0.1:9000 --delete-on-download`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("listen", "l", config.DefaultListenAddress, "Address to listen on")
	cmd.Flags().Bool("delete-on-download", false, "Remove a report after its first download")
	cmd.Flags().Bool("json-log", false, "Write logs as JSON")

	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("listen") {
		cfg.ListenAddress, _ = cmd.Flags().GetString("listen")
	}
	if cmd.Flags().Changed("delete-on-download") {
		cfg.DeleteOnDownload, _ = cmd.Flags().GetBool("delete-on-download")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	jsonLog, _ := cmd.Flags().GetBool("json-log")
	level := log.LevelFor(cfg.Verbose, slog.LevelInfo)
	logger := log.NewSecureLogger(os.Stderr, level)
	if jsonLog {
		logger = log.NewSecureJSONLogger(os.Stderr, level)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	go artifact.RunJanitor(ctx, store, janitorInterval, logger)

	// Without credentials the server still starts and reports the problem
	// on every audit.
	var runner pipeline.Runner
	if err := cfg.CheckCredentials(); err != nil {
		logger.Warn("audits disabled until credentials are provided", "error", err)
	} else {
		p, err := newPipeline(ctx, cfg, store, logger)
		if err != nil {
			return err
		}
		runner = p
	}

	srv := server.New(runner, store,
		server.WithLogger(logger),
		server.WithPreflight(cfg.CheckCredentials),
		server.WithDeleteOnDownload(cfg.DeleteOnDownload),
		server.WithVersion(getVersion()),
	)
	return srv.ListenAndServe(ctx, cfg.ListenAddress)
}
