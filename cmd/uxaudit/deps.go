package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nao1215/uxaudit/internal/annotate"
	"github.com/nao1215/uxaudit/internal/artifact"
	"github.com/nao1215/uxaudit/internal/capture"
	"github.com/nao1215/uxaudit/internal/config"
	"github.com/nao1215/uxaudit/internal/pipeline"
	"github.com/nao1215/uxaudit/internal/report"
	"github.com/nao1215/uxaudit/internal/vision"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// loadConfig layers defaults, the config file and the environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, _ = cmd.Root().PersistentFlags().GetString("config")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// openStore opens the configured artifact backend.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (artifact.Store, error) {
	switch cfg.ArtifactBackend {
	case config.ArtifactRedis:
		store := artifact.NewRedisStore(artifact.RedisConfig{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.ArtifactTTL,
		})
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddress, err)
		}
		logger.Info("artifact store opened", "backend", "redis", "addr", cfg.RedisAddress)
		return store, nil
	default:
		store, err := artifact.OpenFileStore(cfg.ArtifactDir, artifact.WithTTL(cfg.ArtifactTTL))
		if err != nil {
			return nil, err
		}
		logger.Info("artifact store opened", "backend", "file", "dir", cfg.ArtifactDir)
		return store, nil
	}
}

// newCapturer builds the configured capture backend.
func newCapturer(cfg *config.Config) capture.Capturer {
	if cfg.CaptureBackend == config.CaptureChrome {
		var opts []capture.ChromeOption
		if cfg.ChromePath != "" {
			opts = append(opts, capture.WithExecPath(cfg.ChromePath))
		}
		return capture.NewChromeCapturer(opts...)
	}
	return capture.NewFirecrawlCapturer(cfg.FirecrawlAPIKey,
		capture.WithBaseURL(cfg.FirecrawlURL),
		capture.WithMaxScreenshotBytes(cfg.MaxScreenshotBytes),
	)
}

// newPipeline wires every collaborator into an audit pipeline. The
// credentials must have been checked.
func newPipeline(ctx context.Context, cfg *config.Config, store artifact.Store, logger *slog.Logger) (*pipeline.Pipeline, error) {
	analyzer, err := vision.NewGeminiAnalyzer(ctx, cfg.GoogleAPIKey,
		vision.WithModel(cfg.Model),
		vision.WithAudience(cfg.Audience),
		vision.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}

	generator, err := report.NewGenerator(report.Format(cfg.ReportFormat),
		report.WithMaxImageBytes(cfg.MaxReportImageBytes),
	)
	if err != nil {
		return nil, err
	}

	return pipeline.NewAuditPipeline(pipeline.Dependencies{
		Capturer:  newCapturer(cfg),
		Analyzer:  analyzer,
		Renderer:  annotate.New(annotate.WithFontSize(cfg.FontSize), annotate.WithLogger(logger)),
		Generator: generator,
		Store:     store,
	},
		pipeline.WithLogger(logger),
		pipeline.WithTimeouts(pipeline.Timeouts{
			Capture:  cfg.CaptureTimeout,
			Analyze:  cfg.AnalyzeTimeout,
			Render:   cfg.RenderTimeout,
			Assemble: cfg.AssembleTimeout,
		}),
	), nil
}
