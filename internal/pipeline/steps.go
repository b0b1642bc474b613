package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/uxaudit/internal/annotate"
	"github.com/nao1215/uxaudit/internal/artifact"
	"github.com/nao1215/uxaudit/internal/capture"
	"github.com/nao1215/uxaudit/internal/model"
	"github.com/nao1215/uxaudit/internal/report"
	"github.com/nao1215/uxaudit/internal/vision"
)

// ErrNoScreenshot is returned when a stage needs a screenshot that an
// earlier stage did not provide.
var ErrNoScreenshot = errors.New("no screenshot available")

// CaptureStep takes the screenshot.
type CaptureStep struct {
	capturer capture.Capturer
}

// NewCaptureStep creates a capture step.
func NewCaptureStep(c capture.Capturer) *CaptureStep {
	return &CaptureStep{capturer: c}
}

// Name returns the step name.
func (s *CaptureStep) Name() string { return "capture" }

// State implements Step.
func (s *CaptureStep) State() model.State { return model.StateCapturing }

// Announce implements Step.
func (s *CaptureStep) Announce(audit *model.Audit) string {
	return "capturing screenshot of " + audit.TargetURL
}

// Do implements Step. Every capture failure is fatal.
func (s *CaptureStep) Do(ctx context.Context, audit *model.Audit) error {
	res, err := s.capturer.Capture(ctx, audit.TargetURL)
	if err != nil {
		return err
	}
	if res == nil || res.Image == nil {
		return &capture.Error{Kind: capture.KindNoResult, Err: capture.ErrNoScreenshot}
	}
	audit.Screenshot = res.Image
	audit.PageTitle = res.Title
	return nil
}

// AnalyzeStep asks the vision model for a critique.
type AnalyzeStep struct {
	analyzer vision.Analyzer
	logger   *slog.Logger
}

// NewAnalyzeStep creates an analysis step.
func NewAnalyzeStep(a vision.Analyzer, logger *slog.Logger) *AnalyzeStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzeStep{analyzer: a, logger: logger}
}

// Name returns the step name.
func (s *AnalyzeStep) Name() string { return "analyze" }

// State implements Step.
func (s *AnalyzeStep) State() model.State { return model.StateAnalyzing }

// Announce implements Step.
func (s *AnalyzeStep) Announce(*model.Audit) string { return "analyzing with vision model" }

// Do implements Step. Analysis failures are soft: the audit continues with
// an empty result whose status tells why.
func (s *AnalyzeStep) Do(ctx context.Context, audit *model.Audit) error {
	if audit.Screenshot == nil {
		return ErrNoScreenshot
	}

	result, err := s.analyzer.Analyze(ctx, audit.Screenshot)
	if err == nil && result != nil {
		audit.Analysis = result
		return nil
	}
	if err == nil {
		err = vision.ErrEmptyResponse
	}

	status := model.AnalysisRequestFailed
	if vision.IsKind(err, vision.KindMalformedOutput) {
		status = model.AnalysisParseFailed
	}
	s.logger.Warn("analysis unavailable, continuing without findings",
		"url", audit.TargetURL,
		"status", status,
		"error", err,
	)
	audit.Analysis = model.NewEmptyAnalysis(status, err.Error())
	return nil
}

// Renderer draws an analysis onto a screenshot.
type Renderer interface {
	Render(ctx context.Context, base *model.RasterImage, analysis *model.AnalysisResult) (*model.RasterImage, annotate.Stats, error)
}

// RenderStep draws the findings.
type RenderStep struct {
	renderer Renderer
	logger   *slog.Logger
}

// NewRenderStep creates a rendering step.
func NewRenderStep(r Renderer, logger *slog.Logger) *RenderStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &RenderStep{renderer: r, logger: logger}
}

// Name returns the step name.
func (s *RenderStep) Name() string { return "render" }

// State implements Step.
func (s *RenderStep) State() model.State { return model.StateRendering }

// Announce implements Step.
func (s *RenderStep) Announce(*model.Audit) string { return "rendering annotations" }

// Do implements Step. If the whole image cannot be annotated, the plain
// screenshot goes into the report. The screenshot is released either way.
func (s *RenderStep) Do(ctx context.Context, audit *model.Audit) error {
	if audit.Screenshot == nil {
		return ErrNoScreenshot
	}
	base := audit.Screenshot
	audit.Screenshot = nil

	out, stats, err := s.renderer.Render(ctx, base, audit.Analysis)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.logger.Warn("annotation failed, using the plain screenshot", "url", audit.TargetURL, "error", err)
		out, stats = base, annotate.Stats{}
	}
	if stats.Skipped > 0 {
		s.logger.Info("some findings were not drawn", "url", audit.TargetURL, "drawn", stats.Drawn, "skipped", stats.Skipped)
	}

	audit.Annotated = out
	audit.Overlays = stats.Drawn
	return nil
}

// AssembleStep generates the report and stores it.
type AssembleStep struct {
	generator report.Generator
	store     artifact.Store
	now       func() time.Time
}

// NewAssembleStep creates an assembly step.
func NewAssembleStep(g report.Generator, store artifact.Store) *AssembleStep {
	return &AssembleStep{generator: g, store: store, now: time.Now}
}

// Name returns the step name.
func (s *AssembleStep) Name() string { return "assemble" }

// State implements Step.
func (s *AssembleStep) State() model.State { return model.StateAssembling }

// Announce implements Step.
func (s *AssembleStep) Announce(*model.Audit) string { return "generating report" }

// Do implements Step. Generation and storage failures are fatal.
func (s *AssembleStep) Do(ctx context.Context, audit *model.Audit) error {
	if audit.Annotated == nil {
		return ErrNoScreenshot
	}
	now := s.now()

	var buf bytes.Buffer
	err := s.generator.Generate(&buf, &report.Document{
		TargetURL:   audit.TargetURL,
		PageTitle:   audit.PageTitle,
		GeneratedAt: now,
		Analysis:    audit.Analysis,
		Image:       audit.Annotated,
	})
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}
	audit.Annotated = nil

	ref, err := s.store.Put(ctx, &artifact.Artifact{
		Name:        fmt.Sprintf("audit_report_%d.%s", now.Unix(), s.generator.Extension()),
		ContentType: s.generator.ContentType(),
		Data:        buf.Bytes(),
		TargetURL:   audit.TargetURL,
	})
	if err != nil {
		return fmt.Errorf("failed to store report: %w", err)
	}
	audit.Artifact = ref
	return nil
}

// Dependencies are the collaborators of a standard audit pipeline.
type Dependencies struct {
	Capturer  capture.Capturer
	Analyzer  vision.Analyzer
	Renderer  Renderer
	Generator report.Generator
	Store     artifact.Store
}

// NewAuditPipeline builds the capture, analyze, render and assemble pipeline.
func NewAuditPipeline(deps Dependencies, opts ...Option) *Pipeline {
	p := New(opts...)
	p.AddSteps(
		NewCaptureStep(deps.Capturer),
		NewAnalyzeStep(deps.Analyzer, p.logger),
		NewRenderStep(deps.Renderer, p.logger),
		NewAssembleStep(deps.Generator, deps.Store),
	)
	return p
}
