package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/uxaudit/internal/artifact"
	"github.com/nao1215/uxaudit/internal/config"
	"github.com/nao1215/uxaudit/internal/model"
	"github.com/nao1215/uxaudit/internal/pipeline"
)

// storingRunner stores a fake report for every URL not listed in fail.
type storingRunner struct {
	store artifact.Store
	fail  map[string]bool
}

func (r *storingRunner) Run(ctx context.Context, targetURL string, sink pipeline.Sink) *model.Audit {
	sink.Emit(model.NewProgressEvent("capturing screenshot of " + targetURL))
	audit := model.NewAudit(targetURL)
	if r.fail[targetURL] {
		audit.Finish(model.Failure(errors.New("capture failed (network): connection refused")))
		return audit
	}

	sink.Emit(model.NewProgressEvent("generating report"))
	audit.Analysis = &model.AnalysisResult{
		Summary:  "ok",
		Status:   model.AnalysisOK,
		Findings: []model.Finding{{ID: 1, Headline: "Weak CTA"}},
	}
	ref, err := r.store.Put(ctx, &artifact.Artifact{
		Name:        "audit_report_1.pdf",
		ContentType: "application/pdf",
		Data:        []byte("report for " + targetURL),
		TargetURL:   targetURL,
	})
	if err != nil {
		audit.Finish(model.Failure(err))
		return audit
	}
	audit.Artifact = ref
	audit.Finish(model.Success(ref))
	return audit
}

func newAuditor(t *testing.T, fail ...string) (*auditor, *bytes.Buffer) {
	t.Helper()

	store, err := artifact.OpenFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	failing := map[string]bool{}
	for _, u := range fail {
		failing[u] = true
	}

	var out bytes.Buffer
	return &auditor{
		runner: &storingRunner{store: store, fail: failing},
		store:  store,
		outDir: filepath.Join(t.TempDir(), "reports"),
		out:    &out,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, &out
}

func reportFiles(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read output dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestAuditor(t *testing.T) {
	t.Parallel()

	t.Run("single audit prints progress and saves the report", func(t *testing.T) {
		t.Parallel()

		a, out := newAuditor(t)
		if err := a.runSingle(context.Background(), "https://example.com"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		text := out.String()
		for _, want := range []string{"capturing screenshot of https://example.com", "generating report", "Status:    Complete", "#1 Weak CTA"} {
			if !strings.Contains(text, want) {
				t.Errorf("expected %q in output:\n%s", want, text)
			}
		}

		files := reportFiles(t, a.outDir)
		if len(files) != 1 || files[0] != "audit_report_1.pdf" {
			t.Fatalf("unexpected report files %v", files)
		}
		data, _ := os.ReadFile(filepath.Join(a.outDir, files[0]))
		if string(data) != "report for https://example.com" {
			t.Errorf("unexpected report content %q", data)
		}
	})

	t.Run("failed single audit returns its reason", func(t *testing.T) {
		t.Parallel()

		a, out := newAuditor(t, "https://down.example")
		err := a.runSingle(context.Background(), "https://down.example")
		if err == nil || !strings.Contains(err.Error(), "connection refused") {
			t.Fatalf("expected the capture failure, got %v", err)
		}
		if !strings.Contains(out.String(), "ERROR - capture failed") {
			t.Errorf("expected the failure in the summary:\n%s", out.String())
		}
	})

	t.Run("batch saves every report under a unique name", func(t *testing.T) {
		t.Parallel()

		a, out := newAuditor(t, "https://c.example")
		err := a.runBatch(context.Background(), []string{"https://a.example", "https://b.example", "https://c.example"}, 2)
		if err == nil || !strings.Contains(err.Error(), "1 of 3 audits failed") {
			t.Fatalf("expected one failure, got %v", err)
		}

		files := reportFiles(t, a.outDir)
		if len(files) != 2 {
			t.Fatalf("expected 2 report files, got %v", files)
		}
		if !strings.Contains(out.String(), "[3/3] https://c.example: capturing screenshot of https://c.example") {
			t.Errorf("expected indexed progress lines:\n%s", out.String())
		}
	})
}

func TestUniquePath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "audit_report_1.pdf")
	ref := model.ArtifactRef("7d444840-9dc0-11d1-b245-5ffdce74fad2")

	if got := uniquePath(path, ref); got != path {
		t.Errorf("expected free path to be kept, got %q", got)
	}
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "audit_report_1_7d444840.pdf")
	if got := uniquePath(path, ref); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestBuildAuditConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".uxaudit")
	if err := os.WriteFile(path, []byte("report:\n  format: json\nbatch:\n  concurrency: 5\n"), 0600); err != nil {
		t.Fatal(err)
	}

	root := NewRootCmd()
	cmd, _, err := root.Find([]string{"audit"})
	if err != nil {
		t.Fatalf("audit command not found: %v", err)
	}
	if err := cmd.ParseFlags([]string{"--config", path, "-f", "markdown", "--capture", "chrome", "-v"}); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	cfg, err := buildAuditConfig(cmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ReportFormat != "markdown" {
		t.Errorf("expected flag to override file format, got %q", cfg.ReportFormat)
	}
	if cfg.Concurrency != 5 {
		t.Errorf("expected concurrency from file, got %d", cfg.Concurrency)
	}
	if cfg.CaptureBackend != config.CaptureChrome {
		t.Errorf("expected chrome backend, got %q", cfg.CaptureBackend)
	}
	if !cfg.Verbose {
		t.Error("expected verbose from persistent flag")
	}
}

// TestRunAuditCmdCredentials sets environment variables and cannot run in
// parallel.
func TestRunAuditCmdCredentials(t *testing.T) {
	t.Setenv(config.EnvFirecrawlAPIKey, "")
	t.Setenv(config.EnvGoogleAPIKey, "")

	path := filepath.Join(t.TempDir(), ".uxaudit")
	if err := os.WriteFile(path, []byte("capture:\n  backend: firecrawl\n"), 0600); err != nil {
		t.Fatal(err)
	}

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetArgs([]string{"audit", "--config", path, "https://example.com"})
	if err := root.Execute(); !errors.Is(err, config.ErrMissingFirecrawlKey) {
		t.Errorf("expected ErrMissingFirecrawlKey, got %v", err)
	}
}
