package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/uxaudit/internal/config"
)

func runInit(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewInitCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// TestInitCmd tests writing the configuration template.
func TestInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("writes a template the loader accepts", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", ".uxaudit")
		out, err := runInit(t, "-o", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, path) {
			t.Errorf("expected path in output, got %q", out)
		}

		f, err := config.LoadConfigFile(path)
		if err != nil {
			t.Fatalf("template does not parse: %v", err)
		}
		cfg := config.NewConfig()
		if err := f.Apply(cfg); err != nil {
			t.Fatalf("template does not apply: %v", err)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("template yields an invalid config: %v", err)
		}
		if cfg.ReportFormat != "pdf" || cfg.ArtifactTTL != config.DefaultArtifactTTL {
			t.Errorf("template does not match defaults: %+v", cfg)
		}
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".uxaudit")
		if err := os.WriteFile(path, []byte("keep"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := runInit(t, "-o", path); err == nil {
			t.Fatal("expected error for existing file")
		}
		data, _ := os.ReadFile(path)
		if string(data) != "keep" {
			t.Error("existing file was modified")
		}

		if _, err := runInit(t, "-o", path, "-f"); err != nil {
			t.Fatalf("unexpected error with force: %v", err)
		}
		data, _ = os.ReadFile(path)
		if string(data) == "keep" {
			t.Error("expected file to be overwritten with force")
		}
	})
}
