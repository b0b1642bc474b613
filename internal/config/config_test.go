package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestNewConfig documents the defaults.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default listen address is :8000", func(t *testing.T) {
		t.Parallel()
		if cfg.ListenAddress != ":8000" {
			t.Errorf("expected ListenAddress to be ':8000', got '%s'", cfg.ListenAddress)
		}
	})

	t.Run("default capture backend is firecrawl", func(t *testing.T) {
		t.Parallel()
		if cfg.CaptureBackend != CaptureFirecrawl {
			t.Errorf("expected firecrawl, got %q", cfg.CaptureBackend)
		}
	})

	t.Run("default report format is pdf", func(t *testing.T) {
		t.Parallel()
		if cfg.ReportFormat != "pdf" {
			t.Errorf("expected pdf, got %q", cfg.ReportFormat)
		}
	})

	t.Run("default artifact ttl is one hour", func(t *testing.T) {
		t.Parallel()
		if cfg.ArtifactTTL != time.Hour {
			t.Errorf("expected 1h, got %v", cfg.ArtifactTTL)
		}
	})

	t.Run("default artifact dir is under the XDG cache dir", func(t *testing.T) {
		t.Parallel()
		if !strings.HasPrefix(cfg.ArtifactDir, XDGCacheDir()) {
			t.Errorf("expected %q under %q", cfg.ArtifactDir, XDGCacheDir())
		}
	})

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected valid defaults, got %v", err)
		}
	})
}

// TestConfigValidate checks one rule per case.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"empty listen address returns ErrEmptyListenAddress", func(c *Config) { c.ListenAddress = "" }, ErrEmptyListenAddress},
		{"chrome backend is valid", func(c *Config) { c.CaptureBackend = CaptureChrome }, nil},
		{"unknown capture backend returns ErrUnknownCaptureBackend", func(c *Config) { c.CaptureBackend = "selenium" }, ErrUnknownCaptureBackend},
		{"redis backend is valid", func(c *Config) { c.ArtifactBackend = ArtifactRedis }, nil},
		{"unknown artifact backend returns ErrUnknownArtifactBackend", func(c *Config) { c.ArtifactBackend = "s3" }, ErrUnknownArtifactBackend},
		{"markdown format is valid", func(c *Config) { c.ReportFormat = "markdown" }, nil},
		{"unknown format returns ErrUnknownReportFormat", func(c *Config) { c.ReportFormat = "docx" }, ErrUnknownReportFormat},
		{"zero timeout disables the stage limit", func(c *Config) { c.RenderTimeout = 0 }, nil},
		{"negative timeout returns ErrInvalidTimeout", func(c *Config) { c.AnalyzeTimeout = -time.Second }, ErrInvalidTimeout},
		{"zero screenshot limit returns ErrInvalidMaxBytes", func(c *Config) { c.MaxScreenshotBytes = 0 }, ErrInvalidMaxBytes},
		{"zero report image limit returns ErrInvalidMaxBytes", func(c *Config) { c.MaxReportImageBytes = 0 }, ErrInvalidMaxBytes},
		{"zero ttl returns ErrInvalidTTL", func(c *Config) { c.ArtifactTTL = 0 }, ErrInvalidTTL},
		{"zero font size returns ErrInvalidFontSize", func(c *Config) { c.FontSize = 0 }, ErrInvalidFontSize},
		{"zero concurrency returns ErrInvalidConcurrency", func(c *Config) { c.Concurrency = 0 }, ErrInvalidConcurrency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCheckCredentials(t *testing.T) {
	t.Parallel()

	t.Run("firecrawl needs its key", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.GoogleAPIKey = "g"
		if err := cfg.CheckCredentials(); !errors.Is(err, ErrMissingFirecrawlKey) {
			t.Errorf("expected ErrMissingFirecrawlKey, got %v", err)
		}
	})

	t.Run("chrome needs no firecrawl key", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.CaptureBackend = CaptureChrome
		cfg.GoogleAPIKey = "g"
		if err := cfg.CheckCredentials(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("analysis always needs the google key", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.FirecrawlAPIKey = "fc"
		if err := cfg.CheckCredentials(); !errors.Is(err, ErrMissingGoogleKey) {
			t.Errorf("expected ErrMissingGoogleKey, got %v", err)
		}
	})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// TestLoadConfigFile tests reading and applying the YAML file.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		f, err := LoadConfigFile("/nonexistent/path/.uxaudit")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if f != nil {
			t.Error("expected nil file when not found")
		}
	})

	t.Run("file values override defaults", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `server:
  listen: "127.0.0.1:9000"
capture:
  backend: chrome
  timeout: 45s
analysis:
  model: gemini-2.5-pro
  audience: B2B SaaS buyers
report:
  format: markdown
artifacts:
  backend: redis
  ttl: 30m
  delete_on_download: true
  redis:
    address: redis:6379
    db: 2
batch:
  concurrency: 4
`)
		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cfg := NewConfig()
		if err := f.Apply(cfg); err != nil {
			t.Fatalf("unexpected apply error: %v", err)
		}

		checks := []struct {
			name      string
			got, want any
		}{
			{"listen", cfg.ListenAddress, "127.0.0.1:9000"},
			{"capture backend", cfg.CaptureBackend, CaptureChrome},
			{"capture timeout", cfg.CaptureTimeout, 45 * time.Second},
			{"model", cfg.Model, "gemini-2.5-pro"},
			{"audience", cfg.Audience, "B2B SaaS buyers"},
			{"format", cfg.ReportFormat, "markdown"},
			{"artifact backend", cfg.ArtifactBackend, ArtifactRedis},
			{"ttl", cfg.ArtifactTTL, 30 * time.Minute},
			{"delete on download", cfg.DeleteOnDownload, true},
			{"redis address", cfg.RedisAddress, "redis:6379"},
			{"redis db", cfg.RedisDB, 2},
			{"concurrency", cfg.Concurrency, 4},
			{"untouched analyze timeout", cfg.AnalyzeTimeout, DefaultAnalyzeTimeout},
			{"untouched firecrawl url", cfg.FirecrawlURL, DefaultFirecrawlURL},
		}
		for _, c := range checks {
			if c.got != c.want {
				t.Errorf("%s: expected %v, got %v", c.name, c.want, c.got)
			}
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `invalid: yaml: content: [}`)
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("invalid duration names the key", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "artifacts:\n  ttl: soon\n")
		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		err = f.Apply(NewConfig())
		if err == nil || !strings.Contains(err.Error(), "artifacts.ttl") {
			t.Errorf("expected an artifacts.ttl error, got %v", err)
		}
	})
}

// TestFindConfigFile tests the lookup order for explicit paths.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "server: {}\n")
		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile("/nonexistent/path/config.yaml"); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}

// TestLoad covers the full layering. It sets environment variables and
// cannot run in parallel.
func TestLoad(t *testing.T) {
	t.Run("environment supplies API keys", func(t *testing.T) {
		t.Setenv(EnvFirecrawlAPIKey, "fc-test")
		t.Setenv(EnvGoogleAPIKey, "AIza-test")

		path := writeConfig(t, "report:\n  format: json\n")
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.FirecrawlAPIKey != "fc-test" || cfg.GoogleAPIKey != "AIza-test" {
			t.Errorf("expected keys from environment, got %q and %q", cfg.FirecrawlAPIKey, cfg.GoogleAPIKey)
		}
		if cfg.ReportFormat != "json" {
			t.Errorf("expected json from file, got %q", cfg.ReportFormat)
		}
		if cfg.ConfigFilePath != path {
			t.Errorf("expected ConfigFilePath %q, got %q", path, cfg.ConfigFilePath)
		}
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if !strings.HasSuffix(XDGConfigDir(), AppName) {
		t.Errorf("unexpected config dir %q", XDGConfigDir())
	}
	if !strings.HasSuffix(XDGCacheDir(), AppName) {
		t.Errorf("unexpected cache dir %q", XDGCacheDir())
	}
}
