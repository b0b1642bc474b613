package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".uxaudit"

// xdgConfigFile is the file name looked up in XDGConfigDir.
const xdgConfigFile = "config.yaml"

// Environment variables holding API keys.
const (
	EnvFirecrawlAPIKey = "FIRECRAWL_API_KEY"
	EnvGoogleAPIKey    = "GOOGLE_API_KEY"
)

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the structure of the .uxaudit configuration file. Every field is
// optional; unset fields keep the value already in Config. Durations use
// Go syntax such as "90s" or "2m".
type File struct {
	Server struct {
		Listen string `yaml:"listen,omitempty"`
	} `yaml:"server,omitempty"`

	Capture struct {
		Backend      string `yaml:"backend,omitempty"`
		FirecrawlURL string `yaml:"firecrawl_url,omitempty"`
		ChromePath   string `yaml:"chrome_path,omitempty"`
		MaxBytes     int64  `yaml:"max_bytes,omitempty"`
		Timeout      string `yaml:"timeout,omitempty"`
	} `yaml:"capture,omitempty"`

	Analysis struct {
		Model    string `yaml:"model,omitempty"`
		Audience string `yaml:"audience,omitempty"`
		Timeout  string `yaml:"timeout,omitempty"`
	} `yaml:"analysis,omitempty"`

	Render struct {
		FontSize float64 `yaml:"font_size,omitempty"`
		Timeout  string  `yaml:"timeout,omitempty"`
	} `yaml:"render,omitempty"`

	Report struct {
		Format        string `yaml:"format,omitempty"`
		MaxImageBytes int64  `yaml:"max_image_bytes,omitempty"`
		Timeout       string `yaml:"timeout,omitempty"`
	} `yaml:"report,omitempty"`

	Artifacts struct {
		Backend          string `yaml:"backend,omitempty"`
		Dir              string `yaml:"dir,omitempty"`
		TTL              string `yaml:"ttl,omitempty"`
		DeleteOnDownload *bool  `yaml:"delete_on_download,omitempty"`
		Redis            struct {
			Address  string `yaml:"address,omitempty"`
			Password string `yaml:"password,omitempty"`
			DB       int    `yaml:"db,omitempty"`
		} `yaml:"redis,omitempty"`
	} `yaml:"artifacts,omitempty"`

	Batch struct {
		Concurrency int    `yaml:"concurrency,omitempty"`
		OutputDir   string `yaml:"output_dir,omitempty"`
	} `yaml:"batch,omitempty"`
}

// LoadConfigFile reads a configuration file. It returns ErrConfigNotFound
// if the file does not exist.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &f, nil
}

// FindConfigFile searches for the configuration file in this order:
//  1. configPath, if it is not empty
//  2. .uxaudit in the current directory
//  3. .uxaudit in the user's home directory
//  4. config.yaml in XDGConfigDir
//
// It returns an empty string if nothing is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), xdgConfigFile))

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Apply copies the values set in f onto c.
func (f *File) Apply(c *Config) error {
	setString(&c.ListenAddress, f.Server.Listen)

	setString(&c.CaptureBackend, f.Capture.Backend)
	setString(&c.FirecrawlURL, f.Capture.FirecrawlURL)
	setString(&c.ChromePath, f.Capture.ChromePath)
	if f.Capture.MaxBytes != 0 {
		c.MaxScreenshotBytes = f.Capture.MaxBytes
	}

	setString(&c.Model, f.Analysis.Model)
	setString(&c.Audience, f.Analysis.Audience)

	if f.Render.FontSize != 0 {
		c.FontSize = f.Render.FontSize
	}

	setString(&c.ReportFormat, f.Report.Format)
	if f.Report.MaxImageBytes != 0 {
		c.MaxReportImageBytes = f.Report.MaxImageBytes
	}

	setString(&c.ArtifactBackend, f.Artifacts.Backend)
	setString(&c.ArtifactDir, f.Artifacts.Dir)
	if f.Artifacts.DeleteOnDownload != nil {
		c.DeleteOnDownload = *f.Artifacts.DeleteOnDownload
	}
	setString(&c.RedisAddress, f.Artifacts.Redis.Address)
	setString(&c.RedisPassword, f.Artifacts.Redis.Password)
	if f.Artifacts.Redis.DB != 0 {
		c.RedisDB = f.Artifacts.Redis.DB
	}

	if f.Batch.Concurrency != 0 {
		c.Concurrency = f.Batch.Concurrency
	}
	setString(&c.OutputDir, f.Batch.OutputDir)

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"capture.timeout", f.Capture.Timeout, &c.CaptureTimeout},
		{"analysis.timeout", f.Analysis.Timeout, &c.AnalyzeTimeout},
		{"render.timeout", f.Render.Timeout, &c.RenderTimeout},
		{"report.timeout", f.Report.Timeout, &c.AssembleTimeout},
		{"artifacts.ttl", f.Artifacts.TTL, &c.ArtifactTTL},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.key, d.raw, err)
		}
		*d.dst = v
	}
	return nil
}

// LoadEnv reads API keys from the environment. Keys already set are kept.
func (c *Config) LoadEnv() {
	if c.FirecrawlAPIKey == "" {
		c.FirecrawlAPIKey = os.Getenv(EnvFirecrawlAPIKey)
	}
	if c.GoogleAPIKey == "" {
		c.GoogleAPIKey = os.Getenv(EnvGoogleAPIKey)
	}
}

// Load builds a Config from defaults, the config file found by
// FindConfigFile(configPath) and the environment. An explicit configPath
// that does not exist is an error.
func Load(configPath string) (*Config, error) {
	cfg := NewConfig()
	cfg.ConfigFilePath = configPath

	path := FindConfigFile(configPath)
	if path == "" && configPath != "" {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
	}
	if path != "" {
		f, err := LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := f.Apply(cfg); err != nil {
			return nil, err
		}
		cfg.ConfigFilePath = path
	}

	cfg.LoadEnv()
	return cfg, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
