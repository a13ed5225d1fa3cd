package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	berrors "git.home.luguber.info/inful/reportsite/internal/errors"
)

// DefaultPath is the configuration file used when none is given. Unlike an
// explicit path, it may be absent.
const DefaultPath = "reportsite.yaml"

// Config represents the site build configuration
type Config struct {
	Paths   PathsConfig   `yaml:"paths"`
	Site    SiteConfig    `yaml:"site"`
	Debug   DebugConfig   `yaml:"debug"`
	Metrics MetricsConfig `yaml:"metrics"`
	Output  OutputConfig  `yaml:"output"`
}

// PathsConfig locates the build inputs and the output root.
type PathsConfig struct {
	Reports   string `yaml:"reports"`   // report metadata *.json
	Files     string `yaml:"files"`     // raw document files, linked into the build
	HTML      string `yaml:"html"`      // pre-rendered sanitized HTML bodies
	Static    string `yaml:"static"`    // assets mirrored to <build>/static
	Templates string `yaml:"templates"` // first template root
	Pages     string `yaml:"pages"`     // second template root; each *.html is a top-level page
	Build     string `yaml:"build"`
}

// SiteConfig tunes page content.
type SiteConfig struct {
	RecentReports    int `yaml:"recent_reports"`
	HTMLPrefixLength int `yaml:"html_prefix_length"` // chars stripped from a format filename
}

// DebugConfig holds the fast-iteration switches.
type DebugConfig struct {
	Only       string `yaml:"only"`
	SkipTopics *bool  `yaml:"skip_topics,omitempty"`
}

// SkipTopicPages reports whether per-topic pages are suppressed. Unless set
// explicitly it follows single-report mode.
func (d DebugConfig) SkipTopicPages() bool {
	if d.SkipTopics != nil {
		return *d.SkipTopics
	}
	return d.Only != ""
}

// MetricsConfig configures Prometheus textfile output.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// OutputConfig configures auxiliary build outputs.
type OutputConfig struct {
	BuildReport string `yaml:"build_report"`
}

// Defaults returns the configuration used when no file overrides it.
func Defaults() *Config {
	return &Config{
		Paths: PathsConfig{
			Reports:   "reports/reports",
			Files:     "reports/files",
			HTML:      "sanitized-html",
			Static:    "static",
			Templates: "templates",
			Pages:     "pages",
			Build:     "build",
		},
		Site: SiteConfig{
			RecentReports:    20,
			HTMLPrefixLength: 6,
		},
	}
}

// Load loads configuration from the specified file, then applies .env files
// and environment overrides, and validates the result.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	cfg := Defaults()
	// #nosec G304 -- configuration path is chosen by the operator
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := decode(data, cfg); err != nil {
			return nil, berrors.Wrap(err, berrors.CategoryConfig, berrors.SeverityFatal, "failed to parse configuration").
				WithContext("path", configPath)
		}
	case errors.Is(err, os.ErrNotExist) && configPath == DefaultPath:
		slog.Debug("No configuration file, using defaults", "path", configPath)
	case errors.Is(err, os.ErrNotExist):
		return nil, berrors.ConfigNotFound(configPath)
	default:
		return nil, berrors.Wrap(err, berrors.CategoryConfig, berrors.SeverityFatal, "failed to read configuration").
			WithContext("path", configPath)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode expands environment variables and strictly decodes YAML over cfg.
func decode(data []byte, cfg *Config) error {
	expanded := os.ExpandEnv(string(data))
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

// Init writes a configuration file populated with the defaults.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return berrors.New(berrors.CategoryConfig, berrors.SeverityFatal,
			"configuration file already exists (use --force to overwrite)").WithContext("path", configPath)
	}

	data, err := yaml.Marshal(Defaults())
	if err != nil {
		return berrors.InternalError("marshal default configuration", err)
	}
	header := "# reportsite configuration. Paths are relative to the working directory.\n"
	// #nosec G306 -- configuration is not secret
	if err := os.WriteFile(configPath, append([]byte(header), data...), 0o644); err != nil {
		return berrors.FileSystem("write", configPath, err)
	}
	return nil
}
