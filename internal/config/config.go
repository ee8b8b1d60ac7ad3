// Package config loads resolver settings from an optional YAML file and
// the environment.
package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/lokireturns/loki-jsonschema-resolver/logging"
	"github.com/lokireturns/loki-jsonschema-resolver/merger"
	"github.com/lokireturns/loki-jsonschema-resolver/referrors"
	"github.com/lokireturns/loki-jsonschema-resolver/resolver"
)

// FileName is the config file looked up in the target directory.
const FileName = ".jsonschema-resolver.yaml"

// Environment variables that override file settings.
const (
	EnvLogLevel  = "JSR_LOG_LEVEL"
	EnvLogFormat = "JSR_LOG_FORMAT"
	EnvMaxPasses = "JSR_MAX_PASSES"
)

// Config holds every setting the CLI passes on to the resolver.
type Config struct {
	AnnotationFields []string `yaml:"annotation_fields"`
	PreserveKeys     []string `yaml:"preserve_keys"`
	Extension        string   `yaml:"extension"`
	MaxPasses        int      `yaml:"max_passes"`
	Log              Log      `yaml:"log"`
	MetricsFile      string   `yaml:"metrics_file,omitempty"`

	// Source is the file the config was read from, empty for defaults.
	Source string `yaml:"-"`
}

// Log configures the CLI logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		AnnotationFields: append([]string(nil), merger.DefaultAnnotationFields...),
		PreserveKeys:     append([]string(nil), merger.DefaultPreserveKeys...),
		Extension:        ".json",
		MaxPasses:        resolver.DefaultMaxPasses,
		Log: Log{
			Level:  "info",
			Format: logging.FormatConsole,
		},
	}
}

// Load reads the YAML file at path over the defaults. Keys absent from the
// file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is supplied by the user
	if err != nil {
		return nil, &referrors.ConfigError{Option: "config", Value: path, Message: "reading config file", Cause: err}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &referrors.ConfigError{Option: "config", Value: path, Message: "parsing YAML", Cause: err}
	}
	cfg.Source = path
	return cfg, nil
}

// Discover loads explicit when set. Otherwise it loads FileName from dir if
// present, falling back to Default. Environment overrides are applied and
// the result is validated.
func Discover(dir, explicit string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	switch {
	case explicit != "":
		cfg, err = Load(explicit)
	default:
		candidate := filepath.Join(dir, FileName)
		if _, statErr := os.Stat(candidate); statErr == nil {
			cfg, err = Load(candidate)
		} else if errors.Is(statErr, fs.ErrNotExist) {
			cfg = Default()
		} else {
			err = &referrors.ConfigError{Option: "config", Value: candidate, Cause: statErr}
		}
	}
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from JSR_* environment variables. Invalid
// values log a warning and are ignored.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	c.MaxPasses = envInt(EnvMaxPasses, c.MaxPasses)
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return n
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Extension, ".") || len(c.Extension) < 2 {
		return &referrors.ConfigError{Option: "extension", Value: c.Extension, Message: "must start with a dot"}
	}
	if c.MaxPasses < 0 {
		return &referrors.ConfigError{Option: "max_passes", Value: c.MaxPasses, Message: "must not be negative"}
	}
	for _, f := range c.AnnotationFields {
		if strings.TrimSpace(f) == "" {
			return &referrors.ConfigError{Option: "annotation_fields", Message: "field names must not be empty"}
		}
	}
	for _, k := range c.PreserveKeys {
		if strings.TrimSpace(k) == "" {
			return &referrors.ConfigError{Option: "preserve_keys", Message: "key names must not be empty"}
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return &referrors.ConfigError{Option: "log.level", Value: c.Log.Level, Cause: err}
	}
	switch strings.ToLower(c.Log.Format) {
	case "", logging.FormatConsole, logging.FormatJSON:
	default:
		return &referrors.ConfigError{Option: "log.format", Value: c.Log.Format, Message: "must be console or json"}
	}
	return nil
}

// ResolverOptions converts the config into resolver options.
func (c *Config) ResolverOptions() []resolver.Option {
	return []resolver.Option{
		resolver.WithAnnotationFields(c.AnnotationFields...),
		resolver.WithPreserveKeys(c.PreserveKeys...),
		resolver.WithMaxPasses(c.MaxPasses),
	}
}
