// Package commands provides CLI command handlers for jsonschema-resolver.
package commands

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	gojson "github.com/goccy/go-json"

	"github.com/lokireturns/loki-jsonschema-resolver/internal/config"
	"github.com/lokireturns/loki-jsonschema-resolver/internal/fileutil"
	"github.com/lokireturns/loki-jsonschema-resolver/logging"
)

// Output format constants
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ValidateOutputFormat validates an output format and returns an error if invalid.
func ValidateOutputFormat(format string) error {
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format '%s'. Valid formats: %s, %s", format, FormatText, FormatJSON)
	}
	return nil
}

// OutputJSON writes data to w as indented JSON.
func OutputJSON(w io.Writer, data any) error {
	bytes, err := gojson.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling to json: %w", err)
	}
	Writef(w, "%s\n", bytes)
	return nil
}

// Writef writes formatted output to the writer.
// If the write fails, it logs to stderr (useful for debugging).
func Writef(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil { //nolint:gosec // G705 - CLI tool, not a web server
		_, _ = fmt.Fprintf(os.Stderr, "write error: %v\n", err)
	}
}

// CommonFlags are the flags shared by every command that works on a
// schema directory.
type CommonFlags struct {
	Config    string
	LogLevel  string
	LogFormat string
}

func (c *CommonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.Config, "config", "", "config file (default: "+config.FileName+" in the directory, if present)")
	fs.StringVar(&c.LogLevel, "log-level", "", "log level: debug, info, warn, or error (overrides config)")
	fs.StringVar(&c.LogFormat, "log-format", "", "log format: console or json (overrides config)")
}

// workspace is a schema directory with its loaded configuration.
type workspace struct {
	dir string
	cfg *config.Config
	log logging.Logger
}

// openWorkspace resolves dir, loads its configuration, applies flag
// overrides, and builds the logger. Logs go to stderr.
func openWorkspace(dir string, common *CommonFlags, stderr io.Writer) (*workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	cfg, err := config.Discover(abs, common.Config)
	if err != nil {
		return nil, err
	}
	if common.LogLevel != "" {
		cfg.Log.Level = common.LogLevel
	}
	if common.LogFormat != "" {
		cfg.Log.Format = common.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: stderr})
	if err != nil {
		return nil, err
	}
	if cfg.Source != "" {
		log.Debug("loaded config", "path", cfg.Source)
	}
	return &workspace{dir: abs, cfg: cfg, log: log}, nil
}

// files lists the schema files of the workspace. An empty directory is
// not an error; it is logged as a warning.
func (w *workspace) files() ([]string, error) {
	files, err := fileutil.FindFiles(w.dir, w.cfg.Extension)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", w.dir, err)
	}
	if len(files) == 0 {
		w.log.Warn("no schema files found", "dir", w.dir, "extension", w.cfg.Extension)
	}
	return files, nil
}

// rel returns path relative to the workspace directory.
func (w *workspace) rel(path string) string {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
