package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/lokireturns/loki-jsonschema-resolver/document"
	"github.com/lokireturns/loki-jsonschema-resolver/internal/metrics"
	"github.com/lokireturns/loki-jsonschema-resolver/resolver"
)

// ResolveFlags contains flags for the resolve command
type ResolveFlags struct {
	CommonFlags
	DryRun      bool
	MaxPasses   int
	MetricsFile string
	Format      string
}

// SetupResolveFlags creates and configures a FlagSet for the resolve command.
// Returns the FlagSet and a ResolveFlags struct with bound flag variables.
func SetupResolveFlags() (*flag.FlagSet, *ResolveFlags) {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	flags := &ResolveFlags{}

	flags.register(fs)
	fs.BoolVar(&flags.DryRun, "dry-run", false, "resolve in memory and print the changed documents instead of writing them")
	fs.IntVar(&flags.MaxPasses, "max-passes", -1, "maximum number of passes, 0 for no limit (overrides config)")
	fs.StringVar(&flags.MetricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file after the run (overrides config)")
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text or json")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: jsonschema-resolver resolve [flags] <dir>\n\n")
		Writef(fs.Output(), "Inline every $ref in the schema files under dir, rewriting each file in place.\n")
		Writef(fs.Output(), "Files are processed in passes until none holds a reference.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  jsonschema-resolver resolve ./schemas\n")
		Writef(fs.Output(), "  jsonschema-resolver resolve --dry-run --format json ./schemas | jq '.files'\n")
		Writef(fs.Output(), "  jsonschema-resolver resolve --log-level debug --max-passes 10 ./schemas\n")
		Writef(fs.Output(), "\nExit Codes:\n")
		Writef(fs.Output(), "  0    All references resolved\n")
		Writef(fs.Output(), "  1    A reference could not be resolved, or the files reference each other in a cycle\n")
	}

	return fs, flags
}

// HandleResolve executes the resolve command
func HandleResolve(ctx context.Context, args []string) error {
	fs, flags := SetupResolveFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("resolve command requires exactly one directory")
	}
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}

	ws, err := openWorkspace(fs.Arg(0), &flags.CommonFlags, os.Stderr)
	if err != nil {
		return err
	}
	return runResolve(ctx, os.Stdout, ws, flags)
}

func runResolve(ctx context.Context, w io.Writer, ws *workspace, flags *ResolveFlags) error {
	files, err := ws.files()
	if err != nil || len(files) == 0 {
		return err
	}

	collector := metrics.New()
	r, err := newResolver(ws, collector, flags.MaxPasses, flags.DryRun)
	if err != nil {
		return err
	}

	result, runErr := r.Run(ctx, files)
	metricsErr := writeMetrics(ws, collector, flags.MetricsFile)
	if runErr != nil {
		return errors.Join(fmt.Errorf("resolving %s: %w", ws.dir, runErr), metricsErr)
	}
	if metricsErr != nil {
		return metricsErr
	}

	summary := summarize(ws, result, flags.DryRun)
	if flags.Format == FormatJSON {
		return OutputJSON(w, summary)
	}
	printSummary(w, summary)
	return nil
}

// newResolver builds a resolver from the workspace config. maxPasses
// overrides the config when non-negative.
func newResolver(ws *workspace, recorder resolver.Recorder, maxPasses int, dryRun bool) (*resolver.Resolver, error) {
	opts := ws.cfg.ResolverOptions()
	if maxPasses >= 0 {
		opts = append(opts, resolver.WithMaxPasses(maxPasses))
	}
	opts = append(opts,
		resolver.WithLogger(ws.log),
		resolver.WithMetrics(recorder),
		resolver.WithDryRun(dryRun),
	)
	return resolver.New(opts...)
}

// writeMetrics exports the collector when a metrics file is configured.
// The flag value takes precedence over the config file.
func writeMetrics(ws *workspace, collector *metrics.Collector, flagPath string) error {
	path := flagPath
	if path == "" {
		path = ws.cfg.MetricsFile
	}
	if path == "" {
		return nil
	}
	if err := collector.WriteTextfile(path); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	ws.log.Debug("wrote metrics", "path", path)
	return nil
}

type fileSummary struct {
	File  string `json:"file"`
	State string `json:"state"`
}

type runSummary struct {
	RunID      string                      `json:"run_id"`
	Passes     int                         `json:"passes"`
	Files      []fileSummary               `json:"files"`
	References map[string]int              `json:"references"`
	DryRun     bool                        `json:"dry_run,omitempty"`
	Documents  map[string]*document.Object `json:"documents,omitempty"`
}

func summarize(ws *workspace, result *resolver.Result, dryRun bool) runSummary {
	s := runSummary{
		RunID:      result.RunID,
		Passes:     result.Passes,
		References: make(map[string]int, len(result.References)),
		DryRun:     dryRun,
	}
	paths := make([]string, 0, len(result.Files))
	for p := range result.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		s.Files = append(s.Files, fileSummary{File: ws.rel(p), State: result.Files[p].String()})
	}
	for kind, n := range result.References {
		s.References[kind.String()] = n
	}
	if len(result.Documents) > 0 {
		s.Documents = make(map[string]*document.Object, len(result.Documents))
		for p, doc := range result.Documents {
			s.Documents[ws.rel(p)] = doc
		}
	}
	return s
}

func printSummary(w io.Writer, s runSummary) {
	Writef(w, "Run: %s\n", s.RunID)
	Writef(w, "Passes: %d\n", s.Passes)
	Writef(w, "Files: %d\n", len(s.Files))
	for _, f := range s.Files {
		Writef(w, "  %-20s %s\n", f.State, f.File)
	}

	kinds := make([]string, 0, len(s.References))
	for k := range s.References {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	Writef(w, "References:\n")
	for _, k := range kinds {
		Writef(w, "  %-20s %d\n", k, s.References[k])
	}

	if !s.DryRun {
		return
	}
	names := make([]string, 0, len(s.Documents))
	for name := range s.Documents {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		data, err := document.MarshalIndent(s.Documents[name])
		if err != nil {
			Writef(w, "\n==> %s <==\nerror: %v\n", name, err)
			continue
		}
		Writef(w, "\n==> %s <==\n%s", name, data)
	}
}
