package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/lokireturns/loki-jsonschema-resolver/internal/metrics"
	"github.com/lokireturns/loki-jsonschema-resolver/internal/watch"
)

// WatchFlags contains flags for the watch command
type WatchFlags struct {
	CommonFlags
	MaxPasses   int
	MetricsFile string
	Debounce    time.Duration
}

// SetupWatchFlags creates and configures a FlagSet for the watch command.
// Returns the FlagSet and a WatchFlags struct with bound flag variables.
func SetupWatchFlags() (*flag.FlagSet, *WatchFlags) {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	flags := &WatchFlags{}

	flags.register(fs)
	fs.IntVar(&flags.MaxPasses, "max-passes", -1, "maximum number of passes per run, 0 for no limit (overrides config)")
	fs.StringVar(&flags.MetricsFile, "metrics-file", "", "rewrite Prometheus metrics in text format to this file after every run (overrides config)")
	fs.DurationVar(&flags.Debounce, "debounce", watch.DefaultDebounce, "quiet period after the last change before re-running")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: jsonschema-resolver watch [flags] <dir>\n\n")
		Writef(fs.Output(), "Resolve the schema files under dir, then resolve again whenever one of them changes.\n")
		Writef(fs.Output(), "Stops on interrupt.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  jsonschema-resolver watch ./schemas\n")
		Writef(fs.Output(), "  jsonschema-resolver watch --debounce 1s --metrics-file /var/lib/node_exporter/jsr.prom ./schemas\n")
	}

	return fs, flags
}

// HandleWatch executes the watch command. It returns when ctx is done.
func HandleWatch(ctx context.Context, args []string) error {
	fs, flags := SetupWatchFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("watch command requires exactly one directory")
	}

	ws, err := openWorkspace(fs.Arg(0), &flags.CommonFlags, os.Stderr)
	if err != nil {
		return err
	}
	w, err := newWatcher(ws, flags)
	if err != nil {
		return err
	}
	return w.Watch(ctx)
}

// newWatcher wires a resolver run into a watcher over the workspace. One
// metrics collector spans every run.
func newWatcher(ws *workspace, flags *WatchFlags) (*watch.Watcher, error) {
	collector := metrics.New()
	r, err := newResolver(ws, collector, flags.MaxPasses, false)
	if err != nil {
		return nil, err
	}

	run := func(ctx context.Context) error {
		files, err := ws.files()
		if err != nil || len(files) == 0 {
			return err
		}
		_, runErr := r.Run(ctx, files)
		return errors.Join(runErr, writeMetrics(ws, collector, flags.MetricsFile))
	}

	w := watch.New(ws.dir, ws.cfg.Extension, run)
	w.Logger = ws.log
	w.Debounce = flags.Debounce
	return w, nil
}
