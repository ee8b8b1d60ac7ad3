package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/lokireturns/loki-jsonschema-resolver/resolver"
)

// ResetFlags contains flags for the reset command
type ResetFlags struct {
	CommonFlags
}

// SetupResetFlags creates and configures a FlagSet for the reset command.
// Returns the FlagSet and a ResetFlags struct with bound flag variables.
func SetupResetFlags() (*flag.FlagSet, *ResetFlags) {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	flags := &ResetFlags{}

	flags.register(fs)

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: jsonschema-resolver reset [flags] <dir>\n\n")
		Writef(fs.Output(), "Rewrite every schema file under dir in the canonical layout without resolving\n")
		Writef(fs.Output(), "anything, so a later resolve produces a minimal diff.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  jsonschema-resolver reset ./schemas\n")
	}

	return fs, flags
}

// HandleReset executes the reset command
func HandleReset(ctx context.Context, args []string) error {
	fs, flags := SetupResetFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("reset command requires exactly one directory")
	}

	ws, err := openWorkspace(fs.Arg(0), &flags.CommonFlags, os.Stderr)
	if err != nil {
		return err
	}
	return runReset(ctx, os.Stdout, ws)
}

func runReset(ctx context.Context, w io.Writer, ws *workspace) error {
	files, err := ws.files()
	if err != nil || len(files) == 0 {
		return err
	}

	r, err := resolver.New(resolver.WithLogger(ws.log))
	if err != nil {
		return err
	}
	if err := r.Reset(ctx, files); err != nil {
		return fmt.Errorf("resetting %s: %w", ws.dir, err)
	}
	Writef(w, "Reset %d file(s)\n", len(files))
	return nil
}
