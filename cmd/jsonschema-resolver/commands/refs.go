package commands

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/lokireturns/loki-jsonschema-resolver/document"
	"github.com/lokireturns/loki-jsonschema-resolver/pointer"
	"github.com/lokireturns/loki-jsonschema-resolver/walker"
)

// kindInvalid labels $ref values that do not parse.
const kindInvalid = "invalid"

// RefsFlags contains flags for the refs command
type RefsFlags struct {
	CommonFlags
	Kind   string
	Format string
	Quiet  bool
}

// SetupRefsFlags creates and configures a FlagSet for the refs command.
// Returns the FlagSet and a RefsFlags struct with bound flag variables.
func SetupRefsFlags() (*flag.FlagSet, *RefsFlags) {
	fs := flag.NewFlagSet("refs", flag.ContinueOnError)
	flags := &RefsFlags{}

	flags.register(fs)
	fs.StringVar(&flags.Kind, "kind", "", "only list references of this kind: internal, external, external-internal, or invalid")
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text or json")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: tab-separated rows without a header")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: tab-separated rows without a header")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: jsonschema-resolver refs [flags] <dir>\n\n")
		Writef(fs.Output(), "List every $ref in the schema files under dir with its kind. Nothing is written.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  jsonschema-resolver refs ./schemas\n")
		Writef(fs.Output(), "  jsonschema-resolver refs --kind invalid ./schemas\n")
		Writef(fs.Output(), "  jsonschema-resolver refs -q ./schemas | cut -f1 | sort -u\n")
	}

	return fs, flags
}

// HandleRefs executes the refs command
func HandleRefs(args []string) error {
	fs, flags := SetupRefsFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("refs command requires exactly one directory")
	}
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}
	if err := validateKind(flags.Kind); err != nil {
		return err
	}

	ws, err := openWorkspace(fs.Arg(0), &flags.CommonFlags, os.Stderr)
	if err != nil {
		return err
	}
	return runRefs(os.Stdout, ws, flags)
}

func validateKind(kind string) error {
	if kind == "" {
		return nil
	}
	valid := []string{pointer.Internal.String(), pointer.External.String(), pointer.ExternalInternal.String(), kindInvalid}
	for _, v := range valid {
		if strings.EqualFold(v, kind) {
			return nil
		}
	}
	return fmt.Errorf("invalid kind '%s'. Valid kinds: %s", kind, strings.Join(valid, ", "))
}

// RefEntry describes one $ref occurrence.
type RefEntry struct {
	File  string `json:"file"`
	Ref   string `json:"ref"`
	Kind  string `json:"kind"`
	Error string `json:"error,omitempty"`
}

func runRefs(w io.Writer, ws *workspace, flags *RefsFlags) error {
	files, err := ws.files()
	if err != nil {
		return err
	}

	entries := []RefEntry{}
	for _, path := range files {
		doc, err := document.Load(path)
		if err != nil {
			return err
		}
		for _, raw := range walker.CollectRefs(doc) {
			e := describeRef(ws.rel(path), raw)
			if flags.Kind == "" || strings.EqualFold(e.Kind, flags.Kind) {
				entries = append(entries, e)
			}
		}
	}

	if flags.Format == FormatJSON {
		return OutputJSON(w, entries)
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		ref := e.Ref
		if e.Error != "" {
			ref += " (" + e.Error + ")"
		}
		rows = append(rows, []string{e.File, e.Kind, ref})
	}
	RenderTable(w, []string{"FILE", "KIND", "REF"}, rows, flags.Quiet)
	return nil
}

func describeRef(file string, raw any) RefEntry {
	ref, err := pointer.Parse(raw)
	if err == nil {
		return RefEntry{File: file, Ref: ref.Raw, Kind: ref.Kind.String()}
	}
	text, ok := raw.(string)
	if !ok {
		data, _ := gojson.Marshal(raw)
		text = string(data)
	}
	return RefEntry{File: file, Ref: text, Kind: kindInvalid, Error: err.Error()}
}
