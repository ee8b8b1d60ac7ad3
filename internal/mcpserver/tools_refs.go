package mcpserver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lokireturns/loki-jsonschema-resolver/document"
	"github.com/lokireturns/loki-jsonschema-resolver/internal/fileutil"
	"github.com/lokireturns/loki-jsonschema-resolver/pointer"
	"github.com/lokireturns/loki-jsonschema-resolver/walker"
)

type listRefsInput struct {
	Path      string `json:"path"                jsonschema:"A schema file, or a directory scanned recursively"`
	Kind      string `json:"kind,omitempty"      jsonschema:"Filter by kind: internal, external, external-internal, or invalid"`
	Extension string `json:"extension,omitempty" jsonschema:"File extension to scan for in directories (default .json)"`
	Limit     int    `json:"limit,omitempty"     jsonschema:"Maximum number of results to return (default 100)"`
	Offset    int    `json:"offset,omitempty"    jsonschema:"Skip the first N results (for pagination)"`
}

type refEntry struct {
	File  string `json:"file"`
	Ref   string `json:"ref"`
	Kind  string `json:"kind"`
	Error string `json:"error,omitempty"`
}

type listRefsOutput struct {
	Total    int        `json:"total"`
	Matched  int        `json:"matched"`
	Returned int        `json:"returned"`
	Refs     []refEntry `json:"refs,omitempty"`
}

var refKinds = []string{
	pointer.Internal.String(),
	pointer.External.String(),
	pointer.ExternalInternal.String(),
	"invalid",
}

func handleListRefs(_ context.Context, _ *mcp.CallToolRequest, input listRefsInput) (*mcp.CallToolResult, any, error) {
	if input.Kind != "" && !containsFold(refKinds, input.Kind) {
		return errResult(fmt.Errorf("invalid kind %q; valid values: %s", input.Kind, strings.Join(refKinds, ", "))), nil, nil
	}
	base, files, err := schemaFiles(input.Path, input.Extension)
	if err != nil {
		return errResult(err), nil, nil
	}

	var all []refEntry
	for _, path := range files {
		doc, err := document.Load(path)
		if err != nil {
			return errResult(err), nil, nil
		}
		for _, raw := range walker.CollectRefs(doc) {
			all = append(all, describeRef(relativeTo(base, path), raw))
		}
	}

	filtered := all
	if input.Kind != "" {
		filtered = make([]refEntry, 0, len(all))
		for _, e := range all {
			if strings.EqualFold(e.Kind, input.Kind) {
				filtered = append(filtered, e)
			}
		}
	}

	page := paginate(filtered, input.Offset, input.Limit)
	return nil, listRefsOutput{
		Total:    len(all),
		Matched:  len(filtered),
		Returned: len(page),
		Refs:     page,
	}, nil
}

func describeRef(file string, raw any) refEntry {
	ref, err := pointer.Parse(raw)
	if err != nil {
		text, _ := raw.(string)
		if text == "" {
			data, _ := gojson.Marshal(raw)
			text = string(data)
		}
		return refEntry{File: file, Ref: text, Kind: "invalid", Error: err.Error()}
	}
	return refEntry{File: file, Ref: ref.Raw, Kind: ref.Kind.String()}
}

// schemaFiles returns the files named by path and the directory their
// names are reported relative to.
func schemaFiles(path, ext string) (string, []string, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil, fmt.Errorf("path is required")
	}
	if ext == "" {
		ext = cfg.Extension
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", nil, fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", nil, err
	}
	if !info.IsDir() {
		return filepath.Dir(abs), []string{abs}, nil
	}
	files, err := fileutil.FindFiles(abs, ext)
	return abs, files, err
}

func containsFold(items []string, s string) bool {
	for _, item := range items {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
