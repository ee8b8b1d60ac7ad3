package mcpserver

import (
	"context"
	"fmt"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lokireturns/loki-jsonschema-resolver/document"
	"github.com/lokireturns/loki-jsonschema-resolver/internal/fileutil"
	"github.com/lokireturns/loki-jsonschema-resolver/logging"
	"github.com/lokireturns/loki-jsonschema-resolver/resolver"
)

type resolveInput struct {
	Dir       string `json:"dir"                  jsonschema:"Directory scanned recursively for schema files"`
	DryRun    bool   `json:"dry_run,omitempty"    jsonschema:"Preview only: write nothing and return resolved documents inline"`
	MaxPasses int    `json:"max_passes,omitempty" jsonschema:"Maximum number of fixpoint passes (default from JSR_MCP_MAX_PASSES)"`
	Extension string `json:"extension,omitempty"  jsonschema:"File extension to scan for (default .json)"`
}

type fileStateEntry struct {
	File  string `json:"file"`
	State string `json:"state"`
}

type resolveOutput struct {
	RunID      string                      `json:"run_id"`
	Passes     int                         `json:"passes"`
	FileCount  int                         `json:"file_count"`
	Resolved   int                         `json:"resolved"`
	Unresolved []string                    `json:"unresolved,omitempty"`
	Files      []fileStateEntry            `json:"files,omitempty"`
	References map[string]int              `json:"references,omitempty"`
	Documents  map[string]*document.Object `json:"documents,omitempty"`
	Warning    string                      `json:"warning,omitempty"`
}

func handleResolve(ctx context.Context, _ *mcp.CallToolRequest, input resolveInput) (*mcp.CallToolResult, any, error) {
	dir, err := requireDir(input.Dir)
	if err != nil {
		return errResult(err), nil, nil
	}
	ext := input.Extension
	if ext == "" {
		ext = cfg.Extension
	}
	maxPasses := input.MaxPasses
	if maxPasses <= 0 {
		maxPasses = cfg.MaxPasses
	}

	paths, err := fileutil.FindFiles(dir, ext)
	if err != nil {
		return errResult(err), nil, nil
	}
	if len(paths) == 0 {
		return nil, resolveOutput{Warning: fmt.Sprintf("no %s files found", ext)}, nil
	}

	r, err := resolver.New(
		resolver.WithLogger(logging.NewSlogAdapter(nil)),
		resolver.WithMaxPasses(maxPasses),
		resolver.WithDryRun(input.DryRun),
	)
	if err != nil {
		return errResult(err), nil, nil
	}

	result, err := r.Run(ctx, paths)
	if err != nil {
		return errResult(err), nil, nil
	}
	return nil, summarizeResult(dir, result), nil
}

func summarizeResult(dir string, result *resolver.Result) resolveOutput {
	out := resolveOutput{
		RunID:     result.RunID,
		Passes:    result.Passes,
		FileCount: len(result.Files),
		Resolved:  len(result.Resolved),
	}
	for _, p := range result.Unresolved {
		out.Unresolved = append(out.Unresolved, relativeTo(dir, p))
	}

	paths := make([]string, 0, len(result.Files))
	for p := range result.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		out.Files = append(out.Files, fileStateEntry{File: relativeTo(dir, p), State: result.Files[p].String()})
	}

	if len(result.References) > 0 {
		out.References = make(map[string]int, len(result.References))
		for kind, n := range result.References {
			out.References[kind.String()] = n
		}
	}
	if len(result.Documents) > 0 {
		out.Documents = make(map[string]*document.Object, len(result.Documents))
		for p, doc := range result.Documents {
			out.Documents[relativeTo(dir, p)] = doc
		}
	}
	return out
}
