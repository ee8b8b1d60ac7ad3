// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes the schema resolver as MCP tools over stdio.
package mcpserver

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	jsonschemaresolver "github.com/lokireturns/loki-jsonschema-resolver"
)

const serverInstructions = `jsonschema-resolver MCP server: flattens directories of JSON Schema / OpenAPI documents by inlining every $ref.

Tools:
- list_refs: read-only listing of every $ref per file with its kind (internal, external, external-internal)
- locate: read-only lookup of the value a single $ref points to, relative to a file
- resolve: run the resolver over a directory; use dry_run=true to preview without writing

Configuration: defaults are configurable via JSR_MCP_* environment variables set in your MCP client config.

Key settings:
- JSR_MCP_LIST_LIMIT (default: 100): default result limit for list_refs
- JSR_MCP_MAX_LIMIT (default: 1000): hard cap on any limit
- JSR_MCP_MAX_PASSES (default: 100): pass limit for resolve
- JSR_MCP_EXTENSION (default: .json): file extension scanned in directories`

// Run starts the MCP server over stdio and blocks until the client disconnects
// or the context is cancelled.
func Run(ctx context.Context) error {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "jsonschema-resolver", Version: jsonschemaresolver.Version()},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve",
		Description: "Resolve every $ref in the JSON schema files of a directory, rewriting each file in place with the referenced fragments inlined. Annotation fields at a reference site (description, title, nullable, format, x-virtual) survive substitution. Returns the number of passes and the state of every file. Use dry_run=true to preview: nothing is written and resolved documents are returned inline. Fails with the list of unresolved files when references form a cycle.",
	}, handleResolve)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_refs",
		Description: "List the $ref values of a JSON schema file, or of every file in a directory. Each entry has the file (relative to the directory), the reference, and its kind: internal (#/...), external (./file.json), or external-internal (./file.json#/...). Use kind to filter and offset/limit to paginate.",
	}, handleListRefs)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "locate",
		Description: "Look up the value a $ref points to, as seen from a given file. Relative file parts are resolved against that file's directory. External references without a pointer return the target's properties object, or the whole document when it has none. A pointer ending in an enum index returns a single-member enum schema.",
	}, handleLocate)
}

// paginate applies offset/limit pagination to a slice, returning the
// requested page. A non-positive limit defaults to cfg.ListLimit.
func paginate[T any](items []T, offset, limit int) []T {
	if limit <= 0 {
		limit = cfg.ListLimit
	}
	if limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}
	if offset < 0 || offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end < offset || end > len(items) { // overflow or beyond slice
		end = len(items)
	}
	return items[offset:end]
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}

// relativeTo returns path relative to base with forward slashes, or path
// unchanged when no relative form exists.
func relativeTo(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// requireDir validates a directory argument.
func requireDir(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("dir is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("invalid dir: %w", err)
	}
	return abs, nil
}
