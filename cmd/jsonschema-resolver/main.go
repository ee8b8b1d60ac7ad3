package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	jsonschemaresolver "github.com/lokireturns/loki-jsonschema-resolver"
	"github.com/lokireturns/loki-jsonschema-resolver/cmd/jsonschema-resolver/commands"
	"github.com/lokireturns/loki-jsonschema-resolver/internal/mcpserver"
)

var commandNames = []string{"resolve", "reset", "refs", "watch", "mcp", "version", "help"}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "version", "-v", "--version":
		fmt.Printf("jsonschema-resolver v%s (commit %s, built %s)\n",
			jsonschemaresolver.Version(), jsonschemaresolver.Commit(), jsonschemaresolver.BuildTime())
		return
	case "help", "-h", "--help":
		printUsage()
		return
	case "resolve":
		err = commands.HandleResolve(ctx, args)
	case "reset":
		err = commands.HandleReset(ctx, args)
	case "refs":
		err = commands.HandleRefs(args)
	case "watch":
		err = commands.HandleWatch(ctx, args)
	case "mcp":
		err = mcpserver.Run(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		if suggestion := suggestCommand(command); suggestion != "" {
			fmt.Fprintf(os.Stderr, "Did you mean: %s?\n", suggestion)
		}
		fmt.Fprintln(os.Stderr)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// suggestCommand returns the known command closest to input, or "" when
// none is within an edit distance of 2.
func suggestCommand(input string) string {
	best, bestDist := "", 3
	for _, name := range commandNames {
		if d := levenshtein(input, name); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func printUsage() {
	usage := `jsonschema-resolver - Inline $ref references across JSON Schema and OpenAPI files

Usage:
  jsonschema-resolver <command> [options]

Commands:
  resolve     Resolve every $ref under a directory, rewriting files in place
  reset       Rewrite every file in canonical layout without resolving
  refs        List the $ref values under a directory with their kinds
  watch       Resolve, then re-resolve whenever a schema file changes
  mcp         Serve the resolver as MCP tools over stdio
  version     Show version information
  help        Show this help message

Configuration:
  A .jsonschema-resolver.yaml file in the target directory (or --config) sets
  annotation_fields, preserve_keys, extension, max_passes, log and metrics_file.
  JSR_LOG_LEVEL, JSR_LOG_FORMAT and JSR_MAX_PASSES override the file.

Examples:
  jsonschema-resolver resolve ./schemas
  jsonschema-resolver resolve --dry-run ./schemas
  jsonschema-resolver refs --kind external ./schemas
  jsonschema-resolver watch --log-format json ./schemas

Run 'jsonschema-resolver <command> --help' for more information on a command.
`
	fmt.Print(usage)
}
