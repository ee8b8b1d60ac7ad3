package mcpserver

import (
	"log/slog"
	"os"
	"strconv"
)

// serverConfig holds all configurable MCP server defaults.
// Loaded once at startup from environment variables via loadConfig().
type serverConfig struct {
	// List tool defaults.
	ListLimit int
	MaxLimit  int

	// Resolve tool defaults.
	MaxPasses int
	Extension string
}

// cfg is the active server configuration, initialized at package load time.
var cfg = loadConfig()

// loadConfig reads configuration from JSR_MCP_* environment variables.
// Invalid values log a warning and fall back to the hardcoded default.
func loadConfig() *serverConfig {
	return &serverConfig{
		ListLimit: envInt("JSR_MCP_LIST_LIMIT", 100),
		MaxLimit:  envInt("JSR_MCP_MAX_LIMIT", 1000),
		MaxPasses: envInt("JSR_MCP_MAX_PASSES", 100),
		Extension: envString("JSR_MCP_EXTENSION", ".json"),
	}
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return n
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
