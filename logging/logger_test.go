package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopLogger(t *testing.T) {
	l := NopLogger{}
	l.Debug("msg", "key", "value")
	l.Info("msg", "key", "value")
	l.Warn("msg", "key", "value")
	l.Error("msg", "key", "value")

	_, ok := l.With("key", "value").(NopLogger)
	assert.True(t, ok, "With should return NopLogger")
}

func TestSlogAdapter(t *testing.T) {
	t.Run("nil uses default", func(t *testing.T) {
		adapter := NewSlogAdapter(nil)
		assert.NotNil(t, adapter.logger)
	})

	t.Run("writes attrs", func(t *testing.T) {
		var buf bytes.Buffer
		handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
		adapter := NewSlogAdapter(slog.New(handler))

		adapter.Debug("debug message", "ref", "#/a")
		adapter.Info("info message")
		adapter.Warn("warn message")
		adapter.Error("error message")

		out := buf.String()
		assert.Contains(t, out, "debug message")
		assert.Contains(t, out, "ref=#/a")
		assert.Contains(t, out, "level=WARN")
		assert.Contains(t, out, "level=ERROR")
	})

	t.Run("With prepends attrs", func(t *testing.T) {
		var buf bytes.Buffer
		adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, nil)))
		adapter.With("file", "order.json").Info("resolved")
		assert.Contains(t, buf.String(), "file=order.json")
	})
}

func TestZerologAdapter(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewZerologAdapter(zerolog.New(&buf).Level(zerolog.DebugLevel))

	adapter.With("run_id", "abc").Info("pass complete",
		"pass", 2,
		"file", "order.json",
		"err", errors.New("boom"),
		"extra", []string{"x"},
	)

	var entry map[string]any
	require.NoError(t, gojson.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "pass complete", entry["message"])
	assert.Equal(t, "abc", entry["run_id"])
	assert.EqualValues(t, 2, entry["pass"])
	assert.Equal(t, "order.json", entry["file"])
	assert.Equal(t, "boom", entry["err"])
	assert.Equal(t, []any{"x"}, entry["extra"])
}

func TestZerologAdapter_OddAttrsIgnored(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewZerologAdapter(zerolog.New(&buf))
	adapter.Warn("dangling", "key")
	assert.NotContains(t, buf.String(), `"key"`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("loud")
	assert.ErrorContains(t, err, "unknown level")
}

func TestNew(t *testing.T) {
	t.Run("json filters by level", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := New(Options{Level: "warning", Format: FormatJSON, Output: &buf})
		require.NoError(t, err)

		l.Info("hidden")
		l.Warn("shown", "file", "a.json")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, `"message":"shown"`)
		assert.Contains(t, out, `"time"`)
	})

	t.Run("console", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := New(Options{Output: &buf})
		require.NoError(t, err)
		l.Info("hello", "file", "a.json")
		out := buf.String()
		assert.Contains(t, out, "hello")
		assert.False(t, strings.HasPrefix(out, "{"))
	})

	t.Run("bad format", func(t *testing.T) {
		_, err := New(Options{Format: "xml"})
		assert.ErrorContains(t, err, "unknown format")
	})

	t.Run("bad level", func(t *testing.T) {
		_, err := New(Options{Level: "verbose"})
		assert.ErrorContains(t, err, "unknown level")
	})
}
