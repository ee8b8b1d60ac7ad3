package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lokireturns/loki-jsonschema-resolver/document"
	"github.com/lokireturns/loki-jsonschema-resolver/internal/testutil"
	"github.com/lokireturns/loki-jsonschema-resolver/internal/watch"
	"github.com/lokireturns/loki-jsonschema-resolver/referrors"
)

func TestSetupWatchFlags(t *testing.T) {
	fs, flags := SetupWatchFlags()
	assert.Equal(t, watch.DefaultDebounce, flags.Debounce)
	assert.Equal(t, -1, flags.MaxPasses)

	require.NoError(t, fs.Parse([]string{"--debounce", "2s", "--max-passes", "3", "schemas"}))
	assert.Equal(t, 2*time.Second, flags.Debounce)
	assert.Equal(t, 3, flags.MaxPasses)
}

func TestHandleWatch_NoArgs(t *testing.T) {
	err := HandleWatch(context.Background(), []string{})
	assert.Error(t, err)
}

func TestNewWatcher(t *testing.T) {
	ws := newWorkspace(t, testutil.SchemaTree())
	metricsPath := filepath.Join(t.TempDir(), "jsr.prom")

	w, err := newWatcher(ws, &WatchFlags{MaxPasses: -1, MetricsFile: metricsPath, Debounce: time.Second})
	require.NoError(t, err)
	assert.Equal(t, ws.dir, w.Root)
	assert.Equal(t, ".json", w.Extension)
	assert.Equal(t, time.Second, w.Debounce)

	require.NoError(t, w.Run(context.Background()))
	data, err := document.Marshal(testutil.ReadDocument(t, filepath.Join(ws.dir, "orders", "basket.json")))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "$ref")

	// a second run finds nothing left to do
	require.NoError(t, w.Run(context.Background()))
	data, err = os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `jsonschema_resolver_runs_total{outcome="ok"} 2`)
}

func TestNewWatcher_RunError(t *testing.T) {
	ws := newWorkspace(t, map[string]string{
		"a.json": `{"properties": {"b": {"$ref": "./b.json"}}}`,
		"b.json": `{"properties": {"a": {"$ref": "./a.json"}}}`,
	})

	w, err := newWatcher(ws, &WatchFlags{MaxPasses: -1})
	require.NoError(t, err)
	assert.ErrorIs(t, w.Run(context.Background()), referrors.ErrNoProgress)
}
