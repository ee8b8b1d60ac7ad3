package commands

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lokireturns/loki-jsonschema-resolver/internal/config"
	"github.com/lokireturns/loki-jsonschema-resolver/internal/testutil"
	"github.com/lokireturns/loki-jsonschema-resolver/referrors"
)

// newWorkspace writes files under a temp dir and opens it with default
// flags, discarding logs.
func newWorkspace(t *testing.T, files map[string]string) *workspace {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, files)
	ws, err := openWorkspace(dir, &CommonFlags{}, io.Discard)
	require.NoError(t, err)
	return ws
}

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{"valid text", FormatText, false},
		{"valid json", FormatJSON, false},
		{"invalid yaml", "yaml", true},
		{"empty format", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOutputFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
		})
	}
}

func TestOpenWorkspace(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		ws := newWorkspace(t, map[string]string{"a.json": `{}`})
		assert.True(t, filepath.IsAbs(ws.dir))
		assert.Equal(t, ".json", ws.cfg.Extension)
		assert.Empty(t, ws.cfg.Source)
	})

	t.Run("config file in directory", func(t *testing.T) {
		dir := t.TempDir()
		testutil.WriteFiles(t, dir, map[string]string{
			config.FileName: "extension: .schema\nmax_passes: 7\n",
		})
		ws, err := openWorkspace(dir, &CommonFlags{}, io.Discard)
		require.NoError(t, err)
		assert.Equal(t, ".schema", ws.cfg.Extension)
		assert.Equal(t, 7, ws.cfg.MaxPasses)
		assert.Equal(t, filepath.Join(ws.dir, config.FileName), ws.cfg.Source)
	})

	t.Run("explicit config", func(t *testing.T) {
		path := testutil.WriteTempYAML(t, "custom.yaml", map[string]any{"preserve_keys": []string{"x-keep"}})
		ws, err := openWorkspace(t.TempDir(), &CommonFlags{Config: path}, io.Discard)
		require.NoError(t, err)
		assert.Equal(t, []string{"x-keep"}, ws.cfg.PreserveKeys)
	})

	t.Run("flag overrides log settings", func(t *testing.T) {
		var buf bytes.Buffer
		ws, err := openWorkspace(t.TempDir(), &CommonFlags{LogLevel: "debug", LogFormat: "json"}, &buf)
		require.NoError(t, err)
		assert.Equal(t, "debug", ws.cfg.Log.Level)

		ws.log.Debug("hello")
		assert.Contains(t, buf.String(), `"message":"hello"`)
	})

	t.Run("invalid log level", func(t *testing.T) {
		_, err := openWorkspace(t.TempDir(), &CommonFlags{LogLevel: "loud"}, io.Discard)
		require.Error(t, err)
		assert.ErrorIs(t, err, referrors.ErrConfig)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := openWorkspace(filepath.Join(t.TempDir(), "missing"), &CommonFlags{}, io.Discard)
		assert.Error(t, err)
	})

	t.Run("not a directory", func(t *testing.T) {
		dir := t.TempDir()
		paths := testutil.WriteFiles(t, dir, map[string]string{"a.json": `{}`})
		_, err := openWorkspace(paths[0], &CommonFlags{}, io.Discard)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is not a directory")
	})
}

func TestWorkspaceFiles_WarnsWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	ws, err := openWorkspace(dir, &CommonFlags{LogFormat: "json"}, &buf)
	require.NoError(t, err)

	files, err := ws.files()
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.Contains(t, buf.String(), "no schema files found")
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestRenderTable(t *testing.T) {
	headers := []string{"FILE", "KIND", "REF"}
	rows := [][]string{
		{"a.json", "internal", "#/definitions/A"},
		{"schemas/b.json", "external", "./a.json"},
	}

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		RenderTable(&buf, headers, rows, false)
		assert.Equal(t,
			"FILE            KIND      REF\n"+
				"a.json          internal  #/definitions/A\n"+
				"schemas/b.json  external  ./a.json\n",
			buf.String())
	})

	t.Run("quiet", func(t *testing.T) {
		var buf bytes.Buffer
		RenderTable(&buf, headers, rows, true)
		assert.Equal(t, "a.json\tinternal\t#/definitions/A\nschemas/b.json\texternal\t./a.json\n", buf.String())
	})

	t.Run("no rows", func(t *testing.T) {
		var buf bytes.Buffer
		RenderTable(&buf, headers, nil, false)
		assert.Empty(t, buf.String())
	})
}
