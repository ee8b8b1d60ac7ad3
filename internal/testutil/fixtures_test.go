package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v4"
)

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	paths := WriteFiles(t, dir, SchemaTree())

	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "enums", "unit.enum.json"), paths[0])
	for _, p := range paths {
		assert.True(t, filepath.IsAbs(p))
		doc := ReadDocument(t, p)
		assert.Positive(t, doc.Len())
	}
}

func TestMustParse(t *testing.T) {
	doc := MustParse(t, `{"b": 1, "a": 2}`)
	assert.Equal(t, []string{"b", "a"}, doc.Keys())
}

func TestWriteTempYAML(t *testing.T) {
	path := WriteTempYAML(t, "config.yaml", map[string]any{"max_passes": 3})
	assert.Equal(t, "config.yaml", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got map[string]int
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, 3, got["max_passes"])
}
