// Package testutil provides test utilities and fixtures for unit tests.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"go.yaml.in/yaml/v4"

	"github.com/lokireturns/loki-jsonschema-resolver/document"
)

// SchemaTree returns a small cross-referencing schema set:
//
//   - orders/basket.json references an enum schema and an enum member in
//     another file, and a sibling file's properties
//   - orders/line.json references an internal definition
//   - enums/unit.enum.json holds no references
//
// Resolving it takes two passes because basket.json is visited before
// line.json and has to wait for it.
func SchemaTree() map[string]string {
	return map[string]string{
		"orders/basket.json": `{
  "type": "object",
  "properties": {
    "unit": {
      "$ref": "../enums/unit.enum.json#/components/schemas/VolumeUnit",
      "description": "Unit of the ordered volume"
    },
    "kind": {"$ref": "../enums/unit.enum.json#/components/schemas/VolumeUnit/enum/1"},
    "line": {"$ref": "./line.json"}
  }
}
`,
		"orders/line.json": `{
  "type": "object",
  "properties": {
    "sku": {"$ref": "#/definitions/Sku", "nullable": true},
    "quantity": {"type": "integer"}
  },
  "definitions": {
    "Sku": {"type": "string", "nullable": false, "title": "SKU"}
  }
}
`,
		"enums/unit.enum.json": `{
  "components": {
    "schemas": {
      "VolumeUnit": {"type": "string", "enum": ["L", "ML", "M3"], "description": "Volume unit"}
    }
  }
}
`,
	}
}

// WriteFiles writes files, keyed by slash-separated relative path, under
// dir. It returns the absolute paths written, sorted.
func WriteFiles(t *testing.T, dir string, files map[string]string) []string {
	t.Helper()

	paths := make([]string, 0, len(files))
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("Failed to write %s: %v", rel, err)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			t.Fatalf("Failed to resolve %s: %v", path, err)
		}
		paths = append(paths, abs)
	}
	sort.Strings(paths)
	return paths
}

// ReadDocument loads the JSON document at path, failing the test on error.
func ReadDocument(t *testing.T, path string) *document.Object {
	t.Helper()

	doc, err := document.Load(path)
	if err != nil {
		t.Fatalf("Failed to load %s: %v", path, err)
	}
	return doc
}

// MustParse parses a JSON object literal, failing the test on error.
func MustParse(t *testing.T, s string) *document.Object {
	t.Helper()

	doc, err := document.ParseObject([]byte(s))
	if err != nil {
		t.Fatalf("Failed to parse document: %v", err)
	}
	return doc
}

// WriteTempYAML marshals v to YAML and writes it to name inside a
// temporary directory. Returns the path to the file.
// The file is automatically cleaned up when the test completes (via t.TempDir).
func WriteTempYAML(t *testing.T, name string, v any) string {
	t.Helper()

	data, err := yaml.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal YAML: %v", err)
	}

	tmpFile := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		t.Fatalf("Failed to write temporary YAML file: %v", err)
	}
	return tmpFile
}
