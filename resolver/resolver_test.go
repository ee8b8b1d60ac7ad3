package resolver

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lokireturns/loki-jsonschema-resolver/document"
	"github.com/lokireturns/loki-jsonschema-resolver/internal/testutil"
	"github.com/lokireturns/loki-jsonschema-resolver/pointer"
	"github.com/lokireturns/loki-jsonschema-resolver/referrors"
)

func newResolver(t *testing.T, opts ...Option) *Resolver {
	t.Helper()
	r, err := New(opts...)
	require.NoError(t, err)
	return r
}

func assertDocument(t *testing.T, want string, got any) {
	t.Helper()
	wantDoc := testutil.MustParse(t, want)
	if !document.Equal(wantDoc, got) {
		data, _ := document.MarshalIndent(got)
		t.Fatalf("unexpected document\nwant: %s\ngot:\n%s", want, data)
	}
}

const resolvedBasket = `{
  "type": "object",
  "properties": {
    "unit": {"type": "string", "enum": ["L", "ML", "M3"], "description": "Unit of the ordered volume"},
    "kind": {"enum": ["ML"], "type": "string"},
    "line": {
      "sku": {"type": "string", "nullable": true, "title": "SKU"},
      "quantity": {"type": "integer"}
    }
  }
}`

func TestRun_SchemaTree(t *testing.T) {
	dir := t.TempDir()
	paths := testutil.WriteFiles(t, dir, testutil.SchemaTree())
	enumPath := filepath.Join(dir, "enums", "unit.enum.json")
	linePath := filepath.Join(dir, "orders", "line.json")
	basketPath := filepath.Join(dir, "orders", "basket.json")

	result, err := newResolver(t).Run(context.Background(), paths)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Passes)
	assert.NotEmpty(t, result.RunID)
	assert.Empty(t, result.Unresolved)
	assert.Equal(t, []string{enumPath, linePath, basketPath}, result.Resolved)
	assert.Equal(t, map[string]FileState{
		enumPath:   NoRefs,
		linePath:   Resolved,
		basketPath: Resolved,
	}, result.Files)
	assert.Equal(t, map[pointer.Kind]int{
		pointer.Internal:         1,
		pointer.External:         1,
		pointer.ExternalInternal: 2,
	}, result.References)
	assert.Nil(t, result.Documents)

	assertDocument(t, resolvedBasket, testutil.ReadDocument(t, basketPath))
	assertDocument(t, `{
	  "type": "object",
	  "properties": {
	    "sku": {"type": "string", "nullable": true, "title": "SKU"},
	    "quantity": {"type": "integer"}
	  },
	  "definitions": {"Sku": {"type": "string", "nullable": false, "title": "SKU"}}
	}`, testutil.ReadDocument(t, linePath))

	data, err := os.ReadFile(basketPath)
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), data[len(data)-1])
	assert.Contains(t, string(data), "\n  \"type\": \"object\",\n")
}

func TestRun_SecondRunIsNoop(t *testing.T) {
	dir := t.TempDir()
	paths := testutil.WriteFiles(t, dir, testutil.SchemaTree())
	r := newResolver(t)

	_, err := r.Run(context.Background(), paths)
	require.NoError(t, err)

	result, err := r.Run(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Passes)
	for _, state := range result.Files {
		assert.Equal(t, NoRefs, state)
	}
}

func TestRun_BlockedStopsAtFirstUnresolvableReference(t *testing.T) {
	dir := t.TempDir()
	paths := testutil.WriteFiles(t, dir, map[string]string{
		"a.json": `{"properties": {
			"first": {"$ref": "./b.json"},
			"second": {"$ref": "#/defs/x"}
		}, "defs": {"x": {"type": "string"}}}`,
		"b.json": `{"properties": {"id": {"$ref": "#/defs/id"}}, "defs": {"id": {"type": "integer"}}}`,
	})
	store := NewMemoryStore(FileStore{})
	rec := &recorder{}

	result, err := newResolver(t, WithStore(store), WithMetrics(rec)).Run(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Passes)
	assert.Equal(t, []FileState{Blocked, Resolved, Resolved}, rec.states)

	assertDocument(t, `{"properties": {
		"first": {"id": {"type": "integer"}},
		"second": {"type": "string"}
	}, "defs": {"x": {"type": "string"}}}`, mustLoad(t, store, paths[0]))
}

func TestRun_PartiallyResolvedContinues(t *testing.T) {
	dir := t.TempDir()
	paths := testutil.WriteFiles(t, dir, map[string]string{
		"tree.json": `{
			"root": {"$ref": "#/defs/outer"},
			"defs": {
				"outer": {"inner": {"$ref": "#/defs/leaf"}},
				"leaf": {"type": "boolean"}
			}
		}`,
	})
	rec := &recorder{}

	result, err := newResolver(t, WithMetrics(rec)).Run(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Passes)
	assert.Equal(t, []FileState{PartiallyResolved, Resolved}, rec.states)
	assert.Equal(t, []int{1, 0}, rec.deferred)

	got := testutil.ReadDocument(t, paths[0])
	root, _ := got.Get("root")
	assertDocument(t, `{"inner": {"type": "boolean"}}`, root)
}

func TestRun_CycleReportsConvergenceError(t *testing.T) {
	dir := t.TempDir()
	paths := testutil.WriteFiles(t, dir, map[string]string{
		"a.json":    `{"properties": {"b": {"$ref": "./b.json"}}}`,
		"b.json":    `{"properties": {"a": {"$ref": "./a.json"}}}`,
		"leaf.json": `{"type": "string"}`,
	})

	result, err := newResolver(t).Run(context.Background(), paths)
	require.Error(t, err)
	assert.ErrorIs(t, err, referrors.ErrNoProgress)

	var convErr *referrors.ConvergenceError
	require.ErrorAs(t, err, &convErr)
	assert.False(t, convErr.LimitReached)
	// leaf.json finishing counts as progress in the first pass
	assert.Equal(t, 2, convErr.Passes)
	assert.Equal(t, paths[:2], convErr.Unresolved)

	require.NotNil(t, result)
	assert.Equal(t, Blocked, result.Files[paths[0]])
	assert.Equal(t, NoRefs, result.Files[paths[2]])
}

func TestRun_SelfReferenceDoesNotConverge(t *testing.T) {
	dir := t.TempDir()
	paths := testutil.WriteFiles(t, dir, map[string]string{
		"self.json": `{"a": {"$ref": "#/a"}}`,
	})
	_, err := newResolver(t).Run(context.Background(), paths)
	assert.ErrorIs(t, err, referrors.ErrNoProgress)
}

func TestRun_RecursiveSchemaHitsPassLimit(t *testing.T) {
	dir := t.TempDir()
	paths := testutil.WriteFiles(t, dir, map[string]string{
		"node.json": `{
			"root": {"$ref": "#/defs/node"},
			"defs": {"node": {"properties": {"child": {"$ref": "#/defs/node"}}}}
		}`,
	})

	_, err := newResolver(t, WithMaxPasses(3)).Run(context.Background(), paths)
	var convErr *referrors.ConvergenceError
	require.ErrorAs(t, err, &convErr)
	assert.True(t, convErr.LimitReached)
	assert.Equal(t, 3, convErr.Passes)
	assert.Equal(t, paths, convErr.Unresolved)
}

func TestRun_ErrorsAbortWithFileContext(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  error
	}{
		{"missing key", `{"a": {"$ref": "#/nope"}}`, referrors.ErrKeyNotFound},
		{"bad index", `{"a": {"$ref": "#/list/4"}, "list": [1]}`, referrors.ErrIndexOutOfRange},
		{"not a string", `{"a": {"$ref": 12}}`, referrors.ErrNotString},
		{"invalid shape", `{"a": {"$ref": "http://example.com/x.json"}}`, referrors.ErrInvalidReference},
		{"missing file", `{"a": {"$ref": "./missing.json"}}`, referrors.ErrFileNotFound},
		{"root scalar", `{"$ref": "#/defs/name/0", "defs": {"name": ["x"]}}`, referrors.ErrTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			paths := testutil.WriteFiles(t, dir, map[string]string{"doc.json": tt.content})

			_, err := newResolver(t).Run(context.Background(), paths)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.Contains(t, err.Error(), paths[0])
		})
	}
}

func TestRun_ParseError(t *testing.T) {
	dir := t.TempDir()
	paths := testutil.WriteFiles(t, dir, map[string]string{"bad.json": `{"a": `})
	_, err := newResolver(t).Run(context.Background(), paths)
	assert.ErrorIs(t, err, referrors.ErrParse)
}

func TestRun_ExternalUsesPropertiesOrWholeDocument(t *testing.T) {
	dir := t.TempDir()
	paths := testutil.WriteFiles(t, dir, map[string]string{
		"main.json": `{"a": {"$ref": "./props.json"}, "b": {"$ref": "./plain.json", "title": "Plain"}}`,
		"props.json": `{"type": "object", "properties": {"id": {"type": "integer"}}}`,
		"plain.json": `{"type": "string", "title": "Shared"}`,
	})

	_, err := newResolver(t).Run(context.Background(), paths)
	require.NoError(t, err)
	assertDocument(t, `{
		"a": {"id": {"type": "integer"}},
		"b": {"type": "string", "title": "Plain"}
	}`, testutil.ReadDocument(t, filepath.Join(dir, "main.json")))
}

func TestRun_DryRunLeavesFilesUntouched(t *testing.T) {
	dir := t.TempDir()
	files := testutil.SchemaTree()
	paths := testutil.WriteFiles(t, dir, files)
	basketPath := filepath.Join(dir, "orders", "basket.json")

	result, err := newResolver(t, WithDryRun(true)).Run(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Passes)

	data, err := os.ReadFile(basketPath)
	require.NoError(t, err)
	assert.Equal(t, files["orders/basket.json"], string(data))

	require.Len(t, result.Documents, 2)
	assertDocument(t, resolvedBasket, result.Documents[basketPath])
}

func TestRun_CustomAnnotationsAndPreserveKeys(t *testing.T) {
	dir := t.TempDir()
	paths := testutil.WriteFiles(t, dir, map[string]string{
		"doc.json": `{
			"a": {"$ref": "#/defs/x", "title": "Local", "example": "kept", "meta": {"owner": "team"}},
			"defs": {"x": {"type": "string", "title": "Shared", "example": "shared"}}
		}`,
	})
	r := newResolver(t, WithAnnotationFields("example"), WithPreserveKeys("meta"))

	_, err := r.Run(context.Background(), paths)
	require.NoError(t, err)

	got := testutil.ReadDocument(t, paths[0])
	a, _ := got.Get("a")
	assertDocument(t, `{"type": "string", "title": "Shared", "example": "kept", "meta": {"owner": "team"}}`, a)
}

func TestRun_ContextCanceled(t *testing.T) {
	dir := t.TempDir()
	paths := testutil.WriteFiles(t, dir, testutil.SchemaTree())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newResolver(t).Run(ctx, paths)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.Passes)
	assert.Len(t, result.Unresolved, 3)
}

func TestRun_DuplicatePathsAndEmptyInput(t *testing.T) {
	dir := t.TempDir()
	paths := testutil.WriteFiles(t, dir, map[string]string{"a.json": `{"type": "string"}`})

	result, err := newResolver(t).Run(context.Background(), append(paths, paths[0]))
	require.NoError(t, err)
	assert.Len(t, result.Files, 1)

	result, err = newResolver(t).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Passes)
}

func TestRun_RecorderSeesRunFinished(t *testing.T) {
	dir := t.TempDir()
	paths := testutil.WriteFiles(t, dir, testutil.SchemaTree())
	rec := &recorder{}

	_, err := newResolver(t, WithMetrics(rec)).Run(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.runs)
	assert.NoError(t, rec.lastErr)
	assert.Equal(t, 4, len(rec.kinds))
}

func TestReset(t *testing.T) {
	dir := t.TempDir()
	paths := testutil.WriteFiles(t, dir, map[string]string{
		"a.json": `{"b":1,"a":{"$ref":"#/b"}}`,
	})

	require.NoError(t, newResolver(t).Reset(context.Background(), paths))

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"b\": 1,\n  \"a\": {\n    \"$ref\": \"#/b\"\n  }\n}\n", string(data))
}

func TestReset_MissingFile(t *testing.T) {
	err := newResolver(t).Reset(context.Background(), []string{filepath.Join(t.TempDir(), "gone.json")})
	assert.ErrorIs(t, err, referrors.ErrFileNotFound)
}

func TestFindSchemaRoot(t *testing.T) {
	doc := testutil.MustParse(t, `{"components": {"Schemas": {"Pet": {"type": "object"}}}}`)

	path, value, err := FindSchemaRoot(doc, "schemas")
	require.NoError(t, err)
	assert.Equal(t, "components.Schemas", path)
	assert.IsType(t, &document.Object{}, value)

	_, _, err = FindSchemaRoot(doc, "definitions")
	var rootErr *referrors.RootKeyNotFoundError
	require.ErrorAs(t, err, &rootErr)
	assert.Equal(t, "definitions", rootErr.Key)
	assert.ErrorIs(t, err, referrors.ErrRootKeyNotFound)
}

func TestNew_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"negative passes", WithMaxPasses(-1)},
		{"nil store", WithStore(nil)},
		{"empty annotation", WithAnnotationFields("title", "")},
		{"empty preserve key", WithPreserveKeys("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opt)
			assert.ErrorIs(t, err, referrors.ErrConfig)
		})
	}
}

func TestFileState(t *testing.T) {
	assert.Equal(t, "blocked", Blocked.String())
	assert.Equal(t, "FileState(42)", FileState(42).String())
	text, err := PartiallyResolved.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "partially-resolved", string(text))
	assert.True(t, NoRefs.Done())
	assert.False(t, Blocked.Done())
}

func TestMemoryStore(t *testing.T) {
	t.Run("nil base", func(t *testing.T) {
		s := NewMemoryStore(nil)
		_, err := s.Load("/nowhere.json")
		assert.ErrorIs(t, err, referrors.ErrFileNotFound)
	})

	t.Run("copies on save and load", func(t *testing.T) {
		s := NewMemoryStore(nil)
		doc := testutil.MustParse(t, `{"a": 1}`)
		require.NoError(t, s.Save("/x.json", doc))
		doc.Set("a", "changed")

		got, err := s.Load("/x.json")
		require.NoError(t, err)
		v, _ := got.Get("a")
		assert.Equal(t, document.Number("1"), v)
		assert.Equal(t, []string{"/x.json"}, s.Paths())
	})
}

func mustLoad(t *testing.T, s Store, path string) *document.Object {
	t.Helper()
	doc, err := s.Load(path)
	require.NoError(t, err)
	return doc
}

type recorder struct {
	mu       sync.Mutex
	states   []FileState
	deferred []int
	kinds    []pointer.Kind
	runs     int
	lastErr  error
}

func (r *recorder) PassCompleted(_, deferred int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deferred = append(r.deferred, deferred)
}

func (r *recorder) ReferenceResolved(kind pointer.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
}

func (r *recorder) FileFinished(state FileState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *recorder) RunFinished(_ *Result, err error, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
	r.lastErr = err
}
