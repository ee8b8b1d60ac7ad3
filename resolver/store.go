package resolver

import (
	"sort"
	"sync"

	"github.com/lokireturns/loki-jsonschema-resolver/document"
	"github.com/lokireturns/loki-jsonschema-resolver/referrors"
)

// Store loads and persists documents by path.
type Store interface {
	Load(path string) (*document.Object, error)
	Save(path string, doc *document.Object) error
}

// FileStore reads and writes documents on the local filesystem.
type FileStore struct{}

// Load implements Store.
func (FileStore) Load(path string) (*document.Object, error) {
	return document.Load(path)
}

// Save implements Store.
func (FileStore) Save(path string, doc *document.Object) error {
	return document.Save(path, doc)
}

var _ Store = FileStore{}

// MemoryStore keeps saved documents in memory. Loads fall through to the
// base store for paths that have not been saved, so a MemoryStore over a
// FileStore acts as a write overlay that never touches disk.
type MemoryStore struct {
	base Store
	mu   sync.RWMutex
	docs map[string]*document.Object
}

// NewMemoryStore returns a MemoryStore over base. A nil base makes every
// unsaved path report ErrFileNotFound.
func NewMemoryStore(base Store) *MemoryStore {
	return &MemoryStore{base: base, docs: make(map[string]*document.Object)}
}

// Load implements Store. The returned document is a copy.
func (m *MemoryStore) Load(path string) (*document.Object, error) {
	m.mu.RLock()
	doc, ok := m.docs[path]
	m.mu.RUnlock()
	if ok {
		return doc.Clone(), nil
	}
	if m.base == nil {
		return nil, &referrors.FileError{Path: path, NotFound: true}
	}
	return m.base.Load(path)
}

// Save implements Store. A copy of doc is kept.
func (m *MemoryStore) Save(path string, doc *document.Object) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[path] = doc.Clone()
	return nil
}

// Paths returns the saved paths in sorted order.
func (m *MemoryStore) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.docs))
	for p := range m.docs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Documents returns copies of every saved document keyed by path.
func (m *MemoryStore) Documents() map[string]*document.Object {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*document.Object, len(m.docs))
	for p, doc := range m.docs {
		out[p] = doc.Clone()
	}
	return out
}

var _ Store = (*MemoryStore)(nil)
