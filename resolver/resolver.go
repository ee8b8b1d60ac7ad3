// Package resolver flattens a set of JSON Schema documents by inlining every
// $ref until no references remain.
//
// Resolution runs as a fixpoint over the whole file set. Each pass visits
// every file that still holds references. A reference into another file is
// only followed once that file is itself free of references; until then the
// referencing file is blocked and retried on the next pass. The run ends
// when every file is resolved, or fails with a *referrors.ConvergenceError
// when a full pass changes nothing or the pass limit is reached.
//
// Basic usage:
//
//	r, err := resolver.New(resolver.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	result, err := r.Run(ctx, paths)
package resolver

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lokireturns/loki-jsonschema-resolver/document"
	"github.com/lokireturns/loki-jsonschema-resolver/logging"
	"github.com/lokireturns/loki-jsonschema-resolver/merger"
	"github.com/lokireturns/loki-jsonschema-resolver/pointer"
	"github.com/lokireturns/loki-jsonschema-resolver/referrors"
	"github.com/lokireturns/loki-jsonschema-resolver/walker"
)

// FileState is the resolution state of one file.
type FileState int

const (
	// Pending files have not been visited yet.
	Pending FileState = iota
	// NoRefs files held no references when visited.
	NoRefs
	// PartiallyResolved files had references substituted but still hold
	// some, typically introduced by an inlined fragment.
	PartiallyResolved
	// Blocked files reference a file that still holds references.
	Blocked
	// Resolved files had every reference substituted.
	Resolved
)

var fileStateNames = map[FileState]string{
	Pending:           "pending",
	NoRefs:            "no-refs",
	PartiallyResolved: "partially-resolved",
	Blocked:           "blocked",
	Resolved:          "resolved",
}

// String returns the state name.
func (s FileState) String() string {
	if name, ok := fileStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("FileState(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s FileState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Done reports whether the file left the deferred set.
func (s FileState) Done() bool {
	return s == NoRefs || s == Resolved
}

// Result describes a finished or aborted run.
type Result struct {
	// RunID identifies the run in logs and metrics.
	RunID string
	// Passes is the number of passes executed.
	Passes int
	// Resolved lists files that ended with no references, in the order
	// they finished.
	Resolved []string
	// Unresolved lists files still holding references, sorted.
	Unresolved []string
	// Files maps every scheduled path to its last state.
	Files map[string]FileState
	// References counts bound references by kind.
	References map[pointer.Kind]int
	// Documents holds the resolved documents of changed files when the
	// run was a dry run. It is nil otherwise.
	Documents map[string]*document.Object
}

// Resolver runs the fixpoint. It is safe for sequential reuse.
type Resolver struct {
	logger    logging.Logger
	merger    *merger.Merger
	maxPasses int
	recorder  Recorder
	store     Store
	dryRun    bool
}

// New creates a Resolver from opts.
func New(opts ...Option) (*Resolver, error) {
	cfg, err := applyOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("resolver: invalid options: %w", err)
	}
	return &Resolver{
		logger: cfg.logger,
		merger: &merger.Merger{
			Annotations:  cfg.annotationFields,
			PreserveKeys: cfg.preserveKeys,
			Logger:       cfg.logger,
		},
		maxPasses: cfg.maxPasses,
		recorder:  cfg.recorder,
		store:     cfg.store,
		dryRun:    cfg.dryRun,
	}, nil
}

// Run resolves every reference in paths, rewriting files through the
// configured store. The returned Result is non-nil even on error and
// reflects the state reached.
func (r *Resolver) Run(ctx context.Context, paths []string) (*Result, error) {
	start := time.Now()
	result := &Result{
		RunID:      uuid.NewString(),
		Files:      make(map[string]FileState, len(paths)),
		References: make(map[pointer.Kind]int),
	}
	log := r.logger.With("run_id", result.RunID)

	store := r.store
	var overlay *MemoryStore
	if r.dryRun {
		overlay = NewMemoryStore(store)
		store = overlay
	}

	err := r.run(ctx, log, store, paths, result)
	if overlay != nil {
		result.Documents = overlay.Documents()
	}
	r.recorder.RunFinished(result, err, time.Since(start))
	if err != nil {
		log.Error("run failed", "passes", result.Passes, "unresolved", len(result.Unresolved), "error", err)
		return result, err
	}
	log.Info("run complete", "passes", result.Passes, "files", len(result.Files), "elapsed", time.Since(start))
	return result, nil
}

func (r *Resolver) run(ctx context.Context, log logging.Logger, store Store, paths []string, result *Result) error {
	deferred, err := normalize(paths)
	if err != nil {
		return err
	}
	for _, p := range deferred {
		result.Files[p] = Pending
	}
	result.Unresolved = append([]string(nil), deferred...)

	for pass := 1; len(deferred) > 0; pass++ {
		if r.maxPasses > 0 && pass > r.maxPasses {
			return &referrors.ConvergenceError{Passes: result.Passes, Unresolved: deferred, LimitReached: true}
		}
		passLog := log.With("pass", pass)
		passLog.Debug("starting pass", "deferred", len(deferred))

		progress := false
		var next []string
		for _, path := range deferred {
			if err := ctx.Err(); err != nil {
				return err
			}
			state, changed, err := r.visit(passLog.With("file", path), store, path, result)
			if err != nil {
				return fmt.Errorf("resolver: %s: %w", path, err)
			}
			result.Files[path] = state
			r.recorder.FileFinished(state)
			if state.Done() {
				result.Resolved = append(result.Resolved, path)
				progress = true
				continue
			}
			if changed {
				progress = true
			}
			next = append(next, path)
		}

		result.Passes = pass
		result.Unresolved = append([]string(nil), next...)
		r.recorder.PassCompleted(pass, len(next))
		passLog.Debug("pass complete", "remaining", len(next))

		if len(next) > 0 && !progress {
			return &referrors.ConvergenceError{Passes: pass, Unresolved: next}
		}
		deferred = next
	}
	return nil
}

// visit processes one file for one pass. It reports the file's new state
// and whether its content changed.
func (r *Resolver) visit(log logging.Logger, store Store, path string, result *Result) (FileState, bool, error) {
	doc, err := store.Load(path)
	if err != nil {
		return Pending, false, err
	}

	refs := walker.CollectRefs(doc)
	if len(refs) == 0 {
		log.Debug("no references")
		return NoRefs, false, nil
	}

	var (
		bindings []merger.Binding
		blocked  bool
		seen     = make(map[string]bool, len(refs))
	)
	for _, raw := range refs {
		ref, err := pointer.Parse(raw)
		if err != nil {
			return Pending, false, err
		}
		if seen[ref.Raw] {
			continue
		}
		value, ok, err := r.bind(store, path, doc, ref)
		if err != nil {
			return Pending, false, fmt.Errorf("resolving %s: %w", ref.Raw, err)
		}
		if !ok {
			log.Debug("reference target still has references", "ref", ref.Raw)
			blocked = true
			break
		}
		seen[ref.Raw] = true
		bindings = append(bindings, merger.Binding{Ref: ref.Raw, Value: value})
		result.References[ref.Kind]++
		r.recorder.ReferenceResolved(ref.Kind)
	}

	changed := false
	current := doc
	if len(bindings) > 0 {
		substituted := r.merger.Substitute(doc, bindings)
		merged, ok := substituted.(*document.Object)
		if !ok {
			// a root $ref bound to a scalar or list would leave no document
			return Pending, false, &referrors.TypeMismatchError{Pointer: "#", Expected: "map", Actual: document.TypeName(substituted)}
		}
		if !document.Equal(doc, merged) {
			if err := store.Save(path, merged); err != nil {
				return Pending, false, err
			}
			changed = true
		}
		current = merged
	}

	switch {
	case !walker.HasRefs(current):
		log.Info("resolved", "references", len(bindings))
		return Resolved, changed, nil
	case blocked:
		return Blocked, changed, nil
	default:
		return PartiallyResolved, changed, nil
	}
}

// bind finds the value ref points to. ok is false when ref targets a file
// that still holds references.
func (r *Resolver) bind(store Store, path string, doc *document.Object, ref pointer.Reference) (value any, ok bool, err error) {
	if ref.Kind == pointer.Internal {
		value, err = pointer.Locate(ref.Pointer, doc)
		return value, err == nil, err
	}

	target := pointer.ResolvePath(ref.Path, path)
	ext, err := store.Load(target)
	if err != nil {
		return nil, false, err
	}
	if walker.HasRefs(ext) {
		return nil, false, nil
	}
	if ref.Kind == pointer.External {
		return pointer.DefaultFragment(ext), true, nil
	}
	value, err = pointer.Locate(ref.Pointer, ext)
	return value, err == nil, err
}

// Reset loads and re-saves every path without resolving anything, so the
// files share the resolver's output formatting.
func (r *Resolver) Reset(ctx context.Context, paths []string) error {
	abs, err := normalize(paths)
	if err != nil {
		return err
	}
	for _, path := range abs {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, err := r.store.Load(path)
		if err != nil {
			return fmt.Errorf("resolver: %s: %w", path, err)
		}
		if err := r.store.Save(path, doc); err != nil {
			return fmt.Errorf("resolver: %s: %w", path, err)
		}
		r.logger.Debug("reset", "file", path)
	}
	return nil
}

// FindSchemaRoot searches doc for key, case-insensitively and at any depth,
// and returns the dotted path and value of the first match.
func FindSchemaRoot(doc *document.Object, key string) (string, any, error) {
	path, value, ok := walker.FindKey(doc, key)
	if !ok {
		return "", nil, &referrors.RootKeyNotFoundError{Key: key}
	}
	return path, value, nil
}

// normalize returns the absolute, cleaned, deduplicated paths in sorted
// order.
func normalize(paths []string) ([]string, error) {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolver: %s: %w", p, err)
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		out = append(out, abs)
	}
	sort.Strings(out)
	return out, nil
}
