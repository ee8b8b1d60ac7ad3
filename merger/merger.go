// Package merger substitutes resolved fragments for $ref sites.
//
// A reference site is the map holding a "$ref" key. When a binding for its
// reference is available the site is rebuilt from three layers, later
// layers winning on key collision:
//
//  1. a copy of the bound fragment
//  2. preserved keys copied verbatim from the site
//  3. annotation fields captured from the site
//
// Given the site
//
//	{"$ref": "#/defs/flag", "nullable": true}
//
// and a binding of "#/defs/flag" to {"type": "boolean", "nullable": false},
// the result is {"type": "boolean", "nullable": true}.
package merger

import (
	"github.com/lokireturns/loki-jsonschema-resolver/document"
	"github.com/lokireturns/loki-jsonschema-resolver/logging"
	"github.com/lokireturns/loki-jsonschema-resolver/walker"
)

// Binding pairs a reference string with the fragment it resolved to.
type Binding struct {
	Ref   string
	Value any
}

// Merger performs substitutions. The zero value uses no annotation fields,
// no preserved keys, and discards log output; use New for the defaults.
type Merger struct {
	// Annotations lists the fields captured from a site and re-applied
	// over the substituted fragment.
	Annotations []string
	// PreserveKeys lists site keys whose map values survive substitution.
	PreserveKeys []string
	// Logger receives debug output. Nil means no logging.
	Logger logging.Logger
}

// New returns a Merger with DefaultAnnotationFields and DefaultPreserveKeys.
func New(logger logging.Logger) *Merger {
	return &Merger{
		Annotations:  append([]string(nil), DefaultAnnotationFields...),
		PreserveKeys: append([]string(nil), DefaultPreserveKeys...),
		Logger:       logger,
	}
}

func (m *Merger) log() logging.Logger {
	if m.Logger == nil {
		return logging.NopLogger{}
	}
	return m.Logger
}

// Substitute returns a copy of site with every reference site that has a
// binding replaced by its fragment. site is not modified.
//
// Sites are rebuilt top-down in a single walk. A reference introduced by an
// inlined fragment is left in place for a later pass. Sequences are only
// entered when every element is a map, matching walker.CollectRefs.
func (m *Merger) Substitute(site any, bindings []Binding) any {
	switch v := site.(type) {
	case *document.Object:
		if raw, ok := v.Get(walker.RefKey); ok {
			if ref, isString := raw.(string); isString {
				if b, found := lookup(bindings, ref); found {
					return m.merge(v, b)
				}
			}
		}
		out := document.NewObject()
		v.Range(func(key string, item any) bool {
			out.Set(key, m.Substitute(item, bindings))
			return true
		})
		return out
	case []any:
		if !allMaps(v) {
			return document.DeepCopy(v)
		}
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = m.Substitute(item, bindings)
		}
		return out
	default:
		return v
	}
}

func (m *Merger) merge(site *document.Object, b Binding) any {
	fragment, ok := b.Value.(*document.Object)
	if !ok {
		m.log().Debug("replacing reference site with non-map value", "ref", b.Ref, "type", document.TypeName(b.Value))
		return document.DeepCopy(b.Value)
	}

	annotations := Capture(site, m.Annotations)
	kept := m.preserved(site, b.Ref)

	out := fragment.Clone()
	for _, p := range kept {
		out.Set(p.Field, p.Value)
	}
	annotations.Apply(out)
	return out
}

func (m *Merger) preserved(site *document.Object, ref string) []Annotation {
	var kept []Annotation
	for _, key := range m.PreserveKeys {
		value, ok := site.Get(key)
		if !ok {
			m.log().Debug("preserved key not present at reference site", "key", key, "ref", ref)
			continue
		}
		if _, isMap := value.(*document.Object); !isMap {
			m.log().Debug("preserved key is not a map, skipping", "key", key, "ref", ref, "type", document.TypeName(value))
			continue
		}
		kept = append(kept, Annotation{Field: key, Value: document.DeepCopy(value)})
	}
	return kept
}

func lookup(bindings []Binding, ref string) (Binding, bool) {
	for _, b := range bindings {
		if b.Ref == ref {
			return b, true
		}
	}
	return Binding{}, false
}

func allMaps(items []any) bool {
	for _, item := range items {
		if _, ok := item.(*document.Object); !ok {
			return false
		}
	}
	return true
}
