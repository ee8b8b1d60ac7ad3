// Package walker traverses document trees to find $ref values and keys.
package walker

import (
	"golang.org/x/text/cases"

	"github.com/lokireturns/loki-jsonschema-resolver/document"
)

// RefKey is the key under which references are stored.
const RefKey = "$ref"

// CollectRefs returns every value stored under a "$ref" key in v, in
// depth-first document order. Values are returned as found, so a
// non-string $ref is reported rather than dropped. The same reference at
// several sites appears once per site.
//
// Sequences are only searched when every element is a map.
func CollectRefs(v any) []any {
	var refs []any
	walk(v, func(ref any) bool {
		refs = append(refs, ref)
		return true
	})
	return refs
}

// HasRefs reports whether v contains at least one $ref.
func HasRefs(v any) bool {
	found := false
	walk(v, func(any) bool {
		found = true
		return false
	})
	return found
}

// walk calls fn for each $ref value until fn returns false. It reports
// whether the walk ran to completion.
func walk(v any, fn func(ref any) bool) bool {
	switch val := v.(type) {
	case *document.Object:
		cont := true
		val.Range(func(key string, item any) bool {
			if key == RefKey {
				cont = fn(item)
			} else {
				cont = walk(item, fn)
			}
			return cont
		})
		return cont
	case []any:
		if !allMaps(val) {
			return true
		}
		for _, item := range val {
			if !walk(item, fn) {
				return false
			}
		}
	}
	return true
}

func allMaps(items []any) bool {
	for _, item := range items {
		if _, ok := item.(*document.Object); !ok {
			return false
		}
	}
	return true
}

// FindKey searches v depth-first for the first key equal to key under
// Unicode case folding. It returns the dotted path of the match and its
// value. Only nested maps are searched.
func FindKey(v any, key string) (path string, value any, ok bool) {
	obj, isObj := v.(*document.Object)
	if !isObj {
		return "", nil, false
	}
	// Casers carry state and are not safe for concurrent use.
	folder := cases.Fold()
	return findKey(obj, folder, folder.String(key), "")
}

func findKey(obj *document.Object, folder cases.Caser, folded, prefix string) (string, any, bool) {
	var (
		path  string
		value any
		found bool
	)
	obj.Range(func(k string, item any) bool {
		current := k
		if prefix != "" {
			current = prefix + "." + k
		}
		if folder.String(k) == folded {
			path, value, found = current, item, true
			return false
		}
		if nested, ok := item.(*document.Object); ok {
			path, value, found = findKey(nested, folder, folded, current)
			return !found
		}
		return true
	})
	return path, value, found
}
