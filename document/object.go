// Package document provides the generic, order-preserving document model
// the resolver reads, rewrites and persists.
//
// A document value is one of:
//
//   - *Object: a string-keyed mapping that remembers insertion order
//   - []any: an ordered sequence
//   - string, Number, bool, or nil
//
// Numbers are kept as their source text (Number), so integers and floats
// round-trip without precision loss and without reformatting.
//
// Files are parsed with a streaming token decoder so the original key order
// survives a load/save cycle, which keeps rewritten files diff-friendly.
package document

import (
	gojson "github.com/goccy/go-json"
)

// Number is a JSON number literal kept as text.
type Number = gojson.Number

// Object is an insertion-ordered map from string keys to document values.
// The zero value is not usable; use NewObject.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Len returns the number of entries.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Set stores value under key. A new key is appended; an existing key keeps
// its position.
func (o *Object) Set(key string, value any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Delete removes key, preserving the order of the remaining entries.
func (o *Object) Delete(key string) {
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Clear removes every entry.
func (o *Object) Clear() {
	o.keys = nil
	o.values = make(map[string]any)
}

// Keys returns the keys in insertion order. The slice is a copy.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Range calls fn for each entry in insertion order until fn returns false.
func (o *Object) Range(fn func(key string, value any) bool) {
	if o == nil {
		return
	}
	for _, k := range o.keys {
		if !fn(k, o.values[k]) {
			return
		}
	}
}

// Clone returns a deep copy of the object.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	out := &Object{
		keys:   make([]string, len(o.keys)),
		values: make(map[string]any, len(o.values)),
	}
	copy(out.keys, o.keys)
	for k, v := range o.values {
		out.values[k] = DeepCopy(v)
	}
	return out
}

// MarshalJSON encodes the object compactly with keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	return Marshal(o)
}

// UnmarshalJSON decodes a JSON object, keeping the source key order.
func (o *Object) UnmarshalJSON(data []byte) error {
	parsed, err := ParseObject(data)
	if err != nil {
		return err
	}
	*o = *parsed
	return nil
}

// FromMap builds an Object from a plain map, ordering keys alphabetically.
// Nested maps and slices are converted as well.
func FromMap(m map[string]any) *Object {
	out := NewObject()
	for _, k := range sortedKeys(m) {
		out.Set(k, fromNative(m[k]))
	}
	return out
}

func fromNative(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return FromMap(val)
	case []any:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = fromNative(item)
		}
		return items
	default:
		return val
	}
}
