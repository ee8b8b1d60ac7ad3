package pointer

import (
	"path/filepath"

	"github.com/lokireturns/loki-jsonschema-resolver/document"
	"github.com/lokireturns/loki-jsonschema-resolver/referrors"
)

// Locate resolves p against doc and returns a copy of the referenced value.
//
// Segments are looked up as map keys. When the pointer passes through an
// "enum" segment and ends in a list index, the result is a single-member
// enum schema:
//
//	{"enum": ["KG"], "type": "string"}
//
// where type is "number" if every member of the enum is an integer.
// Otherwise a list index selects one item of the resolved sequence.
//
// doc is never modified.
func Locate(p Pointer, doc any) (any, error) {
	current := doc
	for _, seg := range p.Segments {
		obj, ok := current.(*document.Object)
		if !ok {
			return nil, &referrors.TypeMismatchError{
				Pointer:  p.Raw,
				Expected: "map",
				Actual:   document.TypeName(current),
			}
		}
		next, ok := obj.Get(seg)
		if !ok {
			return nil, &referrors.KeyNotFoundError{Pointer: p.Raw, Key: seg}
		}
		current = next
	}

	if p.ListIndex == nil {
		return document.DeepCopy(current), nil
	}

	items, ok := current.([]any)
	if !ok {
		return nil, &referrors.TypeMismatchError{
			Pointer:  p.Raw,
			Expected: "list",
			Actual:   document.TypeName(current),
		}
	}
	idx := *p.ListIndex
	if idx < 0 || idx >= len(items) {
		return nil, &referrors.IndexOutOfRangeError{Pointer: p.Raw, Index: idx, Length: len(items)}
	}

	if p.HasSegment("enum") {
		return enumMember(items, idx), nil
	}
	return document.DeepCopy(items[idx]), nil
}

func enumMember(items []any, idx int) *document.Object {
	enumType := "number"
	for _, item := range items {
		if !document.IsInteger(item) {
			enumType = "string"
			break
		}
	}
	out := document.NewObject()
	out.Set("enum", []any{document.DeepCopy(items[idx])})
	out.Set("type", enumType)
	return out
}

// DefaultFragment returns the default schema location of an external
// document: its "properties" object when present, otherwise the document
// itself. The result is a copy.
func DefaultFragment(doc *document.Object) any {
	if props, ok := doc.Get("properties"); ok {
		return document.DeepCopy(props)
	}
	return doc.Clone()
}

// ResolvePath resolves a reference's relative file part against the
// directory of the file that contains the reference. The result is absolute
// and cleaned; the target is not required to exist.
func ResolvePath(relative, referencingFile string) string {
	if filepath.IsAbs(relative) {
		return filepath.Clean(relative)
	}
	base := filepath.Dir(referencingFile)
	if abs, err := filepath.Abs(base); err == nil {
		base = abs
	}
	return filepath.Join(base, filepath.FromSlash(relative))
}
