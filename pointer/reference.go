// Package pointer parses $ref strings and resolves them against documents.
//
// A reference takes one of three shapes:
//
//	#/components/schemas/Pet                       Internal
//	./pet.json                                     External
//	./pet.json#/components/schemas/Pet             ExternalInternal
//
// A trailing integer segment addresses a list item, and under an "enum"
// segment it addresses a single enum member:
//
//	#/components/schemas/Unit/enum/0
package pointer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/lokireturns/loki-jsonschema-resolver/referrors"
)

// Kind identifies where a reference points.
type Kind int

const (
	// Internal points into the same document.
	Internal Kind = iota + 1
	// External points at another file's default schema location.
	External
	// ExternalInternal points at an explicit location in another file.
	ExternalInternal
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case Internal:
		return "internal"
	case External:
		return "external"
	case ExternalInternal:
		return "external-internal"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Pointer is the parsed "#/..." portion of a reference.
type Pointer struct {
	// Raw is the pointer text, including the leading '#'
	Raw string
	// Segments are the map keys to traverse, in order
	Segments []string
	// ListIndex is set when the final segment was an integer
	ListIndex *int
}

// String returns the original pointer text.
func (p Pointer) String() string {
	return p.Raw
}

// HasSegment reports whether any segment equals name, ignoring case.
func (p Pointer) HasSegment(name string) bool {
	for _, s := range p.Segments {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// Reference is a classified $ref value. Path is set for External and
// ExternalInternal references, Pointer for Internal and ExternalInternal.
type Reference struct {
	Raw     string
	Kind    Kind
	Path    string
	Pointer Pointer
}

// String returns the original reference text.
func (r Reference) String() string {
	return r.Raw
}

// Classify determines the kind of a $ref value from its shape.
func Classify(ref any) (Kind, error) {
	s, ok := ref.(string)
	if !ok {
		return 0, &referrors.InvalidReferenceError{
			Ref:       fmt.Sprintf("%v", ref),
			NotString: true,
		}
	}
	switch {
	case s == "":
		return 0, &referrors.InvalidReferenceError{Reason: "empty reference"}
	case s[0] == '.' && strings.Contains(s, "#"):
		return ExternalInternal, nil
	case s[0] == '.':
		return External, nil
	case s[0] == '#':
		return Internal, nil
	default:
		return 0, &referrors.InvalidReferenceError{Ref: s, Reason: "must start with '.' or '#'"}
	}
}

// Parse classifies ref and splits it into its file and pointer parts.
func Parse(ref any) (Reference, error) {
	kind, err := Classify(ref)
	if err != nil {
		return Reference{}, err
	}
	s := ref.(string)
	r := Reference{Raw: s, Kind: kind}

	switch kind {
	case Internal:
		r.Pointer, err = ParsePointer(s)
	case External:
		r.Path = s
	case ExternalInternal:
		path, fragment, _ := strings.Cut(s, "#")
		r.Path = path
		r.Pointer, err = ParsePointer("#" + fragment)
	}
	if err != nil {
		return Reference{}, err
	}
	return r, nil
}

// ParsePointer splits a "#/a/b" pointer into segments. A trailing integer
// segment is removed and returned as the list index.
func ParsePointer(s string) (Pointer, error) {
	if !strings.HasPrefix(s, "#") {
		return Pointer{}, &referrors.InvalidReferenceError{Ref: s, Reason: "pointer must start with '#'"}
	}
	last := []rune(s)[len([]rune(s))-1]
	if !unicode.IsLetter(last) && !unicode.IsDigit(last) {
		return Pointer{}, &referrors.InvalidReferenceError{
			Ref:    s,
			Reason: fmt.Sprintf("last character %q is not alphanumeric", last),
		}
	}

	p := Pointer{Raw: s}
	body := strings.TrimPrefix(strings.TrimPrefix(s, "#"), "/")
	p.Segments = strings.Split(body, "/")

	if n := len(p.Segments); n > 0 {
		if idx, err := strconv.Atoi(p.Segments[n-1]); err == nil {
			p.ListIndex = &idx
			p.Segments = p.Segments[:n-1]
		}
	}
	return p, nil
}
