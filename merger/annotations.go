package merger

import (
	"github.com/lokireturns/loki-jsonschema-resolver/document"
	"github.com/lokireturns/loki-jsonschema-resolver/walker"
)

// DefaultAnnotationFields are the fields kept across substitution when no
// other list is configured.
var DefaultAnnotationFields = []string{"nullable", "title", "description", "x-virtual", "format"}

// DefaultPreserveKeys are the site keys kept verbatim across substitution
// when no other list is configured.
var DefaultPreserveKeys = []string{"i6RefCollectionName"}

// Annotation is one captured field.
type Annotation struct {
	Field string
	Value any
}

// Annotations is the ordered set of fields captured from a reference site.
type Annotations []Annotation

// Capture searches site for each field, case-insensitively and at any
// depth, recording the first match. Fields that are absent or hold a zero
// value (false, "", 0, null, empty map or list) are omitted.
func Capture(site *document.Object, fields []string) Annotations {
	var out Annotations
	for _, field := range fields {
		_, value, ok := walker.FindKey(site, field)
		if !ok || document.IsZero(value) {
			continue
		}
		out = append(out, Annotation{Field: field, Value: document.DeepCopy(value)})
	}
	return out
}

// Apply sets each annotation at the top level of site, overwriting any
// existing value.
func (a Annotations) Apply(site *document.Object) {
	for _, ann := range a {
		site.Set(ann.Field, document.DeepCopy(ann.Value))
	}
}

// Get returns the captured value for field.
func (a Annotations) Get(field string) (any, bool) {
	for _, ann := range a {
		if ann.Field == field {
			return ann.Value, true
		}
	}
	return nil, false
}
