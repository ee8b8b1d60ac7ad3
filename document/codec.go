package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	gojson "github.com/goccy/go-json"
)

// Indent is the fixed indentation used when persisting documents.
const Indent = "  "

// Parse decodes a single JSON value, keeping object key order.
func Parse(data []byte) (any, error) {
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if tok, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("unexpected trailing data %v after top-level value", tok)
	}
	return v, nil
}

// ParseObject decodes data and requires the root to be a JSON object.
func ParseObject(data []byte) (*Object, error) {
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*Object)
	if !ok {
		return nil, fmt.Errorf("root must be an object, got %s", TypeName(v))
	}
	return obj, nil
}

func decodeValue(dec *gojson.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *gojson.Decoder, tok gojson.Token) (any, error) {
	switch v := tok.(type) {
	case gojson.Delim:
		switch v {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("expected object key, got %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			items := make([]any, 0)
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				items = append(items, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return items, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %q", rune(v))
	case float64:
		return Number(strconv.FormatFloat(v, 'g', -1, 64)), nil
	default:
		// string, bool, Number and nil are stored as-is
		return v, nil
	}
}

// Marshal encodes v compactly, writing objects in insertion order.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v, "", 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalIndent encodes v with the fixed two-space indent and a trailing newline.
func MarshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v, Indent, 0); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func writeNewline(buf *bytes.Buffer, indent string, depth int) {
	if indent == "" {
		return
	}
	buf.WriteByte('\n')
	buf.WriteString(strings.Repeat(indent, depth))
}

func writeValue(buf *bytes.Buffer, v any, indent string, depth int) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case *Object:
		if val.Len() == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteByte('{')
		var err error
		i := 0
		val.Range(func(key string, item any) bool {
			if i > 0 {
				buf.WriteByte(',')
			}
			i++
			writeNewline(buf, indent, depth+1)
			if err = writeScalar(buf, key); err != nil {
				return false
			}
			buf.WriteByte(':')
			if indent != "" {
				buf.WriteByte(' ')
			}
			err = writeValue(buf, item, indent, depth+1)
			return err == nil
		})
		if err != nil {
			return err
		}
		writeNewline(buf, indent, depth)
		buf.WriteByte('}')
	case map[string]any:
		return writeValue(buf, FromMap(val), indent, depth)
	case []any:
		if len(val) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeNewline(buf, indent, depth+1)
			if err := writeValue(buf, item, indent, depth+1); err != nil {
				return err
			}
		}
		writeNewline(buf, indent, depth)
		buf.WriteByte(']')
	default:
		return writeScalar(buf, val)
	}
	return nil
}

type scalarEncoder struct {
	buf bytes.Buffer
	enc *gojson.Encoder
}

var scalarPool = sync.Pool{
	New: func() any {
		s := &scalarEncoder{}
		s.enc = gojson.NewEncoder(&s.buf)
		s.enc.SetEscapeHTML(false)
		return s
	},
}

// writeScalar encodes a leaf value without HTML escaping, so schema text
// such as "<br>" or "a & b" is written back unchanged.
func writeScalar(buf *bytes.Buffer, v any) error {
	s := scalarPool.Get().(*scalarEncoder)
	defer scalarPool.Put(s)
	s.buf.Reset()
	if err := s.enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %s: %w", TypeName(v), err)
	}
	buf.Write(bytes.TrimRight(s.buf.Bytes(), "\n"))
	return nil
}

// DeepCopy returns a copy of v that shares no mutable state with it.
func DeepCopy(v any) any {
	switch val := v.(type) {
	case *Object:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = DeepCopy(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = DeepCopy(item)
		}
		return out
	default:
		return val
	}
}

// Equal reports whether a and b hold the same content. Object key order is
// not significant; sequence order is.
func Equal(a, b any) bool {
	switch av := a.(type) {
	case *Object:
		bv, ok := b.(*Object)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		equal := true
		av.Range(func(key string, item any) bool {
			other, ok := bv.Get(key)
			equal = ok && Equal(item, other)
			return equal
		})
		return equal
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	default:
		return false
	}
}

// IsInteger reports whether v is a Number with an integral literal.
func IsInteger(v any) bool {
	n, ok := v.(Number)
	if !ok {
		return false
	}
	_, err := strconv.ParseInt(string(n), 10, 64)
	return err == nil
}

// IsZero reports whether v is an empty or false-like value: null, false,
// "", a zero number, or an empty object or sequence.
func IsZero(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case bool:
		return !val
	case string:
		return val == ""
	case Number:
		f, err := strconv.ParseFloat(string(val), 64)
		return err == nil && f == 0
	case *Object:
		return val.Len() == 0
	case []any:
		return len(val) == 0
	default:
		return false
	}
}

// TypeName returns a short JSON-flavoured name for the type of v.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case *Object, map[string]any:
		return "map"
	case []any:
		return "list"
	case string:
		return "string"
	case Number:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
