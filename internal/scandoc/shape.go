package scandoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

var nullLiteral = []byte("null")

// Shape records how an ambiguous field was serialized
type Shape uint8

const (
	// ShapeEmpty - the field was absent, null, or a blank string
	ShapeEmpty Shape = iota
	// ShapeSingle - the field held one bare value
	ShapeSingle
	// ShapeMany - the field held a sequence
	ShapeMany
)

func (s Shape) String() string {
	switch s {
	case ShapeSingle:
		return "single"
	case ShapeMany:
		return "many"
	default:
		return "empty"
	}
}

// OneOrMany holds a field that the scan schema reports either as a single T
// or as a sequence of T, depending on how many values occurred.
type OneOrMany[T any] struct {
	shape Shape
	items []T
}

// Single wraps one value
func Single[T any](v T) OneOrMany[T] {
	return OneOrMany[T]{shape: ShapeSingle, items: []T{v}}
}

// Many wraps a sequence, even one of length one
func Many[T any](vs ...T) OneOrMany[T] {
	return OneOrMany[T]{shape: ShapeMany, items: vs}
}

// FromSlice picks the shape the markup parser would have produced for vs:
// empty for none, single for one, many otherwise.
func FromSlice[T any](vs []T) OneOrMany[T] {
	switch len(vs) {
	case 0:
		return OneOrMany[T]{}
	case 1:
		return Single(vs[0])
	default:
		return Many(vs...)
	}
}

// Items returns the wrapped values in order. Absent input yields nil.
func (o OneOrMany[T]) Items() []T {
	return o.items
}

// Shape returns how the field was serialized
func (o OneOrMany[T]) Shape() Shape {
	return o.shape
}

// Len returns the number of wrapped values
func (o OneOrMany[T]) Len() int {
	return len(o.items)
}

// IsEmpty reports whether the field was absent
func (o OneOrMany[T]) IsEmpty() bool {
	return len(o.items) == 0
}

// UnmarshalJSON implements json.Unmarshaler
func (o *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	if isAbsent(data) {
		*o = OneOrMany[T]{}
		return nil
	}

	trimmed := bytes.TrimSpace(data)
	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*o = OneOrMany[T]{shape: ShapeMany, items: items}
		return nil
	}

	var item T
	if err := json.Unmarshal(trimmed, &item); err != nil {
		return err
	}
	*o = Single(item)
	return nil
}

// MarshalJSON implements json.Marshaler, preserving the original shape
func (o OneOrMany[T]) MarshalJSON() ([]byte, error) {
	switch o.shape {
	case ShapeSingle:
		return json.Marshal(o.items[0])
	case ShapeMany:
		if o.items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(o.items)
	default:
		return nullLiteral, nil
	}
}

// Text is a scalar the schema carries as a string but some producers emit as
// a JSON number (port ids, counters, timestamps).
type Text string

// UnmarshalJSON implements json.Unmarshaler
func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, nullLiteral) {
		*t = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		*t = Text(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", trimmed)
	}
	*t = Text(n.String())
	return nil
}

func (t Text) String() string {
	return string(t)
}

// isAbsent treats missing, null and whitespace-only string values as absent.
// The markup parser renders empty elements as "".
func isAbsent(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, nullLiteral) {
		return true
	}
	if trimmed[0] != '"' {
		return false
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return false
	}
	return strings.TrimSpace(s) == ""
}

// decodeOptional decodes an optional block, leaving nil for absent input
func decodeOptional[T any](data json.RawMessage) (*T, error) {
	if isAbsent(data) {
		return nil, nil
	}
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	return v, nil
}
