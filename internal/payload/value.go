// Package payload decodes webhook bodies into an ordered tree and locates
// named fields anywhere inside it.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrDuplicateKey is returned when an object repeats a member name.
var ErrDuplicateKey = errors.New("duplicate object key")

// Value is one node of a decoded payload: Scalar, Object or Array.
type Value interface {
	node()
}

// Scalar holds a string, json.Number, bool or nil.
type Scalar struct {
	V any
}

// Member is one key/value entry of an Object.
type Member struct {
	Key   string
	Value Value
}

// Object keeps members in document order.
type Object []Member

// Array is an ordered list of values.
type Array []Value

func (Scalar) node() {}
func (Object) node() {}
func (Array) node()  {}

// Get returns the first member named key.
func (o Object) Get(key string) (Value, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Decode parses a JSON document into a Value tree. Objects that repeat a
// member name are rejected so every key resolves to exactly one value.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := Object{}
			seen := make(map[string]struct{})
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key %v is not a string", keyTok)
				}
				if _, dup := seen[key]; dup {
					return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, key)
				}
				seen[key] = struct{}{}
				child, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj = append(obj, Member{Key: key, Value: child})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			arr := Array{}
			for dec.More() {
				child, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	default:
		return Scalar{V: t}, nil
	}
}

// Native converts a Value into plain Go values (map[string]any, []any, scalars).
func Native(v Value) any {
	switch t := v.(type) {
	case Scalar:
		return t.V
	case Object:
		m := make(map[string]any, len(t))
		for _, member := range t {
			m[member.Key] = Native(member.Value)
		}
		return m
	case Array:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = Native(child)
		}
		return out
	default:
		return nil
	}
}
