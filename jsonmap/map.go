// Package jsonmap holds the JSON value model used by jsv: an insertion
// ordered object type, a literal number type, a strict cursor based JSON
// scanner and a compact JSON writer.
//
// Decoded values are always one of
//
//	nil, bool, string, Number, []any, *Map
//
// Encoding accepts a wider set of Go values; see Normalize.
package jsonmap

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/oarkflow/date"
)

// Number is a JSON number kept in its literal form so that values such as
// 3.0 or 1e3 survive a decode/encode cycle unchanged.
type Number string

func (n Number) String() string { return string(n) }

func (n Number) Float64() (float64, error) {
	return strconv.ParseFloat(string(n), 64)
}

func (n Number) Int64() (int64, error) {
	return strconv.ParseInt(string(n), 10, 64)
}

// Map is a JSON object that remembers key insertion order. Overwriting an
// existing key keeps its original position. The zero value is ready to use.
type Map struct {
	keys   []string
	values map[string]any
}

func NewMap(capacity int) *Map {
	return &Map{
		keys:   make([]string, 0, capacity),
		values: make(map[string]any, capacity),
	}
}

// MapOf builds a Map from alternating key/value arguments.
func MapOf(kv ...any) *Map {
	if len(kv)%2 != 0 {
		panic("jsonmap: MapOf needs an even number of arguments")
	}
	m := NewMap(len(kv) / 2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("jsonmap: MapOf key %d is %T, not string", i/2, kv[i]))
		}
		m.Set(k, kv[i+1])
	}
	return m
}

func (m *Map) Set(key string, value any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

func (m *Map) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order. The slice is a copy.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Range calls fn for each entry in insertion order until fn returns false.
func (m *Map) Range(fn func(key string, value any) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// ToMap returns a shallow copy as a plain Go map.
func (m *Map) ToMap() map[string]any {
	out := make(map[string]any, m.Len())
	m.Range(func(k string, v any) bool {
		out[k] = v
		return true
	})
	return out
}

// Equal reports whether m and o hold the same entries, ignoring order.
func (m *Map) Equal(o *Map) bool {
	return Equal(m, o)
}

func (m *Map) String() string {
	b, err := Marshal(m)
	if err != nil {
		return fmt.Sprintf("%%!jsonmap(%v)", err)
	}
	return string(b)
}

func (m *Map) MarshalJSON() ([]byte, error) {
	return Marshal(m)
}

func (m *Map) UnmarshalJSON(data []byte) error {
	v, err := ParseBytes(data)
	if err != nil {
		return err
	}
	obj, ok := v.(*Map)
	if !ok {
		return fmt.Errorf("jsonmap: cannot unmarshal %s into Map", kindOf(v))
	}
	*m = *obj
	return nil
}

var errMissingKey = errors.New("key not found")

func (m *Map) GetString(key string) (string, error) {
	v, ok := m.Get(key)
	if !ok {
		return "", fmt.Errorf("%q: %w", key, errMissingKey)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%q: expected string, got %s", key, kindOf(v))
	}
	return s, nil
}

func (m *Map) GetNumber(key string) (Number, error) {
	v, ok := m.Get(key)
	if !ok {
		return "", fmt.Errorf("%q: %w", key, errMissingKey)
	}
	n, ok := v.(Number)
	if !ok {
		return "", fmt.Errorf("%q: expected number, got %s", key, kindOf(v))
	}
	return n, nil
}

// GetTime parses a string field as a date. Any layout understood by
// github.com/oarkflow/date is accepted.
func (m *Map) GetTime(key string) (time.Time, error) {
	s, err := m.GetString(key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := date.Parse(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q: %w", key, err)
	}
	return t, nil
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case *Map:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
