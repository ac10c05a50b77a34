package jsv

import (
	"fmt"

	"github.com/oarkflow/jsv/jsonmap"
)

// Encode renders v as record text. Declared keys are written positionally
// in template order, absent keys leave an empty slot and undeclared keys
// follow as explicit "key":value pairs. Leaf positions hold compact JSON.
//
// v may be any value accepted by jsonmap.Normalize. A value whose shape
// disagrees with the template yields a *ShapeError.
func (t *Template) Encode(v any) (string, error) {
	buf, err := t.AppendEncode(nil, v)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// AppendEncode is like Encode but appends the record text to dst.
func (t *Template) AppendEncode(dst []byte, v any) ([]byte, error) {
	n, err := jsonmap.Normalize(v)
	if err != nil {
		return dst, err
	}
	return encodeNode(dst, t.Root(), n)
}

func encodeNode(buf []byte, n *Node, v any) ([]byte, error) {
	switch n.kind {
	case KindObject:
		m, ok := v.(*jsonmap.Map)
		if !ok || m == nil {
			return buf, &ShapeError{Want: KindObject, Got: kindOf(v)}
		}
		return encodeObject(buf, n, m)
	case KindArray:
		a, ok := v.([]any)
		if !ok || a == nil {
			return buf, &ShapeError{Want: KindArray, Got: kindOf(v)}
		}
		return encodeArray(buf, n, a)
	}
	return jsonmap.AppendValue(buf, v)
}

func encodeObject(buf []byte, n *Node, m *jsonmap.Map) ([]byte, error) {
	var err error
	buf = append(buf, '{')
	for i, e := range n.entries {
		if i > 0 {
			buf = append(buf, ',')
		}
		child, ok := m.Get(e.Key)
		if !ok {
			continue
		}
		if buf, err = encodeNode(buf, e.Node, child); err != nil {
			return buf, fmt.Errorf("key %q: %w", e.Key, err)
		}
	}
	m.Range(func(k string, child any) bool {
		if _, declared := n.entry(k); declared {
			return true
		}
		buf = append(buf, ',')
		buf = jsonmap.AppendString(buf, k)
		buf = append(buf, ':')
		if buf, err = jsonmap.AppendValue(buf, child); err != nil {
			err = fmt.Errorf("key %q: %w", k, err)
			return false
		}
		return true
	})
	if err != nil {
		return buf, err
	}
	return append(buf, '}'), nil
}

func encodeArray(buf []byte, n *Node, a []any) ([]byte, error) {
	var err error
	buf = append(buf, '[')
	for i, e := range a {
		if i > 0 {
			buf = append(buf, ',')
		}
		if buf, err = encodeNode(buf, n.slot(i), e); err != nil {
			return buf, fmt.Errorf("index %d: %w", i, err)
		}
	}
	return append(buf, ']'), nil
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case jsonmap.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case *jsonmap.Map:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
