package jsonmap

import (
	"strconv"
)

// Equal reports whether a and b denote the same JSON value. Object key
// order is ignored and numbers are compared by value, so int 1, float64 1
// and Number("1.0") are all equal. Values Normalize rejects are never equal.
func Equal(a, b any) bool {
	na, err := Normalize(a)
	if err != nil {
		return false
	}
	nb, err := Normalize(b)
	if err != nil {
		return false
	}
	return equalNormalized(na, nb)
}

func equalNormalized(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case Number:
		y, ok := b.(Number)
		if !ok {
			return false
		}
		if x == y {
			return true
		}
		fx, err1 := x.Float64()
		fy, err2 := y.Float64()
		return err1 == nil && err2 == nil && fx == fy
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !equalNormalized(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Map:
		y, ok := b.(*Map)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for _, k := range x.keys {
			yv, ok := y.values[k]
			if !ok || !equalNormalized(x.values[k], yv) {
				return false
			}
		}
		return true
	}
	return false
}

// Plain converts a decoded value into plain Go values: objects become
// map[string]any and numbers become int64 when integral, float64
// otherwise. It is meant for handing records to code that does not know
// about Map or Number, such as expression evaluators.
func Plain(v any) any {
	switch x := v.(type) {
	case *Map:
		if x == nil {
			return nil
		}
		out := make(map[string]any, x.Len())
		for _, k := range x.keys {
			out[k] = Plain(x.values[k])
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Plain(e)
		}
		return out
	case Number:
		if i, err := strconv.ParseInt(string(x), 10, 64); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return string(x)
	}
	return v
}
