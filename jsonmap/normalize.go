package jsonmap

import (
	"encoding"
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-reflect"

	"github.com/oarkflow/jsv/marshaler"
)

type jsonMarshaler interface {
	MarshalJSON() ([]byte, error)
}

// Normalize converts v into the decoded value universe (nil, bool, string,
// Number, []any, *Map).
//
// Go numbers become Numbers, plain Go maps become Maps ordered by key,
// slices and arrays become []any, []byte becomes a base64 string and
// structs become Maps in field declaration order (json tags honoured).
// Values implementing json.Marshaler are marshalled with the configured
// marshaler and re-scanned; encoding.TextMarshaler yields a string.
func Normalize(v any) (any, error) {
	switch x := v.(type) {
	case nil, bool, string, Number:
		return x, nil
	case *Map:
		if x == nil {
			return nil, nil
		}
		out := NewMap(x.Len())
		for _, k := range x.keys {
			n, err := Normalize(x.values[k])
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out.Set(k, n)
		}
		return out, nil
	case []any:
		if x == nil {
			return nil, nil
		}
		out := make([]any, len(x))
		for i, e := range x {
			n, err := Normalize(e)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case map[string]any:
		if x == nil {
			return nil, nil
		}
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := NewMap(len(keys))
		for _, k := range keys {
			n, err := Normalize(x[k])
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out.Set(k, n)
		}
		return out, nil
	case float64:
		return floatNumber(x, 64)
	case float32:
		return floatNumber(float64(x), 32)
	case int:
		return Number(strconv.FormatInt(int64(x), 10)), nil
	case int64:
		return Number(strconv.FormatInt(x, 10)), nil
	case []byte:
		if x == nil {
			return nil, nil
		}
		return base64.StdEncoding.EncodeToString(x), nil
	case jsonMarshaler:
		return normalizeMarshaler(x)
	case encoding.TextMarshaler:
		text, err := x.MarshalText()
		if err != nil {
			return nil, err
		}
		return string(text), nil
	}
	return normalizeReflect(v)
}

func floatNumber(f float64, bits int) (any, error) {
	b, err := appendFloat(nil, f, bits)
	if err != nil {
		return nil, err
	}
	return Number(b), nil
}

func normalizeMarshaler(m jsonMarshaler) (any, error) {
	data, err := marshaler.Instance()(m)
	if err != nil {
		return nil, err
	}
	v, err := ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("re-scanning %T: %w", m, err)
	}
	return v, nil
}

func normalizeReflect(v any) (any, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return Normalize(rv.Elem().Interface())
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(strconv.FormatInt(rv.Int(), 10)), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Number(strconv.FormatUint(rv.Uint(), 10)), nil
	case reflect.Float32:
		return floatNumber(rv.Float(), 32)
	case reflect.Float64:
		return floatNumber(rv.Float(), 64)
	case reflect.Slice:
		if rv.IsNil() {
			return nil, nil
		}
		return normalizeList(rv)
	case reflect.Array:
		return normalizeList(rv)
	case reflect.Map:
		if rv.IsNil() {
			return nil, nil
		}
		return normalizeMap(rv)
	case reflect.Struct:
		return normalizeStruct(reflect.TypeOf(v), rv)
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
}

func normalizeList(rv reflect.Value) (any, error) {
	n := rv.Len()
	out := make([]any, n)
	for i := 0; i < n; i++ {
		e, err := Normalize(rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		out[i] = e
	}
	return out, nil
}

func normalizeMap(rv reflect.Value) (any, error) {
	type entry struct {
		key string
		val reflect.Value
	}
	entries := make([]entry, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		var key string
		switch k.Kind() {
		case reflect.String:
			key = k.String()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			key = strconv.FormatInt(k.Int(), 10)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			key = strconv.FormatUint(k.Uint(), 10)
		default:
			if tm, ok := k.Interface().(encoding.TextMarshaler); ok {
				text, err := tm.MarshalText()
				if err != nil {
					return nil, err
				}
				key = string(text)
				break
			}
			return nil, fmt.Errorf("unsupported map key type %s", k.Kind())
		}
		entries = append(entries, entry{key: key, val: rv.MapIndex(k)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	out := NewMap(len(entries))
	for _, e := range entries {
		n, err := Normalize(e.val.Interface())
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", e.key, err)
		}
		out.Set(e.key, n)
	}
	return out, nil
}

// ----------------------
// Caching of Struct Field Metadata
// ----------------------

type fieldInfo struct {
	index     int
	name      string
	omitEmpty bool
	asString  bool
	embedded  bool
}

var structCache sync.Map // map[reflect.Type][]fieldInfo

func getStructFields(t reflect.Type) []fieldInfo {
	if cached, ok := structCache.Load(t); ok {
		return cached.([]fieldInfo)
	}
	var fields []fieldInfo
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		// Only process exported fields.
		if field.PkgPath != "" {
			continue
		}
		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		info := fieldInfo{
			index:     i,
			name:      name,
			omitEmpty: strings.Contains(opts, "omitempty"),
			asString:  strings.Contains(opts, "string"),
		}
		if info.name == "" {
			info.name = field.Name
			info.embedded = field.Anonymous
		}
		fields = append(fields, info)
	}
	structCache.Store(t, fields)
	return fields
}

func normalizeStruct(t reflect.Type, rv reflect.Value) (any, error) {
	fields := getStructFields(t)
	out := NewMap(len(fields))
	var promoted []*Map
	for _, info := range fields {
		fv := rv.Field(info.index)
		if info.omitEmpty && isEmptyValue(fv) {
			continue
		}
		n, err := Normalize(fv.Interface())
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", info.name, err)
		}
		if info.embedded {
			if m, ok := n.(*Map); ok {
				promoted = append(promoted, m)
				continue
			}
		}
		if info.asString {
			switch n.(type) {
			case Number, bool:
				n = fmt.Sprint(n)
			}
		}
		out.Set(info.name, n)
	}
	// Fields of embedded structs are promoted unless shadowed.
	for _, m := range promoted {
		m.Range(func(k string, v any) bool {
			if !out.Has(k) {
				out.Set(k, v)
			}
			return true
		})
	}
	return out, nil
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	}
	return false
}
