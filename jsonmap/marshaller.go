package jsonmap

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
	"unicode/utf16"
	"unicode/utf8"
)

type encoder struct {
	buf []byte
}

func newEncoder() *encoder {
	const initialCapacity = 4096
	return &encoder{
		buf: make([]byte, 0, initialCapacity),
	}
}

func (e *encoder) reset() {
	e.buf = e.buf[:0]
}

func (e *encoder) encode(v any) error {
	switch vv := v.(type) {
	case nil:
		e.buf = append(e.buf, "null"...)
	case bool:
		e.buf = strconv.AppendBool(e.buf, vv)
	case string:
		e.buf = AppendString(e.buf, vv)
	case Number:
		if !validNumber(string(vv)) {
			return fmt.Errorf("invalid number literal %q", string(vv))
		}
		e.buf = append(e.buf, vv...)
	case float64:
		return e.encodeFloat(vv, 64)
	case int:
		e.buf = strconv.AppendInt(e.buf, int64(vv), 10)
	case int64:
		e.buf = strconv.AppendInt(e.buf, vv, 10)
	case *Map:
		return e.encodeMap(vv)
	case []any:
		return e.encodeSlice(vv)
	case map[string]any:
		return e.encodePlainMap(vv)
	default:
		n, err := Normalize(v)
		if err != nil {
			return err
		}
		return e.encode(n)
	}
	return nil
}

func (e *encoder) encodeFloat(f float64, bits int) error {
	b, err := appendFloat(e.buf, f, bits)
	if err != nil {
		return err
	}
	e.buf = b
	return nil
}

func (e *encoder) encodeMap(m *Map) error {
	if m == nil {
		e.buf = append(e.buf, "null"...)
		return nil
	}
	e.buf = append(e.buf, '{')
	for i, k := range m.keys {
		if i > 0 {
			e.buf = append(e.buf, ',')
		}
		e.buf = AppendString(e.buf, k)
		e.buf = append(e.buf, ':')
		if err := e.encode(m.values[k]); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
	}
	e.buf = append(e.buf, '}')
	return nil
}

// encodePlainMap writes keys in sorted order so output is deterministic.
func (e *encoder) encodePlainMap(m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	e.buf = append(e.buf, '{')
	for i, k := range keys {
		if i > 0 {
			e.buf = append(e.buf, ',')
		}
		e.buf = AppendString(e.buf, k)
		e.buf = append(e.buf, ':')
		if err := e.encode(m[k]); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
	}
	e.buf = append(e.buf, '}')
	return nil
}

func (e *encoder) encodeSlice(s []any) error {
	e.buf = append(e.buf, '[')
	for i, val := range s {
		if i > 0 {
			e.buf = append(e.buf, ',')
		}
		if err := e.encode(val); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	e.buf = append(e.buf, ']')
	return nil
}

const hexDigits = "0123456789abcdef"

// AppendString appends s as a quoted JSON string. Quote, backslash and the
// \b \f \n \r \t controls use short escapes; every other code point outside
// printable ASCII is written as \uXXXX (a surrogate pair above U+FFFF).
// Invalid UTF-8 is replaced by U+FFFD.
func AppendString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	start := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c >= 0x20 && c < 0x7f && c != '"' && c != '\\' {
			i++
			continue
		}
		dst = append(dst, s[start:i]...)
		if c < utf8.RuneSelf {
			switch c {
			case '"', '\\':
				dst = append(dst, '\\', c)
			case '\b':
				dst = append(dst, '\\', 'b')
			case '\f':
				dst = append(dst, '\\', 'f')
			case '\n':
				dst = append(dst, '\\', 'n')
			case '\r':
				dst = append(dst, '\\', 'r')
			case '\t':
				dst = append(dst, '\\', 't')
			default:
				dst = appendUnicodeEscape(dst, rune(c))
			}
			i++
			start = i
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r >= 0x10000 {
			r1, r2 := utf16.EncodeRune(r)
			dst = appendUnicodeEscape(dst, r1)
			dst = appendUnicodeEscape(dst, r2)
		} else {
			dst = appendUnicodeEscape(dst, r)
		}
		i += size
		start = i
	}
	dst = append(dst, s[start:]...)
	return append(dst, '"')
}

func appendUnicodeEscape(dst []byte, r rune) []byte {
	return append(dst, '\\', 'u',
		hexDigits[r>>12&0xF], hexDigits[r>>8&0xF], hexDigits[r>>4&0xF], hexDigits[r&0xF])
}

// appendFloat formats f the way encoding/json does.
func appendFloat(dst []byte, f float64, bits int) ([]byte, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return dst, fmt.Errorf("unsupported float value: %v", f)
	}
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 {
		if bits == 64 && (abs < 1e-6 || abs >= 1e21) || bits == 32 && (float32(abs) < 1e-6 || float32(abs) >= 1e21) {
			format = 'e'
		}
	}
	dst = strconv.AppendFloat(dst, f, format, -1, bits)
	if format == 'e' {
		// clean up e-09 to e-9
		n := len(dst)
		if n >= 4 && dst[n-4] == 'e' && dst[n-3] == '-' && dst[n-2] == '0' {
			dst[n-2] = dst[n-1]
			dst = dst[:n-1]
		}
	}
	return dst, nil
}

var encoderPool = sync.Pool{
	New: func() any { return newEncoder() },
}

// Marshal returns the compact JSON encoding of v.
func Marshal(v any) ([]byte, error) {
	enc := encoderPool.Get().(*encoder)
	defer encoderPool.Put(enc)
	enc.reset()
	if err := enc.encode(v); err != nil {
		return nil, err
	}
	ret := make([]byte, len(enc.buf))
	copy(ret, enc.buf)
	return ret, nil
}

// AppendValue appends the compact JSON encoding of v to dst.
func AppendValue(dst []byte, v any) ([]byte, error) {
	enc := &encoder{buf: dst}
	if err := enc.encode(v); err != nil {
		return dst, err
	}
	return enc.buf, nil
}
