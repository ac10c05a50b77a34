package jsonmap

import (
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// SyntaxError describes malformed JSON text. Offset is the byte offset of
// the character that could not be consumed.
type SyntaxError struct {
	Msg    string
	Offset int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at offset %d", e.Msg, e.Offset)
}

// ----------------------
// JSON Decoder
// ----------------------

type decoder struct {
	data string
	pos  int
	len  int
}

func newDecoder(data string, pos int) *decoder {
	return &decoder{data: data, pos: pos, len: len(data)}
}

func (d *decoder) errorf(format string, args ...any) error {
	return &SyntaxError{Msg: fmt.Sprintf(format, args...), Offset: d.pos}
}

func (d *decoder) eof() error {
	return &SyntaxError{Msg: "unexpected end of input", Offset: d.len}
}

func (d *decoder) skipWhitespace() {
	for d.pos < d.len {
		switch d.data[d.pos] {
		case ' ', '\n', '\r', '\t':
			d.pos++
		default:
			return
		}
	}
}

func (d *decoder) decodeValue() (any, error) {
	d.skipWhitespace()
	if d.pos >= d.len {
		return nil, d.eof()
	}
	switch c := d.data[d.pos]; {
	case c == '"':
		return d.decodeString()
	case c == '{':
		return d.decodeObject()
	case c == '[':
		return d.decodeArray()
	case c == 't':
		return d.decodeLiteral("true", true)
	case c == 'f':
		return d.decodeLiteral("false", false)
	case c == 'n':
		return d.decodeLiteral("null", nil)
	case c == '-' || (c >= '0' && c <= '9'):
		return d.decodeNumber()
	default:
		return nil, d.errorf("invalid character %q looking for beginning of value", c)
	}
}

func (d *decoder) decodeObject() (*Map, error) {
	obj := NewMap(4)
	d.pos++ // skip '{'
	d.skipWhitespace()
	if d.pos < d.len && d.data[d.pos] == '}' {
		d.pos++
		return obj, nil
	}
	for {
		d.skipWhitespace()
		if d.pos >= d.len {
			return nil, d.eof()
		}
		if d.data[d.pos] != '"' {
			return nil, d.errorf("expected string key")
		}
		key, err := d.decodeString()
		if err != nil {
			return nil, err
		}
		d.skipWhitespace()
		if d.pos >= d.len {
			return nil, d.eof()
		}
		if d.data[d.pos] != ':' {
			return nil, d.errorf("expected ':' after key")
		}
		d.pos++ // skip ':'
		val, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		obj.Set(key, val)
		d.skipWhitespace()
		if d.pos >= d.len {
			return nil, d.eof()
		}
		switch d.data[d.pos] {
		case ',':
			d.pos++
		case '}':
			d.pos++
			return obj, nil
		default:
			return nil, d.errorf("expected ',' or '}' in object")
		}
	}
}

func (d *decoder) decodeArray() ([]any, error) {
	arr := []any{}
	d.pos++ // skip '['
	d.skipWhitespace()
	if d.pos < d.len && d.data[d.pos] == ']' {
		d.pos++
		return arr, nil
	}
	for {
		val, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
		d.skipWhitespace()
		if d.pos >= d.len {
			return nil, d.eof()
		}
		switch d.data[d.pos] {
		case ',':
			d.pos++
		case ']':
			d.pos++
			return arr, nil
		default:
			return nil, d.errorf("expected ',' or ']' in array")
		}
	}
}

func (d *decoder) decodeString() (string, error) {
	d.pos++ // opening quote
	start := d.pos
	for d.pos < d.len {
		c := d.data[d.pos]
		switch {
		case c == '"':
			// Fast path: no escapes.
			s := d.data[start:d.pos]
			d.pos++
			return s, nil
		case c == '\\':
			return d.decodeStringEscaped(start)
		case c < 0x20:
			return "", d.errorf("invalid control character in string")
		}
		d.pos++
	}
	return "", d.eof()
}

func (d *decoder) decodeStringEscaped(start int) (string, error) {
	var b strings.Builder
	b.Grow(d.pos - start + 16)
	b.WriteString(d.data[start:d.pos])
	for d.pos < d.len {
		c := d.data[d.pos]
		switch {
		case c == '"':
			d.pos++
			return b.String(), nil
		case c < 0x20:
			return "", d.errorf("invalid control character in string")
		case c != '\\':
			b.WriteByte(c)
			d.pos++
			continue
		}
		d.pos++
		if d.pos >= d.len {
			return "", d.eof()
		}
		switch esc := d.data[d.pos]; esc {
		case '"', '\\', '/':
			b.WriteByte(esc)
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'u':
			r, err := d.decodeHex()
			if err != nil {
				return "", err
			}
			if utf16.IsSurrogate(r) && d.pos+6 < d.len && d.data[d.pos+1] == '\\' && d.data[d.pos+2] == 'u' {
				d.pos += 2
				r2, err := d.decodeHex()
				if err != nil {
					return "", err
				}
				if pair := utf16.DecodeRune(r, r2); pair != utf8.RuneError {
					b.WriteRune(pair)
				} else {
					b.WriteRune(utf8.RuneError)
					b.WriteRune(replaceSurrogate(r2))
				}
			} else {
				b.WriteRune(replaceSurrogate(r))
			}
		default:
			return "", d.errorf("invalid escape character %q", esc)
		}
		d.pos++
	}
	return "", d.eof()
}

// decodeHex reads the four hex digits following `\u`. On entry d.pos is on
// the 'u'; on exit it is on the last digit.
func (d *decoder) decodeHex() (rune, error) {
	var r rune
	for i := 0; i < 4; i++ {
		d.pos++
		if d.pos >= d.len {
			return 0, d.eof()
		}
		h, ok := hexValue(d.data[d.pos])
		if !ok {
			return 0, d.errorf("invalid hex digit %q in unicode escape", d.data[d.pos])
		}
		r = r<<4 | h
	}
	return r, nil
}

func replaceSurrogate(r rune) rune {
	if utf16.IsSurrogate(r) {
		return utf8.RuneError
	}
	return r
}

func hexValue(c byte) (rune, bool) {
	switch {
	case c >= '0' && c <= '9':
		return rune(c - '0'), true
	case c >= 'a' && c <= 'f':
		return rune(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return rune(c-'A') + 10, true
	}
	return 0, false
}

func (d *decoder) decodeNumber() (Number, error) {
	start := d.pos
	end, ok := scanNumber(d.data, d.pos)
	if !ok {
		d.pos = end
		return "", d.errorf("invalid number literal")
	}
	d.pos = end
	return Number(d.data[start:end]), nil
}

// scanNumber matches -?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)? at pos
// and returns the end offset.
func scanNumber(s string, pos int) (int, bool) {
	i := pos
	n := len(s)
	digits := func() bool {
		j := i
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		return i > j
	}
	if i < n && s[i] == '-' {
		i++
	}
	switch {
	case i < n && s[i] == '0':
		i++
	case i < n && s[i] >= '1' && s[i] <= '9':
		digits()
	default:
		return i, false
	}
	if i < n && s[i] == '.' {
		i++
		if !digits() {
			return i, false
		}
	}
	if i < n && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < n && (s[i] == '+' || s[i] == '-') {
			i++
		}
		if !digits() {
			return i, false
		}
	}
	return i, true
}

func validNumber(s string) bool {
	end, ok := scanNumber(s, 0)
	return ok && end == len(s)
}

func (d *decoder) decodeLiteral(lit string, value any) (any, error) {
	if !strings.HasPrefix(d.data[d.pos:], lit) {
		return nil, d.errorf("invalid literal, expected %s", lit)
	}
	d.pos += len(lit)
	return value, nil
}

// ----------------------
// Entry points
// ----------------------

// DecodeAt scans one JSON value from s starting at byte offset pos. Leading
// whitespace is skipped. It returns the value and the offset just past it.
func DecodeAt(s string, pos int) (any, int, error) {
	d := newDecoder(s, pos)
	v, err := d.decodeValue()
	if err != nil {
		return nil, d.pos, err
	}
	return v, d.pos, nil
}

// Parse decodes a complete JSON document. Only whitespace may follow the value.
func Parse(s string) (any, error) {
	d := newDecoder(s, 0)
	v, err := d.decodeValue()
	if err != nil {
		return nil, err
	}
	d.skipWhitespace()
	if d.pos < d.len {
		return nil, d.errorf("invalid character %q after top-level value", d.data[d.pos])
	}
	return v, nil
}

func ParseBytes(data []byte) (any, error) {
	return Parse(string(data))
}
