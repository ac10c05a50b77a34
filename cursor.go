package jsv

import (
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// cursor is the byte position shared by the template parser and the record
// decoder. fail builds the error type of whichever one owns it.
type cursor struct {
	s    string
	pos  int
	fail func(msg string, col int) error
}

func (c *cursor) eof() bool {
	return c.pos >= len(c.s)
}

func (c *cursor) skipSpace() {
	for c.pos < len(c.s) {
		switch c.s[c.pos] {
		case ' ', '\t', '\r', '\n':
			c.pos++
		default:
			return
		}
	}
}

func (c *cursor) errorf(col int, format string, args ...any) error {
	return c.fail(fmt.Sprintf(format, args...), col)
}

// unexpectedEnd reports end of input at the last byte read, so empty input
// reports column -1.
func (c *cursor) unexpectedEnd(awaiting string) error {
	msg := "End of string reached unexpectedly"
	if awaiting != "" {
		msg += " while awaiting `" + awaiting + "`"
	}
	return c.fail(msg, len(c.s)-1)
}

// charAt returns the character starting at pos for use in messages.
func (c *cursor) charAt(pos int) string {
	r, _ := utf8.DecodeRuneInString(c.s[pos:])
	return string(r)
}

type stringState uint8

const (
	stringChar stringState = iota
	stringEscape
	stringHex
)

// scanString reads a quoted string starting at the opening quote and leaves
// the cursor just past the closing quote. It runs a small state machine over
// plain characters, backslash escapes and the four digits of \uXXXX.
// Surrogate pairs are combined; a lone surrogate becomes U+FFFD.
func (c *cursor) scanString() (string, error) {
	c.pos++
	var (
		b      strings.Builder
		state  = stringChar
		code   rune
		digits int
		high   rune
	)
	flushHigh := func() {
		if high != 0 {
			b.WriteRune(utf8.RuneError)
			high = 0
		}
	}
	for ; c.pos < len(c.s); c.pos++ {
		ch := c.s[c.pos]
		switch state {
		case stringChar:
			switch ch {
			case '"':
				flushHigh()
				c.pos++
				return b.String(), nil
			case '\\':
				state = stringEscape
			default:
				flushHigh()
				b.WriteByte(ch)
			}
		case stringEscape:
			if ch == 'u' {
				state, code, digits = stringHex, 0, 0
				continue
			}
			r, ok := shortEscape(ch)
			if !ok {
				return "", c.errorf(c.pos, "expecting valid escape character")
			}
			flushHigh()
			b.WriteByte(r)
			state = stringChar
		case stringHex:
			h, ok := hexValue(ch)
			if !ok {
				return "", c.errorf(c.pos, "Expected a hex character ([0-9A-Fa-f])")
			}
			code = code<<4 | h
			digits++
			if digits < 4 {
				continue
			}
			state = stringChar
			if high != 0 {
				if pair := utf16.DecodeRune(high, code); pair != utf8.RuneError {
					b.WriteRune(pair)
					high = 0
					continue
				}
				flushHigh()
			}
			switch {
			case code >= 0xd800 && code < 0xdc00:
				high = code
			case utf16.IsSurrogate(code):
				b.WriteRune(utf8.RuneError)
			default:
				b.WriteRune(code)
			}
		}
	}
	return "", c.unexpectedEnd("")
}

func shortEscape(ch byte) (byte, bool) {
	switch ch {
	case '"', '\\', '/':
		return ch, true
	case 'b':
		return '\b', true
	case 'f':
		return '\f', true
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	}
	return 0, false
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
