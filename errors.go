package jsv

import (
	"fmt"
)

// TemplateDecodeError reports a malformed template string. Column is the
// zero-based byte offset of the offending character.
type TemplateDecodeError struct {
	Msg    string
	Column int
}

func (e *TemplateDecodeError) Error() string {
	return fmt.Sprintf("%s: column %d", e.Msg, e.Column)
}

// RecordDecodeError reports record text that does not match its template.
// Err is set when a raw JSON value could not be scanned.
type RecordDecodeError struct {
	Msg    string
	Column int
	Err    error
}

func (e *RecordDecodeError) Error() string {
	return fmt.Sprintf("%s: column %d", e.Msg, e.Column)
}

func (e *RecordDecodeError) Unwrap() error {
	return e.Err
}

// ShapeError is returned by the encoder when a value is not an object where
// the template declares an object, or not an array where it declares an array.
type ShapeError struct {
	Want Kind
	Got  string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("Expecting %s, got %s", article(e.Want), e.Got)
}

func article(k Kind) string {
	switch k {
	case KindArray:
		return "an array"
	case KindObject:
		return "an object"
	}
	return k.String()
}

func templateError(msg string, col int) error {
	return &TemplateDecodeError{Msg: msg, Column: col}
}

func recordError(msg string, col int) error {
	return &RecordDecodeError{Msg: msg, Column: col}
}
