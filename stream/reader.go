package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/oarkflow/jsv"
	"github.com/oarkflow/jsv/collection"
)

// ErrTemplateOnly is returned when a template stream holds anything other
// than template declarations.
var ErrTemplateOnly = errors.New("expecting only template definitions in a template stream")

// Record is one decoded record line.
type Record struct {
	ID    string
	Value any
	Line  int
}

// Reader decodes a jsv stream. Template lines rebind ids as they are met
// and are not returned.
type Reader struct {
	rec       *bufio.Reader
	tmpl      io.Reader
	templates map[string]*jsv.Template
	coll      *collection.Collection
	line      int
	err       error
}

type ReaderOption func(*Reader)

// WithTemplateReader loads template declarations from tr before the first
// record is read.
func WithTemplateReader(tr io.Reader) ReaderOption {
	return func(r *Reader) { r.tmpl = tr }
}

// WithKnownTemplates binds templates that the stream itself does not
// declare.
func WithKnownTemplates(templates map[string]*jsv.Template) ReaderOption {
	return func(r *Reader) {
		if r.templates == nil {
			r.templates = map[string]*jsv.Template{}
		}
		for id, t := range templates {
			r.templates[id] = t
		}
	}
}

func NewReader(in io.Reader, opts ...ReaderOption) *Reader {
	r := &Reader{rec: bufio.NewReader(in)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Collection returns the templates bound so far. It is nil until the first
// call to Read.
func (r *Reader) Collection() *collection.Collection {
	return r.coll
}

func (r *Reader) init() error {
	coll, err := collection.New(r.templates)
	if err != nil {
		return err
	}
	r.coll = coll
	if r.tmpl == nil {
		return nil
	}
	br := bufio.NewReader(r.tmpl)
	for n := 1; ; n++ {
		line, err := readLine(br)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("template stream: %w", err)
		}
		if isBlank(line) {
			continue
		}
		if line[0] != '#' {
			return fmt.Errorf("template stream line %d: %w", n, ErrTemplateOnly)
		}
		if _, err := coll.ReadLine(line); err != nil {
			return fmt.Errorf("template stream line %d: %w", n, err)
		}
	}
}

// Read returns the next record. It returns io.EOF after the last one. Any
// other error is sticky.
func (r *Reader) Read() (Record, error) {
	if r.err != nil {
		return Record{}, r.err
	}
	if r.coll == nil {
		if err := r.init(); err != nil {
			r.err = err
			return Record{}, err
		}
	}
	for {
		text, err := readLine(r.rec)
		if err != nil {
			r.err = err
			return Record{}, err
		}
		r.line++
		if isBlank(text) {
			continue
		}
		l, err := r.coll.ReadLine(text)
		if err != nil {
			r.err = fmt.Errorf("line %d: %w", r.line, err)
			return Record{}, r.err
		}
		if l.Kind == collection.KindTemplate {
			continue
		}
		return Record{ID: l.ID, Value: l.Value, Line: r.line}, nil
	}
}

// ReadAll reads records until the end of the stream.
func (r *Reader) ReadAll() ([]Record, error) {
	var out []Record
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

// readLine returns the next line without its terminator. A final line
// without a newline is returned as is; io.EOF is returned only when no
// bytes remain.
func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
