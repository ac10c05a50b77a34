// Package stream reads and writes jsv streams: one record per line, with
// template declarations either inline or in a separate template stream.
package stream

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/oarkflow/jsv"
	"github.com/oarkflow/jsv/collection"
	"github.com/oarkflow/jsv/jsonmap"
)

// Writer encodes values as lines of a jsv stream. Template lines are
// written when an id is first bound or rebound to a different template.
// Methods are safe for concurrent use.
type Writer struct {
	mu      sync.Mutex
	rec     *bufio.Writer
	tmpl    *bufio.Writer
	coll    *collection.Collection
	rules   []compiledRule
	infer   bool
	autoSeq int

	templates map[string]*jsv.Template
	ruleDefs  []Rule
}

type Option func(*Writer)

// WithTemplates binds the given templates before anything is written.
func WithTemplates(templates map[string]*jsv.Template) Option {
	return func(w *Writer) {
		for id, t := range templates {
			w.templates[id] = t
		}
	}
}

// WithTemplateWriter sends template lines to tw instead of the record
// stream.
func WithTemplateWriter(tw io.Writer) Option {
	return func(w *Writer) { w.tmpl = bufio.NewWriter(tw) }
}

// WithRules adds template selection rules used by WriteAuto, tried in
// order.
func WithRules(rules ...Rule) Option {
	return func(w *Writer) { w.ruleDefs = append(w.ruleDefs, rules...) }
}

// WithInference lets WriteAuto infer a template for records no rule
// matches, reusing a bound id when an equal template exists.
func WithInference() Option {
	return func(w *Writer) { w.infer = true }
}

// NewWriter returns a Writer on out. The declarations of the initial
// templates are written immediately, except the default `#_ {}`.
func NewWriter(out io.Writer, opts ...Option) (*Writer, error) {
	w := &Writer{
		rec:       bufio.NewWriter(out),
		templates: map[string]*jsv.Template{},
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.tmpl == nil {
		w.tmpl = w.rec
	}
	for _, r := range w.ruleDefs {
		cr, err := compileRule(r)
		if err != nil {
			return nil, err
		}
		w.rules = append(w.rules, cr)
	}
	coll, err := collection.New(w.templates)
	if err != nil {
		return nil, err
	}
	w.coll = coll
	for _, id := range coll.IDs() {
		line, _ := coll.TemplateLine(id)
		if id == collection.DefaultID && line == "#_ {}" {
			continue
		}
		if err := writeLine(w.tmpl, line); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func writeLine(w *bufio.Writer, line string) error {
	if _, err := w.WriteString(line); err != nil {
		return err
	}
	return w.WriteByte('\n')
}

// Collection returns the templates bound so far.
func (w *Writer) Collection() *collection.Collection {
	return w.coll
}

// SetTemplate binds id to t and writes its declaration. Rebinding an id to
// an equal template writes nothing.
func (w *Writer) SetTemplate(id string, t *jsv.Template) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.setTemplate(id, t)
}

func (w *Writer) setTemplate(id string, t *jsv.Template) error {
	if t == nil {
		t = jsv.Leaf()
	}
	if old, err := w.coll.Get(id); err == nil && old.Equal(t) {
		return nil
	}
	if err := w.coll.Set(id, t); err != nil {
		return err
	}
	line, err := w.coll.TemplateLine(id)
	if err != nil {
		return err
	}
	return writeLine(w.tmpl, line)
}

// Write encodes v with the template bound to id.
func (w *Writer) Write(v any, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.write(v, id)
}

func (w *Writer) write(v any, id string) error {
	line, err := w.coll.RecordLine(v, id)
	if err != nil {
		return err
	}
	return writeLine(w.rec, line)
}

// WriteAuto picks the id for v and writes it. The first matching rule
// wins; otherwise, with inference enabled, the inferred template's id is
// used, binding a fresh `tN` id when none exists yet. Everything else goes
// to the default id. The chosen id is returned.
func (w *Writer) WriteAuto(v any) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	nv, err := jsonmap.Normalize(v)
	if err != nil {
		return "", err
	}
	id, err := w.choose(nv)
	if err != nil {
		return "", err
	}
	return id, w.write(nv, id)
}

func (w *Writer) choose(v any) (string, error) {
	if len(w.rules) > 0 {
		env := ruleEnv(v)
		for _, r := range w.rules {
			ok, err := r.match(env)
			if err != nil {
				return "", err
			}
			if ok {
				return r.ID, nil
			}
		}
	}
	if !w.infer {
		return collection.DefaultID, nil
	}
	t, err := jsv.InferTemplate(v)
	if err != nil {
		return "", err
	}
	if ids := w.coll.Lookup(t); len(ids) > 0 {
		return ids[0], nil
	}
	id := w.nextID()
	if err := w.setTemplate(id, t); err != nil {
		return "", err
	}
	return id, nil
}

func (w *Writer) nextID() string {
	for {
		w.autoSeq++
		id := "t" + strconv.Itoa(w.autoSeq)
		if !w.coll.Has(id) {
			return id
		}
	}
}

// Flush writes buffered template lines, then buffered records.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.tmpl != w.rec {
		if err := w.tmpl.Flush(); err != nil {
			return fmt.Errorf("flush templates: %w", err)
		}
	}
	if err := w.rec.Flush(); err != nil {
		return fmt.Errorf("flush records: %w", err)
	}
	return nil
}
