package collection

import (
	"fmt"
	"strings"

	"github.com/oarkflow/jsv"
)

type LineKind uint8

const (
	KindRecord LineKind = iota
	KindTemplate
)

func (k LineKind) String() string {
	if k == KindTemplate {
		return "template"
	}
	return "record"
}

// Line is one decoded stream line. Template is set for template lines and
// Value for record lines.
type Line struct {
	Kind     LineKind
	ID       string
	Template *jsv.Template
	Value    any
}

// TemplateLine returns the declaration of id, for example `#t1 {"key_1"}`.
func (c *Collection) TemplateLine(id string) (string, error) {
	t, err := c.Get(id)
	if err != nil {
		return "", err
	}
	return "#" + id + " " + t.String(), nil
}

// TemplateLines returns the declarations of every id in IDs order.
func (c *Collection) TemplateLines() []string {
	s := c.load()
	out := make([]string, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, "#"+id+" "+s.byID[id].String())
	}
	return out
}

// RecordLine encodes v with the template bound to id. Records of DefaultID
// carry no marker; others are prefixed with `@id `.
func (c *Collection) RecordLine(v any, id string) (string, error) {
	t, err := c.Get(id)
	if err != nil {
		return "", err
	}
	rec, err := t.Encode(v)
	if err != nil {
		return "", err
	}
	if id == DefaultID {
		return rec, nil
	}
	return "@" + id + " " + rec, nil
}

// ReadLine decodes one stream line. A template line also (re)binds its id.
// Trailing line terminators are ignored. Record errors carry columns
// relative to the record text after the marker.
func (c *Collection) ReadLine(line string) (Line, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return c.readRecord(DefaultID, line)
	}
	switch line[0] {
	case '#':
		id, rest, err := splitID(line)
		if err != nil {
			return Line{}, err
		}
		t, err := c.SetString(id, rest)
		if err != nil {
			return Line{}, fmt.Errorf("template %q: %w", id, err)
		}
		return Line{Kind: KindTemplate, ID: id, Template: t}, nil
	case '@':
		id, rest, err := splitID(line)
		if err != nil {
			return Line{}, err
		}
		return c.readRecord(id, rest)
	}
	return c.readRecord(DefaultID, line)
}

func (c *Collection) readRecord(id, text string) (Line, error) {
	t, err := c.Get(id)
	if err != nil {
		return Line{}, err
	}
	v, err := t.Decode(text)
	if err != nil {
		return Line{}, err
	}
	return Line{Kind: KindRecord, ID: id, Value: v}, nil
}

// splitID reads the id after the one byte marker. The id ends at the first
// space.
func splitID(line string) (string, string, error) {
	end := strings.IndexByte(line, ' ')
	if end < 0 {
		return "", "", fmt.Errorf("%w: missing space after id", ErrInvalidID)
	}
	id := line[1:end]
	if err := ValidateID(id); err != nil {
		return "", "", err
	}
	return id, line[end+1:], nil
}
