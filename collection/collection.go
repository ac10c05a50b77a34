// Package collection binds templates to string ids so that records of
// several shapes can share one stream, and converts between values and the
// lines of such a stream:
//
//	#t1 {"key_1"}
//	#t2 [{"key_2"}]
//	@t1 {1}
//	@t2 [{2},{null}]
//	{"bound":"to the default id"}
//
// Reads are lock free; writers are serialised and publish a new snapshot.
package collection

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/oarkflow/jsv"
)

// DefaultID is the id of records written without a marker. It is always
// present and starts out bound to jsv.Leaf().
const DefaultID = "_"

var (
	ErrUnknownID       = errors.New("unknown template id")
	ErrInvalidID       = errors.New("Template id must match regex `[a-zA-Z_0-9]+`")
	ErrEmptyID         = errors.New("Template id must not be the empty string")
	ErrDefaultTemplate = errors.New("Cannot delete the default template")
)

type snapshot struct {
	ids    []string
	byID   map[string]*jsv.Template
	byText map[string][]string
}

func (s *snapshot) clone() *snapshot {
	out := &snapshot{
		ids:    make([]string, len(s.ids), len(s.ids)+1),
		byID:   make(map[string]*jsv.Template, len(s.byID)+1),
		byText: make(map[string][]string, len(s.byText)+1),
	}
	copy(out.ids, s.ids)
	for k, v := range s.byID {
		out.byID[k] = v
	}
	for k, v := range s.byText {
		out.byText[k] = v
	}
	return out
}

func (s *snapshot) unbind(id string) {
	old, ok := s.byID[id]
	if !ok {
		return
	}
	text := old.String()
	var kept []string
	for _, other := range s.byText[text] {
		if other != id {
			kept = append(kept, other)
		}
	}
	if len(kept) == 0 {
		delete(s.byText, text)
	} else {
		s.byText[text] = kept
	}
	delete(s.byID, id)
}

func (s *snapshot) bind(id string, t *jsv.Template) {
	if _, ok := s.byID[id]; ok {
		s.unbind(id)
	} else {
		s.ids = append(s.ids, id)
	}
	s.byID[id] = t
	text := t.String()
	ids := append(append([]string(nil), s.byText[text]...), id)
	sort.Strings(ids)
	s.byText[text] = ids
}

// Collection is a registry of templates keyed by id. The zero value is not
// usable; create one with New.
type Collection struct {
	mu   sync.Mutex
	snap atomic.Pointer[snapshot]
}

// New returns a collection holding templates. Ids are registered in sorted
// order after DefaultID. A nil template is registered as jsv.Leaf().
func New(templates map[string]*jsv.Template) (*Collection, error) {
	s := &snapshot{byID: map[string]*jsv.Template{}, byText: map[string][]string{}}
	s.bind(DefaultID, jsv.Leaf())
	ids := make([]string, 0, len(templates))
	for id := range templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := ValidateID(id); err != nil {
			return nil, err
		}
		t := templates[id]
		if t == nil {
			t = jsv.Leaf()
		}
		s.bind(id, t)
	}
	c := &Collection{}
	c.snap.Store(s)
	return c, nil
}

// ValidateID reports whether id can name a template.
func ValidateID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	for i := 0; i < len(id); i++ {
		if !isIDChar(id[i]) {
			return fmt.Errorf("%w: %q", ErrInvalidID, id)
		}
	}
	return nil
}

func isIDChar(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func (c *Collection) load() *snapshot {
	return c.snap.Load()
}

// Set binds id to t, replacing any previous binding.
func (c *Collection) Set(id string, t *jsv.Template) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if t == nil {
		t = jsv.Leaf()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.load().clone()
	s.bind(id, t)
	c.snap.Store(s)
	return nil
}

// SetString parses text and binds the result to id.
func (c *Collection) SetString(id, text string) (*jsv.Template, error) {
	t, err := jsv.ParseTemplate(text)
	if err != nil {
		return nil, err
	}
	if err := c.Set(id, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (c *Collection) Get(id string) (*jsv.Template, error) {
	t, ok := c.load().byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownID, id)
	}
	return t, nil
}

// Delete removes id. DefaultID cannot be deleted.
func (c *Collection) Delete(id string) error {
	if id == DefaultID {
		return ErrDefaultTemplate
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.load()
	if _, ok := old.byID[id]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownID, id)
	}
	s := old.clone()
	s.unbind(id)
	for i, other := range s.ids {
		if other == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	c.snap.Store(s)
	return nil
}

func (c *Collection) Has(id string) bool {
	_, ok := c.load().byID[id]
	return ok
}

func (c *Collection) Len() int {
	return len(c.load().ids)
}

// IDs returns the registered ids in registration order, DefaultID first.
func (c *Collection) IDs() []string {
	s := c.load()
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Lookup returns the sorted ids bound to a template equal to t.
func (c *Collection) Lookup(t *jsv.Template) []string {
	ids := c.load().byText[t.String()]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// Contains reports whether some id is bound to a template equal to t.
func (c *Collection) Contains(t *jsv.Template) bool {
	return len(c.load().byText[t.String()]) > 0
}
