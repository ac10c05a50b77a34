package collection

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/oarkflow/jsv"
	"github.com/oarkflow/jsv/jsonmap"
)

func mustInfer(t *testing.T, v any) *jsv.Template {
	t.Helper()
	tmpl, err := jsv.InferTemplate(v)
	if err != nil {
		t.Fatal(err)
	}
	return tmpl
}

func newBasic(t *testing.T) *Collection {
	t.Helper()
	c, err := New(map[string]*jsv.Template{
		"a": jsv.MustParseTemplate(`{"key_1"}`),
		"b": jsv.MustParseTemplate(`[{"key_1"}]`),
		"c": mustInfer(t, map[string]any{"key_1": nil}),
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestBasicCollection(t *testing.T) {
	c := newBasic(t)
	if c.Len() != 4 {
		t.Fatalf("Len = %d", c.Len())
	}
	if got := c.IDs(); !reflect.DeepEqual(got, []string{"_", "a", "b", "c"}) {
		t.Fatalf("IDs = %v", got)
	}
	def, err := c.Get(DefaultID)
	if err != nil || !def.Equal(jsv.Leaf()) {
		t.Fatalf("default template = %v, %v", def, err)
	}
	if got := c.Lookup(jsv.MustParseTemplate(`[{"key_1"}]`)); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("Lookup(b) = %v", got)
	}
	if got := c.Lookup(jsv.MustParseTemplate(`{"key_1"}`)); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Fatalf("Lookup(a,c) = %v", got)
	}
	if got := c.Lookup(jsv.MustParseTemplate(``)); !reflect.DeepEqual(got, []string{"_"}) {
		t.Fatalf("Lookup(default) = %v", got)
	}
	if !c.Contains(mustInfer(t, []any{map[string]any{"key_1": nil}})) {
		t.Fatal("expected inferred template to be contained")
	}
	if c.Contains(jsv.MustParseTemplate(`{"key_2"}`)) || len(c.Lookup(jsv.MustParseTemplate(`{"key_2"}`))) != 0 {
		t.Fatal("unexpected template found")
	}
	for _, id := range []string{"a", "b", "c", "_"} {
		if !c.Has(id) {
			t.Fatalf("missing %s", id)
		}
	}
	if c.Has("asdf") {
		t.Fatal("unexpected id asdf")
	}

	if err := c.Set(DefaultID, jsv.MustParseTemplate(`{"new_default"}`)); err != nil {
		t.Fatal(err)
	}
	if _, err := c.SetString("d", `[{"template_d"}]`); err != nil {
		t.Fatal(err)
	}
	if err := c.Set("e", mustInfer(t, []any{map[string]any{"template_e": nil}})); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 6 || !c.Has("d") || !c.Has("e") {
		t.Fatalf("ids after set: %v", c.IDs())
	}
	if c.Contains(jsv.Leaf()) {
		t.Fatal("leaf should no longer be bound")
	}

	if err := c.Delete("a"); err != nil {
		t.Fatal(err)
	}
	if c.Has("a") || !reflect.DeepEqual(c.Lookup(jsv.MustParseTemplate(`{"key_1"}`)), []string{"c"}) {
		t.Fatalf("after delete a: %v", c.IDs())
	}
	if err := c.Delete("c"); err != nil {
		t.Fatal(err)
	}
	if c.Contains(jsv.MustParseTemplate(`{"key_1"}`)) {
		t.Fatal(`{"key_1"} should be gone`)
	}
	if err := c.Delete("asdfasdf"); !errors.Is(err, ErrUnknownID) {
		t.Fatalf("Delete unknown: %v", err)
	}
	if err := c.Delete(DefaultID); !errors.Is(err, ErrDefaultTemplate) || err.Error() != "Cannot delete the default template" {
		t.Fatalf("Delete default: %v", err)
	}
	if _, err := c.Get("asdf"); !errors.Is(err, ErrUnknownID) {
		t.Fatalf("Get unknown: %v", err)
	}
	if err := c.Set("87sfa&&3773", jsv.Leaf()); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("Set invalid: %v", err)
	}
	if err := c.Set("", jsv.Leaf()); !errors.Is(err, ErrEmptyID) {
		t.Fatalf("Set empty: %v", err)
	}
	if _, err := New(map[string]*jsv.Template{"no spaces": nil}); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("New invalid: %v", err)
	}
}

func TestRecordLine(t *testing.T) {
	c := newBasic(t)
	tests := []struct {
		id   string
		v    any
		want string
	}{
		{"a", map[string]any{"key_1": 1, "key_2": nil}, `@a {1,"key_2":null}`},
		{"b", []any{map[string]any{"key_1": 1}, map[string]any{"key_1": 2}}, `@b [{1},{2}]`},
		{"c", map[string]any{"key_1": 1, "key_2": nil}, `@c {1,"key_2":null}`},
		{DefaultID, map[string]any{"key_1": 1, "key_2": nil}, `{"key_1":1,"key_2":null}`},
	}
	for _, tt := range tests {
		got, err := c.RecordLine(tt.v, tt.id)
		if err != nil {
			t.Fatalf("RecordLine(%s): %v", tt.id, err)
		}
		if got != tt.want {
			t.Errorf("RecordLine(%s) = %s, want %s", tt.id, got, tt.want)
		}
	}
	if _, err := c.RecordLine(1, "sdf"); !errors.Is(err, ErrUnknownID) {
		t.Fatalf("RecordLine unknown: %v", err)
	}
	var se *jsv.ShapeError
	if _, err := c.RecordLine(1, "b"); !errors.As(err, &se) {
		t.Fatalf("RecordLine shape: %v", err)
	}
}

func TestTemplateLine(t *testing.T) {
	c := newBasic(t)
	for id, want := range map[string]string{
		"a": `#a {"key_1"}`,
		"b": `#b [{"key_1"}]`,
		"c": `#c {"key_1"}`,
		"_": `#_ {}`,
	} {
		got, err := c.TemplateLine(id)
		if err != nil || got != want {
			t.Errorf("TemplateLine(%s) = %q, %v; want %q", id, got, err, want)
		}
	}
	if _, err := c.TemplateLine("dfjkjdfk"); !errors.Is(err, ErrUnknownID) {
		t.Fatalf("TemplateLine unknown: %v", err)
	}
	want := []string{`#_ {}`, `#a {"key_1"}`, `#b [{"key_1"}]`, `#c {"key_1"}`}
	if got := c.TemplateLines(); !reflect.DeepEqual(got, want) {
		t.Fatalf("TemplateLines = %v", got)
	}
}

func TestReadLine(t *testing.T) {
	c, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	line, err := c.ReadLine(`#a {"key_1"}` + "\n")
	if err != nil {
		t.Fatal(err)
	}
	if line.Kind != KindTemplate || line.ID != "a" || line.Template.String() != `{"key_1"}` || !c.Has("a") {
		t.Fatalf("template line = %+v", line)
	}
	if _, err := c.ReadLine(`#_ [{"key_1"}]`); err != nil {
		t.Fatal(err)
	}
	if !c.Contains(jsv.MustParseTemplate(`[{"key_1"}]`)) {
		t.Fatal("default should be rebound")
	}

	line, err = c.ReadLine("@a {\"value\"}\r\n")
	if err != nil {
		t.Fatal(err)
	}
	if line.Kind != KindRecord || line.ID != "a" || !jsonmap.Equal(line.Value, map[string]any{"key_1": "value"}) {
		t.Fatalf("record line = %+v", line)
	}
	line, err = c.ReadLine(`[{1},{2}]`)
	if err != nil {
		t.Fatal(err)
	}
	want := []any{map[string]any{"key_1": 1}, map[string]any{"key_1": 2}}
	if line.ID != DefaultID || !jsonmap.Equal(line.Value, want) {
		t.Fatalf("default record = %+v", line)
	}

	errTests := []struct {
		line string
		want error
	}{
		{`@* {"value"}`, ErrInvalidID},
		{`@ {"value"}`, ErrEmptyID},
		{`@a`, ErrInvalidID},
		{`@zz {1}`, ErrUnknownID},
	}
	for _, tt := range errTests {
		if _, err := c.ReadLine(tt.line); !errors.Is(err, tt.want) {
			t.Errorf("ReadLine(%q) = %v, want %v", tt.line, err, tt.want)
		}
	}
	var te *jsv.TemplateDecodeError
	if _, err := c.ReadLine(`#b {"x"`); !errors.As(err, &te) || te.Column != 3 {
		t.Fatalf("bad template line: %v", err)
	}
	var re *jsv.RecordDecodeError
	if _, err := c.ReadLine(`@a {1,`); !errors.As(err, &re) || re.Column != 2 {
		t.Fatalf("bad record line: %v", err)
	}
}

func TestConcurrentReadsAndWrites(t *testing.T) {
	c, err := New(map[string]*jsv.Template{"a": jsv.MustParseTemplate(`{"x"}`)})
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("t%d", i)
			for j := 0; j < 100; j++ {
				if _, err := c.SetString(id, fmt.Sprintf(`{"k%d"}`, j)); err != nil {
					t.Error(err)
					return
				}
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, err := c.RecordLine(map[string]any{"x": j}, "a"); err != nil {
					t.Error(err)
					return
				}
				_ = c.TemplateLines()
			}
		}()
	}
	wg.Wait()
	if c.Len() != 10 {
		t.Fatalf("Len = %d", c.Len())
	}
	if got := c.Lookup(jsv.MustParseTemplate(`{"k99"}`)); len(got) != 8 {
		t.Fatalf("Lookup = %v", got)
	}
}
