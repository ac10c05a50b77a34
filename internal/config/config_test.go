package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oarkflow/jsv/collection"
	"github.com/oarkflow/jsv/stream"
)

const sample = `
default = '{"id","name"}'

[[template]]
id       = "order"
template = '{"id","items":[{"sku","qty"}]}'
when     = 'items != nil'

[[template]]
id      = "event"
example = '{"type":"click","at":0,"meta":{"x":1}}'
`

func TestParse(t *testing.T) {
	cfg, err := Parse(sample)
	if err != nil {
		t.Fatal(err)
	}
	templates, err := cfg.Compile()
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"_":     `{"id","name"}`,
		"order": `{"id","items":[{"sku","qty"}]}`,
		"event": `{"at","meta":{"x"},"type"}`,
	}
	if len(templates) != len(want) {
		t.Fatalf("got %d templates", len(templates))
	}
	for id, text := range want {
		if got := templates[id].String(); got != text {
			t.Errorf("%s = %s, want %s", id, got, text)
		}
	}
	rules := cfg.Rules()
	if len(rules) != 1 || rules[0] != (stream.Rule{ID: "order", When: "items != nil"}) {
		t.Fatalf("rules = %+v", rules)
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse("")
	if err != nil {
		t.Fatal(err)
	}
	templates, err := cfg.Compile()
	if err != nil || len(templates) != 0 {
		t.Fatalf("templates = %v, err = %v", templates, err)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		is   error
	}{
		{"bad toml", `default = `, "parse config", nil},
		{"bad default", `default = '{"a"'`, "default: End of string reached unexpectedly", nil},
		{"bad id", "[[template]]\nid = \"a b\"\ntemplate = '{}'", "template 1", collection.ErrInvalidID},
		{"empty id", "[[template]]\ntemplate = '{}'", "template 1", collection.ErrEmptyID},
		{"duplicate", "default = '{}'\n[[template]]\nid = \"_\"\ntemplate = '{}'", `template "_": duplicate id`, nil},
		{"both", "[[template]]\nid = \"a\"\ntemplate = '{}'\nexample = '1'", "not both", nil},
		{"neither", "[[template]]\nid = \"a\"", "is required", nil},
		{"bad example", "[[template]]\nid = \"a\"\nexample = '{'", `template "a": example`, nil},
		{"bad template", "[[template]]\nid = \"a\"\ntemplate = '{\"a\",\"a\"}'", "Duplicate key `a`", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to contain %q", err, tt.want)
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("err = %v, want %v", err, tt.is)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jsv.toml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Templates) != 2 || cfg.Templates[1].ID != "event" {
		t.Fatalf("templates = %+v", cfg.Templates)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
