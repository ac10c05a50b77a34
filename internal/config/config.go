// Package config loads the TOML configuration of the jsv command.
//
//	default = '{"id","name"}'
//
//	[[template]]
//	id       = "order"
//	template = '{"id","items":[{"sku","qty"}]}'
//	when     = 'items != nil'
//
//	[[template]]
//	id      = "event"
//	example = '{"type":"click","at":0}'
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/oarkflow/jsv"
	"github.com/oarkflow/jsv/collection"
	"github.com/oarkflow/jsv/jsonmap"
	"github.com/oarkflow/jsv/stream"
)

type Config struct {
	// Default is the template of the default id. Empty means Leaf.
	Default   string     `toml:"default"`
	Templates []Template `toml:"template"`
}

// Template declares one id. Exactly one of Template and Example is set;
// an Example is a JSON value whose template is inferred.
type Template struct {
	ID       string `toml:"id"`
	Template string `toml:"template"`
	Example  string `toml:"example"`
	When     string `toml:"when"`
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Parse reads and validates TOML text.
func Parse(text string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(text, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	_, err := c.Compile()
	return err
}

// Compile returns the templates of the configuration keyed by id.
func (c *Config) Compile() (map[string]*jsv.Template, error) {
	out := make(map[string]*jsv.Template, len(c.Templates)+1)
	if strings.TrimSpace(c.Default) != "" {
		t, err := jsv.ParseTemplate(c.Default)
		if err != nil {
			return nil, fmt.Errorf("default: %w", err)
		}
		out[collection.DefaultID] = t
	}
	for i, tc := range c.Templates {
		if err := collection.ValidateID(tc.ID); err != nil {
			return nil, fmt.Errorf("template %d: %w", i+1, err)
		}
		if _, dup := out[tc.ID]; dup {
			return nil, fmt.Errorf("template %q: duplicate id", tc.ID)
		}
		t, err := tc.compile()
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", tc.ID, err)
		}
		out[tc.ID] = t
	}
	return out, nil
}

func (tc Template) compile() (*jsv.Template, error) {
	switch {
	case tc.Template != "" && tc.Example != "":
		return nil, errors.New("set either template or example, not both")
	case tc.Example != "":
		v, err := jsonmap.Parse(tc.Example)
		if err != nil {
			return nil, fmt.Errorf("example: %w", err)
		}
		return jsv.InferTemplate(v)
	case tc.Template != "":
		return jsv.ParseTemplate(tc.Template)
	}
	return nil, errors.New("one of template or example is required")
}

// Rules returns the selection rules in declaration order.
func (c *Config) Rules() []stream.Rule {
	var rules []stream.Rule
	for _, tc := range c.Templates {
		if tc.When != "" {
			rules = append(rules, stream.Rule{ID: tc.ID, When: tc.When})
		}
	}
	return rules
}
