package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oarkflow/jsv"
	"github.com/oarkflow/jsv/collection"
	"github.com/oarkflow/jsv/internal/config"
	"github.com/oarkflow/jsv/stream"
)

// templateOpts holds the flags that declare templates. They are shared by
// every command.
type templateOpts struct {
	config string   // TOML configuration file
	file   string   // template stream, one `#id template` per line
	flags  []string // id=TEMPLATE pairs
}

func (o *templateOpts) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&o.config, "config", "c", "", "TOML configuration file")
	cmd.PersistentFlags().StringVar(&o.file, "template-file", "", "template stream (#id template lines)")
	cmd.PersistentFlags().StringArrayVarP(&o.flags, "template", "t", nil, "template as id=TEMPLATE (repeatable)")
}

type templateSet struct {
	templates map[string]*jsv.Template
	rules     []stream.Rule
}

func (o *templateOpts) load() (*templateSet, error) {
	set := &templateSet{templates: map[string]*jsv.Template{}}
	if o.config != "" {
		cfg, err := config.Load(o.config)
		if err != nil {
			return nil, err
		}
		templates, err := cfg.Compile()
		if err != nil {
			return nil, err
		}
		for id, t := range templates {
			set.templates[id] = t
		}
		set.rules = cfg.Rules()
	}
	if o.file != "" {
		if err := set.readFile(o.file); err != nil {
			return nil, err
		}
	}
	for _, flag := range o.flags {
		id, text, ok := strings.Cut(flag, "=")
		if !ok {
			return nil, fmt.Errorf("--template %q: expecting id=TEMPLATE", flag)
		}
		if err := collection.ValidateID(id); err != nil {
			return nil, fmt.Errorf("--template %q: %w", flag, err)
		}
		t, err := jsv.ParseTemplate(text)
		if err != nil {
			return nil, fmt.Errorf("--template %q: %w", flag, err)
		}
		set.templates[id] = t
	}
	return set, nil
}

func (s *templateSet) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	r := stream.NewReader(strings.NewReader(""), stream.WithTemplateReader(f))
	if _, err := r.Read(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: %w", path, err)
	}
	coll := r.Collection()
	for _, id := range coll.IDs() {
		t, err := coll.Get(id)
		if err != nil {
			return err
		}
		if id == collection.DefaultID && t.Equal(jsv.Leaf()) {
			continue
		}
		s.templates[id] = t
	}
	return nil
}

// parseTemplateArg parses a template given on the command line, or the id
// of a loaded template when prefixed with `@`.
func (s *templateSet) parseTemplateArg(arg string) (*jsv.Template, error) {
	if id, ok := strings.CutPrefix(arg, "@"); ok {
		t, ok := s.templates[id]
		if !ok {
			return nil, fmt.Errorf("%w: %q", collection.ErrUnknownID, id)
		}
		return t, nil
	}
	return jsv.ParseTemplate(arg)
}
