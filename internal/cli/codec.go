package cli

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/oarkflow/jsv/collection"
	"github.com/oarkflow/jsv/encoder"
	"github.com/oarkflow/jsv/jsonmap"
	"github.com/oarkflow/jsv/stream"
)

type encodeOpts struct {
	id           string // write every record with this id
	infer        bool   // infer templates for records no rule matches
	templatesOut string // write template lines to this file instead
}

func (c *CLI) encodeCommand() *cobra.Command {
	var opts encodeOpts
	cmd := &cobra.Command{
		Use:   "encode [file]",
		Short: "Encode JSON Lines as a jsv stream",
		Long: `Encode reads JSON values (one per line, or simply concatenated) and
writes one jsv record per value.

The id of each record is --id when given, otherwise the first matching
rule from the configuration, otherwise an inferred template with --infer,
otherwise the default id.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEncode(cmd, args, opts)
		},
	}
	cmd.Flags().StringVar(&opts.id, "id", "", "template id for every record")
	cmd.Flags().BoolVar(&opts.infer, "infer", false, "infer a template per distinct shape")
	cmd.Flags().StringVar(&opts.templatesOut, "templates-out", "", "write template lines to this file")
	return cmd
}

func (c *CLI) runEncode(cmd *cobra.Command, args []string, opts encodeOpts) error {
	set, err := c.tmpl.load()
	if err != nil {
		return err
	}
	in, name, err := openInput(cmd, args)
	if err != nil {
		return err
	}
	defer in.Close()

	wopts := []stream.Option{stream.WithTemplates(set.templates), stream.WithRules(set.rules...)}
	if opts.infer {
		wopts = append(wopts, stream.WithInference())
	}
	if opts.templatesOut != "" {
		f, err := os.Create(opts.templatesOut)
		if err != nil {
			return err
		}
		defer f.Close()
		wopts = append(wopts, stream.WithTemplateWriter(f))
	}
	w, err := stream.NewWriter(cmd.OutOrStdout(), wopts...)
	if err != nil {
		return err
	}

	p := newProgress(c.Logger)
	count := 0
	err = eachDocument(cmd.Context(), in, func(n int, v any) error {
		id := opts.id
		var err error
		if id != "" {
			err = w.Write(v, id)
		} else {
			id, err = w.WriteAuto(v)
		}
		if err != nil {
			return err
		}
		c.Logger.Debug("encoded", "doc", n, "id", id)
		count++
		return nil
	})
	if ferr := w.Flush(); err == nil {
		err = ferr
	}
	if err != nil {
		return err
	}
	p.done("Encoded", "input", name, "records", count, "templates", w.Collection().Len())
	return nil
}

type decodeOpts struct {
	withID bool
}

func (c *CLI) decodeCommand() *cobra.Command {
	var opts decodeOpts
	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode a jsv stream into JSON Lines",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDecode(cmd, args, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.withID, "with-id", false, `wrap records as {"id":...,"record":...}`)
	return cmd
}

func (c *CLI) runDecode(cmd *cobra.Command, args []string, opts decodeOpts) error {
	set, err := c.tmpl.load()
	if err != nil {
		return err
	}
	in, name, err := openInput(cmd, args)
	if err != nil {
		return err
	}
	defer in.Close()

	r := stream.NewReader(in, stream.WithKnownTemplates(set.templates))
	enc := encoder.NewEncoder(cmd.OutOrStdout())
	p := newProgress(c.Logger)
	count := 0
	for {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		out := rec.Value
		if opts.withID {
			out = jsonmap.MapOf("id", rec.ID, "record", rec.Value)
		}
		if err := enc.Encode(document{v: out}); err != nil {
			return err
		}
		c.Logger.Debug("decoded", "line", rec.Line, "id", rec.ID)
		count++
	}
	p.done("Decoded", "input", name, "records", count)
	return nil
}

func (c *CLI) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [file]",
		Short: "Decode a jsv stream and report the first error",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := c.tmpl.load()
			if err != nil {
				return err
			}
			in, name, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()

			r := stream.NewReader(in, stream.WithKnownTemplates(set.templates))
			counts := map[string]int{}
			total := 0
			for {
				rec, err := r.Read()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					c.Logger.Error("invalid stream", "input", name, "err", err)
					return err
				}
				counts[rec.ID]++
				total++
			}
			for _, id := range r.Collection().IDs() {
				if n := counts[id]; n > 0 || id != collection.DefaultID {
					c.Logger.Debug("template", "id", id, "records", n)
				}
			}
			c.Logger.Info("ok", "input", name, "records", total)
			return nil
		},
	}
}
