package cli

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"

	"github.com/oarkflow/jsv"
	"github.com/oarkflow/jsv/encoder"
)

func (c *CLI) inferCommand() *cobra.Command {
	var counts bool
	cmd := &cobra.Command{
		Use:   "infer [file]",
		Short: "Print the template of each distinct shape in JSON Lines input",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()

			var order []string
			seen := map[string]int{}
			err = eachDocument(cmd.Context(), in, func(n int, v any) error {
				t, err := jsv.InferTemplate(v)
				if err != nil {
					return err
				}
				text := t.String()
				if _, ok := seen[text]; !ok {
					order = append(order, text)
					c.Logger.Debug("new shape", "doc", n, "template", text)
				}
				seen[text]++
				return nil
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, text := range order {
				if counts {
					fmt.Fprintf(out, "%d\t%s\n", seen[text], text)
				} else {
					fmt.Fprintln(out, text)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&counts, "count", false, "prefix each template with the number of values")
	return cmd
}

type exampleOpts struct {
	n       int
	seed    int64
	records bool
}

func (c *CLI) exampleCommand() *cobra.Command {
	opts := exampleOpts{n: 1}
	cmd := &cobra.Command{
		Use:   "example TEMPLATE",
		Short: "Generate random values shaped like a template",
		Long: `Example prints random JSON values whose keys and nesting follow
TEMPLATE. TEMPLATE is template text, or @id to name a loaded template.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := c.tmpl.load()
			if err != nil {
				return err
			}
			t, err := set.parseTemplateArg(args[0])
			if err != nil {
				return err
			}
			f := gofakeit.New(opts.seed)
			out := cmd.OutOrStdout()
			enc := encoder.NewEncoder(out)
			for i := 0; i < opts.n; i++ {
				v := t.Example(f)
				if opts.records {
					rec, err := t.Encode(v)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, rec)
					continue
				}
				if err := enc.Encode(document{v: v}); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&opts.n, "count", "n", opts.n, "number of values")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed (0 picks a random one)")
	cmd.Flags().BoolVar(&opts.records, "records", false, "print encoded records instead of JSON")
	return cmd
}

func (c *CLI) fmtCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fmt TEMPLATE...",
		Short: "Print templates in canonical form",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				t, err := jsv.ParseTemplate(arg)
				if err != nil {
					return fmt.Errorf("%q: %w", arg, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), t.String())
			}
			return nil
		},
	}
}
