// Package cli implements the jsv command-line interface.
//
// # Commands
//
//   - encode: JSON Lines to a jsv stream
//   - decode: a jsv stream to JSON Lines
//   - infer: print the templates of JSON Lines input
//   - check: validate a jsv stream
//   - example: generate random records for a template
//   - fmt: print templates in canonical form
//
// Templates come from --config, --template-file and --template, applied in
// that order so later sources override earlier ones.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// version is set at build time with -ldflags "-X".
var version = "dev"

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	verbose bool
	tmpl    templateOpts
}

func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "jsv",
		Short: "jsv converts between JSON and compact template based records",
		Long: `jsv writes JSON values as records that omit the keys declared by a
template, and reads them back.

  template  {"id","name","tags":[]}
  record    {7,"ann",["a","b"]}
  value     {"id":7,"name":"ann","tags":["a","b"]}`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
		},
	}

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	c.tmpl.register(root)

	root.AddCommand(c.encodeCommand())
	root.AddCommand(c.decodeCommand())
	root.AddCommand(c.inferCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.exampleCommand())
	root.AddCommand(c.fmtCommand())

	return root
}
