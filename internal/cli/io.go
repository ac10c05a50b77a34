package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/oarkflow/jsv/decoder"
	"github.com/oarkflow/jsv/jsonmap"
)

// document carries one JSON value through the streaming encoder and
// decoder while keeping key order and number literals intact.
type document struct {
	v any
}

func (d document) MarshalJSON() ([]byte, error) {
	return jsonmap.Marshal(d.v)
}

func (d *document) UnmarshalJSON(data []byte) error {
	v, err := jsonmap.ParseBytes(data)
	if err != nil {
		return err
	}
	d.v = v
	return nil
}

// openInput returns the named file, or the command's stdin when args is
// empty or names "-".
func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, string, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), "stdin", nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, "", err
	}
	return f, args[0], nil
}

// eachDocument calls fn for every JSON value of r in order. It stops at the
// first error, or when ctx is done.
func eachDocument(ctx context.Context, r io.Reader, fn func(n int, v any) error) error {
	dec := decoder.NewDecoder(r)
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		var doc document
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("document %d: %w", n, err)
		}
		if err := fn(n, doc.v); err != nil {
			return fmt.Errorf("document %d: %w", n, err)
		}
	}
}
