// Package encoder provides the streaming JSON encoder used to write JSON
// Lines output.
package encoder

import (
	"io"

	"github.com/goccy/go-json"
)

type IEncoder interface {
	Encode(any) error
}

type Factory func(io.Writer) IEncoder

var encoderFactory Factory

// Initialize the package with goccy/go-json. HTML escaping is off so that
// record text is written verbatim.
func init() {
	encoderFactory = defaultFactory
}

func defaultFactory(w io.Writer) IEncoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}

// SetEncoder allows you to set a custom encoder factory. Passing nil
// restores the default.
func SetEncoder(factory Factory) {
	if factory == nil {
		factory = defaultFactory
	}
	encoderFactory = factory
}

// NewEncoder creates a new encoder using the currently set encoder factory.
func NewEncoder(w io.Writer) IEncoder {
	return encoderFactory(w)
}

func Instance() Factory {
	return encoderFactory
}
