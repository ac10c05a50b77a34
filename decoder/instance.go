// Package decoder provides the streaming JSON decoder used to split JSON
// Lines (or any concatenated JSON) input into raw documents.
package decoder

import (
	"io"

	"github.com/goccy/go-json"
)

type IDecoder interface {
	Decode(any) error
	More() bool
}

type Factory func(io.Reader) IDecoder

var decoderFactory Factory

// Initialize the package with goccy/go-json.
func init() {
	decoderFactory = defaultFactory
}

func defaultFactory(r io.Reader) IDecoder {
	return json.NewDecoder(r)
}

// SetDecoder allows you to set a custom decoder factory. Passing nil
// restores the default.
func SetDecoder(factory Factory) {
	if factory == nil {
		factory = defaultFactory
	}
	decoderFactory = factory
}

// NewDecoder creates a new decoder using the currently set decoder factory.
func NewDecoder(r io.Reader) IDecoder {
	return decoderFactory(r)
}

func Instance() Factory {
	return decoderFactory
}
