// Package marshaler holds the function jsv uses to turn Go values that
// implement json.Marshaler into JSON text before re-scanning them.
package marshaler

import (
	"sync/atomic"

	"github.com/goccy/go-json"
)

type Marshaler func(any) ([]byte, error)

// current may be swapped while templates encode on other goroutines.
var current atomic.Pointer[Marshaler]

func init() {
	SetMarshaler(nil)
}

// SetMarshaler replaces the marshal function. Passing nil restores
// goccy/go-json.
func SetMarshaler(m Marshaler) {
	if m == nil {
		m = json.Marshal
	}
	current.Store(&m)
}

func Instance() Marshaler {
	return *current.Load()
}
