// Package unmarshaler holds the function jsv.Unmarshal uses to bind decoded
// records onto Go values.
package unmarshaler

import (
	"sync/atomic"

	"github.com/goccy/go-json"
)

type Unmarshaler func([]byte, any) error

var current atomic.Pointer[Unmarshaler]

func init() {
	SetUnmarshaler(nil)
}

// SetUnmarshaler replaces the unmarshal function. Passing nil restores
// goccy/go-json. It is safe to call while records are being decoded.
func SetUnmarshaler(u Unmarshaler) {
	if u == nil {
		u = json.Unmarshal
	}
	current.Store(&u)
}

func Instance() Unmarshaler {
	return *current.Load()
}
