package jsv

import (
	"errors"

	"github.com/goccy/go-reflect"

	"github.com/oarkflow/jsv/jsonmap"
	"github.com/oarkflow/jsv/unmarshaler"
)

// Marshal encodes v against t and returns the record text.
func Marshal(t *Template, v any) ([]byte, error) {
	return t.AppendEncode(nil, v)
}

// Unmarshal decodes a record with t and stores the result in dst, which
// must be a non-nil pointer. The decoded value is converted to JSON and
// handed to the configured unmarshaler, so dst follows the usual
// encoding/json rules (struct tags, maps, slices).
func Unmarshal(t *Template, data []byte, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.New("dst is not a non-nil pointer")
	}
	v, err := t.Decode(string(data))
	if err != nil {
		return err
	}
	// *any keeps the ordered Map and the literal numbers.
	if p, ok := dst.(*any); ok {
		*p = v
		return nil
	}
	raw, err := jsonmap.Marshal(v)
	if err != nil {
		return err
	}
	return unmarshaler.Instance()(raw, dst)
}
