package jsv

import (
	"github.com/oarkflow/jsv/jsonmap"
)

type decodeState uint8

const (
	decodeValue       decodeState = iota // a value for d.next
	decodeSlot                           // a declared object slot, possibly elided
	decodeSlotNext                       // after a declared slot
	decodeExtKey                         // awaiting the quote of an extension key
	decodeExtColon                       // awaiting `:` after an extension key
	decodeExtValue                       // the JSON value of an extension field
	decodeExtNext                        // after an extension field
	decodeElemOrClose                    // after `[`
	decodeElemNext                       // after an array element
	decodeDone
)

type decodeFrame struct {
	node *Node
	obj  *jsonmap.Map
	arr  []any
	i    int
	key  string
}

type recordDecoder struct {
	cursor
	state  decodeState
	stack  []decodeFrame
	next   *Node
	result any
}

// Decode parses record text against the template. Decoded objects are
// *jsonmap.Map in template order followed by extension keys, numbers are
// jsonmap.Number, and keys whose slot is empty are absent from the result.
// Errors are *RecordDecodeError.
func (t *Template) Decode(s string) (any, error) {
	d := &recordDecoder{cursor: cursor{s: s, fail: recordError}}
	return d.run(t.Root())
}

func (d *recordDecoder) run(root *Node) (any, error) {
	d.state, d.next = decodeValue, root
	for d.state != decodeDone {
		var err error
		switch d.state {
		case decodeValue:
			err = d.value()
		case decodeSlot:
			err = d.slot()
		case decodeSlotNext:
			err = d.slotNext()
		case decodeExtKey:
			err = d.extKey()
		case decodeExtColon:
			err = d.extColon()
		case decodeExtValue:
			err = d.extValue()
		case decodeExtNext:
			err = d.extNext()
		case decodeElemOrClose:
			err = d.elemOrClose()
		case decodeElemNext:
			err = d.elemNext()
		}
		if err != nil {
			return nil, err
		}
	}
	d.skipSpace()
	if !d.eof() {
		return nil, d.unexpected()
	}
	return d.result, nil
}

func (d *recordDecoder) top() *decodeFrame {
	return &d.stack[len(d.stack)-1]
}

func (d *recordDecoder) unexpected() error {
	return d.errorf(d.pos, "Unexpected character `%s` encountered", d.charAt(d.pos))
}

// rawJSON scans one JSON value. A failed scan is reported at start, the
// position before any leading whitespace.
func (d *recordDecoder) rawJSON(start int) (any, error) {
	v, end, err := jsonmap.DecodeAt(d.s, d.pos)
	if err != nil {
		return nil, &RecordDecodeError{Msg: "Error decoding raw json", Column: start, Err: err}
	}
	d.pos = end
	return v, nil
}

func (d *recordDecoder) value() error {
	start := d.pos
	d.skipSpace()
	if d.eof() {
		return d.unexpectedEnd("")
	}
	switch d.next.kind {
	case KindObject:
		if d.s[d.pos] != '{' {
			return d.unexpected()
		}
		d.pos++
		d.stack = append(d.stack, decodeFrame{node: d.next, obj: jsonmap.NewMap(len(d.next.entries))})
		d.state = decodeSlot
	case KindArray:
		if d.s[d.pos] != '[' {
			return d.unexpected()
		}
		d.pos++
		d.stack = append(d.stack, decodeFrame{node: d.next, arr: []any{}})
		d.state = decodeElemOrClose
	default:
		v, err := d.rawJSON(start)
		if err != nil {
			return err
		}
		d.complete(v)
	}
	return nil
}

// complete stores a finished value in its parent frame, or as the result
// when it is the root.
func (d *recordDecoder) complete(v any) {
	if len(d.stack) == 0 {
		d.result = v
		d.state = decodeDone
		return
	}
	f := d.top()
	if f.node.kind == KindObject {
		f.obj.Set(f.node.entries[f.i].Key, v)
		f.i++
		d.state = decodeSlotNext
		return
	}
	f.arr = append(f.arr, v)
	f.i++
	d.state = decodeElemNext
}

func (d *recordDecoder) closeFrame() {
	f := d.stack[len(d.stack)-1]
	d.stack = d.stack[:len(d.stack)-1]
	if f.node.kind == KindObject {
		d.complete(f.obj)
	} else {
		d.complete(f.arr)
	}
}

func (d *recordDecoder) slot() error {
	start := d.pos
	d.skipSpace()
	if d.eof() {
		return d.unexpectedEnd("")
	}
	f := d.top()
	if c := d.s[d.pos]; c == ',' || c == '}' {
		f.i++
		d.state = decodeSlotNext
		return nil
	}
	d.pos = start
	d.next = f.node.entries[f.i].Node
	d.state = decodeValue
	return nil
}

// slotNext handles the separator after declared slot i-1. A `}` closes the
// object even when declared slots remain; they count as elided. A `,` after
// the last declared slot starts the extension fields.
func (d *recordDecoder) slotNext() error {
	d.skipSpace()
	if d.eof() {
		return d.unexpectedEnd("")
	}
	f := d.top()
	switch d.s[d.pos] {
	case '}':
		d.pos++
		d.closeFrame()
	case ',':
		d.pos++
		if f.i < len(f.node.entries) {
			d.state = decodeSlot
		} else {
			d.state = decodeExtKey
		}
	default:
		return d.errorf(d.pos, "Expecting `,` or `}`")
	}
	return nil
}

func (d *recordDecoder) extKey() error {
	d.skipSpace()
	if d.eof() {
		return d.unexpectedEnd(`"`)
	}
	if d.s[d.pos] != '"' {
		return d.errorf(d.pos, "Expecting `\"`")
	}
	k, err := d.scanString()
	if err != nil {
		return err
	}
	d.top().key = k
	d.state = decodeExtColon
	return nil
}

func (d *recordDecoder) extColon() error {
	d.skipSpace()
	if d.eof() {
		return d.unexpectedEnd(":")
	}
	if d.s[d.pos] != ':' {
		return d.errorf(d.pos, "Expecting `:`")
	}
	d.pos++
	d.state = decodeExtValue
	return nil
}

func (d *recordDecoder) extValue() error {
	start := d.pos
	d.skipSpace()
	if d.eof() {
		return d.unexpectedEnd("")
	}
	v, err := d.rawJSON(start)
	if err != nil {
		return err
	}
	f := d.top()
	f.obj.Set(f.key, v)
	d.state = decodeExtNext
	return nil
}

func (d *recordDecoder) extNext() error {
	d.skipSpace()
	if d.eof() {
		return d.unexpectedEnd("")
	}
	switch d.s[d.pos] {
	case ',':
		d.pos++
		d.state = decodeExtKey
	case '}':
		d.pos++
		d.closeFrame()
	default:
		return d.errorf(d.pos, "Expecting `,` or `}`")
	}
	return nil
}

func (d *recordDecoder) elemOrClose() error {
	start := d.pos
	d.skipSpace()
	if d.eof() {
		return d.unexpectedEnd("")
	}
	if d.s[d.pos] == ']' {
		d.pos++
		d.closeFrame()
		return nil
	}
	d.pos = start
	d.next = d.top().node.slot(0)
	d.state = decodeValue
	return nil
}

func (d *recordDecoder) elemNext() error {
	d.skipSpace()
	if d.eof() {
		return d.unexpectedEnd("")
	}
	switch d.s[d.pos] {
	case ',':
		d.pos++
		f := d.top()
		d.next = f.node.slot(f.i)
		d.state = decodeValue
	case ']':
		d.pos++
		d.closeFrame()
	default:
		return d.errorf(d.pos, "Expecting `,` or `]`")
	}
	return nil
}
