package jsv

type parseState uint8

const (
	parseRoot        parseState = iota // before the root `{` or `[`
	parseValue                         // after `:`
	parseSlot                          // after `[` or `,` inside an array
	parseArrayNext                     // after an array slot
	parseKeyOrClose                    // after `{`
	parseKey                           // after `,` inside an object
	parseAfterKey                      // after a quoted key
	parseObjectNext                    // after a keyed subtree
	parseDone
)

type parseFrame struct {
	kind    Kind
	entries []Entry
	slots   []*Node
	key     string
}

type templateParser struct {
	cursor
	state parseState
	stack []parseFrame
	root  *Node
}

// ParseTemplate compiles a template string. Empty or whitespace-only input
// is the Leaf template. Errors are *TemplateDecodeError.
func ParseTemplate(s string) (*Template, error) {
	p := &templateParser{cursor: cursor{s: s, fail: templateError}}
	root, err := p.run()
	if err != nil {
		return nil, err
	}
	return &Template{root: root}, nil
}

func (p *templateParser) run() (*Node, error) {
	for p.state != parseDone {
		p.skipSpace()
		if p.eof() {
			if p.state == parseRoot {
				return leaf, nil
			}
			return nil, p.unexpectedEnd("")
		}
		if err := p.step(p.s[p.pos]); err != nil {
			return nil, err
		}
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf(p.pos, "Unexpected character `%s` encountered", p.charAt(p.pos))
	}
	return p.root, nil
}

func (p *templateParser) step(c byte) error {
	switch p.state {
	case parseRoot, parseValue:
		switch c {
		case '{':
			p.open(KindObject)
		case '[':
			p.open(KindArray)
		default:
			return p.expecting("`{` or `[`")
		}
	case parseSlot:
		switch c {
		case '{':
			p.open(KindObject)
		case '[':
			p.open(KindArray)
		case ',':
			p.pos++
			p.addSlot(leaf)
		case ']':
			p.pos++
			p.addSlot(leaf)
			p.close()
		default:
			return p.expecting("`{`, `[` or `]`")
		}
	case parseArrayNext:
		switch c {
		case ',':
			p.pos++
			p.state = parseSlot
		case ']':
			p.pos++
			p.close()
		default:
			return p.expecting("`,` or `]`")
		}
	case parseKeyOrClose:
		switch c {
		case '"':
			return p.key()
		case '}':
			p.pos++
			p.close()
		default:
			return p.expecting("`\"`")
		}
	case parseKey:
		if c != '"' {
			return p.expecting("`\"`")
		}
		return p.key()
	case parseAfterKey:
		switch c {
		case ',':
			p.pos++
			p.addEntry(leaf)
			p.state = parseKey
		case ':':
			p.pos++
			p.state = parseValue
		case '}':
			p.pos++
			p.addEntry(leaf)
			p.close()
		default:
			return p.expecting("`,`, `:`, or `}`")
		}
	case parseObjectNext:
		switch c {
		case ',':
			p.pos++
			p.state = parseKey
		case '}':
			p.pos++
			p.close()
		default:
			return p.expecting("`,` or `}`")
		}
	}
	return nil
}

func (p *templateParser) expecting(what string) error {
	return p.errorf(p.pos, "Expecting %s, got `%s`", what, p.charAt(p.pos))
}

func (p *templateParser) top() *parseFrame {
	return &p.stack[len(p.stack)-1]
}

func (p *templateParser) open(kind Kind) {
	p.pos++
	p.stack = append(p.stack, parseFrame{kind: kind})
	if kind == KindObject {
		p.state = parseKeyOrClose
	} else {
		p.state = parseSlot
	}
}

func (p *templateParser) key() error {
	col := p.pos
	k, err := p.scanString()
	if err != nil {
		return err
	}
	for _, e := range p.top().entries {
		if e.Key == k {
			return p.errorf(col, "Duplicate key `%s`", k)
		}
	}
	p.top().key = k
	p.state = parseAfterKey
	return nil
}

func (p *templateParser) addEntry(n *Node) {
	f := p.top()
	f.entries = append(f.entries, Entry{Key: f.key, Node: n})
}

func (p *templateParser) addSlot(n *Node) {
	f := p.top()
	f.slots = append(f.slots, n)
}

// close builds the node of the innermost frame and hands it to its parent.
func (p *templateParser) close() {
	f := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	var n *Node
	if f.kind == KindObject {
		n = newObject(f.entries)
	} else {
		n = newArray(f.slots)
	}
	if len(p.stack) == 0 {
		p.root = n
		p.state = parseDone
		return
	}
	if p.top().kind == KindObject {
		p.addEntry(n)
		p.state = parseObjectNext
	} else {
		p.addSlot(n)
		p.state = parseArrayNext
	}
}
