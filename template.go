package jsv

// Template is a compiled template. It is immutable and safe for concurrent
// use; build one with ParseTemplate or InferTemplate and reuse it for every
// record of its family.
type Template struct {
	root *Node
}

var leafTemplate = &Template{root: leaf}

// Leaf returns the template that matches any value. It prints as {}.
func Leaf() *Template {
	return leafTemplate
}

// MustParseTemplate is like ParseTemplate but panics on error.
func MustParseTemplate(s string) *Template {
	t, err := ParseTemplate(s)
	if err != nil {
		panic(`jsv: ParseTemplate(` + s + `): ` + err.Error())
	}
	return t
}

// Root returns the root node. A nil Template behaves as Leaf.
func (t *Template) Root() *Node {
	if t == nil || t.root == nil {
		return leaf
	}
	return t.root
}

// String returns the canonical template text. Two templates are equal
// exactly when their canonical texts are equal.
func (t *Template) String() string {
	root := t.Root()
	if root.kind == KindLeaf {
		return "{}"
	}
	return root.text
}

func (t *Template) Equal(o *Template) bool {
	return t.String() == o.String()
}

// MarshalText implements encoding.TextMarshaler with the canonical text.
func (t *Template) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler by parsing text.
func (t *Template) UnmarshalText(text []byte) error {
	p, err := ParseTemplate(string(text))
	if err != nil {
		return err
	}
	t.root = p.root
	return nil
}
