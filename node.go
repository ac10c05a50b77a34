package jsv

import (
	"github.com/oarkflow/jsv/jsonmap"
)

// Kind tells the three Schema Tree node kinds apart.
type Kind uint8

const (
	KindLeaf Kind = iota
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	}
	return "unknown"
}

// Entry is one key of an object node. A bare key has a Leaf Node.
type Entry struct {
	Key  string
	Node *Node
}

// Bare reports whether the entry maps its key to a Leaf.
func (e Entry) Bare() bool {
	return e.Node.Kind() == KindLeaf
}

// Node is an immutable Schema Tree node. Nodes are only built through the
// parser and the inferrer, which keep them in canonical form: objects have
// at least one entry, arrays have no trailing repeated slots, and an array
// whose only slot is a Leaf is itself a Leaf.
type Node struct {
	kind    Kind
	entries []Entry
	index   map[string]int
	slots   []*Node
	text    string
}

var leaf = &Node{kind: KindLeaf}

func (n *Node) Kind() Kind {
	if n == nil {
		return KindLeaf
	}
	return n.kind
}

// Entries returns a copy of an object node's entries in declaration order.
func (n *Node) Entries() []Entry {
	if n.Kind() != KindObject {
		return nil
	}
	out := make([]Entry, len(n.entries))
	copy(out, n.entries)
	return out
}

// Slots returns a copy of an array node's declared slots. The last slot is
// used for every position past the declared prefix.
func (n *Node) Slots() []*Node {
	if n.Kind() != KindArray {
		return nil
	}
	out := make([]*Node, len(n.slots))
	copy(out, n.slots)
	return out
}

// String returns the canonical text of n. A Leaf is the empty string.
func (n *Node) String() string {
	if n == nil {
		return ""
	}
	return n.text
}

func (n *Node) slot(i int) *Node {
	if i >= len(n.slots) {
		return n.slots[len(n.slots)-1]
	}
	return n.slots[i]
}

func (n *Node) entry(key string) (int, bool) {
	i, ok := n.index[key]
	return i, ok
}

func newObject(entries []Entry) *Node {
	if len(entries) == 0 {
		return leaf
	}
	n := &Node{
		kind:    KindObject,
		entries: make([]Entry, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	buf := make([]byte, 0, 16*len(entries))
	buf = append(buf, '{')
	for i, e := range entries {
		if e.Node == nil {
			e.Node = leaf
		}
		n.entries[i] = e
		n.index[e.Key] = i
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = jsonmap.AppendString(buf, e.Key)
		if e.Node.kind != KindLeaf {
			buf = append(buf, ':')
			buf = append(buf, e.Node.text...)
		}
	}
	n.text = string(append(buf, '}'))
	return n
}

func newArray(slots []*Node) *Node {
	slots = pruneTrailing(slots)
	if len(slots) == 0 || len(slots) == 1 && slots[0].Kind() == KindLeaf {
		return leaf
	}
	n := &Node{kind: KindArray, slots: make([]*Node, len(slots))}
	buf := []byte{'['}
	for i, s := range slots {
		if s == nil {
			s = leaf
		}
		n.slots[i] = s
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, s.text...)
	}
	n.text = string(append(buf, ']'))
	return n
}

// pruneTrailing drops consecutive repeats at the end of slots, keeping the
// first slot of the run.
func pruneTrailing(slots []*Node) []*Node {
	end := len(slots)
	for end > 1 && slots[end-1].String() == slots[end-2].String() {
		end--
	}
	return slots[:end]
}
