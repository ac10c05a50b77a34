package jsv

import (
	"sort"

	"github.com/oarkflow/jsv/jsonmap"
)

// InferTemplate derives the canonical template of an example value. Object
// keys are sorted, nested objects and arrays become keyed subtrees, and
// repeated trailing array slots are pruned. v may be any value accepted by
// jsonmap.Normalize; the error only reports values it rejects.
func InferTemplate(v any) (*Template, error) {
	n, err := jsonmap.Normalize(v)
	if err != nil {
		return nil, err
	}
	return &Template{root: infer(n)}, nil
}

func infer(v any) *Node {
	switch x := v.(type) {
	case *jsonmap.Map:
		keys := x.Keys()
		sort.Strings(keys)
		entries := make([]Entry, len(keys))
		for i, k := range keys {
			child, _ := x.Get(k)
			entries[i] = Entry{Key: k, Node: infer(child)}
		}
		return newObject(entries)
	case []any:
		if len(x) == 0 {
			return leaf
		}
		slots := make([]*Node, len(x))
		for i, e := range x {
			slots[i] = infer(e)
		}
		return newArray(slots)
	}
	return leaf
}
