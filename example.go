package jsv

import (
	"strconv"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/oarkflow/jsv/jsonmap"
)

// Example generates a random value that fits t. Every declared key is
// present, arrays get between zero and three elements beyond their
// declared slots and Leaf positions hold random scalars. Pass a seeded
// faker for reproducible output; nil uses a randomly seeded one.
func (t *Template) Example(f *gofakeit.Faker) any {
	if f == nil {
		f = gofakeit.New(0)
	}
	return example(f, t.Root())
}

func example(f *gofakeit.Faker, n *Node) any {
	switch n.Kind() {
	case KindObject:
		m := jsonmap.NewMap(len(n.entries))
		for _, e := range n.entries {
			m.Set(e.Key, example(f, e.Node))
		}
		return m
	case KindArray:
		size := len(n.slots) - 1 + f.Number(0, 3)
		out := make([]any, size)
		for i := range out {
			out[i] = example(f, n.slot(i))
		}
		return out
	}
	return exampleScalar(f)
}

func exampleScalar(f *gofakeit.Faker) any {
	switch f.Number(0, 5) {
	case 0:
		return nil
	case 1:
		return f.Bool()
	case 2:
		return jsonmap.Number(strconv.Itoa(f.Number(-1000, 100000)))
	case 3:
		v, _ := jsonmap.Normalize(f.Float64Range(-1000, 1000))
		return v
	case 4:
		return f.Email()
	}
	return f.Word()
}
