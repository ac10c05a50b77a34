package stream

import (
	"fmt"

	"github.com/oarkflow/expr"

	"github.com/oarkflow/jsv/jsonmap"
)

// Rule routes records to a template id. When is an expression evaluated
// against the record: object fields are available by name and the whole
// record as `record`. The expression must yield a bool.
type Rule struct {
	ID   string
	When string
}

type compiledRule struct {
	Rule
	eval func(env map[string]any) (any, error)
}

func compileRule(r Rule) (compiledRule, error) {
	vm, err := expr.Parse(r.When)
	if err != nil {
		return compiledRule{}, fmt.Errorf("rule %q: %w", r.ID, err)
	}
	return compiledRule{
		Rule: r,
		eval: func(env map[string]any) (any, error) { return vm.Eval(env) },
	}, nil
}

func (r compiledRule) match(env map[string]any) (bool, error) {
	v, err := r.eval(env)
	if err != nil {
		return false, fmt.Errorf("rule %q: %w", r.ID, err)
	}
	ok, isBool := v.(bool)
	if !isBool {
		return false, fmt.Errorf("rule %q: expression returned %T, want bool", r.ID, v)
	}
	return ok, nil
}

// ruleEnv builds the evaluation environment of a normalized value.
func ruleEnv(v any) map[string]any {
	plain := jsonmap.Plain(v)
	env := map[string]any{}
	if m, ok := plain.(map[string]any); ok {
		for k, fv := range m {
			env[k] = fv
		}
	}
	env["record"] = plain
	return env
}
