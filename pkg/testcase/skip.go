package testcase

import (
	"fmt"
	"os"

	"github.com/expr-lang/expr"

	"github.com/ormasoftchile/jsontest/pkg/document"
)

// ShouldSkip evaluates the optional `skip` condition of a resolved test
// document. vars are exposed by name; getenv(name) reads the process
// environment.
func ShouldSkip(doc document.Value, vars map[string]any) (bool, error) {
	cond, ok := doc.Get(KeySkip)
	if !ok {
		return false, nil
	}
	switch cond.Kind() {
	case document.KindNull:
		return false, nil
	case document.KindBool:
		return cond.AsBool(), nil
	case document.KindString:
	default:
		return false, fmt.Errorf("skip must be a string expression, got %s", cond.Kind())
	}
	if cond.Text() == "" {
		return false, nil
	}

	env := map[string]any{"getenv": os.Getenv}
	for k, v := range vars {
		env[k] = v
	}
	program, err := expr.Compile(cond.Text(), expr.Env(env), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("compile skip condition %q: %w", cond.Text(), err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("eval skip condition %q: %w", cond.Text(), err)
	}
	result, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("skip condition %q did not return bool (got %T)", cond.Text(), out)
	}
	return result, nil
}
