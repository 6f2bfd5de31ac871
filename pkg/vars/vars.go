// Package vars resolves ${name|filter} placeholders inside a test document
// against the variables declared under its `var` key.
package vars

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ormasoftchile/jsontest/pkg/document"
)

// Key is the top-level document key holding variable declarations.
const Key = "var"

var (
	wholePattern    = regexp.MustCompile(`^\$\{([^}]*)\}$`)
	embeddedPattern = regexp.MustCompile(`\$\{([^}]*)\}`)
)

// Table maps variable names to their values.
type Table map[string]document.Value

// UnresolvedError reports a placeholder naming an undeclared variable.
type UnresolvedError struct {
	Expr string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("unresolved variable: ${%s}", e.Expr)
}

// UnknownFilterError reports a placeholder using an unregistered filter.
type UnknownFilterError struct {
	Filter string
	Expr   string
}

func (e *UnknownFilterError) Error() string {
	return fmt.Sprintf("unknown filter %q in ${%s}", e.Filter, e.Expr)
}

// TableOf deep-copies the `var` mapping of doc. It returns a nil table when
// doc has no variables.
func TableOf(doc document.Value) (Table, error) {
	decl, ok := doc.Get(Key)
	if !ok || !decl.Truthy() {
		return nil, nil
	}
	if decl.Kind() != document.KindMap {
		return nil, fmt.Errorf("%s must be a mapping, got %s", Key, decl.Kind())
	}
	table := make(Table, decl.Map().Len())
	_ = decl.Map().Each(func(name string, v document.Value) error {
		table[name] = v.Clone()
		return nil
	})
	return table, nil
}

// Resolve returns doc with every placeholder substituted. Documents without
// variables are returned unchanged; doc itself is never modified.
func Resolve(doc document.Value) (document.Value, error) {
	table, err := TableOf(doc)
	if err != nil {
		return document.Value{}, err
	}
	if table == nil {
		return doc, nil
	}
	return table.Apply(doc)
}

// Apply substitutes placeholders throughout v.
func (t Table) Apply(v document.Value) (document.Value, error) {
	switch v.Kind() {
	case document.KindMap:
		out := document.NewMap()
		err := v.Map().Each(func(key string, item document.Value) error {
			r, err := t.Apply(item)
			if err != nil {
				return err
			}
			out.Set(key, r)
			return nil
		})
		if err != nil {
			return document.Value{}, err
		}
		return document.FromMap(out), nil
	case document.KindList:
		items := make([]document.Value, len(v.Items()))
		for i, item := range v.Items() {
			r, err := t.Apply(item)
			if err != nil {
				return document.Value{}, err
			}
			items[i] = r
		}
		return document.List(items...), nil
	case document.KindString:
		return t.applyString(v.Text())
	}
	return v, nil
}

func (t Table) applyString(s string) (document.Value, error) {
	if m := wholePattern.FindStringSubmatch(s); m != nil {
		return t.Eval(m[1])
	}
	out, err := t.Expand(s)
	if err != nil {
		return document.Value{}, err
	}
	return document.String(out), nil
}

// Expand replaces every placeholder in s with the stringified result of
// its expression.
func (t Table) Expand(s string) (string, error) {
	var firstErr error
	out := embeddedPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}
		v, err := t.Eval(match[2 : len(match)-1])
		if err != nil {
			firstErr = err
			return match
		}
		return Stringify(v)
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// Eval evaluates a single `name|filter|...` expression.
func (t Table) Eval(expr string) (document.Value, error) {
	parts := strings.Split(expr, "|")
	name := strings.TrimSpace(parts[0])
	v, ok := t[name]
	if !ok {
		return document.Value{}, &UnresolvedError{Expr: expr}
	}
	v = v.Clone()
	for _, p := range parts[1:] {
		name := strings.TrimSpace(p)
		f, ok := filters[name]
		if !ok {
			return document.Value{}, &UnknownFilterError{Filter: name, Expr: expr}
		}
		v = f(v)
	}
	return v, nil
}

// Env converts the table to plain Go values, keyed by variable name.
func (t Table) Env() map[string]any {
	env := make(map[string]any, len(t))
	for k, v := range t {
		env[k] = v.Interface()
	}
	return env
}

// Stringify renders v for inclusion inside a larger string.
func Stringify(v document.Value) string {
	switch v.Kind() {
	case document.KindString, document.KindNumber:
		return v.Text()
	}
	return v.String()
}
