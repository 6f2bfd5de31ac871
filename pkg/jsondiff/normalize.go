// Package jsondiff defines equality between expected and actual documents
// and renders the difference between them. Two documents are equal when
// their normalized text is identical line for line.
package jsondiff

import (
	"sort"
	"strings"

	"github.com/ormasoftchile/jsontest/pkg/document"
)

// Indent is the per-level indentation of normalized text.
const Indent = "  "

// Normalize renders v as JSON with map keys sorted at every level.
func Normalize(v document.Value) string {
	return document.Encode(SortKeys(v), Indent)
}

// SortKeys returns a copy of v whose maps have their keys in lexicographic
// order. List order is kept.
func SortKeys(v document.Value) document.Value {
	switch v.Kind() {
	case document.KindMap:
		keys := v.Map().Keys()
		sort.Strings(keys)
		out := document.NewMap()
		for _, k := range keys {
			item, _ := v.Map().Get(k)
			out.Set(k, SortKeys(item))
		}
		return document.FromMap(out)
	case document.KindList:
		items := make([]document.Value, len(v.Items()))
		for i, item := range v.Items() {
			items[i] = SortKeys(item)
		}
		return document.List(items...)
	}
	return v
}

func lines(v document.Value) []string {
	return strings.Split(Normalize(v), "\n")
}

// Equal reports whether a and b normalize to the same lines.
func Equal(a, b document.Value) bool {
	la, lb := lines(a), lines(b)
	if len(la) != len(lb) {
		return false
	}
	for i := range la {
		if la[i] != lb[i] {
			return false
		}
	}
	return true
}
