package vars

import "github.com/ormasoftchile/jsontest/pkg/document"

// Filter transforms a variable value inside a placeholder.
type Filter func(document.Value) document.Value

var filters = map[string]Filter{
	"str": func(v document.Value) document.Value {
		return document.String(Stringify(v))
	},
}
