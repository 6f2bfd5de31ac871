// Package testcase loads test documents from disk and checks their shape.
package testcase

// Top-level keys recognised in a test document.
const (
	KeyVar      = "var"
	KeyRequest  = "request"
	KeyResponse = "response"
	KeySkip     = "skip"
)

// EvalSuffix is appended to a test path to name its evaluation sidecar.
const EvalSuffix = ".eval"

// TestCase describes the recognised shape of a test document. It is only
// used to derive the JSON Schema; documents themselves stay ordered trees.
//
// Only var is constrained at load time. The request section may be a
// placeholder and is irrelevant in evaluation mode, so its shape is checked
// on the resolved document when the request is issued; skip is checked when
// it is evaluated.
type TestCase struct {
	Var      map[string]any `json:"var,omitempty" jsonschema:"description=Variables substituted into ${name} placeholders before the request is issued"`
	Request  any            `json:"request,omitempty" jsonschema:"description=The HTTP request to issue: a mapping with a string url fetched with GET"`
	Response any            `json:"response,omitempty" jsonschema:"description=Expected response document"`
	Skip     any            `json:"skip,omitempty" jsonschema:"description=Boolean expression over the variables or a literal boolean; the test is skipped when it is true"`
}
