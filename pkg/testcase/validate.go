package testcase

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ormasoftchile/jsontest/pkg/document"
)

// ValidationError is a single schema violation.
type ValidationError struct {
	Path    string `json:"path"` // slash-separated instance location
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// SchemaError collects the violations found in one document.
type SchemaError struct {
	Errors []*ValidationError
}

func (e *SchemaError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return "invalid test case: " + strings.Join(msgs, "; ")
}

var (
	compileOnce sync.Once
	compiled    *sjsonschema.Schema
	compileErr  error
)

func schema() (*sjsonschema.Schema, error) {
	compileOnce.Do(func() {
		data, err := GenerateJSONSchema()
		if err != nil {
			compileErr = err
			return
		}
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			compileErr = fmt.Errorf("unmarshal schema: %w", err)
			return
		}
		c := sjsonschema.NewCompiler()
		if err := c.AddResource("testcase.json", doc); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile("testcase.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compile schema: %w", compileErr)
		}
	})
	return compiled, compileErr
}

// Validate checks a loaded document against the test case schema. A null
// `var` is treated as absent.
func Validate(doc document.Value) error {
	sch, err := schema()
	if err != nil {
		return err
	}
	inst := doc.Interface()
	if m, ok := inst.(map[string]any); ok {
		if v, present := m[KeyVar]; present && v == nil {
			delete(m, KeyVar)
		}
	}

	err = sch.Validate(inst)
	if err == nil {
		return nil
	}
	var ve *sjsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &SchemaError{Errors: []*ValidationError{{Message: err.Error()}}}
	}
	p := message.NewPrinter(language.English)
	var out []*ValidationError
	for _, cause := range flattenValidationErrors(ve) {
		out = append(out, &ValidationError{
			Path:    "/" + strings.Join(cause.InstanceLocation, "/"),
			Message: cause.ErrorKind.LocalizedString(p),
		})
	}
	return &SchemaError{Errors: out}
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}
