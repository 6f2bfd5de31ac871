package testcase

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaID is the $id of the generated test case schema.
const SchemaID = "https://github.com/ormasoftchile/jsontest/schemas/testcase.json"

// GenerateJSONSchema produces a JSON Schema Draft 2020-12 document from the
// TestCase Go types.
func GenerateJSONSchema() ([]byte, error) {
	r := &jsonschema.Reflector{AllowAdditionalProperties: true, ExpandedStruct: true}
	s := r.Reflect(&TestCase{})
	s.ID = SchemaID
	s.Title = "jsontest test case"
	s.Description = "Schema for jsontest test documents (Draft 2020-12)"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal test case schema: %w", err)
	}
	return data, nil
}
