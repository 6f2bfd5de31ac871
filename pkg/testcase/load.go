package testcase

import (
	"errors"
	"fmt"
	"os"

	"github.com/ormasoftchile/jsontest/pkg/document"
)

// ErrEmpty means the file holds no test: it is blank, null, an empty
// mapping, or has malformed trailing content after the first document.
var ErrEmpty = errors.New("empty test case")

// Load reads and validates the test document at path.
func Load(path string) (document.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return document.Value{}, fmt.Errorf("read test case: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a test document.
func Parse(data []byte) (document.Value, error) {
	doc, err := document.ParseYAML(data)
	if errors.Is(err, document.ErrNoDocument) || errors.Is(err, document.ErrTrailingContent) {
		return document.Value{}, ErrEmpty
	}
	if err != nil {
		return document.Value{}, err
	}
	if !doc.Truthy() {
		return document.Value{}, ErrEmpty
	}
	if doc.Kind() != document.KindMap {
		return document.Value{}, fmt.Errorf("malformed test case: only a mapping is expected, got %s", doc.Kind())
	}
	if err := Validate(doc); err != nil {
		return document.Value{}, err
	}
	return doc, nil
}

// EvalPath returns the evaluation sidecar path for a test file.
func EvalPath(path string) string { return path + EvalSuffix }

// HasEval reports whether path has an evaluation sidecar.
func HasEval(path string) bool {
	fi, err := os.Stat(EvalPath(path))
	return err == nil && !fi.IsDir()
}

// LoadEval reads the expected document of an evaluation sidecar. A blank
// sidecar expects null.
func LoadEval(path string) (document.Value, error) {
	data, err := os.ReadFile(EvalPath(path))
	if err != nil {
		return document.Value{}, fmt.Errorf("read eval file: %w", err)
	}
	doc, err := document.ParseYAML(data)
	if errors.Is(err, document.ErrNoDocument) {
		return document.Null(), nil
	}
	if err != nil {
		return document.Value{}, fmt.Errorf("eval file: %w", err)
	}
	return doc, nil
}
