package runner

import (
	"encoding/json"

	"github.com/ormasoftchile/jsontest/pkg/document"
)

// Result is the outcome of running a Node. It is one of *ErrorResult,
// *FileResult or *GroupResult.
type Result interface {
	// Passed reports whether the node passed.
	Passed() bool
	// TestPath is the path of the node that produced the result.
	TestPath() string
	isResult()
}

// ErrorResult means the framework could not run the node: the test failed
// to load, its directory could not be listed, or it crashed.
type ErrorResult struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// FileResult is the structural comparison outcome of a single test.
type FileResult struct {
	Path    string         `json:"path"`
	Expect  document.Value `json:"expect"`
	Actual  document.Value `json:"actual"`
	Match   bool           `json:"match"`
	Skipped bool           `json:"skipped,omitempty"`
}

// GroupResult aggregates the results of a directory's children in listing
// order.
type GroupResult struct {
	Path     string   `json:"path"`
	Children []Result `json:"children"`
}

func (r *ErrorResult) Passed() bool { return false }
func (r *FileResult) Passed() bool  { return r.Skipped || r.Match }

// Passed is true when every child passed; an empty group passes.
func (r *GroupResult) Passed() bool {
	for _, c := range r.Children {
		if !c.Passed() {
			return false
		}
	}
	return true
}

func (r *ErrorResult) TestPath() string { return r.Path }
func (r *FileResult) TestPath() string  { return r.Path }
func (r *GroupResult) TestPath() string { return r.Path }

func (*ErrorResult) isResult() {}
func (*FileResult) isResult()  {}
func (*GroupResult) isResult() {}

// Result variants encode with a "type" field naming the variant.
const (
	TypeError = "error"
	TypeFile  = "file"
	TypeGroup = "group"
)

func (r *ErrorResult) MarshalJSON() ([]byte, error) {
	type plain ErrorResult
	return json.Marshal(struct {
		Type string `json:"type"`
		*plain
	}{TypeError, (*plain)(r)})
}

func (r *FileResult) MarshalJSON() ([]byte, error) {
	type plain FileResult
	return json.Marshal(struct {
		Type string `json:"type"`
		*plain
	}{TypeFile, (*plain)(r)})
}

func (r *GroupResult) MarshalJSON() ([]byte, error) {
	type plain GroupResult
	return json.Marshal(struct {
		Type string `json:"type"`
		*plain
	}{TypeGroup, (*plain)(r)})
}

// Summary counts leaf outcomes across a result tree.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// Tally walks r and counts its leaves. A group that failed to list counts
// as one error.
func Tally(r Result) Summary {
	var s Summary
	tally(r, &s)
	return s
}

func tally(r Result, s *Summary) {
	switch r := r.(type) {
	case *GroupResult:
		for _, c := range r.Children {
			tally(c, s)
		}
		return
	case *ErrorResult:
		s.Errors++
	case *FileResult:
		switch {
		case r.Skipped:
			s.Skipped++
		case r.Match:
			s.Passed++
		default:
			s.Failed++
		}
	}
	s.Total++
}
