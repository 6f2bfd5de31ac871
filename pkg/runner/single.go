package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/ormasoftchile/jsontest/pkg/document"
	"github.com/ormasoftchile/jsontest/pkg/fetch"
	"github.com/ormasoftchile/jsontest/pkg/jsondiff"
	"github.com/ormasoftchile/jsontest/pkg/testcase"
	"github.com/ormasoftchile/jsontest/pkg/vars"
)

// SingleTest runs one test document.
type SingleTest struct {
	path   string
	runner *Runner
}

func (t *SingleTest) Path() string { return t.path }

// Run executes the test and reports it.
func (t *SingleTest) Run(ctx context.Context, rep Reporter) Result {
	rep.Begin(t)
	res := t.safeRun(ctx)
	rep.End(t, res)
	return res
}

func (t *SingleTest) safeRun(ctx context.Context) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			t.runner.logger().Error("test panicked", "path", t.path, "panic", p)
			res = &ErrorResult{Path: t.path, Message: fmt.Sprintf("panic: %v", p)}
		}
	}()
	return t.run(ctx)
}

func (t *SingleTest) run(ctx context.Context) Result {
	log := t.runner.logger().With("path", t.path)

	doc, err := testcase.Load(t.path)
	empty := errors.Is(err, testcase.ErrEmpty)
	if err != nil && !empty {
		return &ErrorResult{Path: t.path, Message: "failed to load test: " + err.Error()}
	}
	if empty {
		doc = document.Null()
	}

	// Resolution failures are compared like any other execution failure.
	resolved, rerr := vars.Resolve(doc)
	if rerr != nil {
		log.Debug("variable resolution failed", "err", rerr)
	}

	if testcase.HasEval(t.path) {
		log.Debug("evaluation mode")
		want, err := testcase.LoadEval(t.path)
		if err != nil {
			return &ErrorResult{Path: t.path, Message: "failed to load eval file: " + err.Error()}
		}
		actual := resolved
		if rerr != nil {
			actual = withResponse(doc, fetch.Failure(rerr))
		}
		return t.compare(want, actual)
	}

	if empty {
		log.Debug("empty test")
		return &FileResult{Path: t.path, Skipped: true}
	}
	if rerr != nil {
		return t.compare(doc, withResponse(doc, fetch.Failure(rerr)))
	}

	table, _ := vars.TableOf(doc)
	skip, err := testcase.ShouldSkip(resolved, table.Env())
	if err != nil {
		return &ErrorResult{Path: t.path, Message: err.Error()}
	}
	if skip {
		log.Debug("skip condition is true")
		return &FileResult{Path: t.path, Skipped: true}
	}

	return t.compare(resolved, withResponse(resolved, t.execute(ctx, resolved)))
}

// execute issues the resolved request. A malformed request section is an
// execution failure like any other.
func (t *SingleTest) execute(ctx context.Context, resolved document.Value) document.Value {
	log := t.runner.logger().With("path", t.path)
	request, _ := resolved.Get(testcase.KeyRequest)
	if _, err := fetch.URL(request); err != nil {
		log.Debug("invalid request", "err", err)
		return fetch.Failure(err)
	}
	resp, err := t.runner.Fetcher.Fetch(ctx, request)
	if err != nil {
		log.Debug("request failed", "err", err)
		return fetch.Failure(err)
	}
	return resp
}

func (t *SingleTest) compare(expect, actual document.Value) *FileResult {
	return &FileResult{
		Path:   t.path,
		Expect: expect,
		Actual: actual,
		Match:  jsondiff.Equal(expect, actual),
	}
}

// withResponse clones doc and replaces its response section.
func withResponse(doc, resp document.Value) document.Value {
	out := doc.Clone()
	m := out.Map()
	m.Delete(testcase.KeyResponse)
	m.Set(testcase.KeyResponse, resp)
	return out
}
