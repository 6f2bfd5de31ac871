// Package runner executes test files and directories of test files.
//
// A SingleTest loads one document, resolves its variables, issues its
// request (or, when a `.eval` sidecar exists, compares the resolved document
// against the sidecar) and compares the outcome with the expectation. A
// TestGroup runs every entry of a directory, isolating failures so one
// child never prevents its siblings from running.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ormasoftchile/jsontest/pkg/document"
)

// Reporter receives progress events. Begin and End are called once per node,
// in that order. With Concurrency > 1 calls for different nodes may
// interleave and come from several goroutines.
type Reporter interface {
	Begin(n Node)
	End(n Node, r Result)
}

// Node is a runnable test: a single file or a directory.
type Node interface {
	Path() string
	Run(ctx context.Context, rep Reporter) Result
}

// Fetcher issues the request section of a test and returns the response
// document.
type Fetcher interface {
	Fetch(ctx context.Context, request document.Value) (document.Value, error)
}

// Runner builds nodes and holds what they share: the fetcher, the pool size,
// and the logger.
type Runner struct {
	Fetcher Fetcher
	// Concurrency bounds how many leaf tests of one directory run at once.
	// Values below 2 run sequentially.
	Concurrency int
	Logger      *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}

// Create returns a SingleTest for a regular file and a TestGroup for a
// directory.
func (r *Runner) Create(path string) (Node, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	switch {
	case fi.IsDir():
		return &TestGroup{path: path, runner: r}, nil
	case fi.Mode().IsRegular():
		return &SingleTest{path: path, runner: r}, nil
	}
	return nil, fmt.Errorf("unknown file: %s", path)
}

// Run creates the node for path and runs it. A path that cannot be turned
// into a node yields an ErrorResult.
func (r *Runner) Run(ctx context.Context, path string, rep Reporter) Result {
	n, err := r.Create(path)
	if err != nil {
		return &ErrorResult{Path: path, Message: err.Error()}
	}
	return n.Run(ctx, rep)
}

// NopReporter ignores all events.
type NopReporter struct{}

func (NopReporter) Begin(Node)        {}
func (NopReporter) End(Node, Result) {}
