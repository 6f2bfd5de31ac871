package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ormasoftchile/jsontest/pkg/testcase"
)

// TestGroup runs every test below a directory.
type TestGroup struct {
	path   string
	runner *Runner
}

func (g *TestGroup) Path() string { return g.path }

// Run executes the children in listing order and reports the group.
func (g *TestGroup) Run(ctx context.Context, rep Reporter) Result {
	rep.Begin(g)
	res := g.run(ctx, rep)
	rep.End(g, res)
	return res
}

func (g *TestGroup) run(ctx context.Context, rep Reporter) Result {
	entries, err := List(g.path)
	if err != nil {
		return &ErrorResult{Path: g.path, Message: "failed to list tests: " + err.Error()}
	}
	g.runner.logger().Debug("running group", "path", g.path, "entries", len(entries))

	children := make([]Result, len(entries))
	n := g.runner.Concurrency
	if n < 2 {
		for i, e := range entries {
			children[i] = g.runChild(ctx, rep, filepath.Join(g.path, e.Name()))
		}
		return &GroupResult{Path: g.path, Children: children}
	}

	// Leaves share a bounded pool; sub-groups run inline so each directory
	// keeps its own bound.
	sem := make(chan struct{}, n)
	var wg sync.WaitGroup
	for i, e := range entries {
		path := filepath.Join(g.path, e.Name())
		if e.IsDir() {
			children[i] = g.runChild(ctx, rep, path)
			continue
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()
			children[i] = g.runChild(ctx, rep, path)
		}(i, path)
	}
	wg.Wait()
	return &GroupResult{Path: g.path, Children: children}
}

// runChild creates and runs one entry. Nothing a child does escapes as a
// panic; it becomes an ErrorResult at the child's position.
func (g *TestGroup) runChild(ctx context.Context, rep Reporter, path string) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			g.runner.logger().Error("child panicked", "path", path, "panic", p)
			res = &ErrorResult{Path: path, Message: fmt.Sprintf("panic: %v", p)}
		}
	}()
	node, err := g.runner.Create(path)
	if err != nil {
		return &ErrorResult{Path: path, Message: err.Error()}
	}
	return node.Run(ctx, rep)
}

// List returns the runnable entries of dir sorted by name. Hidden entries
// and evaluation sidecars are left out.
func List(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := entries[:0]
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || strings.HasSuffix(name, testcase.EvalSuffix) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
