package report

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/jsontest/pkg/jsondiff"
	"github.com/ormasoftchile/jsontest/pkg/runner"
)

// DiffFormat selects how a failed comparison is printed.
type DiffFormat string

const (
	DiffNdiff   DiffFormat = "ndiff"
	DiffUnified DiffFormat = "unified"
)

// ParseDiffFormat validates a diff format name. Empty means ndiff.
func ParseDiffFormat(s string) (DiffFormat, error) {
	switch DiffFormat(s) {
	case "", DiffNdiff:
		return DiffNdiff, nil
	case DiffUnified:
		return DiffUnified, nil
	}
	return "", fmt.Errorf("unknown diff format %q (want ndiff or unified)", s)
}

// Options configures a Console.
type Options struct {
	NoColor bool
	// Verbose also prints a line when a node starts.
	Verbose bool
	Diff    DiffFormat
	// Context is the number of context lines of a unified diff.
	Context int
}

// Console prints one line per finished node. It is safe for concurrent use.
type Console struct {
	mu   sync.Mutex
	out  io.Writer
	st   styles
	opts Options
}

var _ runner.Reporter = (*Console)(nil)

// NewConsole returns a Console writing to out.
func NewConsole(out io.Writer, opts Options) *Console {
	if opts.Diff == "" {
		opts.Diff = DiffNdiff
	}
	if opts.Context == 0 {
		opts.Context = 3
	}
	return &Console{out: out, st: newStyles(out, opts.NoColor), opts: opts}
}

func (c *Console) Begin(n runner.Node) {
	if !c.opts.Verbose {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, c.st.render(c.st.context, "Running: "+n.Path()))
}

func (c *Console) End(n runner.Node, res runner.Result) {
	// Rendering happens outside the lock; only the write is serialised.
	text := c.format(n.Path(), res)
	if text == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	io.WriteString(c.out, text)
}

func (c *Console) format(path string, res runner.Result) string {
	var sb strings.Builder
	switch r := res.(type) {
	case *runner.ErrorResult:
		sb.WriteString(c.st.render(c.st.errored, "Error: "+path) + "\n")
		sb.WriteString("Message: " + r.Message + "\n")
	case *runner.GroupResult:
		if r.Passed() {
			sb.WriteString(c.st.render(c.st.passed, "Passed: "+path) + "\n")
		} else {
			sb.WriteString(c.st.render(c.st.failed, "Failed: "+path) + "\n")
		}
	case *runner.FileResult:
		switch {
		case r.Skipped:
			sb.WriteString(c.st.render(c.st.skipped, "Skipped: "+path) + "\n")
		case r.Match:
			sb.WriteString(c.st.render(c.st.passed, "Passed: "+path) + "\n")
		default:
			sb.WriteString(c.st.render(c.st.failed, "Failed: "+path) + "\n")
			sb.WriteString(c.diff(r))
		}
	}
	return sb.String()
}

func (c *Console) diff(r *runner.FileResult) string {
	var text string
	if c.opts.Diff == DiffUnified {
		u, err := jsondiff.Unified(r.Expect, r.Actual, c.opts.Context)
		if err != nil {
			return "Message: " + err.Error() + "\n"
		}
		text = u
	} else {
		text = jsondiff.Diff(r.Expect, r.Actual)
	}
	if c.st.plain {
		return text
	}
	var sb strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		body := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(body, "---"), strings.HasPrefix(body, "+++"), strings.HasPrefix(body, "@@"):
			body = c.st.header.Render(body)
		case strings.HasPrefix(body, "-"):
			body = c.st.removed.Render(body)
		case strings.HasPrefix(body, "+"):
			body = c.st.added.Render(body)
		default:
			body = c.st.context.Render(body)
		}
		sb.WriteString(body + "\n")
	}
	return sb.String()
}

// Summary prints the leaf totals of res followed by an aligned list of the
// tests that failed or errored.
func (c *Console) Summary(res runner.Result) {
	s := runner.Tally(res)
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(c.st.render(c.st.header, "Summary") + "\n")
	fmt.Fprintf(&sb, "  %d tests: %s, %s, %s, %s\n", s.Total,
		c.st.render(c.st.passed, fmt.Sprintf("%d passed", s.Passed)),
		c.st.render(c.st.failed, fmt.Sprintf("%d failed", s.Failed)),
		c.st.render(c.st.errored, fmt.Sprintf("%d errors", s.Errors)),
		c.st.render(c.st.skipped, fmt.Sprintf("%d skipped", s.Skipped)))

	bad := failures(res)
	width := 0
	for _, f := range bad {
		if w := runewidth.StringWidth(f.path); w > width {
			width = w
		}
	}
	for _, f := range bad {
		if f.message == "" {
			fmt.Fprintf(&sb, "  %s %s\n", c.st.render(c.st.failed, GlyphFailed), f.path)
			continue
		}
		fmt.Fprintf(&sb, "  %s %s  %s\n", c.st.render(c.st.errored, GlyphError),
			runewidth.FillRight(f.path, width), firstLine(f.message))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	io.WriteString(c.out, sb.String())
}

type failure struct {
	path    string
	message string // empty for comparison mismatches
}

func failures(res runner.Result) []failure {
	var out []failure
	var walk func(runner.Result)
	walk = func(r runner.Result) {
		switch r := r.(type) {
		case *runner.GroupResult:
			for _, c := range r.Children {
				walk(c)
			}
		case *runner.ErrorResult:
			out = append(out, failure{path: r.Path, message: r.Message})
		case *runner.FileResult:
			if !r.Passed() {
				out = append(out, failure{path: r.Path})
			}
		}
	}
	walk(res)
	return out
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
