package report

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/ormasoftchile/jsontest/pkg/jsondiff"
	"github.com/ormasoftchile/jsontest/pkg/runner"
)

var htmlPage = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; }
table.diff { border-collapse: collapse; font-family: monospace; white-space: pre; }
table.diff td { padding: 0 .5em; vertical-align: top; }
tr.removed td:first-child, tr.changed td:first-child { background: #fdd; }
tr.added td:last-child, tr.changed td:last-child { background: #dfd; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Summary.Total}} tests: {{.Summary.Passed}} passed, {{.Summary.Failed}} failed, {{.Summary.Errors}} errors, {{.Summary.Skipped}} skipped. Generated {{.Generated}}.</p>
{{range .Items}}
<h2>{{.Path}}</h2>
{{if .Message}}<pre>{{.Message}}</pre>{{else}}{{.Diff}}{{end}}
{{end}}
</body>
</html>
`))

type htmlItem struct {
	Path    string
	Message string
	Diff    template.HTML
}

// WriteHTML writes a standalone HTML page listing every failed or errored
// test of res, with side-by-side diffs for mismatches.
func WriteHTML(w io.Writer, title string, res runner.Result) error {
	var items []htmlItem
	var walk func(runner.Result)
	walk = func(r runner.Result) {
		switch r := r.(type) {
		case *runner.GroupResult:
			for _, c := range r.Children {
				walk(c)
			}
		case *runner.ErrorResult:
			items = append(items, htmlItem{Path: r.Path, Message: r.Message})
		case *runner.FileResult:
			if !r.Passed() {
				// jsondiff.HTML escapes every cell.
				items = append(items, htmlItem{Path: r.Path, Diff: template.HTML(jsondiff.HTML(r.Expect, r.Actual))})
			}
		}
	}
	walk(res)

	err := htmlPage.Execute(w, struct {
		Title     string
		Summary   runner.Summary
		Generated string
		Items     []htmlItem
	}{title, runner.Tally(res), time.Now().UTC().Format(time.RFC3339), items})
	if err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}
