package jsondiff

import (
	"fmt"
	"html"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/ormasoftchile/jsontest/pkg/document"
)

// Line prefixes used by Diff.
const (
	PrefixContext = "  "
	PrefixRemoved = "- "
	PrefixAdded   = "+ "
)

// Diff returns a full line-by-line listing of expect against actual. Lines
// only in expect are prefixed "- ", lines only in actual "+ ", shared lines
// two spaces. The result ends with a newline.
func Diff(expect, actual document.Value) string {
	a, b := lines(expect), lines(actual)
	var sb strings.Builder
	for _, op := range difflib.NewMatcher(a, b).GetOpCodes() {
		switch op.Tag {
		case 'e':
			writeLines(&sb, PrefixContext, a[op.I1:op.I2])
		case 'd':
			writeLines(&sb, PrefixRemoved, a[op.I1:op.I2])
		case 'i':
			writeLines(&sb, PrefixAdded, b[op.J1:op.J2])
		case 'r':
			writeLines(&sb, PrefixRemoved, a[op.I1:op.I2])
			writeLines(&sb, PrefixAdded, b[op.J1:op.J2])
		}
	}
	return sb.String()
}

func writeLines(sb *strings.Builder, prefix string, ls []string) {
	for _, l := range ls {
		sb.WriteString(prefix)
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
}

// Unified returns a unified diff with the given number of context lines.
// It is empty when the documents are equal.
func Unified(expect, actual document.Value, context int) (string, error) {
	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(Normalize(expect)),
		B:        difflib.SplitLines(Normalize(actual)),
		FromFile: "expect",
		ToFile:   "actual",
		Context:  context,
	})
	if err != nil {
		return "", fmt.Errorf("unified diff: %w", err)
	}
	return out, nil
}

// HTML renders the diff as a two-column HTML table.
func HTML(expect, actual document.Value) string {
	a, b := lines(expect), lines(actual)
	var sb strings.Builder
	sb.WriteString(`<table class="diff">` + "\n")
	sb.WriteString("<thead><tr><th>expect</th><th>actual</th></tr></thead>\n<tbody>\n")
	row := func(class, left, right string) {
		fmt.Fprintf(&sb, "<tr class=%q><td>%s</td><td>%s</td></tr>\n",
			class, html.EscapeString(left), html.EscapeString(right))
	}
	for _, op := range difflib.NewMatcher(a, b).GetOpCodes() {
		switch op.Tag {
		case 'e':
			for i := op.I1; i < op.I2; i++ {
				row("same", a[i], b[op.J1+i-op.I1])
			}
		case 'd':
			for i := op.I1; i < op.I2; i++ {
				row("removed", a[i], "")
			}
		case 'i':
			for j := op.J1; j < op.J2; j++ {
				row("added", "", b[j])
			}
		case 'r':
			n := max(op.I2-op.I1, op.J2-op.J1)
			for k := 0; k < n; k++ {
				var left, right string
				if op.I1+k < op.I2 {
					left = a[op.I1+k]
				}
				if op.J1+k < op.J2 {
					right = b[op.J1+k]
				}
				row("changed", left, right)
			}
		}
	}
	sb.WriteString("</tbody>\n</table>\n")
	return sb.String()
}
