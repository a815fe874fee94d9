package dispatch

import (
	"io"
	"strings"

	"github.com/toyz/dispatch/internal/diagnostics"
)

// PrintAnalysis writes one line per route, "<index>. <action> -> <VERB> <url>",
// followed by " - warning|error <message>" for every finding. Action and verb
// columns are padded to the widest entry.
func PrintAnalysis(w io.Writer, results []AnalysisResult) {
	printAnalysis(diagnostics.NewReporter(w, false), results)
}

func printAnalysis(reporter *diagnostics.Reporter, results []AnalysisResult) (warnings, errors int) {
	actionWidth, verbWidth := 0, 0
	for _, r := range results {
		actionWidth = max(actionWidth, len(r.Route.ActionName()))
		verbWidth = max(verbWidth, len(r.Route.Method))
	}

	for i, r := range results {
		reporter.Route(i+1,
			padRight(r.Route.ActionName(), actionWidth),
			padRight(string(r.Route.Method), verbWidth),
			r.Route.URL)
		for _, issue := range r.Issues {
			if issue.Type == IssueWarning {
				warnings++
				reporter.Warning(issue.Message)
			} else {
				errors++
				reporter.Error(issue.Message)
			}
		}
	}
	return warnings, errors
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
