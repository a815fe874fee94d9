// Package diagnostics writes human-oriented startup output: the route report
// and startup error details.
package diagnostics

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	derrors "github.com/toyz/dispatch/internal/errors"
)

// Reporter writes colored diagnostics to a stream.
type Reporter struct {
	out       io.Writer
	useColors bool
	verbose   bool

	header  *color.Color
	verb    *color.Color
	warning *color.Color
	failure *color.Color
	success *color.Color
}

// NewReporter creates a reporter writing to out. Colors follow NO_COLOR,
// FORCE_COLOR and TERM, and are never used for a nil or non-file writer
// unless FORCE_COLOR is set.
func NewReporter(out io.Writer, verbose bool) *Reporter {
	if out == nil {
		out = os.Stderr
	}
	return NewReporterWithColors(out, verbose, shouldUseColors(out))
}

// NewReporterWithColors creates a reporter with explicit color handling.
func NewReporterWithColors(out io.Writer, verbose, useColors bool) *Reporter {
	r := &Reporter{
		out:       out,
		useColors: useColors,
		verbose:   verbose,
		header:    color.New(color.FgCyan, color.Bold),
		verb:      color.New(color.FgGreen),
		warning:   color.New(color.FgYellow),
		failure:   color.New(color.FgRed),
		success:   color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{r.header, r.verb, r.warning, r.failure, r.success} {
		if useColors {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

// Header writes a section title.
func (r *Reporter) Header(title string) {
	r.header.Fprintln(r.out, title)
}

// Route writes one route line: "<index>. <signature> -> <VERB> <url>".
func (r *Reporter) Route(index int, signature, verb, url string) {
	fmt.Fprintf(r.out, "%d. %s -> ", index, signature)
	r.verb.Fprintf(r.out, "%s", verb)
	fmt.Fprintf(r.out, " %s\n", url)
}

// Warning writes an indented warning line below a route.
func (r *Reporter) Warning(message string) {
	r.warning.Fprintf(r.out, " - warning %s\n", message)
}

// Error writes an indented error line below a route.
func (r *Reporter) Error(message string) {
	r.failure.Fprintf(r.out, " - error %s\n", message)
}

// Success writes a plain success line.
func (r *Reporter) Success(format string, args ...interface{}) {
	r.success.Fprintf(r.out, format+"\n", args...)
}

// Summary writes a trailing count line.
func (r *Reporter) Summary(routes, warnings, errors int) {
	fmt.Fprintln(r.out)
	line := fmt.Sprintf("%d route(s), %d warning(s), %d error(s)", routes, warnings, errors)
	switch {
	case errors > 0:
		r.failure.Fprintln(r.out, line)
	case warnings > 0:
		r.warning.Fprintln(r.out, line)
	default:
		r.success.Fprintln(r.out, line)
	}
}

// ReportError writes a startup error with its location, context and suggestions.
func (r *Reporter) ReportError(err error) {
	var multi *derrors.MultipleErrors
	if stderrors.As(err, &multi) {
		for _, e := range multi.Errors {
			r.ReportError(e)
		}
		return
	}

	r.failure.Fprint(r.out, "ERROR: ")
	fmt.Fprintln(r.out, err.Error())

	var de derrors.DispatchError
	if !stderrors.As(err, &de) {
		return
	}
	fmt.Fprintf(r.out, "  Type: %s\n", de.ErrorCode())
	if r.verbose {
		for k, v := range de.Context() {
			fmt.Fprintf(r.out, "  %s: %v\n", k, v)
		}
	}
	for _, s := range de.Suggestions() {
		r.warning.Fprintf(r.out, "  hint: %s\n", s)
	}
}

func shouldUseColors(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	if _, ok := out.(*os.File); !ok {
		return false
	}
	term := os.Getenv("TERM")
	return term != "" && term != "dumb" && !color.NoColor
}

// Indent prefixes every line of s with n spaces.
func Indent(s string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = pad + l
	}
	return strings.Join(lines, "\n")
}
