// Package report prints generation diagnostics for the terminal.
package report

import (
	"fmt"
	"io"

	"github.com/broady/jsonmeta/jsonmetagen/diag"
	"github.com/fatih/color"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	faintColor   = color.New(color.Faint)
)

// Print writes the diagnostics of c to w, one per line, followed by the
// summary. Info records are only printed when verbose is set.
func Print(w io.Writer, c *diag.Collector, verbose bool) {
	for _, d := range c.Diagnostics() {
		if d.Severity == diag.SeverityInfo && !verbose {
			continue
		}
		Line(w, d)
	}
	if s := c.Summary(); s != "" {
		fmt.Fprintln(w, faintColor.Sprint(s))
	}
}

// Line writes one diagnostic.
func Line(w io.Writer, d diag.Diagnostic) {
	if d.File != "" {
		loc := d.File
		if d.Line > 0 {
			loc = fmt.Sprintf("%s:%d", d.File, d.Line)
		}
		fmt.Fprint(w, faintColor.Sprint(loc), " ")
	}
	fmt.Fprintf(w, "%s %s\n", severityLabel(d.Severity), d.Message)
}

func severityLabel(s diag.Severity) string {
	switch s {
	case diag.SeverityError:
		return errorColor.Sprint("error:")
	case diag.SeverityWarning:
		return warningColor.Sprint("warning:")
	default:
		return infoColor.Sprint(s.String() + ":")
	}
}
