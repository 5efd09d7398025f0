package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/krizos/phpanalyze"
	"github.com/krizos/phpanalyze/internal/span"
	"github.com/krizos/phpanalyze/issue"
)

// showProgress gates the progress bar on a real terminal.
func showProgress(noProgress bool) bool {
	return !noProgress && isatty.IsTerminal(os.Stderr.Fd())
}

// reporter renders issues level-colored, one per line, with secondary
// annotations indented beneath.
type reporter struct {
	out        io.Writer
	paths      []string // index: SourceId - 1
	errorCount int

	errColor  *color.Color
	warnColor *color.Color
	noteColor *color.Color
}

func newReporter(out io.Writer, paths []string, colored bool) *reporter {
	colored = colored && isatty.IsTerminal(os.Stdout.Fd())
	r := &reporter{
		out:       out,
		paths:     paths,
		errColor:  color.New(color.FgRed, color.Bold),
		warnColor: color.New(color.FgYellow),
		noteColor: color.New(color.FgCyan),
	}
	if !colored {
		r.errColor.DisableColor()
		r.warnColor.DisableColor()
		r.noteColor.DisableColor()
	}
	return r
}

func (r *reporter) render(result *phpanalyze.AnalysisResult) {
	for _, i := range result.Issues {
		r.renderIssue(i)
	}
	fmt.Fprintf(r.out, "\n%d issue(s), %d error(s)\n", len(result.Issues), r.errorCount)
}

func (r *reporter) renderIssue(i issue.Issue) {
	level := r.noteColor
	switch i.Level {
	case issue.Error:
		level = r.errColor
		r.errorCount++
	case issue.Warning:
		level = r.warnColor
	}

	primary := i.PrimarySpan()
	fmt.Fprintf(r.out, "%s %s: %s [%s]\n",
		level.Sprintf("%-7s", i.Level.String()),
		r.location(primary), i.Title, i.Code)

	for _, a := range i.Annotations {
		if a.Kind == issue.Secondary && a.Message != "" {
			fmt.Fprintf(r.out, "        %s: %s\n", r.location(a.Span), a.Message)
		}
	}
	for _, note := range i.Notes {
		fmt.Fprintf(r.out, "        note: %s\n", note)
	}
	if i.Help != "" {
		fmt.Fprintf(r.out, "        help: %s\n", i.Help)
	}
}

func (r *reporter) location(sp span.Span) string {
	idx := int(sp.Start.Source) - 1
	if idx < 0 || idx >= len(r.paths) {
		return fmt.Sprintf("<source %d>:%d", sp.Start.Source, sp.Start.Offset)
	}
	return fmt.Sprintf("%s:%d-%d", r.paths[idx], sp.Start.Offset, sp.End.Offset)
}
