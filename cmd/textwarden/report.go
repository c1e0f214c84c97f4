package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/GriffinCanCode/TextWarden/internal/domain/highlight"
	"github.com/GriffinCanCode/TextWarden/internal/domain/issue"
	"github.com/GriffinCanCode/TextWarden/internal/domain/span"
)

const defaultWidth = 100

// printer renders analysis results for a terminal
type printer struct {
	out   io.Writer
	width int

	types map[issue.Type]*color.Color
	dim   *color.Color
	bold  *color.Color
	err   *color.Color
	ok    *color.Color
}

func newPrinter(w io.Writer, mode string) *printer {
	f, isFile := w.(*os.File)
	tty := isFile && isTerminal(f)

	enabled := tty
	switch mode {
	case "on", "always":
		enabled = true
	case "off", "never":
		enabled = false
	}

	width := defaultWidth
	if tty {
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 20 {
			width = cols
		}
	}

	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}

	return &printer{
		out:   w,
		width: width,
		types: map[issue.Type]*color.Color{
			issue.TypeGrammar:  mk(color.FgRed, color.Bold),
			issue.TypeSpelling: mk(color.FgMagenta, color.Bold),
			issue.TypeStyle:    mk(color.FgBlue, color.Bold),
			issue.TypeClarity:  mk(color.FgCyan, color.Bold),
			issue.TypeGeneral:  mk(color.FgYellow, color.Bold),
		},
		dim:  mk(color.Faint),
		bold: mk(color.Bold),
		err:  mk(color.FgRed, color.Bold),
		ok:   mk(color.FgGreen),
	}
}

func (p *printer) colorFor(t issue.Type) *color.Color {
	if c, ok := p.types[t]; ok {
		return c
	}
	return p.types[issue.TypeGeneral]
}

func (p *printer) errorf(format string, args ...interface{}) {
	fmt.Fprintf(p.out, "%s %s\n", p.err.Sprint("error:"), fmt.Sprintf(format, args...))
}

func (p *printer) header(name string) {
	fmt.Fprintln(p.out, p.bold.Sprint(name))
}

// field prints every line carrying a marker with an underline beneath each
// marked range, followed by the issue list
func (p *printer) field(text string, markers []highlight.Marker, issues []issue.Issue) {
	if len(issues) == 0 {
		fmt.Fprintf(p.out, "  %s\n", p.ok.Sprint("no issues"))
		return
	}

	typeOf := make(map[string]issue.Type, len(issues))
	for _, is := range issues {
		if _, ok := typeOf[is.Text]; !ok {
			typeOf[is.Text] = is.Type
		}
	}

	lines := splitLines(text)
	gutter := len(fmt.Sprint(len(lines)))
	for n, ln := range lines {
		var onLine []highlight.Marker
		for _, m := range markers {
			if m.Span.Start < ln.End && m.Span.End > ln.Start {
				onLine = append(onLine, m)
			}
		}
		if len(onLine) == 0 {
			continue
		}

		body := text[ln.Start:ln.End]
		fmt.Fprintf(p.out, "  %s %s %s\n", p.dim.Sprintf("%*d", gutter, n+1), p.dim.Sprint("|"), body)
		fmt.Fprintf(p.out, "  %s %s %s\n", strings.Repeat(" ", gutter), p.dim.Sprint("|"), p.underline(body, ln.Start, onLine, typeOf))
	}

	for _, is := range issues {
		p.issue(is)
	}
	fmt.Fprintln(p.out)
}

func (p *printer) underline(line string, offset int, markers []highlight.Marker, typeOf map[string]issue.Type) string {
	sort.Slice(markers, func(i, j int) bool { return markers[i].Span.Start < markers[j].Span.Start })

	var b strings.Builder
	cursor := 0
	for _, m := range markers {
		start := max(m.Span.Start-offset, cursor)
		end := min(m.Span.End-offset, len(line))
		if start >= end {
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.StringWidth(line[cursor:start])))
		width := max(runewidth.StringWidth(line[start:end]), 1)
		b.WriteString(p.colorFor(typeOf[m.IssueText]).Sprint(strings.Repeat("~", width)))
		cursor = end
	}
	return b.String()
}

func (p *printer) issue(is issue.Issue) {
	label := p.colorFor(is.Type).Sprintf("%-8s", is.Type)
	var edit string
	if is.Applicable() {
		edit = fmt.Sprintf("%q -> %q", is.Text, is.Suggestion)
	} else if is.Text != "" {
		edit = fmt.Sprintf("%q", is.Text)
	}

	fmt.Fprintf(p.out, "  %s %s\n", label, edit)
	indent := 11
	explanation := runewidth.Truncate(is.DisplayExplanation(), max(p.width-indent, 20), "...")
	fmt.Fprintf(p.out, "%s%s\n", strings.Repeat(" ", indent), p.dim.Sprint(explanation))
}

func (p *printer) summary(files, issues, applied int) {
	msg := fmt.Sprintf("%d issue(s) in %d document(s)", issues, files)
	if applied > 0 {
		msg += fmt.Sprintf(", %d correction(s) applied", applied)
	}
	fmt.Fprintln(p.out, p.bold.Sprint(msg))
}

func splitLines(text string) []span.Span {
	var out []span.Span
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			end := i
			if end > start && text[end-1] == '\r' {
				end--
			}
			out = append(out, span.Span{Start: start, End: end})
			start = i + 1
		}
	}
	out = append(out, span.Span{Start: start, End: len(text)})
	return out
}
