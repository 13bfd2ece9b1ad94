package untangle

import (
	"fmt"
	"io"
	"strings"
)

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiCyan   = "\x1b[36m"
	ansiYellow = "\x1b[33m"
)

// Printer shapes a completed report for console display. It performs no
// pipeline work of its own.
type Printer struct {
	out   io.Writer
	color bool
}

// NewPrinter creates a printer writing to out, with ANSI colors when color
// is true.
func NewPrinter(out io.Writer, color bool) *Printer {
	return &Printer{out: out, color: color}
}

func (p *Printer) paint(code, s string) string {
	if !p.color {
		return s
	}
	return code + s + ansiReset
}

// Files prints, per origin file, the media queries attributed to it.
func (p *Printer) Files(rep *Report) {
	for _, f := range rep.Files {
		fmt.Fprintln(p.out, p.paint(ansiBold+ansiCyan, f.Path))
		for _, frag := range f.Fragments {
			fmt.Fprintf(p.out, "  @media %s\n", frag.Media)
		}
	}
}

// Queries prints the full per-file fragments as stylesheet text.
func (p *Printer) Queries(rep *Report) {
	for _, f := range rep.Files {
		fmt.Fprintln(p.out, p.paint(ansiBold+ansiCyan, f.Path))
		for _, frag := range f.Fragments {
			fmt.Fprintln(p.out, frag.Sheet.String())
		}
	}
}

// Unmatched prints unresolved units with their source positions and the
// surviving candidates, if any.
func (p *Printer) Unmatched(rep *Report) {
	if len(rep.Unresolved) == 0 {
		return
	}
	fmt.Fprintln(p.out, p.paint(ansiBold+ansiYellow, "Unmatched selectors:"))
	for _, u := range rep.Unresolved {
		detail := "no matches"
		if len(u.Origins) > 1 {
			detail = "ambiguous: " + strings.Join(u.Origins, ", ")
		}
		fmt.Fprintf(p.out, "  %s  %s  @media %s  (%s)\n", u.Position(), u.Selector, u.Media, detail)
	}
}

// Summary prints one closing line with resolution counts.
func (p *Printer) Summary(rep *Report) {
	fragments := 0
	for _, f := range rep.Files {
		fragments += len(f.Fragments)
	}
	fmt.Fprintf(p.out, "%d file(s), %d fragment(s), %d rule(s) attributed, %d unmatched\n",
		len(rep.Files), fragments, rep.Resolved(), len(rep.Unresolved))
}
