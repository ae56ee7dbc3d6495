package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/HoldYourWaffle2/tsoa/internal/diagnostic"
)

// printer renders diagnostics for a terminal. Color is detected from the
// writer, so redirected output stays plain text.
type printer struct {
	w        io.Writer
	renderer *lipgloss.Renderer
	errorSt  lipgloss.Style
	warnSt   lipgloss.Style
	infoSt   lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	r := lipgloss.NewRenderer(w)
	return &printer{
		w:        w,
		renderer: r,
		errorSt:  r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		warnSt:   r.NewStyle().Foreground(lipgloss.Color("11")),
		infoSt:   r.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

func (p *printer) style(sev diagnostic.Severity) lipgloss.Style {
	switch sev {
	case diagnostic.SeverityError:
		return p.errorSt
	case diagnostic.SeverityWarning:
		return p.warnSt
	default:
		return p.infoSt
	}
}

// diagnostics prints one line per diagnostic, in collection order.
func (p *printer) diagnostics(diags []diagnostic.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(p.w, p.style(d.Severity).Render(d.String()))
	}
}
