package cmd

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// styles colour status lines when the writer is a terminal; plain text otherwise.
type styles struct {
	ok   lipgloss.Style
	info lipgloss.Style
	risk lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		ok:   r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		info: r.NewStyle().Foreground(lipgloss.Color("4")),
		risk: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
}
