package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/hyperjump/semsim/internal/models"
)

var (
	colorInfo    = lipgloss.Color("#2196F3")
	colorSuccess = lipgloss.Color("#8BC34A")
	colorError   = lipgloss.Color("#e53935")
	colorBar     = lipgloss.Color("#4db6ac")
	colorInvalid = lipgloss.Color("#9e9e9e")
	colorMuted   = lipgloss.Color("#757575")
)

// theme holds styles bound to one writer, so color is only emitted when
// that writer is a terminal.
type theme struct {
	info    lipgloss.Style
	success lipgloss.Style
	err     lipgloss.Style
	bar     lipgloss.Style
	invalid lipgloss.Style
	muted   lipgloss.Style
	header  lipgloss.Style
}

func newTheme(w io.Writer) theme {
	r := lipgloss.NewRenderer(w)
	return theme{
		info:    r.NewStyle().Foreground(colorInfo),
		success: r.NewStyle().Foreground(colorSuccess),
		err:     r.NewStyle().Foreground(colorError),
		bar:     r.NewStyle().Foreground(colorBar),
		invalid: r.NewStyle().Foreground(colorInvalid),
		muted:   r.NewStyle().Foreground(colorMuted),
		header:  r.NewStyle().Underline(true),
	}
}

func (t theme) severity(s models.Severity) lipgloss.Style {
	switch s {
	case models.SeveritySuccess:
		return t.success
	case models.SeverityError:
		return t.err
	default:
		return t.info
	}
}

func (t theme) status(label string, st models.Status) string {
	marker := "•"
	switch st.Severity {
	case models.SeveritySuccess:
		marker = "✓"
	case models.SeverityError:
		marker = "✗"
	}
	line := t.severity(st.Severity).Render(marker + " " + st.Display())
	if label == "" {
		return line
	}
	return t.muted.Render("["+label+"]") + " " + line
}
