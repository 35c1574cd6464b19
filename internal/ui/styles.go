// Package ui provides the terminal presentation for an install run: a
// Bubble Tea progress list when stderr is a TTY, and plain percentage
// lines otherwise.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#1e66f5", Dark: "#89b4fa"}
	colorSuccess = lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"}
	colorError   = lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"}
)

// Styles holds the subset of lipgloss styles the install progress view
// needs.
type Styles struct {
	Title       lipgloss.Style
	Success     lipgloss.Style
	Error       lipgloss.Style
	Help        lipgloss.Style
	ProgressBar lipgloss.Style
}

// DefaultStyles returns the styles used by the install progress view.
func DefaultStyles() Styles {
	return Styles{
		Title:       lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
		Success:     lipgloss.NewStyle().Foreground(colorSuccess),
		Error:       lipgloss.NewStyle().Foreground(colorError),
		Help:        lipgloss.NewStyle().Foreground(colorMuted),
		ProgressBar: lipgloss.NewStyle().Foreground(colorPrimary),
	}
}
