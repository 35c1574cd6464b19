package ui

import (
	"fmt"
	"strings"
)

// Bar is a text progress bar rendered as a bracketed run of filled and
// empty blocks, styled with DefaultStyles().ProgressBar.
type Bar struct {
	width   int
	percent float64
	styles  Styles
}

// NewBar creates a progress bar of the given character width.
func NewBar(width int) Bar {
	return Bar{width: width, styles: DefaultStyles()}
}

// SetPercent clamps and sets the bar's fill percentage (0.0 to 1.0).
func (b Bar) SetPercent(percent float64) Bar {
	if percent < 0 {
		percent = 0
	}
	if percent > 1 {
		percent = 1
	}
	b.percent = percent
	return b
}

// View renders the bar.
func (b Bar) View() string {
	barWidth := b.width - 2
	if barWidth < 0 {
		barWidth = 0
	}
	filled := int(b.percent * float64(barWidth))
	empty := barWidth - filled
	bar := fmt.Sprintf("[%s%s]", strings.Repeat("█", filled), strings.Repeat("░", empty))
	return b.styles.ProgressBar.Render(bar)
}
