// Package theme holds the terminal styles used by the CLI reports.
package theme

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/prepia/tutor/internal/difficulty"
)

// Color palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Heading = lipgloss.NewStyle().
		Bold(true).
		Foreground(Secondary)

	Label = lipgloss.NewStyle().
		Foreground(TextDim)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// States
var (
	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Warning = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)

	divider = lipgloss.NewStyle().
		Foreground(Border)
)

// Rule renders a horizontal divider of width cells.
func Rule(width int) string {
	return divider.Render(strings.Repeat("─", width))
}

// Mark renders a check or a cross.
func Mark(ok bool) string {
	if ok {
		return Correct.Render("✓")
	}
	return Incorrect.Render("✗")
}

// Tier renders a difficulty tier with its learner-facing label.
func Tier(t difficulty.Tier) string {
	switch t {
	case difficulty.Easy:
		return Correct.Render(t.Label())
	case difficulty.Hard:
		return Incorrect.Render(t.Label())
	default:
		return Warning.Render(t.Label())
	}
}
