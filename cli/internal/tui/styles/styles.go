// ABOUTME: Shared lipgloss styles for consistent CLI output
// ABOUTME: Defines colors, severity badges and text styles used across commands

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors - Core palette
	Primary   = lipgloss.Color("#16A34A") // Leaf green
	Secondary = lipgloss.Color("#10B981") // Green
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Danger    = lipgloss.Color("#EF4444") // Red
	Muted     = lipgloss.Color("#6B7280") // Gray
	Text      = lipgloss.Color("#F9FAFB") // Light
	Accent    = lipgloss.Color("#22D3EE") // Cyan highlights

	// Base styles
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted)

	// Status indicators
	StatusOK = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	StatusWarning = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	StatusCritical = lipgloss.NewStyle().
			Foreground(Danger).
			Bold(true)

	// Panels
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Muted).
		Padding(0, 1)

	// Help text
	Help = lipgloss.NewStyle().
		Foreground(Muted)

	// Key style for labels
	KeyStyle = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)

	// Value style for emphasized data
	ValueStyle = lipgloss.NewStyle().
			Foreground(Text).
			Bold(true)
)

// SeverityStyle picks a status style for a diseased-area percentage
func SeverityStyle(percent float64) lipgloss.Style {
	switch {
	case percent >= 50:
		return StatusCritical
	case percent >= 25:
		return StatusWarning
	default:
		return StatusOK
	}
}

// UrgencyStyle picks a status style for a treatment urgency
func UrgencyStyle(urgency string) lipgloss.Style {
	switch urgency {
	case "critical", "high":
		return StatusCritical
	case "medium":
		return StatusWarning
	default:
		return StatusOK
	}
}

// SeverityBar returns a styled bar showing the diseased share of the leaf
func SeverityBar(percent float64, width int) string {
	filled := int(percent / 100.0 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return SeverityStyle(percent).Render(bar)
}
