package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// --- Color Palette (Dark Mode) ---
var (
	ColorPrimary = lipgloss.Color("#7D56F4") // Indigo/Purple
	ColorError   = lipgloss.Color("#FF5F87") // Pink/Red
	ColorWarning = lipgloss.Color("#FFAF00") // Gold
	ColorSubtle  = lipgloss.Color("#767676") // Gray
	ColorBorder  = lipgloss.Color("#3C3C3C") // Dark Gray border
	ColorBanner  = lipgloss.Color("#FF6B35") // Orange
)

var (
	Title = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(ColorSubtle)

	Subtle = lipgloss.NewStyle().Foreground(ColorSubtle)
	Active = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)

	Error = lipgloss.NewStyle().Foreground(ColorError)
	Warn  = lipgloss.NewStyle().Foreground(ColorWarning)

	Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1).
		Margin(0, 1)
)
