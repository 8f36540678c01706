// Package cli provides styled terminal output for the spice command using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/spice-statements/internal/model"
)

// Palette.
var (
	PrimaryColor = lipgloss.Color("#FF6B6B") // spicy red
	SuccessColor = lipgloss.Color("#4ECDC4")
	WarningColor = lipgloss.Color("#FFE66D")
	ErrorColor   = lipgloss.Color("#FF6B6B")
	InfoColor    = lipgloss.Color("#95E1D3")
	SubtleColor  = lipgloss.Color("#666666")
	BorderColor  = lipgloss.Color("#333333")
)

// Text styles.
var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor).MarginBottom(1)
	SuccessStyle = foreground(SuccessColor)
	WarningStyle = foreground(WarningColor)
	ErrorStyle   = foreground(ErrorColor)
	InfoStyle    = foreground(InfoColor)
	SubtleStyle  = foreground(SubtleColor)
	BoldStyle    = lipgloss.NewStyle().Bold(true)
)

// Layout styles.
var (
	BoxStyle         = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(BorderColor).Padding(1, 2)
	TableHeaderStyle = lipgloss.NewStyle().Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(BorderColor)
	TableCellStyle   = lipgloss.NewStyle().PaddingRight(2)
)

func foreground(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	SpiceIcon   = "🌶️"
	RobotIcon   = "🤖"
	ChartIcon   = "📊"
	BookIcon    = "📒"
)

func withIcon(style lipgloss.Style, icon, message string) string {
	return style.Render(icon + " " + message)
}

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string { return withIcon(SuccessStyle, SuccessIcon, message) }

// FormatError formats an error message with icon.
func FormatError(message string) string { return withIcon(ErrorStyle, ErrorIcon, message) }

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string { return withIcon(WarningStyle, WarningIcon, message) }

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string { return withIcon(InfoStyle, InfoIcon, message) }

// FormatTitle formats a title with the spice icon.
func FormatTitle(title string) string { return withIcon(TitleStyle, SpiceIcon, title) }

// StatusStyle picks the color used for a classification status.
func StatusStyle(status model.ClassificationStatus) lipgloss.Style {
	switch status {
	case model.StatusLocalMatch, model.StatusUserAssigned:
		return SuccessStyle
	case model.StatusAIMatched:
		return InfoStyle
	case model.StatusStillOther, model.StatusNeedsAI:
		return WarningStyle
	default:
		return SubtleStyle
	}
}

// RenderBox renders content under a title inside a rounded border.
func RenderBox(title, content string) string {
	heading := TitleStyle.UnsetMargins().Render(title)
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, heading, content))
}
