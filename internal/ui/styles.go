package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent  = lipgloss.Color("#00ADD8")
	colorFocus   = lipgloss.Color("#7D56F4")
	colorSubtle  = lipgloss.Color("#626262")
	colorSurface = lipgloss.Color("#49454F")
	colorText    = lipgloss.Color("#FFFFFF")
	colorError   = lipgloss.Color("#FF5F87")
	colorOK      = lipgloss.Color("#5FD787")
	colorWarn    = lipgloss.Color("#FFAF5F")

	appStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(1, 2).
			Margin(1, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent).
			MarginBottom(1)

	tabStyle = lipgloss.NewStyle().
			Foreground(colorSubtle).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true).
			Padding(0, 1)

	badgeStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorError).
			Padding(0, 1).
			Bold(true)

	cursorStyle = lipgloss.NewStyle().Foreground(colorFocus)

	selectedStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)

	subtleStyle = lipgloss.NewStyle().Foreground(colorSubtle)

	errorStyle = lipgloss.NewStyle().Foreground(colorError)

	okStyle = lipgloss.NewStyle().Foreground(colorOK)

	warnStyle = lipgloss.NewStyle().Foreground(colorWarn)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorSubtle).
			MarginTop(1)

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSurface).
			Padding(0, 1)

	focusedInputStyle = inputStyle.BorderForeground(colorAccent)
)
