package console

import "github.com/charmbracelet/lipgloss"

var (
	colorGreen = lipgloss.Color("#22c55e")
	colorBlue  = lipgloss.Color("#3b82f6")
	colorDim   = lipgloss.Color("#6b7280")
	colorWhite = lipgloss.Color("#f9fafb")

	botLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	youLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorGreen)

	buttonStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Background(colorDim).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			MarginTop(1)
)
