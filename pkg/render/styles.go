package render

import "github.com/charmbracelet/lipgloss"

var (
	colorCyan  = lipgloss.Color("36")
	colorRed   = lipgloss.Color("167")
	colorBlue  = lipgloss.Color("75")
	colorWhite = lipgloss.Color("255")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
	colorAmber = lipgloss.Color("220")
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleHeading = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	styleLabel   = lipgloss.NewStyle().Foreground(colorGray).Width(10)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleLink    = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)
	styleKeyword = lipgloss.NewStyle().Foreground(colorCyan)

	styleBarMin  = lipgloss.NewStyle().Foreground(colorCyan)
	styleBarGzip = lipgloss.NewStyle().Foreground(colorAmber)

	styleCard = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
)
