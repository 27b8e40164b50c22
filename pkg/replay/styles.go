package replay

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	salmonPink  = lipgloss.Color("#FFB3BA")
	coralPink   = lipgloss.Color("#FFCCCB")
	mintGreen   = lipgloss.Color("#A8E6CF")
	mutedGray   = lipgloss.Color("#6B7280")
	brightWhite = lipgloss.Color("#F9FAFB")
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(coralPink).
			Bold(true)

	thoughtStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Italic(true)

	answerStyle = lipgloss.NewStyle().
			Foreground(mintGreen)

	abortedStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	actionStyle = lipgloss.NewStyle().
			Foreground(brightWhite)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Italic(true)
)
