package tui

import "github.com/charmbracelet/lipgloss"

// Shared lipgloss styles for the livepoll TUI.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginBottom(1)

	codeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("228")).
			Background(lipgloss.Color("57")).
			Padding(0, 2)

	questionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255"))

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212"))

	optionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("48"))

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("203"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)
)

// tallyBar renders a proportional bar for one option's vote count.
func tallyBar(count, total, width int) string {
	if width < 1 {
		width = 1
	}
	filled := 0
	if total > 0 {
		filled = count * width / total
	}
	if count > 0 && filled == 0 {
		filled = 1
	}

	bar := make([]rune, 0, width)
	for i := 0; i < width; i++ {
		if i < filled {
			bar = append(bar, '█')
		} else {
			bar = append(bar, '░')
		}
	}
	return barStyle.Render(string(bar))
}
