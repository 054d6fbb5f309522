package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// HomeChoice is the menu entry picked on the home screen.
type HomeChoice int

const (
	HomeChoiceNone HomeChoice = iota
	HomeChoiceCreate
	HomeChoiceJoin
	HomeChoiceResults
	HomeChoiceQuit
)

var homeEntries = []string{
	"Create a poll",
	"Join a poll",
	"Past polls",
	"Quit",
}

// HomeModel is the main menu.
type HomeModel struct {
	cursor int
	notice string
}

// NewHomeModel creates the home menu.
func NewHomeModel() HomeModel {
	return HomeModel{}
}

// SetNotice displays a one-line message above the menu (poll closed,
// server-side errors that arrive while idle).
func (m *HomeModel) SetNotice(notice string) {
	m.notice = notice
}

// Update handles one key press and returns the picked entry, if any.
func (m *HomeModel) Update(msg tea.KeyMsg) HomeChoice {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(homeEntries)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.notice = ""
		switch m.cursor {
		case 0:
			return HomeChoiceCreate
		case 1:
			return HomeChoiceJoin
		case 2:
			return HomeChoiceResults
		case 3:
			return HomeChoiceQuit
		}
	case "q":
		return HomeChoiceQuit
	}
	return HomeChoiceNone
}

// View renders the menu.
func (m HomeModel) View(username string) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("livepoll") + "\n")
	if username != "" {
		b.WriteString(countStyle.Render(fmt.Sprintf("connected as %s", username)) + "\n")
	}
	if m.notice != "" {
		b.WriteString(errorStyle.Render(m.notice) + "\n")
	}
	b.WriteString("\n")

	for i, entry := range homeEntries {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> ") + selectedStyle.Render(entry))
		} else {
			b.WriteString("  " + optionStyle.Render(entry))
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("up/down: move · enter: select · ctrl+c: quit"))
	return b.String()
}
