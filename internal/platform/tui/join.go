package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// JoinModel is the join-by-code screen.
type JoinModel struct {
	code   textinput.Model
	errMsg string
}

// NewJoinModel creates an empty code prompt.
func NewJoinModel() JoinModel {
	code := textinput.New()
	code.Placeholder = "ABC123"
	code.CharLimit = 12
	code.Width = 16
	code.Focus()

	return JoinModel{code: code}
}

// SetError shows a join failure (invalid session code).
func (m *JoinModel) SetError(msg string) {
	m.errMsg = msg
}

// Code returns the entered session code.
func (m JoinModel) Code() string {
	return strings.ToUpper(strings.TrimSpace(m.code.Value()))
}

// Update handles one key press.
func (m *JoinModel) Update(msg tea.KeyMsg) (FormAction, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return FormActionCancel, nil
	case "enter":
		if m.Code() == "" {
			m.errMsg = "Enter a session code"
			return FormActionNone, nil
		}
		m.errMsg = ""
		return FormActionSubmit, nil
	}

	var cmd tea.Cmd
	m.code, cmd = m.code.Update(msg)
	return FormActionNone, cmd
}

// View renders the prompt.
func (m JoinModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Join a poll") + "\n\n")
	b.WriteString("Session code\n")
	b.WriteString(m.code.View() + "\n")

	if m.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(m.errMsg) + "\n")
	}

	b.WriteString(helpStyle.Render("enter: join · esc: back"))
	return b.String()
}
