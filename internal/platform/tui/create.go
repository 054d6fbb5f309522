package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// FormAction is the outcome of one key press on a form screen.
type FormAction int

const (
	FormActionNone FormAction = iota
	FormActionSubmit
	FormActionCancel
)

// CreateModel is the poll creation form: a question field and a
// comma-separated options field.
type CreateModel struct {
	question textinput.Model
	options  textinput.Model
	focused  int
	errMsg   string
}

// NewCreateModel creates an empty form with the question field focused.
func NewCreateModel() CreateModel {
	question := textinput.New()
	question.Placeholder = "Coffee or tea?"
	question.CharLimit = 200
	question.Width = 48
	question.Focus()

	options := textinput.New()
	options.Placeholder = "Coffee, Tea"
	options.CharLimit = 400
	options.Width = 48

	return CreateModel{question: question, options: options}
}

// SetError shows a validation error from the coordinator.
func (m *CreateModel) SetError(msg string) {
	m.errMsg = msg
}

// Definition returns the entered question and options.
func (m CreateModel) Definition() (string, []string) {
	raw := strings.Split(m.options.Value(), ",")
	options := make([]string, 0, len(raw))
	for _, opt := range raw {
		opt = strings.TrimSpace(opt)
		if opt != "" {
			options = append(options, opt)
		}
	}
	return strings.TrimSpace(m.question.Value()), options
}

// Update handles one key press.
func (m *CreateModel) Update(msg tea.KeyMsg) (FormAction, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return FormActionCancel, nil
	case "tab", "shift+tab":
		m.focused = 1 - m.focused
		if m.focused == 0 {
			m.question.Focus()
			m.options.Blur()
		} else {
			m.options.Focus()
			m.question.Blur()
		}
		return FormActionNone, nil
	case "enter":
		if m.focused == 0 {
			m.focused = 1
			m.options.Focus()
			m.question.Blur()
			return FormActionNone, nil
		}
		question, options := m.Definition()
		if question == "" || len(options) < 2 {
			m.errMsg = "Enter a question and at least two options"
			return FormActionNone, nil
		}
		m.errMsg = ""
		return FormActionSubmit, nil
	}

	var cmd tea.Cmd
	if m.focused == 0 {
		m.question, cmd = m.question.Update(msg)
	} else {
		m.options, cmd = m.options.Update(msg)
	}
	return FormActionNone, cmd
}

// View renders the form.
func (m CreateModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Create a poll") + "\n\n")
	b.WriteString("Question\n")
	b.WriteString(m.question.View() + "\n\n")
	b.WriteString("Options (comma separated)\n")
	b.WriteString(m.options.View() + "\n")

	if m.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(m.errMsg) + "\n")
	}

	b.WriteString(helpStyle.Render("tab: switch field · enter: create · esc: back"))
	return b.String()
}
