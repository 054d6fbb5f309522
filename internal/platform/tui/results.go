package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/livepoll/internal/storage"
)

const maxArchivedRows = 100

// ResultsKeyMap defines the key bindings for the results browser.
type ResultsKeyMap struct {
	Up   key.Binding
	Down key.Binding
	Back key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k ResultsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Back}
}

// FullHelp returns key bindings for the full help view.
func (k ResultsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Back}}
}

// DefaultResultsKeyMap returns default key bindings.
func DefaultResultsKeyMap() ResultsKeyMap {
	return ResultsKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b", "q"),
			key.WithHelp("esc/b", "back"),
		),
	}
}

// ResultsModel browses finished live sessions from the archive.
type ResultsModel struct {
	table   table.Model
	keys    ResultsKeyMap
	help    help.Model
	loadErr string
	empty   bool
}

// NewResultsModel loads the archive and builds the table.
func NewResultsModel(store *storage.Store, width, height int) ResultsModel {
	m := ResultsModel{
		keys: DefaultResultsKeyMap(),
		help: help.New(),
	}

	if store == nil {
		m.loadErr = "archive unavailable (no database)"
		return m
	}

	records, err := store.ArchivedSessions(maxArchivedRows)
	if err != nil {
		m.loadErr = fmt.Sprintf("could not load archive: %v", err)
		return m
	}
	if len(records) == 0 {
		m.empty = true
		return m
	}

	rows := make([]table.Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, table.Row{
			r.Code,
			truncate(r.Question, 38),
			summarizeTally(r.Options, r.Tally),
			fmt.Sprintf("%d", r.PeakParticipants),
			r.ClosedAt.Format("2006-01-02 15:04"),
		})
	}

	columns := []table.Column{
		{Title: "Code", Width: 8},
		{Title: "Question", Width: 38},
		{Title: "Winner", Width: 20},
		{Title: "Peak", Width: 5},
		{Title: "Closed", Width: 16},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(tableHeight(height, len(rows))),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(lipgloss.Color("212"))
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("228")).Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	m.table = t
	return m
}

// Resize adjusts the table to a new terminal size.
func (m *ResultsModel) Resize(width, height int) {
	m.table.SetHeight(tableHeight(height, len(m.table.Rows())))
}

// Update handles one key press; returns true when leaving the screen.
func (m *ResultsModel) Update(msg tea.KeyMsg) (back bool, cmd tea.Cmd) {
	if key.Matches(msg, m.keys.Back) {
		return true, nil
	}
	m.table, cmd = m.table.Update(msg)
	return false, cmd
}

// View renders the archive table.
func (m ResultsModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Past polls") + "\n")

	switch {
	case m.loadErr != "":
		b.WriteString(errorStyle.Render(m.loadErr) + "\n")
	case m.empty:
		b.WriteString(countStyle.Render("no finished polls yet") + "\n")
	default:
		b.WriteString(m.table.View() + "\n")
	}

	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// summarizeTally names the leading option, or "tie" when there is no single
// leader.
func summarizeTally(options []string, tally []int) string {
	if len(options) == 0 || len(tally) != len(options) {
		return "-"
	}

	best, bestCount, ties := 0, -1, 0
	for i, n := range tally {
		if n > bestCount {
			best, bestCount, ties = i, n, 1
		} else if n == bestCount {
			ties++
		}
	}
	if bestCount == 0 {
		return "no votes"
	}
	if ties > 1 {
		return "tie"
	}
	return fmt.Sprintf("%s (%d)", truncate(options[best], 14), bestCount)
}

func tableHeight(terminalHeight, rowCount int) int {
	h := terminalHeight - 6
	if h < 3 {
		h = 3
	}
	if rowCount+1 < h {
		h = rowCount + 1
	}
	return h
}
