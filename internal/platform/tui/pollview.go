package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/livepoll/internal/poll"
)

// PollViewAction is the outcome of one key press on the poll view.
type PollViewAction int

const (
	PollViewActionNone PollViewAction = iota
	PollViewActionVote
	PollViewActionLeave
)

// PollViewModel renders a live poll: the hosting view after creating, and
// the voting view after joining. The tally and participant count are kept
// current by coordinator broadcasts.
type PollViewModel struct {
	code         string
	question     string
	options      []string
	tally        []int
	participants int

	isHost bool
	cursor int
	voted  bool // Local bookkeeping only; the coordinator does not enforce it
	errMsg string
}

// NewPollViewModel builds the view from a session snapshot.
func NewPollViewModel(snap poll.Snapshot, isHost bool) PollViewModel {
	return PollViewModel{
		code:         snap.Code,
		question:     snap.Question,
		options:      snap.Options,
		tally:        snap.Tally,
		participants: snap.Participants,
		isHost:       isHost,
	}
}

// Code returns the session code being viewed.
func (m PollViewModel) Code() string {
	return m.code
}

// Cursor returns the currently highlighted option index.
func (m PollViewModel) Cursor() int {
	return m.cursor
}

// SetTally replaces the displayed tally (pollUpdate broadcast).
func (m *PollViewModel) SetTally(tally []int) {
	m.tally = tally
	m.errMsg = ""
}

// SetParticipants replaces the displayed participant count.
func (m *PollViewModel) SetParticipants(count int) {
	m.participants = count
}

// SetError shows a vote rejection.
func (m *PollViewModel) SetError(msg string) {
	m.errMsg = msg
}

// Update handles one key press.
func (m *PollViewModel) Update(msg tea.KeyMsg) PollViewAction {
	switch msg.String() {
	case "esc", "q":
		return PollViewActionLeave
	case "up", "k":
		if !m.isHost && m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if !m.isHost && m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "enter", " ":
		if m.isHost || m.voted {
			return PollViewActionNone
		}
		m.voted = true
		return PollViewActionVote
	}
	return PollViewActionNone
}

// View renders the poll with live tally bars.
func (m PollViewModel) View(width int) string {
	var b strings.Builder

	if m.isHost {
		b.WriteString(titleStyle.Render("Your poll is live") + "\n")
		b.WriteString("Share this code: " + codeStyle.Render(m.code) + "\n\n")
	} else {
		b.WriteString(titleStyle.Render("Poll "+m.code) + "\n\n")
	}

	b.WriteString(questionStyle.Render(m.question) + "\n\n")

	total := 0
	for _, n := range m.tally {
		total += n
	}

	barWidth := width - 36
	if barWidth < 10 {
		barWidth = 10
	}
	if barWidth > 40 {
		barWidth = 40
	}

	for i, opt := range m.options {
		count := 0
		if i < len(m.tally) {
			count = m.tally[i]
		}

		line := fmt.Sprintf("%-20s %s %3d", truncate(opt, 20), tallyBar(count, total, barWidth), count)
		if !m.isHost && i == m.cursor {
			b.WriteString(cursorStyle.Render("> ") + selectedStyle.Render(line))
		} else {
			b.WriteString("  " + optionStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n" + countStyle.Render(fmt.Sprintf("%d participant(s) · %d vote(s)", m.participants, total)) + "\n")

	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(m.errMsg) + "\n")
	}

	switch {
	case m.isHost:
		b.WriteString(helpStyle.Render("esc: close your view (poll stays up while joined) · ctrl+c: quit"))
	case m.voted:
		b.WriteString(helpStyle.Render("vote cast · esc: leave"))
	default:
		b.WriteString(helpStyle.Render("up/down: choose · enter: vote · esc: leave"))
	}
	return b.String()
}

// truncate shortens s to at most max runes. Cutting on rune boundaries
// keeps multibyte questions and options readable.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
