package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/livepoll/internal/live"
	"github.com/vovakirdan/livepoll/internal/storage"
)

// SessionState is the screen the connection is currently on.
type SessionState int

const (
	StateHome    SessionState = iota // Main menu
	StateCreate                      // Poll creation form
	StateHosting                     // Watching your own poll after create
	StateJoin                        // Entering a join code
	StateVoting                      // Joined a poll, voting view
	StateResults                     // Browsing archived sessions
)

// SessionModel is the top-level Bubble Tea model for one connection. It
// routes messages to the active screen and bridges coordinator events into
// the program via the waitForEvent command.
type SessionModel struct {
	coordinator *live.Coordinator
	store       *storage.Store
	conn        *live.ChannelConn
	username    string

	state  SessionState
	width  int
	height int

	home    HomeModel
	create  CreateModel
	join    JoinModel
	view    PollViewModel
	results ResultsModel

	quitting bool
}

// NewSessionModel creates the session flow for one connection.
func NewSessionModel(
	coordinator *live.Coordinator,
	store *storage.Store,
	conn *live.ChannelConn,
	username string,
	width, height int,
) SessionModel {
	return SessionModel{
		coordinator: coordinator,
		store:       store,
		conn:        conn,
		username:    username,
		state:       StateHome,
		width:       width,
		height:      height,
		home:        NewHomeModel(),
		create:      NewCreateModel(),
		join:        NewJoinModel(),
	}
}

// Init starts listening for coordinator events.
func (m SessionModel) Init() tea.Cmd {
	return m.waitForEvent()
}

// waitForEvent returns a command that delivers the next coordinator event
// as a Bubble Tea message.
func (m SessionModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case evt, ok := <-m.conn.Events():
			if !ok {
				return nil
			}
			return evt
		case <-m.conn.Done():
			return nil
		}
	}
}

// Update handles messages for the session.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.state == StateResults {
			m.results.Resize(msg.Width, msg.Height)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case live.Event:
		return m.handleEvent(msg)
	}

	return m, nil
}

func (m SessionModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case StateHome:
		return m.updateHome(msg)
	case StateCreate:
		return m.updateCreate(msg)
	case StateJoin:
		return m.updateJoin(msg)
	case StateHosting, StateVoting:
		return m.updatePollView(msg)
	case StateResults:
		return m.updateResults(msg)
	}
	return m, nil
}

// handleEvent routes a coordinator event to the current screen and re-arms
// the event listener.
func (m SessionModel) handleEvent(evt live.Event) (tea.Model, tea.Cmd) {
	switch evt := evt.(type) {
	case live.PollCreatedEvent:
		m.view = NewPollViewModel(evt.Poll, true)
		m.state = StateHosting

	case live.PollJoinedEvent:
		m.view = NewPollViewModel(evt.Poll, false)
		m.state = StateVoting

	case live.PollUpdateEvent:
		m.view.SetTally(evt.Tally)

	case live.ParticipantJoinedEvent:
		m.view.SetParticipants(evt.Count)

	case live.ParticipantLeftEvent:
		m.view.SetParticipants(evt.Count)

	case live.SessionClosedEvent:
		if m.state == StateHosting || m.state == StateVoting {
			m.state = StateHome
			m.home.SetNotice("The poll was closed")
		}

	case live.ErrorEvent:
		switch m.state {
		case StateJoin:
			m.join.SetError(evt.Message)
		case StateCreate:
			m.create.SetError(evt.Message)
		case StateHosting, StateVoting:
			m.view.SetError(evt.Message)
		default:
			m.home.SetNotice(evt.Message)
		}
	}

	return m, m.waitForEvent()
}

func (m SessionModel) updateHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	choice := m.home.Update(msg)
	switch choice {
	case HomeChoiceCreate:
		m.create = NewCreateModel()
		m.state = StateCreate
	case HomeChoiceJoin:
		m.join = NewJoinModel()
		m.state = StateJoin
	case HomeChoiceResults:
		m.results = NewResultsModel(m.store, m.width, m.height)
		m.state = StateResults
	case HomeChoiceQuit:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m SessionModel) updateCreate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action, cmd := m.create.Update(msg)
	switch action {
	case FormActionSubmit:
		question, options := m.create.Definition()
		m.coordinator.Send(live.CreatePollMsg{
			ConnID:   m.conn.ID(),
			Question: question,
			Options:  options,
		})
	case FormActionCancel:
		m.state = StateHome
	}
	return m, cmd
}

func (m SessionModel) updateJoin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action, cmd := m.join.Update(msg)
	switch action {
	case FormActionSubmit:
		m.coordinator.Send(live.JoinPollMsg{
			ConnID: m.conn.ID(),
			Code:   m.join.Code(),
		})
	case FormActionCancel:
		m.state = StateHome
	}
	return m, cmd
}

func (m SessionModel) updatePollView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := m.view.Update(msg)
	switch action {
	case PollViewActionVote:
		m.coordinator.Send(live.SubmitVoteMsg{
			ConnID:      m.conn.ID(),
			Code:        m.view.Code(),
			OptionIndex: m.view.Cursor(),
		})
	case PollViewActionLeave:
		m.coordinator.Send(live.LeavePollMsg{
			ConnID: m.conn.ID(),
			Code:   m.view.Code(),
		})
		m.state = StateHome
	}
	return m, nil
}

func (m SessionModel) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	back, cmd := m.results.Update(msg)
	if back {
		m.state = StateHome
	}
	return m, cmd
}

// View renders the active screen.
func (m SessionModel) View() string {
	if m.quitting {
		return "Thanks for polling!\n"
	}

	switch m.state {
	case StateHome:
		return m.home.View(m.username)
	case StateCreate:
		return m.create.View()
	case StateJoin:
		return m.join.View()
	case StateHosting, StateVoting:
		return m.view.View(m.width)
	case StateResults:
		return m.results.View()
	}
	return ""
}
