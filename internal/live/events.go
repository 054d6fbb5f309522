package live

import "github.com/vovakirdan/livepoll/internal/poll"

// Event represents an event sent from the coordinator to a connection.
type Event interface {
	liveEvent()
}

// PollCreatedEvent acknowledges a successful create to the creator.
type PollCreatedEvent struct {
	Code string
	Poll poll.Snapshot
}

func (PollCreatedEvent) liveEvent() {}

// PollJoinedEvent acknowledges a successful join to the joiner.
type PollJoinedEvent struct {
	Poll poll.Snapshot
}

func (PollJoinedEvent) liveEvent() {}

// ParticipantJoinedEvent is broadcast to the room when someone joins.
type ParticipantJoinedEvent struct {
	Code  string
	Count int
}

func (ParticipantJoinedEvent) liveEvent() {}

// ParticipantLeftEvent is broadcast to the room when a participant leaves
// and the session still has members.
type ParticipantLeftEvent struct {
	Code  string
	Count int
}

func (ParticipantLeftEvent) liveEvent() {}

// PollUpdateEvent is broadcast to the room after a successful vote.
type PollUpdateEvent struct {
	Code  string
	Tally []int
}

func (PollUpdateEvent) liveEvent() {}

// SessionClosedEvent is broadcast when a session is removed while
// connections are still bound to it (administrative shutdown).
type SessionClosedEvent struct {
	Code string
}

func (SessionClosedEvent) liveEvent() {}

// ErrorEvent is delivered privately to the connection whose request failed.
type ErrorEvent struct {
	Message string
}

func (ErrorEvent) liveEvent() {}

// Message represents a request from a connection to the coordinator.
type Message interface {
	coordinatorMessage()
}

// CreatePollMsg requests creation of a new live poll session.
type CreatePollMsg struct {
	ConnID   string
	Question string
	Options  []string
}

func (CreatePollMsg) coordinatorMessage() {}

// JoinPollMsg requests joining an existing session by code.
type JoinPollMsg struct {
	ConnID string
	Code   string
}

func (JoinPollMsg) coordinatorMessage() {}

// SubmitVoteMsg submits one vote for the option at OptionIndex.
type SubmitVoteMsg struct {
	ConnID      string
	Code        string
	OptionIndex int
}

func (SubmitVoteMsg) coordinatorMessage() {}

// LeavePollMsg requests leaving one session without disconnecting.
type LeavePollMsg struct {
	ConnID string
	Code   string
}

func (LeavePollMsg) coordinatorMessage() {}

// ConnClosedMsg is sent by the transport when a connection ends. It is the
// terminal message for that connection.
type ConnClosedMsg struct {
	ConnID string
}

func (ConnClosedMsg) coordinatorMessage() {}
