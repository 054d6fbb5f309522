// Package poll contains the live-poll domain: the session entity, vote
// application, the session registry, and join-code generation.
// It has no transport dependencies; the live coordinator drives it.
package poll

import (
	"strings"
	"sync"
	"time"
)

// Session is one live poll: a question, its options, the running tally, and
// the set of connections currently joined. Code, Question, and Options are
// immutable after creation; Tally and participants are mutated only through
// the methods below, which serialize on the session's own mutex.
type Session struct {
	Code      string
	Question  string
	Options   []string
	CreatedBy string
	CreatedAt time.Time

	mu               sync.Mutex
	tally            []int
	participants     map[string]struct{}
	peakParticipants int
}

// Snapshot is an immutable copy of a session's observable state, safe to
// hand to other goroutines and to serialize into events.
type Snapshot struct {
	Code         string
	Question     string
	Options      []string
	Tally        []int
	Participants int
	CreatedAt    time.Time
}

// newSession builds a session with a zeroed tally. Callers must have
// validated question and options already; the registry is the only caller.
func newSession(code, question string, options []string, createdBy string) *Session {
	return &Session{
		Code:         code,
		Question:     question,
		Options:      options,
		CreatedBy:    createdBy,
		CreatedAt:    time.Now(),
		tally:        make([]int, len(options)),
		participants: make(map[string]struct{}),
	}
}

// ValidateDefinition checks a create request and returns the cleaned-up
// question and options. Options are trimmed; the poll needs at least two
// non-empty options and a non-empty question.
func ValidateDefinition(question string, options []string) (string, []string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", nil, ErrInvalidPoll
	}

	cleaned := make([]string, 0, len(options))
	for _, opt := range options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			return "", nil, ErrInvalidPoll
		}
		cleaned = append(cleaned, opt)
	}
	if len(cleaned) < 2 {
		return "", nil, ErrInvalidPoll
	}

	return question, cleaned, nil
}

// Join adds a connection to the participant set.
// Returns the participant count after the join and whether the connection
// was newly added (false means it was already a participant).
func (s *Session) Join(connID string) (count int, added bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.participants[connID]; ok {
		return len(s.participants), false
	}
	s.participants[connID] = struct{}{}
	if len(s.participants) > s.peakParticipants {
		s.peakParticipants = len(s.participants)
	}
	return len(s.participants), true
}

// Leave removes a connection from the participant set.
// Returns the remaining participant count and whether the connection was
// actually a participant. Removing an absent connection is a no-op.
func (s *Session) Leave(connID string) (count int, removed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.participants[connID]; !ok {
		return len(s.participants), false
	}
	delete(s.participants, connID)
	return len(s.participants), true
}

// ApplyVote validates and applies a single vote from connID for the option
// at optionIndex. On success exactly one tally entry is incremented by
// exactly 1 and a copy of the new tally is returned. On failure the session
// is left untouched.
func (s *Session) ApplyVote(connID string, optionIndex int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.participants[connID]; !ok {
		return nil, ErrNotParticipant
	}
	if optionIndex < 0 || optionIndex >= len(s.Options) {
		return nil, ErrInvalidOption
	}

	s.tally[optionIndex]++

	tally := make([]int, len(s.tally))
	copy(tally, s.tally)
	return tally, nil
}

// Tally returns a copy of the current tally.
func (s *Session) Tally() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	tally := make([]int, len(s.tally))
	copy(tally, s.tally)
	return tally
}

// ParticipantCount returns the current number of joined connections.
func (s *Session) ParticipantCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.participants)
}

// PeakParticipants returns the highest participant count the session has
// seen. Used when archiving a finished session.
func (s *Session) PeakParticipants() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peakParticipants
}

// IsParticipant reports whether connID has joined this session.
func (s *Session) IsParticipant(connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.participants[connID]
	return ok
}

// Empty reports whether the session has no participants.
func (s *Session) Empty() bool {
	return s.ParticipantCount() == 0
}

// Snapshot returns an immutable copy of the session's observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	tally := make([]int, len(s.tally))
	copy(tally, s.tally)
	options := make([]string, len(s.Options))
	copy(options, s.Options)

	return Snapshot{
		Code:         s.Code,
		Question:     s.Question,
		Options:      options,
		Tally:        tally,
		Participants: len(s.participants),
		CreatedAt:    s.CreatedAt,
	}
}
