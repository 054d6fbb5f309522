package poll

import (
	"errors"
	"testing"
)

func TestValidateDefinition(t *testing.T) {
	question, options, err := ValidateDefinition("  Coffee or tea?  ", []string{" Coffee ", "Tea "})
	if err != nil {
		t.Fatalf("ValidateDefinition() failed: %v", err)
	}
	if question != "Coffee or tea?" {
		t.Errorf("Expected trimmed question, got %q", question)
	}
	if options[0] != "Coffee" || options[1] != "Tea" {
		t.Errorf("Expected trimmed options, got %v", options)
	}
}

func TestValidateDefinitionRejects(t *testing.T) {
	cases := []struct {
		name     string
		question string
		options  []string
	}{
		{"empty question", "   ", []string{"A", "B"}},
		{"one option", "Pick one", []string{"A"}},
		{"blank option", "Pick one", []string{"A", "B", "  "}},
		{"no options", "Pick one", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ValidateDefinition(tc.question, tc.options)
			if !errors.Is(err, ErrInvalidPoll) {
				t.Errorf("Expected ErrInvalidPoll, got %v", err)
			}
		})
	}
}

func TestSessionJoinLeave(t *testing.T) {
	s := newSession("AAAAAA", "Pick one", []string{"A", "B"}, "creator")

	count, added := s.Join("conn-1")
	if !added || count != 1 {
		t.Fatalf("Join() = (%d, %v), want (1, true)", count, added)
	}

	// Joining again is idempotent
	count, added = s.Join("conn-1")
	if added || count != 1 {
		t.Errorf("Second Join() = (%d, %v), want (1, false)", count, added)
	}

	count, added = s.Join("conn-2")
	if !added || count != 2 {
		t.Errorf("Join() = (%d, %v), want (2, true)", count, added)
	}
	if s.PeakParticipants() != 2 {
		t.Errorf("PeakParticipants() = %d, want 2", s.PeakParticipants())
	}

	count, removed := s.Leave("conn-1")
	if !removed || count != 1 {
		t.Errorf("Leave() = (%d, %v), want (1, true)", count, removed)
	}

	// Leaving twice is a no-op
	count, removed = s.Leave("conn-1")
	if removed || count != 1 {
		t.Errorf("Second Leave() = (%d, %v), want (1, false)", count, removed)
	}

	s.Leave("conn-2")
	if !s.Empty() {
		t.Error("Session should be empty after everyone left")
	}
	// Peak survives the departures
	if s.PeakParticipants() != 2 {
		t.Errorf("PeakParticipants() = %d after leaves, want 2", s.PeakParticipants())
	}
}

func TestApplyVote(t *testing.T) {
	s := newSession("AAAAAA", "Pick one", []string{"A", "B", "C"}, "creator")
	s.Join("conn-1")

	tally, err := s.ApplyVote("conn-1", 1)
	if err != nil {
		t.Fatalf("ApplyVote() failed: %v", err)
	}
	want := []int{0, 1, 0}
	for i := range want {
		if tally[i] != want[i] {
			t.Fatalf("Tally = %v, want %v", tally, want)
		}
	}

	// A second vote from the same participant counts again
	tally, err = s.ApplyVote("conn-1", 1)
	if err != nil {
		t.Fatalf("ApplyVote() failed: %v", err)
	}
	if tally[1] != 2 {
		t.Errorf("Tally[1] = %d, want 2", tally[1])
	}

	// Returned tally is a copy
	tally[0] = 99
	if s.Tally()[0] != 0 {
		t.Error("Mutating the returned tally changed session state")
	}
}

func TestApplyVoteRejections(t *testing.T) {
	s := newSession("AAAAAA", "Pick one", []string{"A", "B"}, "creator")
	s.Join("conn-1")

	if _, err := s.ApplyVote("stranger", 0); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("Expected ErrNotParticipant, got %v", err)
	}
	if _, err := s.ApplyVote("conn-1", -1); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("Expected ErrInvalidOption for -1, got %v", err)
	}
	if _, err := s.ApplyVote("conn-1", 2); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("Expected ErrInvalidOption for out of range, got %v", err)
	}

	// No rejection may leave a mark on the tally
	for _, n := range s.Tally() {
		if n != 0 {
			t.Fatalf("Tally mutated by rejected votes: %v", s.Tally())
		}
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := newSession("AAAAAA", "Pick one", []string{"A", "B"}, "creator")
	s.Join("conn-1")
	s.ApplyVote("conn-1", 0)

	snap := s.Snapshot()
	if snap.Code != "AAAAAA" || snap.Question != "Pick one" {
		t.Errorf("Unexpected snapshot header: %+v", snap)
	}
	if snap.Participants != 1 || snap.Tally[0] != 1 {
		t.Errorf("Unexpected snapshot state: %+v", snap)
	}

	snap.Options[0] = "mutated"
	snap.Tally[0] = 99
	if s.Snapshot().Options[0] != "A" || s.Snapshot().Tally[0] != 1 {
		t.Error("Snapshot shares memory with the session")
	}
}
