package live

import (
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/livepoll/internal/poll"
)

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	registry := poll.NewRegistry(poll.NewCodeGenerator(poll.DefaultCodeLength, poll.DefaultCodeRetries))
	logger := log.New(io.Discard)
	c := NewCoordinator(DefaultCoordinatorConfig(), registry, logger)
	c.Start()
	t.Cleanup(c.Stop)
	return c
}

func attachConn(c *Coordinator, id string) *ChannelConn {
	conn := NewChannelConn(id, 64)
	c.Attach(conn)
	return conn
}

// nextEvent waits for the next event on conn or fails the test.
func nextEvent(t *testing.T, conn *ChannelConn) Event {
	t.Helper()
	select {
	case evt := <-conn.Events():
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for an event")
		return nil
	}
}

// expectNoEvent asserts that conn stays quiet for a short window.
func expectNoEvent(t *testing.T, conn *ChannelConn) {
	t.Helper()
	select {
	case evt := <-conn.Events():
		t.Fatalf("Expected no event, got %T: %+v", evt, evt)
	case <-time.After(100 * time.Millisecond):
	}
}

// createSession drives a CreatePollMsg through the coordinator and returns
// the new session code.
func createSession(t *testing.T, c *Coordinator, creator *ChannelConn, question string, options []string) string {
	t.Helper()
	c.Send(CreatePollMsg{ConnID: creator.ID(), Question: question, Options: options})
	evt := nextEvent(t, creator)
	created, ok := evt.(PollCreatedEvent)
	if !ok {
		t.Fatalf("Expected PollCreatedEvent, got %T: %+v", evt, evt)
	}
	return created.Code
}

func TestCreatePoll(t *testing.T) {
	c := newTestCoordinator(t)
	creator := attachConn(c, "creator")

	c.Send(CreatePollMsg{ConnID: "creator", Question: "Coffee or tea?", Options: []string{"Coffee", "Tea"}})

	evt := nextEvent(t, creator)
	created, ok := evt.(PollCreatedEvent)
	if !ok {
		t.Fatalf("Expected PollCreatedEvent, got %T", evt)
	}
	if created.Poll.Question != "Coffee or tea?" {
		t.Errorf("Unexpected question: %q", created.Poll.Question)
	}
	if created.Poll.Participants != 0 {
		t.Errorf("A fresh session should have no participants, got %d", created.Poll.Participants)
	}

	// The creator hears the session's broadcasts but is not a participant
	if !c.Index().IsBound("creator", created.Code) {
		t.Error("Creator should be bound to the session room")
	}
	session, _ := c.Registry().Get(created.Code)
	if session.IsParticipant("creator") {
		t.Error("Creator should not be a participant")
	}
}

func TestCreatePollInvalid(t *testing.T) {
	c := newTestCoordinator(t)
	creator := attachConn(c, "creator")

	c.Send(CreatePollMsg{ConnID: "creator", Question: "", Options: []string{"A", "B"}})

	evt := nextEvent(t, creator)
	if _, ok := evt.(ErrorEvent); !ok {
		t.Fatalf("Expected ErrorEvent, got %T", evt)
	}
	if c.Registry().Count() != 0 {
		t.Error("Rejected create must not leave a session behind")
	}
}

func TestJoinAndVoteFlow(t *testing.T) {
	c := newTestCoordinator(t)
	creator := attachConn(c, "creator")
	voter := attachConn(c, "voter")

	code := createSession(t, c, creator, "Pick one", []string{"A", "B"})

	c.Send(JoinPollMsg{ConnID: "voter", Code: code})

	evt := nextEvent(t, voter)
	joined, ok := evt.(PollJoinedEvent)
	if !ok {
		t.Fatalf("Expected PollJoinedEvent, got %T", evt)
	}
	if joined.Poll.Code != code {
		t.Errorf("Joined wrong session: %q", joined.Poll.Code)
	}

	// Both room members see the participant count change
	for _, conn := range []*ChannelConn{creator, voter} {
		evt := nextEvent(t, conn)
		pj, ok := evt.(ParticipantJoinedEvent)
		if !ok {
			t.Fatalf("Expected ParticipantJoinedEvent on %s, got %T", conn.ID(), evt)
		}
		if pj.Count != 1 {
			t.Errorf("Count = %d, want 1", pj.Count)
		}
	}

	c.Send(SubmitVoteMsg{ConnID: "voter", Code: code, OptionIndex: 1})

	for _, conn := range []*ChannelConn{creator, voter} {
		evt := nextEvent(t, conn)
		update, ok := evt.(PollUpdateEvent)
		if !ok {
			t.Fatalf("Expected PollUpdateEvent on %s, got %T", conn.ID(), evt)
		}
		if update.Tally[0] != 0 || update.Tally[1] != 1 {
			t.Errorf("Tally = %v, want [0 1]", update.Tally)
		}
	}
}

func TestJoinCodeNormalization(t *testing.T) {
	c := newTestCoordinator(t)
	creator := attachConn(c, "creator")
	voter := attachConn(c, "voter")

	code := createSession(t, c, creator, "Pick one", []string{"A", "B"})

	// Lowercase with whitespace still resolves
	lower := "  " + code + " "
	c.Send(JoinPollMsg{ConnID: "voter", Code: lower})
	evt := nextEvent(t, voter)
	if _, ok := evt.(PollJoinedEvent); !ok {
		t.Fatalf("Expected PollJoinedEvent for normalized code, got %T: %+v", evt, evt)
	}
}

func TestJoinUnknownCode(t *testing.T) {
	c := newTestCoordinator(t)
	voter := attachConn(c, "voter")

	c.Send(JoinPollMsg{ConnID: "voter", Code: "NOSUCH"})

	evt := nextEvent(t, voter)
	errEvt, ok := evt.(ErrorEvent)
	if !ok {
		t.Fatalf("Expected ErrorEvent, got %T", evt)
	}
	if errEvt.Message == "" {
		t.Error("Error event should carry a message")
	}
}

func TestVoteRejections(t *testing.T) {
	c := newTestCoordinator(t)
	creator := attachConn(c, "creator")
	voter := attachConn(c, "voter")
	stranger := attachConn(c, "stranger")

	code := createSession(t, c, creator, "Pick one", []string{"A", "B"})
	c.Send(JoinPollMsg{ConnID: "voter", Code: code})
	nextEvent(t, voter)   // PollJoinedEvent
	nextEvent(t, voter)   // ParticipantJoinedEvent
	nextEvent(t, creator) // ParticipantJoinedEvent

	// Not a participant: private error, no broadcast
	c.Send(SubmitVoteMsg{ConnID: "stranger", Code: code, OptionIndex: 0})
	if _, ok := nextEvent(t, stranger).(ErrorEvent); !ok {
		t.Fatal("Expected ErrorEvent for non-participant vote")
	}
	expectNoEvent(t, creator)
	expectNoEvent(t, voter)

	// Out-of-range option: same treatment
	c.Send(SubmitVoteMsg{ConnID: "voter", Code: code, OptionIndex: 5})
	if _, ok := nextEvent(t, voter).(ErrorEvent); !ok {
		t.Fatal("Expected ErrorEvent for out-of-range option")
	}
	expectNoEvent(t, creator)

	// Unknown session code
	c.Send(SubmitVoteMsg{ConnID: "voter", Code: "NOSUCH", OptionIndex: 0})
	if _, ok := nextEvent(t, voter).(ErrorEvent); !ok {
		t.Fatal("Expected ErrorEvent for unknown code")
	}

	// None of this touched the tally
	session, _ := c.Registry().Get(code)
	for _, n := range session.Tally() {
		if n != 0 {
			t.Fatalf("Tally mutated by rejected votes: %v", session.Tally())
		}
	}
}

func TestDisconnectBroadcastsDeparture(t *testing.T) {
	c := newTestCoordinator(t)
	creator := attachConn(c, "creator")
	v1 := attachConn(c, "v1")
	v2 := attachConn(c, "v2")

	code := createSession(t, c, creator, "Pick one", []string{"A", "B"})
	c.Send(JoinPollMsg{ConnID: "v1", Code: code})
	c.Send(JoinPollMsg{ConnID: "v2", Code: code})

	nextEvent(t, v1) // PollJoinedEvent
	nextEvent(t, v1) // ParticipantJoined (v1)
	nextEvent(t, v1) // ParticipantJoined (v2)
	nextEvent(t, v2) // PollJoinedEvent
	nextEvent(t, v2) // ParticipantJoined (v2)
	nextEvent(t, creator)
	nextEvent(t, creator)

	c.Send(ConnClosedMsg{ConnID: "v1"})

	for _, conn := range []*ChannelConn{creator, v2} {
		evt := nextEvent(t, conn)
		left, ok := evt.(ParticipantLeftEvent)
		if !ok {
			t.Fatalf("Expected ParticipantLeftEvent on %s, got %T: %+v", conn.ID(), evt, evt)
		}
		if left.Count != 1 {
			t.Errorf("Count = %d, want 1", left.Count)
		}
	}

	if c.Index().IsBound("v1", code) {
		t.Error("Disconnected connection still bound")
	}
	if _, ok := c.Conns().Get("v1"); ok {
		t.Error("Disconnected connection still registered")
	}
}

func TestLastParticipantDestroysSession(t *testing.T) {
	c := newTestCoordinator(t)
	creator := attachConn(c, "creator")
	voter := attachConn(c, "voter")

	code := createSession(t, c, creator, "Pick one", []string{"A", "B"})
	c.Send(JoinPollMsg{ConnID: "voter", Code: code})
	nextEvent(t, voter)
	nextEvent(t, voter)
	nextEvent(t, creator)

	c.Send(ConnClosedMsg{ConnID: "voter"})

	// The creator, still watching, is told the session is gone
	evt := nextEvent(t, creator)
	closed, ok := evt.(SessionClosedEvent)
	if !ok {
		t.Fatalf("Expected SessionClosedEvent, got %T: %+v", evt, evt)
	}
	if closed.Code != code {
		t.Errorf("Closed code = %q, want %q", closed.Code, code)
	}
	if _, ok := c.Registry().Get(code); ok {
		t.Error("Destroyed session still in registry")
	}
	if c.Index().IsBound("creator", code) {
		t.Error("Creator still bound to a destroyed session")
	}
}

func TestCreatorAbandonsEmptySession(t *testing.T) {
	c := newTestCoordinator(t)
	creator := attachConn(c, "creator")

	code := createSession(t, c, creator, "Pick one", []string{"A", "B"})

	c.Send(ConnClosedMsg{ConnID: "creator"})

	deadline := time.After(2 * time.Second)
	for {
		if _, ok := c.Registry().Get(code); !ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Session with no participants outlived its creator")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestVoteThenDisconnectOrdering(t *testing.T) {
	c := newTestCoordinator(t)
	creator := attachConn(c, "creator")
	voter := attachConn(c, "voter")

	code := createSession(t, c, creator, "Pick one", []string{"A", "B"})
	c.Send(JoinPollMsg{ConnID: "voter", Code: code})
	nextEvent(t, voter)
	nextEvent(t, voter)
	nextEvent(t, creator)

	// The vote is sent before the disconnect, so it must land first
	c.Send(SubmitVoteMsg{ConnID: "voter", Code: code, OptionIndex: 0})
	c.Send(ConnClosedMsg{ConnID: "voter"})

	evt := nextEvent(t, creator)
	update, ok := evt.(PollUpdateEvent)
	if !ok {
		t.Fatalf("Expected PollUpdateEvent before teardown, got %T: %+v", evt, evt)
	}
	if update.Tally[0] != 1 {
		t.Errorf("Tally = %v, want the vote counted", update.Tally)
	}
	if _, ok := nextEvent(t, creator).(SessionClosedEvent); !ok {
		t.Fatal("Expected SessionClosedEvent after the last voter left")
	}
}

func TestConcurrentVotes(t *testing.T) {
	c := newTestCoordinator(t)
	creator := attachConn(c, "creator")

	code := createSession(t, c, creator, "Pick one", []string{"A", "B", "C"})

	const voters = 20
	const votesEach = 5

	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		connID := fmt.Sprintf("voter-%d", i)
		conn := attachConn(c, connID)
		c.Send(JoinPollMsg{ConnID: connID, Code: code})
		if _, ok := nextEvent(t, conn).(PollJoinedEvent); !ok {
			t.Fatalf("Join failed for %s", connID)
		}

		wg.Add(1)
		go func(id string, option int) {
			defer wg.Done()
			for v := 0; v < votesEach; v++ {
				c.Send(SubmitVoteMsg{ConnID: id, Code: code, OptionIndex: option})
			}
		}(connID, i%3)
	}
	wg.Wait()

	// Wait for the message loop to drain, then check the sum
	session, _ := c.Registry().Get(code)
	deadline := time.After(2 * time.Second)
	for {
		total := 0
		for _, n := range session.Tally() {
			total += n
		}
		if total == voters*votesEach {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("Tally total = %d, want %d", total, voters*votesEach)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

type captureArchiver struct {
	got chan SessionArchive
}

func (a *captureArchiver) ArchiveSession(arch SessionArchive) error {
	a.got <- arch
	return nil
}

func TestDestroyedSessionIsArchived(t *testing.T) {
	c := newTestCoordinator(t)
	archiver := &captureArchiver{got: make(chan SessionArchive, 1)}
	c.SetArchiver(archiver)

	creator := attachConn(c, "creator")
	voter := attachConn(c, "voter")

	code := createSession(t, c, creator, "Pick one", []string{"A", "B"})
	c.Send(JoinPollMsg{ConnID: "voter", Code: code})
	nextEvent(t, voter)
	c.Send(SubmitVoteMsg{ConnID: "voter", Code: code, OptionIndex: 1})
	c.Send(ConnClosedMsg{ConnID: "voter"})

	select {
	case arch := <-archiver.got:
		if arch.Code != code {
			t.Errorf("Archived code = %q, want %q", arch.Code, code)
		}
		if arch.Tally[1] != 1 {
			t.Errorf("Archived tally = %v, want the vote preserved", arch.Tally)
		}
		if arch.PeakParticipants != 1 {
			t.Errorf("PeakParticipants = %d, want 1", arch.PeakParticipants)
		}
		if arch.ClosedAt.Before(arch.CreatedAt) {
			t.Error("ClosedAt precedes CreatedAt")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Session was never archived")
	}
}

type slowArchiver struct {
	delay time.Duration
	mu    sync.Mutex
	saved []SessionArchive
}

func (a *slowArchiver) ArchiveSession(arch SessionArchive) error {
	time.Sleep(a.delay)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saved = append(a.saved, arch)
	return nil
}

func (a *slowArchiver) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.saved)
}

func TestWaitArchivesBlocksUntilWritesLand(t *testing.T) {
	c := newTestCoordinator(t)
	archiver := &slowArchiver{delay: 100 * time.Millisecond}
	c.SetArchiver(archiver)

	creator := attachConn(c, "creator")
	createSession(t, c, creator, "Pick one", []string{"A", "B"})
	createSession(t, c, creator, "Pick two", []string{"C", "D"})

	c.Stop()
	c.CloseAll()
	c.WaitArchives()
	if got := archiver.count(); got != 2 {
		t.Fatalf("Expected 2 archived sessions after WaitArchives, got %d", got)
	}
}

func TestCloseSession(t *testing.T) {
	c := newTestCoordinator(t)
	creator := attachConn(c, "creator")
	voter := attachConn(c, "voter")

	code := createSession(t, c, creator, "Pick one", []string{"A", "B"})
	c.Send(JoinPollMsg{ConnID: "voter", Code: code})
	nextEvent(t, voter)
	nextEvent(t, voter)
	nextEvent(t, creator)

	c.CloseSession(code)

	for _, conn := range []*ChannelConn{creator, voter} {
		if _, ok := nextEvent(t, conn).(SessionClosedEvent); !ok {
			t.Fatalf("Expected SessionClosedEvent on %s", conn.ID())
		}
	}
	if _, ok := c.Registry().Get(code); ok {
		t.Error("Closed session still in registry")
	}
	if c.Index().IsBound("voter", code) || c.Index().IsBound("creator", code) {
		t.Error("Members still bound after CloseSession")
	}
}
