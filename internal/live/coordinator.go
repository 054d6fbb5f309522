package live

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/livepoll/internal/poll"
)

// CoordinatorConfig holds configuration for the coordinator.
type CoordinatorConfig struct {
	MessageBuffer int // Capacity of the inbound message channel
}

// DefaultCoordinatorConfig returns sensible defaults.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		MessageBuffer: 256,
	}
}

// SessionArchive is the final snapshot of a destroyed session, handed to the
// archiver for persistence.
type SessionArchive struct {
	Code             string
	Question         string
	Options          []string
	Tally            []int
	PeakParticipants int
	CreatedAt        time.Time
	ClosedAt         time.Time
}

// SessionArchiver persists finished sessions. This keeps the coordinator
// free of any storage dependency; the SQLite store implements it.
type SessionArchiver interface {
	ArchiveSession(a SessionArchive) error
}

// Coordinator is the only component with authority to mutate session state.
// Inbound messages are processed one at a time by a single goroutine, which
// serializes all transitions; messages from one connection are handled in
// the order they were sent, so a disconnect is always processed after any
// vote the same connection managed to submit first.
//
// The creator of a session is bound to its room (it sees broadcasts) but is
// not a participant and cannot vote without joining. A session is destroyed
// when its last room member unbinds and no participants remain, which
// covers both the last voter leaving and a creator abandoning a session
// nobody ever joined.
type Coordinator struct {
	config   CoordinatorConfig
	registry *poll.Registry
	conns    *ConnRegistry
	index    *ConnIndex
	rooms    *Broadcaster
	archiver SessionArchiver // Optional, can be nil
	logger   *log.Logger

	msgChan   chan Message
	done      chan struct{}
	stopOnce  sync.Once
	archiveWG sync.WaitGroup
}

// NewCoordinator creates a coordinator over the given session registry.
// A nil logger falls back to the default charmbracelet logger.
func NewCoordinator(cfg CoordinatorConfig, registry *poll.Registry, logger *log.Logger) *Coordinator {
	if cfg.MessageBuffer < 1 {
		cfg.MessageBuffer = DefaultCoordinatorConfig().MessageBuffer
	}
	if logger == nil {
		logger = log.Default()
	}
	conns := NewConnRegistry()
	index := NewConnIndex()
	return &Coordinator{
		config:   cfg,
		registry: registry,
		conns:    conns,
		index:    index,
		rooms:    NewBroadcaster(conns, index),
		logger:   logger,
		msgChan:  make(chan Message, cfg.MessageBuffer),
		done:     make(chan struct{}),
	}
}

// SetArchiver sets the optional archiver for finished sessions.
func (c *Coordinator) SetArchiver(a SessionArchiver) {
	c.archiver = a
}

// Start begins the coordinator's background processing.
func (c *Coordinator) Start() {
	go c.processMessages()
}

// Stop shuts down the coordinator. Safe to call more than once.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
	})
}

// Attach registers a connection with the coordinator. The transport must
// send ConnClosedMsg when the connection ends.
func (c *Coordinator) Attach(conn ConnHandle) {
	c.conns.Register(conn)
}

// Send submits a message for async processing.
func (c *Coordinator) Send(msg Message) {
	select {
	case c.msgChan <- msg:
	case <-c.done:
	}
}

func (c *Coordinator) processMessages() {
	for {
		select {
		case msg := <-c.msgChan:
			c.handleMessage(msg)
		case <-c.done:
			return
		}
	}
}

func (c *Coordinator) handleMessage(msg Message) {
	switch m := msg.(type) {
	case CreatePollMsg:
		c.handleCreatePoll(m)
	case JoinPollMsg:
		c.handleJoinPoll(m)
	case SubmitVoteMsg:
		c.handleSubmitVote(m)
	case LeavePollMsg:
		c.handleLeavePoll(m)
	case ConnClosedMsg:
		c.handleConnClosed(m)
	}
}

func (c *Coordinator) handleCreatePoll(msg CreatePollMsg) {
	conn, ok := c.conns.Get(msg.ConnID)
	if !ok {
		return
	}

	session, err := c.registry.Create(msg.Question, msg.Options, msg.ConnID)
	switch {
	case errors.Is(err, poll.ErrInvalidPoll):
		conn.Send(ErrorEvent{Message: "A poll needs a question and at least two options"})
		return
	case errors.Is(err, poll.ErrCodeSpaceExhausted):
		c.logger.Error("session code space exhausted", "conn", msg.ConnID)
		conn.Send(ErrorEvent{Message: "Could not allocate a session code"})
		return
	case err != nil:
		c.logger.Error("create poll failed", "conn", msg.ConnID, "error", err)
		conn.Send(ErrorEvent{Message: "Could not create poll"})
		return
	}

	// The creator hears broadcasts for its session but is not a
	// participant until it joins like everyone else.
	c.index.Bind(msg.ConnID, session.Code)

	c.logger.Info("session created", "code", session.Code, "conn", msg.ConnID)
	conn.Send(PollCreatedEvent{Code: session.Code, Poll: session.Snapshot()})
}

func (c *Coordinator) handleJoinPoll(msg JoinPollMsg) {
	conn, ok := c.conns.Get(msg.ConnID)
	if !ok {
		return
	}

	code := strings.ToUpper(strings.TrimSpace(msg.Code))
	session, err := c.registry.Resolve(code)
	if errors.Is(err, poll.ErrSessionNotFound) {
		conn.Send(ErrorEvent{Message: "Invalid session code"})
		return
	}

	c.index.Bind(msg.ConnID, code)
	count, added := session.Join(msg.ConnID)

	conn.Send(PollJoinedEvent{Poll: session.Snapshot()})
	if added {
		c.logger.Info("participant joined", "code", code, "conn", msg.ConnID, "count", count)
		c.rooms.Publish(code, ParticipantJoinedEvent{Code: code, Count: count})
	}
}

func (c *Coordinator) handleSubmitVote(msg SubmitVoteMsg) {
	session, err := c.registry.Resolve(msg.Code)
	if errors.Is(err, poll.ErrSessionNotFound) {
		// Unknown code: no broadcast, no mutation. Tell the voter
		// privately instead of swallowing the outcome.
		c.sendError(msg.ConnID, "Invalid session code")
		return
	}

	tally, err := session.ApplyVote(msg.ConnID, msg.OptionIndex)
	switch {
	case errors.Is(err, poll.ErrNotParticipant):
		c.sendError(msg.ConnID, "Join the poll before voting")
		return
	case errors.Is(err, poll.ErrInvalidOption):
		c.sendError(msg.ConnID, "No such option")
		return
	case err != nil:
		c.logger.Error("vote failed", "code", msg.Code, "conn", msg.ConnID, "error", err)
		return
	}

	c.rooms.Publish(msg.Code, PollUpdateEvent{Code: msg.Code, Tally: tally})
}

func (c *Coordinator) sendError(connID, message string) {
	if conn, ok := c.conns.Get(connID); ok {
		conn.Send(ErrorEvent{Message: message})
	}
}

func (c *Coordinator) handleLeavePoll(msg LeavePollMsg) {
	c.leaveSession(msg.ConnID, msg.Code)
}

func (c *Coordinator) handleConnClosed(msg ConnClosedMsg) {
	for _, code := range c.index.SessionsFor(msg.ConnID) {
		c.leaveSession(msg.ConnID, code)
	}
	c.conns.Unregister(msg.ConnID)
}

// leaveSession unbinds one connection from one session and broadcasts the
// departure if a participant actually left. The session is destroyed when
// its participant set transitions to empty following a leave, and also when
// a creator abandons a session nobody ever joined.
func (c *Coordinator) leaveSession(connID, code string) {
	session, ok := c.registry.Get(code)
	if !ok {
		c.index.Unbind(connID, code)
		return
	}

	c.index.Unbind(connID, code)
	count, removed := session.Leave(connID)

	if removed && count > 0 {
		c.rooms.Publish(code, ParticipantLeftEvent{Code: code, Count: count})
		return
	}

	// Destroy when the last participant left, or when the room itself is
	// gone (creator abandoning a never-joined session).
	if count == 0 && (removed || len(c.index.Members(code)) == 0) {
		c.destroyEmpty(code)
	}
}

// destroyEmpty removes an empty session from the registry, detaching and
// notifying anyone still bound to its room (the creator, typically).
func (c *Coordinator) destroyEmpty(code string) {
	destroyed := c.registry.RemoveIfEmpty(code)
	if destroyed == nil {
		return
	}

	c.rooms.Publish(code, SessionClosedEvent{Code: code})
	for _, connID := range c.index.Members(code) {
		c.index.Unbind(connID, code)
	}

	c.logger.Info("session destroyed", "code", code)
	c.archive(destroyed)
}

// CloseSession removes a session unconditionally, notifying and unbinding
// any remaining room members. Administrative path; normal teardown happens
// through leaveSession.
func (c *Coordinator) CloseSession(code string) {
	session, ok := c.registry.Get(code)
	if !ok {
		return
	}

	c.rooms.Publish(code, SessionClosedEvent{Code: code})
	for _, connID := range c.index.Members(code) {
		c.index.Unbind(connID, code)
		session.Leave(connID)
	}
	c.registry.Delete(code)
	c.logger.Info("session closed", "code", code)
	c.archive(session)
}

// CloseAll closes every live session. Used on server shutdown, after the
// message loop has been stopped.
func (c *Coordinator) CloseAll() {
	for _, code := range c.registry.Codes() {
		c.CloseSession(code)
	}
}

func (c *Coordinator) archive(session *poll.Session) {
	if c.archiver == nil {
		return
	}

	snap := session.Snapshot()
	archive := SessionArchive{
		Code:             snap.Code,
		Question:         snap.Question,
		Options:          snap.Options,
		Tally:            snap.Tally,
		PeakParticipants: session.PeakParticipants(),
		CreatedAt:        snap.CreatedAt,
		ClosedAt:         time.Now(),
	}

	// Best effort save, don't block the message loop on storage. The
	// WaitGroup lets shutdown wait for in-flight writes before the store
	// closes.
	c.archiveWG.Add(1)
	go func() {
		defer c.archiveWG.Done()
		if err := c.archiver.ArchiveSession(archive); err != nil {
			c.logger.Warn("could not archive session", "code", archive.Code, "error", err)
		}
	}()
}

// WaitArchives blocks until every in-flight archive write has finished.
// Shutdown calls this after CloseAll and before closing the store, so no
// final tally is lost.
func (c *Coordinator) WaitArchives() {
	c.archiveWG.Wait()
}

// Registry exposes the session registry for read-side consumers (tests,
// the TUI results view).
func (c *Coordinator) Registry() *poll.Registry {
	return c.registry
}

// Conns exposes the connection registry for the transport layer.
func (c *Coordinator) Conns() *ConnRegistry {
	return c.conns
}

// Index exposes the connection index (tests only).
func (c *Coordinator) Index() *ConnIndex {
	return c.index
}
