// Package live is the real-time session coordinator: it tracks which
// connections have joined which poll sessions, applies votes, and fans state
// changes out to every member of the affected session. Transports (the SSH
// TUI, tests) talk to it through ConnHandle and coordinator messages only.
package live

import "sync"

// ConnHandle is the transport-neutral interface for one client connection.
// It lets the coordinator deliver events without depending on Wish or
// Bubble Tea.
type ConnHandle interface {
	// ID returns the unique connection identifier.
	ID() string

	// Send delivers an event to the connection asynchronously.
	// Must be non-blocking; implementations should use buffered channels.
	Send(evt Event)

	// Done returns a channel that closes when the connection ends.
	Done() <-chan struct{}
}

// ChannelConn is a ConnHandle implementation using Go channels.
// The TUI layer reads from Events to bridge coordinator events into
// Bubble Tea messages.
type ChannelConn struct {
	id       string
	events   chan Event
	done     chan struct{}
	doneOnce sync.Once
}

// NewChannelConn creates a channel-backed connection handle.
// bufferSize controls how many events can queue before the oldest is
// dropped.
func NewChannelConn(id string, bufferSize int) *ChannelConn {
	if bufferSize < 1 {
		bufferSize = 64
	}
	return &ChannelConn{
		id:     id,
		events: make(chan Event, bufferSize),
		done:   make(chan struct{}),
	}
}

// ID returns the connection identifier.
func (c *ChannelConn) ID() string {
	return c.id
}

// Send delivers an event to the connection.
// If the buffer is full, the oldest event is dropped so the coordinator
// never blocks on a slow reader.
func (c *ChannelConn) Send(evt Event) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.events <- evt:
	default:
		// Buffer full: drop the oldest and retry once, best effort.
		select {
		case <-c.events:
		default:
		}
		select {
		case c.events <- evt:
		default:
		}
	}
}

// Events returns the channel the transport reads events from.
func (c *ChannelConn) Events() <-chan Event {
	return c.events
}

// Done returns the done channel.
func (c *ChannelConn) Done() <-chan struct{} {
	return c.done
}

// Close marks the connection as ended. Safe to call multiple times.
func (c *ChannelConn) Close() {
	c.doneOnce.Do(func() {
		close(c.done)
	})
}

// ConnRegistry tracks the live connections by ID.
// Thread-safe for concurrent access.
type ConnRegistry struct {
	mu    sync.RWMutex
	conns map[string]ConnHandle
}

// NewConnRegistry creates an empty connection registry.
func NewConnRegistry() *ConnRegistry {
	return &ConnRegistry{conns: make(map[string]ConnHandle)}
}

// Register adds a connection to the registry.
func (r *ConnRegistry) Register(conn ConnHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.ID()] = conn
}

// Unregister removes a connection from the registry.
func (r *ConnRegistry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
}

// Get retrieves a connection by ID.
func (r *ConnRegistry) Get(id string) (ConnHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

// Count returns the number of registered connections.
func (r *ConnRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
