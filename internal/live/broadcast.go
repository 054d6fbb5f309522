package live

// Broadcaster fans an event out to every connection currently bound to a
// session code. Delivery is best-effort and unordered: a member that has
// already gone away is skipped, and a slow member only ever drops its own
// events (ConnHandle.Send is non-blocking), never anyone else's.
type Broadcaster struct {
	conns *ConnRegistry
	index *ConnIndex
}

// NewBroadcaster creates a broadcaster over the given connection registry
// and index.
func NewBroadcaster(conns *ConnRegistry, index *ConnIndex) *Broadcaster {
	return &Broadcaster{conns: conns, index: index}
}

// Publish delivers evt to every member of the room for code.
// Never returns an error: there is nothing actionable for the caller in a
// partial delivery.
func (b *Broadcaster) Publish(code string, evt Event) {
	for _, connID := range b.index.Members(code) {
		conn, ok := b.conns.Get(connID)
		if !ok {
			// Bound but already unregistered; disconnect cleanup
			// will unbind it shortly.
			continue
		}
		conn.Send(evt)
	}
}
