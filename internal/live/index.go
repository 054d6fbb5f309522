package live

import "sync"

// ConnIndex maps each connection to the set of session codes it has joined,
// and each code to its member connections. The two directions are updated
// together under one mutex, so they can never disagree. The forward
// direction drives disconnect cleanup; the reverse direction is the "room"
// the broadcaster fans out to.
// A connection may in principle be bound to more than one session; the TUI
// happens to bind at most one at a time, but nothing here assumes that.
type ConnIndex struct {
	mu      sync.RWMutex
	byConn  map[string]map[string]struct{} // connID -> codes
	members map[string]map[string]struct{} // code -> connIDs
}

// NewConnIndex creates an empty index.
func NewConnIndex() *ConnIndex {
	return &ConnIndex{
		byConn:  make(map[string]map[string]struct{}),
		members: make(map[string]map[string]struct{}),
	}
}

// Bind records that connID has joined the session with the given code.
func (ix *ConnIndex) Bind(connID, code string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	codes, ok := ix.byConn[connID]
	if !ok {
		codes = make(map[string]struct{})
		ix.byConn[connID] = codes
	}
	codes[code] = struct{}{}

	conns, ok := ix.members[code]
	if !ok {
		conns = make(map[string]struct{})
		ix.members[code] = conns
	}
	conns[connID] = struct{}{}
}

// Unbind removes the connID <-> code binding. Unbinding an absent pair is a
// no-op. Entries are dropped entirely once their last binding goes away, so
// the index never leaks entries for dead connections or dead sessions.
func (ix *ConnIndex) Unbind(connID, code string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if codes, ok := ix.byConn[connID]; ok {
		delete(codes, code)
		if len(codes) == 0 {
			delete(ix.byConn, connID)
		}
	}
	if conns, ok := ix.members[code]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(ix.members, code)
		}
	}
}

// SessionsFor returns the codes of every session connID is bound to.
func (ix *ConnIndex) SessionsFor(connID string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	codes, ok := ix.byConn[connID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(codes))
	for code := range codes {
		out = append(out, code)
	}
	return out
}

// Members returns the IDs of every connection bound to code.
func (ix *ConnIndex) Members(code string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	conns, ok := ix.members[code]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(conns))
	for connID := range conns {
		out = append(out, connID)
	}
	return out
}

// IsBound reports whether connID is bound to code.
func (ix *ConnIndex) IsBound(connID, code string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	codes, ok := ix.byConn[connID]
	if !ok {
		return false
	}
	_, ok = codes[code]
	return ok
}
