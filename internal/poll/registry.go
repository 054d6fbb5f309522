package poll

import "sync"

// Registry owns the mapping from session code to live session. It is the
// only long-lived holder of *Session references; everything else works with
// a temporary handle for the duration of one operation.
// Thread-safe for concurrent access.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	codes    *CodeGenerator
}

// NewRegistry creates an empty registry backed by the given code generator.
// A nil generator gets the defaults.
func NewRegistry(codes *CodeGenerator) *Registry {
	if codes == nil {
		codes = NewCodeGenerator(0, 0)
	}
	return &Registry{
		sessions: make(map[string]*Session),
		codes:    codes,
	}
}

// Create validates the poll definition, allocates a fresh unique code, and
// stores the new session under it. Returns ErrInvalidPoll for a malformed
// definition and ErrCodeSpaceExhausted if no free code could be found.
func (r *Registry) Create(question string, options []string, createdBy string) (*Session, error) {
	question, options, err := ValidateDefinition(question, options)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Generate under the lock so the taken check and the insert are atomic.
	code, err := r.codes.Generate(func(code string) bool {
		_, exists := r.sessions[code]
		return exists
	})
	if err != nil {
		return nil, err
	}

	session := newSession(code, question, options, createdBy)
	r.sessions[code] = session
	return session, nil
}

// Get returns the session stored under code.
func (r *Registry) Get(code string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[code]
	return s, ok
}

// Resolve returns the session stored under code, or ErrSessionNotFound.
func (r *Registry) Resolve(code string) (*Session, error) {
	if s, ok := r.Get(code); ok {
		return s, nil
	}
	return nil, ErrSessionNotFound
}

// RemoveIfEmpty removes the session iff it has no participants.
// A no-op for a non-empty session and for an unknown code; idempotent.
// Returns the removed session, or nil if nothing was removed.
func (r *Registry) RemoveIfEmpty(code string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[code]
	if !ok || !s.Empty() {
		return nil
	}
	delete(r.sessions, code)
	return s
}

// Delete removes the session unconditionally. Used only in terminal cleanup
// paths; normal teardown goes through RemoveIfEmpty.
func (r *Registry) Delete(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, code)
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Codes returns the codes of all live sessions, in no particular order.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]string, 0, len(r.sessions))
	for code := range r.sessions {
		codes = append(codes, code)
	}
	return codes
}
