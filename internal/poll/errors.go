package poll

import "errors"

// Sentinel errors for the live-poll domain. All of them are recoverable at
// the request boundary: the coordinator reports them to the offending
// connection and keeps serving everyone else.
var (
	// ErrInvalidPoll is returned for a malformed create request
	// (fewer than two options, or blank question/options).
	ErrInvalidPoll = errors.New("poll: invalid poll definition")

	// ErrSessionNotFound is returned when a code does not match any
	// session currently in the registry.
	ErrSessionNotFound = errors.New("poll: session not found")

	// ErrNotParticipant is returned when a connection that never joined
	// the session tries to vote in it.
	ErrNotParticipant = errors.New("poll: connection is not a participant")

	// ErrInvalidOption is returned for an out-of-range vote index.
	ErrInvalidOption = errors.New("poll: option index out of range")

	// ErrCodeSpaceExhausted is returned when the code generator cannot
	// find a free code within its retry budget. In practice this only
	// happens with a misconfigured (too short) code length.
	ErrCodeSpaceExhausted = errors.New("poll: session code space exhausted")
)
