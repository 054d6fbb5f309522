package poll

import (
	"errors"
	"testing"
)

func newTestRegistry() *Registry {
	return NewRegistry(NewCodeGenerator(DefaultCodeLength, DefaultCodeRetries))
}

func TestRegistryCreateAndGet(t *testing.T) {
	reg := newTestRegistry()

	session, err := reg.Create("Coffee or tea?", []string{"Coffee", "Tea"}, "creator-1")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if len(session.Code) != DefaultCodeLength {
		t.Errorf("Code %q has unexpected length", session.Code)
	}

	got, ok := reg.Get(session.Code)
	if !ok {
		t.Fatal("Get() did not find the created session")
	}
	if got != session {
		t.Error("Get() returned a different session")
	}
	if reg.Count() != 1 {
		t.Errorf("Count() = %d, want 1", reg.Count())
	}
}

func TestRegistryCreateValidates(t *testing.T) {
	reg := newTestRegistry()

	if _, err := reg.Create("", []string{"A", "B"}, "c"); !errors.Is(err, ErrInvalidPoll) {
		t.Errorf("Expected ErrInvalidPoll for empty question, got %v", err)
	}
	if _, err := reg.Create("Pick", []string{"A"}, "c"); !errors.Is(err, ErrInvalidPoll) {
		t.Errorf("Expected ErrInvalidPoll for one option, got %v", err)
	}
	if reg.Count() != 0 {
		t.Errorf("Rejected creates must not register sessions, Count() = %d", reg.Count())
	}
}

func TestRegistryResolve(t *testing.T) {
	reg := newTestRegistry()

	session, err := reg.Create("Pick", []string{"A", "B"}, "c")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	got, err := reg.Resolve(session.Code)
	if err != nil || got != session {
		t.Errorf("Resolve() = (%v, %v), want the session", got, err)
	}
	if _, err := reg.Resolve("NOSUCH"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestRegistryCodesAreUnique(t *testing.T) {
	reg := newTestRegistry()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		session, err := reg.Create("Pick", []string{"A", "B"}, "c")
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		if seen[session.Code] {
			t.Fatalf("Duplicate code %q", session.Code)
		}
		seen[session.Code] = true
	}
}

func TestRemoveIfEmpty(t *testing.T) {
	reg := newTestRegistry()

	session, err := reg.Create("Pick", []string{"A", "B"}, "c")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	session.Join("conn-1")
	if removed := reg.RemoveIfEmpty(session.Code); removed != nil {
		t.Error("RemoveIfEmpty() removed a session with participants")
	}

	session.Leave("conn-1")
	if removed := reg.RemoveIfEmpty(session.Code); removed != session {
		t.Error("RemoveIfEmpty() did not remove the empty session")
	}

	// Idempotent on an absent code
	if removed := reg.RemoveIfEmpty(session.Code); removed != nil {
		t.Error("Second RemoveIfEmpty() should return nil")
	}
	if _, ok := reg.Get(session.Code); ok {
		t.Error("Removed session still resolvable")
	}
}
