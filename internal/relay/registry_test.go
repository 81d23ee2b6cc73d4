package relay

import (
	"testing"
	"time"
)

func TestRegistryRegisterAndCount(t *testing.T) {
	r := NewRegistry()

	if r.Count() != 0 {
		t.Fatalf("Count() = %d, want 0", r.Count())
	}

	prev := r.Register(&Agent{ID: "alice", Conn: newFakeConn(), ConnectedAt: time.Now()})
	if prev != nil {
		t.Errorf("Register() returned previous entry for fresh id")
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}

	if got := r.Get("alice"); got == nil || got.ID != "alice" {
		t.Errorf("Get(alice) = %v, want registered agent", got)
	}
	if got := r.Get("bob"); got != nil {
		t.Errorf("Get(bob) = %v, want nil", got)
	}
}

func TestRegistryLastRegistrationWins(t *testing.T) {
	r := NewRegistry()

	first := newFakeConn()
	second := newFakeConn()

	r.Register(&Agent{ID: "alice", Conn: first})
	prev := r.Register(&Agent{ID: "alice", Conn: second})

	if prev == nil || prev.Conn != first {
		t.Fatalf("Register() did not return the superseded entry")
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1 after re-registration", r.Count())
	}
	if got := r.Get("alice"); got.Conn != second {
		t.Errorf("Get(alice) points at the old connection")
	}
}

func TestRegistryUnregisterIdentityGuard(t *testing.T) {
	r := NewRegistry()

	old := newFakeConn()
	current := newFakeConn()

	r.Register(&Agent{ID: "alice", Conn: old})
	r.Register(&Agent{ID: "alice", Conn: current})

	// A late teardown of the superseded session must not clobber the new
	// registration.
	if r.Unregister("alice", old) {
		t.Errorf("Unregister() with stale connection succeeded")
	}
	if r.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", r.Count())
	}

	if !r.Unregister("alice", current) {
		t.Errorf("Unregister() with current connection failed")
	}
	if r.Count() != 0 {
		t.Errorf("Count() = %d, want 0", r.Count())
	}
}

func TestRegistrySnapshot(t *testing.T) {
	r := NewRegistry()
	r.Register(&Agent{ID: "alice", Conn: newFakeConn()})
	r.Register(&Agent{ID: "bob", Conn: newFakeConn()})

	snapshot := r.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("Snapshot() returned %d agents, want 2", len(snapshot))
	}

	ids := map[string]bool{}
	for _, agent := range snapshot {
		ids[agent.ID] = true
	}
	if !ids["alice"] || !ids["bob"] {
		t.Errorf("Snapshot() ids = %v, want alice and bob", ids)
	}
}
