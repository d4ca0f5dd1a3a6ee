package presence

import "testing"

type fakeConn struct {
	writes int
}

func (f *fakeConn) WriteJSON(v any) error {
	f.writes++
	return nil
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	registry := NewRegistry()
	conn := &fakeConn{}

	registry.Register(1, conn)

	got, ok := registry.Lookup(1)
	if !ok || got != conn {
		t.Fatalf("expected registered connection to be returned")
	}
	if _, ok := registry.Lookup(2); ok {
		t.Fatalf("expected lookup miss for unknown user")
	}
}

func TestRegistryLastConnectWins(t *testing.T) {
	registry := NewRegistry()
	first := &fakeConn{}
	second := &fakeConn{}

	registry.Register(1, first)
	registry.Register(1, second)

	if len(registry.Snapshot()) != 1 {
		t.Fatalf("expected a single presence entry per user")
	}
	got, _ := registry.Lookup(1)
	if got != second {
		t.Fatalf("expected the newer connection to replace the older one")
	}
}

func TestRegistryStaleUnregisterIsNoop(t *testing.T) {
	registry := NewRegistry()
	stale := &fakeConn{}
	current := &fakeConn{}

	registry.Register(1, stale)
	registry.Register(1, current)

	if registry.Unregister(1, stale) {
		t.Fatalf("expected stale unregister to be a no-op")
	}
	got, ok := registry.Lookup(1)
	if !ok || got != current {
		t.Fatalf("expected the newer connection to survive a stale disconnect")
	}

	if !registry.Unregister(1, current) {
		t.Fatalf("expected matching unregister to remove the entry")
	}
	if _, ok := registry.Lookup(1); ok {
		t.Fatalf("expected entry to be gone after unregister")
	}
}

func TestRegistrySnapshot(t *testing.T) {
	registry := NewRegistry()
	registry.Register(1, &fakeConn{})
	registry.Register(2, &fakeConn{})
	registry.Register(2, &fakeConn{})

	ids := registry.Snapshot()
	if len(ids) != 2 {
		t.Fatalf("expected 2 online users, got %d", len(ids))
	}
	seen := map[int]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d in snapshot", id)
		}
		seen[id] = true
	}
	if !seen[1] || !seen[2] {
		t.Fatalf("snapshot missing expected ids: %v", ids)
	}

	if len(registry.Connections()) != 2 {
		t.Fatalf("expected 2 connection handles")
	}
}
