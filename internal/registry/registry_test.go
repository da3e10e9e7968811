package registry

import (
	"fmt"
	"sync"
	"testing"

	"callboard/pkg/types"
)

// fakeConn is a minimal Connection for registry tests; the registry never
// writes to handles, it only stores and compares them.
type fakeConn struct {
	userID string
	connID string
	open   bool
}

func (f *fakeConn) WriteFrame(types.Frame) error { return nil }
func (f *fakeConn) WriteJSON(interface{}) error  { return nil }
func (f *fakeConn) Close() error                 { f.open = false; return nil }
func (f *fakeConn) UserID() string               { return f.userID }
func (f *fakeConn) ConnID() string               { return f.connID }
func (f *fakeConn) IsOpen() bool                 { return f.open }

func newFakeConn(userID, connID string) *fakeConn {
	return &fakeConn{userID: userID, connID: connID, open: true}
}

func TestRegistry_UpsertAndLookup(t *testing.T) {
	r := New()

	if _, ok := r.Lookup("alice"); ok {
		t.Fatal("Lookup on empty registry should report no entry")
	}

	conn := newFakeConn("alice", "c1")
	if prev := r.Upsert("alice", conn); prev != nil {
		t.Errorf("First Upsert should return nil previous handle, got %v", prev)
	}

	got, ok := r.Lookup("alice")
	if !ok {
		t.Fatal("Lookup failed after Upsert")
	}
	if got != conn {
		t.Error("Lookup returned a different handle than was upserted")
	}
}

func TestRegistry_UpsertReturnsSuperseded(t *testing.T) {
	r := New()

	first := newFakeConn("alice", "c1")
	second := newFakeConn("alice", "c2")

	r.Upsert("alice", first)
	prev := r.Upsert("alice", second)

	if prev != first {
		t.Errorf("Upsert should return the superseded handle, got %v", prev)
	}

	got, _ := r.Lookup("alice")
	if got != second {
		t.Error("Later Upsert should win the mapping")
	}
}

func TestRegistry_RemoveIfCurrent(t *testing.T) {
	r := New()

	conn := newFakeConn("alice", "c1")
	r.Upsert("alice", conn)

	r.RemoveIfCurrent("alice", conn)
	if _, ok := r.Lookup("alice"); ok {
		t.Error("Mapping should be gone after RemoveIfCurrent with matching handle")
	}

	// Repeated removal is idempotent.
	r.RemoveIfCurrent("alice", conn)
}

func TestRegistry_StaleRemoveDoesNotEvictReplacement(t *testing.T) {
	r := New()

	old := newFakeConn("alice", "c1")
	replacement := newFakeConn("alice", "c2")

	r.Upsert("alice", old)
	r.Upsert("alice", replacement)

	// The superseded connection's slow close must not remove the newer entry.
	r.RemoveIfCurrent("alice", old)

	got, ok := r.Lookup("alice")
	if !ok {
		t.Fatal("Replacement connection was evicted by a stale removal")
	}
	if got != replacement {
		t.Error("Lookup returned the wrong handle after stale removal")
	}
}

func TestRegistry_RemoveNilIsNoOp(t *testing.T) {
	r := New()
	conn := newFakeConn("alice", "c1")
	r.Upsert("alice", conn)

	r.RemoveIfCurrent("alice", nil)

	if _, ok := r.Lookup("alice"); !ok {
		t.Error("RemoveIfCurrent(nil) must not evict the current handle")
	}
}

func TestRegistry_SnapshotIsPointInTime(t *testing.T) {
	r := New()
	r.Upsert("alice", newFakeConn("alice", "c1"))
	r.Upsert("bob", newFakeConn("bob", "c2"))

	snapshot := r.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("Expected 2 snapshot entries, got %d", len(snapshot))
	}

	// Mutations after the snapshot do not affect the copy.
	r.Upsert("carol", newFakeConn("carol", "c3"))
	if len(snapshot) != 2 {
		t.Error("Snapshot must not observe later mutations")
	}

	seen := make(map[string]bool)
	for _, entry := range snapshot {
		seen[entry.UserID] = true
		if entry.Conn == nil {
			t.Errorf("Snapshot entry for %s has nil connection", entry.UserID)
		}
	}
	if !seen["alice"] || !seen["bob"] {
		t.Errorf("Snapshot missing expected users: %v", seen)
	}
}

func TestRegistry_Stats(t *testing.T) {
	r := New()
	if r.Stats()["total_connections"] != 0 {
		t.Error("Empty registry should report zero connections")
	}

	r.Upsert("alice", newFakeConn("alice", "c1"))
	r.Upsert("bob", newFakeConn("bob", "c2"))

	if got := r.Stats()["total_connections"]; got != 2 {
		t.Errorf("Expected 2 connections, got %d", got)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			userID := fmt.Sprintf("user%d", n%10)
			conn := newFakeConn(userID, fmt.Sprintf("c%d", n))
			prev := r.Upsert(userID, conn)
			if prev != nil {
				r.RemoveIfCurrent(userID, prev) // stale handle, must be a no-op
			}
			r.Lookup(userID)
			r.Snapshot()
			r.RemoveIfCurrent(userID, conn)
		}(i)
	}
	wg.Wait()

	// Every goroutine removed its own handle; stale removals were no-ops,
	// so the registry may be empty or hold only replacements.
	for _, entry := range r.Snapshot() {
		if entry.Conn == nil {
			t.Error("Registry holds a nil connection after concurrent churn")
		}
	}
}
