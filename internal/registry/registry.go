package registry

import (
	"sync"

	"callboard/pkg/interfaces"
)

// Entry is one user-to-connection mapping captured by Snapshot.
type Entry struct {
	UserID string
	Conn   interfaces.Connection
}

// Registry is the authoritative map from user id to the user's single live
// connection. It is the only component that mutates this map; relay,
// fanout, and delivery consult it on every routing decision instead of
// caching results. All operations are total and hold the lock only for a
// bounded in-memory critical section, never across network I/O.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]interfaces.Connection
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		conns: make(map[string]interfaces.Connection),
	}
}

// Upsert installs conn as the current connection for userID and returns
// the handle it replaced, if any. The caller decides what to do with the
// superseded handle; closing it must happen outside the registry lock.
func (r *Registry) Upsert(userID string, conn interfaces.Connection) interfaces.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.conns[userID]
	r.conns[userID] = conn
	return prev
}

// Lookup returns the current connection for a user, if one is registered.
// The handle may have closed asynchronously; callers check its state and
// handle write errors regardless.
func (r *Registry) Lookup(userID string) (interfaces.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[userID]
	return conn, ok
}

// RemoveIfCurrent removes the mapping for userID only if it still holds
// exactly this handle. A stale close racing a newer connect for the same
// user is therefore a no-op and cannot evict the replacement.
func (r *Registry) RemoveIfCurrent(userID string, conn interfaces.Connection) {
	if conn == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.conns[userID]
	if !ok || current != conn {
		return
	}
	delete(r.conns, userID)
}

// Snapshot returns a point-in-time copy of all entries so fanout can
// iterate without racing concurrent map mutation.
func (r *Registry) Snapshot() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.conns))
	for userID, conn := range r.conns {
		entries = append(entries, Entry{UserID: userID, Conn: conn})
	}
	return entries
}

// Stats returns registry counters for the health endpoint.
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[string]int{
		"total_connections": len(r.conns),
	}
}
