package presence

import (
	"context"
	"log"
	"time"

	"callboard/pkg/interfaces"
	"callboard/pkg/types"
)

// Broadcaster pushes a frame to every open connection. Satisfied by
// broadcast.Fanout; a fake stands in for it in tests.
type Broadcaster interface {
	Broadcast(frame types.Frame) int
}

// Manager owns the presence state machine. It is the only writer of
// presence records: transitions come from connection lifecycle (connect ->
// online, disconnect -> offline) and explicit client signals (active ->
// online, idle -> idle). Every transition persists first and broadcasts
// only on persistence success; a failed write abandons the transition so
// peers never observe a status the directory does not hold.
type Manager struct {
	store       interfaces.PresenceStore
	broadcaster Broadcaster
}

// NewManager creates a presence manager over the given store.
func NewManager(store interfaces.PresenceStore, broadcaster Broadcaster) *Manager {
	return &Manager{
		store:       store,
		broadcaster: broadcaster,
	}
}

// HandleConnect marks a user online after a successful authenticated
// connect.
func (m *Manager) HandleConnect(ctx context.Context, userID string) error {
	return m.transition(ctx, userID, types.StatusOnline)
}

// HandleDisconnect marks a user offline on connection close or error,
// unconditionally, regardless of prior state.
func (m *Manager) HandleDisconnect(ctx context.Context, userID string) error {
	return m.transition(ctx, userID, types.StatusOffline)
}

// HandleSignal applies an explicit update-presence request. "active" maps
// to online, "idle" stays idle; any other value is ignored with no
// transition, no broadcast, and no error back to the sender.
func (m *Manager) HandleSignal(ctx context.Context, userID, requested string) error {
	switch requested {
	case types.RequestedStatusActive:
		return m.transition(ctx, userID, types.StatusOnline)
	case types.RequestedStatusIdle:
		return m.transition(ctx, userID, types.StatusIdle)
	default:
		log.Printf("Ignoring update-presence with status %q from %s", requested, userID)
		return nil
	}
}

// transition persists the new status, then broadcasts it. Presence is
// advisory: fanout collects no acknowledgments and failed sends are not
// retried, a missed update self-corrects on the next transition.
func (m *Manager) transition(ctx context.Context, userID, status string) error {
	record := types.PresenceRecord{
		UserID:   userID,
		Status:   status,
		LastSeen: time.Now().UTC(),
	}

	if err := m.store.SetPresence(ctx, userID, record.Status, record.LastSeen); err != nil {
		log.Printf("Presence write failed for %s -> %s: %v", userID, status, err)
		return err
	}

	m.broadcaster.Broadcast(types.NewPresenceUpdateFrame(record))
	return nil
}
