package broadcast

import (
	"errors"
	"testing"

	"callboard/internal/registry"
	"callboard/pkg/types"
)

type fakeConn struct {
	userID   string
	open     bool
	writeErr error
	frames   []types.Frame
}

func (f *fakeConn) WriteFrame(frame types.Frame) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.frames = append(f.frames, frame)
	return nil
}
func (f *fakeConn) WriteJSON(interface{}) error { return nil }
func (f *fakeConn) Close() error                { f.open = false; return nil }
func (f *fakeConn) UserID() string              { return f.userID }
func (f *fakeConn) ConnID() string              { return f.userID + "-conn" }
func (f *fakeConn) IsOpen() bool                { return f.open }

func TestFanout_DeliversToAllOpenConnections(t *testing.T) {
	reg := registry.New()
	alice := &fakeConn{userID: "alice", open: true}
	bob := &fakeConn{userID: "bob", open: true}
	reg.Upsert("alice", alice)
	reg.Upsert("bob", bob)

	frame := types.NewPresenceUpdateFrame(types.PresenceRecord{UserID: "carol", Status: types.StatusOnline})
	delivered := NewFanout(reg).Broadcast(frame)

	if delivered != 2 {
		t.Errorf("Expected 2 deliveries, got %d", delivered)
	}
	if len(alice.frames) != 1 || len(bob.frames) != 1 {
		t.Error("Every open connection should receive the frame")
	}
}

func TestFanout_SkipsClosedConnections(t *testing.T) {
	reg := registry.New()
	alice := &fakeConn{userID: "alice", open: true}
	bob := &fakeConn{userID: "bob", open: false}
	reg.Upsert("alice", alice)
	reg.Upsert("bob", bob)

	delivered := NewFanout(reg).Broadcast(types.NewErrorFrame("x"))

	if delivered != 1 {
		t.Errorf("Expected 1 delivery, got %d", delivered)
	}
	if len(bob.frames) != 0 {
		t.Error("Closed connections must be skipped")
	}
}

func TestFanout_OneFailureDoesNotAbortTheRest(t *testing.T) {
	reg := registry.New()
	failing := &fakeConn{userID: "alice", open: true, writeErr: errors.New("buffer full")}
	bob := &fakeConn{userID: "bob", open: true}
	carol := &fakeConn{userID: "carol", open: true}
	reg.Upsert("alice", failing)
	reg.Upsert("bob", bob)
	reg.Upsert("carol", carol)

	delivered := NewFanout(reg).Broadcast(types.NewErrorFrame("x"))

	if delivered != 2 {
		t.Errorf("Expected 2 deliveries despite one failure, got %d", delivered)
	}
	if len(bob.frames) != 1 || len(carol.frames) != 1 {
		t.Error("Healthy recipients must still receive the frame")
	}
}

func TestFanout_EmptyRegistry(t *testing.T) {
	if delivered := NewFanout(registry.New()).Broadcast(types.NewErrorFrame("x")); delivered != 0 {
		t.Errorf("Expected 0 deliveries on empty registry, got %d", delivered)
	}
}
