package delivery

import (
	"encoding/json"
	"errors"
	"log"

	"callboard/internal/signaling"
	"callboard/pkg/types"
)

// ErrReceiverOffline reports that the receiver had no open connection; the
// message stays available through the persistence service's history path.
var ErrReceiverOffline = errors.New("receiver not connected")

// Bridge pushes freshly persisted chat messages to their recipient's open
// connection. It is invoked by the external persistence layer after the
// message is durably stored; this core never persists frames itself. The
// registry is consulted on every push, never cached.
type Bridge struct {
	registry signaling.ConnectionLookup
}

// NewBridge creates a delivery bridge over the given connection lookup.
func NewBridge(registry signaling.ConnectionLookup) *Bridge {
	return &Bridge{registry: registry}
}

// Deliver pushes a stored message object to receiverID if they are
// connected. The message body is opaque to this core. When the receiver is
// offline the push is dropped and ErrReceiverOffline returned, which the
// caller treats as an expected outcome, not a failure.
func (b *Bridge) Deliver(receiverID string, message json.RawMessage) error {
	conn, ok := b.registry.Lookup(receiverID)
	if !ok || !conn.IsOpen() {
		return ErrReceiverOffline
	}

	if err := conn.WriteFrame(types.NewMessageFrame(message)); err != nil {
		log.Printf("Failed to push new-message to %s: %v", receiverID, err)
		return err
	}
	return nil
}
