package signaling

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"callboard/pkg/interfaces"
	"callboard/pkg/types"
)

// ConnectionLookup is the slice of the registry the relay needs. The relay
// consults it on every frame instead of caching results, because a
// target's reachability can change between messages.
type ConnectionLookup interface {
	Lookup(userID string) (interfaces.Connection, bool)
}

// Relay forwards call-signaling frames from an authenticated sender to the
// connection of the user named in the payload. It keeps no per-call state
// and makes a single delivery attempt per frame. It performs no
// authorization beyond "sender is authenticated": call consent is
// established by the application layer, not here.
type Relay struct {
	registry ConnectionLookup
}

// NewRelay creates a relay over the given connection lookup.
func NewRelay(registry ConnectionLookup) *Relay {
	return &Relay{registry: registry}
}

// Handle routes one call-signaling frame. call-user is rewritten into an
// incoming-call push and reports an unreachable target back to the sender;
// all other call types are forwarded verbatim with the sender's id added,
// and dropped silently when the target is unreachable.
func (r *Relay) Handle(ctx context.Context, sender interfaces.Connection, frame types.Frame) error {
	switch {
	case frame.Type == types.FrameCallUser:
		return r.handleCallUser(sender, frame)
	case types.IsForwardableFrameType(frame.Type):
		return r.forward(sender, frame)
	default:
		return ErrUnhandledFrameType
	}
}

func (r *Relay) handleCallUser(sender interfaces.Connection, frame types.Frame) error {
	var payload types.CallRequestPayload
	if frame.Payload != nil {
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			log.Printf("Unreadable call-user payload from %s: %v", sender.UserID(), err)
		}
	}

	callType := payload.CallType
	if callType == "" {
		callType = types.CallTypeVoice
	}

	target, ok := r.lookupOpen(payload.TargetUserID)
	if !ok {
		// The caller is waiting on a ring; it is the one signaling type
		// whose unavailability is reported back.
		message := fmt.Sprintf("User %s is not available.", payload.TargetUserID)
		if err := sender.WriteFrame(types.NewCallErrorFrame(message)); err != nil {
			log.Printf("Failed to send call-error to %s: %v", sender.UserID(), err)
		}
		return ErrTargetUnavailable
	}

	if err := target.WriteFrame(types.NewIncomingCallFrame(sender.UserID(), callType)); err != nil {
		log.Printf("Failed to deliver incoming-call to %s: %v", payload.TargetUserID, err)
	}
	return nil
}

// forward relays the frame to its target with the payload augmented with
// senderId so the recipient can verify who sent it; every other field
// passes through unchanged.
func (r *Relay) forward(sender interfaces.Connection, frame types.Frame) error {
	var routing types.TargetedPayload
	if frame.Payload != nil {
		if err := json.Unmarshal(frame.Payload, &routing); err != nil {
			log.Printf("Unreadable %s payload from %s: %v", frame.Type, sender.UserID(), err)
			return ErrMissingTarget
		}
	}
	if routing.TargetUserID == "" {
		return ErrMissingTarget
	}

	target, ok := r.lookupOpen(routing.TargetUserID)
	if !ok {
		// Silent drop: mid-call both ends already track call state and a
		// late error frame would race the client's own teardown.
		log.Printf("Dropping %s from %s: user %s not reachable", frame.Type, sender.UserID(), routing.TargetUserID)
		return ErrTargetUnavailable
	}

	augmented, err := augmentPayload(frame.Payload, sender.UserID())
	if err != nil {
		log.Printf("Failed to augment %s payload from %s: %v", frame.Type, sender.UserID(), err)
		return err
	}

	if err := target.WriteFrame(types.Frame{Type: frame.Type, Payload: augmented}); err != nil {
		// Best-effort single attempt; the sender is never notified.
		log.Printf("Failed to forward %s to %s: %v", frame.Type, routing.TargetUserID, err)
	}
	return nil
}

// lookupOpen resolves a target to a currently-open connection.
func (r *Relay) lookupOpen(userID string) (interfaces.Connection, bool) {
	if userID == "" {
		return nil, false
	}
	conn, ok := r.registry.Lookup(userID)
	if !ok || !conn.IsOpen() {
		return nil, false
	}
	return conn, true
}

// augmentPayload adds senderId to an opaque payload object.
func augmentPayload(payload json.RawMessage, senderID string) (json.RawMessage, error) {
	fields := make(map[string]interface{})
	if payload != nil {
		if err := json.Unmarshal(payload, &fields); err != nil {
			return nil, err
		}
	}
	fields["senderId"] = senderID
	return json.Marshal(fields)
}
