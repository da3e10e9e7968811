package router

import (
	"context"
	"encoding/json"
	"log"

	"callboard/internal/presence"
	"callboard/internal/signaling"
	"callboard/pkg/interfaces"
	"callboard/pkg/types"
)

// Router parses raw inbound frames and dispatches them by type:
// update-presence to the presence manager, call-lifecycle types to the
// signaling relay. The sender's identity comes from the connection, never
// from the frame, so a client cannot speak as anyone else.
type Router struct {
	presence *presence.Manager
	relay    *signaling.Relay
}

// New creates a message router.
func New(pres *presence.Manager, relay *signaling.Relay) *Router {
	return &Router{
		presence: pres,
		relay:    relay,
	}
}

// Dispatch handles one raw frame from an authenticated connection. A frame
// that cannot be parsed, or carries an unrecognized type, is answered with
// an error frame and the connection stays open; no inbound frame is ever
// fatal. The returned error reflects the routing outcome for logging.
func (r *Router) Dispatch(ctx context.Context, sender interfaces.Connection, raw []byte) error {
	var frame types.Frame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Type == "" {
		if werr := sender.WriteFrame(types.NewErrorFrame("Invalid message format")); werr != nil {
			log.Printf("Failed to send error frame to %s: %v", sender.UserID(), werr)
		}
		return ErrMalformedFrame
	}

	switch {
	case frame.Type == types.FrameUpdatePresence:
		return r.handlePresenceSignal(ctx, sender, frame)

	case frame.Type == types.FrameCallUser || types.IsForwardableFrameType(frame.Type):
		return r.relay.Handle(ctx, sender, frame)

	default:
		if werr := sender.WriteFrame(types.NewErrorFrame("Unknown message type")); werr != nil {
			log.Printf("Failed to send error frame to %s: %v", sender.UserID(), werr)
		}
		return ErrUnknownFrameType
	}
}

func (r *Router) handlePresenceSignal(ctx context.Context, sender interfaces.Connection, frame types.Frame) error {
	var payload types.PresenceSignalPayload
	if frame.Payload != nil {
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			// A wrong-shaped payload is ignored like an unrecognized
			// status: no transition, no error back to the sender.
			log.Printf("Unreadable update-presence payload from %s: %v", sender.UserID(), err)
			return nil
		}
	}
	return r.presence.HandleSignal(ctx, sender.UserID(), payload.Status)
}
