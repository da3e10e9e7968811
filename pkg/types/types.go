package types

import (
	"encoding/json"
	"time"
)

// Client-originated frame types. These are the only values accepted on the
// wire; anything else is answered with an "error" frame.
const (
	FrameUpdatePresence = "update-presence"
	FrameCallUser       = "call-user"
	FrameOffer          = "offer"
	FrameAnswer         = "answer"
	FrameICECandidate   = "ice-candidate"
	FrameCallAccepted   = "call-accepted"
	FrameCallRejected   = "call-rejected"
	FrameCallEnded      = "call-ended"
)

// Server-originated frame types.
const (
	FrameIncomingCall   = "incoming-call"
	FrameCallError      = "call-error"
	FrameError          = "error"
	FramePresenceUpdate = "presence-update"
	FrameNewMessage     = "new-message"
)

// Presence statuses as stored and broadcast.
const (
	StatusOnline  = "online"
	StatusIdle    = "idle"
	StatusOffline = "offline"
)

// Statuses a client may request in an update-presence frame. "active" maps
// to online; "idle" is stored as-is. Any other value is ignored.
const (
	RequestedStatusActive = "active"
	RequestedStatusIdle   = "idle"
)

// Call types accepted on call-user frames.
const (
	CallTypeVoice = "voice"
	CallTypeVideo = "video"
)

// Frame is the wire unit exchanged over a connection in both directions.
// Payload stays raw so each handler decodes only the shape it needs and
// forwarded payloads pass through unmodified. Error frames carry a
// top-level Message instead of a payload.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Message string          `json:"message,omitempty"`
}

// PresenceRecord is the per-user presence state held by the directory
// service: coarse status plus the time it was last confirmed.
type PresenceRecord struct {
	UserID   string    `json:"userId"`
	Status   string    `json:"status"`
	LastSeen time.Time `json:"lastSeen"`
}

// PresenceSignalPayload is the payload of a client update-presence frame.
type PresenceSignalPayload struct {
	Status string `json:"status"`
}

// CallRequestPayload is the payload of a client call-user frame.
type CallRequestPayload struct {
	TargetUserID string `json:"targetUserId"`
	CallType     string `json:"callType,omitempty"`
}

// TargetedPayload extracts only the routing key from a signaling payload;
// the remaining fields are opaque to the relay.
type TargetedPayload struct {
	TargetUserID string `json:"targetUserId"`
}

// IncomingCallPayload is pushed to the callee when someone calls them.
type IncomingCallPayload struct {
	CallerID string `json:"callerId"`
	CallType string `json:"callType"`
}

// CallErrorPayload is returned to a caller whose target is unreachable.
type CallErrorPayload struct {
	Message string `json:"message"`
}

// PresenceUpdatePayload is broadcast to every open connection after a
// presence transition persists.
type PresenceUpdatePayload struct {
	UserID   string    `json:"userId"`
	Status   string    `json:"status"`
	LastSeen time.Time `json:"lastSeen"`
}

// NewErrorFrame builds a recoverable protocol error frame. The connection
// stays open after it is sent.
func NewErrorFrame(message string) Frame {
	return Frame{Type: FrameError, Message: message}
}

// NewCallErrorFrame builds the frame sent back to a caller when the call
// target is not reachable.
func NewCallErrorFrame(message string) Frame {
	payload, _ := json.Marshal(CallErrorPayload{Message: message})
	return Frame{Type: FrameCallError, Payload: payload}
}

// NewIncomingCallFrame builds the frame pushed to a call target.
func NewIncomingCallFrame(callerID, callType string) Frame {
	payload, _ := json.Marshal(IncomingCallPayload{CallerID: callerID, CallType: callType})
	return Frame{Type: FrameIncomingCall, Payload: payload}
}

// NewPresenceUpdateFrame builds the broadcast frame for a presence record.
func NewPresenceUpdateFrame(record PresenceRecord) Frame {
	payload, _ := json.Marshal(PresenceUpdatePayload{
		UserID:   record.UserID,
		Status:   record.Status,
		LastSeen: record.LastSeen,
	})
	return Frame{Type: FramePresenceUpdate, Payload: payload}
}

// NewMessageFrame wraps an already-persisted message object for real-time
// push to its recipient. The message is opaque to this core.
func NewMessageFrame(message json.RawMessage) Frame {
	return Frame{Type: FrameNewMessage, Payload: message}
}
