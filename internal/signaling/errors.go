package signaling

import "errors"

// Relay-specific errors. Neither ever reaches a client as-is: call-user
// answers the sender with a call-error frame, every other type drops the
// frame silently.
var (
	ErrMissingTarget      = errors.New("signaling frame missing targetUserId")
	ErrTargetUnavailable  = errors.New("target user not connected")
	ErrUnhandledFrameType = errors.New("frame type not handled by the signaling relay")
)
