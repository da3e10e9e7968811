package types

import "regexp"

// Compiled once; user ids are validated on every connection attempt.
var userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// IsValidUserID checks that a user id is non-empty, bounded, and uses the
// safe character set shared with the directory service.
func IsValidUserID(userID string) bool {
	if len(userID) < 1 || len(userID) > 64 {
		return false
	}
	return userIDRegex.MatchString(userID)
}

// IsValidStatus reports whether a status belongs to the stored presence set.
func IsValidStatus(status string) bool {
	switch status {
	case StatusOnline, StatusIdle, StatusOffline:
		return true
	}
	return false
}

// IsClientFrameType reports whether a frame type may originate from a client.
func IsClientFrameType(frameType string) bool {
	switch frameType {
	case FrameUpdatePresence, FrameCallUser, FrameOffer, FrameAnswer,
		FrameICECandidate, FrameCallAccepted, FrameCallRejected, FrameCallEnded:
		return true
	}
	return false
}

// IsForwardableFrameType reports whether a frame is relayed verbatim to its
// target. call-user is excluded: it is rewritten into incoming-call and has
// its own unavailability feedback.
func IsForwardableFrameType(frameType string) bool {
	switch frameType {
	case FrameOffer, FrameAnswer, FrameICECandidate,
		FrameCallAccepted, FrameCallRejected, FrameCallEnded:
		return true
	}
	return false
}
