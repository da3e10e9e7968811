package interfaces

import (
	"context"
	"time"

	"callboard/pkg/types"
)

// TokenVerifier validates an identity token presented at connection time
// and yields the user id it was issued for. Stateless; any failure means
// the connection must be refused.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// PresenceStore reads and writes per-user presence records in the
// directory service. SetPresence is an I/O-bound operation and is never
// called while a registry lock is held.
type PresenceStore interface {
	SetPresence(ctx context.Context, userID, status string, lastSeen time.Time) error
	GetPresence(ctx context.Context, userID string) (*types.PresenceRecord, error)
}
