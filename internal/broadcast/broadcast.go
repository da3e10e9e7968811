package broadcast

import (
	"log"

	"callboard/internal/registry"
	"callboard/pkg/types"
)

// Fanout sends a frame to every currently-open connection in the registry.
// Delivery is fire-and-forget: no acknowledgments, no retries, and no
// ordering guarantee between recipients. One recipient's failure never
// aborts delivery to the rest.
type Fanout struct {
	registry *registry.Registry
}

// NewFanout creates a fanout over the given registry.
func NewFanout(reg *registry.Registry) *Fanout {
	return &Fanout{registry: reg}
}

// Broadcast sends the frame to every open connection in a point-in-time
// snapshot and returns the number of successful sends. Iterating a
// snapshot keeps fanout from racing concurrent registry mutation.
func (f *Fanout) Broadcast(frame types.Frame) int {
	delivered := 0
	for _, entry := range f.registry.Snapshot() {
		if !entry.Conn.IsOpen() {
			continue
		}
		if err := entry.Conn.WriteFrame(frame); err != nil {
			log.Printf("Broadcast to %s failed: %v", entry.UserID, err)
			continue
		}
		delivered++
	}
	return delivered
}
