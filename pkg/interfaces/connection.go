package interfaces

import "callboard/pkg/types"

// Connection is one live full-duplex client connection as seen by the
// routing core. Implementations must make WriteFrame safe for concurrent
// use and turn writes after Close into errors rather than panics.
type Connection interface {
	// WriteFrame queues a frame for delivery to the client.
	WriteFrame(frame types.Frame) error

	// WriteJSON queues an arbitrary JSON-encodable value. Used by the HTTP
	// surface for ad-hoc payloads; frame traffic goes through WriteFrame.
	WriteJSON(v interface{}) error

	// Close tears the connection down. Idempotent.
	Close() error

	// UserID returns the identity the connection authenticated as. Bound at
	// connect time, immutable for the connection's lifetime.
	UserID() string

	// ConnID returns the unique id of this physical connection, used to
	// tell superseded handles apart from their replacements.
	ConnID() string

	// IsOpen reports whether the connection can still accept writes. The
	// state may flip to closed asynchronously, so callers treat a true
	// result as advisory and handle write errors regardless.
	IsOpen() bool
}
