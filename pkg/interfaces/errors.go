package interfaces

import "errors"

// Common errors shared across component boundaries.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrStoreClosed  = errors.New("presence store is closed")
)
