package router

import "errors"

// Router-specific errors. Both are recoverable: the sender gets an error
// frame and the connection stays open.
var (
	ErrMalformedFrame   = errors.New("frame could not be parsed")
	ErrUnknownFrameType = errors.New("unknown frame type")
)
