package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"callboard/pkg/types"
)

// Connection wraps one WebSocket with a single writer goroutine so that
// concurrent senders (router, relay, fanout, delivery bridge) never race on
// the socket. The user id is bound at construction, after authentication,
// and never changes for the connection's lifetime.
type Connection struct {
	conn         *websocket.Conn
	writeCh      chan []byte
	userID       string
	connID       string
	writeTimeout time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
	closeOnce    sync.Once
}

// NewConnection wraps an upgraded WebSocket for an authenticated user and
// starts its writer goroutine.
func NewConnection(conn *websocket.Conn, userID string, bufferSize int, writeTimeout time.Duration) *Connection {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		conn:         conn,
		writeCh:      make(chan []byte, bufferSize),
		userID:       userID,
		connID:       uuid.New().String(),
		writeTimeout: writeTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}

	go c.writeLoop()

	return c
}

// writeLoop is the single goroutine allowed to write to the socket.
func (c *Connection) writeLoop() {
	for {
		select {
		case data := <-c.writeCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// WriteFrame queues a frame for delivery. It fails once the connection is
// closed or the write buffer stays full past the write timeout; it never
// blocks indefinitely.
func (c *Connection) WriteFrame(frame types.Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return ErrInvalidJSON
	}
	return c.enqueue(data)
}

// WriteJSON queues an arbitrary JSON-encodable value.
func (c *Connection) WriteJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return ErrInvalidJSON
	}
	return c.enqueue(data)
}

func (c *Connection) enqueue(data []byte) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.writeCh <- data:
		return nil
	case <-time.After(c.writeTimeout):
		return ErrWriteTimeout
	case <-c.ctx.Done():
		return ErrConnectionClosed
	}
}

// Close tears the connection down. Safe to call from multiple goroutines
// and multiple times; only the first call does the work.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}

// UserID returns the identity this connection authenticated as.
func (c *Connection) UserID() string { return c.userID }

// ConnID returns the unique id of this physical connection.
func (c *Connection) ConnID() string { return c.connID }

// IsOpen reports whether the connection still accepts writes.
func (c *Connection) IsOpen() bool {
	select {
	case <-c.ctx.Done():
		return false
	default:
		return true
	}
}
