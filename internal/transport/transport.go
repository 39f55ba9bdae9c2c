// Package transport owns the persistent channel to the backend: dialing,
// the connection state machine, reconnection, liveness pings and outbound
// command transmission.
package transport

import "context"

// ConnState is the connection state machine's current state. Exactly one
// logical connection exists per session; transitions are driven only by
// transport events and the reconnect timer, never by callers.
type ConnState int32

const (
	StateConnecting ConnState = iota // handshake in flight
	StateOpen                        // handshake succeeded
	StateClosed                      // transport ended, reconnect timer armed
)

// String returns human-readable connection state
func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn is one established transport connection carrying text frames.
type Conn interface {
	// ReadMessage blocks until the next inbound frame or a transport error.
	// After an error the connection is dead and must be discarded.
	ReadMessage() ([]byte, error)

	// WriteMessage transmits one frame. Safe for concurrent use.
	WriteMessage(data []byte) error

	// Close tears the connection down, unblocking any pending read.
	Close() error
}

// Dialer opens transport connections. The session owns exactly one Conn at a
// time; tests substitute a fake dialer to drive the state machine without a
// network socket.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}
