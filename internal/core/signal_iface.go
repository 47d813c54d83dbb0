package core

import "errors"

// Frame is a raw binary payload, already laid out on the wire.
type Frame []byte

// Close codes sent on the room socket.
const (
	CloseNormal          = 1000
	CloseGoingAway       = 1001
	ClosePolicyViolation = 1008
	CloseRoomNotFound    = 4004
)

//go:generate go tool mockgen -destination=./mocks/signal_mock.go -package=mocks . SignalConnection

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend enqueues f without blocking.
	TrySend(f Frame) error
	Close(code int, reason string)
}

var (
	// ErrBackpressure means the connection's send queue is full.
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)
