package core

import "errors"

var ErrBackpressure = errors.New("backpressure")

// Frame is a raw binary payload.
type Frame []byte

// SignalConnection abstracts the broker side of one endpoint's messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
