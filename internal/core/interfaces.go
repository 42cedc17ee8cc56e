package core

// Frame is a raw text payload, one JSON envelope per frame.
type Frame []byte

// SessionID names one accepted transport connection for logging and
// bookkeeping. It is issued by the HTTP layer and never trusted for
// peer identity.
type SessionID string

// SignalConnection abstracts a bidirectional messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
