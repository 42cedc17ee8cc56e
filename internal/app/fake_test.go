package app

import (
	"sync"

	"github.com/dkeye/rendezvous/internal/core"
)

func coreSID(s string) core.SessionID { return core.SessionID(s) }

// fakeConn records frames and close calls in place of a real transport.
type fakeConn struct {
	mu     sync.Mutex
	sent   []core.Frame
	closed bool
}

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make(core.Frame, len(fr))
	copy(cp, fr)
	f.sent = append(f.sent, cp)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) frames() []core.Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.Frame, len(f.sent))
	copy(out, f.sent)
	return out
}
