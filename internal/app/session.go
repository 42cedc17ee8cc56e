package app

import (
	"sync"

	"github.com/dkeye/rendezvous/internal/core"
	"github.com/dkeye/rendezvous/internal/domain"
)

// SessionState is monotonic: Unbound -> Registered -> Closed. A session
// registers at most once in its lifetime.
type SessionState int

const (
	StateUnbound SessionState = iota
	StateRegistered
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateRegistered:
		return "registered"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Session wraps one live transport connection and its optional bound
// peer identifier. Transport resources stay owned by the adapter; the
// session only forwards Send/Close to it.
type Session struct {
	sid  core.SessionID
	conn core.SignalConnection

	mu    sync.Mutex
	id    domain.PeerID
	state SessionState
}

func NewSession(sid core.SessionID, conn core.SignalConnection) *Session {
	return &Session{sid: sid, conn: conn}
}

func (s *Session) SID() core.SessionID { return s.sid }

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PeerID returns the bound identifier, if the session ever registered.
func (s *Session) PeerID() (domain.PeerID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, s.id != ""
}

// Send forwards a frame to the transport. Fire-and-forget: a full send
// buffer surfaces as an error here and is not retried.
func (s *Session) Send(f core.Frame) error {
	return s.conn.TrySend(f)
}

// Close terminates the transport and moves the session to its terminal
// state. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()
	s.conn.Close()
}

// bind records a successful registration. Called by the router only.
func (s *Session) bind(id domain.PeerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateUnbound {
		s.id = id
		s.state = StateRegistered
	}
}
