package app

import (
	"sync"

	"github.com/dkeye/rendezvous/internal/domain"
	"github.com/rs/zerolog/log"
)

// Registry is the unique-key mapping from peer identifier to live
// session. A secondary session->id index is maintained under the same
// lock so close-time cleanup never scans the primary map.
type Registry struct {
	mu        sync.RWMutex
	byID      map[domain.PeerID]*Session
	bySession map[*Session]domain.PeerID
}

func NewRegistry() *Registry {
	return &Registry{
		byID:      make(map[domain.PeerID]*Session),
		bySession: make(map[*Session]domain.PeerID),
	}
}

// TryRegister binds id to sess iff id is not already taken. On collision
// nothing is mutated and false is returned; the existing registrant is
// left untouched.
func (r *Registry) TryRegister(id domain.PeerID, sess *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byID[id]; taken {
		return false
	}
	r.byID[id] = sess
	r.bySession[sess] = id
	log.Info().Str("module", "app.registry").Str("id", string(id)).Int("peers", len(r.byID)).Msg("registered")
	return true
}

func (r *Registry) Lookup(id domain.PeerID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.byID[id]
	return sess, ok
}

// Resolve looks up source and target under one read lock so the signal
// path sees a consistent snapshot of both entries.
func (r *Registry) Resolve(source, target domain.PeerID) (src, dst *Session) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[source], r.byID[target]
}

// UnregisterBySession removes the entry owned by sess, if any, and
// returns the identifier it was bound to. Both indexes are updated
// together so they never disagree.
func (r *Registry) UnregisterBySession(sess *Session) (domain.PeerID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.bySession[sess]
	if !ok {
		return "", false
	}
	delete(r.bySession, sess)
	delete(r.byID, id)
	log.Info().Str("module", "app.registry").Str("id", string(id)).Int("peers", len(r.byID)).Msg("unregistered")
	return id, true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
