package app

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/rendezvous/internal/core"
	"github.com/dkeye/rendezvous/internal/domain"
	"github.com/rs/zerolog/log"
)

// Router owns all dispatch policy: collision handling, identity
// enforcement and unknown-target handling. It is safe for concurrent
// use; the registry is the only shared state it touches.
type Router struct {
	Registry *Registry
	MaxIDLen int
}

func NewRouter(reg *Registry, maxIDLen int) *Router {
	if maxIDLen <= 0 {
		maxIDLen = domain.DefaultMaxPeerIDLen
	}
	return &Router{Registry: reg, MaxIDLen: maxIDLen}
}

// OnFrame is the single entry point for inbound frames. Malformed or
// unrecognized envelopes are dropped without side effects.
func (r *Router) OnFrame(sess *Session, data core.Frame) {
	env, ok := DecodeEnvelope(data)
	if !ok {
		log.Debug().Str("module", "app.router").Str("sid", string(sess.SID())).Msg("dropped unrecognized frame")
		return
	}

	switch env.Type {
	case EnvRegister:
		r.handleRegister(sess, env.Payload)
	case EnvSignal:
		r.handleSignal(sess, data, env.Payload)
	}
}

func (r *Router) handleRegister(sess *Session, payload json.RawMessage) {
	if sess.State() != StateUnbound {
		// A session registers exactly once; a second attempt is a
		// protocol violation and terminates the connection.
		log.Warn().Str("module", "app.router").Str("sid", string(sess.SID())).Str("state", sess.State().String()).Msg("re-registration rejected")
		sess.Close()
		return
	}

	var p RegisterPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		log.Debug().Err(err).Str("module", "app.router").Str("sid", string(sess.SID())).Msg("dropped bad register payload")
		return
	}

	id, err := domain.NormalizePeerID(p.ID, r.MaxIDLen)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.router").Str("sid", string(sess.SID())).Msg("rejected peer id")
		sess.Close()
		return
	}

	if !r.Registry.TryRegister(id, sess) {
		// The existing registrant wins; the colliding connection is
		// closed with no reply.
		log.Warn().Str("module", "app.router").Str("id", string(id)).Str("sid", string(sess.SID())).Msg("duplicate peer id")
		sess.Close()
		return
	}
	sess.bind(id)
}

func (r *Router) handleSignal(sess *Session, raw core.Frame, payload json.RawMessage) {
	var p SignalPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		log.Debug().Err(err).Str("module", "app.router").Str("sid", string(sess.SID())).Msg("dropped bad signal payload")
		return
	}

	src, dst := r.Registry.Resolve(domain.PeerID(p.Source), domain.PeerID(p.Target))

	if src != sess {
		// Claimed source is not the sending connection: impersonation
		// attempt, terminate without forwarding.
		log.Warn().Str("module", "app.router").Str("source", p.Source).Str("sid", string(sess.SID())).Msg("signal source mismatch")
		sess.Close()
		return
	}

	if dst == nil {
		msg := fmt.Sprintf("Connection %s unknown", p.Target)
		log.Info().Str("module", "app.router").Str("source", p.Source).Str("target", p.Target).Msg("signal target unknown")
		if err := sess.Send(ErrorFrame(msg)); err != nil {
			log.Warn().Err(err).Str("module", "app.router").Str("source", p.Source).Msg("error reply dropped")
		}
		return
	}

	// Forward the original frame verbatim; signal-specific fields are
	// opaque cargo and never inspected.
	if err := dst.Send(raw); err != nil {
		log.Warn().Err(err).Str("module", "app.router").Str("source", p.Source).Str("target", p.Target).Msg("forward dropped")
	}
}
