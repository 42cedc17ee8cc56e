package app

import (
	"github.com/rs/zerolog/log"
)

// OnDisconnect reacts to a transport close or error: the session is
// moved to its terminal state and its registry entry, if any, is
// removed synchronously. Never lazily — a registered id always refers
// to an open transport.
func (r *Router) OnDisconnect(sess *Session, code int, reason string) {
	sess.Close()
	id, ok := r.Registry.UnregisterBySession(sess)
	ev := log.Info().Str("module", "app.lifecycle").Str("sid", string(sess.SID())).Int("code", code).Str("reason", reason)
	if ok {
		ev.Str("id", string(id)).Msg("peer disconnected")
		return
	}
	ev.Msg("connection closed before registration")
}
