package app

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/rendezvous/internal/core"
	"github.com/dkeye/rendezvous/internal/domain"
	"github.com/gorilla/websocket"
)

func registerFrame(id string) core.Frame {
	return core.Frame(fmt.Sprintf(`{"type":"register","payload":{"id":%q}}`, id))
}

func signalFrame(source, target string) core.Frame {
	return core.Frame(fmt.Sprintf(`{"type":"signal","payload":{"source":%q,"target":%q,"type":"offer","sdp":"v=0 fake"}}`, source, target))
}

func TestRouter_Register(t *testing.T) {
	rt := NewRouter(NewRegistry(), 5)
	sess, conn := newTestSession("s1")

	rt.OnFrame(sess, registerFrame("alice"))

	assert.Equal(t, StateRegistered, sess.State())
	id, ok := sess.PeerID()
	require.True(t, ok)
	assert.Equal(t, domain.PeerID("alice"), id)
	assert.False(t, conn.isClosed())
	assert.Empty(t, conn.frames(), "no ack on successful register")
}

func TestRouter_RegisterCollision(t *testing.T) {
	rt := NewRouter(NewRegistry(), 5)
	first, firstConn := newTestSession("s1")
	second, secondConn := newTestSession("s2")

	rt.OnFrame(first, registerFrame("alice"))
	rt.OnFrame(second, registerFrame("alice"))

	// New connection terminated with no reply; original untouched.
	assert.True(t, secondConn.isClosed())
	assert.Empty(t, secondConn.frames())
	assert.Equal(t, StateClosed, second.State())
	assert.False(t, firstConn.isClosed())
	assert.Equal(t, StateRegistered, first.State())

	got, ok := rt.Registry.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, first, got)
}

func TestRouter_RegisterTruncation(t *testing.T) {
	rt := NewRouter(NewRegistry(), 5)
	long, _ := newTestSession("s1")
	exact, exactConn := newTestSession("s2")

	rt.OnFrame(long, registerFrame("alexander"))

	id, ok := long.PeerID()
	require.True(t, ok)
	assert.Equal(t, domain.PeerID("alexa"), id)

	// The truncated prefix is now taken.
	rt.OnFrame(exact, registerFrame("alexa"))
	assert.True(t, exactConn.isClosed())
}

func TestRouter_RegisterEmptyID(t *testing.T) {
	rt := NewRouter(NewRegistry(), 5)
	sess, conn := newTestSession("s1")

	rt.OnFrame(sess, registerFrame("   "))

	assert.True(t, conn.isClosed())
	assert.Equal(t, 0, rt.Registry.Count())
}

func TestRouter_ReRegisterRejected(t *testing.T) {
	rt := NewRouter(NewRegistry(), 5)
	sess, conn := newTestSession("s1")

	rt.OnFrame(sess, registerFrame("alice"))
	rt.OnFrame(sess, registerFrame("fresh"))

	assert.True(t, conn.isClosed())
	assert.Equal(t, StateClosed, sess.State())
	// The original binding stays until lifecycle cleanup runs.
	_, ok := rt.Registry.Lookup("alice")
	assert.True(t, ok)
	_, ok = rt.Registry.Lookup("fresh")
	assert.False(t, ok)
}

func TestRouter_SignalForwardVerbatim(t *testing.T) {
	rt := NewRouter(NewRegistry(), 5)
	alice, aliceConn := newTestSession("s1")
	bob, bobConn := newTestSession("s2")
	other, otherConn := newTestSession("s3")

	rt.OnFrame(alice, registerFrame("alice"))
	rt.OnFrame(bob, registerFrame("bob"))
	rt.OnFrame(other, registerFrame("carol"))

	raw := signalFrame("alice", "bob")
	rt.OnFrame(alice, raw)

	frames := bobConn.frames()
	require.Len(t, frames, 1)
	assert.Equal(t, []byte(raw), []byte(frames[0]), "forwarded byte-for-byte")

	// Fire-and-forget: no ack to the sender, nothing to bystanders.
	assert.Empty(t, aliceConn.frames())
	assert.Empty(t, otherConn.frames())
	assert.False(t, aliceConn.isClosed())
}

func TestRouter_SignalIdentityMismatch(t *testing.T) {
	rt := NewRouter(NewRegistry(), 5)
	alice, _ := newTestSession("s1")
	bob, bobConn := newTestSession("s2")
	mallory, malloryConn := newTestSession("s3")

	rt.OnFrame(alice, registerFrame("alice"))
	rt.OnFrame(bob, registerFrame("bob"))
	rt.OnFrame(mallory, registerFrame("mallo"))

	rt.OnFrame(mallory, signalFrame("alice", "bob"))

	assert.True(t, malloryConn.isClosed())
	assert.Empty(t, bobConn.frames(), "nothing forwarded on impersonation")
}

func TestRouter_SignalUnknownSource(t *testing.T) {
	rt := NewRouter(NewRegistry(), 5)
	sess, conn := newTestSession("s1")

	// Never registered: any claimed source fails the identity check.
	rt.OnFrame(sess, signalFrame("alice", "bob"))

	assert.True(t, conn.isClosed())
}

func TestRouter_SignalUnknownTarget(t *testing.T) {
	rt := NewRouter(NewRegistry(), 5)
	alice, aliceConn := newTestSession("s1")
	rt.OnFrame(alice, registerFrame("alice"))

	rt.OnFrame(alice, signalFrame("alice", "ghost"))

	frames := aliceConn.frames()
	require.Len(t, frames, 1)

	var env struct {
		Type    EnvelopeType `json:"type"`
		Payload struct {
			Message string `json:"message"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(frames[0], &env))
	assert.Equal(t, EnvError, env.Type)
	assert.Equal(t, "Connection ghost unknown", env.Payload.Message)

	// Sender stays open and registered.
	assert.False(t, aliceConn.isClosed())
	assert.Equal(t, StateRegistered, alice.State())
}

func TestRouter_DropLeavesStateUntouched(t *testing.T) {
	rt := NewRouter(NewRegistry(), 5)
	alice, aliceConn := newTestSession("s1")
	rt.OnFrame(alice, registerFrame("alice"))
	before := rt.Registry.Count()

	drops := []string{
		`not json at all`,
		`{"type":"error","payload":{"message":"x"}}`,
		`{"type":"hello","payload":{}}`,
		`{"type":"register","payload":null}`,
		`{"type":"signal"}`,
	}
	for _, raw := range drops {
		rt.OnFrame(alice, core.Frame(raw))
	}

	assert.Equal(t, before, rt.Registry.Count())
	assert.Empty(t, aliceConn.frames())
	assert.False(t, aliceConn.isClosed())
}

func TestRouter_DisconnectCleanup(t *testing.T) {
	rt := NewRouter(NewRegistry(), 5)
	alice, _ := newTestSession("s1")
	rt.OnFrame(alice, registerFrame("alice"))
	require.Equal(t, 1, rt.Registry.Count())

	rt.OnDisconnect(alice, websocket.CloseNormalClosure, "bye")

	assert.Equal(t, StateClosed, alice.State())
	assert.Equal(t, 0, rt.Registry.Count())

	// The id is free again for a different connection.
	second, _ := newTestSession("s2")
	rt.OnFrame(second, registerFrame("alice"))
	assert.Equal(t, StateRegistered, second.State())
}

func TestRouter_DisconnectUnregistered(t *testing.T) {
	rt := NewRouter(NewRegistry(), 5)
	sess, _ := newTestSession("s1")

	// No registry side effect for a session that never registered.
	rt.OnDisconnect(sess, websocket.CloseGoingAway, "gone")
	assert.Equal(t, 0, rt.Registry.Count())
	assert.Equal(t, StateClosed, sess.State())
}
