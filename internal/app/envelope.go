package app

import (
	"bytes"
	"encoding/json"

	"github.com/dkeye/rendezvous/internal/core"
)

type EnvelopeType string

const (
	EnvRegister EnvelopeType = "register"
	EnvSignal   EnvelopeType = "signal"
	// EnvError is outbound only; an inbound "error" frame is dropped
	// like any other unrecognized type.
	EnvError EnvelopeType = "error"
)

// Envelope is the {type, payload} wire message unit. Payload is kept
// raw: signal payloads are forwarded verbatim and never round-tripped
// through typed structs.
type Envelope struct {
	Type    EnvelopeType    `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type RegisterPayload struct {
	ID string `json:"id"`
}

// SignalPayload carries only the addressing fields the coordinator
// reads; everything else in the payload is opaque cargo.
type SignalPayload struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

var jsonNull = []byte("null")

// DecodeEnvelope parses a raw text frame. It returns ok=false for
// frames that fail structural parsing, carry an unrecognized type, or
// have an absent/null payload; such frames are silently dropped by the
// caller with no side effects.
func DecodeEnvelope(data []byte) (Envelope, bool) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, false
	}
	if env.Type != EnvRegister && env.Type != EnvSignal {
		return Envelope{}, false
	}
	if len(env.Payload) == 0 || bytes.Equal(env.Payload, jsonNull) {
		return Envelope{}, false
	}
	return env, true
}

type errorPayload struct {
	Message string `json:"message"`
}

// ErrorFrame builds the server->client error envelope.
func ErrorFrame(msg string) core.Frame {
	env := struct {
		Type    EnvelopeType `json:"type"`
		Payload errorPayload `json:"payload"`
	}{
		Type:    EnvError,
		Payload: errorPayload{Message: msg},
	}
	b, _ := json.Marshal(env)
	return b
}
