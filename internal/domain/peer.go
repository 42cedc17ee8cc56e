// Package domain contains entities without logic, just meta-data.
package domain

import (
	"errors"
	"strings"
	"unicode"
)

// DefaultMaxPeerIDLen bounds peer identifiers when no explicit limit is
// configured.
const DefaultMaxPeerIDLen = 5

var (
	ErrPeerIDEmpty   = errors.New("peer id empty")
	ErrPeerIDInvalid = errors.New("peer id contains control characters")
)

// PeerID is a client-chosen short string naming a peer for rendezvous.
type PeerID string

// NormalizePeerID trims surrounding whitespace and truncates the raw
// identifier to maxLen runes. The result must be non-empty and free of
// control characters; anything else is rejected outright rather than
// allowed into the registry.
func NormalizePeerID(raw string, maxLen int) (PeerID, error) {
	if maxLen <= 0 {
		maxLen = DefaultMaxPeerIDLen
	}
	trimmed := strings.TrimSpace(raw)
	runes := []rune(trimmed)
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}
	if len(runes) == 0 {
		return "", ErrPeerIDEmpty
	}
	for _, r := range runes {
		if unicode.IsControl(r) {
			return "", ErrPeerIDInvalid
		}
	}
	return PeerID(string(runes)), nil
}
