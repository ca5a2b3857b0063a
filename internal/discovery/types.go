// Package discovery implements the channel-scoped invitation handshake that
// gates who may later receive a consent token (spec §4.C). It is the
// smallest of the kernel's components: verify a signed signal once per
// (user_id, channel), record it, and let internal/consent read it back.
package discovery

import (
	"time"

	"github.com/bioduds/askee/internal/crypto"
)

// Channel is a discovery transport (spec §4.C, exact wire strings).
type Channel string

const (
	DNS       Channel = "DNS"
	WellKnown Channel = "WellKnown"
	QR        Channel = "QR"
)

// ValidChannel reports whether c is one of the three defined channels.
func ValidChannel(c Channel) bool {
	switch c {
	case DNS, WellKnown, QR:
		return true
	default:
		return false
	}
}

// Signal is the payload embedded in an askee-discovery: wire message before
// it is verified (spec §4.C).
type Signal struct {
	UserID    string        `json:"user_id"`
	Channel   Channel       `json:"channel"`
	PublicKey crypto.PublicKey `json:"public_key"`
	Timestamp time.Time     `json:"timestamp"`
}

// VerifiedInvitation is the signed record produced by a successful
// VerifySignal call (spec §4.C). It is what internal/consent consults when
// issuing a token.
type VerifiedInvitation struct {
	UserID     string    `json:"user_id"`
	Channel    Channel   `json:"channel"`
	VerifiedAt time.Time `json:"verified_at"`
	Signature  []byte    `json:"signature" canonical:"-"`
}

type invitationKey struct {
	UserID  string
	Channel Channel
}
