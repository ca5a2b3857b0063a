// Package consent implements the consent token lifecycle: issuance bound to
// a verified discovery invitation, validation for a candidate task, billing
// during execution, revocation, and periodic cleanup (spec §4.D).
package consent

import (
	"time"

	"github.com/bioduds/askee/internal/crypto"
	"github.com/bioduds/askee/internal/discovery"
)

// MaxTokensPerUser bounds how many active (non-expired, non-revoked) tokens
// one user may hold at once (spec §4.D).
const MaxTokensPerUser = 10

// TokenID is an opaque, unique token identifier.
type TokenID string

// Limits is the resource cap vector a token authorizes (spec §4.D).
type Limits struct {
	CPU       float64 `json:"cpu"`
	RAM       float64 `json:"ram"`
	Storage   float64 `json:"storage"`
	Bandwidth float64 `json:"bandwidth"`
}

// Get returns the limit named by key, for validation against an arbitrary
// required-resource vector (spec §4.D, validation rule 5).
func (l Limits) Get(key string) (float64, bool) {
	switch key {
	case "cpu":
		return l.CPU, true
	case "ram":
		return l.RAM, true
	case "storage":
		return l.Storage, true
	case "bandwidth":
		return l.Bandwidth, true
	default:
		return 0, false
	}
}

// Request is the caller-supplied input to Issue (spec §4.D).
type Request struct {
	UserID               string          `json:"user_id"`
	RequestedPermissions map[string]bool `json:"requested_permissions"`
	RequestedLimits      Limits          `json:"requested_limits"`
	DurationHours        int             `json:"duration_hours"`
	VerificationChannel  discovery.Channel `json:"verification_channel"`
}

// Token is a signed, capability-bearing credential (spec §4.D). Signature is
// computed over the canonical serialization of every other field.
type Token struct {
	TokenID     TokenID         `json:"token_id"`
	UserID      string          `json:"user_id"`
	Permissions map[string]bool `json:"permissions"`
	Limits      Limits          `json:"limits"`
	IssuedAt    time.Time       `json:"issued_at"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Revoked     bool            `json:"revoked"`
	Signature   []byte          `json:"signature" canonical:"-"`
}

// IsExpired reports whether the token's validity window has elapsed as of at.
func (t Token) IsExpired(at time.Time) bool {
	return !at.Before(t.ExpiresAt)
}

// PublicKey and PrivateKey re-export crypto's key aliases for this package's
// public API.
type (
	PublicKey  = crypto.PublicKey
	PrivateKey = crypto.PrivateKey
)
