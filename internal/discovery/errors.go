package discovery

import "errors"

var (
	// ErrMalformedPayload is returned when a discovery signal does not match
	// the fixed askee-discovery:<payload>:<hash> wire format.
	ErrMalformedPayload = errors.New("discovery: malformed payload")
	// ErrHashMismatch is returned when the recomputed payload hash does not
	// match the signal's trailing hash segment.
	ErrHashMismatch = errors.New("discovery: hash mismatch")
	// ErrStaleSignal is returned when a signal's timestamp is older than the
	// configured freshness window.
	ErrStaleSignal = errors.New("discovery: stale signal")
	// ErrUnknownChannel is returned for a channel outside {DNS, WellKnown, QR}.
	ErrUnknownChannel = errors.New("discovery: unknown channel")
	// ErrSigningKeyRequired is returned when a Manager has no issuer key to
	// sign invitations with.
	ErrSigningKeyRequired = errors.New("discovery: issuer signing key required")
)
