// Package ed25519 wraps the standard library's Ed25519 primitive the way
// the teacher wraps its signature algorithms behind a narrow provider type,
// trimmed to the single curve this protocol signs with.
package ed25519

import (
	"crypto/ed25519"
	"errors"
)

var (
	// ErrInvalidPrivateKey is returned when a private key has the wrong length.
	ErrInvalidPrivateKey = errors.New("invalid ed25519 private key")
	// ErrInvalidPublicKey is returned when a public key has the wrong length.
	ErrInvalidPublicKey = errors.New("invalid ed25519 public key")
)

// Sign signs message with priv, returning the raw 64-byte signature.
func Sign(priv ed25519.PrivateKey, message []byte) ([]byte, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, ErrInvalidPrivateKey
	}
	return ed25519.Sign(priv, message), nil
}

// Verify reports whether sig is a valid signature of message under pub.
func Verify(pub ed25519.PublicKey, message, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(pub, message, sig)
}
