package crypto

import (
	"crypto/ed25519"
	"crypto/sha256"

	ed25519algo "github.com/bioduds/askee/internal/crypto/algorithms/ed25519"
)

// PublicKey and PrivateKey alias the standard library's Ed25519 key types so
// callers never need to import crypto/ed25519 directly.
type (
	PublicKey  = ed25519.PublicKey
	PrivateKey = ed25519.PrivateKey
)

// Sign signs payload with priv using Ed25519 (spec §4.A).
func Sign(priv PrivateKey, payload []byte) ([]byte, error) {
	sig, err := ed25519algo.Sign(priv, payload)
	if err != nil {
		return nil, ErrMalformedKey
	}
	return sig, nil
}

// Verify reports whether sig is a valid Ed25519 signature of payload under pub.
func Verify(pub PublicKey, payload, sig []byte) bool {
	return ed25519algo.Verify(pub, payload, sig)
}

// Hash returns the SHA-256 digest of b (spec §4.A).
func Hash(b []byte) [32]byte {
	return sha256.Sum256(b)
}
