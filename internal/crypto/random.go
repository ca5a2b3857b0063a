package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
)

// ErrRandomGeneration is returned when random number generation fails.
var ErrRandomGeneration = errors.New("failed to generate random bytes")

// RandomBytes generates n cryptographically secure random bytes.
// It uses crypto/rand which reads from the system's CSPRNG.
func RandomBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}

	b := make([]byte, n)
	_, err := io.ReadFull(rand.Reader, b)
	if err != nil {
		return nil, ErrRandomGeneration
	}
	return b, nil
}

// RandomSecretKey generates a random Ed25519 secret key seed.
// The returned SecretKey should be closed when no longer needed to securely
// erase the key material from memory.
func RandomSecretKey() (*SecretKey, error) {
	seed, err := RandomBytes(SecretKeyEd25519Size)
	if err != nil {
		return nil, err
	}
	return NewSecretKey(seed), nil
}

// GenerateKeyPair generates a random Ed25519 key pair. The seed is held in
// a SecretKey and securely erased as soon as the derived key pair no
// longer needs it.
func GenerateKeyPair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	sk, err := RandomSecretKey()
	if err != nil {
		return nil, nil, err
	}
	defer sk.Close()

	priv := ed25519.NewKeyFromSeed(sk.Data())
	pub := priv.Public().(ed25519.PublicKey)
	return pub, priv, nil
}

// TokenID returns a random, opaque identifier: 16 random bytes, lowercase
// hex-encoded, per the canonical serialization rules (§6).
func TokenID() (string, error) {
	b, err := RandomBytes(16)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
