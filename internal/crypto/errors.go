package crypto

import "errors"

var (
	// ErrInvalidSignature is returned when a signature fails verification.
	ErrInvalidSignature = errors.New("crypto: invalid signature")
	// ErrMalformedKey is returned when a key is the wrong size or otherwise malformed.
	ErrMalformedKey = errors.New("crypto: malformed key")
	// ErrCanonicalizationError is returned when a value cannot be canonically serialized.
	ErrCanonicalizationError = errors.New("crypto: canonicalization error")
)
