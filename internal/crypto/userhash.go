package crypto

import "encoding/hex"

// UserHash is the SHA-256 digest of a canonical user id (spec §3). It is the
// opaque key every ledger, consent, and discovery record is indexed by —
// callers never look up state by raw user id.
type UserHash [32]byte

// HashUserID computes the UserHash for a canonical user id string.
func HashUserID(userID string) UserHash {
	return UserHash(Hash([]byte(userID)))
}

// String returns the lowercase hex encoding of the hash.
func (h UserHash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero value.
func (h UserHash) IsZero() bool {
	return h == UserHash{}
}
