// Package crypto provides the cryptographic primitives the trust kernel is
// built on: Ed25519 sign/verify, SHA-256 hashing, random identifiers, and the
// single canonical serialization format used for every signed record
// (consent tokens, invitations, protocol headers). Signing and verification
// both go through CanonicalJSON so there is exactly one canonical form in
// this repository, resolving the ambiguity the source design flagged.
package crypto
