package discovery

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bioduds/askee/internal/crypto"
)

const wirePrefix = "askee-discovery:"

// EncodeSignal renders sig into the fixed wire format
// askee-discovery:<base64(json)>:<sha256(json)> (spec §4.C).
func EncodeSignal(sig Signal) (string, error) {
	body, err := json.Marshal(sig)
	if err != nil {
		return "", fmt.Errorf("discovery: marshal signal: %w", err)
	}
	sum := crypto.Hash(body)
	return wirePrefix + base64.StdEncoding.EncodeToString(body) + ":" + hex.EncodeToString(sum[:]), nil
}

// DecodeSignal parses and verifies the wire payload, recomputing the hash
// and checking the askee-discovery: prefix (spec §4.C). It does not check
// freshness or signatures — callers layer those checks on top.
func DecodeSignal(wire string) (Signal, error) {
	if !strings.HasPrefix(wire, wirePrefix) {
		return Signal{}, ErrMalformedPayload
	}
	rest := strings.TrimPrefix(wire, wirePrefix)

	idx := strings.LastIndex(rest, ":")
	if idx < 0 {
		return Signal{}, ErrMalformedPayload
	}
	encodedBody, encodedHash := rest[:idx], rest[idx+1:]

	body, err := base64.StdEncoding.DecodeString(encodedBody)
	if err != nil {
		return Signal{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	wantHash, err := hex.DecodeString(encodedHash)
	if err != nil {
		return Signal{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	gotHash := crypto.Hash(body)
	if hex.EncodeToString(gotHash[:]) != hex.EncodeToString(wantHash) {
		return Signal{}, ErrHashMismatch
	}

	var sig Signal
	if err := json.Unmarshal(body, &sig); err != nil {
		return Signal{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if !ValidChannel(sig.Channel) {
		return Signal{}, ErrUnknownChannel
	}
	return sig, nil
}
