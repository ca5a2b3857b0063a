package discovery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bioduds/askee/internal/crypto"
)

// DefaultSignalMaxAge is the staleness window used when Manager is
// constructed without an explicit one (spec §4.C: "stale timestamps may be
// rejected by policy"; SPEC_FULL §C fixes the default at 10 minutes,
// mirroring the teacher's handshake.NetworkClockTolerance).
const DefaultSignalMaxAge = 10 * time.Minute

// Manager verifies discovery signals and stores the resulting invitations,
// indexed so that internal/consent can look one up by (user_id, channel)
// when issuing a token (spec §4.D precondition 1).
type Manager struct {
	mu sync.RWMutex

	verified map[invitationKey]VerifiedInvitation

	issuerPub  crypto.PublicKey
	issuerPriv crypto.PrivateKey
	maxAge     time.Duration
	logger     *slog.Logger

	now func() time.Time
}

// NewManager constructs a Manager that signs invitations with issuerPriv.
// maxAge of zero selects DefaultSignalMaxAge.
func NewManager(issuerPub crypto.PublicKey, issuerPriv crypto.PrivateKey, maxAge time.Duration) *Manager {
	if maxAge <= 0 {
		maxAge = DefaultSignalMaxAge
	}
	return &Manager{
		verified:   make(map[invitationKey]VerifiedInvitation),
		issuerPub:  issuerPub,
		issuerPriv: issuerPriv,
		maxAge:     maxAge,
		logger:     slog.Default(),
		now:        time.Now,
	}
}

// VerifySignal parses, validates, and records wire (spec §4.C). Exactly one
// verified invitation is kept per (user_id, channel): a re-verification of
// an already-verified pair is idempotent and returns (nil, nil) rather than
// creating a duplicate, matching the spec's "returns None" contract.
func (m *Manager) VerifySignal(ctx context.Context, wire string) (*VerifiedInvitation, error) {
	if len(m.issuerPriv) == 0 {
		return nil, ErrSigningKeyRequired
	}

	sig, err := DecodeSignal(wire)
	if err != nil {
		return nil, err
	}

	if m.now().Sub(sig.Timestamp) > m.maxAge {
		return nil, ErrStaleSignal
	}

	key := invitationKey{UserID: sig.UserID, Channel: sig.Channel}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.verified[key]; exists {
		return nil, nil
	}

	invitation := VerifiedInvitation{
		UserID:     sig.UserID,
		Channel:    sig.Channel,
		VerifiedAt: m.now().UTC(),
	}

	payload, err := crypto.CanonicalJSON(invitation)
	if err != nil {
		return nil, err
	}
	signature, err := crypto.Sign(m.issuerPriv, payload)
	if err != nil {
		return nil, err
	}
	invitation.Signature = signature

	m.verified[key] = invitation
	m.logger.Info("discovery.verify_signal", "user_id", sig.UserID, "channel", sig.Channel)

	result := invitation
	return &result, nil
}

// Lookup returns the verified invitation for (userID, channel), if any.
func (m *Manager) Lookup(userID string, channel Channel) (VerifiedInvitation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inv, ok := m.verified[invitationKey{UserID: userID, Channel: channel}]
	return inv, ok
}

// VerifyInvitationSignature checks inv's signature against the manager's
// issuer public key, for callers that only hold a copy of the invitation.
func (m *Manager) VerifyInvitationSignature(inv VerifiedInvitation) bool {
	signature := inv.Signature
	inv.Signature = nil
	payload, err := crypto.CanonicalJSON(inv)
	if err != nil {
		return false
	}
	return crypto.Verify(m.issuerPub, payload, signature)
}

// ScanAndVerify drains every pending signal for channel from transport and
// verifies each one, returning the invitations newly created (skipping
// malformed, stale, or already-verified signals rather than failing the
// whole scan).
func (m *Manager) ScanAndVerify(ctx context.Context, transport Transport, channel Channel) ([]VerifiedInvitation, error) {
	wires, err := transport.Scan(ctx, channel)
	if err != nil {
		return nil, err
	}

	var out []VerifiedInvitation
	for _, wire := range wires {
		inv, err := m.VerifySignal(ctx, wire)
		if err != nil {
			m.logger.Warn("discovery.scan_reject", "channel", channel, "err", err)
			continue
		}
		if inv != nil {
			out = append(out, *inv)
		}
	}
	return out, nil
}
