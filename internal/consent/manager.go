package consent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bioduds/askee/internal/crypto"
	"github.com/bioduds/askee/internal/discovery"
	"github.com/bioduds/askee/internal/ledger"
)

// RevokedRetention is how long a revoked token id is kept in the fast
// rejection set before the cleanup sweep drops it (spec §4.D cleanup:
// "revoked-set retention is the implementer's choice (24 h suffices)").
const RevokedRetention = 24 * time.Hour

// Manager issues, validates, bills against, and revokes consent tokens
// (spec §4.D). It depends only on the narrow collaborators it needs: a
// discovery.Manager for invitation lookups, a ledger.Ledger for balance
// checks and billing, a TokenStore for persistence, and a RateTable for
// pricing.
type Manager struct {
	mu sync.Mutex

	store      TokenStore
	discovery  *discovery.Manager
	ledger     *ledger.Ledger
	rates      RateTable
	issuerPub  crypto.PublicKey
	issuerPriv crypto.PrivateKey
	logger     *slog.Logger

	revoked map[TokenID]time.Time // token id -> revoked_at

	now func() time.Time
}

// Config wires a Manager's collaborators.
type Config struct {
	Store      TokenStore
	Discovery  *discovery.Manager
	Ledger     *ledger.Ledger
	Rates      RateTable
	IssuerPub  crypto.PublicKey
	IssuerPriv crypto.PrivateKey
	Logger     *slog.Logger
}

// New constructs a Manager. A nil Store defaults to an in-memory one.
func New(cfg Config) *Manager {
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:      store,
		discovery:  cfg.Discovery,
		ledger:     cfg.Ledger,
		rates:      cfg.Rates,
		issuerPub:  cfg.IssuerPub,
		issuerPriv: cfg.IssuerPriv,
		logger:     logger,
		revoked:    make(map[TokenID]time.Time),
		now:        time.Now,
	}
}

// Issue validates req against its preconditions and, if all pass, mints and
// stores a signed Token (spec §4.D issuance).
func (m *Manager) Issue(ctx context.Context, req Request) (*Token, error) {
	if _, ok := m.discovery.Lookup(req.UserID, req.VerificationChannel); !ok {
		return nil, ErrNoVerifiedInvitation
	}

	active, err := m.activeTokenCount(req.UserID)
	if err != nil {
		return nil, err
	}
	if active >= MaxTokensPerUser {
		return nil, ErrTooManyActiveTokens
	}

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tokenIDRaw, err := crypto.TokenID()
	if err != nil {
		return nil, fmt.Errorf("consent: generating token id: %w", err)
	}

	issuedAt := m.now().UTC()
	token := Token{
		TokenID:     TokenID(tokenIDRaw),
		UserID:      req.UserID,
		Permissions: req.RequestedPermissions,
		Limits:      req.RequestedLimits,
		IssuedAt:    issuedAt,
		ExpiresAt:   issuedAt.Add(time.Duration(req.DurationHours) * time.Hour),
		Revoked:     false,
	}

	payload, err := crypto.CanonicalJSON(token)
	if err != nil {
		return nil, err
	}
	signature, err := crypto.Sign(m.issuerPriv, payload)
	if err != nil {
		return nil, err
	}
	token.Signature = signature

	if err := m.store.Save(token); err != nil {
		return nil, fmt.Errorf("consent: saving token: %w", err)
	}

	m.logger.Info("consent.issue", "user_id", req.UserID, "token_id", token.TokenID)
	result := token
	return &result, nil
}

// Revoke flips token_id's revoked flag and adds it to the fast-rejection
// set. Idempotent; the bool reports whether state actually changed
// (spec §4.D revocation).
func (m *Manager) Revoke(ctx context.Context, userID string, tokenID TokenID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, ok, err := m.store.Load(tokenID)
	if err != nil {
		return false, err
	}
	if !ok || token.UserID != userID {
		return false, ErrUnknownToken
	}
	if token.Revoked {
		return false, nil
	}

	token.Revoked = true
	if err := m.store.Save(token); err != nil {
		return false, fmt.Errorf("consent: saving revoked token: %w", err)
	}
	m.revoked[tokenID] = m.now().UTC()

	m.logger.Info("consent.revoke", "user_id", userID, "token_id", tokenID)
	return true, nil
}

// IsRevoked reports whether tokenID is in the fast-rejection set, without
// touching the backing store.
func (m *Manager) IsRevoked(tokenID TokenID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[tokenID]
	return ok
}

// RunCleanup periodically removes expired tokens and sweeps the revoked-set
// past its retention window, using the teacher's context-cancelable
// background-task idiom (internal/peermanagement/discovery.Discovery.Start).
func (m *Manager) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.cleanupOnce()
		}
	}
}

func (m *Manager) cleanupOnce() {
	now := m.now().UTC()

	tokens, err := m.store.LoadAll()
	if err != nil {
		m.logger.Warn("consent.cleanup_load_failed", "err", err)
		return
	}
	for _, t := range tokens {
		if t.IsExpired(now) {
			if err := m.store.Delete(t.TokenID); err != nil {
				m.logger.Warn("consent.cleanup_delete_failed", "token_id", t.TokenID, "err", err)
			}
		}
	}

	m.mu.Lock()
	for id, revokedAt := range m.revoked {
		if now.Sub(revokedAt) > RevokedRetention {
			delete(m.revoked, id)
		}
	}
	m.mu.Unlock()
}

func (m *Manager) activeTokenCount(userID string) (int, error) {
	tokens, err := m.store.LoadAllForUser(userID)
	if err != nil {
		return 0, err
	}
	now := m.now().UTC()
	count := 0
	for _, t := range tokens {
		if !t.Revoked && !t.IsExpired(now) {
			count++
		}
	}
	return count, nil
}

func validateRequest(req Request) error {
	if len(req.RequestedPermissions) == 0 {
		return ErrEmptyPermissions
	}
	limits := req.RequestedLimits
	if limits.CPU < 0 || limits.CPU > 100 || limits.RAM < 0 || limits.Storage < 0 || limits.Bandwidth < 0 {
		return ErrInvalidLimits
	}
	if req.DurationHours < 1 || req.DurationHours > 720 {
		return ErrInvalidDuration
	}
	return nil
}
