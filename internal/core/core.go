// Package core wires the kernel's components into one explicitly-owned
// instance (spec §9: "instantiate a Core and pass it explicitly", avoiding
// process-level singletons). A Core is the unit an embedder constructs once
// — via cmd/askeed or a test harness — and passes by reference to every
// collaborator that needs it.
package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/bioduds/askee/internal/consent"
	"github.com/bioduds/askee/internal/crypto"
	"github.com/bioduds/askee/internal/discovery"
	"github.com/bioduds/askee/internal/executor"
	"github.com/bioduds/askee/internal/gate"
	"github.com/bioduds/askee/internal/ledger"
	"github.com/bioduds/askee/internal/policy"
)

// Core owns one instance of every kernel component (spec §2 components
// A-F). Nothing outside this struct holds its own copy of the ledger,
// consent table, or invitation store.
type Core struct {
	Policy    *policy.Policy
	Ledger    *ledger.Ledger
	Discovery *discovery.Manager
	Consent   *consent.Manager
	Gate      *gate.Gate

	IssuerPublicKey  crypto.PublicKey
	IssuerPrivateKey crypto.PrivateKey
}

// Config supplies the pieces a Core cannot default on its own: the loaded
// policy, the issuer keypair that signs invitations and tokens, and
// optional collaborators an embedder wants to override (sink, executor,
// consent store, logger).
type Config struct {
	Policy           *policy.Policy
	IssuerPublicKey  crypto.PublicKey
	IssuerPrivateKey crypto.PrivateKey

	LedgerSink ledger.Sink
	TokenStore consent.TokenStore
	Executor   executor.Executor
	Logger     *slog.Logger
}

// New constructs a fully-wired Core: a ledger, a discovery manager signing
// invitations with the issuer key, a consent manager reading through both,
// and a workload gate reading through the ledger and consent manager (spec
// §2 flow). A nil Executor defaults to one that always fails — an embedder
// must supply a real one before dispatching workloads. If cfg.LedgerSink
// already holds a prior journal, New replays it into the ledger before
// returning (spec §6 recovery contract).
func New(ctx context.Context, cfg Config) (*Core, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	l, err := ledger.New(ledger.Config{Sink: cfg.LedgerSink, Logger: logger})
	if err != nil {
		return nil, err
	}
	if cfg.LedgerSink != nil {
		if err := l.Restore(ctx); err != nil {
			return nil, err
		}
	}

	disc := discovery.NewManager(cfg.IssuerPublicKey, cfg.IssuerPrivateKey, 0)

	consentMgr := consent.New(consent.Config{
		Store:      cfg.TokenStore,
		Discovery:  disc,
		Ledger:     l,
		Rates:      cfg.Policy,
		IssuerPub:  cfg.IssuerPublicKey,
		IssuerPriv: cfg.IssuerPrivateKey,
		Logger:     logger,
	})

	exec := cfg.Executor
	if exec == nil {
		exec = &executor.Fixed{Err: executor.ErrExecutionFailed}
	}

	g := gate.New(gate.Config{
		Ledger:   l,
		Consent:  consentMgr,
		Policy:   cfg.Policy,
		Executor: exec,
		Logger:   logger,
	})

	return &Core{
		Policy:           cfg.Policy,
		Ledger:           l,
		Discovery:        disc,
		Consent:          consentMgr,
		Gate:             g,
		IssuerPublicKey:  cfg.IssuerPublicKey,
		IssuerPrivateKey: cfg.IssuerPrivateKey,
	}, nil
}

// RunCleanup starts the consent manager's background expiry sweep; callers
// should run this in its own goroutine and cancel ctx on shutdown (spec
// §4.D cleanup).
func (c *Core) RunCleanup(ctx context.Context, interval time.Duration) {
	c.Consent.RunCleanup(ctx, interval)
}
