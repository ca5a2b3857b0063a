package di

import (
	"context"
	"fmt"

	"github.com/bioduds/askee/internal/consent"
	"github.com/bioduds/askee/internal/core"
	"github.com/bioduds/askee/internal/crypto"
	"github.com/bioduds/askee/internal/ledger/pebblesink"
	"github.com/bioduds/askee/internal/policy"
)

// Provider configures and registers the kernel's services in a Container
// (grounded on the teacher's internal/di.Provider, rewritten to build a
// single Core rather than an XRPL node's storage/ledger/RPC stack).
type Provider struct {
	container     *Container
	policy        *policy.Policy
	issuerPub     crypto.PublicKey
	issuerPriv    crypto.PrivateKey
	sinkPath      string
	tokenStoreDir string
}

// NewProvider creates a Provider that will build a Core from p, signing
// with the given issuer keypair. sinkPath, if non-empty, wires a durable
// pebble-backed ledger.Sink; an empty path keeps the ledger in-memory only.
// tokenStoreDir, if non-empty, wires a JSON-file-backed consent.TokenStore
// rooted at that directory; an empty path keeps tokens in memory only.
func NewProvider(container *Container, p *policy.Policy, issuerPub crypto.PublicKey, issuerPriv crypto.PrivateKey, sinkPath, tokenStoreDir string) *Provider {
	return &Provider{container: container, policy: p, issuerPub: issuerPub, issuerPriv: issuerPriv, sinkPath: sinkPath, tokenStoreDir: tokenStoreDir}
}

// RegisterAll registers the policy value and a lazy Core builder.
func (p *Provider) RegisterAll() error {
	p.container.Register(ServicePolicy, p.policy)

	p.container.RegisterBuilder(ServiceCore, func(c *Container) (interface{}, error) {
		cfg := core.Config{
			Policy:           p.policy,
			IssuerPublicKey:  p.issuerPub,
			IssuerPrivateKey: p.issuerPriv,
		}

		if p.sinkPath != "" {
			s, err := pebblesink.Open(p.sinkPath)
			if err != nil {
				return nil, fmt.Errorf("di: opening ledger sink at %s: %w", p.sinkPath, err)
			}
			cfg.LedgerSink = s
		}

		if p.tokenStoreDir != "" {
			fs := consent.NewFileStore(p.tokenStoreDir)
			if err := fs.LoadFile(); err != nil {
				return nil, fmt.Errorf("di: loading token store at %s: %w", p.tokenStoreDir, err)
			}
			cfg.TokenStore = fs
		}

		return core.New(context.Background(), cfg)
	})

	return nil
}

// GetCore resolves the lazily-built Core from the container.
func (p *Provider) GetCore() (*core.Core, error) {
	svc, err := p.container.Get(ServiceCore)
	if err != nil {
		return nil, err
	}
	return svc.(*core.Core), nil
}

// GetPolicy returns the policy registered with the container.
func (p *Provider) GetPolicy() *policy.Policy {
	return p.policy
}
