package gate

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/bioduds/askee/internal/amount"
	"github.com/bioduds/askee/internal/consent"
	"github.com/bioduds/askee/internal/crypto"
	"github.com/bioduds/askee/internal/executor"
	"github.com/bioduds/askee/internal/ledger"
	"github.com/bioduds/askee/internal/policy"
)

// ProtocolVersion is the only header version this gate accepts (spec §3).
const ProtocolVersion = "askee/1"

// Config wires a Gate's collaborators.
type Config struct {
	Ledger   *ledger.Ledger
	Consent  *consent.Manager
	Policy   *policy.Policy
	Registry *Registry
	Executor executor.Executor
	Logger   *slog.Logger
}

// Gate runs the admission pipeline (spec §4.E) and settles completed
// workloads against the ledger. It depends only on the narrow collaborators
// above — never a concrete transport or runtime (spec §9).
type Gate struct {
	ledger   *ledger.Ledger
	consent  *consent.Manager
	policy   *policy.Policy
	registry *Registry
	executor executor.Executor
	limiter  *rateLimiter
	logger   *slog.Logger

	mu      sync.Mutex
	history []CompletionRecord

	now func() time.Time
}

// New constructs a Gate. A nil Registry defaults to an empty one.
func New(cfg Config) *Gate {
	registry := cfg.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		ledger:   cfg.Ledger,
		consent:  cfg.Consent,
		policy:   cfg.Policy,
		registry: registry,
		executor: cfg.Executor,
		limiter:  newRateLimiter(),
		logger:   logger,
		now:      time.Now,
	}
}

// Registry exposes the gate's agent registry so callers can register and
// blacklist agents.
func (g *Gate) Registry() *Registry { return g.registry }

// Ledger exposes the gate's underlying ledger for callers (e.g. the CLI)
// that need to read balances without holding their own reference.
func (g *Gate) Ledger() *ledger.Ledger { return g.ledger }

// Admit runs the full nine-step admission pipeline in order, short-
// circuiting on the first failure (spec §4.E). On success the request is
// inserted into the active-workload set and the resolved Agent is returned
// so the caller can dispatch to an executor without a second lookup.
func (g *Gate) Admit(ctx context.Context, req Request) (Agent, error) {
	p := g.policy

	// 1. Header well-formed; network matches; freshness window.
	if req.Header.Version != ProtocolVersion || req.Header.RequestID == "" || req.Header.AgentID == "" {
		return Agent{}, g.admissionErr(HeaderInvalid, fmt.Errorf("malformed header"))
	}
	if req.Header.NetworkID != p.NetworkID {
		return Agent{}, g.admissionErr(NetworkMismatch, fmt.Errorf("network %q != %q", req.Header.NetworkID, p.NetworkID))
	}
	if drift := g.now().UnixMilli() - req.Header.TimestampMs; drift > p.FreshnessWindowMs || drift < -p.FreshnessWindowMs {
		return Agent{}, g.admissionErr(HeaderInvalid, fmt.Errorf("timestamp drift %dms exceeds %dms window", drift, p.FreshnessWindowMs))
	}

	// 2. Agent registered and not blacklisted.
	agent, ok := g.registry.Get(req.Header.AgentID)
	if !ok {
		return Agent{}, g.admissionErr(AgentUnknown, fmt.Errorf("agent %q not registered", req.Header.AgentID))
	}
	if agent.Blacklisted {
		return Agent{}, g.admissionErr(AgentBlacklisted, fmt.Errorf("agent %q is blacklisted", req.Header.AgentID))
	}

	// 3. Model allowed for this agent.
	if !agent.AllowsModel(req.ModelID) {
		return Agent{}, g.admissionErr(ModelUnauthorized, fmt.Errorf("agent %q may not use model %q", agent.AgentID, req.ModelID))
	}

	// 4. Concurrency cap.
	if g.registry.ActiveCount(agent.AgentID) >= agent.MaxConcurrentWorkloads {
		return Agent{}, g.admissionErr(ConcurrencyLimit, fmt.Errorf("agent %q at its concurrency limit of %d", agent.AgentID, agent.MaxConcurrentWorkloads))
	}

	// 5. Consent-token presence and, if enabled, full validation.
	if p.RequireConsent {
		if req.ConsentToken == nil {
			return Agent{}, g.admissionErr(ConsentMissing, fmt.Errorf("workload requires a consent token"))
		}
		if p.FullConsentCheck {
			err := g.consent.Validate(consent.TaskValidationInput{
				Token:              *req.ConsentToken,
				TaskType:           req.TaskType,
				Required:           req.Required,
				MaxExecutionTimeMs: req.MaxExecutionTimeMs,
			})
			if err != nil {
				return Agent{}, g.admissionErr(ConsentInvalid, err)
			}
		}
	}

	// 6. Model ACL and rate limits.
	acl, hasACL := p.ModelACL[req.ModelID]
	if hasACL {
		if !acl.Authorizes(req.Header.NetworkID, agent.AgentID) {
			return Agent{}, g.admissionErr(ACLDenied, fmt.Errorf("model %q denies network/agent", req.ModelID))
		}
	}
	if limit, ok := p.RateLimits[req.ModelID]; ok {
		if !g.limiter.Allow(agent.AgentID, req.ModelID, limit) {
			return Agent{}, g.admissionErr(RateLimited, fmt.Errorf("rate limit exceeded for agent %q model %q", agent.AgentID, req.ModelID))
		}
	}

	// 7. Solvency.
	ownerHash := crypto.HashUserID(agent.OwnerUserID)
	balance := g.ledger.Balance(ownerHash)
	if balance.TotalMCC < p.MinimumBalanceMCC {
		return Agent{}, g.admissionErr(InsufficientCredits, fmt.Errorf("owner balance %d below minimum %d", balance.TotalMCC, p.MinimumBalanceMCC))
	}

	// 8. Signature over the canonical header payload.
	if !g.verifyHeaderSignature(req.Header, agent.PublicKey) {
		return Agent{}, g.admissionErr(SignatureInvalid, fmt.Errorf("header signature invalid for agent %q", agent.AgentID))
	}

	// 9. Duration within policy.
	if req.MaxExecutionTimeMs > p.MaxWorkloadDurationS*1000 {
		return Agent{}, g.admissionErr(DurationExceedsPolicy, fmt.Errorf("max_execution_time_ms %d exceeds policy", req.MaxExecutionTimeMs))
	}

	if !g.registry.TryReserveSlot(agent.AgentID, req.Header.RequestID, agent.MaxConcurrentWorkloads) {
		return Agent{}, g.admissionErr(ConcurrencyLimit, fmt.Errorf("agent %q at its concurrency limit of %d", agent.AgentID, agent.MaxConcurrentWorkloads))
	}
	g.registry.Touch(agent.AgentID, g.now())

	g.logger.Info("gate.admit", "request_id", req.Header.RequestID, "agent_id", agent.AgentID, "model_id", req.ModelID)
	return agent, nil
}

// RunWorkload admits req, dispatches it to the configured executor, and
// settles the result against the ledger in one call — the common path for
// embedders that do not need to separate admission from execution (spec
// §4.E "the component does not itself execute").
func (g *Gate) RunWorkload(ctx context.Context, req Request) (executor.Result, error) {
	agent, err := g.Admit(ctx, req)
	if err != nil {
		return executor.Result{}, err
	}

	workload := executor.Workload{
		RequestID:        req.Header.RequestID,
		ModelID:          req.ModelID,
		TaskType:         req.TaskType,
		Payload:          req.Payload,
		MaxExecutionTime: req.MaxExecutionTimeMs,
		Priority:         req.Priority,
	}

	result, runErr := g.executor.Run(ctx, workload)
	if err := g.Complete(ctx, agent, req, result, runErr); err != nil {
		// Settlement failure (e.g. ledger rejects the charge) is an economic
		// error surfaced to the caller alongside the run outcome.
		if runErr == nil {
			runErr = err
		}
	}
	if runErr != nil {
		return executor.Result{}, fmt.Errorf("%w: %v", executor.ErrExecutionFailed, runErr)
	}
	return result, nil
}

// Complete settles a dispatched workload: it computes the final cost from
// the executor's reported metrics, charges the agent owner's account,
// adjusts the agent's reputation, appends a completion record, and releases
// the active-workload slot (spec §4.E).
func (g *Gate) Complete(ctx context.Context, agent Agent, req Request, result executor.Result, runErr error) error {
	defer g.registry.ReleaseSlot(agent.AgentID, req.Header.RequestID)

	success := runErr == nil
	if success {
		g.registry.AdjustReputation(agent.AgentID, 1)
	} else {
		g.registry.AdjustReputation(agent.AgentID, -2)
	}

	var cost amount.MilliCredits
	var chargeErr error
	if success {
		cost = g.Price(result, req.Priority)
		if cost.IsPositive() {
			owner := crypto.HashUserID(agent.OwnerUserID)
			chargeErr = g.ledger.Spend(ctx, owner, cost, req.Header.RequestID)
		}
	}

	g.mu.Lock()
	g.history = append(g.history, CompletionRecord{
		RequestID:   req.Header.RequestID,
		AgentID:     agent.AgentID,
		OwnerUserID: agent.OwnerUserID,
		ModelID:     req.ModelID,
		CostMCC:     cost,
		Success:     success,
		CompletedAt: g.now().UTC(),
	})
	g.mu.Unlock()

	g.logger.Info("gate.complete", "request_id", req.Header.RequestID, "agent_id", agent.AgentID, "success", success, "cost_mcc", cost)

	if chargeErr != nil {
		return fmt.Errorf("gate: charging owner for request %s: %w", req.Header.RequestID, chargeErr)
	}
	return nil
}

// Price implements spec §4.E's pricing function:
//
//	cost_mCC = ceil((exec_seconds*base_rate_per_second + memory_MB*memory_rate
//	           + tokens_generated*token_rate) * priority_multiplier)
func (g *Gate) Price(result executor.Result, priority string) amount.MilliCredits {
	execSeconds := float64(result.ExecMs) / 1000.0
	raw := execSeconds*float64(g.policy.PricingBaseRatePerSecond) +
		result.MemoryMB*float64(g.policy.PricingMemoryRatePerMB) +
		float64(result.TokensGenerated)*float64(g.policy.PricingTokenRate)
	raw *= g.policy.PriorityMultiplier(priority)
	return amount.MilliCredits(int64(math.Ceil(raw)))
}

// History returns a copy of every completion record the gate has settled.
func (g *Gate) History() []CompletionRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]CompletionRecord, len(g.history))
	copy(out, g.history)
	return out
}

func (g *Gate) verifyHeaderSignature(h Header, pub crypto.PublicKey) bool {
	signature := h.Signature
	h.Signature = nil
	payload, err := crypto.CanonicalJSON(h)
	if err != nil {
		return false
	}
	return crypto.Verify(pub, payload, signature)
}
