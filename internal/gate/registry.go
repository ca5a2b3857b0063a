package gate

import (
	"sync"
	"time"
)

// Registry is the single-owner table of registered agents and their active
// workload counts (spec §9: "arena/table-by-id pattern ... no direct
// pointers between records; look-ups are always by hash/id"). It is shared
// with Gate and mutated only under its own lock, matching the teacher's
// narrow, explicitly-owned mutable tables (internal/peermanagement/
// reservation.Table).
type Registry struct {
	mu     sync.Mutex
	agents map[string]Agent
	active map[string]map[string]bool // agent_id -> set of request_id
}

// NewRegistry returns an empty agent registry.
func NewRegistry() *Registry {
	return &Registry{
		agents: make(map[string]Agent),
		active: make(map[string]map[string]bool),
	}
}

// Register adds or replaces agent's registration.
func (r *Registry) Register(agent Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[agent.AgentID] = agent
}

// Get returns a copy of the agent registered under agentID.
func (r *Registry) Get(agentID string) (Agent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[agentID]
	return a, ok
}

// Blacklist flips agentID's Blacklisted flag.
func (r *Registry) Blacklist(agentID string, blacklisted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.agents[agentID]; ok {
		a.Blacklisted = blacklisted
		r.agents[agentID] = a
	}
}

// Touch updates agentID's LastSeen to now.
func (r *Registry) Touch(agentID string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.agents[agentID]; ok {
		a.LastSeen = now
		r.agents[agentID] = a
	}
}

// ActiveCount returns the number of in-flight workloads for agentID (spec
// §4.E step 4).
func (r *Registry) ActiveCount(agentID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active[agentID])
}

// TryReserveSlot admits requestID into agentID's active set if doing so
// would not exceed maxConcurrent; it reports whether the slot was granted.
// The check and the reservation happen under one lock so concurrent
// admissions for the same agent are totally ordered.
func (r *Registry) TryReserveSlot(agentID, requestID string, maxConcurrent int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.active[agentID]
	if len(set) >= maxConcurrent {
		return false
	}
	if set == nil {
		set = make(map[string]bool)
		r.active[agentID] = set
	}
	set[requestID] = true
	return true
}

// ReleaseSlot removes requestID from agentID's active set.
func (r *Registry) ReleaseSlot(agentID, requestID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.active[agentID]; ok {
		delete(set, requestID)
		if len(set) == 0 {
			delete(r.active, agentID)
		}
	}
}

// AdjustReputation applies delta to agentID's reputation, clamped to
// [0,100] (spec §4.E: "+1 success, -2 failure; clamp [0,100]").
func (r *Registry) AdjustReputation(agentID string, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[agentID]
	if !ok {
		return
	}
	a.Reputation += delta
	if a.Reputation < 0 {
		a.Reputation = 0
	}
	if a.Reputation > 100 {
		a.Reputation = 100
	}
	r.agents[agentID] = a
}
