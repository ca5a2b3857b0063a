// Package gate implements the workload admission pipeline and metered
// charge-back to the ledger (spec §4.E): the request-validation gate every
// workload must clear — header freshness, agent authorization, model ACL,
// consent, and pre-charge solvency — before an external executor is ever
// invoked, followed by settlement of the observed cost against the ledger.
package gate

import (
	"time"

	"github.com/bioduds/askee/internal/amount"
	"github.com/bioduds/askee/internal/consent"
	"github.com/bioduds/askee/internal/crypto"
)

// Header is the protocol header every workload request carries (spec §3).
// Signature is excluded from the canonical payload it signs over.
type Header struct {
	Version     string `json:"version"`
	NetworkID   string `json:"network_id"`
	RequestID   string `json:"request_id"`
	TimestampMs int64  `json:"timestamp_ms"`
	NodeID      string `json:"node_id"`
	AgentID     string `json:"agent_id"`
	Nonce       string `json:"nonce"`
	Signature   []byte `json:"signature" canonical:"-"`
}

// Request is an admitted-or-rejected workload request (spec §4.E).
type Request struct {
	Header             Header
	ModelID            string
	TaskType            string
	Required            map[string]float64 // resource -> amount, spec §4.D validation rule 5
	MaxExecutionTimeMs  int64
	Priority            string // low|medium|high|critical, spec §4.E pricing function
	Payload             []byte
	ConsentToken        *consent.Token // nil if the caller presented none
}

// Agent is a registered automation identity acting on behalf of its owner
// (spec §3 "Agent registration"). Credits are always charged to OwnerUserID,
// never to AgentID (spec §9 open question, preserved deliberately).
type Agent struct {
	AgentID                string
	OwnerUserID            string
	PublicKey              crypto.PublicKey
	AllowedModels          []string
	MaxConcurrentWorkloads int
	CreditLimitMCC         amount.MilliCredits
	Reputation             int // [0,100]
	Blacklisted            bool
	LastSeen               time.Time
}

// AllowsModel reports whether modelID is permitted for this agent, honoring
// the admin wildcard (spec §4.E step 3).
func (a Agent) AllowsModel(modelID string) bool {
	for _, m := range a.AllowedModels {
		if m == "*" || m == modelID {
			return true
		}
	}
	return false
}

// CompletionRecord is appended to a gate's history once a workload settles
// (spec §4.E "append a completion record to history").
type CompletionRecord struct {
	RequestID   string
	AgentID     string
	OwnerUserID string
	ModelID     string
	CostMCC     amount.MilliCredits
	Success     bool
	CompletedAt time.Time
}
