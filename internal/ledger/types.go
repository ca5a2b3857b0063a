// Package ledger implements the append-only credit journal: the single
// source of truth for value in the kernel (spec §4.B). Every other
// component — consent tokens, the workload gate — reads account state
// through this package and never maintains its own copy of a balance.
//
// Hold bookkeeping (spec §9, design notes): Reserve posts a REDEEM entry
// immediately, moving the reserved amount out of the account's spendable
// total and into the hold side-table in the same critical section.
// ConsumeFromHold posts no journal entry — it only drains the hold — because
// the REDEEM already accounted for that money leaving the account.
// RefundHold posts a REFUND entry for whatever is returned to the account.
// Conservation is therefore checked against a "circulation" figure that
// treats REDEEM/REFUND as neutral transfers between the spendable and held
// buckets, and only EARN, SLASH, actually-consumed hold amounts, and direct
// Spend charges as changing the total money in the system — see
// AssertConservation.
package ledger

import (
	"time"

	"github.com/bioduds/askee/internal/amount"
	"github.com/bioduds/askee/internal/crypto"
)

// EntryKind is the type of an atomic ledger movement (spec §6, exact wire strings).
type EntryKind string

const (
	EARN   EntryKind = "EARN"
	REDEEM EntryKind = "REDEEM"
	REFUND EntryKind = "REFUND"
	SLASH  EntryKind = "SLASH"
)

// UserHash re-exports crypto.UserHash so ledger callers don't need to import
// the crypto package just to name the type.
type UserHash = crypto.UserHash

// EntryID is an opaque, unique identifier for a posted ledger entry.
type EntryID string

// Entry is a single, immutable-once-posted credit movement (spec §3).
type Entry struct {
	ID        EntryID           `json:"id"`
	Timestamp int64             `json:"timestamp"` // seconds since epoch
	UserHash  UserHash          `json:"user_hash"`
	TaskID    string            `json:"task_id,omitempty"`
	Kind      EntryKind         `json:"kind"`
	DeltaMCC  amount.MilliCredits `json:"delta_mCC"`
	Units     map[string]int64  `json:"units,omitempty"`
	Signature []byte            `json:"signature,omitempty"`
}

// AccountProjection is the folded view of an account derived from the
// journal (spec §3). It is recomputed by a left-fold over that account's
// entries in insertion order and memoized until invalidated by a post.
type AccountProjection struct {
	UserHash          UserHash            `json:"user_hash"`
	TotalMCC          amount.MilliCredits `json:"total_mCC"`
	EarnedLifetimeMCC amount.MilliCredits `json:"earned_lifetime_mCC"`
	RedeemedLifetime  amount.MilliCredits `json:"redeemed_lifetime_mCC"`
	LastUpdated       time.Time           `json:"last_updated"`
}

// Hold represents mCC reserved for a task: money that has left the owning
// account's spendable total but has not yet been earned by any
// counter-party (spec §3).
type Hold struct {
	TaskID       string
	UserHash     UserHash
	ReservedMCC  amount.MilliCredits
	RemainingMCC amount.MilliCredits
}
