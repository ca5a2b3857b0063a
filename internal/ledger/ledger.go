package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/bioduds/askee/internal/amount"
)

const defaultCacheSize = 4096

// Config configures a Ledger.
type Config struct {
	// Sink, if non-nil, observes every posted entry before Post returns.
	Sink Sink
	// CacheSize bounds the projection memoization cache (default 4096 users).
	CacheSize int
	// Logger receives structured diagnostics for every mutating operation.
	Logger *slog.Logger
}

// Ledger is the single-owner, exclusively-mutated credit journal (spec §4.B,
// §9: "wrap the ledger in a single owner"). All mutating operations serialize
// through one critical section; Balance reads a snapshot under a read lock.
type Ledger struct {
	mu sync.RWMutex

	entries []Entry
	byUser  map[UserHash][]int // indices into entries, insertion order

	cache *lru.Cache[UserHash, AccountProjection]
	group singleflight.Group

	holds map[string]*Hold // task_id -> hold

	sink   Sink
	logger *slog.Logger

	// Circulation bookkeeping (see package doc): EARN and SLASH are the only
	// entry kinds that create or destroy money; a Reserve REDEEM and a REFUND
	// merely move it between an account's spendable total and the hold
	// side-table. ConsumeFromHold posts no entry, and a Spend REDEEM has no
	// hold, so money either releases to a counterparty is tracked in
	// consumedTotal to keep AssertConservation checkable.
	earnedTotal   amount.MilliCredits
	slashedTotal  amount.MilliCredits
	consumedTotal amount.MilliCredits
}

// New constructs a Ledger. Callers should instantiate exactly one Ledger per
// trust domain and pass it explicitly to collaborators (spec §9: avoid
// process-level singletons).
func New(cfg Config) (*Ledger, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[UserHash, AccountProjection](size)
	if err != nil {
		return nil, fmt.Errorf("ledger: creating projection cache: %w", err)
	}

	sink := cfg.Sink
	if sink == nil {
		sink = noopSink{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Ledger{
		byUser: make(map[UserHash][]int),
		cache:  cache,
		holds:  make(map[string]*Hold),
		sink:   sink,
		logger: logger,
	}, nil
}

// Post appends entry if it validates and the affected account would remain
// solvent (spec §4.B). Validation errors and economic errors return without
// any observable state change — Post is all-or-nothing.
func (l *Ledger) Post(ctx context.Context, entry Entry) error {
	if err := validateEntry(entry); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendLocked(ctx, entry)
}

// Award posts an EARN entry crediting user with amountMCC.
func (l *Ledger) Award(ctx context.Context, user UserHash, amountMCC amount.MilliCredits) error {
	if !amountMCC.IsPositive() {
		return ErrInvalidAmount
	}
	return l.Post(ctx, Entry{
		ID:        newEntryID(),
		Timestamp: now(),
		UserHash:  user,
		Kind:      EARN,
		DeltaMCC:  amountMCC,
	})
}

// Spend posts a REDEEM entry directly charging user, with no corresponding
// hold (spec §4.D/§4.E metered billing — "Ledger.spend"). Unlike Reserve,
// this is an immediate, unconditional charge used for per-resource billing
// during token-gated execution and for the workload gate's final charge.
func (l *Ledger) Spend(ctx context.Context, user UserHash, amountMCC amount.MilliCredits, taskID string) error {
	if !amountMCC.IsPositive() {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.appendLocked(ctx, Entry{
		ID:        newEntryID(),
		Timestamp: now(),
		UserHash:  user,
		TaskID:    taskID,
		Kind:      REDEEM,
		DeltaMCC:  -amountMCC,
	}); err != nil {
		return err
	}
	l.consumedTotal += amountMCC
	return nil
}

// Slash posts a SLASH entry, permanently destroying amountMCC from user's
// balance (non-refundable, spec glossary).
func (l *Ledger) Slash(ctx context.Context, user UserHash, amountMCC amount.MilliCredits, taskID string) error {
	if !amountMCC.IsPositive() {
		return ErrInvalidAmount
	}
	return l.Post(ctx, Entry{
		ID:        newEntryID(),
		Timestamp: now(),
		UserHash:  user,
		TaskID:    taskID,
		Kind:      SLASH,
		DeltaMCC:  -amountMCC,
	})
}

// Balance folds user's entries into an AccountProjection. The result is
// memoized until the next Post for that user invalidates it; concurrent
// recomputation for the same user after invalidation is collapsed through a
// singleflight group so readers observe a consistent journal prefix
// (spec §5 ordering guarantees).
func (l *Ledger) Balance(user UserHash) AccountProjection {
	l.mu.RLock()
	if proj, ok := l.cache.Get(user); ok {
		l.mu.RUnlock()
		return proj
	}
	l.mu.RUnlock()

	v, _, _ := l.group.Do(user.String(), func() (interface{}, error) {
		l.mu.RLock()
		defer l.mu.RUnlock()
		if proj, ok := l.cache.Get(user); ok {
			return proj, nil
		}
		proj := l.foldLocked(user)
		l.cache.Add(user, proj)
		return proj, nil
	})
	return v.(AccountProjection)
}

// Reserve creates a hold for task_id by posting a REDEEM entry of
// -amountMCC (spec §4.B). The account must be able to afford the full
// amount; reserve and hold creation happen in a single critical section so
// two concurrent reserves on the same user are totally ordered (spec §5).
func (l *Ledger) Reserve(ctx context.Context, user UserHash, amountMCC amount.MilliCredits, taskID string) error {
	if !amountMCC.IsPositive() {
		return ErrInvalidAmount
	}
	if taskID == "" {
		return fmt.Errorf("%w: task id is required", ErrInvalidAmount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	proj := l.foldLocked(user)
	if proj.TotalMCC < amountMCC {
		return ErrInsufficientBalance
	}

	entry := Entry{
		ID:        newEntryID(),
		Timestamp: now(),
		UserHash:  user,
		TaskID:    taskID,
		Kind:      REDEEM,
		DeltaMCC:  -amountMCC,
	}
	if err := l.appendLocked(ctx, entry); err != nil {
		return err
	}

	if h, ok := l.holds[taskID]; ok {
		h.ReservedMCC += amountMCC
		h.RemainingMCC += amountMCC
	} else {
		l.holds[taskID] = &Hold{TaskID: taskID, UserHash: user, ReservedMCC: amountMCC, RemainingMCC: amountMCC}
	}

	l.logger.Info("ledger.reserve", "user", user.String(), "task_id", taskID, "amount_mcc", amountMCC)
	return nil
}

// ConsumeFromHold drains amountMCC from task_id's hold. No ledger entry is
// posted — the REDEEM posted at Reserve time already accounted for this
// money leaving the account (spec §9 design note).
func (l *Ledger) ConsumeFromHold(ctx context.Context, taskID string, amountMCC amount.MilliCredits) error {
	if !amountMCC.IsPositive() {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	h, ok := l.holds[taskID]
	if !ok {
		return ErrUnknownTask
	}
	if amountMCC > h.RemainingMCC {
		return ErrInsufficientHold
	}

	h.RemainingMCC -= amountMCC
	l.consumedTotal += amountMCC
	if h.RemainingMCC == 0 {
		delete(l.holds, taskID)
	}

	l.logger.Info("ledger.consume", "task_id", taskID, "amount_mcc", amountMCC)
	return nil
}

// RefundHold posts a REFUND entry of +amountMCC and drains that much from
// task_id's hold (spec §4.B). When the hold reaches zero its record is
// destroyed (invariant 4).
func (l *Ledger) RefundHold(ctx context.Context, taskID string, amountMCC amount.MilliCredits) error {
	if !amountMCC.IsPositive() {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	h, ok := l.holds[taskID]
	if !ok {
		return ErrUnknownTask
	}
	if amountMCC > h.RemainingMCC {
		return ErrInsufficientHold
	}

	entry := Entry{
		ID:        newEntryID(),
		Timestamp: now(),
		UserHash:  h.UserHash,
		TaskID:    taskID,
		Kind:      REFUND,
		DeltaMCC:  amountMCC,
	}
	if err := l.appendLocked(ctx, entry); err != nil {
		return err
	}

	h.RemainingMCC -= amountMCC
	if h.RemainingMCC == 0 {
		delete(l.holds, taskID)
	}

	l.logger.Info("ledger.refund", "task_id", taskID, "amount_mcc", amountMCC)
	return nil
}

// RefundRemaining refunds whatever is left of task_id's hold in one call —
// the common cancellation/timeout path (spec §5: "must deterministically
// refund_hold the full reserved amount").
func (l *Ledger) RefundRemaining(ctx context.Context, taskID string) (amount.MilliCredits, error) {
	l.mu.RLock()
	h, ok := l.holds[taskID]
	var remaining amount.MilliCredits
	if ok {
		remaining = h.RemainingMCC
	}
	l.mu.RUnlock()

	if !ok {
		return 0, ErrUnknownTask
	}
	if remaining.IsZero() {
		return 0, nil
	}
	if err := l.RefundHold(ctx, taskID, remaining); err != nil {
		return 0, err
	}
	return remaining, nil
}

// Hold returns a copy of the current hold for taskID, if any.
func (l *Ledger) Hold(taskID string) (Hold, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	h, ok := l.holds[taskID]
	if !ok {
		return Hold{}, false
	}
	return *h, true
}

// Replayer is implemented by sinks that can stream their durable journal
// back out in post order (spec §6: "on recovery the journal is re-played
// to reconstruct state"). pebblesink.Sink implements it.
type Replayer interface {
	Replay(ctx context.Context, fn func(Entry) error) error
}

// Restore rehydrates the ledger's in-memory state from its configured sink,
// if that sink implements Replayer. It is a no-op for a noopSink or any
// sink that does not support replay. Entries are appended directly to the
// journal without being re-observed by the sink, since they are already
// durable there; callers must call Restore before the ledger is handed to
// any other collaborator.
//
// Outstanding holds cannot be reconstructed this way: a REDEEM entry with a
// task_id is indistinguishable on the wire between one posted by Reserve
// (which opened a hold) and one posted by Spend (which did not), so a
// restored ledger starts with no holds even if some were outstanding when
// the process stopped. Balances and conservation totals are exact: with no
// holds restored, the net of every REDEEM less every REFUND counts as money
// released to counterparties, including any amount still held at shutdown.
func (l *Ledger) Restore(ctx context.Context) error {
	replayer, ok := l.sink.(Replayer)
	if !ok {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := replayer.Replay(ctx, func(e Entry) error {
		return l.restoreEntryLocked(e)
	}); err != nil {
		return fmt.Errorf("ledger: restoring from sink: %w", err)
	}
	l.cache.Purge()
	return nil
}

// restoreEntryLocked appends a previously-durable entry to the in-memory
// journal without re-observing it through the sink. Caller must hold l.mu.
func (l *Ledger) restoreEntryLocked(entry Entry) error {
	if err := validateEntry(entry); err != nil {
		return err
	}

	idx := len(l.entries)
	l.entries = append(l.entries, entry)
	l.byUser[entry.UserHash] = append(l.byUser[entry.UserHash], idx)

	switch entry.Kind {
	case EARN:
		l.earnedTotal += entry.DeltaMCC
	case SLASH:
		l.slashedTotal += -entry.DeltaMCC
	case REDEEM:
		l.consumedTotal += -entry.DeltaMCC
	case REFUND:
		l.consumedTotal -= entry.DeltaMCC
	}
	return nil
}

// TotalCirculation returns the sum of every posted entry's delta, which by
// construction equals the sum of every account's total_mCC (spec §4.B).
func (l *Ledger) TotalCirculation() amount.MilliCredits {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var total amount.MilliCredits
	for _, e := range l.entries {
		total += e.DeltaMCC
	}
	return total
}

// AssertConservation verifies the kernel's trust invariant (spec §3
// invariant 1, §9 design note on hold bookkeeping). It is fatal by contract:
// a mismatch means the accounting is corrupt and the caller must abort
// rather than continue operating (spec §7).
//
// The check reconciles two independently-derived figures:
//
//   - circulation: money ever created (EARN) minus money destroyed (SLASH)
//     minus money permanently released to a counterparty via
//     ConsumeFromHold (which posts no entry of its own) or Spend (whose
//     REDEEM opens no hold), both tracked separately. A Reserve REDEEM and
//     a REFUND do not appear here because they are neutral transfers
//     between an account's spendable total and the hold side-table, not
//     creation or destruction of value.
//   - holdings: the sum of every account's current total_mCC plus the sum
//     of every outstanding hold's remaining amount.
//
// These must be equal at every point in time, including while holds are
// outstanding — unlike a naive "sum of all deltas" check, which trivially
// equals the sum of account totals regardless of holds and so cannot detect
// a genuine conservation violation on its own.
func (l *Ledger) AssertConservation() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	circulation := l.earnedTotal - l.slashedTotal - l.consumedTotal

	var holdings amount.MilliCredits
	seen := make(map[UserHash]bool, len(l.byUser))
	for user := range l.byUser {
		if seen[user] {
			continue
		}
		seen[user] = true
		holdings += l.foldLocked(user).TotalMCC
	}
	for _, h := range l.holds {
		holdings += h.RemainingMCC
	}

	// Sanity check: the naive sum of all deltas must always equal the sum
	// of account totals — a cheap internal-consistency guard against
	// indexing bugs, independent of the hold reconciliation above.
	var deltaSum amount.MilliCredits
	for _, e := range l.entries {
		deltaSum += e.DeltaMCC
	}
	var totalSum amount.MilliCredits
	for user := range seen {
		totalSum += l.foldLocked(user).TotalMCC
	}
	if deltaSum != totalSum {
		return fmt.Errorf("%w: delta sum %d != account total sum %d", ErrConservationViolation, deltaSum, totalSum)
	}

	if circulation != holdings {
		return fmt.Errorf("%w: circulation %d != totals+holds %d", ErrConservationViolation, circulation, holdings)
	}
	return nil
}

// appendLocked validates and appends entry while l.mu is held exclusively.
func (l *Ledger) appendLocked(ctx context.Context, entry Entry) error {
	proj := l.foldLocked(entry.UserHash)
	newTotal := proj.TotalMCC + entry.DeltaMCC
	if newTotal < 0 {
		return ErrInsufficientBalance
	}

	if err := l.sink.Observe(ctx, entry); err != nil {
		return fmt.Errorf("ledger: sink observe: %w", err)
	}

	idx := len(l.entries)
	l.entries = append(l.entries, entry)
	l.byUser[entry.UserHash] = append(l.byUser[entry.UserHash], idx)
	l.cache.Remove(entry.UserHash)

	switch entry.Kind {
	case EARN:
		l.earnedTotal += entry.DeltaMCC
	case SLASH:
		l.slashedTotal += -entry.DeltaMCC
	}

	l.logger.Debug("ledger.post", "id", entry.ID, "user", entry.UserHash.String(), "kind", entry.Kind, "delta_mcc", entry.DeltaMCC)
	return nil
}

// foldLocked computes user's projection by folding their entries in
// insertion order. Caller must hold l.mu (read or write).
func (l *Ledger) foldLocked(user UserHash) AccountProjection {
	proj := AccountProjection{UserHash: user}
	for _, idx := range l.byUser[user] {
		e := l.entries[idx]
		proj.TotalMCC += e.DeltaMCC
		switch e.Kind {
		case EARN, REFUND:
			proj.EarnedLifetimeMCC += e.DeltaMCC.Abs()
		case REDEEM, SLASH:
			proj.RedeemedLifetime += e.DeltaMCC.Abs()
		}
		proj.LastUpdated = time.Unix(e.Timestamp, 0).UTC()
	}
	return proj
}

func validateEntry(e Entry) error {
	switch e.Kind {
	case EARN, REFUND:
		if !e.DeltaMCC.IsPositive() {
			return fmt.Errorf("%w: %s requires a positive delta", ErrInvalidAmount, e.Kind)
		}
	case REDEEM, SLASH:
		if !e.DeltaMCC.IsNegative() {
			return fmt.Errorf("%w: %s requires a negative delta", ErrInvalidAmount, e.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown entry kind %q", ErrInvalidAmount, e.Kind)
	}
	return nil
}

// newEntryID mints an opaque, unique entry id (spec §3: "id (opaque
// unique)" carries no format requirement, unlike token_id's fixed
// hex-of-16-random-bytes wire format in spec §4.A). Grounded on the
// teacher's own use of google/uuid for node/transaction identifiers.
func newEntryID() EntryID {
	return EntryID(uuid.NewString())
}

var now = func() int64 { return time.Now().Unix() }
