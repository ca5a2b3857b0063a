package ledger

import (
	"context"
	"testing"

	"github.com/bioduds/askee/internal/amount"
	"github.com/bioduds/askee/internal/crypto"
)

func testUser(t *testing.T, seed string) UserHash {
	t.Helper()
	return crypto.HashUserID(seed)
}

func TestAwardAndBalance(t *testing.T) {
	l, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	user := testUser(t, "alice")

	if err := l.Award(ctx, user, 1_000_000); err != nil {
		t.Fatalf("Award: %v", err)
	}

	proj := l.Balance(user)
	if proj.TotalMCC != 1_000_000 {
		t.Fatalf("TotalMCC = %d, want 1000000", proj.TotalMCC)
	}
	if err := l.AssertConservation(); err != nil {
		t.Fatalf("AssertConservation: %v", err)
	}
}

func TestSpendRejectsOverdraft(t *testing.T) {
	l, _ := New(Config{})
	ctx := context.Background()
	user := testUser(t, "bob")

	if err := l.Award(ctx, user, 500); err != nil {
		t.Fatalf("Award: %v", err)
	}
	if err := l.Spend(ctx, user, 1000, "task-x"); err != ErrInsufficientBalance {
		t.Fatalf("Spend over balance = %v, want ErrInsufficientBalance", err)
	}
}

// TestReserveConsumeRefundSequence mirrors scenario S3: an owner earns
// 1,000,000 mCC, reserves 200,000 for a task, the task consumes 150,000 of
// it, and the remaining 50,000 is refunded. Conservation must hold at every
// step, including while the hold is outstanding.
func TestReserveConsumeRefundSequence(t *testing.T) {
	l, _ := New(Config{})
	ctx := context.Background()
	user := testUser(t, "carol")

	if err := l.Award(ctx, user, 1_000_000); err != nil {
		t.Fatalf("Award: %v", err)
	}
	if err := l.AssertConservation(); err != nil {
		t.Fatalf("post-award AssertConservation: %v", err)
	}

	if err := l.Reserve(ctx, user, 200_000, "task-A"); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if got := l.Balance(user).TotalMCC; got != 800_000 {
		t.Fatalf("balance after reserve = %d, want 800000", got)
	}
	if err := l.AssertConservation(); err != nil {
		t.Fatalf("post-reserve AssertConservation: %v", err)
	}

	if err := l.ConsumeFromHold(ctx, "task-A", 150_000); err != nil {
		t.Fatalf("ConsumeFromHold: %v", err)
	}
	if err := l.AssertConservation(); err != nil {
		t.Fatalf("post-consume AssertConservation: %v", err)
	}

	refunded, err := l.RefundRemaining(ctx, "task-A")
	if err != nil {
		t.Fatalf("RefundRemaining: %v", err)
	}
	if refunded != 50_000 {
		t.Fatalf("refunded = %d, want 50000", refunded)
	}
	if got := l.Balance(user).TotalMCC; got != 850_000 {
		t.Fatalf("balance after refund = %d, want 850000", got)
	}
	if err := l.AssertConservation(); err != nil {
		t.Fatalf("post-refund AssertConservation: %v", err)
	}

	if _, ok := l.Hold("task-A"); ok {
		t.Fatal("expected hold to be removed once fully drained")
	}
}

// TestReserveThenFullRefundRestoresProjection mirrors spec §8 property 5:
// after reserve(u, k) then refund_hold(task, k) with nothing consumed, u's
// total_mCC equals the pre-reserve total exactly. The lifetime counters
// are not restored: the REDEEM and the REFUND each add k to them.
func TestReserveThenFullRefundRestoresProjection(t *testing.T) {
	l, _ := New(Config{})
	ctx := context.Background()
	user := testUser(t, "heidi")

	if err := l.Award(ctx, user, 750_000); err != nil {
		t.Fatalf("Award: %v", err)
	}
	before := l.Balance(user)

	if err := l.Reserve(ctx, user, 300_000, "task-D"); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := l.RefundHold(ctx, "task-D", 300_000); err != nil {
		t.Fatalf("RefundHold: %v", err)
	}

	after := l.Balance(user)
	if after.TotalMCC != before.TotalMCC {
		t.Fatalf("TotalMCC after full refund = %d, want %d", after.TotalMCC, before.TotalMCC)
	}
	if _, ok := l.Hold("task-D"); ok {
		t.Fatal("expected hold to be removed once fully refunded")
	}
	if err := l.AssertConservation(); err != nil {
		t.Fatalf("AssertConservation: %v", err)
	}
}

func TestConsumeFromHoldRejectsUnknownTask(t *testing.T) {
	l, _ := New(Config{})
	if err := l.ConsumeFromHold(context.Background(), "ghost", 1); err != ErrUnknownTask {
		t.Fatalf("ConsumeFromHold unknown task = %v, want ErrUnknownTask", err)
	}
}

func TestConsumeFromHoldRejectsOverdraw(t *testing.T) {
	l, _ := New(Config{})
	ctx := context.Background()
	user := testUser(t, "dave")

	if err := l.Award(ctx, user, 1000); err != nil {
		t.Fatalf("Award: %v", err)
	}
	if err := l.Reserve(ctx, user, 500, "task-B"); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := l.ConsumeFromHold(ctx, "task-B", 600); err != ErrInsufficientHold {
		t.Fatalf("ConsumeFromHold overdraw = %v, want ErrInsufficientHold", err)
	}
}

func TestSlashDestroysValue(t *testing.T) {
	l, _ := New(Config{})
	ctx := context.Background()
	user := testUser(t, "erin")

	if err := l.Award(ctx, user, 1000); err != nil {
		t.Fatalf("Award: %v", err)
	}
	if err := l.Slash(ctx, user, 400, "task-C"); err != nil {
		t.Fatalf("Slash: %v", err)
	}
	if got := l.Balance(user).TotalMCC; got != 600 {
		t.Fatalf("balance after slash = %d, want 600", got)
	}
	if err := l.AssertConservation(); err != nil {
		t.Fatalf("AssertConservation: %v", err)
	}
}

// TestConcurrentReservesOnSameUserAreOrdered mirrors spec §5's ordering
// guarantee: concurrent reserves against one account never oversubscribe it.
func TestConcurrentReservesOnSameUserAreOrdered(t *testing.T) {
	l, _ := New(Config{})
	ctx := context.Background()
	user := testUser(t, "frank")

	if err := l.Award(ctx, user, 1000); err != nil {
		t.Fatalf("Award: %v", err)
	}

	results := make(chan error, 3)
	for i := 0; i < 3; i++ {
		taskID := string(rune('A' + i))
		go func(taskID string) {
			results <- l.Reserve(ctx, user, 400, "task-"+taskID)
		}(taskID)
	}

	successes := 0
	for i := 0; i < 3; i++ {
		if err := <-results; err == nil {
			successes++
		} else if err != ErrInsufficientBalance {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 2 {
		t.Fatalf("expected exactly 2 of 3 reserves to succeed, got %d", successes)
	}
	if err := l.AssertConservation(); err != nil {
		t.Fatalf("AssertConservation: %v", err)
	}
}

func TestPostRejectsUnknownEntryKind(t *testing.T) {
	l, _ := New(Config{})
	user := testUser(t, "gina")
	err := l.Post(context.Background(), Entry{
		ID:       "bad",
		UserHash: user,
		Kind:     "BOGUS",
		DeltaMCC: amount.MilliCredits(10),
	})
	if err == nil {
		t.Fatal("expected error for unknown entry kind")
	}
}
