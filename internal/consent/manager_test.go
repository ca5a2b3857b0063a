package consent

import (
	"context"
	"testing"
	"time"

	"github.com/bioduds/askee/internal/crypto"
	"github.com/bioduds/askee/internal/discovery"
	"github.com/bioduds/askee/internal/ledger"
)

type fakeRates struct {
	perUnitPerSecond map[string]float64
}

func (f fakeRates) BaseRatePerUnitPerSecond(resource string) (float64, bool) {
	rate, ok := f.perUnitPerSecond[resource]
	return rate, ok
}

func newTestSetup(t *testing.T) (*Manager, *discovery.Manager, *ledger.Ledger, string) {
	t.Helper()

	pub, priv, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	disc := discovery.NewManager(pub, priv, time.Hour)
	l, err := ledger.New(ledger.Config{})
	if err != nil {
		t.Fatalf("ledger.New: %v", err)
	}

	userID := "user-alpha"
	user := crypto.HashUserID(userID)
	if err := l.Award(context.Background(), user, 10_000_000); err != nil {
		t.Fatalf("Award: %v", err)
	}

	wire, err := discovery.EncodeSignal(discovery.Signal{
		UserID:    userID,
		Channel:   discovery.DNS,
		PublicKey: pub,
		Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("EncodeSignal: %v", err)
	}
	if _, err := disc.VerifySignal(context.Background(), wire); err != nil {
		t.Fatalf("VerifySignal: %v", err)
	}

	rates := fakeRates{perUnitPerSecond: map[string]float64{
		"cpu": 10,
		"ram": 5,
	}}

	m := New(Config{
		Discovery:  disc,
		Ledger:     l,
		Rates:      rates,
		IssuerPub:  pub,
		IssuerPriv: priv,
	})
	return m, disc, l, userID
}

func TestIssueSucceedsWithVerifiedInvitation(t *testing.T) {
	m, _, _, userID := newTestSetup(t)

	token, err := m.Issue(context.Background(), Request{
		UserID:               userID,
		RequestedPermissions: map[string]bool{"inference": true},
		RequestedLimits:      Limits{CPU: 50, RAM: 10, Storage: 1, Bandwidth: 1},
		DurationHours:        24,
		VerificationChannel:  discovery.DNS,
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token.TokenID == "" {
		t.Fatal("expected a non-empty token id")
	}
	if !m.verifyTokenSignature(*token) {
		t.Fatal("issued token signature did not verify")
	}
}

func TestIssueRejectsWithoutInvitation(t *testing.T) {
	m, _, _, _ := newTestSetup(t)

	_, err := m.Issue(context.Background(), Request{
		UserID:               "unverified-user",
		RequestedPermissions: map[string]bool{"inference": true},
		RequestedLimits:      Limits{CPU: 10},
		DurationHours:        1,
		VerificationChannel:  discovery.DNS,
	})
	if err != ErrNoVerifiedInvitation {
		t.Fatalf("Issue = %v, want ErrNoVerifiedInvitation", err)
	}
}

func TestIssueRejectsInvalidDuration(t *testing.T) {
	m, _, _, userID := newTestSetup(t)

	_, err := m.Issue(context.Background(), Request{
		UserID:               userID,
		RequestedPermissions: map[string]bool{"inference": true},
		RequestedLimits:      Limits{CPU: 10},
		DurationHours:        721,
		VerificationChannel:  discovery.DNS,
	})
	if err != ErrInvalidDuration {
		t.Fatalf("Issue = %v, want ErrInvalidDuration", err)
	}
}

func TestValidateAndChargeFlow(t *testing.T) {
	m, _, l, userID := newTestSetup(t)
	ctx := context.Background()

	token, err := m.Issue(ctx, Request{
		UserID:               userID,
		RequestedPermissions: map[string]bool{"inference": true},
		RequestedLimits:      Limits{CPU: 50, RAM: 10, Storage: 1, Bandwidth: 1},
		DurationHours:        24,
		VerificationChannel:  discovery.DNS,
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	err = m.Validate(TaskValidationInput{
		Token:              *token,
		TaskType:           "inference",
		Required:           map[string]float64{"cpu": 2, "ram": 1},
		MaxExecutionTimeMs: 1000,
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if err := m.Charge(ctx, *token, "task-1", []ResourceCharge{
		{Resource: "cpu", Amount: 2, DurationSeconds: 1},
		{Resource: "ram", Amount: 1, DurationSeconds: 1},
	}); err != nil {
		t.Fatalf("Charge: %v", err)
	}

	balance := l.Balance(crypto.HashUserID(userID))
	if balance.TotalMCC != 10_000_000-25 {
		t.Fatalf("balance after charge = %d, want %d", balance.TotalMCC, 10_000_000-25)
	}
}

// TestValidateRejectsTamperedToken mirrors spec §8 property 4: mutating any
// one field of an otherwise-valid token causes signature verification to
// fail, even though every other precondition would still pass.
func TestValidateRejectsTamperedToken(t *testing.T) {
	m, _, _, userID := newTestSetup(t)
	ctx := context.Background()

	token, err := m.Issue(ctx, Request{
		UserID:               userID,
		RequestedPermissions: map[string]bool{"inference": true},
		RequestedLimits:      Limits{CPU: 50, RAM: 10, Storage: 1, Bandwidth: 1},
		DurationHours:        24,
		VerificationChannel:  discovery.DNS,
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tampered := *token
	tampered.Limits.CPU = 99

	err = m.Validate(TaskValidationInput{
		Token:              tampered,
		TaskType:           "inference",
		Required:           map[string]float64{"cpu": 2, "ram": 1},
		MaxExecutionTimeMs: 1000,
	})
	if err != ErrTokenSignatureInvalid {
		t.Fatalf("Validate(tampered) = %v, want ErrTokenSignatureInvalid", err)
	}
}

func TestValidateRejectsUnpermittedTaskType(t *testing.T) {
	m, _, _, userID := newTestSetup(t)
	ctx := context.Background()

	token, err := m.Issue(ctx, Request{
		UserID:               userID,
		RequestedPermissions: map[string]bool{"inference": true},
		RequestedLimits:      Limits{CPU: 50},
		DurationHours:        1,
		VerificationChannel:  discovery.DNS,
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	err = m.Validate(TaskValidationInput{
		Token:              *token,
		TaskType:           "training",
		Required:           map[string]float64{"cpu": 1},
		MaxExecutionTimeMs: 1000,
	})
	if err != ErrTaskNotPermitted {
		t.Fatalf("Validate = %v, want ErrTaskNotPermitted", err)
	}
}

// TestIssueRefusesTheNPlusOnethToken mirrors spec §8 property 3: issuing
// MaxTokensPerUser+1 tokens for one user, with every prior token still
// active, yields exactly one failure — the (N+1)th.
func TestIssueRefusesTheNPlusOnethToken(t *testing.T) {
	m, _, _, userID := newTestSetup(t)
	ctx := context.Background()

	req := func() Request {
		return Request{
			UserID:               userID,
			RequestedPermissions: map[string]bool{"inference": true},
			RequestedLimits:      Limits{CPU: 1},
			DurationHours:        1,
			VerificationChannel:  discovery.DNS,
		}
	}

	failures := 0
	for i := 0; i < MaxTokensPerUser+1; i++ {
		_, err := m.Issue(ctx, req())
		if err != nil {
			if err != ErrTooManyActiveTokens {
				t.Fatalf("Issue #%d: unexpected error %v", i, err)
			}
			failures++
		}
	}
	if failures != 1 {
		t.Fatalf("failures = %d, want exactly 1", failures)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	m, _, _, userID := newTestSetup(t)
	ctx := context.Background()

	token, err := m.Issue(ctx, Request{
		UserID:               userID,
		RequestedPermissions: map[string]bool{"inference": true},
		RequestedLimits:      Limits{CPU: 10},
		DurationHours:        1,
		VerificationChannel:  discovery.DNS,
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	changed, err := m.Revoke(ctx, userID, token.TokenID)
	if err != nil || !changed {
		t.Fatalf("first Revoke: changed=%v err=%v", changed, err)
	}

	changed, err = m.Revoke(ctx, userID, token.TokenID)
	if err != nil || changed {
		t.Fatalf("second Revoke: changed=%v err=%v, want false/nil", changed, err)
	}

	err = m.Validate(TaskValidationInput{
		Token:              *token,
		TaskType:           "inference",
		Required:           map[string]float64{"cpu": 1},
		MaxExecutionTimeMs: 1000,
	})
	if err != ErrTokenRevokedOrExpired {
		t.Fatalf("Validate after revoke = %v, want ErrTokenRevokedOrExpired", err)
	}
}
