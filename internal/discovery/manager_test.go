package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/bioduds/askee/internal/crypto"
)

func newTestManager(t *testing.T) (*Manager, crypto.PublicKey, crypto.PrivateKey) {
	t.Helper()
	pub, priv, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	m := NewManager(pub, priv, time.Minute)
	m.now = func() time.Time { return time.Unix(1_700_000_000, 0).UTC() }
	return m, pub, priv
}

func encodeTestSignal(t *testing.T, when time.Time, userID string, channel Channel) string {
	t.Helper()
	_, userPriv, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	userPub := userPriv.Public().(crypto.PublicKey)
	wire, err := EncodeSignal(Signal{UserID: userID, Channel: channel, PublicKey: userPub, Timestamp: when})
	if err != nil {
		t.Fatalf("EncodeSignal: %v", err)
	}
	return wire
}

func TestVerifySignalSucceeds(t *testing.T) {
	m, _, _ := newTestManager(t)
	wire := encodeTestSignal(t, m.now(), "user-1", DNS)

	inv, err := m.VerifySignal(context.Background(), wire)
	if err != nil {
		t.Fatalf("VerifySignal: %v", err)
	}
	if inv == nil {
		t.Fatal("expected a verified invitation")
	}
	if inv.UserID != "user-1" || inv.Channel != DNS {
		t.Fatalf("invitation = %+v, unexpected fields", inv)
	}
	if !m.VerifyInvitationSignature(*inv) {
		t.Fatal("invitation signature did not verify")
	}
}

func TestVerifySignalIsIdempotent(t *testing.T) {
	m, _, _ := newTestManager(t)
	wire := encodeTestSignal(t, m.now(), "user-2", QR)

	first, err := m.VerifySignal(context.Background(), wire)
	if err != nil || first == nil {
		t.Fatalf("first VerifySignal: inv=%v err=%v", first, err)
	}

	second, err := m.VerifySignal(context.Background(), wire)
	if err != nil {
		t.Fatalf("second VerifySignal: %v", err)
	}
	if second != nil {
		t.Fatalf("expected nil on re-verification, got %+v", second)
	}
}

func TestVerifySignalRejectsStale(t *testing.T) {
	m, _, _ := newTestManager(t)
	stale := m.now().Add(-2 * time.Minute)
	wire := encodeTestSignal(t, stale, "user-3", WellKnown)

	if _, err := m.VerifySignal(context.Background(), wire); err != ErrStaleSignal {
		t.Fatalf("VerifySignal = %v, want ErrStaleSignal", err)
	}
}

func TestDecodeSignalRejectsTamperedPayload(t *testing.T) {
	wire := encodeTestSignal(t, time.Now(), "user-4", DNS)
	replacement := "0"
	if wire[len(wire)-1] == '0' {
		replacement = "1"
	}
	tampered := wire[:len(wire)-1] + replacement

	if _, err := DecodeSignal(tampered); err == nil {
		t.Fatal("expected an error decoding a tampered signal")
	}
}

func TestScanAndVerifyCollectsValidSignals(t *testing.T) {
	m, _, _ := newTestManager(t)
	transport := NewInMemoryTransport()
	ctx := context.Background()

	good := encodeTestSignal(t, m.now(), "user-5", DNS)
	stale := encodeTestSignal(t, m.now().Add(-time.Hour), "user-6", DNS)

	if err := transport.Publish(ctx, DNS, good); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := transport.Publish(ctx, DNS, stale); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := transport.Publish(ctx, DNS, "not-a-valid-payload"); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	verified, err := m.ScanAndVerify(ctx, transport, DNS)
	if err != nil {
		t.Fatalf("ScanAndVerify: %v", err)
	}
	if len(verified) != 1 || verified[0].UserID != "user-5" {
		t.Fatalf("verified = %+v, want exactly user-5", verified)
	}

	if _, ok := m.Lookup("user-5", DNS); !ok {
		t.Fatal("expected user-5 to be looked up successfully")
	}
}
