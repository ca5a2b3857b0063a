package amount

import "testing"

func TestFromCreditsRoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, 100, 123456} {
		m, err := FromCredits(float64(n))
		if err != nil {
			t.Fatalf("FromCredits(%d): %v", n, err)
		}
		if m != MilliCredits(n)*MilliPerCredit {
			t.Errorf("FromCredits(%d) = %d, want %d", n, m, MilliCredits(n)*MilliPerCredit)
		}
		if got := m.Credits(); got != float64(n) {
			t.Errorf("Credits() = %v, want %v", got, n)
		}
	}
}

func TestFromCreditsRejectsFractionalMilliCredit(t *testing.T) {
	if _, err := FromCredits(0.0001); err != ErrNonIntegerAmount {
		t.Errorf("expected ErrNonIntegerAmount, got %v", err)
	}
}

func TestArithmetic(t *testing.T) {
	a := MilliCredits(1000)
	b := MilliCredits(400)

	if got := a.Add(b); got != 1400 {
		t.Errorf("Add = %d, want 1400", got)
	}
	if got := a.Sub(b); got != 600 {
		t.Errorf("Sub = %d, want 600", got)
	}
	if got := b.Mul(3); got != 1200 {
		t.Errorf("Mul = %d, want 1200", got)
	}
	if !a.IsPositive() || a.IsNegative() || a.IsZero() {
		t.Error("IsPositive/IsNegative/IsZero mismatch for positive value")
	}
	if got := MilliCredits(-50).Abs(); got != 50 {
		t.Errorf("Abs = %d, want 50", got)
	}
}
