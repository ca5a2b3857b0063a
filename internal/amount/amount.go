// Package amount defines the integer monetary unit every ledger operation is
// denominated in: milli-credits (mCC). This follows the teacher's own typed
// integer quantity (internal/core/XRPAmount.XRPAmount) rather than passing
// bare int64s or floats through the kernel.
package amount

import (
	"errors"
	"fmt"
	"math"
)

// MilliCredits is an integer amount of milli-credits; 1 credit = 1000 mCC.
// All monetary state in the kernel is denominated in this type — non-integer
// quantities are rejected at the boundary (spec §3).
type MilliCredits int64

// MilliPerCredit is the number of milli-credits in one credit.
const MilliPerCredit MilliCredits = 1000

// ErrNonIntegerAmount is returned when a decimal credit amount does not
// represent a whole number of milli-credits.
var ErrNonIntegerAmount = errors.New("amount: value is not an integral number of milli-credits")

// FromCredits converts a decimal credit amount to MilliCredits, rejecting
// any value that does not round-trip exactly (spec §8 property 2:
// to_mCC(x) rejects x where round(1000x) != 1000x).
func FromCredits(credits float64) (MilliCredits, error) {
	scaled := credits * float64(MilliPerCredit)
	rounded := math.Round(scaled)
	if math.Abs(scaled-rounded) > 1e-9 {
		return 0, ErrNonIntegerAmount
	}
	return MilliCredits(rounded), nil
}

// Credits returns m expressed as a decimal number of credits.
func (m MilliCredits) Credits() float64 {
	return float64(m) / float64(MilliPerCredit)
}

// Add returns m + other.
func (m MilliCredits) Add(other MilliCredits) MilliCredits { return m + other }

// Sub returns m - other.
func (m MilliCredits) Sub(other MilliCredits) MilliCredits { return m - other }

// Mul returns m multiplied by a non-negative scalar factor.
func (m MilliCredits) Mul(factor int64) MilliCredits { return m * MilliCredits(factor) }

// IsPositive reports whether m > 0.
func (m MilliCredits) IsPositive() bool { return m > 0 }

// IsNegative reports whether m < 0.
func (m MilliCredits) IsNegative() bool { return m < 0 }

// IsZero reports whether m == 0.
func (m MilliCredits) IsZero() bool { return m == 0 }

// Abs returns the absolute value of m.
func (m MilliCredits) Abs() MilliCredits {
	if m < 0 {
		return -m
	}
	return m
}

func (m MilliCredits) String() string {
	return fmt.Sprintf("%d", int64(m))
}
