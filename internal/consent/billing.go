package consent

import (
	"context"
	"fmt"
	"math"

	"github.com/bioduds/askee/internal/amount"
	"github.com/bioduds/askee/internal/crypto"
)

// ErrInsufficientCreditsForResource is the sentinel wrapped with the
// offending resource name on a failed charge (spec §4.D: "First failed
// charge aborts with InsufficientCreditsFor(resource)").
var ErrInsufficientCreditsForResource = fmt.Errorf("consent: insufficient credits")

// ResourceCharge is one (resource, amount, duration) line item to bill
// during task execution (spec §4.D billing).
type ResourceCharge struct {
	Resource        string
	Amount          float64
	DurationSeconds float64
}

// Charge bills token's user for each charge in order via Ledger.Spend,
// multiplying the amount by the duration in seconds and by the resource's
// base rate (spec §4.D). The first failed charge aborts immediately; resources
// already charged are not rolled back — callers wanting atomicity must
// reserve a hold through the ledger beforehand (spec §4.B).
func (m *Manager) Charge(ctx context.Context, token Token, taskID string, charges []ResourceCharge) error {
	user := crypto.HashUserID(token.UserID)

	for _, c := range charges {
		rate, ok := m.rates.BaseRatePerUnitPerSecond(c.Resource)
		if !ok {
			continue
		}
		cost := amount.MilliCredits(math.Round(rate * c.Amount * c.DurationSeconds))
		if cost.IsZero() {
			continue
		}
		if err := m.ledger.Spend(ctx, user, cost, taskID); err != nil {
			return fmt.Errorf("%w for %s: %v", ErrInsufficientCreditsForResource, c.Resource, err)
		}
	}
	return nil
}
