package consent

import (
	"math"

	"github.com/bioduds/askee/internal/amount"
	"github.com/bioduds/askee/internal/crypto"
)

// TaskValidationInput bundles the inputs Validate needs to check a token
// against a candidate task (spec §4.D "validation for a task").
type TaskValidationInput struct {
	Token              Token
	TaskType           string
	Required           map[string]float64 // resource -> amount
	MaxExecutionTimeMs int64
}

// Validate checks all five preconditions of spec §4.D in order, short-
// circuiting on the first failure.
func (m *Manager) Validate(in TaskValidationInput) error {
	now := m.now().UTC()

	if in.Token.Revoked || m.IsRevoked(in.Token.TokenID) || in.Token.IsExpired(now) {
		return ErrTokenRevokedOrExpired
	}

	if !m.verifyTokenSignature(in.Token) {
		return ErrTokenSignatureInvalid
	}

	estimated, err := m.estimateCost(in.Required, in.MaxExecutionTimeMs)
	if err != nil {
		return err
	}
	balance := m.ledger.Balance(crypto.HashUserID(in.Token.UserID))
	if balance.TotalMCC < estimated {
		return ErrInsufficientBalance
	}

	if !in.Token.Permissions[in.TaskType] {
		return ErrTaskNotPermitted
	}

	for resource, required := range in.Required {
		limit, ok := in.Token.Limits.Get(resource)
		if !ok || limit < required {
			return ErrResourceLimitExceeded
		}
	}

	return nil
}

func (m *Manager) verifyTokenSignature(token Token) bool {
	signature := token.Signature
	token.Signature = nil
	payload, err := crypto.CanonicalJSON(token)
	if err != nil {
		return false
	}
	return crypto.Verify(m.issuerPub, payload, signature)
}

func (m *Manager) estimateCost(required map[string]float64, maxExecutionTimeMs int64) (amount.MilliCredits, error) {
	seconds := float64(maxExecutionTimeMs) / 1000.0
	var total amount.MilliCredits
	for resource, quantity := range required {
		rate, ok := m.rates.BaseRatePerUnitPerSecond(resource)
		if !ok {
			continue
		}
		cost := math.Round(rate * quantity * seconds)
		total += amount.MilliCredits(cost)
	}
	return total, nil
}
