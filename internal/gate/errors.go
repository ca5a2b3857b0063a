package gate

import "errors"

// Code is one of the stable admission-rejection codes on spec §6's wire
// contract. Production builds surface only the Code to callers; the
// underlying predicate detail is available through AdmissionError.Detail
// only when policy.Diagnostics is enabled (spec §7: "do not leak which
// predicate failed in a production build").
type Code string

const (
	HeaderInvalid         Code = "HEADER_INVALID"
	NetworkMismatch       Code = "NETWORK_MISMATCH"
	AgentUnknown          Code = "AGENT_UNKNOWN"
	AgentBlacklisted      Code = "AGENT_BLACKLISTED"
	ModelUnauthorized     Code = "MODEL_UNAUTHORIZED"
	ConcurrencyLimit      Code = "CONCURRENCY_LIMIT"
	ConsentMissing        Code = "CONSENT_MISSING"
	ConsentInvalid        Code = "CONSENT_INVALID"
	ACLDenied             Code = "ACL_DENIED"
	RateLimited           Code = "RATE_LIMIT"
	InsufficientCredits   Code = "INSUFFICIENT_CREDITS"
	SignatureInvalid      Code = "SIGNATURE_INVALID"
	DurationExceedsPolicy Code = "DURATION_EXCEEDS_POLICY"
	ExecutionFailed       Code = "EXECUTION_FAILED"
)

// AdmissionError is returned by Admit. Detail carries the underlying
// predicate failure; Error() only renders it when the gate was constructed
// with policy.Diagnostics enabled (spec §7: "do not leak which predicate
// failed in a production build"). Detail remains reachable via Unwrap for
// callers (e.g. test assertions, operator logging) that want it regardless.
type AdmissionError struct {
	Code        Code
	Detail      error
	diagnostics bool
}

func (e *AdmissionError) Error() string {
	if e.diagnostics && e.Detail != nil {
		return string(e.Code) + ": " + e.Detail.Error()
	}
	return string(e.Code)
}

func (e *AdmissionError) Unwrap() error { return e.Detail }

// admissionErr builds an AdmissionError whose Error() string includes Detail
// only when the gate runs with diagnostics enabled.
func (g *Gate) admissionErr(code Code, detail error) *AdmissionError {
	return &AdmissionError{Code: code, Detail: detail, diagnostics: g.policy.Diagnostics}
}

// ErrUnknownRequest is returned by Settle/Cancel for a request_id the gate
// has no active workload for.
var ErrUnknownRequest = errors.New("gate: unknown request id")
