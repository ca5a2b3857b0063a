package consent

import "errors"

// Issuance reject codes (spec §4.D: "each a distinct reject code").
var (
	ErrNoVerifiedInvitation = errors.New("consent: no verified invitation for user and channel")
	ErrTooManyActiveTokens  = errors.New("consent: user already holds the maximum active tokens")
	ErrEmptyPermissions     = errors.New("consent: requested permissions must be non-empty")
	ErrInvalidLimits        = errors.New("consent: requested limits are invalid")
	ErrInvalidDuration      = errors.New("consent: duration_hours must be in [1,720]")
)

// Validation failure reasons (spec §4.D, "valid iff all of").
var (
	ErrTokenRevokedOrExpired = errors.New("consent: token revoked or expired")
	ErrTokenSignatureInvalid = errors.New("consent: token signature invalid")
	ErrInsufficientBalance   = errors.New("consent: balance cannot cover estimated cost")
	ErrTaskNotPermitted      = errors.New("consent: task type not permitted by token")
	ErrResourceLimitExceeded = errors.New("consent: required resource exceeds token limit")
)

// ErrUnknownToken is returned by Revoke for a token id the manager does not hold.
var ErrUnknownToken = errors.New("consent: unknown token")
