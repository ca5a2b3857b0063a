package ledger

import "errors"

var (
	// ErrInvalidAmount is a validation error: a non-positive or non-integer amount.
	ErrInvalidAmount = errors.New("ledger: invalid amount")
	// ErrInsufficientBalance is an economic error: the account cannot afford the operation.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	// ErrInsufficientHold is an economic error: a task's hold cannot cover the request.
	ErrInsufficientHold = errors.New("ledger: insufficient hold")
	// ErrUnknownTask is returned when an operation names a task with no active hold.
	ErrUnknownTask = errors.New("ledger: unknown task")
	// ErrConservationViolation is a fatal invariant violation (spec §7): the
	// caller must abort rather than continue operating on corrupt accounting.
	ErrConservationViolation = errors.New("ledger: conservation invariant violated")
)
