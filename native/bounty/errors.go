package bounty

import (
	"errors"

	"grindchain/native/reputation"
)

// Every precondition violation fails the whole operation with one of these
// sentinels, wrapped with context where useful. Nothing is retried or
// swallowed internally; a failed operation leaves no state mutated.
var (
	ErrInvalidAmount    = errors.New("bounty: amount must be positive")
	ErrInvalidDeadline  = errors.New("bounty: deadline must be in the future")
	ErrBountyIDTooLong  = errors.New("bounty: bounty id empty or exceeds length bound")
	ErrProofTooLong     = errors.New("bounty: proof reference exceeds length bound")
	ErrReasonTooLong    = errors.New("bounty: rejection reason exceeds length bound")
	ErrUnsupportedToken = errors.New("bounty: unsupported token")

	ErrNotFound     = errors.New("bounty: not found")
	ErrBountyExists = errors.New("bounty: identifier already exists")

	ErrWrongStatus  = errors.New("bounty: wrong status for transition")
	ErrUnauthorized = errors.New("bounty: caller not authorized")

	ErrDeadlineExpired    = errors.New("bounty: deadline has passed")
	ErrDeadlineNotReached = errors.New("bounty: deadline has not passed")
	ErrReviewWindowActive = errors.New("bounty: review window has not elapsed")

	ErrAgentBusy        = errors.New("bounty: agent already has an active claim")
	ErrReputationTooLow = errors.New("bounty: creator reputation too low to create")
	ErrAmountAboveTier  = errors.New("bounty: amount exceeds reputation tier limit")

	ErrInsufficientFunds = errors.New("bounty: insufficient balance")
	errVaultAuthority    = errors.New("bounty: vault authority proof mismatch")
	errVaultClosed       = errors.New("bounty: vault already closed")
)

// Kind buckets errors into the coarse taxonomy surfaced to callers.
type Kind uint8

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindNotFound
	KindWrongState
	KindUnauthorized
	KindWindowViolation
	KindCapacityExceeded
	KindAlreadyDone
)

// Classify maps an operation error onto its taxonomy kind. Unknown errors are
// reported as internal.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidDeadline),
		errors.Is(err, ErrBountyIDTooLong),
		errors.Is(err, ErrProofTooLong),
		errors.Is(err, ErrReasonTooLong),
		errors.Is(err, ErrUnsupportedToken),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, reputation.ErrHandleRequired),
		errors.Is(err, reputation.ErrHandleTooLong):
		return KindInvalidInput
	case errors.Is(err, ErrNotFound),
		errors.Is(err, reputation.ErrProfileNotFound):
		return KindNotFound
	case errors.Is(err, ErrWrongStatus):
		return KindWrongState
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrDeadlineExpired),
		errors.Is(err, ErrDeadlineNotReached),
		errors.Is(err, ErrReviewWindowActive):
		return KindWindowViolation
	case errors.Is(err, ErrAgentBusy),
		errors.Is(err, ErrReputationTooLow),
		errors.Is(err, ErrAmountAboveTier):
		return KindCapacityExceeded
	case errors.Is(err, ErrBountyExists),
		errors.Is(err, reputation.ErrAlreadyInitialized),
		errors.Is(err, reputation.ErrHandleAlreadyLinked):
		return KindAlreadyDone
	default:
		return KindInternal
	}
}
