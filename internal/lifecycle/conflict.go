package lifecycle

import "fmt"

// ConflictKind enumerates every guard failure the state machine can
// produce.  Handlers translate kinds into HTTP statuses; callers must
// never have to parse message text to classify a failure.
type ConflictKind string

const (
	// HoardingUnavailable – the hoarding cannot accept a new token
	// (already booked, or live under an exclusive flow).
	HoardingUnavailable ConflictKind = "HOARDING_UNAVAILABLE"
	// AlreadyUnderProcess – a confirm lost the race; another token on
	// the same hoarding has already been confirmed.
	AlreadyUnderProcess ConflictKind = "ALREADY_UNDER_PROCESS"
	// AlreadyAssigned – a fitter assignment lost the race.
	AlreadyAssigned ConflictKind = "ALREADY_ASSIGNED"
	// ForbiddenTransition – wrong actor, or a non-forward pipeline move.
	ForbiddenTransition ConflictKind = "FORBIDDEN_TRANSITION"
	// ProofRequired – FITTED was attempted without any installation proof.
	ProofRequired ConflictKind = "PROOF_REQUIRED"
	// NotReady – finalize attempted before the hoarding is live or the
	// installation is fitted.
	NotReady ConflictKind = "NOT_READY"
	// InvalidState – generic guard failure (token not in the required
	// status, stale snapshot, unparseable transition).
	InvalidState ConflictKind = "INVALID_STATE"
	// RetryableConflict – the hoarding-keyed critical section could not
	// be entered within the bounded wait.  The only kind a caller may
	// retry automatically.
	RetryableConflict ConflictKind = "RETRYABLE_CONFLICT"
)

// Conflict is a typed guard failure.  WinnerRole is populated for the
// race-loss kinds (AlreadyUnderProcess, AlreadyAssigned) when the
// winner's committed state identifies who acted first; it is empty when
// the winner is unknown.  Detail carries optional diagnostic context and
// is never required for classification.
type Conflict struct {
	Kind       ConflictKind
	WinnerRole string
	Detail     string
}

// Error implements the error interface so conflicts can travel through
// transaction helpers; handlers should type-assert rather than match text.
func (c *Conflict) Error() string {
	if c.Detail != "" {
		return fmt.Sprintf("%s: %s", c.Kind, c.Detail)
	}
	return string(c.Kind)
}

// Retryable reports whether the caller may automatically retry the
// operation.  All other kinds require a fresh decision from the actor.
func (c *Conflict) Retryable() bool { return c.Kind == RetryableConflict }

// conflict builds a Conflict without winner attribution.
func conflict(kind ConflictKind, detail string) *Conflict {
	return &Conflict{Kind: kind, Detail: detail}
}
