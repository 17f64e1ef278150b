package lifecycle

import (
	"time"

	"github.com/skysign/hoarding-rental/internal/model"
)

// CanCreate validates raising a new token against a hoarding.
// hasExclusive reports whether a CONFIRMED token already exists for the
// hoarding.  Queuing additional ACTIVE tokens while another token is in
// the design/installation flow is allowed — that is what queue positions
// are for — but a booked hoarding, or a live one under an exclusive
// flow, accepts no further tokens.
func CanCreate(hoardingStatus string, hasExclusive bool) *Conflict {
	if hoardingStatus == HoardingBooked {
		return conflict(HoardingUnavailable, "hoarding already booked")
	}
	if hoardingStatus == HoardingLive && hasExclusive {
		return conflict(HoardingUnavailable, "hoarding is live under another booking")
	}
	return nil
}

// CanConfirm validates promoting an ACTIVE token to CONFIRMED.  The
// hoarding check runs first: a loser whose transaction enters the
// critical section after the winner observes under_process and must be
// told AlreadyUnderProcess, never a generic failure.  The caller fills
// in WinnerRole from the winning token's committed state.
func CanConfirm(tok *model.BookingToken, hoardingStatus string) *Conflict {
	if hoardingStatus == HoardingUnderProcess {
		return conflict(AlreadyUnderProcess, "hoarding already under process")
	}
	if hoardingStatus == HoardingBooked {
		return conflict(HoardingUnavailable, "hoarding already booked")
	}
	if tok.Status != TokenActive {
		return conflict(InvalidState, "token is "+tok.Status+", expected ACTIVE")
	}
	return nil
}

// CanCancel validates cancelling an ACTIVE token.  A token whose
// hoarding is locked under process cannot be cancelled out from under
// the confirmed flow.
func CanCancel(tok *model.BookingToken, hoardingStatus string) *Conflict {
	if tok.Status != TokenActive {
		return conflict(InvalidState, "token is "+tok.Status+", expected ACTIVE")
	}
	if hoardingStatus == HoardingUnderProcess {
		return conflict(InvalidState, "hoarding is locked under process")
	}
	return nil
}

// ExpireEligible reports whether an ACTIVE token may be swept to
// EXPIRED at the given instant.  EXPIRED must never be observed before
// the expiry time has actually passed.
func ExpireEligible(tok *model.BookingToken, now time.Time) bool {
	return tok.Status == TokenActive && now.After(tok.ExpiresAt)
}

// CanSetDesign validates a design-status change.  Only the exact
// designer assigned to the token may move the pipeline, and only one
// step forward at a time — skipping or reverting has no business
// meaning once downstream actors have been notified.
func CanSetDesign(tok *model.BookingToken, actorID uint64, next string) *Conflict {
	if tok.Status != TokenConfirmed {
		return conflict(InvalidState, "token is "+tok.Status+", expected CONFIRMED")
	}
	if !ValidDesignStatus(next) {
		return conflict(InvalidState, "unknown design status "+next)
	}
	if tok.DesignerID == nil || *tok.DesignerID != actorID {
		return conflict(ForbiddenTransition, "only the assigned designer may update design status")
	}
	if designNext[tok.DesignStatus] != next {
		return conflict(ForbiddenTransition, "design status "+tok.DesignStatus+" cannot move to "+next)
	}
	return nil
}

// CanAssignFitter validates setting the fitter on a token.  The design
// must be complete and no fitter may already be assigned; a second
// assigner losing the race gets AlreadyAssigned with the winner's role
// filled in by the caller.
func CanAssignFitter(tok *model.BookingToken) *Conflict {
	if tok.Status != TokenConfirmed {
		return conflict(InvalidState, "token is "+tok.Status+", expected CONFIRMED")
	}
	if tok.FitterID != nil {
		return conflict(AlreadyAssigned, "fitter already assigned")
	}
	if tok.DesignStatus != DesignCompleted {
		return conflict(InvalidState, "design is "+tok.DesignStatus+", expected COMPLETED")
	}
	return nil
}

// CanSetFitter validates a fitter-status change.  Mirrors the design
// pipeline rules; additionally FITTED demands at least one installation
// proof reference — the core enforces presence only, never content.
func CanSetFitter(tok *model.BookingToken, actorID uint64, next string, proofCount int) *Conflict {
	if tok.Status != TokenConfirmed {
		return conflict(InvalidState, "token is "+tok.Status+", expected CONFIRMED")
	}
	if !ValidFitterStatus(next) {
		return conflict(InvalidState, "unknown fitter status "+next)
	}
	if tok.FitterID == nil || *tok.FitterID != actorID {
		return conflict(ForbiddenTransition, "only the assigned fitter may update fitter status")
	}
	if fitterNext[tok.FitterStatus] != next {
		return conflict(ForbiddenTransition, "fitter status "+tok.FitterStatus+" cannot move to "+next)
	}
	if next == FitterFitted && proofCount < 1 {
		return conflict(ProofRequired, "at least one installation proof is required")
	}
	return nil
}

// CanFinalize validates marking the hoarding booked.  The installation
// must be fitted and the hoarding must have gone live; a hoarding still
// under process, or parked in removal_pending/remount_pending, blocks
// finalize without cancelling the in-flight work.
func CanFinalize(tok *model.BookingToken, hoardingStatus string) *Conflict {
	if tok.Status != TokenConfirmed {
		return conflict(InvalidState, "token is "+tok.Status+", expected CONFIRMED")
	}
	if tok.FitterStatus != FitterFitted {
		return conflict(NotReady, "installation is "+tok.FitterStatus+", expected FITTED")
	}
	if hoardingStatus != HoardingLive {
		return conflict(NotReady, "hoarding is "+hoardingStatus+", expected live")
	}
	return nil
}
