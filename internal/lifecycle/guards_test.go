package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skysign/hoarding-rental/internal/model"
)

func uptr(v uint64) *uint64 { return &v }

func confirmedToken() *model.BookingToken {
	return &model.BookingToken{
		ID:           1,
		HoardingID:   7,
		Status:       TokenConfirmed,
		DesignerID:   uptr(42),
		DesignStatus: DesignPending,
		FitterStatus: FitterPending,
	}
}

func TestCanCreate(t *testing.T) {
	assert.Nil(t, CanCreate(HoardingAvailable, false))
	assert.Nil(t, CanCreate(HoardingUnderProcess, true), "queuing behind an in-flight booking is allowed")
	assert.Nil(t, CanCreate(HoardingLive, false))

	cf := CanCreate(HoardingBooked, false)
	require.NotNil(t, cf)
	assert.Equal(t, HoardingUnavailable, cf.Kind)

	cf = CanCreate(HoardingLive, true)
	require.NotNil(t, cf)
	assert.Equal(t, HoardingUnavailable, cf.Kind)
}

func TestCanConfirmRaceLoserSeesUnderProcessFirst(t *testing.T) {
	// The loser's token is still ACTIVE, but the winner has already
	// flipped the hoarding — the hoarding check must win over the token
	// check so the loser is told about the race, not a generic failure.
	tok := &model.BookingToken{Status: TokenActive}
	cf := CanConfirm(tok, HoardingUnderProcess)
	require.NotNil(t, cf)
	assert.Equal(t, AlreadyUnderProcess, cf.Kind)

	cf = CanConfirm(tok, HoardingBooked)
	require.NotNil(t, cf)
	assert.Equal(t, HoardingUnavailable, cf.Kind)

	assert.Nil(t, CanConfirm(tok, HoardingAvailable))
}

func TestCanConfirmRejectsNonActiveToken(t *testing.T) {
	for _, status := range []string{TokenConfirmed, TokenExpired, TokenCancelled} {
		cf := CanConfirm(&model.BookingToken{Status: status}, HoardingAvailable)
		require.NotNil(t, cf, status)
		assert.Equal(t, InvalidState, cf.Kind, status)
	}
}

func TestCanCancel(t *testing.T) {
	assert.Nil(t, CanCancel(&model.BookingToken{Status: TokenActive}, HoardingAvailable))

	cf := CanCancel(&model.BookingToken{Status: TokenExpired}, HoardingAvailable)
	require.NotNil(t, cf)
	assert.Equal(t, InvalidState, cf.Kind)

	cf = CanCancel(&model.BookingToken{Status: TokenActive}, HoardingUnderProcess)
	require.NotNil(t, cf)
	assert.Equal(t, InvalidState, cf.Kind)
}

func TestExpireEligible(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	tok := &model.BookingToken{Status: TokenActive, ExpiresAt: now.Add(-time.Minute)}
	assert.True(t, ExpireEligible(tok, now))

	tok.ExpiresAt = now
	assert.False(t, ExpireEligible(tok, now), "expiry instant itself has not passed")

	tok.ExpiresAt = now.Add(time.Minute)
	assert.False(t, ExpireEligible(tok, now))

	tok = &model.BookingToken{Status: TokenConfirmed, ExpiresAt: now.Add(-time.Hour)}
	assert.False(t, ExpireEligible(tok, now), "only ACTIVE tokens expire")
}

func TestCanSetDesignForwardOnly(t *testing.T) {
	tok := confirmedToken()
	assert.Nil(t, CanSetDesign(tok, 42, DesignInProgress))

	// No skipping.
	cf := CanSetDesign(tok, 42, DesignCompleted)
	require.NotNil(t, cf)
	assert.Equal(t, ForbiddenTransition, cf.Kind)

	// No reverting.
	tok.DesignStatus = DesignCompleted
	cf = CanSetDesign(tok, 42, DesignInProgress)
	require.NotNil(t, cf)
	assert.Equal(t, ForbiddenTransition, cf.Kind)

	// Terminal status has no successor.
	cf = CanSetDesign(tok, 42, DesignCompleted)
	require.NotNil(t, cf)
	assert.Equal(t, ForbiddenTransition, cf.Kind)
}

func TestCanSetDesignActorChecks(t *testing.T) {
	tok := confirmedToken()

	cf := CanSetDesign(tok, 99, DesignInProgress)
	require.NotNil(t, cf)
	assert.Equal(t, ForbiddenTransition, cf.Kind, "wrong designer")

	tok.DesignerID = nil
	cf = CanSetDesign(tok, 42, DesignInProgress)
	require.NotNil(t, cf)
	assert.Equal(t, ForbiddenTransition, cf.Kind, "no designer assigned")

	tok = confirmedToken()
	tok.Status = TokenActive
	cf = CanSetDesign(tok, 42, DesignInProgress)
	require.NotNil(t, cf)
	assert.Equal(t, InvalidState, cf.Kind, "token not confirmed")

	cf = CanSetDesign(confirmedToken(), 42, "SHIPPED")
	require.NotNil(t, cf)
	assert.Equal(t, InvalidState, cf.Kind, "unknown status")
}

func TestCanAssignFitter(t *testing.T) {
	tok := confirmedToken()
	tok.DesignStatus = DesignCompleted
	assert.Nil(t, CanAssignFitter(tok))

	tok.FitterID = uptr(8)
	cf := CanAssignFitter(tok)
	require.NotNil(t, cf)
	assert.Equal(t, AlreadyAssigned, cf.Kind)

	tok = confirmedToken() // design still PENDING
	cf = CanAssignFitter(tok)
	require.NotNil(t, cf)
	assert.Equal(t, InvalidState, cf.Kind)
}

func TestCanSetFitterProofRequired(t *testing.T) {
	tok := confirmedToken()
	tok.DesignStatus = DesignCompleted
	tok.FitterID = uptr(8)
	tok.FitterStatus = FitterInProgress

	cf := CanSetFitter(tok, 8, FitterFitted, 0)
	require.NotNil(t, cf)
	assert.Equal(t, ProofRequired, cf.Kind)

	assert.Nil(t, CanSetFitter(tok, 8, FitterFitted, 1))
	assert.Nil(t, CanSetFitter(tok, 8, FitterFitted, 3))
}

func TestCanSetFitterForwardOnly(t *testing.T) {
	tok := confirmedToken()
	tok.FitterID = uptr(8)

	assert.Nil(t, CanSetFitter(tok, 8, FitterInProgress, 0))

	cf := CanSetFitter(tok, 8, FitterFitted, 2)
	require.NotNil(t, cf)
	assert.Equal(t, ForbiddenTransition, cf.Kind, "no skipping even with proofs")

	cf = CanSetFitter(tok, 9, FitterInProgress, 0)
	require.NotNil(t, cf)
	assert.Equal(t, ForbiddenTransition, cf.Kind, "wrong fitter")
}

func TestCanFinalize(t *testing.T) {
	tok := confirmedToken()
	tok.FitterStatus = FitterFitted
	assert.Nil(t, CanFinalize(tok, HoardingLive))

	cf := CanFinalize(tok, HoardingUnderProcess)
	require.NotNil(t, cf)
	assert.Equal(t, NotReady, cf.Kind, "hoarding not live yet")

	cf = CanFinalize(tok, HoardingRemovalPending)
	require.NotNil(t, cf)
	assert.Equal(t, NotReady, cf.Kind)

	tok.FitterStatus = FitterInProgress
	cf = CanFinalize(tok, HoardingLive)
	require.NotNil(t, cf)
	assert.Equal(t, NotReady, cf.Kind, "installation not fitted")

	tok = confirmedToken()
	tok.Status = TokenExpired
	cf = CanFinalize(tok, HoardingLive)
	require.NotNil(t, cf)
	assert.Equal(t, InvalidState, cf.Kind)
}

func TestSequentialConfirmsAreDeterministic(t *testing.T) {
	// Two confirms arriving in either order produce the same outcome:
	// whoever enters the critical section first wins, the other is told
	// AlreadyUnderProcess once the mirror status is committed.
	first := &model.BookingToken{ID: 1, HoardingID: 7, Status: TokenActive}
	second := &model.BookingToken{ID: 2, HoardingID: 7, Status: TokenActive}

	require.Nil(t, CanConfirm(first, HoardingAvailable))
	// Winner commits: token CONFIRMED, hoarding under_process.
	cf := CanConfirm(second, HoardingUnderProcess)
	require.NotNil(t, cf)
	assert.Equal(t, AlreadyUnderProcess, cf.Kind)
	assert.False(t, cf.Retryable())
}
