package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExplainConfirmLoss(t *testing.T) {
	known := &Conflict{Kind: AlreadyUnderProcess, WinnerRole: RoleManager}
	unknown := &Conflict{Kind: AlreadyUnderProcess}

	// Managers always get the generic wording, even when the winner is
	// known — a manager is not told which peer acted first.
	assert.Equal(t, "it was already confirmed by other", Explain(known, RoleManager))
	assert.Equal(t, "it was already confirmed by other", Explain(unknown, RoleManager))

	// Supervisory roles learn who won when the winner is known.
	assert.Equal(t, "already confirmed by the manager", Explain(known, RoleOwner))
	assert.Equal(t, "already confirmed by the manager", Explain(known, RoleAdmin))
	assert.Equal(t, "confirmed by other", Explain(unknown, RoleOwner))
	assert.Equal(t, "confirmed by other", Explain(unknown, RoleAdmin))

	// Roles outside the table fall back to the generic wording.
	assert.Equal(t, "it was already confirmed by other", Explain(known, RoleSales))
}

func TestExplainAssignLoss(t *testing.T) {
	known := &Conflict{Kind: AlreadyAssigned, WinnerRole: RoleOwner}
	unknown := &Conflict{Kind: AlreadyAssigned}

	assert.Equal(t, "fitter was already assigned by other", Explain(known, RoleManager))
	assert.Equal(t, "fitter already assigned by the owner", Explain(known, RoleAdmin))
	assert.Equal(t, "fitter assigned by other", Explain(unknown, RoleOwner))
}

func TestExplainFallsBackToDetail(t *testing.T) {
	cf := &Conflict{Kind: NotReady, Detail: "hoarding is under_process, expected live"}
	assert.Equal(t, "hoarding is under_process, expected live", Explain(cf, RoleOwner))

	cf = &Conflict{Kind: ProofRequired}
	assert.Equal(t, "proof required", Explain(cf, RoleFitter))

	assert.Equal(t, "", Explain(nil, RoleOwner))
}

func TestConflictError(t *testing.T) {
	cf := &Conflict{Kind: HoardingUnavailable, Detail: "hoarding already booked"}
	assert.Equal(t, "HOARDING_UNAVAILABLE: hoarding already booked", cf.Error())
	assert.False(t, cf.Retryable())

	cf = &Conflict{Kind: RetryableConflict}
	assert.Equal(t, "RETRYABLE_CONFLICT", cf.Error())
	assert.True(t, cf.Retryable())
}
