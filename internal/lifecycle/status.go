// Package lifecycle owns the booking-token state machine: which
// transitions are legal, which actor may perform them, and how a lost
// arbitration is explained to the loser.  Everything in this package is
// pure — guards take state snapshots and return a typed *Conflict or
// nil.  Persistence and locking live in the repository layer.
package lifecycle

// Token statuses.  ACTIVE tokens wait in the per-hoarding queue;
// CONFIRMED tokens carry the design/fitter pipelines; EXPIRED and
// CANCELLED are terminal sinks.
const (
	TokenActive    = "ACTIVE"
	TokenConfirmed = "CONFIRMED"
	TokenExpired   = "EXPIRED"
	TokenCancelled = "CANCELLED"
)

// Design pipeline statuses.  Forward-only: PENDING → IN_PROGRESS → COMPLETED.
const (
	DesignPending    = "PENDING"
	DesignInProgress = "IN_PROGRESS"
	DesignCompleted  = "COMPLETED"
)

// Fitter pipeline statuses.  Forward-only: PENDING → IN_PROGRESS → FITTED.
const (
	FitterPending    = "PENDING"
	FitterInProgress = "IN_PROGRESS"
	FitterFitted     = "FITTED"
)

// Hoarding statuses mirrored from the master catalog.
const (
	HoardingAvailable      = "available"
	HoardingUnderProcess   = "under_process"
	HoardingLive           = "live"
	HoardingBooked         = "booked"
	HoardingRemovalPending = "removal_pending"
	HoardingRemountPending = "remount_pending"
)

// Actor roles as stored in the JWT "role" claim.
const (
	RoleSales    = "SALES"
	RoleOwner    = "OWNER"
	RoleManager  = "MANAGER"
	RoleAdmin    = "ADMIN"
	RoleDesigner = "DESIGNER"
	RoleFitter   = "FITTER"
)

// Role sets per guarded operation, used when registering routes.  The
// core never decides what a role means, only whether the caller's role
// is in the set for a given transition.
var (
	CreateRoles   = []string{RoleSales}
	ConfirmRoles  = []string{RoleOwner, RoleManager, RoleAdmin}
	CancelRoles   = []string{RoleOwner, RoleManager, RoleAdmin}
	AssignRoles   = []string{RoleOwner, RoleManager, RoleAdmin}
	FinalizeRoles = []string{RoleOwner, RoleManager, RoleSales}
)

// designNext maps each design status to its single legal successor.
// Absence from the map means the pipeline has ended.
var designNext = map[string]string{
	DesignPending:    DesignInProgress,
	DesignInProgress: DesignCompleted,
}

// fitterNext maps each fitter status to its single legal successor.
var fitterNext = map[string]string{
	FitterPending:    FitterInProgress,
	FitterInProgress: FitterFitted,
}

// ValidDesignStatus reports whether s is a recognised design status.
func ValidDesignStatus(s string) bool {
	return s == DesignPending || s == DesignInProgress || s == DesignCompleted
}

// ValidFitterStatus reports whether s is a recognised fitter status.
func ValidFitterStatus(s string) bool {
	return s == FitterPending || s == FitterInProgress || s == FitterFitted
}
