package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/skysign/hoarding-rental/internal/lifecycle"
	q "github.com/skysign/hoarding-rental/internal/queue"
	"github.com/skysign/hoarding-rental/internal/repository"
)

// FitterHandler covers the installation leg of a confirmed token:
// assigning the fitter (hoarding-keyed arbitration, at most one winner)
// and advancing the fitter pipeline (token-keyed, assigned fitter only).
type FitterHandler struct {
	TokenRepo    *repository.TokenRepo
	HoardingRepo *repository.HoardingRepo
	UserRepo     *repository.UserRepo
}

// NewFitterHandler constructs a FitterHandler.
func NewFitterHandler(tokenRepo *repository.TokenRepo, hoardingRepo *repository.HoardingRepo, userRepo *repository.UserRepo) *FitterHandler {
	if tokenRepo == nil || hoardingRepo == nil || userRepo == nil {
		panic("nil repository passed to NewFitterHandler")
	}
	return &FitterHandler{TokenRepo: tokenRepo, HoardingRepo: hoardingRepo, UserRepo: userRepo}
}

// AssignFitter handles POST /v1/tokens/:id/fitter.  Racing assigners
// are serialized by the hoarding row lock; the loser observes the
// winner's committed fitter and is told AlreadyAssigned with the
// winner's role.  The fitter is taken from the body or auto-selected
// when exactly one active fitter exists.
func (h *FitterHandler) AssignFitter(c echo.Context) error {
	actorRole := getRole(c)
	tokenID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || tokenID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid token id"})
	}
	var body struct {
		FitterID uint64 `json:"fitter_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	tx, err := h.TokenRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	tok, err := h.TokenRepo.GetTx(ctx, tx, tokenID)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "token not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load token"})
	}
	// The race is over the hoarding resource; lock it first.
	if _, err := h.HoardingRepo.LockStatusTx(ctx, tx, tok.HoardingID); err != nil {
		if errors.Is(err, repository.ErrLockBusy) {
			return conflictJSON(c, retryableConflict(), actorRole)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to lock hoarding"})
	}
	// Re-read inside the critical section so a committed winner is seen.
	tok, err = h.TokenRepo.GetTx(ctx, tx, tokenID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load token"})
	}
	if cf := lifecycle.CanAssignFitter(tok); cf != nil {
		if cf.Kind == lifecycle.AlreadyAssigned && tok.AssignedRole != nil {
			cf.WinnerRole = *tok.AssignedRole
		}
		return conflictJSON(c, cf, actorRole)
	}
	fitterID, ferr := h.resolveFitter(c, body.FitterID)
	if ferr != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ferr})
	}
	if err := h.TokenRepo.AssignFitterTx(ctx, tx, tokenID, fitterID, actorRole); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return conflictJSON(c, &lifecycle.Conflict{Kind: lifecycle.AlreadyAssigned}, actorRole)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to assign fitter"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"token_id":      tokenID,
		"fitter_id":     fitterID,
		"fitter_status": lifecycle.FitterPending,
	})
}

// UpdateFitterStatus handles PATCH /v1/tokens/:id/fitter-status.  Only
// the assigned fitter may advance the pipeline; FITTED additionally
// requires at least one installation proof reference, stored in the
// same transaction so the proof and the status land together or not at
// all.  On success a status-changed event is published.
func (h *FitterHandler) UpdateFitterStatus(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	actorRole := getRole(c)
	tokenID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || tokenID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid token id"})
	}
	var body struct {
		Status    string   `json:"status"`
		ProofRefs []string `json:"proof_refs"`
	}
	if err := c.Bind(&body); err != nil || body.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}
	// Drop empty refs so a list of blanks does not satisfy the proof guard.
	refs := make([]string, 0, len(body.ProofRefs))
	for _, ref := range body.ProofRefs {
		if ref != "" {
			refs = append(refs, ref)
		}
	}

	ctx := c.Request().Context()
	tx, err := h.TokenRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	tok, err := h.TokenRepo.GetTx(ctx, tx, tokenID)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "token not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load token"})
	}
	if cf := lifecycle.CanSetFitter(tok, actorID, body.Status, len(refs)); cf != nil {
		return conflictJSON(c, cf, actorRole)
	}
	if err := h.TokenRepo.UpdateFitterStatusTx(ctx, tx, tokenID, tok.FitterStatus, body.Status); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return conflictJSON(c, &lifecycle.Conflict{Kind: lifecycle.InvalidState, Detail: "fitter status changed, re-read and retry"}, actorRole)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update fitter status"})
	}
	if body.Status == lifecycle.FitterFitted {
		if err := h.TokenRepo.AddProofsTx(ctx, tx, tokenID, refs); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store installation proofs"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	publishStatusChanged(ctx, h.HoardingRepo, tok.HoardingID, q.StatusChangedEvent{
		TokenID:    tokenID,
		HoardingID: tok.HoardingID,
		Stage:      "fitter",
		NewStatus:  body.Status,
		ActorID:    actorID,
	})
	return c.JSON(http.StatusOK, echo.Map{
		"token_id":      tokenID,
		"fitter_status": body.Status,
	})
}

// resolveFitter mirrors BookingHandler.resolveAssignee for the fitter
// role.
func (h *FitterHandler) resolveFitter(c echo.Context, explicit uint64) (uint64, string) {
	ctx := c.Request().Context()
	if explicit != 0 {
		u, err := h.UserRepo.GetByID(ctx, explicit)
		if err != nil || !u.IsActive || u.Role != lifecycle.RoleFitter {
			return 0, "assignee is not an active FITTER"
		}
		return u.ID, ""
	}
	candidates, err := h.UserRepo.ListActiveByRole(ctx, lifecycle.RoleFitter)
	if err != nil {
		return 0, "failed to load FITTER candidates"
	}
	if len(candidates) != 1 {
		return 0, "fitter_id must be specified"
	}
	return candidates[0].ID, ""
}
