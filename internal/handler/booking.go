package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skysign/hoarding-rental/internal/lifecycle"
	"github.com/skysign/hoarding-rental/internal/model"
	"github.com/skysign/hoarding-rental/internal/repository"
)

// BookingHandler implements the token lifecycle operations that touch
// shared hoarding state: create, confirm, cancel, finalize and the
// snapshot reads.  Confirm and finalize enter the hoarding-keyed
// critical section by locking the hoarding row first; every mutation
// runs inside a transaction so a losing request leaves no partial
// state.  JWT authentication and role checks are performed by
// middleware before any of these run.
type BookingHandler struct {
	TokenRepo    *repository.TokenRepo
	HoardingRepo *repository.HoardingRepo
	UserRepo     *repository.UserRepo
	TokenTTLMin  int // minutes a fresh token stays ACTIVE
}

// NewBookingHandler constructs a BookingHandler.  All repositories must
// be non-nil.
func NewBookingHandler(tokenRepo *repository.TokenRepo, hoardingRepo *repository.HoardingRepo, userRepo *repository.UserRepo, tokenTTLMin int) *BookingHandler {
	if tokenRepo == nil || hoardingRepo == nil || userRepo == nil {
		panic("nil repository passed to NewBookingHandler")
	}
	return &BookingHandler{
		TokenRepo:    tokenRepo,
		HoardingRepo: hoardingRepo,
		UserRepo:     userRepo,
		TokenTTLMin:  tokenTTLMin,
	}
}

// CreateToken handles POST /v1/hoardings/:id/tokens.  A sales user
// raises a new ACTIVE token against the hoarding; the queue position is
// assigned under the hoarding row lock so two simultaneous creations
// can never read the same queue length.  Expired tokens are swept
// lazily inside the same transaction before counting.
func (h *BookingHandler) CreateToken(c echo.Context) error {
	salesID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	hoardingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || hoardingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hoarding id"})
	}
	var body struct {
		ClientID uint64 `json:"client_id"`
	}
	if err := c.Bind(&body); err != nil || body.ClientID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "client_id is required"})
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

	status, err := h.HoardingRepo.LockStatusTx(ctx, tx, hoardingID)
	if err != nil {
		return h.lockFailure(c, err)
	}
	if _, err := h.TokenRepo.ExpireActiveTx(ctx, tx, hoardingID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to sweep expired tokens"})
	}
	_, hasExclusive, err := h.TokenRepo.ConfirmedWinnerTx(ctx, tx, hoardingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to inspect queue"})
	}
	if cf := lifecycle.CanCreate(status, hasExclusive); cf != nil {
		return conflictJSON(c, cf, getRole(c))
	}
	count, err := h.TokenRepo.CountQueuedTx(ctx, tx, hoardingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to count queue"})
	}
	tok := &model.BookingToken{
		HoardingID:    hoardingID,
		ClientID:      body.ClientID,
		SalesUserID:   salesID,
		QueuePosition: count + 1,
		ExpiresAt:     time.Now().UTC().Add(time.Duration(h.TokenTTLMin) * time.Minute),
	}
	if err := h.TokenRepo.CreateTx(ctx, tx, tok); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create token"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{"item": tok})
}

// ConfirmToken handles POST /v1/tokens/:id/confirm.  Exactly one of N
// racing confirms on the same hoarding wins: the hoarding row lock
// serializes them, the winner commits CONFIRMED plus the under_process
// mirror write, and every loser re-reads the committed state and is
// told AlreadyUnderProcess with the winner's role attached.  The
// designer is taken from the body or auto-selected when exactly one
// active designer exists.
func (h *BookingHandler) ConfirmToken(c echo.Context) error {
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
		DesignerID uint64 `json:"designer_id"`
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
	// Enter the critical section keyed by the hoarding, not the token:
	// the race is over the hoarding resource.
	status, err := h.HoardingRepo.LockStatusTx(ctx, tx, tok.HoardingID)
	if err != nil {
		return h.lockFailure(c, err)
	}
	if _, err := h.TokenRepo.ExpireActiveTx(ctx, tx, tok.HoardingID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to sweep expired tokens"})
	}
	// Re-read after the sweep; this token itself may just have expired.
	tok, err = h.TokenRepo.GetTx(ctx, tx, tokenID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load token"})
	}
	if cf := lifecycle.CanConfirm(tok, status); cf != nil {
		if cf.Kind == lifecycle.AlreadyUnderProcess {
			if role, ok, werr := h.TokenRepo.ConfirmedWinnerTx(ctx, tx, tok.HoardingID); werr == nil && ok {
				cf.WinnerRole = role
			}
		}
		return conflictJSON(c, cf, actorRole)
	}
	designerID, derr := h.resolveAssignee(ctx, body.DesignerID, lifecycle.RoleDesigner)
	if derr != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": derr})
	}
	if err := h.TokenRepo.ConfirmTx(ctx, tx, tokenID, designerID, actorID, actorRole); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return conflictJSON(c, &lifecycle.Conflict{Kind: lifecycle.InvalidState, Detail: "token changed, re-read and retry"}, actorRole)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to confirm token"})
	}
	if err := h.HoardingRepo.UpdateStatusTx(ctx, tx, tok.HoardingID, lifecycle.HoardingUnderProcess); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update hoarding status"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	fresh, err := h.TokenRepo.GetByID(ctx, tokenID)
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"confirmed": true})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": fresh})
}

// CancelToken handles POST /v1/tokens/:id/cancel.  Cancellation is
// token-keyed: no hoarding lock is needed, the compare-and-swap on
// ACTIVE rejects a stale snapshot.
func (h *BookingHandler) CancelToken(c echo.Context) error {
	actorRole := getRole(c)
	tokenID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || tokenID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid token id"})
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
	status, err := h.HoardingRepo.GetStatus(ctx, tok.HoardingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load hoarding"})
	}
	if cf := lifecycle.CanCancel(tok, status); cf != nil {
		return conflictJSON(c, cf, actorRole)
	}
	if err := h.TokenRepo.CancelTx(ctx, tx, tokenID); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return conflictJSON(c, &lifecycle.Conflict{Kind: lifecycle.InvalidState, Detail: "token changed, re-read and retry"}, actorRole)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel token"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.NoContent(http.StatusNoContent)
}

// FinalizeHoarding handles POST /v1/hoardings/:id/finalize.  It moves a
// live hoarding to booked once the confirmed token's installation is
// fitted.  The hoarding lock serializes it against racing confirms and
// assignments on the same hoarding.
func (h *BookingHandler) FinalizeHoarding(c echo.Context) error {
	actorRole := getRole(c)
	hoardingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || hoardingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hoarding id"})
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

	status, err := h.HoardingRepo.LockStatusTx(ctx, tx, hoardingID)
	if err != nil {
		return h.lockFailure(c, err)
	}
	tok, err := h.TokenRepo.ConfirmedByHoardingTx(ctx, tx, hoardingID)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return conflictJSON(c, &lifecycle.Conflict{Kind: lifecycle.NotReady, Detail: "no confirmed booking for this hoarding"}, actorRole)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load token"})
	}
	if cf := lifecycle.CanFinalize(tok, status); cf != nil {
		return conflictJSON(c, cf, actorRole)
	}
	if err := h.HoardingRepo.UpdateStatusTx(ctx, tx, hoardingID, lifecycle.HoardingBooked); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update hoarding status"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"hoarding_id": hoardingID,
		"status":      lifecycle.HoardingBooked,
		"token_id":    tok.ID,
	})
}

// GetToken handles GET /v1/tokens/:id — a lock-free snapshot read.
// Clients use it to resynchronize local drafts; it may race harmlessly
// with writers.
func (h *BookingHandler) GetToken(c echo.Context) error {
	tokenID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || tokenID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid token id"})
	}
	tok, err := h.TokenRepo.GetByID(c.Request().Context(), tokenID)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "token not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch token"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": tok})
}

// ListHoardingTokens handles GET /v1/hoardings/:id/tokens.  Returns the
// hoarding's current status alongside its full token queue, newest first.
func (h *BookingHandler) ListHoardingTokens(c echo.Context) error {
	hoardingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || hoardingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hoarding id"})
	}
	ctx := c.Request().Context()
	status, err := h.HoardingRepo.GetStatus(ctx, hoardingID)
	if err != nil {
		if errors.Is(err, repository.ErrHoardingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hoarding not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load hoarding"})
	}
	tokens, err := h.TokenRepo.ListByHoarding(ctx, hoardingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load tokens"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"hoarding_id":     hoardingID,
		"hoarding_status": status,
		"items":           tokens,
	})
}

// resolveAssignee returns the user to assign for a role.  An explicit
// id must belong to an active user with that role; when omitted, the
// single active candidate is auto-selected.  The string return is an
// error message for the client ("" on success).
func (h *BookingHandler) resolveAssignee(ctx context.Context, explicit uint64, role string) (uint64, string) {
	if explicit != 0 {
		u, err := h.UserRepo.GetByID(ctx, explicit)
		if err != nil || !u.IsActive || u.Role != role {
			return 0, "assignee is not an active " + role
		}
		return u.ID, ""
	}
	candidates, err := h.UserRepo.ListActiveByRole(ctx, role)
	if err != nil {
		return 0, "failed to load " + role + " candidates"
	}
	if len(candidates) != 1 {
		return 0, role + " must be specified"
	}
	return candidates[0].ID, ""
}

// lockFailure translates critical-section entry errors.  A busy lock is
// the bounded-wait outcome and is retryable; anything else is a plain
// server error.
func (h *BookingHandler) lockFailure(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrLockBusy) {
		return conflictJSON(c, retryableConflict(), getRole(c))
	}
	if errors.Is(err, repository.ErrHoardingNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "hoarding not found"})
	}
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "hoarding not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to lock hoarding"})
}
