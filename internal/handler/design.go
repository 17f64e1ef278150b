package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skysign/hoarding-rental/internal/lifecycle"
	q "github.com/skysign/hoarding-rental/internal/queue"
	"github.com/skysign/hoarding-rental/internal/repository"
	queue_publisher "github.com/skysign/hoarding-rental/internal/service"
)

// DesignHandler lets the assigned designer advance the design pipeline
// on a confirmed token.  The operation is token-keyed: the
// compare-and-swap on the previous design status rejects stale writes
// without any hoarding lock.
type DesignHandler struct {
	TokenRepo    *repository.TokenRepo
	HoardingRepo *repository.HoardingRepo
}

// NewDesignHandler constructs a DesignHandler.
func NewDesignHandler(tokenRepo *repository.TokenRepo, hoardingRepo *repository.HoardingRepo) *DesignHandler {
	if tokenRepo == nil || hoardingRepo == nil {
		panic("nil repository passed to NewDesignHandler")
	}
	return &DesignHandler{TokenRepo: tokenRepo, HoardingRepo: hoardingRepo}
}

// UpdateDesignStatus handles PATCH /v1/tokens/:id/design-status.  Only
// the exact designer assigned to the token may move the pipeline, one
// step forward at a time.  On success a status-changed event is
// published for downstream push delivery.
func (h *DesignHandler) UpdateDesignStatus(c echo.Context) error {
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
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil || body.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
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
	if cf := lifecycle.CanSetDesign(tok, actorID, body.Status); cf != nil {
		return conflictJSON(c, cf, actorRole)
	}
	if err := h.TokenRepo.UpdateDesignStatusTx(ctx, tx, tokenID, tok.DesignStatus, body.Status); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return conflictJSON(c, &lifecycle.Conflict{Kind: lifecycle.InvalidState, Detail: "design status changed, re-read and retry"}, actorRole)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update design status"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	publishStatusChanged(ctx, h.HoardingRepo, tok.HoardingID, q.StatusChangedEvent{
		TokenID:    tokenID,
		HoardingID: tok.HoardingID,
		Stage:      "design",
		NewStatus:  body.Status,
		ActorID:    actorID,
	})
	return c.JSON(http.StatusOK, echo.Map{
		"token_id":      tokenID,
		"design_status": body.Status,
	})
}

// publishStatusChanged fills the event's name and timestamp and pushes
// it to the broker.  The transition has already committed; delivery
// failures are logged and swallowed.
func publishStatusChanged(ctx context.Context, hoardings *repository.HoardingRepo, hoardingID uint64, ev q.StatusChangedEvent) {
	if name, err := hoardings.GetName(ctx, hoardingID); err == nil {
		ev.HoardingName = name
	}
	ev.ChangedAt = time.Now().UTC().Format(time.RFC3339)
	if err := queue_publisher.PublishStatusChanged(ctx, ev); err != nil {
		log.Printf("status event publish failed (token=%d): %v", ev.TokenID, err)
	}
}
