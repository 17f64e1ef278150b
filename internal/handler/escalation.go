package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skysign/hoarding-rental/internal/escalation"
	"github.com/skysign/hoarding-rental/internal/repository"
)

// EscalationHandler serves rent escalation previews.  The calculation
// itself is pure; this handler only loads the rent record and picks the
// reference date.
type EscalationHandler struct {
	RentRepo *repository.RentRepo
}

// NewEscalationHandler constructs an EscalationHandler.
func NewEscalationHandler(rentRepo *repository.RentRepo) *EscalationHandler {
	if rentRepo == nil {
		panic("nil repository passed to NewEscalationHandler")
	}
	return &EscalationHandler{RentRepo: rentRepo}
}

// Preview handles GET /v1/hoardings/:id/escalation.  The optional
// ?on=YYYY-MM-DD query selects the reference date (default today, UTC).
// A hoarding without a rent agreement, or an agreement with unusable
// terms, yields available=false rather than an error so callers can
// show a placeholder.
func (h *EscalationHandler) Preview(c echo.Context) error {
	hoardingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || hoardingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hoarding id"})
	}
	reference := time.Now().UTC()
	if on := c.QueryParam("on"); on != "" {
		reference, err = time.Parse("2006-01-02", on)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reference date, expected YYYY-MM-DD"})
		}
	}
	rec, err := h.RentRepo.GetByHoarding(c.Request().Context(), hoardingID)
	if err != nil {
		if errors.Is(err, repository.ErrRentNotFound) {
			return c.JSON(http.StatusOK, echo.Map{"available": false})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load rent record"})
	}
	p := escalation.NextIncrement(*rec, reference)
	if !p.Available {
		return c.JSON(http.StatusOK, echo.Map{"available": false})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"available":     true,
		"cycles_passed": p.CyclesPassed,
		"current_rent":  escalation.FormatPaise(p.CurrentRentPaise),
		"next_rent":     escalation.FormatPaise(p.NextRentPaise),
		"next_date":     p.NextDate.Format("2006-01-02"),
	})
}
