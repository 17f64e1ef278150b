package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/skysign/hoarding-rental/internal/lifecycle"
)

// getUserID extracts the authenticated user's ID from the echo context.
// JWTAuth stores the raw "sub" claim, which may arrive as several
// numeric types or a string depending on how the token was minted.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getRole extracts the caller's role claim.  RequireRole middleware has
// already vetted it, so an empty string here means a wiring bug.
func getRole(c echo.Context) string {
	if s, ok := c.Get("role").(string); ok {
		return s
	}
	return ""
}

// conflictStatus maps each conflict kind to its HTTP status.
var conflictStatus = map[lifecycle.ConflictKind]int{
	lifecycle.HoardingUnavailable: http.StatusConflict,
	lifecycle.AlreadyUnderProcess: http.StatusConflict,
	lifecycle.AlreadyAssigned:     http.StatusConflict,
	lifecycle.ForbiddenTransition: http.StatusForbidden,
	lifecycle.ProofRequired:       http.StatusBadRequest,
	lifecycle.NotReady:            http.StatusConflict,
	lifecycle.InvalidState:        http.StatusConflict,
	lifecycle.RetryableConflict:   http.StatusConflict,
}

// conflictJSON writes a guard failure as a typed JSON body.  The kind
// travels as structured data so clients never classify by parsing the
// message; the message itself comes from the conflict messaging policy
// and explains why the action failed for this particular actor.
func conflictJSON(c echo.Context, cf *lifecycle.Conflict, actorRole string) error {
	status, ok := conflictStatus[cf.Kind]
	if !ok {
		status = http.StatusConflict
	}
	body := echo.Map{
		"error":   string(cf.Kind),
		"message": lifecycle.Explain(cf, actorRole),
	}
	if cf.WinnerRole != "" {
		body["winner_role"] = cf.WinnerRole
	}
	if cf.Retryable() {
		body["retryable"] = true
		c.Response().Header().Set("Retry-After", "1")
	}
	return c.JSON(status, body)
}

// retryableConflict is returned when the hoarding critical section was
// busy within its bounded wait.
func retryableConflict() *lifecycle.Conflict {
	return &lifecycle.Conflict{Kind: lifecycle.RetryableConflict, Detail: "hoarding is busy, try again"}
}
