package lifecycle

import (
	"fmt"
	"strings"
)

// Conflict messaging policy.  A lost arbitration is explained
// differently depending on who lost and whether the winner is known:
// supervisory roles (owner, admin) are told which subordinate acted
// first, managers get the generic wording.  The mapping is a fixed
// table so server and clients always agree on the text.

type msgKey struct {
	loserRole   string
	winnerKnown bool
}

// confirmLoss holds templates for AlreadyUnderProcess.  Templates with
// a %s verb receive the winner's role in lower case.
var confirmLoss = map[msgKey]string{
	{RoleManager, true}:  "it was already confirmed by other",
	{RoleManager, false}: "it was already confirmed by other",
	{RoleOwner, true}:    "already confirmed by the %s",
	{RoleOwner, false}:   "confirmed by other",
	{RoleAdmin, true}:    "already confirmed by the %s",
	{RoleAdmin, false}:   "confirmed by other",
}

// assignLoss holds templates for AlreadyAssigned.
var assignLoss = map[msgKey]string{
	{RoleManager, true}:  "fitter was already assigned by other",
	{RoleManager, false}: "fitter was already assigned by other",
	{RoleOwner, true}:    "fitter already assigned by the %s",
	{RoleOwner, false}:   "fitter assigned by other",
	{RoleAdmin, true}:    "fitter already assigned by the %s",
	{RoleAdmin, false}:   "fitter assigned by other",
}

// Explain renders a human-readable explanation of a conflict for the
// given loser role.  For race-loss kinds it consults the messaging
// table above; all other kinds fall back to the conflict detail so the
// caller always learns why, not just that, the action failed.
func Explain(c *Conflict, actorRole string) string {
	if c == nil {
		return ""
	}
	switch c.Kind {
	case AlreadyUnderProcess:
		return renderLoss(confirmLoss, actorRole, c.WinnerRole, "it was already confirmed by other")
	case AlreadyAssigned:
		return renderLoss(assignLoss, actorRole, c.WinnerRole, "fitter was already assigned by other")
	}
	if c.Detail != "" {
		return c.Detail
	}
	return strings.ToLower(strings.ReplaceAll(string(c.Kind), "_", " "))
}

func renderLoss(table map[msgKey]string, loserRole, winnerRole, fallback string) string {
	tmpl, ok := table[msgKey{loserRole, winnerRole != ""}]
	if !ok {
		tmpl = fallback
	}
	if strings.Contains(tmpl, "%s") {
		return fmt.Sprintf(tmpl, strings.ToLower(winnerRole))
	}
	return tmpl
}
