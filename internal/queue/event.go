// Package queue defines message payloads exchanged over the message broker
// and the background consumer that drains them.
package queue

// StatusChangedEvent is published on every successful design or fitter
// status transition.  It carries enough for downstream push delivery
// (live dashboards, notifications) without querying the primary
// database.  Stage is "design" or "fitter".
type StatusChangedEvent struct {
	TokenID      uint64 `json:"token_id"`
	HoardingID   uint64 `json:"hoarding_id"`
	HoardingName string `json:"hoarding_name"`
	Stage        string `json:"stage"`
	NewStatus    string `json:"new_status"`
	ActorID      uint64 `json:"actor_id"`
	ChangedAt    string `json:"changed_at"`
}
