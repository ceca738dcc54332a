package model

import "time"

// ActivityCheck is one attendance log entry: a user was seen at an
// activity at a point in time, recorded by a staff member.  Rows are
// append-only; duplicates for the same (activity, user) pair are allowed
// and surfaced to callers as a flag, never rejected.  A check does not
// require a ticket; walk-ins are recorded the same way.
type ActivityCheck struct {
	ID         uint64    `json:"id"`          // activity_checks.id
	ActivityID uint64    `json:"activity_id"` // activity_checks.activity_id
	UserID     uint64    `json:"user_id"`     // activity_checks.user_id
	CreatedBy  uint64    `json:"created_by"`  // activity_checks.created_by (staff)
	CreatedAt  time.Time `json:"created_at"`  // activity_checks.created_at
}
