package model

import "time"

// Round is a scheduled, capacity-limited time slot belonging to an
// activity.  The seat counters live directly on the row: Capacity is the
// total number of seats and Reserved is how many are currently taken.
// Availability is always derived, never stored, so the two counters are
// the single source of truth.
//
// Invariant: 0 <= Reserved <= Capacity after every committed mutation.
// The counters are only mutated through RoundRepo's conditional updates;
// nothing else may touch them.
type Round struct {
	ID         uint64    `json:"id"`          // rounds.id
	ActivityID uint64    `json:"activity_id"` // rounds.activity_id
	Name       string    `json:"name"`        // rounds.name
	StartsAt   time.Time `json:"starts_at"`   // rounds.starts_at
	EndsAt     time.Time `json:"ends_at"`     // rounds.ends_at
	Capacity   uint32    `json:"capacity"`    // rounds.capacity
	Reserved   uint32    `json:"reserved"`    // rounds.reserved
	CreatedAt  time.Time `json:"created_at"`  // rounds.created_at
	UpdatedAt  time.Time `json:"updated_at"`  // rounds.updated_at
}

// Available returns the number of seats still open on the round.  It is
// clamped at zero so a transiently inconsistent row never yields a
// negative count to callers.
func (r *Round) Available() uint32 {
	if r.Reserved >= r.Capacity {
		return 0
	}
	return r.Capacity - r.Reserved
}
