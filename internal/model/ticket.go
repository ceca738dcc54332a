package model

import "time"

// Ticket records a user's reservation against a round.  A user holds at
// most one active ticket per round, enforced by a unique key on
// (round_id, user_id).  Checked flips to true exactly once when the
// visitor is scanned in; the transition is one-way.
type Ticket struct {
	ID        uint64    `json:"id"`         // tickets.id
	Code      string    `json:"code"`       // tickets.code
	RoundID   uint64    `json:"round_id"`   // tickets.round_id
	UserID    uint64    `json:"user_id"`    // tickets.user_id
	Checked   bool      `json:"checked"`    // tickets.checked
	CreatedAt time.Time `json:"created_at"` // tickets.created_at
	UpdatedAt time.Time `json:"updated_at"` // tickets.updated_at
}
