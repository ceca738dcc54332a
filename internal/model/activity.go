package model

import "time"

// Activity represents an expo activity (a talk, workshop or booth event)
// as stored in the `activities` table.  An activity owns zero or more
// rounds, which are the individual capacity-limited time slots visitors
// actually reserve.
type Activity struct {
	ID          uint64    `json:"id"`          // activities.id
	Name        string    `json:"name"`        // activities.name
	Description string    `json:"description"` // activities.description
	StartsAt    time.Time `json:"starts_at"`   // activities.starts_at
	EndsAt      time.Time `json:"ends_at"`     // activities.ends_at
	CreatedAt   time.Time `json:"created_at"`  // activities.created_at
	UpdatedAt   time.Time `json:"updated_at"`  // activities.updated_at
}
