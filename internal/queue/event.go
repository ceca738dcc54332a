// Package queue defines message payloads exchanged over the message broker
// and the background consumer that turns them into an audit trail.
package queue

// TicketReservedQueue and CheckInQueue are the durable queue names the
// publisher and consumer agree on.
const (
	TicketReservedQueue = "ticket.reserved"
	CheckInQueue        = "activity.checkin"
)

// TicketReservedEvent is published after a reservation saga commits.
// It carries enough information for downstream consumers to log, notify,
// or feed analytics without querying the primary database.
type TicketReservedEvent struct {
	TicketID   uint64 `json:"ticket_id"`
	TicketCode string `json:"ticket_code"`
	UserID     uint64 `json:"user_id"`
	RoundID    uint64 `json:"round_id"`
	ReservedAt string `json:"reserved_at"`
}

// CheckInEvent is published after an attendance entry is recorded.
// Duplicated mirrors the flag returned to the scanner: the entry was
// stored even though the user had been seen at the activity before.
type CheckInEvent struct {
	CheckID    uint64 `json:"check_id"`
	ActivityID uint64 `json:"activity_id"`
	UserID     uint64 `json:"user_id"`
	RecordedBy uint64 `json:"recorded_by"`
	Duplicated bool   `json:"duplicated"`
	CheckedAt  string `json:"checked_at"`
}
