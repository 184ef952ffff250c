package domain

import "time"

// TicketStatusHistory is an append-only record of a status change. Rows are
// written once and never mutated; ChangedBy is nil when the acting account
// has since been removed.
type TicketStatusHistory struct {
	ID        string
	TicketID  string
	OldStatus TicketStatus
	NewStatus TicketStatus
	ChangedBy *string
	ChangedAt time.Time
	Note      string
}
