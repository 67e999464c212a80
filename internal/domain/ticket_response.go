package domain

import "time"

// TicketResponse is an append-only entry in a ticket's thread. Internal
// responses are hidden from reporter-facing reads.
type TicketResponse struct {
	ID         string
	TicketID   string
	Message    string
	Resolution *string
	IsInternal bool
	CreatedBy  string
	CreatedAt  time.Time
}
