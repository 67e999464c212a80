package domain

import "time"

// TicketStatus enumerates lifecycle states for complaint tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusEscalated  TicketStatus = "ESCALATED"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// ValidPriority reports whether p is a known priority value.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Ticket is the aggregate for complaint records.
type Ticket struct {
	ID            string
	TicketNumber  string
	UnitID        string
	CategoryID    string
	PatientTypeID string
	Type          string
	Title         string
	Description   string
	Status        TicketStatus
	Priority      TicketPriority
	AssignedTo    *string
	IsFlagged     bool
	FlagReason    *string
	SLADueAt      *time.Time
	SLASettingID  *string
	ResolvedAt    *time.Time
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsTerminal reports whether the ticket reached a final state.
func (t *Ticket) IsTerminal() bool {
	return t.Status == TicketStatusResolved || t.Status == TicketStatusClosed
}

// SLADefaulted reports whether the deadline came from the system default
// because no SLA setting matched at creation.
func (t *Ticket) SLADefaulted() bool {
	return t.SLADueAt != nil && t.SLASettingID == nil
}
