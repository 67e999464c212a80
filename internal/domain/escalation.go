package domain

import "time"

// EscalationUnitStatus tracks a receiving unit's progress on its portion
// of an escalated ticket.
type EscalationUnitStatus string

const (
	EscalationUnitPending    EscalationUnitStatus = "PENDING"
	EscalationUnitReceived   EscalationUnitStatus = "RECEIVED"
	EscalationUnitInProgress EscalationUnitStatus = "IN_PROGRESS"
	EscalationUnitCompleted  EscalationUnitStatus = "COMPLETED"
)

// ValidEscalationUnitStatus reports whether s is a known unit status.
func ValidEscalationUnitStatus(s EscalationUnitStatus) bool {
	switch s {
	case EscalationUnitPending, EscalationUnitReceived, EscalationUnitInProgress, EscalationUnitCompleted:
		return true
	}
	return false
}

// TicketEscalation is the immutable history record of one escalation action.
type TicketEscalation struct {
	ID             string
	TicketID       string
	FromUserID     string
	ToUnitID       string
	CCUnitIDs      []string
	Reason         string
	Notes          string
	EscalationType string
	EscalatedAt    time.Time
}

// EscalationUnit is the per-unit work item created by an escalation.
// At most one row per ticket carries IsPrimary at any time.
type EscalationUnit struct {
	ID          string
	TicketID    string
	UnitID      string
	IsPrimary   bool
	IsCC        bool
	Status      EscalationUnitStatus
	ReceivedAt  *time.Time
	CompletedAt *time.Time
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
