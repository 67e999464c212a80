package events

import (
	"time"

	"github.com/careportal/complaint-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketEscalated       EventType = "ticket_escalated"
	EventTicketResponseAdded   EventType = "ticket_response_added"
	EventTicketFlagged         EventType = "ticket_flagged"
	EventEscalationUnitUpdated EventType = "escalation_unit_updated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNumber string                `json:"ticket_number"`
	UnitID       string                `json:"unit_id"`
	Priority     domain.TicketPriority `json:"priority"`
	Title        string                `json:"title"`
	SLADueAt     *time.Time            `json:"sla_due_at,omitempty"`
	SLADefaulted bool                  `json:"sla_defaulted"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Comment   string              `json:"comment,omitempty"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	EscalationID string   `json:"escalation_id"`
	ToUnitID     string   `json:"to_unit_id"`
	CCUnitIDs    []string `json:"cc_unit_ids,omitempty"`
	Reason       string   `json:"reason"`
}

// TicketResponseAddedPayload payload.
type TicketResponseAddedPayload struct {
	ResponseID  string `json:"response_id"`
	IsInternal  bool   `json:"is_internal"`
	Resolved    bool   `json:"resolved"`
	BodyPreview string `json:"body_preview"`
}

// TicketFlaggedPayload payload.
type TicketFlaggedPayload struct {
	IsFlagged  bool    `json:"is_flagged"`
	FlagReason *string `json:"flag_reason,omitempty"`
}

// EscalationUnitUpdatedPayload payload.
type EscalationUnitUpdatedPayload struct {
	EscalationUnitID string                      `json:"escalation_unit_id"`
	UnitID           string                      `json:"unit_id"`
	Status           domain.EscalationUnitStatus `json:"status"`
}
