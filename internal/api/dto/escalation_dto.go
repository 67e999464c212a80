package dto

import (
	"time"

	"github.com/careportal/complaint-service/internal/domain"
)

// EscalateRequest payload.
type EscalateRequest struct {
	ToUnitID       string                 `json:"to_unit_id"`
	CCUnitIDs      []string               `json:"cc_unit_ids"`
	Reason         string                 `json:"reason"`
	Notes          string                 `json:"notes"`
	EscalationType string                 `json:"escalation_type"`
	Priority       *domain.TicketPriority `json:"priority"`
	FromUserID     string                 `json:"from_user_id"`
}

// EscalationResponse is the created history record plus the resulting
// escalation unit set.
type EscalationResponse struct {
	ID              string                   `json:"id"`
	TicketID        string                   `json:"ticket_id"`
	FromUserID      string                   `json:"from_user_id"`
	ToUnitID        string                   `json:"to_unit_id"`
	CCUnitIDs       []string                 `json:"cc_unit_ids"`
	Reason          string                   `json:"reason"`
	Notes           string                   `json:"notes"`
	EscalationType  string                   `json:"escalation_type"`
	EscalatedAt     time.Time                `json:"escalated_at"`
	EscalationUnits []EscalationUnitResponse `json:"escalation_units"`
}

// EscalationUnitResponse represents one per-unit work item.
type EscalationUnitResponse struct {
	ID          string                      `json:"id"`
	TicketID    string                      `json:"ticket_id"`
	UnitID      string                      `json:"unit_id"`
	IsPrimary   bool                        `json:"is_primary"`
	IsCC        bool                        `json:"is_cc"`
	Status      domain.EscalationUnitStatus `json:"status"`
	ReceivedAt  *time.Time                  `json:"received_at"`
	CompletedAt *time.Time                  `json:"completed_at"`
	Notes       string                      `json:"notes"`
}

// UpdateEscalationUnitRequest payload.
type UpdateEscalationUnitRequest struct {
	Status domain.EscalationUnitStatus `json:"status"`
	Notes  string                      `json:"notes"`
}
