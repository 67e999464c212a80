package dto

import (
	"time"

	"github.com/careportal/complaint-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	UnitID        string                `json:"unit_id"`
	CategoryID    string                `json:"category_id"`
	PatientTypeID string                `json:"patient_type_id"`
	Type          string                `json:"type"`
	Priority      domain.TicketPriority `json:"priority"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	CreatedBy     string                `json:"created_by"`
}

// RespondRequest payload.
type RespondRequest struct {
	Message      string  `json:"message"`
	IsInternal   bool    `json:"is_internal"`
	Resolution   *string `json:"resolution"`
	MarkResolved bool    `json:"mark_resolved"`
	CreatedBy    string  `json:"created_by"`
}

// FlagRequest payload.
type FlagRequest struct {
	IsFlagged  bool    `json:"is_flagged"`
	FlagReason *string `json:"flag_reason"`
	ActorID    string  `json:"actor_id"`
}

// ResolveRequest payload.
type ResolveRequest struct {
	Resolution string `json:"resolution"`
	Message    string `json:"message"`
	CreatedBy  string `json:"created_by"`
}

// CloseRequest payload.
type CloseRequest struct {
	ActorID string `json:"actor_id"`
}

// TicketSummary response.
type TicketSummary struct {
	ID           string                `json:"id"`
	TicketNumber string                `json:"ticket_number"`
	UnitID       string                `json:"unit_id"`
	Type         string                `json:"type"`
	Title        string                `json:"title"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	IsFlagged    bool                  `json:"is_flagged"`
	SLADueAt     *time.Time            `json:"sla_due_at"`
	SLADefaulted bool                  `json:"sla_defaulted"`
	IsOverdue    bool                  `json:"is_overdue"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID              string                   `json:"id"`
	TicketNumber    string                   `json:"ticket_number"`
	UnitID          string                   `json:"unit_id"`
	CategoryID      string                   `json:"category_id"`
	PatientTypeID   string                   `json:"patient_type_id"`
	Type            string                   `json:"type"`
	Title           string                   `json:"title"`
	Description     string                   `json:"description"`
	Status          domain.TicketStatus      `json:"status"`
	Priority        domain.TicketPriority    `json:"priority"`
	AssignedTo      *string                  `json:"assigned_to"`
	IsFlagged       bool                     `json:"is_flagged"`
	FlagReason      *string                  `json:"flag_reason"`
	SLADueAt        *time.Time               `json:"sla_due_at"`
	SLADefaulted    bool                     `json:"sla_defaulted"`
	IsOverdue       bool                     `json:"is_overdue"`
	ResolvedAt      *time.Time               `json:"resolved_at"`
	CreatedBy       string                   `json:"created_by"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
	Responses       []TicketResponseEntry    `json:"responses"`
	EscalationUnits []EscalationUnitResponse `json:"escalation_units"`
}

// TicketResponseEntry represents one thread entry.
type TicketResponseEntry struct {
	ID         string    `json:"id"`
	Message    string    `json:"message"`
	Resolution *string   `json:"resolution"`
	IsInternal bool      `json:"is_internal"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}
