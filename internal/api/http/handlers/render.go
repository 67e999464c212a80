package handlers

import (
	"time"

	"github.com/careportal/complaint-service/internal/api/dto"
	"github.com/careportal/complaint-service/internal/domain"
	"github.com/careportal/complaint-service/internal/service"
)

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:           ticket.ID,
		TicketNumber: ticket.TicketNumber,
		UnitID:       ticket.UnitID,
		Type:         ticket.Type,
		Title:        ticket.Title,
		Status:       ticket.Status,
		Priority:     ticket.Priority,
		IsFlagged:    ticket.IsFlagged,
		SLADueAt:     ticket.SLADueAt,
		SLADefaulted: ticket.SLADefaulted(),
		IsOverdue:    service.IsOverdue(ticket, time.Now()),
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
	}
}

func ticketDetail(detail *service.TicketDetail) dto.TicketDetailResponse {
	ticket := &detail.Ticket
	responses := make([]dto.TicketResponseEntry, 0, len(detail.Responses))
	for i := range detail.Responses {
		responses = append(responses, responseEntry(&detail.Responses[i]))
	}
	units := make([]dto.EscalationUnitResponse, 0, len(detail.EscalationUnits))
	for i := range detail.EscalationUnits {
		units = append(units, escalationUnitResponse(&detail.EscalationUnits[i]))
	}
	return dto.TicketDetailResponse{
		ID:              ticket.ID,
		TicketNumber:    ticket.TicketNumber,
		UnitID:          ticket.UnitID,
		CategoryID:      ticket.CategoryID,
		PatientTypeID:   ticket.PatientTypeID,
		Type:            ticket.Type,
		Title:           ticket.Title,
		Description:     ticket.Description,
		Status:          ticket.Status,
		Priority:        ticket.Priority,
		AssignedTo:      ticket.AssignedTo,
		IsFlagged:       ticket.IsFlagged,
		FlagReason:      ticket.FlagReason,
		SLADueAt:        ticket.SLADueAt,
		SLADefaulted:    ticket.SLADefaulted(),
		IsOverdue:       detail.IsOverdue,
		ResolvedAt:      ticket.ResolvedAt,
		CreatedBy:       ticket.CreatedBy,
		CreatedAt:       ticket.CreatedAt,
		UpdatedAt:       ticket.UpdatedAt,
		Responses:       responses,
		EscalationUnits: units,
	}
}

func responseEntry(response *domain.TicketResponse) dto.TicketResponseEntry {
	return dto.TicketResponseEntry{
		ID:         response.ID,
		Message:    response.Message,
		Resolution: response.Resolution,
		IsInternal: response.IsInternal,
		CreatedBy:  response.CreatedBy,
		CreatedAt:  response.CreatedAt,
	}
}

func escalationUnitResponse(unit *domain.EscalationUnit) dto.EscalationUnitResponse {
	return dto.EscalationUnitResponse{
		ID:          unit.ID,
		TicketID:    unit.TicketID,
		UnitID:      unit.UnitID,
		IsPrimary:   unit.IsPrimary,
		IsCC:        unit.IsCC,
		Status:      unit.Status,
		ReceivedAt:  unit.ReceivedAt,
		CompletedAt: unit.CompletedAt,
		Notes:       unit.Notes,
	}
}
