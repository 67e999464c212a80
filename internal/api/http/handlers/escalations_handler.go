package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/careportal/complaint-service/internal/api/dto"
	"github.com/careportal/complaint-service/internal/domain"
	"github.com/careportal/complaint-service/internal/service"
	apperrors "github.com/careportal/complaint-service/pkg/util/errorutil"
)

// EscalationsHandler manages escalation endpoints.
type EscalationsHandler struct {
	lifecycle *service.LifecycleService
}

// NewEscalationsHandler constructs handler.
func NewEscalationsHandler(lifecycle *service.LifecycleService) *EscalationsHandler {
	return &EscalationsHandler{lifecycle: lifecycle}
}

// Escalate POST /tickets/:id/escalate.
func (h *EscalationsHandler) Escalate(c *fiber.Ctx) error {
	var req dto.EscalateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	escalation, units, err := h.lifecycle.Escalate(c.UserContext(), c.Params("id"), service.EscalateInput{
		FromUserID:     req.FromUserID,
		ToUnitID:       req.ToUnitID,
		CCUnitIDs:      req.CCUnitIDs,
		Reason:         req.Reason,
		Notes:          req.Notes,
		EscalationType: req.EscalationType,
		Priority:       req.Priority,
	})
	if err != nil {
		return err
	}
	unitResponses := make([]dto.EscalationUnitResponse, 0, len(units))
	for i := range units {
		unitResponses = append(unitResponses, escalationUnitResponse(&units[i]))
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.EscalationResponse{
		ID:              escalation.ID,
		TicketID:        escalation.TicketID,
		FromUserID:      escalation.FromUserID,
		ToUnitID:        escalation.ToUnitID,
		CCUnitIDs:       escalation.CCUnitIDs,
		Reason:          escalation.Reason,
		Notes:           escalation.Notes,
		EscalationType:  escalation.EscalationType,
		EscalatedAt:     escalation.EscalatedAt,
		EscalationUnits: unitResponses,
	}})
}

// ListEscalationUnits GET /tickets/:id/escalation-units.
func (h *EscalationsHandler) ListEscalationUnits(c *fiber.Ctx) error {
	units, err := h.lifecycle.ListEscalationUnits(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.EscalationUnitResponse, 0, len(units))
	for i := range units {
		items = append(items, escalationUnitResponse(&units[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateEscalationUnit PATCH /escalation-units/:id/status.
func (h *EscalationsHandler) UpdateEscalationUnit(c *fiber.Ctx) error {
	var req dto.UpdateEscalationUnitRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status is required", nil)
	}
	unit, ticket, err := h.lifecycle.UpdateEscalationUnit(c.UserContext(), c.Params("id"),
		domain.EscalationUnitStatus(req.Status), req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"escalation_unit": escalationUnitResponse(unit),
		"ticket":          ticketSummary(ticket),
	}})
}
