package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/careportal/complaint-service/internal/api/dto"
	"github.com/careportal/complaint-service/internal/domain"
	"github.com/careportal/complaint-service/internal/service"
	apperrors "github.com/careportal/complaint-service/pkg/util/errorutil"
)

// TicketsHandler manages ticket lifecycle endpoints.
type TicketsHandler struct {
	lifecycle *service.LifecycleService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(lifecycle *service.LifecycleService) *TicketsHandler {
	return &TicketsHandler{lifecycle: lifecycle}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.lifecycle.Create(c.UserContext(), service.TicketCreateInput{
		UnitID:        req.UnitID,
		CategoryID:    req.CategoryID,
		PatientTypeID: req.PatientTypeID,
		Type:          req.Type,
		Priority:      req.Priority,
		Title:         req.Title,
		Description:   req.Description,
		CreatedBy:     req.CreatedBy,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := parseTicketQuery(c)
	tickets, err := h.lifecycle.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	includeInternal := c.Query("include_internal", "true") != "false"
	detail, err := h.lifecycle.Get(c.UserContext(), c.Params("id"), includeInternal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(detail)})
}

// Respond POST /tickets/:id/respond.
func (h *TicketsHandler) Respond(c *fiber.Ctx) error {
	var req dto.RespondRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	response, ticket, err := h.lifecycle.Respond(c.UserContext(), c.Params("id"), service.RespondInput{
		Message:      req.Message,
		IsInternal:   req.IsInternal,
		Resolution:   req.Resolution,
		MarkResolved: req.MarkResolved,
		CreatedBy:    req.CreatedBy,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"response": responseEntry(response),
		"ticket":   ticketSummary(ticket),
	}})
}

// Flag POST /tickets/:id/flag.
func (h *TicketsHandler) Flag(c *fiber.Ctx) error {
	var req dto.FlagRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.lifecycle.Flag(c.UserContext(), c.Params("id"), service.FlagInput{
		IsFlagged:  req.IsFlagged,
		FlagReason: req.FlagReason,
		ActorID:    req.ActorID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// Resolve POST /tickets/:id/resolve.
func (h *TicketsHandler) Resolve(c *fiber.Ctx) error {
	var req dto.ResolveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.lifecycle.Resolve(c.UserContext(), c.Params("id"), req.Resolution, req.Message, req.CreatedBy)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// CloseTicket POST /tickets/:id/close.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	var req dto.CloseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.lifecycle.Close(c.UserContext(), c.Params("id"), req.ActorID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if unitID := c.Query("unit_id"); unitID != "" {
		filter.UnitID = &unitID
	}
	if flaggedStr := c.Query("is_flagged"); flaggedStr != "" {
		if flagged, err := strconv.ParseBool(flaggedStr); err == nil {
			filter.IsFlagged = &flagged
		}
	}
	if overdueStr := c.Query("overdue"); overdueStr != "" {
		if overdue, err := strconv.ParseBool(overdueStr); err == nil {
			filter.Overdue = &overdue
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
