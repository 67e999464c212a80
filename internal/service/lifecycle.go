package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/careportal/complaint-service/internal/domain"
	"github.com/careportal/complaint-service/internal/events"
	"github.com/careportal/complaint-service/internal/repository"
	apperrors "github.com/careportal/complaint-service/pkg/util/errorutil"
)

// LifecycleService is the single entry point for ticket mutations. Every
// operation re-reads the ticket inside the transactional boundary, validates
// the transition against the current state, and commits with the updated_at
// precondition, so concurrent writers never silently overwrite each other.
type LifecycleService struct {
	store      repository.Store
	sla        *SLACalculator
	router     *EscalationRouter
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// LifecycleDependencies bundles collaborators for the facade.
type LifecycleDependencies struct {
	Store      repository.Store
	SLA        *SLACalculator
	Router     *EscalationRouter
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewLifecycleService constructs the facade.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	return &LifecycleService{
		store:      deps.Store,
		sla:        deps.SLA,
		router:     deps.Router,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	UnitID        string
	CategoryID    string
	PatientTypeID string
	Type          string
	Priority      domain.TicketPriority
	Title         string
	Description   string
	CreatedBy     string
}

// RespondInput describes a response/resolution entry.
type RespondInput struct {
	Message      string
	IsInternal   bool
	Resolution   *string
	MarkResolved bool
	CreatedBy    string
}

// FlagInput toggles the flag overlay on a ticket.
type FlagInput struct {
	IsFlagged  bool
	FlagReason *string
	ActorID    string
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	UnitID     *string
	IsFlagged  *bool
	Overdue    *bool
	Limit      int
	Offset     int
}

// TicketDetail is a ticket with its thread and escalation work items.
type TicketDetail struct {
	Ticket          domain.Ticket
	Responses       []domain.TicketResponse
	EscalationUnits []domain.EscalationUnit
	IsOverdue       bool
}

// Create validates the payload, computes the SLA deadline and stores the
// ticket. A missing SLA rule is not an error: the default duration applies
// and the ticket carries a visible flag instead.
func (s *LifecycleService) Create(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if input.UnitID == "" || input.Title == "" || input.Description == "" {
		return nil, apperrors.NewValidationError("unit_id, title and description are required", nil)
	}
	if input.CategoryID == "" || input.PatientTypeID == "" {
		return nil, apperrors.NewValidationError("category_id and patient_type_id are required", nil)
	}
	if input.CreatedBy == "" {
		return nil, apperrors.NewValidationError("created_by is required", nil)
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	if !domain.ValidPriority(input.Priority) {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
	}

	unit, err := s.store.Units().GetByID(ctx, input.UnitID)
	if err != nil {
		return nil, mapStoreError(err, "unit", input.UnitID)
	}
	if !unit.IsActive {
		return nil, apperrors.NewConflict("unit inactive", map[string]any{"unit_id": input.UnitID})
	}

	now := time.Now()
	dueAt, settingID, err := s.sla.ComputeDeadline(ctx, input.Priority, input.CategoryID, input.PatientTypeID, now)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	ticket := &domain.Ticket{
		TicketNumber:  generateTicketNumber(),
		UnitID:        input.UnitID,
		CategoryID:    input.CategoryID,
		PatientTypeID: input.PatientTypeID,
		Type:          input.Type,
		Title:         input.Title,
		Description:   input.Description,
		Status:        domain.TicketStatusOpen,
		Priority:      input.Priority,
		SLADueAt:      &dueAt,
		SLASettingID:  settingID,
		CreatedBy:     input.CreatedBy,
		CreatedAt:     now,
	}
	if ticket.Type == "" {
		ticket.Type = "complaint"
	}

	if err := s.store.Tickets().Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  input.CreatedBy,
		Payload: events.TicketCreatedPayload{
			TicketNumber: ticket.TicketNumber,
			UnitID:       ticket.UnitID,
			Priority:     ticket.Priority,
			Title:        ticket.Title,
			SLADueAt:     ticket.SLADueAt,
			SLADefaulted: ticket.SLADefaulted(),
		},
	})
	return ticket, nil
}

// Get returns a ticket with its responses and escalation work items.
// Internal responses are filtered out for reporter-facing reads.
func (s *LifecycleService) Get(ctx context.Context, ticketID string, includeInternal bool) (*TicketDetail, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapStoreError(err, "ticket", ticketID)
	}
	responses, err := s.store.Responses().ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !includeInternal {
		visible := make([]domain.TicketResponse, 0, len(responses))
		for _, response := range responses {
			if response.IsInternal {
				continue
			}
			visible = append(visible, response)
		}
		responses = visible
	}
	units, err := s.store.EscalationUnits().ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &TicketDetail{
		Ticket:          *ticket,
		Responses:       responses,
		EscalationUnits: units,
		IsOverdue:       IsOverdue(ticket, time.Now()),
	}, nil
}

// List returns tickets matching the filter. The overdue predicate is part of
// the store query, derived from sla_due_at at query time, so pagination
// applies after it; a stored overdue flag would go stale and is never
// consulted.
func (s *LifecycleService) List(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		Statuses:   filter.Statuses,
		Priorities: filter.Priorities,
		UnitID:     filter.UnitID,
		IsFlagged:  filter.IsFlagged,
		Overdue:    filter.Overdue,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	tickets, err := s.store.Tickets().ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// Respond appends a response to the ticket thread. The first response moves
// an open ticket to in_progress; a resolving response additionally requires a
// resolution and drives the resolved transition.
func (s *LifecycleService) Respond(ctx context.Context, ticketID string, input RespondInput) (*domain.TicketResponse, *domain.Ticket, error) {
	input.Message = strings.TrimSpace(input.Message)
	if input.Message == "" {
		return nil, nil, apperrors.NewValidationError("message is required", nil)
	}
	if input.CreatedBy == "" {
		return nil, nil, apperrors.NewValidationError("created_by is required", nil)
	}
	if input.MarkResolved && (input.Resolution == nil || strings.TrimSpace(*input.Resolution) == "") {
		return nil, nil, apperrors.NewResolutionRequired()
	}

	var (
		response  *domain.TicketResponse
		ticket    *domain.Ticket
		oldStatus domain.TicketStatus
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		ticket, err = tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return mapStoreError(err, "ticket", ticketID)
		}
		oldStatus = ticket.Status

		if ticket.Status == domain.TicketStatusClosed {
			return apperrors.NewTicketAlreadyResolved(ticket.ID, string(ticket.Status))
		}
		if input.MarkResolved && ticket.IsTerminal() {
			return apperrors.NewTicketAlreadyResolved(ticket.ID, string(ticket.Status))
		}

		response = &domain.TicketResponse{
			TicketID:   ticket.ID,
			Message:    input.Message,
			Resolution: input.Resolution,
			IsInternal: input.IsInternal,
			CreatedBy:  input.CreatedBy,
		}
		if err := tx.Responses().Create(ctx, response); err != nil {
			return apperrors.MapError(err)
		}

		now := time.Now()
		if ticket.Status == domain.TicketStatusOpen {
			if err := Transition(ticket, domain.TicketStatusInProgress, now); err != nil {
				return err
			}
		}
		if input.MarkResolved {
			if err := Transition(ticket, domain.TicketStatusResolved, now); err != nil {
				return err
			}
		}
		return updateTicket(ctx, tx, ticket)
	})
	if err != nil {
		return nil, nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketResponseAdded,
		TicketID: ticket.ID,
		ActorID:  input.CreatedBy,
		Payload: events.TicketResponseAddedPayload{
			ResponseID:  response.ID,
			IsInternal:  response.IsInternal,
			Resolved:    input.MarkResolved,
			BodyPreview: stringPreview(response.Message, 120),
		},
	})
	if ticket.Status != oldStatus {
		s.publishStatusChange(ctx, input.CreatedBy, ticket.ID, oldStatus, ticket.Status, "response")
	}
	return response, ticket, nil
}

// Resolve marks the ticket resolved with the given resolution, recording it
// as a resolving response.
func (s *LifecycleService) Resolve(ctx context.Context, ticketID, resolution, message, actorID string) (*domain.Ticket, error) {
	resolution = strings.TrimSpace(resolution)
	if resolution == "" {
		return nil, apperrors.NewResolutionRequired()
	}
	if message == "" {
		message = resolution
	}
	_, ticket, err := s.Respond(ctx, ticketID, RespondInput{
		Message:      message,
		Resolution:   &resolution,
		MarkResolved: true,
		CreatedBy:    actorID,
	})
	return ticket, err
}

// Escalate routes the ticket to a primary unit plus optional cc units.
func (s *LifecycleService) Escalate(ctx context.Context, ticketID string, input EscalateInput) (*domain.TicketEscalation, []domain.EscalationUnit, error) {
	if input.ToUnitID == "" {
		return nil, nil, apperrors.NewValidationError("to_unit_id is required", nil)
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, nil, apperrors.NewValidationError("reason is required", nil)
	}
	if input.FromUserID == "" {
		return nil, nil, apperrors.NewValidationError("from_user_id is required", nil)
	}

	var (
		escalation *domain.TicketEscalation
		units      []domain.EscalationUnit
		ticket     *domain.Ticket
		oldStatus  domain.TicketStatus
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		ticket, err = tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return mapStoreError(err, "ticket", ticketID)
		}
		oldStatus = ticket.Status
		escalation, units, err = s.router.Escalate(ctx, tx, ticket, input, time.Now())
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketEscalated,
		TicketID: ticket.ID,
		ActorID:  input.FromUserID,
		Payload: events.TicketEscalatedPayload{
			EscalationID: escalation.ID,
			ToUnitID:     escalation.ToUnitID,
			CCUnitIDs:    escalation.CCUnitIDs,
			Reason:       escalation.Reason,
		},
	})
	if ticket.Status != oldStatus {
		s.publishStatusChange(ctx, input.FromUserID, ticket.ID, oldStatus, ticket.Status, "escalation")
	}
	return escalation, units, nil
}

// Flag toggles the flag overlay. Flagging is orthogonal to the lifecycle and
// allowed in every state.
func (s *LifecycleService) Flag(ctx context.Context, ticketID string, input FlagInput) (*domain.Ticket, error) {
	var ticket *domain.Ticket
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		ticket, err = tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return mapStoreError(err, "ticket", ticketID)
		}
		ticket.IsFlagged = input.IsFlagged
		if input.IsFlagged {
			ticket.FlagReason = input.FlagReason
		} else {
			ticket.FlagReason = nil
		}
		return updateTicket(ctx, tx, ticket)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketFlagged,
		TicketID: ticket.ID,
		ActorID:  input.ActorID,
		Payload: events.TicketFlaggedPayload{
			IsFlagged:  ticket.IsFlagged,
			FlagReason: ticket.FlagReason,
		},
	})
	return ticket, nil
}

// Close finalizes a resolved ticket. Closing is terminal.
func (s *LifecycleService) Close(ctx context.Context, ticketID, actorID string) (*domain.Ticket, error) {
	var (
		ticket    *domain.Ticket
		oldStatus domain.TicketStatus
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		ticket, err = tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return mapStoreError(err, "ticket", ticketID)
		}
		oldStatus = ticket.Status
		if err := Transition(ticket, domain.TicketStatusClosed, time.Now()); err != nil {
			return err
		}
		return updateTicket(ctx, tx, ticket)
	})
	if err != nil {
		return nil, err
	}

	s.publishStatusChange(ctx, actorID, ticket.ID, oldStatus, ticket.Status, "closed")
	return ticket, nil
}

// UpdateEscalationUnit applies a receiving unit's progress update.
func (s *LifecycleService) UpdateEscalationUnit(ctx context.Context, unitRowID string, next domain.EscalationUnitStatus, notes string) (*domain.EscalationUnit, *domain.Ticket, error) {
	var (
		unit   *domain.EscalationUnit
		ticket *domain.Ticket
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		unit, err = tx.EscalationUnits().GetByID(ctx, unitRowID)
		if err != nil {
			return mapStoreError(err, "escalation unit", unitRowID)
		}
		ticket, err = s.router.AdvanceUnit(ctx, tx, unit, next, notes, time.Now())
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventEscalationUnitUpdated,
		TicketID: unit.TicketID,
		ActorID:  unit.UnitID,
		Payload: events.EscalationUnitUpdatedPayload{
			EscalationUnitID: unit.ID,
			UnitID:           unit.UnitID,
			Status:           unit.Status,
		},
	})
	return unit, ticket, nil
}

// ListEscalationUnits returns the work items for a ticket.
func (s *LifecycleService) ListEscalationUnits(ctx context.Context, ticketID string) ([]domain.EscalationUnit, error) {
	if _, err := s.store.Tickets().GetByID(ctx, ticketID); err != nil {
		return nil, mapStoreError(err, "ticket", ticketID)
	}
	units, err := s.store.EscalationUnits().ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return units, nil
}

func generateTicketNumber() string {
	return "CMP-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// updateTicket persists the ticket, translating the version precondition
// failure into the retryable conflict error.
func updateTicket(ctx context.Context, store repository.Store, ticket *domain.Ticket) error {
	if err := store.Tickets().Update(ctx, ticket); err != nil {
		return mapStoreError(err, "ticket", ticket.ID)
	}
	return nil
}

func mapStoreError(err error, resource, id string) error {
	switch err {
	case nil:
		return nil
	case repository.ErrNotFound:
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	case repository.ErrVersionConflict:
		return apperrors.NewConcurrentModification(id)
	default:
		return apperrors.MapError(err)
	}
}

func (s *LifecycleService) publishStatusChange(ctx context.Context, actorID, ticketID string, oldStatus, newStatus domain.TicketStatus, comment string) {
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticketID,
		ActorID:  actorID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Comment:   comment,
		},
	})
}

func (s *LifecycleService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
