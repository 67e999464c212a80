package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/careportal/complaint-service/internal/domain"
	"github.com/careportal/complaint-service/internal/repository"
	apperrors "github.com/careportal/complaint-service/pkg/util/errorutil"
)

// EscalationRouter creates escalation records and drives the per-unit work
// items. All writes for one escalation happen against the transaction-bound
// store handed in by the facade, so partial escalation state is never
// observable.
type EscalationRouter struct {
	logger *zap.Logger
}

// NewEscalationRouter constructs the router.
func NewEscalationRouter(logger *zap.Logger) *EscalationRouter {
	return &EscalationRouter{logger: logger}
}

// EscalateInput describes one escalation action.
type EscalateInput struct {
	FromUserID     string
	ToUnitID       string
	CCUnitIDs      []string
	Reason         string
	Notes          string
	EscalationType string
	// Priority, when set, re-prioritizes the ticket. The SLA deadline is
	// deliberately not recomputed: moving a deadline the reporter was
	// already told requires a separate, explicit action.
	Priority *domain.TicketPriority
}

// Escalate routes the ticket to one primary unit and zero or more cc units.
// The escalation history record is always appended, even when it repeats the
// current assignment; callers wanting no-op detection compare against the
// latest record themselves.
func (r *EscalationRouter) Escalate(ctx context.Context, store repository.Store, ticket *domain.Ticket, in EscalateInput, now time.Time) (*domain.TicketEscalation, []domain.EscalationUnit, error) {
	if ticket.IsTerminal() {
		return nil, nil, apperrors.NewTicketAlreadyResolved(ticket.ID, string(ticket.Status))
	}

	unit, err := store.Units().GetByID(ctx, in.ToUnitID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, nil, apperrors.NewNotFound("unit", map[string]any{"unit_id": in.ToUnitID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	if !unit.IsActive {
		return nil, nil, apperrors.NewConflict("unit inactive", map[string]any{"unit_id": in.ToUnitID})
	}

	ccUnitIDs := dedupeCC(in.CCUnitIDs, in.ToUnitID)

	escalation := &domain.TicketEscalation{
		TicketID:       ticket.ID,
		FromUserID:     in.FromUserID,
		ToUnitID:       in.ToUnitID,
		CCUnitIDs:      ccUnitIDs,
		Reason:         in.Reason,
		Notes:          in.Notes,
		EscalationType: in.EscalationType,
	}
	if escalation.EscalationType == "" {
		escalation.EscalationType = "manual"
	}
	if err := store.Escalations().Create(ctx, escalation); err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	if err := r.applyUnitAssignments(ctx, store, ticket.ID, in.ToUnitID, ccUnitIDs); err != nil {
		return nil, nil, err
	}

	if in.Priority != nil {
		if !domain.ValidPriority(*in.Priority) {
			return nil, nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *in.Priority})
		}
		ticket.Priority = *in.Priority
	}

	// An open ticket passes through in_progress: escalating it implies work
	// started. A ticket already escalated keeps its status; only the
	// assignment changes.
	if ticket.Status == domain.TicketStatusOpen {
		if err := Transition(ticket, domain.TicketStatusInProgress, now); err != nil {
			return nil, nil, err
		}
	}
	if ticket.Status != domain.TicketStatusEscalated {
		if err := Transition(ticket, domain.TicketStatusEscalated, now); err != nil {
			return nil, nil, err
		}
	}

	if err := updateTicket(ctx, store, ticket); err != nil {
		return nil, nil, err
	}

	units, err := store.EscalationUnits().ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return escalation, units, nil
}

// applyUnitAssignments reconciles escalation_units rows so that exactly one
// row is primary (the new target) and exactly the cc set carries is_cc.
// Superseded rows are kept for history with both flags cleared. Flags are
// cleared before they are granted: promoting the new primary while the old
// one still holds is_primary would briefly leave two primary rows and the
// partial unique index on (ticket_id) WHERE is_primary rejects that.
func (r *EscalationRouter) applyUnitAssignments(ctx context.Context, store repository.Store, ticketID, toUnitID string, ccUnitIDs []string) error {
	existing, err := store.EscalationUnits().ListByTicket(ctx, ticketID)
	if err != nil {
		return apperrors.MapError(err)
	}

	ccSet := make(map[string]bool, len(ccUnitIDs))
	for _, id := range ccUnitIDs {
		ccSet[id] = true
	}

	byUnit := make(map[string]*domain.EscalationUnit, len(existing))
	for i := range existing {
		byUnit[existing[i].UnitID] = &existing[i]
	}

	for i := range existing {
		row := &existing[i]
		losesPrimary := row.IsPrimary && row.UnitID != toUnitID
		losesCC := row.IsCC && !ccSet[row.UnitID]
		if !losesPrimary && !losesCC {
			continue
		}
		row.IsPrimary = row.IsPrimary && !losesPrimary
		row.IsCC = row.IsCC && !losesCC
		if err := store.EscalationUnits().Update(ctx, row); err != nil {
			return mapStoreError(err, "escalation unit", row.ID)
		}
	}

	for i := range existing {
		row := &existing[i]
		wantPrimary := row.UnitID == toUnitID
		wantCC := ccSet[row.UnitID]
		if row.IsPrimary == wantPrimary && row.IsCC == wantCC {
			continue
		}
		row.IsPrimary = wantPrimary
		row.IsCC = wantCC
		if err := store.EscalationUnits().Update(ctx, row); err != nil {
			return mapStoreError(err, "escalation unit", row.ID)
		}
	}

	if _, ok := byUnit[toUnitID]; !ok {
		primary := &domain.EscalationUnit{
			TicketID:  ticketID,
			UnitID:    toUnitID,
			IsPrimary: true,
			Status:    domain.EscalationUnitPending,
		}
		if err := store.EscalationUnits().Create(ctx, primary); err != nil {
			return apperrors.MapError(err)
		}
	}
	for _, ccID := range ccUnitIDs {
		if _, ok := byUnit[ccID]; ok {
			continue
		}
		cc := &domain.EscalationUnit{
			TicketID: ticketID,
			UnitID:   ccID,
			IsCC:     true,
			Status:   domain.EscalationUnitPending,
		}
		if err := store.EscalationUnits().Create(ctx, cc); err != nil {
			return apperrors.MapError(err)
		}
	}
	return nil
}

// unitStatusRank orders the per-unit progress states; progress is monotonic.
var unitStatusRank = map[domain.EscalationUnitStatus]int{
	domain.EscalationUnitPending:    0,
	domain.EscalationUnitReceived:   1,
	domain.EscalationUnitInProgress: 2,
	domain.EscalationUnitCompleted:  3,
}

// AdvanceUnit applies a receiving unit's progress update to its work item and,
// when the primary unit first accepts, moves the ticket back to in_progress.
func (r *EscalationRouter) AdvanceUnit(ctx context.Context, store repository.Store, unit *domain.EscalationUnit, next domain.EscalationUnitStatus, notes string, now time.Time) (*domain.Ticket, error) {
	if !domain.ValidEscalationUnitStatus(next) {
		return nil, apperrors.NewValidationError("invalid escalation unit status", map[string]any{"status": next})
	}
	current := unitStatusRank[unit.Status]
	requested := unitStatusRank[next]
	if requested < current {
		return nil, apperrors.NewValidationError("escalation unit status cannot move backwards", map[string]any{
			"current_status":   unit.Status,
			"requested_status": next,
		})
	}

	if requested >= unitStatusRank[domain.EscalationUnitReceived] && unit.ReceivedAt == nil {
		receivedAt := now
		unit.ReceivedAt = &receivedAt
	}
	if next == domain.EscalationUnitCompleted && unit.CompletedAt == nil {
		completedAt := now
		unit.CompletedAt = &completedAt
	}
	unit.Status = next
	if notes != "" {
		unit.Notes = notes
	}
	if err := store.EscalationUnits().Update(ctx, unit); err != nil {
		return nil, mapStoreError(err, "escalation unit", unit.ID)
	}

	ticket, err := store.Tickets().GetByID(ctx, unit.TicketID)
	if err != nil {
		return nil, mapStoreError(err, "ticket", unit.TicketID)
	}

	// Primary unit accepting the escalation resumes work on the ticket.
	if unit.IsPrimary && ticket.Status == domain.TicketStatusEscalated && requested > unitStatusRank[domain.EscalationUnitPending] {
		if err := Transition(ticket, domain.TicketStatusInProgress, now); err != nil {
			return nil, err
		}
		if err := updateTicket(ctx, store, ticket); err != nil {
			return nil, err
		}
	}
	return ticket, nil
}

func dedupeCC(ccUnitIDs []string, primaryUnitID string) []string {
	seen := make(map[string]bool, len(ccUnitIDs))
	result := make([]string, 0, len(ccUnitIDs))
	for _, id := range ccUnitIDs {
		if id == "" || id == primaryUnitID || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}
