package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/careportal/complaint-service/internal/domain"
	"github.com/careportal/complaint-service/internal/repository"
	"github.com/careportal/complaint-service/internal/service"
	apperrors "github.com/careportal/complaint-service/pkg/util/errorutil"
)

// uniquePrimaryStore rejects any escalation-unit write that leaves a ticket
// with more than one primary row, the same way the partial unique index on
// escalation_units does in Postgres. The in-memory store alone would accept
// the intermediate state and hide ordering bugs in the reconciliation.
type uniquePrimaryStore struct {
	repository.Store
}

func (s *uniquePrimaryStore) EscalationUnits() repository.EscalationUnitRepository {
	return &uniquePrimaryUnits{inner: s.Store.EscalationUnits()}
}

func (s *uniquePrimaryStore) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	return s.Store.WithinTx(ctx, func(tx repository.Store) error {
		return fn(&uniquePrimaryStore{Store: tx})
	})
}

type uniquePrimaryUnits struct {
	inner repository.EscalationUnitRepository
}

func (r *uniquePrimaryUnits) Create(ctx context.Context, unit *domain.EscalationUnit) error {
	if err := r.inner.Create(ctx, unit); err != nil {
		return err
	}
	return r.checkSinglePrimary(ctx, unit.TicketID)
}

func (r *uniquePrimaryUnits) Update(ctx context.Context, unit *domain.EscalationUnit) error {
	if err := r.inner.Update(ctx, unit); err != nil {
		return err
	}
	return r.checkSinglePrimary(ctx, unit.TicketID)
}

func (r *uniquePrimaryUnits) GetByID(ctx context.Context, id string) (*domain.EscalationUnit, error) {
	return r.inner.GetByID(ctx, id)
}

func (r *uniquePrimaryUnits) ListByTicket(ctx context.Context, ticketID string) ([]domain.EscalationUnit, error) {
	return r.inner.ListByTicket(ctx, ticketID)
}

func (r *uniquePrimaryUnits) checkSinglePrimary(ctx context.Context, ticketID string) error {
	units, err := r.inner.ListByTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	primaries := 0
	for i := range units {
		if units[i].IsPrimary {
			primaries++
		}
	}
	if primaries > 1 {
		return fmt.Errorf("duplicate primary escalation unit for ticket %s", ticketID)
	}
	return nil
}

func primaryUnit(t *testing.T, units []domain.EscalationUnit) *domain.EscalationUnit {
	t.Helper()
	var found *domain.EscalationUnit
	for i := range units {
		if units[i].IsPrimary {
			require.Nil(t, found, "at most one primary escalation unit allowed")
			found = &units[i]
		}
	}
	require.NotNil(t, found, "expected a primary escalation unit")
	return found
}

func TestEscalate_OpenTicketGetsPrimaryAndCCUnits(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	ticket := createTicket(t, svc, domain.TicketPriorityHigh)

	escalation, units, err := svc.Escalate(ctx, ticket.ID, service.EscalateInput{
		FromUserID: "user-supervisor",
		ToUnitID:   "unit-quality",
		// duplicate and primary-overlapping entries collapse
		CCUnitIDs: []string{"unit-billing", "unit-billing", "unit-quality"},
		Reason:    "needs quality review",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"unit-billing"}, escalation.CCUnitIDs)
	require.Equal(t, "manual", escalation.EscalationType)

	require.Len(t, units, 2)
	primary := primaryUnit(t, units)
	require.Equal(t, "unit-quality", primary.UnitID)
	require.Equal(t, domain.EscalationUnitPending, primary.Status)

	detail, err := svc.Get(ctx, ticket.ID, true)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusEscalated, detail.Ticket.Status)
}

func TestEscalate_ReescalationSupersedesPrimary(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	ticket := createTicket(t, svc, domain.TicketPriorityHigh)

	_, _, err := svc.Escalate(ctx, ticket.ID, service.EscalateInput{
		FromUserID: "user-supervisor",
		ToUnitID:   "unit-quality",
		Reason:     "needs quality review",
	})
	require.NoError(t, err)

	_, units, err := svc.Escalate(ctx, ticket.ID, service.EscalateInput{
		FromUserID: "user-supervisor",
		ToUnitID:   "unit-billing",
		Reason:     "billing dispute after all",
	})
	require.NoError(t, err)

	// old assignment row survives for history with both flags cleared
	require.Len(t, units, 2)
	primary := primaryUnit(t, units)
	require.Equal(t, "unit-billing", primary.UnitID)
	for i := range units {
		if units[i].UnitID == "unit-quality" {
			require.False(t, units[i].IsPrimary)
			require.False(t, units[i].IsCC)
		}
	}

	history, err := store.Escalations().ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	detail, err := svc.Get(ctx, ticket.ID, true)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusEscalated, detail.Ticket.Status)
}

func TestEscalate_ReescalateBackToFormerPrimary(t *testing.T) {
	memory := repository.NewMemoryStore()
	memory.SeedUnit(domain.Unit{ID: "unit-er", Name: "Emergency", IsActive: true})
	memory.SeedUnit(domain.Unit{ID: "unit-quality", Name: "Quality Management", IsActive: true})
	memory.SeedUnit(domain.Unit{ID: "unit-billing", Name: "Billing", IsActive: true})
	memory.SeedSLASetting(domain.SLASetting{
		ID:            "sla-high-24h",
		Priority:      domain.TicketPriorityHigh,
		DurationHours: 24,
		IsActive:      true,
		CreatedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	logger := zap.NewNop()
	svc := service.NewLifecycleService(service.LifecycleDependencies{
		Store:  &uniquePrimaryStore{Store: memory},
		SLA:    service.NewSLACalculator(memory.SLASettings(), 72*time.Hour, logger),
		Router: service.NewEscalationRouter(logger),
		Logger: logger,
	})

	ctx := context.Background()
	ticket := createTicket(t, svc, domain.TicketPriorityHigh)

	for _, target := range []string{"unit-quality", "unit-billing", "unit-quality"} {
		_, _, err := svc.Escalate(ctx, ticket.ID, service.EscalateInput{
			FromUserID: "user-supervisor",
			ToUnitID:   target,
			Reason:     "route to " + target,
		})
		require.NoError(t, err, "re-escalation to %s must demote the old primary first", target)
	}

	units, err := svc.ListEscalationUnits(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, units, 2)
	primary := primaryUnit(t, units)
	require.Equal(t, "unit-quality", primary.UnitID)

	history, err := memory.Escalations().ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
}

func TestEscalate_ValidatesTarget(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	ticket := createTicket(t, svc, domain.TicketPriorityHigh)

	_, _, err := svc.Escalate(ctx, ticket.ID, service.EscalateInput{
		FromUserID: "user-supervisor",
		ToUnitID:   "unit-nope",
		Reason:     "whatever",
	})
	require.True(t, apperrors.HasCode(err, "NOT_FOUND"))

	_, _, err = svc.Escalate(ctx, ticket.ID, service.EscalateInput{
		FromUserID: "user-supervisor",
		ToUnitID:   "unit-archived",
		Reason:     "whatever",
	})
	require.True(t, apperrors.HasCode(err, "CONFLICT"))

	_, _, err = svc.Escalate(ctx, ticket.ID, service.EscalateInput{
		FromUserID: "user-supervisor",
		ToUnitID:   "unit-quality",
		Reason:     "   ",
	})
	require.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))

	// a failed escalation leaves the ticket untouched
	detail, err := svc.Get(ctx, ticket.ID, true)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusOpen, detail.Ticket.Status)
	require.Empty(t, detail.EscalationUnits)
}

func TestEscalate_TerminalTicketRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	ticket := createTicket(t, svc, domain.TicketPriorityHigh)

	_, err := svc.Resolve(ctx, ticket.ID, "Handled.", "", "user-staff")
	require.NoError(t, err)

	_, _, err = svc.Escalate(ctx, ticket.ID, service.EscalateInput{
		FromUserID: "user-supervisor",
		ToUnitID:   "unit-quality",
		Reason:     "too late",
	})
	require.True(t, apperrors.HasCode(err, "TICKET_ALREADY_RESOLVED"))
}

func TestEscalate_PriorityChangeKeepsDeadline(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	ticket := createTicket(t, svc, domain.TicketPriorityHigh)
	originalDueAt := *ticket.SLADueAt

	urgent := domain.TicketPriorityUrgent
	_, _, err := svc.Escalate(ctx, ticket.ID, service.EscalateInput{
		FromUserID: "user-supervisor",
		ToUnitID:   "unit-quality",
		Reason:     "patient safety",
		Priority:   &urgent,
	})
	require.NoError(t, err)

	detail, err := svc.Get(ctx, ticket.ID, true)
	require.NoError(t, err)
	require.Equal(t, domain.TicketPriorityUrgent, detail.Ticket.Priority)
	require.NotNil(t, detail.Ticket.SLADueAt)
	require.Equal(t, originalDueAt, *detail.Ticket.SLADueAt)
	require.NotNil(t, detail.Ticket.SLASettingID)
	require.Equal(t, "sla-high-24h", *detail.Ticket.SLASettingID)
}

func TestAdvanceUnit_PrimaryAcceptanceResumesTicket(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	ticket := createTicket(t, svc, domain.TicketPriorityHigh)

	_, units, err := svc.Escalate(ctx, ticket.ID, service.EscalateInput{
		FromUserID: "user-supervisor",
		ToUnitID:   "unit-quality",
		CCUnitIDs:  []string{"unit-billing"},
		Reason:     "needs quality review",
	})
	require.NoError(t, err)
	primary := primaryUnit(t, units)

	updated, after, err := svc.UpdateEscalationUnit(ctx, primary.ID, domain.EscalationUnitReceived, "")
	require.NoError(t, err)
	require.Equal(t, domain.EscalationUnitReceived, updated.Status)
	require.NotNil(t, updated.ReceivedAt)
	require.Nil(t, updated.CompletedAt)
	require.Equal(t, domain.TicketStatusInProgress, after.Status)
	receivedAt := *updated.ReceivedAt

	updated, _, err = svc.UpdateEscalationUnit(ctx, primary.ID, domain.EscalationUnitCompleted, "root cause documented")
	require.NoError(t, err)
	require.Equal(t, domain.EscalationUnitCompleted, updated.Status)
	require.NotNil(t, updated.CompletedAt)
	require.Equal(t, receivedAt, *updated.ReceivedAt, "received_at is stamped once")
	require.Equal(t, "root cause documented", updated.Notes)
}

func TestAdvanceUnit_StatusIsMonotonic(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	ticket := createTicket(t, svc, domain.TicketPriorityHigh)

	_, units, err := svc.Escalate(ctx, ticket.ID, service.EscalateInput{
		FromUserID: "user-supervisor",
		ToUnitID:   "unit-quality",
		Reason:     "needs quality review",
	})
	require.NoError(t, err)
	primary := primaryUnit(t, units)

	_, _, err = svc.UpdateEscalationUnit(ctx, primary.ID, domain.EscalationUnitInProgress, "")
	require.NoError(t, err)

	_, _, err = svc.UpdateEscalationUnit(ctx, primary.ID, domain.EscalationUnitReceived, "")
	require.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))

	_, _, err = svc.UpdateEscalationUnit(ctx, primary.ID, domain.EscalationUnitStatus("LOST"), "")
	require.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))

	// re-asserting the current status is a no-op, not an error
	updated, _, err := svc.UpdateEscalationUnit(ctx, primary.ID, domain.EscalationUnitInProgress, "")
	require.NoError(t, err)
	require.Equal(t, domain.EscalationUnitInProgress, updated.Status)
}

func TestAdvanceUnit_CCUnitDoesNotMoveTicket(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	ticket := createTicket(t, svc, domain.TicketPriorityHigh)

	_, units, err := svc.Escalate(ctx, ticket.ID, service.EscalateInput{
		FromUserID: "user-supervisor",
		ToUnitID:   "unit-quality",
		CCUnitIDs:  []string{"unit-billing"},
		Reason:     "needs quality review",
	})
	require.NoError(t, err)

	var cc *domain.EscalationUnit
	for i := range units {
		if units[i].IsCC {
			cc = &units[i]
		}
	}
	require.NotNil(t, cc)

	_, after, err := svc.UpdateEscalationUnit(ctx, cc.ID, domain.EscalationUnitReceived, "")
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusEscalated, after.Status)
}

func TestLifecycle_EndToEnd(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	ticket := createTicket(t, svc, domain.TicketPriorityHigh)
	require.Equal(t, domain.TicketStatusOpen, ticket.Status)

	_, inProgress, err := svc.Respond(ctx, ticket.ID, service.RespondInput{
		Message: "Triage started.", CreatedBy: "user-staff",
	})
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusInProgress, inProgress.Status)

	_, units, err := svc.Escalate(ctx, ticket.ID, service.EscalateInput{
		FromUserID: "user-supervisor",
		ToUnitID:   "unit-quality",
		Reason:     "recurring complaint pattern",
	})
	require.NoError(t, err)
	primary := primaryUnit(t, units)

	_, after, err := svc.UpdateEscalationUnit(ctx, primary.ID, domain.EscalationUnitInProgress, "")
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusInProgress, after.Status)

	resolved, err := svc.Resolve(ctx, ticket.ID, "Process updated, reporter informed.", "", "user-staff")
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	closed, err := svc.Close(ctx, ticket.ID, "user-staff")
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusClosed, closed.Status)

	detail, err := svc.Get(ctx, ticket.ID, true)
	require.NoError(t, err)
	require.Len(t, detail.Responses, 2)
	require.Len(t, detail.EscalationUnits, 1)
	require.False(t, detail.IsOverdue)
}
