package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/careportal/complaint-service/internal/domain"
	"github.com/careportal/complaint-service/internal/repository"
)

func seedTicket(t *testing.T, store *repository.MemoryStore) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		TicketNumber: "CMP-TEST0001",
		UnitID:       "unit-er",
		Status:       domain.TicketStatusOpen,
		Priority:     domain.TicketPriorityMedium,
		Title:        "title",
		Description:  "description",
		CreatedBy:    "user-reporter",
	}
	require.NoError(t, store.Tickets().Create(context.Background(), ticket))
	return ticket
}

func TestTicketUpdate_StaleVersionConflicts(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	seedTicket(t, store)

	tickets := store.Tickets()
	listed, err := tickets.ListWithFilter(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)

	first, err := tickets.GetByID(ctx, listed[0].ID)
	require.NoError(t, err)
	second, err := tickets.GetByID(ctx, listed[0].ID)
	require.NoError(t, err)

	first.Title = "writer one"
	require.NoError(t, tickets.Update(ctx, first))
	require.True(t, first.UpdatedAt.After(second.UpdatedAt), "update must advance the version token")

	// the second reader still holds the old updated_at
	second.Title = "writer two"
	err = tickets.Update(ctx, second)
	require.True(t, errors.Is(err, repository.ErrVersionConflict))

	current, err := tickets.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, "writer one", current.Title)
}

func TestTicketUpdate_MissingRowIsNotFound(t *testing.T) {
	store := repository.NewMemoryStore()
	err := store.Tickets().Update(context.Background(), &domain.Ticket{ID: "ghost"})
	require.True(t, errors.Is(err, repository.ErrNotFound))

	_, err = store.Tickets().GetByID(context.Background(), "ghost")
	require.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestWithinTx_RollbackLeavesNoPartialState(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	ticket := seedTicket(t, store)

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(tx repository.Store) error {
		fresh, err := tx.Tickets().GetByID(ctx, ticket.ID)
		if err != nil {
			return err
		}
		fresh.Status = domain.TicketStatusInProgress
		if err := tx.Tickets().Update(ctx, fresh); err != nil {
			return err
		}
		if err := tx.Responses().Create(ctx, &domain.TicketResponse{
			TicketID:  ticket.ID,
			Message:   "half-written",
			CreatedBy: "user-staff",
		}); err != nil {
			return err
		}
		return boom
	})
	require.True(t, errors.Is(err, boom))

	// neither the status change nor the response is visible
	current, err := store.Tickets().GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusOpen, current.Status)

	responses, err := store.Responses().ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Empty(t, responses)
}

func TestWithinTx_CommitPublishesAllWrites(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	ticket := seedTicket(t, store)

	err := store.WithinTx(ctx, func(tx repository.Store) error {
		fresh, err := tx.Tickets().GetByID(ctx, ticket.ID)
		if err != nil {
			return err
		}
		fresh.Status = domain.TicketStatusInProgress
		if err := tx.Tickets().Update(ctx, fresh); err != nil {
			return err
		}
		return tx.Responses().Create(ctx, &domain.TicketResponse{
			TicketID:  ticket.ID,
			Message:   "all in",
			CreatedBy: "user-staff",
		})
	})
	require.NoError(t, err)

	current, err := store.Tickets().GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusInProgress, current.Status)

	responses, err := store.Responses().ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, responses, 1)
}

func TestListWithFilter_Pagination(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		seedTicket(t, store)
		time.Sleep(time.Millisecond)
	}

	page, err := store.Tickets().ListWithFilter(ctx, repository.TicketFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)

	rest, err := store.Tickets().ListWithFilter(ctx, repository.TicketFilter{Limit: 10, Offset: 2})
	require.NoError(t, err)
	require.Len(t, rest, 3)

	// newest first; pages must not overlap
	for _, p := range page {
		for _, r := range rest {
			require.NotEqual(t, p.ID, r.ID)
		}
		require.False(t, p.UpdatedAt.Before(rest[0].UpdatedAt))
	}

	empty, err := store.Tickets().ListWithFilter(ctx, repository.TicketFilter{Offset: 50})
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestEscalationUnitUpdate_StaleVersionConflicts(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	ticket := seedTicket(t, store)

	unit := &domain.EscalationUnit{
		TicketID:  ticket.ID,
		UnitID:    "unit-quality",
		IsPrimary: true,
		Status:    domain.EscalationUnitPending,
	}
	require.NoError(t, store.EscalationUnits().Create(ctx, unit))

	first, err := store.EscalationUnits().GetByID(ctx, unit.ID)
	require.NoError(t, err)
	second, err := store.EscalationUnits().GetByID(ctx, unit.ID)
	require.NoError(t, err)

	first.Status = domain.EscalationUnitReceived
	require.NoError(t, store.EscalationUnits().Update(ctx, first))

	second.Status = domain.EscalationUnitInProgress
	err = store.EscalationUnits().Update(ctx, second)
	require.True(t, errors.Is(err, repository.ErrVersionConflict))
}
