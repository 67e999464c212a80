package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/careportal/complaint-service/internal/domain"
	"github.com/careportal/complaint-service/internal/repository"
	"github.com/careportal/complaint-service/internal/service"
)

func strPtr(s string) *string { return &s }

func newCalculator(t *testing.T, settings ...domain.SLASetting) *service.SLACalculator {
	t.Helper()
	store := repository.NewMemoryStore()
	for _, s := range settings {
		store.SeedSLASetting(s)
	}
	return service.NewSLACalculator(store.SLASettings(), 72*time.Hour, zap.NewNop())
}

func TestComputeDeadline_MostSpecificSettingWins(t *testing.T) {
	base := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	created := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)

	calc := newCalculator(t,
		domain.SLASetting{
			ID: "wildcard", Priority: domain.TicketPriorityHigh,
			DurationHours: 48, IsActive: true, CreatedAt: base,
		},
		domain.SLASetting{
			ID: "category", Priority: domain.TicketPriorityHigh,
			CategoryID: strPtr("cat-billing"), DurationHours: 24,
			IsActive: true, CreatedAt: base,
		},
		domain.SLASetting{
			ID: "category-and-patient", Priority: domain.TicketPriorityHigh,
			CategoryID: strPtr("cat-billing"), PatientTypeID: strPtr("pt-inpatient"),
			DurationHours: 8, IsActive: true, CreatedAt: base,
		},
	)

	dueAt, settingID, err := calc.ComputeDeadline(context.Background(),
		domain.TicketPriorityHigh, "cat-billing", "pt-inpatient", created)
	require.NoError(t, err)
	require.NotNil(t, settingID)
	require.Equal(t, "category-and-patient", *settingID)
	require.Equal(t, created.Add(8*time.Hour), dueAt)

	// a patient type no setting scopes to falls back to the category rule
	dueAt, settingID, err = calc.ComputeDeadline(context.Background(),
		domain.TicketPriorityHigh, "cat-billing", "pt-outpatient", created)
	require.NoError(t, err)
	require.NotNil(t, settingID)
	require.Equal(t, "category", *settingID)
	require.Equal(t, created.Add(24*time.Hour), dueAt)
}

func TestComputeDeadline_TieBreaksAreOrderIndependent(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)
	created := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)

	a := domain.SLASetting{
		ID: "aaa", Priority: domain.TicketPriorityMedium,
		CategoryID: strPtr("cat-care"), DurationHours: 36,
		IsActive: true, CreatedAt: older,
	}
	b := domain.SLASetting{
		ID: "bbb", Priority: domain.TicketPriorityMedium,
		CategoryID: strPtr("cat-care"), DurationHours: 12,
		IsActive: true, CreatedAt: newer,
	}

	for _, order := range [][]domain.SLASetting{{a, b}, {b, a}} {
		calc := newCalculator(t, order...)
		_, settingID, err := calc.ComputeDeadline(context.Background(),
			domain.TicketPriorityMedium, "cat-care", "pt-any", created)
		require.NoError(t, err)
		require.NotNil(t, settingID)
		require.Equal(t, "bbb", *settingID, "later created_at must win the tie")
	}

	// identical created_at: the greater id wins, again in both seed orders
	b.CreatedAt = older
	for _, order := range [][]domain.SLASetting{{a, b}, {b, a}} {
		calc := newCalculator(t, order...)
		_, settingID, err := calc.ComputeDeadline(context.Background(),
			domain.TicketPriorityMedium, "cat-care", "pt-any", created)
		require.NoError(t, err)
		require.NotNil(t, settingID)
		require.Equal(t, "bbb", *settingID)
	}
}

func TestComputeDeadline_NoMatchAppliesDefault(t *testing.T) {
	created := time.Date(2026, 4, 2, 7, 0, 0, 0, time.UTC)
	calc := newCalculator(t,
		domain.SLASetting{
			ID: "inactive", Priority: domain.TicketPriorityLow,
			DurationHours: 1, IsActive: false, CreatedAt: created,
		},
		domain.SLASetting{
			ID: "other-priority", Priority: domain.TicketPriorityUrgent,
			DurationHours: 2, IsActive: true, CreatedAt: created,
		},
	)

	dueAt, settingID, err := calc.ComputeDeadline(context.Background(),
		domain.TicketPriorityLow, "cat-care", "pt-any", created)
	require.NoError(t, err)
	require.Nil(t, settingID, "defaulted deadline must carry no setting id")
	require.Equal(t, created.Add(72*time.Hour), dueAt)
}

func TestComputeDeadline_ScopedSettingNeverMatchesOtherCategory(t *testing.T) {
	created := time.Now().UTC()
	calc := newCalculator(t, domain.SLASetting{
		ID: "scoped", Priority: domain.TicketPriorityHigh,
		CategoryID: strPtr("cat-billing"), DurationHours: 4,
		IsActive: true, CreatedAt: created,
	})

	dueAt, settingID, err := calc.ComputeDeadline(context.Background(),
		domain.TicketPriorityHigh, "cat-care", "pt-any", created)
	require.NoError(t, err)
	require.Nil(t, settingID)
	require.Equal(t, created.Add(72*time.Hour), dueAt)
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	require.True(t, service.IsOverdue(&domain.Ticket{
		Status: domain.TicketStatusOpen, SLADueAt: &past,
	}, now))
	require.False(t, service.IsOverdue(&domain.Ticket{
		Status: domain.TicketStatusOpen, SLADueAt: &future,
	}, now))
	require.False(t, service.IsOverdue(&domain.Ticket{
		Status: domain.TicketStatusOpen,
	}, now), "no deadline means never overdue")

	// terminal tickets are not overdue even past the deadline
	require.False(t, service.IsOverdue(&domain.Ticket{
		Status: domain.TicketStatusResolved, SLADueAt: &past,
	}, now))
	require.False(t, service.IsOverdue(&domain.Ticket{
		Status: domain.TicketStatusClosed, SLADueAt: &past,
	}, now))
}
