package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/careportal/complaint-service/internal/domain"
	"github.com/careportal/complaint-service/internal/service"
	apperrors "github.com/careportal/complaint-service/pkg/util/errorutil"
)

var allStatuses = []domain.TicketStatus{
	domain.TicketStatusOpen,
	domain.TicketStatusInProgress,
	domain.TicketStatusEscalated,
	domain.TicketStatusResolved,
	domain.TicketStatusClosed,
}

func TestTransition_LegalPaths(t *testing.T) {
	legal := map[domain.TicketStatus][]domain.TicketStatus{
		domain.TicketStatusOpen:       {domain.TicketStatusInProgress},
		domain.TicketStatusInProgress: {domain.TicketStatusEscalated, domain.TicketStatusResolved},
		domain.TicketStatusEscalated:  {domain.TicketStatusInProgress, domain.TicketStatusResolved},
		domain.TicketStatusResolved:   {domain.TicketStatusClosed},
		domain.TicketStatusClosed:     {},
	}
	for from, targets := range legal {
		for _, to := range targets {
			ticket := &domain.Ticket{Status: from}
			require.NoError(t, service.Transition(ticket, to, time.Now()))
			require.Equal(t, to, ticket.Status)
		}
	}
}

func TestTransition_IllegalPathsRejectedAndStatusUnchanged(t *testing.T) {
	legal := func(from, to domain.TicketStatus) bool {
		return service.CanTransition(from, to)
	}
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			if legal(from, to) {
				continue
			}
			ticket := &domain.Ticket{Status: from}
			err := service.Transition(ticket, to, time.Now())
			require.Error(t, err, "%s -> %s must be rejected", from, to)
			require.True(t, apperrors.HasCode(err, "INVALID_TRANSITION"))
			require.Equal(t, from, ticket.Status, "rejected transition must not mutate status")
			require.Nil(t, ticket.ResolvedAt)

			domainErr := apperrors.ToDomainError(err)
			require.Equal(t, string(from), domainErr.Details["current_status"])
			require.Equal(t, string(to), domainErr.Details["requested_status"])
		}
	}
}

func TestTransition_ResolvedAtSetExactlyOnce(t *testing.T) {
	ticket := &domain.Ticket{Status: domain.TicketStatusInProgress}
	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, service.Transition(ticket, domain.TicketStatusResolved, first))
	require.NotNil(t, ticket.ResolvedAt)
	require.Equal(t, first, *ticket.ResolvedAt)

	// close and reattempt resolve must never touch the timestamp
	require.NoError(t, service.Transition(ticket, domain.TicketStatusClosed, first.Add(time.Hour)))
	err := service.Transition(ticket, domain.TicketStatusResolved, first.Add(2*time.Hour))
	require.Error(t, err)
	require.Equal(t, first, *ticket.ResolvedAt)
}

func TestTransition_NoTransitionLeavesClosed(t *testing.T) {
	for _, to := range allStatuses {
		ticket := &domain.Ticket{Status: domain.TicketStatusClosed}
		err := service.Transition(ticket, to, time.Now())
		require.Error(t, err)
		require.Equal(t, domain.TicketStatusClosed, ticket.Status)
	}
}
