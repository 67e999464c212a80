package service

import (
	"time"

	"github.com/careportal/complaint-service/internal/domain"
	apperrors "github.com/careportal/complaint-service/pkg/util/errorutil"
)

// allowedTransitions is the full legal transition set. Flagging is an
// orthogonal boolean and not part of the table.
var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:       {domain.TicketStatusInProgress},
	domain.TicketStatusInProgress: {domain.TicketStatusEscalated, domain.TicketStatusResolved},
	domain.TicketStatusEscalated:  {domain.TicketStatusInProgress, domain.TicketStatusResolved},
	domain.TicketStatusResolved:   {domain.TicketStatusClosed},
	domain.TicketStatusClosed:     {},
}

// CanTransition reports whether current -> next is a legal status change.
func CanTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Transition validates and applies a status change on the ticket in memory.
// ResolvedAt is set exactly once, on the transition into RESOLVED, and never
// overwritten. The caller persists the ticket afterwards; on an illegal
// transition the ticket is left untouched.
func Transition(ticket *domain.Ticket, next domain.TicketStatus, now time.Time) error {
	if !CanTransition(ticket.Status, next) {
		return apperrors.NewInvalidTransition(string(ticket.Status), string(next))
	}
	if next == domain.TicketStatusResolved && ticket.ResolvedAt == nil {
		resolvedAt := now
		ticket.ResolvedAt = &resolvedAt
	}
	ticket.Status = next
	return nil
}
