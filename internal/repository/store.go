package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/careportal/complaint-service/internal/domain"
)

// Sentinel errors shared by the Postgres and in-memory stores. The service
// layer maps them onto the DomainError taxonomy.
var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("record version conflict")
)

// DB is the query surface repositories run against. Both *pgxpool.Pool and
// pgx.Tx satisfy it, so the same repository code serves pooled reads and
// transactional write sequences.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TicketFilter captures ticket listing parameters.
type TicketFilter struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	UnitID      *string
	IsFlagged   *bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	// Overdue filters on the deadline predicate derived at query time
	// (non-null sla_due_at in the past on a non-terminal ticket). It must be
	// part of the query so pagination happens after the predicate, never
	// against stored state.
	Overdue *bool
	Limit   int
	Offset  int
}

// TicketRepository encapsulates ticket persistence. Update is conditioned on
// the ticket's UpdatedAt matching the stored row and returns
// ErrVersionConflict when another writer got there first.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	Update(ctx context.Context, ticket *domain.Ticket) error
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

// ResponseRepository manages the append-only ticket response thread.
type ResponseRepository interface {
	Create(ctx context.Context, response *domain.TicketResponse) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketResponse, error)
}

// EscalationRepository stores immutable escalation history records.
type EscalationRepository interface {
	Create(ctx context.Context, escalation *domain.TicketEscalation) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketEscalation, error)
}

// EscalationUnitRepository manages per-unit work items.
type EscalationUnitRepository interface {
	Create(ctx context.Context, unit *domain.EscalationUnit) error
	Update(ctx context.Context, unit *domain.EscalationUnit) error
	GetByID(ctx context.Context, id string) (*domain.EscalationUnit, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.EscalationUnit, error)
}

// SLASettingRepository reads SLA reference data.
type SLASettingRepository interface {
	ListActive(ctx context.Context) ([]domain.SLASetting, error)
}

// UnitRepository reads unit reference data.
type UnitRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Unit, error)
}

// Store bundles the repositories and provides the transactional boundary for
// multi-record writes: within the callback every repository runs against the
// same transaction, and either all records land or none do.
type Store interface {
	Tickets() TicketRepository
	Responses() ResponseRepository
	Escalations() EscalationRepository
	EscalationUnits() EscalationUnitRepository
	SLASettings() SLASettingRepository
	Units() UnitRepository
	WithinTx(ctx context.Context, fn func(Store) error) error
}
