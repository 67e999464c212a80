package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/careportal/complaint-service/internal/domain"
)

type ticketRepository struct {
	db DB
}

const ticketColumns = `id, ticket_number, unit_id, category_id, patient_type_id, type, title, description,
               status, priority, assigned_to, is_flagged, flag_reason, sla_due_at, sla_setting_id,
               resolved_at, created_by, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, unit_id, category_id, patient_type_id, type, title, description,
                             status, priority, assigned_to, is_flagged, flag_reason, sla_due_at, sla_setting_id,
                             created_by, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$16)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.UnitID,
		ticket.CategoryID,
		ticket.PatientTypeID,
		ticket.Type,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.AssignedTo,
		ticket.IsFlagged,
		ticket.FlagReason,
		ticket.SLADueAt,
		ticket.SLASettingID,
		ticket.CreatedBy,
		ticket.CreatedAt,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

// Update writes every mutable column, conditioned on the row not having
// changed since the caller's read. Zero rows affected means either the ticket
// vanished or another writer won the race; the follow-up existence check
// tells the two apart.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET status=$1, priority=$2, assigned_to=$3, is_flagged=$4, flag_reason=$5,
               resolved_at=$6, updated_at=NOW()
        WHERE id=$7 AND updated_at=$8
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		ticket.Status,
		ticket.Priority,
		ticket.AssignedTo,
		ticket.IsFlagged,
		ticket.FlagReason,
		ticket.ResolvedAt,
		ticket.ID,
		ticket.UpdatedAt,
	).Scan(&ticket.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	var exists bool
	if checkErr := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); checkErr != nil {
		return checkErr
	}
	if exists {
		return ErrVersionConflict
	}
	return ErrNotFound
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id)
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE ticket_number=$1`, number)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + ` FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UnitID != nil {
		args = append(args, *filter.UnitID)
		clauses = append(clauses, fmt.Sprintf("unit_id=$%d", len(args)))
	}
	if filter.IsFlagged != nil {
		args = append(args, *filter.IsFlagged)
		clauses = append(clauses, fmt.Sprintf("is_flagged=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.Overdue != nil {
		if *filter.Overdue {
			clauses = append(clauses, "(sla_due_at IS NOT NULL AND sla_due_at < NOW() AND status NOT IN ('RESOLVED','CLOSED'))")
		} else {
			clauses = append(clauses, "(sla_due_at IS NULL OR sla_due_at >= NOW() OR status IN ('RESOLVED','CLOSED'))")
		}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.UnitID,
		&ticket.CategoryID,
		&ticket.PatientTypeID,
		&ticket.Type,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.AssignedTo,
		&ticket.IsFlagged,
		&ticket.FlagReason,
		&ticket.SLADueAt,
		&ticket.SLASettingID,
		&ticket.ResolvedAt,
		&ticket.CreatedBy,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
