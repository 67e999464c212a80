package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/careportal/complaint-service/internal/domain"
)

type escalationRepository struct {
	db DB
}

func (r *escalationRepository) Create(ctx context.Context, escalation *domain.TicketEscalation) error {
	const query = `
        INSERT INTO ticket_escalations (ticket_id, from_user_id, to_unit_id, cc_unit_ids, reason, notes, escalation_type)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, escalated_at`
	return r.db.QueryRow(ctx, query,
		escalation.TicketID,
		escalation.FromUserID,
		escalation.ToUnitID,
		escalation.CCUnitIDs,
		escalation.Reason,
		escalation.Notes,
		escalation.EscalationType,
	).Scan(&escalation.ID, &escalation.EscalatedAt)
}

func (r *escalationRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketEscalation, error) {
	const query = `
        SELECT id, ticket_id, from_user_id, to_unit_id, cc_unit_ids, reason, notes, escalation_type, escalated_at
        FROM ticket_escalations WHERE ticket_id=$1 ORDER BY escalated_at DESC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketEscalation
	for rows.Next() {
		var escalation domain.TicketEscalation
		if err := rows.Scan(
			&escalation.ID,
			&escalation.TicketID,
			&escalation.FromUserID,
			&escalation.ToUnitID,
			&escalation.CCUnitIDs,
			&escalation.Reason,
			&escalation.Notes,
			&escalation.EscalationType,
			&escalation.EscalatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, escalation)
	}
	return result, rows.Err()
}

type escalationUnitRepository struct {
	db DB
}

const escalationUnitColumns = `id, ticket_id, unit_id, is_primary, is_cc, status, received_at, completed_at, notes, created_at, updated_at`

func (r *escalationUnitRepository) Create(ctx context.Context, unit *domain.EscalationUnit) error {
	const query = `
        INSERT INTO escalation_units (ticket_id, unit_id, is_primary, is_cc, status, received_at, completed_at, notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		unit.TicketID,
		unit.UnitID,
		unit.IsPrimary,
		unit.IsCC,
		unit.Status,
		unit.ReceivedAt,
		unit.CompletedAt,
		unit.Notes,
	).Scan(&unit.ID, &unit.CreatedAt, &unit.UpdatedAt)
}

func (r *escalationUnitRepository) Update(ctx context.Context, unit *domain.EscalationUnit) error {
	const query = `
        UPDATE escalation_units SET is_primary=$1, is_cc=$2, status=$3, received_at=$4, completed_at=$5,
               notes=$6, updated_at=NOW()
        WHERE id=$7 AND updated_at=$8
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		unit.IsPrimary,
		unit.IsCC,
		unit.Status,
		unit.ReceivedAt,
		unit.CompletedAt,
		unit.Notes,
		unit.ID,
		unit.UpdatedAt,
	).Scan(&unit.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	var exists bool
	if checkErr := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM escalation_units WHERE id=$1)`, unit.ID).Scan(&exists); checkErr != nil {
		return checkErr
	}
	if exists {
		return ErrVersionConflict
	}
	return ErrNotFound
}

func (r *escalationUnitRepository) GetByID(ctx context.Context, id string) (*domain.EscalationUnit, error) {
	row := r.db.QueryRow(ctx, `SELECT `+escalationUnitColumns+` FROM escalation_units WHERE id=$1`, id)
	unit, err := scanEscalationUnit(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return unit, nil
}

func (r *escalationUnitRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.EscalationUnit, error) {
	const query = `SELECT ` + escalationUnitColumns + ` FROM escalation_units WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.EscalationUnit
	for rows.Next() {
		unit, err := scanEscalationUnit(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *unit)
	}
	return result, rows.Err()
}

func scanEscalationUnit(row pgx.Row) (*domain.EscalationUnit, error) {
	var unit domain.EscalationUnit
	if err := row.Scan(
		&unit.ID,
		&unit.TicketID,
		&unit.UnitID,
		&unit.IsPrimary,
		&unit.IsCC,
		&unit.Status,
		&unit.ReceivedAt,
		&unit.CompletedAt,
		&unit.Notes,
		&unit.CreatedAt,
		&unit.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &unit, nil
}
