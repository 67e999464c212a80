package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/careportal/complaint-service/internal/domain"
)

type slaSettingRepository struct {
	db DB
}

func (r *slaSettingRepository) ListActive(ctx context.Context) ([]domain.SLASetting, error) {
	const query = `
        SELECT id, priority, category_id, patient_type_id, duration_hours, is_active, created_at
        FROM sla_settings WHERE is_active=TRUE ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLASetting
	for rows.Next() {
		var setting domain.SLASetting
		if err := rows.Scan(
			&setting.ID,
			&setting.Priority,
			&setting.CategoryID,
			&setting.PatientTypeID,
			&setting.DurationHours,
			&setting.IsActive,
			&setting.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, setting)
	}
	return result, rows.Err()
}

type unitRepository struct {
	db DB
}

func (r *unitRepository) GetByID(ctx context.Context, id string) (*domain.Unit, error) {
	const query = `SELECT id, name, is_active, created_at, updated_at FROM units WHERE id=$1`
	var unit domain.Unit
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&unit.ID,
		&unit.Name,
		&unit.IsActive,
		&unit.CreatedAt,
		&unit.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &unit, nil
}
