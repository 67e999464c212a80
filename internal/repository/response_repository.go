package repository

import (
	"context"

	"github.com/careportal/complaint-service/internal/domain"
)

type responseRepository struct {
	db DB
}

func (r *responseRepository) Create(ctx context.Context, response *domain.TicketResponse) error {
	const query = `
        INSERT INTO ticket_responses (ticket_id, message, resolution, is_internal, created_by)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		response.TicketID,
		response.Message,
		response.Resolution,
		response.IsInternal,
		response.CreatedBy,
	).Scan(&response.ID, &response.CreatedAt)
}

func (r *responseRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketResponse, error) {
	const query = `
        SELECT id, ticket_id, message, resolution, is_internal, created_by, created_at
        FROM ticket_responses WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketResponse
	for rows.Next() {
		var response domain.TicketResponse
		if err := rows.Scan(
			&response.ID,
			&response.TicketID,
			&response.Message,
			&response.Resolution,
			&response.IsInternal,
			&response.CreatedBy,
			&response.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, response)
	}
	return result, rows.Err()
}
