package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plantops/maintenance-service/internal/domain"
)

// StatusHistoryRepository reads the append-only status ledger. Appends
// happen exclusively inside the ticket repository's transactions, never
// through a standalone write path, so history and status can never diverge.
// No update or delete operation exists.
type StatusHistoryRepository interface {
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.StatusHistoryEntry, error)
}

type statusHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewStatusHistoryRepository builds repository.
func NewStatusHistoryRepository(pool *pgxpool.Pool) StatusHistoryRepository {
	return &statusHistoryRepository{pool: pool}
}

func (r *statusHistoryRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.StatusHistoryEntry, error) {
	const query = `
        SELECT id, ticket_id, old_status, new_status, changed_by, notes, changed_at
        FROM ticket_status_history WHERE ticket_id=$1 ORDER BY changed_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusHistoryEntry
	for rows.Next() {
		var entry domain.StatusHistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.OldStatus,
			&entry.NewStatus,
			&entry.ChangedBy,
			&entry.Notes,
			&entry.ChangedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
