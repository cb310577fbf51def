package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plantops/maintenance-service/internal/domain"
)

// TicketImageRepository stores image metadata attached to tickets.
type TicketImageRepository interface {
	Create(ctx context.Context, image *domain.TicketImage) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketImage, error)
	CountByTicket(ctx context.Context, ticketID int64) (int, error)
}

type ticketImageRepository struct {
	pool *pgxpool.Pool
}

// NewTicketImageRepository instantiates repository.
func NewTicketImageRepository(pool *pgxpool.Pool) TicketImageRepository {
	return &ticketImageRepository{pool: pool}
}

func (r *ticketImageRepository) Create(ctx context.Context, image *domain.TicketImage) error {
	const query = `
        INSERT INTO ticket_images (ticket_id, storage_key, file_name, mime_type, size_bytes, uploaded_by)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, uploaded_at`
	return r.pool.QueryRow(ctx, query,
		image.TicketID,
		image.StorageKey,
		image.FileName,
		image.MimeType,
		image.SizeBytes,
		image.UploadedBy,
	).Scan(&image.ID, &image.UploadedAt)
}

func (r *ticketImageRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketImage, error) {
	const query = `
        SELECT id, ticket_id, storage_key, file_name, mime_type, size_bytes, uploaded_by, uploaded_at
        FROM ticket_images WHERE ticket_id=$1 ORDER BY uploaded_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketImage
	for rows.Next() {
		var image domain.TicketImage
		if err := rows.Scan(
			&image.ID,
			&image.TicketID,
			&image.StorageKey,
			&image.FileName,
			&image.MimeType,
			&image.SizeBytes,
			&image.UploadedBy,
			&image.UploadedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, image)
	}
	return result, rows.Err()
}

func (r *ticketImageRepository) CountByTicket(ctx context.Context, ticketID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM ticket_images WHERE ticket_id=$1`
	var count int
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
