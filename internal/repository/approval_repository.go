package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plantops/maintenance-service/internal/domain"
)

// ApprovalGrantRepository backs the permission resolver.
type ApprovalGrantRepository interface {
	// ActiveLevel returns the highest active approval level held by the
	// person, or 0 when none.
	ActiveLevel(ctx context.Context, personID int64) (int, error)
	ListByPerson(ctx context.Context, personID int64) ([]domain.ApprovalGrant, error)
}

type approvalGrantRepository struct {
	pool *pgxpool.Pool
}

// NewApprovalGrantRepository instantiates repository.
func NewApprovalGrantRepository(pool *pgxpool.Pool) ApprovalGrantRepository {
	return &approvalGrantRepository{pool: pool}
}

func (r *approvalGrantRepository) ActiveLevel(ctx context.Context, personID int64) (int, error) {
	const query = `
        SELECT COALESCE(MAX(approval_level), 0)
        FROM approval_grants WHERE person_id=$1 AND is_active`
	var level int
	if err := r.pool.QueryRow(ctx, query, personID).Scan(&level); err != nil {
		return 0, err
	}
	return level, nil
}

const grantColumns = `id, person_id, approval_level, plant_code, area_code, line_code, machine_code,
               is_active, created_at, updated_at`

func (r *approvalGrantRepository) ListByPerson(ctx context.Context, personID int64) ([]domain.ApprovalGrant, error) {
	const query = `
        SELECT ` + grantColumns + `
        FROM approval_grants WHERE person_id=$1 ORDER BY approval_level DESC, id ASC`
	rows, err := r.pool.Query(ctx, query, personID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ApprovalGrant
	for rows.Next() {
		var grant domain.ApprovalGrant
		if err := rows.Scan(
			&grant.ID,
			&grant.PersonID,
			&grant.ApprovalLevel,
			&grant.PlantCode,
			&grant.AreaCode,
			&grant.LineCode,
			&grant.MachineCode,
			&grant.IsActive,
			&grant.CreatedAt,
			&grant.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, grant)
	}
	return result, rows.Err()
}
