package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plantops/maintenance-service/internal/domain"
)

// PersonRepository provides person lookups for authentication and
// notification recipient resolution.
type PersonRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Person, error)
	GetByEmail(ctx context.Context, email string) (*domain.Person, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type personRepository struct {
	pool *pgxpool.Pool
}

// NewPersonRepository instantiates repository.
func NewPersonRepository(pool *pgxpool.Pool) PersonRepository {
	return &personRepository{pool: pool}
}

const personColumns = `id, name, email, line_user_id, password_hash, is_active, created_at, updated_at`

func (r *personRepository) GetByID(ctx context.Context, id int64) (*domain.Person, error) {
	const query = `SELECT ` + personColumns + ` FROM people WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *personRepository) GetByEmail(ctx context.Context, email string) (*domain.Person, error) {
	const query = `SELECT ` + personColumns + ` FROM people WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *personRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	const query = `UPDATE people SET password_hash=$1, updated_at=NOW() WHERE id=$2`
	tag, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *personRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Person, error) {
	var person domain.Person
	if err := scanPerson(r.pool.QueryRow(ctx, query, arg), &person); err != nil {
		return nil, err
	}
	return &person, nil
}

func scanPerson(row pgx.Row, person *domain.Person) error {
	return row.Scan(
		&person.ID,
		&person.Name,
		&person.Email,
		&person.LineUserID,
		&person.PasswordHash,
		&person.IsActive,
		&person.CreatedAt,
		&person.UpdatedAt,
	)
}
