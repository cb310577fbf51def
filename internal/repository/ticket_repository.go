package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plantops/maintenance-service/internal/domain"
)

// ErrStatusConflict signals that the ticket's persisted status no longer
// matches the status the transition was validated against. The caller lost
// the race and must not retry blindly.
var ErrStatusConflict = errors.New("ticket status changed concurrently")

// TicketFilter captures listing parameters.
type TicketFilter struct {
	ReportedBy  *int64
	AssignedTo  *int64
	PUNo        *int64
	Statuses    []domain.TicketStatus
	Severities  []domain.SeverityLevel
	Priorities  []domain.TicketPriority
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence. Create and
// ApplyTransition each run the status write and the history append inside a
// single database transaction, so both succeed or both fail.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket, entry *domain.StatusHistoryEntry) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// ApplyTransition persists the mutated ticket conditioned on the
	// expected prior status and appends the history entry atomically.
	// Returns ErrStatusConflict when the conditional update matches no row.
	ApplyTransition(ctx context.Context, ticket *domain.Ticket, expected domain.TicketStatus, entry *domain.StatusHistoryEntry) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_number, title, description, status, severity_level, priority,
               reported_by, assigned_to, escalated_to, rejection_reason, escalation_reason,
               estimated_downtime_hours, actual_downtime_hours, schedule_finish, actual_finish,
               resolved_at, closed_at, satisfaction_rating, puno, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket, entry *domain.StatusHistoryEntry) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const insertTicket = `
        INSERT INTO tickets (ticket_number, title, description, status, severity_level, priority,
                             reported_by, assigned_to, estimated_downtime_hours, schedule_finish, puno)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
		if err := tx.QueryRow(ctx, insertTicket,
			ticket.TicketNumber,
			ticket.Title,
			ticket.Description,
			ticket.Status,
			ticket.Severity,
			ticket.Priority,
			ticket.ReportedBy,
			ticket.AssignedTo,
			ticket.EstimatedDowntimeHours,
			ticket.ScheduleFinish,
			ticket.PUNo,
		).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt); err != nil {
			return err
		}
		entry.TicketID = ticket.ID
		return appendHistoryTx(ctx, tx, entry)
	})
}

func (r *ticketRepository) ApplyTransition(ctx context.Context, ticket *domain.Ticket, expected domain.TicketStatus, entry *domain.StatusHistoryEntry) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const update = `
        UPDATE tickets SET status=$1, assigned_to=$2, escalated_to=$3, rejection_reason=$4,
            escalation_reason=$5, actual_downtime_hours=$6, actual_finish=$7, resolved_at=$8,
            closed_at=$9, satisfaction_rating=$10, updated_at=NOW()
        WHERE id=$11 AND status=$12
        RETURNING updated_at`
		err := tx.QueryRow(ctx, update,
			ticket.Status,
			ticket.AssignedTo,
			ticket.EscalatedTo,
			ticket.RejectionReason,
			ticket.EscalationReason,
			ticket.ActualDowntimeHours,
			ticket.ActualFinish,
			ticket.ResolvedAt,
			ticket.ClosedAt,
			ticket.SatisfactionRating,
			ticket.ID,
			expected,
		).Scan(&ticket.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrStatusConflict
		}
		if err != nil {
			return err
		}
		return appendHistoryTx(ctx, tx, entry)
	})
}

func appendHistoryTx(ctx context.Context, tx pgx.Tx, entry *domain.StatusHistoryEntry) error {
	const insert = `
        INSERT INTO ticket_status_history (ticket_id, old_status, new_status, changed_by, notes)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, changed_at`
	return tx.QueryRow(ctx, insert,
		entry.TicketID,
		entry.OldStatus,
		entry.NewStatus,
		entry.ChangedBy,
		entry.Notes,
	).Scan(&entry.ID, &entry.ChangedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE ticket_number=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, number)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, arg), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ReportedBy != nil {
		args = append(args, *filter.ReportedBy)
		clauses = append(clauses, fmt.Sprintf("reported_by=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if filter.PUNo != nil {
		args = append(args, *filter.PUNo)
		clauses = append(clauses, fmt.Sprintf("puno=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Severities) > 0 {
		placeholders := make([]string, len(filter.Severities))
		for i, severity := range filter.Severities {
			args = append(args, severity)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("severity_level IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, priority := range filter.Priorities {
			args = append(args, priority)
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
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
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

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Severity,
		&ticket.Priority,
		&ticket.ReportedBy,
		&ticket.AssignedTo,
		&ticket.EscalatedTo,
		&ticket.RejectionReason,
		&ticket.EscalationReason,
		&ticket.EstimatedDowntimeHours,
		&ticket.ActualDowntimeHours,
		&ticket.ScheduleFinish,
		&ticket.ActualFinish,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.SatisfactionRating,
		&ticket.PUNo,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}
