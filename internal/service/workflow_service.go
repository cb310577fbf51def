package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/plantops/maintenance-service/internal/domain"
	"github.com/plantops/maintenance-service/internal/events"
	"github.com/plantops/maintenance-service/internal/observability"
	"github.com/plantops/maintenance-service/internal/repository"
	apperrors "github.com/plantops/maintenance-service/pkg/util/errorutil"
)

// WorkflowService is the ticket transition engine. Every status change goes
// through one of its operations: the actor is authorized against the
// persisted status, the mutation and its history entry commit atomically,
// and exactly one transition event is published afterwards. Notification
// outcome never influences the operation's result.
type WorkflowService struct {
	tickets    repository.TicketRepository
	history    repository.StatusHistoryRepository
	images     repository.TicketImageRepository
	people     repository.PersonRepository
	perms      *PermissionService
	dispatcher events.Dispatcher
	notifier   *CreationNotifier
	metrics    *observability.Metrics
}

// WorkflowDependencies bundles collaborators for the workflow service.
type WorkflowDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.StatusHistoryRepository
	ImageRepo   repository.TicketImageRepository
	PersonRepo  repository.PersonRepository
	Permissions *PermissionService
	Dispatcher  events.Dispatcher
	Notifier    *CreationNotifier
	Metrics     *observability.Metrics
}

// NewWorkflowService constructs the service.
func NewWorkflowService(deps WorkflowDependencies) *WorkflowService {
	return &WorkflowService{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		images:     deps.ImageRepo,
		people:     deps.PersonRepo,
		perms:      deps.Permissions,
		dispatcher: deps.Dispatcher,
		notifier:   deps.Notifier,
		metrics:    deps.Metrics,
	}
}

// Postgres SQLSTATE for unique constraint violations.
const uniqueViolationCode = "23505"

// CreateTicketInput describes ticket creation payload.
type CreateTicketInput struct {
	Title                  string
	Description            string
	Severity               domain.SeverityLevel
	Priority               domain.TicketPriority
	PUNo                   *int64
	EstimatedDowntimeHours *float64
	ScheduleFinish         *time.Time
	PreAssignTo            *int64
}

// ImageInput defines image metadata registered against a ticket.
type ImageInput struct {
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
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

// CreateTicket opens a new ticket. A pre-assignee may be recorded without
// changing the initial status. The full creation notification is deferred
// until images finish uploading (or the fallback window lapses); creation
// itself publishes nothing.
func (s *WorkflowService) CreateTicket(ctx context.Context, reporterID int64, input CreateTicketInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	if input.Severity == "" {
		input.Severity = domain.SeverityMedium
	}
	if input.Priority == "" {
		input.Priority = domain.PriorityMedium
	}
	if input.EstimatedDowntimeHours != nil && *input.EstimatedDowntimeHours < 0 {
		return nil, apperrors.NewValidationError("estimated_downtime_hours must not be negative", nil)
	}
	if input.PreAssignTo != nil {
		if err := s.requireActivePerson(ctx, *input.PreAssignTo); err != nil {
			return nil, err
		}
	}

	ticket := &domain.Ticket{
		TicketNumber:           generateTicketNumber(),
		Title:                  title,
		Description:            strings.TrimSpace(input.Description),
		Status:                 domain.StatusOpen,
		Severity:               input.Severity,
		Priority:               input.Priority,
		ReportedBy:             reporterID,
		AssignedTo:             input.PreAssignTo,
		EstimatedDowntimeHours: input.EstimatedDowntimeHours,
		ScheduleFinish:         input.ScheduleFinish,
		PUNo:                   input.PUNo,
	}
	entry := &domain.StatusHistoryEntry{
		NewStatus: domain.StatusOpen,
		ChangedBy: reporterID,
		Notes:     "ticket reported",
	}
	if err := s.tickets.Create(ctx, ticket, entry); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, apperrors.NewConflict("ticket number already exists", map[string]any{
				"ticket_number": ticket.TicketNumber,
			})
		}
		return nil, apperrors.NewPersistenceFailure(err)
	}
	s.metrics.RecordTransition(string(domain.ActionCreate))
	if s.notifier != nil {
		s.notifier.Arm(ticket)
	}
	return ticket, nil
}

// Accept moves a ticket into repair. Accepting an open or reopened ticket
// requires level 2; accepting one awaiting level-3 review requires level 3.
// The accepting actor becomes the assignee.
func (s *WorkflowService) Accept(ctx context.Context, actorID, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	var requiredLevel int
	switch ticket.Status {
	case domain.StatusOpen, domain.StatusReopenedInProgress:
		requiredLevel = 2
	case domain.StatusRejectedPendingL3:
		requiredLevel = 3
	default:
		return nil, invalidStateFor(domain.ActionAccept, ticket)
	}
	if err := s.requireLevel(ctx, actorID, requiredLevel); err != nil {
		return nil, err
	}

	expected := ticket.Status
	ticket.Status = domain.StatusInProgress
	ticket.AssignedTo = &actorID
	if err := s.applyTransition(ctx, ticket, expected, domain.ActionAccept, actorID, ""); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Reject records a rejection. Actors below level 3 may only reject an open
// or in-progress ticket upward for level-3 review; level 3 and above reject
// any rejectable ticket terminally.
func (s *WorkflowService) Reject(ctx context.Context, actorID, ticketID int64, reason string, escalateToL3 bool) (*domain.Ticket, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("rejection reason required", nil)
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	level, err := s.perms.LevelFor(ctx, actorID)
	if err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}

	expected := ticket.Status
	switch {
	case level >= 3:
		if !ticket.Status.Rejectable() {
			return nil, invalidStateFor(domain.ActionReject, ticket)
		}
		ticket.Status = domain.StatusRejectedFinal
	case escalateToL3 && level >= domain.MinApprovalLevel:
		if ticket.Status != domain.StatusOpen && ticket.Status != domain.StatusInProgress {
			return nil, invalidStateFor(domain.ActionReject, ticket)
		}
		ticket.Status = domain.StatusRejectedPendingL3
	default:
		return nil, apperrors.NewPermissionDenied("approval level 3 required for final rejection", map[string]any{
			"actor_level": level,
		})
	}
	ticket.RejectionReason = &reason
	if err := s.applyTransition(ctx, ticket, expected, domain.ActionReject, actorID, reason); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Complete records the repair as done. Only the current assignee may
// complete, and only from in_progress.
func (s *WorkflowService) Complete(ctx context.Context, actorID, ticketID int64, actualDowntimeHours float64, notes string) (*domain.Ticket, error) {
	if actualDowntimeHours < 0 {
		return nil, apperrors.NewValidationError("actual_downtime_hours must not be negative", nil)
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.StatusInProgress {
		return nil, invalidStateFor(domain.ActionComplete, ticket)
	}
	if ticket.AssignedTo == nil || *ticket.AssignedTo != actorID {
		return nil, apperrors.NewPermissionDenied("only the assignee may complete the ticket", nil)
	}

	now := time.Now()
	expected := ticket.Status
	ticket.Status = domain.StatusCompleted
	ticket.ActualDowntimeHours = &actualDowntimeHours
	ticket.ResolvedAt = &now
	ticket.ActualFinish = &now
	if err := s.applyTransition(ctx, ticket, expected, domain.ActionComplete, actorID, notes); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Escalate hands an in-progress ticket to a higher-authority target. Only
// the current assignee may escalate.
func (s *WorkflowService) Escalate(ctx context.Context, actorID, ticketID, targetID int64, reason string) (*domain.Ticket, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("escalation reason required", nil)
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.StatusInProgress {
		return nil, invalidStateFor(domain.ActionEscalate, ticket)
	}
	if ticket.AssignedTo == nil || *ticket.AssignedTo != actorID {
		return nil, apperrors.NewPermissionDenied("only the assignee may escalate the ticket", nil)
	}
	if err := s.requireActivePerson(ctx, targetID); err != nil {
		return nil, err
	}

	expected := ticket.Status
	ticket.Status = domain.StatusEscalated
	ticket.EscalatedTo = &targetID
	ticket.EscalationReason = &reason
	if err := s.applyTransition(ctx, ticket, expected, domain.ActionEscalate, actorID, reason); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Close ends a completed ticket. Only the reporter may close, optionally
// rating the repair 1 to 5.
func (s *WorkflowService) Close(ctx context.Context, actorID, ticketID int64, reason string, satisfactionRating *int16) (*domain.Ticket, error) {
	if satisfactionRating != nil && (*satisfactionRating < 1 || *satisfactionRating > 5) {
		return nil, apperrors.NewValidationError("satisfaction_rating must be between 1 and 5", nil)
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.StatusCompleted {
		return nil, invalidStateFor(domain.ActionClose, ticket)
	}
	if ticket.ReportedBy != actorID {
		return nil, apperrors.NewPermissionDenied("only the reporter may close the ticket", nil)
	}

	now := time.Now()
	expected := ticket.Status
	ticket.Status = domain.StatusClosed
	ticket.ClosedAt = &now
	ticket.SatisfactionRating = satisfactionRating
	if err := s.applyTransition(ctx, ticket, expected, domain.ActionClose, actorID, reason); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Reopen sends a completed ticket back to work. Only the reporter may
// reopen.
func (s *WorkflowService) Reopen(ctx context.Context, actorID, ticketID int64, reason string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.StatusCompleted {
		return nil, invalidStateFor(domain.ActionReopen, ticket)
	}
	if ticket.ReportedBy != actorID {
		return nil, apperrors.NewPermissionDenied("only the reporter may reopen the ticket", nil)
	}

	expected := ticket.Status
	ticket.Status = domain.StatusReopenedInProgress
	if err := s.applyTransition(ctx, ticket, expected, domain.ActionReopen, actorID, reason); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Reassign redirects a stalled ticket (awaiting level-3 review or
// escalated) back to open under a new assignee. Requires level 3.
func (s *WorkflowService) Reassign(ctx context.Context, actorID, ticketID, newAssigneeID int64, reason string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.StatusRejectedPendingL3 && ticket.Status != domain.StatusEscalated {
		return nil, invalidStateFor(domain.ActionReassign, ticket)
	}
	if err := s.requireLevel(ctx, actorID, 3); err != nil {
		return nil, err
	}
	if err := s.requireActivePerson(ctx, newAssigneeID); err != nil {
		return nil, err
	}

	expected := ticket.Status
	ticket.Status = domain.StatusOpen
	ticket.AssignedTo = &newAssigneeID
	ticket.EscalatedTo = nil
	if err := s.applyTransition(ctx, ticket, expected, domain.ActionReassign, actorID, reason); err != nil {
		return nil, err
	}
	return ticket, nil
}

// AttachImages registers uploaded image metadata and nudges the deferred
// creation notifier. Multiple upload calls within the debounce window
// collapse into a single creation notice.
func (s *WorkflowService) AttachImages(ctx context.Context, actorID, ticketID int64, inputs []ImageInput) ([]domain.TicketImage, error) {
	if len(inputs) == 0 {
		return nil, apperrors.NewValidationError("at least one image required", nil)
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	stored := make([]domain.TicketImage, 0, len(inputs))
	for _, input := range inputs {
		image := domain.TicketImage{
			TicketID:   ticket.ID,
			StorageKey: input.StorageKey,
			FileName:   input.FileName,
			MimeType:   input.MimeType,
			SizeBytes:  input.SizeBytes,
			UploadedBy: actorID,
		}
		if err := s.images.Create(ctx, &image); err != nil {
			return nil, apperrors.NewPersistenceFailure(err)
		}
		stored = append(stored, image)
	}

	if s.notifier != nil {
		count, err := s.images.CountByTicket(ctx, ticket.ID)
		if err != nil {
			count = len(stored)
		}
		s.notifier.ImagesAttached(ticket, count)
	}
	return stored, nil
}

// GetTicketDetail returns the ticket with its ordered history and images.
func (s *WorkflowService) GetTicketDetail(ctx context.Context, ticketID int64) (*domain.Ticket, []domain.StatusHistoryEntry, []domain.TicketImage, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, nil, err
	}
	return s.assembleDetail(ctx, ticket)
}

// GetTicketDetailByNumber resolves a ticket by its human-facing number.
func (s *WorkflowService) GetTicketDetailByNumber(ctx context.Context, ticketNumber string) (*domain.Ticket, []domain.StatusHistoryEntry, []domain.TicketImage, error) {
	ticket, err := s.tickets.GetByNumber(ctx, ticketNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_number": ticketNumber})
		}
		return nil, nil, nil, apperrors.NewPersistenceFailure(err)
	}
	return s.assembleDetail(ctx, ticket)
}

func (s *WorkflowService) assembleDetail(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, []domain.StatusHistoryEntry, []domain.TicketImage, error) {
	history, err := s.history.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, nil, apperrors.NewPersistenceFailure(err)
	}
	images, err := s.images.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, nil, apperrors.NewPersistenceFailure(err)
	}
	return ticket, history, images, nil
}

// ListTickets returns tickets matching the filter.
func (s *WorkflowService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		ReportedBy:  filter.ReportedBy,
		AssignedTo:  filter.AssignedTo,
		PUNo:        filter.PUNo,
		Statuses:    filter.Statuses,
		Severities:  filter.Severities,
		Priorities:  filter.Priorities,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	})
	if err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	return tickets, nil
}

func (s *WorkflowService) loadTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewPersistenceFailure(err)
	}
	return ticket, nil
}

func (s *WorkflowService) requireLevel(ctx context.Context, actorID int64, required int) error {
	ok, err := s.perms.HasLevel(ctx, actorID, required)
	if err != nil {
		return apperrors.NewPersistenceFailure(err)
	}
	if !ok {
		return apperrors.NewPermissionDenied("insufficient approval level", map[string]any{
			"required_level": required,
		})
	}
	return nil
}

func (s *WorkflowService) requireActivePerson(ctx context.Context, personID int64) error {
	person, err := s.people.GetByID(ctx, personID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("person", map[string]any{"person_id": personID})
		}
		return apperrors.NewPersistenceFailure(err)
	}
	if !person.IsActive {
		return apperrors.NewValidationError("person is inactive", map[string]any{"person_id": personID})
	}
	return nil
}

// applyTransition persists the mutated ticket conditioned on the expected
// prior status, appends the history entry in the same transaction, and
// publishes the transition event. A concurrent status change surfaces as
// InvalidState; the mutation is rolled back entirely on any failure.
func (s *WorkflowService) applyTransition(ctx context.Context, ticket *domain.Ticket, expected domain.TicketStatus, action domain.WorkflowAction, actorID int64, notes string) error {
	old := expected
	entry := &domain.StatusHistoryEntry{
		TicketID:  ticket.ID,
		OldStatus: &old,
		NewStatus: ticket.Status,
		ChangedBy: actorID,
		Notes:     notes,
	}
	if err := s.tickets.ApplyTransition(ctx, ticket, expected, entry); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return apperrors.NewInvalidState("ticket status changed concurrently", map[string]any{
				"ticket_id": ticket.ID,
			})
		}
		return apperrors.NewPersistenceFailure(err)
	}
	s.metrics.RecordTransition(string(action))
	s.publishTransition(ctx, ticket, action, &old, actorID, notes)
	return nil
}

func (s *WorkflowService) publishTransition(ctx context.Context, ticket *domain.Ticket, action domain.WorkflowAction, oldStatus *domain.TicketStatus, actorID int64, notes string) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketTransitioned,
		TicketID:  ticket.ID,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Payload: events.TicketTransitionedPayload{
			Action:    action,
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
			Notes:     notes,
			Ticket:    *ticket,
		},
	})
}

func invalidStateFor(action domain.WorkflowAction, ticket *domain.Ticket) error {
	return apperrors.NewInvalidState("ticket status does not permit "+string(action), map[string]any{
		"ticket_id": ticket.ID,
		"status":    ticket.Status,
	})
}

func generateTicketNumber() string {
	return "MT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
