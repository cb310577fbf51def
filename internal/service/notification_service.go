package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/plantops/maintenance-service/internal/domain"
	"github.com/plantops/maintenance-service/internal/events"
	"github.com/plantops/maintenance-service/internal/notify"
	"github.com/plantops/maintenance-service/internal/repository"
)

// NotificationService fans committed transitions out to email and LINE.
// Every send is best-effort: failures are logged and dropped, never retried
// and never surfaced to the operation that caused the event.
type NotificationService struct {
	dispatcher events.Dispatcher
	people     repository.PersonRepository
	email      notify.EmailSender
	line       notify.LinePusher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, people repository.PersonRepository, email notify.EmailSender, line notify.LinePusher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		people:     people,
		email:      email,
		line:       line,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to workflow events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketTransitioned, n.handleTicketTransitioned)
	n.dispatcher.Subscribe(events.EventTicketCreateFinalized, n.handleCreateFinalized)
}

func (n *NotificationService) handleTicketTransitioned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketTransitionedPayload)
	if !ok {
		return errors.New("unexpected payload for ticket_transitioned")
	}
	subject := fmt.Sprintf("[%s] %s: %s", payload.Ticket.TicketNumber, payload.Action, payload.Ticket.Title)
	body := transitionBody(payload)
	n.fanOut(ctx, recipientIDs(payload.Ticket), subject, body)
	return nil
}

func (n *NotificationService) handleCreateFinalized(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreateFinalizedPayload)
	if !ok {
		return errors.New("unexpected payload for ticket_create_finalized")
	}
	subject := fmt.Sprintf("[%s] new maintenance ticket: %s", payload.Ticket.TicketNumber, payload.Ticket.Title)
	body := fmt.Sprintf("Ticket %s reported.\nSeverity: %s\nPriority: %s\nImages attached: %d\n\n%s",
		payload.Ticket.TicketNumber, payload.Ticket.Severity, payload.Ticket.Priority,
		payload.ImageCount, payload.Ticket.Description)
	n.fanOut(ctx, recipientIDs(payload.Ticket), subject, body)
	return nil
}

// fanOut notifies each recipient on each channel independently; one
// failing channel or person never blocks the rest.
func (n *NotificationService) fanOut(ctx context.Context, personIDs []int64, subject, body string) {
	for _, personID := range personIDs {
		person, err := n.people.GetByID(ctx, personID)
		if err != nil {
			n.logger.Warn("notification recipient lookup failed",
				zap.Int64("person_id", personID), zap.Error(err))
			continue
		}
		n.notifyPerson(ctx, person, subject, body)
	}
}

func (n *NotificationService) notifyPerson(ctx context.Context, person *domain.Person, subject, body string) {
	if n.email != nil && person.Email != "" {
		if err := n.email.Send(ctx, person.Email, subject, body); err != nil {
			n.logger.Warn("email notification failed",
				zap.Int64("person_id", person.ID), zap.Error(err))
		}
	}
	if n.line != nil && person.LineUserID != nil && *person.LineUserID != "" {
		if err := n.line.Push(ctx, *person.LineUserID, subject+"\n"+body); err != nil {
			n.logger.Warn("line notification failed",
				zap.Int64("person_id", person.ID), zap.Error(err))
		}
	}
}

// recipientIDs lists the interested parties of a ticket, deduplicated:
// reporter, current assignee and escalation target.
func recipientIDs(ticket domain.Ticket) []int64 {
	seen := make(map[int64]struct{}, 3)
	ids := make([]int64, 0, 3)
	add := func(id int64) {
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	add(ticket.ReportedBy)
	if ticket.AssignedTo != nil {
		add(*ticket.AssignedTo)
	}
	if ticket.EscalatedTo != nil {
		add(*ticket.EscalatedTo)
	}
	return ids
}

func transitionBody(payload events.TicketTransitionedPayload) string {
	old := "-"
	if payload.OldStatus != nil {
		old = string(*payload.OldStatus)
	}
	body := fmt.Sprintf("Ticket %s moved from %s to %s.", payload.Ticket.TicketNumber, old, payload.NewStatus)
	if payload.Notes != "" {
		body += "\nNotes: " + payload.Notes
	}
	return body
}
