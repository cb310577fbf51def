package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/plantops/maintenance-service/internal/domain"
	"github.com/plantops/maintenance-service/internal/events"
)

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func transitionEvent(ticket domain.Ticket) events.Event {
	old := domain.StatusOpen
	return events.Event{
		ID:        "evt-1",
		Type:      events.EventTicketTransitioned,
		TicketID:  ticket.ID,
		ActorID:   1,
		Timestamp: time.Now(),
		Payload: events.TicketTransitionedPayload{
			Action:    domain.ActionAccept,
			OldStatus: &old,
			NewStatus: domain.StatusInProgress,
			Ticket:    ticket,
		},
	}
}

func TestNotificationFanOutReachesAllChannels(t *testing.T) {
	dispatcher := newRecordingDispatcher()
	people := newFakePersonRepo()
	people.add(domain.Person{ID: 1, Email: "reporter@plant.example", LineUserID: strPtr("U1"), IsActive: true})
	people.add(domain.Person{ID: 2, Email: "tech@plant.example", IsActive: true})
	email := &fakeEmailSender{}
	line := &fakeLinePusher{}

	svc := NewNotificationService(dispatcher, people, email, line, zap.NewNop())
	svc.RegisterHandlers()

	ticket := domain.Ticket{ID: 10, TicketNumber: "MT-XYZ", Title: "pump", ReportedBy: 1, AssignedTo: int64Ptr(2)}
	require.NoError(t, dispatcher.Publish(context.Background(), transitionEvent(ticket)))

	require.Len(t, email.all(), 2)
	// Only the reporter has a LINE account linked.
	require.Len(t, line.all(), 1)
	assert.Equal(t, "U1", line.all()[0].to)
}

func TestNotificationEmailFailureDoesNotBlockLine(t *testing.T) {
	dispatcher := newRecordingDispatcher()
	people := newFakePersonRepo()
	people.add(domain.Person{ID: 1, Email: "reporter@plant.example", LineUserID: strPtr("U1"), IsActive: true})
	email := &fakeEmailSender{err: errors.New("smtp refused")}
	line := &fakeLinePusher{}

	svc := NewNotificationService(dispatcher, people, email, line, zap.NewNop())
	svc.RegisterHandlers()

	ticket := domain.Ticket{ID: 11, TicketNumber: "MT-FAIL", ReportedBy: 1}
	require.NoError(t, dispatcher.Publish(context.Background(), transitionEvent(ticket)))

	assert.Empty(t, email.all())
	assert.Len(t, line.all(), 1)
}

func TestNotificationRecipientsDeduplicated(t *testing.T) {
	dispatcher := newRecordingDispatcher()
	people := newFakePersonRepo()
	people.add(domain.Person{ID: 1, Email: "one@plant.example", IsActive: true})
	email := &fakeEmailSender{}
	line := &fakeLinePusher{}

	svc := NewNotificationService(dispatcher, people, email, line, zap.NewNop())
	svc.RegisterHandlers()

	// Reporter accepted their own ticket; one send, not two.
	ticket := domain.Ticket{ID: 12, TicketNumber: "MT-DUP", ReportedBy: 1, AssignedTo: int64Ptr(1)}
	require.NoError(t, dispatcher.Publish(context.Background(), transitionEvent(ticket)))

	assert.Len(t, email.all(), 1)
}

func TestNotificationUnknownRecipientSkipped(t *testing.T) {
	dispatcher := newRecordingDispatcher()
	people := newFakePersonRepo()
	people.add(domain.Person{ID: 1, Email: "one@plant.example", IsActive: true})
	email := &fakeEmailSender{}
	line := &fakeLinePusher{}

	svc := NewNotificationService(dispatcher, people, email, line, zap.NewNop())
	svc.RegisterHandlers()

	ticket := domain.Ticket{ID: 13, TicketNumber: "MT-GONE", ReportedBy: 1, AssignedTo: int64Ptr(999)}
	require.NoError(t, dispatcher.Publish(context.Background(), transitionEvent(ticket)))

	assert.Len(t, email.all(), 1)
}

func TestCreateFinalizedNoticeContent(t *testing.T) {
	dispatcher := newRecordingDispatcher()
	people := newFakePersonRepo()
	people.add(domain.Person{ID: 1, Email: "reporter@plant.example", IsActive: true})
	email := &fakeEmailSender{}
	line := &fakeLinePusher{}

	svc := NewNotificationService(dispatcher, people, email, line, zap.NewNop())
	svc.RegisterHandlers()

	ticket := domain.Ticket{
		ID:           14,
		TicketNumber: "MT-NEW1",
		Title:        "conveyor jam",
		Description:  "belt misaligned at station 4",
		Severity:     domain.SeverityHigh,
		Priority:     domain.PriorityHigh,
		ReportedBy:   1,
	}
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		ID:        "evt-2",
		Type:      events.EventTicketCreateFinalized,
		TicketID:  ticket.ID,
		ActorID:   1,
		Timestamp: time.Now(),
		Payload:   events.TicketCreateFinalizedPayload{Ticket: ticket, ImageCount: 2},
	}))

	sent := email.all()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].subject, "MT-NEW1")
	assert.Contains(t, sent[0].body, "Images attached: 2")
	assert.Contains(t, sent[0].body, "belt misaligned")
}
