package events

import (
	"time"

	"github.com/plantops/maintenance-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	// EventTicketTransitioned fires exactly once per successful workflow
	// transition, after the status and history writes have committed.
	EventTicketTransitioned EventType = "ticket_transitioned"
	// EventTicketCreateFinalized fires at most once per ticket, after the
	// image-upload debounce window settles. It carries the full creation
	// notice, images included.
	EventTicketCreateFinalized EventType = "ticket_create_finalized"
)

// Event represents a domain event emitted by services. The payload carries a
// ticket snapshot so subscribers never race a later mutation.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  int64     `json:"ticket_id"`
	ActorID   int64     `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketTransitionedPayload describes one committed transition.
type TicketTransitionedPayload struct {
	Action    domain.WorkflowAction `json:"action"`
	OldStatus *domain.TicketStatus  `json:"old_status,omitempty"`
	NewStatus domain.TicketStatus   `json:"new_status"`
	Notes     string                `json:"notes,omitempty"`
	Ticket    domain.Ticket         `json:"ticket"`
}

// TicketCreateFinalizedPayload carries the deferred creation notice.
type TicketCreateFinalizedPayload struct {
	Ticket     domain.Ticket `json:"ticket"`
	ImageCount int           `json:"image_count"`
}
