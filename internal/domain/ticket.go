package domain

import "time"

// TicketStatus enumerates lifecycle states for maintenance tickets. This is
// the single authoritative state set; every status write goes through the
// workflow transition checks.
type TicketStatus string

const (
	StatusOpen               TicketStatus = "open"
	StatusInProgress         TicketStatus = "in_progress"
	StatusRejectedPendingL3  TicketStatus = "rejected_pending_l3_review"
	StatusRejectedFinal      TicketStatus = "rejected_final"
	StatusEscalated          TicketStatus = "escalated"
	StatusCompleted          TicketStatus = "completed"
	StatusClosed             TicketStatus = "closed"
	StatusReopenedInProgress TicketStatus = "reopened_in_progress"
)

// Terminal reports whether no further transition may leave the status.
func (s TicketStatus) Terminal() bool {
	return s == StatusRejectedFinal || s == StatusClosed
}

// Valid reports whether the value belongs to the closed status set.
func (s TicketStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusRejectedPendingL3, StatusRejectedFinal,
		StatusEscalated, StatusCompleted, StatusClosed, StatusReopenedInProgress:
		return true
	}
	return false
}

// Rejectable reports whether a level-3 final rejection may target the
// status. Completed work is past the approval gate and cannot be rejected.
func (s TicketStatus) Rejectable() bool {
	return !s.Terminal() && s != StatusCompleted
}

// WorkflowAction names a requested lifecycle operation.
type WorkflowAction string

const (
	ActionCreate   WorkflowAction = "create"
	ActionAccept   WorkflowAction = "accept"
	ActionReject   WorkflowAction = "reject"
	ActionComplete WorkflowAction = "complete"
	ActionEscalate WorkflowAction = "escalate"
	ActionClose    WorkflowAction = "close"
	ActionReopen   WorkflowAction = "reopen"
	ActionReassign WorkflowAction = "reassign"
)

// SeverityLevel grades the impact of the reported fault.
type SeverityLevel string

const (
	SeverityLow      SeverityLevel = "low"
	SeverityMedium   SeverityLevel = "medium"
	SeverityHigh     SeverityLevel = "high"
	SeverityCritical SeverityLevel = "critical"
)

// TicketPriority enumerates scheduling urgency.
type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
	PriorityUrgent TicketPriority = "urgent"
)

// Ticket is the aggregate for maintenance work requests. ReportedBy and
// TicketNumber are immutable after creation; AssignedTo changes only through
// workflow transitions.
type Ticket struct {
	ID                     int64
	TicketNumber           string
	Title                  string
	Description            string
	Status                 TicketStatus
	Severity               SeverityLevel
	Priority               TicketPriority
	ReportedBy             int64
	AssignedTo             *int64
	EscalatedTo            *int64
	RejectionReason        *string
	EscalationReason       *string
	EstimatedDowntimeHours *float64
	ActualDowntimeHours    *float64
	ScheduleFinish         *time.Time
	ActualFinish           *time.Time
	ResolvedAt             *time.Time
	ClosedAt               *time.Time
	SatisfactionRating     *int16
	PUNo                   *int64
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// transitionGraph lists reachable target statuses per source status. The
// graph covers status pairs only; actor requirements are enforced by the
// workflow service on top of it.
var transitionGraph = map[TicketStatus][]TicketStatus{
	StatusOpen:               {StatusInProgress, StatusRejectedPendingL3, StatusRejectedFinal},
	StatusInProgress:         {StatusCompleted, StatusEscalated, StatusRejectedPendingL3, StatusRejectedFinal},
	StatusRejectedPendingL3:  {StatusInProgress, StatusOpen, StatusRejectedFinal},
	StatusRejectedFinal:      {},
	StatusEscalated:          {StatusOpen, StatusRejectedFinal},
	StatusCompleted:          {StatusClosed, StatusReopenedInProgress},
	StatusClosed:             {},
	StatusReopenedInProgress: {StatusInProgress, StatusRejectedFinal},
}

// CanTransition reports whether the status graph contains the edge.
func CanTransition(from, to TicketStatus) bool {
	for _, candidate := range transitionGraph[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
