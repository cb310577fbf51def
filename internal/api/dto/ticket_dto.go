package dto

import (
	"time"

	"github.com/plantops/maintenance-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title                  string                `json:"title"`
	Description            string                `json:"description"`
	Severity               domain.SeverityLevel  `json:"severity_level"`
	Priority               domain.TicketPriority `json:"priority"`
	PUNo                   *int64                `json:"puno"`
	EstimatedDowntimeHours *float64              `json:"estimated_downtime_hours"`
	ScheduleFinish         *time.Time            `json:"schedule_finish"`
	PreAssignTo            *int64                `json:"pre_assign_to"`
}

// RejectRequest payload.
type RejectRequest struct {
	Reason       string `json:"reason"`
	EscalateToL3 bool   `json:"escalate_to_l3"`
}

// CompleteRequest payload.
type CompleteRequest struct {
	ActualDowntimeHours float64 `json:"actual_downtime_hours"`
	Notes               string  `json:"notes"`
}

// EscalateRequest payload.
type EscalateRequest struct {
	EscalateTo int64  `json:"escalate_to"`
	Reason     string `json:"reason"`
}

// CloseRequest payload.
type CloseRequest struct {
	Reason             string `json:"reason"`
	SatisfactionRating *int16 `json:"satisfaction_rating"`
}

// ReopenRequest payload.
type ReopenRequest struct {
	Reason string `json:"reason"`
}

// ReassignRequest payload.
type ReassignRequest struct {
	AssignTo int64  `json:"assign_to"`
	Reason   string `json:"reason"`
}

// ImageMetadata describes one uploaded image.
type ImageMetadata struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// AttachImagesRequest registers uploaded images against a ticket.
type AttachImagesRequest struct {
	Images []ImageMetadata `json:"images"`
}

// TicketSummary response.
type TicketSummary struct {
	ID           int64                 `json:"id"`
	TicketNumber string                `json:"ticket_number"`
	Title        string                `json:"title"`
	Status       domain.TicketStatus   `json:"status"`
	Severity     domain.SeverityLevel  `json:"severity_level"`
	Priority     domain.TicketPriority `json:"priority"`
	ReportedBy   int64                 `json:"reported_by"`
	AssignedTo   *int64                `json:"assigned_to"`
	PUNo         *int64                `json:"puno"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID                     int64                   `json:"id"`
	TicketNumber           string                  `json:"ticket_number"`
	Title                  string                  `json:"title"`
	Description            string                  `json:"description"`
	Status                 domain.TicketStatus     `json:"status"`
	Severity               domain.SeverityLevel    `json:"severity_level"`
	Priority               domain.TicketPriority   `json:"priority"`
	ReportedBy             int64                   `json:"reported_by"`
	AssignedTo             *int64                  `json:"assigned_to"`
	EscalatedTo            *int64                  `json:"escalated_to"`
	RejectionReason        *string                 `json:"rejection_reason"`
	EscalationReason       *string                 `json:"escalation_reason"`
	EstimatedDowntimeHours *float64                `json:"estimated_downtime_hours"`
	ActualDowntimeHours    *float64                `json:"actual_downtime_hours"`
	ScheduleFinish         *time.Time              `json:"schedule_finish"`
	ActualFinish           *time.Time              `json:"actual_finish"`
	ResolvedAt             *time.Time              `json:"resolved_at"`
	ClosedAt               *time.Time              `json:"closed_at"`
	SatisfactionRating     *int16                  `json:"satisfaction_rating"`
	PUNo                   *int64                  `json:"puno"`
	CreatedAt              time.Time               `json:"created_at"`
	UpdatedAt              time.Time               `json:"updated_at"`
	History                []StatusHistoryResponse `json:"history"`
	Images                 []TicketImageResponse   `json:"images"`
}

// StatusHistoryResponse represents one audit entry.
type StatusHistoryResponse struct {
	ID        int64                `json:"id"`
	OldStatus *domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus  `json:"new_status"`
	ChangedBy int64                `json:"changed_by"`
	Notes     string               `json:"notes,omitempty"`
	ChangedAt time.Time            `json:"changed_at"`
}

// TicketImageResponse metadata.
type TicketImageResponse struct {
	ID         int64     `json:"id"`
	FileName   string    `json:"file_name"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedBy int64     `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// TransitionResponse reports the outcome of a workflow action.
type TransitionResponse struct {
	ID           int64               `json:"id"`
	TicketNumber string              `json:"ticket_number"`
	Status       domain.TicketStatus `json:"status"`
}
