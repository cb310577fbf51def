package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/plantops/maintenance-service/internal/api/dto"
	"github.com/plantops/maintenance-service/internal/auth"
	"github.com/plantops/maintenance-service/internal/domain"
	"github.com/plantops/maintenance-service/internal/service"
	apperrors "github.com/plantops/maintenance-service/pkg/util/errorutil"
)

// TicketsHandler manages ticket creation, listing, detail, and image endpoints.
type TicketsHandler struct {
	service *service.WorkflowService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(workflowService *service.WorkflowService) *TicketsHandler {
	return &TicketsHandler{service: workflowService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	person, ok := auth.PersonFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.CreateTicketInput{
		Title:                  req.Title,
		Description:            req.Description,
		Severity:               req.Severity,
		Priority:               req.Priority,
		PUNo:                   req.PUNo,
		EstimatedDowntimeHours: req.EstimatedDowntimeHours,
		ScheduleFinish:         req.ScheduleFinish,
		PreAssignTo:            req.PreAssignTo,
	}
	ticket, err := h.service.CreateTicket(c.Context(), person.ID, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	if _, ok := auth.PersonFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := parseTicketQuery(c)
	tickets, err := h.service.ListTickets(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	if _, ok := auth.PersonFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}
	ticket, history, images, err := h.service.GetTicketDetail(c.Context(), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, history, images)})
}

// GetTicketByNumber GET /tickets/number/:number.
func (h *TicketsHandler) GetTicketByNumber(c *fiber.Ctx) error {
	if _, ok := auth.PersonFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	number := strings.TrimSpace(c.Params("number"))
	if number == "" {
		return apperrors.NewValidationError("ticket number required", nil)
	}
	ticket, history, images, err := h.service.GetTicketDetailByNumber(c.Context(), number)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, history, images)})
}

// AttachImages POST /tickets/:id/images.
func (h *TicketsHandler) AttachImages(c *fiber.Ctx) error {
	person, ok := auth.PersonFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}
	var req dto.AttachImagesRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(req.Images) == 0 {
		return apperrors.NewValidationError("at least one image required", nil)
	}
	inputs := make([]service.ImageInput, 0, len(req.Images))
	for _, img := range req.Images {
		if img.StorageKey == "" || img.FileName == "" {
			return apperrors.NewValidationError("storage_key and file_name required for every image", nil)
		}
		inputs = append(inputs, service.ImageInput{
			StorageKey: img.StorageKey,
			FileName:   img.FileName,
			MimeType:   img.MimeType,
			SizeBytes:  img.SizeBytes,
		})
	}
	images, err := h.service.AttachImages(c.Context(), person.ID, ticketID, inputs)
	if err != nil {
		return err
	}
	items := make([]dto.TicketImageResponse, 0, len(images))
	for i := range images {
		items = append(items, ticketImageResponse(&images[i]))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": items})
}

func parseTicketID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket id", nil)
	}
	return id, nil
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if severityStr := c.Query("severity"); severityStr != "" {
		for _, part := range strings.Split(severityStr, ",") {
			filter.Severities = append(filter.Severities, domain.SeverityLevel(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	if v := parseID(c.Query("reported_by")); v != nil {
		filter.ReportedBy = v
	}
	if v := parseID(c.Query("assigned_to")); v != nil {
		filter.AssignedTo = v
	}
	if v := parseID(c.Query("puno")); v != nil {
		filter.PUNo = v
	}
	if term := strings.TrimSpace(c.Query("search")); term != "" {
		filter.SearchTerm = &term
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, fallback int) int {
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseID(val string) *int64 {
	if val == "" {
		return nil
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

func ticketSummary(t *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:           t.ID,
		TicketNumber: t.TicketNumber,
		Title:        t.Title,
		Status:       t.Status,
		Severity:     t.Severity,
		Priority:     t.Priority,
		ReportedBy:   t.ReportedBy,
		AssignedTo:   t.AssignedTo,
		PUNo:         t.PUNo,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func ticketDetail(t *domain.Ticket, history []domain.StatusHistoryEntry, images []domain.TicketImage) dto.TicketDetailResponse {
	resp := dto.TicketDetailResponse{
		ID:                     t.ID,
		TicketNumber:           t.TicketNumber,
		Title:                  t.Title,
		Description:            t.Description,
		Status:                 t.Status,
		Severity:               t.Severity,
		Priority:               t.Priority,
		ReportedBy:             t.ReportedBy,
		AssignedTo:             t.AssignedTo,
		EscalatedTo:            t.EscalatedTo,
		RejectionReason:        t.RejectionReason,
		EscalationReason:       t.EscalationReason,
		EstimatedDowntimeHours: t.EstimatedDowntimeHours,
		ActualDowntimeHours:    t.ActualDowntimeHours,
		ScheduleFinish:         t.ScheduleFinish,
		ActualFinish:           t.ActualFinish,
		ResolvedAt:             t.ResolvedAt,
		ClosedAt:               t.ClosedAt,
		SatisfactionRating:     t.SatisfactionRating,
		PUNo:                   t.PUNo,
		CreatedAt:              t.CreatedAt,
		UpdatedAt:              t.UpdatedAt,
		History:                make([]dto.StatusHistoryResponse, 0, len(history)),
		Images:                 make([]dto.TicketImageResponse, 0, len(images)),
	}
	for i := range history {
		entry := &history[i]
		resp.History = append(resp.History, dto.StatusHistoryResponse{
			ID:        entry.ID,
			OldStatus: entry.OldStatus,
			NewStatus: entry.NewStatus,
			ChangedBy: entry.ChangedBy,
			Notes:     entry.Notes,
			ChangedAt: entry.ChangedAt,
		})
	}
	for i := range images {
		resp.Images = append(resp.Images, ticketImageResponse(&images[i]))
	}
	return resp
}

func ticketImageResponse(img *domain.TicketImage) dto.TicketImageResponse {
	return dto.TicketImageResponse{
		ID:         img.ID,
		FileName:   img.FileName,
		MimeType:   img.MimeType,
		SizeBytes:  img.SizeBytes,
		UploadedBy: img.UploadedBy,
		UploadedAt: img.UploadedAt,
	}
}
