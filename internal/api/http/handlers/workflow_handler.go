package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/plantops/maintenance-service/internal/api/dto"
	"github.com/plantops/maintenance-service/internal/auth"
	"github.com/plantops/maintenance-service/internal/domain"
	"github.com/plantops/maintenance-service/internal/service"
	apperrors "github.com/plantops/maintenance-service/pkg/util/errorutil"
)

// WorkflowHandler exposes the ticket lifecycle transition endpoints.
type WorkflowHandler struct {
	service *service.WorkflowService
}

// NewWorkflowHandler constructs handler.
func NewWorkflowHandler(workflowService *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{service: workflowService}
}

// Accept POST /tickets/:id/accept.
func (h *WorkflowHandler) Accept(c *fiber.Ctx) error {
	person, ticketID, err := actorAndTicket(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Accept(c.Context(), person.ID, ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transitionResponse(ticket)})
}

// Reject POST /tickets/:id/reject.
func (h *WorkflowHandler) Reject(c *fiber.Ctx) error {
	person, ticketID, err := actorAndTicket(c)
	if err != nil {
		return err
	}
	var req dto.RejectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Reason) == "" {
		return apperrors.NewValidationError("reason required", nil)
	}
	ticket, err := h.service.Reject(c.Context(), person.ID, ticketID, req.Reason, req.EscalateToL3)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transitionResponse(ticket)})
}

// Complete POST /tickets/:id/complete.
func (h *WorkflowHandler) Complete(c *fiber.Ctx) error {
	person, ticketID, err := actorAndTicket(c)
	if err != nil {
		return err
	}
	var req dto.CompleteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ActualDowntimeHours < 0 {
		return apperrors.NewValidationError("actual_downtime_hours must not be negative", nil)
	}
	ticket, err := h.service.Complete(c.Context(), person.ID, ticketID, req.ActualDowntimeHours, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transitionResponse(ticket)})
}

// Escalate POST /tickets/:id/escalate.
func (h *WorkflowHandler) Escalate(c *fiber.Ctx) error {
	person, ticketID, err := actorAndTicket(c)
	if err != nil {
		return err
	}
	var req dto.EscalateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.EscalateTo <= 0 {
		return apperrors.NewValidationError("escalate_to required", nil)
	}
	ticket, err := h.service.Escalate(c.Context(), person.ID, ticketID, req.EscalateTo, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transitionResponse(ticket)})
}

// Close POST /tickets/:id/close.
func (h *WorkflowHandler) Close(c *fiber.Ctx) error {
	person, ticketID, err := actorAndTicket(c)
	if err != nil {
		return err
	}
	var req dto.CloseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Close(c.Context(), person.ID, ticketID, req.Reason, req.SatisfactionRating)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transitionResponse(ticket)})
}

// Reopen POST /tickets/:id/reopen.
func (h *WorkflowHandler) Reopen(c *fiber.Ctx) error {
	person, ticketID, err := actorAndTicket(c)
	if err != nil {
		return err
	}
	var req dto.ReopenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Reopen(c.Context(), person.ID, ticketID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transitionResponse(ticket)})
}

// Reassign POST /tickets/:id/reassign.
func (h *WorkflowHandler) Reassign(c *fiber.Ctx) error {
	person, ticketID, err := actorAndTicket(c)
	if err != nil {
		return err
	}
	var req dto.ReassignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AssignTo <= 0 {
		return apperrors.NewValidationError("assign_to required", nil)
	}
	ticket, err := h.service.Reassign(c.Context(), person.ID, ticketID, req.AssignTo, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transitionResponse(ticket)})
}

func actorAndTicket(c *fiber.Ctx) (*domain.Person, int64, error) {
	person, ok := auth.PersonFromContext(c)
	if !ok {
		return nil, 0, apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseTicketID(c)
	if err != nil {
		return nil, 0, err
	}
	return person, ticketID, nil
}

func transitionResponse(t *domain.Ticket) dto.TransitionResponse {
	return dto.TransitionResponse{
		ID:           t.ID,
		TicketNumber: t.TicketNumber,
		Status:       t.Status,
	}
}
