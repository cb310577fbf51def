package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/plantops/maintenance-service/internal/api/dto"
	"github.com/plantops/maintenance-service/internal/auth"
	"github.com/plantops/maintenance-service/internal/service"
	apperrors "github.com/plantops/maintenance-service/pkg/util/errorutil"
)

// AuthHandler exposes login, password change and the principal profile.
type AuthHandler struct {
	service     *service.AuthService
	permissions *service.PermissionService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, permissions *service.PermissionService) *AuthHandler {
	return &AuthHandler{service: authService, permissions: permissions}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}
	person, token, expiresAt, err := h.service.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		Token:    token,
		PersonID: person.ID,
		Name:     person.Name,
	}, "expires_at": expiresAt})
}

// ChangePassword POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	person, ok := auth.PersonFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("current and new password required", nil)
	}
	if err := h.service.ChangePassword(c.Context(), person.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_changed"}})
}

// Me GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	person, ok := auth.PersonFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	level, err := h.permissions.LevelFor(c.Context(), person.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	grants, err := h.permissions.GrantsFor(c.Context(), person.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	resp := dto.ProfileResponse{
		PersonID:      person.ID,
		Name:          person.Name,
		Email:         person.Email,
		ApprovalLevel: level,
		Grants:        make([]dto.ApprovalGrantResponse, 0, len(grants)),
	}
	for _, grant := range grants {
		resp.Grants = append(resp.Grants, dto.ApprovalGrantResponse{
			ApprovalLevel: grant.ApprovalLevel,
			PlantCode:     grant.PlantCode,
			AreaCode:      grant.AreaCode,
			LineCode:      grant.LineCode,
			MachineCode:   grant.MachineCode,
			IsActive:      grant.IsActive,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}
