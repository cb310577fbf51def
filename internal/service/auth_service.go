package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/plantops/maintenance-service/internal/auth"
	"github.com/plantops/maintenance-service/internal/config"
	"github.com/plantops/maintenance-service/internal/domain"
	"github.com/plantops/maintenance-service/internal/repository"
	apperrors "github.com/plantops/maintenance-service/pkg/util/errorutil"
)

// AuthService coordinates login. Account provisioning is an administrative
// concern outside this service.
type AuthService struct {
	people     repository.PersonRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, people repository.PersonRepository) *AuthService {
	return &AuthService{
		people:     people,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Login authenticates a person and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Person, string, time.Time, error) {
	person, err := s.people.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if !person.IsActive {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("account disabled")
	}
	if err := auth.ComparePassword(person.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(person.ID)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return person, token, exp, nil
}

// ChangePassword rotates a person's password after verifying the current
// one.
func (s *AuthService) ChangePassword(ctx context.Context, personID int64, currentPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return apperrors.NewValidationError("new password must be at least 8 characters", nil)
	}
	person, err := s.people.GetByID(ctx, personID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("person not found")
		}
		return apperrors.MapError(err)
	}
	if err := auth.ComparePassword(person.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := s.people.UpdatePassword(ctx, personID, hash); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
