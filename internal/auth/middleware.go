package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/plantops/maintenance-service/internal/domain"
	"github.com/plantops/maintenance-service/internal/repository"
	apperrors "github.com/plantops/maintenance-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// AuthMiddleware validates bearer tokens and loads the acting person.
type AuthMiddleware struct {
	tokens *TokenManager
	people repository.PersonRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, people repository.PersonRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, people: people}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	person, err := m.people.GetByID(c.Context(), claims.PersonID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("person not found")
		}
		return apperrors.MapError(err)
	}
	if !person.IsActive {
		return apperrors.NewUnauthorized("account disabled")
	}

	c.Locals(principalKey, person)
	return c.Next()
}

// PersonFromContext retrieves the authenticated person.
func PersonFromContext(c *fiber.Ctx) (*domain.Person, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	person, ok := val.(*domain.Person)
	return person, ok
}
