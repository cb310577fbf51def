package service

import (
	"context"

	"github.com/plantops/maintenance-service/internal/domain"
	"github.com/plantops/maintenance-service/internal/repository"
)

// PermissionService resolves an actor's approval level from the grants
// table. It replaces any hardcoded role list: callers inject it and ask,
// they never enumerate privileged user ids themselves.
//
// Location scope on grants is stored and readable but deliberately not
// matched against the ticket's equipment here; the resolver answers level
// questions only.
type PermissionService struct {
	grants repository.ApprovalGrantRepository
}

// NewPermissionService constructs the resolver.
func NewPermissionService(grants repository.ApprovalGrantRepository) *PermissionService {
	return &PermissionService{grants: grants}
}

// LevelFor returns the actor's effective approval level, 0 when the actor
// holds no active grant.
func (s *PermissionService) LevelFor(ctx context.Context, personID int64) (int, error) {
	return s.grants.ActiveLevel(ctx, personID)
}

// HasLevel reports whether the actor's effective level satisfies the
// requirement. Levels compose upward: level 3 satisfies any requirement of
// 3 or below.
func (s *PermissionService) HasLevel(ctx context.Context, personID int64, required int) (bool, error) {
	if required < domain.MinApprovalLevel {
		required = domain.MinApprovalLevel
	}
	level, err := s.grants.ActiveLevel(ctx, personID)
	if err != nil {
		return false, err
	}
	return level >= required, nil
}

// GrantsFor lists the raw grants for one person, scope fields included.
func (s *PermissionService) GrantsFor(ctx context.Context, personID int64) ([]domain.ApprovalGrant, error) {
	return s.grants.ListByPerson(ctx, personID)
}
