package domain

import "time"

// Approval level bounds. Levels compose upward: holding level 3 satisfies
// any requirement of 3 or below.
const (
	MinApprovalLevel = 1
	MaxApprovalLevel = 4
)

// ApprovalGrant assigns an approval level to a person, optionally scoped to
// a slice of the plant hierarchy. A nil scope field means the grant applies
// to the broader unit above it. Narrow-over-broad precedence between
// overlapping grants is not enforced; the resolver uses the highest active
// level regardless of scope.
type ApprovalGrant struct {
	ID            int64
	PersonID      int64
	ApprovalLevel int
	PlantCode     *string
	AreaCode      *string
	LineCode      *string
	MachineCode   *string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
