package models

import (
	"fmt"

	domainErrors "github.com/your-org/iam-service/internal/domain/errors"
)

// RolePriority breaks ties when multiple roles grant conflicting access.
// A smaller numeric value means higher precedence.
type RolePriority int

const (
	MinRolePriority     RolePriority = 1
	MaxRolePriority     RolePriority = 1000
	DefaultRolePriority RolePriority = 100
)

// PriorityBand names the precedence range a priority falls into. Bands are
// used for display and for default assignment only.
type PriorityBand string

const (
	PriorityBandSystem       PriorityBand = "system"
	PriorityBandTenant       PriorityBand = "tenant"
	PriorityBandOrganization PriorityBand = "organization"
	PriorityBandUser         PriorityBand = "user"
	PriorityBandGuest        PriorityBand = "guest"
)

// NewRolePriority validates a priority value.
func NewRolePriority(value int) (RolePriority, error) {
	if value < int(MinRolePriority) || value > int(MaxRolePriority) {
		return 0, domainErrors.NewValidationError("role priority", []string{
			fmt.Sprintf("must be between %d and %d", MinRolePriority, MaxRolePriority),
		})
	}
	return RolePriority(value), nil
}

func (p RolePriority) Int() int { return int(p) }

// IsHigherThan reports whether p takes precedence over other.
func (p RolePriority) IsHigherThan(other RolePriority) bool { return p < other }

// IsLowerThan reports whether other takes precedence over p.
func (p RolePriority) IsLowerThan(other RolePriority) bool { return p > other }

// Band returns the named precedence band for display.
func (p RolePriority) Band() PriorityBand {
	switch {
	case p <= 1:
		return PriorityBandSystem
	case p <= 10:
		return PriorityBandTenant
	case p <= 50:
		return PriorityBandOrganization
	case p <= 100:
		return PriorityBandUser
	default:
		return PriorityBandGuest
	}
}
