package models

import (
	"fmt"
	"time"

	domainErrors "github.com/your-org/iam-service/internal/domain/errors"
)

// ConditionEffect marks a permission grant as an explicit allow or deny. The
// resolver uses it to detect conflicts between roles; absent an effect the
// grant is a plain allow.
type ConditionEffect string

const (
	ConditionEffectAllow ConditionEffect = "allow"
	ConditionEffectDeny  ConditionEffect = "deny"
)

// TimeRangeCondition restricts a grant to a window of validity.
type TimeRangeCondition struct {
	NotBefore *time.Time `json:"not_before,omitempty"`
	NotAfter  *time.Time `json:"not_after,omitempty"`
}

// Conditions is the schema-validated row/attribute scoping attached to a
// permission. It replaces the open-ended map of the persisted shape so the
// resolver can match on known condition kinds.
type Conditions struct {
	Effect     ConditionEffect     `json:"effect,omitempty"`
	TimeRange  *TimeRangeCondition `json:"time_range,omitempty"`
	IPRanges   []string            `json:"ip_ranges,omitempty"`
	Attributes map[string]string   `json:"attributes,omitempty"`
}

// Validate checks the condition shape; all violations are reported together.
func (c *Conditions) Validate() error {
	if c == nil {
		return nil
	}
	var violations []string
	switch c.Effect {
	case "", ConditionEffectAllow, ConditionEffectDeny:
	default:
		violations = append(violations, fmt.Sprintf("unknown effect %q", c.Effect))
	}
	if tr := c.TimeRange; tr != nil && tr.NotBefore != nil && tr.NotAfter != nil &&
		tr.NotAfter.Before(*tr.NotBefore) {
		violations = append(violations, "time range not_after precedes not_before")
	}
	for _, cidr := range c.IPRanges {
		if cidr == "" {
			violations = append(violations, "empty ip range entry")
		}
	}
	if len(violations) > 0 {
		return domainErrors.NewValidationError("permission conditions", violations)
	}
	return nil
}

// IsDeny reports whether the grant carries an explicit deny effect.
func (c *Conditions) IsDeny() bool {
	return c != nil && c.Effect == ConditionEffectDeny
}
