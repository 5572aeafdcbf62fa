package models

import (
	"fmt"
	"strings"
	"unicode"

	domainErrors "github.com/your-org/iam-service/internal/domain/errors"
)

// RoleCode is the normalized, per-tenant-unique machine identifier of a role.
type RoleCode string

// PermissionCode is the normalized, per-tenant-unique machine identifier of a
// permission. Dots separate resource segments, e.g. "USERS.READ".
type PermissionCode string

// RoleName is the validated display name of a role.
type RoleName string

// PermissionName is the validated display name of a permission.
type PermissionName string

const (
	roleCodeMinLen       = 3
	roleCodeMaxLen       = 20
	permissionCodeMinLen = 3
	permissionCodeMaxLen = 30
	roleNameMinLen       = 2
	roleNameMaxLen       = 100
	permissionNameMinLen = 2
	permissionNameMaxLen = 50
)

// NormalizeCode trims surrounding whitespace and uppercases. Applying it twice
// yields the same result as applying it once.
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// NormalizeName collapses surrounding whitespace only; case is preserved.
func NormalizeName(raw string) string {
	return strings.TrimSpace(raw)
}

func validateCode(code string, minLen, maxLen int, allowDots bool) []string {
	var violations []string
	if len(code) < minLen || len(code) > maxLen {
		violations = append(violations, fmt.Sprintf("length must be between %d and %d characters", minLen, maxLen))
	}
	if code != "" {
		first := rune(code[0])
		if first < 'A' || first > 'Z' {
			violations = append(violations, "must start with a letter")
		}
	}
	for _, r := range code {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		case r == '.' && allowDots:
		default:
			violations = append(violations, fmt.Sprintf("contains invalid character %q", r))
		}
	}
	if strings.Contains(code, "__") {
		violations = append(violations, "must not contain consecutive underscores")
	}
	if strings.HasSuffix(code, "_") {
		violations = append(violations, "must not end with an underscore")
	}
	return violations
}

func validateName(name string, minLen, maxLen int) []string {
	var violations []string
	runes := []rune(name)
	if len(runes) < minLen || len(runes) > maxLen {
		violations = append(violations, fmt.Sprintf("length must be between %d and %d characters", minLen, maxLen))
	}
	if len(runes) > 0 && unicode.IsDigit(runes[0]) {
		violations = append(violations, "must not start with a digit")
	}
	for _, r := range runes {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
		case r == ' ', r == '_', r == '-', r == '.':
		default:
			violations = append(violations, fmt.Sprintf("contains invalid character %q", r))
		}
	}
	return violations
}

// NewRoleCode normalizes and validates a role code. All violated constraints
// are reported together.
func NewRoleCode(raw string) (RoleCode, error) {
	code := NormalizeCode(raw)
	if violations := validateCode(code, roleCodeMinLen, roleCodeMaxLen, false); len(violations) > 0 {
		return "", domainErrors.NewValidationError("role code", violations)
	}
	return RoleCode(code), nil
}

func (c RoleCode) String() string { return string(c) }

// NewPermissionCode normalizes and validates a permission code.
func NewPermissionCode(raw string) (PermissionCode, error) {
	code := NormalizeCode(raw)
	if violations := validateCode(code, permissionCodeMinLen, permissionCodeMaxLen, true); len(violations) > 0 {
		return "", domainErrors.NewValidationError("permission code", violations)
	}
	return PermissionCode(code), nil
}

func (c PermissionCode) String() string { return string(c) }

// NewRoleName validates a role display name.
func NewRoleName(raw string) (RoleName, error) {
	name := NormalizeName(raw)
	if violations := validateName(name, roleNameMinLen, roleNameMaxLen); len(violations) > 0 {
		return "", domainErrors.NewValidationError("role name", violations)
	}
	return RoleName(name), nil
}

func (n RoleName) String() string { return string(n) }

// NewPermissionName validates a permission display name.
func NewPermissionName(raw string) (PermissionName, error) {
	name := NormalizeName(raw)
	if violations := validateName(name, permissionNameMinLen, permissionNameMaxLen); len(violations) > 0 {
		return "", domainErrors.NewValidationError("permission name", violations)
	}
	return PermissionName(name), nil
}

func (n PermissionName) String() string { return string(n) }
