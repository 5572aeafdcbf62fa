package interfaces

// Page is a 1-based pagination request.
type Page struct {
	Number int
	Limit  int
}

// Sort names a column and direction for paginated listings.
type Sort struct {
	Field string
	Desc  bool
}

// RoleFilter narrows paginated role listings. Nil fields are ignored.
type RoleFilter struct {
	Status         *string
	OrganizationID *string
	IsSystemRole   *bool
	IsDefaultRole  *bool
	Search         string
}

// PermissionFilter narrows paginated permission listings. Nil fields are ignored.
type PermissionFilter struct {
	Status         *string
	OrganizationID *string
	Type           *string
	Action         *string
	Module         *string
	Search         string
}
