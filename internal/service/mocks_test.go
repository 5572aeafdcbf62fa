package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/your-org/iam-service/internal/domain/models"
	"github.com/your-org/iam-service/internal/domain/repository/interfaces"
)

// MockRoleRepository implements the slice of interfaces.RoleRepository the
// services exercise; the embedded interface panics on anything else.
type MockRoleRepository struct {
	mock.Mock
	interfaces.RoleRepository
}

func (m *MockRoleRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Role, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Role), args.Error(1)
}

func (m *MockRoleRepository) FindByCode(ctx context.Context, tenantID string, code models.RoleCode) (*models.Role, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Role), args.Error(1)
}

func (m *MockRoleRepository) FindByName(ctx context.Context, tenantID string, name models.RoleName) (*models.Role, error) {
	args := m.Called(ctx, tenantID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Role), args.Error(1)
}

func (m *MockRoleRepository) Save(ctx context.Context, role *models.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *MockRoleRepository) HardDelete(ctx context.Context, tenantID, id string) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// MockPermissionRepository implements the slice of
// interfaces.PermissionRepository the services exercise.
type MockPermissionRepository struct {
	mock.Mock
	interfaces.PermissionRepository
}

func (m *MockPermissionRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Permission, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Permission), args.Error(1)
}

func (m *MockPermissionRepository) FindByCode(ctx context.Context, tenantID string, code models.PermissionCode) (*models.Permission, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Permission), args.Error(1)
}

func (m *MockPermissionRepository) FindByName(ctx context.Context, tenantID string, name models.PermissionName) (*models.Permission, error) {
	args := m.Called(ctx, tenantID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Permission), args.Error(1)
}

func (m *MockPermissionRepository) Save(ctx context.Context, permission *models.Permission) error {
	args := m.Called(ctx, permission)
	return args.Error(0)
}

func (m *MockPermissionRepository) HardDelete(ctx context.Context, tenantID, id string) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// capturingPublisher records published events for assertions.
type capturingPublisher struct {
	mu               sync.Mutex
	roleEvents       []string
	assignmentEvents []models.RoleAssignmentEvent
	permissionEvents []string
}

func (p *capturingPublisher) PublishRoleEvent(eventType string, _ models.RoleEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.roleEvents = append(p.roleEvents, eventType)
}

func (p *capturingPublisher) PublishRoleAssignmentEvent(event models.RoleAssignmentEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.assignmentEvents = append(p.assignmentEvents, event)
}

func (p *capturingPublisher) PublishPermissionEvent(eventType string, _ models.PermissionEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.permissionEvents = append(p.permissionEvents, eventType)
}

// capturingAudit records audit entries for assertions.
type capturingAudit struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

func (a *capturingAudit) RecordEvent(_ context.Context, entry models.AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
}

func (a *capturingAudit) byStatus(status string) []models.AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.AuditEntry
	for _, entry := range a.entries {
		if entry.Status == status {
			out = append(out, entry)
		}
	}
	return out
}
