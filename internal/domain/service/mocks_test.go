package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/your-org/iam-service/internal/domain/models"
	"github.com/your-org/iam-service/internal/domain/repository/interfaces"
)

// MockRoleRepository is a mock implementation of interfaces.RoleRepository.
// Only the methods the services under test exercise are implemented; the
// embedded interface panics on anything else.
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

func (m *MockRoleRepository) FindByIDs(ctx context.Context, tenantID string, ids []string) ([]*models.Role, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Role), args.Error(1)
}

func (m *MockRoleRepository) FindByUserID(ctx context.Context, tenantID, userID string) ([]*models.Role, error) {
	args := m.Called(ctx, tenantID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Role), args.Error(1)
}

func (m *MockRoleRepository) Save(ctx context.Context, role *models.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *MockRoleRepository) HardDelete(ctx context.Context, tenantID, id string) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// MockPermissionRepository is a mock implementation of
// interfaces.PermissionRepository.
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

func (m *MockPermissionRepository) FindByIDs(ctx context.Context, tenantID string, ids []string) ([]*models.Permission, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Permission), args.Error(1)
}

func (m *MockPermissionRepository) Save(ctx context.Context, permission *models.Permission) error {
	args := m.Called(ctx, permission)
	return args.Error(0)
}
