package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainErrors "github.com/your-org/iam-service/internal/domain/errors"
	"github.com/your-org/iam-service/internal/domain/models"
	domainService "github.com/your-org/iam-service/internal/domain/service"
)

const (
	testTenant = "3f0b54f2-1f2c-4a18-9e43-0d6f5cbb6a01"
	testActor  = "actor-1"
)

type roleServiceFixture struct {
	roleRepo  *MockRoleRepository
	permRepo  *MockPermissionRepository
	publisher *capturingPublisher
	audit     *capturingAudit
	service   *RoleService
}

func newRoleServiceFixture() *roleServiceFixture {
	roleRepo := new(MockRoleRepository)
	permRepo := new(MockPermissionRepository)
	publisher := &capturingPublisher{}
	audit := &capturingAudit{}
	validation := domainService.NewValidationService(roleRepo, permRepo)
	svc := NewRoleService(roleRepo, permRepo, validation, publisher, audit, zap.NewNop())
	return &roleServiceFixture{
		roleRepo:  roleRepo,
		permRepo:  permRepo,
		publisher: publisher,
		audit:     audit,
		service:   svc,
	}
}

func storedRole(t *testing.T, code, name string) *models.Role {
	t.Helper()
	roleName, err := models.NewRoleName(name)
	require.NoError(t, err)
	roleCode, err := models.NewRoleCode(code)
	require.NoError(t, err)
	return models.NewRole(testTenant, roleName, roleCode, models.DefaultRolePriority)
}

func TestRoleServiceCreate(t *testing.T) {
	t.Run("creates with normalized code", func(t *testing.T) {
		f := newRoleServiceFixture()
		f.roleRepo.On("FindByCode", mock.Anything, testTenant, models.RoleCode("ADMIN")).
			Return(nil, domainErrors.ErrRoleNotFound)
		f.roleRepo.On("FindByName", mock.Anything, testTenant, mock.Anything).
			Return(nil, domainErrors.ErrRoleNotFound)
		f.roleRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		role, err := f.service.Create(context.Background(), models.CreateRoleRequest{
			TenantID: testTenant,
			Name:     "Administrator",
			Code:     "admin",
		}, testActor)
		require.NoError(t, err)

		assert.Equal(t, "ADMIN", role.Code.String())
		assert.Equal(t, models.RoleStatusActive, role.Status)
		assert.Equal(t, models.DefaultRolePriority, role.Priority)
		assert.Equal(t, []string{models.EventRoleCreated}, f.publisher.roleEvents)
		require.Len(t, f.audit.byStatus(models.AuditStatusSuccess), 1)
	})

	t.Run("case variant of existing code conflicts", func(t *testing.T) {
		f := newRoleServiceFixture()
		existing := storedRole(t, "ADMIN", "Administrator")
		f.roleRepo.On("FindByCode", mock.Anything, testTenant, models.RoleCode("ADMIN")).
			Return(existing, nil)

		_, err := f.service.Create(context.Background(), models.CreateRoleRequest{
			TenantID: testTenant,
			Name:     "Second Admin",
			Code:     "Admin",
		}, testActor)
		require.Error(t, err)
		assert.ErrorIs(t, err, domainErrors.ErrRoleCodeExists)
		assert.Empty(t, f.publisher.roleEvents, "nothing published on conflict")
		require.Len(t, f.audit.byStatus(models.AuditStatusFailure), 1)
	})

	t.Run("missing actor rejected", func(t *testing.T) {
		f := newRoleServiceFixture()
		_, err := f.service.Create(context.Background(), models.CreateRoleRequest{
			TenantID: testTenant,
			Name:     "Administrator",
			Code:     "ADMIN",
		}, "")
		assert.ErrorIs(t, err, domainErrors.ErrActorRequired)
	})

	t.Run("invalid request aggregates violations", func(t *testing.T) {
		f := newRoleServiceFixture()
		_, err := f.service.Create(context.Background(), models.CreateRoleRequest{
			TenantID: "not-a-uuid",
			Name:     "A",
			Code:     "x",
		}, testActor)
		require.Error(t, err)
		verr, ok := domainErrors.AsValidationError(err)
		require.True(t, ok)
		assert.GreaterOrEqual(t, len(verr.Violations), 3)
	})

	t.Run("explicit priority honored", func(t *testing.T) {
		f := newRoleServiceFixture()
		f.roleRepo.On("FindByCode", mock.Anything, testTenant, mock.Anything).
			Return(nil, domainErrors.ErrRoleNotFound)
		f.roleRepo.On("FindByName", mock.Anything, testTenant, mock.Anything).
			Return(nil, domainErrors.ErrRoleNotFound)
		f.roleRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		priority := 5
		role, err := f.service.Create(context.Background(), models.CreateRoleRequest{
			TenantID: testTenant,
			Name:     "Tenant Owner",
			Code:     "TENANT_OWNER",
			Priority: &priority,
		}, testActor)
		require.NoError(t, err)
		assert.Equal(t, 5, role.Priority.Int())
	})
}

func TestRoleServiceTransitions(t *testing.T) {
	t.Run("suspend active role", func(t *testing.T) {
		f := newRoleServiceFixture()
		role := storedRole(t, "OPS", "Operators")
		f.roleRepo.On("FindByID", mock.Anything, testTenant, role.ID).Return(role, nil)
		f.roleRepo.On("Save", mock.Anything, role).Return(nil)

		updated, err := f.service.Suspend(context.Background(), testTenant, role.ID, testActor)
		require.NoError(t, err)
		assert.Equal(t, models.RoleStatusSuspended, updated.Status)
		assert.Equal(t, []string{models.EventRoleStatusChanged}, f.publisher.roleEvents)
	})

	t.Run("invalid transition does not save", func(t *testing.T) {
		f := newRoleServiceFixture()
		role := storedRole(t, "OPS", "Operators")
		f.roleRepo.On("FindByID", mock.Anything, testTenant, role.ID).Return(role, nil)

		_, err := f.service.Activate(context.Background(), testTenant, role.ID, testActor)
		require.Error(t, err)
		assert.True(t, domainErrors.IsInvalidTransition(err))
		f.roleRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		require.Len(t, f.audit.byStatus(models.AuditStatusFailure), 1)
	})

	t.Run("delete publishes deleted event", func(t *testing.T) {
		f := newRoleServiceFixture()
		role := storedRole(t, "OPS", "Operators")
		f.roleRepo.On("FindByID", mock.Anything, testTenant, role.ID).Return(role, nil)
		f.roleRepo.On("Save", mock.Anything, role).Return(nil)

		deleted, err := f.service.Delete(context.Background(), testTenant, role.ID, testActor)
		require.NoError(t, err)
		assert.Equal(t, models.RoleStatusDeleted, deleted.Status)
		assert.Equal(t, []string{models.EventRoleDeleted}, f.publisher.roleEvents)
	})

	t.Run("restore lands in suspended", func(t *testing.T) {
		f := newRoleServiceFixture()
		role := storedRole(t, "OPS", "Operators")
		require.NoError(t, role.MarkAsDeleted())
		f.roleRepo.On("FindByID", mock.Anything, testTenant, role.ID).Return(role, nil)
		f.roleRepo.On("Save", mock.Anything, role).Return(nil)

		restored, err := f.service.Restore(context.Background(), testTenant, role.ID, testActor)
		require.NoError(t, err)
		assert.Equal(t, models.RoleStatusSuspended, restored.Status)
	})
}

func TestRoleServiceHardDeleteProtectsSystemRoles(t *testing.T) {
	f := newRoleServiceFixture()
	role := storedRole(t, "ROOT", "Root")
	role.IsSystemRole = true
	f.roleRepo.On("FindByID", mock.Anything, testTenant, role.ID).Return(role, nil)

	err := f.service.HardDelete(context.Background(), testTenant, role.ID, testActor)
	require.Error(t, err)
	assert.True(t, domainErrors.IsForbidden(err))
	f.roleRepo.AssertNotCalled(t, "HardDelete", mock.Anything, mock.Anything, mock.Anything)
}

func TestRoleServiceAssignPermission(t *testing.T) {
	f := newRoleServiceFixture()
	role := storedRole(t, "EDITOR", "Editors")
	permName, _ := models.NewPermissionName("Read docs")
	permCode, _ := models.NewPermissionCode("DOCS.READ")
	permission, err := models.NewPermission(testTenant, permName, permCode, models.PermissionTypeAPI, models.PermissionActionRead)
	require.NoError(t, err)

	f.roleRepo.On("FindByID", mock.Anything, testTenant, role.ID).Return(role, nil)
	f.permRepo.On("FindByID", mock.Anything, testTenant, permission.ID).Return(permission, nil)
	f.roleRepo.On("Save", mock.Anything, role).Return(nil)
	f.permRepo.On("Save", mock.Anything, permission).Return(nil)

	require.NoError(t, f.service.AssignPermission(context.Background(), testTenant, role.ID, permission.ID, testActor))

	assert.True(t, role.PermissionIDs.Contains(permission.ID))
	assert.True(t, permission.RoleIDs.Contains(role.ID), "reverse link mirrored")
	require.Len(t, f.publisher.assignmentEvents, 1)
	assert.Equal(t, "permission", f.publisher.assignmentEvents[0].Kind)
	assert.True(t, f.publisher.assignmentEvents[0].Added)

	// Second grant is a no-op: no extra save, no extra event.
	require.NoError(t, f.service.AssignPermission(context.Background(), testTenant, role.ID, permission.ID, testActor))
	assert.Len(t, f.publisher.assignmentEvents, 1)
}

func TestRoleServiceAssignUserCap(t *testing.T) {
	f := newRoleServiceFixture()
	role := storedRole(t, "LIMITED", "Limited Seats")
	maxUsers := 1
	role.MaxUsers = &maxUsers
	require.NoError(t, role.AssignUser("existing-user"))

	f.roleRepo.On("FindByID", mock.Anything, testTenant, role.ID).Return(role, nil)

	err := f.service.AssignUser(context.Background(), testTenant, role.ID, "new-user", testActor)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainErrors.ErrRoleUserLimit)
	f.roleRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRoleServiceSetInheritance(t *testing.T) {
	t.Run("links both sides", func(t *testing.T) {
		f := newRoleServiceFixture()
		parent := storedRole(t, "PARENT", "Parent")
		child := storedRole(t, "CHILD", "Child")
		f.roleRepo.On("FindByID", mock.Anything, testTenant, parent.ID).Return(parent, nil)
		f.roleRepo.On("FindByID", mock.Anything, testTenant, child.ID).Return(child, nil)
		f.roleRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		require.NoError(t, f.service.SetInheritance(context.Background(), testTenant, child.ID, parent.ID, testActor))

		require.NotNil(t, child.ParentRoleID)
		assert.Equal(t, parent.ID, *child.ParentRoleID)
		assert.True(t, parent.ChildRoleIDs.Contains(child.ID))
	})

	t.Run("self link rejected", func(t *testing.T) {
		f := newRoleServiceFixture()
		role := storedRole(t, "SOLO", "Solo")

		err := f.service.SetInheritance(context.Background(), testTenant, role.ID, role.ID, testActor)
		require.Error(t, err)
		assert.ErrorIs(t, err, domainErrors.ErrInheritanceCycle)
	})

	t.Run("cycle through ancestors rejected", func(t *testing.T) {
		f := newRoleServiceFixture()
		grandparent := storedRole(t, "GRANDPARENT", "Grandparent")
		parent := storedRole(t, "PARENT", "Parent")
		child := storedRole(t, "CHILD", "Child")
		parent.SetInheritance(grandparent.ID)
		child.SetInheritance(parent.ID)

		for _, role := range []*models.Role{grandparent, parent, child} {
			f.roleRepo.On("FindByID", mock.Anything, testTenant, role.ID).Return(role, nil)
		}

		// Linking the grandparent under the child would close the loop.
		err := f.service.SetInheritance(context.Background(), testTenant, grandparent.ID, child.ID, testActor)
		require.Error(t, err)
		assert.ErrorIs(t, err, domainErrors.ErrInheritanceCycle)
		f.roleRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("cross tenant rejected", func(t *testing.T) {
		f := newRoleServiceFixture()
		parent := storedRole(t, "PARENT", "Parent")
		parent.TenantID = "other-tenant"
		child := storedRole(t, "CHILD", "Child")
		f.roleRepo.On("FindByID", mock.Anything, testTenant, parent.ID).Return(parent, nil)
		f.roleRepo.On("FindByID", mock.Anything, testTenant, child.ID).Return(child, nil)

		err := f.service.SetInheritance(context.Background(), testTenant, child.ID, parent.ID, testActor)
		require.Error(t, err)
		assert.ErrorIs(t, err, domainErrors.ErrTenantMismatch)
	})
}

func TestRoleServiceBatchDelete(t *testing.T) {
	f := newRoleServiceFixture()

	deletable := storedRole(t, "DELETABLE", "Deletable")
	system := storedRole(t, "SYSTEM", "System Role")
	system.IsSystemRole = true

	f.roleRepo.On("FindByID", mock.Anything, testTenant, deletable.ID).Return(deletable, nil)
	f.roleRepo.On("FindByID", mock.Anything, testTenant, system.ID).Return(system, nil)
	f.roleRepo.On("FindByID", mock.Anything, testTenant, "missing-id").
		Return(nil, domainErrors.ErrRoleNotFound)
	f.roleRepo.On("Save", mock.Anything, deletable).Return(nil)

	ids := []string{deletable.ID, system.ID, "missing-id"}
	result, err := f.service.BatchDelete(context.Background(), testTenant, ids, testActor)
	require.NoError(t, err)

	// Every input id lands in exactly one list.
	assert.Len(t, result.Success, 1)
	assert.Len(t, result.Failed, 2)
	assert.Equal(t, len(ids), len(result.Success)+len(result.Failed))
	assert.Equal(t, []string{deletable.ID}, result.Success)

	byID := make(map[string]models.BatchFailure, len(result.Failed))
	for _, failure := range result.Failed {
		byID[failure.ID] = failure
	}
	assert.Equal(t, domainErrors.CodeForbidden, byID[system.ID].Code)
	assert.Equal(t, domainErrors.CodeNotFound, byID["missing-id"].Code)
	assert.NotEmpty(t, byID[system.ID].Reason)
}

func TestRoleServiceUpdate(t *testing.T) {
	t.Run("renames with uniqueness check", func(t *testing.T) {
		f := newRoleServiceFixture()
		role := storedRole(t, "EDITOR", "Editors")
		f.roleRepo.On("FindByID", mock.Anything, testTenant, role.ID).Return(role, nil)
		f.roleRepo.On("FindByName", mock.Anything, testTenant, models.RoleName("Writers")).
			Return(nil, domainErrors.ErrRoleNotFound)
		f.roleRepo.On("Save", mock.Anything, role).Return(nil)

		newName := "Writers"
		updated, err := f.service.Update(context.Background(), testTenant, role.ID, models.UpdateRoleRequest{Name: &newName}, testActor)
		require.NoError(t, err)
		assert.Equal(t, "Writers", updated.Name.String())
		assert.Equal(t, []string{models.EventRoleUpdated}, f.publisher.roleEvents)
	})

	t.Run("no-op update skips save", func(t *testing.T) {
		f := newRoleServiceFixture()
		role := storedRole(t, "EDITOR", "Editors")
		f.roleRepo.On("FindByID", mock.Anything, testTenant, role.ID).Return(role, nil)

		_, err := f.service.Update(context.Background(), testTenant, role.ID, models.UpdateRoleRequest{}, testActor)
		require.NoError(t, err)
		f.roleRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		assert.Empty(t, f.publisher.roleEvents)
	})
}
