package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainErrors "github.com/your-org/iam-service/internal/domain/errors"
	"github.com/your-org/iam-service/internal/domain/models"
	domainService "github.com/your-org/iam-service/internal/domain/service"
)

type permissionServiceFixture struct {
	roleRepo  *MockRoleRepository
	permRepo  *MockPermissionRepository
	publisher *capturingPublisher
	audit     *capturingAudit
	service   *PermissionService
}

func newPermissionServiceFixture() *permissionServiceFixture {
	roleRepo := new(MockRoleRepository)
	permRepo := new(MockPermissionRepository)
	publisher := &capturingPublisher{}
	audit := &capturingAudit{}
	validation := domainService.NewValidationService(roleRepo, permRepo)
	svc := NewPermissionService(permRepo, roleRepo, validation, publisher, audit, zap.NewNop())
	return &permissionServiceFixture{
		roleRepo:  roleRepo,
		permRepo:  permRepo,
		publisher: publisher,
		audit:     audit,
		service:   svc,
	}
}

func storedPermission(t *testing.T, code, name string) *models.Permission {
	t.Helper()
	permName, err := models.NewPermissionName(name)
	require.NoError(t, err)
	permCode, err := models.NewPermissionCode(code)
	require.NoError(t, err)
	permission, err := models.NewPermission(testTenant, permName, permCode, models.PermissionTypeAPI, models.PermissionActionRead)
	require.NoError(t, err)
	return permission
}

func TestPermissionServiceCreate(t *testing.T) {
	t.Run("creates with normalized code and conditions", func(t *testing.T) {
		f := newPermissionServiceFixture()
		f.permRepo.On("FindByCode", mock.Anything, testTenant, models.PermissionCode("DOCS.EXPORT")).
			Return(nil, domainErrors.ErrPermissionNotFound)
		f.permRepo.On("FindByName", mock.Anything, testTenant, mock.Anything).
			Return(nil, domainErrors.ErrPermissionNotFound)
		f.permRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		permission, err := f.service.Create(context.Background(), models.CreatePermissionRequest{
			TenantID: testTenant,
			Name:     "Export docs",
			Code:     "docs.export",
			Type:     "api",
			Action:   "export",
			Module:   "documents",
			Tags:     []string{"export", "docs"},
			Conditions: &models.Conditions{
				Effect:     models.ConditionEffectAllow,
				IPRanges:   []string{"10.0.0.0/8"},
				Attributes: map[string]string{"department": "finance"},
			},
		}, testActor)
		require.NoError(t, err)

		assert.Equal(t, "DOCS.EXPORT", permission.Code.String())
		assert.Equal(t, models.PermissionStatusActive, permission.Status)
		assert.Equal(t, models.PermissionTypeAPI, permission.Type)
		assert.Equal(t, models.PermissionActionExport, permission.Action)
		assert.True(t, permission.Tags.Contains("docs"))
		require.NotNil(t, permission.Conditions)
		assert.Equal(t, models.ConditionEffectAllow, permission.Conditions.Effect)
		assert.Equal(t, []string{models.EventPermissionCreated}, f.publisher.permissionEvents)
	})

	t.Run("unknown type rejected by request validation", func(t *testing.T) {
		f := newPermissionServiceFixture()
		_, err := f.service.Create(context.Background(), models.CreatePermissionRequest{
			TenantID: testTenant,
			Name:     "Export docs",
			Code:     "DOCS.EXPORT",
			Type:     "webhook",
			Action:   "export",
		}, testActor)
		require.Error(t, err)
		_, ok := domainErrors.AsValidationError(err)
		assert.True(t, ok)
		f.permRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("duplicate code conflicts", func(t *testing.T) {
		f := newPermissionServiceFixture()
		existing := storedPermission(t, "DOCS.EXPORT", "Export docs")
		f.permRepo.On("FindByCode", mock.Anything, testTenant, models.PermissionCode("DOCS.EXPORT")).
			Return(existing, nil)

		_, err := f.service.Create(context.Background(), models.CreatePermissionRequest{
			TenantID: testTenant,
			Name:     "Export documents",
			Code:     "docs.export",
			Type:     "api",
			Action:   "export",
		}, testActor)
		require.Error(t, err)
		assert.ErrorIs(t, err, domainErrors.ErrPermissionCodeExists)
		require.Len(t, f.audit.byStatus(models.AuditStatusFailure), 1)
	})
}

func TestPermissionServiceUpdate(t *testing.T) {
	t.Run("partial update touches only provided fields", func(t *testing.T) {
		f := newPermissionServiceFixture()
		permission := storedPermission(t, "DOCS.READ", "Read docs")
		permission.Module = "documents"
		f.permRepo.On("FindByID", mock.Anything, testTenant, permission.ID).Return(permission, nil)
		f.permRepo.On("Save", mock.Anything, permission).Return(nil)

		description := "Read access to document bodies"
		updated, err := f.service.Update(context.Background(), testTenant, permission.ID, models.UpdatePermissionRequest{
			Description: &description,
			Tags:        []string{"docs"},
		}, testActor)
		require.NoError(t, err)

		assert.Equal(t, description, updated.Description)
		assert.True(t, updated.Tags.Contains("docs"))
		assert.Equal(t, "documents", updated.Module, "untouched field preserved")
		assert.Equal(t, []string{models.EventPermissionUpdated}, f.publisher.permissionEvents)
	})

	t.Run("no-op update skips save", func(t *testing.T) {
		f := newPermissionServiceFixture()
		permission := storedPermission(t, "DOCS.READ", "Read docs")
		f.permRepo.On("FindByID", mock.Anything, testTenant, permission.ID).Return(permission, nil)

		_, err := f.service.Update(context.Background(), testTenant, permission.ID, models.UpdatePermissionRequest{}, testActor)
		require.NoError(t, err)
		f.permRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		assert.Empty(t, f.publisher.permissionEvents)
	})
}

func TestPermissionServiceTransitions(t *testing.T) {
	t.Run("deactivate then restore cycle", func(t *testing.T) {
		f := newPermissionServiceFixture()
		permission := storedPermission(t, "DOCS.READ", "Read docs")
		f.permRepo.On("FindByID", mock.Anything, testTenant, permission.ID).Return(permission, nil)
		f.permRepo.On("Save", mock.Anything, permission).Return(nil)

		deactivated, err := f.service.Deactivate(context.Background(), testTenant, permission.ID, testActor)
		require.NoError(t, err)
		assert.Equal(t, models.PermissionStatusInactive, deactivated.Status)

		deleted, err := f.service.Delete(context.Background(), testTenant, permission.ID, testActor)
		require.NoError(t, err)
		assert.Equal(t, models.PermissionStatusDeleted, deleted.Status)

		restored, err := f.service.Restore(context.Background(), testTenant, permission.ID, testActor)
		require.NoError(t, err)
		assert.Equal(t, models.PermissionStatusInactive, restored.Status, "restore lands in inactive, not active")

		assert.Equal(t, []string{
			models.EventPermissionStatusChanged,
			models.EventPermissionDeleted,
			models.EventPermissionStatusChanged,
		}, f.publisher.permissionEvents)
	})

	t.Run("invalid transition does not save", func(t *testing.T) {
		f := newPermissionServiceFixture()
		permission := storedPermission(t, "DOCS.READ", "Read docs")
		f.permRepo.On("FindByID", mock.Anything, testTenant, permission.ID).Return(permission, nil)

		_, err := f.service.Activate(context.Background(), testTenant, permission.ID, testActor)
		require.Error(t, err)
		assert.True(t, domainErrors.IsInvalidTransition(err))
		f.permRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestPermissionServiceHardDelete(t *testing.T) {
	t.Run("unlinks grants from every role first", func(t *testing.T) {
		f := newPermissionServiceFixture()
		permission := storedPermission(t, "DOCS.READ", "Read docs")

		roleA := storedRole(t, "ROLE_A", "Role A")
		roleB := storedRole(t, "ROLE_B", "Role B")
		for _, role := range []*models.Role{roleA, roleB} {
			role.AssignPermission(permission.ID)
			permission.AttachRole(role.ID)
		}

		f.permRepo.On("FindByID", mock.Anything, testTenant, permission.ID).Return(permission, nil)
		f.roleRepo.On("FindByID", mock.Anything, testTenant, roleA.ID).Return(roleA, nil)
		f.roleRepo.On("FindByID", mock.Anything, testTenant, roleB.ID).Return(roleB, nil)
		f.roleRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.permRepo.On("HardDelete", mock.Anything, testTenant, permission.ID).Return(nil)

		require.NoError(t, f.service.HardDelete(context.Background(), testTenant, permission.ID, testActor))

		assert.False(t, roleA.PermissionIDs.Contains(permission.ID))
		assert.False(t, roleB.PermissionIDs.Contains(permission.ID))
		f.roleRepo.AssertNumberOfCalls(t, "Save", 2)
		assert.Equal(t, []string{models.EventPermissionDeleted}, f.publisher.permissionEvents)
	})

	t.Run("tolerates already deleted role", func(t *testing.T) {
		f := newPermissionServiceFixture()
		permission := storedPermission(t, "DOCS.READ", "Read docs")
		permission.AttachRole("gone-role")

		f.permRepo.On("FindByID", mock.Anything, testTenant, permission.ID).Return(permission, nil)
		f.roleRepo.On("FindByID", mock.Anything, testTenant, "gone-role").
			Return(nil, domainErrors.ErrRoleNotFound)
		f.permRepo.On("HardDelete", mock.Anything, testTenant, permission.ID).Return(nil)

		require.NoError(t, f.service.HardDelete(context.Background(), testTenant, permission.ID, testActor))
	})

	t.Run("system permission protected", func(t *testing.T) {
		f := newPermissionServiceFixture()
		permission := storedPermission(t, "SYSTEM.MANAGE", "Manage system")
		permission.IsSystemPermission = true
		f.permRepo.On("FindByID", mock.Anything, testTenant, permission.ID).Return(permission, nil)

		err := f.service.HardDelete(context.Background(), testTenant, permission.ID, testActor)
		require.Error(t, err)
		assert.True(t, domainErrors.IsForbidden(err))
		f.permRepo.AssertNotCalled(t, "HardDelete", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPermissionServiceBatchDelete(t *testing.T) {
	f := newPermissionServiceFixture()

	deletable := storedPermission(t, "DOCS.READ", "Read docs")
	alreadyDeleted := storedPermission(t, "DOCS.WRITE", "Write docs")
	require.NoError(t, alreadyDeleted.MarkAsDeleted())

	f.permRepo.On("FindByID", mock.Anything, testTenant, deletable.ID).Return(deletable, nil)
	f.permRepo.On("FindByID", mock.Anything, testTenant, alreadyDeleted.ID).Return(alreadyDeleted, nil)
	f.permRepo.On("FindByID", mock.Anything, testTenant, "missing-id").
		Return(nil, domainErrors.ErrPermissionNotFound)
	f.permRepo.On("Save", mock.Anything, deletable).Return(nil)

	ids := []string{deletable.ID, alreadyDeleted.ID, "missing-id"}
	result, err := f.service.BatchDelete(context.Background(), testTenant, ids, testActor)
	require.NoError(t, err)

	assert.Equal(t, []string{deletable.ID}, result.Success)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, len(ids), len(result.Success)+len(result.Failed))

	byID := make(map[string]models.BatchFailure, len(result.Failed))
	for _, failure := range result.Failed {
		byID[failure.ID] = failure
	}
	assert.Equal(t, domainErrors.CodeInvalidTransition, byID[alreadyDeleted.ID].Code)
	assert.Equal(t, domainErrors.CodeNotFound, byID["missing-id"].Code)
}

func TestPermissionServiceGetByCodeNormalizes(t *testing.T) {
	f := newPermissionServiceFixture()
	permission := storedPermission(t, "DOCS.READ", "Read docs")
	f.permRepo.On("FindByCode", mock.Anything, testTenant, models.PermissionCode("DOCS.READ")).
		Return(permission, nil)

	found, err := f.service.GetByCode(context.Background(), testTenant, "docs.read")
	require.NoError(t, err)
	assert.Equal(t, permission.ID, found.ID)

	expires := time.Now().Add(-time.Hour).UTC()
	permission.ExpiresAt = &expires
	assert.Equal(t, models.PermissionStatusExpired, permission.EffectiveStatus(time.Now().UTC()))
}
