package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/your-org/iam-service/internal/domain/errors"
	"github.com/your-org/iam-service/internal/domain/models"
)

func mustRoleCode(t *testing.T, raw string) models.RoleCode {
	t.Helper()
	code, err := models.NewRoleCode(raw)
	require.NoError(t, err)
	return code
}

func mustRoleName(t *testing.T, raw string) models.RoleName {
	t.Helper()
	name, err := models.NewRoleName(raw)
	require.NoError(t, err)
	return name
}

func TestRequireActor(t *testing.T) {
	s := NewValidationService(nil, nil)

	assert.NoError(t, s.RequireActor("admin-1"))
	assert.ErrorIs(t, s.RequireActor(""), domainErrors.ErrActorRequired)
}

func TestEnsureRoleCodeUnique(t *testing.T) {
	ctx := context.Background()

	t.Run("free code passes", func(t *testing.T) {
		roleRepo := new(MockRoleRepository)
		roleRepo.On("FindByCode", mock.Anything, "tenant-1", mock.Anything).
			Return(nil, domainErrors.ErrRoleNotFound)

		s := NewValidationService(roleRepo, nil)
		assert.NoError(t, s.EnsureRoleCodeUnique(ctx, "tenant-1", mustRoleCode(t, "ADMIN")))
	})

	t.Run("taken code conflicts", func(t *testing.T) {
		roleRepo := new(MockRoleRepository)
		existing := models.NewRole("tenant-1", mustRoleName(t, "Admin"), mustRoleCode(t, "ADMIN"), models.DefaultRolePriority)
		roleRepo.On("FindByCode", mock.Anything, "tenant-1", mock.Anything).Return(existing, nil)

		s := NewValidationService(roleRepo, nil)
		err := s.EnsureRoleCodeUnique(ctx, "tenant-1", mustRoleCode(t, "ADMIN"))
		require.Error(t, err)
		assert.ErrorIs(t, err, domainErrors.ErrRoleCodeExists)
	})

	t.Run("lookup failure propagates", func(t *testing.T) {
		roleRepo := new(MockRoleRepository)
		roleRepo.On("FindByCode", mock.Anything, "tenant-1", mock.Anything).
			Return(nil, assert.AnError)

		s := NewValidationService(roleRepo, nil)
		assert.ErrorIs(t, s.EnsureRoleCodeUnique(ctx, "tenant-1", mustRoleCode(t, "ADMIN")), assert.AnError)
	})
}

func TestEnsureRoleNameUnique(t *testing.T) {
	ctx := context.Background()
	existing := models.NewRole("tenant-1", mustRoleName(t, "Admin"), mustRoleCode(t, "ADMIN"), models.DefaultRolePriority)

	t.Run("taken name conflicts", func(t *testing.T) {
		roleRepo := new(MockRoleRepository)
		roleRepo.On("FindByName", mock.Anything, "tenant-1", mock.Anything).Return(existing, nil)

		s := NewValidationService(roleRepo, nil)
		err := s.EnsureRoleNameUnique(ctx, "tenant-1", mustRoleName(t, "Admin"), "")
		assert.ErrorIs(t, err, domainErrors.ErrRoleNameExists)
	})

	t.Run("own name excluded during rename", func(t *testing.T) {
		roleRepo := new(MockRoleRepository)
		roleRepo.On("FindByName", mock.Anything, "tenant-1", mock.Anything).Return(existing, nil)

		s := NewValidationService(roleRepo, nil)
		assert.NoError(t, s.EnsureRoleNameUnique(ctx, "tenant-1", mustRoleName(t, "Admin"), existing.ID))
	})
}

func TestEnsurePermissionCodeUnique(t *testing.T) {
	ctx := context.Background()

	permRepo := new(MockPermissionRepository)
	permRepo.On("FindByCode", mock.Anything, "tenant-1", mock.Anything).
		Return(nil, domainErrors.ErrPermissionNotFound)

	s := NewValidationService(nil, permRepo)
	code, err := models.NewPermissionCode("USERS.READ")
	require.NoError(t, err)
	assert.NoError(t, s.EnsurePermissionCodeUnique(ctx, "tenant-1", code))
}

func TestTransitionGuards(t *testing.T) {
	s := NewValidationService(nil, nil)

	active := models.NewRole("tenant-1", mustRoleName(t, "Admin"), mustRoleCode(t, "ADMIN"), models.DefaultRolePriority)
	assert.NoError(t, s.CanSuspend(active))
	assert.Error(t, s.CanActivate(active))
	assert.NoError(t, s.CanDelete(active))
	assert.Error(t, s.CanRestore(active))

	suspended := models.NewRole("tenant-1", mustRoleName(t, "Ops"), mustRoleCode(t, "OPS"), models.DefaultRolePriority)
	require.NoError(t, suspended.Suspend())
	assert.NoError(t, s.CanActivate(suspended))
	assert.Error(t, s.CanSuspend(suspended))

	system := models.NewRole("tenant-1", mustRoleName(t, "Root"), mustRoleCode(t, "ROOT"), models.MinRolePriority)
	system.IsSystemRole = true
	assert.ErrorIs(t, s.CanDelete(system), domainErrors.ErrSystemRoleProtected)

	deleted := models.NewRole("tenant-1", mustRoleName(t, "Old"), mustRoleCode(t, "OLD"), models.DefaultRolePriority)
	require.NoError(t, deleted.MarkAsDeleted())
	assert.NoError(t, s.CanRestore(deleted))
	assert.Error(t, s.CanDelete(deleted))
}

func TestValidateSettings(t *testing.T) {
	s := NewValidationService(nil, nil)

	assert.NoError(t, s.ValidateSettings(map[string]interface{}{
		"theme":    "dark",
		"language": "en",
	}))

	assert.NoError(t, s.ValidateSettings(map[string]interface{}{
		"unrelated": 42,
	}), "unknown keys pass through")

	err := s.ValidateSettings(map[string]interface{}{
		"theme":    "neon",
		"language": 7,
	})
	require.Error(t, err)
	verr, ok := domainErrors.AsValidationError(err)
	require.True(t, ok)
	assert.Len(t, verr.Violations, 2, "all violations reported together")
}
