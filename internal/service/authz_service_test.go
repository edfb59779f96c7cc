package service_test

import (
	"context"
	"sync"
	"testing"

	"storehub/internal/model"
	"storehub/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeRBACRepo serves only the two resolution queries the authorization
// service runs; the CRUD methods are unused here.
type fakeRBACRepo struct {
	mu        sync.Mutex
	userRoles map[uuid.UUID]*model.Role
	roleCodes map[uuid.UUID][]string
}

func newFakeRBACRepo() *fakeRBACRepo {
	return &fakeRBACRepo{
		userRoles: make(map[uuid.UUID]*model.Role),
		roleCodes: make(map[uuid.UUID][]string),
	}
}

func (r *fakeRBACRepo) grant(userID uuid.UUID, role *model.Role, codes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userRoles[userID] = role
	r.roleCodes[role.ID] = codes
}

func (r *fakeRBACRepo) RoleForUser(_ context.Context, userID uuid.UUID) (*model.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.userRoles[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *role
	return &copied, nil
}

func (r *fakeRBACRepo) ActivePermissionCodes(_ context.Context, roleID uuid.UUID) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.roleCodes[roleID]...), nil
}

func (r *fakeRBACRepo) ListRoles(context.Context) ([]model.Role, error)           { return nil, nil }
func (r *fakeRBACRepo) FindRoleByID(context.Context, uuid.UUID) (*model.Role, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeRBACRepo) FindRoleByName(context.Context, string) (*model.Role, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeRBACRepo) CreateRole(context.Context, *model.Role) error { return nil }
func (r *fakeRBACRepo) UpdateRole(context.Context, *model.Role) error { return nil }
func (r *fakeRBACRepo) DeleteRole(context.Context, *model.Role) error { return nil }
func (r *fakeRBACRepo) ReplaceRolePermissions(context.Context, *model.Role, []model.Permission) error {
	return nil
}
func (r *fakeRBACRepo) ListPermissions(context.Context) ([]model.Permission, error) { return nil, nil }
func (r *fakeRBACRepo) FindPermissionsByIDs(context.Context, []uuid.UUID) ([]model.Permission, error) {
	return nil, nil
}
func (r *fakeRBACRepo) FindPermissionByCode(context.Context, string) (*model.Permission, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeRBACRepo) CreatePermission(context.Context, *model.Permission) error { return nil }
func (r *fakeRBACRepo) ListModules(context.Context) ([]model.Module, error)       { return nil, nil }
func (r *fakeRBACRepo) FindModuleByID(context.Context, uuid.UUID) (*model.Module, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeRBACRepo) FindModuleByName(context.Context, string) (*model.Module, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeRBACRepo) CreateModule(context.Context, *model.Module) error { return nil }
func (r *fakeRBACRepo) UpdateModule(context.Context, *model.Module) error { return nil }
func (r *fakeRBACRepo) DeleteModule(context.Context, *model.Module) error { return nil }

func TestHasPermission_AllowsGrantedCode(t *testing.T) {
	repo := newFakeRBACRepo()
	userID := uuid.New()
	role := &model.Role{ID: uuid.New(), Name: "staff", IsActive: true}
	repo.grant(userID, role, "orders.confirm", "orders.read")

	authz := service.NewAuthzService(repo)

	allowed, err := authz.HasPermission(context.Background(), userID.String(), "orders.confirm")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestHasPermission_DeniesUnknownCode(t *testing.T) {
	repo := newFakeRBACRepo()
	userID := uuid.New()
	role := &model.Role{ID: uuid.New(), Name: "staff", IsActive: true}
	repo.grant(userID, role, "orders.read")

	authz := service.NewAuthzService(repo)

	// A code nobody ever seeded is a plain deny, not an error
	allowed, err := authz.HasPermission(context.Background(), userID.String(), "orders.obliterate")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestHasPermission_DeniesEmptyCode(t *testing.T) {
	repo := newFakeRBACRepo()
	userID := uuid.New()
	role := &model.Role{ID: uuid.New(), Name: "staff", IsActive: true}
	repo.grant(userID, role, "orders.read")

	authz := service.NewAuthzService(repo)

	allowed, err := authz.HasPermission(context.Background(), userID.String(), "")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestHasPermission_DeniesUserWithoutRole(t *testing.T) {
	authz := service.NewAuthzService(newFakeRBACRepo())

	allowed, err := authz.HasPermission(context.Background(), uuid.NewString(), "orders.confirm")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestHasPermission_DeniesMalformedUserID(t *testing.T) {
	authz := service.NewAuthzService(newFakeRBACRepo())

	allowed, err := authz.HasPermission(context.Background(), "not-a-uuid", "orders.confirm")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestHasPermission_RoleDeactivationDeniesImmediately(t *testing.T) {
	repo := newFakeRBACRepo()
	userID := uuid.New()
	role := &model.Role{ID: uuid.New(), Name: "staff", IsActive: true}
	repo.grant(userID, role, "orders.confirm")

	authz := service.NewAuthzService(repo)

	// Warm the permission cache
	allowed, err := authz.HasPermission(context.Background(), userID.String(), "orders.confirm")
	require.NoError(t, err)
	require.True(t, allowed)

	// Deactivate the role. The role row is re-read every check, so the
	// cached codes must not keep the grant alive.
	role.IsActive = false
	repo.grant(userID, role, "orders.confirm")

	allowed, err = authz.HasPermission(context.Background(), userID.String(), "orders.confirm")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestHasPermission_InvalidateRoleDropsCachedCodes(t *testing.T) {
	repo := newFakeRBACRepo()
	userID := uuid.New()
	role := &model.Role{ID: uuid.New(), Name: "staff", IsActive: true}
	repo.grant(userID, role, "orders.confirm")

	authz := service.NewAuthzService(repo)

	allowed, err := authz.HasPermission(context.Background(), userID.String(), "orders.confirm")
	require.NoError(t, err)
	require.True(t, allowed)

	// Revoke in the store; the cached set still answers until invalidated
	repo.grant(userID, role)
	allowed, err = authz.HasPermission(context.Background(), userID.String(), "orders.confirm")
	require.NoError(t, err)
	assert.True(t, allowed)

	authz.InvalidateRole(role.ID)
	allowed, err = authz.HasPermission(context.Background(), userID.String(), "orders.confirm")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestHasPermission_InvalidateAllDropsEveryRole(t *testing.T) {
	repo := newFakeRBACRepo()
	aliceID, bobID := uuid.New(), uuid.New()
	staff := &model.Role{ID: uuid.New(), Name: "staff", IsActive: true}
	manager := &model.Role{ID: uuid.New(), Name: "manager", IsActive: true}
	repo.grant(aliceID, staff, "orders.read")
	repo.grant(bobID, manager, "orders.confirm")

	authz := service.NewAuthzService(repo)

	for userID, code := range map[uuid.UUID]string{aliceID: "orders.read", bobID: "orders.confirm"} {
		allowed, err := authz.HasPermission(context.Background(), userID.String(), code)
		require.NoError(t, err)
		require.True(t, allowed)
	}

	repo.grant(aliceID, staff)
	repo.grant(bobID, manager)
	authz.InvalidateAll()

	for userID, code := range map[uuid.UUID]string{aliceID: "orders.read", bobID: "orders.confirm"} {
		allowed, err := authz.HasPermission(context.Background(), userID.String(), code)
		require.NoError(t, err)
		assert.False(t, allowed)
	}
}

func TestPermissionCodes_ReturnsGrantedSet(t *testing.T) {
	repo := newFakeRBACRepo()
	userID := uuid.New()
	role := &model.Role{ID: uuid.New(), Name: "staff", IsActive: true}
	repo.grant(userID, role, "orders.read", "orders.confirm")

	authz := service.NewAuthzService(repo)

	codes, err := authz.PermissionCodes(context.Background(), userID.String())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"orders.read", "orders.confirm"}, codes)
}
