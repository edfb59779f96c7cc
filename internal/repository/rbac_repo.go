package repository

import (
	"context"

	"storehub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RBACRepository is the data access layer behind the authorization model:
// modules, permissions, roles, and the role → permission resolution queries.
type RBACRepository interface {
	// Roles
	ListRoles(ctx context.Context) ([]model.Role, error)
	FindRoleByID(ctx context.Context, id uuid.UUID) (*model.Role, error)
	FindRoleByName(ctx context.Context, name string) (*model.Role, error)
	CreateRole(ctx context.Context, role *model.Role) error
	UpdateRole(ctx context.Context, role *model.Role) error
	DeleteRole(ctx context.Context, role *model.Role) error
	ReplaceRolePermissions(ctx context.Context, role *model.Role, perms []model.Permission) error

	// Permissions
	ListPermissions(ctx context.Context) ([]model.Permission, error)
	FindPermissionsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Permission, error)
	FindPermissionByCode(ctx context.Context, code string) (*model.Permission, error)
	CreatePermission(ctx context.Context, perm *model.Permission) error

	// Modules
	ListModules(ctx context.Context) ([]model.Module, error)
	FindModuleByID(ctx context.Context, id uuid.UUID) (*model.Module, error)
	FindModuleByName(ctx context.Context, name string) (*model.Module, error)
	CreateModule(ctx context.Context, mod *model.Module) error
	UpdateModule(ctx context.Context, mod *model.Module) error
	DeleteModule(ctx context.Context, mod *model.Module) error

	// Authorization resolution
	RoleForUser(ctx context.Context, userID uuid.UUID) (*model.Role, error)
	ActivePermissionCodes(ctx context.Context, roleID uuid.UUID) ([]string, error)
}

type rbacRepository struct {
	db *gorm.DB
}

func NewRBACRepository(db *gorm.DB) RBACRepository {
	return &rbacRepository{db: db}
}

func (r *rbacRepository) ListRoles(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := GetDB(ctx, r.db).Preload("Permissions").Order("name ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *rbacRepository) FindRoleByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Preload("Permissions").Preload("Permissions.Module").First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *rbacRepository) FindRoleByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Preload("Permissions").First(&role, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *rbacRepository) CreateRole(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Create(role).Error
}

func (r *rbacRepository) UpdateRole(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Save(role).Error
}

func (r *rbacRepository) DeleteRole(ctx context.Context, role *model.Role) error {
	db := GetDB(ctx, r.db)
	// Clear associations before soft-deleting the role itself
	if err := db.Model(role).Association("Permissions").Clear(); err != nil {
		return err
	}
	return db.Delete(role).Error
}

func (r *rbacRepository) ReplaceRolePermissions(ctx context.Context, role *model.Role, perms []model.Permission) error {
	return GetDB(ctx, r.db).Model(role).Association("Permissions").Replace(perms)
}

func (r *rbacRepository) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	var perms []model.Permission
	if err := GetDB(ctx, r.db).Preload("Module").Order("code ASC").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *rbacRepository) FindPermissionsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Permission, error) {
	var perms []model.Permission
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *rbacRepository) FindPermissionByCode(ctx context.Context, code string) (*model.Permission, error) {
	var perm model.Permission
	if err := GetDB(ctx, r.db).First(&perm, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *rbacRepository) CreatePermission(ctx context.Context, perm *model.Permission) error {
	return GetDB(ctx, r.db).Create(perm).Error
}

func (r *rbacRepository) ListModules(ctx context.Context) ([]model.Module, error) {
	var modules []model.Module
	if err := GetDB(ctx, r.db).Preload("Permissions").Order("sort_order ASC, name ASC").Find(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

func (r *rbacRepository) FindModuleByID(ctx context.Context, id uuid.UUID) (*model.Module, error) {
	var mod model.Module
	if err := GetDB(ctx, r.db).Preload("Permissions").First(&mod, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &mod, nil
}

func (r *rbacRepository) FindModuleByName(ctx context.Context, name string) (*model.Module, error) {
	var mod model.Module
	if err := GetDB(ctx, r.db).First(&mod, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &mod, nil
}

func (r *rbacRepository) CreateModule(ctx context.Context, mod *model.Module) error {
	return GetDB(ctx, r.db).Create(mod).Error
}

func (r *rbacRepository) UpdateModule(ctx context.Context, mod *model.Module) error {
	return GetDB(ctx, r.db).Save(mod).Error
}

func (r *rbacRepository) DeleteModule(ctx context.Context, mod *model.Module) error {
	return GetDB(ctx, r.db).Delete(mod).Error
}

// RoleForUser resolves the single role owned by a user. Soft-deleted roles
// are excluded by the default GORM scope, so a user pointing at a deleted
// role resolves to ErrRecordNotFound.
func (r *rbacRepository) RoleForUser(ctx context.Context, userID uuid.UUID) (*model.Role, error) {
	var role model.Role
	err := GetDB(ctx, r.db).
		Joins("INNER JOIN users u ON u.role_id = roles.id").
		Where("u.id = ? AND u.deleted_at IS NULL", userID).
		First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// ActivePermissionCodes returns the codes a role grants right now: the
// permission must not be soft-deleted and its owning module must be active
// and not soft-deleted. Role-level checks are the caller's responsibility.
func (r *rbacRepository) ActivePermissionCodes(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	var codes []string
	err := GetDB(ctx, r.db).Raw(`
		SELECT p.code FROM permissions p
		INNER JOIN role_permissions rp ON rp.permission_id = p.id
		INNER JOIN modules m ON m.id = p.module_id
		WHERE rp.role_id = ?
		  AND p.deleted_at IS NULL
		  AND m.deleted_at IS NULL
		  AND m.is_active = true
	`, roleID).Pluck("code", &codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}
