package service

import (
	"context"
	"errors"
	"fmt"

	"storehub/internal/model"
	"storehub/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"` // Permission UUIDs
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

type UpdateRolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" binding:"required"`
}

type CreateModuleRequest struct {
	Name       string `json:"name" binding:"required"`
	PathPrefix string `json:"path_prefix" binding:"required"`
	Icon       string `json:"icon"`
	SortOrder  int    `json:"sort_order"`
}

type UpdateModuleRequest struct {
	Name       string `json:"name" binding:"required"`
	PathPrefix string `json:"path_prefix" binding:"required"`
	Icon       string `json:"icon"`
	SortOrder  int    `json:"sort_order"`
	IsActive   *bool  `json:"is_active"`
}

type RoleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	IsActive    bool                 `json:"is_active"`
	IsSystem    bool                 `json:"is_system"`
	Permissions []PermissionResponse `json:"permissions"`
	CreatedAt   string               `json:"created_at"`
}

type PermissionResponse struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Method   string `json:"method"`
	APIPath  string `json:"api_path"`
	ModuleID string `json:"module_id"`
}

type ModuleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	PathPrefix  string               `json:"path_prefix"`
	Icon        string               `json:"icon"`
	SortOrder   int                  `json:"sort_order"`
	IsActive    bool                 `json:"is_active"`
	Permissions []PermissionResponse `json:"permissions"`
}

// --- Interface ---

// RBACService manages the module/permission/role hierarchy the
// authorization model resolves against.
type RBACService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	GetRole(ctx context.Context, id string) (*RoleResponse, error)
	CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, id string) error
	UpdateRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error)

	ListPermissions(ctx context.Context) ([]PermissionResponse, error)

	ListModules(ctx context.Context) ([]ModuleResponse, error)
	CreateModule(ctx context.Context, req CreateModuleRequest) (*ModuleResponse, error)
	UpdateModule(ctx context.Context, id string, req UpdateModuleRequest) (*ModuleResponse, error)
	DeleteModule(ctx context.Context, id string) error

	SeedDefaults(ctx context.Context) error
}

type rbacService struct {
	repo      repository.RBACRepository
	authz     AuthzService
	txManager repository.TransactionManager
}

func NewRBACService(repo repository.RBACRepository, authz AuthzService, txManager repository.TransactionManager) RBACService {
	return &rbacService{repo: repo, authz: authz, txManager: txManager}
}

// --- Roles ---

func (s *rbacService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

func (s *rbacService) GetRole(ctx context.Context, id string) (*RoleResponse, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	role, err := s.repo.FindRoleByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *rbacService) CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error) {
	role := model.Role{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
		IsSystem:    false,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreateRole(txCtx, &role); err != nil {
			return fmt.Errorf("failed to create role: %w", err)
		}

		if len(req.Permissions) > 0 {
			perms, err := s.permissionsFromIDs(txCtx, req.Permissions)
			if err != nil {
				return err
			}
			if err := s.repo.ReplaceRolePermissions(txCtx, &role, perms); err != nil {
				return fmt.Errorf("failed to assign permissions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetRole(ctx, role.ID.String())
}

func (s *rbacService) UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*RoleResponse, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	role, err := s.repo.FindRoleByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	role.Name = req.Name
	role.Description = req.Description
	if req.IsActive != nil {
		role.IsActive = *req.IsActive
	}

	if err := s.repo.UpdateRole(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	s.authz.InvalidateRole(roleID)
	return s.GetRole(ctx, id)
}

func (s *rbacService) DeleteRole(ctx context.Context, id string) error {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}

	role, err := s.repo.FindRoleByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if role.IsSystem {
		return fmt.Errorf("cannot delete system role '%s'", role.Name)
	}

	if err := s.repo.DeleteRole(ctx, role); err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	s.authz.InvalidateRole(roleID)
	return nil
}

func (s *rbacService) UpdateRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error) {
	id, err := uuid.Parse(roleID)
	if err != nil {
		return nil, ErrNotFound
	}

	role, err := s.repo.FindRoleByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	perms := []model.Permission{}
	if len(req.PermissionIDs) > 0 {
		perms, err = s.permissionsFromIDs(ctx, req.PermissionIDs)
		if err != nil {
			return nil, err
		}
	}

	if err := s.repo.ReplaceRolePermissions(ctx, role, perms); err != nil {
		return nil, fmt.Errorf("failed to update role permissions: %w", err)
	}

	s.authz.InvalidateRole(id)
	return s.GetRole(ctx, roleID)
}

func (s *rbacService) permissionsFromIDs(ctx context.Context, rawIDs []string) ([]model.Permission, error) {
	permIDs := make([]uuid.UUID, 0, len(rawIDs))
	for _, pid := range rawIDs {
		parsed, err := uuid.Parse(pid)
		if err != nil {
			return nil, fmt.Errorf("invalid permission id '%s': %w", pid, err)
		}
		permIDs = append(permIDs, parsed)
	}

	perms, err := s.repo.FindPermissionsByIDs(ctx, permIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}
	return perms, nil
}

// --- Permissions ---

func (s *rbacService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}

	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(p))
	}
	return res, nil
}

// --- Modules ---

func (s *rbacService) ListModules(ctx context.Context) ([]ModuleResponse, error) {
	modules, err := s.repo.ListModules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch modules: %w", err)
	}

	res := make([]ModuleResponse, 0, len(modules))
	for _, m := range modules {
		res = append(res, toModuleResponse(m))
	}
	return res, nil
}

func (s *rbacService) CreateModule(ctx context.Context, req CreateModuleRequest) (*ModuleResponse, error) {
	mod := model.Module{
		Name:       req.Name,
		PathPrefix: req.PathPrefix,
		Icon:       req.Icon,
		SortOrder:  req.SortOrder,
		IsActive:   true,
	}

	if err := s.repo.CreateModule(ctx, &mod); err != nil {
		return nil, fmt.Errorf("failed to create module: %w", err)
	}

	resp := toModuleResponse(mod)
	return &resp, nil
}

func (s *rbacService) UpdateModule(ctx context.Context, id string, req UpdateModuleRequest) (*ModuleResponse, error) {
	modID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	mod, err := s.repo.FindModuleByID(ctx, modID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	mod.Name = req.Name
	mod.PathPrefix = req.PathPrefix
	mod.Icon = req.Icon
	mod.SortOrder = req.SortOrder
	if req.IsActive != nil {
		mod.IsActive = *req.IsActive
	}

	if err := s.repo.UpdateModule(ctx, mod); err != nil {
		return nil, fmt.Errorf("failed to update module: %w", err)
	}

	// Module state affects every role holding its permissions
	s.authz.InvalidateAll()

	resp := toModuleResponse(*mod)
	return &resp, nil
}

func (s *rbacService) DeleteModule(ctx context.Context, id string) error {
	modID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}

	mod, err := s.repo.FindModuleByID(ctx, modID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	// Soft delete only: the module's permissions stay in place but stop
	// granting access through the authorization joins.
	if err := s.repo.DeleteModule(ctx, mod); err != nil {
		return fmt.Errorf("failed to delete module: %w", err)
	}

	s.authz.InvalidateAll()
	return nil
}

// --- Seeding ---

type seedPermission struct {
	Code   string
	Name   string
	Method string
	Path   string
}

type seedModule struct {
	Name        string
	PathPrefix  string
	Icon        string
	SortOrder   int
	Permissions []seedPermission
}

func defaultModules() []seedModule {
	return []seedModule{
		{Name: "users", PathPrefix: "/users", Icon: "users", SortOrder: 1, Permissions: []seedPermission{
			{Code: "users.read", Name: "View users", Method: "GET", Path: "/users"},
			{Code: "users.write", Name: "Create/update users", Method: "POST", Path: "/users"},
			{Code: "users.delete", Name: "Delete users", Method: "DELETE", Path: "/users/:id"},
		}},
		{Name: "roles", PathPrefix: "/roles", Icon: "shield", SortOrder: 2, Permissions: []seedPermission{
			{Code: "roles.read", Name: "View roles", Method: "GET", Path: "/roles"},
			{Code: "roles.write", Name: "Create/update roles", Method: "POST", Path: "/roles"},
			{Code: "roles.delete", Name: "Delete roles", Method: "DELETE", Path: "/roles/:id"},
		}},
		{Name: "categories", PathPrefix: "/categories", Icon: "folder", SortOrder: 3, Permissions: []seedPermission{
			{Code: "categories.read", Name: "View categories", Method: "GET", Path: "/categories"},
			{Code: "categories.write", Name: "Create/update categories", Method: "POST", Path: "/categories"},
			{Code: "categories.delete", Name: "Delete categories", Method: "DELETE", Path: "/categories/:id"},
		}},
		{Name: "products", PathPrefix: "/products", Icon: "package", SortOrder: 4, Permissions: []seedPermission{
			{Code: "products.read", Name: "View products", Method: "GET", Path: "/products"},
			{Code: "products.write", Name: "Create/update products", Method: "POST", Path: "/products"},
			{Code: "products.delete", Name: "Delete products", Method: "DELETE", Path: "/products/:id"},
		}},
		{Name: "suppliers", PathPrefix: "/suppliers", Icon: "truck", SortOrder: 5, Permissions: []seedPermission{
			{Code: "suppliers.read", Name: "View suppliers", Method: "GET", Path: "/suppliers"},
			{Code: "suppliers.write", Name: "Create/update suppliers", Method: "POST", Path: "/suppliers"},
			{Code: "suppliers.delete", Name: "Delete suppliers", Method: "DELETE", Path: "/suppliers/:id"},
		}},
		{Name: "warehouses", PathPrefix: "/warehouses", Icon: "home", SortOrder: 6, Permissions: []seedPermission{
			{Code: "warehouses.read", Name: "View warehouses", Method: "GET", Path: "/warehouses"},
			{Code: "warehouses.write", Name: "Create/update warehouses", Method: "POST", Path: "/warehouses"},
			{Code: "warehouses.delete", Name: "Delete warehouses", Method: "DELETE", Path: "/warehouses/:id"},
		}},
		{Name: "goods-receipts", PathPrefix: "/goods-receipts", Icon: "clipboard", SortOrder: 7, Permissions: []seedPermission{
			{Code: "receipts.read", Name: "View goods receipts", Method: "GET", Path: "/goods-receipts"},
			{Code: "receipts.write", Name: "Create goods receipts", Method: "POST", Path: "/goods-receipts"},
			{Code: "receipts.post", Name: "Post goods receipts to stock", Method: "POST", Path: "/goods-receipts/:id/post"},
		}},
		{Name: "orders", PathPrefix: "/orders", Icon: "shopping-cart", SortOrder: 8, Permissions: []seedPermission{
			{Code: "orders.read", Name: "View orders", Method: "GET", Path: "/orders"},
			{Code: "orders.create", Name: "Create orders", Method: "POST", Path: "/orders"},
			{Code: "orders.confirm", Name: "Confirm pending orders", Method: "POST", Path: "/orders/:id/confirm"},
			{Code: "orders.export", Name: "Export confirmed orders", Method: "POST", Path: "/orders/:id/export"},
			{Code: "orders.deliver", Name: "Mark exported orders delivered", Method: "POST", Path: "/orders/:id/deliver"},
			{Code: "orders.complete", Name: "Complete delivered orders", Method: "POST", Path: "/orders/:id/complete"},
		}},
		{Name: "audit", PathPrefix: "/audit-logs", Icon: "activity", SortOrder: 9, Permissions: []seedPermission{
			{Code: "audit.read", Name: "View audit logs", Method: "GET", Path: "/audit-logs"},
		}},
		{Name: "statistics", PathPrefix: "/statistics", Icon: "bar-chart", SortOrder: 10, Permissions: []seedPermission{
			{Code: "statistics.read", Name: "View dashboard statistics", Method: "GET", Path: "/statistics/dashboard"},
		}},
	}
}

// SeedDefaults idempotently creates the default modules, their permissions,
// and the built-in admin role holding every permission.
func (s *rbacService) SeedDefaults(ctx context.Context) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		allPerms := make([]model.Permission, 0, 32)

		for _, sm := range defaultModules() {
			mod, err := s.repo.FindModuleByName(txCtx, sm.Name)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				mod = &model.Module{
					Name:       sm.Name,
					PathPrefix: sm.PathPrefix,
					Icon:       sm.Icon,
					SortOrder:  sm.SortOrder,
					IsActive:   true,
				}
				if err := s.repo.CreateModule(txCtx, mod); err != nil {
					return fmt.Errorf("failed to seed module '%s': %w", sm.Name, err)
				}
			} else if err != nil {
				return err
			}

			for _, sp := range sm.Permissions {
				perm, err := s.repo.FindPermissionByCode(txCtx, sp.Code)
				if errors.Is(err, gorm.ErrRecordNotFound) {
					perm = &model.Permission{
						Code:     sp.Code,
						Name:     sp.Name,
						Method:   sp.Method,
						APIPath:  sp.Path,
						ModuleID: mod.ID,
					}
					if err := s.repo.CreatePermission(txCtx, perm); err != nil {
						return fmt.Errorf("failed to seed permission '%s': %w", sp.Code, err)
					}
				} else if err != nil {
					return err
				}
				allPerms = append(allPerms, *perm)
			}
		}

		admin, err := s.repo.FindRoleByName(txCtx, "admin")
		if errors.Is(err, gorm.ErrRecordNotFound) {
			admin = &model.Role{
				Name:        "admin",
				Description: "Built-in administrator with every permission",
				IsActive:    true,
				IsSystem:    true,
			}
			if err := s.repo.CreateRole(txCtx, admin); err != nil {
				return fmt.Errorf("failed to seed admin role: %w", err)
			}
		} else if err != nil {
			return err
		}

		if err := s.repo.ReplaceRolePermissions(txCtx, admin, allPerms); err != nil {
			return fmt.Errorf("failed to grant admin permissions: %w", err)
		}

		s.authz.InvalidateAll()
		return nil
	})
}

// --- Mapping helpers ---

func toRoleResponse(role model.Role) RoleResponse {
	perms := make([]PermissionResponse, 0, len(role.Permissions))
	for _, p := range role.Permissions {
		perms = append(perms, toPermissionResponse(p))
	}

	return RoleResponse{
		ID:          role.ID.String(),
		Name:        role.Name,
		Description: role.Description,
		IsActive:    role.IsActive,
		IsSystem:    role.IsSystem,
		Permissions: perms,
		CreatedAt:   role.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toPermissionResponse(perm model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:       perm.ID.String(),
		Code:     perm.Code,
		Name:     perm.Name,
		Method:   perm.Method,
		APIPath:  perm.APIPath,
		ModuleID: perm.ModuleID.String(),
	}
}

func toModuleResponse(mod model.Module) ModuleResponse {
	perms := make([]PermissionResponse, 0, len(mod.Permissions))
	for _, p := range mod.Permissions {
		perms = append(perms, toPermissionResponse(p))
	}

	return ModuleResponse{
		ID:          mod.ID.String(),
		Name:        mod.Name,
		PathPrefix:  mod.PathPrefix,
		Icon:        mod.Icon,
		SortOrder:   mod.SortOrder,
		IsActive:    mod.IsActive,
		Permissions: perms,
	}
}
