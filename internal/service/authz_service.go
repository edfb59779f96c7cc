package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"storehub/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// permCacheEntry stores cached permission codes for a role with TTL
type permCacheEntry struct {
	codes     []string
	expiresAt time.Time
}

// AuthzService decides whether an acting user may perform a capability.
// The decision walks Module -> Permission -> Role -> User: the user must
// own an active role, and the role must hold a matching permission whose
// owning module is active. Everything fails closed: a missing role, a
// deactivated role, or an unknown capability code all yield DENY.
type AuthzService interface {
	HasPermission(ctx context.Context, userID string, code string) (bool, error)
	PermissionCodes(ctx context.Context, userID string) ([]string, error)
	// InvalidateRole drops the cached permission set of one role; called
	// whenever a role's permissions change.
	InvalidateRole(roleID uuid.UUID)
	// InvalidateAll drops every cached permission set; called on module
	// or permission changes, which can affect any role.
	InvalidateAll()
}

type authzService struct {
	repo     repository.RBACRepository
	cache    sync.Map // roleID -> permCacheEntry
	cacheTTL time.Duration
}

func NewAuthzService(repo repository.RBACRepository) AuthzService {
	return &authzService{
		repo:     repo,
		cacheTTL: 5 * time.Minute,
	}
}

func (s *authzService) HasPermission(ctx context.Context, userID string, code string) (bool, error) {
	if code == "" {
		return false, nil
	}

	codes, err := s.PermissionCodes(ctx, userID)
	if err != nil {
		return false, err
	}

	for _, c := range codes {
		if c == code {
			return true, nil
		}
	}
	// Unknown or unmatched codes are a plain DENY, never an error
	return false, nil
}

func (s *authzService) PermissionCodes(ctx context.Context, userID string) ([]string, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, nil // malformed identity carries no permissions
	}

	// The role row is read fresh on every check so that deactivating or
	// deleting a role denies immediately, regardless of cached codes.
	role, err := s.repo.RoleForUser(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // no role (or deleted role) means deny-all
		}
		return nil, err
	}
	if !role.IsActive {
		return nil, nil
	}

	if entry, ok := s.cache.Load(role.ID); ok {
		cached := entry.(permCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.codes, nil
		}
	}

	codes, err := s.repo.ActivePermissionCodes(ctx, role.ID)
	if err != nil {
		return nil, err
	}

	s.cache.Store(role.ID, permCacheEntry{
		codes:     codes,
		expiresAt: time.Now().Add(s.cacheTTL),
	})

	return codes, nil
}

func (s *authzService) InvalidateRole(roleID uuid.UUID) {
	s.cache.Delete(roleID)
}

func (s *authzService) InvalidateAll() {
	s.cache.Range(func(key, _ any) bool {
		s.cache.Delete(key)
		return true
	})
}
