package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Module groups permissions for one API resource family (users, orders, ...).
// Deactivating or soft-deleting a module disables every permission it owns
// without touching the permission rows themselves.
type Module struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	PathPrefix  string         `gorm:"type:varchar(100);not null" json:"path_prefix"` // e.g. "/orders"
	Icon        string         `gorm:"type:varchar(100)" json:"icon"`
	SortOrder   int            `gorm:"default:0" json:"sort_order"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	Permissions []Permission   `gorm:"foreignKey:ModuleID" json:"permissions,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Permission represents a single atomic capability that can be assigned to roles
type Permission struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code      string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"` // e.g. "orders.confirm"
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Method    string         `gorm:"type:varchar(10)" json:"method"`  // Optional HTTP method for fine-grained matching
	APIPath   string         `gorm:"type:varchar(255)" json:"api_path"`
	ModuleID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"module_id"`
	Module    *Module        `gorm:"foreignKey:ModuleID" json:"module,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Role represents a named permission set assigned to users.
// A role may hold an empty permission set (no access) but never a null one.
type Role struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	IsSystem    bool           `gorm:"default:false" json:"is_system"` // Prevent deletion of built-in roles
	Permissions []Permission   `gorm:"many2many:role_permissions;" json:"permissions"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
