package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateProduct  = "CREATE_PRODUCT"
	ActionUpdateProduct  = "UPDATE_PRODUCT"
	ActionDeleteProduct  = "DELETE_PRODUCT"
	ActionCreateCategory = "CREATE_CATEGORY"
	ActionUpdateCategory = "UPDATE_CATEGORY"
	ActionDeleteCategory = "DELETE_CATEGORY"
	ActionCreateSupplier = "CREATE_SUPPLIER"
	ActionUpdateSupplier = "UPDATE_SUPPLIER"
	ActionDeleteSupplier = "DELETE_SUPPLIER"

	ActionCreateWarehouse = "CREATE_WAREHOUSE"
	ActionUpdateWarehouse = "UPDATE_WAREHOUSE"
	ActionDeleteWarehouse = "DELETE_WAREHOUSE"
	ActionCreateReceipt   = "CREATE_GOODS_RECEIPT"
	ActionPostReceipt     = "POST_GOODS_RECEIPT"

	ActionCreateOrder     = "CREATE_ORDER"
	ActionTransitionOrder = "TRANSITION_ORDER"

	ActionCreateRole            = "CREATE_ROLE"
	ActionUpdateRole            = "UPDATE_ROLE"
	ActionDeleteRole            = "DELETE_ROLE"
	ActionUpdateRolePermissions = "UPDATE_ROLE_PERMISSIONS"
	ActionCreateModule          = "CREATE_MODULE"
	ActionUpdateModule          = "UPDATE_MODULE"
	ActionDeleteModule          = "DELETE_MODULE"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated bot
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
