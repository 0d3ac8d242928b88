package model

import (
	"time"

	"github.com/lib/pq"
)

type AdminRole string

const (
	AdminRoleAdmin      AdminRole = "admin"
	AdminRoleSuperAdmin AdminRole = "super-admin"
)

const (
	PermissionManageMenu    = "manage-menu"
	PermissionManageOrders  = "manage-orders"
	PermissionManageUsers   = "manage-users"
	PermissionViewAnalytics = "view-analytics"
	PermissionManageAdmins  = "manage-admins"
)

// AllPermissions is granted to the seeded super admin
var AllPermissions = []string{
	PermissionManageMenu,
	PermissionManageOrders,
	PermissionManageUsers,
	PermissionViewAnalytics,
	PermissionManageAdmins,
}

type Admin struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Name         string         `gorm:"size:100;not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Role         AdminRole      `gorm:"type:varchar(20);not null;default:'admin'" json:"role"`
	Permissions  pq.StringArray `gorm:"type:text" json:"permissions"`
	IsActive     bool           `gorm:"not null" json:"is_active"` // set explicitly on create
	LastLoginAt  *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (Admin) TableName() string {
	return "admins"
}

func (a *Admin) HasPermission(permission string) bool {
	if a.Role == AdminRoleSuperAdmin {
		return true
	}
	for _, p := range a.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}
