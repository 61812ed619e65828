package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Roles used across the service.
const (
	RoleDiner = "diner"
	RoleOwner = "owner"
	RoleAdmin = "admin"
)

// User represents a registered account: a diner, a restaurant owner, or an admin.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password     string         `gorm:"size:255" json:"-"` // argon2id PHC-encoded hash
	Name         string         `gorm:"size:100" json:"name"`
	Role         string         `gorm:"size:20;default:diner" json:"role"` // diner, owner, admin
	TokenVersion uint           `gorm:"default:1" json:"-"`                // bumped to invalidate all issued tokens
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	LastLogin    *time.Time     `json:"last_login"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

// NormalizeEmail lower-cases and trims an email for lookup and storage.
// Credential lookups must always go through this so the same mailbox cannot
// register twice with different casing.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidRole reports whether role is one of the fixed role enumeration.
func ValidRole(role string) bool {
	switch role {
	case RoleDiner, RoleOwner, RoleAdmin:
		return true
	}
	return false
}
