package models

import (
	"time"
)

// Roles
const (
	RoleStudent    = "student"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

type User struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	AdmissionNumber string    `gorm:"uniqueIndex;size:32;not null" json:"admission_number"` // login handle
	Email           string    `gorm:"uniqueIndex;not null" json:"email"`
	DisplayName     string    `gorm:"size:100;not null" json:"display_name"`
	Password        string    `json:"-"` // bcrypt hash; empty means the default password applies
	Role            string    `gorm:"size:20;default:'student';not null" json:"role"`
	Points          int       `gorm:"default:0;not null" json:"points"`
	Rank            int       `gorm:"default:1;not null" json:"rank"` // denormalised from Points
	ClassInstanceID *uint     `gorm:"index" json:"class_instance_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

func (u *User) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}
