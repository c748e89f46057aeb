package models

import "time"

type UserRole string

const (
	RoleSuperAdmin  UserRole = "super_admin"
	RoleCoordinator UserRole = "coordinator"
	RoleBranchUser  UserRole = "branch_user"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleCoordinator, RoleBranchUser:
		return true
	}
	return false
}

type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	FilialID     *uint      `gorm:"index" json:"filialId"`
	Branch       *Branch    `gorm:"foreignKey:FilialID" json:"-"`
	Name         string     `gorm:"size:100;not null" json:"name"`
	Email        string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         UserRole   `gorm:"size:20;not null" json:"role"`
	Active       bool       `gorm:"not null;default:true" json:"active"`
	LastLoginAt  *time.Time `json:"lastLoginAt"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}
