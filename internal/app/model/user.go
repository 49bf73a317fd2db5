package model

import (
	"time"
)

type UserRole string // 사용자 권한 타입

const (
	RoleAdmin    UserRole = "admin"
	RoleManager  UserRole = "manager"
	RoleCashier  UserRole = "cashier"
	RoleChef     UserRole = "chef"
	RoleCustomer UserRole = "customer"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleCashier, RoleChef, RoleCustomer:
		return true
	}
	return false
}

// IsStaff is true for every role that works a panel.
func (r UserRole) IsStaff() bool {
	return r.Valid() && r != RoleCustomer
}

type User struct {
	ID           uint       `gorm:"primarykey" json:"id"`                                     // 사용자 ID
	Username     string     `gorm:"uniqueIndex;not null" json:"username"`                     // 로그인 아이디
	PasswordHash string     `gorm:"not null" json:"-"`                                        // 비밀번호 해시
	FullName     string     `gorm:"not null" json:"full_name"`                                // 이름
	Role         UserRole   `gorm:"type:varchar(20);not null;default:'customer'" json:"role"` // 권한
	Active       bool       `gorm:"not null" json:"active"`                                   // 활성 여부
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`                                  // 마지막 로그인
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
