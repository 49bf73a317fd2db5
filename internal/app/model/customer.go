package model

import (
	"time"
)

type Customer struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	UserID        *uint     `gorm:"uniqueIndex" json:"user_id,omitempty"`
	Name          string    `gorm:"not null" json:"name"`
	Phone         string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"phone"`
	Email         string    `json:"email,omitempty"`
	LoyaltyPoints int       `gorm:"not null;default:0" json:"loyalty_points"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Customer) TableName() string {
	return "customers"
}
