package model

import (
	"time"
)

// Notification 스태프 패널 알림함 (허브 이벤트를 역할별로 저장)
type Notification struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	Type       string    `gorm:"type:varchar(40);not null;index" json:"type"`
	TargetRole UserRole  `gorm:"type:varchar(20);not null;index" json:"target_role"`
	OrderID    *uint     `gorm:"index" json:"order_id,omitempty"`
	Title      string    `gorm:"not null" json:"title"`
	Payload    string    `gorm:"type:text" json:"payload"` // 이벤트 원문 (JSON)
	IsRead     bool      `gorm:"not null;index" json:"is_read"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
