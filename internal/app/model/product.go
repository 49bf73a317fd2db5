package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	Name        string          `gorm:"not null;index" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"price"`
	Category    string          `gorm:"type:varchar(50);index" json:"category"`
	ImageURL    string          `json:"image_url"`
	Available   bool            `gorm:"not null" json:"available"`
	Tags        Tags            `json:"tags"` // 메뉴 태그 (예: spicy, vegan)
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Product) TableName() string {
	return "products"
}

type ProductFilter struct {
	Category  string
	Available *bool
	Tag       string
	Search    string
	Limit     int
	Offset    int
}
