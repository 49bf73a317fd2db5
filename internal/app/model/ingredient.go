package model

import (
	"time"
)

type IngredientStatus string // 재고 상태 (DB 컬럼이지만 서비스가 계산)

const (
	IngredientAvailable  IngredientStatus = "available"
	IngredientLow        IngredientStatus = "low"
	IngredientOutOfStock IngredientStatus = "out_of_stock"
	IngredientExpired    IngredientStatus = "expired"
)

type Ingredient struct {
	ID          uint             `gorm:"primarykey" json:"id"`
	Name        string           `gorm:"not null;uniqueIndex" json:"name"`
	Quantity    float64          `gorm:"not null;default:0" json:"quantity"`
	Unit        string           `gorm:"type:varchar(20);not null" json:"unit"`
	MinQuantity float64          `gorm:"not null;default:0" json:"min_quantity"` // 0이면 설정 기본값 사용
	ExpiryDate  *time.Time       `json:"expiry_date,omitempty"`
	Supplier    string           `json:"supplier,omitempty"`
	Status      IngredientStatus `gorm:"type:varchar(20);not null;default:'available';index" json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (Ingredient) TableName() string {
	return "ingredients"
}

// ComputeStatus derives the stock status at now. Expiry wins over quantity.
func (i *Ingredient) ComputeStatus(now time.Time, defaultThreshold float64) IngredientStatus {
	if i.ExpiryDate != nil && !i.ExpiryDate.After(now) {
		return IngredientExpired
	}
	if i.Quantity <= 0 {
		return IngredientOutOfStock
	}
	threshold := i.MinQuantity
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	if i.Quantity <= threshold {
		return IngredientLow
	}
	return IngredientAvailable
}
