package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartStatus int // 장바구니 상태 코드

const (
	CartStatusActive     CartStatus = 0 // 주문 전
	CartStatusCheckedOut CartStatus = 1 // 주문 완료
	CartStatusAbandoned  CartStatus = 2 // 방치되어 폐기
)

func (s CartStatus) String() string {
	switch s {
	case CartStatusActive:
		return "active"
	case CartStatusCheckedOut:
		return "checked_out"
	case CartStatusAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Cart is a customer's pending selection. At most one Active cart exists per
// customer: ActiveCustomerID mirrors CustomerID while Active and is NULL
// otherwise, and carries a unique index.
type Cart struct {
	ID               uint            `gorm:"primarykey" json:"id"`
	CustomerID       uint            `gorm:"not null;index" json:"customer_id"`
	ActiveCustomerID *uint           `gorm:"uniqueIndex" json:"-"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"total_amount"`
	Status           CartStatus      `gorm:"not null;default:0;index" json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Cart) TableName() string {
	return "carts"
}

func (c *Cart) IsActive() bool {
	return c.Status == CartStatusActive
}

// ItemCount is the number of units across all lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// CartItem is one product line. Product fields are copied when the line is
// first added so later menu edits do not rewrite a pending cart.
type CartItem struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	CartID      uint            `gorm:"not null;uniqueIndex:idx_cart_items_cart_product" json:"cart_id"`
	ProductID   uint            `gorm:"not null;uniqueIndex:idx_cart_items_cart_product" json:"product_id"`
	ProductName string          `gorm:"not null" json:"product_name"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"unit_price"`
	ImageURL    string          `json:"image_url,omitempty"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"subtotal"`
	Notes       string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// LineTotal is unit price times quantity.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// CartProblem describes one reason a cart cannot be checked out.
type CartProblem struct {
	ProductID uint   `json:"product_id,omitempty"`
	Reason    string `json:"reason"`
}

type CartValidation struct {
	Valid    bool          `json:"valid"`
	Problems []CartProblem `json:"problems,omitempty"`
}
