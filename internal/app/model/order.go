package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PayMethod int     // 결제 수단
type PaymentStatus int // 주문의 결제 상태

const (
	PayMethodCash     PayMethod = 0
	PayMethodTransfer PayMethod = 1
	PayMethodCard     PayMethod = 2
	PayMethodMoMo     PayMethod = 3
	PayMethodVNPay    PayMethod = 4

	PaymentStatusUnpaid   PaymentStatus = 0
	PaymentStatusPaid     PaymentStatus = 1
	PaymentStatusRefunded PaymentStatus = 2
	PaymentStatusFailed   PaymentStatus = 3
)

func (m PayMethod) String() string {
	switch m {
	case PayMethodCash:
		return "cash"
	case PayMethodTransfer:
		return "transfer"
	case PayMethodCard:
		return "card"
	case PayMethodMoMo:
		return "momo"
	case PayMethodVNPay:
		return "vnpay"
	default:
		return "unknown"
	}
}

func (m PayMethod) Valid() bool {
	return m >= PayMethodCash && m <= PayMethodVNPay
}

// IsElectronic is true for every method settled outside the till.
func (m PayMethod) IsElectronic() bool {
	return m.Valid() && m != PayMethodCash
}

func (s PaymentStatus) String() string {
	switch s {
	case PaymentStatusUnpaid:
		return "unpaid"
	case PaymentStatusPaid:
		return "paid"
	case PaymentStatusRefunded:
		return "refunded"
	case PaymentStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s PaymentStatus) Valid() bool {
	return s >= PaymentStatusUnpaid && s <= PaymentStatusFailed
}

type Order struct {
	ID             uint            `gorm:"primarykey" json:"id"`                                                   // 주문 ID
	CustomerID     *uint           `gorm:"index" json:"customer_id,omitempty"`                                     // 회원 고객 (비회원 주문은 NULL)
	CustomerName   string          `gorm:"not null" json:"customer_name"`                                          // 주문자 이름
	PhoneNumber    string          `gorm:"type:varchar(20)" json:"phone_number"`                                   // 연락처
	TotalAmount    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_amount"`                        // 총 금액
	PayMethod      PayMethod       `gorm:"not null;default:0" json:"pay_method"`                                   // 결제 수단
	PaymentStatus  PaymentStatus   `gorm:"not null;default:0;index" json:"payment_status"`                         // 결제 상태
	Status         OrderStatus     `gorm:"not null;default:0;index" json:"status"`                                 // 진행 상태
	AssignedChefID *uint           `gorm:"index" json:"assigned_chef_id,omitempty"`                                // 담당 셰프 (employee)
	SourceCartID   *uint           `gorm:"index" json:"source_cart_id,omitempty"`                                  // 원본 장바구니
	Notes          string          `gorm:"type:text" json:"notes,omitempty"`                                       // 요청 사항
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`                                                // 생성 시각
	UpdatedAt      time.Time       `json:"updated_at"`                                                             // 수정 시각
	Items          []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:RESTRICT" json:"items,omitempty"` // 주문 항목
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// OrderItem is an immutable snapshot of a cart line at checkout.
type OrderItem struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	OrderID     uint            `gorm:"not null;index" json:"order_id"`
	ProductID   uint            `gorm:"not null;index" json:"product_id"`
	ProductName string          `gorm:"not null" json:"product_name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"unit_price"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"subtotal"`
	Notes       string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// OrderFilter narrows order listings. Zero values mean "any".
type OrderFilter struct {
	Statuses      []OrderStatus
	PaymentStatus *PaymentStatus
	CustomerID    *uint
	ChefID        *uint
	From          *time.Time
	To            *time.Time
	Limit         int
	Offset        int
	OldestFirst   bool
}
