package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentRecordStatus int

const (
	PaymentRecordFailed  PaymentRecordStatus = 0
	PaymentRecordSuccess PaymentRecordStatus = 1
)

func (s PaymentRecordStatus) String() string {
	if s == PaymentRecordSuccess {
		return "success"
	}
	return "failed"
}

// Payment is one money movement against an order. Refunds are stored as
// negative amounts so SUM(amount) is the net collected.
// PaymentReferenceMaxLen bounds Payment.Reference, which also stores
// client idempotency keys.
const PaymentReferenceMaxLen = 64

type Payment struct {
	ID             uint                `gorm:"primarykey" json:"id"`
	OrderID        uint                `gorm:"not null;index" json:"order_id"`
	Amount         decimal.Decimal     `gorm:"type:decimal(14,2);not null" json:"amount"`
	Method         PayMethod           `gorm:"not null" json:"method"`
	Status         PaymentRecordStatus `gorm:"not null" json:"status"`
	Reference      string              `gorm:"type:varchar(64);uniqueIndex" json:"reference"`
	AmountTendered *decimal.Decimal    `gorm:"type:decimal(14,2)" json:"amount_tendered,omitempty"`
	ChangeDue      *decimal.Decimal    `gorm:"type:decimal(14,2)" json:"change_due,omitempty"`
	Notes          string              `gorm:"type:text" json:"notes,omitempty"`
	PaidAt         time.Time           `gorm:"index" json:"paid_at"`
	CreatedAt      time.Time           `json:"created_at"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) IsRefund() bool {
	return p.Amount.IsNegative()
}
