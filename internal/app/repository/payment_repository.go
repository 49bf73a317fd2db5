package repository

import (
	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/pkg/logger"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	WithTx(tx *gorm.DB) PaymentRepository
	Create(payment *model.Payment) error
	FindByOrderID(orderID uint) ([]model.Payment, error)
	FindByReference(reference string) (*model.Payment, error)
	CountSuccessful(orderID uint) (int64, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) WithTx(tx *gorm.DB) PaymentRepository {
	return &paymentRepository{db: tx}
}

func (r *paymentRepository) Create(payment *model.Payment) error {
	logger.Debug("Creating payment in database", map[string]interface{}{
		"order_id": payment.OrderID,
		"amount":   payment.Amount.String(),
		"method":   payment.Method.String(),
		"status":   payment.Status.String(),
	})

	if err := r.db.Create(payment).Error; err != nil {
		logger.Error("Failed to create payment in database", err, map[string]interface{}{
			"order_id": payment.OrderID,
			"amount":   payment.Amount.String(),
		})
		return err
	}

	logger.Debug("Payment created in database", map[string]interface{}{
		"payment_id": payment.ID,
		"order_id":   payment.OrderID,
		"reference":  payment.Reference,
	})
	return nil
}

func (r *paymentRepository) FindByOrderID(orderID uint) ([]model.Payment, error) {
	var payments []model.Payment
	if err := r.db.Where("order_id = ?", orderID).Order("id ASC").Find(&payments).Error; err != nil {
		logger.Error("Failed to find payments by order in database", err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, err
	}
	return payments, nil
}

func (r *paymentRepository) FindByReference(reference string) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.Where("reference = ?", reference).First(&payment).Error; err != nil {
		logLookupError("Failed to find payment by reference in database", err, map[string]interface{}{
			"reference": reference,
		})
		return nil, err
	}
	return &payment, nil
}

// CountSuccessful counts positive successful payments for the order.
func (r *paymentRepository) CountSuccessful(orderID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Payment{}).
		Where("order_id = ? AND status = ? AND amount > 0", orderID, model.PaymentRecordSuccess).
		Count(&count).Error
	if err != nil {
		logger.Error("Failed to count payments in database", err, map[string]interface{}{
			"order_id": orderID,
		})
		return 0, err
	}
	return count, nil
}
