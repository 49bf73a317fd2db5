package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/repository"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/internal/notify"
	"github.com/ikkim/restaurant-pos/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentLockTTL bounds how long one payment attempt holds the order guard.
const PaymentLockTTL = 30 * time.Second

var payableStatuses = []model.PaymentStatus{model.PaymentStatusUnpaid, model.PaymentStatusFailed}

// Locker is an optional cross-process guard; pkg/redis.Client satisfies it.
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (bool, func(), error)
}

type PaymentRequest struct {
	Notes          string
	AmountTendered *decimal.Decimal
	// IdempotencyKey makes retries of the same attempt return the first result.
	IdempotencyKey string
}

type PaymentResult struct {
	Order   *model.Order   `json:"order"`
	Payment *model.Payment `json:"payment"`
}

type PaymentService interface {
	ProcessPayment(ctx context.Context, orderID uint, method model.PayMethod, req PaymentRequest) (*PaymentResult, error)
	RecordFailedPayment(ctx context.Context, orderID uint, method model.PayMethod, notes string) (*model.Payment, error)
	Refund(ctx context.Context, orderID uint, reason string) (*model.Payment, error)
	ListPayments(orderID uint) ([]model.Payment, error)
}

// paymentHandler builds the Payment row for one family of methods.
type paymentHandler interface {
	prepare(order *model.Order, method model.PayMethod, req PaymentRequest) (*model.Payment, error)
}

type cashHandler struct{}

func (cashHandler) prepare(order *model.Order, method model.PayMethod, req PaymentRequest) (*model.Payment, error) {
	p := &model.Payment{
		OrderID: order.ID,
		Amount:  order.TotalAmount,
		Method:  method,
		Status:  model.PaymentRecordSuccess,
		Notes:   req.Notes,
	}
	if req.AmountTendered != nil {
		tendered := *req.AmountTendered
		if tendered.LessThan(order.TotalAmount) {
			return nil, ErrInsufficientCash.WithMessage("amount tendered %s is less than the total %s",
				tendered.StringFixed(2), order.TotalAmount.StringFixed(2))
		}
		change := tendered.Sub(order.TotalAmount)
		p.AmountTendered = &tendered
		p.ChangeDue = &change
	}
	return p, nil
}

// electronicHandler covers transfers, cards and wallets. Settlement happens
// outside the till; the cashier confirms it.
type electronicHandler struct{}

func (electronicHandler) prepare(order *model.Order, method model.PayMethod, req PaymentRequest) (*model.Payment, error) {
	return &model.Payment{
		OrderID: order.ID,
		Amount:  order.TotalAmount,
		Method:  method,
		Status:  model.PaymentRecordSuccess,
		Notes:   req.Notes,
	}, nil
}

type paymentService struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	locker      Locker
	events      EventPublisher
	now         func() time.Time
}

// NewPaymentService wires the payment flow. locker may be nil; the database
// compare-and-set still guarantees a single successful payment.
func NewPaymentService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	locker Locker,
	events EventPublisher,
) PaymentService {
	return &paymentService{
		db:          db,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		locker:      locker,
		events:      publisherOrDiscard(events),
		now:         time.Now,
	}
}

func handlerFor(method model.PayMethod) (paymentHandler, bool) {
	switch {
	case method == model.PayMethodCash:
		return cashHandler{}, true
	case method.IsElectronic():
		return electronicHandler{}, true
	}
	return nil, false
}

func (s *paymentService) ProcessPayment(ctx context.Context, orderID uint, method model.PayMethod, req PaymentRequest) (*PaymentResult, error) {
	const op = "payment.ProcessPayment"

	logger.Info("Processing payment", map[string]interface{}{
		"order_id": orderID,
		"method":   method.String(),
	})

	handler, ok := handlerFor(method)
	if !ok {
		return nil, ErrUnsupportedMethod.WithOp(op)
	}

	if len(req.IdempotencyKey) > model.PaymentReferenceMaxLen {
		return nil, apperrors.Validation(apperrors.ValidationInvalidInput,
			"idempotency key must be at most %d characters", model.PaymentReferenceMaxLen).WithOp(op)
	}
	if req.IdempotencyKey != "" {
		if res, err := s.replay(op, orderID, req.IdempotencyKey); res != nil || err != nil {
			return res, err
		}
	}

	release, err := s.lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer release()

	var payment *model.Payment
	err = s.db.Transaction(func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)

		order, err := orders.FindByIDForUpdate(orderID)
		if err != nil {
			return apperrors.FromDB(op, err, ErrOrderNotFound)
		}
		if order.Status == model.OrderStatusCancelled {
			return ErrOrderCancelled.WithOp(op)
		}
		if order.PaymentStatus == model.PaymentStatusPaid || order.PaymentStatus == model.PaymentStatusRefunded {
			return ErrAlreadyPaid.WithOp(op)
		}

		payment, err = handler.prepare(order, method, req)
		if err != nil {
			var appErr *apperrors.Error
			if apperrors.As(err, &appErr) {
				return appErr.WithOp(op)
			}
			return err
		}
		payment.Reference = req.IdempotencyKey
		if payment.Reference == "" {
			payment.Reference = uuid.NewString()
		}
		payment.PaidAt = s.now()

		ok, err := orders.SetPaymentStatusIf(orderID, payableStatuses, model.PaymentStatusPaid)
		if err != nil {
			return apperrors.Storage(op, err)
		}
		if !ok {
			return ErrAlreadyPaid.WithOp(op)
		}
		if order.PayMethod != method {
			if err := orders.SetPayMethod(orderID, method); err != nil {
				return apperrors.Storage(op, err)
			}
		}
		if err := s.paymentRepo.WithTx(tx).Create(payment); err != nil {
			if apperrors.IsDuplicateKey(err) {
				return ErrAlreadyPaid.WithOp(op)
			}
			return apperrors.Storage(op, err)
		}
		return nil
	})
	if err != nil {
		logger.Warn("Payment rejected", map[string]interface{}{
			"order_id": orderID,
			"method":   method.String(),
			"error":    err.Error(),
		})
		return nil, err
	}

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, apperrors.FromDB(op, err, ErrOrderNotFound)
	}

	logger.Info("Payment confirmed", map[string]interface{}{
		"order_id":   orderID,
		"payment_id": payment.ID,
		"amount":     payment.Amount.String(),
		"method":     method.String(),
	})
	data := map[string]interface{}{
		"amount":     payment.Amount.String(),
		"pay_method": method.String(),
	}
	if payment.ChangeDue != nil {
		data["change_due"] = payment.ChangeDue.String()
	}
	emit(s.events, notify.EventPaymentConfirmed, orderID, data)

	return &PaymentResult{Order: order, Payment: payment}, nil
}

// replay returns the stored result of an earlier attempt with the same key.
func (s *paymentService) replay(op string, orderID uint, key string) (*PaymentResult, error) {
	prev, err := s.paymentRepo.FindByReference(key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Storage(op, err)
	}
	if prev.OrderID != orderID {
		return nil, apperrors.New(apperrors.KindConflict, apperrors.ResourceConflict,
			"idempotency key already used for another order").WithOp(op)
	}
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, apperrors.FromDB(op, err, ErrOrderNotFound)
	}
	logger.Info("Payment replayed from idempotency key", map[string]interface{}{
		"order_id":   orderID,
		"payment_id": prev.ID,
	})
	return &PaymentResult{Order: order, Payment: prev}, nil
}

func (s *paymentService) lock(ctx context.Context, orderID uint) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	ok, release, err := s.locker.TryLock(ctx, fmt.Sprintf("payment:order:%d", orderID), PaymentLockTTL)
	if err != nil {
		// Fall back to the database guard alone.
		logger.Warn("Payment lock unavailable", map[string]interface{}{
			"order_id": orderID,
			"error":    err.Error(),
		})
		return func() {}, nil
	}
	if !ok {
		return nil, ErrPaymentInProgress.WithOp("payment.lock")
	}
	return release, nil
}

func (s *paymentService) RecordFailedPayment(ctx context.Context, orderID uint, method model.PayMethod, notes string) (*model.Payment, error) {
	const op = "payment.RecordFailedPayment"

	if !method.Valid() {
		return nil, ErrUnsupportedMethod.WithOp(op)
	}

	release, err := s.lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer release()

	var payment *model.Payment
	err = s.db.Transaction(func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)
		order, err := orders.FindByIDForUpdate(orderID)
		if err != nil {
			return apperrors.FromDB(op, err, ErrOrderNotFound)
		}

		ok, err := orders.SetPaymentStatusIf(orderID, payableStatuses, model.PaymentStatusFailed)
		if err != nil {
			return apperrors.Storage(op, err)
		}
		if !ok {
			return ErrAlreadyPaid.WithOp(op)
		}

		payment = &model.Payment{
			OrderID:   orderID,
			Amount:    order.TotalAmount,
			Method:    method,
			Status:    model.PaymentRecordFailed,
			Reference: uuid.NewString(),
			Notes:     notes,
			PaidAt:    s.now(),
		}
		if err := s.paymentRepo.WithTx(tx).Create(payment); err != nil {
			return apperrors.Storage(op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Warn("Payment attempt failed", map[string]interface{}{
		"order_id": orderID,
		"method":   method.String(),
	})
	emit(s.events, notify.EventOrderUpdated, orderID, map[string]interface{}{
		"payment_status": model.PaymentStatusFailed.String(),
	})
	return payment, nil
}

// Refund reverses a paid order with a negative payment. The order status is
// left as it is and nothing is restocked.
func (s *paymentService) Refund(ctx context.Context, orderID uint, reason string) (*model.Payment, error) {
	const op = "payment.Refund"

	release, err := s.lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer release()

	var refund *model.Payment
	err = s.db.Transaction(func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)
		order, err := orders.FindByIDForUpdate(orderID)
		if err != nil {
			return apperrors.FromDB(op, err, ErrOrderNotFound)
		}
		if !order.IsPaid() {
			return ErrNotRefundable.WithOp(op)
		}

		ok, err := orders.SetPaymentStatusIf(orderID, []model.PaymentStatus{model.PaymentStatusPaid}, model.PaymentStatusRefunded)
		if err != nil {
			return apperrors.Storage(op, err)
		}
		if !ok {
			return ErrNotRefundable.WithOp(op)
		}

		refund = &model.Payment{
			OrderID:   orderID,
			Amount:    order.TotalAmount.Neg(),
			Method:    order.PayMethod,
			Status:    model.PaymentRecordSuccess,
			Reference: uuid.NewString(),
			Notes:     reason,
			PaidAt:    s.now(),
		}
		if err := s.paymentRepo.WithTx(tx).Create(refund); err != nil {
			return apperrors.Storage(op, err)
		}
		return nil
	})
	if err != nil {
		logger.Warn("Refund rejected", map[string]interface{}{
			"order_id": orderID,
			"error":    err.Error(),
		})
		return nil, err
	}

	logger.Info("Order refunded", map[string]interface{}{
		"order_id": orderID,
		"amount":   refund.Amount.String(),
		"reason":   reason,
	})
	emit(s.events, notify.EventOrderUpdated, orderID, map[string]interface{}{
		"payment_status": model.PaymentStatusRefunded.String(),
		"refund":         refund.Amount.Neg().String(),
	})
	return refund, nil
}

func (s *paymentService) ListPayments(orderID uint) ([]model.Payment, error) {
	if _, err := s.orderRepo.FindByID(orderID); err != nil {
		return nil, apperrors.FromDB("payment.ListPayments", err, ErrOrderNotFound)
	}
	payments, err := s.paymentRepo.FindByOrderID(orderID)
	if err != nil {
		return nil, apperrors.Storage("payment.ListPayments", err)
	}
	return payments, nil
}
