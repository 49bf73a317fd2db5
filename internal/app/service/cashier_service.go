package service

import (
	"context"

	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/shopspring/decimal"
)

// CashierService is the front counter's view: taking orders, settling them
// and handing them over.
type CashierService interface {
	PendingOrders() ([]model.Order, error)
	ReadyForPickup() ([]model.Order, error)
	ConfirmOrder(orderID uint) (*model.Order, error)
	CheckoutCart(customerID uint, customerName, phone string, payMethod model.PayMethod, notes string) (*model.Order, error)
	ConfirmCashPayment(ctx context.Context, orderID uint, tendered *decimal.Decimal, notes string) (*PaymentResult, error)
	ConfirmTransferPayment(ctx context.Context, orderID uint, notes string) (*PaymentResult, error)
	SendToKitchen(orderID uint) (*model.Order, error)
	HandOver(orderID uint) (*model.Order, error)
	CancelOrder(orderID uint, reason string) (*model.Order, error)
}

type cashierService struct {
	orders   OrderService
	payments PaymentService
}

func NewCashierService(orders OrderService, payments PaymentService) CashierService {
	return &cashierService{orders: orders, payments: payments}
}

func (s *cashierService) PendingOrders() ([]model.Order, error) {
	orders, _, err := s.orders.ListOrders(model.OrderFilter{
		Statuses:    []model.OrderStatus{model.OrderStatusNew, model.OrderStatusConfirmed},
		OldestFirst: true,
	})
	return orders, err
}

func (s *cashierService) ReadyForPickup() ([]model.Order, error) {
	orders, _, err := s.orders.ListOrders(model.OrderFilter{
		Statuses:    []model.OrderStatus{model.OrderStatusReady},
		OldestFirst: true,
	})
	return orders, err
}

func (s *cashierService) ConfirmOrder(orderID uint) (*model.Order, error) {
	return s.orders.Confirm(orderID)
}

func (s *cashierService) CheckoutCart(customerID uint, customerName, phone string, payMethod model.PayMethod, notes string) (*model.Order, error) {
	return s.orders.CreateOrderFromCart(customerID, customerName, phone, payMethod, notes)
}

func (s *cashierService) ConfirmCashPayment(ctx context.Context, orderID uint, tendered *decimal.Decimal, notes string) (*PaymentResult, error) {
	return s.payments.ProcessPayment(ctx, orderID, model.PayMethodCash, PaymentRequest{
		Notes:          notes,
		AmountTendered: tendered,
	})
}

func (s *cashierService) ConfirmTransferPayment(ctx context.Context, orderID uint, notes string) (*PaymentResult, error) {
	return s.payments.ProcessPayment(ctx, orderID, model.PayMethodTransfer, PaymentRequest{Notes: notes})
}

func (s *cashierService) SendToKitchen(orderID uint) (*model.Order, error) {
	return s.orders.SendToKitchen(orderID)
}

// HandOver completes a Ready order at the counter.
func (s *cashierService) HandOver(orderID uint) (*model.Order, error) {
	return s.orders.Complete(orderID)
}

func (s *cashierService) CancelOrder(orderID uint, reason string) (*model.Order, error) {
	return s.orders.Cancel(orderID, reason)
}
