package service

import (
	"errors"
	"strings"

	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/repository"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/internal/notify"
	"github.com/ikkim/restaurant-pos/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LoyaltyPointUnit is the order total that earns one loyalty point.
var LoyaltyPointUnit = decimal.NewFromInt(10000)

type OrderService interface {
	CreateOrderFromCart(customerID uint, customerName, phone string, payMethod model.PayMethod, notes string) (*model.Order, error)
	GetOrder(orderID uint) (*model.Order, error)
	ListOrders(filter model.OrderFilter) ([]model.Order, int64, error)
	ListCustomerOrders(customerID uint, limit, offset int) ([]model.Order, int64, error)

	UpdateOrderStatus(orderID uint, status model.OrderStatus) (*model.Order, error)
	UpdatePaymentStatus(orderID uint, status model.PaymentStatus) (*model.Order, error)

	Confirm(orderID uint) (*model.Order, error)
	SendToKitchen(orderID uint) (*model.Order, error)
	StartCooking(orderID uint) (*model.Order, error)
	MarkReady(orderID uint) (*model.Order, error)
	Complete(orderID uint) (*model.Order, error)
	Cancel(orderID uint, reason string) (*model.Order, error)
}

type orderService struct {
	db           *gorm.DB
	orderRepo    repository.OrderRepository
	cartRepo     repository.CartRepository
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
	events       EventPublisher
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
	events EventPublisher,
) OrderService {
	return &orderService{
		db:           db,
		orderRepo:    orderRepo,
		cartRepo:     cartRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		events:       publisherOrDiscard(events),
	}
}

// CreateOrderFromCart converts the customer's active cart into a New, Unpaid
// order. Everything happens in one transaction: on any failure no order
// exists and the cart stays Active.
func (s *orderService) CreateOrderFromCart(customerID uint, customerName, phone string, payMethod model.PayMethod, notes string) (*model.Order, error) {
	const op = "order.CreateOrderFromCart"

	logger.Info("Creating order from cart", map[string]interface{}{
		"customer_id": customerID,
		"pay_method":  payMethod.String(),
	})

	if !payMethod.Valid() {
		return nil, ErrUnsupportedMethod.WithOp(op)
	}

	customerName = strings.TrimSpace(customerName)
	phone = strings.TrimSpace(phone)
	if customerName == "" || phone == "" {
		// Fall back to the registered customer profile when there is one.
		if c, err := s.customerRepo.FindByID(customerID); err == nil {
			if customerName == "" {
				customerName = c.Name
			}
			if phone == "" {
				phone = c.Phone
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Storage(op, err)
		}
	}
	if customerName == "" {
		return nil, apperrors.Validation(apperrors.ValidationRequired, "customer name is required").WithOp(op)
	}

	var order *model.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		carts := s.cartRepo.WithTx(tx)

		cart, err := carts.FindActiveByCustomerForUpdate(customerID)
		if err != nil {
			return apperrors.FromDB(op, err, ErrCartNotFound)
		}
		if len(cart.Items) == 0 {
			return ErrEmptyCart.WithOp(op)
		}

		problems, err := checkCartItems(s.productRepo.WithTx(tx), cart)
		if err != nil {
			return apperrors.Storage(op, err)
		}
		if len(problems) > 0 {
			reasons := make([]string, 0, len(problems))
			for _, p := range problems {
				reasons = append(reasons, p.Reason)
			}
			logger.Warn("Checkout rejected: cart has problems", map[string]interface{}{
				"cart_id":  cart.ID,
				"problems": reasons,
			})
			return ErrCartInvalid.WithOp(op).WithMessage("cart cannot be checked out: %s", strings.Join(reasons, "; "))
		}

		cid, cartID := customerID, cart.ID
		order = &model.Order{
			CustomerID:    &cid,
			CustomerName:  customerName,
			PhoneNumber:   phone,
			TotalAmount:   cart.TotalAmount,
			PayMethod:     payMethod,
			PaymentStatus: model.PaymentStatusUnpaid,
			Status:        model.OrderStatusNew,
			SourceCartID:  &cartID,
			Notes:         notes,
			Items:         make([]model.OrderItem, 0, len(cart.Items)),
		}
		for _, item := range cart.Items {
			order.Items = append(order.Items, model.OrderItem{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				Subtotal:    item.Subtotal,
				Notes:       item.Notes,
			})
		}

		if err := s.orderRepo.WithTx(tx).Create(order); err != nil {
			return apperrors.Storage(op, err)
		}

		ok, err := carts.MarkCheckedOut(cart.ID)
		if err != nil {
			return apperrors.Storage(op, err)
		}
		if !ok {
			return ErrCartNotActive.WithOp(op)
		}
		return nil
	})
	if err != nil {
		logger.Warn("Order creation failed", map[string]interface{}{
			"customer_id": customerID,
			"error":       err.Error(),
		})
		return nil, err
	}

	logger.Info("Order created", map[string]interface{}{
		"order_id":     order.ID,
		"customer_id":  customerID,
		"total_amount": order.TotalAmount.String(),
		"items":        len(order.Items),
	})
	emit(s.events, notify.EventNewOrder, order.ID, map[string]interface{}{
		"customer_name": order.CustomerName,
		"total_amount":  order.TotalAmount.String(),
		"pay_method":    order.PayMethod.String(),
		"items":         len(order.Items),
	})

	return s.GetOrder(order.ID)
}

func (s *orderService) GetOrder(orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, apperrors.FromDB("order.GetOrder", err, ErrOrderNotFound)
	}
	return order, nil
}

func (s *orderService) ListOrders(filter model.OrderFilter) ([]model.Order, int64, error) {
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, 0, apperrors.Validation("", "unknown order status %d", int(st))
		}
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, 0, ErrInvalidRange.WithOp("order.ListOrders")
	}

	orders, total, err := s.orderRepo.List(filter)
	if err != nil {
		return nil, 0, apperrors.Storage("order.ListOrders", err)
	}
	return orders, total, nil
}

func (s *orderService) ListCustomerOrders(customerID uint, limit, offset int) ([]model.Order, int64, error) {
	return s.ListOrders(model.OrderFilter{CustomerID: &customerID, Limit: limit, Offset: offset})
}

// UpdateOrderStatus moves the order to status along the transition table.
func (s *orderService) UpdateOrderStatus(orderID uint, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, apperrors.Validation("", "unknown order status %d", int(status))
	}
	t, ok := model.TransitionTo(status)
	if !ok {
		return nil, ErrInvalidTransition.WithOp("order.UpdateOrderStatus").
			WithMessage("no transition leads to %s", status)
	}
	return s.apply(orderID, t)
}

func (s *orderService) UpdatePaymentStatus(orderID uint, status model.PaymentStatus) (*model.Order, error) {
	const op = "order.UpdatePaymentStatus"

	if !status.Valid() {
		return nil, apperrors.Validation("", "unknown payment status %d", int(status))
	}
	if err := s.orderRepo.UpdatePaymentStatus(orderID, status); err != nil {
		return nil, apperrors.FromDB(op, err, ErrOrderNotFound)
	}

	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	logger.Info("Order payment status updated", map[string]interface{}{
		"order_id":       orderID,
		"payment_status": status.String(),
	})
	if status == model.PaymentStatusPaid {
		emit(s.events, notify.EventPaymentConfirmed, orderID, map[string]interface{}{
			"total_amount": order.TotalAmount.String(),
			"pay_method":   order.PayMethod.String(),
		})
	} else {
		emit(s.events, notify.EventOrderUpdated, orderID, map[string]interface{}{
			"payment_status": status.String(),
		})
	}
	return order, nil
}

func (s *orderService) Confirm(orderID uint) (*model.Order, error) {
	return s.act(orderID, model.ActionConfirm)
}

func (s *orderService) SendToKitchen(orderID uint) (*model.Order, error) {
	return s.act(orderID, model.ActionSendToKitchen)
}

func (s *orderService) StartCooking(orderID uint) (*model.Order, error) {
	return s.act(orderID, model.ActionStartCooking)
}

func (s *orderService) MarkReady(orderID uint) (*model.Order, error) {
	return s.act(orderID, model.ActionMarkReady)
}

func (s *orderService) Complete(orderID uint) (*model.Order, error) {
	return s.act(orderID, model.ActionComplete)
}

func (s *orderService) Cancel(orderID uint, reason string) (*model.Order, error) {
	order, err := s.act(orderID, model.ActionCancel)
	if err != nil {
		return nil, err
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		if err := s.orderRepo.AppendNote(orderID, "cancelled: "+reason); err != nil {
			// The cancellation itself already succeeded.
			logger.Error("Failed to record cancel reason", err, map[string]interface{}{
				"order_id": orderID,
			})
			return order, nil
		}
		return s.GetOrder(orderID)
	}
	return order, nil
}

func (s *orderService) act(orderID uint, action model.OrderAction) (*model.Order, error) {
	t, ok := model.TransitionFor(action)
	if !ok {
		return nil, apperrors.Internal("order.act", errors.New("unknown action "+string(action)))
	}
	return s.apply(orderID, t)
}

// apply performs one edge of the lifecycle as a conditional update. When the
// update matches no row the current order is read to explain why.
func (s *orderService) apply(orderID uint, t model.Transition) (*model.Order, error) {
	op := "order." + string(t.Action)

	ok, err := s.orderRepo.TransitionStatus(orderID, t.From, t.To, t.RequirePaid)
	if err != nil {
		return nil, apperrors.Storage(op, err)
	}
	if !ok {
		return nil, s.explainRejected(op, orderID, t)
	}

	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	logger.Info("Order status changed", map[string]interface{}{
		"order_id": orderID,
		"action":   string(t.Action),
		"status":   order.Status.String(),
	})
	emit(s.events, notify.EventOrderUpdated, orderID, map[string]interface{}{
		"action": string(t.Action),
		"status": order.Status.String(),
	})
	switch order.Status {
	case model.OrderStatusReady:
		emit(s.events, notify.EventOrderReady, orderID, map[string]interface{}{
			"customer_name": order.CustomerName,
		})
	case model.OrderStatusCompleted:
		s.awardLoyalty(order)
	}
	return order, nil
}

func (s *orderService) explainRejected(op string, orderID uint, t model.Transition) error {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return apperrors.FromDB(op, err, ErrOrderNotFound)
	}

	logger.Warn("Order status change rejected", map[string]interface{}{
		"order_id": orderID,
		"action":   string(t.Action),
		"status":   order.Status.String(),
	})

	if t.RequirePaid && t.Allows(order.Status) && !order.IsPaid() {
		return ErrOrderNotPaid.WithOp(op)
	}
	if order.Status == model.OrderStatusCancelled {
		return ErrOrderCancelled.WithOp(op)
	}
	return ErrInvalidTransition.WithOp(op).
		WithMessage("cannot %s an order that is %s", strings.ReplaceAll(string(t.Action), "_", " "), order.Status)
}

// awardLoyalty credits one point per LoyaltyPointUnit of the total. Failures
// are logged; the order is already completed.
func (s *orderService) awardLoyalty(order *model.Order) {
	if order.CustomerID == nil {
		return
	}
	points := order.TotalAmount.Div(LoyaltyPointUnit).Floor().IntPart()
	if points <= 0 {
		return
	}
	if err := s.customerRepo.AddLoyaltyPoints(*order.CustomerID, int(points)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return
		}
		logger.Error("Failed to award loyalty points", err, map[string]interface{}{
			"order_id":    order.ID,
			"customer_id": *order.CustomerID,
		})
		return
	}
	logger.Info("Loyalty points awarded", map[string]interface{}{
		"order_id":    order.ID,
		"customer_id": *order.CustomerID,
		"points":      points,
	})
}
