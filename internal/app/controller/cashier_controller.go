package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/service"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/internal/middleware"
	"github.com/shopspring/decimal"
)

// CashierController 계산대 패널
type CashierController struct {
	cashierService service.CashierService
}

func NewCashierController(cashierService service.CashierService) *CashierController {
	return &CashierController{
		cashierService: cashierService,
	}
}

type CashPaymentRequest struct {
	Tendered *decimal.Decimal `json:"tendered"`
	Notes    string           `json:"notes" binding:"max=500"`
}

type TransferPaymentRequest struct {
	Notes string `json:"notes" binding:"max=500"`
}

// PendingOrders 확인 대기 주문 (New, Confirmed)
// GET /api/v1/cashier/pending
func (ctrl *CashierController) PendingOrders(c *gin.Context) {
	ctrl.list(c, ctrl.cashierService.PendingOrders)
}

// ReadyForPickup 전달 대기 주문
// GET /api/v1/cashier/ready
func (ctrl *CashierController) ReadyForPickup(c *gin.Context) {
	ctrl.list(c, ctrl.cashierService.ReadyForPickup)
}

func (ctrl *CashierController) list(c *gin.Context, fn func() ([]model.Order, error)) {
	orders, err := fn()
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// Checkout 카운터에서 고객 장바구니를 주문으로 전환
// POST /api/v1/cashier/customers/:customer_id/checkout
func (ctrl *CashierController) Checkout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	customerID, ok := parseID(c, "customer_id")
	if !ok {
		return
	}

	var req CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := ctrl.cashierService.CheckoutCart(customerID, req.CustomerName, req.PhoneNumber, *req.PayMethod, req.Notes)
	if err != nil {
		log.Warn("Counter checkout failed", map[string]interface{}{
			"customer_id": customerID,
			"error":       err.Error(),
		})
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order": order,
	})
}

// ConfirmOrder 주문 확인
// POST /api/v1/cashier/orders/:id/confirm
func (ctrl *CashierController) ConfirmOrder(c *gin.Context) {
	ctrl.step(c, "confirm", ctrl.cashierService.ConfirmOrder)
}

// SendToKitchen 결제된 주문을 주방으로
// POST /api/v1/cashier/orders/:id/send-to-kitchen
func (ctrl *CashierController) SendToKitchen(c *gin.Context) {
	ctrl.step(c, "send_to_kitchen", ctrl.cashierService.SendToKitchen)
}

// HandOver 고객에게 전달 (완료)
// POST /api/v1/cashier/orders/:id/hand-over
func (ctrl *CashierController) HandOver(c *gin.Context) {
	ctrl.step(c, "hand_over", ctrl.cashierService.HandOver)
}

// CancelOrder 주문 취소
// POST /api/v1/cashier/orders/:id/cancel
func (ctrl *CashierController) CancelOrder(c *gin.Context) {
	var req CancelOrderRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	ctrl.step(c, "cancel", func(orderID uint) (*model.Order, error) {
		return ctrl.cashierService.CancelOrder(orderID, req.Reason)
	})
}

func (ctrl *CashierController) step(c *gin.Context, name string, fn func(orderID uint) (*model.Order, error)) {
	log := middleware.GetLoggerFromContext(c)

	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := fn(orderID)
	if err != nil {
		log.Warn("Cashier step rejected", map[string]interface{}{
			"step":     name,
			"order_id": orderID,
			"error":    err.Error(),
		})
		apperrors.Respond(c, err)
		return
	}

	log.Info("Cashier step done", map[string]interface{}{
		"step":     name,
		"order_id": orderID,
		"status":   order.Status.String(),
	})

	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}

// CashPayment 현금 결제 (거스름돈 계산)
// POST /api/v1/cashier/orders/:id/cash-payment
func (ctrl *CashierController) CashPayment(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CashPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := ctrl.cashierService.ConfirmCashPayment(c.Request.Context(), orderID, req.Tendered, req.Notes)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	middleware.GetLoggerFromContext(c).Info("Cash payment confirmed", map[string]interface{}{
		"order_id": orderID,
		"amount":   result.Payment.Amount.String(),
	})

	c.JSON(http.StatusOK, result)
}

// TransferPayment 계좌이체 확인
// POST /api/v1/cashier/orders/:id/transfer-payment
func (ctrl *CashierController) TransferPayment(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req TransferPaymentRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	result, err := ctrl.cashierService.ConfirmTransferPayment(c.Request.Context(), orderID, req.Notes)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	middleware.GetLoggerFromContext(c).Info("Transfer payment confirmed", map[string]interface{}{
		"order_id": orderID,
		"amount":   result.Payment.Amount.String(),
	})

	c.JSON(http.StatusOK, result)
}
