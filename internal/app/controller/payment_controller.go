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

// IdempotencyKeyHeader lets a till retry a payment without charging twice.
const IdempotencyKeyHeader = "Idempotency-Key"

type PaymentController struct {
	paymentService service.PaymentService
}

func NewPaymentController(paymentService service.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
	}
}

type ProcessPaymentRequest struct {
	Method         *model.PayMethod `json:"method" binding:"required"`
	AmountTendered *decimal.Decimal `json:"amount_tendered"`
	Notes          string           `json:"notes" binding:"max=500"`
}

type FailedPaymentRequest struct {
	Method *model.PayMethod `json:"method" binding:"required"`
	Notes  string           `json:"notes" binding:"max=500"`
}

type RefundRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ProcessPayment 결제 처리 (현금 / 전자결제)
// POST /api/v1/orders/:id/payments
func (ctrl *PaymentController) ProcessPayment(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req ProcessPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := ctrl.paymentService.ProcessPayment(c.Request.Context(), orderID, *req.Method, service.PaymentRequest{
		Notes:          req.Notes,
		AmountTendered: req.AmountTendered,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		log.Warn("Payment rejected", map[string]interface{}{
			"order_id": orderID,
			"method":   req.Method.String(),
			"error":    err.Error(),
		})
		apperrors.Respond(c, err)
		return
	}

	log.Info("Payment processed", map[string]interface{}{
		"order_id":   orderID,
		"payment_id": result.Payment.ID,
		"method":     result.Payment.Method.String(),
		"amount":     result.Payment.Amount.String(),
	})

	c.JSON(http.StatusOK, result)
}

// RecordFailedPayment 실패한 결제 시도 기록
// POST /api/v1/orders/:id/payments/failed
func (ctrl *PaymentController) RecordFailedPayment(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req FailedPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	payment, err := ctrl.paymentService.RecordFailedPayment(c.Request.Context(), orderID, *req.Method, req.Notes)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"payment": payment,
	})
}

// Refund 환불 (주문 상태는 그대로, 재고 복원 없음)
// POST /api/v1/orders/:id/refund
func (ctrl *PaymentController) Refund(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req RefundRequest
	if !bindJSON(c, &req) {
		return
	}

	payment, err := ctrl.paymentService.Refund(c.Request.Context(), orderID, req.Reason)
	if err != nil {
		log.Warn("Refund rejected", map[string]interface{}{
			"order_id": orderID,
			"error":    err.Error(),
		})
		apperrors.Respond(c, err)
		return
	}

	log.Info("Order refunded", map[string]interface{}{
		"order_id": orderID,
		"amount":   payment.Amount.String(),
	})

	c.JSON(http.StatusOK, gin.H{
		"payment": payment,
	})
}

// ListPayments 주문 결제 내역
// GET /api/v1/orders/:id/payments
func (ctrl *PaymentController) ListPayments(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	payments, err := ctrl.paymentService.ListPayments(orderID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payments": payments,
		"count":    len(payments),
	})
}
