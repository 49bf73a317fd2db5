package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/service"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/internal/middleware"
)

type OrderController struct {
	orderService service.OrderService
	customers    CustomerLookup
}

func NewOrderController(orderService service.OrderService, customers CustomerLookup) *OrderController {
	return &OrderController{
		orderService: orderService,
		customers:    customers,
	}
}

type CreateOrderRequest struct {
	CustomerName string           `json:"customer_name" binding:"max=100"`
	PhoneNumber  string           `json:"phone_number" binding:"max=20"`
	PayMethod    *model.PayMethod `json:"pay_method" binding:"required"`
	Notes        string           `json:"notes" binding:"max=500"`
}

type UpdateOrderStatusRequest struct {
	// 숫자 코드 또는 이름 (e.g. "ready")
	Status string `json:"status" binding:"required"`
}

type UpdatePaymentStatusRequest struct {
	Status *model.PaymentStatus `json:"status" binding:"required"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// CreateOrder 장바구니 → 주문 (하나의 트랜잭션)
// POST /api/v1/customers/:customer_id/orders
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	customerID, ok := customerParam(c, ctrl.customers)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := ctrl.orderService.CreateOrderFromCart(customerID, req.CustomerName, req.PhoneNumber, *req.PayMethod, req.Notes)
	if err != nil {
		log.Warn("Checkout failed", map[string]interface{}{
			"customer_id": customerID,
			"error":       err.Error(),
		})
		apperrors.Respond(c, err)
		return
	}

	log.Info("Order created from cart", map[string]interface{}{
		"customer_id": customerID,
		"order_id":    order.ID,
		"total":       order.TotalAmount.String(),
	})

	c.JSON(http.StatusCreated, gin.H{
		"order": order,
	})
}

// ListCustomerOrders 고객 주문 내역
// GET /api/v1/customers/:customer_id/orders
func (ctrl *OrderController) ListCustomerOrders(c *gin.Context) {
	customerID, ok := customerParam(c, ctrl.customers)
	if !ok {
		return
	}

	page, pageSize := pagination(c)
	orders, total, err := ctrl.orderService.ListCustomerOrders(customerID, pageSize, (page-1)*pageSize)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders":    orders,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// ListOrders 주문 목록 (staff)
// GET /api/v1/orders?status=new,confirmed&payment_status=1&customer_id=&chef_id=&from=&to=
func (ctrl *OrderController) ListOrders(c *gin.Context) {
	page, pageSize := pagination(c)
	filter := model.OrderFilter{
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}

	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status, err := model.ParseOrderStatus(part)
			if err != nil {
				apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
				return
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	if raw := c.Query("payment_status"); raw != "" {
		n, err := strconv.Atoi(raw)
		ps := model.PaymentStatus(n)
		if err != nil || !ps.Valid() {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "unknown payment_status "+raw)
			return
		}
		filter.PaymentStatus = &ps
	}
	for key, dst := range map[string]**uint{"customer_id": &filter.CustomerID, "chef_id": &filter.ChefID} {
		if raw := c.Query(key); raw != "" {
			n, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid "+key)
				return
			}
			id := uint(n)
			*dst = &id
		}
	}
	if c.Query("from") != "" || c.Query("to") != "" {
		from, to, ok := dateRange(c)
		if !ok {
			return
		}
		filter.From, filter.To = &from, &to
	}

	orders, total, err := ctrl.orderService.ListOrders(filter)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders":    orders,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetOrder 주문 상세. 고객은 본인 주문만 조회 가능.
// GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.GetOrder(id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	if role, _ := middleware.GetUserRole(c); role == model.RoleCustomer {
		userID, _ := middleware.GetUserID(c)
		own, err := ctrl.customers.FindByUserID(userID)
		if err != nil || order.CustomerID == nil || *order.CustomerID != own.ID {
			// 존재 여부를 노출하지 않는다
			apperrors.Respond(c, service.ErrOrderNotFound)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}

// UpdateOrderStatus 상태 직접 변경 (전이표에 있는 경우만)
// PATCH /api/v1/orders/:id/status
func (ctrl *OrderController) UpdateOrderStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	status, err := model.ParseOrderStatus(req.Status)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
		return
	}

	order, err := ctrl.orderService.UpdateOrderStatus(id, status)
	if err != nil {
		log.Warn("Order status change rejected", map[string]interface{}{
			"order_id": id,
			"target":   status.String(),
			"error":    err.Error(),
		})
		apperrors.Respond(c, err)
		return
	}

	log.Info("Order status updated", map[string]interface{}{
		"order_id": id,
		"status":   order.Status.String(),
	})

	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}

// UpdatePaymentStatus 결제 상태 수동 변경 (manager)
// PATCH /api/v1/orders/:id/payment-status
func (ctrl *OrderController) UpdatePaymentStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdatePaymentStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := ctrl.orderService.UpdatePaymentStatus(id, *req.Status)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	middleware.GetLoggerFromContext(c).Info("Order payment status updated", map[string]interface{}{
		"order_id":       id,
		"payment_status": order.PaymentStatus.String(),
	})

	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}

// ApplyAction 수명주기 단계 실행
// POST /api/v1/orders/:id/actions/:action
func (ctrl *OrderController) ApplyAction(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	action := model.OrderAction(c.Param("action"))
	var (
		order *model.Order
		err   error
	)
	switch action {
	case model.ActionConfirm:
		order, err = ctrl.orderService.Confirm(id)
	case model.ActionSendToKitchen:
		order, err = ctrl.orderService.SendToKitchen(id)
	case model.ActionStartCooking:
		order, err = ctrl.orderService.StartCooking(id)
	case model.ActionMarkReady:
		order, err = ctrl.orderService.MarkReady(id)
	case model.ActionComplete:
		order, err = ctrl.orderService.Complete(id)
	case model.ActionCancel:
		var req CancelOrderRequest
		if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
			return
		}
		order, err = ctrl.orderService.Cancel(id, req.Reason)
	default:
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "unknown action "+string(action))
		return
	}
	if err != nil {
		log.Warn("Order action rejected", map[string]interface{}{
			"order_id": id,
			"action":   action,
			"error":    err.Error(),
		})
		apperrors.Respond(c, err)
		return
	}

	log.Info("Order action applied", map[string]interface{}{
		"order_id": id,
		"action":   action,
		"status":   order.Status.String(),
	})

	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}
