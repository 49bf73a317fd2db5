package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/restaurant-pos/internal/app/service"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/internal/middleware"
)

// CustomerController 고객 관리 (staff)
type CustomerController struct {
	customerService service.CustomerService
}

func NewCustomerController(customerService service.CustomerService) *CustomerController {
	return &CustomerController{
		customerService: customerService,
	}
}

type AddPointsRequest struct {
	Points int `json:"points" binding:"required,gt=0"`
}

// ListCustomers GET /api/v1/customers?search=&page=&page_size=
func (ctrl *CustomerController) ListCustomers(c *gin.Context) {
	page, pageSize := pagination(c)
	customers, total, err := ctrl.customerService.ListCustomers(c.Query("search"), page, pageSize)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"customers": customers,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// LookupByPhone 전화번호로 고객 찾기 (카운터 주문용)
// GET /api/v1/customers/lookup?phone=
func (ctrl *CustomerController) LookupByPhone(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "phone is required")
		return
	}
	customer, err := ctrl.customerService.FindByPhone(phone)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"customer": customer,
	})
}

// GetCustomer GET /api/v1/customers/:customer_id
func (ctrl *CustomerController) GetCustomer(c *gin.Context) {
	id, ok := parseID(c, "customer_id")
	if !ok {
		return
	}
	customer, err := ctrl.customerService.GetCustomer(id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"customer": customer,
	})
}

// RegisterCustomer 비회원(워크인) 고객 등록. 같은 번호가 있으면 기존 고객을 돌려준다.
// POST /api/v1/customers
func (ctrl *CustomerController) RegisterCustomer(c *gin.Context) {
	var req service.CustomerInput
	if !bindJSON(c, &req) {
		return
	}

	if c.Query("upsert") == "true" {
		customer, err := ctrl.customerService.FindOrCreateByPhone(req.Name, req.Phone)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"customer": customer,
		})
		return
	}

	customer, err := ctrl.customerService.RegisterCustomer(req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	middleware.GetLoggerFromContext(c).Info("Customer registered", map[string]interface{}{
		"customer_id": customer.ID,
	})
	c.JSON(http.StatusCreated, gin.H{
		"customer": customer,
	})
}

// UpdateCustomer PUT /api/v1/customers/:customer_id
func (ctrl *CustomerController) UpdateCustomer(c *gin.Context) {
	id, ok := parseID(c, "customer_id")
	if !ok {
		return
	}
	var req service.CustomerInput
	if !bindJSON(c, &req) {
		return
	}
	customer, err := ctrl.customerService.UpdateCustomer(id, req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"customer": customer,
	})
}

// AddPoints 포인트 수동 적립 (manager)
// POST /api/v1/customers/:customer_id/points
func (ctrl *CustomerController) AddPoints(c *gin.Context) {
	id, ok := parseID(c, "customer_id")
	if !ok {
		return
	}
	var req AddPointsRequest
	if !bindJSON(c, &req) {
		return
	}
	customer, err := ctrl.customerService.AddLoyaltyPoints(id, req.Points)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	middleware.GetLoggerFromContext(c).Info("Loyalty points added", map[string]interface{}{
		"customer_id": id,
		"points":      req.Points,
		"balance":     customer.LoyaltyPoints,
	})
	c.JSON(http.StatusOK, gin.H{
		"customer": customer,
	})
}
