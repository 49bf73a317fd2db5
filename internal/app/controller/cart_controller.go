package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/restaurant-pos/internal/app/service"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/internal/middleware"
)

type CartController struct {
	cartService service.CartService
	customers   CustomerLookup
}

func NewCartController(cartService service.CartService, customers CustomerLookup) *CartController {
	return &CartController{
		cartService: cartService,
		customers:   customers,
	}
}

type AddToCartRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
	Notes     string `json:"notes" binding:"max=500"`
}

type UpdateCartRequest struct {
	// 0 이하이면 삭제
	Quantity *int `json:"quantity" binding:"required"`
}

// GetCart 활성 장바구니 조회 (없으면 생성)
// GET /api/v1/customers/:customer_id/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	customerID, ok := customerParam(c, ctrl.customers)
	if !ok {
		return
	}

	cart, err := ctrl.cartService.GetOrCreateActiveCart(customerID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart":       cart,
		"item_count": cart.ItemCount(),
	})
}

// AddToCart 장바구니 담기 (같은 메뉴는 수량 합산)
// POST /api/v1/customers/:customer_id/cart/items
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	customerID, ok := customerParam(c, ctrl.customers)
	if !ok {
		return
	}

	var req AddToCartRequest
	if !bindJSON(c, &req) {
		return
	}

	cart, err := ctrl.cartService.AddToCart(customerID, req.ProductID, req.Quantity, req.Notes)
	if err != nil {
		log.Warn("Failed to add item to cart", map[string]interface{}{
			"customer_id": customerID,
			"product_id":  req.ProductID,
			"error":       err.Error(),
		})
		apperrors.Respond(c, err)
		return
	}

	log.Info("Item added to cart", map[string]interface{}{
		"customer_id": customerID,
		"product_id":  req.ProductID,
		"quantity":    req.Quantity,
		"total":       cart.TotalAmount.String(),
	})

	c.JSON(http.StatusOK, gin.H{
		"cart": cart,
	})
}

// UpdateCartItem 수량 변경
// PUT /api/v1/customers/:customer_id/cart/items/:product_id
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	customerID, ok := customerParam(c, ctrl.customers)
	if !ok {
		return
	}
	productID, ok := parseID(c, "product_id")
	if !ok {
		return
	}

	var req UpdateCartRequest
	if !bindJSON(c, &req) {
		return
	}

	cart, err := ctrl.cartService.UpdateQuantity(customerID, productID, *req.Quantity)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart": cart,
	})
}

// RemoveFromCart 메뉴 빼기
// DELETE /api/v1/customers/:customer_id/cart/items/:product_id
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	customerID, ok := customerParam(c, ctrl.customers)
	if !ok {
		return
	}
	productID, ok := parseID(c, "product_id")
	if !ok {
		return
	}

	cart, err := ctrl.cartService.RemoveFromCart(customerID, productID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart": cart,
	})
}

// ClearCart 장바구니 비우기
// DELETE /api/v1/customers/:customer_id/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	customerID, ok := customerParam(c, ctrl.customers)
	if !ok {
		return
	}

	cart, err := ctrl.cartService.ClearCart(customerID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	middleware.GetLoggerFromContext(c).Info("Cart cleared", map[string]interface{}{
		"customer_id": customerID,
	})

	c.JSON(http.StatusOK, gin.H{
		"cart": cart,
	})
}

// ValidateCart 주문 가능 여부 (메뉴별 문제 목록 포함)
// GET /api/v1/customers/:customer_id/cart/validate
func (ctrl *CartController) ValidateCart(c *gin.Context) {
	customerID, ok := customerParam(c, ctrl.customers)
	if !ok {
		return
	}

	validation, err := ctrl.cartService.ValidateCart(customerID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, validation)
}
