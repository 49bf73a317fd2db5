package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/service"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/internal/middleware"
)

// ProfileLookup resolves the employee behind a login.
type ProfileLookup interface {
	Me(userID uint) (*service.Profile, error)
}

// KitchenController 주방 패널
type KitchenController struct {
	chefService service.ChefService
	profiles    ProfileLookup
}

func NewKitchenController(chefService service.ChefService, profiles ProfileLookup) *KitchenController {
	return &KitchenController{
		chefService: chefService,
		profiles:    profiles,
	}
}

// chefID is the caller's own employee id. Managers may act for a chef
// through ?chef_id=.
func (ctrl *KitchenController) chefID(c *gin.Context) (uint, bool) {
	role, _ := middleware.GetUserRole(c)
	if raw := c.Query("chef_id"); raw != "" && (role == model.RoleManager || role == model.RoleAdmin) {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid chef_id")
			return 0, false
		}
		return uint(id), true
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return 0, false
	}
	profile, err := ctrl.profiles.Me(userID)
	if err != nil {
		apperrors.Respond(c, err)
		return 0, false
	}
	if profile.Employee == nil {
		apperrors.Respond(c, service.ErrNotAChef.WithMessage("login is not linked to an employee"))
		return 0, false
	}
	return profile.Employee.ID, true
}

// Queue 조리 대기/진행 주문 (오래된 순)
// GET /api/v1/kitchen/queue
func (ctrl *KitchenController) Queue(c *gin.Context) {
	orders, err := ctrl.chefService.KitchenQueue()
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// MyOrders 내가 맡은 주문
// GET /api/v1/kitchen/my-orders
func (ctrl *KitchenController) MyOrders(c *gin.Context) {
	chefID, ok := ctrl.chefID(c)
	if !ok {
		return
	}
	orders, err := ctrl.chefService.ChefOrders(chefID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// Claim 주문 담당 지정
// POST /api/v1/kitchen/orders/:id/claim
func (ctrl *KitchenController) Claim(c *gin.Context) {
	ctrl.step(c, "claim", ctrl.chefService.ClaimOrder)
}

// StartCooking 조리 시작
// POST /api/v1/kitchen/orders/:id/start
func (ctrl *KitchenController) StartCooking(c *gin.Context) {
	ctrl.step(c, "start_cooking", ctrl.chefService.StartCooking)
}

// MarkReady 조리 완료
// POST /api/v1/kitchen/orders/:id/ready
func (ctrl *KitchenController) MarkReady(c *gin.Context) {
	ctrl.step(c, "mark_ready", ctrl.chefService.MarkReady)
}

func (ctrl *KitchenController) step(c *gin.Context, name string, fn func(orderID, chefID uint) (*model.Order, error)) {
	log := middleware.GetLoggerFromContext(c)

	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}
	chefID, ok := ctrl.chefID(c)
	if !ok {
		return
	}

	order, err := fn(orderID, chefID)
	if err != nil {
		log.Warn("Kitchen step rejected", map[string]interface{}{
			"step":     name,
			"order_id": orderID,
			"chef_id":  chefID,
			"error":    err.Error(),
		})
		apperrors.Respond(c, err)
		return
	}

	log.Info("Kitchen step done", map[string]interface{}{
		"step":     name,
		"order_id": orderID,
		"chef_id":  chefID,
		"status":   order.Status.String(),
	})

	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}
