package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/service"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/internal/middleware"
)

// UserController 로그인 계정 관리 (admin)
type UserController struct {
	userService service.UserService
}

func NewUserController(userService service.UserService) *UserController {
	return &UserController{
		userService: userService,
	}
}

type UpdateUserRequest struct {
	FullName string         `json:"full_name" binding:"required,max=100"`
	Role     model.UserRole `json:"role" binding:"required"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required"`
}

// ListUsers GET /api/v1/users?role=cashier
func (ctrl *UserController) ListUsers(c *gin.Context) {
	var role *model.UserRole
	if raw := c.Query("role"); raw != "" {
		r := model.UserRole(raw)
		role = &r
	}
	users, err := ctrl.userService.ListUsers(role)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}

// GetUser GET /api/v1/users/:id
func (ctrl *UserController) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user, err := ctrl.userService.GetUser(id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

// CreateUser 직원 계정 생성
// POST /api/v1/users
func (ctrl *UserController) CreateUser(c *gin.Context) {
	var req service.UserInput
	if !bindJSON(c, &req) {
		return
	}
	user, err := ctrl.userService.CreateUser(req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	middleware.GetLoggerFromContext(c).Info("User created", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	c.JSON(http.StatusCreated, gin.H{
		"user": user,
	})
}

// UpdateUser PUT /api/v1/users/:id
func (ctrl *UserController) UpdateUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := ctrl.userService.UpdateUser(id, req.FullName, req.Role)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

// SetActive 계정 활성/비활성
// PATCH /api/v1/users/:id/active
func (ctrl *UserController) SetActive(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req SetActiveRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := ctrl.userService.SetActive(id, *req.Active)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	middleware.GetLoggerFromContext(c).Info("User activation changed", map[string]interface{}{
		"user_id": id,
		"active":  user.Active,
	})
	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

// ResetPassword 관리자 비밀번호 초기화
// POST /api/v1/users/:id/reset-password
func (ctrl *UserController) ResetPassword(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := ctrl.userService.ResetPassword(id, req.NewPassword); err != nil {
		apperrors.Respond(c, err)
		return
	}

	middleware.GetLoggerFromContext(c).Info("User password reset", map[string]interface{}{
		"user_id": id,
	})
	c.JSON(http.StatusOK, gin.H{
		"message": "password reset",
	})
}
