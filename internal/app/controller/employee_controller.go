package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/service"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/internal/middleware"
)

type EmployeeController struct {
	employeeService service.EmployeeService
}

func NewEmployeeController(employeeService service.EmployeeService) *EmployeeController {
	return &EmployeeController{
		employeeService: employeeService,
	}
}

type LinkUserRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// ListEmployees GET /api/v1/employees?role=chef&active=true
func (ctrl *EmployeeController) ListEmployees(c *gin.Context) {
	var role *model.EmployeeRole
	if raw := c.Query("role"); raw != "" {
		r := model.EmployeeRole(raw)
		role = &r
	}
	activeOnly := false
	if active := optionalBool(c, "active"); active != nil {
		activeOnly = *active
	}

	employees, err := ctrl.employeeService.ListEmployees(role, activeOnly)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"employees": employees,
		"count":     len(employees),
	})
}

// GetEmployee GET /api/v1/employees/:id
func (ctrl *EmployeeController) GetEmployee(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	employee, err := ctrl.employeeService.GetEmployee(id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"employee": employee,
	})
}

// CreateEmployee POST /api/v1/employees
func (ctrl *EmployeeController) CreateEmployee(c *gin.Context) {
	var req service.EmployeeInput
	if !bindJSON(c, &req) {
		return
	}
	employee, err := ctrl.employeeService.CreateEmployee(req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	middleware.GetLoggerFromContext(c).Info("Employee created", map[string]interface{}{
		"employee_id": employee.ID,
		"role":        employee.Role,
	})
	c.JSON(http.StatusCreated, gin.H{
		"employee": employee,
	})
}

// UpdateEmployee PUT /api/v1/employees/:id
func (ctrl *EmployeeController) UpdateEmployee(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.EmployeeInput
	if !bindJSON(c, &req) {
		return
	}
	employee, err := ctrl.employeeService.UpdateEmployee(id, req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"employee": employee,
	})
}

// Deactivate 퇴사 처리
// POST /api/v1/employees/:id/deactivate
func (ctrl *EmployeeController) Deactivate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	employee, err := ctrl.employeeService.Deactivate(id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	middleware.GetLoggerFromContext(c).Info("Employee deactivated", map[string]interface{}{
		"employee_id": id,
	})
	c.JSON(http.StatusOK, gin.H{
		"employee": employee,
	})
}

// LinkUser 로그인 계정 연결
// POST /api/v1/employees/:id/link-user
func (ctrl *EmployeeController) LinkUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req LinkUserRequest
	if !bindJSON(c, &req) {
		return
	}
	employee, err := ctrl.employeeService.LinkUser(id, req.UserID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"employee": employee,
	})
}
