package service

import (
	"strings"
	"time"

	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/repository"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/pkg/logger"
	"github.com/shopspring/decimal"
)

type EmployeeInput struct {
	FullName string             `json:"full_name" validate:"required,max=100"`
	Phone    string             `json:"phone" validate:"omitempty,max=20"`
	Email    string             `json:"email" validate:"omitempty,email"`
	Role     model.EmployeeRole `json:"role" validate:"required,oneof=manager cashier chef waiter"`
	Salary   decimal.Decimal    `json:"salary"`
	HireDate *time.Time         `json:"hire_date"`
}

type EmployeeService interface {
	CreateEmployee(in EmployeeInput) (*model.Employee, error)
	UpdateEmployee(id uint, in EmployeeInput) (*model.Employee, error)
	GetEmployee(id uint) (*model.Employee, error)
	ListEmployees(role *model.EmployeeRole, activeOnly bool) ([]model.Employee, error)
	Deactivate(id uint) (*model.Employee, error)
	LinkUser(employeeID, userID uint) (*model.Employee, error)
}

type employeeService struct {
	employeeRepo repository.EmployeeRepository
	userRepo     repository.UserRepository
}

func NewEmployeeService(employeeRepo repository.EmployeeRepository, userRepo repository.UserRepository) EmployeeService {
	return &employeeService{employeeRepo: employeeRepo, userRepo: userRepo}
}

func checkEmployee(op string, in *EmployeeInput) error {
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validateInput(op, in); err != nil {
		return err
	}
	if in.Salary.IsNegative() {
		return apperrors.Validation("", "salary must not be negative").WithOp(op)
	}
	return nil
}

func (s *employeeService) CreateEmployee(in EmployeeInput) (*model.Employee, error) {
	const op = "employee.CreateEmployee"

	if err := checkEmployee(op, &in); err != nil {
		return nil, err
	}

	employee := &model.Employee{
		FullName: in.FullName,
		Phone:    in.Phone,
		Email:    in.Email,
		Role:     in.Role,
		Salary:   in.Salary,
		HireDate: time.Now(),
		Active:   true,
	}
	if in.HireDate != nil {
		employee.HireDate = *in.HireDate
	}

	if err := s.employeeRepo.Create(employee); err != nil {
		return nil, apperrors.FromDB(op, err, nil)
	}

	logger.Info("Employee created", map[string]interface{}{
		"employee_id": employee.ID,
		"role":        employee.Role,
	})
	return employee, nil
}

func (s *employeeService) UpdateEmployee(id uint, in EmployeeInput) (*model.Employee, error) {
	const op = "employee.UpdateEmployee"

	if err := checkEmployee(op, &in); err != nil {
		return nil, err
	}

	employee, err := s.employeeRepo.FindByID(id)
	if err != nil {
		return nil, apperrors.FromDB(op, err, ErrEmployeeNotFound)
	}
	employee.FullName = in.FullName
	employee.Phone = in.Phone
	employee.Email = in.Email
	employee.Role = in.Role
	employee.Salary = in.Salary
	if in.HireDate != nil {
		employee.HireDate = *in.HireDate
	}

	if err := s.employeeRepo.Update(employee); err != nil {
		return nil, apperrors.FromDB(op, err, ErrEmployeeNotFound)
	}
	return employee, nil
}

func (s *employeeService) GetEmployee(id uint) (*model.Employee, error) {
	employee, err := s.employeeRepo.FindByID(id)
	if err != nil {
		return nil, apperrors.FromDB("employee.GetEmployee", err, ErrEmployeeNotFound)
	}
	return employee, nil
}

func (s *employeeService) ListEmployees(role *model.EmployeeRole, activeOnly bool) ([]model.Employee, error) {
	employees, err := s.employeeRepo.List(role, activeOnly)
	if err != nil {
		return nil, apperrors.Storage("employee.ListEmployees", err)
	}
	return employees, nil
}

func (s *employeeService) Deactivate(id uint) (*model.Employee, error) {
	const op = "employee.Deactivate"

	employee, err := s.employeeRepo.FindByID(id)
	if err != nil {
		return nil, apperrors.FromDB(op, err, ErrEmployeeNotFound)
	}
	if !employee.Active {
		return employee, nil
	}
	employee.Active = false
	if err := s.employeeRepo.Update(employee); err != nil {
		return nil, apperrors.Storage(op, err)
	}

	logger.Info("Employee deactivated", map[string]interface{}{
		"employee_id": id,
	})
	return employee, nil
}

// LinkUser attaches a staff login account to the employee record.
func (s *employeeService) LinkUser(employeeID, userID uint) (*model.Employee, error) {
	const op = "employee.LinkUser"

	employee, err := s.employeeRepo.FindByID(employeeID)
	if err != nil {
		return nil, apperrors.FromDB(op, err, ErrEmployeeNotFound)
	}
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, apperrors.FromDB(op, err, ErrUserNotFound)
	}
	if !user.Role.IsStaff() {
		return nil, apperrors.Validation("", "only staff accounts can be linked to an employee").WithOp(op)
	}

	employee.UserID = &user.ID
	if err := s.employeeRepo.Update(employee); err != nil {
		return nil, apperrors.FromDB(op, err, ErrEmployeeNotFound)
	}

	logger.Info("Employee linked to user", map[string]interface{}{
		"employee_id": employeeID,
		"user_id":     userID,
	})
	return employee, nil
}
