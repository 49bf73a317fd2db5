package repository

import (
	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/pkg/logger"
	"gorm.io/gorm"
)

type EmployeeRepository interface {
	Create(employee *model.Employee) error
	FindByID(id uint) (*model.Employee, error)
	FindByUserID(userID uint) (*model.Employee, error)
	List(role *model.EmployeeRole, activeOnly bool) ([]model.Employee, error)
	Update(employee *model.Employee) error
}

type employeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) Create(employee *model.Employee) error {
	logger.Debug("Creating employee in database", map[string]interface{}{
		"full_name": employee.FullName,
		"role":      employee.Role,
	})

	if err := r.db.Create(employee).Error; err != nil {
		logger.Error("Failed to create employee in database", err, map[string]interface{}{
			"full_name": employee.FullName,
		})
		return err
	}
	return nil
}

func (r *employeeRepository) FindByID(id uint) (*model.Employee, error) {
	var employee model.Employee
	if err := r.db.First(&employee, id).Error; err != nil {
		logLookupError("Failed to find employee by ID in database", err, map[string]interface{}{
			"employee_id": id,
		})
		return nil, err
	}
	return &employee, nil
}

func (r *employeeRepository) FindByUserID(userID uint) (*model.Employee, error) {
	var employee model.Employee
	if err := r.db.Where("user_id = ?", userID).First(&employee).Error; err != nil {
		logLookupError("Failed to find employee by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return &employee, nil
}

func (r *employeeRepository) List(role *model.EmployeeRole, activeOnly bool) ([]model.Employee, error) {
	query := r.db.Model(&model.Employee{})
	if role != nil {
		query = query.Where("role = ?", *role)
	}
	if activeOnly {
		query = query.Where("active = ?", true)
	}

	var employees []model.Employee
	if err := query.Order("full_name ASC").Find(&employees).Error; err != nil {
		logger.Error("Failed to list employees in database", err)
		return nil, err
	}
	return employees, nil
}

func (r *employeeRepository) Update(employee *model.Employee) error {
	if err := r.db.Save(employee).Error; err != nil {
		logger.Error("Failed to update employee in database", err, map[string]interface{}{
			"employee_id": employee.ID,
		})
		return err
	}
	return nil
}
