package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type EmployeeRole string

const (
	EmployeeManager EmployeeRole = "manager"
	EmployeeCashier EmployeeRole = "cashier"
	EmployeeChef    EmployeeRole = "chef"
	EmployeeWaiter  EmployeeRole = "waiter"
)

type Employee struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	UserID    *uint           `gorm:"uniqueIndex" json:"user_id,omitempty"` // 로그인 계정 (선택)
	FullName  string          `gorm:"not null" json:"full_name"`
	Phone     string          `gorm:"type:varchar(20)" json:"phone"`
	Email     string          `json:"email"`
	Role      EmployeeRole    `gorm:"type:varchar(20);not null;index" json:"role"`
	Salary    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"salary"`
	HireDate  time.Time       `json:"hire_date"`
	Active    bool            `gorm:"not null" json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (Employee) TableName() string {
	return "employees"
}
