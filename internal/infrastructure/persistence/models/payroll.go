package models

import (
	"time"

	"github.com/erp/manufacturing/internal/domain/payroll"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayrollFormulaModel is the persistence model for a payroll formula.
type PayrollFormulaModel struct {
	BaseModel
	Code       string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name       string `gorm:"type:varchar(200);not null"`
	Expression string `gorm:"type:text;not null"`
	Active     bool   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PayrollFormulaModel) TableName() string {
	return "payroll_formulas"
}

// ToDomain converts the persistence model to a domain PayrollFormula.
func (m *PayrollFormulaModel) ToDomain() *payroll.PayrollFormula {
	return &payroll.PayrollFormula{
		BaseEntity: m.Entity(),
		Code:       m.Code,
		Name:       m.Name,
		Expression: m.Expression,
		Active:     m.Active,
	}
}

// PayrollFormulaModelFromDomain creates a new persistence model from a domain PayrollFormula.
func PayrollFormulaModelFromDomain(f *payroll.PayrollFormula) *PayrollFormulaModel {
	m := &PayrollFormulaModel{
		Code:       f.Code,
		Name:       f.Name,
		Expression: f.Expression,
		Active:     f.Active,
	}
	m.setEntity(f.BaseEntity)
	return m
}

// AttendanceModel is one employee-day attendance row.
type AttendanceModel struct {
	ID            uuid.UUID                `gorm:"type:uuid;primary_key"`
	EmployeeID    uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_employee_date,priority:1"`
	Date          time.Time                `gorm:"type:date;not null;uniqueIndex:idx_attendance_employee_date,priority:2"`
	Status        payroll.AttendanceStatus `gorm:"type:varchar(20);not null"`
	HoursWorked   decimal.Decimal          `gorm:"type:numeric(18,4);not null;default:0"`
	OvertimeHours decimal.Decimal          `gorm:"type:numeric(18,4);not null;default:0"`
	Notes         string                   `gorm:"type:text"`
	CreatedAt     time.Time                `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AttendanceModel) TableName() string {
	return "attendances"
}

// ToDomain converts the persistence model to a domain Attendance.
func (m *AttendanceModel) ToDomain() payroll.Attendance {
	return payroll.Attendance{
		ID:            m.ID,
		EmployeeID:    m.EmployeeID,
		Date:          m.Date,
		Status:        m.Status,
		HoursWorked:   m.HoursWorked,
		OvertimeHours: m.OvertimeHours,
		Notes:         m.Notes,
		CreatedAt:     m.CreatedAt,
	}
}

// AttendanceModelFromDomain creates a new persistence model from a domain Attendance.
func AttendanceModelFromDomain(a *payroll.Attendance) *AttendanceModel {
	return &AttendanceModel{
		ID:            a.ID,
		EmployeeID:    a.EmployeeID,
		Date:          a.Date,
		Status:        a.Status,
		HoursWorked:   a.HoursWorked,
		OvertimeHours: a.OvertimeHours,
		Notes:         a.Notes,
		CreatedAt:     a.CreatedAt,
	}
}

// PayrollModel is the persistence model for the Payroll aggregate root.
type PayrollModel struct {
	AggregateModel
	EmployeeID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_payroll_employee_period,priority:1"`
	Period          string          `gorm:"type:varchar(7);not null;index:idx_payroll_employee_period,priority:2"`
	BasicSalary     decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	GrossSalary     decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	Deductions      decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	NetSalary       decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	PresentDays     decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	WorkingDays     decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	OvertimeHours   decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	FormulaID       *uuid.UUID      `gorm:"type:uuid"`
	FormulaFellBack bool            `gorm:"not null"`
	FormulaError    string          `gorm:"type:text"`
	State           payroll.State   `gorm:"type:varchar(20);not null;default:'draft'"`
	ApprovedAt      *time.Time      `gorm:"type:timestamp"`
}

// TableName returns the table name for GORM
func (PayrollModel) TableName() string {
	return "payrolls"
}

// ToDomain converts the persistence model to a domain Payroll.
func (m *PayrollModel) ToDomain() *payroll.Payroll {
	return &payroll.Payroll{
		BaseAggregateRoot: m.Root(),
		EmployeeID:        m.EmployeeID,
		Period:            m.Period,
		BasicSalary:       m.BasicSalary,
		GrossSalary:       m.GrossSalary,
		Deductions:        m.Deductions,
		NetSalary:         m.NetSalary,
		PresentDays:       m.PresentDays,
		WorkingDays:       m.WorkingDays,
		OvertimeHours:     m.OvertimeHours,
		FormulaID:         m.FormulaID,
		FormulaFellBack:   m.FormulaFellBack,
		FormulaError:      m.FormulaError,
		State:             m.State,
		ApprovedAt:        m.ApprovedAt,
	}
}

// FromDomain populates the persistence model from a domain Payroll.
func (m *PayrollModel) FromDomain(p *payroll.Payroll) {
	m.setRoot(p.BaseAggregateRoot)
	m.EmployeeID = p.EmployeeID
	m.Period = p.Period
	m.BasicSalary = p.BasicSalary
	m.GrossSalary = p.GrossSalary
	m.Deductions = p.Deductions
	m.NetSalary = p.NetSalary
	m.PresentDays = p.PresentDays
	m.WorkingDays = p.WorkingDays
	m.OvertimeHours = p.OvertimeHours
	m.FormulaID = p.FormulaID
	m.FormulaFellBack = p.FormulaFellBack
	m.FormulaError = p.FormulaError
	m.State = p.State
	m.ApprovedAt = p.ApprovedAt
}

// PayrollModelFromDomain creates a new persistence model from a domain Payroll.
func PayrollModelFromDomain(p *payroll.Payroll) *PayrollModel {
	m := &PayrollModel{}
	m.FromDomain(p)
	return m
}
