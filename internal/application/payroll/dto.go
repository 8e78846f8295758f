package payroll

import (
	"time"

	"github.com/erp/manufacturing/internal/domain/payroll"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateFormulaRequest defines a new payroll formula
type CreateFormulaRequest struct {
	Code       string
	Name       string
	Expression string
}

// RecordAttendanceRequest records one attendance day
type RecordAttendanceRequest struct {
	EmployeeID    uuid.UUID
	Date          time.Time
	Status        string
	HoursWorked   decimal.Decimal
	OvertimeHours decimal.Decimal
	Notes         string
}

// CalculateRequest computes a payroll for one employee and period
type CalculateRequest struct {
	EmployeeID  uuid.UUID
	Period      string
	BasicSalary decimal.Decimal
	FormulaID   *uuid.UUID
}

// EvaluateRequest is a dry run of an expression over explicit variables
type EvaluateRequest struct {
	Expression    string
	BasicSalary   decimal.Decimal
	PresentDays   decimal.Decimal
	WorkingDays   decimal.Decimal
	OvertimeHours decimal.Decimal
}

// FormulaResponse is the API view of a formula
type FormulaResponse struct {
	ID         uuid.UUID `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Expression string    `json:"expression"`
	Active     bool      `json:"active"`
}

// AttendanceResponse is the API view of an attendance record
type AttendanceResponse struct {
	ID            uuid.UUID       `json:"id"`
	EmployeeID    uuid.UUID       `json:"employee_id"`
	Date          string          `json:"date"`
	Status        string          `json:"status"`
	HoursWorked   decimal.Decimal `json:"hours_worked"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
}

// PayrollResponse is the API view of a payroll document
type PayrollResponse struct {
	ID                uuid.UUID       `json:"id"`
	EmployeeID        uuid.UUID       `json:"employee_id"`
	Period            string          `json:"period"`
	BasicSalary       decimal.Decimal `json:"basic_salary"`
	GrossSalary       decimal.Decimal `json:"gross_salary"`
	Deductions        decimal.Decimal `json:"deductions"`
	NetSalary         decimal.Decimal `json:"net_salary"`
	PresentDays       decimal.Decimal `json:"present_days"`
	WorkingDays       decimal.Decimal `json:"working_days"`
	OvertimeHours     decimal.Decimal `json:"overtime_hours"`
	FormulaID         *uuid.UUID      `json:"formula_id,omitempty"`
	FormulaFellBack   bool            `json:"formula_fell_back"`
	FormulaError      string          `json:"formula_error,omitempty"`
	State             string          `json:"state"`
	ApprovedAt        *time.Time      `json:"approved_at,omitempty"`
	Version           int             `json:"version"`
	ApprovalRequestID *uuid.UUID      `json:"approval_request_id,omitempty"`
}

// EvaluateResponse is the outcome of a dry run
type EvaluateResponse struct {
	Gross    decimal.Decimal `json:"gross"`
	FellBack bool            `json:"fell_back"`
	Error    string          `json:"error,omitempty"`
}

func toFormulaResponse(f *payroll.PayrollFormula) *FormulaResponse {
	return &FormulaResponse{
		ID:         f.ID,
		Code:       f.Code,
		Name:       f.Name,
		Expression: f.Expression,
		Active:     f.Active,
	}
}

func toAttendanceResponse(a *payroll.Attendance) *AttendanceResponse {
	return &AttendanceResponse{
		ID:            a.ID,
		EmployeeID:    a.EmployeeID,
		Date:          a.Date.Format(time.DateOnly),
		Status:        string(a.Status),
		HoursWorked:   a.HoursWorked,
		OvertimeHours: a.OvertimeHours,
	}
}

// ToPayrollResponse converts a domain payroll
func ToPayrollResponse(p *payroll.Payroll) *PayrollResponse {
	return &PayrollResponse{
		ID:              p.ID,
		EmployeeID:      p.EmployeeID,
		Period:          p.Period,
		BasicSalary:     p.BasicSalary,
		GrossSalary:     p.GrossSalary,
		Deductions:      p.Deductions,
		NetSalary:       p.NetSalary,
		PresentDays:     p.PresentDays,
		WorkingDays:     p.WorkingDays,
		OvertimeHours:   p.OvertimeHours,
		FormulaID:       p.FormulaID,
		FormulaFellBack: p.FormulaFellBack,
		FormulaError:    p.FormulaError,
		State:           string(p.State),
		ApprovedAt:      p.ApprovedAt,
		Version:         p.GetVersion(),
	}
}
