package payroll

import (
	"fmt"
	"time"

	"github.com/erp/manufacturing/internal/domain/payroll/formula"
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places stored for payroll amounts
const MoneyScale int32 = 4

// DefaultDeductionRate is applied to gross salary when none is configured
var DefaultDeductionRate = decimal.RequireFromString("0.10")

// State is the lifecycle state of a payroll document
type State string

const (
	StateDraft           State = "draft"
	StatePendingApproval State = "pending_approval"
	StateApproved        State = "approved"
	StateCancelled       State = "cancelled"
)

// Payroll is one employee's pay for one period
type Payroll struct {
	shared.BaseAggregateRoot
	EmployeeID      uuid.UUID
	Period          string
	BasicSalary     decimal.Decimal
	GrossSalary     decimal.Decimal
	Deductions      decimal.Decimal
	NetSalary       decimal.Decimal
	PresentDays     decimal.Decimal
	WorkingDays     decimal.Decimal
	OvertimeHours   decimal.Decimal
	FormulaID       *uuid.UUID
	FormulaFellBack bool
	FormulaError    string
	State           State
	ApprovedAt      *time.Time
}

// Calculation is the input to NewPayroll
type Calculation struct {
	EmployeeID    uuid.UUID
	Period        Period
	BasicSalary   decimal.Decimal
	Attendance    AttendanceSummary
	Formula       *PayrollFormula
	DeductionRate decimal.Decimal
	Limits        formula.Limits
}

// NewPayroll evaluates the formula (falling back to basic salary on any error)
// and derives deductions and net pay.
func NewPayroll(c Calculation) (*Payroll, error) {
	if c.EmployeeID == uuid.Nil {
		return nil, fmt.Errorf("%w: employee ID cannot be empty", shared.ErrInvalidInput)
	}
	if c.BasicSalary.IsNegative() {
		return nil, fmt.Errorf("%w: basic salary cannot be negative", shared.ErrInvalidInput)
	}
	rate := c.DeductionRate
	if rate.IsZero() {
		rate = DefaultDeductionRate
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: deduction rate must be within [0, 1]", shared.ErrInvalidInput)
	}

	p := &Payroll{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		EmployeeID:        c.EmployeeID,
		Period:            c.Period.String(),
		BasicSalary:       c.BasicSalary,
		PresentDays:       c.Attendance.PresentDays,
		WorkingDays:       c.Attendance.WorkingDays,
		OvertimeHours:     c.Attendance.OvertimeHours,
		State:             StateDraft,
	}

	gross := c.BasicSalary
	if c.Formula != nil {
		id := c.Formula.ID
		p.FormulaID = &id
		res := formula.EvaluateWithFallback(c.Formula.Expression, formula.Variables{
			BasicSalary:   c.BasicSalary,
			PresentDays:   c.Attendance.PresentDays,
			WorkingDays:   c.Attendance.WorkingDays,
			OvertimeHours: c.Attendance.OvertimeHours,
		}, c.Limits)
		gross = res.Gross
		if res.FellBack {
			p.FormulaFellBack = true
			p.FormulaError = res.Err.Error()
		}
	}

	p.GrossSalary = gross.Round(MoneyScale)
	p.Deductions = p.GrossSalary.Mul(rate).Round(MoneyScale)
	p.NetSalary = p.GrossSalary.Sub(p.Deductions)
	return p, nil
}

// Submit sends a draft payroll for approval
func (p *Payroll) Submit() error {
	if p.State != StateDraft {
		return fmt.Errorf("%w: payroll is %s", shared.ErrInvalidState, p.State)
	}
	p.State = StatePendingApproval
	p.Touch()
	p.IncrementVersion()
	return nil
}

// Approve finalizes a payroll awaiting approval
func (p *Payroll) Approve(now time.Time) error {
	if p.State != StatePendingApproval {
		return fmt.Errorf("%w: payroll is %s", shared.ErrInvalidState, p.State)
	}
	p.State = StateApproved
	p.ApprovedAt = &now
	p.Touch()
	p.IncrementVersion()
	return nil
}

// Cancel cancels a payroll that is not yet approved
func (p *Payroll) Cancel() error {
	if p.State == StateApproved || p.State == StateCancelled {
		return fmt.Errorf("%w: payroll is %s", shared.ErrInvalidState, p.State)
	}
	p.State = StateCancelled
	p.Touch()
	p.IncrementVersion()
	return nil
}
