package payroll

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FormulaRepository defines persistence for payroll formulas
type FormulaRepository interface {
	// FindByID returns shared.ErrNotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*PayrollFormula, error)
	// Create returns shared.ErrAlreadyExists when the code is taken
	Create(ctx context.Context, f *PayrollFormula) error
}

// AttendanceRepository defines persistence for attendance records
type AttendanceRepository interface {
	Create(ctx context.Context, a *Attendance) error
	// FindByEmployeeBetween returns records with from <= date < to
	FindByEmployeeBetween(ctx context.Context, employeeID uuid.UUID, from, to time.Time) ([]Attendance, error)
}

// PayrollRepository defines persistence for payroll documents
type PayrollRepository interface {
	// FindByID returns shared.ErrNotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*Payroll, error)
	Create(ctx context.Context, p *Payroll) error
	SaveWithLock(ctx context.Context, p *Payroll) error
}
