package payroll

import (
	"fmt"
	"time"

	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AttendanceStatus is the daily attendance outcome of an employee
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceHalfDay AttendanceStatus = "half_day"
	AttendanceLeave   AttendanceStatus = "leave"
	AttendanceHoliday AttendanceStatus = "holiday"
)

// IsValid returns true for a known status
func (s AttendanceStatus) IsValid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceHalfDay, AttendanceLeave, AttendanceHoliday:
		return true
	}
	return false
}

// Attendance is one employee-day record
type Attendance struct {
	ID            uuid.UUID
	EmployeeID    uuid.UUID
	Date          time.Time
	Status        AttendanceStatus
	HoursWorked   decimal.Decimal
	OvertimeHours decimal.Decimal
	Notes         string
	CreatedAt     time.Time
}

// NewAttendance validates and builds an attendance record; Date is truncated to the day
func NewAttendance(employeeID uuid.UUID, date time.Time, status AttendanceStatus, hoursWorked, overtimeHours decimal.Decimal, notes string) (*Attendance, error) {
	if employeeID == uuid.Nil {
		return nil, fmt.Errorf("%w: employee ID cannot be empty", shared.ErrInvalidInput)
	}
	if date.IsZero() {
		return nil, fmt.Errorf("%w: attendance date is required", shared.ErrInvalidInput)
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown attendance status %q", shared.ErrInvalidInput, status)
	}
	if hoursWorked.IsNegative() || overtimeHours.IsNegative() {
		return nil, fmt.Errorf("%w: hours cannot be negative", shared.ErrInvalidInput)
	}

	y, m, d := date.Date()
	return &Attendance{
		ID:            uuid.New(),
		EmployeeID:    employeeID,
		Date:          time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Status:        status,
		HoursWorked:   hoursWorked,
		OvertimeHours: overtimeHours,
		Notes:         notes,
		CreatedAt:     time.Now(),
	}, nil
}

// AttendanceSummary holds the values a payroll formula sees
type AttendanceSummary struct {
	PresentDays   decimal.Decimal
	WorkingDays   decimal.Decimal
	OvertimeHours decimal.Decimal
}

// Summarize counts present days, takes every record as a working day and sums overtime
func Summarize(records []Attendance) AttendanceSummary {
	present := 0
	overtime := decimal.Zero
	for _, r := range records {
		if r.Status == AttendancePresent {
			present++
		}
		overtime = overtime.Add(r.OvertimeHours)
	}
	return AttendanceSummary{
		PresentDays:   decimal.NewFromInt(int64(present)),
		WorkingDays:   decimal.NewFromInt(int64(len(records))),
		OvertimeHours: overtime,
	}
}

// Period is a payroll month
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses a YYYY-MM period
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("%w: period must be YYYY-MM, got %q", shared.ErrInvalidInput, s)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// String formats the period as YYYY-MM
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Start returns the first day of the period
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first day after the period
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}
