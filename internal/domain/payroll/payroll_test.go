package payroll

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/manufacturing/internal/domain/payroll/formula"
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSummarize(t *testing.T) {
	emp := uuid.New()
	day := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	statuses := []AttendanceStatus{AttendancePresent, AttendancePresent, AttendanceAbsent, AttendanceHalfDay, AttendancePresent}
	records := make([]Attendance, 0, len(statuses))
	for i, s := range statuses {
		a, err := NewAttendance(emp, day.AddDate(0, 0, i), s, dec("8"), dec("1.5"), "")
		require.NoError(t, err)
		records = append(records, *a)
	}

	s := Summarize(records)
	assert.True(t, s.PresentDays.Equal(dec("3")))
	assert.True(t, s.WorkingDays.Equal(dec("5")))
	assert.True(t, s.OvertimeHours.Equal(dec("7.5")))
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("2026-02")
	require.NoError(t, err)
	assert.Equal(t, "2026-02", p.String())
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), p.End())

	_, err = ParsePeriod("2026/02")
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestNewPayroll(t *testing.T) {
	period, err := ParsePeriod("2026-02")
	require.NoError(t, err)
	summary := AttendanceSummary{PresentDays: dec("20"), WorkingDays: dec("20"), OvertimeHours: dec("4")}

	t.Run("without formula uses basic salary", func(t *testing.T) {
		p, err := NewPayroll(Calculation{EmployeeID: uuid.New(), Period: period, BasicSalary: dec("1000"), Attendance: summary})
		require.NoError(t, err)
		assert.True(t, p.GrossSalary.Equal(dec("1000")))
		assert.True(t, p.Deductions.Equal(dec("100")))
		assert.True(t, p.NetSalary.Equal(dec("900")))
		assert.False(t, p.FormulaFellBack)
		assert.Nil(t, p.FormulaID)
		assert.Equal(t, StateDraft, p.State)
	})

	t.Run("formula with overtime", func(t *testing.T) {
		f, err := NewPayrollFormula("STD", "Standard", "basic_salary * present_days / working_days + overtime_hours * 50", formula.DefaultLimits())
		require.NoError(t, err)

		p, err := NewPayroll(Calculation{EmployeeID: uuid.New(), Period: period, BasicSalary: dec("1000"), Attendance: summary, Formula: f, DeductionRate: dec("0.2")})
		require.NoError(t, err)
		assert.True(t, p.GrossSalary.Equal(dec("1200")))
		assert.True(t, p.Deductions.Equal(dec("240")))
		assert.True(t, p.NetSalary.Equal(dec("960")))
		require.NotNil(t, p.FormulaID)
		assert.Equal(t, f.ID, *p.FormulaID)
	})

	t.Run("evaluation failure falls back and is recorded", func(t *testing.T) {
		f := &PayrollFormula{BaseEntity: shared.NewBaseEntity(), Code: "BAD", Expression: "basic_salary / (working_days - 20)", Active: true}

		p, err := NewPayroll(Calculation{EmployeeID: uuid.New(), Period: period, BasicSalary: dec("1000"), Attendance: summary, Formula: f})
		require.NoError(t, err)
		assert.True(t, p.FormulaFellBack)
		assert.Contains(t, p.FormulaError, "division by zero")
		assert.True(t, p.GrossSalary.Equal(dec("1000")))
		assert.True(t, p.NetSalary.Equal(dec("900")))
	})

	t.Run("rejects invalid deduction rate", func(t *testing.T) {
		_, err := NewPayroll(Calculation{EmployeeID: uuid.New(), Period: period, BasicSalary: dec("1"), DeductionRate: dec("1.5")})
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})
}

func TestNewPayrollFormula_RejectsInvalidExpression(t *testing.T) {
	_, err := NewPayrollFormula("X", "", "open('/etc/passwd')", formula.DefaultLimits())
	assert.True(t, errors.Is(err, shared.ErrEvaluationFailure))
}

func TestPayroll_Lifecycle(t *testing.T) {
	p, err := NewPayroll(Calculation{EmployeeID: uuid.New(), Period: Period{Year: 2026, Month: 1}, BasicSalary: dec("10")})
	require.NoError(t, err)

	assert.True(t, errors.Is(p.Approve(time.Now()), shared.ErrInvalidState))
	require.NoError(t, p.Submit())
	require.NoError(t, p.Approve(time.Now()))
	assert.Equal(t, StateApproved, p.State)
	assert.True(t, errors.Is(p.Cancel(), shared.ErrInvalidState))
}
