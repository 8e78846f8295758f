package formula

import (
	"github.com/shopspring/decimal"
)

// Variable names a value a formula may reference
type Variable string

const (
	VarBasicSalary   Variable = "basic_salary"
	VarPresentDays   Variable = "present_days"
	VarWorkingDays   Variable = "working_days"
	VarOvertimeHours Variable = "overtime_hours"
)

// aliases maps every accepted spelling to its variable
var aliases = map[string]Variable{
	"basic_salary":   VarBasicSalary,
	"basicSalary":    VarBasicSalary,
	"present_days":   VarPresentDays,
	"presentDays":    VarPresentDays,
	"working_days":   VarWorkingDays,
	"workingDays":    VarWorkingDays,
	"overtime_hours": VarOvertimeHours,
	"overtimeHours":  VarOvertimeHours,
}

func lookupVariable(name string) (Variable, bool) {
	v, ok := aliases[name]
	return v, ok
}

// Variables is the entire scope visible to a formula
type Variables struct {
	BasicSalary   decimal.Decimal
	PresentDays   decimal.Decimal
	WorkingDays   decimal.Decimal
	OvertimeHours decimal.Decimal
}

func (v Variables) value(name Variable) decimal.Decimal {
	switch name {
	case VarBasicSalary:
		return v.BasicSalary
	case VarPresentDays:
		return v.PresentDays
	case VarWorkingDays:
		return v.WorkingDays
	case VarOvertimeHours:
		return v.OvertimeHours
	}
	return decimal.Zero
}
