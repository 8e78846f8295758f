package payroll

import (
	"fmt"
	"strings"

	"github.com/erp/manufacturing/internal/domain/payroll/formula"
	"github.com/erp/manufacturing/internal/domain/shared"
)

// PayrollFormula is a named, stored gross salary expression
type PayrollFormula struct {
	shared.BaseEntity
	Code       string
	Name       string
	Expression string
	Active     bool
}

// NewPayrollFormula validates the expression up front so broken formulas are never stored
func NewPayrollFormula(code, name, expression string, limits formula.Limits) (*PayrollFormula, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: formula code cannot be empty", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(name) == "" {
		name = code
	}
	if _, err := formula.CompileWithLimits(expression, limits); err != nil {
		return nil, err
	}
	return &PayrollFormula{
		BaseEntity: shared.NewBaseEntity(),
		Code:       code,
		Name:       name,
		Expression: expression,
		Active:     true,
	}, nil
}
