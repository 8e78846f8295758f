// Package formula evaluates payroll formulas.
//
// A formula is plain arithmetic over four variables (basic_salary, present_days,
// working_days, overtime_hours) with + - * / and parentheses. Nothing else is in
// scope: there are no function calls, attribute lookups or other names, so a
// stored formula cannot do anything except compute a number.
package formula

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// EvaluationError reports why a formula could not be compiled or evaluated.
// It matches shared.ErrEvaluationFailure with errors.Is.
type EvaluationError struct {
	Expression string
	Reason     string
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("formula %q: %s", e.Expression, e.Reason)
}

// Is makes errors.Is(err, shared.ErrEvaluationFailure) match
func (e *EvaluationError) Is(target error) bool {
	return target == shared.ErrEvaluationFailure
}

func newEvaluationError(expr string, err error) *EvaluationError {
	return &EvaluationError{Expression: expr, Reason: err.Error()}
}

// truncate shortens s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// Expression is a compiled formula
type Expression struct {
	source string
	root   node
}

// Source returns the formula text
func (e *Expression) Source() string {
	return e.source
}

// Compile parses expr with DefaultLimits
func Compile(expr string) (*Expression, error) {
	return CompileWithLimits(expr, DefaultLimits())
}

// CompileWithLimits parses expr, rejecting anything outside the grammar
func CompileWithLimits(expr string, limits Limits) (*Expression, error) {
	if limits.MaxLength <= 0 || limits.MaxDepth <= 0 {
		limits = DefaultLimits()
	}
	if strings.TrimSpace(expr) == "" {
		return nil, newEvaluationError(expr, errors.New("empty expression"))
	}
	if len(expr) > limits.MaxLength {
		return nil, newEvaluationError(truncate(expr, limits.MaxLength), fmt.Errorf("expression longer than %d characters", limits.MaxLength))
	}

	tokens, err := tokenize(expr)
	if err != nil {
		return nil, newEvaluationError(expr, err)
	}
	p := &parser{tokens: tokens, maxDepth: limits.MaxDepth}
	root, err := p.parse()
	if err != nil {
		return nil, newEvaluationError(expr, err)
	}
	return &Expression{source: expr, root: root}, nil
}

// Evaluate computes the formula. A negative result is an error: gross pay cannot be negative.
func (e *Expression) Evaluate(vars Variables) (decimal.Decimal, error) {
	v, err := e.root.eval(vars)
	if err != nil {
		return decimal.Zero, newEvaluationError(e.source, err)
	}
	if v.IsNegative() {
		return decimal.Zero, newEvaluationError(e.source, fmt.Errorf("negative result %s", v))
	}
	return v, nil
}

// Evaluate compiles and evaluates expr in one step
func Evaluate(expr string, vars Variables) (decimal.Decimal, error) {
	compiled, err := Compile(expr)
	if err != nil {
		return decimal.Zero, err
	}
	return compiled.Evaluate(vars)
}

// Result is the outcome of a fail-closed evaluation
type Result struct {
	Gross    decimal.Decimal
	FellBack bool
	Err      error
}

// EvaluateWithFallback never fails: on any error Gross is the basic salary,
// FellBack is set and Err carries the EvaluationError.
func EvaluateWithFallback(expr string, vars Variables, limits Limits) Result {
	compiled, err := CompileWithLimits(expr, limits)
	if err == nil {
		var gross decimal.Decimal
		gross, err = compiled.Evaluate(vars)
		if err == nil {
			return Result{Gross: gross}
		}
	}
	return Result{Gross: vars.BasicSalary, FellBack: true, Err: err}
}
