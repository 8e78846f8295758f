package formula

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DivisionPrecision is the number of decimal places kept by division
const DivisionPrecision int32 = 16

type node interface {
	eval(vars Variables) (decimal.Decimal, error)
}

type numberNode struct {
	value decimal.Decimal
}

func (n numberNode) eval(Variables) (decimal.Decimal, error) {
	return n.value, nil
}

type variableNode struct {
	name Variable
}

func (n variableNode) eval(vars Variables) (decimal.Decimal, error) {
	return vars.value(n.name), nil
}

type negateNode struct {
	operand node
}

func (n negateNode) eval(vars Variables) (decimal.Decimal, error) {
	v, err := n.operand.eval(vars)
	if err != nil {
		return decimal.Zero, err
	}
	return v.Neg(), nil
}

type binaryNode struct {
	op          tokenKind
	left, right node
	pos         int
}

func (n binaryNode) eval(vars Variables) (decimal.Decimal, error) {
	l, err := n.left.eval(vars)
	if err != nil {
		return decimal.Zero, err
	}
	r, err := n.right.eval(vars)
	if err != nil {
		return decimal.Zero, err
	}

	switch n.op {
	case tokPlus:
		return l.Add(r), nil
	case tokMinus:
		return l.Sub(r), nil
	case tokStar:
		return l.Mul(r), nil
	case tokSlash:
		if r.IsZero() {
			return decimal.Zero, fmt.Errorf("division by zero at %d", n.pos)
		}
		return l.DivRound(r, DivisionPrecision), nil
	}
	return decimal.Zero, fmt.Errorf("unknown operator %s", n.op)
}
