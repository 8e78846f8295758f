package cost

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMovingAverageCostStrategy(t *testing.T) {
	s := NewMovingAverageCostStrategy()

	assert.Equal(t, "moving_average", s.Name())
	assert.Equal(t, strategy.CostMethodMovingAverage, s.Method())
}

func TestMovingAverageCostStrategy_Receive(t *testing.T) {
	s := NewMovingAverageCostStrategy()

	m, err := s.Receive(strategy.Valuation{}, strategy.ReceiptInput{Quantity: dec("100"), UnitCost: dec("10")})
	require.NoError(t, err)
	assert.True(t, m.TotalCost.Equal(dec("1000")))
	require.True(t, m.NewAverageCost.Valid)
	assert.True(t, m.NewAverageCost.Decimal.Equal(dec("10")))

	m, err = s.Receive(m.Result, strategy.ReceiptInput{Quantity: dec("100"), UnitCost: dec("20")})
	require.NoError(t, err)
	assert.True(t, m.Result.Quantity.Equal(dec("200")))
	assert.True(t, m.Result.Value.Equal(dec("3000")))
	assert.True(t, m.Result.AverageCost.Equal(dec("15")))
	assert.Empty(t, m.Result.Layers)
}

func TestMovingAverageCostStrategy_Issue(t *testing.T) {
	s := NewMovingAverageCostStrategy()
	v := strategy.Valuation{Quantity: dec("200"), Value: dec("3000"), AverageCost: dec("15")}

	m, err := s.Issue(v, strategy.IssueInput{Quantity: dec("40")})
	require.NoError(t, err)
	assert.True(t, m.TotalCost.Equal(dec("600")))
	assert.True(t, m.UnitCost.Equal(dec("15")))
	assert.True(t, m.Result.Quantity.Equal(dec("160")))
	assert.True(t, m.Result.Value.Equal(dec("2400")))
	assert.True(t, m.Result.AverageCost.Equal(dec("15")))
}

func TestMovingAverageCostStrategy_FullDrainReleasesExactValue(t *testing.T) {
	s := NewMovingAverageCostStrategy()
	v := receiveAll(t, s, strategy.Valuation{},
		strategy.ReceiptInput{Quantity: dec("3"), UnitCost: dec("1")},
		strategy.ReceiptInput{Quantity: dec("3"), UnitCost: dec("1.000001")},
		strategy.ReceiptInput{Quantity: dec("1"), UnitCost: dec("2")},
	)

	m, err := s.Issue(v, strategy.IssueInput{Quantity: v.Quantity})
	require.NoError(t, err)
	assert.True(t, m.TotalCost.Equal(v.Value))
	assert.True(t, m.Result.Quantity.IsZero())
	assert.True(t, m.Result.Value.IsZero())
}

func TestMovingAverageCostStrategy_ReceiptIntoEmptyUsesUnitCost(t *testing.T) {
	s := NewMovingAverageCostStrategy()
	v := strategy.Valuation{Quantity: decimal.Zero, Value: decimal.Zero, AverageCost: dec("9")}

	m, err := s.Receive(v, strategy.ReceiptInput{Quantity: dec("4"), UnitCost: dec("2.5")})
	require.NoError(t, err)
	assert.True(t, m.Result.AverageCost.Equal(dec("2.5")))
}

func TestMovingAverageCostStrategy_InsufficientStock(t *testing.T) {
	s := NewMovingAverageCostStrategy()
	v := strategy.Valuation{Quantity: dec("5"), Value: dec("50"), AverageCost: dec("10")}
	before := v.Clone()

	_, err := s.Issue(v, strategy.IssueInput{Quantity: dec("8")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInsufficientStock))

	var stockErr *strategy.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.True(t, stockErr.Shortage().Equal(dec("3")))
	assert.Equal(t, before, v)
}

func TestMovingAverageCostStrategy_InvariantWithinTolerance(t *testing.T) {
	s := NewMovingAverageCostStrategy()
	v := strategy.Valuation{}
	half := dec("0.000001")

	ops := []struct {
		receive bool
		qty     string
		cost    string
	}{
		{true, "100", "10"},
		{true, "50", "12"},
		{false, "30", ""},
		{true, "7", "3.333333"},
		{false, "0.0001", ""},
		{true, "13.3333", "11.111111"},
		{false, "99.9999", ""},
		{false, "10", ""},
		{true, "1", "0"},
	}
	for i, op := range ops {
		var (
			m   strategy.Movement
			err error
		)
		if op.receive {
			m, err = s.Receive(v, strategy.ReceiptInput{Quantity: dec(op.qty), UnitCost: dec(op.cost), ReceivedAt: time.Now()})
		} else {
			m, err = s.Issue(v, strategy.IssueInput{Quantity: dec(op.qty)})
		}
		require.NoError(t, err, "op %d", i)
		v = m.Result

		diff := v.Value.Sub(v.Quantity.Mul(v.AverageCost)).Abs()
		tolerance := v.Quantity.Mul(half)
		assert.True(t, diff.LessThanOrEqual(tolerance), "op %d: |%s - %s×%s| = %s", i, v.Value, v.Quantity, v.AverageCost, diff)
		assert.False(t, v.Value.IsNegative())
	}
}
