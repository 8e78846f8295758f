package costing_test

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/manufacturing/internal/domain/costing"
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/domain/shared/strategy"
	"github.com/erp/manufacturing/internal/infrastructure/strategy/cost"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newRecord(t *testing.T, method strategy.CostMethod) *costing.CostingRecord {
	t.Helper()
	r, err := costing.NewCostingRecord(uuid.New(), uuid.New(), method)
	require.NoError(t, err)
	return r
}

func TestNewCostingRecord(t *testing.T) {
	t.Run("defaults to moving average", func(t *testing.T) {
		r := newRecord(t, "")
		assert.Equal(t, strategy.CostMethodMovingAverage, r.Method)
		assert.True(t, r.Valuation.Quantity.IsZero())
		assert.True(t, r.Valuation.Value.IsZero())
		assert.Equal(t, 1, r.Version)
	})

	t.Run("rejects unknown method", func(t *testing.T) {
		_, err := costing.NewCostingRecord(uuid.New(), uuid.New(), "lifo")
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("rejects nil product", func(t *testing.T) {
		_, err := costing.NewCostingRecord(uuid.Nil, uuid.New(), strategy.CostMethodFIFO)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Product ID")
	})
}

func TestCostingRecord_FIFOScenario(t *testing.T) {
	r := newRecord(t, strategy.CostMethodFIFO)
	s := cost.NewFIFOCostStrategy()
	t0 := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	_, err := r.Receive(s, strategy.ReceiptInput{Quantity: dec("100"), UnitCost: dec("10"), ReceivedAt: t0})
	require.NoError(t, err)
	_, err = r.Receive(s, strategy.ReceiptInput{Quantity: dec("50"), UnitCost: dec("12"), ReceivedAt: t0.Add(time.Minute)})
	require.NoError(t, err)

	m, err := r.Issue(s, strategy.IssueInput{Quantity: dec("120")})
	require.NoError(t, err)
	assert.True(t, m.TotalCost.Equal(dec("1240")))

	require.Len(t, r.Valuation.Layers, 1)
	assert.True(t, r.Valuation.Layers[0].Remaining.Equal(dec("30")))
	assert.True(t, r.Valuation.Layers[0].UnitCost.Equal(dec("12")))
	assert.NoError(t, r.CheckInvariant())
	assert.Equal(t, 4, r.Version)
	assert.Len(t, r.GetDomainEvents(), 3)
}

func TestCostingRecord_FailedIssueLeavesRecordUnchanged(t *testing.T) {
	r := newRecord(t, strategy.CostMethodMovingAverage)
	s := cost.NewMovingAverageCostStrategy()

	_, err := r.Receive(s, strategy.ReceiptInput{Quantity: dec("10"), UnitCost: dec("4")})
	require.NoError(t, err)
	before := r.Snapshot()
	version := r.Version
	events := len(r.GetDomainEvents())

	_, err = r.Issue(s, strategy.IssueInput{Quantity: dec("11")})
	require.Error(t, err)

	var stockErr *costing.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.True(t, stockErr.Shortage().Equal(dec("1")))

	assert.Equal(t, before, r.Valuation)
	assert.Equal(t, version, r.Version)
	assert.Len(t, r.GetDomainEvents(), events)
}

func TestCostingRecord_StrategyMismatch(t *testing.T) {
	r := newRecord(t, strategy.CostMethodFIFO)

	_, err := r.Receive(cost.NewMovingAverageCostStrategy(), strategy.ReceiptInput{Quantity: dec("1"), UnitCost: dec("1")})
	assert.True(t, errors.Is(err, shared.ErrInvalidState))

	_, err = r.Issue(nil, strategy.IssueInput{Quantity: dec("1")})
	assert.True(t, errors.Is(err, shared.ErrConfigurationMissing))
}

func TestCostingRecord_CheckInvariant(t *testing.T) {
	t.Run("detects fifo drift", func(t *testing.T) {
		r := newRecord(t, strategy.CostMethodFIFO)
		_, err := r.Receive(cost.NewFIFOCostStrategy(), strategy.ReceiptInput{Quantity: dec("2"), UnitCost: dec("3")})
		require.NoError(t, err)

		r.Valuation.Value = dec("7")
		assert.True(t, errors.Is(r.CheckInvariant(), shared.ErrDataIntegrity))
	})

	t.Run("detects moving average drift", func(t *testing.T) {
		r := newRecord(t, strategy.CostMethodMovingAverage)
		r.Valuation = strategy.Valuation{Quantity: dec("10"), Value: dec("100.1"), AverageCost: dec("10")}
		assert.True(t, errors.Is(r.CheckInvariant(), shared.ErrDataIntegrity))
	})

	t.Run("accepts rounding within tolerance", func(t *testing.T) {
		r := newRecord(t, strategy.CostMethodMovingAverage)
		r.Valuation = strategy.Valuation{Quantity: dec("3"), Value: dec("10"), AverageCost: dec("3.333333")}
		assert.NoError(t, r.CheckInvariant())
	})
}
