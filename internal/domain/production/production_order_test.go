package production

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestOrder(t *testing.T, qty string) *ProductionOrder {
	t.Helper()
	o, err := NewProductionOrder("PO-001", uuid.New(), uuid.New(), uuid.New(), dec(qty))
	require.NoError(t, err)
	return o
}

func TestNewProductionOrder(t *testing.T) {
	t.Run("creates draft order", func(t *testing.T) {
		o := newTestOrder(t, "100")
		assert.Equal(t, OrderStateDraft, o.State)
		assert.Equal(t, "LOT-PO-001", o.LotNumber)
		assert.True(t, o.WIPCost.IsZero())
	})

	t.Run("allows zero quantity", func(t *testing.T) {
		o := newTestOrder(t, "0")
		assert.True(t, o.Quantity.IsZero())
	})

	t.Run("rejects negative quantity", func(t *testing.T) {
		_, err := NewProductionOrder("PO-2", uuid.New(), uuid.New(), uuid.New(), dec("-1"))
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("rejects empty number", func(t *testing.T) {
		_, err := NewProductionOrder("  ", uuid.New(), uuid.New(), uuid.New(), dec("1"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Order number")
	})
}

func TestProductionOrder_Post(t *testing.T) {
	t.Run("computes unit cost", func(t *testing.T) {
		o := newTestOrder(t, "100")
		unit, err := o.Post(dec("1800"), time.Now())
		require.NoError(t, err)

		assert.True(t, unit.Equal(dec("18")))
		assert.Equal(t, OrderStatePosted, o.State)
		assert.True(t, o.ActualCost.Equal(dec("1800")))
		assert.NotNil(t, o.PostedAt)
		require.Len(t, o.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeOrderClosed, o.GetDomainEvents()[0].EventType())
	})

	t.Run("zero quantity yields zero unit cost", func(t *testing.T) {
		o := newTestOrder(t, "0")
		unit, err := o.Post(dec("500"), time.Now())
		require.NoError(t, err)
		assert.True(t, unit.IsZero())
		assert.True(t, o.ActualCost.Equal(dec("500")))
	})

	t.Run("second post fails with already closed", func(t *testing.T) {
		o := newTestOrder(t, "10")
		_, err := o.Post(dec("10"), time.Now())
		require.NoError(t, err)

		_, err = o.Post(dec("10"), time.Now())
		assert.True(t, errors.Is(err, ErrAlreadyClosed))
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})

	t.Run("cancelled order cannot be posted", func(t *testing.T) {
		o := newTestOrder(t, "10")
		require.NoError(t, o.Cancel())
		_, err := o.Post(decimal.Zero, time.Now())
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
		assert.False(t, errors.Is(err, ErrAlreadyClosed))
	})
}

func TestProductionOrder_Lifecycle(t *testing.T) {
	o := newTestOrder(t, "5")
	require.NoError(t, o.Start())
	assert.Equal(t, OrderStateInProgress, o.State)
	assert.Error(t, o.Start())
	assert.NoError(t, o.EnsureAcceptsCosts())

	o.WIPCost = dec("1")
	assert.True(t, errors.Is(o.Cancel(), shared.ErrInvalidState))

	_, err := o.Post(dec("1"), time.Now())
	require.NoError(t, err)
	assert.True(t, errors.Is(o.EnsureAcceptsCosts(), ErrOrderClosed))
}

func TestNewWIPTransaction(t *testing.T) {
	orderID := uuid.New()

	tx, err := NewWIPTransaction(orderID, CostCategoryLabor, dec("500"), decimal.NullDecimal{}, "shift A", "u1")
	require.NoError(t, err)
	assert.Equal(t, CostCategoryLabor, tx.Category)

	_, err = NewWIPTransaction(orderID, "energy", dec("1"), decimal.NullDecimal{}, "", "")
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	_, err = NewWIPTransaction(orderID, CostCategoryMaterial, dec("-1"), decimal.NullDecimal{}, "", "")
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestSummarize(t *testing.T) {
	orderID := uuid.New()
	txs := []WIPTransaction{
		{OrderID: orderID, Category: CostCategoryMaterial, Amount: dec("1000")},
		{OrderID: orderID, Category: CostCategoryLabor, Amount: dec("500")},
		{OrderID: orderID, Category: CostCategoryOverhead, Amount: dec("300")},
	}

	s := Summarize(txs)
	assert.True(t, s.Total.Equal(dec("1800")))
	assert.Equal(t, 3, s.Count)
	assert.True(t, s.ByCategory[CostCategoryMaterial].Equal(dec("1000")))

	empty := Summarize(nil)
	assert.True(t, empty.Total.IsZero())
	assert.True(t, empty.ByCategory[CostCategoryLabor].IsZero())
}

func TestAnalyzeVariances(t *testing.T) {
	o := newTestOrder(t, "100")
	o.StandardCosts = StandardCosts{
		Material: decimal.NewNullDecimal(dec("800")),
		Labor:    decimal.NewNullDecimal(dec("0")),
	}
	s := Summarize([]WIPTransaction{
		{Category: CostCategoryMaterial, Amount: dec("1000")},
		{Category: CostCategoryLabor, Amount: dec("50")},
	})

	rows := AnalyzeVariances(o, s)
	require.Len(t, rows, 2)
	assert.Equal(t, CostCategoryMaterial, rows[0].Category)
	assert.True(t, rows[0].VarianceAmount.Equal(dec("200")))
	assert.True(t, rows[0].VariancePercentage.Equal(dec("25")))
	assert.True(t, rows[1].VariancePercentage.IsZero())
}
