package production

import (
	"errors"
	"testing"

	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBOM(t *testing.T, components ...BOMComponent) *BOM {
	t.Helper()
	b, err := NewBOM("Chair", uuid.New(), "", components)
	require.NoError(t, err)
	return b
}

func TestBackflush(t *testing.T) {
	legs := uuid.New()
	seat := uuid.New()
	bom := newTestBOM(t,
		BOMComponent{ComponentID: legs, QuantityPerUnit: dec("4")},
		BOMComponent{ComponentID: seat, QuantityPerUnit: dec("1.5"), Unit: "kg"},
	)
	order, err := NewProductionOrder("MO-7", bom.ProductID, bom.ID, uuid.New(), dec("10"))
	require.NoError(t, err)

	t.Run("baseline has no scrap", func(t *testing.T) {
		records, err := Backflush(order, bom, dec("10"), nil)
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, legs, records[0].ComponentID)
		assert.True(t, records[0].PlannedQuantity.Equal(dec("40")))
		assert.True(t, records[0].ActualQuantity.Equal(dec("40")))
		assert.True(t, records[0].ScrapQuantity.IsZero())
		assert.True(t, records[0].Variance.IsZero())
		assert.True(t, records[1].PlannedQuantity.Equal(dec("15")))
		assert.Equal(t, records[0].RunID, records[1].RunID)
		assert.Equal(t, order.LotNumber, records[1].LotNumber)
	})

	t.Run("scrap override raises actual and variance", func(t *testing.T) {
		records, err := Backflush(order, bom, dec("10"), map[uuid.UUID]decimal.Decimal{legs: dec("2")})
		require.NoError(t, err)
		assert.True(t, records[0].ActualQuantity.Equal(dec("42")))
		assert.True(t, records[0].Variance.Equal(dec("2")))
		assert.True(t, records[1].Variance.IsZero())
	})

	t.Run("rejects scrap for unknown component", func(t *testing.T) {
		_, err := Backflush(order, bom, dec("10"), map[uuid.UUID]decimal.Decimal{uuid.New(): dec("1")})
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := Backflush(order, bom, decimal.Zero, nil)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("missing references", func(t *testing.T) {
		_, err := Backflush(nil, bom, dec("1"), nil)
		assert.True(t, errors.Is(err, ErrProductionOrderNotFound))

		_, err = Backflush(order, nil, dec("1"), nil)
		assert.True(t, errors.Is(err, ErrBOMNotFound))

		inactive := *bom
		inactive.Active = false
		_, err = Backflush(order, &inactive, dec("1"), nil)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("closed order", func(t *testing.T) {
		closed, err := NewProductionOrder("MO-8", bom.ProductID, bom.ID, uuid.New(), dec("1"))
		require.NoError(t, err)
		_, err = closed.Post(decimal.Zero, closed.CreatedAt)
		require.NoError(t, err)

		_, err = Backflush(closed, bom, dec("1"), nil)
		assert.True(t, errors.Is(err, ErrOrderClosed))
	})
}

func TestNewBOM(t *testing.T) {
	product := uuid.New()
	comp := uuid.New()

	_, err := NewBOM("x", product, "", nil)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	_, err = NewBOM("x", product, "", []BOMComponent{{ComponentID: product, QuantityPerUnit: dec("1")}})
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	_, err = NewBOM("x", product, "", []BOMComponent{
		{ComponentID: comp, QuantityPerUnit: dec("1")},
		{ComponentID: comp, QuantityPerUnit: dec("2")},
	})
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	b, err := NewBOM("x", product, "", []BOMComponent{{ComponentID: comp, QuantityPerUnit: dec("2")}})
	require.NoError(t, err)
	assert.Equal(t, "1.0", b.Version)
	assert.Equal(t, "pcs", b.Components[0].Unit)
	assert.True(t, b.Active)
}
