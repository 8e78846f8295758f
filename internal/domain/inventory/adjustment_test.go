package inventory

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

func TestNewAdjustment(t *testing.T) {
	product, warehouse := uuid.New(), uuid.New()

	t.Run("receipt keeps unit cost", func(t *testing.T) {
		a, err := NewAdjustment("ADJ-1", product, warehouse, decimal.NewFromInt(5), decimal.NewFromInt(3), "count")
		require.NoError(t, err)
		assert.True(t, a.IsReceipt())
		assert.True(t, a.UnitCost.Equal(decimal.NewFromInt(3)))
		assert.Equal(t, AdjustmentStateDraft, a.State)
	})

	t.Run("issue ignores unit cost", func(t *testing.T) {
		a, err := NewAdjustment("ADJ-2", product, warehouse, decimal.NewFromInt(-5), decimal.NewFromInt(3), "damage")
		require.NoError(t, err)
		assert.False(t, a.IsReceipt())
		assert.True(t, a.Quantity().Equal(decimal.NewFromInt(5)))
		assert.True(t, a.UnitCost.IsZero())
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := NewAdjustment("ADJ-3", product, warehouse, decimal.Zero, decimal.Zero, "")
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		_, err = NewAdjustment("ADJ-4", product, warehouse, decimal.NewFromInt(1), decimal.NewFromInt(-1), "")
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		_, err = NewAdjustment("ADJ-5", product, warehouse, decimal.RequireFromString("-0.00001"), decimal.Zero, "")
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		_, err = NewAdjustment("ADJ-6", uuid.Nil, warehouse, decimal.NewFromInt(1), decimal.Zero, "")
		assert.Error(t, err)
	})
}

func TestAdjustment_Lifecycle(t *testing.T) {
	a, err := NewAdjustment("ADJ-1", uuid.New(), uuid.New(), decimal.NewFromInt(2), decimal.NewFromInt(7), "")
	require.NoError(t, err)

	assert.True(t, errors.Is(a.Post(decimal.NewFromInt(14), time.Now()), shared.ErrInvalidState))
	require.NoError(t, a.Submit())
	require.NoError(t, a.Post(decimal.NewFromInt(14), time.Now()))
	assert.Equal(t, AdjustmentStatePosted, a.State)
	assert.True(t, a.PostedCost.Valid)
	assert.True(t, errors.Is(a.Cancel(), shared.ErrInvalidState))
	assert.Equal(t, 3, a.GetVersion())
}
