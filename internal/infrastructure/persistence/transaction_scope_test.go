package persistence

import (
	"context"
	"errors"
	"testing"

	appshared "github.com/erp/manufacturing/internal/application/shared"
	"github.com/erp/manufacturing/internal/domain/production"
	"github.com/erp/manufacturing/internal/infrastructure/persistence/persistencetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTransactionScope_Execute(t *testing.T) {
	db := persistencetest.NewDB(t)
	scope := NewGormTransactionScope(db)
	repos := NewRepositories(db)
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		order := newTestOrder(t, "MO-TX-1")
		err := scope.Execute(ctx, func(r appshared.Repositories) error {
			if err := r.ProductionOrders().Create(ctx, order); err != nil {
				return err
			}
			return r.ProductionOrders().AccrueWIP(ctx, order.ID, dec("12"))
		})
		require.NoError(t, err)

		found, err := repos.ProductionOrders().FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.True(t, found.WIPCost.Equal(dec("12")))
	})

	t.Run("rolls back every write on error", func(t *testing.T) {
		order := newTestOrder(t, "MO-TX-2")
		boom := errors.New("boom")
		err := scope.Execute(ctx, func(r appshared.Repositories) error {
			if err := r.ProductionOrders().Create(ctx, order); err != nil {
				return err
			}
			tx, err := production.NewWIPTransaction(order.ID, production.CostCategoryMaterial, dec("3"), decimal.NullDecimal{}, "", "")
			if err != nil {
				return err
			}
			if err := r.WIPTransactions().Create(ctx, tx); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = repos.ProductionOrders().FindByID(ctx, order.ID)
		assert.ErrorIs(t, err, production.ErrOrderNotFound)
		rows, err := repos.WIPTransactions().FindByOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}
