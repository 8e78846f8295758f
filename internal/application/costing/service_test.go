package costing_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	appcosting "github.com/erp/manufacturing/internal/application/costing"
	"github.com/erp/manufacturing/internal/domain/costing"
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/domain/shared/strategy"
	"github.com/erp/manufacturing/internal/infrastructure/lock"
	"github.com/erp/manufacturing/internal/infrastructure/persistence"
	"github.com/erp/manufacturing/internal/infrastructure/persistence/persistencetest"
	infrastrategy "github.com/erp/manufacturing/internal/infrastructure/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type countingMetrics struct {
	mu        sync.Mutex
	shortages int
	retries   int
}

func (m *countingMetrics) RecordShortage(context.Context, strategy.CostMethod) {
	m.mu.Lock()
	m.shortages++
	m.mu.Unlock()
}

func (m *countingMetrics) RecordConflictRetry(context.Context, string) {
	m.mu.Lock()
	m.retries++
	m.mu.Unlock()
}

type fixture struct {
	svc       *appcosting.Service
	publisher *recordingPublisher
	metrics   *countingMetrics
}

func newFixture(t *testing.T, method strategy.CostMethod) fixture {
	t.Helper()
	db := persistencetest.NewDB(t)
	registry, err := infrastrategy.NewRegistryWithDefaults(method)
	require.NoError(t, err)

	svc := appcosting.NewService(
		persistence.NewGormTransactionScope(db),
		persistence.NewRepositories(db),
		registry,
		lock.NewKeyedLocker(),
		nil,
		appcosting.Config{DefaultMethod: method},
	)
	f := fixture{svc: svc, publisher: &recordingPublisher{}, metrics: &countingMetrics{}}
	svc.SetEventPublisher(f.publisher)
	svc.SetMetrics(f.metrics)
	return f
}

func TestService_MovingAverage(t *testing.T) {
	f := newFixture(t, strategy.CostMethodMovingAverage)
	ctx := context.Background()
	product, warehouse := uuid.New(), uuid.New()

	_, err := f.svc.RecordReceipt(ctx, appcosting.ReceiptRequest{ProductID: product, WarehouseID: warehouse, Quantity: dec("10"), UnitCost: dec("10")})
	require.NoError(t, err)
	res, err := f.svc.RecordReceipt(ctx, appcosting.ReceiptRequest{ProductID: product, WarehouseID: warehouse, Quantity: dec("10"), UnitCost: dec("20")})
	require.NoError(t, err)
	assert.True(t, res.AverageCostAfter.Equal(dec("15")), "got %s", res.AverageCostAfter)

	issue, err := f.svc.RecordIssue(ctx, appcosting.IssueRequest{ProductID: product, WarehouseID: warehouse, Quantity: dec("5")})
	require.NoError(t, err)
	assert.True(t, issue.TotalCost.Equal(dec("75")), "got %s", issue.TotalCost)
	assert.True(t, issue.QuantityAfter.Equal(dec("15")))

	val, err := f.svc.GetValuation(ctx, product, warehouse)
	require.NoError(t, err)
	assert.Equal(t, string(strategy.CostMethodMovingAverage), val.Method)
	assert.True(t, val.Value.Equal(dec("225")), "got %s", val.Value)
	assert.Equal(t, 3, f.publisher.count())

	rows, total, err := f.svc.ListTransactions(ctx, product, warehouse, shared.Filter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, rows, 3)
}

func TestService_FIFOConsumesOldestLayersFirst(t *testing.T) {
	f := newFixture(t, strategy.CostMethodFIFO)
	ctx := context.Background()
	product, warehouse := uuid.New(), uuid.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, cost := range []string{"10", "12", "15"} {
		_, err := f.svc.RecordReceipt(ctx, appcosting.ReceiptRequest{
			ProductID: product, WarehouseID: warehouse,
			Quantity: dec("10"), UnitCost: dec(cost),
			ReceivedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	issue, err := f.svc.RecordIssue(ctx, appcosting.IssueRequest{ProductID: product, WarehouseID: warehouse, Quantity: dec("15")})
	require.NoError(t, err)
	assert.True(t, issue.TotalCost.Equal(dec("160")), "got %s", issue.TotalCost)
	require.Len(t, issue.Consumed, 2)
	assert.True(t, issue.Consumed[0].UnitCost.Equal(dec("10")))
	assert.True(t, issue.Consumed[1].Quantity.Equal(dec("5")))

	val, err := f.svc.GetValuation(ctx, product, warehouse)
	require.NoError(t, err)
	require.Len(t, val.Layers, 2)
	assert.True(t, val.Layers[0].Remaining.Equal(dec("5")))
	assert.True(t, val.Value.Equal(dec("210")), "got %s", val.Value)
}

func TestService_IssueShortageWritesNothing(t *testing.T) {
	f := newFixture(t, strategy.CostMethodMovingAverage)
	ctx := context.Background()
	product, warehouse := uuid.New(), uuid.New()

	_, err := f.svc.RecordIssue(ctx, appcosting.IssueRequest{ProductID: product, WarehouseID: warehouse, Quantity: dec("1")})
	var shortage *costing.InsufficientStockError
	require.True(t, errors.As(err, &shortage))
	assert.True(t, shortage.Available.IsZero())

	_, err = f.svc.RecordReceipt(ctx, appcosting.ReceiptRequest{ProductID: product, WarehouseID: warehouse, Quantity: dec("2"), UnitCost: dec("4")})
	require.NoError(t, err)

	_, err = f.svc.RecordIssue(ctx, appcosting.IssueRequest{ProductID: product, WarehouseID: warehouse, Quantity: dec("3")})
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	val, err := f.svc.GetValuation(ctx, product, warehouse)
	require.NoError(t, err)
	assert.True(t, val.Quantity.Equal(dec("2")))
	assert.Equal(t, 2, f.metrics.shortages)
}

func TestService_Initialize(t *testing.T) {
	f := newFixture(t, strategy.CostMethodMovingAverage)
	ctx := context.Background()
	product, warehouse := uuid.New(), uuid.New()

	val, err := f.svc.Initialize(ctx, product, warehouse, strategy.CostMethodFIFO)
	require.NoError(t, err)
	assert.Equal(t, string(strategy.CostMethodFIFO), val.Method)

	_, err = f.svc.Initialize(ctx, product, warehouse, strategy.CostMethodFIFO)
	assert.NoError(t, err)

	_, err = f.svc.Initialize(ctx, product, warehouse, strategy.CostMethodMovingAverage)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	_, err = f.svc.Initialize(ctx, product, warehouse, "lifo")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestService_ConcurrentMovementsStayConsistent(t *testing.T) {
	f := newFixture(t, strategy.CostMethodMovingAverage)
	ctx := context.Background()
	product, warehouse := uuid.New(), uuid.New()

	_, err := f.svc.RecordReceipt(ctx, appcosting.ReceiptRequest{ProductID: product, WarehouseID: warehouse, Quantity: dec("100"), UnitCost: dec("2")})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.svc.RecordIssue(ctx, appcosting.IssueRequest{ProductID: product, WarehouseID: warehouse, Quantity: dec("3")})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := f.svc.RecordReceipt(ctx, appcosting.ReceiptRequest{ProductID: product, WarehouseID: warehouse, Quantity: dec("1"), UnitCost: dec("2")})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	val, err := f.svc.GetValuation(ctx, product, warehouse)
	require.NoError(t, err)
	assert.True(t, val.Quantity.Equal(dec("80")), "got %s", val.Quantity)
	assert.True(t, val.Value.Equal(dec("160")), "got %s", val.Value)
	assert.Equal(t, 22, val.Version)
}

func TestService_ConcurrentIssuesCannotOverdraw(t *testing.T) {
	for _, method := range []strategy.CostMethod{strategy.CostMethodFIFO, strategy.CostMethodMovingAverage} {
		t.Run(string(method), func(t *testing.T) {
			f := newFixture(t, method)
			ctx := context.Background()
			product, warehouse := uuid.New(), uuid.New()

			_, err := f.svc.RecordReceipt(ctx, appcosting.ReceiptRequest{ProductID: product, WarehouseID: warehouse, Quantity: dec("10"), UnitCost: dec("4")})
			require.NoError(t, err)

			errs := make([]error, 2)
			var wg sync.WaitGroup
			for i := range errs {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = f.svc.RecordIssue(ctx, appcosting.IssueRequest{ProductID: product, WarehouseID: warehouse, Quantity: dec("10")})
				}(i)
			}
			wg.Wait()

			var ok, short int
			for _, err := range errs {
				switch {
				case err == nil:
					ok++
				case errors.Is(err, shared.ErrInsufficientStock):
					short++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}
			assert.Equal(t, 1, ok)
			assert.Equal(t, 1, short)

			val, err := f.svc.GetValuation(ctx, product, warehouse)
			require.NoError(t, err)
			assert.True(t, val.Quantity.IsZero(), "got %s", val.Quantity)
			assert.True(t, val.Value.IsZero(), "got %s", val.Value)
		})
	}
}
