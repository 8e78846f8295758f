package telemetry

import (
	"context"
	"testing"

	"github.com/erp/manufacturing/internal/domain/approval"
	"github.com/erp/manufacturing/internal/domain/costing"
	"github.com/erp/manufacturing/internal/domain/production"
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestLedgerMetrics(t *testing.T) (*LedgerMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewLedgerMetrics(provider.Meter(LedgerMeterName))
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func intSum(t *testing.T, m metricdata.Metrics, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	want := attribute.NewSet(attrs...)
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			return dp.Value
		}
	}
	return 0
}

func floatSum(t *testing.T, m metricdata.Metrics, attrs ...attribute.KeyValue) float64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[float64])
	require.True(t, ok, "metric %s is not a float64 sum", m.Name)
	want := attribute.NewSet(attrs...)
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			return dp.Value
		}
	}
	return 0
}

func TestNewLedgerMetrics_NilMeter(t *testing.T) {
	_, err := NewLedgerMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestLedgerMetrics_ServiceHooks(t *testing.T) {
	m, reader := newTestLedgerMetrics(t)
	ctx := context.Background()

	m.RecordShortage(ctx, strategy.CostMethodFIFO)
	m.RecordShortage(ctx, strategy.CostMethodFIFO)
	m.RecordConflictRetry(ctx, "issue")
	m.RecordNotificationFailure(ctx, approval.DocumentTypePayroll)

	got := collect(t, reader)
	assert.Equal(t, int64(2), intSum(t, got["erp.costing.shortages"], AttrCostMethod.String("fifo")))
	assert.Equal(t, int64(1), intSum(t, got["erp.costing.conflict_retries"], AttrOperation.String("issue")))
	assert.Equal(t, int64(1), intSum(t, got["erp.approval.notification_failures"],
		AttrDocumentType.String(string(approval.DocumentTypePayroll))))
}

func TestLedgerMetricsHandler(t *testing.T) {
	m, reader := newTestLedgerMetrics(t)
	h := NewLedgerMetricsHandler(m)
	ctx := context.Background()
	id := uuid.New()

	events := []shared.DomainEvent{
		&costing.ReceiptRecordedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(costing.EventTypeReceiptRecorded, costing.AggregateTypeCostingRecord, id),
			Method:          strategy.CostMethodMovingAverage,
			TotalCost:       decimal.RequireFromString("100.5"),
		},
		&costing.IssueRecordedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(costing.EventTypeIssueRecorded, costing.AggregateTypeCostingRecord, id),
			Method:          strategy.CostMethodMovingAverage,
			TotalCost:       decimal.RequireFromString("40"),
		},
		&production.WIPPostedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(production.EventTypeWIPPosted, production.AggregateTypeProductionOrder, id),
			Category:        production.CostCategoryLabor,
			Amount:          decimal.RequireFromString("30.25"),
		},
		&production.OrderClosedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(production.EventTypeOrderClosed, production.AggregateTypeProductionOrder, id),
		},
		&approval.StepAdvancedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(approval.EventTypeStepAdvanced, approval.AggregateTypeApprovalRequest, id),
			DocumentType:    approval.DocumentTypePurchaseOrder,
		},
		&approval.ApprovedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(approval.EventTypeApproved, approval.AggregateTypeApprovalRequest, id),
			DocumentType:    approval.DocumentTypePurchaseOrder,
		},
		&approval.RejectedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(approval.EventTypeRejected, approval.AggregateTypeApprovalRequest, id),
			DocumentType:    approval.DocumentTypePurchaseOrder,
		},
	}
	for _, e := range events {
		assert.Contains(t, h.EventTypes(), e.EventType())
		require.NoError(t, h.Handle(ctx, e))
	}

	got := collect(t, reader)
	receipt := []attribute.KeyValue{AttrCostMethod.String("moving_average"), AttrDirection.String(DirectionReceipt)}
	issue := []attribute.KeyValue{AttrCostMethod.String("moving_average"), AttrDirection.String(DirectionIssue)}
	assert.Equal(t, int64(1), intSum(t, got["erp.costing.movements"], receipt...))
	assert.Equal(t, int64(1), intSum(t, got["erp.costing.movements"], issue...))
	assert.InDelta(t, 100.5, floatSum(t, got["erp.costing.movement_value"], receipt...), 1e-9)
	assert.InDelta(t, 40, floatSum(t, got["erp.costing.movement_value"], issue...), 1e-9)
	assert.InDelta(t, 30.25, floatSum(t, got["erp.production.wip_amount"], AttrCostCategory.String("labor")), 1e-9)
	assert.Equal(t, int64(1), intSum(t, got["erp.production.orders_closed"]))

	po := AttrDocumentType.String(string(approval.DocumentTypePurchaseOrder))
	assert.Equal(t, int64(2), intSum(t, got["erp.approval.decisions"], po, AttrDecision.String("approved")))
	assert.Equal(t, int64(1), intSum(t, got["erp.approval.decisions"], po, AttrDecision.String("rejected")))
}
