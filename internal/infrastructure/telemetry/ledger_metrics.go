package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/manufacturing/internal/domain/approval"
	"github.com/erp/manufacturing/internal/domain/costing"
	"github.com/erp/manufacturing/internal/domain/production"
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// LedgerMeterName is the instrumentation scope of the ledger metrics
const LedgerMeterName = "erp-manufacturing/ledger"

// Movement directions
const (
	DirectionReceipt = "receipt"
	DirectionIssue   = "issue"
)

// Metric attribute keys
var (
	AttrCostMethod   = attribute.Key("cost_method")
	AttrDirection    = attribute.Key("direction")
	AttrOperation    = attribute.Key("operation")
	AttrCostCategory = attribute.Key("cost_category")
	AttrDocumentType = attribute.Key("document_type")
	AttrDecision     = attribute.Key("decision")
)

// ErrMeterNil is returned by NewLedgerMetrics without a meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// LedgerMetrics records costing, production and approval counters
type LedgerMetrics struct {
	movements            metric.Int64Counter
	movementValue        metric.Float64Counter
	shortages            metric.Int64Counter
	conflictRetries      metric.Int64Counter
	wipAmount            metric.Float64Counter
	ordersClosed         metric.Int64Counter
	approvalDecisions    metric.Int64Counter
	notificationFailures metric.Int64Counter
}

// instrumentSet creates counters on one meter and keeps the first failure
type instrumentSet struct {
	meter metric.Meter
	err   error
}

func (s *instrumentSet) count(name, desc, unit string) metric.Int64Counter {
	c, err := s.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil && s.err == nil {
		s.err = fmt.Errorf("create counter %s: %w", name, err)
	}
	return c
}

func (s *instrumentSet) total(name, desc, unit string) metric.Float64Counter {
	c, err := s.meter.Float64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil && s.err == nil {
		s.err = fmt.Errorf("create counter %s: %w", name, err)
	}
	return c
}

// NewLedgerMetrics creates the ledger instruments on meter
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	s := &instrumentSet{meter: meter}
	m := &LedgerMetrics{
		movements:            s.count("erp.costing.movements", "Stock movements applied to costing records", "{movement}"),
		movementValue:        s.total("erp.costing.movement_value", "Value of stock movements", "{currency}"),
		shortages:            s.count("erp.costing.shortages", "Issues rejected for insufficient stock", "{issue}"),
		conflictRetries:      s.count("erp.costing.conflict_retries", "Optimistic lock conflicts that were retried", "{retry}"),
		wipAmount:            s.total("erp.production.wip_amount", "Costs accrued to production orders", "{currency}"),
		ordersClosed:         s.count("erp.production.orders_closed", "Production orders posted", "{order}"),
		approvalDecisions:    s.count("erp.approval.decisions", "Approval steps decided", "{decision}"),
		notificationFailures: s.count("erp.approval.notification_failures", "Approval notifications that could not be delivered", "{notification}"),
	}
	if s.err != nil {
		return nil, s.err
	}
	return m, nil
}

func inc(ctx context.Context, c metric.Int64Counter, attrs ...attribute.KeyValue) {
	c.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// addAmount drops negative amounts, which a monotonic counter rejects
func addAmount(ctx context.Context, c metric.Float64Counter, amount decimal.Decimal, attrs ...attribute.KeyValue) {
	if amount.IsNegative() {
		return
	}
	c.Add(ctx, amount.InexactFloat64(), metric.WithAttributes(attrs...))
}

// RecordShortage implements the costing service metrics
func (m *LedgerMetrics) RecordShortage(ctx context.Context, method strategy.CostMethod) {
	inc(ctx, m.shortages, AttrCostMethod.String(string(method)))
}

// RecordConflictRetry implements the costing service metrics
func (m *LedgerMetrics) RecordConflictRetry(ctx context.Context, operation string) {
	inc(ctx, m.conflictRetries, AttrOperation.String(operation))
}

// RecordNotificationFailure implements the approval service metrics
func (m *LedgerMetrics) RecordNotificationFailure(ctx context.Context, docType approval.DocumentType) {
	inc(ctx, m.notificationFailures, AttrDocumentType.String(string(docType)))
}

// RecordMovement counts a costing receipt or issue and its value
func (m *LedgerMetrics) RecordMovement(ctx context.Context, method strategy.CostMethod, direction string, value decimal.Decimal) {
	attrs := []attribute.KeyValue{AttrCostMethod.String(string(method)), AttrDirection.String(direction)}
	inc(ctx, m.movements, attrs...)
	addAmount(ctx, m.movementValue, value, attrs...)
}

// RecordWIPPosted adds an accrued cost
func (m *LedgerMetrics) RecordWIPPosted(ctx context.Context, category production.CostCategory, amount decimal.Decimal) {
	addAmount(ctx, m.wipAmount, amount, AttrCostCategory.String(string(category)))
}

// RecordOrderClosed counts a posted production order
func (m *LedgerMetrics) RecordOrderClosed(ctx context.Context) {
	inc(ctx, m.ordersClosed)
}

// RecordApprovalDecision counts one approve or reject
func (m *LedgerMetrics) RecordApprovalDecision(ctx context.Context, docType approval.DocumentType, decision approval.Decision) {
	inc(ctx, m.approvalDecisions, AttrDocumentType.String(string(docType)), AttrDecision.String(string(decision)))
}

// LedgerMetricsHandler feeds published domain events into LedgerMetrics
type LedgerMetricsHandler struct {
	metrics *LedgerMetrics
}

// NewLedgerMetricsHandler creates a LedgerMetricsHandler
func NewLedgerMetricsHandler(metrics *LedgerMetrics) *LedgerMetricsHandler {
	return &LedgerMetricsHandler{metrics: metrics}
}

// EventTypes implements shared.EventHandler
func (h *LedgerMetricsHandler) EventTypes() []string {
	return []string{
		costing.EventTypeReceiptRecorded,
		costing.EventTypeIssueRecorded,
		production.EventTypeWIPPosted,
		production.EventTypeOrderClosed,
		approval.EventTypeStepAdvanced,
		approval.EventTypeApproved,
		approval.EventTypeRejected,
	}
}

// Handle implements shared.EventHandler
func (h *LedgerMetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *costing.ReceiptRecordedEvent:
		h.metrics.RecordMovement(ctx, e.Method, DirectionReceipt, e.TotalCost)
	case *costing.IssueRecordedEvent:
		h.metrics.RecordMovement(ctx, e.Method, DirectionIssue, e.TotalCost)
	case *production.WIPPostedEvent:
		h.metrics.RecordWIPPosted(ctx, e.Category, e.Amount)
	case *production.OrderClosedEvent:
		h.metrics.RecordOrderClosed(ctx)
	case *approval.StepAdvancedEvent:
		h.metrics.RecordApprovalDecision(ctx, e.DocumentType, approval.DecisionApproved)
	case *approval.ApprovedEvent:
		h.metrics.RecordApprovalDecision(ctx, e.DocumentType, approval.DecisionApproved)
	case *approval.RejectedEvent:
		h.metrics.RecordApprovalDecision(ctx, e.DocumentType, approval.DecisionRejected)
	}
	return nil
}

var _ shared.EventHandler = (*LedgerMetricsHandler)(nil)
