package costing

import (
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeCostingRecord = "CostingRecord"

// Event type constants
const (
	EventTypeReceiptRecorded = "costing.receipt_recorded"
	EventTypeIssueRecorded   = "costing.issue_recorded"
)

// ReceiptRecordedEvent is raised after stock is received into a costing record
type ReceiptRecordedEvent struct {
	shared.BaseDomainEvent
	ProductID      uuid.UUID           `json:"product_id"`
	WarehouseID    uuid.UUID           `json:"warehouse_id"`
	Method         strategy.CostMethod `json:"method"`
	Quantity       decimal.Decimal     `json:"quantity"`
	UnitCost       decimal.Decimal     `json:"unit_cost"`
	TotalCost      decimal.Decimal     `json:"total_cost"`
	NewAverageCost decimal.Decimal     `json:"new_average_cost"`
}

// NewReceiptRecordedEvent creates a ReceiptRecordedEvent
func NewReceiptRecordedEvent(r *CostingRecord, quantity decimal.Decimal, m strategy.Movement) *ReceiptRecordedEvent {
	return &ReceiptRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceiptRecorded, AggregateTypeCostingRecord, r.ID),
		ProductID:       r.ProductID,
		WarehouseID:     r.WarehouseID,
		Method:          r.Method,
		Quantity:        quantity,
		UnitCost:        m.UnitCost,
		TotalCost:       m.TotalCost,
		NewAverageCost:  m.Result.AverageCost,
	}
}

// IssueRecordedEvent is raised after stock is issued from a costing record
type IssueRecordedEvent struct {
	shared.BaseDomainEvent
	ProductID      uuid.UUID           `json:"product_id"`
	WarehouseID    uuid.UUID           `json:"warehouse_id"`
	Method         strategy.CostMethod `json:"method"`
	Quantity       decimal.Decimal     `json:"quantity"`
	UnitCost       decimal.Decimal     `json:"unit_cost"`
	TotalCost      decimal.Decimal     `json:"total_cost"`
	LayersConsumed int                 `json:"layers_consumed"`
}

// NewIssueRecordedEvent creates an IssueRecordedEvent
func NewIssueRecordedEvent(r *CostingRecord, quantity decimal.Decimal, m strategy.Movement) *IssueRecordedEvent {
	return &IssueRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeIssueRecorded, AggregateTypeCostingRecord, r.ID),
		ProductID:       r.ProductID,
		WarehouseID:     r.WarehouseID,
		Method:          r.Method,
		Quantity:        quantity,
		UnitCost:        m.UnitCost,
		TotalCost:       m.TotalCost,
		LayersConsumed:  len(m.Consumed),
	}
}
