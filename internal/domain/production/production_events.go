package production

import (
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeProductionOrder = "ProductionOrder"

// Event type constants
const (
	EventTypeWIPPosted   = "production.wip_posted"
	EventTypeOrderClosed = "production.order_closed"
)

// WIPPostedEvent is raised after a cost is accrued against an order
type WIPPostedEvent struct {
	shared.BaseDomainEvent
	TransactionID uuid.UUID       `json:"transaction_id"`
	Category      CostCategory    `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
}

// NewWIPPostedEvent creates a WIPPostedEvent
func NewWIPPostedEvent(tx *WIPTransaction) *WIPPostedEvent {
	return &WIPPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWIPPosted, AggregateTypeProductionOrder, tx.OrderID),
		TransactionID:   tx.ID,
		Category:        tx.Category,
		Amount:          tx.Amount,
	}
}

// OrderClosedEvent is raised when an order is posted
type OrderClosedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string          `json:"order_number"`
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	ActualCost  decimal.Decimal `json:"actual_cost"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

// NewOrderClosedEvent creates an OrderClosedEvent
func NewOrderClosedEvent(o *ProductionOrder) *OrderClosedEvent {
	return &OrderClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderClosed, AggregateTypeProductionOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		ProductID:       o.ProductID,
		Quantity:        o.Quantity,
		ActualCost:      o.ActualCost,
		UnitCost:        o.UnitCost,
	}
}
