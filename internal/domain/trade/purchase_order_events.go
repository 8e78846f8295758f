package trade

import (
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypePurchaseOrder = "PurchaseOrder"

// EventTypePurchaseOrderReceived is raised once goods are received into stock
const EventTypePurchaseOrderReceived = "trade.purchase_order_received"

// PurchaseOrderReceivedEvent is raised when a purchase order is received
type PurchaseOrderReceivedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string          `json:"order_number"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	LineCount   int             `json:"line_count"`
}

// NewPurchaseOrderReceivedEvent creates a PurchaseOrderReceivedEvent
func NewPurchaseOrderReceivedEvent(o *PurchaseOrder) *PurchaseOrderReceivedEvent {
	return &PurchaseOrderReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderReceived, AggregateTypePurchaseOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		WarehouseID:     o.WarehouseID,
		TotalAmount:     o.TotalAmount,
		LineCount:       len(o.Lines),
	}
}
