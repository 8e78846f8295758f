package costing

import (
	"time"

	"github.com/erp/manufacturing/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType distinguishes receipts from issues in the costing log
type TransactionType string

const (
	TransactionTypeReceipt TransactionType = "receipt"
	TransactionTypeIssue   TransactionType = "issue"
)

// ReferenceType names the document that caused a movement
type ReferenceType string

const (
	ReferenceManual              ReferenceType = "manual"
	ReferencePurchaseOrder       ReferenceType = "purchase_order"
	ReferenceProductionOrder     ReferenceType = "production_order"
	ReferenceBackflush           ReferenceType = "backflush"
	ReferenceInventoryAdjustment ReferenceType = "inventory_adjustment"
)

// Reference points at the source document of a movement
type Reference struct {
	Type ReferenceType
	ID   uuid.UUID
}

// CostingTransaction is an append-only log row for one receipt or issue
type CostingTransaction struct {
	ID               uuid.UUID
	RecordID         uuid.UUID
	ProductID        uuid.UUID
	WarehouseID      uuid.UUID
	Type             TransactionType
	Method           strategy.CostMethod
	Quantity         decimal.Decimal
	UnitCost         decimal.Decimal
	TotalCost        decimal.Decimal
	QuantityAfter    decimal.Decimal
	ValueAfter       decimal.Decimal
	AverageCostAfter decimal.Decimal
	Reference        Reference
	LotNumber        string
	Consumed         []strategy.LayerConsumption
	CreatedAt        time.Time
}

// NewCostingTransaction builds the log row for a movement applied to record
func NewCostingTransaction(
	record *CostingRecord,
	txType TransactionType,
	quantity decimal.Decimal,
	m strategy.Movement,
	ref Reference,
	lotNumber string,
) *CostingTransaction {
	if ref.Type == "" {
		ref.Type = ReferenceManual
	}
	return &CostingTransaction{
		ID:               uuid.New(),
		RecordID:         record.ID,
		ProductID:        record.ProductID,
		WarehouseID:      record.WarehouseID,
		Type:             txType,
		Method:           record.Method,
		Quantity:         quantity,
		UnitCost:         m.UnitCost,
		TotalCost:        m.TotalCost,
		QuantityAfter:    m.Result.Quantity,
		ValueAfter:       m.Result.Value,
		AverageCostAfter: m.Result.AverageCost,
		Reference:        ref,
		LotNumber:        lotNumber,
		Consumed:         m.Consumed,
		CreatedAt:        time.Now(),
	}
}
