package costing

import (
	"time"

	"github.com/erp/manufacturing/internal/domain/costing"
	"github.com/erp/manufacturing/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptRequest books stock into a product-warehouse pair
type ReceiptRequest struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	ReceivedAt  time.Time
	Reference   costing.Reference
	LotNumber   string
}

// IssueRequest takes stock out of a product-warehouse pair
type IssueRequest struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Quantity    decimal.Decimal
	Reference   costing.Reference
	LotNumber   string
}

// MovementResult is the outcome of one receipt or issue
type MovementResult struct {
	TransactionID    uuid.UUID                   `json:"transaction_id"`
	ProductID        uuid.UUID                   `json:"product_id"`
	WarehouseID      uuid.UUID                   `json:"warehouse_id"`
	Type             string                      `json:"type"`
	Method           string                      `json:"method"`
	Quantity         decimal.Decimal             `json:"quantity"`
	UnitCost         decimal.Decimal             `json:"unit_cost"`
	TotalCost        decimal.Decimal             `json:"total_cost"`
	QuantityAfter    decimal.Decimal             `json:"quantity_after"`
	ValueAfter       decimal.Decimal             `json:"value_after"`
	AverageCostAfter decimal.Decimal             `json:"average_cost_after"`
	Consumed         []strategy.LayerConsumption `json:"consumed,omitempty"`
}

// LayerResponse is one open FIFO layer
type LayerResponse struct {
	Sequence   int64           `json:"sequence"`
	Quantity   decimal.Decimal `json:"quantity"`
	Remaining  decimal.Decimal `json:"remaining"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	ReceivedAt time.Time       `json:"received_at"`
}

// ValuationResponse is the current valuation of a product in a warehouse
type ValuationResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Method      string          `json:"method"`
	Quantity    decimal.Decimal `json:"quantity"`
	Value       decimal.Decimal `json:"value"`
	AverageCost decimal.Decimal `json:"average_cost"`
	Version     int             `json:"version"`
	Layers      []LayerResponse `json:"layers,omitempty"`
}

// TransactionResponse is one row of the costing log
type TransactionResponse struct {
	ID               uuid.UUID       `json:"id"`
	Type             string          `json:"type"`
	Method           string          `json:"method"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	QuantityAfter    decimal.Decimal `json:"quantity_after"`
	ValueAfter       decimal.Decimal `json:"value_after"`
	AverageCostAfter decimal.Decimal `json:"average_cost_after"`
	ReferenceType    string          `json:"reference_type"`
	ReferenceID      *uuid.UUID      `json:"reference_id,omitempty"`
	LotNumber        string          `json:"lot_number,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ToMovementResult converts a log row to a MovementResult
func ToMovementResult(tx *costing.CostingTransaction) *MovementResult {
	return &MovementResult{
		TransactionID:    tx.ID,
		ProductID:        tx.ProductID,
		WarehouseID:      tx.WarehouseID,
		Type:             string(tx.Type),
		Method:           string(tx.Method),
		Quantity:         tx.Quantity,
		UnitCost:         tx.UnitCost,
		TotalCost:        tx.TotalCost,
		QuantityAfter:    tx.QuantityAfter,
		ValueAfter:       tx.ValueAfter,
		AverageCostAfter: tx.AverageCostAfter,
		Consumed:         tx.Consumed,
	}
}

// ToValuationResponse converts a record to a ValuationResponse
func ToValuationResponse(r *costing.CostingRecord) *ValuationResponse {
	resp := &ValuationResponse{
		ProductID:   r.ProductID,
		WarehouseID: r.WarehouseID,
		Method:      string(r.Method),
		Quantity:    r.Valuation.Quantity,
		Value:       r.Valuation.Value,
		AverageCost: r.Valuation.AverageCost,
		Version:     r.GetVersion(),
	}
	for _, l := range r.Valuation.Layers {
		resp.Layers = append(resp.Layers, LayerResponse{
			Sequence:   l.Sequence,
			Quantity:   l.Quantity,
			Remaining:  l.Remaining,
			UnitCost:   l.UnitCost,
			ReceivedAt: l.ReceivedAt,
		})
	}
	return resp
}

// ToTransactionResponse converts a log row to a TransactionResponse
func ToTransactionResponse(tx costing.CostingTransaction) TransactionResponse {
	resp := TransactionResponse{
		ID:               tx.ID,
		Type:             string(tx.Type),
		Method:           string(tx.Method),
		Quantity:         tx.Quantity,
		UnitCost:         tx.UnitCost,
		TotalCost:        tx.TotalCost,
		QuantityAfter:    tx.QuantityAfter,
		ValueAfter:       tx.ValueAfter,
		AverageCostAfter: tx.AverageCostAfter,
		ReferenceType:    string(tx.Reference.Type),
		LotNumber:        tx.LotNumber,
		CreatedAt:        tx.CreatedAt,
	}
	if tx.Reference.ID != uuid.Nil {
		id := tx.Reference.ID
		resp.ReferenceID = &id
	}
	return resp
}
