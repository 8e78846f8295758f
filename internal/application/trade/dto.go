package trade

import (
	"time"

	"github.com/erp/manufacturing/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderLineInput is one requested line
type PurchaseOrderLineInput struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
}

// CreatePurchaseOrderRequest creates a draft purchase order
type CreatePurchaseOrderRequest struct {
	OrderNumber  string
	SupplierName string
	WarehouseID  uuid.UUID
	Remark       string
	Lines        []PurchaseOrderLineInput
}

// PurchaseOrderLineResponse is the API view of an order line
type PurchaseOrderLineResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Amount    decimal.Decimal `json:"amount"`
}

// PurchaseOrderResponse is the API view of a purchase order
type PurchaseOrderResponse struct {
	ID           uuid.UUID                   `json:"id"`
	OrderNumber  string                      `json:"order_number"`
	SupplierName string                      `json:"supplier_name"`
	WarehouseID  uuid.UUID                   `json:"warehouse_id"`
	State        string                      `json:"state"`
	TotalAmount  decimal.Decimal             `json:"total_amount"`
	Remark       string                      `json:"remark,omitempty"`
	ApprovedAt   *time.Time                  `json:"approved_at,omitempty"`
	ReceivedAt   *time.Time                  `json:"received_at,omitempty"`
	Version      int                         `json:"version"`
	Lines        []PurchaseOrderLineResponse `json:"lines"`
	// ApprovalRequestID is set when the order was just submitted
	ApprovalRequestID *uuid.UUID `json:"approval_request_id,omitempty"`
}

// ToPurchaseOrderResponse converts a domain purchase order
func ToPurchaseOrderResponse(o *trade.PurchaseOrder) *PurchaseOrderResponse {
	resp := &PurchaseOrderResponse{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		SupplierName: o.SupplierName,
		WarehouseID:  o.WarehouseID,
		State:        string(o.State),
		TotalAmount:  o.TotalAmount,
		Remark:       o.Remark,
		ApprovedAt:   o.ApprovedAt,
		ReceivedAt:   o.ReceivedAt,
		Version:      o.GetVersion(),
		Lines:        make([]PurchaseOrderLineResponse, 0, len(o.Lines)),
	}
	for _, l := range o.Lines {
		resp.Lines = append(resp.Lines, PurchaseOrderLineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost,
			Amount:    l.Amount,
		})
	}
	return resp
}
