package production

import (
	"time"

	"github.com/erp/manufacturing/internal/domain/production"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest creates a draft production order
type CreateOrderRequest struct {
	OrderNumber   string
	ProductID     uuid.UUID
	BOMID         uuid.UUID
	WarehouseID   uuid.UUID
	Quantity      decimal.Decimal
	PlannedStart  *time.Time
	PlannedEnd    *time.Time
	StandardCosts production.StandardCosts
}

// PostCostRequest accrues one cost against an order
type PostCostRequest struct {
	OrderID   uuid.UUID
	Category  string
	Amount    decimal.Decimal
	Quantity  decimal.NullDecimal
	Notes     string
	CreatedBy string
}

// CreateBOMRequest creates a bill of materials
type CreateBOMRequest struct {
	Name       string
	ProductID  uuid.UUID
	Version    string
	Components []production.BOMComponent
}

// BackflushRequest expands a BOM over a produced quantity
type BackflushRequest struct {
	OrderID          uuid.UUID
	ProducedQuantity decimal.Decimal
	Scrap            map[uuid.UUID]decimal.Decimal
	CreatedBy        string
}

// OrderResponse is the API view of a production order
type OrderResponse struct {
	ID           uuid.UUID       `json:"id"`
	OrderNumber  string          `json:"order_number"`
	ProductID    uuid.UUID       `json:"product_id"`
	BOMID        uuid.UUID       `json:"bom_id"`
	WarehouseID  uuid.UUID       `json:"warehouse_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	LotNumber    string          `json:"lot_number"`
	State        string          `json:"state"`
	WIPCost      decimal.Decimal `json:"wip_cost"`
	ActualCost   decimal.Decimal `json:"actual_cost"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	PlannedStart *time.Time      `json:"planned_start,omitempty"`
	PlannedEnd   *time.Time      `json:"planned_end,omitempty"`
	PostedAt     *time.Time      `json:"posted_at,omitempty"`
	Version      int             `json:"version"`
}

// WIPTransactionResponse is the API view of a WIP transaction
type WIPTransactionResponse struct {
	ID        uuid.UUID           `json:"id"`
	Category  string              `json:"category"`
	Amount    decimal.Decimal     `json:"amount"`
	Quantity  decimal.NullDecimal `json:"quantity"`
	Notes     string              `json:"notes,omitempty"`
	CreatedBy string              `json:"created_by,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// WIPListResponse lists an order's WIP transactions with their totals
type WIPListResponse struct {
	OrderID      uuid.UUID                  `json:"order_id"`
	Total        decimal.Decimal            `json:"total"`
	ByCategory   map[string]decimal.Decimal `json:"by_category"`
	Transactions []WIPTransactionResponse   `json:"transactions"`
}

// CloseResult is the outcome of closing an order
type CloseResult struct {
	Order         OrderResponse              `json:"order"`
	TotalCost     decimal.Decimal            `json:"total_cost"`
	UnitCost      decimal.Decimal            `json:"unit_cost"`
	ByCategory    map[string]decimal.Decimal `json:"by_category"`
	CachedWIPCost decimal.Decimal            `json:"cached_wip_cost"`
	Discrepancy   decimal.Decimal            `json:"discrepancy"`
	Variances     []VarianceResponse         `json:"variances,omitempty"`
	// ReceiptTransactionID is the finished-goods receipt in the costing ledger
	ReceiptTransactionID *uuid.UUID `json:"receipt_transaction_id,omitempty"`
}

// VarianceResponse is the API view of a variance analysis row
type VarianceResponse struct {
	Category           string          `json:"category"`
	StandardCost       decimal.Decimal `json:"standard_cost"`
	ActualCost         decimal.Decimal `json:"actual_cost"`
	VarianceAmount     decimal.Decimal `json:"variance_amount"`
	VariancePercentage decimal.Decimal `json:"variance_percentage"`
}

// BOMResponse is the API view of a BOM
type BOMResponse struct {
	ID         uuid.UUID                 `json:"id"`
	Name       string                    `json:"name"`
	ProductID  uuid.UUID                 `json:"product_id"`
	Version    string                    `json:"version"`
	Active     bool                      `json:"active"`
	Components []production.BOMComponent `json:"components"`
}

// BackflushLine is one component of a backflush run
type BackflushLine struct {
	ComponentID     uuid.UUID           `json:"component_id"`
	LotNumber       string              `json:"lot_number"`
	PlannedQuantity decimal.Decimal     `json:"planned_quantity"`
	ActualQuantity  decimal.Decimal     `json:"actual_quantity"`
	ScrapQuantity   decimal.Decimal     `json:"scrap_quantity"`
	Variance        decimal.Decimal     `json:"variance"`
	IssuedCost      decimal.NullDecimal `json:"issued_cost"`
}

// BackflushResult is the outcome of a backflush preview or run
type BackflushResult struct {
	RunID            uuid.UUID       `json:"run_id"`
	OrderID          uuid.UUID       `json:"order_id"`
	ProducedQuantity decimal.Decimal `json:"produced_quantity"`
	Applied          bool            `json:"applied"`
	TotalIssuedCost  decimal.Decimal `json:"total_issued_cost"`
	Lines            []BackflushLine `json:"lines"`
}

// ToOrderResponse converts a domain order
func ToOrderResponse(o *production.ProductionOrder) OrderResponse {
	return OrderResponse{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		ProductID:    o.ProductID,
		BOMID:        o.BOMID,
		WarehouseID:  o.WarehouseID,
		Quantity:     o.Quantity,
		LotNumber:    o.LotNumber,
		State:        string(o.State),
		WIPCost:      o.WIPCost,
		ActualCost:   o.ActualCost,
		UnitCost:     o.UnitCost,
		PlannedStart: o.PlannedStart,
		PlannedEnd:   o.PlannedEnd,
		PostedAt:     o.PostedAt,
		Version:      o.GetVersion(),
	}
}

// ToWIPTransactionResponse converts a domain WIP transaction
func ToWIPTransactionResponse(tx production.WIPTransaction) WIPTransactionResponse {
	return WIPTransactionResponse{
		ID:        tx.ID,
		Category:  string(tx.Category),
		Amount:    tx.Amount,
		Quantity:  tx.Quantity,
		Notes:     tx.Notes,
		CreatedBy: tx.CreatedBy,
		CreatedAt: tx.CreatedAt,
	}
}

// ToVarianceResponses converts domain variance rows
func ToVarianceResponses(rows []production.VarianceAnalysis) []VarianceResponse {
	out := make([]VarianceResponse, 0, len(rows))
	for _, v := range rows {
		out = append(out, VarianceResponse{
			Category:           string(v.Category),
			StandardCost:       v.StandardCost,
			ActualCost:         v.ActualCost,
			VarianceAmount:     v.VarianceAmount,
			VariancePercentage: v.VariancePercentage,
		})
	}
	return out
}

// ToBOMResponse converts a domain BOM
func ToBOMResponse(b *production.BOM) BOMResponse {
	return BOMResponse{
		ID:         b.ID,
		Name:       b.Name,
		ProductID:  b.ProductID,
		Version:    b.Version,
		Active:     b.Active,
		Components: b.Components,
	}
}

func categoryMap(m map[production.CostCategory]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}

func toBackflushResult(order *production.ProductionOrder, produced decimal.Decimal, records []production.BackflushRecord, applied bool) *BackflushResult {
	res := &BackflushResult{
		OrderID:          order.ID,
		ProducedQuantity: produced,
		Applied:          applied,
		TotalIssuedCost:  decimal.Zero,
		Lines:            make([]BackflushLine, 0, len(records)),
	}
	for _, r := range records {
		res.RunID = r.RunID
		res.Lines = append(res.Lines, BackflushLine{
			ComponentID:     r.ComponentID,
			LotNumber:       r.LotNumber,
			PlannedQuantity: r.PlannedQuantity,
			ActualQuantity:  r.ActualQuantity,
			ScrapQuantity:   r.ScrapQuantity,
			Variance:        r.Variance,
			IssuedCost:      r.IssuedCost,
		})
		if r.IssuedCost.Valid {
			res.TotalIssuedCost = res.TotalIssuedCost.Add(r.IssuedCost.Decimal)
		}
	}
	return res
}
