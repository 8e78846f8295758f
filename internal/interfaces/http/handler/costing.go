package handler

import (
	"context"
	"time"

	appcosting "github.com/erp/manufacturing/internal/application/costing"
	"github.com/erp/manufacturing/internal/domain/costing"
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/domain/shared/strategy"
	"github.com/erp/manufacturing/internal/interfaces/http/dto"
	"github.com/erp/manufacturing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CostingService is the costing ledger as seen by the HTTP layer
type CostingService interface {
	RecordReceipt(ctx context.Context, req appcosting.ReceiptRequest) (*appcosting.MovementResult, error)
	RecordIssue(ctx context.Context, req appcosting.IssueRequest) (*appcosting.MovementResult, error)
	Initialize(ctx context.Context, productID, warehouseID uuid.UUID, method strategy.CostMethod) (*appcosting.ValuationResponse, error)
	GetValuation(ctx context.Context, productID, warehouseID uuid.UUID) (*appcosting.ValuationResponse, error)
	ListTransactions(ctx context.Context, productID, warehouseID uuid.UUID, filter shared.Filter) ([]appcosting.TransactionResponse, int64, error)
}

// CostingHandler handles costing ledger endpoints
type CostingHandler struct {
	BaseHandler
	costingService CostingService
}

// NewCostingHandler creates a new CostingHandler
func NewCostingHandler(costingService CostingService) *CostingHandler {
	return &CostingHandler{costingService: costingService}
}

// ReferenceRequest names the document behind a movement
type ReferenceRequest struct {
	ReferenceType string     `json:"reference_type" binding:"omitempty,oneof=manual purchase_order production_order backflush inventory_adjustment" example:"purchase_order"`
	ReferenceID   *uuid.UUID `json:"reference_id"`
}

func (r ReferenceRequest) toReference() costing.Reference {
	ref := costing.Reference{Type: costing.ReferenceManual}
	if r.ReferenceType != "" {
		ref.Type = costing.ReferenceType(r.ReferenceType)
	}
	if r.ReferenceID != nil {
		ref.ID = *r.ReferenceID
	}
	return ref
}

// RecordReceiptRequest books stock in at a unit cost
type RecordReceiptRequest struct {
	ReferenceRequest
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	WarehouseID uuid.UUID       `json:"warehouse_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"decimal_gt0" example:"100"`
	UnitCost    decimal.Decimal `json:"unit_cost" binding:"decimal_gte0" example:"10.50"`
	ReceivedAt  *time.Time      `json:"received_at"`
	LotNumber   string          `json:"lot_number" binding:"max=100"`
}

// RecordIssueRequest takes stock out at the current cost
type RecordIssueRequest struct {
	ReferenceRequest
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	WarehouseID uuid.UUID       `json:"warehouse_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"decimal_gt0" example:"20"`
	LotNumber   string          `json:"lot_number" binding:"max=100"`
}

// InitializeRecordRequest creates a costing record with an explicit method
type InitializeRecordRequest struct {
	ProductID   uuid.UUID `json:"product_id" binding:"required"`
	WarehouseID uuid.UUID `json:"warehouse_id" binding:"required"`
	Method      string    `json:"method" binding:"omitempty,oneof=moving_average fifo" example:"fifo"`
}

// RecordReceipt books a receipt into the ledger
// POST /costing/receipts
func (h *CostingHandler) RecordReceipt(c *gin.Context) {
	var req RecordReceiptRequest
	if !h.BindJSON(c, &req) {
		return
	}

	appReq := appcosting.ReceiptRequest{
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		Quantity:    req.Quantity,
		UnitCost:    req.UnitCost,
		Reference:   req.toReference(),
		LotNumber:   req.LotNumber,
	}
	if req.ReceivedAt != nil {
		appReq.ReceivedAt = *req.ReceivedAt
	}

	result, err := h.costingService.RecordReceipt(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// RecordIssue issues stock out of the ledger
// POST /costing/issues
func (h *CostingHandler) RecordIssue(c *gin.Context) {
	var req RecordIssueRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.costingService.RecordIssue(c.Request.Context(), appcosting.IssueRequest{
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		Quantity:    req.Quantity,
		Reference:   req.toReference(),
		LotNumber:   req.LotNumber,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Initialize creates the costing record of a product-warehouse pair
// POST /costing/records
func (h *CostingHandler) Initialize(c *gin.Context) {
	var req InitializeRecordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	valuation, err := h.costingService.Initialize(c.Request.Context(), req.ProductID, req.WarehouseID, strategy.CostMethod(req.Method))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, valuation)
}

// GetValuation returns the current valuation and open layers
// GET /costing/records/:product_id/:warehouse_id
func (h *CostingHandler) GetValuation(c *gin.Context) {
	productID, warehouseID, ok := h.pairParams(c)
	if !ok {
		return
	}

	valuation, err := h.costingService.GetValuation(c.Request.Context(), productID, warehouseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, valuation)
}

// ListTransactions pages through the costing log, newest first
// GET /costing/records/:product_id/:warehouse_id/transactions
func (h *CostingHandler) ListTransactions(c *gin.Context) {
	productID, warehouseID, ok := h.pairParams(c)
	if !ok {
		return
	}

	list := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&list); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := shared.DefaultFilter()
	filter.Page = list.Page
	filter.PageSize = list.PageSize
	rows, total, err := h.costingService.ListTransactions(c.Request.Context(), productID, warehouseID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, rows, total, list.Page, list.PageSize)
}

func (h *CostingHandler) pairParams(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	productID, err := parseUUIDParam(c, "product_id")
	if err != nil {
		h.InvalidID(c, "product ID")
		return uuid.Nil, uuid.Nil, false
	}
	warehouseID, err := parseUUIDParam(c, "warehouse_id")
	if err != nil {
		h.InvalidID(c, "warehouse ID")
		return uuid.Nil, uuid.Nil, false
	}
	return productID, warehouseID, true
}
