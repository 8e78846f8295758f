package handler

import (
	"context"

	appinventory "github.com/erp/manufacturing/internal/application/inventory"
	apptrade "github.com/erp/manufacturing/internal/application/trade"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderService manages purchase orders
type PurchaseOrderService interface {
	Create(ctx context.Context, req apptrade.CreatePurchaseOrderRequest) (*apptrade.PurchaseOrderResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*apptrade.PurchaseOrderResponse, error)
	Submit(ctx context.Context, id, requestedBy uuid.UUID) (*apptrade.PurchaseOrderResponse, error)
	Receive(ctx context.Context, id uuid.UUID) (*apptrade.PurchaseOrderResponse, error)
}

// AdjustmentService manages inventory adjustments
type AdjustmentService interface {
	Create(ctx context.Context, req appinventory.CreateAdjustmentRequest) (*appinventory.AdjustmentResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*appinventory.AdjustmentResponse, error)
	Submit(ctx context.Context, id, requestedBy uuid.UUID) (*appinventory.AdjustmentResponse, error)
}

// DocumentHandler handles the documents that go through approval
type DocumentHandler struct {
	BaseHandler
	purchaseOrders PurchaseOrderService
	adjustments    AdjustmentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(purchaseOrders PurchaseOrderService, adjustments AdjustmentService) *DocumentHandler {
	return &DocumentHandler{
		purchaseOrders: purchaseOrders,
		adjustments:    adjustments,
	}
}

// PurchaseOrderLineRequest is one requested line
type PurchaseOrderLineRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"decimal_gt0" example:"50"`
	UnitCost  decimal.Decimal `json:"unit_cost" binding:"decimal_gte0" example:"12"`
}

// CreatePurchaseOrderRequest creates a draft purchase order
type CreatePurchaseOrderRequest struct {
	OrderNumber  string                     `json:"order_number" binding:"required,max=50" example:"PO-2026-0042"`
	SupplierName string                     `json:"supplier_name" binding:"required,max=200" example:"Acme Metals"`
	WarehouseID  uuid.UUID                  `json:"warehouse_id" binding:"required"`
	Remark       string                     `json:"remark" binding:"max=500"`
	Lines        []PurchaseOrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// CreateAdjustmentRequest creates a draft inventory adjustment. A positive
// delta books stock in at unit_cost, a negative one issues at current cost.
type CreateAdjustmentRequest struct {
	AdjustmentNumber string          `json:"adjustment_number" binding:"required,max=50" example:"ADJ-2026-0007"`
	ProductID        uuid.UUID       `json:"product_id" binding:"required"`
	WarehouseID      uuid.UUID       `json:"warehouse_id" binding:"required"`
	QuantityDelta    decimal.Decimal `json:"quantity_delta" example:"-3"`
	UnitCost         decimal.Decimal `json:"unit_cost" binding:"decimal_gte0" example:"0"`
	Reason           string          `json:"reason" binding:"max=500" example:"cycle count"`
}

// CreatePurchaseOrder creates a draft purchase order
// POST /purchase-orders
func (h *DocumentHandler) CreatePurchaseOrder(c *gin.Context) {
	var req CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lines := make([]apptrade.PurchaseOrderLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, apptrade.PurchaseOrderLineInput{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost,
		})
	}

	resp, err := h.purchaseOrders.Create(c.Request.Context(), apptrade.CreatePurchaseOrderRequest{
		OrderNumber:  req.OrderNumber,
		SupplierName: req.SupplierName,
		WarehouseID:  req.WarehouseID,
		Remark:       req.Remark,
		Lines:        lines,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetPurchaseOrder returns a purchase order
// GET /purchase-orders/:id
func (h *DocumentHandler) GetPurchaseOrder(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	resp, err := h.purchaseOrders.Get(c.Request.Context(), id)
	h.respond(c, resp, err)
}

// SubmitPurchaseOrder sends a draft purchase order for approval
// POST /purchase-orders/:id/submit
func (h *DocumentHandler) SubmitPurchaseOrder(c *gin.Context) {
	id, actor, ok := h.submission(c)
	if !ok {
		return
	}
	resp, err := h.purchaseOrders.Submit(c.Request.Context(), id, actor)
	h.respond(c, resp, err)
}

// ReceivePurchaseOrder books an approved order's lines into the ledger
// POST /purchase-orders/:id/receive
func (h *DocumentHandler) ReceivePurchaseOrder(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	resp, err := h.purchaseOrders.Receive(c.Request.Context(), id)
	h.respond(c, resp, err)
}

// CreateAdjustment creates a draft inventory adjustment
// POST /inventory-adjustments
func (h *DocumentHandler) CreateAdjustment(c *gin.Context) {
	var req CreateAdjustmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if req.QuantityDelta.IsZero() {
		h.BadRequest(c, "quantity_delta cannot be zero")
		return
	}

	resp, err := h.adjustments.Create(c.Request.Context(), appinventory.CreateAdjustmentRequest{
		AdjustmentNumber: req.AdjustmentNumber,
		ProductID:        req.ProductID,
		WarehouseID:      req.WarehouseID,
		QuantityDelta:    req.QuantityDelta,
		UnitCost:         req.UnitCost,
		Reason:           req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetAdjustment returns an inventory adjustment
// GET /inventory-adjustments/:id
func (h *DocumentHandler) GetAdjustment(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	resp, err := h.adjustments.Get(c.Request.Context(), id)
	h.respond(c, resp, err)
}

// SubmitAdjustment sends a draft adjustment for approval
// POST /inventory-adjustments/:id/submit
func (h *DocumentHandler) SubmitAdjustment(c *gin.Context) {
	id, actor, ok := h.submission(c)
	if !ok {
		return
	}
	resp, err := h.adjustments.Submit(c.Request.Context(), id, actor)
	h.respond(c, resp, err)
}

func (h *DocumentHandler) documentID(c *gin.Context) (uuid.UUID, bool) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.InvalidID(c, "document ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *DocumentHandler) submission(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	id, ok := h.documentID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	actor, ok := h.Actor(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return id, actor, true
}

func (h *DocumentHandler) respond(c *gin.Context, data any, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, data)
}
