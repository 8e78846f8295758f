package handler

import (
	"context"
	"time"

	appproduction "github.com/erp/manufacturing/internal/application/production"
	"github.com/erp/manufacturing/internal/domain/production"
	"github.com/erp/manufacturing/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WIPService is the WIP accumulator as seen by the HTTP layer
type WIPService interface {
	CreateBOM(ctx context.Context, req appproduction.CreateBOMRequest) (*appproduction.BOMResponse, error)
	CreateOrder(ctx context.Context, req appproduction.CreateOrderRequest) (*appproduction.OrderResponse, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*appproduction.OrderResponse, error)
	Start(ctx context.Context, orderID uuid.UUID) (*appproduction.OrderResponse, error)
	Cancel(ctx context.Context, orderID uuid.UUID) (*appproduction.OrderResponse, error)
	PostCost(ctx context.Context, req appproduction.PostCostRequest) (*appproduction.WIPTransactionResponse, error)
	ListTransactions(ctx context.Context, orderID uuid.UUID) (*appproduction.WIPListResponse, error)
	ListVariances(ctx context.Context, orderID uuid.UUID) ([]appproduction.VarianceResponse, error)
	Close(ctx context.Context, orderID uuid.UUID) (*appproduction.CloseResult, error)
}

// BackflushService is the backflush engine as seen by the HTTP layer
type BackflushService interface {
	Preview(ctx context.Context, req appproduction.BackflushRequest) (*appproduction.BackflushResult, error)
	Apply(ctx context.Context, req appproduction.BackflushRequest) (*appproduction.BackflushResult, error)
}

// ProductionHandler handles production order, WIP and backflush endpoints
type ProductionHandler struct {
	BaseHandler
	wipService       WIPService
	backflushService BackflushService
}

// NewProductionHandler creates a new ProductionHandler
func NewProductionHandler(wipService WIPService, backflushService BackflushService) *ProductionHandler {
	return &ProductionHandler{
		wipService:       wipService,
		backflushService: backflushService,
	}
}

// StandardCostsRequest carries the optional per-category standard costs
type StandardCostsRequest struct {
	Material decimal.NullDecimal `json:"material" binding:"omitempty,decimal_gte0"`
	Labor    decimal.NullDecimal `json:"labor" binding:"omitempty,decimal_gte0"`
	Overhead decimal.NullDecimal `json:"overhead" binding:"omitempty,decimal_gte0"`
}

// CreateOrderRequest creates a draft production order
type CreateOrderRequest struct {
	OrderNumber   string               `json:"order_number" binding:"required,min=1,max=50" example:"MO-2026-0001"`
	ProductID     uuid.UUID            `json:"product_id" binding:"required"`
	BOMID         uuid.UUID            `json:"bom_id" binding:"required"`
	WarehouseID   uuid.UUID            `json:"warehouse_id" binding:"required"`
	Quantity      decimal.Decimal      `json:"quantity" binding:"decimal_gt0" example:"100"`
	PlannedStart  *time.Time           `json:"planned_start"`
	PlannedEnd    *time.Time           `json:"planned_end"`
	StandardCosts StandardCostsRequest `json:"standard_costs"`
}

// PostCostRequest accrues one cost against an order
type PostCostRequest struct {
	Category string              `json:"category" binding:"required,oneof=material labor overhead" example:"labor"`
	Amount   decimal.Decimal     `json:"amount" binding:"decimal_gte0" example:"500"`
	Quantity decimal.NullDecimal `json:"quantity" binding:"omitempty,decimal_gte0"`
	Notes    string              `json:"notes" binding:"max=500"`
}

// BackflushRequest expands the order's BOM over a produced quantity
type BackflushRequest struct {
	ProducedQuantity decimal.Decimal               `json:"produced_quantity" binding:"decimal_gt0" example:"100"`
	Scrap            map[uuid.UUID]decimal.Decimal `json:"scrap" binding:"omitempty,dive,decimal_gte0"`
}

// BOMComponentRequest is one line of a BOM
type BOMComponentRequest struct {
	ComponentID     uuid.UUID       `json:"component_id" binding:"required"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit" binding:"decimal_gt0" example:"2.5"`
	Unit            string          `json:"unit" binding:"max=20" example:"kg"`
}

// CreateBOMRequest creates a bill of materials
type CreateBOMRequest struct {
	Name       string                `json:"name" binding:"required,max=200" example:"Widget assembly"`
	ProductID  uuid.UUID             `json:"product_id" binding:"required"`
	Version    string                `json:"version" binding:"max=20" example:"v1"`
	Components []BOMComponentRequest `json:"components" binding:"required,min=1,dive"`
}

// CreateBOM creates a bill of materials
// POST /production/boms
func (h *ProductionHandler) CreateBOM(c *gin.Context) {
	var req CreateBOMRequest
	if !h.BindJSON(c, &req) {
		return
	}

	components := make([]production.BOMComponent, 0, len(req.Components))
	for _, comp := range req.Components {
		components = append(components, production.BOMComponent{
			ComponentID:     comp.ComponentID,
			QuantityPerUnit: comp.QuantityPerUnit,
			Unit:            comp.Unit,
		})
	}

	bom, err := h.wipService.CreateBOM(c.Request.Context(), appproduction.CreateBOMRequest{
		Name:       req.Name,
		ProductID:  req.ProductID,
		Version:    req.Version,
		Components: components,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, bom)
}

// CreateOrder creates a draft production order
// POST /production/orders
func (h *ProductionHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := h.wipService.CreateOrder(c.Request.Context(), appproduction.CreateOrderRequest{
		OrderNumber:  req.OrderNumber,
		ProductID:    req.ProductID,
		BOMID:        req.BOMID,
		WarehouseID:  req.WarehouseID,
		Quantity:     req.Quantity,
		PlannedStart: req.PlannedStart,
		PlannedEnd:   req.PlannedEnd,
		StandardCosts: production.StandardCosts{
			Material: req.StandardCosts.Material,
			Labor:    req.StandardCosts.Labor,
			Overhead: req.StandardCosts.Overhead,
		},
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// GetOrder returns a production order
// GET /production/orders/:id
func (h *ProductionHandler) GetOrder(c *gin.Context) {
	h.withOrder(c, func(ctx context.Context, id uuid.UUID) (any, error) {
		return h.wipService.GetOrder(ctx, id)
	})
}

// Start moves a draft order into progress
// POST /production/orders/:id/start
func (h *ProductionHandler) Start(c *gin.Context) {
	h.withOrder(c, func(ctx context.Context, id uuid.UUID) (any, error) {
		return h.wipService.Start(ctx, id)
	})
}

// Cancel cancels an order that has not been closed
// POST /production/orders/:id/cancel
func (h *ProductionHandler) Cancel(c *gin.Context) {
	h.withOrder(c, func(ctx context.Context, id uuid.UUID) (any, error) {
		return h.wipService.Cancel(ctx, id)
	})
}

// Close totals WIP, posts the finished goods and records variances
// POST /production/orders/:id/close
func (h *ProductionHandler) Close(c *gin.Context) {
	h.withOrder(c, func(ctx context.Context, id uuid.UUID) (any, error) {
		return h.wipService.Close(ctx, id)
	})
}

// ListWIP lists the order's WIP transactions with totals
// GET /production/orders/:id/wip
func (h *ProductionHandler) ListWIP(c *gin.Context) {
	h.withOrder(c, func(ctx context.Context, id uuid.UUID) (any, error) {
		return h.wipService.ListTransactions(ctx, id)
	})
}

// ListVariances lists the variances recorded at close
// GET /production/orders/:id/variances
func (h *ProductionHandler) ListVariances(c *gin.Context) {
	h.withOrder(c, func(ctx context.Context, id uuid.UUID) (any, error) {
		return h.wipService.ListVariances(ctx, id)
	})
}

// PostCost accrues a cost against the order
// POST /production/orders/:id/wip
func (h *ProductionHandler) PostCost(c *gin.Context) {
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.InvalidID(c, "production order ID")
		return
	}
	var req PostCostRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tx, err := h.wipService.PostCost(c.Request.Context(), appproduction.PostCostRequest{
		OrderID:   orderID,
		Category:  req.Category,
		Amount:    req.Amount,
		Quantity:  req.Quantity,
		Notes:     req.Notes,
		CreatedBy: logger.GetActorID(c.Request.Context()),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tx)
}

// PreviewBackflush computes component consumption without posting it
// POST /production/orders/:id/backflush/preview
func (h *ProductionHandler) PreviewBackflush(c *gin.Context) {
	h.backflush(c, false)
}

// ApplyBackflush posts component consumption to the ledger and WIP
// POST /production/orders/:id/backflush
func (h *ProductionHandler) ApplyBackflush(c *gin.Context) {
	h.backflush(c, true)
}

func (h *ProductionHandler) backflush(c *gin.Context, apply bool) {
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.InvalidID(c, "production order ID")
		return
	}
	var req BackflushRequest
	if !h.BindJSON(c, &req) {
		return
	}

	appReq := appproduction.BackflushRequest{
		OrderID:          orderID,
		ProducedQuantity: req.ProducedQuantity,
		Scrap:            req.Scrap,
		CreatedBy:        logger.GetActorID(c.Request.Context()),
	}

	var result *appproduction.BackflushResult
	if apply {
		result, err = h.backflushService.Apply(c.Request.Context(), appReq)
	} else {
		result, err = h.backflushService.Preview(c.Request.Context(), appReq)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if apply {
		h.Created(c, result)
		return
	}
	h.Success(c, result)
}

func (h *ProductionHandler) withOrder(c *gin.Context, call func(ctx context.Context, id uuid.UUID) (any, error)) {
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.InvalidID(c, "production order ID")
		return
	}
	result, err := call(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
