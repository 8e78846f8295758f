package handler

import (
	"context"
	"net/http"
	"testing"

	appcosting "github.com/erp/manufacturing/internal/application/costing"
	"github.com/erp/manufacturing/internal/domain/costing"
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/domain/shared/strategy"
	"github.com/erp/manufacturing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCostingService struct {
	receipt    func(appcosting.ReceiptRequest) (*appcosting.MovementResult, error)
	issue      func(appcosting.IssueRequest) (*appcosting.MovementResult, error)
	initialize func(uuid.UUID, uuid.UUID, strategy.CostMethod) (*appcosting.ValuationResponse, error)
	valuation  func(uuid.UUID, uuid.UUID) (*appcosting.ValuationResponse, error)
	list       func(uuid.UUID, uuid.UUID, shared.Filter) ([]appcosting.TransactionResponse, int64, error)
}

func (s *stubCostingService) RecordReceipt(_ context.Context, req appcosting.ReceiptRequest) (*appcosting.MovementResult, error) {
	return s.receipt(req)
}

func (s *stubCostingService) RecordIssue(_ context.Context, req appcosting.IssueRequest) (*appcosting.MovementResult, error) {
	return s.issue(req)
}

func (s *stubCostingService) Initialize(_ context.Context, productID, warehouseID uuid.UUID, method strategy.CostMethod) (*appcosting.ValuationResponse, error) {
	return s.initialize(productID, warehouseID, method)
}

func (s *stubCostingService) GetValuation(_ context.Context, productID, warehouseID uuid.UUID) (*appcosting.ValuationResponse, error) {
	return s.valuation(productID, warehouseID)
}

func (s *stubCostingService) ListTransactions(_ context.Context, productID, warehouseID uuid.UUID, filter shared.Filter) ([]appcosting.TransactionResponse, int64, error) {
	return s.list(productID, warehouseID, filter)
}

func costingEngine(svc CostingService) *gin.Engine {
	h := NewCostingHandler(svc)
	engine := newTestEngine()
	engine.POST("/costing/receipts", h.RecordReceipt)
	engine.POST("/costing/issues", h.RecordIssue)
	engine.POST("/costing/records", h.Initialize)
	engine.GET("/costing/records/:product_id/:warehouse_id", h.GetValuation)
	engine.GET("/costing/records/:product_id/:warehouse_id/transactions", h.ListTransactions)
	return engine
}

func TestCostingHandler_RecordReceipt(t *testing.T) {
	productID, warehouseID, poID := uuid.New(), uuid.New(), uuid.New()

	var got appcosting.ReceiptRequest
	svc := &stubCostingService{
		receipt: func(req appcosting.ReceiptRequest) (*appcosting.MovementResult, error) {
			got = req
			return &appcosting.MovementResult{
				ProductID:     req.ProductID,
				Type:          "receipt",
				Quantity:      req.Quantity,
				QuantityAfter: req.Quantity,
			}, nil
		},
	}

	res := perform(t, costingEngine(svc), http.MethodPost, "/costing/receipts", map[string]any{
		"product_id":     productID,
		"warehouse_id":   warehouseID,
		"quantity":       "100",
		"unit_cost":      "10.50",
		"reference_type": "purchase_order",
		"reference_id":   poID,
		"lot_number":     "LOT-7",
	}, "")

	require.Equal(t, http.StatusCreated, res.Code, res.Raw)
	assert.True(t, res.Body.Success)
	assert.True(t, decimal.NewFromFloat(10.5).Equal(got.UnitCost))
	assert.Equal(t, costing.Reference{Type: costing.ReferencePurchaseOrder, ID: poID}, got.Reference)
	assert.Equal(t, "LOT-7", got.LotNumber)
	assert.True(t, got.ReceivedAt.IsZero())

	var result appcosting.MovementResult
	res.data(t, &result)
	assert.Equal(t, "receipt", result.Type)
	assert.True(t, decimal.NewFromInt(100).Equal(result.QuantityAfter))
}

func TestCostingHandler_RecordReceipt_Validation(t *testing.T) {
	svc := &stubCostingService{
		receipt: func(appcosting.ReceiptRequest) (*appcosting.MovementResult, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	engine := costingEngine(svc)

	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"zero quantity", map[string]any{"product_id": uuid.New(), "warehouse_id": uuid.New(), "quantity": "0", "unit_cost": "1"}, "quantity"},
		{"negative cost", map[string]any{"product_id": uuid.New(), "warehouse_id": uuid.New(), "quantity": "1", "unit_cost": "-1"}, "unit_cost"},
		{"missing product", map[string]any{"warehouse_id": uuid.New(), "quantity": "1", "unit_cost": "1"}, "product_id"},
		{"unknown reference", map[string]any{"product_id": uuid.New(), "warehouse_id": uuid.New(), "quantity": "1", "unit_cost": "1", "reference_type": "invoice"}, "reference_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := perform(t, engine, http.MethodPost, "/costing/receipts", tt.body, "")
			require.Equal(t, http.StatusBadRequest, res.Code)
			require.NotNil(t, res.Body.Error)
			fields := make([]string, 0, len(res.Body.Error.Details))
			for _, d := range res.Body.Error.Details {
				fields = append(fields, d.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestCostingHandler_RecordIssue_InsufficientStock(t *testing.T) {
	svc := &stubCostingService{
		issue: func(req appcosting.IssueRequest) (*appcosting.MovementResult, error) {
			assert.Equal(t, costing.ReferenceManual, req.Reference.Type)
			return nil, &strategy.InsufficientStockError{Requested: req.Quantity, Available: decimal.NewFromInt(5)}
		},
	}

	res := perform(t, costingEngine(svc), http.MethodPost, "/costing/issues", map[string]any{
		"product_id":   uuid.New(),
		"warehouse_id": uuid.New(),
		"quantity":     "8",
	}, "")

	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Equal(t, dto.ErrCodeInsufficientStock, res.errorCode())
	assert.Contains(t, res.Body.Error.Message, "short by 3")
}

func TestCostingHandler_Initialize(t *testing.T) {
	var gotMethod strategy.CostMethod
	svc := &stubCostingService{
		initialize: func(productID, warehouseID uuid.UUID, method strategy.CostMethod) (*appcosting.ValuationResponse, error) {
			gotMethod = method
			return &appcosting.ValuationResponse{ProductID: productID, WarehouseID: warehouseID, Method: string(method)}, nil
		},
	}
	engine := costingEngine(svc)

	res := perform(t, engine, http.MethodPost, "/costing/records", map[string]any{
		"product_id": uuid.New(), "warehouse_id": uuid.New(), "method": "fifo",
	}, "")
	require.Equal(t, http.StatusCreated, res.Code, res.Raw)
	assert.Equal(t, strategy.CostMethodFIFO, gotMethod)

	res = perform(t, engine, http.MethodPost, "/costing/records", map[string]any{
		"product_id": uuid.New(), "warehouse_id": uuid.New(), "method": "lifo",
	}, "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestCostingHandler_GetValuation(t *testing.T) {
	productID, warehouseID := uuid.New(), uuid.New()
	svc := &stubCostingService{
		valuation: func(p, w uuid.UUID) (*appcosting.ValuationResponse, error) {
			if p != productID || w != warehouseID {
				return nil, shared.ErrNotFound
			}
			return &appcosting.ValuationResponse{ProductID: p, WarehouseID: w, Quantity: decimal.NewFromInt(3)}, nil
		},
	}
	engine := costingEngine(svc)

	res := perform(t, engine, http.MethodGet, "/costing/records/"+productID.String()+"/"+warehouseID.String(), nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	var valuation appcosting.ValuationResponse
	res.data(t, &valuation)
	assert.True(t, decimal.NewFromInt(3).Equal(valuation.Quantity))

	res = perform(t, engine, http.MethodGet, "/costing/records/"+uuid.NewString()+"/"+warehouseID.String(), nil, "")
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = perform(t, engine, http.MethodGet, "/costing/records/"+productID.String()+"/main", nil, "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Invalid warehouse ID", res.Body.Error.Message)
}

func TestCostingHandler_ListTransactions(t *testing.T) {
	var gotFilter shared.Filter
	svc := &stubCostingService{
		list: func(_, _ uuid.UUID, filter shared.Filter) ([]appcosting.TransactionResponse, int64, error) {
			gotFilter = filter
			return []appcosting.TransactionResponse{{Type: "issue"}}, 41, nil
		},
	}
	engine := costingEngine(svc)
	path := "/costing/records/" + uuid.NewString() + "/" + uuid.NewString() + "/transactions"

	res := perform(t, engine, http.MethodGet, path+"?page=3&page_size=10", nil, "")
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	assert.Equal(t, 3, gotFilter.Page)
	assert.Equal(t, 10, gotFilter.PageSize)
	require.NotNil(t, res.Body.Meta)
	assert.Equal(t, int64(41), res.Body.Meta.Total)
	assert.Equal(t, 5, res.Body.Meta.TotalPages)

	res = perform(t, engine, http.MethodGet, path+"?page_size=1000", nil, "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
}
