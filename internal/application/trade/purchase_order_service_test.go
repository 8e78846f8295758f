package trade_test

import (
	"context"
	"testing"
	"time"

	appapproval "github.com/erp/manufacturing/internal/application/approval"
	appcosting "github.com/erp/manufacturing/internal/application/costing"
	appshared "github.com/erp/manufacturing/internal/application/shared"
	apptrade "github.com/erp/manufacturing/internal/application/trade"
	"github.com/erp/manufacturing/internal/domain/approval"
	"github.com/erp/manufacturing/internal/domain/costing"
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/domain/shared/strategy"
	"github.com/erp/manufacturing/internal/domain/trade"
	"github.com/erp/manufacturing/internal/infrastructure/lock"
	"github.com/erp/manufacturing/internal/infrastructure/persistence"
	"github.com/erp/manufacturing/internal/infrastructure/persistence/persistencetest"
	infrastrategy "github.com/erp/manufacturing/internal/infrastructure/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// stubApprovals records submissions and moves the document to pending the
// way the approval service does
type stubApprovals struct {
	repos     appshared.Repositories
	handler   appapproval.DocumentHandler
	commands  []appapproval.CreateRequestCommand
	createErr error
}

func (s *stubApprovals) CreateRequest(ctx context.Context, cmd appapproval.CreateRequestCommand) (*appapproval.RequestResponse, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.commands = append(s.commands, cmd)
	if err := s.handler.Submit(ctx, s.repos, cmd.DocumentID); err != nil {
		return nil, err
	}
	return &appapproval.RequestResponse{ID: uuid.New(), DocumentType: cmd.DocumentType, DocumentID: cmd.DocumentID, Status: "pending"}, nil
}

type fixture struct {
	svc       *apptrade.PurchaseOrderService
	ledger    *appcosting.Service
	repos     appshared.Repositories
	approvals *stubApprovals
	handler   *apptrade.ApprovalHandler
	warehouse uuid.UUID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := persistencetest.NewDB(t)
	scope := persistence.NewGormTransactionScope(db)
	repos := persistence.NewRepositories(db)
	locker := lock.NewKeyedLocker()

	registry, err := infrastrategy.NewRegistryWithDefaults(strategy.CostMethodFIFO)
	require.NoError(t, err)
	ledger := appcosting.NewService(scope, repos, registry, locker, nil, appcosting.Config{DefaultMethod: strategy.CostMethodFIFO})

	handler := apptrade.NewApprovalHandler()
	approvals := &stubApprovals{repos: repos, handler: handler}
	return fixture{
		svc:       apptrade.NewPurchaseOrderService(scope, repos, ledger, approvals, locker, nil),
		ledger:    ledger,
		repos:     repos,
		approvals: approvals,
		handler:   handler,
		warehouse: uuid.New(),
	}
}

func (f fixture) create(t *testing.T, number string, lines ...apptrade.PurchaseOrderLineInput) *apptrade.PurchaseOrderResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), apptrade.CreatePurchaseOrderRequest{
		OrderNumber:  number,
		SupplierName: "Acme Metals",
		WarehouseID:  f.warehouse,
		Lines:        lines,
	})
	require.NoError(t, err)
	return resp
}

func TestPurchaseOrderService_Create(t *testing.T) {
	f := newFixture(t)
	productA, productB := uuid.New(), uuid.New()

	resp := f.create(t, "PO-1",
		apptrade.PurchaseOrderLineInput{ProductID: productA, Quantity: dec("50"), UnitCost: dec("12")},
		apptrade.PurchaseOrderLineInput{ProductID: productB, Quantity: dec("2.5"), UnitCost: dec("4.2")},
	)

	assert.Equal(t, string(trade.PurchaseOrderStateDraft), resp.State)
	require.Len(t, resp.Lines, 2)
	assert.True(t, dec("610.5").Equal(resp.TotalAmount), resp.TotalAmount.String())

	got, err := f.svc.Get(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Len(t, got.Lines, 2)
	assert.Equal(t, "Acme Metals", got.SupplierName)
}

func TestPurchaseOrderService_Create_Invalid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, apptrade.CreatePurchaseOrderRequest{SupplierName: "Acme", WarehouseID: f.warehouse})
	assert.Equal(t, "INVALID_ORDER_NUMBER", shared.CodeOf(err))

	_, err = f.svc.Create(ctx, apptrade.CreatePurchaseOrderRequest{
		OrderNumber:  "PO-2",
		SupplierName: "Acme",
		WarehouseID:  f.warehouse,
		Lines:        []apptrade.PurchaseOrderLineInput{{ProductID: uuid.New(), Quantity: dec("0"), UnitCost: dec("1")}},
	})
	assert.Error(t, err)
}

func TestPurchaseOrderService_GetUnknown(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Get(context.Background(), uuid.New())

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPurchaseOrderService_Submit(t *testing.T) {
	f := newFixture(t)
	requester := uuid.New()
	order := f.create(t, "PO-3", apptrade.PurchaseOrderLineInput{ProductID: uuid.New(), Quantity: dec("1"), UnitCost: dec("1")})

	resp, err := f.svc.Submit(context.Background(), order.ID, requester)
	require.NoError(t, err)

	assert.Equal(t, string(trade.PurchaseOrderStatePendingApproval), resp.State)
	require.NotNil(t, resp.ApprovalRequestID)
	require.Len(t, f.approvals.commands, 1)
	assert.Equal(t, string(approval.DocumentTypePurchaseOrder), f.approvals.commands[0].DocumentType)
	assert.Equal(t, requester, f.approvals.commands[0].RequestedBy)
}

func TestPurchaseOrderService_Submit_ApprovalError(t *testing.T) {
	f := newFixture(t)
	f.approvals.createErr = approval.ErrNoChainConfigured
	order := f.create(t, "PO-4", apptrade.PurchaseOrderLineInput{ProductID: uuid.New(), Quantity: dec("1"), UnitCost: dec("1")})

	_, err := f.svc.Submit(context.Background(), order.ID, uuid.New())

	assert.ErrorIs(t, err, shared.ErrConfigurationMissing)
	got, err := f.svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, string(trade.PurchaseOrderStateDraft), got.State)
}

func TestPurchaseOrderService_ReceiveRequiresApproval(t *testing.T) {
	f := newFixture(t)
	order := f.create(t, "PO-5", apptrade.PurchaseOrderLineInput{ProductID: uuid.New(), Quantity: dec("1"), UnitCost: dec("1")})

	_, err := f.svc.Receive(context.Background(), order.ID)

	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestPurchaseOrderService_ReceiveBooksLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productA, productB := uuid.New(), uuid.New()
	order := f.create(t, "PO-6",
		apptrade.PurchaseOrderLineInput{ProductID: productA, Quantity: dec("10"), UnitCost: dec("5")},
		apptrade.PurchaseOrderLineInput{ProductID: productB, Quantity: dec("4"), UnitCost: dec("2.5")},
	)
	_, err := f.svc.Submit(ctx, order.ID, uuid.New())
	require.NoError(t, err)
	_, err = f.handler.Finalize(ctx, f.repos, order.ID, time.Now())
	require.NoError(t, err)

	resp, err := f.svc.Receive(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, string(trade.PurchaseOrderStateReceived), resp.State)
	assert.NotNil(t, resp.ReceivedAt)

	valuation, err := f.ledger.GetValuation(ctx, productA, f.warehouse)
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(valuation.Quantity))
	assert.True(t, dec("50").Equal(valuation.Value))

	rows, total, err := f.ledger.ListTransactions(ctx, productB, f.warehouse, shared.DefaultFilter())
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, string(costing.ReferencePurchaseOrder), rows[0].ReferenceType)
	require.NotNil(t, rows[0].ReferenceID)
	assert.Equal(t, order.ID, *rows[0].ReferenceID)
	assert.Equal(t, "PO-6", rows[0].LotNumber)

	// a second receipt is rejected and books nothing
	_, err = f.svc.Receive(ctx, order.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	valuation, err = f.ledger.GetValuation(ctx, productA, f.warehouse)
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(valuation.Quantity))
}

func TestApprovalHandler_Cancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.create(t, "PO-7", apptrade.PurchaseOrderLineInput{ProductID: uuid.New(), Quantity: dec("1"), UnitCost: dec("1")})
	_, err := f.svc.Submit(ctx, order.ID, uuid.New())
	require.NoError(t, err)

	require.NoError(t, f.handler.Cancel(ctx, f.repos, order.ID))

	got, err := f.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, string(trade.PurchaseOrderStateCancelled), got.State)
	assert.Equal(t, approval.DocumentTypePurchaseOrder, f.handler.DocumentType())
}
