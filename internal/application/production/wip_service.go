package production

import (
	"context"
	"fmt"
	"time"

	appcosting "github.com/erp/manufacturing/internal/application/costing"
	appshared "github.com/erp/manufacturing/internal/application/shared"
	"github.com/erp/manufacturing/internal/domain/costing"
	"github.com/erp/manufacturing/internal/domain/production"
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WIPConfig holds the WIP accumulator settings
type WIPConfig struct {
	// StrictReconciliation fails Close when the cached WIP cost differs from the transaction sum
	StrictReconciliation bool
	MaxRetries           int
}

// WIPService accrues costs against production orders and closes them into a unit cost
type WIPService struct {
	scope     appshared.TransactionScope
	repos     appshared.Repositories
	ledger    *appcosting.Service
	locker    appshared.Locker
	publisher shared.EventPublisher
	logger    *zap.Logger
	cfg       WIPConfig
	now       func() time.Time
}

// NewWIPService creates a new WIPService
func NewWIPService(
	scope appshared.TransactionScope,
	repos appshared.Repositories,
	ledger *appcosting.Service,
	locker appshared.Locker,
	logger *zap.Logger,
	cfg WIPConfig,
) *WIPService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = appshared.DefaultMaxRetries
	}
	return &WIPService{
		scope:     scope,
		repos:     repos,
		ledger:    ledger,
		locker:    locker,
		publisher: shared.NoOpEventPublisher{},
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *WIPService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// CreateBOM stores a new active BOM
func (s *WIPService) CreateBOM(ctx context.Context, req CreateBOMRequest) (*BOMResponse, error) {
	bom, err := production.NewBOM(req.Name, req.ProductID, req.Version, req.Components)
	if err != nil {
		return nil, err
	}
	if err := s.repos.BOMs().Create(ctx, bom); err != nil {
		return nil, err
	}
	resp := ToBOMResponse(bom)
	return &resp, nil
}

// CreateOrder creates a draft order for an active BOM of the same product
func (s *WIPService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	bom, err := s.repos.BOMs().FindByID(ctx, req.BOMID)
	if err != nil {
		return nil, err
	}
	if !bom.Active {
		return nil, production.ErrBOMNotFound
	}
	if bom.ProductID != req.ProductID {
		return nil, fmt.Errorf("%w: BOM %s does not produce product %s", shared.ErrInvalidInput, bom.Name, req.ProductID)
	}

	order, err := production.NewProductionOrder(req.OrderNumber, req.ProductID, req.BOMID, req.WarehouseID, req.Quantity)
	if err != nil {
		return nil, err
	}
	order.PlannedStart = req.PlannedStart
	order.PlannedEnd = req.PlannedEnd
	order.StandardCosts = req.StandardCosts

	if err := s.repos.ProductionOrders().Create(ctx, order); err != nil {
		return nil, err
	}
	s.logger.Info("production order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber))
	resp := ToOrderResponse(order)
	return &resp, nil
}

// GetOrder returns one production order
func (s *WIPService) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.repos.ProductionOrders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// Start moves a draft order to in_progress
func (s *WIPService) Start(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, orderID, (*production.ProductionOrder).Start)
}

// Cancel cancels an order without posted cost
func (s *WIPService) Cancel(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, orderID, (*production.ProductionOrder).Cancel)
}

func (s *WIPService) transition(ctx context.Context, orderID uuid.UUID, apply func(*production.ProductionOrder) error) (*OrderResponse, error) {
	var order *production.ProductionOrder
	err := appshared.WithLock(ctx, s.locker, appshared.ProductionOrderKey(orderID), func(ctx context.Context) error {
		return appshared.RetryOnConflict(ctx, s.cfg.MaxRetries, func(ctx context.Context) error {
			return s.scope.Execute(ctx, func(repos appshared.Repositories) error {
				var err error
				order, err = repos.ProductionOrders().FindByID(ctx, orderID)
				if err != nil {
					return err
				}
				if err := apply(order); err != nil {
					return err
				}
				return repos.ProductionOrders().SaveWithLock(ctx, order)
			})
		})
	})
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// PostCost appends a WIP transaction and accrues it on the order in one unit of work.
// Posted or cancelled orders reject the cost with ErrOrderClosed. A draft order is started.
func (s *WIPService) PostCost(ctx context.Context, req PostCostRequest) (*WIPTransactionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "production", "post_cost",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, req.OrderID.String()),
		telemetry.WithAttribute("category", req.Category))
	defer span.End()

	category, err := production.ParseCostCategory(req.Category)
	if err != nil {
		return nil, err
	}
	tx, err := production.NewWIPTransaction(req.OrderID, category, req.Amount, req.Quantity, req.Notes, req.CreatedBy)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos appshared.Repositories) error {
		order, err := repos.ProductionOrders().FindByID(ctx, req.OrderID)
		if err != nil {
			return err
		}
		if err := order.EnsureAcceptsCosts(); err != nil {
			return err
		}
		if err := repos.WIPTransactions().Create(ctx, tx); err != nil {
			return err
		}
		// the conditional update re-checks the state, so a close that committed
		// after the read above still rejects this cost
		return repos.ProductionOrders().AccrueWIP(ctx, req.OrderID, tx.Amount)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publish(ctx, []shared.DomainEvent{production.NewWIPPostedEvent(tx)})
	resp := ToWIPTransactionResponse(*tx)
	return &resp, nil
}

// ListTransactions returns an order's WIP transactions with per-category totals
func (s *WIPService) ListTransactions(ctx context.Context, orderID uuid.UUID) (*WIPListResponse, error) {
	if _, err := s.repos.ProductionOrders().FindByID(ctx, orderID); err != nil {
		return nil, err
	}
	txs, err := s.repos.WIPTransactions().FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	summary := production.Summarize(txs)
	resp := &WIPListResponse{
		OrderID:      orderID,
		Total:        summary.Total,
		ByCategory:   categoryMap(summary.ByCategory),
		Transactions: make([]WIPTransactionResponse, 0, len(txs)),
	}
	for _, tx := range txs {
		resp.Transactions = append(resp.Transactions, ToWIPTransactionResponse(tx))
	}
	return resp, nil
}

// ListVariances returns the variance analysis written when the order closed
func (s *WIPService) ListVariances(ctx context.Context, orderID uuid.UUID) ([]VarianceResponse, error) {
	if _, err := s.repos.ProductionOrders().FindByID(ctx, orderID); err != nil {
		return nil, err
	}
	rows, err := s.repos.Variances().FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToVarianceResponses(rows), nil
}

// Close posts the order. The transaction sum is authoritative; the cached WIP
// cost is only compared against it. A cost posted concurrently bumps the order
// version, so the CAS fails and Close re-sums. When the order produced a positive
// quantity, the finished goods are received into the costing ledger at the unit
// cost in the same transaction.
func (s *WIPService) Close(ctx context.Context, orderID uuid.UUID) (*CloseResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "production", "close",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID.String()))
	defer span.End()

	var (
		result *CloseResult
		events []shared.DomainEvent
	)
	err := appshared.WithLock(ctx, s.locker, appshared.ProductionOrderKey(orderID), func(ctx context.Context) error {
		return appshared.RetryOnConflict(ctx, s.cfg.MaxRetries, func(ctx context.Context) error {
			return s.scope.Execute(ctx, func(repos appshared.Repositories) error {
				var err error
				result, events, err = s.close(ctx, repos, orderID)
				return err
			})
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publish(ctx, events)
	s.logger.Info("production order closed",
		zap.String("order_id", orderID.String()),
		zap.String("actual_cost", result.TotalCost.String()),
		zap.String("unit_cost", result.UnitCost.String()))
	return result, nil
}

func (s *WIPService) close(ctx context.Context, repos appshared.Repositories, orderID uuid.UUID) (*CloseResult, []shared.DomainEvent, error) {
	order, err := repos.ProductionOrders().FindByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order.State == production.OrderStatePosted {
		return nil, nil, production.ErrAlreadyClosed
	}

	txs, err := repos.WIPTransactions().FindByOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	summary := production.Summarize(txs)

	cached := order.WIPCost
	discrepancy := cached.Sub(summary.Total)
	if !discrepancy.IsZero() {
		s.logger.Warn("WIP cost differs from transaction sum",
			zap.String("order_id", orderID.String()),
			zap.String("cached", cached.String()),
			zap.String("transactions", summary.Total.String()))
		if s.cfg.StrictReconciliation {
			return nil, nil, fmt.Errorf("%w: order %s caches %s of WIP cost but transactions sum to %s",
				shared.ErrDataIntegrity, order.OrderNumber, cached, summary.Total)
		}
	}

	unitCost, err := order.Post(summary.Total, s.now())
	if err != nil {
		return nil, nil, err
	}
	if err := repos.ProductionOrders().SaveWithLock(ctx, order); err != nil {
		return nil, nil, err
	}

	variances := production.AnalyzeVariances(order, summary)
	if len(variances) > 0 {
		if err := repos.Variances().CreateBatch(ctx, variances); err != nil {
			return nil, nil, err
		}
	}

	result := &CloseResult{
		Order:         ToOrderResponse(order),
		TotalCost:     summary.Total,
		UnitCost:      unitCost,
		ByCategory:    categoryMap(summary.ByCategory),
		CachedWIPCost: cached,
		Discrepancy:   discrepancy,
		Variances:     ToVarianceResponses(variances),
	}
	events := order.GetDomainEvents()
	order.ClearDomainEvents()

	if order.Quantity.IsPositive() && s.ledger != nil {
		ledger := s.ledger.Ledger(repos)
		tx, err := ledger.Receive(ctx, appcosting.ReceiptRequest{
			ProductID:   order.ProductID,
			WarehouseID: order.WarehouseID,
			Quantity:    order.Quantity,
			UnitCost:    unitCost,
			Reference:   costing.Reference{Type: costing.ReferenceProductionOrder, ID: order.ID},
			LotNumber:   order.LotNumber,
		})
		if err != nil {
			return nil, nil, err
		}
		id := tx.ID
		result.ReceiptTransactionID = &id
		events = append(events, ledger.Events()...)
	}
	return result, events, nil
}

func (s *WIPService) publish(ctx context.Context, events []shared.DomainEvent) {
	if len(events) == 0 || s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish production events", zap.Error(err))
	}
}
