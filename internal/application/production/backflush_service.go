package production

import (
	"context"

	appcosting "github.com/erp/manufacturing/internal/application/costing"
	appshared "github.com/erp/manufacturing/internal/application/shared"
	"github.com/erp/manufacturing/internal/domain/costing"
	"github.com/erp/manufacturing/internal/domain/production"
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BackflushService derives component consumption from produced quantity
type BackflushService struct {
	scope      appshared.TransactionScope
	repos      appshared.Repositories
	ledger     *appcosting.Service
	locker     appshared.Locker
	publisher  shared.EventPublisher
	logger     *zap.Logger
	maxRetries int
}

// NewBackflushService creates a new BackflushService
func NewBackflushService(
	scope appshared.TransactionScope,
	repos appshared.Repositories,
	ledger *appcosting.Service,
	locker appshared.Locker,
	logger *zap.Logger,
	maxRetries int,
) *BackflushService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = appshared.DefaultMaxRetries
	}
	return &BackflushService{
		scope:      scope,
		repos:      repos,
		ledger:     ledger,
		locker:     locker,
		publisher:  shared.NoOpEventPublisher{},
		logger:     logger,
		maxRetries: maxRetries,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *BackflushService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// Preview computes the backflush records without writing anything
func (s *BackflushService) Preview(ctx context.Context, req BackflushRequest) (*BackflushResult, error) {
	order, records, err := s.expand(ctx, s.repos, req)
	if err != nil {
		return nil, err
	}
	return toBackflushResult(order, req.ProducedQuantity, records, false), nil
}

// Apply persists the records, issues every component's actual quantity from the
// order's warehouse and accrues the issued cost as material WIP, all in one
// transaction. Any shortage rolls back the whole run.
func (s *BackflushService) Apply(ctx context.Context, req BackflushRequest) (*BackflushResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "production", "backflush",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, req.OrderID.String()))
	defer span.End()

	var (
		result *BackflushResult
		events []shared.DomainEvent
	)
	err := appshared.WithLock(ctx, s.locker, appshared.ProductionOrderKey(req.OrderID), func(ctx context.Context) error {
		return appshared.RetryOnConflict(ctx, s.maxRetries, func(ctx context.Context) error {
			return s.scope.Execute(ctx, func(repos appshared.Repositories) error {
				var err error
				result, events, err = s.apply(ctx, repos, req)
				return err
			})
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if len(events) > 0 {
		if err := s.publisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("failed to publish backflush events", zap.Error(err))
		}
	}
	s.logger.Info("backflush applied",
		zap.String("order_id", req.OrderID.String()),
		zap.String("run_id", result.RunID.String()),
		zap.String("issued_cost", result.TotalIssuedCost.String()))
	return result, nil
}

func (s *BackflushService) apply(ctx context.Context, repos appshared.Repositories, req BackflushRequest) (*BackflushResult, []shared.DomainEvent, error) {
	order, records, err := s.expand(ctx, repos, req)
	if err != nil {
		return nil, nil, err
	}

	ledger := s.ledger.Ledger(repos)
	total := decimal.Zero
	for i := range records {
		r := &records[i]
		if !r.ActualQuantity.IsPositive() {
			continue
		}
		tx, err := ledger.Issue(ctx, appcosting.IssueRequest{
			ProductID:   r.ComponentID,
			WarehouseID: order.WarehouseID,
			Quantity:    r.ActualQuantity,
			Reference:   costing.Reference{Type: costing.ReferenceBackflush, ID: r.RunID},
			LotNumber:   r.LotNumber,
		})
		if err != nil {
			return nil, nil, err
		}
		r.IssuedCost = decimal.NewNullDecimal(tx.TotalCost)
		total = total.Add(tx.TotalCost)
	}

	if err := repos.BackflushRecords().CreateBatch(ctx, records); err != nil {
		return nil, nil, err
	}

	events := ledger.Events()
	if total.IsPositive() {
		wip, err := production.NewWIPTransaction(order.ID, production.CostCategoryMaterial, total,
			decimal.NewNullDecimal(req.ProducedQuantity), "backflush run "+records[0].RunID.String(), req.CreatedBy)
		if err != nil {
			return nil, nil, err
		}
		if err := repos.WIPTransactions().Create(ctx, wip); err != nil {
			return nil, nil, err
		}
		if err := repos.ProductionOrders().AccrueWIP(ctx, order.ID, total); err != nil {
			return nil, nil, err
		}
		events = append(events, production.NewWIPPostedEvent(wip))
	}
	return toBackflushResult(order, req.ProducedQuantity, records, true), events, nil
}

func (s *BackflushService) expand(ctx context.Context, repos appshared.Repositories, req BackflushRequest) (*production.ProductionOrder, []production.BackflushRecord, error) {
	order, err := repos.ProductionOrders().FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, nil, err
	}
	bom, err := repos.BOMs().FindByID(ctx, order.BOMID)
	if err != nil {
		return nil, nil, err
	}
	records, err := production.Backflush(order, bom, req.ProducedQuantity, req.Scrap)
	if err != nil {
		return nil, nil, err
	}
	return order, records, nil
}
