package trade

import (
	"context"
	"time"

	appapproval "github.com/erp/manufacturing/internal/application/approval"
	appcosting "github.com/erp/manufacturing/internal/application/costing"
	appshared "github.com/erp/manufacturing/internal/application/shared"
	"github.com/erp/manufacturing/internal/domain/approval"
	"github.com/erp/manufacturing/internal/domain/costing"
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ApprovalRequester starts approval of a document
type ApprovalRequester interface {
	CreateRequest(ctx context.Context, cmd appapproval.CreateRequestCommand) (*appapproval.RequestResponse, error)
}

// PurchaseOrderService manages purchase orders and their receipt into stock
type PurchaseOrderService struct {
	scope     appshared.TransactionScope
	repos     appshared.Repositories
	ledger    *appcosting.Service
	approvals ApprovalRequester
	locker    appshared.Locker
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(
	scope appshared.TransactionScope,
	repos appshared.Repositories,
	ledger *appcosting.Service,
	approvals ApprovalRequester,
	locker appshared.Locker,
	logger *zap.Logger,
) *PurchaseOrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseOrderService{
		scope:     scope,
		repos:     repos,
		ledger:    ledger,
		approvals: approvals,
		locker:    locker,
		publisher: shared.NoOpEventPublisher{},
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PurchaseOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// Create stores a draft purchase order with its lines
func (s *PurchaseOrderService) Create(ctx context.Context, req CreatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	order, err := trade.NewPurchaseOrder(req.OrderNumber, req.SupplierName, req.WarehouseID)
	if err != nil {
		return nil, err
	}
	order.Remark = req.Remark
	for _, l := range req.Lines {
		if _, err := order.AddLine(l.ProductID, l.Quantity, l.UnitCost); err != nil {
			return nil, err
		}
	}
	if err := s.repos.PurchaseOrders().Create(ctx, order); err != nil {
		return nil, err
	}
	return ToPurchaseOrderResponse(order), nil
}

// Get returns one purchase order
func (s *PurchaseOrderService) Get(ctx context.Context, id uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := s.repos.PurchaseOrders().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToPurchaseOrderResponse(order), nil
}

// Submit sends the order through its approval chain
func (s *PurchaseOrderService) Submit(ctx context.Context, id, requestedBy uuid.UUID) (*PurchaseOrderResponse, error) {
	req, err := s.approvals.CreateRequest(ctx, appapproval.CreateRequestCommand{
		DocumentType: string(approval.DocumentTypePurchaseOrder),
		DocumentID:   id,
		RequestedBy:  requestedBy,
	})
	if err != nil {
		return nil, err
	}
	resp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	resp.ApprovalRequestID = &req.ID
	return resp, nil
}

// Receive books every line into the costing ledger at its unit cost and marks
// the order received, in one transaction.
func (s *PurchaseOrderService) Receive(ctx context.Context, id uuid.UUID) (*PurchaseOrderResponse, error) {
	var (
		order  *trade.PurchaseOrder
		events []shared.DomainEvent
	)
	err := appshared.WithLock(ctx, s.locker, "purchase_order:"+id.String(), func(ctx context.Context) error {
		return appshared.RetryOnConflict(ctx, s.ledger.MaxRetries(), func(ctx context.Context) error {
			return s.scope.Execute(ctx, func(repos appshared.Repositories) error {
				var err error
				order, err = repos.PurchaseOrders().FindByID(ctx, id)
				if err != nil {
					return err
				}
				now := time.Now()
				if err := order.MarkReceived(now); err != nil {
					return err
				}

				ledger := s.ledger.Ledger(repos)
				for _, l := range order.Lines {
					if _, err := ledger.Receive(ctx, appcosting.ReceiptRequest{
						ProductID:   l.ProductID,
						WarehouseID: order.WarehouseID,
						Quantity:    l.Quantity,
						UnitCost:    l.UnitCost,
						ReceivedAt:  now,
						Reference:   costing.Reference{Type: costing.ReferencePurchaseOrder, ID: order.ID},
						LotNumber:   order.OrderNumber,
					}); err != nil {
						return err
					}
				}
				if err := repos.PurchaseOrders().SaveWithLock(ctx, order); err != nil {
					return err
				}
				events = append(ledger.Events(), order.GetDomainEvents()...)
				order.ClearDomainEvents()
				return nil
			})
		})
	})
	if err != nil {
		return nil, err
	}

	if len(events) > 0 {
		if err := s.publisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("failed to publish purchase order events", zap.Error(err))
		}
	}
	s.logger.Info("purchase order received",
		zap.String("order_id", order.ID.String()),
		zap.Int("lines", len(order.Lines)))
	return ToPurchaseOrderResponse(order), nil
}

// ApprovalHandler moves purchase orders through approval outcomes
type ApprovalHandler struct{}

// NewApprovalHandler creates the purchase order approval handler
func NewApprovalHandler() *ApprovalHandler {
	return &ApprovalHandler{}
}

// DocumentType implements appapproval.DocumentHandler
func (h *ApprovalHandler) DocumentType() approval.DocumentType {
	return approval.DocumentTypePurchaseOrder
}

// Submit implements appapproval.DocumentHandler
func (h *ApprovalHandler) Submit(ctx context.Context, repos appshared.Repositories, id uuid.UUID) error {
	return h.update(ctx, repos, id, (*trade.PurchaseOrder).Submit)
}

// Finalize implements appapproval.DocumentHandler
func (h *ApprovalHandler) Finalize(ctx context.Context, repos appshared.Repositories, id uuid.UUID, now time.Time) ([]shared.DomainEvent, error) {
	return nil, h.update(ctx, repos, id, func(o *trade.PurchaseOrder) error { return o.Approve(now) })
}

// Cancel implements appapproval.DocumentHandler
func (h *ApprovalHandler) Cancel(ctx context.Context, repos appshared.Repositories, id uuid.UUID) error {
	return h.update(ctx, repos, id, (*trade.PurchaseOrder).Cancel)
}

func (h *ApprovalHandler) update(ctx context.Context, repos appshared.Repositories, id uuid.UUID, apply func(*trade.PurchaseOrder) error) error {
	order, err := repos.PurchaseOrders().FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := apply(order); err != nil {
		return err
	}
	return repos.PurchaseOrders().SaveWithLock(ctx, order)
}

var _ appapproval.DocumentHandler = (*ApprovalHandler)(nil)
