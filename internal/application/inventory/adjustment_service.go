package inventory

import (
	"context"
	"fmt"
	"time"

	appapproval "github.com/erp/manufacturing/internal/application/approval"
	appcosting "github.com/erp/manufacturing/internal/application/costing"
	appshared "github.com/erp/manufacturing/internal/application/shared"
	"github.com/erp/manufacturing/internal/domain/approval"
	"github.com/erp/manufacturing/internal/domain/costing"
	"github.com/erp/manufacturing/internal/domain/inventory"
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApprovalRequester starts approval of a document
type ApprovalRequester interface {
	CreateRequest(ctx context.Context, cmd appapproval.CreateRequestCommand) (*appapproval.RequestResponse, error)
}

// CreateAdjustmentRequest creates a draft adjustment
type CreateAdjustmentRequest struct {
	AdjustmentNumber string
	ProductID        uuid.UUID
	WarehouseID      uuid.UUID
	QuantityDelta    decimal.Decimal
	UnitCost         decimal.Decimal
	Reason           string
}

// AdjustmentResponse is the API view of an adjustment
type AdjustmentResponse struct {
	ID                uuid.UUID           `json:"id"`
	AdjustmentNumber  string              `json:"adjustment_number"`
	ProductID         uuid.UUID           `json:"product_id"`
	WarehouseID       uuid.UUID           `json:"warehouse_id"`
	QuantityDelta     decimal.Decimal     `json:"quantity_delta"`
	UnitCost          decimal.Decimal     `json:"unit_cost"`
	Reason            string              `json:"reason,omitempty"`
	State             string              `json:"state"`
	PostedCost        decimal.NullDecimal `json:"posted_cost"`
	PostedAt          *time.Time          `json:"posted_at,omitempty"`
	Version           int                 `json:"version"`
	ApprovalRequestID *uuid.UUID          `json:"approval_request_id,omitempty"`
}

// ToAdjustmentResponse converts a domain adjustment
func ToAdjustmentResponse(a *inventory.Adjustment) *AdjustmentResponse {
	return &AdjustmentResponse{
		ID:               a.ID,
		AdjustmentNumber: a.AdjustmentNumber,
		ProductID:        a.ProductID,
		WarehouseID:      a.WarehouseID,
		QuantityDelta:    a.QuantityDelta,
		UnitCost:         a.UnitCost,
		Reason:           a.Reason,
		State:            string(a.State),
		PostedCost:       a.PostedCost,
		PostedAt:         a.PostedAt,
		Version:          a.GetVersion(),
	}
}

// AdjustmentService manages inventory adjustments
type AdjustmentService struct {
	repos     appshared.Repositories
	approvals ApprovalRequester
}

// NewAdjustmentService creates a new AdjustmentService
func NewAdjustmentService(repos appshared.Repositories, approvals ApprovalRequester) *AdjustmentService {
	return &AdjustmentService{repos: repos, approvals: approvals}
}

// Create stores a draft adjustment
func (s *AdjustmentService) Create(ctx context.Context, req CreateAdjustmentRequest) (*AdjustmentResponse, error) {
	a, err := inventory.NewAdjustment(req.AdjustmentNumber, req.ProductID, req.WarehouseID, req.QuantityDelta, req.UnitCost, req.Reason)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Adjustments().Create(ctx, a); err != nil {
		return nil, err
	}
	return ToAdjustmentResponse(a), nil
}

// Get returns one adjustment
func (s *AdjustmentService) Get(ctx context.Context, id uuid.UUID) (*AdjustmentResponse, error) {
	a, err := s.repos.Adjustments().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToAdjustmentResponse(a), nil
}

// Submit sends the adjustment through its approval chain
func (s *AdjustmentService) Submit(ctx context.Context, id, requestedBy uuid.UUID) (*AdjustmentResponse, error) {
	req, err := s.approvals.CreateRequest(ctx, appapproval.CreateRequestCommand{
		DocumentType: string(approval.DocumentTypeInventoryAdjustment),
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

// ApprovalHandler applies approved adjustments to the costing ledger
type ApprovalHandler struct {
	ledger *appcosting.Service
}

// NewApprovalHandler creates the adjustment approval handler
func NewApprovalHandler(ledger *appcosting.Service) *ApprovalHandler {
	return &ApprovalHandler{ledger: ledger}
}

// DocumentType implements appapproval.DocumentHandler
func (h *ApprovalHandler) DocumentType() approval.DocumentType {
	return approval.DocumentTypeInventoryAdjustment
}

// Submit implements appapproval.DocumentHandler
func (h *ApprovalHandler) Submit(ctx context.Context, repos appshared.Repositories, id uuid.UUID) error {
	a, err := repos.Adjustments().FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := a.Submit(); err != nil {
		return err
	}
	return repos.Adjustments().SaveWithLock(ctx, a)
}

// Finalize books the quantity delta and posts the adjustment. A shortage on a
// negative delta fails the approval as a whole.
func (h *ApprovalHandler) Finalize(ctx context.Context, repos appshared.Repositories, id uuid.UUID, now time.Time) ([]shared.DomainEvent, error) {
	a, err := repos.Adjustments().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.State != inventory.AdjustmentStatePendingApproval {
		return nil, fmt.Errorf("%w: adjustment %s is %s", shared.ErrInvalidState, a.AdjustmentNumber, a.State)
	}

	ledger := h.ledger.Ledger(repos)
	ref := costing.Reference{Type: costing.ReferenceInventoryAdjustment, ID: a.ID}
	var tx *costing.CostingTransaction
	if a.IsReceipt() {
		tx, err = ledger.Receive(ctx, appcosting.ReceiptRequest{
			ProductID:   a.ProductID,
			WarehouseID: a.WarehouseID,
			Quantity:    a.Quantity(),
			UnitCost:    a.UnitCost,
			ReceivedAt:  now,
			Reference:   ref,
			LotNumber:   a.AdjustmentNumber,
		})
	} else {
		tx, err = ledger.Issue(ctx, appcosting.IssueRequest{
			ProductID:   a.ProductID,
			WarehouseID: a.WarehouseID,
			Quantity:    a.Quantity(),
			Reference:   ref,
			LotNumber:   a.AdjustmentNumber,
		})
	}
	if err != nil {
		return nil, err
	}

	if err := a.Post(tx.TotalCost, now); err != nil {
		return nil, err
	}
	if err := repos.Adjustments().SaveWithLock(ctx, a); err != nil {
		return nil, err
	}
	return ledger.Events(), nil
}

// Cancel implements appapproval.DocumentHandler
func (h *ApprovalHandler) Cancel(ctx context.Context, repos appshared.Repositories, id uuid.UUID) error {
	a, err := repos.Adjustments().FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := a.Cancel(); err != nil {
		return err
	}
	return repos.Adjustments().SaveWithLock(ctx, a)
}

var _ appapproval.DocumentHandler = (*ApprovalHandler)(nil)
