package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrPurchaseOrderNotFound is returned when a purchase order does not exist
var ErrPurchaseOrderNotFound = fmt.Errorf("%w: purchase order not found", shared.ErrNotFound)

// PurchaseOrderState represents the lifecycle state of a purchase order
type PurchaseOrderState string

const (
	PurchaseOrderStateDraft           PurchaseOrderState = "draft"
	PurchaseOrderStatePendingApproval PurchaseOrderState = "pending_approval"
	PurchaseOrderStateApproved        PurchaseOrderState = "approved"
	PurchaseOrderStateCancelled       PurchaseOrderState = "cancelled"
	PurchaseOrderStateReceived        PurchaseOrderState = "received"
)

// IsValid checks if the state is a valid PurchaseOrderState
func (s PurchaseOrderState) IsValid() bool {
	switch s {
	case PurchaseOrderStateDraft, PurchaseOrderStatePendingApproval, PurchaseOrderStateApproved,
		PurchaseOrderStateCancelled, PurchaseOrderStateReceived:
		return true
	}
	return false
}

// CanTransitionTo checks if the state can transition to the target state
func (s PurchaseOrderState) CanTransitionTo(target PurchaseOrderState) bool {
	switch s {
	case PurchaseOrderStateDraft:
		return target == PurchaseOrderStatePendingApproval || target == PurchaseOrderStateCancelled
	case PurchaseOrderStatePendingApproval:
		return target == PurchaseOrderStateApproved || target == PurchaseOrderStateCancelled
	case PurchaseOrderStateApproved:
		return target == PurchaseOrderStateReceived
	}
	return false
}

// PurchaseOrderLine is one product line of a purchase order
type PurchaseOrderLine struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
	Amount    decimal.Decimal
}

// PurchaseOrder is a supplier order whose receipt feeds the costing ledger
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	OrderNumber  string
	SupplierName string
	WarehouseID  uuid.UUID
	Lines        []PurchaseOrderLine
	TotalAmount  decimal.Decimal
	State        PurchaseOrderState
	Remark       string
	ApprovedAt   *time.Time
	ReceivedAt   *time.Time
}

// NewPurchaseOrder creates a draft purchase order
func NewPurchaseOrder(orderNumber, supplierName string, warehouseID uuid.UUID) (*PurchaseOrder, error) {
	if strings.TrimSpace(orderNumber) == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if strings.TrimSpace(supplierName) == "" {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	return &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		SupplierName:      supplierName,
		WarehouseID:       warehouseID,
		TotalAmount:       decimal.Zero,
		State:             PurchaseOrderStateDraft,
	}, nil
}

// AddLine adds a product line. Only allowed in draft.
func (o *PurchaseOrder) AddLine(productID uuid.UUID, quantity, unitCost decimal.Decimal) (*PurchaseOrderLine, error) {
	if o.State != PurchaseOrderStateDraft {
		return nil, fmt.Errorf("%w: lines can only be added to a draft order", shared.ErrInvalidState)
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	// receipt validation is the ledger's, so a line that passes here posts cleanly later
	if err := (strategy.ReceiptInput{Quantity: quantity, UnitCost: unitCost}).Validate(); err != nil {
		return nil, err
	}
	line := PurchaseOrderLine{
		ID:        uuid.New(),
		ProductID: productID,
		Quantity:  quantity,
		UnitCost:  unitCost,
		Amount:    quantity.Mul(unitCost),
	}
	o.Lines = append(o.Lines, line)
	o.TotalAmount = o.TotalAmount.Add(line.Amount)
	o.Touch()
	return &o.Lines[len(o.Lines)-1], nil
}

func (o *PurchaseOrder) transition(target PurchaseOrderState) error {
	if !o.State.CanTransitionTo(target) {
		return fmt.Errorf("%w: purchase order cannot move from %s to %s", shared.ErrInvalidState, o.State, target)
	}
	o.State = target
	o.Touch()
	o.IncrementVersion()
	return nil
}

// Submit sends the order for approval; requires at least one line
func (o *PurchaseOrder) Submit() error {
	if len(o.Lines) == 0 {
		return shared.NewDomainError("EMPTY_ORDER", "Purchase order has no lines")
	}
	return o.transition(PurchaseOrderStatePendingApproval)
}

// Approve is called when the approval chain completes
func (o *PurchaseOrder) Approve(now time.Time) error {
	if err := o.transition(PurchaseOrderStateApproved); err != nil {
		return err
	}
	o.ApprovedAt = &now
	return nil
}

// Cancel cancels a draft or pending order
func (o *PurchaseOrder) Cancel() error {
	return o.transition(PurchaseOrderStateCancelled)
}

// MarkReceived records that all lines were received into the warehouse
func (o *PurchaseOrder) MarkReceived(now time.Time) error {
	if err := o.transition(PurchaseOrderStateReceived); err != nil {
		return err
	}
	o.ReceivedAt = &now
	o.AddDomainEvent(NewPurchaseOrderReceivedEvent(o))
	return nil
}
