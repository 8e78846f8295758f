package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrAdjustmentNotFound is returned when an adjustment does not exist
var ErrAdjustmentNotFound = fmt.Errorf("%w: inventory adjustment not found", shared.ErrNotFound)

// AdjustmentState is the lifecycle state of an inventory adjustment
type AdjustmentState string

const (
	AdjustmentStateDraft           AdjustmentState = "draft"
	AdjustmentStatePendingApproval AdjustmentState = "pending_approval"
	AdjustmentStatePosted          AdjustmentState = "posted"
	AdjustmentStateCancelled       AdjustmentState = "cancelled"
)

// CanTransitionTo checks if the state can transition to the target state
func (s AdjustmentState) CanTransitionTo(target AdjustmentState) bool {
	switch s {
	case AdjustmentStateDraft:
		return target == AdjustmentStatePendingApproval || target == AdjustmentStateCancelled
	case AdjustmentStatePendingApproval:
		return target == AdjustmentStatePosted || target == AdjustmentStateCancelled
	}
	return false
}

// Adjustment corrects the stock of one product in one warehouse.
// A positive delta is a receipt at UnitCost; a negative delta is an issue
// costed by the ledger.
type Adjustment struct {
	shared.BaseAggregateRoot
	AdjustmentNumber string
	ProductID        uuid.UUID
	WarehouseID      uuid.UUID
	QuantityDelta    decimal.Decimal
	UnitCost         decimal.Decimal
	Reason           string
	State            AdjustmentState
	PostedCost       decimal.NullDecimal
	PostedAt         *time.Time
}

// NewAdjustment validates and creates a draft adjustment
func NewAdjustment(number string, productID, warehouseID uuid.UUID, delta, unitCost decimal.Decimal, reason string) (*Adjustment, error) {
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewDomainError("INVALID_ADJUSTMENT_NUMBER", "Adjustment number cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if delta.IsZero() {
		return nil, fmt.Errorf("%w: quantity delta cannot be zero", shared.ErrInvalidInput)
	}

	if delta.IsPositive() {
		if err := (strategy.ReceiptInput{Quantity: delta, UnitCost: unitCost}).Validate(); err != nil {
			return nil, err
		}
	} else {
		if err := strategy.ValidateQuantity(delta.Neg()); err != nil {
			return nil, err
		}
		unitCost = decimal.Zero
	}

	return &Adjustment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AdjustmentNumber:  number,
		ProductID:         productID,
		WarehouseID:       warehouseID,
		QuantityDelta:     delta,
		UnitCost:          unitCost,
		Reason:            reason,
		State:             AdjustmentStateDraft,
	}, nil
}

// IsReceipt reports whether the adjustment adds stock
func (a *Adjustment) IsReceipt() bool {
	return a.QuantityDelta.IsPositive()
}

// Quantity returns the absolute quantity moved
func (a *Adjustment) Quantity() decimal.Decimal {
	return a.QuantityDelta.Abs()
}

func (a *Adjustment) transition(target AdjustmentState) error {
	if !a.State.CanTransitionTo(target) {
		return fmt.Errorf("%w: adjustment cannot move from %s to %s", shared.ErrInvalidState, a.State, target)
	}
	a.State = target
	a.Touch()
	a.IncrementVersion()
	return nil
}

// Submit sends the adjustment for approval
func (a *Adjustment) Submit() error {
	return a.transition(AdjustmentStatePendingApproval)
}

// Post marks the adjustment as applied to the ledger at the given total cost
func (a *Adjustment) Post(totalCost decimal.Decimal, now time.Time) error {
	if err := a.transition(AdjustmentStatePosted); err != nil {
		return err
	}
	a.PostedCost = decimal.NewNullDecimal(totalCost)
	a.PostedAt = &now
	return nil
}

// Cancel cancels a draft or pending adjustment
func (a *Adjustment) Cancel() error {
	return a.transition(AdjustmentStateCancelled)
}
