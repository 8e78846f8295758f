package production

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderState is the lifecycle state of a production order
type OrderState string

const (
	OrderStateDraft      OrderState = "draft"
	OrderStateInProgress OrderState = "in_progress"
	OrderStatePosted     OrderState = "posted"
	OrderStateCancelled  OrderState = "cancelled"
)

// AcceptsCosts reports whether WIP can still be posted in this state
func (s OrderState) AcceptsCosts() bool {
	return s == OrderStateDraft || s == OrderStateInProgress
}

// StandardCosts are the optional planned costs per category used for variance analysis
type StandardCosts struct {
	Material decimal.NullDecimal
	Labor    decimal.NullDecimal
	Overhead decimal.NullDecimal
}

// For returns the standard cost for a category
func (s StandardCosts) For(c CostCategory) decimal.NullDecimal {
	switch c {
	case CostCategoryMaterial:
		return s.Material
	case CostCategoryLabor:
		return s.Labor
	case CostCategoryOverhead:
		return s.Overhead
	}
	return decimal.NullDecimal{}
}

// Any reports whether at least one standard cost is set
func (s StandardCosts) Any() bool {
	return s.Material.Valid || s.Labor.Valid || s.Overhead.Valid
}

// ProductionOrder is the aggregate root for a manufacturing run.
// WIPCost is a cache of the sum of its WIP transactions; the transactions are authoritative.
type ProductionOrder struct {
	shared.BaseAggregateRoot
	OrderNumber   string
	ProductID     uuid.UUID
	BOMID         uuid.UUID
	WarehouseID   uuid.UUID
	Quantity      decimal.Decimal
	LotNumber     string
	PlannedStart  *time.Time
	PlannedEnd    *time.Time
	State         OrderState
	WIPCost       decimal.Decimal
	ActualCost    decimal.Decimal
	UnitCost      decimal.Decimal
	PostedAt      *time.Time
	StandardCosts StandardCosts
}

// NewProductionOrder creates a draft production order. A zero quantity is allowed.
func NewProductionOrder(orderNumber string, productID, bomID, warehouseID uuid.UUID, quantity decimal.Decimal) (*ProductionOrder, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if bomID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BOM", "BOM ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if quantity.IsNegative() {
		return nil, fmt.Errorf("%w: quantity cannot be negative", shared.ErrInvalidInput)
	}
	if !quantity.Equal(quantity.Round(strategy.QuantityScale)) {
		return nil, fmt.Errorf("%w: quantity supports at most %d decimal places", shared.ErrInvalidInput, strategy.QuantityScale)
	}

	return &ProductionOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		ProductID:         productID,
		BOMID:             bomID,
		WarehouseID:       warehouseID,
		Quantity:          quantity,
		LotNumber:         "LOT-" + orderNumber,
		State:             OrderStateDraft,
		WIPCost:           decimal.Zero,
		ActualCost:        decimal.Zero,
		UnitCost:          decimal.Zero,
	}, nil
}

// Start moves a draft order into production
func (o *ProductionOrder) Start() error {
	if o.State != OrderStateDraft {
		return fmt.Errorf("%w: cannot start order in state %s", shared.ErrInvalidState, o.State)
	}
	o.State = OrderStateInProgress
	o.Touch()
	o.IncrementVersion()
	return nil
}

// Cancel abandons an order that has not accrued any cost
func (o *ProductionOrder) Cancel() error {
	if !o.State.AcceptsCosts() {
		return fmt.Errorf("%w: cannot cancel order in state %s", shared.ErrInvalidState, o.State)
	}
	if o.WIPCost.IsPositive() {
		return fmt.Errorf("%w: order has %s of WIP cost posted", shared.ErrInvalidState, o.WIPCost)
	}
	o.State = OrderStateCancelled
	o.Touch()
	o.IncrementVersion()
	return nil
}

// EnsureAcceptsCosts returns ErrOrderClosed for posted or cancelled orders
func (o *ProductionOrder) EnsureAcceptsCosts() error {
	if !o.State.AcceptsCosts() {
		return fmt.Errorf("%w: order %s is %s", ErrOrderClosed, o.OrderNumber, o.State)
	}
	return nil
}

// Post closes the order with the reconciled WIP total and returns the unit cost.
// A zero quantity yields a zero unit cost.
func (o *ProductionOrder) Post(totalWIPCost decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	switch o.State {
	case OrderStatePosted:
		return decimal.Zero, ErrAlreadyClosed
	case OrderStateCancelled:
		return decimal.Zero, fmt.Errorf("%w: order %s is cancelled", shared.ErrInvalidState, o.OrderNumber)
	}

	unitCost := decimal.Zero
	if !o.Quantity.IsZero() {
		unitCost = totalWIPCost.DivRound(o.Quantity, strategy.CostScale)
	}

	o.State = OrderStatePosted
	o.WIPCost = totalWIPCost
	o.ActualCost = totalWIPCost
	o.UnitCost = unitCost
	o.PostedAt = &now
	o.Touch()
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderClosedEvent(o))
	return unitCost, nil
}
