package costing

import (
	"fmt"
	"time"

	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AverageTolerancePerUnit bounds |value - quantity × average| per unit on hand
// for moving average records. The average is stored at six decimal places.
var AverageTolerancePerUnit = decimal.New(1, -6)

// InsufficientStockError is returned when an issue exceeds the quantity on hand.
// It matches shared.ErrInsufficientStock with errors.Is.
type InsufficientStockError = strategy.InsufficientStockError

// CostingRecord is the running valuation of one product in one warehouse.
// It is the aggregate root of the costing ledger; the pair (ProductID, WarehouseID)
// is unique and Method never changes after creation.
type CostingRecord struct {
	shared.BaseAggregateRoot
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Method      strategy.CostMethod
	Valuation   strategy.Valuation
}

// NewCostingRecord creates an empty record for a product-warehouse pair
func NewCostingRecord(productID, warehouseID uuid.UUID, method strategy.CostMethod) (*CostingRecord, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if method == "" {
		method = strategy.CostMethodMovingAverage
	}
	if !method.IsValid() {
		return nil, fmt.Errorf("%w: unknown costing method %q", shared.ErrInvalidInput, method)
	}

	return &CostingRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		WarehouseID:       warehouseID,
		Method:            method,
		Valuation: strategy.Valuation{
			Quantity:    decimal.Zero,
			Value:       decimal.Zero,
			AverageCost: decimal.Zero,
		},
	}, nil
}

// Snapshot returns a copy of the current valuation
func (r *CostingRecord) Snapshot() strategy.Valuation {
	return r.Valuation.Clone()
}

// Receive books a receipt through s. On error the record is unchanged.
func (r *CostingRecord) Receive(s strategy.CostingStrategy, in strategy.ReceiptInput) (strategy.Movement, error) {
	if err := r.checkStrategy(s); err != nil {
		return strategy.Movement{}, err
	}
	if in.ReceivedAt.IsZero() {
		in.ReceivedAt = time.Now()
	}

	m, err := s.Receive(r.Snapshot(), in)
	if err != nil {
		return strategy.Movement{}, err
	}
	r.apply(m)
	r.AddDomainEvent(NewReceiptRecordedEvent(r, in.Quantity, m))
	return m, nil
}

// Issue books an issue through s. On error, including insufficient stock,
// the record is unchanged.
func (r *CostingRecord) Issue(s strategy.CostingStrategy, in strategy.IssueInput) (strategy.Movement, error) {
	if err := r.checkStrategy(s); err != nil {
		return strategy.Movement{}, err
	}

	m, err := s.Issue(r.Snapshot(), in)
	if err != nil {
		return strategy.Movement{}, err
	}
	r.apply(m)
	r.AddDomainEvent(NewIssueRecordedEvent(r, in.Quantity, m))
	return m, nil
}

func (r *CostingRecord) checkStrategy(s strategy.CostingStrategy) error {
	if s == nil {
		return fmt.Errorf("%w: no costing strategy for method %s", shared.ErrConfigurationMissing, r.Method)
	}
	if s.Method() != r.Method {
		return fmt.Errorf("%w: record uses %s, strategy is %s", shared.ErrInvalidState, r.Method, s.Method())
	}
	return nil
}

func (r *CostingRecord) apply(m strategy.Movement) {
	r.Valuation = m.Result
	r.Touch()
	r.IncrementVersion()
}

// CheckInvariant verifies the method-specific value invariant
func (r *CostingRecord) CheckInvariant() error {
	v := r.Valuation
	if v.Quantity.IsNegative() || v.Value.IsNegative() {
		return fmt.Errorf("%w: negative quantity %s or value %s", shared.ErrDataIntegrity, v.Quantity, v.Value)
	}

	switch r.Method {
	case strategy.CostMethodFIFO:
		if !v.Value.Equal(v.LayerValue()) {
			return fmt.Errorf("%w: value %s differs from layer value %s", shared.ErrDataIntegrity, v.Value, v.LayerValue())
		}
		if !v.Quantity.Equal(v.LayerQuantity()) {
			return fmt.Errorf("%w: quantity %s differs from layer quantity %s", shared.ErrDataIntegrity, v.Quantity, v.LayerQuantity())
		}
	case strategy.CostMethodMovingAverage:
		diff := v.Value.Sub(v.Quantity.Mul(v.AverageCost)).Abs()
		if diff.GreaterThan(v.Quantity.Mul(AverageTolerancePerUnit)) {
			return fmt.Errorf("%w: value %s differs from %s × %s by %s",
				shared.ErrDataIntegrity, v.Value, v.Quantity, v.AverageCost, diff)
		}
	}
	return nil
}
