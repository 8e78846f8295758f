package strategy

import (
	"fmt"
	"time"

	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CostMethod represents the costing method
type CostMethod string

const (
	CostMethodMovingAverage CostMethod = "moving_average"
	CostMethodFIFO          CostMethod = "fifo"
)

// IsValid returns true if the method is known
func (m CostMethod) IsValid() bool {
	return m == CostMethodMovingAverage || m == CostMethodFIFO
}

// ParseCostMethod parses a costing method name
func ParseCostMethod(s string) (CostMethod, error) {
	m := CostMethod(s)
	if !m.IsValid() {
		return "", fmt.Errorf("%w: unknown costing method %q", shared.ErrInvalidInput, s)
	}
	return m, nil
}

// Fixed-point scales used by the ledger.
// Values are kept at ValueScale so quantity × unit cost is always exact.
const (
	QuantityScale int32 = 4
	CostScale     int32 = 6
	ValueScale    int32 = 10
)

// CostLayer is a FIFO batch of stock received at one unit cost
type CostLayer struct {
	ID         uuid.UUID
	Sequence   int64
	Quantity   decimal.Decimal
	Remaining  decimal.Decimal
	UnitCost   decimal.Decimal
	ReceivedAt time.Time
}

// Value returns remaining × unit cost
func (l CostLayer) Value() decimal.Decimal {
	return l.Remaining.Mul(l.UnitCost)
}

// Before reports whether l is consumed before other: oldest first, insertion order on ties
func (l CostLayer) Before(other CostLayer) bool {
	if !l.ReceivedAt.Equal(other.ReceivedAt) {
		return l.ReceivedAt.Before(other.ReceivedAt)
	}
	return l.Sequence < other.Sequence
}

// Valuation is the running cost basis of one product in one warehouse
type Valuation struct {
	Quantity     decimal.Decimal
	Value        decimal.Decimal
	AverageCost  decimal.Decimal
	Layers       []CostLayer
	NextSequence int64
}

// Clone returns a deep copy of the valuation
func (v Valuation) Clone() Valuation {
	out := v
	if v.Layers != nil {
		out.Layers = make([]CostLayer, len(v.Layers))
		copy(out.Layers, v.Layers)
	}
	return out
}

// LayerValue returns Σ remaining × unit cost over all layers
func (v Valuation) LayerValue() decimal.Decimal {
	total := decimal.Zero
	for _, l := range v.Layers {
		total = total.Add(l.Value())
	}
	return total
}

// LayerQuantity returns Σ remaining over all layers
func (v Valuation) LayerQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, l := range v.Layers {
		total = total.Add(l.Remaining)
	}
	return total
}

// ReceiptInput describes stock coming in
type ReceiptInput struct {
	Quantity   decimal.Decimal
	UnitCost   decimal.Decimal
	ReceivedAt time.Time
}

// Validate checks quantity > 0, unit cost ≥ 0 and the ledger precision
func (in ReceiptInput) Validate() error {
	if err := ValidateQuantity(in.Quantity); err != nil {
		return err
	}
	if in.UnitCost.IsNegative() {
		return fmt.Errorf("%w: unit cost cannot be negative", shared.ErrInvalidInput)
	}
	if !in.UnitCost.Equal(in.UnitCost.Round(CostScale)) {
		return fmt.Errorf("%w: unit cost supports at most %d decimal places", shared.ErrInvalidInput, CostScale)
	}
	return nil
}

// IssueInput describes stock going out
type IssueInput struct {
	Quantity decimal.Decimal
}

// Validate checks quantity > 0 and the ledger precision
func (in IssueInput) Validate() error {
	return ValidateQuantity(in.Quantity)
}

// ValidateQuantity checks q > 0 with at most QuantityScale decimal places
func ValidateQuantity(q decimal.Decimal) error {
	if !q.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive", shared.ErrInvalidInput)
	}
	if !q.Equal(q.Round(QuantityScale)) {
		return fmt.Errorf("%w: quantity supports at most %d decimal places", shared.ErrInvalidInput, QuantityScale)
	}
	return nil
}

// LayerConsumption records how much of one layer an issue drained
type LayerConsumption struct {
	LayerID    uuid.UUID       `json:"layer_id"`
	Sequence   int64           `json:"sequence"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	Cost       decimal.Decimal `json:"cost"`
	ReceivedAt time.Time       `json:"received_at"`
}

// Movement is the outcome of applying a receipt or issue to a valuation
type Movement struct {
	TotalCost      decimal.Decimal
	UnitCost       decimal.Decimal
	NewAverageCost decimal.NullDecimal
	Consumed       []LayerConsumption
	Result         Valuation
}

// CostingStrategy computes receipts and issues for one costing method.
// Implementations must not mutate the valuation they are given: a failed
// issue leaves the caller's snapshot untouched.
type CostingStrategy interface {
	Strategy
	Method() CostMethod
	Receive(v Valuation, in ReceiptInput) (Movement, error)
	Issue(v Valuation, in IssueInput) (Movement, error)
}

// InsufficientStockError reports an issue larger than the quantity on hand
type InsufficientStockError struct {
	Requested decimal.Decimal
	Available decimal.Decimal
}

// Shortage returns how much quantity is missing
func (e *InsufficientStockError) Shortage() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: requested %s, available %s, short by %s",
		e.Requested.String(), e.Available.String(), e.Shortage().String())
}

// Is makes errors.Is(err, shared.ErrInsufficientStock) match
func (e *InsufficientStockError) Is(target error) bool {
	return target == shared.ErrInsufficientStock
}
