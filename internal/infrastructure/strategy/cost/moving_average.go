package cost

import (
	"github.com/erp/manufacturing/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// MovingAverageCostStrategy implements weighted moving average costing.
// The average is recomputed on every receipt.
type MovingAverageCostStrategy struct {
	strategy.Descriptor
}

// NewMovingAverageCostStrategy creates a new moving average cost strategy
func NewMovingAverageCostStrategy() *MovingAverageCostStrategy {
	return &MovingAverageCostStrategy{
		Descriptor: strategy.NewDescriptor(strategy.CostMethodMovingAverage, "Moving weighted average cost calculation"),
	}
}

// Receive adds quantity × unit cost to the running value and recomputes the average.
// When the resulting quantity is zero the receipt's unit cost becomes the average.
func (s *MovingAverageCostStrategy) Receive(v strategy.Valuation, in strategy.ReceiptInput) (strategy.Movement, error) {
	if err := in.Validate(); err != nil {
		return strategy.Movement{}, err
	}

	next := v.Clone()
	totalCost := in.Quantity.Mul(in.UnitCost)
	next.Quantity = v.Quantity.Add(in.Quantity)
	next.Value = v.Value.Add(totalCost)
	next.AverageCost = averageOf(next.Value, next.Quantity, in.UnitCost)

	return strategy.Movement{
		TotalCost:      totalCost,
		UnitCost:       in.UnitCost,
		NewAverageCost: decimal.NewNullDecimal(next.AverageCost),
		Result:         next,
	}, nil
}

// Issue costs the quantity at the current average. Draining the full quantity
// releases exactly the remaining value so nothing is stranded by rounding.
func (s *MovingAverageCostStrategy) Issue(v strategy.Valuation, in strategy.IssueInput) (strategy.Movement, error) {
	if err := in.Validate(); err != nil {
		return strategy.Movement{}, err
	}
	if v.Quantity.LessThan(in.Quantity) {
		return strategy.Movement{}, &strategy.InsufficientStockError{
			Requested: in.Quantity,
			Available: v.Quantity,
		}
	}

	next := v.Clone()
	var totalCost decimal.Decimal
	if in.Quantity.Equal(v.Quantity) {
		totalCost = v.Value
	} else {
		totalCost = decimal.Min(in.Quantity.Mul(v.AverageCost), v.Value)
	}

	next.Quantity = v.Quantity.Sub(in.Quantity)
	next.Value = v.Value.Sub(totalCost)
	// Re-derive the average from what is left so value ≈ quantity × average
	// stays within half a unit of cost scale per unit on hand.
	next.AverageCost = averageOf(next.Value, next.Quantity, v.AverageCost)

	return strategy.Movement{
		TotalCost:      totalCost,
		UnitCost:       totalCost.DivRound(in.Quantity, strategy.CostScale),
		NewAverageCost: decimal.NewNullDecimal(next.AverageCost),
		Result:         next,
	}, nil
}
