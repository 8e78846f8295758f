package cost

import (
	"sort"

	"github.com/erp/manufacturing/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FIFOCostStrategy implements First-In-First-Out costing over receipt layers
type FIFOCostStrategy struct {
	strategy.Descriptor
}

// NewFIFOCostStrategy creates a new FIFO cost strategy
func NewFIFOCostStrategy() *FIFOCostStrategy {
	return &FIFOCostStrategy{
		Descriptor: strategy.NewDescriptor(strategy.CostMethodFIFO, "First-In-First-Out cost calculation"),
	}
}

// Receive appends a new layer holding the received quantity
func (s *FIFOCostStrategy) Receive(v strategy.Valuation, in strategy.ReceiptInput) (strategy.Movement, error) {
	if err := in.Validate(); err != nil {
		return strategy.Movement{}, err
	}

	next := v.Clone()
	next.Layers = append(next.Layers, strategy.CostLayer{
		ID:         uuid.New(),
		Sequence:   next.NextSequence,
		Quantity:   in.Quantity,
		Remaining:  in.Quantity,
		UnitCost:   in.UnitCost,
		ReceivedAt: in.ReceivedAt,
	})
	next.NextSequence++

	totalCost := in.Quantity.Mul(in.UnitCost)
	next.Quantity = next.Quantity.Add(in.Quantity)
	next.Value = next.Value.Add(totalCost)
	next.AverageCost = averageOf(next.Value, next.Quantity, in.UnitCost)

	return strategy.Movement{
		TotalCost: totalCost,
		UnitCost:  in.UnitCost,
		Result:    next,
	}, nil
}

// Issue drains layers oldest first. Nothing is consumed unless the whole
// quantity can be satisfied.
func (s *FIFOCostStrategy) Issue(v strategy.Valuation, in strategy.IssueInput) (strategy.Movement, error) {
	if err := in.Validate(); err != nil {
		return strategy.Movement{}, err
	}

	available := v.LayerQuantity()
	if available.LessThan(in.Quantity) {
		return strategy.Movement{}, &strategy.InsufficientStockError{
			Requested: in.Quantity,
			Available: available,
		}
	}

	next := v.Clone()
	sort.SliceStable(next.Layers, func(i, j int) bool {
		return next.Layers[i].Before(next.Layers[j])
	})

	remaining := in.Quantity
	totalCost := decimal.Zero
	consumed := make([]strategy.LayerConsumption, 0)

	for i := range next.Layers {
		if remaining.IsZero() {
			break
		}
		layer := &next.Layers[i]
		if !layer.Remaining.IsPositive() {
			continue
		}

		take := decimal.Min(remaining, layer.Remaining)
		cost := take.Mul(layer.UnitCost)
		layer.Remaining = layer.Remaining.Sub(take)
		remaining = remaining.Sub(take)
		totalCost = totalCost.Add(cost)

		consumed = append(consumed, strategy.LayerConsumption{
			LayerID:    layer.ID,
			Sequence:   layer.Sequence,
			Quantity:   take,
			UnitCost:   layer.UnitCost,
			Cost:       cost,
			ReceivedAt: layer.ReceivedAt,
		})
	}

	next.Layers = pruneDrained(next.Layers)
	next.Quantity = next.LayerQuantity()
	next.Value = next.LayerValue()
	next.AverageCost = averageOf(next.Value, next.Quantity, v.AverageCost)

	return strategy.Movement{
		TotalCost: totalCost,
		UnitCost:  totalCost.DivRound(in.Quantity, strategy.CostScale),
		Consumed:  consumed,
		Result:    next,
	}, nil
}

// pruneDrained drops layers whose remaining quantity reached zero
func pruneDrained(layers []strategy.CostLayer) []strategy.CostLayer {
	kept := layers[:0]
	for _, l := range layers {
		if l.Remaining.IsPositive() {
			kept = append(kept, l)
		}
	}
	return kept
}

// averageOf returns value / quantity at cost scale, or fallback when quantity is zero
func averageOf(value, quantity, fallback decimal.Decimal) decimal.Decimal {
	if quantity.IsZero() {
		return fallback
	}
	return value.DivRound(quantity, strategy.CostScale)
}
