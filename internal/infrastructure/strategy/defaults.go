package strategy

import (
	"github.com/erp/manufacturing/internal/domain/shared/strategy"
	"github.com/erp/manufacturing/internal/infrastructure/strategy/cost"
)

// NewRegistryWithDefaults creates a registry holding the moving average and FIFO
// strategies, with defaultMethod (moving average when empty) as the default.
func NewRegistryWithDefaults(defaultMethod strategy.CostMethod) (*StrategyRegistry, error) {
	r := NewStrategyRegistry()

	if err := r.RegisterCostStrategy(cost.NewMovingAverageCostStrategy()); err != nil {
		return nil, err
	}
	if err := r.RegisterCostStrategy(cost.NewFIFOCostStrategy()); err != nil {
		return nil, err
	}

	if defaultMethod == "" {
		defaultMethod = strategy.CostMethodMovingAverage
	}
	if err := r.SetDefault(defaultMethod); err != nil {
		return nil, err
	}
	return r, nil
}
