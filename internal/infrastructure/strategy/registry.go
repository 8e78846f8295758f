package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/domain/shared/strategy"
)

// StrategyRegistry manages costing strategy registrations
type StrategyRegistry struct {
	mu             sync.RWMutex
	costStrategies map[strategy.CostMethod]strategy.CostingStrategy
	defaultMethod  strategy.CostMethod
}

// NewStrategyRegistry creates a new, empty strategy registry
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{
		costStrategies: make(map[strategy.CostMethod]strategy.CostingStrategy),
	}
}

// RegisterCostStrategy registers a costing strategy under its method
func (r *StrategyRegistry) RegisterCostStrategy(s strategy.CostingStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	method := s.Method()
	if _, exists := r.costStrategies[method]; exists {
		return fmt.Errorf("%w: cost strategy '%s' already registered", shared.ErrAlreadyExists, method)
	}
	r.costStrategies[method] = s
	return nil
}

// GetCostStrategy returns the strategy for method, or the default if method is empty
func (r *StrategyRegistry) GetCostStrategy(method strategy.CostMethod) (strategy.CostingStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if method == "" {
		method = r.defaultMethod
		if method == "" {
			return nil, fmt.Errorf("%w: no default cost strategy set", shared.ErrConfigurationMissing)
		}
	}

	s, exists := r.costStrategies[method]
	if !exists {
		return nil, fmt.Errorf("%w: cost strategy '%s' not found", shared.ErrNotFound, method)
	}
	return s, nil
}

// ListCostMethods returns all registered methods, sorted
func (r *StrategyRegistry) ListCostMethods() []strategy.CostMethod {
	r.mu.RLock()
	defer r.mu.RUnlock()

	methods := make([]strategy.CostMethod, 0, len(r.costStrategies))
	for m := range r.costStrategies {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })
	return methods
}

// SetDefault sets the method used for records created without an explicit choice
func (r *StrategyRegistry) SetDefault(method strategy.CostMethod) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.costStrategies[method]; !exists {
		return fmt.Errorf("%w: cost strategy '%s' not registered", shared.ErrNotFound, method)
	}
	r.defaultMethod = method
	return nil
}

// DefaultMethod returns the default costing method
func (r *StrategyRegistry) DefaultMethod() strategy.CostMethod {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultMethod
}
