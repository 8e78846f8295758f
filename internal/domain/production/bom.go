package production

import (
	"fmt"
	"strings"

	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BOMComponent is one line of a bill of materials
type BOMComponent struct {
	ComponentID     uuid.UUID       `json:"component_id"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
	Unit            string          `json:"unit"`
}

// BOM is a bill of materials: the components needed to make one unit of a product
type BOM struct {
	shared.BaseEntity
	Name       string
	ProductID  uuid.UUID
	Version    string
	Active     bool
	Components []BOMComponent
}

// NewBOM validates and builds an active BOM
func NewBOM(name string, productID uuid.UUID, version string, components []BOMComponent) (*BOM, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: BOM name cannot be empty", shared.ErrInvalidInput)
	}
	if productID == uuid.Nil {
		return nil, fmt.Errorf("%w: BOM product cannot be empty", shared.ErrInvalidInput)
	}
	if len(components) == 0 {
		return nil, fmt.Errorf("%w: BOM needs at least one component", shared.ErrInvalidInput)
	}
	if version == "" {
		version = "1.0"
	}

	seen := make(map[uuid.UUID]struct{}, len(components))
	out := make([]BOMComponent, 0, len(components))
	for i, c := range components {
		if c.ComponentID == uuid.Nil {
			return nil, fmt.Errorf("%w: component %d has no product", shared.ErrInvalidInput, i)
		}
		if c.ComponentID == productID {
			return nil, fmt.Errorf("%w: a product cannot be its own component", shared.ErrInvalidInput)
		}
		if _, dup := seen[c.ComponentID]; dup {
			return nil, fmt.Errorf("%w: component %s listed twice", shared.ErrInvalidInput, c.ComponentID)
		}
		seen[c.ComponentID] = struct{}{}
		if !c.QuantityPerUnit.IsPositive() {
			return nil, fmt.Errorf("%w: component %s quantity must be positive", shared.ErrInvalidInput, c.ComponentID)
		}
		if !c.QuantityPerUnit.Equal(c.QuantityPerUnit.Round(strategy.QuantityScale)) {
			return nil, fmt.Errorf("%w: component quantity supports at most %d decimal places", shared.ErrInvalidInput, strategy.QuantityScale)
		}
		if c.Unit == "" {
			c.Unit = "pcs"
		}
		out = append(out, c)
	}

	return &BOM{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		ProductID:  productID,
		Version:    version,
		Active:     true,
		Components: out,
	}, nil
}
