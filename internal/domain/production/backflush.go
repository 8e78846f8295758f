package production

import (
	"fmt"
	"time"

	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BackflushRecord captures planned vs actual consumption of one component in one run
type BackflushRecord struct {
	ID              uuid.UUID
	RunID           uuid.UUID
	OrderID         uuid.UUID
	ComponentID     uuid.UUID
	LotNumber       string
	PlannedQuantity decimal.Decimal
	ActualQuantity  decimal.Decimal
	ScrapQuantity   decimal.Decimal
	Variance        decimal.Decimal
	IssuedCost      decimal.NullDecimal
	CreatedAt       time.Time
}

// Backflush expands a BOM over the produced quantity. It has no side effects.
// planned = quantity per unit × produced (rounded to quantity scale),
// actual = planned + scrap, variance = actual - planned.
// scrap holds caller-supplied scrap per component; missing entries mean zero.
func Backflush(order *ProductionOrder, bom *BOM, produced decimal.Decimal, scrap map[uuid.UUID]decimal.Decimal) ([]BackflushRecord, error) {
	if order == nil {
		return nil, ErrProductionOrderNotFound
	}
	if bom == nil || !bom.Active {
		return nil, ErrBOMNotFound
	}
	if order.BOMID != bom.ID {
		return nil, fmt.Errorf("%w: order %s uses BOM %s, not %s", shared.ErrInvalidInput, order.OrderNumber, order.BOMID, bom.ID)
	}
	if err := order.EnsureAcceptsCosts(); err != nil {
		return nil, err
	}
	if err := strategy.ValidateQuantity(produced); err != nil {
		return nil, err
	}

	for id, q := range scrap {
		if q.IsNegative() {
			return nil, fmt.Errorf("%w: scrap for %s cannot be negative", shared.ErrInvalidInput, id)
		}
		if !bomHasComponent(bom, id) {
			return nil, fmt.Errorf("%w: %s is not a component of BOM %s", shared.ErrInvalidInput, id, bom.Name)
		}
	}

	runID := uuid.New()
	now := time.Now()
	records := make([]BackflushRecord, 0, len(bom.Components))
	for _, c := range bom.Components {
		planned := c.QuantityPerUnit.Mul(produced).Round(strategy.QuantityScale)
		s := decimal.Zero
		if v, ok := scrap[c.ComponentID]; ok {
			s = v.Round(strategy.QuantityScale)
		}
		actual := planned.Add(s)

		records = append(records, BackflushRecord{
			ID:              uuid.New(),
			RunID:           runID,
			OrderID:         order.ID,
			ComponentID:     c.ComponentID,
			LotNumber:       order.LotNumber,
			PlannedQuantity: planned,
			ActualQuantity:  actual,
			ScrapQuantity:   s,
			Variance:        actual.Sub(planned),
			CreatedAt:       now,
		})
	}
	return records, nil
}

func bomHasComponent(bom *BOM, id uuid.UUID) bool {
	for _, c := range bom.Components {
		if c.ComponentID == id {
			return true
		}
	}
	return false
}
