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

// CostCategory classifies a WIP cost
type CostCategory string

const (
	CostCategoryMaterial CostCategory = "material"
	CostCategoryLabor    CostCategory = "labor"
	CostCategoryOverhead CostCategory = "overhead"
)

// AllCostCategories lists the categories in reporting order
func AllCostCategories() []CostCategory {
	return []CostCategory{CostCategoryMaterial, CostCategoryLabor, CostCategoryOverhead}
}

// ParseCostCategory validates a category name
func ParseCostCategory(s string) (CostCategory, error) {
	c := CostCategory(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case CostCategoryMaterial, CostCategoryLabor, CostCategoryOverhead:
		return c, nil
	}
	return "", fmt.Errorf("%w: unknown cost category %q", shared.ErrInvalidInput, s)
}

// WIPTransaction is an immutable cost posting against a production order
type WIPTransaction struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Category  CostCategory
	Amount    decimal.Decimal
	Quantity  decimal.NullDecimal
	Notes     string
	CreatedBy string
	CreatedAt time.Time
}

// NewWIPTransaction validates and builds a WIP posting
func NewWIPTransaction(orderID uuid.UUID, category CostCategory, amount decimal.Decimal, quantity decimal.NullDecimal, notes, createdBy string) (*WIPTransaction, error) {
	if orderID == uuid.Nil {
		return nil, fmt.Errorf("%w: production order ID cannot be empty", shared.ErrInvalidInput)
	}
	if _, err := ParseCostCategory(string(category)); err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: WIP amount cannot be negative", shared.ErrInvalidInput)
	}
	if !amount.Equal(amount.Round(strategy.ValueScale)) {
		return nil, fmt.Errorf("%w: WIP amount supports at most %d decimal places", shared.ErrInvalidInput, strategy.ValueScale)
	}
	if quantity.Valid && quantity.Decimal.IsNegative() {
		return nil, fmt.Errorf("%w: WIP quantity cannot be negative", shared.ErrInvalidInput)
	}

	return &WIPTransaction{
		ID:        uuid.New(),
		OrderID:   orderID,
		Category:  category,
		Amount:    amount,
		Quantity:  quantity,
		Notes:     notes,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}, nil
}

// WIPSummary aggregates the WIP transactions of one order
type WIPSummary struct {
	Total      decimal.Decimal
	ByCategory map[CostCategory]decimal.Decimal
	Count      int
}

// Summarize sums transactions per category
func Summarize(txs []WIPTransaction) WIPSummary {
	s := WIPSummary{
		Total:      decimal.Zero,
		ByCategory: make(map[CostCategory]decimal.Decimal, 3),
	}
	for _, c := range AllCostCategories() {
		s.ByCategory[c] = decimal.Zero
	}
	for _, tx := range txs {
		s.Total = s.Total.Add(tx.Amount)
		s.ByCategory[tx.Category] = s.ByCategory[tx.Category].Add(tx.Amount)
		s.Count++
	}
	return s
}
