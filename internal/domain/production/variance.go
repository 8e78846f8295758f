package production

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// VarianceAnalysis compares standard and actual cost for one category of a closed order
type VarianceAnalysis struct {
	ID                 uuid.UUID
	OrderID            uuid.UUID
	Category           CostCategory
	StandardCost       decimal.Decimal
	ActualCost         decimal.Decimal
	VarianceAmount     decimal.Decimal
	VariancePercentage decimal.Decimal
	CreatedAt          time.Time
}

// AnalyzeVariances returns one row per category that has a standard cost.
// A positive variance means actual exceeded standard.
func AnalyzeVariances(order *ProductionOrder, summary WIPSummary) []VarianceAnalysis {
	now := time.Now()
	out := make([]VarianceAnalysis, 0, 3)
	for _, c := range AllCostCategories() {
		std := order.StandardCosts.For(c)
		if !std.Valid {
			continue
		}
		actual := summary.ByCategory[c]
		variance := actual.Sub(std.Decimal)
		pct := decimal.Zero
		if std.Decimal.IsPositive() {
			pct = variance.Mul(hundred).DivRound(std.Decimal, 4)
		}
		out = append(out, VarianceAnalysis{
			ID:                 uuid.New(),
			OrderID:            order.ID,
			Category:           c,
			StandardCost:       std.Decimal,
			ActualCost:         actual,
			VarianceAmount:     variance,
			VariancePercentage: pct,
			CreatedAt:          now,
		})
	}
	return out
}
