package persistence

import (
	"strings"

	"github.com/erp/manufacturing/internal/domain/shared"
	"gorm.io/gorm/clause"
)

// sortColumns maps the sort keys a listing accepts to table columns
type sortColumns map[string]string

var costingTransactionSort = sortColumns{
	"created_at":     "created_at",
	"type":           "type",
	"quantity":       "quantity",
	"total_cost":     "total_cost",
	"reference_type": "reference_type",
	"lot_number":     "lot_number",
}

// orderBy resolves the filter's ordering. Unknown keys fall back to def and
// anything but "asc" sorts descending. The primary key follows in the same
// direction so pages stay stable between requests.
func (s sortColumns) orderBy(filter shared.Filter, def string) clause.OrderBy {
	column, ok := s[strings.TrimSpace(filter.OrderBy)]
	if !ok {
		column = s[def]
	}
	desc := !strings.EqualFold(strings.TrimSpace(filter.OrderDir), "asc")
	return clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: column}, Desc: desc},
		{Column: clause.Column{Name: "id"}, Desc: desc},
	}}
}
