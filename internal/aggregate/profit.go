// Package aggregate computes descriptive profit, cash-flow and ranking
// statistics over monetary records.
package aggregate

import (
	"sort"

	"github.com/iwvelando/finance-insights/internal/records"
	"github.com/iwvelando/finance-insights/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// ServiceProfit is the profit summary of one service.
type ServiceProfit struct {
	ServiceID    string  `json:"serviceId"`
	Revenue      float64 `json:"revenue"`
	Expenses     float64 `json:"expenses"`
	Profit       float64 `json:"profit"`
	ProfitMargin float64 `json:"profitMargin"`
}

type totals struct {
	revenue  decimal.Decimal
	expenses decimal.Decimal
}

func (t totals) profit() decimal.Decimal {
	return t.revenue.Sub(t.expenses)
}

// ProfitMargin returns profit/revenue*100, or 0 when revenue is not positive.
func ProfitMargin(revenue, expenses float64) float64 {
	if revenue <= 0 {
		return 0
	}
	return mathutil.CalculatePercentage(revenue-expenses, revenue)
}

// ProfitMargins groups records by service and reports each service's profit
// and margin, ordered by service id.
func ProfitMargins(recs []records.MonetaryRecord) []ServiceProfit {
	byService := groupByService(recs)

	out := make([]ServiceProfit, 0, len(byService))
	for _, id := range sortedKeys(byService) {
		t := byService[id]
		revenue := t.revenue.InexactFloat64()
		expenses := t.expenses.InexactFloat64()
		out = append(out, ServiceProfit{
			ServiceID:    id,
			Revenue:      revenue,
			Expenses:     expenses,
			Profit:       t.profit().InexactFloat64(),
			ProfitMargin: mathutil.Round(ProfitMargin(revenue, expenses)),
		})
	}
	return out
}

func groupByService(recs []records.MonetaryRecord) map[string]totals {
	byService := make(map[string]totals)
	for _, r := range recs {
		t := byService[r.Service()]
		switch r.Kind {
		case records.Revenue:
			t.revenue = t.revenue.Add(r.Amount)
		case records.Expense:
			t.expenses = t.expenses.Add(r.Amount)
		}
		byService[r.Service()] = t
	}
	return byService
}

func sortedKeys(m map[string]totals) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
