// Package scenario projects revenue and expenses under growth assumptions
// applied to the average month of a record history.
package scenario

import (
	"fmt"

	"github.com/iwvelando/finance-insights/internal/aggregate"
	"github.com/iwvelando/finance-insights/internal/records"
	"github.com/iwvelando/finance-insights/internal/timeseries"
	"github.com/iwvelando/finance-insights/pkg/constants"
	"github.com/iwvelando/finance-insights/pkg/datetime"
	"github.com/iwvelando/finance-insights/pkg/mathutil"
	"github.com/iwvelando/finance-insights/pkg/validation"
	"github.com/shopspring/decimal"
)

// Baseline is the average month of the supplied history.
type Baseline struct {
	Months          int     `json:"months"`
	MonthlyRevenue  float64 `json:"monthlyRevenue"`
	MonthlyExpenses float64 `json:"monthlyExpenses"`
	MonthlyProfit   float64 `json:"monthlyProfit"`
}

// Input names a pair of growth deltas, in percent.
type Input struct {
	Name             string  `json:"name" yaml:"name" mapstructure:"name"`
	RevenueGrowthPct float64 `json:"revenueGrowthPct" yaml:"revenueGrowthPct" mapstructure:"revenueGrowthPct"`
	ExpenseGrowthPct float64 `json:"expenseGrowthPct" yaml:"expenseGrowthPct" mapstructure:"expenseGrowthPct"`
}

// Projection is the projected total over the scenario horizon.
type Projection struct {
	Revenue      float64 `json:"revenue"`
	Expenses     float64 `json:"expenses"`
	Profit       float64 `json:"profit"`
	ProfitMargin float64 `json:"profitMargin"`
}

// Scenario is one projected future.
type Scenario struct {
	Name             string     `json:"name"`
	RevenueGrowthPct float64    `json:"revenueGrowthPct"`
	ExpenseGrowthPct float64    `json:"expenseGrowthPct"`
	HorizonMonths    int        `json:"horizonMonths"`
	Projected        Projection `json:"projected"`
}

// Presets are the named scenarios every comparison starts with.
var Presets = []Input{
	{Name: "Conservative", RevenueGrowthPct: -5, ExpenseGrowthPct: 5},
	{Name: "Baseline", RevenueGrowthPct: 0, ExpenseGrowthPct: 0},
	{Name: "Aggressive", RevenueGrowthPct: 20, ExpenseGrowthPct: 10},
}

// ComputeBaseline averages revenue and expenses over every calendar month
// spanned by the records, counting months without records as 0.
func ComputeBaseline(recs []records.MonetaryRecord) (Baseline, error) {
	start, end, ok := timeseries.RangeOf(recs)
	if !ok {
		return Baseline{}, nil
	}
	// end is exclusive; the last record falls on the day before it.
	months := datetime.MonthsBetween(start, end.AddDate(0, 0, -1))
	if months <= 0 {
		return Baseline{}, &timeseries.InvalidRangeError{Start: start, End: end}
	}

	revenue, expenses := records.Totals(recs)
	n := decimal.NewFromInt(int64(months))
	monthlyRevenue := revenue.Div(n).InexactFloat64()
	monthlyExpenses := expenses.Div(n).InexactFloat64()
	return Baseline{
		Months:          months,
		MonthlyRevenue:  mathutil.Round(monthlyRevenue),
		MonthlyExpenses: mathutil.Round(monthlyExpenses),
		MonthlyProfit:   mathutil.Round(monthlyRevenue - monthlyExpenses),
	}, nil
}

// Project applies the growth deltas to the baseline month and multiplies by
// the horizon. A horizon of 0 selects twelve months.
func Project(b Baseline, in Input, horizonMonths int) (Scenario, error) {
	if horizonMonths == 0 {
		horizonMonths = constants.DefaultScenarioMonths
	}
	if err := validation.ValidateHorizon(horizonMonths); err != nil {
		return Scenario{}, err
	}
	if err := validation.ValidateGrowthPct("revenueGrowthPct", in.RevenueGrowthPct); err != nil {
		return Scenario{}, fmt.Errorf("scenario %q: %w", in.Name, err)
	}
	if err := validation.ValidateGrowthPct("expenseGrowthPct", in.ExpenseGrowthPct); err != nil {
		return Scenario{}, fmt.Errorf("scenario %q: %w", in.Name, err)
	}

	months := float64(horizonMonths)
	revenue := mathutil.Grow(b.MonthlyRevenue, in.RevenueGrowthPct) * months
	expenses := mathutil.Grow(b.MonthlyExpenses, in.ExpenseGrowthPct) * months
	return Scenario{
		Name:             in.Name,
		RevenueGrowthPct: in.RevenueGrowthPct,
		ExpenseGrowthPct: in.ExpenseGrowthPct,
		HorizonMonths:    horizonMonths,
		Projected: Projection{
			Revenue:      mathutil.Round(revenue),
			Expenses:     mathutil.Round(expenses),
			Profit:       mathutil.Round(revenue - expenses),
			ProfitMargin: mathutil.Round(aggregate.ProfitMargin(revenue, expenses)),
		},
	}, nil
}

// Compare projects the presets followed by the custom inputs in the order
// given.
func Compare(b Baseline, custom []Input, horizonMonths int) ([]Scenario, error) {
	inputs := make([]Input, 0, len(Presets)+len(custom))
	inputs = append(inputs, Presets...)
	inputs = append(inputs, custom...)

	out := make([]Scenario, 0, len(inputs))
	for i, in := range inputs {
		if in.Name == "" {
			in.Name = fmt.Sprintf("Custom %d", i-len(Presets)+1)
		}
		s, err := Project(b, in, horizonMonths)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
