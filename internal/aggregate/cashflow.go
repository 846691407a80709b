package aggregate

import (
	"time"

	"github.com/iwvelando/finance-insights/internal/records"
	"github.com/iwvelando/finance-insights/internal/timeseries"
	"github.com/iwvelando/finance-insights/pkg/datetime"
	"github.com/iwvelando/finance-insights/pkg/mathutil"
)

// CashFlowPeriod is the flow of money in one period.
type CashFlowPeriod struct {
	Period     string  `json:"period"`
	Inflow     float64 `json:"inflow"`
	Outflow    float64 `json:"outflow"`
	Net        float64 `json:"net"`
	Cumulative float64 `json:"cumulative"`
}

// CashFlowSummary reports per-period flows and their totals. BestPeriod and
// WorstPeriod are empty when there are no periods.
type CashFlowSummary struct {
	Granularity  datetime.Granularity `json:"granularity"`
	Periods      []CashFlowPeriod     `json:"periods"`
	TotalInflow  float64              `json:"totalInflow"`
	TotalOutflow float64              `json:"totalOutflow"`
	NetCashFlow  float64              `json:"netCashFlow"`
	AverageNet   float64              `json:"averageNet"`
	BestPeriod   string               `json:"bestPeriod,omitempty"`
	WorstPeriod  string               `json:"worstPeriod,omitempty"`
}

// CashFlow builds revenue and expense series over [start, end) and derives
// net and cumulative flows in chronological order. The earliest period wins
// ties for best and worst.
func CashFlow(recs []records.MonetaryRecord, g datetime.Granularity, start, end time.Time) (CashFlowSummary, error) {
	inflows, err := timeseries.Build(records.OfKind(recs, records.Revenue), g, start, end)
	if err != nil {
		return CashFlowSummary{}, err
	}
	outflows, err := timeseries.Build(records.OfKind(recs, records.Expense), g, start, end)
	if err != nil {
		return CashFlowSummary{}, err
	}

	summary := CashFlowSummary{
		Granularity: g,
		Periods:     make([]CashFlowPeriod, inflows.Len()),
	}

	cumulative := 0.0
	bestIdx, worstIdx := -1, -1
	var bestNet, worstNet float64
	for i, in := range inflows.Points {
		out := outflows.Points[i]
		net := in.Value - out.Value
		cumulative += net
		summary.Periods[i] = CashFlowPeriod{
			Period:     in.Period,
			Inflow:     mathutil.Round(in.Value),
			Outflow:    mathutil.Round(out.Value),
			Net:        mathutil.Round(net),
			Cumulative: mathutil.Round(cumulative),
		}
		summary.TotalInflow += in.Value
		summary.TotalOutflow += out.Value

		if bestIdx < 0 || net > bestNet {
			bestIdx, bestNet = i, net
		}
		if worstIdx < 0 || net < worstNet {
			worstIdx, worstNet = i, net
		}
	}

	summary.TotalInflow = mathutil.Round(summary.TotalInflow)
	summary.TotalOutflow = mathutil.Round(summary.TotalOutflow)
	summary.NetCashFlow = mathutil.Round(cumulative)
	summary.AverageNet = mathutil.Round(mathutil.SafeDivide(cumulative, float64(len(summary.Periods))))
	if bestIdx >= 0 {
		summary.BestPeriod = summary.Periods[bestIdx].Period
		summary.WorstPeriod = summary.Periods[worstIdx].Period
	}
	return summary, nil
}
