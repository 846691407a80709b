package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/iwvelando/finance-insights/internal/records"
	"github.com/iwvelando/finance-insights/internal/timeseries"
	"github.com/iwvelando/finance-insights/pkg/mathutil"
)

// Trend is the direction of an entity's profit between two windows.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// RankingEntry is one entity's place in the profitability ranking.
type RankingEntry struct {
	EntityID       string  `json:"entityId"`
	Revenue        float64 `json:"revenue"`
	Expenses       float64 `json:"expenses"`
	Profit         float64 `json:"profit"`
	ProfitMargin   float64 `json:"profitMargin"`
	ROI            float64 `json:"roi"`
	RevenueShare   float64 `json:"revenueShare"`
	ProfitShare    float64 `json:"profitShare"`
	PreviousProfit float64 `json:"previousProfit"`
	ChangePercent  float64 `json:"changePercent"`
	Rank           int     `json:"rank"`
	Trend          Trend   `json:"trend"`
}

// ROI returns profit/expenses*100, or 0 when there are no expenses.
func ROI(profit, expenses float64) float64 {
	return mathutil.CalculatePercentage(profit, expenses)
}

// ClassifyTrend compares current to previous profit. Relative changes inside
// +/- bandPct are stable. With no previous profit the sign of the current
// profit decides.
func ClassifyTrend(current, previous, bandPct float64) (Trend, float64) {
	if previous == 0 {
		switch {
		case current > 0:
			return TrendUp, 0
		case current < 0:
			return TrendDown, 0
		default:
			return TrendStable, 0
		}
	}
	change := (current - previous) / math.Abs(previous) * 100
	switch {
	case change > bandPct:
		return TrendUp, change
	case change < -bandPct:
		return TrendDown, change
	default:
		return TrendStable, change
	}
}

// Rank ranks the services active in [start, end) by profit. The previous
// window has the same length and ends at start. Ranks are dense 1..N by
// profit descending with ties broken by entity id ascending.
func Rank(recs []records.MonetaryRecord, start, end time.Time, bandPct float64) ([]RankingEntry, error) {
	if !start.Before(end) {
		return nil, &timeseries.InvalidRangeError{Start: start, End: end}
	}
	prevStart := start.Add(-end.Sub(start))

	current := groupByService(records.Between(recs, start, end))
	previous := groupByService(records.Between(recs, prevStart, start))

	var sum totals
	for _, t := range current {
		sum.revenue = sum.revenue.Add(t.revenue)
		sum.expenses = sum.expenses.Add(t.expenses)
	}
	totalRevenue := sum.revenue.InexactFloat64()
	totalProfit := sum.profit().InexactFloat64()

	entries := make([]RankingEntry, 0, len(current))
	for _, id := range sortedKeys(current) {
		t := current[id]
		revenue := t.revenue.InexactFloat64()
		expenses := t.expenses.InexactFloat64()
		profit := t.profit().InexactFloat64()
		prevProfit := previous[id].profit().InexactFloat64()
		trend, change := ClassifyTrend(profit, prevProfit, bandPct)

		entries = append(entries, RankingEntry{
			EntityID:       id,
			Revenue:        revenue,
			Expenses:       expenses,
			Profit:         profit,
			ProfitMargin:   mathutil.Round(ProfitMargin(revenue, expenses)),
			ROI:            mathutil.Round(ROI(profit, expenses)),
			RevenueShare:   mathutil.Round(mathutil.CalculatePercentage(revenue, totalRevenue)),
			ProfitShare:    mathutil.Round(mathutil.CalculatePercentage(profit, totalProfit)),
			PreviousProfit: prevProfit,
			ChangePercent:  mathutil.Round(change),
			Trend:          trend,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Profit != entries[j].Profit {
			return entries[i].Profit > entries[j].Profit
		}
		return entries[i].EntityID < entries[j].EntityID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
