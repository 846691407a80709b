package aggregate

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/iwvelando/finance-insights/internal/records"
	"github.com/iwvelando/finance-insights/internal/timeseries"
	"github.com/iwvelando/finance-insights/pkg/datetime"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(kind records.Kind, service, amount, date string) records.MonetaryRecord {
	return records.MonetaryRecord{
		Amount:    decimal.RequireFromString(amount),
		Date:      datetime.MustParseTime(datetime.DayLayout, date),
		ServiceID: service,
		Kind:      kind,
	}
}

func TestProfitMargin(t *testing.T) {
	tests := []struct {
		name     string
		revenue  float64
		expenses float64
		expected float64
	}{
		{"Typical", 1000, 750, 25},
		{"Loss", 100, 150, -50},
		{"Zero revenue and expenses", 0, 0, 0},
		{"Zero revenue with expenses", 0, 80, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProfitMargin(tt.revenue, tt.expenses)
			assert.InDelta(t, tt.expected, got, 1e-9)
			assert.False(t, math.IsNaN(got) || math.IsInf(got, 0))
		})
	}
}

func TestProfitMarginsByService(t *testing.T) {
	recs := []records.MonetaryRecord{
		rec(records.Revenue, "salon", "400", "2026-01-02"),
		rec(records.Expense, "salon", "100", "2026-01-03"),
		rec(records.Revenue, "cafe", "200", "2026-01-02"),
		rec(records.Expense, "", "30", "2026-01-05"),
	}

	got := ProfitMargins(recs)
	require.Len(t, got, 3)

	assert.Equal(t, "cafe", got[0].ServiceID)
	assert.Equal(t, 100.0, got[0].ProfitMargin)
	assert.Equal(t, "salon", got[1].ServiceID)
	assert.Equal(t, 300.0, got[1].Profit)
	assert.Equal(t, 75.0, got[1].ProfitMargin)
	assert.Equal(t, "unassigned", got[2].ServiceID)
	assert.Equal(t, -30.0, got[2].Profit)
	assert.Equal(t, 0.0, got[2].ProfitMargin, "zero revenue reports 0% margin")
}

func TestCashFlow(t *testing.T) {
	recs := []records.MonetaryRecord{
		rec(records.Revenue, "a", "500", "2026-01-10"),
		rec(records.Expense, "a", "200", "2026-01-15"),
		rec(records.Expense, "a", "300", "2026-02-01"),
		rec(records.Revenue, "a", "900", "2026-03-20"),
		rec(records.Expense, "a", "100", "2026-03-21"),
	}

	summary, err := CashFlow(recs, datetime.Month,
		datetime.Date(2026, time.January, 1), datetime.Date(2026, time.April, 1))
	require.NoError(t, err)
	require.Len(t, summary.Periods, 3)

	assert.Equal(t, CashFlowPeriod{Period: "2026-01", Inflow: 500, Outflow: 200, Net: 300, Cumulative: 300}, summary.Periods[0])
	assert.Equal(t, CashFlowPeriod{Period: "2026-02", Inflow: 0, Outflow: 300, Net: -300, Cumulative: 0}, summary.Periods[1])
	assert.Equal(t, CashFlowPeriod{Period: "2026-03", Inflow: 900, Outflow: 100, Net: 800, Cumulative: 800}, summary.Periods[2])

	assert.Equal(t, 1400.0, summary.TotalInflow)
	assert.Equal(t, 600.0, summary.TotalOutflow)
	assert.Equal(t, 800.0, summary.NetCashFlow)
	assert.InDelta(t, 266.67, summary.AverageNet, 1e-9)
	assert.Equal(t, "2026-03", summary.BestPeriod)
	assert.Equal(t, "2026-02", summary.WorstPeriod)
}

func TestCashFlowAllZeroSeries(t *testing.T) {
	summary, err := CashFlow(nil, datetime.Month,
		datetime.Date(2026, time.January, 1), datetime.Date(2026, time.March, 1))
	require.NoError(t, err)
	assert.Len(t, summary.Periods, 2)
	assert.Equal(t, 0.0, summary.NetCashFlow)
	assert.Equal(t, "2026-01", summary.BestPeriod, "earliest period wins ties")
	assert.Equal(t, "2026-01", summary.WorstPeriod)
}

func TestCashFlowInvalidRange(t *testing.T) {
	day := datetime.Date(2026, time.January, 1)
	_, err := CashFlow(nil, datetime.Month, day, day)
	var rangeErr *timeseries.InvalidRangeError
	assert.True(t, errors.As(err, &rangeErr))
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		previous float64
		expected Trend
	}{
		{"Up beyond band", 110, 100, TrendUp},
		{"Inside band up", 104, 100, TrendStable},
		{"Exactly band", 105, 100, TrendStable},
		{"Down beyond band", 90, 100, TrendDown},
		{"Inside band down", 96, 100, TrendStable},
		{"Negative previous improving", -50, -100, TrendUp},
		{"No previous profit", 10, 0, TrendUp},
		{"No previous loss", -10, 0, TrendDown},
		{"Both zero", 0, 0, TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := ClassifyTrend(tt.current, tt.previous, 5)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRank(t *testing.T) {
	start := datetime.Date(2026, time.March, 1)
	end := datetime.Date(2026, time.April, 1)

	recs := []records.MonetaryRecord{
		// previous window
		rec(records.Revenue, "b", "100", "2026-02-10"),
		rec(records.Revenue, "c", "500", "2026-02-10"),
		// current window
		rec(records.Revenue, "a", "300", "2026-03-02"),
		rec(records.Expense, "a", "100", "2026-03-03"),
		rec(records.Revenue, "b", "200", "2026-03-04"),
		rec(records.Revenue, "c", "200", "2026-03-05"),
		rec(records.Revenue, "d", "50", "2026-03-05"),
		rec(records.Expense, "d", "0", "2026-03-06"),
		// after window, ignored
		rec(records.Revenue, "d", "10000", "2026-04-01"),
	}

	entries, err := Rank(recs, start, end, 5)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	ids := []string{entries[0].EntityID, entries[1].EntityID, entries[2].EntityID, entries[3].EntityID}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids, "equal profits rank by entity id")
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
	}

	a := entries[0]
	assert.Equal(t, 200.0, a.Profit)
	assert.InDelta(t, 66.67, a.ProfitMargin, 1e-9)
	assert.Equal(t, 200.0, a.ROI)
	assert.Equal(t, TrendUp, a.Trend)

	b := entries[1]
	assert.Equal(t, TrendUp, b.Trend)
	assert.Equal(t, 100.0, b.ChangePercent)
	assert.Equal(t, 0.0, b.ROI, "no expenses reports 0 ROI")

	c := entries[2]
	assert.Equal(t, TrendDown, c.Trend)
	assert.Equal(t, 500.0, c.PreviousProfit)

	assert.InDelta(t, 100, a.RevenueShare+b.RevenueShare+c.RevenueShare+entries[3].RevenueShare, 0.05)
}

func TestRankDeterministic(t *testing.T) {
	recs := []records.MonetaryRecord{
		rec(records.Revenue, "z", "10", "2026-01-02"),
		rec(records.Revenue, "y", "10", "2026-01-02"),
		rec(records.Revenue, "x", "10", "2026-01-02"),
	}
	start, end := datetime.Date(2026, 1, 1), datetime.Date(2026, 2, 1)

	first, err := Rank(recs, start, end, 5)
	require.NoError(t, err)
	second, err := Rank(recs, start, end, 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "x", first[0].EntityID)
	assert.Equal(t, "z", first[2].EntityID)
}

func TestRankSharesAreStableAcrossRuns(t *testing.T) {
	var recs []records.MonetaryRecord
	for i := 0; i < 40; i++ {
		service := fmt.Sprintf("svc-%02d", i)
		recs = append(recs,
			rec(records.Revenue, service, fmt.Sprintf("%d.%02d", i+1, (i*37)%100), "2026-01-02"),
			rec(records.Expense, service, fmt.Sprintf("0.%02d", (i*53)%100), "2026-01-03"),
		)
	}
	start, end := datetime.Date(2026, 1, 1), datetime.Date(2026, 2, 1)

	first, err := Rank(recs, start, end, 5)
	require.NoError(t, err)
	for run := 0; run < 25; run++ {
		again, err := Rank(recs, start, end, 5)
		require.NoError(t, err)
		require.Equal(t, first, again, "run %d", run)
	}
}

func TestRankSharesUseExactTotals(t *testing.T) {
	recs := []records.MonetaryRecord{
		rec(records.Revenue, "a", "0.1", "2026-01-02"),
		rec(records.Revenue, "b", "0.2", "2026-01-02"),
		rec(records.Revenue, "c", "0.3", "2026-01-02"),
	}
	entries, err := Rank(recs, datetime.Date(2026, 1, 1), datetime.Date(2026, 2, 1), 5)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "c", entries[0].EntityID)
	assert.Equal(t, 50.0, entries[0].RevenueShare)
	assert.Equal(t, 50.0, entries[0].ProfitShare)
}

func TestRankZeroTotals(t *testing.T) {
	recs := []records.MonetaryRecord{
		rec(records.Revenue, "a", "0", "2026-01-02"),
		rec(records.Expense, "a", "0", "2026-01-02"),
	}
	entries, err := Rank(recs, datetime.Date(2026, 1, 1), datetime.Date(2026, 2, 1), 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	for _, v := range []float64{e.ProfitMargin, e.ROI, e.RevenueShare, e.ProfitShare, e.ChangePercent} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		assert.Equal(t, 0.0, v)
	}
	assert.Equal(t, TrendStable, e.Trend)
}

func TestRankInvalidRange(t *testing.T) {
	day := datetime.Date(2026, 1, 1)
	_, err := Rank(nil, day, day, 5)
	var rangeErr *timeseries.InvalidRangeError
	assert.True(t, errors.As(err, &rangeErr))
}
