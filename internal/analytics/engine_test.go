package analytics

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/iwvelando/finance-insights/internal/aggregate"
	"github.com/iwvelando/finance-insights/internal/anomaly"
	"github.com/iwvelando/finance-insights/internal/forecast"
	"github.com/iwvelando/finance-insights/internal/records"
	"github.com/iwvelando/finance-insights/internal/scenario"
	"github.com/iwvelando/finance-insights/internal/timeseries"
	"github.com/iwvelando/finance-insights/internal/trend"
	"github.com/iwvelando/finance-insights/pkg/datetime"
	"github.com/iwvelando/finance-insights/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// yearOfRecords is twelve months of a cafe and a bakery in 2025. The cafe's
// December supplies bill is ten times its usual amount.
func yearOfRecords() []records.MonetaryRecord {
	var recs []records.MonetaryRecord
	for m := 1; m <= 12; m++ {
		month := fmt.Sprintf("2025-%02d", m)
		supplies := "250"
		if m == 12 {
			supplies = "2500"
		}
		recs = append(recs,
			testutil.Record(records.Revenue, "cafe", "coffee", "1000", month+"-10"),
			testutil.Expense("cafe", "supplies", supplies, month+"-15"),
			testutil.Record(records.Revenue, "bakery", "bread", "800", month+"-12"),
			testutil.Expense("bakery", "flour", "400", month+"-14"),
		)
	}
	return recs
}

func newTestEngine(t *testing.T) *Engine {
	return NewEngine(zaptest.NewLogger(t), DefaultPolicy())
}

func TestReport(t *testing.T) {
	report, err := newTestEngine(t).Report(Request{Records: yearOfRecords()})
	require.NoError(t, err)

	assert.Equal(t, datetime.Month, report.Period)
	assert.Equal(t, "2025-01-10", report.Start)
	assert.Equal(t, "2025-12-16", report.End)
	assert.Equal(t, 48, report.RecordCount)
	assert.Equal(t, Totals{Revenue: 21600, Expenses: 10050, Profit: 11550, ProfitMargin: 53.47}, report.Totals)

	require.Len(t, report.ProfitMargins, 2)
	assert.Equal(t, "bakery", report.ProfitMargins[0].ServiceID)
	assert.Equal(t, 50.0, report.ProfitMargins[0].ProfitMargin)
	assert.Equal(t, 56.25, report.ProfitMargins[1].ProfitMargin)

	require.Len(t, report.CashFlow.Periods, 12)
	assert.Equal(t, "2025-01", report.CashFlow.BestPeriod)
	assert.Equal(t, "2025-12", report.CashFlow.WorstPeriod)

	require.Len(t, report.Ranking, 2)
	assert.Equal(t, "cafe", report.Ranking[0].EntityID)
	assert.Equal(t, 1, report.Ranking[0].Rank)
	assert.Equal(t, aggregate.TrendUp, report.Ranking[0].Trend)

	assert.Equal(t, trend.Stable, report.Trends.Trend.Direction)

	require.Len(t, report.Anomalies, 1)
	assert.Equal(t, "2025-12-15", report.Anomalies[0].Date)
	assert.Equal(t, anomaly.High, report.Anomalies[0].Severity)
	assert.Equal(t, anomaly.Summary{Total: 1, High: 1}, report.AnomalySummary)

	require.NotNil(t, report.Forecast)
	assert.Equal(t, forecast.SMA, report.Forecast.Method)
	require.Len(t, report.Forecast.Forecasts, 6)
	assert.Equal(t, "2026-01", report.Forecast.Forecasts[0].Period)
	assert.Equal(t, 1800.0, report.Forecast.Forecasts[0].Forecast)

	assert.Equal(t, 12, report.Baseline.Months)
	assert.Equal(t, 1800.0, report.Baseline.MonthlyRevenue)
	require.Len(t, report.Scenarios, 3)
	assert.Equal(t, 12*1800.0, report.Scenarios[1].Projected.Revenue)
}

func TestPercentagesAreNotFractions(t *testing.T) {
	report, err := newTestEngine(t).Report(Request{Records: yearOfRecords()})
	require.NoError(t, err)

	// Margins, ROI and deviations are 0-100 percentages.
	assert.Greater(t, report.Totals.ProfitMargin, 1.0)
	assert.Equal(t, 56.25, report.ProfitMargins[1].ProfitMargin)
	assert.InDelta(t, 128.57, report.Ranking[0].ROI, 0.01)
	assert.InDelta(t, 55.56, report.Ranking[0].RevenueShare, 0.01)
	assert.Equal(t, 900.0, report.Anomalies[0].DeviationPercent)
	assert.Equal(t, 53.47, report.Scenarios[1].Projected.ProfitMargin)

	// Seasonal indices are ratios around 1.
	require.NotEmpty(t, report.Trends.Seasonality.Indices)
	for _, idx := range report.Trends.Seasonality.Indices {
		assert.InDelta(t, 1.0, idx.Index, 1e-9, idx.Label)
	}
}

func TestReportIsDeterministic(t *testing.T) {
	engine := newTestEngine(t)
	req := Request{Records: yearOfRecords(), Method: forecast.Auto, Period: datetime.Week}

	first, err := engine.Report(req)
	require.NoError(t, err)
	second, err := engine.Report(req)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRequestErrors(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Report(Request{})
	assert.ErrorIs(t, err, timeseries.ErrEmptyData)

	_, err = engine.CashFlow(Request{
		Records: yearOfRecords(),
		Start:   datetime.Date(2025, time.June, 1),
		End:     datetime.Date(2025, time.June, 1),
	})
	var invalid *timeseries.InvalidRangeError
	assert.True(t, errors.As(err, &invalid))

	_, err = engine.Trends(Request{Records: yearOfRecords(), Period: "hourly"})
	assert.ErrorIs(t, err, datetime.ErrUnknownGranularity)
}

func TestReportPropagatesForecastErrors(t *testing.T) {
	recs := []records.MonetaryRecord{
		testutil.Revenue("cafe", "100", "2025-01-05"),
		testutil.Expense("cafe", "rent", "50", "2025-03-05"),
	}

	_, err := newTestEngine(t).Report(Request{Records: recs, Method: forecast.Holt})

	var insufficient *forecast.InsufficientHistoryError
	require.True(t, errors.As(err, &insufficient), "got %v", err)
	assert.Equal(t, 1, insufficient.NonZero)
}

func TestForecastHorizonFollowsGranularity(t *testing.T) {
	engine := newTestEngine(t)

	weekly, err := engine.Forecast(Request{Records: yearOfRecords(), Period: datetime.Week, HorizonMonths: 1})
	require.NoError(t, err)
	assert.Len(t, weekly.Forecasts, 5)
	assert.Equal(t, datetime.Week, weekly.Granularity)

	expenses, err := engine.Forecast(Request{Records: yearOfRecords(), Kind: records.Expense, HorizonMonths: 2})
	require.NoError(t, err)
	assert.Len(t, expenses.Forecasts, 2)
	assert.Greater(t, expenses.ResidualStdDev, 0.0)
}

func TestAnomaliesUseHistoryBeforeRange(t *testing.T) {
	got, err := newTestEngine(t).Anomalies(Request{
		Records: yearOfRecords(),
		Start:   datetime.Date(2025, time.December, 1),
		End:     datetime.Date(2026, time.January, 1),
	})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "expense/supplies", got[0].Group)
}

func TestScenariosIncludeCustomInputs(t *testing.T) {
	baseline, scenarios, err := newTestEngine(t).Scenarios(Request{
		Records:        yearOfRecords(),
		ScenarioMonths: 6,
		Scenarios:      []scenario.Input{{Name: "Second shop", RevenueGrowthPct: 100, ExpenseGrowthPct: 100}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1800.0, baseline.MonthlyRevenue)
	require.Len(t, scenarios, 4)
	assert.Equal(t, "Second shop", scenarios[3].Name)
	assert.Equal(t, 6, scenarios[3].HorizonMonths)
	assert.Equal(t, 21600.0, scenarios[3].Projected.Revenue)
}

func TestNonUTCRecordsKeepTheirCalendarDay(t *testing.T) {
	eat := time.FixedZone("EAT", 3*3600)
	var recs []records.MonetaryRecord
	for i, amount := range []string{"100", "200", "300", "400"} {
		r := testutil.Record(records.Revenue, "cafe", "coffee", amount, "2026-01-01")
		r.Date = time.Date(2026, time.Month(i+1), 1, 0, 0, 0, 0, eat)
		recs = append(recs, r)
	}

	flow, err := newTestEngine(t).CashFlow(Request{Records: recs})
	require.NoError(t, err)

	var inflows []float64
	for _, p := range flow.Periods {
		inflows = append(inflows, p.Inflow)
	}
	assert.Equal(t, []float64{100, 200, 300, 400}, inflows)
	assert.Equal(t, "2026-01", flow.Periods[0].Period)
}
