package integration

import (
	"fmt"
	"testing"
	"time"

	"github.com/iwvelando/finance-insights/internal/analytics"
	"github.com/iwvelando/finance-insights/internal/records"
	"github.com/iwvelando/finance-insights/pkg/datetime"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// syntheticRecords builds three years of daily revenue and weekly expenses
// for the given number of services.
func syntheticRecords(services int) []records.MonetaryRecord {
	start := datetime.Date(2023, time.January, 1)
	var recs []records.MonetaryRecord
	for s := 0; s < services; s++ {
		service := fmt.Sprintf("svc-%02d", s)
		for d := 0; d < 3*365; d++ {
			date := start.AddDate(0, 0, d)
			recs = append(recs, records.MonetaryRecord{
				Amount:    decimal.NewFromInt(int64(100 + (d%7)*10 + s)),
				Date:      date,
				ServiceID: service,
				Category:  "sales",
				Kind:      records.Revenue,
			})
			if d%7 == 0 {
				recs = append(recs, records.MonetaryRecord{
					Amount:    decimal.NewFromInt(int64(400 + (d/7)%5*20)),
					Date:      date,
					ServiceID: service,
					Category:  "payroll",
					Kind:      records.Expense,
				})
			}
		}
	}
	return recs
}

func TestPerformance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping performance test in short mode")
	}

	recs := syntheticRecords(20)
	engine := analytics.NewEngine(zap.NewNop(), analytics.DefaultPolicy())

	tests := []struct {
		period datetime.Granularity
		limit  time.Duration
	}{
		{datetime.Month, 5 * time.Second},
		{datetime.Week, 5 * time.Second},
		{datetime.Day, 10 * time.Second},
	}

	for _, tt := range tests {
		start := time.Now()
		report, err := engine.Report(analytics.Request{Records: recs, Period: tt.period, Method: "auto", HorizonMonths: 3})
		elapsed := time.Since(start)
		if err != nil {
			t.Fatalf("%s report failed: %v", tt.period, err)
		}
		if report.RecordCount != len(recs) {
			t.Errorf("%s report counted %d records, expected %d", tt.period, report.RecordCount, len(recs))
		}
		if elapsed > tt.limit {
			t.Errorf("%s report took %v, expected under %v", tt.period, elapsed, tt.limit)
		}
		t.Logf("%s report over %d records: %v", tt.period, len(recs), elapsed)
	}
}

func TestDeterminismAtScale(t *testing.T) {
	recs := syntheticRecords(5)
	engine := analytics.NewEngine(zap.NewNop(), analytics.DefaultPolicy())
	req := analytics.Request{Records: recs, Period: datetime.Week, Method: "auto"}

	first, err := engine.Report(req)
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	second, err := engine.Report(req)
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if first.Totals != second.Totals || first.Forecast.Method != second.Forecast.Method {
		t.Errorf("repeated reports differ: %+v vs %+v", first.Totals, second.Totals)
	}
	for i := range first.Forecast.Forecasts {
		if first.Forecast.Forecasts[i] != second.Forecast.Forecasts[i] {
			t.Errorf("forecast %d differs between runs", i)
		}
	}
}

func BenchmarkMonthlyReport(b *testing.B) {
	recs := syntheticRecords(10)
	engine := analytics.NewEngine(zap.NewNop(), analytics.DefaultPolicy())
	req := analytics.Request{Records: recs, Method: "auto"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Report(req); err != nil {
			b.Fatal(err)
		}
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
