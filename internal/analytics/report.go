package analytics

import (
	"github.com/iwvelando/finance-insights/internal/aggregate"
	"github.com/iwvelando/finance-insights/internal/anomaly"
	"github.com/iwvelando/finance-insights/internal/forecast"
	"github.com/iwvelando/finance-insights/internal/records"
	"github.com/iwvelando/finance-insights/internal/scenario"
	"github.com/iwvelando/finance-insights/internal/trend"
	"github.com/iwvelando/finance-insights/pkg/datetime"
	"github.com/iwvelando/finance-insights/pkg/mathutil"
	"go.uber.org/zap"
)

// Report holds every analytic result for one request. Percentages are 0-100
// floats; seasonal indices are ratios around 1.
type Report struct {
	Period         datetime.Granularity      `json:"period"`
	Start          string                    `json:"start"`
	End            string                    `json:"end"`
	Kind           records.Kind              `json:"kind"`
	RecordCount    int                       `json:"recordCount"`
	Totals         Totals                    `json:"totals"`
	ProfitMargins  []aggregate.ServiceProfit `json:"profitMargins"`
	CashFlow       aggregate.CashFlowSummary `json:"cashFlow"`
	Ranking        []aggregate.RankingEntry  `json:"ranking"`
	Trends         trend.Report              `json:"trends"`
	Anomalies      []anomaly.Anomaly         `json:"anomalies"`
	AnomalySummary anomaly.Summary           `json:"anomalySummary"`
	Forecast       *forecast.Result          `json:"forecast"`
	Baseline       scenario.Baseline         `json:"baseline"`
	Scenarios      []scenario.Scenario       `json:"scenarios"`
}

// Totals are the revenue and expense totals of the records in range.
type Totals struct {
	Revenue      float64 `json:"revenue"`
	Expenses     float64 `json:"expenses"`
	Profit       float64 `json:"profit"`
	ProfitMargin float64 `json:"profitMargin"`
}

// Report runs every component. The first error stops the report, including
// forecast errors such as insufficient history.
func (e *Engine) Report(req Request) (*Report, error) {
	r, err := e.resolve(req)
	if err != nil {
		return nil, err
	}
	req = r.Request
	inRange := records.Between(req.Records, req.Start, req.End)

	report := &Report{
		Period:      req.Period,
		Start:       req.Start.Format(datetime.DayLayout),
		End:         req.End.Format(datetime.DayLayout),
		Kind:        req.Kind,
		RecordCount: len(inRange),
	}

	revenue, expenses := records.Totals(inRange)
	rev, exp := revenue.InexactFloat64(), expenses.InexactFloat64()
	report.Totals = Totals{
		Revenue:      rev,
		Expenses:     exp,
		Profit:       revenue.Sub(expenses).InexactFloat64(),
		ProfitMargin: mathutil.Round(aggregate.ProfitMargin(rev, exp)),
	}

	if report.ProfitMargins, err = e.ProfitMargins(req); err != nil {
		return nil, err
	}
	if report.CashFlow, err = e.CashFlow(req); err != nil {
		return nil, err
	}
	if report.Ranking, err = e.Ranking(req); err != nil {
		return nil, err
	}
	if report.Trends, err = e.Trends(req); err != nil {
		return nil, err
	}
	if report.Anomalies, err = e.Anomalies(req); err != nil {
		return nil, err
	}
	report.AnomalySummary = anomaly.Summarize(report.Anomalies)
	if report.Forecast, err = e.Forecast(req); err != nil {
		return nil, err
	}
	if report.Baseline, report.Scenarios, err = e.Scenarios(req); err != nil {
		return nil, err
	}

	e.logger.Info("report generated",
		zap.String("op", "analytics.Report"),
		zap.String("period", string(req.Period)),
		zap.String("start", report.Start),
		zap.String("end", report.End),
		zap.Int("records", report.RecordCount),
		zap.Int("anomalies", report.AnomalySummary.Total),
	)
	return report, nil
}
