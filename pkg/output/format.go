// Package output provides utilities for formatting and displaying analytics reports.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/finance-insights/internal/analytics"
	"github.com/iwvelando/finance-insights/pkg/constants"
	"github.com/iwvelando/finance-insights/pkg/format"
	"github.com/iwvelando/finance-insights/pkg/validation"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Write renders report to w in the named output format.
func Write(w io.Writer, outputFormat string, report *analytics.Report) error {
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}
	switch outputFormat {
	case constants.OutputFormatCSV:
		return CsvFormat(w, report)
	case constants.OutputFormatJSON:
		return JSONFormat(w, report)
	default:
		return PrettyFormat(w, report)
	}
}

// PrettyFormat outputs a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, report *analytics.Report) error {
	pw := &prettyWriter{w: w, p: message.NewPrinter(language.English)}

	pw.printf("=== Financial report %s to %s (%s, %d records) ===\n",
		report.Start, report.End, report.Period, report.RecordCount)
	pw.printf("Revenue %s | Expenses %s | Profit %s | Margin %s\n",
		format.Currency(report.Totals.Revenue), format.Currency(report.Totals.Expenses),
		format.Currency(report.Totals.Profit), format.Percent(report.Totals.ProfitMargin, false))

	pw.section("Profitability by service")
	pw.printf("Service | Revenue | Expenses | Profit | Margin\n")
	for _, s := range report.ProfitMargins {
		pw.printf("%s | %s | %s | %s | %s\n", s.ServiceID,
			format.Currency(s.Revenue), format.Currency(s.Expenses),
			format.Currency(s.Profit), format.Percent(s.ProfitMargin, false))
	}

	pw.section("Cash flow")
	pw.printf("Period | Inflow | Outflow | Net | Cumulative\n")
	for _, c := range report.CashFlow.Periods {
		pw.printf("%s | %s | %s | %s | %s\n", c.Period,
			format.Currency(c.Inflow), format.Currency(c.Outflow),
			format.Currency(c.Net), format.Currency(c.Cumulative))
	}
	pw.printf("Average net %s, best %s, worst %s\n",
		format.Currency(report.CashFlow.AverageNet), report.CashFlow.BestPeriod, report.CashFlow.WorstPeriod)

	pw.section("Ranking")
	pw.printf("Rank | Service | Profit | ROI | Revenue share | Change | Trend\n")
	for _, r := range report.Ranking {
		pw.printf("%d | %s | %s | %s | %s | %s | %s\n", r.Rank, r.EntityID,
			format.Currency(r.Profit), format.Percent(r.ROI, false),
			format.Percent(r.RevenueShare, false), format.Percent(r.ChangePercent, true), r.Trend)
	}

	t := report.Trends
	pw.section(fmt.Sprintf("Trend (%s)", report.Kind))
	pw.printf("Direction %s, slope %s per period (%s of mean), R² %s, volatility %s\n",
		t.Trend.Direction, format.Currency(t.Trend.Slope), format.Percent(t.Trend.SlopePct, true),
		format.Ratio(t.Trend.RSquared), format.Percent(t.Volatility, false))
	if len(t.Seasonality.Indices) > 0 {
		pw.printf("Season | Average | Index\n")
		for _, idx := range t.Seasonality.Indices {
			pw.printf("%s | %s | %s\n", idx.Label, format.Currency(idx.Average), format.Ratio(idx.Index))
		}
		pw.printf("High season: %s\n", listOrNone(t.Seasonality.HighSeason))
		pw.printf("Low season: %s\n", listOrNone(t.Seasonality.LowSeason))
	}

	pw.section("Anomalies")
	if len(report.Anomalies) == 0 {
		pw.printf("None\n")
	}
	for _, a := range report.Anomalies {
		pw.printf("%s | %s | %s | expected %s | %s | %s\n", a.Date, a.Group,
			format.Currency(a.ActualAmount), format.Currency(a.ExpectedAmount),
			format.Percent(a.DeviationPercent, true), a.Severity)
	}

	if f := report.Forecast; f != nil {
		method := string(f.Method)
		if f.AutoSelected {
			method += " (auto)"
		}
		pw.section(fmt.Sprintf("Forecast (%s, %s)", report.Kind, method))
		pw.printf("Period | Forecast | Lower | Upper\n")
		for _, p := range f.Forecasts {
			pw.printf("%s | %s | %s | %s\n", p.Period,
				format.Currency(p.Forecast), format.Currency(p.LowerBound), format.Currency(p.UpperBound))
		}
		pw.printf("MAE %s | RMSE %s | MAPE %s\n",
			format.Currency(f.Accuracy.MAE), format.Currency(f.Accuracy.RMSE), format.Percent(f.Accuracy.MAPE, false))
	}

	pw.section("Scenarios")
	pw.printf("Baseline over %d months: revenue %s/month, expenses %s/month\n", report.Baseline.Months,
		format.Currency(report.Baseline.MonthlyRevenue), format.Currency(report.Baseline.MonthlyExpenses))
	pw.printf("Scenario | Revenue | Expenses | Profit | Margin\n")
	for _, s := range report.Scenarios {
		pw.printf("%s (%s/%s, %d months) | %s | %s | %s | %s\n", s.Name,
			format.Percent(s.RevenueGrowthPct, true), format.Percent(s.ExpenseGrowthPct, true), s.HorizonMonths,
			format.Currency(s.Projected.Revenue), format.Currency(s.Projected.Expenses),
			format.Currency(s.Projected.Profit), format.Percent(s.Projected.ProfitMargin, false))
	}

	return pw.err
}

// prettyWriter keeps the first write error so the report body reads linearly.
type prettyWriter struct {
	w   io.Writer
	p   *message.Printer
	err error
}

func (pw *prettyWriter) printf(layout string, args ...interface{}) {
	if pw.err != nil {
		return
	}
	_, pw.err = pw.p.Fprintf(pw.w, layout, args...)
}

func (pw *prettyWriter) section(title string) {
	pw.printf("\n--- %s ---\n", title)
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

// csvHeader is the long-format layout: one metric value per row.
var csvHeader = []string{"section", "period", "entity", "metric", "value"}

// CsvFormat outputs the report in long comma-separated value format.
func CsvFormat(w io.Writer, report *analytics.Report) error {
	cw := csv.NewWriter(w)
	rows := [][]string{csvHeader}
	add := func(section, period, entity, metric string, value float64) {
		rows = append(rows, []string{section, period, entity, metric, strconv.FormatFloat(value, 'f', -1, 64)})
	}

	add("totals", "", "", "revenue", report.Totals.Revenue)
	add("totals", "", "", "expenses", report.Totals.Expenses)
	add("totals", "", "", "profit", report.Totals.Profit)
	add("totals", "", "", "profitMargin", report.Totals.ProfitMargin)

	for _, s := range report.ProfitMargins {
		add("profitability", "", s.ServiceID, "revenue", s.Revenue)
		add("profitability", "", s.ServiceID, "expenses", s.Expenses)
		add("profitability", "", s.ServiceID, "profit", s.Profit)
		add("profitability", "", s.ServiceID, "profitMargin", s.ProfitMargin)
	}
	for _, c := range report.CashFlow.Periods {
		add("cashflow", c.Period, "", "inflow", c.Inflow)
		add("cashflow", c.Period, "", "outflow", c.Outflow)
		add("cashflow", c.Period, "", "net", c.Net)
		add("cashflow", c.Period, "", "cumulative", c.Cumulative)
	}
	for _, r := range report.Ranking {
		add("ranking", "", r.EntityID, "rank", float64(r.Rank))
		add("ranking", "", r.EntityID, "profit", r.Profit)
		add("ranking", "", r.EntityID, "roi", r.ROI)
		add("ranking", "", r.EntityID, "revenueShare", r.RevenueShare)
		add("ranking", "", r.EntityID, "changePercent", r.ChangePercent)
	}
	for _, v := range report.Trends.MovingAverage {
		add("trend", v.Period, string(report.Kind), "movingAverage", v.Value)
	}
	for _, idx := range report.Trends.Seasonality.Indices {
		add("seasonality", idx.Label, string(report.Kind), "index", idx.Index)
	}
	for _, a := range report.Anomalies {
		add("anomaly", a.Date, a.Group, "actual", a.ActualAmount)
		add("anomaly", a.Date, a.Group, "expected", a.ExpectedAmount)
		add("anomaly", a.Date, a.Group, "deviationPercent", a.DeviationPercent)
	}
	if report.Forecast != nil {
		for _, p := range report.Forecast.Forecasts {
			add("forecast", p.Period, string(report.Kind), "forecast", p.Forecast)
			add("forecast", p.Period, string(report.Kind), "lowerBound", p.LowerBound)
			add("forecast", p.Period, string(report.Kind), "upperBound", p.UpperBound)
		}
	}
	for _, s := range report.Scenarios {
		add("scenario", "", s.Name, "revenue", s.Projected.Revenue)
		add("scenario", "", s.Name, "expenses", s.Projected.Expenses)
		add("scenario", "", s.Name, "profit", s.Projected.Profit)
		add("scenario", "", s.Name, "profitMargin", s.Projected.ProfitMargin)
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// JSONFormat outputs the report as indented JSON.
func JSONFormat(w io.Writer, report *analytics.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}
