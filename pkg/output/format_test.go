package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/iwvelando/finance-insights/internal/analytics"
	"github.com/iwvelando/finance-insights/internal/records"
	"github.com/iwvelando/finance-insights/pkg/testutil"
)

func sampleReport(t *testing.T) *analytics.Report {
	t.Helper()
	var recs []records.MonetaryRecord
	for m := 1; m <= 12; m++ {
		month := fmt.Sprintf("2025-%02d", m)
		supplies := "250"
		if m == 12 {
			supplies = "2500"
		}
		recs = append(recs,
			testutil.Revenue("cafe", "1000", month+"-10"),
			testutil.Expense("cafe", "supplies", supplies, month+"-15"),
		)
	}
	report, err := analytics.NewEngine(nil, analytics.DefaultPolicy()).Report(analytics.Request{Records: recs})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	return report
}

func TestPrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := PrettyFormat(&buf, sampleReport(t)); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	output := buf.String()

	expected := []string{
		"=== Financial report 2025-01-10 to 2025-12-16 (month, 24 records) ===",
		"Revenue $12,000.00 | Expenses $5,250.00 | Profit $6,750.00 | Margin 56.",
		"--- Profitability by service ---",
		"cafe | $12,000.00 | $5,250.00 | $6,750.00 | 56.",
		"2025-12 | $1,000.00 | $2,500.00 | -$1,500.00 |",
		"--- Anomalies ---",
		"2025-12-15 | expense/supplies | $2,500.00 | expected $250.00 | +900.0% | high",
		"--- Forecast (revenue, sma) ---",
		"2026-01 | $1,000.00 | $1,000.00 | $1,000.00",
		"Conservative (-5.0%/+5.0%, 12 months)",
	}
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("PrettyFormat() output missing %q\n%s", want, output)
		}
	}
}

func TestCsvFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, sampleReport(t)); err != nil {
		t.Fatalf("CsvFormat() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("CsvFormat() produced unreadable CSV: %v", err)
	}
	if strings.Join(rows[0], ",") != "section,period,entity,metric,value" {
		t.Fatalf("CsvFormat() header = %v", rows[0])
	}

	find := func(section, period, entity, metric string) string {
		for _, row := range rows[1:] {
			if row[0] == section && row[1] == period && row[2] == entity && row[3] == metric {
				return row[4]
			}
		}
		return ""
	}

	tests := []struct {
		section, period, entity, metric, value string
	}{
		{"totals", "", "", "revenue", "12000"},
		{"totals", "", "", "profitMargin", "56.25"},
		{"cashflow", "2025-12", "", "net", "-1500"},
		{"anomaly", "2025-12-15", "expense/supplies", "deviationPercent", "900"},
		{"forecast", "2026-06", "revenue", "forecast", "1000"},
		{"scenario", "", "Aggressive", "revenue", "14400"},
	}
	for _, tt := range tests {
		if got := find(tt.section, tt.period, tt.entity, tt.metric); got != tt.value {
			t.Errorf("CsvFormat() %s/%s/%s/%s = %q, expected %q", tt.section, tt.period, tt.entity, tt.metric, got, tt.value)
		}
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := JSONFormat(&buf, sampleReport(t)); err != nil {
		t.Fatalf("JSONFormat() error = %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("JSONFormat() produced invalid JSON: %v", err)
	}
	for _, key := range []string{"totals", "profitMargins", "cashFlow", "ranking", "trends", "anomalies", "forecast", "baseline", "scenarios"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("JSONFormat() output missing key %q", key)
		}
	}
}

func TestWrite(t *testing.T) {
	report := sampleReport(t)

	tests := []struct {
		format string
		prefix string
	}{
		{"pretty", "=== Financial report"},
		{"csv", "section,period"},
		{"json", "{"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if err := Write(&buf, tt.format, report); err != nil {
			t.Fatalf("Write(%s) error = %v", tt.format, err)
		}
		if !strings.HasPrefix(buf.String(), tt.prefix) {
			t.Errorf("Write(%s) output starts %q, expected prefix %q", tt.format, buf.String()[:20], tt.prefix)
		}
	}

	if err := Write(&bytes.Buffer{}, "xml", report); err == nil {
		t.Error("Write(xml) expected error")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestPrettyFormatReportsWriteErrors(t *testing.T) {
	if err := PrettyFormat(failingWriter{}, sampleReport(t)); err == nil {
		t.Error("PrettyFormat() expected write error")
	}
}
