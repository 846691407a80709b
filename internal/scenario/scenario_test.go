package scenario

import (
	"testing"
	"time"

	"github.com/iwvelando/finance-insights/internal/records"
	"github.com/iwvelando/finance-insights/pkg/datetime"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(kind records.Kind, amount int64, month time.Month, day int) records.MonetaryRecord {
	return records.MonetaryRecord{
		Amount: decimal.NewFromInt(amount),
		Date:   datetime.Date(2026, month, day),
		Kind:   kind,
	}
}

func TestComputeBaseline(t *testing.T) {
	recs := []records.MonetaryRecord{
		record(records.Revenue, 1000, time.January, 5),
		record(records.Revenue, 2000, time.March, 20),
		record(records.Expense, 600, time.January, 10),
		record(records.Expense, 300, time.February, 1),
	}

	b, err := ComputeBaseline(recs)
	require.NoError(t, err)

	// February has no revenue but still counts as a month.
	assert.Equal(t, Baseline{
		Months:          3,
		MonthlyRevenue:  1000,
		MonthlyExpenses: 300,
		MonthlyProfit:   700,
	}, b)
}

func TestComputeBaselineEmpty(t *testing.T) {
	b, err := ComputeBaseline(nil)
	require.NoError(t, err)
	assert.Equal(t, Baseline{}, b)
}

func TestProject(t *testing.T) {
	b := Baseline{Months: 6, MonthlyRevenue: 1000, MonthlyExpenses: 800, MonthlyProfit: 200}

	tests := []struct {
		name     string
		input    Input
		horizon  int
		expected Projection
	}{
		{
			name:     "Flat year",
			input:    Input{Name: "flat"},
			horizon:  0,
			expected: Projection{Revenue: 12000, Expenses: 9600, Profit: 2400, ProfitMargin: 20},
		},
		{
			name:     "Growth over six months",
			input:    Input{Name: "growth", RevenueGrowthPct: 10, ExpenseGrowthPct: 5},
			horizon:  6,
			expected: Projection{Revenue: 6600, Expenses: 5040, Profit: 1560, ProfitMargin: 23.64},
		},
		{
			name:     "Revenue wiped out",
			input:    Input{Name: "shutdown", RevenueGrowthPct: -100},
			horizon:  12,
			expected: Projection{Revenue: 0, Expenses: 9600, Profit: -9600, ProfitMargin: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Project(b, tt.input, tt.horizon)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.Projected)
			assert.Equal(t, tt.input.Name, got.Name)
		})
	}
}

func TestProjectRejectsInvalidInput(t *testing.T) {
	b := Baseline{MonthlyRevenue: 100}

	_, err := Project(b, Input{Name: "bad", RevenueGrowthPct: -150}, 12)
	assert.Error(t, err)

	_, err = Project(b, Input{Name: "long"}, 500)
	assert.Error(t, err)
}

func TestCompareOrdersPresetsFirst(t *testing.T) {
	b := Baseline{MonthlyRevenue: 1000, MonthlyExpenses: 500}

	got, err := Compare(b, []Input{{Name: "Expansion", RevenueGrowthPct: 50, ExpenseGrowthPct: 40}, {RevenueGrowthPct: 1}}, 12)
	require.NoError(t, err)

	require.Len(t, got, 5)
	names := make([]string, len(got))
	for i, s := range got {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"Conservative", "Baseline", "Aggressive", "Expansion", "Custom 2"}, names)

	assert.Equal(t, 11400.0, got[0].Projected.Revenue)
	assert.Equal(t, 6300.0, got[0].Projected.Expenses)
	assert.Equal(t, 12000.0, got[1].Projected.Revenue)
	assert.Equal(t, 14400.0, got[2].Projected.Revenue)
	assert.Equal(t, 6600.0, got[2].Projected.Expenses)
}

func TestComputeBaselineCountsCalendarMonthsAcrossYears(t *testing.T) {
	recs := []records.MonetaryRecord{
		{Amount: decimal.NewFromInt(900), Date: datetime.Date(2025, time.December, 31), Kind: records.Revenue},
		{Amount: decimal.NewFromInt(300), Date: datetime.Date(2026, time.February, 1), Kind: records.Expense},
	}

	b, err := ComputeBaseline(recs)
	require.NoError(t, err)

	assert.Equal(t, 3, b.Months)
	assert.Equal(t, 300.0, b.MonthlyRevenue)
	assert.Equal(t, 100.0, b.MonthlyExpenses)
	assert.Equal(t, 200.0, b.MonthlyProfit)
}
