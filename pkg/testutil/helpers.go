// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/finance-insights/internal/records"
	"github.com/iwvelando/finance-insights/internal/scenario"
	"github.com/iwvelando/finance-insights/pkg/datetime"
	"github.com/shopspring/decimal"
)

// Record builds a record from a decimal amount string and a 2006-01-02 date.
// It panics on malformed input, which only ever comes from test literals.
func Record(kind records.Kind, service, category, amount, date string) records.MonetaryRecord {
	return records.MonetaryRecord{
		Amount:    decimal.RequireFromString(amount),
		Date:      datetime.MustParseTime(datetime.DayLayout, date),
		ServiceID: service,
		Category:  category,
		Kind:      kind,
	}
}

// Revenue builds a revenue record for service.
func Revenue(service, amount, date string) records.MonetaryRecord {
	return Record(records.Revenue, service, "sales", amount, date)
}

// Expense builds an expense record for service in category.
func Expense(service, category, amount, date string) records.MonetaryRecord {
	return Record(records.Expense, service, category, amount, date)
}

// FindScenario finds a scenario by name in the results slice.
// Returns a pointer to the scenario if found, nil otherwise.
func FindScenario(results []scenario.Scenario, name string) *scenario.Scenario {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}
