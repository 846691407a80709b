// Package records defines the monetary records consumed by the analytics
// engine and the loaders that read them from files.
package records

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iwvelando/finance-insights/pkg/constants"
	"github.com/iwvelando/finance-insights/pkg/datetime"
	"github.com/shopspring/decimal"
)

// Kind distinguishes money coming in from money going out.
type Kind string

const (
	Revenue Kind = "revenue"
	Expense Kind = "expense"
)

// ParseKind accepts revenue/income and expense/cost in any case.
func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "revenue", "income":
		return Revenue, nil
	case "expense", "cost":
		return Expense, nil
	default:
		return "", fmt.Errorf("unknown record kind %q", value)
	}
}

// MonetaryRecord is a single dated revenue or expense entry.
type MonetaryRecord struct {
	ID          string          `json:"id,omitempty" yaml:"id,omitempty"`
	Amount      decimal.Decimal `json:"amount" yaml:"amount"`
	Date        time.Time       `json:"date" yaml:"date"`
	ServiceID   string          `json:"serviceId,omitempty" yaml:"serviceId,omitempty"`
	Category    string          `json:"category,omitempty" yaml:"category,omitempty"`
	Kind        Kind            `json:"kind" yaml:"kind"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
}

// Service returns the service id, or the unassigned bucket when empty.
func (r MonetaryRecord) Service() string {
	if r.ServiceID == "" {
		return constants.UnassignedService
	}
	return r.ServiceID
}

// Float returns the amount as a float64 for statistics.
func (r MonetaryRecord) Float() float64 {
	return r.Amount.InexactFloat64()
}

// Filter returns the records matching keep, preserving order.
func Filter(recs []MonetaryRecord, keep func(MonetaryRecord) bool) []MonetaryRecord {
	out := make([]MonetaryRecord, 0, len(recs))
	for _, r := range recs {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// OfKind returns the records of the given kind.
func OfKind(recs []MonetaryRecord, kind Kind) []MonetaryRecord {
	return Filter(recs, func(r MonetaryRecord) bool { return r.Kind == kind })
}

// Between returns the records whose calendar day lies within [start, end).
func Between(recs []MonetaryRecord, start, end time.Time) []MonetaryRecord {
	return Filter(recs, func(r MonetaryRecord) bool {
		day := datetime.TruncateDay(r.Date)
		return !day.Before(start) && day.Before(end)
	})
}

// Normalize returns a copy with every date moved to midnight UTC of its own
// calendar day, so records from any time zone bucket by the day they carry.
func Normalize(recs []MonetaryRecord) []MonetaryRecord {
	out := make([]MonetaryRecord, len(recs))
	for i, r := range recs {
		r.Date = datetime.TruncateDay(r.Date)
		out[i] = r
	}
	return out
}

// SortedByDate returns a chronologically ordered copy. Records on the same
// date keep their input order.
func SortedByDate(recs []MonetaryRecord) []MonetaryRecord {
	out := make([]MonetaryRecord, len(recs))
	copy(out, recs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// Totals sums revenue and expenses exactly.
func Totals(recs []MonetaryRecord) (revenue, expenses decimal.Decimal) {
	for _, r := range recs {
		switch r.Kind {
		case Revenue:
			revenue = revenue.Add(r.Amount)
		case Expense:
			expenses = expenses.Add(r.Amount)
		}
	}
	return revenue, expenses
}
