// Package datetime provides date and period utility functions.
package datetime

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/iwvelando/finance-insights/pkg/constants"
)

const (
	// DayLayout is the format of record dates and daily period labels.
	DayLayout = constants.DayLayout

	// MonthLayout is the format of monthly period labels.
	MonthLayout = constants.MonthLayout
)

// Granularity is the size of a period bucket.
type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
)

// ErrUnknownGranularity is returned when a period name cannot be parsed.
var ErrUnknownGranularity = errors.New("unknown period granularity")

// ParseGranularity accepts day/daily, week/weekly and month/monthly in any case.
// An empty string selects monthly buckets.
func ParseGranularity(value string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "month", "monthly":
		return Month, nil
	case "week", "weekly":
		return Week, nil
	case "day", "daily":
		return Day, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, value)
	}
}

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// Date returns midnight UTC of the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// TruncateDay drops the time of day, keeping the calendar date in UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// Truncate returns the start of the period containing t. Weeks start on
// Monday, matching ISO 8601.
func Truncate(t time.Time, g Granularity) time.Time {
	day := TruncateDay(t)
	switch g {
	case Day:
		return day
	case Week:
		offset := (int(day.Weekday()) + 6) % constants.DaysPerWeek
		return day.AddDate(0, 0, -offset)
	default:
		return Date(day.Year(), day.Month(), 1)
	}
}

// Offset moves a period start by n periods.
func Offset(start time.Time, g Granularity, n int) time.Time {
	switch g {
	case Day:
		return start.AddDate(0, 0, n)
	case Week:
		return start.AddDate(0, 0, n*constants.DaysPerWeek)
	default:
		return start.AddDate(0, n, 0)
	}
}

// Label formats the period containing t.
func Label(t time.Time, g Granularity) string {
	switch g {
	case Day:
		return t.Format(DayLayout)
	case Week:
		year, week := t.ISOWeek()
		return fmt.Sprintf(constants.WeekLabelFormat, year, week)
	default:
		return t.Format(MonthLayout)
	}
}

// Quarter returns the calendar quarter (1-4) of t.
func Quarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// MonthsBetween counts the calendar months from the month of start through the
// month of end, inclusive. It returns 0 when end is before start.
func MonthsBetween(start, end time.Time) int {
	months := (end.Year()-start.Year())*constants.MonthsPerYear + int(end.Month()) - int(start.Month()) + 1
	if months < 0 {
		return 0
	}
	return months
}

// PeriodsInMonths converts a horizon in months to whole periods of g,
// rounding up.
func PeriodsInMonths(g Granularity, months int) int {
	if months <= 0 {
		return 0
	}
	switch g {
	case Day:
		return int(math.Ceil(float64(months) * constants.DaysPerYear / constants.MonthsPerYear))
	case Week:
		return int(math.Ceil(float64(months) * constants.WeeksPerYear / constants.MonthsPerYear))
	default:
		return months
	}
}
