// Package timeseries groups monetary records into gap-filled period buckets.
package timeseries

import (
	"time"

	"github.com/iwvelando/finance-insights/internal/records"
	"github.com/iwvelando/finance-insights/pkg/datetime"
	"github.com/shopspring/decimal"
)

// Point is one period bucket.
type Point struct {
	Period string    `json:"period"`
	Start  time.Time `json:"-"`
	Value  float64   `json:"value"`
}

// Series is an ordered, gap-free sequence of period buckets.
type Series struct {
	Granularity datetime.Granularity `json:"granularity"`
	Points      []Point              `json:"points"`
}

// Build sums record amounts into every period of [rangeStart, rangeEnd).
// The first slot is the period containing rangeStart; records outside the
// range are ignored and empty slots are 0. A record belongs to the calendar
// day it carries, whatever its time zone.
func Build(recs []records.MonetaryRecord, g datetime.Granularity, rangeStart, rangeEnd time.Time) (Series, error) {
	if !rangeStart.Before(rangeEnd) {
		return Series{}, &InvalidRangeError{Start: rangeStart, End: rangeEnd}
	}

	first := datetime.Truncate(rangeStart, g)
	var starts []time.Time
	for p := first; p.Before(rangeEnd); p = datetime.Offset(p, g, 1) {
		starts = append(starts, p)
	}

	index := make(map[string]int, len(starts))
	for i, s := range starts {
		index[datetime.Label(s, g)] = i
	}

	sums := make([]decimal.Decimal, len(starts))
	for _, r := range recs {
		day := datetime.TruncateDay(r.Date)
		if day.Before(rangeStart) || !day.Before(rangeEnd) {
			continue
		}
		i, ok := index[datetime.Label(day, g)]
		if !ok {
			continue
		}
		sums[i] = sums[i].Add(r.Amount)
	}

	points := make([]Point, len(starts))
	for i, s := range starts {
		points[i] = Point{
			Period: datetime.Label(s, g),
			Start:  s,
			Value:  sums[i].InexactFloat64(),
		}
	}
	return Series{Granularity: g, Points: points}, nil
}

// RangeOf returns [first record day, last record day + 1). The second result
// is false when there are no records.
func RangeOf(recs []records.MonetaryRecord) (time.Time, time.Time, bool) {
	if len(recs) == 0 {
		return time.Time{}, time.Time{}, false
	}
	start := datetime.TruncateDay(recs[0].Date)
	end := start
	for _, r := range recs[1:] {
		d := datetime.TruncateDay(r.Date)
		if d.Before(start) {
			start = d
		}
		if d.After(end) {
			end = d
		}
	}
	return start, end.AddDate(0, 0, 1), true
}

// Len returns the number of periods.
func (s Series) Len() int {
	return len(s.Points)
}

// Values returns the bucket values in period order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Labels returns the period labels in order.
func (s Series) Labels() []string {
	out := make([]string, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Period
	}
	return out
}

// NonZero counts the periods with a non-zero value.
func (s Series) NonZero() int {
	n := 0
	for _, p := range s.Points {
		if p.Value != 0 {
			n++
		}
	}
	return n
}

// Next returns the labels and starts of the n periods following the series.
func (s Series) Next(n int) []Point {
	if len(s.Points) == 0 || n <= 0 {
		return nil
	}
	last := s.Points[len(s.Points)-1].Start
	out := make([]Point, n)
	for i := range out {
		start := datetime.Offset(last, s.Granularity, i+1)
		out[i] = Point{Period: datetime.Label(start, s.Granularity), Start: start}
	}
	return out
}

// RequireNonZero returns ErrEmptyData unless at least one period is non-zero.
func RequireNonZero(s Series) error {
	if s.NonZero() == 0 {
		return ErrEmptyData
	}
	return nil
}

// FromValues lays values out as consecutive periods beginning with the period
// containing start.
func FromValues(start time.Time, g datetime.Granularity, values []float64) Series {
	first := datetime.Truncate(start, g)
	points := make([]Point, len(values))
	for i, v := range values {
		p := datetime.Offset(first, g, i)
		points[i] = Point{Period: datetime.Label(p, g), Start: p, Value: v}
	}
	return Series{Granularity: g, Points: points}
}
