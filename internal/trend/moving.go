// Package trend analyzes direction, momentum, volatility and seasonality of
// period series.
package trend

import (
	"github.com/cinar/indicator/v2/helper"
	ind "github.com/cinar/indicator/v2/trend"
	"github.com/iwvelando/finance-insights/internal/timeseries"
	"github.com/iwvelando/finance-insights/pkg/constants"
	"github.com/iwvelando/finance-insights/pkg/datetime"
	"github.com/iwvelando/finance-insights/pkg/mathutil"
)

// Value is a derived statistic attached to a period label.
type Value struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

// DefaultWindow returns the moving average window for a granularity.
func DefaultWindow(g datetime.Granularity) int {
	switch g {
	case datetime.Day:
		return constants.DefaultDailyWindow
	case datetime.Week:
		return constants.DefaultWeeklyWindow
	default:
		return constants.DefaultMonthlyWindow
	}
}

// MovingAverage averages every window of w consecutive periods. Trailing
// averages are labelled with the window's last period, so the first w-1
// periods have no value and are omitted. Centered averages are labelled with
// the window's middle period and omit both edges. A centered window must have
// a middle period, so an even w is widened to w+1.
func MovingAverage(s timeseries.Series, w int, centered bool) []Value {
	if centered && w > 0 && w%2 == 0 {
		w++
	}
	values := s.Values()
	if w < 1 || len(values) < w {
		return []Value{}
	}

	sma := ind.NewSmaWithPeriod[float64](w)
	averages := helper.ChanToSlice(sma.Compute(helper.SliceToChan(values)))

	// Align from the end: the last average always covers the last w values.
	offset := len(values) - len(averages)
	shift := 0
	if centered {
		shift = w / 2
	}

	out := make([]Value, 0, len(averages))
	for k, avg := range averages {
		end := offset + k
		if end < w-1 {
			continue
		}
		out = append(out, Value{
			Period: s.Points[end-shift].Period,
			Value:  mathutil.Round(avg),
		})
	}
	return out
}

// Momentum returns the period-over-period percentage change from the second
// period on. A zero previous value yields 0.
func Momentum(s timeseries.Series) []Value {
	if s.Len() < 2 {
		return []Value{}
	}
	out := make([]Value, 0, s.Len()-1)
	for t := 1; t < s.Len(); t++ {
		prev := s.Points[t-1].Value
		cur := s.Points[t].Value
		out = append(out, Value{
			Period: s.Points[t].Period,
			Value:  mathutil.Round(mathutil.CalculatePercentage(cur-prev, prev)),
		})
	}
	return out
}

// Volatility is the coefficient of variation (sample standard deviation over
// absolute mean, as a percentage) of the series momentum.
func Volatility(s timeseries.Series) float64 {
	m := Momentum(s)
	values := make([]float64, len(m))
	for i, v := range m {
		values[i] = v.Value
	}
	mean := mathutil.Mean(values)
	if mean < 0 {
		mean = -mean
	}
	return mathutil.Round(mathutil.CalculatePercentage(mathutil.SampleStdDev(values), mean))
}
