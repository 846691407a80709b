package forecast

import "github.com/iwvelando/finance-insights/pkg/mathutil"

// fitted is the output shared by every strategy: one-step-ahead fits over the
// history (nil where a fit is undefined) and the h-step-ahead point forecast.
type fitted struct {
	fits     []*float64
	forecast func(h int) float64
}

type strategy func(values []float64, p Params) fitted

var strategies = map[Method]strategy{
	SMA:         movingAverage,
	Exponential: exponentialSmoothing,
	Holt:        holtLinear,
}

// movingAverage fits each period with the mean of up to SMAWindow previous
// values and forecasts the mean of the last SMAWindow values.
func movingAverage(values []float64, p Params) fitted {
	fits := make([]*float64, len(values))
	for i := 1; i < len(values); i++ {
		fit := mathutil.Mean(values[max(0, i-p.SMAWindow):i])
		fits[i] = &fit
	}
	level := mathutil.Mean(values[max(0, len(values)-p.SMAWindow):])
	return fitted{fits: fits, forecast: func(int) float64 { return level }}
}

// exponentialSmoothing keeps a single smoothed level starting at the first
// observation. The fit for a period is the level before it is observed.
func exponentialSmoothing(values []float64, p Params) fitted {
	fits := make([]*float64, len(values))
	level := values[0]
	for i := 1; i < len(values); i++ {
		fit := level
		fits[i] = &fit
		level = p.Alpha*values[i] + (1-p.Alpha)*level
	}
	return fitted{fits: fits, forecast: func(int) float64 { return level }}
}

// holtLinear tracks a level and a trend seeded from the first two
// observations. The second period reproduces its seed exactly, so fits start
// at the third period.
func holtLinear(values []float64, p Params) fitted {
	fits := make([]*float64, len(values))
	level := values[0]
	slope := 0.0
	if len(values) > 1 {
		slope = values[1] - values[0]
	}
	for i := 1; i < len(values); i++ {
		if i >= 2 {
			fit := level + slope
			fits[i] = &fit
		}
		previous := level
		level = p.Alpha*values[i] + (1-p.Alpha)*(level+slope)
		slope = p.Beta*(level-previous) + (1-p.Beta)*slope
	}
	return fitted{fits: fits, forecast: func(h int) float64 { return level + float64(h)*slope }}
}
