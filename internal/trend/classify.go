package trend

import (
	"math"

	"github.com/iwvelando/finance-insights/internal/timeseries"
	"github.com/iwvelando/finance-insights/pkg/mathutil"
)

// Direction is the overall direction of a series.
type Direction string

const (
	Upward   Direction = "upward"
	Downward Direction = "downward"
	Stable   Direction = "stable"
)

// Classification is the least-squares trend of a series.
type Classification struct {
	Direction Direction `json:"direction"`
	Slope     float64   `json:"slope"`
	RSquared  float64   `json:"rSquared"`
	Mean      float64   `json:"mean"`
	// SlopePct is the slope relative to the mean, as a percentage.
	SlopePct float64 `json:"slopePct"`
}

// Classify fits a line through the series and calls it upward or downward
// when the slope magnitude exceeds thresholdPct percent of the mean.
func Classify(s timeseries.Series, thresholdPct float64) Classification {
	values := s.Values()
	slope, r2 := mathutil.LinearRegression(values)
	mean := mathutil.Mean(values)
	threshold := math.Abs(mean) * thresholdPct / 100

	c := Classification{
		Direction: Stable,
		Slope:     mathutil.RoundTo(slope, 4),
		RSquared:  mathutil.RoundTo(r2, 4),
		Mean:      mathutil.Round(mean),
		SlopePct:  mathutil.Round(mathutil.CalculatePercentage(slope, math.Abs(mean))),
	}
	switch {
	case slope > threshold:
		c.Direction = Upward
	case slope < -threshold:
		c.Direction = Downward
	}
	return c
}
