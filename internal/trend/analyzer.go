package trend

import (
	"github.com/iwvelando/finance-insights/internal/timeseries"
	"github.com/iwvelando/finance-insights/pkg/constants"
)

// Options holds the analyzer policy. Zero values select the defaults.
type Options struct {
	Window            int
	Centered          bool
	SlopeThresholdPct float64
	Grouping          Grouping
	HighSeasonIndex   float64
	LowSeasonIndex    float64
}

func (o Options) withDefaults(s timeseries.Series) Options {
	if o.Window <= 0 {
		o.Window = DefaultWindow(s.Granularity)
	}
	if o.SlopeThresholdPct <= 0 {
		o.SlopeThresholdPct = constants.DefaultSlopeThresholdPct
	}
	if o.Grouping == "" {
		o.Grouping = ByMonth
	}
	if o.HighSeasonIndex <= 0 {
		o.HighSeasonIndex = constants.DefaultHighSeasonIndex
	}
	if o.LowSeasonIndex <= 0 {
		o.LowSeasonIndex = constants.DefaultLowSeasonIndex
	}
	return o
}

// Report bundles every trend statistic of one series.
type Report struct {
	Window        int            `json:"window"`
	MovingAverage []Value        `json:"movingAverage"`
	Momentum      []Value        `json:"momentum"`
	Trend         Classification `json:"trend"`
	Volatility    float64        `json:"volatility"`
	Seasonality   Seasonality    `json:"seasonality"`
}

// Analyze runs every trend statistic over s.
func Analyze(s timeseries.Series, opts Options) Report {
	opts = opts.withDefaults(s)
	return Report{
		Window:        opts.Window,
		MovingAverage: MovingAverage(s, opts.Window, opts.Centered),
		Momentum:      Momentum(s),
		Trend:         Classify(s, opts.SlopeThresholdPct),
		Volatility:    Volatility(s),
		Seasonality:   Seasonal(s, opts.Grouping, opts.HighSeasonIndex, opts.LowSeasonIndex),
	}
}
