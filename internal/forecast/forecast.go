// Package forecast projects a time series forward with a moving average,
// exponential smoothing or Holt's linear trend, and attaches confidence bounds
// derived from the one-step-ahead residuals.
package forecast

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/finance-insights/internal/timeseries"
	"github.com/iwvelando/finance-insights/pkg/datetime"
	"github.com/iwvelando/finance-insights/pkg/mathutil"
	"github.com/iwvelando/finance-insights/pkg/validation"
)

// minHistory is the number of non-zero periods needed for a regular fit.
const minHistory = 2

// FittedPoint is a historical period with its one-step-ahead fit. Fitted is
// nil where the strategy has no prior state to fit from.
type FittedPoint struct {
	Period string   `json:"period"`
	Actual float64  `json:"actual"`
	Fitted *float64 `json:"fitted"`
}

// ForecastPoint is a projected period. Horizon counts periods past the end of
// the history, starting at 1.
type ForecastPoint struct {
	Period     string  `json:"period"`
	Horizon    int     `json:"horizon"`
	Forecast   float64 `json:"forecast"`
	LowerBound float64 `json:"lowerBound"`
	UpperBound float64 `json:"upperBound"`
}

// Accuracy summarizes the one-step-ahead residuals. MAPE skips periods whose
// actual value is 0.
type Accuracy struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	MAPE float64 `json:"mape"`
}

// Result is a fitted history plus the projected periods.
type Result struct {
	Method         Method               `json:"method"`
	AutoSelected   bool                 `json:"autoSelected"`
	Granularity    datetime.Granularity `json:"granularity"`
	Params         Params               `json:"params"`
	Historical     []FittedPoint        `json:"historical"`
	Forecasts      []ForecastPoint      `json:"forecasts"`
	ResidualStdDev float64              `json:"residualStdDev"`
	Accuracy       Accuracy             `json:"accuracy"`
}

// Forecast fits the series with the given method and projects horizon
// periods. The confidence half-width at horizon h is
// ConfidenceMultiplier * residual std-dev * sqrt(h).
func Forecast(s timeseries.Series, horizon int, method Method, p Params) (*Result, error) {
	if horizon < 1 || horizon > validation.MaxHorizon {
		return nil, fmt.Errorf("%w: %d (expected 1..%d)", ErrInvalidHorizon, horizon, validation.MaxHorizon)
	}
	p = p.withDefaults()
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid forecast parameters: %w", err)
	}
	if err := timeseries.RequireNonZero(s); err != nil {
		return nil, err
	}

	if method == Auto {
		return selectBest(s, horizon, p)
	}
	return run(s, horizon, method, p)
}

func run(s timeseries.Series, horizon int, method Method, p Params) (*Result, error) {
	fit, ok := strategies[method]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}

	nonZero := s.NonZero()
	if nonZero < minHistory {
		if method == Holt {
			return nil, &InsufficientHistoryError{Method: method, NonZero: nonZero, Required: minHistory}
		}
		return lastObservation(s, horizon, method, p), nil
	}

	values := s.Values()
	f := fit(values, p)

	result := &Result{
		Method:      method,
		Granularity: s.Granularity,
		Params:      p,
		Historical:  make([]FittedPoint, len(values)),
	}
	var residuals, actuals []float64
	for i, pt := range s.Points {
		hp := FittedPoint{Period: pt.Period, Actual: mathutil.Round(pt.Value)}
		if f.fits[i] != nil {
			rounded := mathutil.Round(*f.fits[i])
			hp.Fitted = &rounded
			residuals = append(residuals, pt.Value-*f.fits[i])
			actuals = append(actuals, pt.Value)
		}
		result.Historical[i] = hp
	}

	sd := mathutil.SampleStdDev(residuals)
	result.ResidualStdDev = mathutil.Round(sd)
	result.Accuracy = accuracy(residuals, actuals)
	result.Forecasts = project(s, horizon, f.forecast, p.ConfidenceMultiplier*sd)
	return result, nil
}

// lastObservation is the flat forecast used when a single period carries
// data. The bounds have zero width because there are no residuals.
func lastObservation(s timeseries.Series, horizon int, method Method, p Params) *Result {
	last := 0.0
	for _, pt := range s.Points {
		if pt.Value != 0 {
			last = pt.Value
		}
	}
	result := &Result{
		Method:      method,
		Granularity: s.Granularity,
		Params:      p,
		Historical:  make([]FittedPoint, len(s.Points)),
	}
	for i, pt := range s.Points {
		result.Historical[i] = FittedPoint{Period: pt.Period, Actual: mathutil.Round(pt.Value)}
	}
	result.Forecasts = project(s, horizon, func(int) float64 { return last }, 0)
	return result
}

func project(s timeseries.Series, horizon int, forecast func(h int) float64, scale float64) []ForecastPoint {
	future := s.Next(horizon)
	out := make([]ForecastPoint, len(future))
	for i, pt := range future {
		h := i + 1
		value := mathutil.Round(forecast(h))
		halfWidth := mathutil.Round(scale * math.Sqrt(float64(h)))
		out[i] = ForecastPoint{
			Period:     pt.Period,
			Horizon:    h,
			Forecast:   value,
			LowerBound: mathutil.Round(value - halfWidth),
			UpperBound: mathutil.Round(value + halfWidth),
		}
	}
	return out
}

func accuracy(residuals, actuals []float64) Accuracy {
	if len(residuals) == 0 {
		return Accuracy{}
	}
	var absSum, sqSum, pctSum float64
	pctCount := 0
	for i, r := range residuals {
		absSum += math.Abs(r)
		sqSum += r * r
		if actuals[i] != 0 {
			pctSum += math.Abs(r / actuals[i])
			pctCount++
		}
	}
	n := float64(len(residuals))
	return Accuracy{
		MAE:  mathutil.Round(absSum / n),
		RMSE: mathutil.Round(math.Sqrt(sqSum / n)),
		MAPE: mathutil.Round(mathutil.CalculatePercentage(pctSum, float64(pctCount))),
	}
}

// selectBest runs every strategy in a fixed order and keeps the lowest RMSE.
// Earlier strategies win ties. Strategies lacking history are skipped.
func selectBest(s timeseries.Series, horizon int, p Params) (*Result, error) {
	var best *Result
	for _, m := range []Method{SMA, Exponential, Holt} {
		r, err := run(s, horizon, m, p)
		if err != nil {
			var insufficient *InsufficientHistoryError
			if errors.As(err, &insufficient) {
				continue
			}
			return nil, err
		}
		if best == nil || r.Accuracy.RMSE < best.Accuracy.RMSE {
			best = r
		}
	}
	if best == nil {
		return nil, &InsufficientHistoryError{Method: Auto, NonZero: s.NonZero(), Required: minHistory}
	}
	best.AutoSelected = true
	return best, nil
}
