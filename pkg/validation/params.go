package validation

import (
	"fmt"
	"math"
)

// MaxHorizon bounds forecast and scenario horizons, in periods, so a single
// request stays small. It covers a year of daily periods.
const MaxHorizon = 366

// ValidateHorizon checks that a horizon is between 1 and MaxHorizon periods.
func ValidateHorizon(horizon int) error {
	if horizon < 1 || horizon > MaxHorizon {
		return fmt.Errorf("horizon must be between 1 and %d, got %d", MaxHorizon, horizon)
	}
	return nil
}

// ValidateWindow checks a moving window size.
func ValidateWindow(name string, window int) error {
	if window < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", name, window)
	}
	return nil
}

// ValidateSmoothingFactor checks that a smoothing factor lies in (0, 1].
func ValidateSmoothingFactor(name string, value float64) error {
	if math.IsNaN(value) || value <= 0 || value > 1 {
		return fmt.Errorf("%s must be in (0, 1], got %v", name, value)
	}
	return nil
}

// ValidateGrowthPct rejects growth deltas that would make a projection negative.
func ValidateGrowthPct(name string, pct float64) error {
	if math.IsNaN(pct) || math.IsInf(pct, 0) || pct < -100 {
		return fmt.Errorf("%s must be a finite percentage of at least -100, got %v", name, pct)
	}
	return nil
}
