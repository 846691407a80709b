package forecast

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iwvelando/finance-insights/pkg/constants"
	"github.com/iwvelando/finance-insights/pkg/validation"
)

// Method names a forecasting strategy.
type Method string

const (
	SMA         Method = "sma"
	Exponential Method = "exponential"
	Holt        Method = "holt"
	// Auto fits every strategy and keeps the one with the lowest RMSE.
	Auto Method = "auto"
)

// ErrUnknownMethod is returned for a method name outside the supported set.
var ErrUnknownMethod = errors.New("unknown forecast method")

// ErrInvalidHorizon is returned when the horizon is outside 1..validation.MaxHorizon.
var ErrInvalidHorizon = errors.New("invalid forecast horizon")

// InsufficientHistoryError reports a series with too few non-zero periods
// for the requested method.
type InsufficientHistoryError struct {
	Method   Method
	NonZero  int
	Required int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("%s forecast needs at least %d non-zero periods, got %d", e.Method, e.Required, e.NonZero)
}

// ParseMethod maps a method name to a Method. The empty string selects SMA.
func ParseMethod(value string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "sma", "moving_average", "moving-average":
		return SMA, nil
	case "exponential", "ses", "exponential_smoothing":
		return Exponential, nil
	case "holt", "holt_linear":
		return Holt, nil
	case "auto":
		return Auto, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, value)
	}
}

// Params tunes the strategies. Zero values select the defaults.
type Params struct {
	SMAWindow            int     `json:"smaWindow"`
	Alpha                float64 `json:"alpha"`
	Beta                 float64 `json:"beta"`
	ConfidenceMultiplier float64 `json:"confidenceMultiplier"`
}

// DefaultParams returns the default strategy parameters.
func DefaultParams() Params {
	return Params{
		SMAWindow:            constants.DefaultSMAWindow,
		Alpha:                constants.DefaultAlpha,
		Beta:                 constants.DefaultBeta,
		ConfidenceMultiplier: constants.DefaultConfidenceMultiplier,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.SMAWindow == 0 {
		p.SMAWindow = d.SMAWindow
	}
	if p.Alpha == 0 {
		p.Alpha = d.Alpha
	}
	if p.Beta == 0 {
		p.Beta = d.Beta
	}
	if p.ConfidenceMultiplier == 0 {
		p.ConfidenceMultiplier = d.ConfidenceMultiplier
	}
	return p
}

// Validate checks the parameters after defaults are applied.
func (p Params) Validate() error {
	if err := validation.ValidateWindow("smaWindow", p.SMAWindow); err != nil {
		return err
	}
	if err := validation.ValidateSmoothingFactor("alpha", p.Alpha); err != nil {
		return err
	}
	if err := validation.ValidateSmoothingFactor("beta", p.Beta); err != nil {
		return err
	}
	if p.ConfidenceMultiplier < 0 {
		return fmt.Errorf("confidenceMultiplier must not be negative, got %v", p.ConfidenceMultiplier)
	}
	return nil
}
