// Package analytics runs the analytic components over one batch of records
// and assembles their results into a report.
package analytics

import (
	"fmt"
	"time"

	"github.com/iwvelando/finance-insights/internal/aggregate"
	"github.com/iwvelando/finance-insights/internal/anomaly"
	"github.com/iwvelando/finance-insights/internal/forecast"
	"github.com/iwvelando/finance-insights/internal/records"
	"github.com/iwvelando/finance-insights/internal/scenario"
	"github.com/iwvelando/finance-insights/internal/timeseries"
	"github.com/iwvelando/finance-insights/internal/trend"
	"github.com/iwvelando/finance-insights/pkg/constants"
	"github.com/iwvelando/finance-insights/pkg/datetime"
	"go.uber.org/zap"
)

// Policy collects the tunable thresholds of every component.
type Policy struct {
	TrendBandPct   float64
	Trend          trend.Options
	Anomaly        anomaly.Options
	Forecast       forecast.Params
	HorizonMonths  int
	ScenarioMonths int
}

// DefaultPolicy returns the documented defaults.
func DefaultPolicy() Policy {
	return Policy{
		TrendBandPct: constants.DefaultTrendBandPct,
		Trend: trend.Options{
			SlopeThresholdPct: constants.DefaultSlopeThresholdPct,
			Grouping:          trend.ByMonth,
			HighSeasonIndex:   constants.DefaultHighSeasonIndex,
			LowSeasonIndex:    constants.DefaultLowSeasonIndex,
		},
		Anomaly: anomaly.Options{
			BaselineWindow:    constants.DefaultBaselineWindow,
			ZThreshold:        constants.DefaultZThreshold,
			MinHistory:        constants.DefaultMinHistory,
			GroupBy:           anomaly.ByCategory,
			MediumSeverityPct: constants.DefaultMediumSeverityPct,
			HighSeverityPct:   constants.DefaultHighSeverityPct,
		},
		Forecast:       forecast.DefaultParams(),
		HorizonMonths:  constants.DefaultHorizonMonths,
		ScenarioMonths: constants.DefaultScenarioMonths,
	}
}

// Request is one batch of records plus the parameters of a computation.
// Zero Start and End select the span of the records. Kind selects the
// series that trends and forecasts run on and defaults to revenue.
type Request struct {
	Records        []records.MonetaryRecord
	Period         datetime.Granularity
	Method         forecast.Method
	HorizonMonths  int
	ScenarioMonths int
	Start          time.Time
	End            time.Time
	Kind           records.Kind
	Scenarios      []scenario.Input
}

// Engine is stateless between calls; every method is a pure function of its
// request and the engine policy.
type Engine struct {
	logger *zap.Logger
	policy Policy
}

// NewEngine creates an engine with the given policy.
// If logger is nil, it will use a no-op logger to prevent panics.
func NewEngine(logger *zap.Logger, policy Policy) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.HorizonMonths <= 0 {
		policy.HorizonMonths = constants.DefaultHorizonMonths
	}
	if policy.ScenarioMonths <= 0 {
		policy.ScenarioMonths = constants.DefaultScenarioMonths
	}
	if policy.TrendBandPct <= 0 {
		policy.TrendBandPct = constants.DefaultTrendBandPct
	}
	return &Engine{logger: logger, policy: policy}
}

// Policy returns the engine policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// resolved is a request with its defaults applied.
type resolved struct {
	Request
}

func (e *Engine) resolve(req Request) (resolved, error) {
	if req.Period == "" {
		req.Period = datetime.Month
	}
	g, err := datetime.ParseGranularity(string(req.Period))
	if err != nil {
		return resolved{}, err
	}
	req.Period = g
	if req.Method == "" {
		req.Method = forecast.SMA
	}
	if req.HorizonMonths == 0 {
		req.HorizonMonths = e.policy.HorizonMonths
	}
	if req.ScenarioMonths == 0 {
		req.ScenarioMonths = e.policy.ScenarioMonths
	}
	if req.Kind == "" {
		req.Kind = records.Revenue
	}
	req.Records = records.Normalize(req.Records)
	if req.Start.IsZero() || req.End.IsZero() {
		start, end, ok := timeseries.RangeOf(req.Records)
		if !ok {
			return resolved{}, fmt.Errorf("no records to derive a range from: %w", timeseries.ErrEmptyData)
		}
		if req.Start.IsZero() {
			req.Start = start
		}
		if req.End.IsZero() {
			req.End = end
		}
	}
	if !req.Start.Before(req.End) {
		return resolved{}, &timeseries.InvalidRangeError{Start: req.Start, End: req.End}
	}
	return resolved{Request: req}, nil
}

func (r resolved) series() (timeseries.Series, error) {
	return timeseries.Build(records.OfKind(r.Records, r.Kind), r.Period, r.Start, r.End)
}

// ProfitMargins reports profit and margin per service over the request range.
func (e *Engine) ProfitMargins(req Request) ([]aggregate.ServiceProfit, error) {
	r, err := e.resolve(req)
	if err != nil {
		return nil, err
	}
	return aggregate.ProfitMargins(records.Between(r.Records, r.Start, r.End)), nil
}

// CashFlow reports inflow, outflow and net per period.
func (e *Engine) CashFlow(req Request) (aggregate.CashFlowSummary, error) {
	r, err := e.resolve(req)
	if err != nil {
		return aggregate.CashFlowSummary{}, err
	}
	return aggregate.CashFlow(r.Records, r.Period, r.Start, r.End)
}

// Ranking ranks services by profit and compares them with the preceding
// window of equal length.
func (e *Engine) Ranking(req Request) ([]aggregate.RankingEntry, error) {
	r, err := e.resolve(req)
	if err != nil {
		return nil, err
	}
	return aggregate.Rank(r.Records, r.Start, r.End, e.policy.TrendBandPct)
}

// Trends analyzes the series of the requested kind.
func (e *Engine) Trends(req Request) (trend.Report, error) {
	r, err := e.resolve(req)
	if err != nil {
		return trend.Report{}, err
	}
	s, err := r.series()
	if err != nil {
		return trend.Report{}, err
	}
	return trend.Analyze(s, e.policy.Trend), nil
}

// Anomalies flags records in the request range. Records before the range
// still count as peer history.
func (e *Engine) Anomalies(req Request) ([]anomaly.Anomaly, error) {
	r, err := e.resolve(req)
	if err != nil {
		return nil, err
	}
	history := records.Filter(r.Records, func(rec records.MonetaryRecord) bool {
		return rec.Date.Before(r.End)
	})
	detector := anomaly.NewDetector(e.logger, e.policy.Anomaly)
	first := r.Start.Format(datetime.DayLayout)
	var out []anomaly.Anomaly
	for _, a := range detector.Detect(history) {
		if a.Date >= first {
			out = append(out, a)
		}
	}
	if out == nil {
		out = []anomaly.Anomaly{}
	}
	return out, nil
}

// Forecast projects the series of the requested kind HorizonMonths ahead,
// converted to periods of the request granularity.
func (e *Engine) Forecast(req Request) (*forecast.Result, error) {
	r, err := e.resolve(req)
	if err != nil {
		return nil, err
	}
	s, err := r.series()
	if err != nil {
		return nil, err
	}
	horizon := datetime.PeriodsInMonths(r.Period, r.HorizonMonths)
	result, err := forecast.Forecast(s, horizon, r.Method, e.policy.Forecast)
	if err != nil {
		return nil, fmt.Errorf("failed to forecast %s: %w", r.Kind, err)
	}
	e.logger.Debug("forecast computed",
		zap.String("op", "analytics.Forecast"),
		zap.String("method", string(result.Method)),
		zap.Int("horizon", horizon),
		zap.Float64("rmse", result.Accuracy.RMSE),
	)
	return result, nil
}

// Scenarios projects the preset and custom scenarios from the baseline of the
// records in range.
func (e *Engine) Scenarios(req Request) (scenario.Baseline, []scenario.Scenario, error) {
	r, err := e.resolve(req)
	if err != nil {
		return scenario.Baseline{}, nil, err
	}
	baseline, err := scenario.ComputeBaseline(records.Between(r.Records, r.Start, r.End))
	if err != nil {
		return scenario.Baseline{}, nil, err
	}
	scenarios, err := scenario.Compare(baseline, r.Scenarios, r.ScenarioMonths)
	if err != nil {
		return scenario.Baseline{}, nil, err
	}
	return baseline, scenarios, nil
}
