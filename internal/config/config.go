// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/finance-insights/internal/analytics"
	"github.com/iwvelando/finance-insights/internal/anomaly"
	"github.com/iwvelando/finance-insights/internal/forecast"
	"github.com/iwvelando/finance-insights/internal/scenario"
	"github.com/iwvelando/finance-insights/internal/trend"
	"github.com/iwvelando/finance-insights/pkg/constants"
	"github.com/iwvelando/finance-insights/pkg/datetime"
	"github.com/iwvelando/finance-insights/pkg/validation"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. FINANCE_INSIGHTS_ANALYTICS_PERIOD.
const EnvPrefix = "FINANCE_INSIGHTS"

// Configuration holds all configuration for finance-insights.
type Configuration struct {
	Records   RecordsConfig   `yaml:"records,omitempty" mapstructure:"records"`
	Analytics AnalyticsConfig `yaml:"analytics,omitempty" mapstructure:"analytics"`
	Logging   LoggingConfig   `yaml:"logging,omitempty" mapstructure:"logging"`
	Output    OutputConfig    `yaml:"output,omitempty" mapstructure:"output"`
	Cache     CacheConfig     `yaml:"cache,omitempty" mapstructure:"cache"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json
}

// RecordsConfig points at the record file the CLI analyzes.
type RecordsConfig struct {
	Path string `yaml:"path,omitempty" mapstructure:"path"`
}

// CacheConfig configures the optional Redis response cache of the server.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	Address    string `yaml:"address,omitempty" mapstructure:"address"`
	Password   string `yaml:"password,omitempty" mapstructure:"password"`
	DB         int    `yaml:"db,omitempty" mapstructure:"db"`
	TTLSeconds int    `yaml:"ttlSeconds,omitempty" mapstructure:"ttlSeconds"`
	Prefix     string `yaml:"prefix,omitempty" mapstructure:"prefix"`
}

// AnalyticsConfig holds the request defaults and every policy threshold.
type AnalyticsConfig struct {
	Period         string           `yaml:"period,omitempty" mapstructure:"period"`
	Method         string           `yaml:"method,omitempty" mapstructure:"method"`
	HorizonMonths  int              `yaml:"horizonMonths,omitempty" mapstructure:"horizonMonths"`
	ScenarioMonths int              `yaml:"scenarioMonths,omitempty" mapstructure:"scenarioMonths"`
	TrendBandPct   float64          `yaml:"trendBandPct,omitempty" mapstructure:"trendBandPct"`
	Trend          TrendConfig      `yaml:"trend,omitempty" mapstructure:"trend"`
	Anomaly        AnomalyConfig    `yaml:"anomaly,omitempty" mapstructure:"anomaly"`
	Forecast       ForecastConfig   `yaml:"forecast,omitempty" mapstructure:"forecast"`
	Scenarios      []scenario.Input `yaml:"scenarios,omitempty" mapstructure:"scenarios"`
}

// TrendConfig tunes the trend and seasonality analyzer.
type TrendConfig struct {
	Window            int     `yaml:"window,omitempty" mapstructure:"window"`
	Centered          bool    `yaml:"centered,omitempty" mapstructure:"centered"`
	SlopeThresholdPct float64 `yaml:"slopeThresholdPct,omitempty" mapstructure:"slopeThresholdPct"`
	Seasonality       string  `yaml:"seasonality,omitempty" mapstructure:"seasonality"`
	HighSeasonIndex   float64 `yaml:"highSeasonIndex,omitempty" mapstructure:"highSeasonIndex"`
	LowSeasonIndex    float64 `yaml:"lowSeasonIndex,omitempty" mapstructure:"lowSeasonIndex"`
}

// AnomalyConfig tunes the anomaly detector.
type AnomalyConfig struct {
	BaselineWindow    int     `yaml:"baselineWindow,omitempty" mapstructure:"baselineWindow"`
	ZThreshold        float64 `yaml:"zThreshold,omitempty" mapstructure:"zThreshold"`
	MinHistory        int     `yaml:"minHistory,omitempty" mapstructure:"minHistory"`
	GroupBy           string  `yaml:"groupBy,omitempty" mapstructure:"groupBy"`
	MediumSeverityPct float64 `yaml:"mediumSeverityPct,omitempty" mapstructure:"mediumSeverityPct"`
	HighSeverityPct   float64 `yaml:"highSeverityPct,omitempty" mapstructure:"highSeverityPct"`
}

// ForecastConfig tunes the forecast strategies.
type ForecastConfig struct {
	SMAWindow            int     `yaml:"smaWindow,omitempty" mapstructure:"smaWindow"`
	Alpha                float64 `yaml:"alpha,omitempty" mapstructure:"alpha"`
	Beta                 float64 `yaml:"beta,omitempty" mapstructure:"beta"`
	ConfidenceMultiplier float64 `yaml:"confidenceMultiplier,omitempty" mapstructure:"confidenceMultiplier"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r. Missing keys
// take their defaults.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %w", err)
	}
	return decode(v)
}

// Default returns the configuration used when no file is supplied.
func Default() *Configuration {
	conf, err := decode(newViper())
	if err != nil {
		// Defaults are static and always decode.
		panic(err)
	}
	return conf
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("records.path", constants.DefaultRecordsFile)
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("analytics.period", string(datetime.Month))
	v.SetDefault("analytics.method", string(forecast.SMA))
	v.SetDefault("analytics.horizonMonths", constants.DefaultHorizonMonths)
	v.SetDefault("analytics.scenarioMonths", constants.DefaultScenarioMonths)
	v.SetDefault("analytics.trendBandPct", constants.DefaultTrendBandPct)

	v.SetDefault("analytics.trend.slopeThresholdPct", constants.DefaultSlopeThresholdPct)
	v.SetDefault("analytics.trend.seasonality", string(trend.ByMonth))
	v.SetDefault("analytics.trend.highSeasonIndex", constants.DefaultHighSeasonIndex)
	v.SetDefault("analytics.trend.lowSeasonIndex", constants.DefaultLowSeasonIndex)

	v.SetDefault("analytics.anomaly.baselineWindow", constants.DefaultBaselineWindow)
	v.SetDefault("analytics.anomaly.zThreshold", constants.DefaultZThreshold)
	v.SetDefault("analytics.anomaly.minHistory", constants.DefaultMinHistory)
	v.SetDefault("analytics.anomaly.groupBy", string(anomaly.ByCategory))
	v.SetDefault("analytics.anomaly.mediumSeverityPct", constants.DefaultMediumSeverityPct)
	v.SetDefault("analytics.anomaly.highSeverityPct", constants.DefaultHighSeverityPct)

	v.SetDefault("analytics.forecast.smaWindow", constants.DefaultSMAWindow)
	v.SetDefault("analytics.forecast.alpha", constants.DefaultAlpha)
	v.SetDefault("analytics.forecast.beta", constants.DefaultBeta)
	v.SetDefault("analytics.forecast.confidenceMultiplier", constants.DefaultConfidenceMultiplier)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttlSeconds", constants.DefaultCacheTTLSeconds)
	v.SetDefault("cache.prefix", constants.DefaultCachePrefix)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	return &configuration, nil
}

// Validate checks every analytics setting and the output format.
func (c *Configuration) Validate() error {
	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		return err
	}
	return c.Analytics.Validate()
}

// Validate checks the analytics settings.
func (a AnalyticsConfig) Validate() error {
	if _, err := datetime.ParseGranularity(a.Period); err != nil {
		return fmt.Errorf("analytics.period: %w", err)
	}
	if _, err := forecast.ParseMethod(a.Method); err != nil {
		return fmt.Errorf("analytics.method: %w", err)
	}
	if err := validation.ValidateHorizon(a.HorizonMonths); err != nil {
		return fmt.Errorf("analytics.horizonMonths: %w", err)
	}
	if err := validation.ValidateHorizon(a.ScenarioMonths); err != nil {
		return fmt.Errorf("analytics.scenarioMonths: %w", err)
	}
	switch trend.Grouping(a.Trend.Seasonality) {
	case trend.ByMonth, trend.ByQuarter:
	default:
		return fmt.Errorf("analytics.trend.seasonality must be month or quarter, got %q", a.Trend.Seasonality)
	}
	if a.Trend.LowSeasonIndex >= a.Trend.HighSeasonIndex {
		return fmt.Errorf("analytics.trend.lowSeasonIndex %v must be below highSeasonIndex %v",
			a.Trend.LowSeasonIndex, a.Trend.HighSeasonIndex)
	}
	switch anomaly.GroupBy(a.Anomaly.GroupBy) {
	case anomaly.ByCategory, anomaly.ByService:
	default:
		return fmt.Errorf("analytics.anomaly.groupBy must be category or service, got %q", a.Anomaly.GroupBy)
	}
	if a.Anomaly.MediumSeverityPct > a.Anomaly.HighSeverityPct {
		return fmt.Errorf("analytics.anomaly.mediumSeverityPct %v must not exceed highSeverityPct %v",
			a.Anomaly.MediumSeverityPct, a.Anomaly.HighSeverityPct)
	}
	if err := a.forecastParams().Validate(); err != nil {
		return fmt.Errorf("analytics.forecast: %w", err)
	}
	for i, s := range a.Scenarios {
		if err := validation.ValidateGrowthPct("revenueGrowthPct", s.RevenueGrowthPct); err != nil {
			return fmt.Errorf("analytics.scenarios[%d]: %w", i, err)
		}
		if err := validation.ValidateGrowthPct("expenseGrowthPct", s.ExpenseGrowthPct); err != nil {
			return fmt.Errorf("analytics.scenarios[%d]: %w", i, err)
		}
	}
	return nil
}

func (a AnalyticsConfig) forecastParams() forecast.Params {
	return forecast.Params{
		SMAWindow:            a.Forecast.SMAWindow,
		Alpha:                a.Forecast.Alpha,
		Beta:                 a.Forecast.Beta,
		ConfidenceMultiplier: a.Forecast.ConfidenceMultiplier,
	}
}

// Policy converts the settings into an engine policy.
func (a AnalyticsConfig) Policy() analytics.Policy {
	return analytics.Policy{
		TrendBandPct: a.TrendBandPct,
		Trend: trend.Options{
			Window:            a.Trend.Window,
			Centered:          a.Trend.Centered,
			SlopeThresholdPct: a.Trend.SlopeThresholdPct,
			Grouping:          trend.Grouping(a.Trend.Seasonality),
			HighSeasonIndex:   a.Trend.HighSeasonIndex,
			LowSeasonIndex:    a.Trend.LowSeasonIndex,
		},
		Anomaly: anomaly.Options{
			BaselineWindow:    a.Anomaly.BaselineWindow,
			ZThreshold:        a.Anomaly.ZThreshold,
			MinHistory:        a.Anomaly.MinHistory,
			GroupBy:           anomaly.GroupBy(a.Anomaly.GroupBy),
			MediumSeverityPct: a.Anomaly.MediumSeverityPct,
			HighSeverityPct:   a.Anomaly.HighSeverityPct,
		},
		Forecast:       a.forecastParams(),
		HorizonMonths:  a.HorizonMonths,
		ScenarioMonths: a.ScenarioMonths,
	}
}
