// Package constants provides shared constants for the finance-insights application.
package constants

// Period label layouts. Weekly labels are built from the ISO year and week
// number rather than a time layout.
const (
	// DayLayout is the label format for daily periods and the date format of
	// record files.
	DayLayout = "2006-01-02"

	// MonthLayout is the label format for monthly periods.
	MonthLayout = "2006-01"

	// WeekLabelFormat formats an ISO year and week number.
	WeekLabelFormat = "%04d-W%02d"
)

// Calendar constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// QuartersPerYear is the number of quarters in a year
	QuartersPerYear = 4

	// DaysPerWeek is the number of days in a week
	DaysPerWeek = 7

	// DaysPerYear and WeeksPerYear convert month horizons to daily and weekly periods
	DaysPerYear  = 365
	WeeksPerYear = 52

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Moving average windows by granularity.
const (
	DefaultDailyWindow   = 7
	DefaultWeeklyWindow  = 4
	DefaultMonthlyWindow = 3
)

// Forecast defaults
const (
	// DefaultSMAWindow is the number of trailing periods averaged by the
	// simple moving average strategy.
	DefaultSMAWindow = 3

	// DefaultAlpha is the level smoothing factor.
	DefaultAlpha = 0.3

	// DefaultBeta is the trend smoothing factor used by Holt's method.
	DefaultBeta = 0.1

	// DefaultConfidenceMultiplier scales the residual standard deviation
	// into the confidence half-width.
	DefaultConfidenceMultiplier = 1.0

	// DefaultHorizonMonths is the forecast and scenario horizon used when a
	// request does not name one.
	DefaultHorizonMonths = 6

	// DefaultScenarioMonths annualizes scenario projections.
	DefaultScenarioMonths = 12
)

// Analysis policy defaults. These are business policy, not derived statistics.
const (
	// DefaultTrendBandPct is the +/- relative change treated as stable when
	// classifying profitability trends.
	DefaultTrendBandPct = 5.0

	// DefaultSlopeThresholdPct is the slope, as a percentage of the mean,
	// that a series must exceed to be called upward or downward.
	DefaultSlopeThresholdPct = 2.0

	// DefaultHighSeasonIndex marks seasonal periods above the overall average.
	DefaultHighSeasonIndex = 1.10

	// DefaultLowSeasonIndex marks seasonal periods below the overall average.
	DefaultLowSeasonIndex = 0.90

	// DefaultZThreshold is the number of standard deviations a record must
	// deviate from its baseline to be flagged.
	DefaultZThreshold = 2.0

	// DefaultBaselineWindow is the number of trailing records in the same
	// group used as the anomaly baseline.
	DefaultBaselineWindow = 12

	// DefaultMinHistory is the minimum number of prior records required
	// before a record can be flagged.
	DefaultMinHistory = 3

	// DefaultMediumSeverityPct and DefaultHighSeverityPct are the absolute
	// deviation percentages at which anomaly severity escalates.
	DefaultMediumSeverityPct = 50.0
	DefaultHighSeverityPct   = 100.0
)

// UnassignedService groups records without a service id.
const UnassignedService = "unassigned"

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultRecordsFile is the default records file name
	DefaultRecordsFile = "records.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (1 MB)
	DefaultMaxBodySizeBytes int64 = 1024 * 1024

	// DefaultCacheTTLSeconds is how long cached responses live in Redis
	DefaultCacheTTLSeconds = 300

	// DefaultCachePrefix namespaces cached response keys
	DefaultCachePrefix = "finance-insights:response:"
)

// Tolerances
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// FloatTolerance is used when checking statistical invariants
	FloatTolerance = 1e-6
)
