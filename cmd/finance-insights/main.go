package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/iwvelando/finance-insights/internal/analytics"
	"github.com/iwvelando/finance-insights/internal/config"
	"github.com/iwvelando/finance-insights/internal/forecast"
	"github.com/iwvelando/finance-insights/internal/logging"
	"github.com/iwvelando/finance-insights/internal/records"
	"github.com/iwvelando/finance-insights/pkg/constants"
	"github.com/iwvelando/finance-insights/pkg/datetime"
	"github.com/iwvelando/finance-insights/pkg/output"
	"github.com/iwvelando/finance-insights/pkg/validation"
	"go.uber.org/zap"
)

// options holds the command line flags. Empty values defer to the config file.
type options struct {
	configLocation string
	configSet      bool
	recordsPath    string
	period         string
	method         string
	horizonMonths  int
	kind           string
	start          string
	end            string
	outputFormat   string
	logLevel       string
}

func parseFlags(args []string) (options, error) {
	var opts options
	flags := flag.NewFlagSet("finance-insights", flag.ContinueOnError)
	flags.StringVar(&opts.configLocation, "config", constants.DefaultConfigFile, "path to configuration file")
	flags.StringVar(&opts.recordsPath, "records", "", "records file override (.yaml, .yml or .csv)")
	flags.StringVar(&opts.period, "period", "", "period granularity override: day, week, month")
	flags.StringVar(&opts.method, "method", "", "forecast method override: sma, exponential, holt, auto")
	flags.IntVar(&opts.horizonMonths, "horizon", 0, "forecast horizon override in months")
	flags.StringVar(&opts.kind, "kind", "", "series to analyze for trends and forecasts: revenue, expense")
	flags.StringVar(&opts.start, "start", "", "first day of the analysis range (YYYY-MM-DD)")
	flags.StringVar(&opts.end, "end", "", "day after the analysis range (YYYY-MM-DD)")
	flags.StringVar(&opts.outputFormat, "output-format", "", "type of output override: pretty, csv, json")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	if err := flags.Parse(args); err != nil {
		return options{}, err
	}
	flags.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			opts.configSet = true
		}
	})
	return opts, nil
}

// loadConfiguration reads the config file. Without an explicit -config flag a
// missing default file falls back to the built-in defaults.
func loadConfiguration(opts options) (*config.Configuration, error) {
	conf, err := config.LoadConfiguration(opts.configLocation)
	if err == nil {
		return conf, nil
	}
	if !opts.configSet {
		if _, statErr := os.Stat(opts.configLocation); errors.Is(statErr, fs.ErrNotExist) {
			return config.Default(), nil
		}
	}
	return nil, fmt.Errorf("failed to load configuration at %s: %w", opts.configLocation, err)
}

// applyOverrides folds the command line flags into the configuration.
func applyOverrides(conf *config.Configuration, opts options) {
	if opts.period != "" {
		conf.Analytics.Period = opts.period
	}
	if opts.method != "" {
		conf.Analytics.Method = opts.method
	}
	if opts.horizonMonths != 0 {
		conf.Analytics.HorizonMonths = opts.horizonMonths
	}
	if opts.outputFormat != "" {
		conf.Output.Format = opts.outputFormat
	}
	if conf.Output.Format == "" {
		conf.Output.Format = constants.OutputFormatPretty
	}
}

// recordsLocation resolves the records file. Relative paths from the config
// file are relative to the config file's directory.
func recordsLocation(conf *config.Configuration, opts options) string {
	if opts.recordsPath != "" {
		return opts.recordsPath
	}
	path := conf.Records.Path
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if _, err := os.Stat(opts.configLocation); err != nil {
		return path
	}
	return filepath.Join(filepath.Dir(opts.configLocation), path)
}

// buildRequest turns the analytics settings and range flags into a request.
func buildRequest(conf *config.Configuration, opts options, recs []records.MonetaryRecord) (analytics.Request, error) {
	period, err := datetime.ParseGranularity(conf.Analytics.Period)
	if err != nil {
		return analytics.Request{}, err
	}
	method, err := forecast.ParseMethod(conf.Analytics.Method)
	if err != nil {
		return analytics.Request{}, err
	}
	req := analytics.Request{
		Records:        recs,
		Period:         period,
		Method:         method,
		HorizonMonths:  conf.Analytics.HorizonMonths,
		ScenarioMonths: conf.Analytics.ScenarioMonths,
		Scenarios:      conf.Analytics.Scenarios,
	}
	if opts.kind != "" {
		if req.Kind, err = records.ParseKind(opts.kind); err != nil {
			return analytics.Request{}, err
		}
	}
	if opts.start != "" {
		if req.Start, err = records.ParseDate(opts.start); err != nil {
			return analytics.Request{}, fmt.Errorf("start: %w", err)
		}
	}
	if opts.end != "" {
		if req.End, err = records.ParseDate(opts.end); err != nil {
			return analytics.Request{}, fmt.Errorf("end: %w", err)
		}
	}
	return req, nil
}

// run executes the CLI and writes the report to stdout.
func run(args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	conf, err := loadConfiguration(opts)
	if err != nil {
		return err
	}
	applyOverrides(conf, opts)

	logger, err := logging.New(conf.Logging, opts.logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := validation.ValidateOutputFormat(conf.Output.Format); err != nil {
		logger.Error(err.Error(), zap.String("op", "main"))
		return err
	}
	if err := conf.Validate(); err != nil {
		logger.Error("invalid configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
		return err
	}

	path := recordsLocation(conf, opts)
	recs, err := records.LoadFile(path)
	if err != nil {
		logger.Error("failed to load records",
			zap.String("op", "main"),
			zap.String("path", path),
			zap.Error(err),
		)
		return err
	}
	logger.Debug("records loaded",
		zap.String("op", "main"),
		zap.String("path", path),
		zap.Int("count", len(recs)),
	)

	req, err := buildRequest(conf, opts, recs)
	if err != nil {
		logger.Error("invalid request flags",
			zap.String("op", "main"),
			zap.Error(err),
		)
		return err
	}

	engine := analytics.NewEngine(logger, conf.Analytics.Policy())
	report, err := engine.Report(req)
	if err != nil {
		logger.Error("failed to compute report",
			zap.String("op", "main"),
			zap.Error(err),
		)
		return err
	}

	return output.Write(stdout, conf.Output.Format, report)
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"finance-insights failed\", \"error\": %q}\n", err.Error())
		os.Exit(1)
	}
}
