package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/finance-insights/internal/analytics"
	"github.com/iwvelando/finance-insights/internal/cache"
	"github.com/iwvelando/finance-insights/internal/forecast"
	"github.com/iwvelando/finance-insights/internal/logging"
	"github.com/iwvelando/finance-insights/internal/server"
	"github.com/iwvelando/finance-insights/pkg/constants"
	"github.com/iwvelando/finance-insights/pkg/datetime"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 30 * time.Second

// newServer wires the engine, the optional cache and the handler. The
// returned cleanup closes the cache connection.
func newServer(cfg *server.Config, logger *zap.Logger) (*http.Server, func(), error) {
	period, err := datetime.ParseGranularity(cfg.Analytics.Period)
	if err != nil {
		return nil, nil, err
	}
	method, err := forecast.ParseMethod(cfg.Analytics.Method)
	if err != nil {
		return nil, nil, err
	}

	engine := analytics.NewEngine(logger, cfg.Analytics.Policy())
	cleanup := func() {}

	// A nil *cache.Cache must not reach the handler as a non-nil interface.
	var responseCache server.ResponseCache
	if cfg.Cache.Enabled {
		c, err := cache.New(logger, cfg.Cache)
		if err != nil {
			return nil, nil, err
		}
		responseCache = c
		cleanup = func() {
			if err := c.Close(); err != nil {
				logger.Warn("failed to close cache",
					zap.String("op", "main"),
					zap.Error(err),
				)
			}
		}
		logger.Info("response cache enabled",
			zap.String("op", "main"),
			zap.String("address", cfg.Cache.Address),
			zap.Duration("ttl", c.TTL()),
		)
	}

	handler := server.NewHandler(logger, engine, responseCache, server.Options{
		MaxBodySize: cfg.BodySizeBytes(),
		Version:     version,
		Period:      period,
		Method:      method,
		Scenarios:   cfg.Analytics.Scenarios,
	})

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv, cleanup, nil
}

func main() {
	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	address := flag.String("address", "", "listen address override (e.g. :8080)")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": %q}\n", *configLocation, err.Error())
		os.Exit(1)
	}
	if *address != "" {
		cfg.Address = *address
	}

	logger, err := logging.New(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": %q}\n", err.Error())
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	srv, cleanup, err := newServer(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build server",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("op", "main"),
			zap.String("address", cfg.Address),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
			return
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server", zap.String("op", "main"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
