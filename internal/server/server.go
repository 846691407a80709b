package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/finance-insights/internal/aggregate"
	"github.com/iwvelando/finance-insights/internal/analytics"
	"github.com/iwvelando/finance-insights/internal/anomaly"
	"github.com/iwvelando/finance-insights/internal/forecast"
	"github.com/iwvelando/finance-insights/internal/records"
	"github.com/iwvelando/finance-insights/internal/scenario"
	"github.com/iwvelando/finance-insights/internal/timeseries"
	"github.com/iwvelando/finance-insights/pkg/constants"
	"github.com/iwvelando/finance-insights/pkg/datetime"
	"go.uber.org/zap"
)

// cacheTimeout bounds each cache round trip so a slow Redis never stalls a
// request.
const cacheTimeout = 500 * time.Millisecond

// ResponseCache stores encoded responses by request fingerprint.
type ResponseCache interface {
	Key(route string, body []byte) string
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Options configures the handler. Period, Method and Scenarios apply when a
// request omits them.
type Options struct {
	MaxBodySize int64
	Version     string
	Period      datetime.Granularity
	Method      forecast.Method
	Scenarios   []scenario.Input
}

type handler struct {
	logger      *zap.Logger
	engine      *analytics.Engine
	cache       ResponseCache
	maxBodySize int64
	version     string
	defaults    analytics.Request
	// settings identifies the defaults and engine policy a cached response
	// was computed under.
	settings []byte
}

// settingsFingerprint encodes the handler defaults and engine policy so that
// handlers configured differently never share cached responses.
func settingsFingerprint(defaults analytics.Request, policy analytics.Policy) []byte {
	encoded, err := json.Marshal(struct {
		Period    datetime.Granularity `json:"period"`
		Method    forecast.Method      `json:"method"`
		Scenarios []scenario.Input     `json:"scenarios"`
		Policy    analytics.Policy     `json:"policy"`
	}{defaults.Period, defaults.Method, defaults.Scenarios, policy})
	if err != nil {
		return nil
	}
	return append(encoded, '\n')
}

// computeFunc runs one analytic over a decoded request.
type computeFunc func(analytics.Request) (interface{}, error)

// NewHandler constructs the HTTP handler that serves the analytics API.
// A nil cache disables response caching.
func NewHandler(logger *zap.Logger, engine *analytics.Engine, cache ResponseCache, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = analytics.NewEngine(logger, analytics.DefaultPolicy())
	}

	maxBodySize := opts.MaxBodySize
	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:      logger,
		engine:      engine,
		cache:       cache,
		maxBodySize: maxBodySize,
		version:     trimmedVersion,
		defaults: analytics.Request{
			Period:    opts.Period,
			Method:    opts.Method,
			Scenarios: opts.Scenarios,
		},
	}
	h.settings = settingsFingerprint(h.defaults, engine.Policy())

	mux := http.NewServeMux()

	mux.HandleFunc("/api/analytics/report", h.analyticsEndpoint("report", func(req analytics.Request) (interface{}, error) {
		return h.engine.Report(req)
	}))
	mux.HandleFunc("/api/analytics/profitability", h.analyticsEndpoint("profitability", func(req analytics.Request) (interface{}, error) {
		margins, err := h.engine.ProfitMargins(req)
		return profitabilityResponse{Services: margins}, err
	}))
	mux.HandleFunc("/api/analytics/cashflow", h.analyticsEndpoint("cashflow", func(req analytics.Request) (interface{}, error) {
		return h.engine.CashFlow(req)
	}))
	mux.HandleFunc("/api/analytics/ranking", h.analyticsEndpoint("ranking", func(req analytics.Request) (interface{}, error) {
		ranking, err := h.engine.Ranking(req)
		return rankingResponse{Ranking: ranking}, err
	}))
	mux.HandleFunc("/api/analytics/trends", h.analyticsEndpoint("trends", func(req analytics.Request) (interface{}, error) {
		return h.engine.Trends(req)
	}))
	mux.HandleFunc("/api/analytics/anomalies", h.analyticsEndpoint("anomalies", func(req analytics.Request) (interface{}, error) {
		found, err := h.engine.Anomalies(req)
		return anomaliesResponse{Anomalies: found, Summary: anomaly.Summarize(found)}, err
	}))
	mux.HandleFunc("/api/analytics/forecast", h.analyticsEndpoint("forecast", func(req analytics.Request) (interface{}, error) {
		return h.engine.Forecast(req)
	}))
	mux.HandleFunc("/api/analytics/scenarios", h.analyticsEndpoint("scenarios", func(req analytics.Request) (interface{}, error) {
		baseline, scenarios, err := h.engine.Scenarios(req)
		return scenariosResponse{Baseline: baseline, Scenarios: scenarios}, err
	}))

	// Version endpoint for client metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	return mux
}

// analyticsRequest is the JSON body accepted by every analytics endpoint.
type analyticsRequest struct {
	Records        []records.Entry  `json:"records"`
	Period         string           `json:"period,omitempty"`
	Method         string           `json:"method,omitempty"`
	HorizonMonths  int              `json:"horizonMonths,omitempty"`
	ScenarioMonths int              `json:"scenarioMonths,omitempty"`
	Start          string           `json:"start,omitempty"`
	End            string           `json:"end,omitempty"`
	Kind           string           `json:"kind,omitempty"`
	Scenarios      []scenario.Input `json:"scenarios,omitempty"`
}

type profitabilityResponse struct {
	Services []aggregate.ServiceProfit `json:"services"`
}

type rankingResponse struct {
	Ranking []aggregate.RankingEntry `json:"ranking"`
}

type anomaliesResponse struct {
	Anomalies []anomaly.Anomaly `json:"anomalies"`
	Summary   anomaly.Summary   `json:"summary"`
}

type scenariosResponse struct {
	Baseline  scenario.Baseline   `json:"baseline"`
	Scenarios []scenario.Scenario `json:"scenarios"`
}

func (h *handler) analyticsEndpoint(route string, compute computeFunc) http.HandlerFunc {
	op := "server.analytics." + route
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		start := time.Now()
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

		var payload analyticsRequest
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
					fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize), op)
				return
			}
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
			return
		}

		req, err := h.toRequest(payload)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
			return
		}

		var cacheKey string
		if h.cache != nil {
			// Re-encoding the decoded payload gives equal requests equal keys
			// regardless of whitespace or field order.
			canonical, err := json.Marshal(payload)
			if err == nil {
				cacheKey = h.cache.Key(route, append(append([]byte{}, h.settings...), canonical...))
				if body, ok := h.cacheGet(r.Context(), cacheKey, op); ok {
					w.Header().Set("X-Cache", "HIT")
					h.writeRaw(w, http.StatusOK, body)
					return
				}
			}
		}

		result, err := compute(req)
		if err != nil {
			h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
			return
		}

		body, err := json.Marshal(result)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode response: %v", err), op)
			return
		}
		body = append(body, '\n')

		if cacheKey != "" {
			h.cacheSet(r.Context(), cacheKey, body, op)
			w.Header().Set("X-Cache", "MISS")
		}

		h.logger.Info("analytics request served",
			zap.String("op", op),
			zap.Int("records", len(req.Records)),
			zap.Duration("duration", time.Since(start)),
		)
		h.writeRaw(w, http.StatusOK, body)
	}
}

// toRequest validates the wire payload and applies the handler defaults.
func (h *handler) toRequest(payload analyticsRequest) (analytics.Request, error) {
	recs, err := records.FromEntries(payload.Records)
	if err != nil {
		return analytics.Request{}, fmt.Errorf("invalid records: %w", err)
	}

	req := h.defaults
	req.Records = recs
	req.HorizonMonths = payload.HorizonMonths
	req.ScenarioMonths = payload.ScenarioMonths

	if payload.Period != "" {
		g, err := datetime.ParseGranularity(payload.Period)
		if err != nil {
			return analytics.Request{}, err
		}
		req.Period = g
	}
	if payload.Method != "" {
		m, err := forecast.ParseMethod(payload.Method)
		if err != nil {
			return analytics.Request{}, err
		}
		req.Method = m
	}
	if payload.Kind != "" {
		kind, err := records.ParseKind(payload.Kind)
		if err != nil {
			return analytics.Request{}, err
		}
		req.Kind = kind
	}
	if payload.Start != "" {
		if req.Start, err = records.ParseDate(payload.Start); err != nil {
			return analytics.Request{}, fmt.Errorf("start: %w", err)
		}
	}
	if payload.End != "" {
		if req.End, err = records.ParseDate(payload.End); err != nil {
			return analytics.Request{}, fmt.Errorf("end: %w", err)
		}
	}
	if payload.Scenarios != nil {
		req.Scenarios = payload.Scenarios
	}
	return req, nil
}

// statusFor maps analytics errors to HTTP statuses. Missing or short data is
// well-formed but unprocessable; everything else stems from request values.
func statusFor(err error) int {
	var insufficient *forecast.InsufficientHistoryError
	if errors.Is(err, timeseries.ErrEmptyData) || errors.As(err, &insufficient) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}

func (h *handler) cacheGet(ctx context.Context, key, op string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()
	body, ok, err := h.cache.Get(ctx, key)
	if err != nil {
		h.logger.Warn("cache lookup failed",
			zap.String("op", op),
			zap.Error(err),
		)
		return nil, false
	}
	return body, ok
}

func (h *handler) cacheSet(ctx context.Context, key string, body []byte, op string) {
	ctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()
	if err := h.cache.Set(ctx, key, body); err != nil {
		h.logger.Warn("cache store failed",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("analytics request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *handler) writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
