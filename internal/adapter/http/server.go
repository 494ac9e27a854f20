// Package http exposes the service's HTTP surface: health and readiness
// probes, Prometheus metrics, and the flood-risk and prediction APIs.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bahalana/floodcast/internal/domain"
	"github.com/bahalana/floodcast/internal/observability"
	"github.com/bahalana/floodcast/internal/predict"
	"github.com/bahalana/floodcast/internal/risk"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ClimateFetcher retrieves the daily observation window an assessment is
// scored from.
type ClimateFetcher interface {
	FetchDaily(ctx context.Context, location string, point domain.GeoPoint, start, end time.Time) ([]domain.DailyRecord, error)
}

// Predictor classifies a recent observation window.
type Predictor interface {
	Predict(in predict.Input) (domain.Prediction, error)
}

// Server exposes health, readiness, metrics, and flood API endpoints.
type Server struct {
	httpServer *http.Server
	fetcher    ClimateFetcher
	predictor  Predictor
	satellite  domain.SatelliteChecker
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates the HTTP server. predictor may be nil when no model
// artifact is configured; /api/predict then answers 503. satellite may be
// nil when IMERG is disabled.
func NewServer(addr string, ready ReadinessChecker, fetcher ClimateFetcher, predictor Predictor, satellite domain.SatelliteChecker, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		fetcher:   fetcher,
		predictor: predictor,
		satellite: satellite,
		metrics:   metrics,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /api/flood-risk", s.handleFloodRisk)
	mux.HandleFunc("POST /api/predict", s.handlePredict)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

type floodRiskRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
}

func (s *Server) handleFloodRisk(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req floodRiskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.apiError(w, "flood_risk", http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	point := domain.GeoPoint{Latitude: req.Latitude, Longitude: req.Longitude}
	from, to, err := validateRequest(point, req.StartDate, req.EndDate)
	if err != nil {
		s.apiError(w, "flood_risk", http.StatusBadRequest, err)
		return
	}

	window, err := s.fetcher.FetchDaily(r.Context(), "request", point, from, to)
	if err != nil && !errors.Is(err, domain.ErrEmptyInput) {
		s.apiError(w, "flood_risk", http.StatusBadGateway, fmt.Errorf("fetch climate data: %w", err))
		return
	}
	s.checkSatellite(r.Context(), point, to, window)

	assessment := risk.Score(point, domain.DateRange{Start: req.StartDate, End: req.EndDate}, window)

	s.metrics.AssessmentDuration.Observe(time.Since(start).Seconds())
	s.metrics.APIRequests.WithLabelValues("flood_risk", "success").Inc()
	writeJSON(w, http.StatusOK, assessment)
}

// checkSatellite probes IMERG coverage once per request, for the final day
// of the window, and stamps the answer onto the most recent record. A probe
// failure degrades to unknown coverage instead of failing the assessment.
func (s *Server) checkSatellite(ctx context.Context, point domain.GeoPoint, day time.Time, window []domain.DailyRecord) {
	if s.satellite == nil || len(window) == 0 {
		return
	}
	covered, err := s.satellite.Coverage(ctx, point, day)
	if err != nil {
		s.logger.Warn("satellite coverage check failed", "error", err)
		return
	}
	last := &window[len(window)-1]
	last.SatelliteKnown = true
	last.SatelliteAvailable = covered
}

type predictRequest struct {
	Precipitation []*float64 `json:"precipitation"`
	Temperature   []*float64 `json:"temperature"`
	Humidity      []*float64 `json:"humidity"`
	WindSpeed     []*float64 `json:"wind_speed"`
	Dates         []string   `json:"dates"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if s.predictor == nil {
		s.apiError(w, "predict", http.StatusServiceUnavailable, errors.New("no model loaded"))
		return
	}

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.apiError(w, "predict", http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	in, err := req.toInput()
	if err != nil {
		s.apiError(w, "predict", http.StatusBadRequest, err)
		return
	}

	prediction, err := s.predictor.Predict(in)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, domain.ErrFeatureMismatch) {
			status = http.StatusInternalServerError
		}
		s.apiError(w, "predict", status, err)
		return
	}

	s.metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	s.metrics.APIRequests.WithLabelValues("predict", "success").Inc()
	writeJSON(w, http.StatusOK, prediction)
}

func (r predictRequest) toInput() (predict.Input, error) {
	in := predict.Input{
		Precipitation: floatSeries(r.Precipitation),
		Temperature:   floatSeries(r.Temperature),
		Humidity:      floatSeries(r.Humidity),
		WindSpeed:     floatSeries(r.WindSpeed),
	}
	for _, raw := range r.Dates {
		d, err := time.Parse(domain.DateLayout, raw)
		if err != nil {
			return predict.Input{}, fmt.Errorf("parse date %q: %w", raw, err)
		}
		in.Dates = append(in.Dates, d)
	}
	return in, nil
}

// floatSeries maps JSON nulls to the NaN missing-value sentinel.
func floatSeries(vals []*float64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		if v == nil {
			out[i] = math.NaN()
		} else {
			out[i] = *v
		}
	}
	return out
}

func validateRequest(point domain.GeoPoint, startDate, endDate string) (time.Time, time.Time, error) {
	if point.Latitude < -90 || point.Latitude > 90 || point.Longitude < -180 || point.Longitude > 180 {
		return time.Time{}, time.Time{}, fmt.Errorf("coordinates out of range: %.4f,%.4f", point.Latitude, point.Longitude)
	}
	from, err := time.Parse(domain.DateLayout, startDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse start_date %q: %w", startDate, err)
	}
	to, err := time.Parse(domain.DateLayout, endDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse end_date %q: %w", endDate, err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date before start_date", domain.ErrBadDateRange)
	}
	today := domain.Now().UTC().Truncate(24 * time.Hour)
	if to.After(today) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date in the future", domain.ErrBadDateRange)
	}
	return from, to, nil
}

func (s *Server) apiError(w http.ResponseWriter, endpoint string, status int, err error) {
	s.metrics.APIRequests.WithLabelValues(endpoint, "error").Inc()
	if status >= http.StatusInternalServerError {
		s.logger.Error("api request failed", "endpoint", endpoint, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
