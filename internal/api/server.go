// Package api serves the monitor's read-side HTTP endpoints.
package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/aggregator"
	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/alerts"
)

// Server exposes per-symbol metrics, stress reports, quality scores,
// and alert history over HTTP.
type Server struct {
	engine *aggregator.Aggregator
	alerts *alerts.Manager
	logger *zap.Logger
}

// NewServer creates an API server. The alert manager may be nil, in
// which case the alert routes return empty histories.
func NewServer(engine *aggregator.Aggregator, alertManager *alerts.Manager, logger *zap.Logger) *Server {
	return &Server{
		engine: engine,
		alerts: alertManager,
		logger: logger.With(zap.String("component", "api")),
	}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Get("/symbols", s.handleSymbols)
	r.Get("/metrics/{symbol}", s.handleMetrics)
	r.Get("/metrics/{symbol}/detail", s.handleDetail)
	r.Get("/stress/{symbol}", s.handleStress)
	r.Get("/quality/{symbol}", s.handleQuality)
	r.Get("/alerts", s.handleAlerts)
	r.Get("/alerts/{symbol}", s.handleAlerts)

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int64("duration_us", time.Since(start).Microseconds()))
	})
}

// symbolParam extracts the {symbol} route parameter. FX symbols carry a
// slash (EUR/USD), so clients send them percent-encoded.
func symbolParam(r *http.Request) string {
	raw := chi.URLParam(r, "symbol")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSymbols(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"symbols": s.engine.Symbols()})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	symbol := symbolParam(r)
	record, ok := s.engine.CurrentMetrics(symbol)
	if !ok {
		writeNotFound(w, symbol)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	symbol := symbolParam(r)
	detail, ok := s.engine.DetailedMetrics(symbol)
	if !ok {
		writeNotFound(w, symbol)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleStress(w http.ResponseWriter, r *http.Request) {
	symbol := symbolParam(r)
	report, ok := s.engine.StressReport(symbol)
	if !ok {
		writeNotFound(w, symbol)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"symbol":   symbol,
		"stress":   report,
		"stressed": report.Any(),
	})
}

func (s *Server) handleQuality(w http.ResponseWriter, r *http.Request) {
	symbol := symbolParam(r)
	score, ok := s.engine.QualityScore(symbol)
	if !ok {
		writeNotFound(w, symbol)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"symbol":        symbol,
		"quality_score": score,
	})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	symbol := symbolParam(r)
	var history []alerts.Alert
	if s.alerts != nil {
		history = s.alerts.History(symbol)
	}
	if history == nil {
		history = []alerts.Alert{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": history})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeNotFound(w http.ResponseWriter, symbol string) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error":  "unknown symbol",
		"symbol": symbol,
	})
}
