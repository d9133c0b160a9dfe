// Package handlers provides HTTP and websocket handlers for portfolio analyses.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/events"
	"github.com/aristath/advisor/internal/modules/analytics"
	"github.com/aristath/advisor/internal/modules/optimization"
	"github.com/aristath/advisor/internal/modules/risk"
	"github.com/aristath/advisor/internal/modules/simulation"
)

// publicError is the only failure message clients see; causes are logged.
const publicError = "metrics unavailable, please retry"

const maxBodyBytes = 1 << 20

// Analyzer is the analytics service as seen by the handlers.
type Analyzer interface {
	Analyze(ctx context.Context, req analytics.Request, sink events.Sink) (*analytics.Report, error)
	Metrics(ctx context.Context, req analytics.MetricsRequest) (*risk.PortfolioStatistics, error)
	Simulate(req analytics.SimulationRequest) (*simulation.Result, error)
	Frontier(ctx context.Context, req analytics.FrontierRequest) (*optimization.Frontier, error)
}

// Handler handles analytics HTTP requests
type Handler struct {
	service Analyzer
	log     zerolog.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(service Analyzer, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "analytics").Logger(),
	}
}

// HandleAnalyze handles POST /api/analytics/portfolio
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analytics.Request
	if !h.decode(w, r, &req) {
		return
	}

	report, err := h.service.Analyze(r.Context(), req, nil)
	if err != nil {
		h.writeFailure(w, "analyze", err)
		return
	}
	h.writeData(w, report)
}

// HandleMetrics handles POST /api/analytics/metrics
func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	var req analytics.MetricsRequest
	if !h.decode(w, r, &req) {
		return
	}

	stats, err := h.service.Metrics(r.Context(), req)
	if err != nil {
		h.writeFailure(w, "metrics", err)
		return
	}
	h.writeData(w, stats)
}

// HandleSimulate handles POST /api/analytics/simulate
func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	var req analytics.SimulationRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.Simulate(req)
	if err != nil {
		h.writeFailure(w, "simulate", err)
		return
	}
	h.writeData(w, result)
}

// HandleFrontier handles POST /api/analytics/frontier
func (h *Handler) HandleFrontier(w http.ResponseWriter, r *http.Request) {
	var req analytics.FrontierRequest
	if !h.decode(w, r, &req) {
		return
	}

	frontier, err := h.service.Frontier(r.Context(), req)
	if err != nil {
		h.writeFailure(w, "frontier", err)
		return
	}
	h.writeData(w, frontier)
}

// clientErrors are failures caused by the request or its data rather than the server.
var clientErrors = []error{
	analytics.ErrInvalidRequest,
	domain.ErrInsufficientAssets,
	domain.ErrInsufficientHistory,
	domain.ErrDegenerateCovariance,
	domain.ErrInvalidSimulationParameters,
	domain.ErrWeightMismatch,
	domain.ErrInvalidWeights,
	domain.ErrInvalidFrontierParameters,
	domain.ErrAssetUnavailable,
	domain.ErrDuplicateAsset,
	domain.ErrUnknownProfile,
}

func statusFor(err error) int {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.log.Debug().Err(err).Str("path", r.URL.Path).Msg("Invalid request body")
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *Handler) writeFailure(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	event := h.log.Warn()
	if status >= http.StatusInternalServerError {
		event = h.log.Error()
	}
	event.Err(err).Str("operation", op).Int("status", status).Msg("Analytics request failed")
	h.writeError(w, status, publicError)
}

func (h *Handler) writeData(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON encodes data before committing the status, so an unencodable
// payload becomes a 500 instead of a truncated 200.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		h.log.Error().Err(err).Int("status", status).Msg("Failed to encode JSON response")
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(map[string]string{"error": publicError})
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.log.Warn().Err(err).Msg("Failed to write JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
