// Package ext exposes the service over HTTP: marker management, the
// synchronous simulation endpoint and the two SSE streams.
package ext

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/urbanflow/traffic-sim/internal/analysis"
	"github.com/urbanflow/traffic-sim/internal/simulation/entities"
	simulationengine "github.com/urbanflow/traffic-sim/internal/simulation/simulation-engine"
	"github.com/urbanflow/traffic-sim/internal/storage"
	"github.com/urbanflow/traffic-sim/internal/stream"
)

const noMarkersMessage = "No markers placed for simulation"

// Runner abstracts the orchestrator for the handlers.
type Runner interface {
	Run(ctx context.Context, markers []entities.Marker, durationMin int, radiusKm float64, hub *stream.Hub) (*entities.FinalMetrics, error)
}

type API struct {
	Store   *storage.Store
	Runner  Runner
	Analyst analysis.Analyst
	Log     logrus.FieldLogger

	DefaultDurationMin int
	DefaultRadiusKm    float64
}

// SimulationResponse is the full payload of a completed run.
type SimulationResponse struct {
	Metrics         *entities.FinalMetrics `json:"metrics"`
	AISummary       string                 `json:"ai_summary"`
	RiskAssessment  string                 `json:"risk_assessment"`
	Recommendations string                 `json:"recommendations"`
}

type coordinatePair struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

type markerRequest struct {
	Type        string         `json:"type"`
	Coordinates coordinatePair `json:"coordinates"`
}

type markerResponse struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Coordinates coordinatePair `json:"coordinates"`
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", a.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/markers", a.handleListMarkers)
	r.Post("/markers", a.handleAddMarker)
	r.Delete("/markers", a.handleClearMarkers)

	r.Post("/simulate", a.handleSimulate)
	r.Get("/simulate/stream", a.handleSimulateStream)
	r.Get("/simulate/live", a.handleSimulateLive)

	return r
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleListMarkers(w http.ResponseWriter, _ *http.Request) {
	markers, err := a.Store.ListMarkers()
	if err != nil {
		a.Log.WithError(err).Error("list markers")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "storage error"})
		return
	}
	out := make([]markerResponse, 0, len(markers))
	for _, m := range markers {
		out = append(out, toMarkerResponse(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleAddMarker(w http.ResponseWriter, r *http.Request) {
	var req markerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid marker payload"})
		return
	}

	markerType := entities.MarkerType(req.Type)
	if markerType != entities.MarkerConstruction && markerType != entities.MarkerFacility {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid marker type"})
		return
	}
	if req.Coordinates.Lng < -180 || req.Coordinates.Lng > 180 ||
		req.Coordinates.Lat < -90 || req.Coordinates.Lat > 90 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid marker coordinates"})
		return
	}

	m, err := a.Store.AddMarker(markerType, orb.Point{req.Coordinates.Lng, req.Coordinates.Lat})
	if err != nil {
		a.Log.WithError(err).Error("add marker")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "storage error"})
		return
	}
	writeJSON(w, http.StatusCreated, toMarkerResponse(m))
}

func (a *API) handleClearMarkers(w http.ResponseWriter, _ *http.Request) {
	if err := a.Store.ClearMarkers(); err != nil {
		a.Log.WithError(err).Error("clear markers")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "storage error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "All markers cleared"})
}

type simulateRequest struct {
	Duration int     `json:"duration"`
	Radius   float64 `json:"radius"`
}

func (a *API) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if r.Body != nil {
		// An empty body means defaults.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	duration, radius := a.applyDefaults(req.Duration, req.Radius)

	markers, err := a.Store.ListMarkers()
	if err != nil {
		a.Log.WithError(err).Error("list markers")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "storage error"})
		return
	}
	if len(markers) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": noMarkersMessage})
		return
	}

	start := time.Now()
	metrics, err := a.Runner.Run(r.Context(), markers, duration, radius, nil)
	simulationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		simulationsTotal.WithLabelValues("aborted").Inc()
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "simulation aborted"})
		return
	}
	simulationsTotal.WithLabelValues("completed").Inc()
	lastRunAffectedEdges.Set(float64(metrics.AffectedEdges))

	resp := a.buildResponse(metrics)
	if _, err := a.Store.SaveResult(resp); err != nil {
		a.Log.WithError(err).Warn("persist simulation result")
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) buildResponse(metrics *entities.FinalMetrics) SimulationResponse {
	report := a.Analyst.Analyze(metrics)
	return SimulationResponse{
		Metrics:         metrics,
		AISummary:       report.Summary,
		RiskAssessment:  report.RiskAssessment,
		Recommendations: report.Recommendations,
	}
}

func (a *API) applyDefaults(duration int, radius float64) (int, float64) {
	if duration <= 0 {
		duration = a.DefaultDurationMin
	}
	if radius <= 0 {
		radius = a.DefaultRadiusKm
	}
	return duration, radius
}

// runToHub executes a run in the background, terminating the hub with
// exactly one complete or error event.
func (a *API) runToHub(ctx context.Context, markers []entities.Marker, duration int, radius float64, hub *stream.Hub) {
	start := time.Now()
	metrics, err := a.Runner.Run(ctx, markers, duration, radius, hub)
	simulationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		outcome := "failed"
		if errors.Is(err, simulationengine.ErrSimulationAborted) {
			outcome = "aborted"
		}
		simulationsTotal.WithLabelValues(outcome).Inc()
		hub.Error(err.Error())
		return
	}
	simulationsTotal.WithLabelValues("completed").Inc()
	lastRunAffectedEdges.Set(float64(metrics.AffectedEdges))

	resp := a.buildResponse(metrics)
	if _, err := a.Store.SaveResult(resp); err != nil {
		a.Log.WithError(err).Warn("persist simulation result")
	}
	hub.Complete(resp)
}

func toMarkerResponse(m entities.Marker) markerResponse {
	return markerResponse{
		ID:   m.ID,
		Type: string(m.Type),
		Coordinates: coordinatePair{
			Lng: m.Coordinates[0],
			Lat: m.Coordinates[1],
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Debug("encode response")
	}
}
