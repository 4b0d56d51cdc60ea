package ext

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/urbanflow/traffic-sim/internal/stream"
)

// handleSimulateLive streams tagged frames (status, live_data,
// complete, error) until the run terminates or the client disconnects.
func (a *API) handleSimulateLive(w http.ResponseWriter, r *http.Request) {
	a.streamSimulation(w, r, func(w http.ResponseWriter, f http.Flusher, ev stream.Event) {
		writeSSEFrame(w, f, ev)
	})
}

// handleSimulateStream is the legacy progress stream: bare {message}
// frames for status lines, then a single {done, response} frame.
func (a *API) handleSimulateStream(w http.ResponseWriter, r *http.Request) {
	a.streamSimulation(w, r, func(w http.ResponseWriter, f http.Flusher, ev stream.Event) {
		switch ev.Type {
		case stream.EventStatus:
			writeSSEFrame(w, f, map[string]string{"message": ev.Message})
		case stream.EventComplete:
			writeSSEFrame(w, f, map[string]any{"done": true, "response": ev.Data})
		case stream.EventError:
			writeSSEFrame(w, f, map[string]any{"done": true, "error": ev.Message})
		}
	})
}

func (a *API) streamSimulation(w http.ResponseWriter, r *http.Request, write func(http.ResponseWriter, http.Flusher, stream.Event)) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	duration, _ := strconv.Atoi(r.URL.Query().Get("duration"))
	radius, _ := strconv.ParseFloat(r.URL.Query().Get("radius"), 64)
	duration, radius = a.applyDefaults(duration, radius)

	hub := stream.NewHub()

	markers, err := a.Store.ListMarkers()
	switch {
	case err != nil:
		a.Log.WithError(err).Error("list markers")
		hub.Error("storage error")
	case len(markers) == 0:
		hub.Error(noMarkersMessage)
	default:
		go a.runToHub(r.Context(), markers, duration, radius, hub)
	}

	for {
		ev, ok := hub.Next(r.Context())
		if !ok {
			return
		}
		write(w, flusher, ev)
		if ev.Type == stream.EventComplete || ev.Type == stream.EventError {
			return
		}
	}
}

func writeSSEFrame(w http.ResponseWriter, f http.Flusher, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
	f.Flush()
}
